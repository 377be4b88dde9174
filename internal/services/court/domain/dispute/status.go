package dispute

import (
	"fmt"
	"strings"
)

// Status is the case lifecycle status.
type Status uint8

const (
	StatusUnspecified    Status = 0
	StatusVoting         Status = 1
	StatusResolved       Status = 3
	StatusAppealResolved Status = 5
)

func (s Status) String() string {
	switch s {
	case StatusVoting:
		return "voting"
	case StatusResolved:
		return "resolved"
	case StatusAppealResolved:
		return "appeal_resolved"
	default:
		return "unspecified"
	}
}

// Vote is a juror's choice.
type Vote uint8

const (
	VoteNone         Vote = 0
	VoteForPlaintiff Vote = 1
	VoteForDefendant Vote = 2
)

// Valid reports whether v is a castable option.
func (v Vote) Valid() bool {
	return v == VoteForPlaintiff || v == VoteForDefendant
}

func (v Vote) String() string {
	switch v {
	case VoteForPlaintiff:
		return "plaintiff"
	case VoteForDefendant:
		return "defendant"
	default:
		return "none"
	}
}

// ParseVote accepts "plaintiff", "defendant", "1" or "2".
func ParseVote(s string) (Vote, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "plaintiff", "for_plaintiff", "1":
		return VoteForPlaintiff, nil
	case "defendant", "for_defendant", "2":
		return VoteForDefendant, nil
	default:
		return VoteNone, fmt.Errorf("unknown vote option %q", s)
	}
}
