package dispute

import (
	"slices"
	"time"
)

// Phase is the voting phase of a round at a point in time.
type Phase uint8

const (
	PhaseCommit Phase = iota + 1
	PhaseReveal
	PhaseClosed
)

// Ballot is one juror's sealed and later opened vote.
type Ballot struct {
	Commitment Word
	Committed  bool
	Revealed   bool
	Vote       Vote
}

// Round is one jury's voting pass over a case.
type Round struct {
	Number         int
	Jurors         []string
	CommitDeadline time.Time
	RevealDeadline time.Time
	Ballots        map[string]Ballot
	PlaintiffVotes int
	DefendantVotes int
}

// HasJuror reports whether account sits on this round's jury.
func (r Round) HasJuror(account string) bool {
	return slices.Contains(r.Jurors, account)
}

// Phase returns the phase at now. Commit runs until the commit deadline,
// reveal from the commit deadline until the reveal deadline.
func (r Round) Phase(now time.Time) Phase {
	switch {
	case now.Before(r.CommitDeadline):
		return PhaseCommit
	case now.Before(r.RevealDeadline):
		return PhaseReveal
	default:
		return PhaseClosed
	}
}

// WinningSide returns the side with more revealed votes. Ties go to the
// defendant.
func (r Round) WinningSide() Vote {
	if r.PlaintiffVotes > r.DefendantVotes {
		return VoteForPlaintiff
	}
	return VoteForDefendant
}

// Correct reports whether account revealed a vote for side.
func (r Round) Correct(account string, side Vote) bool {
	ballot, ok := r.Ballots[account]
	return ok && ballot.Revealed && ballot.Vote == side
}

// Clone returns a deep copy.
func (r Round) Clone() Round {
	r.Jurors = slices.Clone(r.Jurors)
	ballots := make(map[string]Ballot, len(r.Ballots))
	for k, v := range r.Ballots {
		ballots[k] = v
	}
	r.Ballots = ballots
	return r
}

// Case is a dispute between a plaintiff and a defendant.
type Case struct {
	ID              uint64
	Plaintiff       string
	Defendant       string
	EvidenceRef     string
	Status          Status
	FilingFee       uint64
	CreatedAt       time.Time
	Rounds          []Round
	WinningSide     Vote
	Winner          string
	ResolvedAt      time.Time
	IsAppealed      bool
	Appellant       string
	AppealDeposit   uint64
	AppealSucceeded bool
}

// Round returns the current round.
func (c Case) Round() Round {
	if len(c.Rounds) == 0 {
		return Round{}
	}
	return c.Rounds[len(c.Rounds)-1]
}

// Party returns the account on side.
func (c Case) Party(side Vote) string {
	switch side {
	case VoteForPlaintiff:
		return c.Plaintiff
	case VoteForDefendant:
		return c.Defendant
	default:
		return ""
	}
}

// SideOf returns the side account is a party to.
func (c Case) SideOf(account string) Vote {
	switch account {
	case c.Plaintiff:
		return VoteForPlaintiff
	case c.Defendant:
		return VoteForDefendant
	default:
		return VoteNone
	}
}

// Clone returns a deep copy.
func (c Case) Clone() Case {
	rounds := make([]Round, len(c.Rounds))
	for i, r := range c.Rounds {
		rounds[i] = r.Clone()
	}
	c.Rounds = rounds
	return c
}
