// Package reputation tracks per-juror voting accuracy.
package reputation

const (
	// InitialScore is the score assigned to a juror with no history.
	InitialScore = 50
	// MaxScore is the upper clamp.
	MaxScore = 100
	// MinScore is the lower clamp.
	MinScore = 0
	// CorrectDelta is added for a vote on the winning side.
	CorrectDelta = 2
	// WrongDelta is subtracted for a losing or missing vote.
	WrongDelta = 5
	// NoviceVotes is the vote count below which a juror is a novice.
	NoviceVotes = 3
)

// Record is a juror's reputation.
type Record struct {
	Score            int `json:"score"`
	CorrectVotes     int `json:"correct_votes"`
	TotalVotes       int `json:"total_votes"`
	ConsecutiveWrong int `json:"consecutive_wrong"`
}

// New returns the record for a juror with no voting history.
func New() Record {
	return Record{Score: InitialScore}
}

// Outcome returns the record after one scored vote.
func (r Record) Outcome(correct bool) Record {
	r.TotalVotes++
	if correct {
		r.Score = clamp(r.Score + CorrectDelta)
		r.CorrectVotes++
		r.ConsecutiveWrong = 0
		return r
	}
	r.Score = clamp(r.Score - WrongDelta)
	r.ConsecutiveWrong++
	return r
}

// AccuracyRate returns 100*correct/total, or 0 with no votes.
func (r Record) AccuracyRate() int {
	if r.TotalVotes == 0 {
		return 0
	}
	return 100 * r.CorrectVotes / r.TotalVotes
}

// Novice reports whether the juror has fewer than NoviceVotes scored votes.
func (r Record) Novice() bool {
	return r.TotalVotes < NoviceVotes
}

func clamp(score int) int {
	return min(max(score, MinScore), MaxScore)
}
