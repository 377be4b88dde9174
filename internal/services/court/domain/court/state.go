package court

import (
	"github.com/louisbranch/decicourt/internal/services/court/domain/dispute"
	"github.com/louisbranch/decicourt/internal/services/court/domain/juror"
	"github.com/louisbranch/decicourt/internal/services/court/domain/reputation"
)

// World is the complete court state. One processor owns it; every other
// reader works on a Clone.
type World struct {
	Jurors      map[string]juror.State
	Reputations map[string]reputation.Record
	Pool        *juror.Pool
	Cases       map[uint64]dispute.Case
	NextCaseID  uint64
}

// NewWorld returns an empty court. Case ids start at 1.
func NewWorld() World {
	return World{
		Jurors:      make(map[string]juror.State),
		Reputations: make(map[string]reputation.Record),
		Pool:        juror.NewPool(),
		Cases:       make(map[uint64]dispute.Case),
		NextCaseID:  1,
	}
}

// Juror returns the juror state for account.
func (w World) Juror(account string) (juror.State, bool) {
	state, ok := w.Jurors[account]
	return state, ok
}

// Reputation returns the reputation for account, defaulting to a fresh record.
func (w World) Reputation(account string) reputation.Record {
	if record, ok := w.Reputations[account]; ok {
		return record
	}
	return reputation.New()
}

// Case returns the case with id.
func (w World) Case(id uint64) (dispute.Case, bool) {
	c, ok := w.Cases[id]
	return c, ok
}

// Clone returns a deep copy.
func (w World) Clone() World {
	clone := World{
		Jurors:      make(map[string]juror.State, len(w.Jurors)),
		Reputations: make(map[string]reputation.Record, len(w.Reputations)),
		Pool:        w.Pool.Clone(),
		Cases:       make(map[uint64]dispute.Case, len(w.Cases)),
		NextCaseID:  w.NextCaseID,
	}
	for k, v := range w.Jurors {
		clone.Jurors[k] = v
	}
	for k, v := range w.Reputations {
		clone.Reputations[k] = v
	}
	for k, v := range w.Cases {
		clone.Cases[k] = v.Clone()
	}
	return clone
}
