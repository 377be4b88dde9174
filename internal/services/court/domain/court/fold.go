package court

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/louisbranch/decicourt/internal/services/court/domain/dispute"
	"github.com/louisbranch/decicourt/internal/services/court/domain/event"
	"github.com/louisbranch/decicourt/internal/services/court/domain/juror"
	"github.com/louisbranch/decicourt/internal/services/court/domain/reputation"
)

// Fold applies an event to w. Request handling and replay share it, so the
// World after replay equals the World that produced the journal.
func Fold(w *World, evt event.Event) error {
	if w.Jurors == nil {
		*w = NewWorld()
	}
	fold, ok := folds[evt.Type]
	if !ok {
		return fmt.Errorf("fold: unhandled event type %s", evt.Type)
	}
	if err := fold(w, evt); err != nil {
		return fmt.Errorf("fold %s seq %d: %w", evt.Type, evt.Seq, err)
	}
	return nil
}

// Applier adapts Fold to the replay and engine interfaces.
type Applier struct{}

// Apply folds evt into state. The maps inside state are updated in place.
func (Applier) Apply(state World, evt event.Event) (World, error) {
	err := Fold(&state, evt)
	return state, err
}

var folds = map[event.Type]func(*World, event.Event) error{
	EventTypeJurorRegistered:   foldJurorRegistered,
	EventTypeJurorUnregistered: foldJurorUnregistered,
	EventTypeCaseCreated:       foldCaseCreated,
	EventTypeVoteCommitted:     foldVoteCommitted,
	EventTypeVoteRevealed:      foldVoteRevealed,
	EventTypeReputationUpdated: foldReputationUpdated,
	EventTypeJurorPenalized:    foldJurorPenalized,
	EventTypeJurorRewarded:     foldAuditOnly,
	EventTypeCasePayout:        foldAuditOnly,
	EventTypeCaseResolved:      foldCaseResolved,
	EventTypeAppealInitiated:   foldAppealInitiated,
	EventTypeAppealResolved:    foldAppealResolved,
}

func decode[T any](evt event.Event) (T, error) {
	var payload T
	if err := json.Unmarshal(evt.PayloadJSON, &payload); err != nil {
		return payload, fmt.Errorf("decode payload: %w", err)
	}
	return payload, nil
}

func foldJurorRegistered(w *World, evt event.Event) error {
	p, err := decode[JurorRegisteredPayload](evt)
	if err != nil {
		return err
	}
	w.Jurors[p.Juror] = juror.State{Account: p.Juror, Stake: p.Stake, Registered: true}
	if _, ok := w.Reputations[p.Juror]; !ok {
		w.Reputations[p.Juror] = reputation.New()
	}
	if p.Stake > 0 {
		w.Pool.Add(p.Juror)
	}
	return nil
}

func foldJurorUnregistered(w *World, evt event.Event) error {
	p, err := decode[JurorUnregisteredPayload](evt)
	if err != nil {
		return err
	}
	delete(w.Jurors, p.Juror)
	w.Pool.Remove(p.Juror)
	return nil
}

func foldCaseCreated(w *World, evt event.Event) error {
	p, err := decode[CaseCreatedPayload](evt)
	if err != nil {
		return err
	}
	w.Cases[p.CaseID] = dispute.Case{
		ID:          p.CaseID,
		Plaintiff:   p.Plaintiff,
		Defendant:   p.Defendant,
		EvidenceRef: p.EvidenceRef,
		Status:      dispute.StatusVoting,
		FilingFee:   p.FilingFee,
		CreatedAt:   evt.Timestamp,
		Rounds:      []dispute.Round{newRound(1, p.Jurors, p.CommitDeadline, p.RevealDeadline)},
	}
	if p.CaseID >= w.NextCaseID {
		w.NextCaseID = p.CaseID + 1
	}
	seat(w, p.CaseID, p.Jurors)
	return nil
}

func foldVoteCommitted(w *World, evt event.Event) error {
	p, err := decode[VoteCommittedPayload](evt)
	if err != nil {
		return err
	}
	return updateBallot(w, p.CaseID, p.Juror, func(r *dispute.Round, b *dispute.Ballot) {
		b.Committed = true
		b.Commitment = p.Commitment
	})
}

func foldVoteRevealed(w *World, evt event.Event) error {
	p, err := decode[VoteRevealedPayload](evt)
	if err != nil {
		return err
	}
	return updateBallot(w, p.CaseID, p.Juror, func(r *dispute.Round, b *dispute.Ballot) {
		b.Revealed = true
		b.Vote = p.Vote
		switch p.Vote {
		case dispute.VoteForPlaintiff:
			r.PlaintiffVotes++
		case dispute.VoteForDefendant:
			r.DefendantVotes++
		}
	})
}

func foldReputationUpdated(w *World, evt event.Event) error {
	p, err := decode[ReputationUpdatedPayload](evt)
	if err != nil {
		return err
	}
	w.Reputations[p.Juror] = reputation.Record{
		Score:            p.Score,
		CorrectVotes:     p.CorrectVotes,
		TotalVotes:       p.TotalVotes,
		ConsecutiveWrong: p.ConsecutiveWrong,
	}
	return nil
}

func foldJurorPenalized(w *World, evt event.Event) error {
	p, err := decode[JurorPenalizedPayload](evt)
	if err != nil {
		return err
	}
	state, ok := w.Jurors[p.Juror]
	if !ok {
		return fmt.Errorf("penalized juror %s is not registered", p.Juror)
	}
	state.Stake = p.RemainingStake
	w.Jurors[p.Juror] = state
	return nil
}

func foldAuditOnly(*World, event.Event) error {
	return nil
}

func foldCaseResolved(w *World, evt event.Event) error {
	p, err := decode[CaseResolvedPayload](evt)
	if err != nil {
		return err
	}
	c, ok := w.Cases[p.CaseID]
	if !ok {
		return fmt.Errorf("case %d not found", p.CaseID)
	}
	c.Status = dispute.StatusResolved
	c.WinningSide = p.WinningSide
	c.Winner = p.Winner
	c.ResolvedAt = evt.Timestamp
	w.Cases[p.CaseID] = c
	release(w, c.Round().Jurors)
	return nil
}

func foldAppealInitiated(w *World, evt event.Event) error {
	p, err := decode[AppealInitiatedPayload](evt)
	if err != nil {
		return err
	}
	c, ok := w.Cases[p.CaseID]
	if !ok {
		return fmt.Errorf("case %d not found", p.CaseID)
	}
	c.Status = dispute.StatusVoting
	c.IsAppealed = true
	c.Appellant = p.Appellant
	c.AppealDeposit = p.Deposit
	c.Rounds = append(c.Rounds, newRound(len(c.Rounds)+1, p.Jurors, p.CommitDeadline, p.RevealDeadline))
	w.Cases[p.CaseID] = c
	seat(w, p.CaseID, p.Jurors)
	return nil
}

func foldAppealResolved(w *World, evt event.Event) error {
	p, err := decode[AppealResolvedPayload](evt)
	if err != nil {
		return err
	}
	c, ok := w.Cases[p.CaseID]
	if !ok {
		return fmt.Errorf("case %d not found", p.CaseID)
	}
	c.Status = dispute.StatusAppealResolved
	c.WinningSide = p.WinningSide
	c.Winner = p.Winner
	c.AppealSucceeded = p.AppealSucceeded
	c.ResolvedAt = evt.Timestamp
	w.Cases[p.CaseID] = c
	release(w, c.Round().Jurors)
	return nil
}

func newRound(number int, jurors []string, commitDeadline, revealDeadline time.Time) dispute.Round {
	return dispute.Round{
		Number:         number,
		Jurors:         append([]string(nil), jurors...),
		CommitDeadline: commitDeadline,
		RevealDeadline: revealDeadline,
		Ballots:        make(map[string]dispute.Ballot, len(jurors)),
	}
}

// seat moves jurors from the pool onto the case.
func seat(w *World, caseID uint64, jurors []string) {
	for _, account := range jurors {
		state := w.Jurors[account]
		state.Serving = true
		state.CaseID = caseID
		w.Jurors[account] = state
		w.Pool.Remove(account)
	}
}

// release returns jurors to the pool. A juror whose stake was fully forfeited
// stays registered but out of the pool.
func release(w *World, jurors []string) {
	for _, account := range jurors {
		state, ok := w.Jurors[account]
		if !ok {
			continue
		}
		state.Serving = false
		state.CaseID = 0
		w.Jurors[account] = state
		if state.Available() {
			w.Pool.Add(account)
		}
	}
}

func updateBallot(w *World, caseID uint64, account string, fn func(*dispute.Round, *dispute.Ballot)) error {
	c, ok := w.Cases[caseID]
	if !ok {
		return fmt.Errorf("case %d not found", caseID)
	}
	if len(c.Rounds) == 0 {
		return fmt.Errorf("case %d has no round", caseID)
	}
	round := &c.Rounds[len(c.Rounds)-1]
	if round.Ballots == nil {
		round.Ballots = make(map[string]dispute.Ballot)
	}
	ballot := round.Ballots[account]
	fn(round, &ballot)
	round.Ballots[account] = ballot
	w.Cases[caseID] = c
	return nil
}
