package engine

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/louisbranch/decicourt/internal/platform/errors"
	"github.com/louisbranch/decicourt/internal/services/court/domain/command"
	"github.com/louisbranch/decicourt/internal/services/court/domain/court"
	"github.com/louisbranch/decicourt/internal/services/court/domain/dispute"
	"github.com/louisbranch/decicourt/internal/services/court/domain/event"
	"github.com/louisbranch/decicourt/internal/services/court/domain/journal"
	"github.com/louisbranch/decicourt/internal/services/court/domain/ledger"
)

type flakyJournal struct {
	*journal.Memory
	mu   sync.Mutex
	fail bool
}

func (j *flakyJournal) setFail(fail bool) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.fail = fail
}

func (j *flakyJournal) AppendEvents(ctx context.Context, events []event.Event) ([]event.Event, error) {
	j.mu.Lock()
	fail := j.fail
	j.mu.Unlock()
	if fail {
		return nil, errors.New("disk full")
	}
	return j.Memory.AppendEvents(ctx, events)
}

// garblingJournal stores events faithfully but hands back the last one of
// each batch with a type the World cannot fold.
type garblingJournal struct {
	*journal.Memory
	armed bool
}

func (j *garblingJournal) AppendEvents(ctx context.Context, events []event.Event) ([]event.Event, error) {
	stored, err := j.Memory.AppendEvents(ctx, events)
	if err != nil || !j.armed || len(stored) == 0 {
		return stored, err
	}
	stored[len(stored)-1].Type = "court.unknown"
	return stored, nil
}

type refusingLedger struct {
	*ledger.Memory
	refuse string
}

func (l refusingLedger) Transfer(ctx context.Context, from, to string, amount uint64) error {
	if to == l.refuse {
		return errors.New("recipient rejected transfer")
	}
	return l.Memory.Transfer(ctx, from, to, amount)
}

func TestNewCoreRequiresDependencies(t *testing.T) {
	commands := command.NewRegistry()
	valid := CoreConfig{
		Handler: Handler{Commands: commands, Decider: court.Decider{Params: court.DefaultParams()}},
		Journal: journal.NewMemory(),
		Ledger:  ledger.NewMemory(),
		Escrow:  testEscrow,
	}

	for _, tt := range []struct {
		name   string
		mutate func(*CoreConfig)
		want   error
	}{
		{name: "commands", mutate: func(c *CoreConfig) { c.Handler.Commands = nil }, want: ErrCommandRegistryRequired},
		{name: "decider", mutate: func(c *CoreConfig) { c.Handler.Decider = nil }, want: ErrDeciderRequired},
		{name: "journal", mutate: func(c *CoreConfig) { c.Journal = nil }, want: ErrJournalRequired},
		{name: "ledger", mutate: func(c *CoreConfig) { c.Ledger = nil }, want: ErrLedgerRequired},
	} {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid
			tt.mutate(&cfg)
			_, err := NewCore(cfg)
			require.ErrorIs(t, err, tt.want)
		})
	}

	cfg := valid
	cfg.Escrow = ""
	_, err := NewCore(cfg)
	require.Error(t, err)

	core, err := NewCore(valid)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), core.World().NextCaseID)
}

func TestFailedPullLeavesStateUntouched(t *testing.T) {
	f := newFixture(t)
	f.registerJurors(3)
	eventsBefore, err := f.journal.ListEvents(context.Background(), testCourt, 0, 0)
	require.NoError(t, err)

	f.rejected(court.CommandTypeCreateCase, "broke", court.CreateCasePayload{Defendant: "defendant"}, "LEDGER_INSUFFICIENT_ALLOWANCE")

	w := f.world()
	assert.Empty(t, w.Cases)
	assert.Equal(t, uint64(1), w.NextCaseID)
	assert.Equal(t, 3, w.Pool.Len())
	eventsAfter, err := f.journal.ListEvents(context.Background(), testCourt, 0, 0)
	require.NoError(t, err)
	assert.Len(t, eventsAfter, len(eventsBefore))
	f.requireConserved()
}

func TestFailedPullWithAllowanceButNoBalance(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.ledger.Approve(context.Background(), "juror-x", testEscrow, 1_000))
	f.rejected(court.CommandTypeRegisterJuror, "juror-x", nil, "LEDGER_INSUFFICIENT_BALANCE")
	assert.Empty(t, f.world().Jurors)
}

func TestJournalFailureRefundsPull(t *testing.T) {
	flaky := &flakyJournal{Memory: journal.NewMemory()}
	f := newFixture(t, func(cfg *CoreConfig) { cfg.Journal = flaky })
	f.fund("plaintiff")
	f.registerJurors(3)

	flaky.setFail(true)
	_, err := f.processor.Submit(context.Background(), command.Command{
		CourtID:     testCourt,
		Type:        court.CommandTypeCreateCase,
		ActorID:     "plaintiff",
		PayloadJSON: []byte(`{"defendant":"defendant"}`),
	})
	require.Error(t, err)
	assert.False(t, IsNonRetryable(err))

	assert.Equal(t, uint64(startFunds), f.balance("plaintiff"))
	w := f.world()
	assert.Empty(t, w.Cases)
	assert.Equal(t, 3, w.Pool.Len())
	f.requireConserved()

	flaky.setFail(false)
	c := f.fileCase("plaintiff", "defendant")
	assert.Equal(t, uint64(1), c.ID)
}

func TestPayoutFailureIsNonRetryable(t *testing.T) {
	f := newFixture(t, func(cfg *CoreConfig) {
		cfg.Ledger = refusingLedger{Memory: cfg.Ledger.(*ledger.Memory), refuse: "plaintiff"}
	})
	f.fund("plaintiff")
	f.registerJurors(3)
	c := f.fileCase("plaintiff", "defendant")
	votes := map[string]dispute.Vote{}
	for _, account := range c.Round().Jurors {
		votes[account] = dispute.VoteForPlaintiff
	}
	f.vote(c.ID, votes)

	result, err := f.processor.Submit(context.Background(), command.Command{
		CourtID:     testCourt,
		Type:        court.CommandTypeExecuteVerdict,
		ActorID:     "anyone",
		PayloadJSON: []byte(`{"case_id":1}`),
	})
	require.Error(t, err)
	assert.True(t, IsNonRetryable(err))
	assert.Equal(t, apperrors.CodePayoutFailed, apperrors.CodeOf(err))
	assert.Len(t, result.Payouts, 3, "juror rewards still paid")

	resolved := f.world().Cases[c.ID]
	assert.Equal(t, dispute.StatusResolved, resolved.Status)
	assert.Equal(t, uint64(startFunds-100), f.balance("plaintiff"))

	f.rejected(court.CommandTypeExecuteVerdict, "anyone", court.CaseTargetPayload{CaseID: c.ID}, "VERDICT_NOT_READY")
}

func TestReentrantVerdictFromPayoutIsRejected(t *testing.T) {
	f := newFixture(t)
	f.fund("plaintiff")
	f.registerJurors(3)
	c := f.fileCase("plaintiff", "defendant")
	jurors := c.Round().Jurors
	target := jurors[0]
	f.vote(c.ID, map[string]dispute.Vote{target: dispute.VoteForPlaintiff})

	var (
		fired     bool
		reentered Result
		reErr     error
	)
	f.ledger.OnTransfer(func(ctx context.Context, mv ledger.Movement) {
		if fired || mv.From != testEscrow || mv.To != target {
			return
		}
		fired = true
		reentered, reErr = f.processor.Submit(ctx, command.Command{
			CourtID:     testCourt,
			Type:        court.CommandTypeExecuteVerdict,
			ActorID:     target,
			PayloadJSON: []byte(`{"case_id":1}`),
		})
	})

	f.accept(court.CommandTypeExecuteVerdict, "plaintiff", court.CaseTargetPayload{CaseID: c.ID})
	require.NoError(t, reErr)
	require.True(t, reentered.Rejected())
	assert.Equal(t, "REENTRANT_CALL", reentered.Decision.Rejections[0].Code)
	f.requireConserved()
}

func TestPayoutCallbackSeesSettledState(t *testing.T) {
	f := newFixture(t)
	f.fund("plaintiff")
	f.registerJurors(3)
	c := f.fileCase("plaintiff", "defendant")
	target := c.Round().Jurors[0]
	f.vote(c.ID, map[string]dispute.Vote{target: dispute.VoteForPlaintiff})

	// The hook runs on the processor goroutine; the flag stops the nested
	// stake refund from re-triggering it.
	var (
		fired bool
		inner Result
		err   error
		seen  court.World
	)
	f.ledger.OnTransfer(func(ctx context.Context, mv ledger.Movement) {
		if fired || mv.From != testEscrow || mv.To != target {
			return
		}
		fired = true
		seen, err = f.processor.Snapshot(ctx)
		if err != nil {
			return
		}
		inner, err = f.processor.Submit(ctx, command.Command{
			CourtID: testCourt,
			Type:    court.CommandTypeUnregisterJuror,
			ActorID: target,
		})
	})

	result := f.accept(court.CommandTypeExecuteVerdict, "plaintiff", court.CaseTargetPayload{CaseID: c.ID})
	var reward uint64
	for _, evt := range result.Decision.Events {
		if evt.Type != court.EventTypeJurorRewarded {
			continue
		}
		var p court.JurorRewardedPayload
		require.NoError(t, json.Unmarshal(evt.PayloadJSON, &p))
		if p.Juror == target {
			reward = p.Amount
		}
	}
	require.NotZero(t, reward)
	require.NoError(t, err)
	assert.Equal(t, dispute.StatusResolved, seen.Cases[c.ID].Status)
	assert.False(t, seen.Jurors[target].Serving)
	require.False(t, inner.Rejected(), "%+v", inner.Decision.Rejections)

	w := f.world()
	_, registered := w.Jurors[target]
	assert.False(t, registered)
	assert.False(t, w.Pool.Contains(target))
	assert.Equal(t, uint64(startFunds)+reward, f.balance(target))
	f.requireConserved()
}

func TestFoldFailureLeavesWorldUntouched(t *testing.T) {
	garbling := &garblingJournal{Memory: journal.NewMemory()}
	f := newFixture(t, func(cfg *CoreConfig) { cfg.Journal = garbling })
	f.fund("plaintiff")
	f.registerJurors(3)
	c := f.fileCase("plaintiff", "defendant")
	votes := map[string]dispute.Vote{}
	for _, account := range c.Round().Jurors {
		votes[account] = dispute.VoteForDefendant
	}
	f.vote(c.ID, votes)
	before := f.world()
	require.Equal(t, dispute.StatusVoting, before.Cases[c.ID].Status)

	garbling.armed = true
	result, err := f.processor.Submit(context.Background(), command.Command{
		CourtID:     testCourt,
		Type:        court.CommandTypeExecuteVerdict,
		ActorID:     "anyone",
		PayloadJSON: []byte(`{"case_id":1}`),
	})
	require.Error(t, err)
	assert.True(t, IsNonRetryable(err))
	assert.Greater(t, len(result.Decision.Events), 1)
	assert.Empty(t, result.Payouts)

	// Earlier events of the batch fold fine but are not kept.
	assert.Equal(t, before, f.world())
}
