package engine

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/louisbranch/decicourt/internal/services/court/domain/command"
	"github.com/louisbranch/decicourt/internal/services/court/domain/court"
	"github.com/louisbranch/decicourt/internal/services/court/domain/dispute"
	"github.com/louisbranch/decicourt/internal/services/court/domain/event"
	"github.com/louisbranch/decicourt/internal/services/court/domain/journal"
	"github.com/louisbranch/decicourt/internal/services/court/domain/ledger"
	"github.com/louisbranch/decicourt/internal/services/court/domain/selection"
)

const (
	testCourt  = "court-1"
	testEscrow = "court-escrow"
	startFunds = 10_000
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = t
}

type fixture struct {
	t         *testing.T
	clock     *fakeClock
	ledger    *ledger.Memory
	journal   *journal.Memory
	core      *Core
	processor *Processor
	params    court.Params
	supply    uint64
}

type fixtureOption func(*CoreConfig)

func newFixture(t *testing.T, opts ...fixtureOption) *fixture {
	t.Helper()
	commands := command.NewRegistry()
	require.NoError(t, court.RegisterCommands(commands))
	events := event.NewRegistry()
	require.NoError(t, court.RegisterEvents(events))

	f := &fixture{
		t:       t,
		clock:   &fakeClock{now: time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)},
		ledger:  ledger.NewMemory(),
		journal: journal.NewMemory(),
		params:  court.DefaultParams(),
	}
	cfg := CoreConfig{
		Handler: Handler{
			Commands: commands,
			Events:   events,
			Decider:  court.Decider{Params: f.params, Selection: selection.NewSeeded(11)},
			Now:      f.clock.Now,
		},
		Journal: f.journal,
		Ledger:  f.ledger,
		Escrow:  testEscrow,
		Logger:  zap.NewNop(),
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	core, err := NewCore(cfg)
	require.NoError(t, err)
	f.core = core
	f.processor = NewProcessor(core)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- f.processor.Run(ctx) }()
	t.Cleanup(func() {
		cancel()
		require.NoError(t, <-done)
	})
	return f
}

// fund seeds account and approves the escrow to pull from it.
func (f *fixture) fund(accounts ...string) {
	f.t.Helper()
	ctx := context.Background()
	for _, account := range accounts {
		require.NoError(f.t, f.ledger.Seed(ctx, account, startFunds))
		require.NoError(f.t, f.ledger.Approve(ctx, account, testEscrow, startFunds))
		f.supply += startFunds
	}
}

func (f *fixture) submit(cmdType command.Type, actor string, payload any) Result {
	f.t.Helper()
	payloadJSON, err := json.Marshal(payload)
	require.NoError(f.t, err)
	if payload == nil {
		payloadJSON = nil
	}
	result, err := f.processor.Submit(context.Background(), command.Command{
		CourtID:     testCourt,
		Type:        cmdType,
		ActorType:   command.ActorTypeAccount,
		ActorID:     actor,
		RequestID:   "req-" + actor,
		PayloadJSON: payloadJSON,
	})
	require.NoError(f.t, err)
	return result
}

func (f *fixture) accept(cmdType command.Type, actor string, payload any) Result {
	f.t.Helper()
	result := f.submit(cmdType, actor, payload)
	require.False(f.t, result.Rejected(), "%s by %s rejected: %+v", cmdType, actor, result.Decision.Rejections)
	return result
}

func (f *fixture) rejected(cmdType command.Type, actor string, payload any, code string) {
	f.t.Helper()
	result := f.submit(cmdType, actor, payload)
	require.True(f.t, result.Rejected(), "%s by %s accepted", cmdType, actor)
	require.Equal(f.t, code, result.Decision.Rejections[0].Code)
}

func (f *fixture) registerJurors(n int) []string {
	f.t.Helper()
	accounts := make([]string, n)
	for i := range accounts {
		accounts[i] = fmt.Sprintf("juror-%d", i+1)
		f.fund(accounts[i])
		f.accept(court.CommandTypeRegisterJuror, accounts[i], nil)
	}
	return accounts
}

func (f *fixture) world() court.World {
	f.t.Helper()
	w, err := f.processor.Snapshot(context.Background())
	require.NoError(f.t, err)
	return w
}

func (f *fixture) fileCase(plaintiff, defendant string) dispute.Case {
	f.t.Helper()
	result := f.accept(court.CommandTypeCreateCase, plaintiff, court.CreateCasePayload{Defendant: defendant, EvidenceRef: "ipfs://bundle"})
	var created court.CaseCreatedPayload
	require.NoError(f.t, json.Unmarshal(result.Decision.Events[0].PayloadJSON, &created))
	return f.world().Cases[created.CaseID]
}

func salt(account string) dispute.Word {
	var w dispute.Word
	copy(w[:], "salt:"+account)
	return w
}

// vote commits and reveals every listed vote, leaving the clock at the
// reveal deadline. VoteNone commits but never reveals.
func (f *fixture) vote(caseID uint64, votes map[string]dispute.Vote) {
	f.t.Helper()
	for account, v := range votes {
		sealed := v
		if sealed == dispute.VoteNone {
			sealed = dispute.VoteForDefendant
		}
		f.accept(court.CommandTypeCommitVote, account, court.CommitVotePayload{
			CaseID:     caseID,
			Commitment: dispute.Commit(sealed, salt(account)).String(),
		})
	}
	round := f.world().Cases[caseID].Round()
	f.clock.Set(round.CommitDeadline)
	for account, v := range votes {
		if v == dispute.VoteNone {
			continue
		}
		f.accept(court.CommandTypeRevealVote, account, court.RevealVotePayload{CaseID: caseID, Vote: v, Salt: salt(account).String()})
	}
	f.clock.Set(round.RevealDeadline)
}

func (f *fixture) balance(account string) uint64 {
	f.t.Helper()
	b, err := f.ledger.BalanceOf(context.Background(), account)
	require.NoError(f.t, err)
	return b
}

// requireConserved checks total supply and that escrow holds exactly the
// outstanding stakes plus unsettled fees and deposits.
func (f *fixture) requireConserved() {
	f.t.Helper()
	require.Equal(f.t, f.supply, f.ledger.TotalSupply())

	w := f.world()
	var owed uint64
	for _, j := range w.Jurors {
		owed += j.Stake
	}
	for _, c := range w.Cases {
		if c.Status != dispute.StatusVoting {
			continue
		}
		if c.IsAppealed {
			owed += c.AppealDeposit
		} else {
			owed += c.FilingFee
		}
	}
	require.Equal(f.t, owed, f.balance(testEscrow))
}
