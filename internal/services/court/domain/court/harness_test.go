package court

import (
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/louisbranch/decicourt/internal/services/court/domain/command"
	"github.com/louisbranch/decicourt/internal/services/court/domain/dispute"
	"github.com/louisbranch/decicourt/internal/services/court/domain/event"
	"github.com/louisbranch/decicourt/internal/services/court/domain/selection"
)

var testStart = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

type harness struct {
	t      *testing.T
	world  World
	decide Decider
	now    time.Time
	events []event.Event
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	return &harness{
		t:      t,
		world:  NewWorld(),
		decide: Decider{Params: DefaultParams(), Selection: selection.NewSeeded(1)},
		now:    testStart,
	}
}

func (h *harness) exec(cmdType command.Type, actor string, payload any) command.Decision {
	h.t.Helper()
	payloadJSON := []byte("{}")
	if payload != nil {
		var err error
		payloadJSON, err = json.Marshal(payload)
		require.NoError(h.t, err)
	}
	cmd := command.Command{
		CourtID:     "court-1",
		Type:        cmdType,
		ActorType:   command.ActorTypeAccount,
		ActorID:     actor,
		PayloadJSON: payloadJSON,
	}
	decision := h.decide.Decide(h.world, cmd, func() time.Time { return h.now })
	for _, evt := range decision.Events {
		require.NoError(h.t, Fold(&h.world, evt))
		h.events = append(h.events, evt)
	}
	return decision
}

func (h *harness) accept(cmdType command.Type, actor string, payload any) []event.Event {
	h.t.Helper()
	decision := h.exec(cmdType, actor, payload)
	require.Empty(h.t, decision.Rejections, "command %s by %s", cmdType, actor)
	return decision.Events
}

func (h *harness) rejected(cmdType command.Type, actor string, payload any, code, message string) {
	h.t.Helper()
	decision := h.exec(cmdType, actor, payload)
	require.Empty(h.t, decision.Events)
	require.Len(h.t, decision.Rejections, 1)
	require.Equal(h.t, code, decision.Rejections[0].Code)
	if message != "" {
		require.Equal(h.t, message, decision.Rejections[0].Message)
	}
}

func (h *harness) registerJurors(n int) []string {
	h.t.Helper()
	accounts := make([]string, n)
	for i := range accounts {
		accounts[i] = fmt.Sprintf("juror-%d", i+1)
		h.accept(CommandTypeRegisterJuror, accounts[i], nil)
	}
	return accounts
}

func (h *harness) fileCase(plaintiff, defendant string) dispute.Case {
	h.t.Helper()
	events := h.accept(CommandTypeCreateCase, plaintiff, CreateCasePayload{Defendant: defendant, EvidenceRef: "ipfs://evidence"})
	var created CaseCreatedPayload
	require.NoError(h.t, json.Unmarshal(events[0].PayloadJSON, &created))
	c, ok := h.world.Case(created.CaseID)
	require.True(h.t, ok)
	return c
}

func saltFor(account string) dispute.Word {
	var salt dispute.Word
	copy(salt[:], account)
	salt[31] = 0x5a
	return salt
}

// vote commits for every juror in votes, moves to the reveal phase and reveals
// for every juror whose vote is set. VoteNone commits but never reveals.
func (h *harness) vote(caseID uint64, votes map[string]dispute.Vote) {
	h.t.Helper()
	for account, v := range votes {
		sealed := v
		if sealed == dispute.VoteNone {
			sealed = dispute.VoteForPlaintiff
		}
		h.accept(CommandTypeCommitVote, account, CommitVotePayload{
			CaseID:     caseID,
			Commitment: dispute.Commit(sealed, saltFor(account)).String(),
		})
	}
	c, _ := h.world.Case(caseID)
	h.now = c.Round().CommitDeadline
	for account, v := range votes {
		if v == dispute.VoteNone {
			continue
		}
		h.accept(CommandTypeRevealVote, account, RevealVotePayload{CaseID: caseID, Vote: v, Salt: saltFor(account).String()})
	}
	h.now = c.Round().RevealDeadline
}

func payloadsOf[T any](t *testing.T, events []event.Event, eventType event.Type) []T {
	t.Helper()
	var out []T
	for _, evt := range events {
		if evt.Type != eventType {
			continue
		}
		var p T
		require.NoError(t, json.Unmarshal(evt.PayloadJSON, &p))
		out = append(out, p)
	}
	return out
}
