package engine

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/louisbranch/decicourt/internal/services/court/domain/court"
	"github.com/louisbranch/decicourt/internal/services/court/domain/dispute"
)

func TestScenarioUnanimousVerdict(t *testing.T) {
	f := newFixture(t)
	f.fund("plaintiff")
	f.registerJurors(3)
	c := f.fileCase("plaintiff", "defendant")
	f.requireConserved()

	votes := map[string]dispute.Vote{}
	for _, account := range c.Round().Jurors {
		votes[account] = dispute.VoteForPlaintiff
	}
	f.vote(c.ID, votes)
	result := f.accept(court.CommandTypeExecuteVerdict, "plaintiff", court.CaseTargetPayload{CaseID: c.ID})
	assert.Len(t, result.Payouts, 4)

	w := f.world()
	for _, account := range c.Round().Jurors {
		rep := w.Reputation(account)
		assert.Equal(t, 52, rep.Score)
		assert.Equal(t, 100, rep.AccuracyRate())
		assert.Equal(t, uint64(500), w.Jurors[account].Stake)
		assert.Equal(t, uint64(startFunds-500+16), f.balance(account))
	}
	assert.Equal(t, uint64(startFunds-100+52), f.balance("plaintiff"))
	assert.Equal(t, uint64(1500), f.balance(testEscrow))
	f.requireConserved()
}

func TestScenarioMinorityJuror(t *testing.T) {
	f := newFixture(t)
	f.fund("plaintiff")
	f.registerJurors(3)
	c := f.fileCase("plaintiff", "defendant")
	jurors := c.Round().Jurors
	minority := jurors[2]

	f.vote(c.ID, map[string]dispute.Vote{
		jurors[0]: dispute.VoteForPlaintiff,
		jurors[1]: dispute.VoteForPlaintiff,
		minority:  dispute.VoteForDefendant,
	})
	f.accept(court.CommandTypeExecuteVerdict, "anyone", court.CaseTargetPayload{CaseID: c.ID})

	w := f.world()
	assert.Equal(t, 52, w.Reputation(jurors[0]).Score)
	assert.Equal(t, 52, w.Reputation(jurors[1]).Score)
	rep := w.Reputation(minority)
	assert.Equal(t, 45, rep.Score)
	assert.Equal(t, 1, rep.ConsecutiveWrong)

	forfeited := uint64(500) - w.Jurors[minority].Stake
	assert.Equal(t, uint64(125), forfeited)
	assert.LessOrEqual(t, forfeited, uint64(500*50/100/2), "novice penalty is at most half the base")

	assert.Equal(t, uint64(startFunds-500), f.balance(minority))
	assert.Equal(t, uint64(startFunds-500+56), f.balance(jurors[0]))
	assert.Equal(t, uint64(startFunds-100+113), f.balance("plaintiff"))
	f.requireConserved()
}

func TestScenarioAppealWithLargerJury(t *testing.T) {
	f := newFixture(t)
	f.fund("plaintiff", "defendant")
	f.registerJurors(6)
	c := f.fileCase("plaintiff", "defendant")
	jurors := c.Round().Jurors
	f.vote(c.ID, map[string]dispute.Vote{
		jurors[0]: dispute.VoteForPlaintiff,
		jurors[1]: dispute.VoteForPlaintiff,
		jurors[2]: dispute.VoteForDefendant,
	})
	f.accept(court.CommandTypeExecuteVerdict, "anyone", court.CaseTargetPayload{CaseID: c.ID})
	f.requireConserved()

	f.clock.Set(f.clock.Now().Add(f.params.AppealDuration / 2))
	f.accept(court.CommandTypeAppeal, "defendant", court.CaseTargetPayload{CaseID: c.ID})
	assert.Equal(t, uint64(startFunds-500), f.balance("defendant"))
	f.requireConserved()

	appealed := f.world().Cases[c.ID]
	round := appealed.Round()
	require.Len(t, round.Jurors, f.params.AppealJurySize)
	assert.Equal(t, 5, len(round.Jurors))

	f.vote(c.ID, map[string]dispute.Vote{
		round.Jurors[0]: dispute.VoteForDefendant,
		round.Jurors[1]: dispute.VoteForDefendant,
		round.Jurors[2]: dispute.VoteForDefendant,
		round.Jurors[3]: dispute.VoteForPlaintiff,
		round.Jurors[4]: dispute.VoteNone,
	})
	result := f.accept(court.CommandTypeExecuteVerdict, "anyone", court.CaseTargetPayload{CaseID: c.ID})

	last := result.Decision.Events[len(result.Decision.Events)-1]
	require.Equal(t, court.EventTypeAppealResolved, last.Type)
	var resolved court.AppealResolvedPayload
	require.NoError(t, json.Unmarshal(last.PayloadJSON, &resolved))
	assert.Equal(t, c.ID, resolved.CaseID)
	assert.Equal(t, "defendant", resolved.Winner)
	assert.True(t, resolved.AppealSucceeded)
	assert.Greater(t, resolved.DefendantVotes, resolved.PlaintiffVotes)

	final := f.world().Cases[c.ID]
	assert.Equal(t, dispute.StatusAppealResolved, final.Status)
	assert.Greater(t, f.balance("defendant"), uint64(startFunds), "deposit refunded plus winner share")
	f.requireConserved()
}

func TestExecuteVerdictTwice(t *testing.T) {
	f := newFixture(t)
	f.fund("plaintiff")
	f.registerJurors(3)
	c := f.fileCase("plaintiff", "defendant")
	f.vote(c.ID, map[string]dispute.Vote{c.Round().Jurors[0]: dispute.VoteForPlaintiff})
	f.accept(court.CommandTypeExecuteVerdict, "anyone", court.CaseTargetPayload{CaseID: c.ID})

	before := f.ledger.Balances()
	worldBefore := f.world()
	f.rejected(court.CommandTypeExecuteVerdict, "anyone", court.CaseTargetPayload{CaseID: c.ID}, "VERDICT_NOT_READY")
	assert.Equal(t, before, f.ledger.Balances())
	assert.Equal(t, worldBefore.Reputations, f.world().Reputations)
}

func TestAppealBoundary(t *testing.T) {
	for _, tt := range []struct {
		name   string
		offset time.Duration
		code   string
	}{
		{name: "at deadline", offset: 0},
		{name: "one second after", offset: time.Second, code: "APPEAL_DEADLINE_PASSED"},
	} {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			f.fund("plaintiff", "defendant")
			f.registerJurors(6)
			c := f.fileCase("plaintiff", "defendant")
			f.vote(c.ID, map[string]dispute.Vote{c.Round().Jurors[0]: dispute.VoteForPlaintiff})
			f.accept(court.CommandTypeExecuteVerdict, "anyone", court.CaseTargetPayload{CaseID: c.ID})

			resolvedAt := f.world().Cases[c.ID].ResolvedAt
			f.clock.Set(resolvedAt.Add(f.params.AppealDuration + tt.offset))
			if tt.code == "" {
				f.accept(court.CommandTypeAppeal, "defendant", court.CaseTargetPayload{CaseID: c.ID})
				return
			}
			f.rejected(court.CommandTypeAppeal, "defendant", court.CaseTargetPayload{CaseID: c.ID}, tt.code)
			assert.Equal(t, uint64(startFunds), f.balance("defendant"))
		})
	}
}

func TestConservationAcrossScriptedSequence(t *testing.T) {
	f := newFixture(t)
	f.fund("alice", "bob", "carol")
	jurors := f.registerJurors(7)
	f.requireConserved()

	first := f.fileCase("alice", "bob")
	f.requireConserved()
	second := f.fileCase("carol", "alice")
	f.requireConserved()

	f.vote(first.ID, map[string]dispute.Vote{
		first.Round().Jurors[0]: dispute.VoteForDefendant,
		first.Round().Jurors[1]: dispute.VoteForPlaintiff,
	})
	f.accept(court.CommandTypeExecuteVerdict, "bob", court.CaseTargetPayload{CaseID: first.ID})
	f.requireConserved()
	f.accept(court.CommandTypeExecuteVerdict, "carol", court.CaseTargetPayload{CaseID: second.ID})
	f.requireConserved()

	w := f.world()
	for _, account := range jurors {
		if !w.Jurors[account].Serving {
			f.accept(court.CommandTypeUnregisterJuror, account, nil)
			break
		}
	}
	f.requireConserved()

	f.accept(court.CommandTypeAppeal, "alice", court.CaseTargetPayload{CaseID: first.ID})
	f.requireConserved()
	f.clock.Set(f.world().Cases[first.ID].Round().RevealDeadline)
	f.accept(court.CommandTypeExecuteVerdict, "alice", court.CaseTargetPayload{CaseID: first.ID})
	f.requireConserved()
}
