package court

import (
	"time"

	"github.com/louisbranch/decicourt/internal/services/court/domain/command"
	"github.com/louisbranch/decicourt/internal/services/court/domain/dispute"
	"github.com/louisbranch/decicourt/internal/services/court/domain/event"
	"github.com/louisbranch/decicourt/internal/services/court/domain/penalty"
)

// decideVerdict tallies the current round, scores every juror, forfeits the
// dynamic penalty of each incorrect juror into the reward pool and splits
// the pool. Half goes to correct jurors in equal shares; the winning party
// receives the rest, including rounding dust.
func (d Decider) decideVerdict(w World, cmd command.Command, at time.Time) command.Decision {
	var payload CaseTargetPayload
	if err := decodePayload(cmd, &payload); err != nil {
		return rejectPayload(err)
	}

	c, ok := w.Case(payload.CaseID)
	if !ok {
		return reject(rejectionCodeCaseNotFound, "Case not found")
	}
	if c.Status != dispute.StatusVoting {
		return reject(rejectionCodeVerdictNotReady, "Case not ready for verdict")
	}
	round := c.Round()
	if round.Phase(at) != dispute.PhaseClosed {
		return reject(rejectionCodeVerdictRevealOpen, "Reveal phase not ended yet")
	}

	side := round.WinningSide()
	winner := c.Party(side)
	appeal := c.IsAppealed
	appealSucceeded := appeal && winner == c.Appellant

	var events []event.Event
	var pool uint64
	if !appeal {
		pool = c.FilingFee
	} else if !appealSucceeded {
		pool = c.AppealDeposit
	}

	correct := make([]string, 0, len(round.Jurors))
	for _, account := range round.Jurors {
		isCorrect := round.Correct(account, side)
		prior := w.Reputation(account)
		after := prior.Outcome(isCorrect)
		events = append(events, caseEvent(cmd, EventTypeReputationUpdated, c.ID, ReputationUpdatedPayload{
			CaseID:           c.ID,
			Juror:            account,
			Correct:          isCorrect,
			Score:            after.Score,
			CorrectVotes:     after.CorrectVotes,
			TotalVotes:       after.TotalVotes,
			ConsecutiveWrong: after.ConsecutiveWrong,
		}, at))
		if isCorrect {
			correct = append(correct, account)
			continue
		}

		stake := w.Jurors[account].Stake
		amount := penalty.Dynamic(penalty.Input{
			Stake:           stake,
			Rate:            d.Params.PenaltyRate,
			PriorScore:      prior.Score,
			PriorTotalVotes: prior.TotalVotes,
			StreakAfter:     after.ConsecutiveWrong,
		})
		if amount == 0 {
			continue
		}
		pool += amount
		events = append(events, caseEvent(cmd, EventTypeJurorPenalized, c.ID, JurorPenalizedPayload{
			CaseID:         c.ID,
			Juror:          account,
			Amount:         amount,
			RemainingStake: stake - amount,
		}, at))
	}

	winnerShare := pool
	if len(correct) > 0 {
		share := pool / 2 / uint64(len(correct))
		if share > 0 {
			for _, account := range correct {
				events = append(events, caseEvent(cmd, EventTypeJurorRewarded, c.ID, JurorRewardedPayload{
					CaseID: c.ID,
					Juror:  account,
					Amount: share,
				}, at))
			}
			winnerShare -= share * uint64(len(correct))
		}
	}
	if winnerShare > 0 {
		events = append(events, caseEvent(cmd, EventTypeCasePayout, c.ID, CasePayoutPayload{
			CaseID:    c.ID,
			Recipient: winner,
			Amount:    winnerShare,
			Reason:    PayoutReasonWinnerShare,
		}, at))
	}
	if appealSucceeded && c.AppealDeposit > 0 {
		events = append(events, caseEvent(cmd, EventTypeCasePayout, c.ID, CasePayoutPayload{
			CaseID:    c.ID,
			Recipient: c.Appellant,
			Amount:    c.AppealDeposit,
			Reason:    PayoutReasonDepositRefund,
		}, at))
	}

	if appeal {
		events = append(events, caseEvent(cmd, EventTypeAppealResolved, c.ID, AppealResolvedPayload{
			CaseID:          c.ID,
			WinningSide:     side,
			Winner:          winner,
			AppealSucceeded: appealSucceeded,
			PlaintiffVotes:  round.PlaintiffVotes,
			DefendantVotes:  round.DefendantVotes,
			RewardPool:      pool,
		}, at))
	} else {
		events = append(events, caseEvent(cmd, EventTypeCaseResolved, c.ID, CaseResolvedPayload{
			CaseID:         c.ID,
			WinningSide:    side,
			Winner:         winner,
			PlaintiffVotes: round.PlaintiffVotes,
			DefendantVotes: round.DefendantVotes,
			RewardPool:     pool,
		}, at))
	}
	return command.Accept(events...)
}
