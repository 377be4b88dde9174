package court

import (
	"time"

	"github.com/louisbranch/decicourt/internal/services/court/domain/command"
	"github.com/louisbranch/decicourt/internal/services/court/domain/dispute"
	"github.com/louisbranch/decicourt/internal/services/court/domain/selection"
)

// decideAppeal reopens a resolved case for the losing party. The appeal
// window is inclusive: an appeal at exactly ResolvedAt+AppealDuration is
// accepted.
func (d Decider) decideAppeal(w World, cmd command.Command, actor string, at time.Time) command.Decision {
	var payload CaseTargetPayload
	if err := decodePayload(cmd, &payload); err != nil {
		return rejectPayload(err)
	}

	c, ok := w.Case(payload.CaseID)
	if !ok {
		return reject(rejectionCodeCaseNotFound, "Case not found")
	}
	if c.Status != dispute.StatusResolved || c.IsAppealed {
		return reject(rejectionCodeAppealNotResolved, "Case not resolved yet")
	}
	if c.SideOf(actor) == dispute.VoteNone || actor == c.Winner {
		return reject(rejectionCodeAppealNotLosingParty, "Only losing party can appeal")
	}
	if at.After(c.ResolvedAt.Add(d.Params.AppealDuration)) {
		return reject(rejectionCodeAppealDeadlinePassed, "Appeal deadline passed")
	}

	pool := candidates(w, c.Plaintiff, c.Defendant)
	if len(pool) < d.Params.AppealJurySize {
		return reject(rejectionCodeAppealJurorsUnavailable, "Not enough available jurors for appeal")
	}
	draw := selection.Draw{CaseID: c.ID, Round: c.Round().Number + 1}
	jurors, err := d.source().SelectDistinct(draw, pool, d.Params.AppealJurySize)
	if err != nil {
		return reject(rejectionCodeAppealJurorsUnavailable, "Not enough available jurors for appeal: "+err.Error())
	}

	commitDeadline := at.Add(d.Params.CommitDuration)
	initiated := AppealInitiatedPayload{
		CaseID:         c.ID,
		Appellant:      actor,
		Deposit:        d.Params.AppealDeposit(),
		Jurors:         jurors,
		CommitDeadline: commitDeadline,
		RevealDeadline: commitDeadline.Add(d.Params.RevealDuration),
	}
	return command.Accept(caseEvent(cmd, EventTypeAppealInitiated, c.ID, initiated, at))
}
