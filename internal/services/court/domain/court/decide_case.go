package court

import (
	"strings"
	"time"

	"github.com/louisbranch/decicourt/internal/services/court/domain/command"
	"github.com/louisbranch/decicourt/internal/services/court/domain/selection"
)

func (d Decider) decideCreateCase(w World, cmd command.Command, actor string, at time.Time) command.Decision {
	var payload CreateCasePayload
	if err := decodePayload(cmd, &payload); err != nil {
		return rejectPayload(err)
	}

	if actor == d.Params.EscrowAccount {
		return reject(rejectionCodeReservedAccount, "Account is reserved by the court")
	}
	defendant := strings.TrimSpace(payload.Defendant)
	if defendant == "" || defendant == actor || defendant == d.Params.EscrowAccount {
		return reject(rejectionCodeCaseInvalidDefendant, "Invalid defendant")
	}
	evidence := strings.TrimSpace(payload.EvidenceRef)
	if len(evidence) > MaxEvidenceRefLength {
		return reject(rejectionCodeCaseEvidenceTooLong, "Evidence reference too long")
	}

	// Parties never sit on their own jury.
	pool := candidates(w, actor, defendant)
	if len(pool) < d.Params.JurySize {
		return reject(rejectionCodeJurorsUnavailable, "Not enough available jurors")
	}
	caseID := max(w.NextCaseID, 1)
	jurors, err := d.source().SelectDistinct(selection.Draw{CaseID: caseID, Round: 1}, pool, d.Params.JurySize)
	if err != nil {
		return reject(rejectionCodeJurorsUnavailable, "Not enough available jurors: "+err.Error())
	}

	commitDeadline := at.Add(d.Params.CommitDuration)
	created := CaseCreatedPayload{
		CaseID:         caseID,
		Plaintiff:      actor,
		Defendant:      defendant,
		EvidenceRef:    evidence,
		FilingFee:      d.Params.FilingFee,
		Jurors:         jurors,
		CommitDeadline: commitDeadline,
		RevealDeadline: commitDeadline.Add(d.Params.RevealDuration),
	}
	return command.Accept(caseEvent(cmd, EventTypeCaseCreated, created.CaseID, created, at))
}
