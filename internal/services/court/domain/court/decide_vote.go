package court

import (
	"time"

	"github.com/louisbranch/decicourt/internal/services/court/domain/command"
	"github.com/louisbranch/decicourt/internal/services/court/domain/dispute"
)

func (d Decider) decideCommit(w World, cmd command.Command, actor string, at time.Time) command.Decision {
	var payload CommitVotePayload
	if err := decodePayload(cmd, &payload); err != nil {
		return rejectPayload(err)
	}

	c, ok := w.Case(payload.CaseID)
	if !ok {
		return reject(rejectionCodeCaseNotFound, "Case not found")
	}
	if c.Status != dispute.StatusVoting {
		return reject(rejectionCodeCaseNotVoting, "Case is not in voting")
	}
	round := c.Round()
	if !round.HasJuror(actor) {
		return reject(rejectionCodeVoteNotJuror, "Not a juror for this case")
	}
	if round.Ballots[actor].Committed {
		return reject(rejectionCodeVoteAlreadyCommitted, "Already committed")
	}
	if round.Phase(at) != dispute.PhaseCommit {
		return reject(rejectionCodeVoteCommitClosed, "Commit phase ended")
	}
	commitment, err := dispute.ParseWord(payload.Commitment)
	if err != nil || commitment.IsZero() {
		return reject(rejectionCodeVoteCommitmentInvalid, "Invalid commitment")
	}

	committed := VoteCommittedPayload{
		CaseID:     c.ID,
		Round:      round.Number,
		Juror:      actor,
		Commitment: commitment,
	}
	return command.Accept(caseEvent(cmd, EventTypeVoteCommitted, c.ID, committed, at))
}

func (d Decider) decideReveal(w World, cmd command.Command, actor string, at time.Time) command.Decision {
	var payload RevealVotePayload
	if err := decodePayload(cmd, &payload); err != nil {
		return rejectPayload(err)
	}

	c, ok := w.Case(payload.CaseID)
	if !ok {
		return reject(rejectionCodeCaseNotFound, "Case not found")
	}
	if c.Status != dispute.StatusVoting {
		return reject(rejectionCodeCaseNotVoting, "Case is not in voting")
	}
	round := c.Round()
	if !round.HasJuror(actor) {
		return reject(rejectionCodeVoteNotJuror, "Not a juror for this case")
	}
	switch round.Phase(at) {
	case dispute.PhaseCommit:
		return reject(rejectionCodeVoteCommitOpen, "Commit phase not ended yet")
	case dispute.PhaseClosed:
		return reject(rejectionCodeVoteRevealClosed, "Reveal phase ended")
	}
	ballot := round.Ballots[actor]
	if !ballot.Committed {
		return reject(rejectionCodeVoteNotCommitted, "No commitment to reveal")
	}
	if ballot.Revealed {
		return reject(rejectionCodeVoteAlreadyRevealed, "Already revealed")
	}
	if !payload.Vote.Valid() {
		return reject(rejectionCodeVoteInvalid, "Invalid vote option")
	}
	salt, err := dispute.ParseWord(payload.Salt)
	if err != nil || !dispute.Matches(ballot.Commitment, payload.Vote, salt) {
		return reject(rejectionCodeVoteCommitmentMismatch, "Vote does not match commitment")
	}

	revealed := VoteRevealedPayload{
		CaseID: c.ID,
		Round:  round.Number,
		Juror:  actor,
		Vote:   payload.Vote,
		Salt:   salt,
	}
	return command.Accept(caseEvent(cmd, EventTypeVoteRevealed, c.ID, revealed, at))
}
