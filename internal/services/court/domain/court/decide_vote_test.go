package court

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/louisbranch/decicourt/internal/services/court/domain/dispute"
)

func TestCommitVote(t *testing.T) {
	h := newHarness(t)
	h.registerJurors(4)
	c := h.fileCase("plaintiff", "defendant")
	juror := c.Round().Jurors[0]
	commitment := dispute.Commit(dispute.VoteForPlaintiff, saltFor(juror)).String()

	h.rejected(CommandTypeCommitVote, juror, CommitVotePayload{CaseID: 99, Commitment: commitment}, rejectionCodeCaseNotFound, "Case not found")
	h.rejected(CommandTypeCommitVote, "plaintiff", CommitVotePayload{CaseID: c.ID, Commitment: commitment}, rejectionCodeVoteNotJuror, "Not a juror for this case")
	h.rejected(CommandTypeCommitVote, juror, CommitVotePayload{CaseID: c.ID, Commitment: "0x1234"}, rejectionCodeVoteCommitmentInvalid, "Invalid commitment")
	h.rejected(CommandTypeCommitVote, juror, CommitVotePayload{CaseID: c.ID, Commitment: dispute.Word{}.String()}, rejectionCodeVoteCommitmentInvalid, "")

	events := h.accept(CommandTypeCommitVote, juror, CommitVotePayload{CaseID: c.ID, Commitment: commitment})
	require.Len(t, events, 1)
	assert.Equal(t, EntityTypeCase, events[0].EntityType)
	assert.Equal(t, "1", events[0].EntityID)

	ballot := h.world.Cases[c.ID].Round().Ballots[juror]
	assert.True(t, ballot.Committed)
	assert.Equal(t, commitment, ballot.Commitment.String())

	h.rejected(CommandTypeCommitVote, juror, CommitVotePayload{CaseID: c.ID, Commitment: commitment}, rejectionCodeVoteAlreadyCommitted, "Already committed")
}

func TestCommitClosesAtDeadline(t *testing.T) {
	h := newHarness(t)
	h.registerJurors(3)
	c := h.fileCase("plaintiff", "defendant")
	juror := c.Round().Jurors[0]
	commitment := dispute.Commit(dispute.VoteForPlaintiff, saltFor(juror)).String()

	h.now = c.Round().CommitDeadline
	h.rejected(CommandTypeCommitVote, juror, CommitVotePayload{CaseID: c.ID, Commitment: commitment}, rejectionCodeVoteCommitClosed, "Commit phase ended")

	h.now = c.Round().CommitDeadline.Add(-time.Nanosecond)
	h.accept(CommandTypeCommitVote, juror, CommitVotePayload{CaseID: c.ID, Commitment: commitment})
}

func TestRevealVote(t *testing.T) {
	h := newHarness(t)
	h.registerJurors(3)
	c := h.fileCase("plaintiff", "defendant")
	jurors := c.Round().Jurors
	committed, silent := jurors[0], jurors[1]
	salt := saltFor(committed)
	h.accept(CommandTypeCommitVote, committed, CommitVotePayload{
		CaseID:     c.ID,
		Commitment: dispute.Commit(dispute.VoteForDefendant, salt).String(),
	})
	reveal := RevealVotePayload{CaseID: c.ID, Vote: dispute.VoteForDefendant, Salt: salt.String()}

	h.rejected(CommandTypeRevealVote, committed, reveal, rejectionCodeVoteCommitOpen, "Commit phase not ended yet")

	h.now = c.Round().CommitDeadline
	h.rejected(CommandTypeRevealVote, "plaintiff", reveal, rejectionCodeVoteNotJuror, "Not a juror for this case")
	h.rejected(CommandTypeRevealVote, silent, reveal, rejectionCodeVoteNotCommitted, "No commitment to reveal")
	h.rejected(CommandTypeRevealVote, committed, RevealVotePayload{CaseID: c.ID, Vote: 7, Salt: salt.String()}, rejectionCodeVoteInvalid, "Invalid vote option")
	h.rejected(CommandTypeRevealVote, committed, RevealVotePayload{CaseID: c.ID, Vote: dispute.VoteForPlaintiff, Salt: salt.String()}, rejectionCodeVoteCommitmentMismatch, "Vote does not match commitment")
	h.rejected(CommandTypeRevealVote, committed, RevealVotePayload{CaseID: c.ID, Vote: dispute.VoteForDefendant, Salt: saltFor("other").String()}, rejectionCodeVoteCommitmentMismatch, "")
	h.rejected(CommandTypeRevealVote, committed, RevealVotePayload{CaseID: c.ID, Vote: dispute.VoteForDefendant, Salt: "nope"}, rejectionCodeVoteCommitmentMismatch, "")

	h.accept(CommandTypeRevealVote, committed, reveal)
	round := h.world.Cases[c.ID].Round()
	assert.Equal(t, 1, round.DefendantVotes)
	assert.Equal(t, 0, round.PlaintiffVotes)
	assert.True(t, round.Ballots[committed].Revealed)

	h.rejected(CommandTypeRevealVote, committed, reveal, rejectionCodeVoteAlreadyRevealed, "Already revealed")

	h.now = c.Round().RevealDeadline
	h.rejected(CommandTypeRevealVote, committed, reveal, rejectionCodeVoteRevealClosed, "Reveal phase ended")
}

func TestVotingRejectedOnResolvedCase(t *testing.T) {
	h := newHarness(t)
	h.registerJurors(3)
	c := h.fileCase("plaintiff", "defendant")
	h.now = c.Round().RevealDeadline
	h.accept(CommandTypeExecuteVerdict, "anyone", CaseTargetPayload{CaseID: c.ID})

	juror := c.Round().Jurors[0]
	h.rejected(CommandTypeCommitVote, juror, CommitVotePayload{CaseID: c.ID, Commitment: dispute.Commit(dispute.VoteForPlaintiff, saltFor(juror)).String()}, rejectionCodeCaseNotVoting, "Case is not in voting")
}
