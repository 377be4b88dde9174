package court

import (
	"github.com/louisbranch/decicourt/internal/services/court/domain/command"
	"github.com/louisbranch/decicourt/internal/services/court/domain/event"
)

const (
	CommandTypeRegisterJuror   command.Type = "juror.register"
	CommandTypeUnregisterJuror command.Type = "juror.unregister"
	CommandTypeCreateCase      command.Type = "case.create"
	CommandTypeCommitVote      command.Type = "vote.commit"
	CommandTypeRevealVote      command.Type = "vote.reveal"
	CommandTypeExecuteVerdict  command.Type = "case.execute_verdict"
	CommandTypeAppeal          command.Type = "case.appeal"

	EventTypeJurorRegistered   event.Type = "juror.registered"
	EventTypeJurorUnregistered event.Type = "juror.unregistered"
	EventTypeCaseCreated       event.Type = "case.created"
	EventTypeVoteCommitted     event.Type = "vote.committed"
	EventTypeVoteRevealed      event.Type = "vote.revealed"
	EventTypeReputationUpdated event.Type = "juror.reputation_updated"
	EventTypeJurorPenalized    event.Type = "juror.penalized"
	EventTypeJurorRewarded     event.Type = "juror.rewarded"
	EventTypeCasePayout        event.Type = "case.payout"
	EventTypeCaseResolved      event.Type = "case.resolved"
	EventTypeAppealInitiated   event.Type = "appeal.initiated"
	EventTypeAppealResolved    event.Type = "appeal.resolved"

	// EntityTypeJuror addresses events about a juror's registration.
	EntityTypeJuror = "juror"
	// EntityTypeCase addresses every event raised while a case is heard.
	EntityTypeCase = "case"

	// PayoutReasonWinnerShare pays the winning party its part of the reward pool.
	PayoutReasonWinnerShare = "winner_share"
	// PayoutReasonDepositRefund returns a successful appellant's deposit.
	PayoutReasonDepositRefund = "deposit_refund"

	// MaxEvidenceRefLength bounds the evidence reference.
	MaxEvidenceRefLength = 2048
)

const (
	rejectionCodeActorRequired           = "ACTOR_REQUIRED"
	rejectionCodeCommandUnsupported      = "COMMAND_TYPE_UNSUPPORTED"
	rejectionCodePayloadInvalid          = "INVALID_ARGUMENT"
	rejectionCodeReservedAccount         = "JUROR_RESERVED_ACCOUNT"
	rejectionCodeJurorAlreadyRegistered  = "JUROR_ALREADY_REGISTERED"
	rejectionCodeJurorNotRegistered      = "JUROR_NOT_REGISTERED"
	rejectionCodeJurorServing            = "JUROR_SERVING"
	rejectionCodeJurorsUnavailable       = "JURORS_UNAVAILABLE"
	rejectionCodeAppealJurorsUnavailable = "APPEAL_JURORS_UNAVAILABLE"
	rejectionCodeCaseInvalidDefendant    = "CASE_INVALID_DEFENDANT"
	rejectionCodeCaseEvidenceTooLong     = "CASE_EVIDENCE_TOO_LONG"
	rejectionCodeCaseNotFound            = "CASE_NOT_FOUND"
	rejectionCodeCaseNotVoting           = "CASE_NOT_VOTING"
	rejectionCodeVoteNotJuror            = "VOTE_NOT_JUROR"
	rejectionCodeVoteAlreadyCommitted    = "VOTE_ALREADY_COMMITTED"
	rejectionCodeVoteCommitClosed        = "VOTE_COMMIT_CLOSED"
	rejectionCodeVoteCommitmentInvalid   = "VOTE_COMMITMENT_INVALID"
	rejectionCodeVoteCommitOpen          = "VOTE_COMMIT_OPEN"
	rejectionCodeVoteRevealClosed        = "VOTE_REVEAL_CLOSED"
	rejectionCodeVoteNotCommitted        = "VOTE_NOT_COMMITTED"
	rejectionCodeVoteAlreadyRevealed     = "VOTE_ALREADY_REVEALED"
	rejectionCodeVoteInvalid             = "VOTE_INVALID"
	rejectionCodeVoteCommitmentMismatch  = "VOTE_COMMITMENT_MISMATCH"
	rejectionCodeVerdictRevealOpen       = "VERDICT_REVEAL_OPEN"
	rejectionCodeVerdictNotReady         = "VERDICT_NOT_READY"
	rejectionCodeAppealNotResolved       = "APPEAL_NOT_RESOLVED"
	rejectionCodeAppealNotLosingParty    = "APPEAL_NOT_LOSING_PARTY"
	rejectionCodeAppealDeadlinePassed    = "APPEAL_DEADLINE_PASSED"
)
