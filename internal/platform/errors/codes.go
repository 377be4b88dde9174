// Package errors provides structured court errors with gRPC status mapping.
package errors

import "google.golang.org/grpc/codes"

// Code is a machine-readable error code.
type Code string

const (
	// CodeUnknown represents an unknown error.
	CodeUnknown Code = "UNKNOWN"

	// Caller errors
	CodeActorRequired          Code = "ACTOR_REQUIRED"
	CodeUnauthenticated        Code = "CALLER_UNAUTHENTICATED"
	CodeCommandTypeUnsupported Code = "COMMAND_TYPE_UNSUPPORTED"
	CodeInvalidArgument        Code = "INVALID_ARGUMENT"

	// Juror registry errors
	CodeJurorAlreadyRegistered  Code = "JUROR_ALREADY_REGISTERED"
	CodeJurorNotRegistered      Code = "JUROR_NOT_REGISTERED"
	CodeJurorServing            Code = "JUROR_SERVING"
	CodeJurorsUnavailable       Code = "JURORS_UNAVAILABLE"
	CodeAppealJurorsUnavailable Code = "APPEAL_JURORS_UNAVAILABLE"
	CodeJurorReservedAccount    Code = "JUROR_RESERVED_ACCOUNT"

	// Case errors
	CodeCaseInvalidDefendant Code = "CASE_INVALID_DEFENDANT"
	CodeCaseNotFound         Code = "CASE_NOT_FOUND"
	CodeCaseNotVoting        Code = "CASE_NOT_VOTING"
	CodeCaseEvidenceTooLong  Code = "CASE_EVIDENCE_TOO_LONG"

	// Voting errors
	CodeVoteNotJuror           Code = "VOTE_NOT_JUROR"
	CodeVoteAlreadyCommitted   Code = "VOTE_ALREADY_COMMITTED"
	CodeVoteCommitClosed       Code = "VOTE_COMMIT_CLOSED"
	CodeVoteCommitmentInvalid  Code = "VOTE_COMMITMENT_INVALID"
	CodeVoteCommitOpen         Code = "VOTE_COMMIT_OPEN"
	CodeVoteRevealClosed       Code = "VOTE_REVEAL_CLOSED"
	CodeVoteNotCommitted       Code = "VOTE_NOT_COMMITTED"
	CodeVoteAlreadyRevealed    Code = "VOTE_ALREADY_REVEALED"
	CodeVoteInvalid            Code = "VOTE_INVALID"
	CodeVoteCommitmentMismatch Code = "VOTE_COMMITMENT_MISMATCH"

	// Verdict and appeal errors
	CodeVerdictRevealOpen    Code = "VERDICT_REVEAL_OPEN"
	CodeVerdictNotReady      Code = "VERDICT_NOT_READY"
	CodeAppealNotResolved    Code = "APPEAL_NOT_RESOLVED"
	CodeAppealNotLosingParty Code = "APPEAL_NOT_LOSING_PARTY"
	CodeAppealDeadlinePassed Code = "APPEAL_DEADLINE_PASSED"
	CodeReentrantCall        Code = "REENTRANT_CALL"
	CodeCommandQueueFull     Code = "COMMAND_QUEUE_FULL"
	CodeCourtUnavailable     Code = "COURT_UNAVAILABLE"

	// Ledger errors
	CodeLedgerInsufficientFunds Code = "LEDGER_INSUFFICIENT_BALANCE"
	CodeLedgerInsufficientAllow Code = "LEDGER_INSUFFICIENT_ALLOWANCE"
	CodeLedgerInvalidAmount     Code = "LEDGER_INVALID_AMOUNT"
	CodeLedgerInvalidAccount    Code = "LEDGER_INVALID_ACCOUNT"
	CodePayoutFailed            Code = "PAYOUT_FAILED"

	// Journal and transport errors
	CodeEventFilterInvalid Code = "EVENT_FILTER_INVALID"
	CodePageTokenInvalid   Code = "PAGE_TOKEN_INVALID"
	CodeJournalCorrupted   Code = "JOURNAL_CORRUPTED"
	CodeNotFound           Code = "NOT_FOUND"
)

// GRPCCode maps domain codes to gRPC status codes.
func (c Code) GRPCCode() codes.Code {
	switch c {
	// InvalidArgument - validation failures, bad input
	case CodeActorRequired,
		CodeCommandTypeUnsupported,
		CodeInvalidArgument,
		CodeCaseInvalidDefendant,
		CodeCaseEvidenceTooLong,
		CodeJurorReservedAccount,
		CodeVoteCommitmentInvalid,
		CodeVoteInvalid,
		CodeVoteCommitmentMismatch,
		CodeLedgerInvalidAmount,
		CodeLedgerInvalidAccount,
		CodeEventFilterInvalid,
		CodePageTokenInvalid:
		return codes.InvalidArgument

	// FailedPrecondition - state doesn't allow operation
	case CodeJurorAlreadyRegistered,
		CodeJurorNotRegistered,
		CodeJurorServing,
		CodeCaseNotVoting,
		CodeVoteAlreadyCommitted,
		CodeVoteCommitClosed,
		CodeVoteCommitOpen,
		CodeVoteRevealClosed,
		CodeVoteNotCommitted,
		CodeVoteAlreadyRevealed,
		CodeVerdictRevealOpen,
		CodeVerdictNotReady,
		CodeAppealNotResolved,
		CodeAppealDeadlinePassed,
		CodeLedgerInsufficientFunds,
		CodeLedgerInsufficientAllow:
		return codes.FailedPrecondition

	// ResourceExhausted - the juror pool cannot staff the case
	case CodeJurorsUnavailable,
		CodeAppealJurorsUnavailable:
		return codes.ResourceExhausted

	// PermissionDenied - caller is not entitled to act on the case
	case CodeVoteNotJuror,
		CodeAppealNotLosingParty:
		return codes.PermissionDenied

	case CodeCaseNotFound, CodeNotFound:
		return codes.NotFound

	case CodeReentrantCall:
		return codes.Aborted

	case CodeCommandQueueFull, CodeCourtUnavailable:
		return codes.Unavailable

	case CodeUnauthenticated:
		return codes.Unauthenticated

	case CodeJournalCorrupted:
		return codes.DataLoss

	default:
		return codes.Internal
	}
}
