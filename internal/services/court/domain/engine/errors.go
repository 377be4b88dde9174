package engine

import "errors"

var (
	// ErrCommandRegistryRequired indicates a missing command registry.
	ErrCommandRegistryRequired = errors.New("command registry is required")
	// ErrDeciderRequired indicates a missing decider.
	ErrDeciderRequired = errors.New("decider is required")
	// ErrJournalRequired indicates a missing event journal.
	ErrJournalRequired = errors.New("event journal is required")
	// ErrLedgerRequired indicates a missing token ledger.
	ErrLedgerRequired = errors.New("token ledger is required")
	// ErrProcessorStopped indicates the processor loop has exited.
	ErrProcessorStopped = errors.New("command processor stopped")
)

// nonRetryableError wraps an error to signal that retrying the operation
// would be harmful, e.g. paying out twice after the journal already recorded
// the verdict. Transport middleware should use IsNonRetryable to detect this
// condition and return a permanent failure instead of a retry hint.
type nonRetryableError struct {
	err error
}

func (e *nonRetryableError) Error() string { return e.err.Error() }
func (e *nonRetryableError) Unwrap() error { return e.err }

// NonRetryable returns true from IsNonRetryable checks.
func (e *nonRetryableError) NonRetryable() bool { return true }

// wrapNonRetryable marks an error as non-retryable.
func wrapNonRetryable(err error) error {
	if err == nil {
		return nil
	}
	return &nonRetryableError{err: err}
}

// IsNonRetryable returns true when the error (or any error in its chain)
// signals that the operation must not be retried.
func IsNonRetryable(err error) bool {
	var target interface{ NonRetryable() bool }
	if errors.As(err, &target) {
		return target.NonRetryable()
	}
	return false
}
