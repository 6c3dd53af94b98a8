package workflow

import "errors"

var (
	// ErrNotFound indicates the program (or operator) the operation
	// targets does not exist in the store.
	ErrNotFound = errors.New("not found")

	// ErrEmptyVerification indicates a measurement confirmation was
	// attempted with no notes content.
	ErrEmptyVerification = errors.New("measurement verification is empty")

	// ErrCompletionInFlight indicates a completion attempt is already
	// running for the same program.
	ErrCompletionInFlight = errors.New("completion already in flight")

	// ErrInvalidTransition indicates the program is not in a state the
	// requested transition accepts.
	ErrInvalidTransition = errors.New("invalid status transition")
)

// PersistenceError wraps a store failure. The in-memory workflow state
// is left untouched so the caller can retry.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return "persistence: " + e.Op + ": " + e.Err.Error()
}

func (e *PersistenceError) Unwrap() error { return e.Err }
