package wreckit

import (
	"errors"
	"fmt"
)

var (
	// ErrIterationBudgetExceeded is returned by RunItem when the configured
	// number of phase runs is used up before the item reaches done.
	ErrIterationBudgetExceeded = errors.New("iteration budget exceeded")
	// ErrItemBusy is returned when a phase for the same item is already in flight.
	ErrItemBusy = errors.New("item has a phase in flight")
	// ErrPhaseMismatch is returned when a specific phase was requested but the
	// item's state calls for a different one.
	ErrPhaseMismatch = errors.New("phase does not match item state")
)

// WorkerError reports a transient failure of an external collaborator while
// running a phase: the agent process, git or the review host.
type WorkerError struct {
	Phase    Phase
	Cause    error
	TimedOut bool
}

func (e *WorkerError) Error() string {
	if e.TimedOut {
		return fmt.Sprintf("%s: worker timed out", e.Phase)
	}
	return fmt.Sprintf("%s: worker failed: %v", e.Phase, e.Cause)
}

func (e *WorkerError) Unwrap() error { return e.Cause }

// IsWorkerError reports whether err is a WorkerError.
func IsWorkerError(err error) bool {
	var werr *WorkerError
	return errors.As(err, &werr)
}
