package workflow

import (
	"errors"
	"fmt"

	"github.com/colonyops/wreckit/internal/core/state"
)

var (
	// ErrNonAdjacentTransition is returned when the requested target is not
	// the immediate successor of the current state.
	ErrNonAdjacentTransition = errors.New("non-adjacent transition")

	// ErrAlreadyTerminal is returned when a transition is requested for an
	// item that is already Done.
	ErrAlreadyTerminal = errors.New("item is already done")
)

// Reason is a machine-readable validation failure code. The string value is
// also the human-readable message recorded in last_error.
type Reason string

const (
	ReasonMissingResearch     Reason = "missing research artifact"
	ReasonMissingPlan         Reason = "missing plan artifact"
	ReasonMissingRequirements Reason = "missing requirements document"
	ReasonNoSubTasks          Reason = "requirements document has no sub-tasks"
	ReasonNoPendingSubTasks   Reason = "no pending sub-tasks"
	ReasonSubTasksIncomplete  Reason = "sub-tasks incomplete"
	ReasonNoReviewRequest     Reason = "no review request"
	ReasonReviewNotMerged     Reason = "review request not merged"
)

// ValidationError reports that the evidence does not satisfy the predicate
// for Target.
type ValidationError struct {
	Target state.State
	Reason Reason
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("cannot enter %s: %s", e.Target.Label(), e.Reason)
}

// IsRejection reports whether err is a local decision of the engine
// (non-adjacent, terminal or a failed predicate). Rejections are never retried.
func IsRejection(err error) bool {
	var verr *ValidationError
	return errors.As(err, &verr) ||
		errors.Is(err, ErrNonAdjacentTransition) ||
		errors.Is(err, ErrAlreadyTerminal)
}

// ReasonOf extracts the validation reason from err, if any.
func ReasonOf(err error) (Reason, bool) {
	var verr *ValidationError
	if errors.As(err, &verr) {
		return verr.Reason, true
	}
	return "", false
}
