package workflow

import (
	"fmt"

	"github.com/colonyops/wreckit/internal/core/state"
)

// ValidateTransition decides whether current may move to target given ev.
// Adjacency is checked before any evidence is consulted.
func ValidateTransition(current, target state.State, ev Evidence) error {
	next, ok := current.Next()
	if !ok || next != target {
		return fmt.Errorf("%w: %s -> %s", ErrNonAdjacentTransition, current.Label(), target.Label())
	}

	if reason, ok := Check(target, ev); !ok {
		return &ValidationError{Target: target, Reason: reason}
	}

	return nil
}

// Check evaluates the predicate for entering target. It returns the most
// specific failure reason when the predicate is not satisfied.
func Check(target state.State, ev Evidence) (Reason, bool) {
	switch target {
	case state.Researched:
		if !ev.HasResearchDoc {
			return ReasonMissingResearch, false
		}
	case state.Planned:
		switch {
		case !ev.HasPlanDoc:
			return ReasonMissingPlan, false
		case ev.RequirementsDoc == nil:
			return ReasonMissingRequirements, false
		case ev.subTaskCount() == 0:
			return ReasonNoSubTasks, false
		}
	case state.Implementing:
		if ev.RequirementsDoc == nil || !ev.RequirementsDoc.HasPending() {
			return ReasonNoPendingSubTasks, false
		}
	case state.InReview:
		if ev.RequirementsDoc == nil || !ev.RequirementsDoc.AllDone() {
			return ReasonSubTasksIncomplete, false
		}
		if !ev.HasReviewRequest {
			return ReasonNoReviewRequest, false
		}
	case state.Done:
		if !ev.HasReviewRequest || !ev.ReviewRequestMerged {
			return ReasonReviewNotMerged, false
		}
	default:
		// Idea has no predecessor and unknown states have no predicate; the
		// adjacency check rejects both before reaching here.
		return "", false
	}

	return "", true
}
