// Package workflow holds the pure transition rules of the item lifecycle.
//
// Nothing in this package performs I/O. Callers observe the outside world
// into an Evidence snapshot and ask the engine whether the single forward
// step from an item's current state is legal.
package workflow

import "github.com/colonyops/wreckit/internal/core/item"

// Evidence is a point-in-time snapshot of externally observable facts about
// one item. It is built fresh for every decision and never cached.
type Evidence struct {
	HasResearchDoc      bool
	HasPlanDoc          bool
	RequirementsDoc     *item.RequirementsDoc
	HasReviewRequest    bool
	ReviewRequestMerged bool
}

func (e Evidence) subTaskCount() int {
	if e.RequirementsDoc == nil {
		return 0
	}
	return len(e.RequirementsDoc.SubTasks)
}
