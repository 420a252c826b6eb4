package wreckit

import (
	"context"
	"errors"

	"github.com/rs/zerolog"

	"github.com/colonyops/wreckit/internal/core/config"
	"github.com/colonyops/wreckit/internal/core/item"
	"github.com/colonyops/wreckit/internal/core/review"
	"github.com/colonyops/wreckit/internal/core/state"
	"github.com/colonyops/wreckit/internal/core/workflow"
)

// Observer builds fresh evidence snapshots from the item store and the
// review host. Snapshots are never cached between decisions.
type Observer struct {
	store   item.Store
	reviews review.Provider
	log     zerolog.Logger
}

// NewObserver creates an Observer. reviews may be nil, in which case review
// requests are never observed as merged.
func NewObserver(store item.Store, reviews review.Provider, log zerolog.Logger) *Observer {
	return &Observer{store: store, reviews: reviews, log: log}
}

// Local observes the artifacts on disk and the review request recorded on the
// item. It never contacts the review host.
func (o *Observer) Local(ctx context.Context, it item.Item) (workflow.Evidence, error) {
	var (
		ev  workflow.Evidence
		err error
	)

	if ev.HasResearchDoc, err = o.store.ArtifactExists(ctx, it.ID, config.ResearchFile); err != nil {
		return ev, err
	}
	if ev.HasPlanDoc, err = o.store.ArtifactExists(ctx, it.ID, config.PlanFile); err != nil {
		return ev, err
	}

	doc, err := o.store.GetRequirements(ctx, it.ID)
	if err != nil {
		// An unreadable requirements document counts as absent.
		var serr *item.StorageError
		if !errors.As(err, &serr) {
			return ev, err
		}
		o.log.Warn().Ctx(ctx).Err(err).Msg("ignoring unreadable requirements document")
		doc = nil
	}
	ev.RequirementsDoc = doc
	ev.HasReviewRequest = it.HasReviewRequest()

	return ev, nil
}

// Observe is Local plus the merge status of the review request. The review
// host is only consulted for items in review, the one state whose successor
// depends on it.
func (o *Observer) Observe(ctx context.Context, it item.Item) (workflow.Evidence, error) {
	ev, err := o.Local(ctx, it)
	if err != nil {
		return ev, err
	}
	if it.State != state.InReview || !ev.HasReviewRequest || o.reviews == nil {
		return ev, nil
	}

	number := it.PRNumber
	if number == 0 && it.Branch != "" {
		req, err := o.reviews.FindByBranch(ctx, it.Branch)
		switch {
		case errors.Is(err, review.ErrNotFound):
			return ev, nil
		case err != nil:
			return ev, &WorkerError{Phase: PhaseComplete, Cause: err}
		}
		number = req.Number
	}
	if number == 0 {
		return ev, nil
	}

	status, err := o.reviews.Status(ctx, number)
	if err != nil {
		return ev, &WorkerError{Phase: PhaseComplete, Cause: err}
	}
	ev.ReviewRequestMerged = status == review.StatusMerged

	return ev, nil
}
