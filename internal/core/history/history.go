// Package history records the outcome of every phase attempt.
package history

import (
	"context"
	"time"

	"github.com/colonyops/wreckit/internal/core/state"
)

// Outcome classifies how a phase attempt ended.
type Outcome string

const (
	OutcomeAdvanced  Outcome = "advanced"
	OutcomeRejected  Outcome = "rejected"
	OutcomeFailed    Outcome = "failed"
	OutcomeTimedOut  Outcome = "timed_out"
	OutcomeCancelled Outcome = "cancelled"
	OutcomeSkipped   Outcome = "skipped"
)

// Run is one recorded phase attempt.
type Run struct {
	ID      string      `json:"id"`
	BatchID string      `json:"batch_id,omitempty"`
	ItemID  string      `json:"item_id"`
	Phase   string      `json:"phase"`
	From    state.State `json:"from"`
	To      state.State `json:"to"`
	Outcome Outcome     `json:"outcome"`
	Reason  string      `json:"reason,omitempty"`
	Error   string      `json:"error,omitempty"`
	// WorkerSkipped is set when existing artifacts already satisfied the
	// target and no worker was started.
	WorkerSkipped bool      `json:"worker_skipped,omitempty"`
	StartedAt     time.Time `json:"started_at"`
	FinishedAt    time.Time `json:"finished_at"`
}

// Duration is the wall time of the attempt.
func (r Run) Duration() time.Duration {
	return r.FinishedAt.Sub(r.StartedAt)
}

// Filter narrows a listing. Zero values match everything.
type Filter struct {
	ItemID  string
	BatchID string
	Limit   int
}

// Store persists runs. List returns newest first.
type Store interface {
	Record(ctx context.Context, run Run) (Run, error)
	List(ctx context.Context, f Filter) ([]Run, error)
	Last(ctx context.Context, itemID string) (Run, bool, error)
}
