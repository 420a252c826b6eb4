package stores

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/colonyops/wreckit/internal/core/history"
	"github.com/colonyops/wreckit/internal/core/state"
	"github.com/colonyops/wreckit/internal/data/db"
)

const (
	busyRetries = 3
	busyBackoff = 25 * time.Millisecond
)

// RunStore implements history.Store using SQLite.
type RunStore struct {
	db *db.DB
}

var _ history.Store = (*RunStore)(nil)

// NewRunStore creates a new SQLite-backed run history store.
func NewRunStore(db *db.DB) *RunStore {
	return &RunStore{db: db}
}

// Record inserts run, assigning a ULID when ID is empty. Busy errors from
// concurrent writers are retried briefly.
func (s *RunStore) Record(ctx context.Context, run history.Run) (history.Run, error) {
	if run.ItemID == "" {
		return run, errors.New("record run: item id is required")
	}
	if run.StartedAt.IsZero() {
		run.StartedAt = time.Now().UTC()
	}
	if run.FinishedAt.IsZero() {
		run.FinishedAt = run.StartedAt
	}
	if run.ID == "" {
		run.ID = ulid.MustNew(ulid.Timestamp(run.StartedAt), rand.Reader).String()
	}

	var err error
	wait := busyBackoff
	for attempt := 0; attempt < busyRetries; attempt++ {
		_, err = s.db.Conn().ExecContext(ctx, `
			INSERT INTO phase_runs (id, batch_id, item_id, phase, from_state, to_state, outcome, reason, error, worker_skipped, started_at, finished_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			run.ID, run.BatchID, run.ItemID, run.Phase, string(run.From), string(run.To), string(run.Outcome),
			run.Reason, run.Error, run.WorkerSkipped, run.StartedAt.UnixNano(), run.FinishedAt.UnixNano(),
		)
		if err == nil || !IsBusyError(err) {
			break
		}

		select {
		case <-ctx.Done():
			return run, ctx.Err()
		case <-time.After(wait):
		}
		wait *= 2
	}
	if err != nil {
		return run, fmt.Errorf("record run %s: %w", run.ItemID, err)
	}

	return run, nil
}

// List returns runs matching f, newest first.
func (s *RunStore) List(ctx context.Context, f history.Filter) ([]history.Run, error) {
	var (
		where []string
		args  []any
	)
	if f.ItemID != "" {
		where = append(where, "item_id = ?")
		args = append(args, f.ItemID)
	}
	if f.BatchID != "" {
		where = append(where, "batch_id = ?")
		args = append(args, f.BatchID)
	}

	query := `SELECT id, batch_id, item_id, phase, from_state, to_state, outcome, reason, error, worker_skipped, started_at, finished_at FROM phase_runs`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY started_at DESC, id DESC"
	if f.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, f.Limit)
	}

	rows, err := s.db.Conn().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer func() { _ = rows.Close() }()

	runs := []history.Run{}
	for rows.Next() {
		var (
			r                   history.Run
			from, to, outcome   string
			startedAt, finished int64
		)
		if err := rows.Scan(&r.ID, &r.BatchID, &r.ItemID, &r.Phase, &from, &to, &outcome, &r.Reason, &r.Error, &r.WorkerSkipped, &startedAt, &finished); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		r.From = state.State(from)
		r.To = state.State(to)
		r.Outcome = history.Outcome(outcome)
		r.StartedAt = time.Unix(0, startedAt).UTC()
		r.FinishedAt = time.Unix(0, finished).UTC()
		runs = append(runs, r)
	}

	return runs, rows.Err()
}

// Last returns the most recent run for an item.
func (s *RunStore) Last(ctx context.Context, itemID string) (history.Run, bool, error) {
	runs, err := s.List(ctx, history.Filter{ItemID: itemID, Limit: 1})
	if err != nil {
		return history.Run{}, false, err
	}
	if len(runs) == 0 {
		return history.Run{}, false, nil
	}
	return runs[0], true, nil
}
