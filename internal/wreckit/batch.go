package wreckit

import (
	"context"
	"errors"
	"sort"
	"sync"

	"github.com/google/uuid"
	"github.com/sourcegraph/conc"

	"github.com/colonyops/wreckit/internal/core/logging"
)

// ItemFailure is an item that stopped with an error during a batch.
type ItemFailure struct {
	ID    string `json:"id"`
	Error string `json:"error"`
}

// BatchResult aggregates an OrchestrateAll run.
type BatchResult struct {
	BatchID   string        `json:"batch_id"`
	Completed []string      `json:"completed"`
	Failed    []ItemFailure `json:"failed"`
	Remaining []string      `json:"remaining"`
}

// OrchestrateAll drives every pending item toward done. Items are selected
// in priority order, re-read from storage each time a slot frees up, and at
// most opts.Concurrency distinct items run at once. An item is attempted at
// most once per batch.
func (o *Orchestrator) OrchestrateAll(ctx context.Context, opts Options) (BatchResult, error) {
	result := BatchResult{
		BatchID:   uuid.NewString(),
		Completed: []string{},
		Failed:    []ItemFailure{},
		Remaining: []string{},
	}
	ctx = logging.WithBatchID(ctx, result.BatchID)

	size := opts.Concurrency
	if size <= 0 {
		size = o.cfg.Concurrency
	}
	pool := NewWorkerPool(size)

	var (
		mu       sync.Mutex
		inflight int
		seen     = map[string]bool{}
		failed   = map[string]bool{}
		finished = make(chan struct{}, 1)
		wg       = conc.NewWaitGroup()
		loopErr  error
	)

	o.log.Info().Ctx(ctx).Int("concurrency", size).Str("match", opts.Match).Msg("batch started")

	for {
		if err := pool.Acquire(ctx); err != nil {
			loopErr = err
			break
		}

		id, err := o.pick(ctx, opts.Match, seen)
		if err != nil {
			pool.Release()
			loopErr = err
			break
		}

		if id == "" {
			pool.Release()
			mu.Lock()
			idle := inflight == 0
			mu.Unlock()
			if idle {
				break
			}
			select {
			case <-finished:
				continue
			case <-ctx.Done():
				loopErr = ctx.Err()
			}
			break
		}

		seen[id] = true
		mu.Lock()
		inflight++
		mu.Unlock()

		wg.Go(func() {
			defer func() {
				pool.Release()
				mu.Lock()
				inflight--
				mu.Unlock()
				select {
				case finished <- struct{}{}:
				default:
				}
			}()

			results, err := o.RunItem(ctx, id, opts)

			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil && len(results) > 0 && results[len(results)-1].Item.State.IsTerminal():
				result.Completed = append(result.Completed, id)
			case err == nil, errors.Is(err, ErrIterationBudgetExceeded), errors.Is(err, context.Canceled):
			default:
				failed[id] = true
				result.Failed = append(result.Failed, ItemFailure{ID: id, Error: err.Error()})
			}
		})
	}

	if r := wg.WaitAndRecover(); r != nil {
		return result, r.AsError()
	}

	// Remaining is computed from storage so items added during the batch or
	// left unattempted after cancellation are reported.
	items, err := o.store.List(context.WithoutCancel(ctx))
	if err != nil {
		return result, errors.Join(loopErr, err)
	}
	for _, it := range Pending(items) {
		if failed[it.ID] {
			continue
		}
		if ok, _ := MatchID(opts.Match, it.ID); ok {
			result.Remaining = append(result.Remaining, it.ID)
		}
	}

	sort.Strings(result.Completed)
	sort.Slice(result.Failed, func(i, j int) bool { return result.Failed[i].ID < result.Failed[j].ID })

	o.log.Info().Ctx(ctx).
		Int("completed", len(result.Completed)).
		Int("failed", len(result.Failed)).
		Int("remaining", len(result.Remaining)).
		Msg("batch finished")

	return result, loopErr
}
