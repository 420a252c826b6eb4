// Package wreckit drives items through their lifecycle phases.
//
// The orchestrator is the only place where the outside world meets the pure
// transition rules in internal/core/workflow: it runs a phase's worker,
// re-observes the item's artifacts into a fresh evidence snapshot, asks the
// engine for the single forward step and persists the outcome.
package wreckit

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/rs/zerolog"

	"github.com/colonyops/wreckit/internal/core/agent"
	"github.com/colonyops/wreckit/internal/core/config"
	"github.com/colonyops/wreckit/internal/core/git"
	"github.com/colonyops/wreckit/internal/core/history"
	"github.com/colonyops/wreckit/internal/core/item"
	"github.com/colonyops/wreckit/internal/core/logging"
	"github.com/colonyops/wreckit/internal/core/review"
	"github.com/colonyops/wreckit/internal/core/state"
	"github.com/colonyops/wreckit/internal/core/workflow"
	"github.com/colonyops/wreckit/internal/prompts"
)

// Store is the item storage the orchestrator needs.
type Store interface {
	item.Store
	// ProgressWriter opens the item's progress log for appending.
	ProgressWriter(id string) (io.WriteCloser, error)
}

// Deps are the collaborators of an Orchestrator. History may be nil.
type Deps struct {
	Config  *config.Config
	Store   Store
	Agent   agent.Runner
	Git     git.Git
	Reviews review.Provider
	Prompts *prompts.Loader
	History history.Store
	DryRun  bool
}

// Options tune a single orchestration call.
type Options struct {
	// Force runs the worker even when existing artifacts already satisfy
	// the phase's target state.
	Force bool
	// Phase, when set, makes RunPhase refuse items whose next phase differs.
	Phase Phase
	// MaxIterations overrides the configured phase-run budget per item.
	MaxIterations int
	// Concurrency overrides the configured number of items driven at once.
	Concurrency int
	// Match restricts selection to item ids matching a doublestar pattern.
	Match string
}

// PhaseResult describes one phase run.
type PhaseResult struct {
	ItemID        string      `json:"item_id"`
	Phase         Phase       `json:"phase,omitempty"`
	From          state.State `json:"from"`
	To            state.State `json:"to"`
	Advanced      bool        `json:"advanced"`
	WorkerSkipped bool        `json:"worker_skipped,omitempty"`
	Item          item.Item   `json:"item"`
}

// Orchestrator runs phases against stored items.
type Orchestrator struct {
	cfg      *config.Config
	store    Store
	agent    agent.Runner
	git      git.Git
	reviews  review.Provider
	prompts  *prompts.Loader
	history  history.Store
	observer *Observer
	dryRun   bool

	locks *itemLocks
	log   zerolog.Logger
}

// New creates an Orchestrator.
func New(d Deps) *Orchestrator {
	log := logging.Component("orchestrator")
	return &Orchestrator{
		cfg:      d.Config,
		store:    d.Store,
		agent:    d.Agent,
		git:      d.Git,
		reviews:  d.Reviews,
		prompts:  d.Prompts,
		history:  d.History,
		observer: NewObserver(d.Store, d.Reviews, log),
		dryRun:   d.DryRun,
		locks:    newItemLocks(),
		log:      log,
	}
}

// Observer returns the evidence observer used for decisions.
func (o *Orchestrator) Observer() *Observer {
	return o.observer
}

// NextPhase returns the phase RunPhase would execute for it.
func (o *Orchestrator) NextPhase(it item.Item) (Phase, bool) {
	return NextPhase(it)
}

// RunPhase runs the next phase of item id once.
//
// When the item's artifacts already satisfy the target state the worker is
// skipped unless opts.Force is set. A rejected transition or a failed worker
// persists the unchanged state with last_error set and returns the error.
// Cancellation of ctx writes nothing.
func (o *Orchestrator) RunPhase(ctx context.Context, id string, opts Options) (PhaseResult, error) {
	unlock, ok := o.locks.tryLock(id)
	if !ok {
		return PhaseResult{ItemID: id}, fmt.Errorf("%w: %s", ErrItemBusy, id)
	}
	defer unlock()

	return o.runPhase(ctx, id, opts)
}

func (o *Orchestrator) runPhase(ctx context.Context, id string, opts Options) (PhaseResult, error) {
	res := PhaseResult{ItemID: id}

	it, err := o.store.Get(ctx, id)
	if err != nil {
		return res, err
	}
	res.From, res.To, res.Item = it.State, it.State, it

	phase, ok := NextPhase(it)
	if !ok {
		return res, fmt.Errorf("%s: %w", id, workflow.ErrAlreadyTerminal)
	}
	if opts.Phase != "" && opts.Phase != phase {
		return res, fmt.Errorf("%w: %s is %s, next phase is %s", ErrPhaseMismatch, id, it.State.Label(), phase)
	}
	res.Phase = phase
	target, _ := it.State.Next()

	ctx = logging.WithPhase(logging.WithItemID(ctx, id), string(phase))
	started := time.Now()

	o.log.Info().Ctx(ctx).Str("from", it.State.Label()).Str("to", target.Label()).Msg("phase started")

	working, err := o.prepare(ctx, phase, it)
	if err != nil {
		return o.fail(ctx, res, it, err, started)
	}

	ev, err := o.observer.Observe(ctx, working)
	if err != nil {
		return o.fail(ctx, res, working, err, started)
	}

	if _, satisfied := workflow.Check(target, ev); satisfied && !opts.Force {
		res.WorkerSkipped = hasWorker(phase)
		if res.WorkerSkipped {
			o.log.Info().Ctx(ctx).Msg("artifacts already satisfy target, skipping worker")
		}
	} else {
		working, err = o.work(ctx, phase, working, opts)
		if err != nil {
			return o.fail(ctx, res, working, err, started)
		}
		if ev, err = o.observer.Observe(ctx, working); err != nil {
			return o.fail(ctx, res, working, err, started)
		}
	}

	next, err := workflow.ApplyTransition(working, ev)
	if err != nil {
		return o.fail(ctx, res, working, err, started)
	}
	if next.LastError != "" {
		next = next.WithError("")
	}

	if err := o.save(ctx, next); err != nil {
		o.record(ctx, res, history.OutcomeFailed, err, started)
		return res, err
	}

	res.Item, res.To, res.Advanced = next, next.State, true
	o.record(ctx, res, history.OutcomeAdvanced, nil, started)
	o.log.Info().Ctx(ctx).Str("state", next.State.Label()).Dur("elapsed", time.Since(started)).Msg("phase advanced")

	return res, nil
}

// fail settles a phase that did not advance. Rejections and worker failures
// are recorded on the item; cancellation and storage errors leave it alone.
func (o *Orchestrator) fail(ctx context.Context, res PhaseResult, working item.Item, cause error, started time.Time) (PhaseResult, error) {
	if ctx.Err() != nil || errors.Is(cause, context.Canceled) {
		o.log.Warn().Ctx(ctx).Err(cause).Msg("phase cancelled")
		o.record(ctx, res, history.OutcomeCancelled, cause, started)
		return res, cause
	}

	outcome := history.OutcomeFailed
	var werr *WorkerError
	switch {
	case workflow.IsRejection(cause):
		outcome = history.OutcomeRejected
	case errors.As(cause, &werr):
		if werr.TimedOut {
			outcome = history.OutcomeTimedOut
		}
	default:
		o.log.Error().Ctx(ctx).Err(cause).Msg("phase failed")
		o.record(ctx, res, outcome, cause, started)
		return res, cause
	}

	failed := working.WithError(lastErrorMessage(cause))
	if err := o.save(ctx, failed); err != nil {
		o.record(ctx, res, history.OutcomeFailed, err, started)
		return res, errors.Join(cause, err)
	}
	res.Item = failed

	o.log.Warn().Ctx(ctx).Err(cause).Str("outcome", string(outcome)).Msg("phase did not advance")
	o.record(ctx, res, outcome, cause, started)

	return res, cause
}

// lastErrorMessage is the durable text stored on the item. Validation
// failures store the bare reason.
func lastErrorMessage(err error) string {
	if reason, ok := workflow.ReasonOf(err); ok {
		return string(reason)
	}
	return err.Error()
}

func (o *Orchestrator) save(ctx context.Context, it item.Item) error {
	if o.dryRun {
		o.log.Info().Ctx(ctx).Str("state", it.State.Label()).Str("last_error", it.LastError).Msg("dry run: item not saved")
		return nil
	}
	return o.store.Save(ctx, it)
}

func (o *Orchestrator) record(ctx context.Context, res PhaseResult, outcome history.Outcome, cause error, started time.Time) {
	if o.history == nil || o.dryRun {
		return
	}

	run := history.Run{
		BatchID:       logging.GetBatchID(ctx),
		ItemID:        res.ItemID,
		Phase:         string(res.Phase),
		From:          res.From,
		To:            res.To,
		Outcome:       outcome,
		WorkerSkipped: res.WorkerSkipped,
		StartedAt:     started.UTC(),
		FinishedAt:    time.Now().UTC(),
	}
	if outcome == history.OutcomeAdvanced && res.WorkerSkipped {
		run.Outcome = history.OutcomeSkipped
	}
	if cause != nil {
		if reason, ok := workflow.ReasonOf(cause); ok {
			run.Reason = string(reason)
		}
		run.Error = cause.Error()
	}

	// History is written even when the phase itself was cancelled.
	if _, err := o.history.Record(context.WithoutCancel(ctx), run); err != nil {
		o.log.Warn().Ctx(ctx).Err(err).Msg("failed to record phase run")
	}
}

// RunItem runs phases for item id until it is done, a phase fails or the
// iteration budget is used up. Force applies to the first phase only.
func (o *Orchestrator) RunItem(ctx context.Context, id string, opts Options) ([]PhaseResult, error) {
	budget := o.budget(opts)
	results := []PhaseResult{}

	it, err := o.store.Get(ctx, id)
	if err != nil {
		return results, err
	}
	if it.State.IsTerminal() {
		return results, nil
	}

	for i := 0; i < budget; i++ {
		res, err := o.RunPhase(ctx, id, opts)
		results = append(results, res)
		if err != nil {
			return results, err
		}
		if res.Item.State.IsTerminal() {
			return results, nil
		}
		if o.dryRun {
			o.log.Info().Ctx(ctx).Str("item_id", id).Msg("dry run: stopping after one phase")
			return results, nil
		}
		opts.Force = false
	}

	return results, fmt.Errorf("%w: %s after %d phase runs", ErrIterationBudgetExceeded, id, budget)
}

func (o *Orchestrator) budget(opts Options) int {
	if opts.MaxIterations > 0 {
		return opts.MaxIterations
	}
	if o.cfg.MaxIterations > 0 {
		return o.cfg.MaxIterations
	}
	return 1
}

// NextResult reports what OrchestrateNext did.
type NextResult struct {
	// Selected is false when no item is pending.
	Selected bool        `json:"selected"`
	Result   PhaseResult `json:"result"`
}

// OrchestrateNext runs exactly one phase on the highest-priority pending item.
func (o *Orchestrator) OrchestrateNext(ctx context.Context, opts Options) (NextResult, error) {
	id, err := o.pick(ctx, opts.Match, nil)
	if err != nil || id == "" {
		return NextResult{}, err
	}

	res, err := o.RunPhase(ctx, id, opts)
	return NextResult{Selected: true, Result: res}, err
}

// pick returns the first pending item matching pattern that is not in skip.
// The ordering is recomputed from storage on every call.
func (o *Orchestrator) pick(ctx context.Context, pattern string, skip map[string]bool) (string, error) {
	items, err := o.store.List(ctx)
	if err != nil {
		return "", err
	}

	for _, it := range Pending(items) {
		if skip[it.ID] {
			continue
		}
		ok, err := MatchID(pattern, it.ID)
		if err != nil {
			return "", fmt.Errorf("match %q: %w", pattern, err)
		}
		if ok {
			return it.ID, nil
		}
	}

	return "", nil
}
