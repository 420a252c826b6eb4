package wreckit

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/colonyops/wreckit/internal/core/agent"
	"github.com/colonyops/wreckit/internal/core/config"
	"github.com/colonyops/wreckit/internal/core/git"
	"github.com/colonyops/wreckit/internal/core/history"
	"github.com/colonyops/wreckit/internal/core/item"
	"github.com/colonyops/wreckit/internal/core/logging"
	"github.com/colonyops/wreckit/internal/core/review"
	"github.com/colonyops/wreckit/internal/prompts"
	"github.com/colonyops/wreckit/internal/store/jsonfile"
)

// agentFunc plays the agent for one item and phase, taken from the logging
// fields the orchestrator puts on the context.
type agentFunc func(ctx context.Context, id string, phase Phase, req agent.Request) (agent.Result, error)

type fakeAgent struct {
	mu    sync.Mutex
	calls []string
	fn    agentFunc
}

func (a *fakeAgent) Run(ctx context.Context, req agent.Request) (agent.Result, error) {
	id, phase := logging.GetItemID(ctx), Phase(logging.GetPhase(ctx))

	a.mu.Lock()
	a.calls = append(a.calls, id+":"+string(phase))
	a.mu.Unlock()

	return a.fn(ctx, id, phase, req)
}

func (a *fakeAgent) Calls() []string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]string(nil), a.calls...)
}

func succeeded() agent.Result {
	zero := 0
	return agent.Result{Succeeded: true, CompletionDetected: true, ExitStatus: &zero}
}

// diligentAgent produces exactly what each phase needs.
func diligentAgent(store item.Store) agentFunc {
	return func(ctx context.Context, id string, phase Phase, _ agent.Request) (agent.Result, error) {
		switch phase {
		case PhaseResearch:
			if err := store.WriteArtifact(ctx, id, config.ResearchFile, []byte("# Research\n")); err != nil {
				return agent.Result{}, err
			}
		case PhasePlan:
			if err := store.WriteArtifact(ctx, id, config.PlanFile, []byte("# Plan\n")); err != nil {
				return agent.Result{}, err
			}
			doc := item.RequirementsDoc{SchemaVersion: 1, ID: id}.
				WithSubTask(item.SubTask{ID: "US-001", Title: "first", Priority: 1, Status: item.SubTaskPending}).
				WithSubTask(item.SubTask{ID: "US-002", Title: "second", Priority: 2, Status: item.SubTaskPending})
			if err := store.SaveRequirements(ctx, doc); err != nil {
				return agent.Result{}, err
			}
		case PhaseReview:
			doc, err := store.GetRequirements(ctx, id)
			if err != nil || doc == nil {
				return agent.Result{}, fmt.Errorf("no requirements: %v", err)
			}
			if story, ok := doc.NextPending(); ok {
				if err := store.SaveRequirements(ctx, doc.WithSubTaskStatus(story.ID, item.SubTaskDone)); err != nil {
					return agent.Result{}, err
				}
			}
		}
		return succeeded(), nil
	}
}

type fakeGit struct {
	mu       sync.Mutex
	branches map[string]bool
	calls    []string
}

var _ git.Git = (*fakeGit)(nil)

func newFakeGit() *fakeGit {
	return &fakeGit{branches: map[string]bool{"main": true}}
}

func (g *fakeGit) record(call string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.calls = append(g.calls, call)
}

func (g *fakeGit) Calls() []string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]string(nil), g.calls...)
}

func (g *fakeGit) IsRepo(context.Context) bool            { return true }
func (g *fakeGit) Branch(context.Context) (string, error) { return "main", nil }
func (g *fakeGit) IsClean(context.Context) (bool, error)  { return true, nil }
func (g *fakeGit) Preflight(context.Context) []string     { return nil }
func (g *fakeGit) BranchExists(_ context.Context, n string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.branches[n]
}

func (g *fakeGit) EnsureBranch(_ context.Context, base, name string) (bool, error) {
	g.record("ensure " + name)
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.branches[name] {
		return false, nil
	}
	g.branches[name] = true
	return true, nil
}

func (g *fakeGit) CommitAll(_ context.Context, msg string) (bool, error) {
	g.record("commit " + msg)
	return true, nil
}

func (g *fakeGit) Push(_ context.Context, branch string) error {
	g.record("push " + branch)
	return nil
}

func (g *fakeGit) DiffSummary(context.Context, string, string) (git.DiffSummary, error) {
	return git.DiffSummary{}, nil
}

type fakeReviews struct {
	mu     sync.Mutex
	next   int
	status review.Status
	byHead map[string]review.Request
}

var _ review.Provider = (*fakeReviews)(nil)

func newFakeReviews(status review.Status) *fakeReviews {
	return &fakeReviews{next: 1, status: status, byHead: map[string]review.Request{}}
}

func (r *fakeReviews) FindByBranch(_ context.Context, branch string) (review.Request, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	req, ok := r.byHead[branch]
	if !ok {
		return review.Request{}, review.ErrNotFound
	}
	return req, nil
}

func (r *fakeReviews) Create(_ context.Context, opts review.CreateOptions) (review.Request, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if req, ok := r.byHead[opts.Head]; ok {
		return req, false, nil
	}
	req := review.Request{
		Number: r.next,
		URL:    fmt.Sprintf("https://github.com/acme/repo/pull/%d", r.next),
		Status: review.StatusOpen,
	}
	r.next++
	r.byHead[opts.Head] = req
	return req, true, nil
}

func (r *fakeReviews) Status(context.Context, int) (review.Status, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.status, nil
}

type memHistory struct {
	mu   sync.Mutex
	runs []history.Run
}

var _ history.Store = (*memHistory)(nil)

func (h *memHistory) Record(_ context.Context, run history.Run) (history.Run, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	run.ID = fmt.Sprintf("run-%d", len(h.runs)+1)
	h.runs = append(h.runs, run)
	return run, nil
}

func (h *memHistory) List(_ context.Context, f history.Filter) ([]history.Run, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := []history.Run{}
	for i := len(h.runs) - 1; i >= 0; i-- {
		r := h.runs[i]
		if f.ItemID != "" && r.ItemID != f.ItemID {
			continue
		}
		if f.BatchID != "" && r.BatchID != f.BatchID {
			continue
		}
		out = append(out, r)
	}
	return out, nil
}

func (h *memHistory) Last(ctx context.Context, itemID string) (history.Run, bool, error) {
	runs, _ := h.List(ctx, history.Filter{ItemID: itemID})
	if len(runs) == 0 {
		return history.Run{}, false, nil
	}
	return runs[0], true, nil
}

type fixture struct {
	cfg     *config.Config
	store   *jsonfile.ItemStore
	agent   *fakeAgent
	git     *fakeGit
	reviews *fakeReviews
	history *memHistory
	orch    *Orchestrator
}

func newFixture(t *testing.T, fn func(store item.Store) agentFunc) *fixture {
	t.Helper()

	cfg := config.DefaultConfig()
	cfg.Root = t.TempDir()

	f := &fixture{
		cfg:     &cfg,
		store:   jsonfile.NewItemStore(cfg.Paths()),
		git:     newFakeGit(),
		reviews: newFakeReviews(review.StatusMerged),
		history: &memHistory{},
	}
	f.agent = &fakeAgent{fn: fn(f.store)}
	f.orch = f.build(false)

	return f
}

func (f *fixture) build(dryRun bool) *Orchestrator {
	return New(Deps{
		Config:  f.cfg,
		Store:   f.store,
		Agent:   f.agent,
		Git:     f.git,
		Reviews: f.reviews,
		Prompts: prompts.NewLoader(""),
		History: f.history,
		DryRun:  dryRun,
	})
}

func (f *fixture) put(t *testing.T, items ...item.Item) {
	t.Helper()
	for _, it := range items {
		require.NoError(t, f.store.Create(context.Background(), it))
	}
}

func (f *fixture) get(t *testing.T, id string) item.Item {
	t.Helper()
	it, err := f.store.Get(context.Background(), id)
	require.NoError(t, err)
	return it
}
