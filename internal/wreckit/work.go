package wreckit

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"strings"
	"time"

	"github.com/colonyops/wreckit/internal/core/agent"
	"github.com/colonyops/wreckit/internal/core/config"
	"github.com/colonyops/wreckit/internal/core/item"
	"github.com/colonyops/wreckit/internal/core/review"
	"github.com/colonyops/wreckit/internal/prompts"
)

// hasWorker reports whether a phase invokes the agent. Implementation starts
// with bookkeeping only and completion only observes the review host.
func hasWorker(p Phase) bool {
	switch p {
	case PhaseResearch, PhasePlan, PhaseReview:
		return true
	default:
		return false
	}
}

// prepare performs idempotent bookkeeping before evidence is observed. The
// returned item is not persisted here.
func (o *Orchestrator) prepare(ctx context.Context, p Phase, it item.Item) (item.Item, error) {
	switch p {
	case PhaseImplement, PhaseReview:
		branch := it.Branch
		if branch == "" {
			branch = o.cfg.BranchName(it.ID)
		}

		created, err := o.git.EnsureBranch(ctx, o.cfg.BaseBranch, branch)
		if err != nil {
			return it, &WorkerError{Phase: p, Cause: err}
		}
		if created {
			o.log.Info().Ctx(ctx).Str("branch", branch).Str("base", o.cfg.BaseBranch).Msg("created branch")
		}
		if it.Branch != branch {
			it = it.WithBranch(branch)
		}
	}

	if p == PhaseReview && !it.HasReviewRequest() && o.reviews != nil {
		// A request opened by an earlier run that never got saved.
		req, err := o.reviews.FindByBranch(ctx, it.Branch)
		switch {
		case errors.Is(err, review.ErrNotFound):
		case err != nil:
			return it, &WorkerError{Phase: p, Cause: err}
		case req.URL != "" || req.Number != 0:
			o.log.Info().Ctx(ctx).Str("url", req.URL).Int("number", req.Number).Msg("found existing review request")
			it = it.WithReview(req.URL, req.Number)
		}
	}
	return it, nil
}

// work runs the phase's worker and returns the item with any bookkeeping
// the worker produced.
func (o *Orchestrator) work(ctx context.Context, p Phase, it item.Item, opts Options) (item.Item, error) {
	switch p {
	case PhaseResearch:
		return it, o.runPrompt(ctx, p, prompts.Research, it, item.SubTask{})
	case PhasePlan:
		return it, o.runPrompt(ctx, p, prompts.Plan, it, item.SubTask{})
	case PhaseReview:
		if err := o.implementStories(ctx, it, opts); err != nil {
			return it, err
		}
		return o.publish(ctx, it)
	default:
		return it, nil
	}
}

// implementStories runs the agent once per pending sub-task, highest
// priority first, until none are pending, the agent stops making progress or
// the iteration budget is used up.
func (o *Orchestrator) implementStories(ctx context.Context, it item.Item, opts Options) error {
	for i := 0; i < o.budget(opts); i++ {
		doc, err := o.store.GetRequirements(ctx, it.ID)
		if err != nil {
			return err
		}
		if doc == nil {
			return nil
		}
		story, ok := doc.NextPending()
		if !ok {
			return nil
		}

		o.log.Info().Ctx(ctx).Str("story", story.ID).Str("title", story.Title).Msg("implementing story")
		if err := o.runPrompt(ctx, PhaseReview, prompts.Implement, it, story); err != nil {
			return err
		}

		after, err := o.store.GetRequirements(ctx, it.ID)
		if err != nil {
			return err
		}
		if after == nil {
			return nil
		}
		if t, ok := after.SubTask(story.ID); ok && t.Status == item.SubTaskPending {
			o.log.Warn().Ctx(ctx).Str("story", story.ID).Msg("story still pending after agent run")
			return nil
		}
	}
	return nil
}

// publish commits and pushes the branch and opens the review request once
// every sub-task is done.
func (o *Orchestrator) publish(ctx context.Context, it item.Item) (item.Item, error) {
	doc, err := o.store.GetRequirements(ctx, it.ID)
	if err != nil {
		return it, err
	}
	if doc == nil || !doc.AllDone() {
		return it, nil
	}

	if err := o.runPrompt(ctx, PhaseReview, prompts.PR, it, item.SubTask{}); err != nil {
		return it, err
	}

	committed, err := o.git.CommitAll(ctx, fmt.Sprintf("%s: %s", it.ID, it.Title))
	if err != nil {
		return it, &WorkerError{Phase: PhaseReview, Cause: err}
	}
	if committed {
		o.log.Info().Ctx(ctx).Str("branch", it.Branch).Msg("committed remaining changes")
	}

	if err := o.git.Push(ctx, it.Branch); err != nil {
		return it, &WorkerError{Phase: PhaseReview, Cause: err}
	}

	req, created, err := o.reviews.Create(ctx, review.CreateOptions{
		Base:  o.cfg.BaseBranch,
		Head:  it.Branch,
		Title: it.Title,
		Body:  o.reviewBody(ctx, it),
	})
	if err != nil {
		return it, &WorkerError{Phase: PhaseReview, Cause: err}
	}

	o.log.Info().Ctx(ctx).Str("url", req.URL).Int("number", req.Number).Bool("created", created).Msg("review request ready")

	if req.URL == "" && req.Number == 0 {
		return it, nil
	}
	if req.URL != it.PRURL || req.Number != it.PRNumber {
		it = it.WithReview(req.URL, req.Number)
	}
	return it, nil
}

func (o *Orchestrator) reviewBody(ctx context.Context, it item.Item) string {
	var b strings.Builder
	b.WriteString(strings.TrimSpace(it.Overview))

	summary, err := o.git.DiffSummary(ctx, o.cfg.BaseBranch, it.Branch)
	if err != nil {
		o.log.Warn().Ctx(ctx).Err(err).Msg("diff summary unavailable")
	} else if !summary.Empty() {
		b.WriteString("\n\n")
		b.WriteString(summary.Markdown())
	}

	fmt.Fprintf(&b, "\n\n---\nwreckit item `%s`\n", it.ID)
	return b.String()
}

// runPrompt renders a template for it and runs the agent with it. Output is
// appended to the item's progress log.
func (o *Orchestrator) runPrompt(ctx context.Context, p Phase, name prompts.Name, it item.Item, story item.SubTask) error {
	vars, err := o.variables(ctx, it)
	if err != nil {
		return err
	}
	vars.Story = story

	prompt, err := o.prompts.Render(name, vars)
	if err != nil {
		return err
	}

	var progress io.Writer = io.Discard
	if !o.dryRun {
		if err := o.store.WriteArtifact(ctx, it.ID, config.PromptFile, []byte(prompt)); err != nil {
			return err
		}

		w, err := o.store.ProgressWriter(it.ID)
		if err != nil {
			return &item.StorageError{Op: "open progress log", ID: it.ID, Err: err}
		}
		defer func() { _ = w.Close() }()
		fmt.Fprintf(w, "\n=== %s %s %s ===\n", time.Now().UTC().Format(time.RFC3339), p, name)
		progress = w
	}

	res, err := o.agent.Run(ctx, agent.Request{
		Prompt:   prompt,
		Dir:      o.cfg.Root,
		Timeout:  o.cfg.Timeout,
		Progress: progress,
	})
	switch {
	case ctx.Err() != nil:
		return ctx.Err()
	case err != nil:
		return &WorkerError{Phase: p, Cause: err}
	case res.TimedOut:
		return &WorkerError{Phase: p, Cause: context.DeadlineExceeded, TimedOut: true}
	case res.ExitStatus != nil && *res.ExitStatus != 0:
		return &WorkerError{Phase: p, Cause: fmt.Errorf("agent exited with status %d", *res.ExitStatus)}
	}

	if !res.CompletionDetected {
		o.log.Warn().Ctx(ctx).Msg("agent exited without the completion signal")
	}
	return nil
}

// variables loads the template data for it, including the text of its
// existing artifacts.
func (o *Orchestrator) variables(ctx context.Context, it item.Item) (prompts.Variables, error) {
	vars := prompts.FromItem(it, o.cfg.Paths().ItemDir(it.ID))
	vars.BaseBranch = o.cfg.BaseBranch
	vars.CompletionSignal = o.cfg.Agent.CompletionSignal
	if vars.BranchName == "" {
		vars.BranchName = o.cfg.BranchName(it.ID)
	}

	for name, dst := range map[string]*string{
		config.ResearchFile:     &vars.Research,
		config.PlanFile:         &vars.Plan,
		config.RequirementsFile: &vars.PRD,
		config.ProgressFile:     &vars.Progress,
	} {
		data, err := o.store.ReadArtifact(ctx, it.ID, name)
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			return vars, err
		}
		*dst = string(data)
	}

	return vars, nil
}
