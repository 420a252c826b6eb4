package doctor

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/colonyops/wreckit/internal/core/config"
	"github.com/colonyops/wreckit/internal/core/item"
	"github.com/colonyops/wreckit/internal/core/state"
	"github.com/colonyops/wreckit/internal/core/workflow"
)

// tmpSuffix matches leftovers of interrupted atomic writes.
const tmpSuffix = ".tmp"

// driftPrefix marks last_error values written by the items check.
const driftPrefix = "state drift: "

// EvidenceFunc observes the local evidence for an item.
type EvidenceFunc func(ctx context.Context, it item.Item) (workflow.Evidence, error)

// ItemsCheck inspects every item directory for corruption, leftovers and
// states that are ahead of their artifacts.
type ItemsCheck struct {
	paths   config.Paths
	store   item.Store
	observe EvidenceFunc
}

// NewItemsCheck creates an items check.
func NewItemsCheck(paths config.Paths, store item.Store, observe EvidenceFunc) *ItemsCheck {
	return &ItemsCheck{paths: paths, store: store, observe: observe}
}

func (c *ItemsCheck) Name() string {
	return "Items"
}

// finding is a problem with one item directory.
type finding struct {
	id      string
	status  Status
	detail  string
	tmp     []string
	drift   workflow.Reason
	fixable bool
}

func (c *ItemsCheck) Run(ctx context.Context) Result {
	result := Result{Name: c.Name()}

	findings, healthy, err := c.scan(ctx)
	if err != nil {
		result.Entries = append(result.Entries, Entry{
			Label:  c.paths.ItemsDir(),
			Status: StatusFail,
			Detail: err.Error(),
		})
		return result
	}

	for _, f := range findings {
		result.Entries = append(result.Entries, Entry{
			Label:   f.id,
			Status:  f.status,
			Detail:  f.detail,
			Fixable: f.fixable,
		})
	}

	result.Entries = append(result.Entries, Entry{
		Label:  "items",
		Status: StatusPass,
		Detail: fmt.Sprintf("%d healthy", healthy),
	})

	return result
}

// Fix removes stale temp files and records drift in last_error. Item state is
// never changed and terminal items are never written.
func (c *ItemsCheck) Fix(ctx context.Context) ([]string, error) {
	findings, _, err := c.scan(ctx)
	if err != nil {
		return nil, err
	}

	var actions []string
	for _, f := range findings {
		for _, path := range f.tmp {
			if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
				return actions, fmt.Errorf("remove %s: %w", path, err)
			}
			actions = append(actions, "removed "+path)
		}

		if f.drift == "" {
			continue
		}
		it, err := c.store.Get(ctx, f.id)
		if err != nil {
			return actions, err
		}
		msg := driftMessage(it.State, f.drift)
		if it.State.IsTerminal() || it.LastError == msg {
			continue
		}
		if err := c.store.Save(ctx, it.WithError(msg)); err != nil {
			return actions, err
		}
		actions = append(actions, fmt.Sprintf("%s: recorded %q", f.id, msg))
	}

	return actions, nil
}

func (c *ItemsCheck) scan(ctx context.Context) ([]finding, int, error) {
	entries, err := os.ReadDir(c.paths.ItemsDir())
	if errors.Is(err, os.ErrNotExist) {
		return nil, 0, nil
	}
	if err != nil {
		return nil, 0, err
	}

	var (
		findings []finding
		healthy  int
	)
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		found := c.inspect(ctx, e.Name())
		if len(found) == 0 {
			healthy++
		}
		findings = append(findings, found...)
	}

	return findings, healthy, nil
}

func (c *ItemsCheck) inspect(ctx context.Context, id string) []finding {
	dir := c.paths.ItemDir(id)
	var out []finding

	if tmp := staleTemps(dir); len(tmp) > 0 {
		out = append(out, finding{
			id:      id,
			status:  StatusWarn,
			detail:  fmt.Sprintf("%d stale temp file(s) from an interrupted write", len(tmp)),
			tmp:     tmp,
			fixable: true,
		})
	}

	it, err := c.store.Get(ctx, id)
	switch {
	case errors.Is(err, item.ErrNotFound):
		return append(out, finding{id: id, status: StatusWarn, detail: "directory has no " + config.ItemFile})
	case err != nil:
		return append(out, finding{id: id, status: StatusFail, detail: err.Error()})
	}

	if !it.State.IsValid() {
		return append(out, finding{id: id, status: StatusFail, detail: fmt.Sprintf("unknown state %q", it.State)})
	}

	if _, err := c.store.GetRequirements(ctx, id); err != nil {
		out = append(out, finding{id: id, status: StatusFail, detail: "invalid " + config.RequirementsFile + ": " + err.Error()})
		return out
	}

	if c.observe == nil {
		return out
	}
	ev, err := c.observe(ctx, it)
	if err != nil {
		return append(out, finding{id: id, status: StatusFail, detail: err.Error()})
	}
	if reason, ok := Drift(it.State, ev); ok {
		f := finding{
			id:     id,
			status: StatusWarn,
			detail: driftMessage(it.State, reason),
		}
		// Done items are immutable; drift is reported but never recorded.
		if !it.State.IsTerminal() {
			f.drift = reason
			f.fixable = true
		}
		out = append(out, f)
	}

	return out
}

// Drift reports the first artifact missing for an item recorded in s. Every
// state past Idea implies the artifacts of the states before it.
func Drift(s state.State, ev workflow.Evidence) (workflow.Reason, bool) {
	for _, implied := range []state.State{state.Researched, state.Planned} {
		if s.Before(implied) {
			break
		}
		if reason, ok := workflow.Check(implied, ev); !ok {
			return reason, true
		}
	}
	if !s.Before(state.InReview) && !ev.HasReviewRequest {
		return workflow.ReasonNoReviewRequest, true
	}
	return "", false
}

func driftMessage(s state.State, reason workflow.Reason) string {
	return driftPrefix + s.Label() + " but " + string(reason)
}

func staleTemps(dir string) []string {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil
	}
	var out []string
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), tmpSuffix) {
			out = append(out, filepath.Join(dir, e.Name()))
		}
	}
	return out
}
