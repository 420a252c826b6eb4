package git

import (
	"context"
	"fmt"
	"strings"

	"github.com/colonyops/wreckit/internal/core/logging"
	"github.com/colonyops/wreckit/pkg/executil"
)

// Executor implements Git using the git command-line tool.
type Executor struct {
	gitPath string
	dir     string
	exec    executil.Executor
	dryRun  bool
}

var _ Git = (*Executor)(nil)

// NewExecutor creates a git executor operating in dir. In dry-run mode
// mutating commands are logged and skipped.
func NewExecutor(gitPath, dir string, exec executil.Executor, dryRun bool) *Executor {
	return &Executor{gitPath: gitPath, dir: dir, exec: exec, dryRun: dryRun}
}

func (e *Executor) run(ctx context.Context, args ...string) (string, error) {
	out, err := e.exec.RunDir(ctx, e.dir, e.gitPath, args...)
	if err != nil {
		msg := strings.TrimSpace(string(out))
		if msg != "" {
			return "", fmt.Errorf("git %s: %s: %w", args[0], msg, err)
		}
		return "", fmt.Errorf("git %s: %w", args[0], err)
	}
	return strings.TrimSpace(string(out)), nil
}

// mutate runs a command that changes the repository, honoring dry-run.
func (e *Executor) mutate(ctx context.Context, args ...string) (string, error) {
	if e.dryRun {
		l := logging.Component("git")
		l.Info().
			Ctx(ctx).
			Str("cmd", e.gitPath+" "+strings.Join(args, " ")).
			Msg("dry run: skipping")
		return "", nil
	}
	return e.run(ctx, args...)
}

func (e *Executor) IsRepo(ctx context.Context) bool {
	_, err := e.run(ctx, "rev-parse", "--git-dir")
	return err == nil
}

func (e *Executor) Branch(ctx context.Context) (string, error) {
	return e.run(ctx, "rev-parse", "--abbrev-ref", "HEAD")
}

func (e *Executor) BranchExists(ctx context.Context, name string) bool {
	_, err := e.run(ctx, "rev-parse", "--verify", "--quiet", "refs/heads/"+name)
	return err == nil
}

func (e *Executor) EnsureBranch(ctx context.Context, base, name string) (bool, error) {
	if name == "" {
		return false, fmt.Errorf("branch name is required")
	}

	current, err := e.Branch(ctx)
	if err == nil && current == name {
		return false, nil
	}

	if e.BranchExists(ctx, name) {
		if _, err := e.mutate(ctx, "checkout", name); err != nil {
			return false, err
		}
		return false, nil
	}

	if _, err := e.mutate(ctx, "checkout", "-b", name, base); err != nil {
		return false, err
	}
	return true, nil
}

func (e *Executor) IsClean(ctx context.Context) (bool, error) {
	out, err := e.run(ctx, "status", "--porcelain")
	if err != nil {
		return false, err
	}
	return out == "", nil
}

func (e *Executor) CommitAll(ctx context.Context, message string) (bool, error) {
	clean, err := e.IsClean(ctx)
	if err != nil {
		return false, err
	}
	if clean {
		return false, nil
	}

	if _, err := e.mutate(ctx, "add", "-A"); err != nil {
		return false, err
	}
	if _, err := e.mutate(ctx, "commit", "-m", message); err != nil {
		return false, err
	}
	return true, nil
}

func (e *Executor) Push(ctx context.Context, branch string) error {
	_, err := e.mutate(ctx, "push", "-u", "origin", branch)
	return err
}

func (e *Executor) Preflight(ctx context.Context) []string {
	if !e.IsRepo(ctx) {
		return []string{"not in a git repository"}
	}

	var problems []string
	if branch, err := e.Branch(ctx); err == nil && branch == "HEAD" {
		problems = append(problems, "HEAD is detached")
	}

	clean, err := e.IsClean(ctx)
	switch {
	case err != nil:
		problems = append(problems, fmt.Sprintf("cannot read working tree status: %v", err))
	case !clean:
		problems = append(problems, "there are uncommitted changes")
	}

	return problems
}
