// Package git wraps the git command line for branch and commit bookkeeping.
package git

import "context"

// Git defines the git operations needed to move an item through review.
type Git interface {
	// IsRepo reports whether the working directory is inside a git repository.
	IsRepo(ctx context.Context) bool
	// Branch returns the current branch name, or "HEAD" when detached.
	Branch(ctx context.Context) (string, error)
	// BranchExists reports whether a local branch exists.
	BranchExists(ctx context.Context, name string) bool
	// EnsureBranch checks out name, creating it from base when missing.
	EnsureBranch(ctx context.Context, base, name string) (created bool, err error)
	// IsClean reports whether there are no uncommitted changes.
	IsClean(ctx context.Context) (bool, error)
	// CommitAll stages every change and commits it. Returns false when there
	// was nothing to commit.
	CommitAll(ctx context.Context, message string) (bool, error)
	// Push pushes branch to origin and sets upstream.
	Push(ctx context.Context, branch string) error
	// DiffSummary summarizes the changes on head relative to its merge base with base.
	DiffSummary(ctx context.Context, base, head string) (DiffSummary, error)
	// Preflight lists problems that would prevent branch work.
	Preflight(ctx context.Context) []string
}
