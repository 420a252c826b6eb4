package git

import (
	"context"
	"fmt"
	"strings"

	"github.com/bluekeyes/go-gitdiff/gitdiff"
)

// FileChange is the per-file part of a DiffSummary.
type FileChange struct {
	Path    string `json:"path"`
	Status  string `json:"status"` // added, deleted, renamed, modified
	Added   int64  `json:"added"`
	Deleted int64  `json:"deleted"`
	Binary  bool   `json:"binary,omitempty"`
}

// DiffSummary aggregates line counts across a diff.
type DiffSummary struct {
	Files   []FileChange `json:"files"`
	Added   int64        `json:"added"`
	Deleted int64        `json:"deleted"`
}

// Empty reports whether the diff touches no files.
func (d DiffSummary) Empty() bool { return len(d.Files) == 0 }

// String renders a one-line "N files, +A -D" summary.
func (d DiffSummary) String() string {
	noun := "files"
	if len(d.Files) == 1 {
		noun = "file"
	}
	return fmt.Sprintf("%d %s, +%d -%d", len(d.Files), noun, d.Added, d.Deleted)
}

// Markdown renders the summary as a list suitable for a review request body.
func (d DiffSummary) Markdown() string {
	if d.Empty() {
		return "_no changes_"
	}
	var sb strings.Builder
	for _, f := range d.Files {
		fmt.Fprintf(&sb, "- `%s` (%s, +%d -%d)\n", f.Path, f.Status, f.Added, f.Deleted)
	}
	return strings.TrimRight(sb.String(), "\n")
}

func (e *Executor) DiffSummary(ctx context.Context, base, head string) (DiffSummary, error) {
	if base == "" {
		return DiffSummary{}, fmt.Errorf("base branch is required")
	}
	if head == "" {
		head = "HEAD"
	}

	out, err := e.exec.RunDir(ctx, e.dir, e.gitPath, "diff", "--no-color", base+"..."+head)
	if err != nil {
		return DiffSummary{}, fmt.Errorf("git diff: %w", err)
	}

	return ParseDiff(string(out))
}

// ParseDiff summarizes a unified git diff.
func ParseDiff(diff string) (DiffSummary, error) {
	files, _, err := gitdiff.Parse(strings.NewReader(diff))
	if err != nil {
		return DiffSummary{}, fmt.Errorf("parse diff: %w", err)
	}

	summary := DiffSummary{Files: make([]FileChange, 0, len(files))}
	for _, f := range files {
		fc := FileChange{Path: f.NewName, Binary: f.IsBinary}

		switch {
		case f.IsNew:
			fc.Status = "added"
		case f.IsDelete:
			fc.Status = "deleted"
			fc.Path = f.OldName
		case f.IsRename:
			fc.Status = "renamed"
		default:
			fc.Status = "modified"
		}

		for _, frag := range f.TextFragments {
			fc.Added += frag.LinesAdded
			fc.Deleted += frag.LinesDeleted
		}

		summary.Added += fc.Added
		summary.Deleted += fc.Deleted
		summary.Files = append(summary.Files, fc)
	}

	return summary, nil
}
