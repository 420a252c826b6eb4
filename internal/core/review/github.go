package review

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/colonyops/wreckit/internal/core/logging"
	"github.com/colonyops/wreckit/pkg/executil"
)

// GitHub implements Provider using the gh CLI.
type GitHub struct {
	ghPath string
	dir    string
	exec   executil.Executor
	dryRun bool
}

var _ Provider = (*GitHub)(nil)

// NewGitHub creates a provider running gh in dir.
func NewGitHub(ghPath, dir string, exec executil.Executor, dryRun bool) *GitHub {
	return &GitHub{ghPath: ghPath, dir: dir, exec: exec, dryRun: dryRun}
}

func (g *GitHub) FindByBranch(ctx context.Context, branch string) (Request, error) {
	out, err := g.exec.RunDir(ctx, g.dir, g.ghPath, "pr", "view", branch, "--json", "number,url,state,isDraft")
	if err != nil {
		// gh exits non-zero when no pull request matches the branch.
		if strings.Contains(strings.ToLower(string(out)), "no pull requests found") {
			return Request{}, ErrNotFound
		}
		return Request{}, fmt.Errorf("gh pr view %s: %w", branch, err)
	}

	var req Request
	if err := json.Unmarshal(out, &req); err != nil {
		return Request{}, fmt.Errorf("decode gh pr view: %w", err)
	}
	if req.Number == 0 {
		return Request{}, ErrNotFound
	}
	return req, nil
}

func (g *GitHub) Create(ctx context.Context, opts CreateOptions) (Request, bool, error) {
	existing, err := g.FindByBranch(ctx, opts.Head)
	if err == nil {
		return existing, false, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return Request{}, false, err
	}

	args := []string{"pr", "create", "--base", opts.Base, "--head", opts.Head, "--title", opts.Title, "--body", opts.Body}
	if g.dryRun {
		l := logging.Component("review")
		l.Info().Ctx(ctx).Str("head", opts.Head).Msg("dry run: skipping gh pr create")
		return Request{Status: StatusOpen}, false, nil
	}

	out, err := g.exec.RunDir(ctx, g.dir, g.ghPath, args...)
	if err != nil {
		return Request{}, false, fmt.Errorf("gh pr create: %s: %w", strings.TrimSpace(string(out)), err)
	}

	url := lastLine(string(out))
	return Request{URL: url, Number: numberFromURL(url), Status: StatusOpen}, true, nil
}

func (g *GitHub) Status(ctx context.Context, number int) (Status, error) {
	out, err := g.exec.RunDir(ctx, g.dir, g.ghPath, "pr", "view", strconv.Itoa(number), "--json", "state")
	if err != nil {
		return "", fmt.Errorf("gh pr view %d: %w", number, err)
	}

	var resp struct {
		State Status `json:"state"`
	}
	if err := json.Unmarshal(out, &resp); err != nil {
		return "", fmt.Errorf("decode gh pr view: %w", err)
	}
	return resp.State, nil
}

// numberFromURL extracts 42 from https://github.com/o/r/pull/42.
func numberFromURL(url string) int {
	idx := strings.LastIndex(url, "/")
	if idx < 0 {
		return 0
	}
	n, err := strconv.Atoi(strings.TrimSpace(url[idx+1:]))
	if err != nil {
		return 0
	}
	return n
}

func lastLine(s string) string {
	lines := strings.Split(strings.TrimSpace(s), "\n")
	return strings.TrimSpace(lines[len(lines)-1])
}
