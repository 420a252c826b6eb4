package review

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/colonyops/wreckit/pkg/executil"
)

func TestGitHub_FindByBranch(t *testing.T) {
	rec := &executil.RecordingExecutor{
		Outputs: map[string][]byte{
			"gh pr": []byte(`{"number":12,"url":"https://github.com/o/r/pull/12","state":"OPEN","isDraft":false}`),
		},
	}
	gh := NewGitHub("gh", "/repo", rec, false)

	req, err := gh.FindByBranch(context.Background(), "wreckit/001-a")
	require.NoError(t, err)
	assert.Equal(t, 12, req.Number)
	assert.Equal(t, StatusOpen, req.Status)
	assert.False(t, req.Merged())
	assert.Equal(t, []string{"gh pr view wreckit/001-a --json number,url,state,isDraft"}, rec.Lines())
}

func TestGitHub_FindByBranch_NotFound(t *testing.T) {
	rec := &executil.RecordingExecutor{
		Outputs: map[string][]byte{"gh pr": []byte(`no pull requests found for branch "x"`)},
		Errors:  map[string]error{"gh pr": errors.New("exit status 1")},
	}
	gh := NewGitHub("gh", "/repo", rec, false)

	_, err := gh.FindByBranch(context.Background(), "x")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestGitHub_FindByBranch_OtherError(t *testing.T) {
	rec := &executil.RecordingExecutor{
		Outputs: map[string][]byte{"gh pr": []byte(`HTTP 401: Bad credentials`)},
		Errors:  map[string]error{"gh pr": errors.New("exit status 1")},
	}
	gh := NewGitHub("gh", "/repo", rec, false)

	_, err := gh.FindByBranch(context.Background(), "x")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrNotFound)
}

// createExecutor fails "gh pr view" with not-found and answers "gh pr create".
type createExecutor struct {
	executil.RecordingExecutor
}

func (e *createExecutor) RunDir(ctx context.Context, dir, cmd string, args ...string) ([]byte, error) {
	_, _ = e.RecordingExecutor.RunDir(ctx, dir, cmd, args...)
	if len(args) > 1 && args[1] == "view" {
		return []byte("no pull requests found"), errors.New("exit status 1")
	}
	return []byte("Creating pull request...\nhttps://github.com/o/r/pull/42\n"), nil
}

func TestGitHub_CreateNew(t *testing.T) {
	exec := &createExecutor{}
	gh := NewGitHub("gh", "/repo", exec, false)

	req, created, err := gh.Create(context.Background(), CreateOptions{
		Base: "main", Head: "wreckit/001-a", Title: "Dark mode", Body: "body",
	})
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, 42, req.Number)
	assert.Equal(t, "https://github.com/o/r/pull/42", req.URL)
	assert.Contains(t, exec.Lines(), "gh pr create --base main --head wreckit/001-a --title Dark mode --body body")
}

func TestGitHub_CreateDryRun(t *testing.T) {
	exec := &createExecutor{}
	gh := NewGitHub("gh", "/repo", exec, true)

	req, created, err := gh.Create(context.Background(), CreateOptions{Base: "main", Head: "wreckit/001-a"})
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, StatusOpen, req.Status)
	assert.Equal(t, []string{"gh pr view wreckit/001-a --json number,url,state,isDraft"}, exec.Lines())
}

func TestGitHub_CreateReusesExisting(t *testing.T) {
	rec := &executil.RecordingExecutor{
		Outputs: map[string][]byte{"gh pr": []byte(`{"number":7,"url":"u","state":"OPEN"}`)},
	}
	gh := NewGitHub("gh", "/repo", rec, false)

	req, created, err := gh.Create(context.Background(), CreateOptions{Base: "main", Head: "b"})
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, 7, req.Number)
	assert.Len(t, rec.Commands, 1)
}

func TestGitHub_Status(t *testing.T) {
	rec := &executil.RecordingExecutor{
		Outputs: map[string][]byte{"gh pr": []byte(`{"state":"MERGED"}`)},
	}
	gh := NewGitHub("gh", "/repo", rec, false)

	st, err := gh.Status(context.Background(), 7)
	require.NoError(t, err)
	assert.Equal(t, StatusMerged, st)
	assert.Equal(t, []string{"gh pr view 7 --json state"}, rec.Lines())
}

func TestNumberFromURL(t *testing.T) {
	assert.Equal(t, 42, numberFromURL("https://github.com/o/r/pull/42"))
	assert.Equal(t, 0, numberFromURL("https://github.com/o/r/pull/"))
	assert.Equal(t, 0, numberFromURL("nope"))
}
