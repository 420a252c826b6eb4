package doctor

import (
	"context"
	"fmt"
	"os/exec"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func stubLookPath(t *testing.T, missing ...string) {
	t.Helper()
	orig := lookPathFunc
	t.Cleanup(func() { lookPathFunc = orig })

	lookPathFunc = func(file string) (string, error) {
		for _, m := range missing {
			if file == m {
				return "", &exec.Error{Name: file, Err: fmt.Errorf("not found")}
			}
		}
		return "/usr/bin/" + file, nil
	}
}

func TestToolsCheck_AllPresent(t *testing.T) {
	stubLookPath(t)

	result := NewToolsCheck("git", "gh", "claude").Run(context.Background())

	assert.Equal(t, "Tools", result.Name)
	require.Len(t, result.Entries, 3)
	for _, item := range result.Entries {
		assert.Equal(t, StatusPass, item.Status, item.Label)
	}
	assert.Equal(t, "/usr/bin/claude", result.Entries[1].Detail)
}

func TestToolsCheck_GitMissing(t *testing.T) {
	stubLookPath(t, "git")

	result := NewToolsCheck("git", "gh", "claude").Run(context.Background())

	require.Len(t, result.Entries, 3)
	assert.Equal(t, "git", result.Entries[0].Label)
	assert.Equal(t, StatusFail, result.Entries[0].Status)
}

func TestToolsCheck_GHMissingIsWarning(t *testing.T) {
	stubLookPath(t, "gh")

	result := NewToolsCheck("git", "gh", "claude").Run(context.Background())

	assert.Equal(t, StatusWarn, result.Entries[2].Status)
	assert.Contains(t, result.Entries[2].Detail, "not found on PATH")
}

func TestToolsCheck_AgentNotConfigured(t *testing.T) {
	stubLookPath(t)

	result := NewToolsCheck("git", "gh", "").Run(context.Background())

	assert.Equal(t, StatusFail, result.Entries[1].Status)
	assert.Equal(t, "not configured", result.Entries[1].Detail)
}
