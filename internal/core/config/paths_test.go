package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPaths(t *testing.T) {
	p := Paths{Root: "/repo"}
	assert.Equal(t, "/repo/.wreckit/config.yaml", p.ConfigFile())
	assert.Equal(t, "/repo/.wreckit/items/001-a", p.ItemDir("001-a"))
	assert.Equal(t, "/repo/.wreckit/items/001-a/prd.json", p.Artifact("001-a", RequirementsFile))
	assert.Equal(t, "/repo/.wreckit/prompts/plan.md", p.Prompt("plan"))
}

func TestFindRoot(t *testing.T) {
	t.Run("prefers .wreckit", func(t *testing.T) {
		root := t.TempDir()
		require.NoError(t, os.Mkdir(filepath.Join(root, ".git"), 0o755))
		require.NoError(t, os.Mkdir(filepath.Join(root, DirName), 0o755))
		nested := filepath.Join(root, "a", "b")
		require.NoError(t, os.MkdirAll(nested, 0o755))

		got, err := FindRoot(nested)
		require.NoError(t, err)
		assert.Equal(t, root, got)
	})

	t.Run("falls back to .git", func(t *testing.T) {
		root := t.TempDir()
		require.NoError(t, os.Mkdir(filepath.Join(root, ".git"), 0o755))
		nested := filepath.Join(root, "pkg")
		require.NoError(t, os.Mkdir(nested, 0o755))

		got, err := FindRoot(nested)
		require.NoError(t, err)
		assert.Equal(t, root, got)
	})
}
