package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/hay-kot/criterio"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func validConfig(t *testing.T) *Config {
	t.Helper()
	cfg := DefaultConfig()
	cfg.Root = t.TempDir()
	return &cfg
}

func stubLookPath(t *testing.T, missing ...string) {
	t.Helper()
	prev := lookPathFunc
	lookPathFunc = func(name string) (string, error) {
		for _, m := range missing {
			if m == name {
				return "", errors.New("not found")
			}
		}
		return "/usr/bin/" + name, nil
	}
	t.Cleanup(func() { lookPathFunc = prev })
}

func TestLoad_Defaults(t *testing.T) {
	root := t.TempDir()

	cfg, err := Load(root, "")
	require.NoError(t, err)

	assert.Equal(t, root, cfg.Root)
	assert.Equal(t, "main", cfg.BaseBranch)
	assert.Equal(t, "wreckit/", cfg.BranchPrefix)
	assert.Equal(t, "claude", cfg.Agent.Command)
	assert.Equal(t, []string{"--dangerously-skip-permissions", "--print"}, cfg.Agent.Args)
	assert.Equal(t, "<promise>COMPLETE</promise>", cfg.Agent.CompletionSignal)
	assert.Equal(t, 100, cfg.MaxIterations)
	assert.Equal(t, time.Hour, cfg.Timeout)
	assert.Equal(t, 1, cfg.Concurrency)
}

func TestLoad_YAMLOverrides(t *testing.T) {
	root := t.TempDir()
	writeFile(t, Paths{Root: root}.ConfigFile(), `
base_branch: develop
branch_prefix: feat/
agent:
  command: codex
  args: ["exec"]
timeout: 90s
concurrency: 3
review:
  status_cache: 10s
`)

	cfg, err := Load(root, "")
	require.NoError(t, err)

	assert.Equal(t, "develop", cfg.BaseBranch)
	assert.Equal(t, "feat/", cfg.BranchPrefix)
	assert.Equal(t, "codex", cfg.Agent.Command)
	assert.Equal(t, []string{"exec"}, cfg.Agent.Args)
	assert.Equal(t, "<promise>COMPLETE</promise>", cfg.Agent.CompletionSignal, "unset keys keep defaults")
	assert.Equal(t, 90*time.Second, cfg.Timeout)
	assert.Equal(t, 3, cfg.Concurrency)
	assert.Equal(t, 10*time.Second, cfg.Review.StatusCache)
	assert.Equal(t, 100, cfg.MaxIterations)
}

func TestLoad_LegacyJSON(t *testing.T) {
	root := t.TempDir()
	writeFile(t, Paths{Root: root}.LegacyConfigFile(), `{
  "schema_version": 1,
  "base_branch": "trunk",
  "branch_prefix": "wr/",
  "max_iterations": 5,
  "timeout_seconds": 120,
  "agent": {"command": "amp", "args": [], "completion_signal": "DONE"}
}`)

	cfg, err := Load(root, "")
	require.NoError(t, err)

	assert.Equal(t, "trunk", cfg.BaseBranch)
	assert.Equal(t, "wr/", cfg.BranchPrefix)
	assert.Equal(t, 5, cfg.MaxIterations)
	assert.Equal(t, 2*time.Minute, cfg.Timeout)
	assert.Equal(t, "amp", cfg.Agent.Command)
	assert.Equal(t, "DONE", cfg.Agent.CompletionSignal)
}

func TestLoad_InvalidYAML(t *testing.T) {
	root := t.TempDir()
	writeFile(t, Paths{Root: root}.ConfigFile(), "base_branch: [unterminated")

	_, err := Load(root, "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse config file")
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"valid", func(*Config) {}, ""},
		{"no root", func(c *Config) { c.Root = "" }, "root cannot be empty"},
		{"bad base branch", func(c *Config) { c.BaseBranch = "has space" }, "base_branch"},
		{"bad prefix", func(c *Config) { c.BranchPrefix = "a:b" }, "branch_prefix"},
		{"zero iterations", func(c *Config) { c.MaxIterations = 0 }, "max_iterations"},
		{"tiny timeout", func(c *Config) { c.Timeout = time.Millisecond }, "timeout"},
		{"zero concurrency", func(c *Config) { c.Concurrency = 0 }, "concurrency"},
		{"unknown theme", func(c *Config) { c.Theme = "neon" }, "unknown theme"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig(t)
			tt.mutate(cfg)

			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestValidateDeep_Valid(t *testing.T) {
	stubLookPath(t)
	cfg := validConfig(t)
	assert.NoError(t, cfg.ValidateDeep(""))
}

func TestValidateDeep_MissingAgent(t *testing.T) {
	stubLookPath(t, "claude")
	cfg := validConfig(t)

	err := cfg.ValidateDeep("")

	var fieldErrs criterio.FieldErrors
	require.ErrorAs(t, err, &fieldErrs)
	require.Len(t, fieldErrs, 1)
	assert.Equal(t, "agent.command", fieldErrs[0].Field)
	assert.Contains(t, fieldErrs[0].Err.Error(), "executable not found")
}

func TestValidateDeep_BadPromptOverride(t *testing.T) {
	stubLookPath(t)
	cfg := validConfig(t)
	writeFile(t, cfg.Paths().Prompt("research"), "{{ .Title }")
	writeFile(t, cfg.Paths().Prompt("plan"), "{{ .Title }}")

	err := cfg.ValidateDeep("")

	var fieldErrs criterio.FieldErrors
	require.ErrorAs(t, err, &fieldErrs)
	require.Len(t, fieldErrs, 1)
	assert.Equal(t, "prompts/research.md", fieldErrs[0].Field)
	assert.Contains(t, fieldErrs[0].Err.Error(), "template error")
}

func TestValidateDeep_ConfigPathIsDir(t *testing.T) {
	stubLookPath(t)
	cfg := validConfig(t)

	err := cfg.ValidateDeep(cfg.Root)

	var fieldErrs criterio.FieldErrors
	require.ErrorAs(t, err, &fieldErrs)
	assert.Equal(t, "config_file", fieldErrs[0].Field)
}

func TestWarnings(t *testing.T) {
	stubLookPath(t, "gh")
	cfg := validConfig(t)
	cfg.BranchPrefix = "wreckit"
	cfg.Agent.Args = nil

	warnings := cfg.Warnings()
	require.Len(t, warnings, 3)
	assert.Equal(t, "gh_path", warnings[0].Item)
	assert.Equal(t, "branch_prefix", warnings[1].Item)
	assert.Equal(t, "agent.args", warnings[2].Item)
}

func TestBranchName(t *testing.T) {
	cfg := validConfig(t)
	assert.Equal(t, "wreckit/001-dark-mode", cfg.BranchName("001-dark-mode"))
}
