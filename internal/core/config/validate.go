package config

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"slices"
	"strings"

	"github.com/hay-kot/criterio"

	"github.com/colonyops/wreckit/pkg/tmpl"
)

// lookPathFunc resolves executables; tests replace it.
var lookPathFunc = exec.LookPath

// ValidationWarning is a config problem that does not stop a run.
type ValidationWarning struct {
	Category string `json:"category"`
	Item     string `json:"item,omitempty"`
	Message  string `json:"message"`
}

// ValidateDeep runs Validate and then checks the environment the config
// points at: the config file itself, the repository root, the git and agent
// executables, and every prompt override under .wreckit/prompts.
func (c *Config) ValidateDeep(configPath string) error {
	if err := c.Validate(); err != nil {
		return err
	}

	return criterio.ValidateStruct(
		checkConfigFile(configPath),
		criterio.Run("root", c.Root, isDir),
		criterio.Run("git_path", c.GitPath, onPath),
		criterio.Run("agent.command", c.Agent.Command, onPath),
		c.checkPromptOverrides(),
	)
}

// warningRule reports a warning when broken returns true.
type warningRule struct {
	category, item string
	broken         func(c *Config) bool
	message        func(c *Config) string
}

var warningRules = []warningRule{
	{
		category: "Tools", item: "gh_path",
		broken: func(c *Config) bool {
			_, err := lookPathFunc(c.GHPath)
			return err != nil
		},
		message: func(*Config) string { return "gh not found on PATH; review requests cannot be created or observed" },
	},
	{
		category: "Git", item: "branch_prefix",
		broken: func(c *Config) bool {
			return !strings.HasSuffix(c.BranchPrefix, "/") && !strings.HasSuffix(c.BranchPrefix, "-")
		},
		message: func(c *Config) string {
			return fmt.Sprintf("branch_prefix %q has no separator; branches will read %s<id>", c.BranchPrefix, c.BranchPrefix)
		},
	},
	{
		category: "Agent", item: "agent.args",
		broken: func(c *Config) bool {
			return c.Agent.Command == "claude" && !slices.Contains(c.Agent.Args, "--print")
		},
		message: func(*Config) string {
			return "claude without --print runs interactively and will not read the prompt from stdin"
		},
	},
}

// Warnings returns the non-fatal issues found in c, in a stable order.
func (c *Config) Warnings() []ValidationWarning {
	var out []ValidationWarning
	for _, r := range warningRules {
		if r.broken(c) {
			out = append(out, ValidationWarning{Category: r.category, Item: r.item, Message: r.message(c)})
		}
	}
	return out
}

// checkConfigFile accepts a missing file, since defaults apply, but rejects
// anything that exists and cannot be read as a file.
func checkConfigFile(path string) error {
	if path == "" {
		return nil
	}
	info, err := os.Stat(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
		return nil
	case err != nil:
		return criterio.NewFieldErrors("config_file", fmt.Errorf("cannot access: %w", err))
	case info.IsDir():
		return criterio.NewFieldErrors("config_file", fmt.Errorf("%s is a directory", path))
	}
	return nil
}

func onPath(bin string) error {
	if bin == "" {
		return nil
	}
	if _, err := lookPathFunc(bin); err != nil {
		return fmt.Errorf("executable not found: %s", bin)
	}
	return nil
}

func isDir(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("cannot access: %w", err)
	}
	if !info.IsDir() {
		return errors.New("not a directory")
	}
	return nil
}

// checkPromptOverrides parses every .md file in the prompts directory as a
// template. A missing directory means no overrides.
func (c *Config) checkPromptOverrides() error {
	dir := c.Paths().PromptsDir()
	files, err := filepath.Glob(filepath.Join(dir, "*.md"))
	if err != nil || len(files) == 0 {
		return nil
	}

	var errs criterio.FieldErrorsBuilder
	for _, file := range files {
		field := "prompts/" + filepath.Base(file)

		body, err := os.ReadFile(file)
		if err != nil {
			errs = errs.Append(field, fmt.Errorf("cannot read: %w", err))
			continue
		}
		if _, err := tmpl.Parse(filepath.Base(file), string(body)); err != nil {
			errs = errs.Append(field, fmt.Errorf("template error: %w", err))
		}
	}
	return errs.ToError()
}
