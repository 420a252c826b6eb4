// Package config handles configuration loading and validation for wreckit.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/colonyops/wreckit/internal/core/styles"
)

// Config holds the repository-level configuration stored in .wreckit/config.yaml.
type Config struct {
	BaseBranch    string         `yaml:"base_branch"`
	BranchPrefix  string         `yaml:"branch_prefix"`
	Agent         AgentConfig    `yaml:"agent"`
	MaxIterations int            `yaml:"max_iterations"`
	Timeout       time.Duration  `yaml:"timeout"`
	Concurrency   int            `yaml:"concurrency"`
	GitPath       string         `yaml:"git_path"`
	GHPath        string         `yaml:"gh_path"`
	Review        ReviewConfig   `yaml:"review"`
	Database      DatabaseConfig `yaml:"database"`
	Theme         string         `yaml:"theme"`

	Root string `yaml:"-"` // repository root, set by caller
}

// AgentConfig describes the external worker process.
type AgentConfig struct {
	Command          string   `yaml:"command" json:"command"`
	Args             []string `yaml:"args" json:"args"`
	CompletionSignal string   `yaml:"completion_signal" json:"completion_signal"`
}

// ReviewConfig holds review-request provider settings.
type ReviewConfig struct {
	// StatusCache is how long an observed open/merged state is reused.
	StatusCache time.Duration `yaml:"status_cache"`
}

// DatabaseConfig holds SQLite connection settings.
type DatabaseConfig struct {
	MaxOpenConns int `yaml:"max_open_conns"`
	MaxIdleConns int `yaml:"max_idle_conns"`
	BusyTimeout  int `yaml:"busy_timeout"` // milliseconds
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		BaseBranch:   "main",
		BranchPrefix: "wreckit/",
		Agent: AgentConfig{
			Command:          "claude",
			Args:             []string{"--dangerously-skip-permissions", "--print"},
			CompletionSignal: "<promise>COMPLETE</promise>",
		},
		MaxIterations: 100,
		Timeout:       time.Hour,
		Concurrency:   1,
		GitPath:       "git",
		GHPath:        "gh",
		Review: ReviewConfig{
			StatusCache: 2 * time.Minute,
		},
		Database: DatabaseConfig{
			MaxOpenConns: 4,
			MaxIdleConns: 2,
			BusyTimeout:  5000,
		},
		Theme: styles.DefaultTheme,
	}
}

// legacyConfig is the JSON layout written by earlier releases.
type legacyConfig struct {
	BaseBranch     string       `json:"base_branch"`
	BranchPrefix   string       `json:"branch_prefix"`
	Agent          *AgentConfig `json:"agent"`
	MaxIterations  int          `json:"max_iterations"`
	TimeoutSeconds int          `json:"timeout_seconds"`
}

// Load reads configuration for the repository at root. When configPath is
// empty the default location under root is used. A missing file yields
// defaults; a legacy config.json is honored when no YAML file exists.
func Load(root, configPath string) (*Config, error) {
	cfg := DefaultConfig()

	paths := Paths{Root: root}
	if configPath == "" {
		configPath = paths.ConfigFile()
	}

	data, err := os.ReadFile(configPath)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("parse config file: %w", err)
		}
	case errors.Is(err, os.ErrNotExist):
		if err := loadLegacy(paths.LegacyConfigFile(), &cfg); err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("read config file: %w", err)
	}

	cfg.Root = root
	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &cfg, nil
}

func loadLegacy(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("read legacy config: %w", err)
	}

	var legacy legacyConfig
	if err := json.Unmarshal(data, &legacy); err != nil {
		return fmt.Errorf("parse legacy config: %w", err)
	}

	cfg.BaseBranch = legacy.BaseBranch
	cfg.BranchPrefix = legacy.BranchPrefix
	cfg.MaxIterations = legacy.MaxIterations
	if legacy.Agent != nil {
		cfg.Agent = *legacy.Agent
	}
	if legacy.TimeoutSeconds > 0 {
		cfg.Timeout = time.Duration(legacy.TimeoutSeconds) * time.Second
	}

	return nil
}

// applyDefaults sets default values for any unset configuration options.
func (c *Config) applyDefaults() {
	defaults := DefaultConfig()
	if c.BaseBranch == "" {
		c.BaseBranch = defaults.BaseBranch
	}
	if c.BranchPrefix == "" {
		c.BranchPrefix = defaults.BranchPrefix
	}
	if c.Agent.Command == "" {
		c.Agent.Command = defaults.Agent.Command
		if c.Agent.Args == nil {
			c.Agent.Args = defaults.Agent.Args
		}
	}
	if c.Agent.CompletionSignal == "" {
		c.Agent.CompletionSignal = defaults.Agent.CompletionSignal
	}
	if c.MaxIterations == 0 {
		c.MaxIterations = defaults.MaxIterations
	}
	if c.Timeout == 0 {
		c.Timeout = defaults.Timeout
	}
	if c.Concurrency == 0 {
		c.Concurrency = defaults.Concurrency
	}
	if c.GitPath == "" {
		c.GitPath = defaults.GitPath
	}
	if c.GHPath == "" {
		c.GHPath = defaults.GHPath
	}
	if c.Review.StatusCache == 0 {
		c.Review.StatusCache = defaults.Review.StatusCache
	}
	if c.Database.MaxOpenConns == 0 {
		c.Database.MaxOpenConns = defaults.Database.MaxOpenConns
	}
	if c.Database.MaxIdleConns == 0 {
		c.Database.MaxIdleConns = defaults.Database.MaxIdleConns
	}
	if c.Database.BusyTimeout == 0 {
		c.Database.BusyTimeout = defaults.Database.BusyTimeout
	}
	if c.Theme == "" {
		c.Theme = defaults.Theme
	}
}

// Validate checks that the configuration is structurally valid.
func (c *Config) Validate() error {
	if c.Root == "" {
		return fmt.Errorf("repository root cannot be empty")
	}
	if strings.ContainsAny(c.BaseBranch, " \t~^:") {
		return fmt.Errorf("base_branch %q is not a valid branch name", c.BaseBranch)
	}
	if strings.ContainsAny(c.BranchPrefix, " \t~^:") {
		return fmt.Errorf("branch_prefix %q contains characters not allowed in branch names", c.BranchPrefix)
	}
	if c.MaxIterations < 1 {
		return fmt.Errorf("max_iterations must be at least 1")
	}
	if c.Timeout < time.Second {
		return fmt.Errorf("timeout must be at least 1s")
	}
	if c.Concurrency < 1 {
		return fmt.Errorf("concurrency must be at least 1")
	}
	if c.Database.MaxOpenConns < 1 {
		return fmt.Errorf("database.max_open_conns must be at least 1")
	}
	if c.Database.BusyTimeout < 0 {
		return fmt.Errorf("database.busy_timeout cannot be negative")
	}
	if _, ok := styles.GetPalette(c.Theme); !ok {
		return fmt.Errorf("unknown theme %q, available: %s", c.Theme, strings.Join(styles.ThemeNames(), ", "))
	}
	return nil
}

// Paths returns the filesystem layout rooted at c.Root.
func (c *Config) Paths() Paths {
	return Paths{Root: c.Root}
}

// BranchName returns the working branch for an item id.
func (c *Config) BranchName(itemID string) string {
	return c.BranchPrefix + itemID
}

// Marshal renders c as YAML for writing a fresh config file.
func (c *Config) Marshal() ([]byte, error) {
	return yaml.Marshal(c)
}
