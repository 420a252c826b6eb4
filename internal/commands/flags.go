package commands

import (
	"github.com/colonyops/wreckit/internal/core/config"
	"github.com/colonyops/wreckit/internal/wreckit"
)

type Flags struct {
	LogLevel   string
	LogFile    string
	ConfigPath string
	Cwd        string
	DryRun     bool

	// Root is the repository root resolved from Cwd in the Before hook.
	Root string

	// Config is loaded in the Before hook and available to all commands
	Config *config.Config
}

// ready returns wreckit.ErrNotInitialized when the Before hook could not open
// the repository's .wreckit directory.
func ready(app *wreckit.App) error {
	if app == nil || app.Orchestrator == nil {
		return wreckit.ErrNotInitialized
	}
	return nil
}
