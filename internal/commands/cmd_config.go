package commands

import (
	"context"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/colonyops/wreckit/internal/core/config"
	"github.com/colonyops/wreckit/internal/printer"
	"github.com/colonyops/wreckit/pkg/iojson"
)

// ConfigCmd groups configuration subcommands.
type ConfigCmd struct {
	flags  *Flags
	format string
}

func NewConfigCmd(flags *Flags) *ConfigCmd {
	return &ConfigCmd{flags: flags}
}

func (cmd *ConfigCmd) Register(app *cli.Command) *cli.Command {
	validate := &cli.Command{
		Name:      "validate",
		Usage:     "Check .wreckit/config.yaml",
		UsageText: "wreckit config validate [--format text|json]",
		Description: `Validates the config file, looks up the git, gh and agent executables on
PATH, and parses every prompt override so template errors surface before a run.`,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "format",
				Usage:       "output format (text, json)",
				Value:       "text",
				Destination: &cmd.format,
			},
		},
		Action: cmd.validate,
	}

	app.Commands = append(app.Commands, &cli.Command{
		Name:     "config",
		Usage:    "Inspect configuration",
		Commands: []*cli.Command{validate},
	})
	return app
}

type configReport struct {
	Valid    bool                       `json:"valid"`
	Path     string                     `json:"path"`
	Error    string                     `json:"error,omitempty"`
	Warnings []config.ValidationWarning `json:"warnings,omitempty"`
}

func (cmd *ConfigCmd) validate(ctx context.Context, c *cli.Command) error {
	cfg := cmd.flags.Config
	report := configReport{Path: cmd.flags.ConfigPath, Warnings: cfg.Warnings()}

	verr := cfg.ValidateDeep(cmd.flags.ConfigPath)
	report.Valid = verr == nil
	if verr != nil {
		report.Error = verr.Error()
	}

	if cmd.format == "json" {
		if err := iojson.WriteWith(c.Root().Writer, os.Stderr, report); err != nil {
			return err
		}
	} else {
		p := printer.Ctx(ctx)
		for _, w := range report.Warnings {
			if w.Item != "" {
				p.Warnf("%s: %s (%s)", w.Category, w.Message, w.Item)
				continue
			}
			p.Warnf("%s: %s", w.Category, w.Message)
		}
		if report.Valid {
			p.Success("config is valid", report.Path)
		} else {
			p.Errorf("%s", report.Error)
		}
	}

	if !report.Valid {
		return cli.Exit("", 1)
	}
	return nil
}
