package commands

import (
	"context"
	"fmt"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/colonyops/wreckit/internal/core/doctor"
	"github.com/colonyops/wreckit/internal/core/styles"
	"github.com/colonyops/wreckit/internal/printer"
	"github.com/colonyops/wreckit/internal/wreckit"
	"github.com/colonyops/wreckit/pkg/iojson"
)

type DoctorCmd struct {
	flags *Flags
	app   *wreckit.App

	format string
	fix    bool
}

func NewDoctorCmd(flags *Flags, app *wreckit.App) *DoctorCmd {
	return &DoctorCmd{flags: flags, app: app}
}

func (cmd *DoctorCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands, &cli.Command{
		Name:      "doctor",
		Usage:     "Check tools, config and items for problems",
		UsageText: "wreckit doctor [--fix] [--format text|json]",
		Description: `Checks that git, gh and the agent command are installed, that the config is
valid, and that every item is readable and consistent with its files.

--fix removes stale temporary files, creates missing directories and records
state drift in the affected item's last_error. It never changes an item's state.`,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "format",
				Usage:       "output format (text, json)",
				Value:       "text",
				Destination: &cmd.format,
			},
			&cli.BoolFlag{
				Name:        "fix",
				Usage:       "repair what can be repaired before checking",
				Destination: &cmd.fix,
			},
		},
		Action: cmd.run,
	})
	return app
}

func (cmd *DoctorCmd) run(ctx context.Context, c *cli.Command) error {
	// Item checks need an opened repository; tool and config checks do not.
	checks := wreckit.DoctorChecks(cmd.flags.Config, cmd.flags.ConfigPath, nil, nil)
	if ready(cmd.app) == nil {
		checks = cmd.app.Checks(cmd.flags.ConfigPath)
	}

	var fixed []string
	if cmd.fix && !cmd.flags.DryRun {
		var err error
		if fixed, err = doctor.FixAll(ctx, checks); err != nil {
			return fmt.Errorf("fix: %w", err)
		}
	}

	results := doctor.RunAll(ctx, checks)
	tally := doctor.Count(results)

	if cmd.format == "json" {
		report := struct {
			Healthy bool            `json:"healthy"`
			Tally   doctor.Tally    `json:"summary"`
			Fixed   []string        `json:"fixed,omitempty"`
			Checks  []doctor.Result `json:"checks"`
		}{tally.Healthy(), tally, fixed, results}
		if err := iojson.WriteWith(c.Root().Writer, os.Stderr, report); err != nil {
			return err
		}
	} else {
		cmd.report(printer.Ctx(ctx), results, tally, fixed)
	}

	if !tally.Healthy() {
		return cli.Exit("", 1)
	}
	return nil
}

func statusIcon(s doctor.Status) string {
	switch s {
	case doctor.StatusPass:
		return styles.TextSuccessStyle.Render("✔")
	case doctor.StatusWarn:
		return styles.TextWarningStyle.Render("●")
	default:
		return styles.TextErrorStyle.Render("✘")
	}
}

func (cmd *DoctorCmd) report(p *printer.Printer, results []doctor.Result, tally doctor.Tally, fixed []string) {
	p.Printf("")
	p.Header("wreckit doctor")
	p.Printf("")

	if len(fixed) > 0 {
		p.Printf("%s", styles.TextForegroundBoldStyle.Render("Fixed"))
		for _, action := range fixed {
			p.Printf("  %s %s", statusIcon(doctor.StatusPass), action)
		}
		p.Printf("")
	}

	for _, r := range results {
		p.Printf("%s", styles.TextForegroundBoldStyle.Render(r.Name))
		for _, e := range r.Entries {
			line := "  " + statusIcon(e.Status) + " " + e.Label
			if e.Detail != "" {
				line += " " + styles.TextMutedStyle.Render(e.Detail)
			}
			p.Printf("%s", line)
		}
		p.Printf("")
	}

	p.Printf("%s  %s  %s",
		styles.TextSuccessStyle.Render(fmt.Sprintf("%d passed", tally.Passed)),
		styles.TextWarningStyle.Render(fmt.Sprintf("%d warnings", tally.Warned)),
		styles.TextErrorStyle.Render(fmt.Sprintf("%d failed", tally.Failed)),
	)

	if !cmd.fix && tally.Fixable > 0 {
		p.Printf("")
		p.Printf("%s", styles.TextMutedStyle.Render(fmt.Sprintf("%d issue(s) can be repaired with 'wreckit doctor --fix'", tally.Fixable)))
	}
}
