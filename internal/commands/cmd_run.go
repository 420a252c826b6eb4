package commands

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/colonyops/wreckit/internal/core/workflow"
	"github.com/colonyops/wreckit/internal/printer"
	"github.com/colonyops/wreckit/internal/wreckit"
	"github.com/colonyops/wreckit/pkg/iojson"
)

var phaseUsage = map[wreckit.Phase]string{
	wreckit.PhaseResearch:  "Research an idea and write research.md",
	wreckit.PhasePlan:      "Write plan.md and the prd.json user stories",
	wreckit.PhaseImplement: "Create the item's branch and start implementation",
	wreckit.PhaseReview:    "Implement pending stories and open a pull request",
	wreckit.PhaseComplete:  "Mark the item done once its pull request is merged",
}

// PhaseCmd runs exactly one named phase on an item.
type PhaseCmd struct {
	flags *Flags
	app   *wreckit.App
	phase wreckit.Phase

	force      bool
	jsonOutput bool
}

func NewPhaseCmd(flags *Flags, app *wreckit.App, phase wreckit.Phase) *PhaseCmd {
	return &PhaseCmd{flags: flags, app: app, phase: phase}
}

func (cmd *PhaseCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands, &cli.Command{
		Name:      cmd.phase.String(),
		Usage:     phaseUsage[cmd.phase],
		UsageText: fmt.Sprintf("wreckit %s <id> [--force]", cmd.phase),
		Description: fmt.Sprintf(`Runs the %s phase on one item. The item's next phase must be %s.

The worker is skipped when the item's files already satisfy the phase; use
--force to run it anyway.`, cmd.phase, cmd.phase),
		ShellComplete: ItemIDCompleter(cmd.app),
		Flags:         runFlags(&cmd.force, &cmd.jsonOutput),
		Action:        cmd.run,
	})
	return app
}

func (cmd *PhaseCmd) run(ctx context.Context, c *cli.Command) error {
	if err := ready(cmd.app); err != nil {
		return err
	}
	id := c.Args().First()
	if id == "" {
		return fmt.Errorf("item id required")
	}

	res, err := cmd.app.Orchestrator.RunPhase(ctx, id, wreckit.Options{Force: cmd.force, Phase: cmd.phase})
	if cmd.jsonOutput {
		return writeJSONResult(c, res, err)
	}
	if err != nil {
		return explain(err)
	}
	printResult(printer.Ctx(ctx), res)
	return nil
}

// RunCmd drives one item until it is done or stops.
type RunCmd struct {
	flags *Flags
	app   *wreckit.App

	force         bool
	jsonOutput    bool
	maxIterations int
}

// NewRunCmd creates a new run command
func NewRunCmd(flags *Flags, app *wreckit.App) *RunCmd {
	return &RunCmd{flags: flags, app: app}
}

// Register adds the run command to the application
func (cmd *RunCmd) Register(app *cli.Command) *cli.Command {
	flags := runFlags(&cmd.force, &cmd.jsonOutput)
	flags = append(flags, maxIterationsFlag(&cmd.maxIterations))

	app.Commands = append(app.Commands, &cli.Command{
		Name:      "run",
		Usage:     "Run an item through every remaining phase",
		UsageText: "wreckit run <id> [options]",
		Description: `Runs phases on one item in order until it is done, a phase is rejected or
fails, or the iteration budget is used up.

--force only applies to the first phase.`,
		ShellComplete: ItemIDCompleter(cmd.app),
		Flags:         flags,
		Action:        cmd.run,
	})

	return app
}

func (cmd *RunCmd) run(ctx context.Context, c *cli.Command) error {
	if err := ready(cmd.app); err != nil {
		return err
	}
	id := c.Args().First()
	if id == "" {
		return fmt.Errorf("item id required")
	}

	results, err := cmd.app.Orchestrator.RunItem(ctx, id, wreckit.Options{
		Force:         cmd.force,
		MaxIterations: cmd.maxIterations,
	})
	if cmd.jsonOutput {
		return writeJSONResult(c, results, err)
	}

	p := printer.Ctx(ctx)
	for _, res := range results {
		printResult(p, res)
	}
	if len(results) == 0 && err == nil {
		p.Infof("%s is already done", id)
	}
	if errors.Is(err, wreckit.ErrIterationBudgetExceeded) {
		p.Warnf("%s: stopped after %d phase runs; run again to continue", id, len(results))
		return nil
	}
	if err != nil {
		return explain(err)
	}
	return nil
}

// NextCmd runs one phase on the highest-priority pending item.
type NextCmd struct {
	flags *Flags
	app   *wreckit.App

	match      string
	jsonOutput bool
}

func NewNextCmd(flags *Flags, app *wreckit.App) *NextCmd {
	return &NextCmd{flags: flags, app: app}
}

func (cmd *NextCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands, &cli.Command{
		Name:      "next",
		Usage:     "Run one phase on the highest-priority pending item",
		UsageText: "wreckit next [--match glob]",
		Description: `Picks the pending item with the highest priority hint (oldest first on ties)
and runs its next phase once.`,
		Flags: []cli.Flag{
			matchFlag(&cmd.match),
			&cli.BoolFlag{
				Name:        "json",
				Usage:       "output as JSON",
				Destination: &cmd.jsonOutput,
			},
		},
		Action: cmd.run,
	})
	return app
}

func (cmd *NextCmd) run(ctx context.Context, c *cli.Command) error {
	if err := ready(cmd.app); err != nil {
		return err
	}

	next, err := cmd.app.Orchestrator.OrchestrateNext(ctx, wreckit.Options{Match: cmd.match})
	if cmd.jsonOutput {
		return writeJSONResult(c, next, err)
	}
	if err != nil {
		return explain(err)
	}

	p := printer.Ctx(ctx)
	if !next.Selected {
		p.Infof("Nothing to do: every item is done")
		return nil
	}
	printResult(p, next.Result)
	return nil
}

func runFlags(force, jsonOutput *bool) []cli.Flag {
	return []cli.Flag{
		&cli.BoolFlag{
			Name:        "force",
			Aliases:     []string{"f"},
			Usage:       "run the worker even if existing files satisfy the phase",
			Destination: force,
		},
		&cli.BoolFlag{
			Name:        "json",
			Usage:       "output as JSON",
			Destination: jsonOutput,
		},
	}
}

func maxIterationsFlag(dst *int) cli.Flag {
	return &cli.IntFlag{
		Name:        "max-iterations",
		Usage:       "phase runs allowed per item (defaults to max_iterations from config)",
		Destination: dst,
	}
}

func matchFlag(dst *string) cli.Flag {
	return &cli.StringFlag{
		Name:        "match",
		Aliases:     []string{"m"},
		Usage:       "only consider items whose id matches this glob",
		Destination: dst,
	}
}

func printResult(p *printer.Printer, res wreckit.PhaseResult) {
	detail := res.Phase.String()
	if res.WorkerSkipped {
		detail += ", worker skipped"
	}
	if !res.Advanced {
		p.Infof("%s: %s (%s, not advanced)", res.ItemID, res.From.Label(), detail)
		return
	}
	p.Success(fmt.Sprintf("%s: %s → %s", res.ItemID, res.From.Label(), res.To.Label()), detail)
	if res.Item.PRURL != "" && res.To != res.From && res.Phase == wreckit.PhaseReview {
		p.Printf("  %s", res.Item.PRURL)
	}
}

// explain adds a hint to errors a user can act on.
func explain(err error) error {
	var werr *wreckit.WorkerError
	switch {
	case errors.Is(err, workflow.ErrAlreadyTerminal):
		return err
	case workflow.IsRejection(err):
		return fmt.Errorf("%w (the phase did not produce what it needs; re-run or use --force)", err)
	case errors.As(err, &werr) && werr.TimedOut:
		return fmt.Errorf("%w (raise timeout in .wreckit/config.yaml if the agent needs longer)", err)
	case errors.Is(err, wreckit.ErrPhaseMismatch):
		return fmt.Errorf("%w (run 'wreckit show <id>' to see the next phase)", err)
	}
	return err
}

// writeJSONResult writes v, or an iojson error payload when err is set.
func writeJSONResult(c *cli.Command, v any, err error) error {
	if err != nil {
		data := map[string]any{"result": v}
		if reason, ok := workflow.ReasonOf(err); ok {
			data["reason"] = string(reason)
		}
		_ = iojson.WriteErrorTo(c.Root().Writer, err.Error(), data)
		return cli.Exit("", 1)
	}
	return iojson.WriteWith(c.Root().Writer, os.Stderr, v)
}
