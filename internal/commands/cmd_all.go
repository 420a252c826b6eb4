package commands

import (
	"context"
	"errors"

	"github.com/urfave/cli/v3"

	"github.com/colonyops/wreckit/internal/printer"
	"github.com/colonyops/wreckit/internal/wreckit"
)

type AllCmd struct {
	flags *Flags
	app   *wreckit.App

	concurrency   int
	maxIterations int
	match         string
	jsonOutput    bool
}

func NewAllCmd(flags *Flags, app *wreckit.App) *AllCmd {
	return &AllCmd{flags: flags, app: app}
}

func (cmd *AllCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands, &cli.Command{
		Name:      "all",
		Usage:     "Drive every pending item toward done",
		UsageText: "wreckit all [--concurrency n] [--match glob]",
		Description: `Runs each pending item through its remaining phases, highest priority first.
Up to --concurrency items run at once; an item that fails is not retried in
the same invocation.

Prints which items completed, which failed and which still have work left.`,
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:        "concurrency",
				Aliases:     []string{"j"},
				Usage:       "items driven at once (defaults to concurrency from config)",
				Destination: &cmd.concurrency,
			},
			maxIterationsFlag(&cmd.maxIterations),
			matchFlag(&cmd.match),
			&cli.BoolFlag{
				Name:        "json",
				Usage:       "output the summary as JSON",
				Destination: &cmd.jsonOutput,
			},
		},
		Action: cmd.run,
	})
	return app
}

func (cmd *AllCmd) run(ctx context.Context, c *cli.Command) error {
	if err := ready(cmd.app); err != nil {
		return err
	}

	res, err := cmd.app.Orchestrator.OrchestrateAll(ctx, wreckit.Options{
		Concurrency:   cmd.concurrency,
		MaxIterations: cmd.maxIterations,
		Match:         cmd.match,
	})
	if err != nil && !errors.Is(err, context.Canceled) {
		if cmd.jsonOutput {
			return writeJSONResult(c, res, err)
		}
		return err
	}

	if cmd.jsonOutput {
		if werr := writeJSONResult(c, res, nil); werr != nil {
			return werr
		}
	} else {
		printBatch(printer.Ctx(ctx), res)
	}

	switch {
	case err != nil:
		return err
	case len(res.Failed) > 0:
		return cli.Exit("", 1)
	}
	return nil
}

func printBatch(p *printer.Printer, res wreckit.BatchResult) {
	p.Header("Batch " + res.BatchID)
	for _, id := range res.Completed {
		p.Successf("%s done", id)
	}
	for _, f := range res.Failed {
		p.Errorf("%s: %s", f.ID, f.Error)
	}
	for _, id := range res.Remaining {
		p.Infof("%s has work left", id)
	}
	p.Printf("")
	p.Printf("%d completed, %d failed, %d remaining", len(res.Completed), len(res.Failed), len(res.Remaining))
}
