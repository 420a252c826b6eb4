package commands

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/urfave/cli/v3"

	"github.com/colonyops/wreckit/internal/core/history"
	"github.com/colonyops/wreckit/internal/wreckit"
	"github.com/colonyops/wreckit/pkg/iojson"
)

type HistoryCmd struct {
	flags *Flags
	app   *wreckit.App

	batch      string
	limit      int
	jsonOutput bool
}

func NewHistoryCmd(flags *Flags, app *wreckit.App) *HistoryCmd {
	return &HistoryCmd{flags: flags, app: app}
}

func (cmd *HistoryCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands, &cli.Command{
		Name:          "history",
		Usage:         "Show recorded phase runs",
		UsageText:     "wreckit history [id] [--batch id] [--limit n] [--json]",
		Description:   "Lists phase runs newest first, optionally for one item or one 'wreckit all' batch.",
		ShellComplete: ItemIDCompleter(cmd.app),
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "batch",
				Usage:       "only show runs from this batch",
				Destination: &cmd.batch,
			},
			&cli.IntFlag{
				Name:        "limit",
				Aliases:     []string{"n"},
				Usage:       "maximum number of runs",
				Value:       20,
				Destination: &cmd.limit,
			},
			&cli.BoolFlag{
				Name:        "json",
				Usage:       "output as JSON lines",
				Destination: &cmd.jsonOutput,
			},
		},
		Action: cmd.run,
	})
	return app
}

func (cmd *HistoryCmd) run(ctx context.Context, c *cli.Command) error {
	if err := ready(cmd.app); err != nil {
		return err
	}

	runs, err := cmd.app.Runs.List(ctx, history.Filter{
		ItemID:  c.Args().First(),
		BatchID: cmd.batch,
		Limit:   cmd.limit,
	})
	if err != nil {
		return fmt.Errorf("list runs: %w", err)
	}

	out := c.Root().Writer
	if cmd.jsonOutput {
		for _, r := range runs {
			if err := iojson.WriteLine(out, r); err != nil {
				return fmt.Errorf("encode run: %w", err)
			}
		}
		return nil
	}

	if len(runs) == 0 {
		fmt.Fprintf(os.Stderr, "No runs recorded\n")
		return nil
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "STARTED\tITEM\tPHASE\tOUTCOME\tDURATION\tDETAIL")
	for _, r := range runs {
		detail := r.Reason
		if detail == "" {
			detail = r.Error
		}
		if r.From != r.To {
			detail = fmt.Sprintf("%s → %s", r.From.Label(), r.To.Label())
		}
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
			r.StartedAt.Local().Format("01-02 15:04:05"),
			r.ItemID,
			r.Phase,
			r.Outcome,
			r.Duration().Round(time.Second),
			detail,
		)
	}
	return w.Flush()
}
