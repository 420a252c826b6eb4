package commands

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/urfave/cli/v3"

	"github.com/colonyops/wreckit/internal/store/jsonfile"
	"github.com/colonyops/wreckit/internal/wreckit"
	"github.com/colonyops/wreckit/pkg/iojson"
)

type StatusCmd struct {
	flags *Flags
	app   *wreckit.App

	jsonOutput bool
	watch      bool
}

func NewStatusCmd(flags *Flags, app *wreckit.App) *StatusCmd {
	return &StatusCmd{flags: flags, app: app}
}

func (cmd *StatusCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands, &cli.Command{
		Name:      "status",
		Usage:     "Show how many items are in each state",
		UsageText: "wreckit status [--json] [--watch]",
		Description: `Prints a count of items per state followed by a table of items that still
have work left.

Use --watch to redraw whenever an item changes on disk.`,
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:        "json",
				Usage:       "output as JSON",
				Destination: &cmd.jsonOutput,
			},
			&cli.BoolFlag{
				Name:        "watch",
				Aliases:     []string{"w"},
				Usage:       "redraw when items change",
				Destination: &cmd.watch,
			},
		},
		Action: cmd.run,
	})
	return app
}

func (cmd *StatusCmd) run(ctx context.Context, c *cli.Command) error {
	if err := ready(cmd.app); err != nil {
		return err
	}

	out := c.Root().Writer
	if err := cmd.render(ctx, out); err != nil {
		return err
	}
	if !cmd.watch {
		return nil
	}

	watcher, err := jsonfile.NewItemWatcher(cmd.app.Config.Paths().ItemsDir())
	if err != nil {
		return fmt.Errorf("watch items: %w", err)
	}
	defer func() { _ = watcher.Close() }()

	events, err := watcher.Watch(ctx, "*")
	if err != nil {
		return fmt.Errorf("watch items: %w", err)
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case _, ok := <-events:
			if !ok {
				return nil
			}
			_, _ = fmt.Fprintf(out, "\n--- %s ---\n", time.Now().Format(time.Kitchen))
			if err := cmd.render(ctx, out); err != nil {
				return err
			}
		}
	}
}

func (cmd *StatusCmd) render(ctx context.Context, out io.Writer) error {
	items, err := cmd.app.Items.List(ctx)
	if err != nil {
		return fmt.Errorf("list items: %w", err)
	}
	counts := countStates(items)
	pending := viewsOf(ctx, cmd.app.Items, wreckit.Pending(items))

	if cmd.jsonOutput {
		return iojson.WriteWith(out, os.Stderr, struct {
			Total   int          `json:"total"`
			Counts  []stateCount `json:"counts"`
			Pending []itemView   `json:"pending"`
		}{
			Total:   len(items),
			Counts:  counts,
			Pending: pending,
		})
	}

	if len(items) == 0 {
		fmt.Fprintf(os.Stderr, "No items yet. Run 'wreckit ideas' to add some\n")
		return nil
	}

	writeCounts(out, counts)
	if len(pending) > 0 {
		_, _ = fmt.Fprintln(out)
		writeItemTable(out, pending)
	}
	return nil
}
