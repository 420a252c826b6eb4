package commands

import (
	"context"
	"fmt"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/colonyops/wreckit/internal/core/item"
	"github.com/colonyops/wreckit/internal/core/state"
	"github.com/colonyops/wreckit/internal/wreckit"
	"github.com/colonyops/wreckit/pkg/iojson"
)

type ListCmd struct {
	flags *Flags
	app   *wreckit.App

	jsonOutput bool
	state      string
	match      string
}

// NewListCmd creates a new list command
func NewListCmd(flags *Flags, app *wreckit.App) *ListCmd {
	return &ListCmd{flags: flags, app: app}
}

// Register adds the list command to the application
func (cmd *ListCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands, &cli.Command{
		Name:      "list",
		Aliases:   []string{"ls"},
		Usage:     "List items",
		UsageText: "wreckit list [--state s] [--match glob] [--json]",
		Description: `Displays every item sorted by id.

--state keeps items in one state (idea, researched, planned, implementing,
in_pr, done). --match keeps items whose id matches a glob such as '01*'.`,
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:        "json",
				Usage:       "output as JSON lines",
				Destination: &cmd.jsonOutput,
			},
			&cli.StringFlag{
				Name:        "state",
				Usage:       "only show items in this state",
				Destination: &cmd.state,
			},
			&cli.StringFlag{
				Name:        "match",
				Aliases:     []string{"m"},
				Usage:       "only show items whose id matches this glob",
				Destination: &cmd.match,
			},
		},
		Action: cmd.run,
	})

	return app
}

func (cmd *ListCmd) run(ctx context.Context, c *cli.Command) error {
	if err := ready(cmd.app); err != nil {
		return err
	}

	items, err := cmd.app.Items.List(ctx)
	if err != nil {
		return fmt.Errorf("list items: %w", err)
	}

	items, err = filterItems(items, cmd.state, cmd.match)
	if err != nil {
		return err
	}

	out := c.Root().Writer
	views := viewsOf(ctx, cmd.app.Items, items)

	if cmd.jsonOutput {
		for _, v := range views {
			if err := iojson.WriteLine(out, v); err != nil {
				return fmt.Errorf("encode item: %w", err)
			}
		}
		return nil
	}

	if len(views) == 0 {
		fmt.Fprintf(os.Stderr, "No items found\n")
		return nil
	}

	writeItemTable(out, views)
	return nil
}

// filterItems keeps items in stateName (when set) whose ids match pattern.
func filterItems(items []item.Item, stateName, pattern string) ([]item.Item, error) {
	var want state.State
	if stateName != "" {
		s, err := state.Parse(stateName)
		if err != nil {
			return nil, err
		}
		want = s
	}

	out := make([]item.Item, 0, len(items))
	for _, it := range items {
		if want != "" && it.State != want {
			continue
		}
		ok, err := wreckit.MatchID(pattern, it.ID)
		if err != nil {
			return nil, fmt.Errorf("invalid --match pattern: %w", err)
		}
		if ok {
			out = append(out, it)
		}
	}
	return out, nil
}
