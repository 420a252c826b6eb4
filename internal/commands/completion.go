package commands

import (
	"context"
	"fmt"
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/colonyops/wreckit/internal/wreckit"
)

// ItemIDCompleter completes the ids of items that still have a phase to run.
// Once an argument has been given, or a flag is being typed, completion falls
// back to flags.
func ItemIDCompleter(app *wreckit.App) cli.ShellCompleteFunc {
	return func(ctx context.Context, cmd *cli.Command) {
		args := cmd.Args().Slice()
		if n := len(args); n > 0 && strings.HasPrefix(args[n-1], "-") {
			cli.DefaultCompleteWithFlags(ctx, cmd)
			return
		}
		if ready(app) != nil {
			return
		}

		items, err := app.Items.List(ctx)
		if err != nil {
			return
		}
		for _, it := range wreckit.Pending(items) {
			_, _ = fmt.Fprintln(cmd.Root().Writer, it.ID)
		}
	}
}
