package commands

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/urfave/cli/v3"

	"github.com/colonyops/wreckit/internal/core/item"
	"github.com/colonyops/wreckit/internal/core/styles"
	"github.com/colonyops/wreckit/internal/core/validate"
	"github.com/colonyops/wreckit/internal/printer"
	"github.com/colonyops/wreckit/internal/wreckit"
	"github.com/colonyops/wreckit/pkg/iojson"
)

type IdeasCmd struct {
	flags *Flags
	app   *wreckit.App

	input      iojson.FileReader[wreckit.IdeasFile]
	jsonOutput bool
}

func NewIdeasCmd(flags *Flags, app *wreckit.App) *IdeasCmd {
	return &IdeasCmd{flags: flags, app: app}
}

func (cmd *IdeasCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands, &cli.Command{
		Name:      "ideas",
		Usage:     "Add new items from a list of ideas",
		UsageText: "wreckit ideas [-f ideas.json]",
		Description: `Creates one item in the idea state per entry.

Input is a JSON or YAML document of the form:

  {"ideas": [{"title": "Add dark mode", "overview": "...", "priority_hint": "high"}]}

read from --file or stdin. When stdin is a terminal an interactive form asks
for a single idea instead.`,
		Flags: []cli.Flag{
			cmd.input.Flag(),
			&cli.BoolFlag{
				Name:        "json",
				Usage:       "print created items as JSON",
				Destination: &cmd.jsonOutput,
			},
		},
		Action: cmd.run,
	})
	return app
}

func (cmd *IdeasCmd) run(ctx context.Context, c *cli.Command) error {
	if err := ready(cmd.app); err != nil {
		return err
	}
	p := printer.Ctx(ctx)

	var file wreckit.IdeasFile
	if cmd.input.HasInput() {
		var err error
		file, err = cmd.input.Read()
		if err != nil {
			return fmt.Errorf("read ideas: %w", err)
		}
	} else {
		idea, err := cmd.runForm()
		if err != nil {
			if errors.Is(err, huh.ErrUserAborted) {
				return nil
			}
			return fmt.Errorf("form: %w", err)
		}
		file.Ideas = []wreckit.Idea{idea}
	}

	if cmd.app.DryRun {
		if err := file.Validate(); err != nil {
			return err
		}
		for _, idea := range file.Ideas {
			p.Infof("would add %q", idea.Title)
		}
		return nil
	}

	created, err := wreckit.Ingest(ctx, cmd.app.Items, file.Ideas)
	if cmd.jsonOutput {
		if werr := iojson.WriteWith(c.Root().Writer, os.Stderr, created); werr != nil {
			return werr
		}
	} else {
		for _, it := range created {
			p.Success("Added "+it.ID, it.Title)
		}
	}
	if err != nil {
		return fmt.Errorf("add ideas: %w", err)
	}
	return nil
}

func (cmd *IdeasCmd) runForm() (wreckit.Idea, error) {
	var (
		idea     wreckit.Idea
		priority string
		criteria string
	)

	err := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Title").
				Description("Short name for the change").
				Validate(validate.Title).
				Value(&idea.Title),
			huh.NewText().
				Title("Overview").
				Description("What should change and why").
				Value(&idea.Overview),
			huh.NewText().
				Title("Success criteria").
				Description("One per line").
				Value(&criteria),
			huh.NewSelect[string]().
				Title("Priority").
				Options(
					huh.NewOption("none", ""),
					huh.NewOption("low", string(item.PriorityLow)),
					huh.NewOption("medium", string(item.PriorityMedium)),
					huh.NewOption("high", string(item.PriorityHigh)),
					huh.NewOption("critical", string(item.PriorityCritical)),
				).
				Value(&priority),
		),
	).WithTheme(styles.FormTheme()).Run()
	if err != nil {
		return idea, err
	}

	idea.PriorityHint = item.PriorityHint(priority)
	idea.SuccessCriteria = splitLines(criteria)
	return idea, nil
}

func splitLines(s string) []string {
	var out []string
	for _, line := range strings.Split(s, "\n") {
		line = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(line), "-"))
		if line != "" {
			out = append(out, line)
		}
	}
	return out
}
