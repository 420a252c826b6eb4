package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/charmbracelet/glamour"
	"github.com/urfave/cli/v3"

	"github.com/colonyops/wreckit/internal/core/config"
	"github.com/colonyops/wreckit/internal/core/item"
	"github.com/colonyops/wreckit/internal/core/styles"
	"github.com/colonyops/wreckit/internal/wreckit"
	"github.com/colonyops/wreckit/pkg/iojson"
)

type ShowCmd struct {
	flags *Flags
	app   *wreckit.App

	jsonOutput bool
	docs       bool
	width      int
}

func NewShowCmd(flags *Flags, app *wreckit.App) *ShowCmd {
	return &ShowCmd{flags: flags, app: app}
}

func (cmd *ShowCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands, &cli.Command{
		Name:          "show",
		Usage:         "Show one item in detail",
		UsageText:     "wreckit show <id> [--docs] [--json]",
		ShellComplete: ItemIDCompleter(cmd.app),
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:        "json",
				Usage:       "output as JSON including sub-tasks",
				Destination: &cmd.jsonOutput,
			},
			&cli.BoolFlag{
				Name:        "docs",
				Aliases:     []string{"d"},
				Usage:       "render the research and plan documents",
				Destination: &cmd.docs,
			},
			&cli.IntFlag{
				Name:        "width",
				Usage:       "wrap width for rendered documents",
				Value:       100,
				Destination: &cmd.width,
			},
		},
		Action: cmd.run,
	})
	return app
}

func (cmd *ShowCmd) run(ctx context.Context, c *cli.Command) error {
	if err := ready(cmd.app); err != nil {
		return err
	}

	id := c.Args().First()
	if id == "" {
		return fmt.Errorf("item id required")
	}

	it, err := cmd.app.Items.Get(ctx, id)
	if err != nil {
		return err
	}

	doc, err := cmd.app.Items.GetRequirements(ctx, id)
	if err != nil {
		fmt.Fprintf(os.Stderr, "warning: %v\n", err)
	}

	out := c.Root().Writer
	view := viewOf(ctx, cmd.app.Items, it)

	if cmd.jsonOutput {
		var tasks []item.SubTask
		if doc != nil {
			tasks = doc.SubTasks
		}
		return iojson.WriteWith(out, os.Stderr, struct {
			itemView
			SubTasks []item.SubTask `json:"sub_tasks,omitempty"`
		}{view, tasks})
	}

	cmd.writeDetails(out, view, doc)

	if cmd.docs {
		for _, name := range []string{config.ResearchFile, config.PlanFile} {
			if err := cmd.writeDoc(ctx, out, id, name); err != nil {
				return err
			}
		}
	}
	return nil
}

func (cmd *ShowCmd) writeDetails(out io.Writer, v itemView, doc *item.RequirementsDoc) {
	_, _ = fmt.Fprintln(out, styles.HeaderStyle.Render(v.ID+": "+v.Title))
	_, _ = fmt.Fprintln(out)

	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	row := func(label, value string) {
		if value != "" {
			_, _ = fmt.Fprintf(tw, "%s\t%s\n", styles.TextMutedStyle.Render(label), value)
		}
	}
	row("State", styles.StateStyle(v.State).Render(v.State.Label()))
	row("Next", v.NextPhase)
	row("Section", v.Section)
	row("Priority", string(v.PriorityHint))
	row("Branch", v.Branch)
	row("Review", v.PRURL)
	row("Created", v.CreatedAt.Local().Format("2006-01-02 15:04"))
	row("Updated", v.UpdatedAt.Local().Format("2006-01-02 15:04"))
	_ = tw.Flush()

	if v.Overview != "" {
		_, _ = fmt.Fprintln(out)
		_, _ = fmt.Fprintln(out, strings.TrimSpace(v.Overview))
	}

	if v.LastError != "" {
		_, _ = fmt.Fprintln(out)
		_, _ = fmt.Fprintln(out, styles.TextErrorStyle.Render("Last error: "+v.LastError))
	}

	if doc == nil || len(doc.SubTasks) == 0 {
		return
	}

	_, _ = fmt.Fprintln(out)
	_, _ = fmt.Fprintln(out, styles.TextForegroundBoldStyle.Render(fmt.Sprintf("Stories (%d/%d done)", v.StoriesDone, v.StoriesTotal)))
	for _, t := range doc.SubTasks {
		icon := styles.TextMutedStyle.Render("○")
		if t.Status == item.SubTaskDone {
			icon = styles.TextSuccessStyle.Render("✔")
		}
		_, _ = fmt.Fprintf(out, "  %s %s %s\n", icon, styles.TextMutedStyle.Render(t.ID), t.Title)
	}
}

func (cmd *ShowCmd) writeDoc(ctx context.Context, out io.Writer, id, name string) error {
	data, err := cmd.app.Items.ReadArtifact(ctx, id, name)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return err
	}

	r, err := glamour.NewTermRenderer(
		glamour.WithStyles(styles.GlamourStyle()),
		glamour.WithWordWrap(max(cmd.width, 20)),
	)
	if err != nil {
		return err
	}

	rendered, err := r.Render(string(data))
	if err != nil {
		return err
	}

	_, _ = fmt.Fprintln(out)
	_, _ = fmt.Fprintln(out, styles.DividerStyle.Render(strings.Repeat("─", 40)+" "+name))
	_, _ = fmt.Fprint(out, rendered)
	return nil
}
