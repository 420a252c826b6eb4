package commands

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/charmbracelet/huh"
	"github.com/urfave/cli/v3"

	"github.com/colonyops/wreckit/internal/core/config"
	"github.com/colonyops/wreckit/internal/core/git"
	"github.com/colonyops/wreckit/internal/core/styles"
	"github.com/colonyops/wreckit/internal/printer"
	"github.com/colonyops/wreckit/internal/prompts"
	"github.com/colonyops/wreckit/pkg/executil"
)

type InitCmd struct {
	flags      *Flags
	force      bool
	baseBranch string
}

func NewInitCmd(flags *Flags) *InitCmd {
	return &InitCmd{flags: flags}
}

func (cmd *InitCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands, &cli.Command{
		Name:      "init",
		Usage:     "Set up .wreckit in the current repository",
		UsageText: "wreckit init [options]",
		Description: `Creates .wreckit/ at the repository root with:
  - config.yaml with sensible defaults
  - items/ for tracked work
  - prompts/ holding editable copies of the bundled prompt templates

When a config already exists you are asked before it is overwritten.
Use --force to overwrite config and prompts without asking.`,
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:        "force",
				Aliases:     []string{"f"},
				Usage:       "overwrite existing configuration and prompts",
				Destination: &cmd.force,
			},
			&cli.StringFlag{
				Name:        "base-branch",
				Usage:       "branch review requests target (defaults to the current branch)",
				Destination: &cmd.baseBranch,
			},
		},
		Action: cmd.run,
	})
	return app
}

func (cmd *InitCmd) run(ctx context.Context, c *cli.Command) error {
	p := printer.Ctx(ctx)

	root := cmd.flags.Root
	cfg := config.DefaultConfig()
	cfg.Root = root
	paths := cfg.Paths()

	g := git.NewExecutor(cfg.GitPath, root, &executil.RealExecutor{}, false)
	if root == "" || !g.IsRepo(ctx) {
		return fmt.Errorf("%w: run 'git init' first", config.ErrRepoNotFound)
	}

	if _, err := os.Stat(paths.ConfigFile()); err == nil && !cmd.force {
		var overwrite bool
		err := huh.NewConfirm().
			Title("Config file already exists").
			Description(paths.ConfigFile() + "\nOverwrite with defaults?").
			Value(&overwrite).
			WithTheme(styles.FormTheme()).
			Run()
		if err != nil {
			if errors.Is(err, huh.ErrUserAborted) {
				return nil
			}
			return err
		}
		if !overwrite {
			p.Infof("Init cancelled")
			return nil
		}
	}

	switch {
	case cmd.baseBranch != "":
		cfg.BaseBranch = cmd.baseBranch
	default:
		if branch, err := g.Branch(ctx); err == nil && branch != "" && branch != "HEAD" {
			cfg.BaseBranch = branch
		}
	}

	if err := os.MkdirAll(paths.ItemsDir(), 0o755); err != nil {
		return fmt.Errorf("create items dir: %w", err)
	}

	data, err := cfg.Marshal()
	if err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	if err := os.WriteFile(paths.ConfigFile(), data, 0o644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	p.Success("Wrote config", paths.ConfigFile())

	written, err := prompts.Extract(paths.PromptsDir(), cmd.force)
	if err != nil {
		return fmt.Errorf("extract prompts: %w", err)
	}
	for _, path := range written {
		p.Success("Wrote prompt", path)
	}

	for _, msg := range g.Preflight(ctx) {
		p.Warnf("%s", msg)
	}

	p.Printf("")
	p.Successf("Initialized wreckit in %s (base branch %s)", root, cfg.BaseBranch)
	return nil
}
