package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"runtime/debug"
	"syscall"

	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v3"

	"github.com/colonyops/wreckit/internal/commands"
	"github.com/colonyops/wreckit/internal/core/config"
	"github.com/colonyops/wreckit/internal/core/styles"
	"github.com/colonyops/wreckit/internal/wreckit"
	"github.com/colonyops/wreckit/pkg/logutils"
)

var (
	// Build information. Populated at build-time via -ldflags flag.
	// When installed via `go install module@version`, build() falls back
	// to runtime/debug.BuildInfo instead.
	version = "dev"
	commit  = "HEAD"
	date    = "now"
)

func build() string {
	v, c, d := version, commit, date

	if v == "dev" {
		if info, ok := debug.ReadBuildInfo(); ok {
			if mv := info.Main.Version; mv != "" && mv != "(devel)" {
				v = mv
			}
			for _, s := range info.Settings {
				switch s.Key {
				case "vcs.revision":
					c = s.Value
				case "vcs.time":
					d = s.Value
				}
			}
		}
	}

	short := c
	if len(c) > 7 {
		short = c[:7]
	}

	return fmt.Sprintf("%s (%s) %s", v, short, d)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var (
		logCloser func()
		wreckApp  = &wreckit.App{}
	)

	flags := &commands.Flags{}

	app := &cli.Command{
		Name:      "wreckit",
		Usage:     "Drive ideas through research, planning, implementation and review with an AI agent",
		UsageText: "wreckit [global options] command [command options]",
		Description: `wreckit tracks units of work under .wreckit/items and moves each one through
a fixed pipeline: idea → researched → planned → implementing → in_review → done.

Every phase runs the configured agent with a prompt, then checks the files the
agent produced before the item is allowed to advance.

Run 'wreckit init' in a git repository to get started.`,
		Version: build(),
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "cwd",
				Usage:       "run as if started in this directory",
				Sources:     cli.EnvVars("WRECKIT_CWD"),
				Destination: &flags.Cwd,
			},
			&cli.StringFlag{
				Name:        "config",
				Aliases:     []string{"c"},
				Usage:       "path to config file (defaults to .wreckit/config.yaml)",
				Sources:     cli.EnvVars("WRECKIT_CONFIG"),
				Destination: &flags.ConfigPath,
			},
			&cli.StringFlag{
				Name:        "log-level",
				Usage:       "log level (debug, info, warn, error, fatal, panic)",
				Sources:     cli.EnvVars("WRECKIT_LOG_LEVEL"),
				Value:       "info",
				Destination: &flags.LogLevel,
			},
			&cli.StringFlag{
				Name:        "log-file",
				Usage:       "path to log file (defaults to .wreckit/wreckit.log, '-' for stderr)",
				Sources:     cli.EnvVars("WRECKIT_LOG_FILE"),
				Destination: &flags.LogFile,
			},
			&cli.BoolFlag{
				Name:        "dry-run",
				Usage:       "show what would happen without running the agent or writing changes",
				Sources:     cli.EnvVars("WRECKIT_DRY_RUN"),
				Destination: &flags.DryRun,
			},
		},
		Before: func(ctx context.Context, c *cli.Command) (context.Context, error) {
			cwd := flags.Cwd
			if cwd == "" {
				wd, err := os.Getwd()
				if err != nil {
					return ctx, err
				}
				cwd = wd
			}

			root, err := config.FindRoot(cwd)
			if err != nil {
				root = cwd
			}
			flags.Root = root
			paths := config.Paths{Root: root}

			// Log to .wreckit/wreckit.log once the repository is initialized.
			logFile := flags.LogFile
			if logFile == "" {
				logFile = logutils.Stderr
				if info, err := os.Stat(paths.Dir()); err == nil && info.IsDir() {
					logFile = paths.LogFile()
				}
			}

			logger, closer, err := logutils.New(flags.LogLevel, logFile)
			if err != nil {
				return ctx, fmt.Errorf("setup logger: %w", err)
			}
			log.Logger = logger
			logCloser = closer

			if flags.ConfigPath == "" {
				flags.ConfigPath = paths.ConfigFile()
			}

			cfg, err := config.Load(root, flags.ConfigPath)
			if err != nil {
				return ctx, fmt.Errorf("load config: %w", err)
			}
			flags.Config = cfg

			// Apply configured theme (validation ensures name is valid)
			palette, _ := styles.GetPalette(cfg.Theme)
			styles.SetTheme(palette)

			opened, err := wreckit.Open(ctx, cfg, flags.DryRun)
			switch {
			case errors.Is(err, wreckit.ErrNotInitialized):
				// init, doctor and config validate work without .wreckit.
				log.Debug().Str("root", root).Msg("repository not initialized")
			case err != nil:
				return ctx, err
			default:
				// Populate the pre-allocated App (commands already hold a pointer to it)
				*wreckApp = *opened
			}

			return ctx, nil
		},
		After: func(ctx context.Context, c *cli.Command) error {
			if err := wreckApp.Close(); err != nil {
				log.Error().Err(err).Msg("failed to close database")
				return err
			}

			if logCloser != nil {
				logCloser()
			}
			return nil
		},
	}

	app = commands.NewInitCmd(flags).Register(app)
	app = commands.NewIdeasCmd(flags, wreckApp).Register(app)
	app = commands.NewStatusCmd(flags, wreckApp).Register(app)
	app = commands.NewListCmd(flags, wreckApp).Register(app)
	app = commands.NewShowCmd(flags, wreckApp).Register(app)
	for _, phase := range wreckit.Phases() {
		app = commands.NewPhaseCmd(flags, wreckApp, phase).Register(app)
	}
	app = commands.NewRunCmd(flags, wreckApp).Register(app)
	app = commands.NewNextCmd(flags, wreckApp).Register(app)
	app = commands.NewAllCmd(flags, wreckApp).Register(app)
	app = commands.NewHistoryCmd(flags, wreckApp).Register(app)
	app = commands.NewDoctorCmd(flags, wreckApp).Register(app)
	app = commands.NewConfigCmd(flags).Register(app)

	exitCode := 0
	if runErr := app.Run(ctx, os.Args); runErr != nil {
		var exitErr cli.ExitCoder
		switch {
		case errors.Is(runErr, context.Canceled):
			fmt.Fprintln(os.Stderr, "interrupted")
			exitCode = 130
		case errors.As(runErr, &exitErr):
			if msg := exitErr.Error(); msg != "" {
				fmt.Fprintln(os.Stderr, msg)
			}
			exitCode = exitErr.ExitCode()
		default:
			fmt.Fprintln(os.Stderr)
			fmt.Fprintln(os.Stderr, runErr.Error())
			exitCode = 1
		}
	}

	stop()
	os.Exit(exitCode)
}
