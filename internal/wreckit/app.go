package wreckit

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/colonyops/wreckit/internal/core/agent"
	"github.com/colonyops/wreckit/internal/core/config"
	"github.com/colonyops/wreckit/internal/core/doctor"
	"github.com/colonyops/wreckit/internal/core/git"
	"github.com/colonyops/wreckit/internal/core/logging"
	"github.com/colonyops/wreckit/internal/core/review"
	"github.com/colonyops/wreckit/internal/data/db"
	"github.com/colonyops/wreckit/internal/data/stores"
	"github.com/colonyops/wreckit/internal/prompts"
	"github.com/colonyops/wreckit/internal/store/jsonfile"
	"github.com/colonyops/wreckit/pkg/executil"
)

// ErrNotInitialized is returned by Open when the repository has no .wreckit
// directory.
var ErrNotInitialized = errors.New("wreckit is not initialized here (run 'wreckit init')")

// sweepInterval is how often expired cache entries are purged.
const sweepInterval = 5 * time.Minute

// App is the central entry point for wreckit operations. Commands consume
// App instead of cherry-picking raw dependencies.
type App struct {
	Config       *config.Config
	Items        *jsonfile.ItemStore
	DB           *db.DB
	Runs         *stores.RunStore
	KV           *stores.KVStore
	Git          git.Git
	Reviews      review.Provider
	Prompts      *prompts.Loader
	Orchestrator *Orchestrator
	DryRun       bool

	stopSweep context.CancelFunc
}

// Open wires every collaborator for the repository described by cfg.
func Open(ctx context.Context, cfg *config.Config, dryRun bool) (*App, error) {
	log := logging.Component("app")
	paths := cfg.Paths()

	if info, err := os.Stat(paths.Dir()); err != nil || !info.IsDir() {
		return nil, ErrNotInitialized
	}

	dbOpts := db.OpenOptions{
		MaxOpenConns: cfg.Database.MaxOpenConns,
		MaxIdleConns: cfg.Database.MaxIdleConns,
		BusyTimeout:  cfg.Database.BusyTimeout,
	}
	database, err := db.Open(paths.Dir(), dbOpts)
	if err != nil && stores.IsCorruptionError(err) {
		backup, rerr := stores.RecoverFromCorruption(paths.Dir())
		if rerr != nil {
			return nil, fmt.Errorf("recover database: %w", rerr)
		}
		log.Warn().Err(err).Str("backup", backup).Msg("database was corrupt, starting fresh")
		database, err = db.Open(paths.Dir(), dbOpts)
	}
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	var (
		exec    = &executil.RealExecutor{}
		items   = jsonfile.NewItemStore(paths)
		kvStore = stores.NewKVStore(database)
		runs    = stores.NewRunStore(database)
		gitExec = git.NewExecutor(cfg.GitPath, cfg.Root, exec, dryRun)
		reviews = review.NewCached(review.NewGitHub(cfg.GHPath, cfg.Root, exec, dryRun), kvStore, cfg.Review.StatusCache)
		loader  = prompts.NewLoader(paths.PromptsDir())
	)

	var runner agent.Runner = &agent.ProcessRunner{
		Command:          cfg.Agent.Command,
		Args:             cfg.Agent.Args,
		CompletionSignal: cfg.Agent.CompletionSignal,
		Exec:             exec,
	}
	if dryRun {
		runner = agent.DryRunRunner{}
	}

	sweepCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	go sweep(sweepCtx, kvStore, sweepInterval)

	return &App{
		Config:  cfg,
		Items:   items,
		DB:      database,
		Runs:    runs,
		KV:      kvStore,
		Git:     gitExec,
		Reviews: reviews,
		Prompts: loader,
		Orchestrator: New(Deps{
			Config:  cfg,
			Store:   items,
			Agent:   runner,
			Git:     gitExec,
			Reviews: reviews,
			Prompts: loader,
			History: runs,
			DryRun:  dryRun,
		}),
		DryRun:    dryRun,
		stopSweep: cancel,
	}, nil
}

// Checks returns the doctor checks for this repository.
func (a *App) Checks(configPath string) []doctor.Check {
	return DoctorChecks(a.Config, configPath, a.Items, a.Orchestrator.Observer().Local)
}

// DoctorChecks builds the doctor checks. store and observe may be nil when
// the repository is not initialized; the items check is omitted then.
func DoctorChecks(cfg *config.Config, configPath string, store *jsonfile.ItemStore, observe doctor.EvidenceFunc) []doctor.Check {
	checks := []doctor.Check{
		doctor.NewToolsCheck(cfg.GitPath, cfg.GHPath, cfg.Agent.Command),
		doctor.NewConfigCheck(cfg, configPath),
		doctor.NewDirsCheck(cfg.Paths()),
	}
	if store != nil {
		checks = append(checks, doctor.NewItemsCheck(cfg.Paths(), store, observe))
	}
	return checks
}

// Close stops background work and releases the database.
func (a *App) Close() error {
	if a.stopSweep != nil {
		a.stopSweep()
	}
	if a.DB != nil {
		return a.DB.Close()
	}
	return nil
}

// sweep periodically purges expired cache entries until ctx ends.
func sweep(ctx context.Context, kvStore *stores.KVStore, interval time.Duration) {
	log := logging.Component("sweep")
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := kvStore.SweepExpired(ctx)
			if err != nil {
				log.Debug().Err(err).Msg("kv sweep failed")
				continue
			}
			if n > 0 {
				log.Debug().Int64("removed", n).Msg("kv sweep")
			}
		}
	}
}
