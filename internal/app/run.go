package app

import (
	"context"
	"fmt"

	"github.com/genoflow/genoflow/internal/ctxlog"
	"github.com/genoflow/genoflow/internal/executor"
	"github.com/genoflow/genoflow/internal/graph"
	"github.com/genoflow/genoflow/internal/runstate"
	"github.com/genoflow/genoflow/internal/targets"
)

// Run executes the main application logic: resolve the requested targets
// into a job graph, plan staleness, provision directories, and execute.
func (a *App) Run(ctx context.Context, appConfig *Config) error {
	ctx = ctxlog.WithLogger(ctx, a.logger)
	a.logger.Debug("App.Run method started.")

	requested := appConfig.Targets
	if len(requested) == 0 {
		var err error
		requested, err = targets.Default(a.config)
		if err != nil {
			return fmt.Errorf("enumerating default targets: %w", err)
		}
	}
	a.logger.Info("Resolving requested targets.", "count", len(requested))

	resolver := graph.NewResolver(a.pipeline.Registry())
	for _, target := range requested {
		if _, err := resolver.Resolve(target); err != nil {
			return fmt.Errorf("failed to build dependency graph: %w", err)
		}
	}
	jobs := resolver.Jobs()
	ordered := graph.Order(jobs)
	a.logger.Debug("Dependency graph built.", "jobs", len(jobs))

	pending := graph.Plan(ordered)
	a.logger.Info("Staleness plan complete.", "total", len(ordered), "to_build", len(pending))

	if appConfig.DryRun {
		for _, job := range ordered {
			state := "build"
			if job.State() == graph.Satisfied {
				state = "up-to-date"
			}
			fmt.Fprintf(a.outW, "%-12s %s  (%s)\n", state, job.ID(), job.Task.Rule.Name())
		}
		return nil
	}

	if len(pending) == 0 {
		a.logger.Info("Everything is up to date, nothing to build.")
		return nil
	}

	logRoot := a.pipeline.LogRoot()
	if err := graph.Provision(ordered, logRoot); err != nil {
		return fmt.Errorf("failed to provision directories: %w", err)
	}
	a.logger.Debug("Output and log directories provisioned.")

	store, err := runstate.Open(targets.StateDBPath(a.config))
	if err != nil {
		return fmt.Errorf("failed to open run-state store: %w", err)
	}
	defer store.Close()

	a.logger.Info("Starting concurrent execution.", "workers", appConfig.WorkerCount)
	exec := executor.New(ordered, executor.Options{
		Workers:  appConfig.WorkerCount,
		FailFast: appConfig.FailFast,
		LogRoot:  logRoot,
		Store:    store,
	})
	if err := exec.Run(ctx); err != nil {
		a.reportFailures(store)
		return fmt.Errorf("execution failed: %w", err)
	}
	a.logger.Info("Execution finished.")
	return nil
}

// reportFailures prints every failed target with its proximate error and
// captured log path before the process exits non-zero.
func (a *App) reportFailures(store *runstate.Store) {
	failures, err := store.Failed()
	if err != nil {
		a.logger.Error("Could not read failure records.", "error", err)
		return
	}
	for _, f := range failures {
		if f.LogPath != "" {
			fmt.Fprintf(a.outW, "FAILED %s (%s): %s\n  log: %s\n", f.Target, f.Rule, f.Error, f.LogPath)
		} else {
			fmt.Fprintf(a.outW, "FAILED %s (%s): %s\n", f.Target, f.Rule, f.Error)
		}
	}
}
