package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/genoflow/genoflow/internal/config"
	"github.com/genoflow/genoflow/internal/ctxlog"
	"github.com/genoflow/genoflow/internal/filters"
	"github.com/genoflow/genoflow/internal/pipeline"
	"github.com/genoflow/genoflow/internal/samples"
)

// App encapsulates the application's dependencies, configuration, and lifecycle.
type App struct {
	outW     io.Writer
	logger   *slog.Logger
	config   *config.Config
	pipeline *pipeline.Pipeline

	// globalSamples is the union of every run's sample list, computed
	// once at startup and read-only afterwards.
	globalSamples map[string]struct{}
}

// NewApp is the constructor for the main application. It returns a fully
// initialized App instance with its own isolated logger, loaded
// configuration, sample universe, and assembled rule set. Any failure here
// is a fatal startup error and panics; the entrypoint recovers to present
// a clean exit message.
func NewApp(outW io.Writer, appConfig *Config, filterReg *filters.Registry) *App {
	logger := newLogger(appConfig.LogLevel, appConfig.LogFormat, outW)
	ctx := ctxlog.WithLogger(context.Background(), logger)
	logger.Debug("Logger configured successfully.")

	cfg, err := config.Load(ctx, appConfig.ConfigPath)
	if err != nil {
		panic(fmt.Errorf("failed to load configuration: %w", err))
	}
	logger.Debug("Configuration loaded.", "prefix", cfg.Prefix)

	global, err := samples.Global(cfg)
	if err != nil {
		panic(fmt.Errorf("failed to build sample universe: %w", err))
	}
	logger.Debug("Sample universe built.", "samples", len(global))

	if filterReg == nil {
		filterReg = filters.Builtin()
	}
	p, err := pipeline.New(cfg, filterReg)
	if err != nil {
		panic(fmt.Errorf("failed to assemble pipeline rules: %w", err))
	}
	logger.Debug("Pipeline rules assembled.", "rules", len(p.Registry().Rules()))

	return &App{
		outW:          outW,
		logger:        logger,
		config:        cfg,
		pipeline:      p,
		globalSamples: global,
	}
}

// Pipeline returns the assembled pipeline. This is primarily for testing.
func (a *App) Pipeline() *pipeline.Pipeline { return a.pipeline }

// Configuration returns the loaded pipeline configuration.
func (a *App) Configuration() *config.Config { return a.config }
