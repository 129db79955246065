package app

import "errors"

// Config holds all the necessary configuration for an App instance to run.
type Config struct {
	// ConfigPath is the main pipeline configuration file.
	ConfigPath string

	// Targets are the requested build targets; empty means build
	// everything the configuration implies.
	Targets []string

	LogFormat string
	LogLevel  string

	WorkerCount int
	FailFast    bool
	DryRun      bool
}

// NewConfig validates a Config.
func NewConfig(cfg Config) (*Config, error) {
	if cfg.ConfigPath == "" {
		return nil, errors.New("ConfigPath is a required configuration field and cannot be empty")
	}
	if cfg.WorkerCount < 1 {
		cfg.WorkerCount = 1
	}
	return &cfg, nil
}
