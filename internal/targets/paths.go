package targets

import (
	"path/filepath"

	"github.com/genoflow/genoflow/internal/config"
)

// The run-scoped path scheme. Each Path function substitutes concrete
// names into the same layout its Pattern counterpart declares with
// wildcards, so the enumerator and the rule set can never drift apart.

// FilteredPath is the filtered table for one (run, feature, output label)
// cell.
func FilteredPath(cfg *config.Config, run, featuresLabel, outputLabel string) string {
	return filepath.Join(cfg.Prefix, "runs", run, "filtered", featuresLabel, outputLabel+".tsv")
}

// FilteredPattern is FilteredPath with run, features_label and output_label
// as wildcards.
func FilteredPattern(cfg *config.Config) string {
	return filepath.Join(cfg.Prefix, "runs", "{run}", "filtered", "{features_label}", "{output_label}.tsv")
}

// AggregatedFeaturesPath is a run's dense feature matrix.
func AggregatedFeaturesPath(cfg *config.Config, run string) string {
	return filepath.Join(cfg.Prefix, "runs", run, "features.tsv")
}

// AggregatedFeaturesPattern is AggregatedFeaturesPath with run wildcarded.
func AggregatedFeaturesPattern(cfg *config.Config) string {
	return filepath.Join(cfg.Prefix, "runs", "{run}", "features.tsv")
}

// AggregatedResponsesPath is a run's response matrix, one row per sample in
// run-declared order.
func AggregatedResponsesPath(cfg *config.Config, run string) string {
	return filepath.Join(cfg.Prefix, "runs", run, "responses.tsv")
}

// AggregatedResponsesPattern is AggregatedResponsesPath with run wildcarded.
func AggregatedResponsesPattern(cfg *config.Config) string {
	return filepath.Join(cfg.Prefix, "runs", "{run}", "responses.tsv")
}

// ModelPath is the trained model artifact for one (run, response) pair.
func ModelPath(cfg *config.Config, run, response string) string {
	return filepath.Join(cfg.Prefix, "runs", run, "models", response+".model")
}

// ModelPattern is ModelPath with run and response wildcarded.
func ModelPattern(cfg *config.Config) string {
	return filepath.Join(cfg.Prefix, "runs", "{run}", "models", "{response}.model")
}

// ReportPath is the rendered report for one run.
func ReportPath(cfg *config.Config, run string) string {
	return filepath.Join(cfg.Prefix, "runs", run, "report", "index.html")
}

// ReportPattern is ReportPath with run wildcarded.
func ReportPattern(cfg *config.Config) string {
	return filepath.Join(cfg.Prefix, "runs", "{run}", "report", "index.html")
}

// StateDBPath is the run-state database recording job outcomes.
func StateDBPath(cfg *config.Config) string {
	return filepath.Join(cfg.Prefix, ".genoflow", "state.db")
}

// LogRoot is the root of the per-job log mirror.
func LogRoot(cfg *config.Config) string {
	return filepath.Join(cfg.Prefix, "logs")
}
