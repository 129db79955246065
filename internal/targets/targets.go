// Package targets enumerates the concrete build targets a configuration
// implies, and defines the canonical path scheme for run-scoped artifacts.
// Enumeration is a pure function of the configuration except where a
// sample or response list must be read to know the fan-out count; those
// reads are the only filesystem access. All returned lists are
// deterministically ordered so graph construction is reproducible.
package targets

import (
	"sort"
	"strings"

	"github.com/genoflow/genoflow/internal/config"
	"github.com/genoflow/genoflow/internal/samples"
)

// Wildcard names used by the run-scoped patterns.
const (
	WildcardRun           = "run"
	WildcardFeaturesLabel = "features_label"
	WildcardOutputLabel   = "output_label"
	WildcardResponse      = "response"
	WildcardSample        = "sample"
)

// Features returns every feature set's every declared output path, ordered
// by feature name then output label.
func Features(cfg *config.Config) []string {
	var out []string
	for _, name := range cfg.FeatureNames() {
		f := cfg.Features[name]
		for _, label := range f.OutputLabels() {
			out = append(out, f.Output[label])
		}
	}
	return out
}

// Lookups returns every lookup table path, ordered by lookup name.
func Lookups(cfg *config.Config) []string {
	var out []string
	for _, name := range cfg.LookupNames() {
		out = append(out, cfg.Lookups[name].Path)
	}
	return out
}

// DrugResponses returns the per-sample response intermediates across all
// runs. The same sample may appear in several runs, so targets are
// deduplicated through a set before sorting.
func DrugResponses(cfg *config.Config) ([]string, error) {
	set := make(map[string]struct{})
	for _, name := range cfg.RunNames() {
		run := cfg.Runs[name]
		ids, err := samples.Run(run)
		if err != nil {
			return nil, err
		}
		for _, id := range ids {
			set[strings.ReplaceAll(run.ResponseTemplate, "{sample}", id)] = struct{}{}
		}
	}
	out := make([]string, 0, len(set))
	for t := range set {
		out = append(out, t)
	}
	sort.Strings(out)
	return out, nil
}

// Filtered returns the per-run filtered tables plus each run's aggregated
// feature and response matrices.
func Filtered(cfg *config.Config) []string {
	var out []string
	for _, runName := range cfg.RunNames() {
		for _, featureName := range cfg.FeatureNames() {
			f := cfg.Features[featureName]
			for _, label := range f.OutputLabels() {
				out = append(out, FilteredPath(cfg, runName, featureName, label))
			}
		}
		out = append(out, AggregatedFeaturesPath(cfg, runName), AggregatedResponsesPath(cfg, runName))
	}
	return out
}

// Models returns one model artifact per run and response. The response
// list must be read to know the fan-out.
func Models(cfg *config.Config) ([]string, error) {
	var out []string
	for _, runName := range cfg.RunNames() {
		responses, err := samples.Responses(cfg.Runs[runName])
		if err != nil {
			return nil, err
		}
		for _, response := range responses {
			out = append(out, ModelPath(cfg, runName, response))
		}
	}
	return out, nil
}

// Reports returns one report per run.
func Reports(cfg *config.Config) []string {
	var out []string
	for _, runName := range cfg.RunNames() {
		out = append(out, ReportPath(cfg, runName))
	}
	return out
}

// Default is the build-everything target set: every lookup table, model
// artifact, and report.
func Default(cfg *config.Config) ([]string, error) {
	models, err := Models(cfg)
	if err != nil {
		return nil, err
	}
	var out []string
	out = append(out, Lookups(cfg)...)
	out = append(out, models...)
	out = append(out, Reports(cfg)...)
	return out, nil
}
