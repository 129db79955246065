package config

import "sort"

// Config is the in-memory form of one pipeline configuration. All path
// templates have had {prefix} substituted with the absolute prefix; a run's
// ResponseTemplate keeps its {sample} wildcard for the graph to bind.
type Config struct {
	// Prefix is the absolute storage prefix all artifacts live under.
	Prefix string

	// SoftwarePath is the program registry file the configuration named.
	SoftwarePath string

	Features map[string]*Feature
	Runs     map[string]*Run
	Lookups  map[string]*Lookup
	Programs map[string]*Program
}

// Feature is a named category of measurement produced by its own
// sub-workflow, with one or more labeled output tables.
type Feature struct {
	Name string

	// Workflow is the path to the feature's sub-workflow definition,
	// handed verbatim to the workflow-runner program.
	Workflow string

	// Output maps output label to the concrete path the sub-workflow
	// produces for it.
	Output map[string]string
}

// OutputLabels returns the feature's output labels in lexicographic order.
func (f *Feature) OutputLabels() []string {
	labels := make([]string, 0, len(f.Output))
	for label := range f.Output {
		labels = append(labels, label)
	}
	sort.Strings(labels)
	return labels
}

// Run is a named analysis configuration: which samples and responses to
// use, how to filter features, and how to train the model.
type Run struct {
	Name string

	// FeatureFilter names the filter function applied to every raw
	// feature table before aggregation.
	FeatureFilter string

	// SampleList and ResponseList are plain-text files, one identifier
	// per line.
	SampleList   string
	ResponseList string

	// ResponseTemplate is the per-sample drug-response path, with the
	// {sample} wildcard unbound.
	ResponseTemplate string

	// ResponseColumn is the column of the per-sample response file
	// holding the measurement to model.
	ResponseColumn string

	// ModelConfig is the model-training configuration file passed to the
	// training program.
	ModelConfig string
}

// Lookup is a fetch-and-transform lookup table, such as a gene-ID mapping.
type Lookup struct {
	Name string
	URL  string
	Path string
}

// Program is one entry of the program registry: an optional initialization
// prelude and the executable to run.
type Program struct {
	Name string
	Init string
	Path string
}

// FeatureNames returns the configured feature names in lexicographic order.
func (c *Config) FeatureNames() []string { return sortedKeys(c.Features) }

// RunNames returns the configured run names in lexicographic order.
func (c *Config) RunNames() []string { return sortedKeys(c.Runs) }

// LookupNames returns the configured lookup names in lexicographic order.
func (c *Config) LookupNames() []string { return sortedKeys(c.Lookups) }

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
