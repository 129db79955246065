package pipeline

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/genoflow/genoflow/internal/config"
	"github.com/genoflow/genoflow/internal/filters"
	"github.com/genoflow/genoflow/internal/graph"
	"github.com/genoflow/genoflow/internal/table"
	"github.com/genoflow/genoflow/internal/targets"
)

// fixture assembles an in-memory configuration with one run over samples
// A and B, a single response (drugX), and two raw feature tables.
func fixture(t *testing.T) *config.Config {
	t.Helper()
	prefix := t.TempDir()

	writeLines := func(name string, lines string) string {
		path := filepath.Join(prefix, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(lines), 0o644))
		return path
	}
	sampleList := writeLines("lists/samples.txt", "A\nB\n")
	responseList := writeLines("lists/responses.txt", "drugX\n")
	modelConfig := writeLines("conf/model.json", "{}\n")

	return &config.Config{
		Prefix: prefix,
		Features: map[string]*config.Feature{
			"mutations": {
				Name:     "mutations",
				Workflow: filepath.Join(prefix, "workflows", "mutations.wf"),
				Output: map[string]string{
					"genes":    filepath.Join(prefix, "raw", "mutations_genes.tsv"),
					"variants": filepath.Join(prefix, "raw", "mutations_variants.tsv"),
				},
			},
		},
		Runs: map[string]*config.Run{
			"alpha": {
				Name:             "alpha",
				FeatureFilter:    "passthrough",
				SampleList:       sampleList,
				ResponseList:     responseList,
				ResponseTemplate: filepath.Join(prefix, "responses", "{sample}.tsv"),
				ResponseColumn:   "ic50",
				ModelConfig:      modelConfig,
			},
		},
		Lookups: map[string]*config.Lookup{},
		Programs: map[string]*config.Program{
			ProgramWorkflowRunner:  {Name: ProgramWorkflowRunner, Path: "/bin/true"},
			ProgramResponseExtract: {Name: ProgramResponseExtract, Path: "/bin/true"},
			ProgramModelTrain:      {Name: ProgramModelTrain, Path: "/bin/true"},
			ProgramReportRender:    {Name: ProgramReportRender, Path: "/bin/true"},
		},
	}
}

func TestNewValidatesConfiguration(t *testing.T) {
	t.Run("missing program", func(t *testing.T) {
		cfg := fixture(t)
		delete(cfg.Programs, ProgramModelTrain)
		_, err := New(cfg, filters.Builtin())
		require.Error(t, err)
		assert.ErrorIs(t, err, config.ErrConfig)
		assert.Contains(t, err.Error(), ProgramModelTrain)
	})

	t.Run("unknown filter", func(t *testing.T) {
		cfg := fixture(t)
		cfg.Runs["alpha"].FeatureFilter = "no_such_filter"
		_, err := New(cfg, filters.Builtin())
		require.Error(t, err)
		assert.ErrorIs(t, err, config.ErrConfig)
	})
}

func TestAggregateFeaturesFanIn(t *testing.T) {
	cfg := fixture(t)
	p, err := New(cfg, filters.Builtin())
	require.NoError(t, err)

	resolver := graph.NewResolver(p.Registry())
	job, err := resolver.Resolve(targets.AggregatedFeaturesPath(cfg, "alpha"))
	require.NoError(t, err)

	want := []string{
		targets.FilteredPath(cfg, "alpha", "mutations", "genes"),
		targets.FilteredPath(cfg, "alpha", "mutations", "variants"),
	}
	assert.Equal(t, want, job.Task.Inputs)
	assert.Len(t, job.Deps, 2, "one dependency per filtered cell and nothing else")
	assert.Equal(t, "alpha", job.Task.Wildcards[targets.WildcardRun])

	// The filtered cells in turn depend on the raw feature tables, which
	// the feature rule produces from a single job carrying both outputs.
	for _, dep := range job.Deps {
		assert.Equal(t, "filter", dep.Task.Rule.Name())
		require.Len(t, dep.Deps, 1)
		assert.Equal(t, "feature_mutations", dep.Deps[0].Task.Rule.Name())
	}
}

func TestAggregateResponsesInputsFollowSampleList(t *testing.T) {
	cfg := fixture(t)
	p, err := New(cfg, filters.Builtin())
	require.NoError(t, err)

	resolver := graph.NewResolver(p.Registry())
	job, err := resolver.Resolve(targets.AggregatedResponsesPath(cfg, "alpha"))
	require.NoError(t, err)

	want := []string{
		filepath.Join(cfg.Prefix, "responses", "A.tsv"),
		filepath.Join(cfg.Prefix, "responses", "B.tsv"),
	}
	assert.Equal(t, want, job.Task.Inputs)
	for _, dep := range job.Deps {
		assert.Equal(t, "drug_response", dep.Task.Rule.Name())
	}
}

func TestModelJobInputs(t *testing.T) {
	cfg := fixture(t)
	p, err := New(cfg, filters.Builtin())
	require.NoError(t, err)

	resolver := graph.NewResolver(p.Registry())
	job, err := resolver.Resolve(targets.ModelPath(cfg, "alpha", "drugX"))
	require.NoError(t, err)

	assert.ElementsMatch(t, []string{
		targets.AggregatedFeaturesPath(cfg, "alpha"),
		targets.AggregatedResponsesPath(cfg, "alpha"),
		cfg.Runs["alpha"].ModelConfig,
	}, job.Task.Inputs)
	assert.Equal(t, "drugX", job.Task.Wildcards[targets.WildcardResponse])
	// The model config is a leaf: it exists on disk and no rule claims it.
	assert.Contains(t, job.LeafInputs, cfg.Runs["alpha"].ModelConfig)
}

func TestReportFanInFollowsResponseList(t *testing.T) {
	cfg := fixture(t)
	p, err := New(cfg, filters.Builtin())
	require.NoError(t, err)

	resolver := graph.NewResolver(p.Registry())
	job, err := resolver.Resolve(targets.ReportPath(cfg, "alpha"))
	require.NoError(t, err)

	assert.Equal(t, []string{targets.ModelPath(cfg, "alpha", "drugX")}, job.Task.Inputs)
}

func TestUnknownRunFailsResolution(t *testing.T) {
	cfg := fixture(t)
	p, err := New(cfg, filters.Builtin())
	require.NoError(t, err)

	resolver := graph.NewResolver(p.Registry())
	_, err = resolver.Resolve(targets.AggregatedFeaturesPath(cfg, "nope"))
	require.Error(t, err)
	assert.ErrorIs(t, err, config.ErrConfig)
}

func TestFilterActionProjectsRunSamples(t *testing.T) {
	cfg := fixture(t)
	p, err := New(cfg, filters.Builtin())
	require.NoError(t, err)

	raw := table.New([]string{"g1", "g2"})
	require.NoError(t, raw.AddRow("A", []string{"1", "0"}))
	require.NoError(t, raw.AddRow("B", []string{"0", "1"}))
	require.NoError(t, raw.AddRow("C", []string{"1", "1"}))
	rawPath := cfg.Features["mutations"].Output["genes"]
	require.NoError(t, os.MkdirAll(filepath.Dir(rawPath), 0o755))
	require.NoError(t, raw.Write(rawPath, "sample"))

	target := targets.FilteredPath(cfg, "alpha", "mutations", "genes")
	rule, wc, err := p.Registry().Match(target)
	require.NoError(t, err)
	task, err := rule.Instantiate(wc)
	require.NoError(t, err)

	require.NoError(t, os.MkdirAll(filepath.Dir(target), 0o755))
	require.NoError(t, rule.Run(context.Background(), task))

	got, err := table.Read(target)
	require.NoError(t, err)
	assert.Equal(t, []string{"A", "B"}, got.Rows(), "sample C is not in the run")
	v, ok := got.Cell("B", "g2")
	require.True(t, ok)
	assert.Equal(t, "1", v)
}

func TestAggregateResponsesAction(t *testing.T) {
	cfg := fixture(t)
	p, err := New(cfg, filters.Builtin())
	require.NoError(t, err)

	for sample, value := range map[string]string{"A": "0.5", "B": "2.0"} {
		resp := table.New([]string{"ic50", "auc"})
		require.NoError(t, resp.AddRow("drugX", []string{value, "0.9"}))
		path := filepath.Join(cfg.Prefix, "responses", sample+".tsv")
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, resp.Write(path, "drug"))
	}

	target := targets.AggregatedResponsesPath(cfg, "alpha")
	rule, wc, err := p.Registry().Match(target)
	require.NoError(t, err)
	task, err := rule.Instantiate(wc)
	require.NoError(t, err)
	require.NoError(t, os.MkdirAll(filepath.Dir(target), 0o755))
	require.NoError(t, rule.Run(context.Background(), task))

	got, err := table.Read(target)
	require.NoError(t, err)
	assert.Equal(t, []string{"A", "B"}, got.Rows())
	a, _ := got.Cell("A", "ic50")
	b, _ := got.Cell("B", "ic50")
	assert.Equal(t, "0.5", a)
	assert.Equal(t, "2.0", b)
}
