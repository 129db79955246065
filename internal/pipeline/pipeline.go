package pipeline

import (
	"context"
	"fmt"
	"net/http"
	"path/filepath"
	"sort"
	"strings"

	"github.com/genoflow/genoflow/internal/config"
	"github.com/genoflow/genoflow/internal/filters"
	"github.com/genoflow/genoflow/internal/lookup"
	"github.com/genoflow/genoflow/internal/rules"
	"github.com/genoflow/genoflow/internal/samples"
	"github.com/genoflow/genoflow/internal/table"
	"github.com/genoflow/genoflow/internal/targets"
)

// Names the configuration's program registry must provide.
const (
	ProgramWorkflowRunner  = "workflow_runner"
	ProgramResponseExtract = "response_extract"
	ProgramModelTrain      = "model_train"
	ProgramReportRender    = "report_render"
)

// Pipeline holds the assembled rule set for one configuration.
type Pipeline struct {
	cfg      *config.Config
	filters  *filters.Registry
	registry *rules.Registry
	logRoot  string
	client   *http.Client
}

// New validates the configuration against the program and filter
// registries and assembles every production rule. Validation failures are
// configuration errors and surface before any job runs.
func New(cfg *config.Config, filterReg *filters.Registry) (*Pipeline, error) {
	for _, name := range []string{ProgramWorkflowRunner, ProgramResponseExtract, ProgramModelTrain, ProgramReportRender} {
		if _, ok := cfg.Programs[name]; !ok {
			return nil, fmt.Errorf("%w: program registry is missing %q", config.ErrConfig, name)
		}
	}
	for _, runName := range cfg.RunNames() {
		if _, err := filterReg.Lookup(cfg.Runs[runName].FeatureFilter); err != nil {
			return nil, fmt.Errorf("%w: run %q: %v", config.ErrConfig, runName, err)
		}
	}

	p := &Pipeline{
		cfg:      cfg,
		filters:  filterReg,
		registry: rules.NewRegistry(),
		logRoot:  targets.LogRoot(cfg),
		client:   http.DefaultClient,
	}
	if err := p.assemble(); err != nil {
		return nil, err
	}
	return p, nil
}

// Registry returns the assembled rule registry.
func (p *Pipeline) Registry() *rules.Registry { return p.registry }

// LogRoot returns the root of the per-job log mirror.
func (p *Pipeline) LogRoot() string { return p.logRoot }

func (p *Pipeline) assemble() error {
	if err := p.featureRules(); err != nil {
		return err
	}
	if err := p.lookupRules(); err != nil {
		return err
	}
	if err := p.responseRules(); err != nil {
		return err
	}
	if err := p.filterRule(); err != nil {
		return err
	}
	if err := p.aggregateRules(); err != nil {
		return err
	}
	if err := p.modelRule(); err != nil {
		return err
	}
	return p.reportRule()
}

// featureRules registers one rule per feature set: its concrete output
// paths, produced by running the feature's sub-workflow.
func (p *Pipeline) featureRules() error {
	for _, name := range p.cfg.FeatureNames() {
		f := p.cfg.Features[name]
		var outputs []string
		for _, label := range f.OutputLabels() {
			outputs = append(outputs, f.Output[label])
		}
		workflow := f.Workflow
		r, err := rules.New(rules.Spec{
			Name:    "feature_" + name,
			Outputs: outputs,
			Action: func(ctx context.Context, task *rules.Task) error {
				return p.runProgram(ctx, ProgramWorkflowRunner, task, workflow)
			},
		})
		if err != nil {
			return err
		}
		if err := p.registry.Register(r); err != nil {
			return err
		}
	}
	return nil
}

// lookupRules registers one fetch-and-transform rule per lookup table.
func (p *Pipeline) lookupRules() error {
	for _, name := range p.cfg.LookupNames() {
		l := p.cfg.Lookups[name]
		url, dest := l.URL, l.Path
		r, err := rules.New(rules.Spec{
			Name:    "lookup_" + name,
			Outputs: []string{dest},
			Action: func(ctx context.Context, task *rules.Task) error {
				return lookup.Fetch(ctx, p.client, url, dest)
			},
		})
		if err != nil {
			return err
		}
		if err := p.registry.Register(r); err != nil {
			return err
		}
	}
	return nil
}

// responseRules registers one wildcarded rule per distinct response
// template. Several runs commonly share a template; a sample appearing in
// more than one run still yields a single job.
func (p *Pipeline) responseRules() error {
	seen := make(map[string]struct{})
	var templates []string
	for _, runName := range p.cfg.RunNames() {
		t := p.cfg.Runs[runName].ResponseTemplate
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		templates = append(templates, t)
	}
	sort.Strings(templates)

	for i, template := range templates {
		name := "drug_response"
		if len(templates) > 1 {
			name = fmt.Sprintf("drug_response_%d", i+1)
		}
		r, err := rules.New(rules.Spec{
			Name:    name,
			Outputs: []string{template},
			Action: func(ctx context.Context, task *rules.Task) error {
				return p.runProgram(ctx, ProgramResponseExtract, task,
					"--sample", task.Wildcards[targets.WildcardSample],
					"--out", task.Target())
			},
		})
		if err != nil {
			return err
		}
		if err := p.registry.Register(r); err != nil {
			return err
		}
	}
	return nil
}

// filterRule registers the wildcarded rule producing one filtered table
// per (run, feature, output label) cell. Its input is found by
// cross-referencing the configuration: the raw table the bound
// feature/label pair maps to.
func (p *Pipeline) filterRule() error {
	r, err := rules.New(rules.Spec{
		Name:    "filter",
		Outputs: []string{targets.FilteredPattern(p.cfg)},
		InputsFn: func(wc rules.Wildcards) ([]string, error) {
			if _, err := p.run(wc); err != nil {
				return nil, err
			}
			raw, err := p.featureOutput(wc)
			if err != nil {
				return nil, err
			}
			return []string{raw}, nil
		},
		Action: p.runFilter,
	})
	if err != nil {
		return err
	}
	return p.registry.Register(r)
}

// aggregateRules registers the per-run fan-in rules: the dense feature
// matrix over every filtered cell, and the response matrix over every
// per-sample file. The responses rule's input callback reads the run's
// sample list to discover its fan-in; that read is idempotent and adds no
// edges beyond the returned paths.
func (p *Pipeline) aggregateRules() error {
	features, err := rules.New(rules.Spec{
		Name:    "aggregate_features",
		Outputs: []string{targets.AggregatedFeaturesPattern(p.cfg)},
		InputsFn: func(wc rules.Wildcards) ([]string, error) {
			run, err := p.run(wc)
			if err != nil {
				return nil, err
			}
			var inputs []string
			for _, featureName := range p.cfg.FeatureNames() {
				f := p.cfg.Features[featureName]
				for _, label := range f.OutputLabels() {
					inputs = append(inputs, targets.FilteredPath(p.cfg, run.Name, featureName, label))
				}
			}
			return inputs, nil
		},
		Action: p.runAggregateFeatures,
	})
	if err != nil {
		return err
	}
	if err := p.registry.Register(features); err != nil {
		return err
	}

	responses, err := rules.New(rules.Spec{
		Name:    "aggregate_responses",
		Outputs: []string{targets.AggregatedResponsesPattern(p.cfg)},
		InputsFn: func(wc rules.Wildcards) ([]string, error) {
			run, err := p.run(wc)
			if err != nil {
				return nil, err
			}
			ids, err := samples.Run(run)
			if err != nil {
				return nil, err
			}
			var inputs []string
			for _, id := range ids {
				inputs = append(inputs, strings.ReplaceAll(run.ResponseTemplate, "{sample}", id))
			}
			return inputs, nil
		},
		Action: p.runAggregateResponses,
	})
	if err != nil {
		return err
	}
	return p.registry.Register(responses)
}

// modelRule registers the wildcarded (run, response) model-training rule.
func (p *Pipeline) modelRule() error {
	r, err := rules.New(rules.Spec{
		Name:    "model",
		Outputs: []string{targets.ModelPattern(p.cfg)},
		InputsFn: func(wc rules.Wildcards) ([]string, error) {
			run, err := p.run(wc)
			if err != nil {
				return nil, err
			}
			return []string{
				targets.AggregatedFeaturesPath(p.cfg, run.Name),
				targets.AggregatedResponsesPath(p.cfg, run.Name),
				run.ModelConfig,
			}, nil
		},
		Action: func(ctx context.Context, task *rules.Task) error {
			run, err := p.run(task.Wildcards)
			if err != nil {
				return err
			}
			return p.runProgram(ctx, ProgramModelTrain, task,
				"--features", targets.AggregatedFeaturesPath(p.cfg, run.Name),
				"--responses", targets.AggregatedResponsesPath(p.cfg, run.Name),
				"--config", run.ModelConfig,
				"--response", task.Wildcards[targets.WildcardResponse],
				"--out", task.Target())
		},
	})
	if err != nil {
		return err
	}
	return p.registry.Register(r)
}

// reportRule registers the per-run report rule. Its input callback reads
// the run's response list to fan in every model artifact.
func (p *Pipeline) reportRule() error {
	r, err := rules.New(rules.Spec{
		Name:    "report",
		Outputs: []string{targets.ReportPattern(p.cfg)},
		InputsFn: func(wc rules.Wildcards) ([]string, error) {
			run, err := p.run(wc)
			if err != nil {
				return nil, err
			}
			responses, err := samples.Responses(run)
			if err != nil {
				return nil, err
			}
			var inputs []string
			for _, response := range responses {
				inputs = append(inputs, targets.ModelPath(p.cfg, run.Name, response))
			}
			return inputs, nil
		},
		Action: func(ctx context.Context, task *rules.Task) error {
			args := []string{"--out-dir", filepath.Dir(task.Target())}
			args = append(args, task.Inputs...)
			return p.runProgram(ctx, ProgramReportRender, task, args...)
		},
	})
	if err != nil {
		return err
	}
	return p.registry.Register(r)
}

// run resolves the {run} wildcard binding against the configuration.
func (p *Pipeline) run(wc rules.Wildcards) (*config.Run, error) {
	name := wc[targets.WildcardRun]
	run, ok := p.cfg.Runs[name]
	if !ok {
		return nil, fmt.Errorf("%w: no run named %q", config.ErrConfig, name)
	}
	return run, nil
}

// featureOutput resolves the bound feature/label pair to its raw table.
func (p *Pipeline) featureOutput(wc rules.Wildcards) (string, error) {
	featureName := wc[targets.WildcardFeaturesLabel]
	f, ok := p.cfg.Features[featureName]
	if !ok {
		return "", fmt.Errorf("%w: no feature named %q", config.ErrConfig, featureName)
	}
	label := wc[targets.WildcardOutputLabel]
	raw, ok := f.Output[label]
	if !ok {
		return "", fmt.Errorf("%w: feature %q has no output labeled %q", config.ErrConfig, featureName, label)
	}
	return raw, nil
}

// runFilter executes one filter cell: load the raw table, apply the run's
// named filter, project down to exactly the run's sample list, persist.
func (p *Pipeline) runFilter(ctx context.Context, task *rules.Task) error {
	run, err := p.run(task.Wildcards)
	if err != nil {
		return err
	}
	raw, err := p.featureOutput(task.Wildcards)
	if err != nil {
		return err
	}

	tbl, err := table.Read(raw)
	if err != nil {
		return err
	}
	fn, err := p.filters.Lookup(run.FeatureFilter)
	if err != nil {
		return err
	}
	filtered, err := fn(tbl, task.Wildcards[targets.WildcardFeaturesLabel], task.Wildcards[targets.WildcardOutputLabel])
	if err != nil {
		return fmt.Errorf("filter %q: %w", run.FeatureFilter, err)
	}

	ids, err := samples.Run(run)
	if err != nil {
		return err
	}
	projected, err := filtered.Project(ids)
	if err != nil {
		return err
	}
	return projected.Write(task.Target(), "sample")
}

// runAggregateFeatures joins every filtered table for a run into the dense
// feature matrix.
func (p *Pipeline) runAggregateFeatures(ctx context.Context, task *rules.Task) error {
	tables := make([]*table.Table, 0, len(task.Inputs))
	for _, in := range task.Inputs {
		t, err := table.Read(in)
		if err != nil {
			return err
		}
		tables = append(tables, t)
	}
	aggregated, err := table.AggregateFeatures(tables)
	if err != nil {
		return err
	}
	return aggregated.Write(task.Target(), "sample")
}

// runAggregateResponses stitches per-sample response files into the run's
// response matrix, in run-declared sample order.
func (p *Pipeline) runAggregateResponses(ctx context.Context, task *rules.Task) error {
	run, err := p.run(task.Wildcards)
	if err != nil {
		return err
	}
	ids, err := samples.Run(run)
	if err != nil {
		return err
	}
	declared := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		declared[id] = struct{}{}
	}

	pattern, err := rules.Compile(run.ResponseTemplate)
	if err != nil {
		return err
	}
	sampleFromFile := func(path string) (string, error) {
		wc, ok := pattern.Match(path)
		if !ok {
			return "", fmt.Errorf("response file %q does not match template %q", path, run.ResponseTemplate)
		}
		return wc[targets.WildcardSample], nil
	}

	aggregated, err := table.AggregateResponses(task.Inputs, sampleFromFile, run.ResponseColumn, ids, declared)
	if err != nil {
		return err
	}
	return aggregated.Write(task.Target(), "sample")
}
