package config

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/convert"

	"github.com/genoflow/genoflow/internal/ctxlog"
)

// ErrConfig marks a malformed or incomplete configuration. It is fatal and
// raised before any job runs.
var ErrConfig = errors.New("invalid configuration")

// fileRoot decodes the top level of the main configuration file.
type fileRoot struct {
	Prefix   string          `hcl:"prefix"`
	Software string          `hcl:"software"`
	Features []*featureBlock `hcl:"feature,block"`
	Runs     []*runBlock     `hcl:"run,block"`
	Lookups  []*lookupBlock  `hcl:"lookup,block"`
}

type featureBlock struct {
	Name     string         `hcl:"name,label"`
	Workflow string         `hcl:"workflow"`
	Output   hcl.Expression `hcl:"output"`
}

// outputMap evaluates a feature's output attribute into a label-to-template
// map, converting through cty so object and map syntax are both accepted.
func (fb *featureBlock) outputMap() (map[string]string, error) {
	val, diags := fb.Output.Value(nil)
	if diags.HasErrors() {
		return nil, fmt.Errorf("%w: feature %q output: %s", ErrConfig, fb.Name, diags.Error())
	}
	conv, err := convert.Convert(val, cty.Map(cty.String))
	if err != nil {
		return nil, fmt.Errorf("%w: feature %q output must map labels to path templates: %v", ErrConfig, fb.Name, err)
	}
	out := make(map[string]string)
	if conv.IsNull() {
		return out, nil
	}
	for label, v := range conv.AsValueMap() {
		out[label] = v.AsString()
	}
	return out, nil
}

type runBlock struct {
	Name             string `hcl:"name,label"`
	FeatureFilter    string `hcl:"feature_filter"`
	SampleList       string `hcl:"sample_list"`
	ResponseList     string `hcl:"response_list"`
	ResponseTemplate string `hcl:"response_template"`
	ResponseColumn   string `hcl:"response_column"`
	ModelConfig      string `hcl:"model_config"`
}

type lookupBlock struct {
	Name string `hcl:"name,label"`
	URL  string `hcl:"url"`
	Path string `hcl:"path"`
}

// programsRoot decodes the program registry file.
type programsRoot struct {
	Programs []*programBlock `hcl:"program,block"`
}

type programBlock struct {
	Name string  `hcl:"name,label"`
	Init *string `hcl:"init,optional"`
	Path string  `hcl:"path"`
}

// Load parses the main configuration file and, as a side effect, the
// program registry it names. The configured prefix is resolved to an
// absolute path once, and every {prefix} placeholder downstream is
// substituted with that same value. Relative paths in the configuration
// (sample lists, workflow files, the registry itself) resolve against the
// configuration file's directory.
func Load(ctx context.Context, path string) (*Config, error) {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("Loading configuration.", "path", path)

	var root fileRoot
	if err := decodeFile(path, &root); err != nil {
		return nil, err
	}
	if root.Prefix == "" {
		return nil, fmt.Errorf("%w: %s: prefix must not be empty", ErrConfig, path)
	}
	if len(root.Features) == 0 {
		return nil, fmt.Errorf("%w: %s: at least one feature block is required", ErrConfig, path)
	}
	if len(root.Runs) == 0 {
		return nil, fmt.Errorf("%w: %s: at least one run block is required", ErrConfig, path)
	}

	baseDir := filepath.Dir(path)
	prefix, err := filepath.Abs(resolveRelative(baseDir, root.Prefix))
	if err != nil {
		return nil, fmt.Errorf("%w: resolving prefix %q: %v", ErrConfig, root.Prefix, err)
	}

	cfg := &Config{
		Prefix:       prefix,
		SoftwarePath: resolveRelative(baseDir, root.Software),
		Features:     make(map[string]*Feature, len(root.Features)),
		Runs:         make(map[string]*Run, len(root.Runs)),
		Lookups:      make(map[string]*Lookup, len(root.Lookups)),
	}

	expand := func(template string) string {
		return strings.ReplaceAll(template, "{prefix}", prefix)
	}

	for _, fb := range root.Features {
		if _, dup := cfg.Features[fb.Name]; dup {
			return nil, fmt.Errorf("%w: duplicate feature %q", ErrConfig, fb.Name)
		}
		outputs, err := fb.outputMap()
		if err != nil {
			return nil, err
		}
		if len(outputs) == 0 {
			return nil, fmt.Errorf("%w: feature %q declares no outputs", ErrConfig, fb.Name)
		}
		f := &Feature{
			Name:     fb.Name,
			Workflow: resolveRelative(baseDir, fb.Workflow),
			Output:   make(map[string]string, len(outputs)),
		}
		for label, template := range outputs {
			f.Output[label] = expand(template)
		}
		cfg.Features[f.Name] = f
	}

	for _, rb := range root.Runs {
		if _, dup := cfg.Runs[rb.Name]; dup {
			return nil, fmt.Errorf("%w: duplicate run %q", ErrConfig, rb.Name)
		}
		for field, value := range map[string]string{
			"feature_filter":    rb.FeatureFilter,
			"sample_list":       rb.SampleList,
			"response_list":     rb.ResponseList,
			"response_template": rb.ResponseTemplate,
			"response_column":   rb.ResponseColumn,
			"model_config":      rb.ModelConfig,
		} {
			if value == "" {
				return nil, fmt.Errorf("%w: run %q: %s must not be empty", ErrConfig, rb.Name, field)
			}
		}
		// Without the placeholder every sample would collapse onto one
		// response path.
		if !strings.Contains(rb.ResponseTemplate, "{sample}") {
			return nil, fmt.Errorf("%w: run %q: response_template must contain {sample}", ErrConfig, rb.Name)
		}
		cfg.Runs[rb.Name] = &Run{
			Name:             rb.Name,
			FeatureFilter:    rb.FeatureFilter,
			SampleList:       resolveRelative(baseDir, rb.SampleList),
			ResponseList:     resolveRelative(baseDir, rb.ResponseList),
			ResponseTemplate: expand(rb.ResponseTemplate),
			ResponseColumn:   rb.ResponseColumn,
			ModelConfig:      resolveRelative(baseDir, rb.ModelConfig),
		}
	}

	for _, lb := range root.Lookups {
		if _, dup := cfg.Lookups[lb.Name]; dup {
			return nil, fmt.Errorf("%w: duplicate lookup %q", ErrConfig, lb.Name)
		}
		cfg.Lookups[lb.Name] = &Lookup{
			Name: lb.Name,
			URL:  lb.URL,
			Path: expand(lb.Path),
		}
	}

	cfg.Programs, err = loadPrograms(cfg.SoftwarePath)
	if err != nil {
		return nil, err
	}
	logger.Debug("Configuration loaded.",
		"features", len(cfg.Features), "runs", len(cfg.Runs),
		"lookups", len(cfg.Lookups), "programs", len(cfg.Programs))
	return cfg, nil
}

// loadPrograms parses the program registry. The registry is required: a
// missing or malformed file is a configuration error, raised at load time
// rather than mid-run.
func loadPrograms(path string) (map[string]*Program, error) {
	if path == "" {
		return nil, fmt.Errorf("%w: software registry path must not be empty", ErrConfig)
	}
	var root programsRoot
	if err := decodeFile(path, &root); err != nil {
		return nil, err
	}

	programs := make(map[string]*Program, len(root.Programs))
	for _, pb := range root.Programs {
		if _, dup := programs[pb.Name]; dup {
			return nil, fmt.Errorf("%w: duplicate program %q", ErrConfig, pb.Name)
		}
		if pb.Path == "" {
			return nil, fmt.Errorf("%w: program %q: path must not be empty", ErrConfig, pb.Name)
		}
		p := &Program{Name: pb.Name, Path: pb.Path}
		if pb.Init != nil {
			p.Init = *pb.Init
		}
		programs[p.Name] = p
	}
	return programs, nil
}

func decodeFile(path string, target any) error {
	if _, err := os.Stat(path); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrConfig, path, err)
	}
	parser := hclparse.NewParser()
	file, diags := parser.ParseHCLFile(path)
	if diags.HasErrors() {
		return fmt.Errorf("%w: parsing %s: %s", ErrConfig, path, diags.Error())
	}
	if diags := gohcl.DecodeBody(file.Body, nil, target); diags.HasErrors() {
		return fmt.Errorf("%w: decoding %s: %s", ErrConfig, path, diags.Error())
	}
	return nil
}

func resolveRelative(baseDir, path string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(baseDir, path)
}
