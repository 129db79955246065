package rules

import (
	"context"
	"fmt"
	"sort"
)

// InputsFunc computes a rule's concrete input targets from the wildcards
// bound by an output match. It is used when inputs cannot be expressed as
// static patterns, for example when they depend on a sample list read from
// disk or on a cross-reference into the loaded configuration. An InputsFunc
// must be idempotent and free of side effects; any file it reads does not
// become a graph edge beyond the paths it returns.
type InputsFunc func(wc Wildcards) ([]string, error)

// Action is the work performed by one concrete instantiation of a rule.
// A nil action marks a rule whose outputs require no work of their own.
type Action func(ctx context.Context, task *Task) error

// Task is one concrete instantiation of a rule: all wildcards bound, all
// output and input paths fully substituted.
type Task struct {
	Rule      *Rule
	Wildcards Wildcards
	Outputs   []string
	Inputs    []string
}

// Target returns the task's primary output, used as its identity in logs
// and run-state records.
func (t *Task) Target() string {
	if len(t.Outputs) == 0 {
		return ""
	}
	return t.Outputs[0]
}

// Spec declares a rule before compilation. Inputs and InputsFn are
// mutually exclusive.
type Spec struct {
	Name     string
	Outputs  []string
	Inputs   []string
	InputsFn InputsFunc
	Action   Action
}

// Rule is a compiled production rule: a set of output patterns, an input
// spec, and an action. Rules are immutable after construction.
type Rule struct {
	name     string
	outputs  []*Pattern
	inputs   []*Pattern
	inputsFn InputsFunc
	action   Action
}

// New compiles a Spec into a Rule.
func New(spec Spec) (*Rule, error) {
	if spec.Name == "" {
		return nil, fmt.Errorf("%w: rule name must not be empty", ErrBadPattern)
	}
	if len(spec.Outputs) == 0 {
		return nil, fmt.Errorf("%w: rule %q declares no outputs", ErrBadPattern, spec.Name)
	}
	if len(spec.Inputs) > 0 && spec.InputsFn != nil {
		return nil, fmt.Errorf("%w: rule %q declares both static inputs and an inputs function", ErrBadPattern, spec.Name)
	}

	r := &Rule{name: spec.Name, inputsFn: spec.InputsFn, action: spec.Action}
	for _, raw := range spec.Outputs {
		p, err := Compile(raw)
		if err != nil {
			return nil, fmt.Errorf("rule %q output: %w", spec.Name, err)
		}
		r.outputs = append(r.outputs, p)
	}
	for _, raw := range spec.Inputs {
		p, err := Compile(raw)
		if err != nil {
			return nil, fmt.Errorf("rule %q input: %w", spec.Name, err)
		}
		r.inputs = append(r.inputs, p)
	}
	return r, nil
}

// Name returns the rule's registered name.
func (r *Rule) Name() string { return r.name }

// Match attempts to bind the rule against a concrete target via any of its
// output patterns.
func (r *Rule) Match(target string) (Wildcards, bool) {
	for _, p := range r.outputs {
		if wc, ok := p.Match(target); ok {
			return wc, true
		}
	}
	return nil, false
}

// Instantiate produces the concrete Task for a set of wildcard bindings:
// all output patterns substituted, inputs computed from the static patterns
// or the inputs function. Inputs are deterministically ordered.
func (r *Rule) Instantiate(wc Wildcards) (*Task, error) {
	task := &Task{Rule: r, Wildcards: wc}

	for _, p := range r.outputs {
		out, err := p.Substitute(wc)
		if err != nil {
			return nil, fmt.Errorf("rule %q: %w", r.name, err)
		}
		task.Outputs = append(task.Outputs, out)
	}

	switch {
	case r.inputsFn != nil:
		inputs, err := r.inputsFn(wc)
		if err != nil {
			return nil, fmt.Errorf("rule %q inputs: %w", r.name, err)
		}
		task.Inputs = inputs
	default:
		for _, p := range r.inputs {
			in, err := p.Substitute(wc)
			if err != nil {
				return nil, fmt.Errorf("rule %q: %w", r.name, err)
			}
			task.Inputs = append(task.Inputs, in)
		}
	}
	sort.Strings(task.Inputs)
	return task, nil
}

// Run invokes the rule's action for a task. Rules without an action
// complete immediately.
func (r *Rule) Run(ctx context.Context, task *Task) error {
	if r.action == nil {
		return nil
	}
	return r.action(ctx, task)
}
