package graph

import (
	"errors"
	"fmt"
	"os"
	"sort"

	"github.com/genoflow/genoflow/internal/rules"
)

// Resolver turns requested targets into a memoized job graph. It is not
// safe for concurrent use; resolution happens once, up front, before any
// job executes.
type Resolver struct {
	registry *rules.Registry

	// jobs memoizes resolution by concrete output path. A rule with
	// several outputs registers its single job under each of them, so any
	// of a job's outputs resolves to the identical *Job.
	jobs map[string]*Job

	// stack tracks the targets on the current resolution path for cycle
	// detection.
	stack   []string
	onStack map[string]bool
}

// NewResolver creates a Resolver over an immutable rule registry.
func NewResolver(registry *rules.Registry) *Resolver {
	return &Resolver{
		registry: registry,
		jobs:     make(map[string]*Job),
		onStack:  make(map[string]bool),
	}
}

// Resolve finds the unique rule producing target, binds its wildcards,
// evaluates its input spec, and recursively resolves every input into its
// own job. Resolving the same target twice returns the same *Job. A target
// already on the resolution stack fails with a *CycleError naming the
// cycle; a target no rule produces fails with rules.ErrNoRule.
func (r *Resolver) Resolve(target string) (*Job, error) {
	if r.onStack[target] {
		return nil, r.cycleError(target)
	}
	if job, ok := r.jobs[target]; ok {
		return job, nil
	}

	rule, wc, err := r.registry.Match(target)
	if err != nil {
		return nil, err
	}

	task, err := rule.Instantiate(wc)
	if err != nil {
		return nil, err
	}

	r.push(target)
	defer r.pop(target)

	job := &Job{Task: task}
	seenDeps := make(map[*Job]bool)
	for _, input := range task.Inputs {
		dep, err := r.resolveInput(input)
		if err != nil {
			return nil, fmt.Errorf("resolving input of %q: %w", target, err)
		}
		if dep == nil {
			job.LeafInputs = append(job.LeafInputs, input)
			continue
		}
		if !seenDeps[dep] {
			seenDeps[dep] = true
			job.Deps = append(job.Deps, dep)
			dep.Dependents = append(dep.Dependents, job)
		}
	}

	for _, out := range task.Outputs {
		if existing, ok := r.jobs[out]; ok && existing != job {
			return nil, fmt.Errorf("%w: %q claimed by %q and %q",
				rules.ErrAmbiguousRule, out, existing.Task.Rule.Name(), rule.Name())
		}
		r.jobs[out] = job
	}
	return job, nil
}

// resolveInput resolves one input target. Inputs no rule produces are leaf
// files: they must already exist on disk, and yield a nil job.
func (r *Resolver) resolveInput(input string) (*Job, error) {
	job, err := r.Resolve(input)
	if err == nil {
		return job, nil
	}
	if !errors.Is(err, rules.ErrNoRule) {
		return nil, err
	}
	if _, statErr := os.Stat(input); statErr != nil {
		return nil, fmt.Errorf("%w: %q", ErrMissingInput, input)
	}
	return nil, nil
}

// Jobs returns every job resolved so far, deduplicated and sorted by ID
// for reproducible iteration.
func (r *Resolver) Jobs() []*Job {
	seen := make(map[*Job]bool)
	var out []*Job
	for _, job := range r.jobs {
		if !seen[job] {
			seen[job] = true
			out = append(out, job)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID() < out[j].ID() })
	return out
}

func (r *Resolver) push(target string) {
	r.stack = append(r.stack, target)
	r.onStack[target] = true
}

func (r *Resolver) pop(target string) {
	r.stack = r.stack[:len(r.stack)-1]
	delete(r.onStack, target)
}

// cycleError builds a *CycleError for the path from the target's earlier
// appearance on the stack back around to itself.
func (r *Resolver) cycleError(target string) error {
	start := 0
	for i, t := range r.stack {
		if t == target {
			start = i
			break
		}
	}
	path := append(append([]string{}, r.stack[start:]...), target)
	return &CycleError{Path: path}
}
