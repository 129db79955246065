package rules

import (
	"fmt"
	"sort"
)

// Registry holds the full set of production rules for one pipeline. It is
// constructed once at configuration-load time and passed explicitly to the
// graph resolver; there is no ambient global rule table.
type Registry struct {
	rules  []*Rule
	byName map[string]*Rule
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{byName: make(map[string]*Rule)}
}

// Register adds a rule. Rule names are unique within a registry.
func (reg *Registry) Register(r *Rule) error {
	if _, exists := reg.byName[r.name]; exists {
		return fmt.Errorf("rule %q already registered", r.name)
	}
	reg.byName[r.name] = r
	reg.rules = append(reg.rules, r)
	return nil
}

// MustRegister is like Register but panics on error. Intended for rule
// sets assembled from validated configuration.
func (reg *Registry) MustRegister(r *Rule) {
	if err := reg.Register(r); err != nil {
		panic(err)
	}
}

// Rule returns the registered rule with the given name, or nil.
func (reg *Registry) Rule(name string) *Rule { return reg.byName[name] }

// Rules returns all registered rules sorted by name.
func (reg *Registry) Rules() []*Rule {
	out := make([]*Rule, len(reg.rules))
	copy(out, reg.rules)
	sort.Slice(out, func(i, j int) bool { return out[i].name < out[j].name })
	return out
}

// Match finds the unique rule producing the given target and the wildcard
// bindings of the match. A target matched by no rule fails with ErrNoRule;
// a target matched by more than one rule fails with ErrAmbiguousRule
// naming both claimants.
func (reg *Registry) Match(target string) (*Rule, Wildcards, error) {
	var (
		found   *Rule
		foundWC Wildcards
	)
	for _, r := range reg.Rules() {
		wc, ok := r.Match(target)
		if !ok {
			continue
		}
		if found != nil {
			return nil, nil, fmt.Errorf("%w: %q claimed by %q and %q",
				ErrAmbiguousRule, target, found.name, r.name)
		}
		found, foundWC = r, wc
	}
	if found == nil {
		return nil, nil, fmt.Errorf("%w: %q", ErrNoRule, target)
	}
	return found, foundWC, nil
}
