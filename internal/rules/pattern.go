package rules

import (
	"fmt"
	"regexp"
	"strings"
)

// Wildcards holds the bindings of wildcard names to the substrings they
// matched in a concrete target path.
type Wildcards map[string]string

// Pattern is a compiled path pattern. Literal text matches itself; every
// {name} placeholder matches exactly one path segment and binds it under
// that name. A pattern with no placeholders matches only its literal self.
type Pattern struct {
	raw string
	re  *regexp.Regexp
	// groups holds the wildcard name of each capture group, in order. A
	// name may repeat when the same wildcard appears more than once.
	groups []string
}

// Compile parses a raw pattern into a matchable Pattern. Placeholders must
// be non-empty identifiers; unbalanced or nested braces are rejected.
func Compile(raw string) (*Pattern, error) {
	var sb strings.Builder
	sb.WriteString("^")
	var groups []string

	rest := raw
	for {
		open := strings.IndexByte(rest, '{')
		if open < 0 {
			if strings.IndexByte(rest, '}') >= 0 {
				return nil, fmt.Errorf("%w: unbalanced '}' in %q", ErrBadPattern, raw)
			}
			sb.WriteString(regexp.QuoteMeta(rest))
			break
		}
		sb.WriteString(regexp.QuoteMeta(rest[:open]))
		rest = rest[open+1:]

		close := strings.IndexByte(rest, '}')
		if close < 0 {
			return nil, fmt.Errorf("%w: unbalanced '{' in %q", ErrBadPattern, raw)
		}
		name := rest[:close]
		if name == "" || strings.ContainsAny(name, "{}/") {
			return nil, fmt.Errorf("%w: bad placeholder %q in %q", ErrBadPattern, name, raw)
		}
		groups = append(groups, name)
		sb.WriteString(`([^/]+)`)
		rest = rest[close+1:]
	}
	sb.WriteString("$")

	re, err := regexp.Compile(sb.String())
	if err != nil {
		return nil, fmt.Errorf("%w: %q: %v", ErrBadPattern, raw, err)
	}
	return &Pattern{raw: raw, re: re, groups: groups}, nil
}

// MustCompile is like Compile but panics on error. Intended for patterns
// assembled from trusted literals.
func MustCompile(raw string) *Pattern {
	p, err := Compile(raw)
	if err != nil {
		panic(err)
	}
	return p
}

// Raw returns the original pattern text.
func (p *Pattern) Raw() string { return p.raw }

// HasWildcards reports whether the pattern contains any placeholder.
func (p *Pattern) HasWildcards() bool { return len(p.groups) > 0 }

// Names returns the distinct wildcard names in first-appearance order.
func (p *Pattern) Names() []string {
	seen := make(map[string]struct{}, len(p.groups))
	var names []string
	for _, g := range p.groups {
		if _, ok := seen[g]; ok {
			continue
		}
		seen[g] = struct{}{}
		names = append(names, g)
	}
	return names
}

// Match attempts to bind the pattern against a concrete target. A repeated
// wildcard must capture the same substring at every occurrence. The second
// return value reports whether the target matched at all.
func (p *Pattern) Match(target string) (Wildcards, bool) {
	m := p.re.FindStringSubmatch(target)
	if m == nil {
		return nil, false
	}
	wc := make(Wildcards, len(p.groups))
	for i, name := range p.groups {
		v := m[i+1]
		if prev, ok := wc[name]; ok && prev != v {
			return nil, false
		}
		wc[name] = v
	}
	return wc, true
}

// Substitute renders the pattern to a concrete path using the given
// bindings. Every placeholder must be bound or ErrUnboundWildcard is
// returned.
func (p *Pattern) Substitute(wc Wildcards) (string, error) {
	out := p.raw
	for _, name := range p.Names() {
		v, ok := wc[name]
		if !ok || v == "" {
			return "", fmt.Errorf("%w: {%s} in %q", ErrUnboundWildcard, name, p.raw)
		}
		out = strings.ReplaceAll(out, "{"+name+"}", v)
	}
	return out, nil
}
