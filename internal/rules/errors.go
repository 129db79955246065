package rules

import "errors"

var (
	// ErrNoRule is returned when a target matches no registered rule.
	ErrNoRule = errors.New("no producing rule for target")

	// ErrAmbiguousRule is returned when a target matches more than one
	// registered rule. The wrapping error names both rules.
	ErrAmbiguousRule = errors.New("target matches more than one rule")

	// ErrBadPattern is returned for malformed wildcard patterns.
	ErrBadPattern = errors.New("invalid wildcard pattern")

	// ErrUnboundWildcard is returned when substituting a pattern with an
	// incomplete set of wildcard bindings.
	ErrUnboundWildcard = errors.New("unbound wildcard")
)
