// Package rules defines wildcarded production rules and the registry that
// maps a concrete file target back to the unique rule able to produce it.
//
// A rule's output patterns contain named wildcards written as {name}, each
// binding exactly one path segment. Matching a target against the registry
// either yields one rule plus its wildcard bindings, or fails loudly: a
// target with no producer is ErrNoRule, a target claimed by more than one
// rule is ErrAmbiguousRule. The graph package builds on this to resolve
// targets into executable jobs.
package rules
