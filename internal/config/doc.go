// Package config loads the declarative pipeline description from HCL: the
// storage prefix, the program registry, the named feature sets with their
// output templates, the named analysis runs, and the lookup-table
// definitions. Path templates are resolved against the absolute prefix
// exactly once at load time, so no relative-vs-absolute ambiguity survives
// into the rest of the pipeline. The loaded Config is immutable.
package config
