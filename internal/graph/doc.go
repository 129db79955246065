// Package graph is the task-graph engine. It resolves concrete file targets
// into jobs via the rule registry, memoizing so that a target resolved twice
// yields the same job, detecting dependency cycles, and producing a
// deterministic topological execution order. It also carries the two
// post-resolution passes that run before execution: the staleness plan,
// which marks jobs whose outputs are already up to date, and directory
// provisioning, which pre-creates every output and log directory.
package graph
