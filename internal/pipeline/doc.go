// Package pipeline assembles the complete rule set for one configuration:
// feature sub-workflow rules, lookup fetches, per-sample drug-response
// extraction, per-run filtering and aggregation, model training, and
// report rendering. The assembled rules.Registry is handed to the graph
// resolver; pipeline actions either shell out to a registered program with
// logs captured per job, or run the in-process aggregation executors.
package pipeline
