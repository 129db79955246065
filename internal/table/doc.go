// Package table holds the tab-separated table type the aggregation and
// filtering executors operate on: ordered sample rows, named columns, and
// the joins that stitch per-feature and per-sample files into run-level
// matrices.
package table
