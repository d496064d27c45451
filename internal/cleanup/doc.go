// Package cleanup removes the synthetic keys the benchmarks created.
//
// The Scanner lists the server's keys, selects those carrying the
// benchmark namespace prefix and deletes at most DeleteLimit of them
// sequentially over a single connection. The bound keeps the cleanup
// phase's cost predictable on a heavily populated keyspace; matches
// beyond the limit are ignored, never an error.
//
// Cleanup is strictly best-effort: every failure during listing or
// deletion is logged as a warning and never propagated, so a broken
// cleanup can not fail an otherwise successful benchmark run.
package cleanup
