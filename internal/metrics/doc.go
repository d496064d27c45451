// Package metrics provides latency sample collection and summary statistics.
//
// A Collector accumulates per-call latency samples (in milliseconds) and
// operation counters across benchmark phases. Workers keep their samples
// locally during the hot loop and merge them with AddSamples after the
// join, so no locking happens while measurements are taken.
//
// # Basic Usage
//
//	m := metrics.NewCollector()
//	m.AddSamples(workerSamples)
//
//	summary, err := metrics.Summarize(m.Samples())
//	fmt.Printf("p95: %.2f ms\n", summary.P95)
//
// # Percentiles
//
// The 95th percentile is computed by ascending sort and truncating index
// floor(0.95*n), clamped to the valid range. This matches prior benchmark
// runs exactly; do not replace it with an interpolating method, since that
// would break comparability of recorded results.
package metrics
