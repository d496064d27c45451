// Package harness orchestrates a full benchmark run.
//
// A run consists of a liveness probe followed by the four sequential
// throughput benchmarks, the concurrent latency benchmark and the key
// cleanup scan. Phase failures are recorded per phase and never stop
// the remaining phases; only a failed liveness probe aborts the run
// before any benchmark executes.
//
// # Basic Usage
//
//	cfg := harness.DefaultConfig()
//	cfg.Iterations = 5000
//
//	h := harness.New(cfg)
//	result, err := h.Run(ctx)
//	if err != nil {
//	    // server unreachable, nothing was run
//	}
//	fmt.Println(result.Report())
package harness
