// Package worker provides the fan-out primitive for concurrent benchmarks.
//
// A Group runs a fixed number of worker functions in parallel, one
// goroutine per worker, and joins on their completion. Workers share no
// state with each other; each receives its worker index and returns an
// error. Per-worker errors are collected and returned after the join so
// that one failing worker never interrupts the others.
//
// # Basic Usage
//
//	g := worker.NewGroup(10)
//	errs := g.Run(func(id int) error {
//	    // each worker owns its own connection and result slice
//	    return nil
//	})
//	for _, err := range errs {
//	    if err != nil {
//	        // report, samples from other workers are unaffected
//	    }
//	}
//
// There is no mid-run cancellation: a started worker runs to completion
// or failure.
package worker
