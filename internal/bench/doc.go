// Package bench implements the benchmark workloads.
//
// Two kinds of benchmark exist:
//
//   - Sequential issues a fixed number of commands one at a time over a
//     single persistent connection and reports throughput in operations
//     per second. Four variants are provided (SET, GET, LPUSH and a mixed
//     SET/GET workload), differing only in the commands they generate.
//   - Latency fans PING round trips out across N independent connections
//     running in parallel and returns the merged per-call latency samples
//     in milliseconds.
//
// Every command waits for its full response before the next one is sent;
// there is no pipelining. Each sequential run and each latency worker
// owns exactly one connection for its whole duration and closes it on
// completion or failure.
//
// # Basic Usage
//
//	b := bench.NewSet("127.0.0.1", 6379, "benchmark")
//	opsPerSec, err := b.Run(1000)
//
//	l := bench.NewLatency("127.0.0.1", 6379)
//	samples, workerErrs, err := l.Run(1000, 10)
package bench
