// Package metrics accumulates benchmark throughput across worker threads.
//
// An Aggregator keeps three process-wide totals: summed per-thread elapsed
// time, reads completed and writes completed. Each worker calls Record once,
// after it has finished its share of a phase; nothing per thread is retained.
//
// # Basic Usage
//
//	agg := metrics.NewAggregator()
//	agg.Reset() // at the start of every trial
//
//	// in each worker, after the session is stopped
//	agg.Record(threadIdx, time.Since(start), reads, writes)
//
//	// after all workers have been joined
//	opsPerSecondPerThread := agg.Finalize()
//
// # Throughput Definition
//
// Finalize divides the total operation count by the sum of per-thread
// durations, not by the wall-clock length of the phase. The result is
// throughput per unit of thread-time ("ops/second/thread") and is kept in
// this exact form so results stay comparable with earlier runs.
//
// # Thread Safety
//
// Record uses atomic adds only and is safe for concurrent use. Finalize must
// run after the workers have been joined.
package metrics
