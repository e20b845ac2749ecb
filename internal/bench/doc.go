// Package bench drives store sessions through one benchmark phase.
//
// A Run is the shared context of a phase: the work cursor that hands out key
// chunks, the threads-remaining counter, and the aggregator that collects
// every thread's totals. Each worker thread calls Run.Thread, which opens a
// session, claims chunks until the key stream is exhausted, keeps the
// session's epoch fresh by calling Refresh and CompletePending at fixed key
// intervals, then drains, stops the session and records its totals exactly
// once.
//
// # Phases
//
// A populate Run upserts every key of the load stream with a fixed value.
// A benchmark Run asks its workload Policy which operation to issue for each
// key of the run stream.
//
//	run, err := bench.NewRun(bench.RunConfig{
//	    Phase:  events.PhaseBenchmark,
//	    Keys:   txnKeys,
//	    Params: bench.DefaultParams(),
//	    Policy: workload.ReadUpsert5050,
//	})
//	run.Reset(threads)
//	group.Go(threads, func(idx int) error { return run.Thread(s, idx) })
//
// # Counting
//
// Reads count regardless of their status. Upserts always count as writes.
// Read-modify-writes count as writes only when they complete synchronously.
// Throughput is (reads + writes) divided by the sum of per-thread elapsed
// seconds.
package bench
