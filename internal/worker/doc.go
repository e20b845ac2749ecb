// Package worker runs a fixed group of OS-thread-bound worker goroutines.
//
// Each benchmark phase starts exactly as many workers as it has threads.
// Every worker goroutine is locked to its own OS thread for its whole life
// and, when pinning is enabled, bound to a CPU core through the affinity
// layout. The group is joined with Wait, or observed through Done.
//
// # Basic Usage
//
//	g := worker.NewGroup(worker.DefaultConfig())
//	g.Go(8, func(threadIdx int) error {
//	    // run one thread's share of the phase
//	    return nil
//	})
//	if err := g.Wait(); err != nil {
//	    // first error returned by any worker
//	}
//
// # Configuration
//
//	config := worker.Config{
//	    Pin:    true,
//	    Layout: affinity.Layout{CoreCount: 28},
//	}
//
// A worker that cannot be pinned logs a warning and keeps running unpinned.
package worker
