// Package trial runs benchmark trials across thread-count configurations.
//
// For every configuration the Orchestrator repeats a fixed number of trials.
// Each trial opens a fresh store, populates it from the load key stream,
// runs the benchmark phase over the run key stream, records one
// ops/second/thread sample into the ResultTable, and destroys the store.
//
// # Basic Usage
//
//	config := trial.DefaultConfig()
//	config.Workload = workload.A5050
//	config.Threads = 8
//
//	o, err := trial.New(config, loadKeys, txnKeys)
//	results, err := o.Run(ctx)
//	fmt.Print(results.Report())
//
// # Presets
//
// Named configurations are available through Presets:
//
//   - default: the full sweep with three trials per configuration
//   - quick:   one trial of 1, 2 and 4 threads populated by 4 threads
//   - single:  one configuration of 48 threads, three trials
//
// # Progress
//
// While a phase runs, a ticker logs the threads still working and the
// cursor position every PollInterval. Events for phase start and end,
// thread completion and trial results go to the event bus when one is set.
// Cancelling the context stops the sweep before the next trial starts; a
// running phase always finishes.
package trial
