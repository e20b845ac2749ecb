// Package workload defines the YCSB operation mix and the read-modify-write
// merge function.
//
// A Policy maps a thread-local random generator to the next operation. Four
// policies exist, selected once per run by workload id:
//
//	0  A: 50% Read / 50% Upsert
//	1  100% Read-Modify-Write
//	2  100% Upsert
//	3  100% Read
//
// Policies are pure functions of their generator; each worker thread owns its
// own *rand.Rand so there is no shared generator state.
package workload
