// Package memstore is an in-memory, epoch-protected key-value store that
// implements the store contract.
//
// Keys live in a sharded hash index (murmur3 on the key bytes). Every write
// appends a new version at the tail of a logical log. Once a log page fills,
// the store bumps its epoch and defers moving the in-memory head forward;
// records below the head are treated as cold, and reads or read-modify-writes
// that touch them return StatusPending until the session calls
// CompletePending.
//
// The head only moves after every active session has refreshed past the
// bump. A session that stops refreshing therefore pins the whole log in
// memory and lets the deferred-action backlog grow, which is the failure the
// driver's refresh cadence exists to prevent.
package memstore
