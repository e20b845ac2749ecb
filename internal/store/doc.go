// Package store defines the contract a key-value store presents to the
// benchmark driver.
//
// A Store is opened once per trial and hands out Sessions, one per worker
// thread. All data operations go through a Session, which also carries the
// store's cooperative protocol:
//
//   - Refresh must be called periodically by every active session so the
//     store can advance its epoch and reclaim memory.
//   - CompletePending(false) drains whatever asynchronous work has finished;
//     CompletePending(true) blocks until everything this session issued is
//     done.
//
// Status values are completion signals rather than errors: StatusPending
// means the operation will finish during a later CompletePending call.
//
// Two implementations live in subpackages: memstore (in-memory, epoch
// protected) and pebblestore (on disk, backed by Pebble). Open selects one by
// kind name.
package store
