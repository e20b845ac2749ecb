// Package pebblestore adapts a Pebble LSM database to the store contract.
//
// Pebble has no session or epoch protocol, so Refresh is a no-op and every
// operation completes synchronously. Read-modify-write is implemented as
// get, merge and set under a lock stripe chosen by key hash. Destroy closes
// the database and removes its directory.
package pebblestore
