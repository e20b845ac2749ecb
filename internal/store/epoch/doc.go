// Package epoch implements a lightweight epoch protection table.
//
// Each session owns one cache-line sized slot holding the epoch it last
// observed. Bumping the global epoch may attach a deferred action; the action
// runs only once every active slot has refreshed past that epoch, which is
// what makes periodic Refresh calls mandatory for every session.
package epoch
