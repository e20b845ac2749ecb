// Package affinity pins worker threads to CPU cores.
//
// MapCore spreads consecutive worker indices across physical cores first and
// hyperthread siblings second, assuming the common Linux numbering where
// sibling k of core c is c + coreCount. Pin applies the mapping to the
// calling OS thread; callers must have locked the goroutine to its thread.
// Pinning is only implemented on Linux and is a no-op elsewhere.
package affinity
