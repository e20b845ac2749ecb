// Package partition hands out contiguous chunks of a key stream to worker
// threads.
//
// A Cursor is a single shared byte offset that is atomically advanced by a
// fixed chunk size. Every call to TakeChunk returns a range no other call
// will ever see, so threads can split a phase between themselves without
// locks or allocation:
//
//	c := partition.NewCursor(3200 * 8)
//	for {
//	    start, end := c.TakeChunk()
//	    if partition.Exhausted(start, 8, total) {
//	        break
//	    }
//	    for off := start; off < end; off += 8 {
//	        // process key at off
//	    }
//	}
//
// The boundary is chunk-granular: a thread that claims a chunk processes all
// of it. Configuration guarantees the chunk size divides the stream length,
// so the last valid chunk ends exactly at the end of the stream.
package partition
