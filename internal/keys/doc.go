// Package keys loads and generates the fixed-width key streams that drive a
// benchmark.
//
// A Buffer is an immutable, contiguous sequence of keys of equal width (8
// bytes in the reference workload). Keys are addressed by byte offset, which
// is what the work partitioner hands out:
//
//	b, err := keys.Load("load.dat", 250_000_000, keys.DefaultWidth)
//	if errors.Is(err, keys.ErrCountMismatch) {
//	    // fatal: the file does not hold the configured number of keys
//	}
//	k := b.Key(off)
//
// Files may be stored raw or compressed; the codec is chosen by extension
// (.zst, .lz4, .sz). Sequential, Uniform and Zipfian build buffers for the
// gen command and for tests.
package keys
