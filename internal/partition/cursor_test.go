package partition

import (
	"sync"
	"testing"

	"github.com/RoaringBitmap/roaring/v2"
	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const stride = 8

func TestTakeChunkSequential(t *testing.T) {
	c := NewCursor(64)

	start, end := c.TakeChunk()
	assert.Equal(t, uint64(0), start)
	assert.Equal(t, uint64(64), end)

	start, end = c.TakeChunk()
	assert.Equal(t, uint64(64), start)
	assert.Equal(t, uint64(128), end)
	assert.Equal(t, uint64(128), c.Position())

	c.Reset()
	assert.Equal(t, uint64(0), c.Position())
	start, _ = c.TakeChunk()
	assert.Equal(t, uint64(0), start)
}

func TestNewCursorZeroChunk(t *testing.T) {
	assert.Panics(t, func() { NewCursor(0) })
}

func TestExhausted(t *testing.T) {
	// 4 keys of 8 bytes
	assert.False(t, Exhausted(0, stride, 4))
	assert.False(t, Exhausted(24, stride, 4))
	assert.True(t, Exhausted(32, stride, 4))
	assert.True(t, Exhausted(1024, stride, 4))
}

func TestChunkCount(t *testing.T) {
	assert.Equal(t, uint64(4), ChunkCount(16, stride, 32))
	assert.Equal(t, uint64(1), ChunkCount(1, stride, 32))
	assert.Equal(t, uint64(0), ChunkCount(0, stride, 32))
}

func TestTakeChunkUniqueUnderContention(t *testing.T) {
	const (
		threads  = 16
		perChunk = stride * 4
		claims   = 5000
	)
	c := NewCursor(perChunk)

	starts := make([][]uint64, threads)
	var wg sync.WaitGroup
	for i := range threads {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			local := make([]uint64, 0, claims)
			for range claims {
				start, _ := c.TakeChunk()
				local = append(local, start)
			}
			starts[i] = local
		}(i)
	}
	wg.Wait()

	seen := make(map[uint64]struct{}, threads*claims)
	for _, local := range starts {
		for _, s := range local {
			_, dup := seen[s]
			require.False(t, dup, "start %d issued twice", s)
			require.Zero(t, s%perChunk)
			seen[s] = struct{}{}
		}
	}
	assert.Len(t, seen, threads*claims)
	assert.Equal(t, uint64(threads*claims*perChunk), c.Position())
}

// drain runs threads workers over a stream of total keys and returns one
// bitmap of visited key indices per worker along with the number of valid
// chunks handed out.
func drain(c *Cursor, threads int, total uint64) ([]*roaring.Bitmap, uint64) {
	visited := make([]*roaring.Bitmap, threads)
	var chunks uint64
	var mu sync.Mutex
	var wg sync.WaitGroup
	for i := range threads {
		visited[i] = roaring.New()
		wg.Add(1)
		go func(bm *roaring.Bitmap) {
			defer wg.Done()
			var mine uint64
			for {
				start, end := c.TakeChunk()
				if Exhausted(start, stride, total) {
					break
				}
				mine++
				for off := start; off < end; off += stride {
					bm.Add(uint32(off / stride))
				}
			}
			mu.Lock()
			chunks += mine
			mu.Unlock()
		}(visited[i])
	}
	wg.Wait()
	return visited, chunks
}

func TestPropertyExactlyOnceCoverage(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 50
	properties := gopter.NewProperties(parameters)

	properties.Property("every key index is visited by exactly one thread", prop.ForAll(
		func(keysPerChunk, chunks, threads int) bool {
			chunkSize := uint64(keysPerChunk * stride)
			total := uint64(keysPerChunk * chunks)

			c := NewCursor(chunkSize)
			visited, issued := drain(c, threads, total)

			if issued != ChunkCount(total, stride, chunkSize) {
				return false
			}

			union := roaring.New()
			for _, bm := range visited {
				if union.Intersects(bm) {
					return false
				}
				union.Or(bm)
			}
			if union.GetCardinality() != total {
				return false
			}
			return union.Maximum() == uint32(total-1)
		},
		gen.IntRange(1, 64),
		gen.IntRange(1, 200),
		gen.IntRange(1, 8),
	))

	properties.TestingRun(t)
}
