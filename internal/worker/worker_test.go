package worker

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ycsb-kvs/internal/affinity"
)

func TestGroupRunsEveryThreadOnce(t *testing.T) {
	g := NewGroup(DefaultConfig())

	var mu sync.Mutex
	seen := make(map[int]int)
	g.Go(8, func(idx int) error {
		mu.Lock()
		seen[idx]++
		mu.Unlock()
		return nil
	})
	require.NoError(t, g.Wait())

	assert.Len(t, seen, 8)
	for idx := range 8 {
		assert.Equal(t, 1, seen[idx], "thread %d", idx)
	}
	assert.Equal(t, 8, g.Started())
	assert.Zero(t, g.Running())
}

func TestGroupIndicesContinueAcrossCalls(t *testing.T) {
	g := NewGroup(DefaultConfig())
	var maxIdx atomic.Int64
	job := func(idx int) error {
		for {
			cur := maxIdx.Load()
			if int64(idx) <= cur || maxIdx.CompareAndSwap(cur, int64(idx)) {
				return nil
			}
		}
	}
	g.Go(2, job)
	g.Go(3, job)
	require.NoError(t, g.Wait())
	assert.Equal(t, int64(4), maxIdx.Load())
}

func TestGroupReturnsFirstError(t *testing.T) {
	g := NewGroup(DefaultConfig())
	boom := errors.New("boom")

	var finished atomic.Int32
	g.Go(4, func(idx int) error {
		defer finished.Add(1)
		if idx == 2 {
			return boom
		}
		return nil
	})
	err := g.Wait()
	assert.True(t, errors.Is(err, boom))
	// 他のスレッドはキャンセルされず最後まで走る
	assert.Equal(t, int32(4), finished.Load())
}

func TestGroupDone(t *testing.T) {
	g := NewGroup(DefaultConfig())
	release := make(chan struct{})
	g.Go(2, func(int) error {
		<-release
		return nil
	})

	done := g.Done()
	select {
	case <-done:
		t.Fatal("group finished before workers were released")
	case <-time.After(20 * time.Millisecond):
	}
	assert.Equal(t, 2, g.Running())

	close(release)
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for group")
	}
	// 2回目の Done 呼び出しは同じチャネルを返す
	assert.Equal(t, done, g.Done())
}

func TestGroupPinnedWorkersStillRun(t *testing.T) {
	// ピン留めに失敗しても処理は続行する
	g := NewGroup(Config{Pin: true, Layout: affinity.Layout{CoreCount: 1 << 20}})
	var ran atomic.Int32
	g.Go(2, func(int) error {
		ran.Add(1)
		return nil
	})
	require.NoError(t, g.Wait())
	assert.Equal(t, int32(2), ran.Load())
}
