package metrics

import (
	"sync/atomic"
	"time"
)

const nanosPerSecond = 1e9

// Aggregator はスレッドごとの結果を合算する
type Aggregator struct {
	totalDuration atomic.Uint64 // ナノ秒
	totalReads    atomic.Uint64
	totalWrites   atomic.Uint64
	threads       atomic.Uint64
}

// NewAggregator は新しい Aggregator を作成する
func NewAggregator() *Aggregator {
	return &Aggregator{}
}

// Record は1スレッド分の結果を加算する
// threadIdx はログ用で、集計には残らない
func (a *Aggregator) Record(_ int, elapsed time.Duration, reads, writes uint64) {
	a.totalDuration.Add(uint64(elapsed.Nanoseconds()))
	a.totalReads.Add(reads)
	a.totalWrites.Add(writes)
	a.threads.Add(1)
}

// Reset は全ての合計をゼロに戻す
func (a *Aggregator) Reset() {
	a.totalDuration.Store(0)
	a.totalReads.Store(0)
	a.totalWrites.Store(0)
	a.threads.Store(0)
}

// Finalize は ops/second/thread を返す
// (reads + writes) / (スレッド時間の合計 / 1e9)
func (a *Aggregator) Finalize() float64 {
	d := a.totalDuration.Load()
	if d == 0 {
		return 0
	}
	ops := float64(a.totalReads.Load()) + float64(a.totalWrites.Load())
	return ops / (float64(d) / nanosPerSecond)
}

// Snapshot は集計値のスナップショット
type Snapshot struct {
	Threads       uint64
	TotalDuration time.Duration
	TotalReads    uint64
	TotalWrites   uint64
	OpsPerSecond  float64 // ops/second/thread
}

// Ops は読み書きの合計を返す
func (s Snapshot) Ops() uint64 {
	return s.TotalReads + s.TotalWrites
}

// Snapshot は現在の集計値を返す
func (a *Aggregator) Snapshot() Snapshot {
	return Snapshot{
		Threads:       a.threads.Load(),
		TotalDuration: time.Duration(a.totalDuration.Load()),
		TotalReads:    a.totalReads.Load(),
		TotalWrites:   a.totalWrites.Load(),
		OpsPerSecond:  a.Finalize(),
	}
}
