package worker

import (
	"runtime"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"ycsb-kvs/internal/affinity"
	"ycsb-kvs/internal/logger"
)

// Job はワーカースレッドが実行する処理
type Job func(threadIdx int) error

// Config はワーカーグループの設定
type Config struct {
	Pin    bool            // コアへのピン留めを行う
	Layout affinity.Layout // ピン留め時のコア割り当て
}

// DefaultConfig はデフォルト設定を返す
func DefaultConfig() Config {
	return Config{
		Pin:    false,
		Layout: affinity.DefaultLayout(),
	}
}

// Group は固定数のワーカースレッドを管理する
type Group struct {
	config  Config
	eg      errgroup.Group
	started atomic.Int64
	running atomic.Int64

	doneOnce sync.Once
	done     chan error
}

// NewGroup は新しいワーカーグループを作成する
func NewGroup(config Config) *Group {
	return &Group{
		config: config,
		done:   make(chan error, 1),
	}
}

// Go は n 個のワーカーを起動する。threadIdx は 0 から順に割り当てる
func (g *Group) Go(n int, job Job) {
	base := int(g.started.Add(int64(n))) - n
	for i := range n {
		idx := base + i
		g.running.Add(1)
		g.eg.Go(func() error {
			defer g.running.Add(-1)

			// ピン留めしたスレッドは解放せず、ゴルーチン終了時に破棄させる
			runtime.LockOSThread()
			if !g.config.Pin {
				defer runtime.UnlockOSThread()
			} else if err := g.config.Layout.Pin(idx); err != nil {
				logger.Warn(logger.ThreadScope(idx), "running unpinned: %v", err)
			}
			return job(idx)
		})
	}
}

// Wait は全ワーカーの終了を待ち、最初のエラーを返す
func (g *Group) Wait() error {
	return g.eg.Wait()
}

// Done は全ワーカー終了時に結果を1回だけ送るチャネルを返す
func (g *Group) Done() <-chan error {
	g.doneOnce.Do(func() {
		go func() {
			g.done <- g.eg.Wait()
		}()
	})
	return g.done
}

// Started は起動したワーカー数を返す
func (g *Group) Started() int {
	return int(g.started.Load())
}

// Running は実行中のワーカー数を返す
func (g *Group) Running() int {
	return int(g.running.Load())
}
