package bench

import (
	"math/rand"
	"sync/atomic"
	"time"

	"github.com/cockroachdb/errors"

	"ycsb-kvs/internal/events"
	"ycsb-kvs/internal/keys"
	"ycsb-kvs/internal/logger"
	"ycsb-kvs/internal/metrics"
	"ycsb-kvs/internal/partition"
	"ycsb-kvs/internal/store"
	"ycsb-kvs/internal/workload"
)

// ErrScanUnsupported はスキャン操作が選ばれた
var ErrScanUnsupported = errors.New("scan currently not supported")

const populateByte = 42

var (
	// upsertValue は全スレッドで共有する読み取り専用の値
	upsertValue = []byte{populateByte, 0, 0, 0, 0, 0, 0, 0}
	// rmwModification は RMW の差分（全ゼロ）
	rmwModification = make([]byte, 8)
)

// RunConfig はフェーズの設定
type RunConfig struct {
	Phase      events.Phase
	Keys       *keys.Buffer
	Params     Params
	Policy     workload.Policy     // ベンチマーク時のみ使用
	Seed       int64               // 0 ならランダム
	Trial      int                 // イベント用
	Aggregator *metrics.Aggregator // nil なら新規作成
	Events     events.Publisher    // nil 可
	Logger     *logger.Logger      // nil なら logger.Default
}

// Run は1フェーズ分の共有状態
type Run struct {
	config    RunConfig
	cursor    *partition.Cursor
	remaining atomic.Int64
	agg       *metrics.Aggregator
	log       *logger.Logger
}

// NewRun は新しい Run を作成する
func NewRun(config RunConfig) (*Run, error) {
	if config.Keys == nil {
		return nil, errors.New("run requires a key buffer")
	}
	if uint64(config.Keys.Width()) != config.Params.Stride {
		return nil, errors.Wrapf(ErrInvalidParams, "key width %d does not match stride %d",
			config.Keys.Width(), config.Params.Stride)
	}
	if err := config.Params.Validate(config.Keys.Count(), config.Keys.Count()); err != nil {
		return nil, err
	}
	switch config.Phase {
	case events.PhasePopulate:
	case events.PhaseBenchmark:
		if config.Policy == nil {
			return nil, errors.New("benchmark run requires a workload policy")
		}
	default:
		return nil, errors.Newf("unknown phase %q", config.Phase)
	}
	if config.Seed == 0 {
		config.Seed = time.Now().UnixNano()
	}
	if config.Aggregator == nil {
		config.Aggregator = metrics.NewAggregator()
	}
	if config.Logger == nil {
		config.Logger = logger.Default
	}
	return &Run{
		config: config,
		cursor: partition.NewCursor(config.Params.ChunkSize),
		agg:    config.Aggregator,
		log:    config.Logger,
	}, nil
}

// Reset はフェーズ開始前にカーソル・残りスレッド数・集計をリセットする
func (r *Run) Reset(threads int) {
	r.cursor.Reset()
	r.remaining.Store(int64(threads))
	r.agg.Reset()
}

// Remaining はまだキーを処理しているスレッド数を返す
func (r *Run) Remaining() int64 {
	return r.remaining.Load()
}

// Position は現在のカーソル位置（バイト）を返す
func (r *Run) Position() uint64 {
	return r.cursor.Position()
}

// Aggregator は集計器を返す
func (r *Run) Aggregator() *metrics.Aggregator {
	return r.agg
}

// Phase はフェーズ名を返す
func (r *Run) Phase() events.Phase {
	return r.config.Phase
}

// Seed は乱数の基準シードを返す
func (r *Run) Seed() int64 {
	return r.config.Seed
}

// Finalize は ops/second/thread を返す
func (r *Run) Finalize() float64 {
	return r.agg.Finalize()
}

// readDone は読み込み結果を捨てる
func readDone(any, []byte, store.Status) {}

// Thread はワーカースレッド threadIdx の処理を実行する
func (r *Run) Thread(s store.Store, threadIdx int) error {
	scope := logger.ThreadScope(threadIdx)
	p := r.config.Params
	buf := r.config.Keys
	total := buf.Count()

	var rng *rand.Rand
	if r.config.Phase == events.PhaseBenchmark {
		rng = rand.New(rand.NewSource(r.config.Seed + int64(threadIdx)))
	}

	start := time.Now()
	var reads, writes uint64

	sess, err := s.StartSession()
	if err != nil {
		r.remaining.Add(-1)
		return errors.Wrapf(err, "thread %d: start session", threadIdx)
	}
	r.log.Debug(scope, "session %s started", sess.ID())

	var opErr error
loop:
	for {
		chunkStart, chunkEnd := r.cursor.TakeChunk()
		if partition.Exhausted(chunkStart, p.Stride, total) {
			break
		}
		for idx := chunkStart; idx < chunkEnd; idx += p.Stride {
			if idx%p.RefreshInterval == 0 {
				sess.Refresh()
				if idx%p.CompletePendingInterval == 0 {
					sess.CompletePending(false)
				}
			}

			key := buf.Key(idx)
			op := workload.OpUpsert
			if rng != nil {
				op = r.config.Policy(rng)
			}

			switch op {
			case workload.OpInsert, workload.OpUpsert:
				sess.Upsert(key, upsertValue)
				writes++
			case workload.OpRead:
				sess.Read(key, readDone, nil)
				reads++
			case workload.OpReadModifyWrite:
				if sess.ReadModifyWrite(key, rmwModification, workload.Merge) == store.StatusOK {
					writes++
				}
			case workload.OpScan:
				opErr = errors.Wrapf(ErrScanUnsupported, "thread %d", threadIdx)
				break loop
			default:
				opErr = errors.Newf("thread %d: unknown op %d", threadIdx, op)
				break loop
			}
		}
	}
	r.remaining.Add(-1)

	sess.CompletePending(true)
	sess.Stop()

	elapsed := time.Since(start)
	if opErr != nil {
		r.log.Error(scope, "%v", opErr)
		return opErr
	}

	r.agg.Record(threadIdx, elapsed, reads, writes)
	r.log.Info(scope, "Finished thread %d : %d reads, %d writes, in %.2f seconds.",
		threadIdx, reads, writes, elapsed.Seconds())
	if r.config.Events != nil {
		r.config.Events.Publish(events.NewThreadFinishEvent(r.config.Phase, threadIdx, reads, writes, elapsed))
	}
	return nil
}
