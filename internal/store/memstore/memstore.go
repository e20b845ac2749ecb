package memstore

import (
	"fmt"
	"io"
	"math"
	"sync"
	"sync/atomic"

	"github.com/cockroachdb/errors"
	"github.com/spaolacci/murmur3"

	"ycsb-kvs/internal/store"
	"ycsb-kvs/internal/store/epoch"
)

const (
	// Kind はストア種別名
	Kind = "mem"

	maxSessions      = 512
	minShards        = 16
	maxShards        = 1 << 12
	keysPerShard     = 1 << 16
	maxShardPrealloc = 1 << 16
	// recordBytes はログ容量計算に使うレコードあたりのバイト数
	recordBytes = 64
	// logPages はメモリ上のログを何ページに分けるか
	logPages = 64
)

func init() {
	store.Register(Kind, func(opts store.Options) (store.Store, error) {
		return Open(opts)
	})
}

// ErrSessionsActive はセッションが残ったまま破棄しようとした場合のエラー
var ErrSessionsActive = errors.New("sessions still active")

type record struct {
	value []byte
	addr  uint64
}

// shard はロックで保護されたハッシュインデックスの断片
type shard struct {
	mu   sync.RWMutex
	data map[string]*record
}

// Store はインメモリのエポック保護KVS
type Store struct {
	opts   store.Options
	shards []shard
	mask   uint64
	epoch  *epoch.Table

	tail atomic.Uint64 // 次に割り当てるログアドレス
	head atomic.Uint64 // これ未満のアドレスはコールド
	size atomic.Uint64

	memRecords  uint64
	pageRecords uint64

	sessions  atomic.Int64
	destroyed atomic.Bool
}

// Stats はストアの内部状態
type Stats struct {
	Tail            uint64
	Head            uint64
	Epoch           uint64
	SafeEpoch       uint64
	DeferredActions int
	Sessions        int64
	Size            uint64
}

// Ensure Store implements store.Store
var _ store.Store = (*Store)(nil)

// Open は新しいストアを作成する
func Open(opts store.Options) (*Store, error) {
	if opts.LogSize == 0 {
		return nil, errors.New("memstore: log size must be positive")
	}

	shards := store.NextPowerOfTwo(opts.CapacityHint / keysPerShard)
	shards = min(max(shards, minShards), maxShards)
	prealloc := min(opts.CapacityHint/shards, maxShardPrealloc)

	memRecords := max(opts.LogSize/recordBytes, 1)
	s := &Store{
		opts:        opts,
		shards:      make([]shard, shards),
		mask:        shards - 1,
		epoch:       epoch.New(maxSessions),
		memRecords:  memRecords,
		pageRecords: max(memRecords/logPages, 1),
	}
	for i := range s.shards {
		s.shards[i].data = make(map[string]*record, prealloc)
	}
	return s, nil
}

func (s *Store) shardFor(key []byte) *shard {
	return &s.shards[murmur3.Sum64(key)&s.mask]
}

// allocate はログ末尾にアドレスを割り当てる
// ページが埋まったらエポックを進め、ヘッドの移動を遅延登録する
func (s *Store) allocate() uint64 {
	addr := s.tail.Add(1) - 1
	if (addr+1)%s.pageRecords == 0 && addr+1 > s.memRecords {
		target := addr + 1 - s.memRecords
		s.epoch.Bump(func() { s.advanceHead(target) })
	}
	return addr
}

func (s *Store) advanceHead(target uint64) {
	for {
		cur := s.head.Load()
		if target <= cur || s.head.CompareAndSwap(cur, target) {
			return
		}
	}
}

func (s *Store) isCold(r *record) bool {
	return r.addr < s.head.Load()
}

// StartSession は新しいセッションを開始する
func (s *Store) StartSession() (store.Session, error) {
	if s.destroyed.Load() {
		return nil, errors.New("memstore: store destroyed")
	}
	slot, err := s.epoch.Acquire()
	if err != nil {
		return nil, errors.Wrap(err, "memstore: start session")
	}
	s.sessions.Add(1)
	return newSession(s, slot), nil
}

// Size は格納キー数を返す
func (s *Store) Size() uint64 {
	return s.size.Load()
}

// Stats は内部状態のスナップショットを返す
func (s *Store) Stats() Stats {
	return Stats{
		Tail:            s.tail.Load(),
		Head:            s.head.Load(),
		Epoch:           s.epoch.Current(),
		SafeEpoch:       s.epoch.Safe(),
		DeferredActions: s.epoch.Pending(),
		Sessions:        s.sessions.Load(),
		Size:            s.size.Load(),
	}
}

// DumpDistribution はシャードごとのキー分布を出力する
func (s *Store) DumpDistribution(w io.Writer) {
	var (
		minKeys = math.MaxInt
		maxKeys int
		total   int
		buckets [8]int
	)
	for i := range s.shards {
		sh := &s.shards[i]
		sh.mu.RLock()
		n := len(sh.data)
		sh.mu.RUnlock()

		minKeys = min(minKeys, n)
		maxKeys = max(maxKeys, n)
		total += n
	}
	avg := float64(total) / float64(len(s.shards))
	for i := range s.shards {
		sh := &s.shards[i]
		sh.mu.RLock()
		n := len(sh.data)
		sh.mu.RUnlock()
		buckets[bucketFor(float64(n), avg)]++
	}

	st := s.Stats()
	_, _ = fmt.Fprintf(w, "memstore: %d shards, %d keys (min %d, avg %.1f, max %d per shard)\n",
		len(s.shards), total, minKeys, avg, maxKeys)
	labels := [8]string{"<25%", "<50%", "<75%", "<100%", "<125%", "<150%", "<200%", ">=200%"}
	for i, n := range buckets {
		_, _ = fmt.Fprintf(w, "  %-7s of avg: %d shards\n", labels[i], n)
	}
	_, _ = fmt.Fprintf(w, "  log: tail %d, head %d, page %d records; epoch %d (safe %d), %d deferred\n",
		st.Tail, st.Head, s.pageRecords, st.Epoch, st.SafeEpoch, st.DeferredActions)
}

func bucketFor(n, avg float64) int {
	if avg == 0 {
		return 0
	}
	r := n / avg
	switch {
	case r < 0.25:
		return 0
	case r < 0.5:
		return 1
	case r < 0.75:
		return 2
	case r < 1:
		return 3
	case r < 1.25:
		return 4
	case r < 1.5:
		return 5
	case r < 2:
		return 6
	default:
		return 7
	}
}

// Destroy はストアを破棄する。ディスク上の領域は持たない
func (s *Store) Destroy() error {
	if n := s.sessions.Load(); n > 0 {
		return errors.Wrapf(ErrSessionsActive, "memstore: %d sessions", n)
	}
	if s.destroyed.Swap(true) {
		return nil
	}
	for i := range s.shards {
		sh := &s.shards[i]
		sh.mu.Lock()
		sh.data = nil
		sh.mu.Unlock()
	}
	s.size.Store(0)
	return nil
}

// upsert はキーに値を書き込む
func (s *Store) upsert(key, value []byte) store.Status {
	v := make([]byte, len(value))
	copy(v, value)
	addr := s.allocate()

	sh := s.shardFor(key)
	sh.mu.Lock()
	if r, ok := sh.data[string(key)]; ok {
		r.value, r.addr = v, addr
	} else {
		sh.data[string(key)] = &record{value: v, addr: addr}
		s.size.Add(1)
	}
	sh.mu.Unlock()
	return store.StatusOK
}

// lookup はキーの現在値を返す。cold はレコードがヘッド未満かどうか
func (s *Store) lookup(key []byte) (value []byte, found, cold bool) {
	sh := s.shardFor(key)
	sh.mu.RLock()
	r, ok := sh.data[string(key)]
	if ok {
		value, cold = r.value, s.isCold(r)
	}
	sh.mu.RUnlock()
	return value, ok, cold
}

// rmw はマージ関数でレコードを更新する
// allowCold が false でレコードがコールドなら StatusPending を返す
func (s *Store) rmw(key, modification []byte, merge store.MergeFunc, allowCold bool) store.Status {
	sh := s.shardFor(key)
	if !allowCold {
		if _, found, cold := s.lookup(key); found && cold {
			return store.StatusPending
		}
	}

	// アドレス割り当てはエポック操作を伴うためロック外で行う
	addr := s.allocate()

	sh.mu.Lock()
	defer sh.mu.Unlock()

	r, ok := sh.data[string(key)]
	current := make([]byte, len(modification))
	if ok {
		current = r.value
	}
	dst := make([]byte, merge(current, modification, nil))
	merge(current, modification, dst)

	if ok {
		r.value, r.addr = dst, addr
	} else {
		sh.data[string(key)] = &record{value: dst, addr: addr}
		s.size.Add(1)
	}
	return store.StatusOK
}
