package pebblestore

import (
	"fmt"
	"io"
	"os"
	"sync"
	"sync/atomic"

	"github.com/cockroachdb/errors"
	"github.com/cockroachdb/pebble"
	"github.com/google/uuid"
	"github.com/spaolacci/murmur3"

	"ycsb-kvs/internal/store"
)

const (
	// Kind はストア種別名
	Kind = "pebble"

	lockStripes     = 256
	minMemTableSize = 4 << 20
	maxMemTableSize = 1 << 30
	cacheSize       = 256 << 20
)

func init() {
	store.Register(Kind, func(opts store.Options) (store.Store, error) {
		return Open(opts)
	})
}

// Store は Pebble を使うディスク上のKVS
type Store struct {
	path     string
	db       *pebble.DB
	stripes  [lockStripes]sync.Mutex
	sessions atomic.Int64
	closed   atomic.Bool
}

// Ensure Store implements store.Store
var _ store.Store = (*Store)(nil)

// Open は opts.Path に Pebble データベースを作成する
func Open(opts store.Options) (*Store, error) {
	if opts.Path == "" {
		return nil, errors.New("pebblestore: storage path is required")
	}
	if err := os.MkdirAll(opts.Path, 0o755); err != nil {
		return nil, errors.Wrapf(err, "pebblestore: create %s", opts.Path)
	}

	cache := pebble.NewCache(cacheSize)
	defer cache.Unref()

	db, err := pebble.Open(opts.Path, &pebble.Options{
		Cache:        cache,
		MemTableSize: min(max(opts.LogSize, minMemTableSize), maxMemTableSize),
	})
	if err != nil {
		return nil, errors.Wrapf(err, "pebblestore: open %s", opts.Path)
	}
	return &Store{path: opts.Path, db: db}, nil
}

func (s *Store) stripe(key []byte) *sync.Mutex {
	return &s.stripes[murmur3.Sum32(key)%lockStripes]
}

// StartSession は新しいセッションを開始する
func (s *Store) StartSession() (store.Session, error) {
	if s.closed.Load() {
		return nil, errors.New("pebblestore: store destroyed")
	}
	s.sessions.Add(1)
	return &session{s: s, id: uuid.NewString()}, nil
}

// Size は全キーを走査して件数を返す（診断用）
func (s *Store) Size() uint64 {
	it, err := s.db.NewIter(nil)
	if err != nil {
		return 0
	}
	defer it.Close()

	var n uint64
	for valid := it.First(); valid; valid = it.Next() {
		n++
	}
	return n
}

// DumpDistribution は Pebble のメトリクスを出力する
func (s *Store) DumpDistribution(w io.Writer) {
	_, _ = fmt.Fprintf(w, "pebblestore: %s\n%s", s.path, s.db.Metrics().String())
}

// Destroy はデータベースを閉じてディレクトリを削除する
func (s *Store) Destroy() error {
	if n := s.sessions.Load(); n > 0 {
		return errors.Newf("pebblestore: %d sessions still active", n)
	}
	if s.closed.Swap(true) {
		return nil
	}
	if err := s.db.Close(); err != nil {
		return errors.Wrap(err, "pebblestore: close")
	}
	return errors.Wrapf(os.RemoveAll(s.path), "pebblestore: remove %s", s.path)
}

func (s *Store) upsert(key, value []byte) store.Status {
	if err := s.db.Set(key, value, pebble.NoSync); err != nil {
		return store.StatusError
	}
	return store.StatusOK
}

func (s *Store) read(key []byte, cb store.ReadCallback, ctx any) store.Status {
	value, closer, err := s.db.Get(key)
	if errors.Is(err, pebble.ErrNotFound) {
		return store.StatusNotFound
	}
	if err != nil {
		return store.StatusError
	}
	defer closer.Close()
	cb(ctx, value, store.StatusOK)
	return store.StatusOK
}

func (s *Store) rmw(key, modification []byte, merge store.MergeFunc) store.Status {
	mu := s.stripe(key)
	mu.Lock()
	defer mu.Unlock()

	current := make([]byte, len(modification))
	value, closer, err := s.db.Get(key)
	switch {
	case err == nil:
		current = append(current[:0], value...)
		_ = closer.Close()
	case !errors.Is(err, pebble.ErrNotFound):
		return store.StatusError
	}

	dst := make([]byte, merge(current, modification, nil))
	merge(current, modification, dst)
	return s.upsert(key, dst)
}

type session struct {
	s       *Store
	id      string
	stopped bool
}

// Ensure session implements store.Session
var _ store.Session = (*session)(nil)

func (ss *session) ID() string { return ss.id }

// Refresh は何もしない（Pebble はエポック保護を持たない）
func (ss *session) Refresh() {}

// CompletePending は常に完了済みを返す
func (ss *session) CompletePending(bool) bool { return true }

func (ss *session) Upsert(key, value []byte) store.Status {
	return ss.s.upsert(key, value)
}

func (ss *session) Read(key []byte, cb store.ReadCallback, ctx any) store.Status {
	return ss.s.read(key, cb, ctx)
}

func (ss *session) ReadModifyWrite(key, modification []byte, merge store.MergeFunc) store.Status {
	return ss.s.rmw(key, modification, merge)
}

func (ss *session) Stop() {
	if ss.stopped {
		return
	}
	ss.stopped = true
	ss.s.sessions.Add(-1)
}
