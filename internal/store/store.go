package store

import (
	"io"
	"sort"
	"sync"

	"github.com/cockroachdb/errors"
)

// Status は操作の完了状態
type Status uint8

const (
	StatusOK Status = iota
	StatusPending
	StatusNotFound
	StatusError
)

func (s Status) String() string {
	switch s {
	case StatusOK:
		return "ok"
	case StatusPending:
		return "pending"
	case StatusNotFound:
		return "not_found"
	case StatusError:
		return "error"
	default:
		return "unknown"
	}
}

// ReadCallback は読み込み完了時に呼ばれる
// 同期完了（StatusOK）と保留からの完了で1回ずつ呼ばれ、同期の NotFound では呼ばれない
// value はコールバック内でのみ有効
type ReadCallback func(ctx any, value []byte, status Status)

// MergeFunc は Read-Modify-Write のマージ関数
// dst が nil の場合はマージ後のサイズだけを返す
type MergeFunc func(current, modification, dst []byte) int

// Options はストアを開く際のパラメータ
type Options struct {
	CapacityHint uint64 // 想定キー数（ハッシュインデックスの初期サイズ）
	LogSize      uint64 // メモリ上のログサイズ（バイト）
	Path         string // バックエンドの保存先
}

// Store はベンチマーク対象のKVS
type Store interface {
	StartSession() (Session, error)
	Size() uint64
	DumpDistribution(w io.Writer)
	Destroy() error
}

// Session はスレッドごとのストアセッション
// 1つのセッションは1つのゴルーチンからのみ使う
type Session interface {
	ID() string
	Refresh()
	CompletePending(wait bool) bool
	Upsert(key, value []byte) Status
	Read(key []byte, cb ReadCallback, ctx any) Status
	ReadModifyWrite(key, modification []byte, merge MergeFunc) Status
	Stop()
}

// Factory はストアを開く関数
type Factory func(opts Options) (Store, error)

// ErrUnknownKind は未登録のストア種別
var ErrUnknownKind = errors.New("unknown store kind")

var (
	mu        sync.RWMutex
	factories = make(map[string]Factory)
)

// Register はストア種別を登録する
func Register(kind string, f Factory) {
	mu.Lock()
	defer mu.Unlock()
	if _, dup := factories[kind]; dup {
		panic("store: duplicate registration of " + kind)
	}
	factories[kind] = f
}

// Lookup は種別に対応する Factory を返す
func Lookup(kind string) (Factory, error) {
	mu.RLock()
	defer mu.RUnlock()
	f, ok := factories[kind]
	if !ok {
		return nil, errors.Wrapf(ErrUnknownKind, "%q (available: %v)", kind, kindsLocked())
	}
	return f, nil
}

// Open は指定種別のストアを開く
func Open(kind string, opts Options) (Store, error) {
	f, err := Lookup(kind)
	if err != nil {
		return nil, err
	}
	return f(opts)
}

// Kinds は登録済み種別を返す
func Kinds() []string {
	mu.RLock()
	defer mu.RUnlock()
	return kindsLocked()
}

func kindsLocked() []string {
	kinds := make([]string, 0, len(factories))
	for k := range factories {
		kinds = append(kinds, k)
	}
	sort.Strings(kinds)
	return kinds
}

// NextPowerOfTwo は n 以上で最小の2の冪を返す
func NextPowerOfTwo(n uint64) uint64 {
	if n <= 1 {
		return 1
	}
	p := uint64(1)
	for p < n {
		p <<= 1
	}
	return p
}
