package epoch

import (
	"math"
	"sync"
	"sync/atomic"
	"unsafe"

	"github.com/cockroachdb/errors"
)

// cacheLine はスロットのパディング単位
const cacheLine = 64

// free は未使用スロットの値
const free = 0

// ErrTableFull はスロットが足りない場合のエラー
var ErrTableFull = errors.New("epoch table is full")

type entry struct {
	local atomic.Uint64
	_     [cacheLine - 8]byte
}

// スロットがちょうど1キャッシュラインであることを保証する
type (
	_ [unsafe.Sizeof(entry{}) - cacheLine]byte
	_ [cacheLine - unsafe.Sizeof(entry{})]byte
)

type action struct {
	epoch uint64
	fn    func()
}

// Table はエポック保護テーブル
type Table struct {
	current atomic.Uint64
	safe    atomic.Uint64
	entries []entry

	mu      sync.Mutex
	drain   []action
	pending atomic.Int64
}

// New は size スロットのテーブルを作成する
func New(size int) *Table {
	t := &Table{entries: make([]entry, size)}
	t.current.Store(1)
	return t
}

// Acquire は空きスロットを確保し、現在のエポックで保護する
func (t *Table) Acquire() (int, error) {
	for i := range t.entries {
		if t.entries[i].local.CompareAndSwap(free, t.current.Load()) {
			return i, nil
		}
	}
	return -1, errors.Wrapf(ErrTableFull, "%d slots in use", len(t.entries))
}

// Release はスロットを解放し、保留中のアクションを進める
func (t *Table) Release(slot int) {
	t.entries[slot].local.Store(free)
	t.tryDrain()
}

// Refresh はスロットを現在のエポックに更新する
func (t *Table) Refresh(slot int) {
	t.entries[slot].local.Store(t.current.Load())
	if t.pending.Load() > 0 {
		t.tryDrain()
	}
}

// Bump はエポックを進め、fn を旧エポックに紐づけて遅延実行する
// fn は全スロットが新エポック以降を観測した後に実行される
func (t *Table) Bump(fn func()) uint64 {
	prior := t.current.Add(1) - 1
	if fn != nil {
		t.mu.Lock()
		t.drain = append(t.drain, action{epoch: prior, fn: fn})
		t.mu.Unlock()
		t.pending.Add(1)
	}
	t.tryDrain()
	return prior + 1
}

// Current は現在のエポックを返す
func (t *Table) Current() uint64 {
	return t.current.Load()
}

// Safe は全スロットが通過済みの最大エポックを返す
func (t *Table) Safe() uint64 {
	return t.safe.Load()
}

// Pending は未実行の遅延アクション数を返す
func (t *Table) Pending() int {
	return int(t.pending.Load())
}

// computeSafe は保護中スロットの最小エポック-1を返す
func (t *Table) computeSafe() uint64 {
	oldest := uint64(math.MaxUint64)
	for i := range t.entries {
		if e := t.entries[i].local.Load(); e != free && e < oldest {
			oldest = e
		}
	}
	if oldest == math.MaxUint64 {
		oldest = t.current.Load()
	}
	return oldest - 1
}

// tryDrain は安全になったアクションを実行する
func (t *Table) tryDrain() {
	safe := t.computeSafe()
	for {
		prev := t.safe.Load()
		if safe <= prev || t.safe.CompareAndSwap(prev, safe) {
			break
		}
	}
	if t.pending.Load() == 0 {
		return
	}

	t.mu.Lock()
	var ready []action
	kept := t.drain[:0]
	for _, a := range t.drain {
		if a.epoch <= safe {
			ready = append(ready, a)
		} else {
			kept = append(kept, a)
		}
	}
	t.drain = kept
	t.mu.Unlock()

	for _, a := range ready {
		t.pending.Add(-1)
		a.fn()
	}
}
