package memstore

import (
	"github.com/google/uuid"

	"ycsb-kvs/internal/store"
)

// pendingBatch はノンブロッキングの CompletePending で完了させる最大件数
const pendingBatch = 256

type pendingKind uint8

const (
	pendingRead pendingKind = iota
	pendingRMW
)

// pendingOp はコールドレコードに当たって保留された操作
type pendingOp struct {
	kind  pendingKind
	key   []byte
	mod   []byte
	cb    store.ReadCallback
	ctx   any
	merge store.MergeFunc
}

// session はスレッドごとのセッション
type session struct {
	s       *Store
	id      string
	slot    int
	pending []pendingOp
	stopped bool
}

// Ensure session implements store.Session
var _ store.Session = (*session)(nil)

func newSession(s *Store, slot int) *session {
	return &session{
		s:    s,
		id:   uuid.NewString(),
		slot: slot,
	}
}

func (ss *session) ID() string {
	return ss.id
}

// Refresh は現在のエポックを観測し、遅延アクションを進める
func (ss *session) Refresh() {
	ss.s.epoch.Refresh(ss.slot)
}

// CompletePending は保留中の操作を完了させる
// wait が false なら最大 pendingBatch 件だけ処理する
func (ss *session) CompletePending(wait bool) bool {
	ss.Refresh()

	n := len(ss.pending)
	if !wait {
		n = min(n, pendingBatch)
	}
	for i := range n {
		ss.complete(&ss.pending[i])
		ss.pending[i] = pendingOp{}
	}
	rest := copy(ss.pending, ss.pending[n:])
	ss.pending = ss.pending[:rest]
	return len(ss.pending) == 0
}

// complete は保留操作を1件完了させる（ディスクからの読み込み完了に相当）
func (ss *session) complete(op *pendingOp) {
	switch op.kind {
	case pendingRead:
		value, found, _ := ss.s.lookup(op.key)
		if found {
			op.cb(op.ctx, value, store.StatusOK)
		} else {
			op.cb(op.ctx, nil, store.StatusNotFound)
		}
	case pendingRMW:
		ss.s.rmw(op.key, op.mod, op.merge, true)
	}
}

// Pending は保留中の操作数を返す
func (ss *session) Pending() int {
	return len(ss.pending)
}

func (ss *session) Upsert(key, value []byte) store.Status {
	return ss.s.upsert(key, value)
}

// Read はキーを読み込む
// ホットなら cb を同期的に呼び StatusOK、コールドなら StatusPending を返す
func (ss *session) Read(key []byte, cb store.ReadCallback, ctx any) store.Status {
	value, found, cold := ss.s.lookup(key)
	switch {
	case !found:
		return store.StatusNotFound
	case cold:
		ss.pending = append(ss.pending, pendingOp{
			kind: pendingRead,
			key:  clone(key),
			cb:   cb,
			ctx:  ctx,
		})
		return store.StatusPending
	default:
		cb(ctx, value, store.StatusOK)
		return store.StatusOK
	}
}

func (ss *session) ReadModifyWrite(key, modification []byte, merge store.MergeFunc) store.Status {
	status := ss.s.rmw(key, modification, merge, false)
	if status == store.StatusPending {
		ss.pending = append(ss.pending, pendingOp{
			kind:  pendingRMW,
			key:   clone(key),
			mod:   clone(modification),
			merge: merge,
		})
	}
	return status
}

// Stop は残りの保留操作を完了させてからスロットを解放する
func (ss *session) Stop() {
	if ss.stopped {
		return
	}
	ss.CompletePending(true)
	ss.stopped = true
	ss.s.epoch.Release(ss.slot)
	ss.s.sessions.Add(-1)
}

func clone(b []byte) []byte {
	c := make([]byte, len(b))
	copy(c, b)
	return c
}
