package partition

import "sync/atomic"

// Cursor は共有のワークカーソル
// オフセットはキーバッファ上のバイト位置で、チャンク単位で単調増加する
type Cursor struct {
	next      atomic.Uint64
	chunkSize uint64
}

// NewCursor は指定チャンクサイズのカーソルを作成する
func NewCursor(chunkSize uint64) *Cursor {
	if chunkSize == 0 {
		panic("partition: chunk size must be positive")
	}
	return &Cursor{chunkSize: chunkSize}
}

// TakeChunk は次のチャンクを排他的に確保して [start, end) を返す
func (c *Cursor) TakeChunk() (start, end uint64) {
	start = c.next.Add(c.chunkSize) - c.chunkSize
	return start, start + c.chunkSize
}

// Reset はカーソルを先頭に戻す（フェーズ開始時のみ呼ぶ）
func (c *Cursor) Reset() {
	c.next.Store(0)
}

// Position は現在のカーソル位置を返す（進捗表示用）
func (c *Cursor) Position() uint64 {
	return c.next.Load()
}

// ChunkSize はチャンクサイズを返す
func (c *Cursor) ChunkSize() uint64 {
	return c.chunkSize
}

// Exhausted はチャンク開始位置がストリームの末尾を越えたかを返す
func Exhausted(start, stride, total uint64) bool {
	return start/stride >= total
}

// ChunkCount はストリーム全体のチャンク数を返す
func ChunkCount(total, stride, chunkSize uint64) uint64 {
	bytes := total * stride
	return (bytes + chunkSize - 1) / chunkSize
}
