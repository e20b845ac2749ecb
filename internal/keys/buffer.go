package keys

import (
	"github.com/cockroachdb/errors"
)

// DefaultWidth はリファレンスワークロードのキー幅（バイト）
const DefaultWidth = 8

// ErrCountMismatch はキー数が設定と一致しない場合のエラー
var ErrCountMismatch = errors.New("key count mismatch")

// Buffer は固定幅キーの読み取り専用バッファ
type Buffer struct {
	data  []byte
	width int
	count uint64
}

// NewBuffer は生バイト列からバッファを作成する
// data の長さは width の倍数でなければならない
func NewBuffer(data []byte, width int) (*Buffer, error) {
	if width <= 0 {
		return nil, errors.Newf("invalid key width: %d", width)
	}
	if len(data)%width != 0 {
		return nil, errors.Wrapf(ErrCountMismatch,
			"%d bytes is not a whole number of %d-byte keys", len(data), width)
	}
	return &Buffer{
		data:  data,
		width: width,
		count: uint64(len(data) / width),
	}, nil
}

// Count はキー数を返す
func (b *Buffer) Count() uint64 {
	return b.count
}

// Width はキー幅を返す
func (b *Buffer) Width() int {
	return b.width
}

// Len はバッファのバイト長を返す
func (b *Buffer) Len() uint64 {
	return uint64(len(b.data))
}

// Key はバイトオフセット off にあるキーを返す
// 返すスライスは読み取り専用として扱うこと
func (b *Buffer) Key(off uint64) []byte {
	end := off + uint64(b.width)
	return b.data[off:end:end]
}

// At は i 番目のキーを返す
func (b *Buffer) At(i uint64) []byte {
	return b.Key(i * uint64(b.width))
}

// Bytes は内部バイト列を返す（書き出し用）
func (b *Buffer) Bytes() []byte {
	return b.data
}

// Expect はキー数が期待値と一致するかを検証する
func (b *Buffer) Expect(count uint64) error {
	if b.count != count {
		return errors.Wrapf(ErrCountMismatch, "expected %d keys, got %d", count, b.count)
	}
	return nil
}
