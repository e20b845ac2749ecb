package keys

import (
	"encoding/binary"
	"math/rand"

	"github.com/cockroachdb/errors"
	"github.com/spaolacci/murmur3"
)

// DefaultZipfS はZipf分布の歪度（math/rand の Zipf は s > 1 を要求する）
const DefaultZipfS = 1.01

// Sequential は 0..n-1 を8バイトのリトルエンディアンで並べたバッファを返す
func Sequential(n uint64) *Buffer {
	data := make([]byte, n*DefaultWidth)
	for i := range n {
		binary.LittleEndian.PutUint64(data[i*DefaultWidth:], i)
	}
	b, _ := NewBuffer(data, DefaultWidth)
	return b
}

// Uniform は from から一様にキーを n 個選んだバッファを返す
func Uniform(rng *rand.Rand, n uint64, from *Buffer) (*Buffer, error) {
	if from.Count() == 0 {
		return nil, errors.New("cannot sample from an empty key buffer")
	}
	w := uint64(from.Width())
	data := make([]byte, n*w)
	for i := range n {
		src := uint64(rng.Int63n(int64(from.Count())))
		copy(data[i*w:], from.At(src))
	}
	return NewBuffer(data, from.Width())
}

// Zipfian は from からZipf分布でキーを n 個選んだバッファを返す
// 人気順位はハッシュで散らし、ホットキーがバッファ先頭に固まらないようにする
func Zipfian(rng *rand.Rand, n uint64, from *Buffer, s float64) (*Buffer, error) {
	if from.Count() == 0 {
		return nil, errors.New("cannot sample from an empty key buffer")
	}
	if s <= 1 {
		return nil, errors.Newf("zipf exponent must be > 1, got %v", s)
	}
	count := from.Count()
	z := rand.NewZipf(rng, s, 1, count-1)
	w := uint64(from.Width())
	data := make([]byte, n*w)
	var rank [8]byte
	for i := range n {
		binary.LittleEndian.PutUint64(rank[:], z.Uint64())
		src := murmur3.Sum64(rank[:]) % count
		copy(data[i*w:], from.At(src))
	}
	return NewBuffer(data, from.Width())
}
