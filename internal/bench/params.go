package bench

import (
	"github.com/cockroachdb/errors"

	"ycsb-kvs/internal/keys"
)

// ErrInvalidParams はチャンクやインターバルの整合性違反
var ErrInvalidParams = errors.New("invalid benchmark parameters")

// Params はフェーズ実行のバイト単位パラメータ
type Params struct {
	Stride                  uint64 // キー幅
	ChunkSize               uint64 // 1回のカーソル取得で進むバイト数
	RefreshInterval         uint64 // Refresh を呼ぶ間隔
	CompletePendingInterval uint64 // CompletePending(false) を呼ぶ間隔
}

// DefaultParams はデフォルトのパラメータを返す
func DefaultParams() Params {
	stride := uint64(keys.DefaultWidth)
	return Params{
		Stride:                  stride,
		ChunkSize:               3200 * stride,
		RefreshInterval:         64 * stride,
		CompletePendingInterval: 1600 * stride,
	}
}

// Validate はキー数に対してパラメータが割り切れるかを検証する
func (p Params) Validate(initCount, txnCount uint64) error {
	if p.Stride == 0 || p.ChunkSize == 0 || p.RefreshInterval == 0 || p.CompletePendingInterval == 0 {
		return errors.Wrapf(ErrInvalidParams, "all intervals must be positive: %+v", p)
	}
	if p.ChunkSize%p.Stride != 0 {
		return errors.Wrapf(ErrInvalidParams, "chunk size %d is not a multiple of stride %d", p.ChunkSize, p.Stride)
	}
	if p.RefreshInterval%p.Stride != 0 {
		return errors.Wrapf(ErrInvalidParams, "refresh interval %d is not a multiple of stride %d", p.RefreshInterval, p.Stride)
	}
	if p.CompletePendingInterval%p.RefreshInterval != 0 {
		return errors.Wrapf(ErrInvalidParams, "complete-pending interval %d is not a multiple of refresh interval %d",
			p.CompletePendingInterval, p.RefreshInterval)
	}
	if (initCount*p.Stride)%p.ChunkSize != 0 {
		return errors.Wrapf(ErrInvalidParams, "init count %d does not divide into chunks of %d bytes", initCount, p.ChunkSize)
	}
	if (txnCount*p.Stride)%p.ChunkSize != 0 {
		return errors.Wrapf(ErrInvalidParams, "txn count %d does not divide into chunks of %d bytes", txnCount, p.ChunkSize)
	}
	return nil
}
