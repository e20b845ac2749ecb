//go:build linux

package affinity

import (
	"github.com/cockroachdb/errors"
	"golang.org/x/sys/unix"
)

// Supported はこのプラットフォームでピン留めできるかを返す
const Supported = true

// Pin は呼び出し元のOSスレッドをワーカー idx のコアに固定する
func (l Layout) Pin(idx int) error {
	cpu := l.MapCore(idx)
	var set unix.CPUSet
	set.Zero()
	set.Set(cpu)
	if err := unix.SchedSetaffinity(0, &set); err != nil {
		return errors.Wrapf(err, "pin worker %d to cpu %d", idx, cpu)
	}
	return nil
}
