//go:build !linux

package affinity

// Supported はこのプラットフォームでピン留めできるかを返す
const Supported = false

// Pin は何もしない
func (l Layout) Pin(int) error {
	return nil
}
