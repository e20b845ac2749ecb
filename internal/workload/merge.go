package workload

// Merge は Read-Modify-Write のマージ関数
//
// dst が nil の場合はマージ後のサイズだけを返し、何も書き込まない。
// dst がある場合は先頭バイトを current[0]+modification[0]（桁あふれは
// 折り返し）とし、残りのバイトは current をそのまま写す。
func Merge(current, modification, dst []byte) int {
	size := len(current)
	if dst == nil {
		return size
	}
	copy(dst, current)
	if size > 0 && len(modification) > 0 {
		dst[0] = current[0] + modification[0]
	}
	return size
}
