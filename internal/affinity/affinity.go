package affinity

// DefaultCoreCount は物理コア数の既定値
const DefaultCoreCount = 36

// Layout はコアの割り当て方
type Layout struct {
	CoreCount int  // 物理コア数
	NUMA      bool // 2ソケット構成で4つ単位に振り分ける
}

// DefaultLayout は既定のレイアウトを返す
func DefaultLayout() Layout {
	return Layout{CoreCount: DefaultCoreCount}
}

// MapCore はワーカー番号 idx を論理CPU番号に変換する
//
// 非NUMA: 偶数はそのまま、奇数は (idx-1)+CoreCount の兄弟スレッドへ。
// NUMA: idx%4 が 0,2 なら idx/2、1,3 なら CoreCount+(idx-1)/2。
func (l Layout) MapCore(idx int) int {
	if l.NUMA {
		switch idx % 4 {
		case 0, 2:
			return idx / 2
		default:
			return l.CoreCount + (idx-1)/2
		}
	}
	if idx%2 == 0 {
		return idx
	}
	return (idx - 1) + l.CoreCount
}
