package trial

import "sort"

// DefaultSweep はスレッド数0のときに巡回する構成
var DefaultSweep = []int{1, 2, 4, 8, 16, 32, 48}

// QuickConfig は小さなマシン向けの短い構成を返す
func QuickConfig() Config {
	config := DefaultConfig()
	config.Sweep = []int{1, 2, 4}
	config.Trials = 1
	config.PopulateThreads = 4
	return config
}

// SingleConfig は48スレッドのみを測る構成を返す
func SingleConfig() Config {
	config := DefaultConfig()
	config.Threads = 48
	return config
}

// Presets はプリセット構成の一覧
var Presets = map[string]func() Config{
	"default": DefaultConfig,
	"quick":   QuickConfig,
	"single":  SingleConfig,
}

// GetPreset は名前からプリセット構成を返す
func GetPreset(name string) (Config, bool) {
	fn, ok := Presets[name]
	if !ok {
		return Config{}, false
	}
	return fn(), true
}

// ListPresets はプリセット名を返す
func ListPresets() []string {
	names := make([]string, 0, len(Presets))
	for name := range Presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
