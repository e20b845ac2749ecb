package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"gopkg.in/yaml.v3"

	"ycsb-kvs/internal/bench"
	"ycsb-kvs/internal/keys"
	"ycsb-kvs/internal/logger"
	"ycsb-kvs/internal/trial"
	"ycsb-kvs/internal/workload"
)

// ErrInvalid は設定値の検証エラー
var ErrInvalid = errors.New("invalid configuration")

// FileConfig は設定ファイルの構造
type FileConfig struct {
	Benchmark BenchmarkConfig `yaml:"benchmark" json:"benchmark"`
}

// BenchmarkConfig はベンチマーク設定
type BenchmarkConfig struct {
	Preset          string `yaml:"preset" json:"preset"`
	Workload        *int   `yaml:"workload" json:"workload"`
	Threads         *int   `yaml:"threads" json:"threads"`
	Sweep           []int  `yaml:"sweep" json:"sweep"`
	Trials          int    `yaml:"trials" json:"trials"`
	PopulateThreads int    `yaml:"populate_threads" json:"populate_threads"`
	InitCount       uint64 `yaml:"init_count" json:"init_count"`
	TxnCount        uint64 `yaml:"txn_count" json:"txn_count"`
	Seed            int64  `yaml:"seed" json:"seed"`
	PollInterval    string `yaml:"poll_interval" json:"poll_interval"`
	LogLevel        string `yaml:"log_level" json:"log_level"`
	Listen          string `yaml:"listen" json:"listen"`

	Store    StoreConfig    `yaml:"store" json:"store"`
	Params   ParamsConfig   `yaml:"params" json:"params"`
	Affinity AffinityConfig `yaml:"affinity" json:"affinity"`
}

// StoreConfig はストア設定
type StoreConfig struct {
	Kind    string `yaml:"kind" json:"kind"`
	Path    string `yaml:"path" json:"path"`
	LogSize uint64 `yaml:"log_size" json:"log_size"`
}

// ParamsConfig はバイト単位のフェーズパラメータ
type ParamsConfig struct {
	KeyWidth                int    `yaml:"key_width" json:"key_width"`
	ChunkSize               uint64 `yaml:"chunk_size" json:"chunk_size"`
	RefreshInterval         uint64 `yaml:"refresh_interval" json:"refresh_interval"`
	CompletePendingInterval uint64 `yaml:"complete_pending_interval" json:"complete_pending_interval"`
}

// AffinityConfig はコア固定の設定
type AffinityConfig struct {
	Pin       bool `yaml:"pin" json:"pin"`
	CoreCount int  `yaml:"core_count" json:"core_count"`
	NUMA      bool `yaml:"numa" json:"numa"`
}

// Settings は実行に必要な設定一式
type Settings struct {
	Trial     trial.Config
	InitCount uint64
	TxnCount  uint64
	KeyWidth  int
	LogLevel  logger.Level
	Listen    string
}

// Default はデフォルト設定を返す
func Default() Settings {
	return Settings{
		Trial:     trial.DefaultConfig(),
		InitCount: 250_000_000,
		TxnCount:  1_000_000_000,
		KeyWidth:  keys.DefaultWidth,
		LogLevel:  logger.LevelInfo,
	}
}

// Validate は設定を検証する
func (s Settings) Validate() error {
	if s.InitCount == 0 || s.TxnCount == 0 {
		return errors.Mark(errors.New("init_count and txn_count must be positive"), ErrInvalid)
	}
	if s.KeyWidth <= 0 || uint64(s.KeyWidth) != s.Trial.Params.Stride {
		return errors.Mark(errors.Newf("key width %d must equal stride %d", s.KeyWidth, s.Trial.Params.Stride), ErrInvalid)
	}
	if err := s.Trial.Params.Validate(s.InitCount, s.TxnCount); err != nil {
		return errors.Mark(err, ErrInvalid)
	}
	if err := s.Trial.Validate(); err != nil {
		return errors.Mark(err, ErrInvalid)
	}
	return nil
}

// LoadFile は設定ファイルを読み込む
func LoadFile(path string) (*FileConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read config file")
	}

	var config FileConfig
	ext := strings.ToLower(filepath.Ext(path))

	switch ext {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &config); err != nil {
			return nil, errors.Wrap(err, "failed to parse YAML")
		}
	case ".json":
		if err := json.Unmarshal(data, &config); err != nil {
			return nil, errors.Wrap(err, "failed to parse JSON")
		}
	default:
		return nil, errors.Newf("unsupported config format: %s", ext)
	}

	return &config, nil
}

// ToSettings は FileConfig を Settings に変換する
// プリセット（未指定ならデフォルト）を基準に、指定された値だけを上書きする
func (f *FileConfig) ToSettings() (Settings, error) {
	bc := f.Benchmark
	settings := Default()

	if bc.Preset != "" {
		preset, ok := trial.GetPreset(bc.Preset)
		if !ok {
			return settings, errors.Mark(
				errors.Newf("unknown preset %q (available: %v)", bc.Preset, trial.ListPresets()), ErrInvalid)
		}
		settings.Trial = preset
	}
	tc := &settings.Trial

	if bc.Workload != nil {
		id, err := workload.Parse(strconv.Itoa(*bc.Workload))
		if err != nil {
			return settings, err
		}
		tc.Workload = id
	}
	if bc.Threads != nil {
		tc.Threads = *bc.Threads
	}
	if len(bc.Sweep) > 0 {
		tc.Sweep = append([]int(nil), bc.Sweep...)
	}
	if bc.Trials > 0 {
		tc.Trials = bc.Trials
	}
	if bc.PopulateThreads > 0 {
		tc.PopulateThreads = bc.PopulateThreads
	}
	if bc.Seed != 0 {
		tc.Seed = bc.Seed
	}
	if bc.PollInterval != "" {
		d, err := time.ParseDuration(bc.PollInterval)
		if err != nil {
			return settings, errors.Wrap(err, "invalid poll_interval")
		}
		tc.PollInterval = d
	}
	if bc.InitCount > 0 {
		settings.InitCount = bc.InitCount
	}
	if bc.TxnCount > 0 {
		settings.TxnCount = bc.TxnCount
	}
	if bc.LogLevel != "" {
		level, err := logger.ParseLevel(bc.LogLevel)
		if err != nil {
			return settings, err
		}
		settings.LogLevel = level
	}
	settings.Listen = bc.Listen

	// Store設定
	if bc.Store.Kind != "" {
		tc.StoreKind = bc.Store.Kind
	}
	if bc.Store.Path != "" {
		tc.StoragePath = bc.Store.Path
	}
	if bc.Store.LogSize > 0 {
		tc.LogSize = bc.Store.LogSize
	}

	// Params設定
	if bc.Params.KeyWidth > 0 {
		settings.KeyWidth = bc.Params.KeyWidth
		tc.Params = scaleParams(bc.Params.KeyWidth)
	}
	if bc.Params.ChunkSize > 0 {
		tc.Params.ChunkSize = bc.Params.ChunkSize
	}
	if bc.Params.RefreshInterval > 0 {
		tc.Params.RefreshInterval = bc.Params.RefreshInterval
	}
	if bc.Params.CompletePendingInterval > 0 {
		tc.Params.CompletePendingInterval = bc.Params.CompletePendingInterval
	}

	// Affinity設定
	tc.Pin = bc.Affinity.Pin
	if bc.Affinity.CoreCount > 0 {
		tc.Layout.CoreCount = bc.Affinity.CoreCount
	}
	tc.Layout.NUMA = bc.Affinity.NUMA

	return settings, nil
}

// scaleParams はキー幅に合わせてデフォルトのインターバルを換算する
func scaleParams(width int) bench.Params {
	p := bench.DefaultParams()
	w := uint64(width)
	return bench.Params{
		Stride:                  w,
		ChunkSize:               p.ChunkSize / p.Stride * w,
		RefreshInterval:         p.RefreshInterval / p.Stride * w,
		CompletePendingInterval: p.CompletePendingInterval / p.Stride * w,
	}
}

// Validate は設定ファイルの値を検証する
func (f *FileConfig) Validate() error {
	bc := f.Benchmark

	if bc.Threads != nil && *bc.Threads < 0 {
		return errors.Mark(errors.New("threads must be non-negative"), ErrInvalid)
	}
	if bc.Trials < 0 {
		return errors.Mark(errors.New("trials must be non-negative"), ErrInvalid)
	}
	if bc.PopulateThreads < 0 {
		return errors.Mark(errors.New("populate_threads must be non-negative"), ErrInvalid)
	}
	if bc.Params.KeyWidth < 0 {
		return errors.Mark(errors.New("params.key_width must be non-negative"), ErrInvalid)
	}
	if bc.Affinity.CoreCount < 0 {
		return errors.Mark(errors.New("affinity.core_count must be non-negative"), ErrInvalid)
	}
	for _, n := range bc.Sweep {
		if n <= 0 {
			return errors.Mark(errors.Newf("sweep entries must be positive, got %d", n), ErrInvalid)
		}
	}

	settings, err := f.ToSettings()
	if err != nil {
		return err
	}
	return settings.Validate()
}
