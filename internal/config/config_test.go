package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/cockroachdb/errors"

	"ycsb-kvs/internal/bench"
	"ycsb-kvs/internal/logger"
	"ycsb-kvs/internal/workload"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to create temp file: %v", err)
	}
	return path
}

func TestLoadFileYAML(t *testing.T) {
	content := `
benchmark:
  workload: 1
  threads: 8
  trials: 5
  populate_threads: 16
  init_count: 3200
  txn_count: 6400
  seed: 42
  poll_interval: 5s
  log_level: debug
  listen: 127.0.0.1:8080
  store:
    kind: pebble
    path: /tmp/bench
    log_size: 1073741824
  affinity:
    pin: true
    core_count: 28
    numa: true
`
	cfg, err := LoadFile(writeFile(t, "bench.yaml", content))
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("unexpected validation error: %v", err)
	}

	settings, err := cfg.ToSettings()
	if err != nil {
		t.Fatalf("failed to convert config: %v", err)
	}
	tc := settings.Trial
	if tc.Workload != workload.RMW100 {
		t.Errorf("expected workload rmw-100, got %s", tc.Workload.Name())
	}
	if tc.Threads != 8 || tc.Trials != 5 || tc.PopulateThreads != 16 {
		t.Errorf("unexpected thread settings %+v", tc)
	}
	if settings.InitCount != 3200 || settings.TxnCount != 6400 {
		t.Errorf("unexpected counts %d/%d", settings.InitCount, settings.TxnCount)
	}
	if tc.Seed != 42 {
		t.Errorf("expected seed 42, got %d", tc.Seed)
	}
	if tc.PollInterval != 5*time.Second {
		t.Errorf("expected 5s poll interval, got %s", tc.PollInterval)
	}
	if settings.LogLevel != logger.LevelDebug {
		t.Errorf("expected debug level, got %s", settings.LogLevel)
	}
	if settings.Listen != "127.0.0.1:8080" {
		t.Errorf("unexpected listen address %q", settings.Listen)
	}
	if tc.StoreKind != "pebble" || tc.StoragePath != "/tmp/bench" || tc.LogSize != 1<<30 {
		t.Errorf("unexpected store settings %q %q %d", tc.StoreKind, tc.StoragePath, tc.LogSize)
	}
	if !tc.Pin || tc.Layout.CoreCount != 28 || !tc.Layout.NUMA {
		t.Errorf("unexpected affinity settings %+v", tc.Layout)
	}
}

func TestLoadFileJSON(t *testing.T) {
	content := `{
  "benchmark": {
    "preset": "quick",
    "workload": 0,
    "init_count": 3200,
    "txn_count": 3200
  }
}`
	cfg, err := LoadFile(writeFile(t, "bench.json", content))
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}
	settings, err := cfg.ToSettings()
	if err != nil {
		t.Fatalf("failed to convert config: %v", err)
	}
	if settings.Trial.Trials != 1 {
		t.Errorf("expected preset trials 1, got %d", settings.Trial.Trials)
	}
	if got := settings.Trial.Configurations(); len(got) != 3 {
		t.Errorf("expected quick sweep, got %v", got)
	}
	if settings.Trial.Workload != workload.A5050 {
		t.Errorf("expected workload 0, got %d", settings.Trial.Workload)
	}
}

func TestLoadFileNotFound(t *testing.T) {
	_, err := LoadFile("/nonexistent/config.yaml")
	if err == nil {
		t.Error("expected error for nonexistent file")
	}
}

func TestLoadFileUnsupportedFormat(t *testing.T) {
	_, err := LoadFile(writeFile(t, "config.txt", "test"))
	if err == nil {
		t.Error("expected error for unsupported format")
	}
}

func TestDefaultSettings(t *testing.T) {
	settings := Default()
	if err := settings.Validate(); err != nil {
		t.Fatalf("default settings must validate: %v", err)
	}
	if settings.InitCount != 250_000_000 || settings.TxnCount != 1_000_000_000 {
		t.Errorf("unexpected default counts %d/%d", settings.InitCount, settings.TxnCount)
	}
	if settings.Trial.LogSize != 34359738368 {
		t.Errorf("unexpected default log size %d", settings.Trial.LogSize)
	}
	if settings.Trial.Params != bench.DefaultParams() {
		t.Errorf("unexpected default params %+v", settings.Trial.Params)
	}
}

func TestKeyWidthScalesParams(t *testing.T) {
	cfg := &FileConfig{Benchmark: BenchmarkConfig{
		Params: ParamsConfig{KeyWidth: 16},
	}}
	settings, err := cfg.ToSettings()
	if err != nil {
		t.Fatalf("failed to convert config: %v", err)
	}
	p := settings.Trial.Params
	if p.Stride != 16 || p.ChunkSize != 3200*16 || p.RefreshInterval != 64*16 || p.CompletePendingInterval != 1600*16 {
		t.Errorf("unexpected scaled params %+v", p)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("unexpected validation error: %v", err)
	}
}

func TestValidateRejectsNonDividingChunks(t *testing.T) {
	tests := []struct {
		name string
		cfg  BenchmarkConfig
	}{
		{"init count", BenchmarkConfig{InitCount: 3201, TxnCount: 3200}},
		{"txn count", BenchmarkConfig{InitCount: 3200, TxnCount: 3300}},
		{"chunk stride", BenchmarkConfig{InitCount: 3200, TxnCount: 3200, Params: ParamsConfig{ChunkSize: 3200*8 + 1}}},
		{"refresh stride", BenchmarkConfig{Params: ParamsConfig{RefreshInterval: 500}}},
		{"pending refresh", BenchmarkConfig{Params: ParamsConfig{CompletePendingInterval: 100 * 8}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &FileConfig{Benchmark: tt.cfg}
			err := cfg.Validate()
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !errors.Is(err, ErrInvalid) {
				t.Errorf("expected ErrInvalid, got %v", err)
			}
			if !errors.Is(err, bench.ErrInvalidParams) {
				t.Errorf("expected the params error to be preserved, got %v", err)
			}
		})
	}
}

func TestValidateFields(t *testing.T) {
	negative := -1
	tests := []struct {
		name string
		cfg  BenchmarkConfig
	}{
		{"negative threads", BenchmarkConfig{Threads: &negative}},
		{"negative trials", BenchmarkConfig{Trials: -1}},
		{"negative populate threads", BenchmarkConfig{PopulateThreads: -1}},
		{"bad sweep", BenchmarkConfig{Sweep: []int{1, 0}}},
		{"unknown preset", BenchmarkConfig{Preset: "huge"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &FileConfig{Benchmark: tt.cfg}
			if err := cfg.Validate(); !errors.Is(err, ErrInvalid) {
				t.Errorf("expected ErrInvalid, got %v", err)
			}
		})
	}
}

func TestToSettingsErrors(t *testing.T) {
	unknown := 7
	tests := []struct {
		name string
		cfg  BenchmarkConfig
	}{
		{"unknown workload", BenchmarkConfig{Workload: &unknown}},
		{"bad poll interval", BenchmarkConfig{PollInterval: "soon"}},
		{"bad log level", BenchmarkConfig{LogLevel: "loud"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &FileConfig{Benchmark: tt.cfg}
			if _, err := cfg.ToSettings(); err == nil {
				t.Error("expected conversion error")
			}
		})
	}

	cfg := &FileConfig{Benchmark: BenchmarkConfig{Workload: &unknown}}
	if _, err := cfg.ToSettings(); !errors.Is(err, workload.ErrUnknownWorkload) {
		t.Errorf("expected ErrUnknownWorkload, got %v", err)
	}
}
