// Package main is the entry point for ycsb-kvs.
package main

import (
	"context"
	"fmt"
	"math/rand"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"ycsb-kvs/internal/api"
	"ycsb-kvs/internal/config"
	"ycsb-kvs/internal/events"
	"ycsb-kvs/internal/keys"
	"ycsb-kvs/internal/logger"
	"ycsb-kvs/internal/store"
	_ "ycsb-kvs/internal/store/memstore"
	_ "ycsb-kvs/internal/store/pebblestore"
	"ycsb-kvs/internal/trial"
	"ycsb-kvs/internal/workload"
)

var (
	version = "dev"
)

const usageLine = "<workload> <# threads> <load_filename> <run_filename>"

// runFlags はベンチマーク実行のフラグ
type runFlags struct {
	configFile      string
	preset          string
	storeKind       string
	storagePath     string
	trials          int
	populateThreads int
	initCount       uint64
	txnCount        uint64
	seed            int64
	pin             bool
	pollInterval    time.Duration
	listen          string
	logLevel        string
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		logger.Error("", "%v", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	flags := &runFlags{}

	root := &cobra.Command{
		Use:   "ycsb-kvs " + usageLine,
		Short: "YCSB throughput driver for key-value stores",
		Long: `ycsb-kvs - YCSB throughput driver for key-value stores

Populates a fresh store from the load key file, runs the selected workload
over the run key file, and reports ops/second/thread for each thread count.

Workloads:
  0  YCSB-A 50% read / 50% upsert
  1  100% read-modify-write
  2  100% upsert
  3  100% read

A thread count of 0 sweeps 1, 2, 4, 8, 16, 32 and 48 threads.`,
		Example: `  # 8スレッドで YCSB-A を実行
  ycsb-kvs 0 8 load_ycsb run_ycsb

  # 全構成を pebble ストアで巡回
  ycsb-kvs 1 0 load_ycsb.zst run_ycsb.zst --store pebble

  # 小さなキーファイルを生成して試す
  ycsb-kvs gen --init-count 320000 --txn-count 320000 load.sz run.sz
  ycsb-kvs 0 4 load.sz run.sz --preset quick --init-count 320000 --txn-count 320000`,
		Version:       version,
		Args:          cobra.ArbitraryArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBenchmark(cmd, flags, args)
		},
	}
	addRunFlags(root, flags)

	run := &cobra.Command{
		Use:   "run " + usageLine,
		Short: "Run the benchmark (same as the root command)",
		Args:  cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBenchmark(cmd, flags, args)
		},
	}
	addRunFlags(run, flags)

	root.AddCommand(run, newGenCmd(), newPresetsCmd())
	return root
}

func addRunFlags(cmd *cobra.Command, f *runFlags) {
	fs := cmd.Flags()
	fs.StringVar(&f.configFile, "config", "", "設定ファイルパス (YAML/JSON)")
	fs.StringVar(&f.preset, "preset", "", "プリセット名 (default, quick, single)")
	fs.StringVar(&f.storeKind, "store", "", "ストア種別 (mem, pebble)")
	fs.StringVar(&f.storagePath, "storage-path", "", "ストアの保存先")
	fs.IntVar(&f.trials, "trials", 0, "構成あたりの試行回数")
	fs.IntVar(&f.populateThreads, "populate-threads", 0, "投入フェーズのスレッド数")
	fs.Uint64Var(&f.initCount, "init-count", 0, "ロードファイルのキー数")
	fs.Uint64Var(&f.txnCount, "txn-count", 0, "ランファイルのキー数")
	fs.Int64Var(&f.seed, "seed", 0, "乱数シード (0 ならランダム)")
	fs.BoolVar(&f.pin, "pin", false, "スレッドをコアに固定する")
	fs.DurationVar(&f.pollInterval, "poll-interval", 0, "進捗ログの間隔")
	fs.StringVar(&f.listen, "listen", "", "進捗モニターのアドレス (例: :8080)")
	fs.StringVar(&f.logLevel, "log-level", "", "ログレベル (debug, info, warn, error)")
}

// buildSettings は設定ファイル・プリセット・フラグから設定を構築する
func buildSettings(cmd *cobra.Command, f *runFlags) (config.Settings, error) {
	settings := config.Default()

	if f.preset != "" {
		if _, ok := trial.GetPreset(f.preset); !ok {
			return settings, errors.Newf("不明なプリセット: %s (利用可能: %v)", f.preset, trial.ListPresets())
		}
	}

	if f.configFile != "" {
		// 1. 設定ファイルから読み込み（--preset はファイルの値の基準になる）
		fileConfig, err := config.LoadFile(f.configFile)
		if err != nil {
			return settings, errors.Wrap(err, "設定ファイル読み込みエラー")
		}
		if f.preset != "" {
			fileConfig.Benchmark.Preset = f.preset
		}
		if err := fileConfig.Validate(); err != nil {
			return settings, errors.Wrap(err, "設定検証エラー")
		}
		settings, err = fileConfig.ToSettings()
		if err != nil {
			return settings, errors.Wrap(err, "設定変換エラー")
		}
	} else if f.preset != "" {
		// 2. プリセットのみ
		preset, _ := trial.GetPreset(f.preset)
		preset.Params = settings.Trial.Params
		preset.Layout = settings.Trial.Layout
		settings.Trial = preset
	}

	// フラグが明示的に指定された場合のみオーバーライド
	fs := cmd.Flags()
	tc := &settings.Trial
	if fs.Changed("store") {
		tc.StoreKind = f.storeKind
	}
	if fs.Changed("storage-path") {
		tc.StoragePath = f.storagePath
	}
	if fs.Changed("trials") {
		tc.Trials = f.trials
	}
	if fs.Changed("populate-threads") {
		tc.PopulateThreads = f.populateThreads
	}
	if fs.Changed("init-count") {
		settings.InitCount = f.initCount
	}
	if fs.Changed("txn-count") {
		settings.TxnCount = f.txnCount
	}
	if fs.Changed("seed") {
		tc.Seed = f.seed
	}
	if fs.Changed("pin") {
		tc.Pin = f.pin
	}
	if fs.Changed("poll-interval") {
		tc.PollInterval = f.pollInterval
	}
	if fs.Changed("listen") {
		settings.Listen = f.listen
	}
	if fs.Changed("log-level") {
		level, err := logger.ParseLevel(f.logLevel)
		if err != nil {
			return settings, err
		}
		settings.LogLevel = level
	}
	return settings, nil
}

// runBenchmark はキーを読み込み、全構成のトライアルを実行する
func runBenchmark(cmd *cobra.Command, f *runFlags, args []string) error {
	if len(args) != 4 {
		_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Usage: ycsb-kvs %s\n", usageLine)
		return nil
	}

	settings, err := buildSettings(cmd, f)
	if err != nil {
		return err
	}

	id, err := workload.Parse(args[0])
	if err != nil {
		return err
	}
	settings.Trial.Workload = id

	threads, err := strconv.Atoi(args[1])
	if err != nil || threads < 0 {
		return errors.Newf("invalid thread count %q", args[1])
	}
	settings.Trial.Threads = threads

	if err := settings.Validate(); err != nil {
		return err
	}
	logger.Default.SetLevel(settings.LogLevel)

	loadKeys, err := loadKeyFile("keys", args[2], settings.InitCount, settings.KeyWidth)
	if err != nil {
		return err
	}
	txnKeys, err := loadKeyFile("txns", args[3], settings.TxnCount, settings.KeyWidth)
	if err != nil {
		return err
	}

	bus := events.NewBus()
	defer bus.Close()

	o, err := trial.New(settings.Trial, loadKeys, txnKeys)
	if err != nil {
		return err
	}
	o.SetEventBus(bus)
	o.SetOutput(cmd.OutOrStdout())

	// シグナルハンドリング（実行中の試行は最後まで走る）
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if settings.Listen != "" {
		server := api.NewServer(settings.Listen, o, bus)
		go func() {
			if err := server.Start(ctx); err != nil {
				logger.Error("api", "サーバーエラー: %v", err)
			}
		}()
	}

	results, err := o.Run(ctx)
	if results != nil && len(results.Configurations()) > 0 {
		results.Render(cmd.OutOrStdout())
	}
	return err
}

// loadKeyFile はキーファイルを読み込む
func loadKeyFile(what, path string, count uint64, width int) (*keys.Buffer, error) {
	logger.Info("", "loading %s from %s into memory...", what, path)
	buf, err := keys.Load(path, count, width)
	if err != nil {
		return nil, errors.Wrapf(err, "%s file load failed", what)
	}
	logger.Info("", "loaded %s %s.", humanize.Comma(int64(buf.Count())), what)
	return buf, nil
}

func newGenCmd() *cobra.Command {
	var (
		initCount uint64
		txnCount  uint64
		dist      string
		seed      int64
		zipfS     float64
	)

	cmd := &cobra.Command{
		Use:   "gen <load_out> <run_out>",
		Short: "Generate load and run key files",
		Long: `Writes a load file of sequential keys and a run file drawn from them.
Files ending in .zst, .lz4 or .sz are compressed.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if seed == 0 {
				seed = time.Now().UnixNano()
			}
			rng := rand.New(rand.NewSource(seed))

			load := keys.Sequential(initCount)

			var (
				txns *keys.Buffer
				err  error
			)
			switch dist {
			case "uniform":
				txns, err = keys.Uniform(rng, txnCount, load)
			case "zipfian":
				txns, err = keys.Zipfian(rng, txnCount, load, zipfS)
			default:
				return errors.Newf("unknown distribution %q (uniform, zipfian)", dist)
			}
			if err != nil {
				return err
			}

			if err := keys.Write(args[0], load); err != nil {
				return err
			}
			if err := keys.Write(args[1], txns); err != nil {
				return err
			}
			logger.Info("", "wrote %s load keys to %s and %s %s run keys to %s (seed %d)",
				humanize.Comma(int64(load.Count())), args[0],
				humanize.Comma(int64(txns.Count())), dist, args[1], seed)
			return nil
		},
	}

	fs := cmd.Flags()
	fs.Uint64Var(&initCount, "init-count", 250_000_000, "ロードファイルのキー数")
	fs.Uint64Var(&txnCount, "txn-count", 1_000_000_000, "ランファイルのキー数")
	fs.StringVar(&dist, "dist", "zipfian", "ランファイルの分布 (uniform, zipfian)")
	fs.Int64Var(&seed, "seed", 0, "乱数シード (0 ならランダム)")
	fs.Float64Var(&zipfS, "zipf-s", keys.DefaultZipfS, "Zipf分布の歪度 (> 1)")
	return cmd
}

func newPresetsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "presets",
		Short: "List available presets",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			out := cmd.OutOrStdout()
			_, _ = fmt.Fprintln(out, "利用可能なプリセット:")
			_, _ = fmt.Fprintln(out)
			for _, name := range trial.ListPresets() {
				preset, _ := trial.GetPreset(name)
				_, _ = fmt.Fprintf(out, "  %-10s threads %v, %d trials, %d populate threads\n",
					name, preset.Configurations(), preset.Trials, preset.PopulateThreads)
			}
			_, _ = fmt.Fprintln(out)
			_, _ = fmt.Fprintf(out, "store kinds: %v\n", store.Kinds())
		},
	}
}
