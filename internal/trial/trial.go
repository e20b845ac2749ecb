package trial

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/dustin/go-humanize"

	"ycsb-kvs/internal/affinity"
	"ycsb-kvs/internal/bench"
	"ycsb-kvs/internal/events"
	"ycsb-kvs/internal/keys"
	"ycsb-kvs/internal/logger"
	"ycsb-kvs/internal/store"
	"ycsb-kvs/internal/worker"
	"ycsb-kvs/internal/workload"
)

const scope = "trial"

// Config はトライアル実行の設定
type Config struct {
	Workload workload.ID
	Threads  int   // 0 なら Sweep を巡回する
	Sweep    []int // スレッド数の構成一覧
	Trials   int   // 構成あたりの試行回数

	PopulateThreads int // 投入フェーズのスレッド数

	StoreKind   string // "mem" または "pebble"
	StoragePath string // ストアの保存先（試行ごとに削除する）
	LogSize     uint64 // ストアのログサイズ

	Params       bench.Params
	Seed         int64         // 0 ならランダム
	PollInterval time.Duration // 進捗ログの間隔

	Pin    bool // スレッドをコアに固定する
	Layout affinity.Layout
}

// DefaultConfig はデフォルト設定を返す
func DefaultConfig() Config {
	return Config{
		Workload:        workload.A5050,
		Threads:         0,
		Sweep:           append([]int(nil), DefaultSweep...),
		Trials:          3,
		PopulateThreads: 48,
		StoreKind:       "mem",
		StoragePath:     "storage",
		LogSize:         34359738368,
		Params:          bench.DefaultParams(),
		PollInterval:    30 * time.Second,
		Layout:          affinity.DefaultLayout(),
	}
}

// Configurations は実行するスレッド数の一覧を返す
func (c Config) Configurations() []int {
	if c.Threads > 0 {
		return []int{c.Threads}
	}
	return append([]int(nil), c.Sweep...)
}

// Validate は設定を検証する
func (c Config) Validate() error {
	if c.Threads < 0 {
		return errors.Newf("thread count must be non-negative, got %d", c.Threads)
	}
	if c.Threads == 0 && len(c.Sweep) == 0 {
		return errors.New("sweep must not be empty when thread count is 0")
	}
	for _, n := range c.Sweep {
		if n <= 0 {
			return errors.Newf("sweep entries must be positive, got %d", n)
		}
	}
	if c.Trials <= 0 {
		return errors.Newf("trials must be positive, got %d", c.Trials)
	}
	if c.PopulateThreads <= 0 {
		return errors.Newf("populate threads must be positive, got %d", c.PopulateThreads)
	}
	if c.StoreKind == "" {
		return errors.New("store kind is required")
	}
	if err := validateStoragePath(c.StoragePath); err != nil {
		return err
	}
	if c.PollInterval <= 0 {
		return errors.Newf("poll interval must be positive, got %s", c.PollInterval)
	}
	if _, err := c.Workload.Policy(); err != nil {
		return err
	}
	return nil
}

// validateStoragePath は試行後に削除しても安全な保存先かを検証する
func validateStoragePath(path string) error {
	if strings.TrimSpace(path) == "" {
		return errors.New("storage path is required")
	}
	clean := filepath.Clean(path)
	if clean == filepath.Dir(clean) {
		return errors.Newf("storage path %q is a root directory", path)
	}
	if abs, err := filepath.Abs(clean); err == nil {
		if wd, err := os.Getwd(); err == nil && isAncestorOrSelf(abs, wd) {
			return errors.Newf("storage path %q contains the working directory", path)
		}
	}
	return nil
}

// isAncestorOrSelf は dir が path 自身かその祖先かを返す
func isAncestorOrSelf(dir, path string) bool {
	rel, err := filepath.Rel(dir, path)
	if err != nil {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}

// Status は実行中の状態
type Status struct {
	Running   bool         `json:"running"`
	Workload  string       `json:"workload"`
	Store     string       `json:"store"`
	Phase     events.Phase `json:"phase"`
	Threads   int          `json:"threads"`
	Trial     int          `json:"trial"`
	Remaining int64        `json:"remaining"`
	Position  uint64       `json:"position"`
}

// Orchestrator は構成ごとのトライアルを実行する
type Orchestrator struct {
	config   Config
	policy   workload.Policy
	loadKeys *keys.Buffer
	txnKeys  *keys.Buffer
	results  *ResultTable
	eventBus *events.Bus
	out      io.Writer
	log      *logger.Logger

	mu      sync.RWMutex
	running bool
	phase   events.Phase
	threads int
	trial   int
	current *bench.Run
}

// New は新しい Orchestrator を作成する
func New(config Config, loadKeys, txnKeys *keys.Buffer) (*Orchestrator, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	if loadKeys == nil || txnKeys == nil {
		return nil, errors.New("load and run key buffers are required")
	}
	if err := config.Params.Validate(loadKeys.Count(), txnKeys.Count()); err != nil {
		return nil, err
	}
	policy, err := config.Workload.Policy()
	if err != nil {
		return nil, err
	}
	return &Orchestrator{
		config:   config,
		policy:   policy,
		loadKeys: loadKeys,
		txnKeys:  txnKeys,
		results:  NewResultTable(),
		out:      os.Stdout,
		log:      logger.Default,
		phase:    events.PhaseIdle,
	}, nil
}

// SetEventBus はイベントバスを設定する
func (o *Orchestrator) SetEventBus(bus *events.Bus) {
	o.eventBus = bus
}

// SetOutput は結果行の出力先を設定する
func (o *Orchestrator) SetOutput(w io.Writer) {
	o.out = w
}

// SetLogger はロガーを設定する
func (o *Orchestrator) SetLogger(l *logger.Logger) {
	o.log = l
}

// Results は結果表を返す
func (o *Orchestrator) Results() *ResultTable {
	return o.results
}

// Status は現在の状態を返す
func (o *Orchestrator) Status() Status {
	o.mu.RLock()
	defer o.mu.RUnlock()
	st := Status{
		Running:  o.running,
		Workload: o.config.Workload.Name(),
		Store:    o.config.StoreKind,
		Phase:    o.phase,
		Threads:  o.threads,
		Trial:    o.trial,
	}
	if o.current != nil {
		st.Remaining = o.current.Remaining()
		st.Position = o.current.Position()
	}
	return st
}

// IsRunning は実行中かどうかを返す
func (o *Orchestrator) IsRunning() bool {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.running
}

// Run は全構成のトライアルを実行する
// コンテキストのキャンセルは試行の合間にのみ確認する
func (o *Orchestrator) Run(ctx context.Context) (*ResultTable, error) {
	o.mu.Lock()
	if o.running {
		o.mu.Unlock()
		return nil, errors.New("benchmark is already running")
	}
	o.running = true
	o.mu.Unlock()

	defer func() {
		o.mu.Lock()
		o.running = false
		o.phase = events.PhaseIdle
		o.current = nil
		o.mu.Unlock()
	}()

	o.log.Info(scope, "workload %s on %s store, configurations %v, %d trials each",
		o.config.Workload.Name(), o.config.StoreKind, o.config.Configurations(), o.config.Trials)

	for _, threads := range o.config.Configurations() {
		for i := range o.config.Trials {
			if err := ctx.Err(); err != nil {
				return o.results, errors.Wrap(err, "benchmark interrupted")
			}
			result, err := o.runTrial(threads, i)
			if err != nil {
				return o.results, err
			}
			o.results.Add(threads, result)
			o.publish(events.NewTrialResultEvent(threads, i, result))
		}
	}

	_, _ = fmt.Fprint(o.out, o.results.Report())
	return o.results, nil
}

// runTrial は1回分の投入とベンチマークを実行する
func (o *Orchestrator) runTrial(threads, trial int) (result float64, err error) {
	o.mu.Lock()
	o.threads = threads
	o.trial = trial
	o.mu.Unlock()

	opts := store.Options{
		CapacityHint: store.NextPowerOfTwo(o.loadKeys.Count() / 2),
		LogSize:      o.config.LogSize,
		Path:         o.config.StoragePath,
	}
	s, err := store.Open(o.config.StoreKind, opts)
	if err != nil {
		return 0, errors.Wrapf(err, "open %s store", o.config.StoreKind)
	}
	defer func() {
		if derr := s.Destroy(); derr != nil && err == nil {
			err = errors.Wrap(derr, "destroy store")
		}
		if rerr := os.RemoveAll(o.config.StoragePath); rerr != nil && err == nil {
			err = errors.Wrapf(rerr, "remove %s", o.config.StoragePath)
		}
	}()

	o.log.Info(scope, "Populating the store...")
	populated, err := o.runPhase(s, events.PhasePopulate, o.loadKeys, o.config.PopulateThreads, nil, trial)
	if err != nil {
		return 0, err
	}
	o.log.Info(scope, "Finished populating store: %s ops/second/thread", humanize.CommafWithDigits(populated, 2))

	s.DumpDistribution(o.out)
	// Size は pebblestore では全件走査になるため debug 時のみ数える
	if o.log.Enabled(logger.LevelDebug) {
		o.log.Debug(scope, "Store size: %s", humanize.Comma(int64(s.Size())))
	}

	o.log.Info(scope, "Running benchmark on %d threads...", threads)
	result, err = o.runPhase(s, events.PhaseBenchmark, o.txnKeys, threads, o.policy, trial)
	if err != nil {
		return 0, err
	}
	_, _ = fmt.Fprintf(o.out, "Finished benchmark: %d threads; %.2f ops/second/thread\n", threads, result)
	return result, nil
}

// runPhase はフェーズのスレッドを起動し、全スレッドの終了を待つ
func (o *Orchestrator) runPhase(
	s store.Store, phase events.Phase, buf *keys.Buffer,
	threads int, policy workload.Policy, trial int,
) (float64, error) {
	run, err := bench.NewRun(bench.RunConfig{
		Phase:  phase,
		Keys:   buf,
		Params: o.config.Params,
		Policy: policy,
		Seed:   o.config.Seed,
		Trial:  trial,
		Events: o.eventBus,
		Logger: o.log,
	})
	if err != nil {
		return 0, err
	}
	run.Reset(threads)

	o.mu.Lock()
	o.phase = phase
	o.current = run
	o.mu.Unlock()

	o.publish(events.NewPhaseStartEvent(phase, threads, trial))
	start := time.Now()

	group := worker.NewGroup(worker.Config{Pin: o.config.Pin, Layout: o.config.Layout})
	group.Go(threads, func(idx int) error {
		return run.Thread(s, idx)
	})

	ticker := time.NewTicker(o.config.PollInterval)
	defer ticker.Stop()

	done := group.Done()
	var phaseErr error
wait:
	for {
		select {
		case phaseErr = <-done:
			break wait
		case <-ticker.C:
			o.log.Info(scope, "%s: %d of %d threads running, %s keys claimed",
				phase, run.Remaining(), threads, humanize.Comma(int64(run.Position()/o.config.Params.Stride)))
		}
	}

	o.publish(events.NewPhaseEndEvent(phase, threads, trial, time.Since(start), phaseErr))
	if phaseErr != nil {
		return 0, errors.Wrapf(phaseErr, "%s phase", phase)
	}
	return run.Finalize(), nil
}

func (o *Orchestrator) publish(ev events.Event) {
	if o.eventBus != nil {
		o.eventBus.Publish(ev)
	}
}
