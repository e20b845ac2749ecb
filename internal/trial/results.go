package trial

import (
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
	"sync"

	"github.com/dustin/go-humanize"
	"github.com/olekukonko/tablewriter"
)

// Summary は1構成分の集計
type Summary struct {
	Threads int       `json:"threads"`
	Samples []float64 `json:"samples"`
	Mean    float64   `json:"mean"`
	StdDev  float64   `json:"stddev"`
}

// ResultTable はスレッド数ごとの試行結果を保持する
type ResultTable struct {
	mu      sync.RWMutex
	order   []int
	samples map[int][]float64
}

// NewResultTable は空の結果表を作成する
func NewResultTable() *ResultTable {
	return &ResultTable{
		samples: make(map[int][]float64),
	}
}

// Add は実行した構成に1試行分の結果を追加する
func (t *ResultTable) Add(threads int, opsPerSecond float64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, ok := t.samples[threads]; !ok {
		t.order = append(t.order, threads)
	}
	t.samples[threads] = append(t.samples[threads], opsPerSecond)
}

// Configurations は最初に記録された順の構成一覧を返す
func (t *ResultTable) Configurations() []int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return append([]int(nil), t.order...)
}

// Samples は構成の試行結果を返す
func (t *ResultTable) Samples(threads int) []float64 {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return append([]float64(nil), t.samples[threads]...)
}

// Summaries は構成ごとの平均と標準偏差を返す
func (t *ResultTable) Summaries() []Summary {
	t.mu.RLock()
	defer t.mu.RUnlock()

	out := make([]Summary, 0, len(t.order))
	for _, threads := range t.order {
		samples := append([]float64(nil), t.samples[threads]...)
		mean, stddev := meanStdDev(samples)
		out = append(out, Summary{
			Threads: threads,
			Samples: samples,
			Mean:    mean,
			StdDev:  stddev,
		})
	}
	return out
}

// meanStdDev は平均と標本標準偏差を返す
func meanStdDev(xs []float64) (float64, float64) {
	if len(xs) == 0 {
		return 0, 0
	}
	var sum float64
	for _, x := range xs {
		sum += x
	}
	mean := sum / float64(len(xs))
	if len(xs) < 2 {
		return mean, 0
	}
	var sq float64
	for _, x := range xs {
		sq += (x - mean) * (x - mean)
	}
	return mean, math.Sqrt(sq / float64(len(xs)-1))
}

// Report は構成ごとに1行の結果を返す
// 形式: "N threads a b c ops/second/thread"
func (t *ResultTable) Report() string {
	var b strings.Builder
	for _, s := range t.Summaries() {
		_, _ = fmt.Fprintf(&b, "%d threads", s.Threads)
		for _, v := range s.Samples {
			_, _ = fmt.Fprintf(&b, " %.2f", v)
		}
		b.WriteString(" ops/second/thread\n")
	}
	return b.String()
}

// Render は結果を表形式で書き出す
func (t *ResultTable) Render(w io.Writer) {
	summaries := t.Summaries()
	trials := 0
	for _, s := range summaries {
		trials = max(trials, len(s.Samples))
	}

	header := []string{"threads"}
	for i := range trials {
		header = append(header, "trial "+strconv.Itoa(i+1))
	}
	header = append(header, "mean", "stddev")

	table := tablewriter.NewWriter(w)
	table.SetAutoFormatHeaders(false)
	table.SetAutoWrapText(false)
	table.SetAlignment(tablewriter.ALIGN_RIGHT)
	table.SetHeader(header)

	for _, s := range summaries {
		row := []string{strconv.Itoa(s.Threads)}
		for i := range trials {
			cell := "-"
			if i < len(s.Samples) {
				cell = humanize.CommafWithDigits(s.Samples[i], 2)
			}
			row = append(row, cell)
		}
		row = append(row,
			humanize.CommafWithDigits(s.Mean, 2),
			humanize.CommafWithDigits(s.StdDev, 2),
		)
		table.Append(row)
	}
	table.Render()
}
