package trial

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResultTableOrderAndReport(t *testing.T) {
	table := NewResultTable()
	table.Add(4, 10)
	table.Add(1, 1.5)
	table.Add(4, 20)
	table.Add(1, 2.5)
	table.Add(4, 30)
	table.Add(1, 3.5)

	assert.Equal(t, []int{4, 1}, table.Configurations())
	assert.Equal(t, []float64{10, 20, 30}, table.Samples(4))
	assert.Equal(t,
		"4 threads 10.00 20.00 30.00 ops/second/thread\n"+
			"1 threads 1.50 2.50 3.50 ops/second/thread\n",
		table.Report())
}

func TestResultTableSamplesAreCopies(t *testing.T) {
	table := NewResultTable()
	table.Add(2, 5)
	s := table.Samples(2)
	s[0] = 99
	assert.Equal(t, []float64{5}, table.Samples(2))
}

func TestSummaries(t *testing.T) {
	table := NewResultTable()
	for _, v := range []float64{2, 4, 4, 4, 5, 5, 7, 9} {
		table.Add(8, v)
	}
	table.Add(16, 3)

	summaries := table.Summaries()
	require.Len(t, summaries, 2)
	assert.Equal(t, 8, summaries[0].Threads)
	assert.InDelta(t, 5.0, summaries[0].Mean, 1e-9)
	assert.InDelta(t, 2.138089935, summaries[0].StdDev, 1e-6)

	assert.Equal(t, 3.0, summaries[1].Mean)
	assert.Zero(t, summaries[1].StdDev)
}

func TestRender(t *testing.T) {
	table := NewResultTable()
	table.Add(1, 1234.5)
	table.Add(1, 1234.5)
	table.Add(2, 10)

	buf := &bytes.Buffer{}
	table.Render(buf)
	out := buf.String()

	assert.Contains(t, out, "threads")
	assert.Contains(t, out, "trial 1")
	assert.Contains(t, out, "trial 2")
	assert.Contains(t, out, "mean")
	assert.Contains(t, out, "stddev")
	assert.Contains(t, out, "1,234.5")
	// 2スレッドは1試行のみなので欠損を "-" で表す
	assert.Contains(t, out, "-")
}
