package api

import (
	"context"
	"encoding/json"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/net/websocket"

	"ycsb-kvs/internal/events"
	"ycsb-kvs/internal/trial"
)

type fakeSource struct {
	status  trial.Status
	results *trial.ResultTable
}

func (f *fakeSource) Status() trial.Status         { return f.status }
func (f *fakeSource) Results() *trial.ResultTable { return f.results }

func newFakeSource() *fakeSource {
	results := trial.NewResultTable()
	results.Add(2, 100)
	results.Add(2, 300)
	return &fakeSource{
		status: trial.Status{
			Running:   true,
			Workload:  "ycsb-a-50-50",
			Store:     "mem",
			Phase:     events.PhaseBenchmark,
			Threads:   2,
			Trial:     1,
			Remaining: 1,
			Position:  4096,
		},
		results: results,
	}
}

func get(t *testing.T, url string) (*http.Response, []byte) {
	t.Helper()
	resp, err := http.Get(url)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, body
}

func TestStatusAndResults(t *testing.T) {
	s := NewServer("", newFakeSource(), events.NewBus())
	ts := httptest.NewServer(s.Handler())
	defer ts.Close()

	resp, body := get(t, ts.URL+"/api/status")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))

	var status trial.Status
	require.NoError(t, json.Unmarshal(body, &status))
	assert.Equal(t, events.PhaseBenchmark, status.Phase)
	assert.Equal(t, int64(1), status.Remaining)

	_, body = get(t, ts.URL+"/api/results")
	var results ResultsResponse
	require.NoError(t, json.Unmarshal(body, &results))
	require.Len(t, results.Configurations, 1)
	assert.Equal(t, 2, results.Configurations[0].Threads)
	assert.Equal(t, 200.0, results.Configurations[0].Mean)

	_, body = get(t, ts.URL+"/api/presets")
	assert.Contains(t, string(body), "quick")
}

func TestMethodNotAllowed(t *testing.T) {
	s := NewServer("", newFakeSource(), events.NewBus())
	ts := httptest.NewServer(s.Handler())
	defer ts.Close()

	for _, path := range []string{"/api/status", "/api/results", "/api/presets"} {
		resp, err := http.Post(ts.URL+path, "application/json", strings.NewReader("{}"))
		require.NoError(t, err)
		_ = resp.Body.Close()
		assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode, path)
	}
}

func TestMetrics(t *testing.T) {
	s := NewServer("", newFakeSource(), events.NewBus())

	s.metrics.observe(events.NewTrialResultEvent(4, 0, 1500))
	s.metrics.observe(events.NewTrialResultEvent(4, 1, 2500))
	s.metrics.observe(events.NewThreadFinishEvent(events.PhasePopulate, 0, 0, 10, time.Second))

	assert.Equal(t, 2.0, testutil.ToFloat64(s.metrics.trialsCompleted))
	assert.Equal(t, 2500.0, testutil.ToFloat64(s.metrics.lastThroughput.WithLabelValues("4")))
	assert.Equal(t, 1.0, testutil.ToFloat64(s.metrics.threadsFinished.WithLabelValues("populate")))
	assert.Equal(t, 1.0, testutil.ToFloat64(s.metrics.threadsRemaining))

	ts := httptest.NewServer(s.Handler())
	defer ts.Close()
	_, body := get(t, ts.URL+"/metrics")
	assert.Contains(t, string(body), "ycsb_trials_completed_total 2")
	assert.Contains(t, string(body), "ycsb_threads_remaining 1")
	assert.Contains(t, string(body), `ycsb_last_throughput_ops_per_second_per_thread{threads="4"} 2500`)
}

func TestWebSocketStreamsEvents(t *testing.T) {
	bus := events.NewBus()
	s := NewServer("", newFakeSource(), bus)
	s.statusInterval = time.Hour

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	served := make(chan error, 1)
	go func() { served <- s.Serve(ctx, ln) }()

	addr := ln.Addr().String()
	ws, err := websocket.Dial("ws://"+addr+"/ws", "", "http://"+addr+"/")
	require.NoError(t, err)
	defer func() { _ = ws.Close() }()

	require.Eventually(t, func() bool {
		return s.ClientCount() == 1 && bus.SubscriberCount() == 1
	}, 2*time.Second, 5*time.Millisecond)

	bus.Publish(events.NewTrialResultEvent(8, 2, 42))

	require.NoError(t, ws.SetReadDeadline(time.Now().Add(2*time.Second)))
	var msg string
	require.NoError(t, websocket.Message.Receive(ws, &msg))

	var frame struct {
		Type  string       `json:"type"`
		Event events.Event `json:"event"`
	}
	require.NoError(t, json.Unmarshal([]byte(msg), &frame))
	assert.Equal(t, "event", frame.Type)
	assert.Equal(t, events.EventTrialResult, frame.Event.Type)
	assert.Equal(t, 8, frame.Event.Threads)

	cancel()
	select {
	case err := <-served:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down")
	}
}
