package api

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"

	"ycsb-kvs/internal/events"
)

const namespace = "ycsb"

// collectors はサーバーが公開するメトリクス
type collectors struct {
	threadsRemaining prometheus.GaugeFunc
	lastThroughput   *prometheus.GaugeVec
	trialsCompleted  prometheus.Counter
	threadsFinished  *prometheus.CounterVec
	eventsDropped    prometheus.CounterFunc
}

func newCollectors(reg prometheus.Registerer, source StatusSource, bus *events.Bus) *collectors {
	c := &collectors{
		threadsRemaining: prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "threads_remaining",
			Help:      "Worker threads of the current phase that have not exhausted the key stream.",
		}, func() float64 {
			return float64(source.Status().Remaining)
		}),
		lastThroughput: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_throughput_ops_per_second_per_thread",
			Help:      "Most recent trial result per thread count.",
		}, []string{"threads"}),
		trialsCompleted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "trials_completed_total",
			Help:      "Trials that produced a sample.",
		}),
		threadsFinished: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "threads_finished_total",
			Help:      "Worker threads that recorded their totals, by phase.",
		}, []string{"phase"}),
		eventsDropped: prometheus.NewCounterFunc(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "events_dropped_total",
			Help:      "Event deliveries dropped on full subscriber buffers.",
		}, func() float64 {
			return float64(bus.Dropped())
		}),
	}
	reg.MustRegister(c.threadsRemaining, c.lastThroughput, c.trialsCompleted, c.threadsFinished, c.eventsDropped)
	return c
}

// observe はイベントをメトリクスに反映する
func (c *collectors) observe(ev events.Event) {
	switch ev.Type {
	case events.EventTrialResult:
		c.lastThroughput.WithLabelValues(strconv.Itoa(ev.Threads)).Set(ev.Data.OpsPerSecond)
		c.trialsCompleted.Inc()
	case events.EventThreadFinish:
		c.threadsFinished.WithLabelValues(string(ev.Phase)).Inc()
	}
}
