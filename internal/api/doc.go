// Package api serves an optional progress monitor over HTTP.
//
// The server exposes the orchestrator's live status and result table as
// JSON, streams benchmark events to websocket clients, and publishes
// Prometheus metrics:
//
//	GET /api/status    current phase, trial, thread count and threads remaining
//	GET /api/results   samples, mean and stddev per thread count
//	GET /api/presets   available preset names
//	    /ws            websocket stream of events and periodic status
//	GET /metrics       Prometheus exposition
//
// The server only reads shared state. It never blocks a worker thread: events
// reach it through the bus, which drops deliveries to slow subscribers.
package api
