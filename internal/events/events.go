// Package events provides an event system for benchmark progress notifications.
package events

import "time"

// EventType represents the type of event
type EventType string

const (
	// EventPhaseStart is emitted when a populate or benchmark phase launches its threads
	EventPhaseStart EventType = "phase_start"
	// EventPhaseEnd is emitted after every thread of a phase has been joined
	EventPhaseEnd EventType = "phase_end"
	// EventThreadFinish is emitted when a worker thread records its totals
	EventThreadFinish EventType = "thread_finish"
	// EventTrialResult is emitted when a trial produces its throughput sample
	EventTrialResult EventType = "trial_result"
)

// Phase names the part of a trial that is running
type Phase string

const (
	PhaseIdle      Phase = "idle"
	PhasePopulate  Phase = "populate"
	PhaseBenchmark Phase = "benchmark"
)

// Event represents a benchmark progress event
type Event struct {
	Type      EventType `json:"type"`
	Timestamp time.Time `json:"timestamp"`
	Phase     Phase     `json:"phase,omitempty"`
	Threads   int       `json:"threads"`
	Trial     int       `json:"trial"`
	Data      EventData `json:"data,omitempty"`
}

// EventData contains event-specific data
type EventData struct {
	Thread       int     `json:"thread,omitempty"`
	Reads        uint64  `json:"reads,omitempty"`
	Writes       uint64  `json:"writes,omitempty"`
	Elapsed      string  `json:"elapsed,omitempty"`
	OpsPerSecond float64 `json:"ops_per_second,omitempty"`
	Error        string  `json:"error,omitempty"`
}

// NewPhaseStartEvent creates a phase start event
func NewPhaseStartEvent(phase Phase, threads, trial int) Event {
	return Event{
		Type:      EventPhaseStart,
		Timestamp: time.Now(),
		Phase:     phase,
		Threads:   threads,
		Trial:     trial,
	}
}

// NewPhaseEndEvent creates a phase end event; err is the phase's first worker error
func NewPhaseEndEvent(phase Phase, threads, trial int, elapsed time.Duration, err error) Event {
	errMsg := ""
	if err != nil {
		errMsg = err.Error()
	}
	return Event{
		Type:      EventPhaseEnd,
		Timestamp: time.Now(),
		Phase:     phase,
		Threads:   threads,
		Trial:     trial,
		Data: EventData{
			Elapsed: elapsed.String(),
			Error:   errMsg,
		},
	}
}

// NewThreadFinishEvent creates a thread finish event
func NewThreadFinishEvent(phase Phase, thread int, reads, writes uint64, elapsed time.Duration) Event {
	return Event{
		Type:      EventThreadFinish,
		Timestamp: time.Now(),
		Phase:     phase,
		Data: EventData{
			Thread:  thread,
			Reads:   reads,
			Writes:  writes,
			Elapsed: elapsed.String(),
		},
	}
}

// NewTrialResultEvent creates a trial result event
func NewTrialResultEvent(threads, trial int, opsPerSecond float64) Event {
	return Event{
		Type:      EventTrialResult,
		Timestamp: time.Now(),
		Phase:     PhaseBenchmark,
		Threads:   threads,
		Trial:     trial,
		Data: EventData{
			OpsPerSecond: opsPerSecond,
		},
	}
}
