// Package events provides an event system for benchmark run notifications.
package events

import "time"

// EventType represents the type of event
type EventType string

const (
	// EventRunStart is emitted when a benchmark run begins
	EventRunStart EventType = "run_start"
	// EventPhaseStart is emitted when a benchmark phase begins
	EventPhaseStart EventType = "phase_start"
	// EventPhaseComplete is emitted when a phase finishes successfully
	EventPhaseComplete EventType = "phase_complete"
	// EventPhaseFailed is emitted when a phase aborts with an error
	EventPhaseFailed EventType = "phase_failed"
	// EventProgress is emitted periodically while a phase is running
	EventProgress EventType = "progress"
	// EventRunComplete is emitted when the whole run (including cleanup) is done
	EventRunComplete EventType = "run_complete"
)

// Event represents a benchmark run notification
type Event struct {
	Type      EventType `json:"type"`
	Timestamp time.Time `json:"timestamp"`
	Phase     string    `json:"phase,omitempty"`
	Data      EventData `json:"data,omitempty"`
}

// EventData contains event-specific data
type EventData struct {
	Iterations int     `json:"iterations,omitempty"`
	Completed  int     `json:"completed,omitempty"`
	Throughput float64 `json:"throughput,omitempty"`
	DeletedKey int     `json:"deleted_keys,omitempty"`
	Error      string  `json:"error,omitempty"`
}

// NewRunStartEvent creates a run start event
func NewRunStartEvent() Event {
	return Event{
		Type:      EventRunStart,
		Timestamp: time.Now(),
	}
}

// NewPhaseStartEvent creates a phase start event
func NewPhaseStartEvent(phase string, iterations int) Event {
	return Event{
		Type:      EventPhaseStart,
		Timestamp: time.Now(),
		Phase:     phase,
		Data: EventData{
			Iterations: iterations,
		},
	}
}

// NewPhaseCompleteEvent creates a phase completion event
func NewPhaseCompleteEvent(phase string, throughput float64) Event {
	return Event{
		Type:      EventPhaseComplete,
		Timestamp: time.Now(),
		Phase:     phase,
		Data: EventData{
			Throughput: throughput,
		},
	}
}

// NewPhaseFailedEvent creates a phase failure event
func NewPhaseFailedEvent(phase string, err error) Event {
	errMsg := ""
	if err != nil {
		errMsg = err.Error()
	}
	return Event{
		Type:      EventPhaseFailed,
		Timestamp: time.Now(),
		Phase:     phase,
		Data: EventData{
			Error: errMsg,
		},
	}
}

// NewProgressEvent creates a progress event
func NewProgressEvent(phase string, completed, iterations int) Event {
	return Event{
		Type:      EventProgress,
		Timestamp: time.Now(),
		Phase:     phase,
		Data: EventData{
			Completed:  completed,
			Iterations: iterations,
		},
	}
}

// NewRunCompleteEvent creates a run completion event
func NewRunCompleteEvent(deletedKeys int) Event {
	return Event{
		Type:      EventRunComplete,
		Timestamp: time.Now(),
		Data: EventData{
			DeletedKey: deletedKeys,
		},
	}
}
