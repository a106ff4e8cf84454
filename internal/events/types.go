package events

import "time"

// EventType represents different types of events in the system
type EventType string

const (
	// Run lifecycle
	EventTypeRunStarted  EventType = "run.started"
	EventTypeRunFinished EventType = "run.finished"
	EventTypeRunFailed   EventType = "run.failed"

	// State machine
	EventTypeTransition EventType = "state.transition"
	EventTypeStalled    EventType = "state.stalled"

	// Controller
	EventTypeAlarm EventType = "controller.alarm"

	// Counters changed by an action
	EventTypeCounters EventType = "counters.changed"

	// Error events
	EventTypeError EventType = "error"
)

// AllEventTypes lists every event type, for subscribers that want everything
var AllEventTypes = []EventType{
	EventTypeRunStarted,
	EventTypeRunFinished,
	EventTypeRunFailed,
	EventTypeTransition,
	EventTypeStalled,
	EventTypeAlarm,
	EventTypeCounters,
	EventTypeError,
}

// Event represents a system event with metadata
type Event struct {
	Type      EventType              // Type of event
	Source    string                 // Component that emitted event (e.g., "runner")
	Timestamp time.Time              // When the event occurred
	Data      map[string]interface{} // Event-specific data
}

// EventHandler is a function that processes an event
type EventHandler func(Event)

// SubscriptionID uniquely identifies a subscription
type SubscriptionID int64

// EventBus defines the interface for event pub/sub
type EventBus interface {
	// Subscribe registers a handler for a specific event type
	Subscribe(eventType EventType, handler EventHandler) SubscriptionID

	// Unsubscribe removes a subscription by ID
	Unsubscribe(id SubscriptionID)

	// Publish sends an event to all subscribers (blocking until queued)
	Publish(event Event)

	// Stop stops the event bus and drains remaining events
	Stop()
}

// Helper functions to create common events

// NewRunStartedEvent creates a run started event
func NewRunStartedEvent(runID, table, initial string) Event {
	return Event{
		Type:      EventTypeRunStarted,
		Source:    "runner",
		Timestamp: time.Now(),
		Data: map[string]interface{}{
			"run_id":  runID,
			"table":   table,
			"initial": initial,
		},
	}
}

// NewRunFinishedEvent creates a run finished event
func NewRunFinishedEvent(runID, result string, ticks int64, err error) Event {
	data := map[string]interface{}{
		"run_id": runID,
		"result": result,
		"ticks":  ticks,
	}
	eventType := EventTypeRunFinished
	if err != nil {
		data["error"] = err.Error()
		eventType = EventTypeRunFailed
	}
	return Event{
		Type:      eventType,
		Source:    "runner",
		Timestamp: time.Now(),
		Data:      data,
	}
}

// NewTransitionEvent creates a state transition event
func NewTransitionEvent(runID, from, to string, rule int, tick int64) Event {
	return Event{
		Type:      EventTypeTransition,
		Source:    "runner",
		Timestamp: time.Now(),
		Data: map[string]interface{}{
			"run_id": runID,
			"from":   from,
			"to":     to,
			"rule":   rule,
			"tick":   tick,
		},
	}
}

// NewStalledEvent creates an event for a state that exceeded its time budget
func NewStalledEvent(runID, state string, elapsed time.Duration) Event {
	return Event{
		Type:      EventTypeStalled,
		Source:    "runner",
		Timestamp: time.Now(),
		Data: map[string]interface{}{
			"run_id":  runID,
			"state":   state,
			"elapsed": elapsed.String(),
		},
	}
}

// NewAlarmEvent creates an alarm event
func NewAlarmEvent(source, reason string) Event {
	return Event{
		Type:      EventTypeAlarm,
		Source:    source,
		Timestamp: time.Now(),
		Data: map[string]interface{}{
			"reason": reason,
		},
	}
}

// NewCountersEvent carries a snapshot of the run counters
func NewCountersEvent(snapshot map[string]interface{}) Event {
	return Event{
		Type:      EventTypeCounters,
		Source:    "actions",
		Timestamp: time.Now(),
		Data:      snapshot,
	}
}

// NewErrorEvent creates an error event
func NewErrorEvent(source, errorType, severity, message string) Event {
	return Event{
		Type:      EventTypeError,
		Source:    source,
		Timestamp: time.Now(),
		Data: map[string]interface{}{
			"error_type": errorType,
			"severity":   severity,
			"message":    message,
		},
	}
}
