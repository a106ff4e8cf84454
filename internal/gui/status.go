package gui

import (
	"fmt"
	"sync"

	"jordanella.com/switch-farm-go/internal/events"
)

// Status is what the supervisor window shows about the current run
type Status struct {
	Table       string
	State       string
	Result      string // Empty while running
	Ticks       int64
	Transitions int
	Alarms      int
	Paused      bool
}

// Headline returns the one-line summary shown above the video
func (s Status) Headline() string {
	switch {
	case s.Table == "":
		return "Waiting for run"
	case s.Result != "":
		return fmt.Sprintf("%s: %s in %s", s.Table, s.Result, s.State)
	case s.Paused:
		return fmt.Sprintf("%s: paused in %s", s.Table, s.State)
	default:
		return fmt.Sprintf("%s: %s", s.Table, s.State)
	}
}

// Counters returns the counter line shown below the video
func (s Status) Counters() string {
	return fmt.Sprintf("Ticks: %d  Transitions: %d  Alarms: %d", s.Ticks, s.Transitions, s.Alarms)
}

// statusTracker folds bus events into a Status
type statusTracker struct {
	mu     sync.Mutex
	status Status
}

// apply updates the status and reports whether the event was relevant
func (t *statusTracker) apply(event events.Event) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	d := event.Data
	switch event.Type {
	case events.EventTypeRunStarted:
		t.status = Status{
			Table: fmt.Sprint(d["table"]),
			State: fmt.Sprint(d["initial"]),
		}
	case events.EventTypeTransition:
		t.status.State = fmt.Sprint(d["to"])
		if tick, ok := d["tick"].(int64); ok {
			t.status.Ticks = tick
		}
		if d["from"] != d["to"] {
			t.status.Transitions++
		}
	case events.EventTypeAlarm:
		t.status.Alarms++
	case events.EventTypeRunFinished, events.EventTypeRunFailed:
		t.status.Result = fmt.Sprint(d["result"])
		if ticks, ok := d["ticks"].(int64); ok {
			t.status.Ticks = ticks
		}
	default:
		return false
	}
	return true
}

func (t *statusTracker) setPaused(paused bool) {
	t.mu.Lock()
	t.status.Paused = paused
	t.mu.Unlock()
}

func (t *statusTracker) snapshot() Status {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.status
}
