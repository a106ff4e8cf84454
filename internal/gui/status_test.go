package gui

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"jordanella.com/switch-farm-go/internal/events"
)

func TestEntryFor(t *testing.T) {
	tests := []struct {
		name      string
		event     events.Event
		wantLevel LogLevel
		wantMsg   string
	}{
		{
			name:      "run started",
			event:     events.NewRunStartedEvent("r1", "arceus_reset", "INITIAL"),
			wantLevel: LogLevelInfo,
			wantMsg:   "Run started: arceus_reset from INITIAL",
		},
		{
			name:      "transition",
			event:     events.NewTransitionEvent("r1", "INITIAL", "WAIT", 2, 7),
			wantLevel: LogLevelInfo,
			wantMsg:   "INITIAL -> WAIT (tick 7)",
		},
		{
			name:      "self loop",
			event:     events.NewTransitionEvent("r1", "WAIT", "WAIT", 1, 8),
			wantLevel: LogLevelDebug,
			wantMsg:   "WAIT -> WAIT (tick 8)",
		},
		{
			name:      "stalled",
			event:     events.NewStalledEvent("r1", "WAIT", 90*time.Second),
			wantLevel: LogLevelWarn,
			wantMsg:   "Stuck in WAIT for 1m30s",
		},
		{
			name:      "alarm",
			event:     events.NewAlarmEvent("actions", "shiny"),
			wantLevel: LogLevelWarn,
			wantMsg:   "Alarm: shiny",
		},
		{
			name:      "finished",
			event:     events.NewRunFinishedEvent("r1", "exited", 12, nil),
			wantLevel: LogLevelInfo,
			wantMsg:   "Run exited after 12 ticks",
		},
		{
			name:      "failed",
			event:     events.NewRunFinishedEvent("r1", "failed", 3, errors.New("capture failed")),
			wantLevel: LogLevelError,
			wantMsg:   "Run failed after 3 ticks: capture failed",
		},
		{
			name:      "error",
			event:     events.NewErrorEvent("runner", "unknown", "critical", "port closed"),
			wantLevel: LogLevelError,
			wantMsg:   "unknown: port closed",
		},
		{
			name:      "minor error",
			event:     events.NewErrorEvent("runner", "timeout_exceeded", "medium", "still waiting"),
			wantLevel: LogLevelWarn,
			wantMsg:   "timeout_exceeded: still waiting",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			entry, ok := entryFor(tt.event)
			require.True(t, ok)
			assert.Equal(t, tt.wantLevel, entry.Level)
			assert.Equal(t, tt.wantMsg, entry.Message)
		})
	}

	_, ok := entryFor(events.NewCountersEvent(map[string]interface{}{"resets": 1}))
	assert.False(t, ok, "counters are not logged")
}

func TestStatusTracker(t *testing.T) {
	var tracker statusTracker

	assert.False(t, tracker.apply(events.NewCountersEvent(nil)))
	assert.Equal(t, "Waiting for run", tracker.snapshot().Headline())

	tracker.apply(events.NewRunStartedEvent("r1", "arceus_reset", "INITIAL"))
	tracker.apply(events.NewTransitionEvent("r1", "INITIAL", "WAIT", 1, 4))
	tracker.apply(events.NewTransitionEvent("r1", "WAIT", "WAIT", 1, 5))
	tracker.apply(events.NewAlarmEvent("actions", "shiny"))

	status := tracker.snapshot()
	assert.Equal(t, "arceus_reset: WAIT", status.Headline())
	assert.Equal(t, "Ticks: 5  Transitions: 1  Alarms: 1", status.Counters())

	tracker.setPaused(true)
	assert.Equal(t, "arceus_reset: paused in WAIT", tracker.snapshot().Headline())
	tracker.setPaused(false)

	tracker.apply(events.NewRunFinishedEvent("r1", "cancelled", 9, nil))
	status = tracker.snapshot()
	assert.Equal(t, "arceus_reset: cancelled in WAIT", status.Headline())
	assert.Equal(t, int64(9), status.Ticks)

	// A new run starts from a clean slate
	tracker.apply(events.NewRunStartedEvent("r2", "arceus_reset", "INITIAL"))
	assert.Equal(t, Status{Table: "arceus_reset", State: "INITIAL"}, tracker.snapshot())
}

func TestLogPanelAttach(t *testing.T) {
	defer goleak.VerifyNone(t)

	panel := NewLogPanel(2)
	bus := events.NewEventBus(16)
	panel.Attach(bus)

	bus.Publish(events.NewRunStartedEvent("r1", "t", "A"))
	bus.Publish(events.NewCountersEvent(nil))
	bus.Publish(events.NewTransitionEvent("r1", "A", "B", 1, 2))
	bus.Publish(events.NewRunFinishedEvent("r1", "exited", 3, nil))
	bus.Stop()

	require.Equal(t, 2, panel.Len(), "oldest entries are trimmed")
	first, ok := panel.At(0)
	require.True(t, ok)
	assert.Equal(t, "A -> B (tick 2)", first.Message)
	_, ok = panel.At(2)
	assert.False(t, ok)

	panel.Clear()
	assert.Zero(t, panel.Len())
}

type fakeControls struct {
	stops int
}

func (f *fakeControls) Pause() bool  { return true }
func (f *fakeControls) Resume() bool { return true }
func (f *fakeControls) Stop() bool   { f.stops++; return true }

func TestRequestCancelLatches(t *testing.T) {
	controls := &fakeControls{}
	w := &SupervisorWindow{}
	w.Bind(controls)

	assert.False(t, w.Cancelled())
	w.RequestCancel()
	w.RequestCancel()

	assert.True(t, w.Cancelled())
	assert.Equal(t, 1, controls.stops, "the bot is stopped once")
}
