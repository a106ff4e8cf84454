package bot

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestRoutineControllerLifecycle(t *testing.T) {
	rc := NewRoutineController()

	var mu sync.Mutex
	var seen []RunState
	rc.OnStateChange(func(state RunState) {
		mu.Lock()
		seen = append(seen, state)
		mu.Unlock()
	})

	assert.Equal(t, StateIdle, rc.State())
	assert.False(t, rc.Pause(), "cannot pause an idle run")

	rc.Start()
	assert.True(t, rc.IsRunning())
	assert.True(t, rc.CheckPauseOrStop())

	assert.True(t, rc.Pause())
	assert.True(t, rc.IsPaused())
	assert.False(t, rc.Pause())

	assert.True(t, rc.Resume())
	assert.False(t, rc.Resume())

	assert.True(t, rc.Stop())
	assert.False(t, rc.Stop(), "stop is reported once")
	assert.True(t, rc.IsStopped())
	assert.False(t, rc.CheckPauseOrStop())

	rc.Start()
	assert.Equal(t, StateStopped, rc.State(), "a requested stop survives Start")

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []RunState{StateRunning, StatePaused, StateRunning, StateStopped}, seen)
}

func TestRoutineControllerCompleteRefusesCaptures(t *testing.T) {
	rc := NewRoutineController()
	rc.Start()
	rc.Complete()

	assert.True(t, rc.IsStopped())
	assert.False(t, rc.CheckPauseOrStop())

	rc.Start()
	assert.True(t, rc.IsRunning(), "a completed controller can run again")
}

func TestCheckPauseOrStopBlocksWhilePaused(t *testing.T) {
	defer goleak.VerifyNone(t)

	tests := []struct {
		name   string
		wake   func(rc *RoutineController)
		expect bool
	}{
		{name: "resume", wake: func(rc *RoutineController) { rc.Resume() }, expect: true},
		{name: "stop", wake: func(rc *RoutineController) { rc.Stop() }, expect: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rc := NewRoutineController()
			rc.Start()
			require.True(t, rc.Pause())

			done := make(chan bool)
			go func() { done <- rc.CheckPauseOrStop() }()

			select {
			case <-done:
				t.Fatal("CheckPauseOrStop returned while paused")
			case <-time.After(20 * time.Millisecond):
			}

			tt.wake(rc)

			select {
			case got := <-done:
				assert.Equal(t, tt.expect, got)
			case <-time.After(time.Second):
				t.Fatal("CheckPauseOrStop did not return")
			}
		})
	}
}

func TestRunStateString(t *testing.T) {
	assert.Equal(t, "idle", StateIdle.String())
	assert.Equal(t, "running", StateRunning.String())
	assert.Equal(t, "paused", StatePaused.String())
	assert.Equal(t, "stopped", StateStopped.String())
	assert.Equal(t, "completed", StateCompleted.String())
}
