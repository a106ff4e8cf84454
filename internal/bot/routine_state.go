package bot

import (
	"sync"
)

// RunState is the lifecycle state of a run as seen by the supervisor
type RunState int32

const (
	StateIdle RunState = iota
	StateRunning
	StatePaused  // Paused by the operator, frames are not captured
	StateStopped // Stop requested, the next capture fails
	StateCompleted
)

func (s RunState) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateRunning:
		return "running"
	case StatePaused:
		return "paused"
	case StateStopped:
		return "stopped"
	default:
		return "completed"
	}
}

// RoutineController carries pause/resume/stop requests from the supervisor
// (GUI, signal handler) to the control goroutine. The sampler consults it
// before every capture, which is the only place a run can be interrupted.
type RoutineController struct {
	mu      sync.Mutex
	state   RunState
	resumed chan struct{} // Closed on resume; replaced on pause
	stopped chan struct{} // Closed once on stop
	onState func(RunState)
}

// NewRoutineController creates an idle controller
func NewRoutineController() *RoutineController {
	return &RoutineController{
		resumed: closedChan(),
		stopped: make(chan struct{}),
	}
}

func closedChan() chan struct{} {
	ch := make(chan struct{})
	close(ch)
	return ch
}

// OnStateChange registers a callback invoked after every state change
func (rc *RoutineController) OnStateChange(fn func(RunState)) {
	rc.mu.Lock()
	rc.onState = fn
	rc.mu.Unlock()
}

func (rc *RoutineController) setLocked(state RunState) func() {
	rc.state = state
	fn := rc.onState
	if fn == nil {
		return func() {}
	}
	return func() { fn(state) }
}

// State returns the current run state
func (rc *RoutineController) State() RunState {
	rc.mu.Lock()
	defer rc.mu.Unlock()
	return rc.state
}

// IsRunning returns true if a run is in progress and not paused
func (rc *RoutineController) IsRunning() bool {
	return rc.State() == StateRunning
}

// IsPaused returns true if execution is paused
func (rc *RoutineController) IsPaused() bool {
	return rc.State() == StatePaused
}

// IsStopped returns true once a stop was requested or the run ended
func (rc *RoutineController) IsStopped() bool {
	state := rc.State()
	return state == StateStopped || state == StateCompleted
}

// Start marks the run as running. A stop requested before the run
// started is kept.
func (rc *RoutineController) Start() {
	rc.mu.Lock()
	if rc.state == StateStopped {
		rc.mu.Unlock()
		return
	}
	notify := rc.setLocked(StateRunning)
	rc.mu.Unlock()
	notify()
}

// Complete marks the run as finished; later captures are refused
func (rc *RoutineController) Complete() {
	rc.mu.Lock()
	notify := rc.setLocked(StateCompleted)
	rc.mu.Unlock()
	notify()
}

// Pause pauses a running run.
// Returns true if pause was initiated, false if not running.
func (rc *RoutineController) Pause() bool {
	rc.mu.Lock()
	if rc.state != StateRunning {
		rc.mu.Unlock()
		return false
	}
	rc.resumed = make(chan struct{})
	notify := rc.setLocked(StatePaused)
	rc.mu.Unlock()
	notify()
	return true
}

// Resume resumes a paused run.
// Returns true if resume was initiated, false if not paused.
func (rc *RoutineController) Resume() bool {
	rc.mu.Lock()
	if rc.state != StatePaused {
		rc.mu.Unlock()
		return false
	}
	close(rc.resumed)
	notify := rc.setLocked(StateRunning)
	rc.mu.Unlock()
	notify()
	return true
}

// Stop requests the run to end at its next capture.
// Returns false if a stop was already requested.
func (rc *RoutineController) Stop() bool {
	rc.mu.Lock()
	select {
	case <-rc.stopped:
		rc.mu.Unlock()
		return false
	default:
	}
	close(rc.stopped)
	notify := rc.setLocked(StateStopped)
	rc.mu.Unlock()
	notify()
	return true
}

// Done returns a channel closed once a stop is requested
func (rc *RoutineController) Done() <-chan struct{} {
	return rc.stopped
}

// CheckPauseOrStop returns true if execution should continue and false once
// stopped. While paused it blocks until resumed or stopped.
func (rc *RoutineController) CheckPauseOrStop() bool {
	rc.mu.Lock()
	state := rc.state
	resumed := rc.resumed
	stopped := rc.stopped
	rc.mu.Unlock()

	switch state {
	case StateStopped, StateCompleted:
		return false
	case StatePaused:
		select {
		case <-resumed:
			return !rc.IsStopped()
		case <-stopped:
			return false
		}
	default:
		return true
	}
}
