package monitor

import (
	"sync"
	"time"
)

// StallCallback is invoked when a state overstays its budget
type StallCallback func(state string, elapsed time.Duration)

// StallDetector tracks how long the runner has been in one state. It is
// driven by the runner's own ticks and clock, so it runs no goroutine.
// A stall is reported once per budget period; the runner keeps going.
type StallDetector struct {
	mu        sync.Mutex
	state     string
	budget    time.Duration
	enteredAt time.Time
	nextAlarm time.Time
	stalls    int

	onStall StallCallback
}

// NewStallDetector creates a detector with no state entered
func NewStallDetector() *StallDetector {
	return &StallDetector{}
}

// WithStallCallback sets the callback invoked on each reported stall
func (sd *StallDetector) WithStallCallback(callback StallCallback) *StallDetector {
	sd.onStall = callback
	return sd
}

// Enter records that the runner is in state. Re-entering the current state
// (a self-transition) keeps the original entry time; a different state
// restarts the budget. A zero budget disables detection.
func (sd *StallDetector) Enter(state string, budget time.Duration, now time.Time) {
	sd.mu.Lock()
	defer sd.mu.Unlock()

	if state == sd.state && budget == sd.budget && !sd.enteredAt.IsZero() {
		return
	}
	sd.state = state
	sd.budget = budget
	sd.enteredAt = now
	sd.nextAlarm = now.Add(budget)
}

// Check reports a stall when the budget period has elapsed since the last
// report. It returns true at most once per period.
func (sd *StallDetector) Check(now time.Time) (stalled bool, elapsed time.Duration) {
	sd.mu.Lock()
	if sd.budget <= 0 || sd.enteredAt.IsZero() || now.Before(sd.nextAlarm) {
		sd.mu.Unlock()
		return false, 0
	}

	elapsed = now.Sub(sd.enteredAt)
	sd.nextAlarm = now.Add(sd.budget)
	sd.stalls++
	state := sd.state
	callback := sd.onStall
	sd.mu.Unlock()

	if callback != nil {
		callback(state, elapsed)
	}
	return true, elapsed
}

// Stalls returns how many stalls were reported
func (sd *StallDetector) Stalls() int {
	sd.mu.Lock()
	defer sd.mu.Unlock()
	return sd.stalls
}

// State returns the state being tracked
func (sd *StallDetector) State() string {
	sd.mu.Lock()
	defer sd.mu.Unlock()
	return sd.state
}
