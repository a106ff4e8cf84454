package cv

import (
	"sync"
	"time"
)

// Clock is the time source used for sampling deadlines
type Clock interface {
	Now() time.Time
}

// RealClock reads the wall clock (monotonic reading included)
type RealClock struct{}

func (RealClock) Now() time.Time { return time.Now() }

// ManualClock only moves when advanced. Used with scripted capturers.
type ManualClock struct {
	mu  sync.Mutex
	now time.Time
}

// NewManualClock creates a clock frozen at start
func NewManualClock(start time.Time) *ManualClock {
	return &ManualClock{now: start}
}

func (c *ManualClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// Advance moves the clock forward by d
func (c *ManualClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}
