package actions

import (
	"sort"
	"sync"
	"time"
)

// Counters holds the mutable farming state of a single run: integer
// counters (eggs hatched, boxes filled), boolean flags (shiny seen) and
// named timestamps. Actions write it; conditions only read it.
type Counters struct {
	mu     sync.RWMutex
	ints   map[string]int
	flags  map[string]bool
	timers map[string]time.Time
	params map[string]int
}

// NewCounters creates an empty store
func NewCounters() *Counters {
	return &Counters{
		ints:   make(map[string]int),
		flags:  make(map[string]bool),
		timers: make(map[string]time.Time),
		params: make(map[string]int),
	}
}

// Get returns a counter value, zero when unset
func (c *Counters) Get(name string) int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.ints[name]
}

// Set overwrites a counter
func (c *Counters) Set(name string, value int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.ints[name] = value
}

// Add adds delta to a counter and returns the new value
func (c *Counters) Add(name string, delta int) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.ints[name] += delta
	return c.ints[name]
}

// Flag returns a flag value, false when unset
func (c *Counters) Flag(name string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.flags[name]
}

func (c *Counters) SetFlag(name string, value bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.flags[name] = value
}

// Mark records t under a timer name
func (c *Counters) Mark(name string, t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.timers[name] = t
}

// Since returns how long ago a timer was marked. ok is false for unmarked timers.
func (c *Counters) Since(name string, now time.Time) (elapsed time.Duration, ok bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	t, ok := c.timers[name]
	if !ok {
		return 0, false
	}
	return now.Sub(t), true
}

// Param returns a table parameter
func (c *Counters) Param(name string) (int, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	v, ok := c.params[name]
	return v, ok
}

// SetParams installs table parameters. Existing parameters are replaced.
func (c *Counters) SetParams(params map[string]int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.params = make(map[string]int, len(params))
	for k, v := range params {
		c.params[k] = v
	}
}

// Lookup resolves a name used in ${...}: parameters first, then counters
func (c *Counters) Lookup(name string) (int, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if v, ok := c.params[name]; ok {
		return v, true
	}
	v, ok := c.ints[name]
	return v, ok
}

// ResetCounters zeroes the named counters, or all of them when none are named
func (c *Counters) ResetCounters(names ...string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(names) == 0 {
		c.ints = make(map[string]int)
		return
	}
	for _, name := range names {
		delete(c.ints, name)
	}
}

// ResetFlags clears the named flags, or all of them when none are named
func (c *Counters) ResetFlags(names ...string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(names) == 0 {
		c.flags = make(map[string]bool)
		return
	}
	for _, name := range names {
		delete(c.flags, name)
	}
}

// ResetTimers forgets the named timers, or all of them when none are named
func (c *Counters) ResetTimers(names ...string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(names) == 0 {
		c.timers = make(map[string]time.Time)
		return
	}
	for _, name := range names {
		delete(c.timers, name)
	}
}

// Snapshot returns a copy of counters and flags for observers
func (c *Counters) Snapshot() map[string]interface{} {
	c.mu.RLock()
	defer c.mu.RUnlock()

	snapshot := make(map[string]interface{}, len(c.ints)+len(c.flags))
	for k, v := range c.ints {
		snapshot[k] = v
	}
	for k, v := range c.flags {
		snapshot[k] = v
	}
	return snapshot
}

// Names returns the sorted names of all counters and flags
func (c *Counters) Names() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	names := make([]string, 0, len(c.ints)+len(c.flags))
	for k := range c.ints {
		names = append(names, k)
	}
	for k := range c.flags {
		if _, dup := c.ints[k]; !dup {
			names = append(names, k)
		}
	}
	sort.Strings(names)
	return names
}
