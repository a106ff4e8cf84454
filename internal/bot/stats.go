package bot

import (
	"sync"

	"jordanella.com/switch-farm-go/internal/actions"
)

// Stats counts what the runner did. The control goroutine writes it; the
// GUI reads snapshots.
type Stats struct {
	Ticks       int64
	Transitions int64
	SelfLoops   int64
	Alarms      int
	Visits      map[actions.StateName]int64 // Ticks spent per state
}

type statsRecorder struct {
	mu    sync.Mutex
	stats Stats
}

func newStatsRecorder() *statsRecorder {
	return &statsRecorder{
		stats: Stats{Visits: make(map[actions.StateName]int64)},
	}
}

func (r *statsRecorder) tick(state actions.StateName) int64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.stats.Ticks++
	r.stats.Visits[state]++
	return r.stats.Ticks
}

func (r *statsRecorder) transition(from, to actions.StateName) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if from == to {
		r.stats.SelfLoops++
		return
	}
	r.stats.Transitions++
}

func (r *statsRecorder) alarm() {
	r.mu.Lock()
	r.stats.Alarms++
	r.mu.Unlock()
}

func (r *statsRecorder) snapshot() Stats {
	r.mu.Lock()
	defer r.mu.Unlock()
	s := r.stats
	s.Visits = make(map[actions.StateName]int64, len(r.stats.Visits))
	for k, v := range r.stats.Visits {
		s.Visits[k] = v
	}
	return s
}
