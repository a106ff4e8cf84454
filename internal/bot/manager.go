package bot

import (
	"fmt"
	"math"
	"time"

	"jordanella.com/switch-farm-go/internal/actions"
	"jordanella.com/switch-farm-go/internal/logging"
	"jordanella.com/switch-farm-go/internal/monitor"
)

// RestartPolicy decides whether a failed run is started again
type RestartPolicy struct {
	Enabled       bool          `yaml:"enabled"`
	MaxRetries    int           `yaml:"max_retries"` // 0 = unlimited
	InitialDelay  time.Duration `yaml:"initial_delay"`
	MaxDelay      time.Duration `yaml:"max_delay"`
	BackoffFactor float64       `yaml:"backoff_factor"`
}

// DefaultRestartPolicy returns a disabled policy with sensible backoff
func DefaultRestartPolicy() RestartPolicy {
	return RestartPolicy{
		Enabled:       false,
		MaxRetries:    3,
		InitialDelay:  5 * time.Second,
		MaxDelay:      5 * time.Minute,
		BackoffFactor: 2.0,
	}
}

// delay returns the backoff before retry attempt n (1-based)
func (p RestartPolicy) delay(n int) time.Duration {
	factor := p.BackoffFactor
	if factor < 1 {
		factor = 1
	}
	d := time.Duration(float64(p.InitialDelay) * math.Pow(factor, float64(n-1)))
	if p.MaxDelay > 0 && d > p.MaxDelay {
		d = p.MaxDelay
	}
	return d
}

// Restartable reports whether a run that ended with err may be retried.
// Only device and I/O failures are retried; table errors, invalid visual
// states and cancellation need a human.
func Restartable(err error) bool {
	switch monitor.Classify(err) {
	case monitor.KindCaptureFailed, monitor.KindUnknown:
		return true
	default:
		return false
	}
}

// Manager holds the table and template registries shared by runs
type Manager struct {
	tables    *actions.TableRegistry
	templates actions.TemplateMatcher
	log       *logging.Logger
	sleep     func(b *Bot, d time.Duration) bool
}

// NewManager creates a manager over an already loaded table registry
func NewManager(tables *actions.TableRegistry, templates actions.TemplateMatcher) *Manager {
	return &Manager{
		tables:    tables,
		templates: templates,
		log:       logging.NewLogger("Manager"),
		sleep:     sleepOrCancel,
	}
}

// Tables returns the table registry
func (m *Manager) Tables() *actions.TableRegistry {
	return m.tables
}

// Templates returns the template matcher, or nil
func (m *Manager) Templates() actions.TemplateMatcher {
	return m.templates
}

// Table returns a named table with parameter overrides applied
func (m *Manager) Table(name string, params map[string]int) (*actions.StateTable, error) {
	return m.tables.GetWithParams(name, params)
}

// Execute runs a named table once on b
func (m *Manager) Execute(b *Bot, name string, params map[string]int) (Result, error) {
	return m.ExecuteWithRestart(b, name, params, RestartPolicy{})
}

// ExecuteWithRestart runs a named table on b, starting it again after
// restartable failures as policy allows. Each attempt is a separate run in
// the journal; counters are kept across attempts.
func (m *Manager) ExecuteWithRestart(b *Bot, name string, params map[string]int, policy RestartPolicy) (Result, error) {
	table, err := m.Table(name, params)
	if err != nil {
		return Result{Status: StatusFailed, Table: name}, err
	}

	runner := NewRunner(b)
	attempt := 0
	for {
		result, err := runner.Run(table)
		if err == nil || !policy.Enabled || !Restartable(err) {
			return result, err
		}

		if policy.MaxRetries > 0 && attempt >= policy.MaxRetries {
			return result, fmt.Errorf("table '%s' failed after %d retries: %w", name, attempt, err)
		}
		attempt++

		delay := policy.delay(attempt)
		m.log.WarnWithContext("Run failed, restarting", map[string]interface{}{
			"table":   name,
			"attempt": attempt,
			"delay":   delay.String(),
			"error":   err.Error(),
		})

		if !m.sleep(b, delay) {
			result.Status = StatusCancelled
			return result, nil
		}
		runner.WithInitialState(result.FinalState)
	}
}

// sleepOrCancel waits d unless the bot is cancelled or stopped first
func sleepOrCancel(b *Bot, d time.Duration) bool {
	stopped := b.routineController.Done()
	select {
	case <-stopped:
		return false
	default:
	}

	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return true
	case <-stopped:
		return false
	case <-b.ctx.Done():
		return false
	}
}
