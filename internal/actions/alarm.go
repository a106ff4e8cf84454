package actions

import (
	"fmt"
	"time"
)

// Alarm pulses the controller's alarm output. On and Off default to the
// configured alarm timings.
type Alarm struct {
	Cycles int           `yaml:"cycles"`
	On     time.Duration `yaml:"on,omitempty"`
	Off    time.Duration `yaml:"off,omitempty"`
	Reason string        `yaml:"reason,omitempty"`
}

func (a *Alarm) Validate(ab *ActionBuilder) error {
	if a.Cycles <= 0 {
		return fmt.Errorf("cycles (%d) must be greater than 0", a.Cycles)
	}
	if a.On < 0 || a.Off < 0 {
		return fmt.Errorf("on/off durations must not be negative")
	}
	return nil
}

func (a *Alarm) Build(ab *ActionBuilder) *ActionBuilder {
	ab.steps = append(ab.steps, Step{
		name: fmt.Sprintf("Alarm (%d)", a.Cycles),
		execute: func(bot BotInterface) error {
			timing := bot.Timing()
			on, off := a.On, a.Off
			if on == 0 {
				on = timing.AlarmOn
			}
			if off == 0 {
				off = timing.AlarmOff
			}
			reason := a.Reason
			if reason == "" {
				reason = "alarm action"
			}
			return soundAlarm(bot, a.Cycles, on, off, reason)
		},
		issue: a.Validate(ab),
	})
	return ab
}

// Log writes a message, with the current counters attached
type Log struct {
	Message string `yaml:"message"`
}

func (a *Log) Validate(ab *ActionBuilder) error {
	if a.Message == "" {
		return fmt.Errorf("message is required")
	}
	return nil
}

func (a *Log) Build(ab *ActionBuilder) *ActionBuilder {
	if err := a.Validate(ab); err != nil {
		ab.steps = append(ab.steps, Step{name: "Log", issue: err})
		return ab
	}
	return ab.Log(a.Message)
}

// ExitAction ends the run successfully
type ExitAction struct{}

func (a *ExitAction) Validate(ab *ActionBuilder) error {
	return nil
}

func (a *ExitAction) Build(ab *ActionBuilder) *ActionBuilder {
	return ab.Exit()
}
