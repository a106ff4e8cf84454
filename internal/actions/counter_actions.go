package actions

import (
	"fmt"
	"time"

	"jordanella.com/switch-farm-go/internal/events"
)

// Increment adds to a counter (by 1 when By is omitted)
type Increment struct {
	Counter string   `yaml:"counter"`
	By      IntValue `yaml:"by,omitempty"`
}

func (a *Increment) Validate(ab *ActionBuilder) error {
	if a.Counter == "" {
		return fmt.Errorf("counter name is required")
	}
	if a.By != "" {
		if err := a.By.Validate(); err != nil {
			return fmt.Errorf("by: %w", err)
		}
	}
	return nil
}

func (a *Increment) Build(ab *ActionBuilder) *ActionBuilder {
	ab.steps = append(ab.steps, Step{
		name: fmt.Sprintf("Increment %s", a.Counter),
		execute: func(bot BotInterface) error {
			return addToCounter(bot, a.Counter, a.By, 1)
		},
		issue: a.Validate(ab),
	})
	return ab
}

// Decrement subtracts from a counter (by 1 when By is omitted)
type Decrement struct {
	Counter string   `yaml:"counter"`
	By      IntValue `yaml:"by,omitempty"`
}

func (a *Decrement) Validate(ab *ActionBuilder) error {
	if a.Counter == "" {
		return fmt.Errorf("counter name is required")
	}
	if a.By != "" {
		if err := a.By.Validate(); err != nil {
			return fmt.Errorf("by: %w", err)
		}
	}
	return nil
}

func (a *Decrement) Build(ab *ActionBuilder) *ActionBuilder {
	ab.steps = append(ab.steps, Step{
		name: fmt.Sprintf("Decrement %s", a.Counter),
		execute: func(bot BotInterface) error {
			return addToCounter(bot, a.Counter, a.By, -1)
		},
		issue: a.Validate(ab),
	})
	return ab
}

func addToCounter(bot BotInterface, name string, by IntValue, sign int) error {
	delta := 1
	if by != "" {
		n, err := by.Resolve(bot.Counters())
		if err != nil {
			return fmt.Errorf("counter %s: %w", name, err)
		}
		delta = n
	}
	bot.Counters().Add(name, sign*delta)
	publish(bot, events.NewCountersEvent(bot.Counters().Snapshot()))
	return nil
}

// SetCounter overwrites a counter
type SetCounter struct {
	Counter string   `yaml:"counter"`
	Value   IntValue `yaml:"value"`
}

func (a *SetCounter) Validate(ab *ActionBuilder) error {
	if a.Counter == "" {
		return fmt.Errorf("counter name is required")
	}
	return a.Value.Validate()
}

func (a *SetCounter) Build(ab *ActionBuilder) *ActionBuilder {
	ab.steps = append(ab.steps, Step{
		name: fmt.Sprintf("SetCounter %s", a.Counter),
		execute: func(bot BotInterface) error {
			value, err := a.Value.Resolve(bot.Counters())
			if err != nil {
				return fmt.Errorf("counter %s: %w", a.Counter, err)
			}
			bot.Counters().Set(a.Counter, value)
			publish(bot, events.NewCountersEvent(bot.Counters().Snapshot()))
			return nil
		},
		issue: a.Validate(ab),
	})
	return ab
}

// Reset clears counters, flags and timers. With All set, everything is
// cleared; otherwise only the named entries.
type Reset struct {
	Counters []string `yaml:"counters,omitempty"`
	Flags    []string `yaml:"flags,omitempty"`
	Timers   []string `yaml:"timers,omitempty"`
	All      bool     `yaml:"all,omitempty"`
}

func (a *Reset) Validate(ab *ActionBuilder) error {
	if !a.All && len(a.Counters)+len(a.Flags)+len(a.Timers) == 0 {
		return fmt.Errorf("nothing to reset (name counters, flags, timers or set all)")
	}
	return nil
}

func (a *Reset) Build(ab *ActionBuilder) *ActionBuilder {
	ab.steps = append(ab.steps, Step{
		name: "Reset",
		execute: func(bot BotInterface) error {
			c := bot.Counters()
			if a.All {
				c.ResetCounters()
				c.ResetFlags()
				c.ResetTimers()
			} else {
				if len(a.Counters) > 0 {
					c.ResetCounters(a.Counters...)
				}
				if len(a.Flags) > 0 {
					c.ResetFlags(a.Flags...)
				}
				if len(a.Timers) > 0 {
					c.ResetTimers(a.Timers...)
				}
			}
			publish(bot, events.NewCountersEvent(c.Snapshot()))
			return nil
		},
		issue: a.Validate(ab),
	})
	return ab
}

// SetFlag sets a boolean flag (true when Value is omitted)
type SetFlag struct {
	Flag  string `yaml:"flag"`
	Value *bool  `yaml:"value,omitempty"`
}

func (a *SetFlag) Validate(ab *ActionBuilder) error {
	if a.Flag == "" {
		return fmt.Errorf("flag name is required")
	}
	return nil
}

func (a *SetFlag) Build(ab *ActionBuilder) *ActionBuilder {
	value := true
	if a.Value != nil {
		value = *a.Value
	}
	ab.steps = append(ab.steps, Step{
		name: fmt.Sprintf("SetFlag %s=%t", a.Flag, value),
		execute: func(bot BotInterface) error {
			bot.Counters().SetFlag(a.Flag, value)
			publish(bot, events.NewCountersEvent(bot.Counters().Snapshot()))
			return nil
		},
		issue: a.Validate(ab),
	})
	return ab
}

// MarkTime records the current sampler time under a timer name
type MarkTime struct {
	Timer string `yaml:"timer"`
}

func (a *MarkTime) Validate(ab *ActionBuilder) error {
	if a.Timer == "" {
		return fmt.Errorf("timer name is required")
	}
	return nil
}

func (a *MarkTime) Build(ab *ActionBuilder) *ActionBuilder {
	ab.steps = append(ab.steps, Step{
		name: fmt.Sprintf("MarkTime %s", a.Timer),
		execute: func(bot BotInterface) error {
			bot.Counters().Mark(a.Timer, bot.Video().Clock().Now())
			return nil
		},
		issue: a.Validate(ab),
	})
	return ab
}

// CheckElapsed sets Flag when more than Threshold has passed since Timer was
// marked. This is the dialog-delay heuristic: a shiny's sparkle animation
// delays the battle text, so a slow dialog means a shiny.
type CheckElapsed struct {
	Timer     string        `yaml:"timer"`
	Threshold time.Duration `yaml:"threshold"`
	Flag      string        `yaml:"flag"`
}

func (a *CheckElapsed) Validate(ab *ActionBuilder) error {
	if a.Timer == "" {
		return fmt.Errorf("timer name is required")
	}
	if a.Flag == "" {
		return fmt.Errorf("flag name is required")
	}
	if a.Threshold <= 0 {
		return fmt.Errorf("threshold (%v) must be greater than 0", a.Threshold)
	}
	return nil
}

func (a *CheckElapsed) Build(ab *ActionBuilder) *ActionBuilder {
	ab.steps = append(ab.steps, Step{
		name: fmt.Sprintf("CheckElapsed %s > %v", a.Timer, a.Threshold),
		execute: func(bot BotInterface) error {
			elapsed, ok := bot.Counters().Since(a.Timer, bot.Video().Clock().Now())
			if !ok {
				return fmt.Errorf("timer %s was never marked", a.Timer)
			}
			log.DebugWithContext("Elapsed check", map[string]interface{}{
				"timer":     a.Timer,
				"elapsed":   elapsed.String(),
				"threshold": a.Threshold.String(),
			})
			if elapsed > a.Threshold {
				bot.Counters().SetFlag(a.Flag, true)
				publish(bot, events.NewCountersEvent(bot.Counters().Snapshot()))
			}
			return nil
		},
		issue: a.Validate(ab),
	})
	return ab
}
