package actions

import (
	"fmt"
	"time"

	"jordanella.com/switch-farm-go/internal/controller"
)

// Press taps a button. Button accepts a raw code ("A", "w") or a name ("UP").
type Press struct {
	Button   string        `yaml:"button"`
	Duration time.Duration `yaml:"duration,omitempty"`
}

func (a *Press) Validate(ab *ActionBuilder) error {
	if a.Button == "" {
		return fmt.Errorf("button is required")
	}
	if _, err := controller.Parse(a.Button); err != nil {
		return err
	}
	if a.Duration < 0 {
		return fmt.Errorf("duration (%v) must not be negative", a.Duration)
	}
	return nil
}

func (a *Press) Build(ab *ActionBuilder) *ActionBuilder {
	code, err := controller.Parse(a.Button)
	step := Step{
		name: fmt.Sprintf("Press %s", a.Button),
		execute: func(bot BotInterface) error {
			return press(bot, code, a.Duration)
		},
		issue: err,
	}
	if step.issue == nil {
		step.issue = a.Validate(ab)
	}
	ab.steps = append(ab.steps, step)
	return ab
}

// Hold presses a button and leaves it held until a release
type Hold struct {
	Button string `yaml:"button"`
}

func (a *Hold) Validate(ab *ActionBuilder) error {
	if a.Button == "" {
		return fmt.Errorf("button is required")
	}
	_, err := controller.Parse(a.Button)
	return err
}

func (a *Hold) Build(ab *ActionBuilder) *ActionBuilder {
	code, err := controller.Parse(a.Button)
	ab.steps = append(ab.steps, Step{
		name: fmt.Sprintf("Hold %s", a.Button),
		execute: func(bot BotInterface) error {
			return bot.Controller().Send(code)
		},
		issue: err,
	})
	return ab
}

// Release lets go of every held input
type Release struct{}

func (a *Release) Validate(ab *ActionBuilder) error {
	return nil
}

func (a *Release) Build(ab *ActionBuilder) *ActionBuilder {
	return ab.Release()
}

// Wait samples frames for a duration without sending anything
type Wait struct {
	Duration time.Duration `yaml:"duration"`
}

func (a *Wait) Validate(ab *ActionBuilder) error {
	if a.Duration <= 0 {
		return fmt.Errorf("duration (%v) must be greater than 0", a.Duration)
	}
	return nil
}

func (a *Wait) Build(ab *ActionBuilder) *ActionBuilder {
	step := Step{
		name: fmt.Sprintf("Wait %v", a.Duration),
		execute: func(bot BotInterface) error {
			return bot.Video().WaitFor(bot.Context(), a.Duration)
		},
		issue: a.Validate(ab),
	}
	ab.steps = append(ab.steps, step)
	return ab
}
