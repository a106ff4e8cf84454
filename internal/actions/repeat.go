package actions

import (
	"fmt"
)

// Do runs nested actions in order. Registered as both "do" and "sequence".
type Do struct {
	Steps []ActionStep `yaml:"steps"`
}

// UnmarshalYAML implements custom unmarshaling for Do to handle polymorphic Steps
func (a *Do) UnmarshalYAML(unmarshal func(interface{}) error) error {
	var raw map[string]interface{}
	if err := unmarshal(&raw); err != nil {
		return err
	}

	steps, err := unmarshalNestedActions(raw["steps"])
	if err != nil {
		return err
	}
	a.Steps = steps
	return nil
}

func (a *Do) Validate(ab *ActionBuilder) error {
	for i, action := range a.Steps {
		if err := action.Validate(ab); err != nil {
			return fmt.Errorf("Do -> nested action %d: %w", i+1, err)
		}
	}
	return nil
}

func (a *Do) Build(ab *ActionBuilder) *ActionBuilder {
	nested := ab.buildSteps(a.Steps)
	ab.steps = append(ab.steps, Step{
		name:    fmt.Sprintf("Do (%d)", len(a.Steps)),
		execute: nested.Execute,
		issue:   a.Validate(ab),
	})
	return ab
}

// Repeat runs nested actions a fixed number of times. Count may reference
// a table parameter.
type Repeat struct {
	Count IntValue     `yaml:"count"`
	Steps []ActionStep `yaml:"steps"`
}

// UnmarshalYAML implements custom unmarshaling for Repeat to handle polymorphic Steps
func (a *Repeat) UnmarshalYAML(unmarshal func(interface{}) error) error {
	var raw map[string]interface{}
	if err := unmarshal(&raw); err != nil {
		return err
	}

	if val, ok := raw["count"]; ok && val != nil {
		a.Count = IntValue(fmt.Sprint(val))
	}

	steps, err := unmarshalNestedActions(raw["steps"])
	if err != nil {
		return err
	}
	a.Steps = steps
	return nil
}

func (a *Repeat) Validate(ab *ActionBuilder) error {
	if err := a.Count.Validate(); err != nil {
		return fmt.Errorf("count: %w", err)
	}
	if !a.Count.HasInterpolation() {
		if n, _ := a.Count.Resolve(nil); n <= 0 {
			return fmt.Errorf("count (%d) must be greater than 0", n)
		}
	}

	if len(a.Steps) == 0 {
		return fmt.Errorf("steps cannot be empty")
	}

	for i, action := range a.Steps {
		if err := action.Validate(ab); err != nil {
			return fmt.Errorf("Repeat (%s) -> nested action %d: %w", a.Count, i+1, err)
		}
	}
	return nil
}

func (a *Repeat) Build(ab *ActionBuilder) *ActionBuilder {
	nested := ab.buildSteps(a.Steps)
	step := Step{
		name: fmt.Sprintf("Repeat (%s)", a.Count),
		execute: func(bot BotInterface) error {
			count, err := a.Count.Resolve(bot.Counters())
			if err != nil {
				return fmt.Errorf("repeat: %w", err)
			}
			for i := 0; i < count; i++ {
				if err := nested.Execute(bot); err != nil {
					return err
				}
			}
			return nil
		},
		issue: a.Validate(ab),
	}
	ab.steps = append(ab.steps, step)
	return ab
}
