package actions

import (
	"fmt"

	"jordanella.com/switch-farm-go/internal/cv"
)

// Condition is a predicate over the current frame and the run's counters.
// Evaluate is total: recognition problems evaluate to false. Conditions
// never mutate counters.
type Condition interface {
	Evaluate(bot BotInterface, frame *cv.Frame) bool
	Validate(ab *ActionBuilder) error
}

// ConditionFunc adapts a function to the Condition interface
type ConditionFunc func(bot BotInterface, frame *cv.Frame) bool

func (f ConditionFunc) Evaluate(bot BotInterface, frame *cv.Frame) bool {
	return f(bot, frame)
}

func (f ConditionFunc) Validate(ab *ActionBuilder) error {
	if f == nil {
		return fmt.Errorf("ConditionFunc: function is nil")
	}
	return nil
}

// Always matches every frame. Used as the final fallback rule of a state.
type Always struct{}

func (c *Always) Validate(ab *ActionBuilder) error {
	return nil
}

func (c *Always) Evaluate(BotInterface, *cv.Frame) bool {
	return true
}

// AlwaysMatches returns the unconditional predicate
func AlwaysMatches() Condition {
	return &Always{}
}

// IsUnconditional reports whether c matches every frame
func IsUnconditional(c Condition) bool {
	_, ok := c.(*Always)
	return ok
}

// Not negates a condition
type Not struct {
	Condition Condition `yaml:"condition"`
}

// UnmarshalYAML implements custom unmarshaling for Not to handle polymorphic Condition
func (c *Not) UnmarshalYAML(unmarshal func(interface{}) error) error {
	var raw map[string]interface{}
	if err := unmarshal(&raw); err != nil {
		return err
	}

	if conditionRaw, ok := raw["condition"]; ok {
		condition, err := unmarshalCondition(conditionRaw)
		if err != nil {
			return fmt.Errorf("Not: failed to unmarshal condition: %w", err)
		}
		c.Condition = condition
	}

	return nil
}

func (c *Not) Validate(ab *ActionBuilder) error {
	if c.Condition == nil {
		return fmt.Errorf("Not: condition is required")
	}
	return c.Condition.Validate(ab)
}

func (c *Not) Evaluate(bot BotInterface, frame *cv.Frame) bool {
	return !c.Condition.Evaluate(bot, frame)
}

// Negate returns the negation of c
func Negate(c Condition) Condition {
	return &Not{Condition: c}
}

// All checks if ALL conditions are true (AND logic). An empty list is true.
type All struct {
	Conditions []Condition `yaml:"conditions"`
}

// UnmarshalYAML implements custom unmarshaling for All to handle polymorphic Conditions
func (c *All) UnmarshalYAML(unmarshal func(interface{}) error) error {
	conditions, err := unmarshalConditionList(unmarshal)
	if err != nil {
		return fmt.Errorf("All: %w", err)
	}
	c.Conditions = conditions
	return nil
}

func (c *All) Validate(ab *ActionBuilder) error {
	return validateConditions("All", c.Conditions, ab)
}

func (c *All) Evaluate(bot BotInterface, frame *cv.Frame) bool {
	for _, condition := range c.Conditions {
		if !condition.Evaluate(bot, frame) {
			return false
		}
	}
	return true
}

// AllMatch combines conditions with AND
func AllMatch(conditions ...Condition) Condition {
	return &All{Conditions: conditions}
}

// Any checks if ANY condition is true (OR logic). An empty list is false.
type Any struct {
	Conditions []Condition `yaml:"conditions"`
}

// UnmarshalYAML implements custom unmarshaling for Any to handle polymorphic Conditions
func (c *Any) UnmarshalYAML(unmarshal func(interface{}) error) error {
	conditions, err := unmarshalConditionList(unmarshal)
	if err != nil {
		return fmt.Errorf("Any: %w", err)
	}
	c.Conditions = conditions
	return nil
}

func (c *Any) Validate(ab *ActionBuilder) error {
	return validateConditions("Any", c.Conditions, ab)
}

func (c *Any) Evaluate(bot BotInterface, frame *cv.Frame) bool {
	for _, condition := range c.Conditions {
		if condition.Evaluate(bot, frame) {
			return true
		}
	}
	return false
}

// AnyMatch combines conditions with OR
func AnyMatch(conditions ...Condition) Condition {
	return &Any{Conditions: conditions}
}

// None checks that no condition is true
type None struct {
	Conditions []Condition `yaml:"conditions"`
}

// UnmarshalYAML implements custom unmarshaling for None to handle polymorphic Conditions
func (c *None) UnmarshalYAML(unmarshal func(interface{}) error) error {
	conditions, err := unmarshalConditionList(unmarshal)
	if err != nil {
		return fmt.Errorf("None: %w", err)
	}
	c.Conditions = conditions
	return nil
}

func (c *None) Validate(ab *ActionBuilder) error {
	return validateConditions("None", c.Conditions, ab)
}

func (c *None) Evaluate(bot BotInterface, frame *cv.Frame) bool {
	for _, condition := range c.Conditions {
		if condition.Evaluate(bot, frame) {
			return false
		}
	}
	return true
}

func unmarshalConditionList(unmarshal func(interface{}) error) ([]Condition, error) {
	var raw map[string]interface{}
	if err := unmarshal(&raw); err != nil {
		return nil, err
	}
	return unmarshalConditions(raw["conditions"])
}

func validateConditions(kind string, conditions []Condition, ab *ActionBuilder) error {
	for i, condition := range conditions {
		if condition == nil {
			return fmt.Errorf("%s: condition %d is nil", kind, i+1)
		}
		if err := condition.Validate(ab); err != nil {
			return fmt.Errorf("%s: condition %d: %w", kind, i+1, err)
		}
	}
	return nil
}
