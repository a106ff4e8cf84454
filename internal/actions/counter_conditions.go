package actions

import (
	"fmt"
	"strings"
	"time"

	"jordanella.com/switch-farm-go/internal/cv"
)

// CompareOp is a comparison operator for counter conditions
type CompareOp string

const (
	OpEqual        CompareOp = "=="
	OpNotEqual     CompareOp = "!="
	OpGreater      CompareOp = ">"
	OpGreaterEqual CompareOp = ">="
	OpLess         CompareOp = "<"
	OpLessEqual    CompareOp = "<="
)

var opAliases = map[string]CompareOp{
	"==": OpEqual, "eq": OpEqual,
	"!=": OpNotEqual, "ne": OpNotEqual,
	">": OpGreater, "gt": OpGreater,
	">=": OpGreaterEqual, "ge": OpGreaterEqual, "gte": OpGreaterEqual,
	"<": OpLess, "lt": OpLess,
	"<=": OpLessEqual, "le": OpLessEqual, "lte": OpLessEqual,
}

// ParseOp resolves an operator or its word alias (gte, lt, ...)
func ParseOp(s string) (CompareOp, error) {
	op, ok := opAliases[strings.ToLower(strings.TrimSpace(s))]
	if !ok {
		return "", fmt.Errorf("unknown operator %q", s)
	}
	return op, nil
}

func (op CompareOp) compare(a, b int) bool {
	switch op {
	case OpEqual:
		return a == b
	case OpNotEqual:
		return a != b
	case OpGreater:
		return a > b
	case OpGreaterEqual:
		return a >= b
	case OpLess:
		return a < b
	case OpLessEqual:
		return a <= b
	}
	return false
}

// Counter compares a counter against a value, e.g. eggs >= ${egg_target}
type Counter struct {
	Name  string   `yaml:"name"`
	Op    string   `yaml:"op"`
	Value IntValue `yaml:"value"`
}

// CounterIs builds a counter comparison
func CounterIs(name string, op CompareOp, value IntValue) *Counter {
	return &Counter{Name: name, Op: string(op), Value: value}
}

func (c *Counter) Validate(ab *ActionBuilder) error {
	if c.Name == "" {
		return fmt.Errorf("Counter: name is required")
	}
	if _, err := ParseOp(c.Op); err != nil {
		return fmt.Errorf("Counter: %w", err)
	}
	if err := c.Value.Validate(); err != nil {
		return fmt.Errorf("Counter: %w", err)
	}
	return nil
}

func (c *Counter) Evaluate(bot BotInterface, _ *cv.Frame) bool {
	op, err := ParseOp(c.Op)
	if err != nil {
		return false
	}
	counters := bot.Counters()
	value, err := c.Value.Resolve(counters)
	if err != nil {
		return false
	}
	return op.compare(counters.Get(c.Name), value)
}

// Flag checks a boolean flag (expects true when Value is omitted)
type Flag struct {
	Name  string `yaml:"name"`
	Value *bool  `yaml:"value,omitempty"`
}

// FlagIs builds a flag condition
func FlagIs(name string, value bool) *Flag {
	return &Flag{Name: name, Value: &value}
}

func (c *Flag) Validate(ab *ActionBuilder) error {
	if c.Name == "" {
		return fmt.Errorf("Flag: name is required")
	}
	return nil
}

func (c *Flag) Evaluate(bot BotInterface, _ *cv.Frame) bool {
	want := true
	if c.Value != nil {
		want = *c.Value
	}
	return bot.Counters().Flag(c.Name) == want
}

// Elapsed is true once at least AtLeast has passed since Timer was marked.
// Unmarked timers never match.
type Elapsed struct {
	Timer   string        `yaml:"timer"`
	AtLeast time.Duration `yaml:"at_least"`
}

func (c *Elapsed) Validate(ab *ActionBuilder) error {
	if c.Timer == "" {
		return fmt.Errorf("Elapsed: timer is required")
	}
	if c.AtLeast <= 0 {
		return fmt.Errorf("Elapsed: at_least (%v) must be greater than 0", c.AtLeast)
	}
	return nil
}

func (c *Elapsed) Evaluate(bot BotInterface, _ *cv.Frame) bool {
	elapsed, ok := bot.Counters().Since(c.Timer, bot.Video().Clock().Now())
	return ok && elapsed >= c.AtLeast
}
