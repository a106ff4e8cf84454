package actions

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"jordanella.com/switch-farm-go/internal/monitor"
)

// StateName identifies a state within a table
type StateName string

// Terminal states. Reaching one ends the run.
const (
	Exit    StateName = "EXIT"
	Invalid StateName = "INVALID"
)

// Terminal reports whether s ends the run
func (s StateName) Terminal() bool {
	return s == Exit || s == Invalid
}

// NoMatchPolicy decides what happens when no rule of a state matches a frame
type NoMatchPolicy string

const (
	// StayOnNoMatch keeps polling the same state (an implicit fallback rule)
	StayOnNoMatch NoMatchPolicy = "stay"
	// FailOnNoMatch aborts the run
	FailOnNoMatch NoMatchPolicy = "fail"
)

// ErrInvalidTable wraps every table construction problem
var ErrInvalidTable = monitor.NewError(monitor.KindInvalidTable, "invalid state table")

// Rule is one (condition, action, next) triple. Rules of a state are tried
// in order and the first whose condition holds fires.
type Rule struct {
	Name      string
	Condition Condition
	Action    Action
	Next      StateName
	implicit  bool
}

// On builds a rule
func On(condition Condition, action Action, next StateName) Rule {
	return Rule{Condition: condition, Action: action, Next: next}
}

// Named labels a rule for logs
func (r Rule) Named(name string) Rule {
	r.Name = name
	return r
}

// Implicit reports whether the rule was appended by the builder as the
// stay-in-place fallback
func (r Rule) Implicit() bool {
	return r.implicit
}

// Label returns the rule name or its position
func (r Rule) Label(index int) string {
	if r.Name != "" {
		return r.Name
	}
	if r.implicit {
		return "fallback"
	}
	return fmt.Sprintf("rule %d", index+1)
}

// State is a named list of rules
type State struct {
	Name      StateName
	Rules     []Rule
	OnNoMatch NoMatchPolicy
	// AlarmAfter sounds an alarm when the run stays in this state longer
	// than the given duration. Zero disables it.
	AlarmAfter time.Duration
}

// StateTable is an immutable, validated state machine definition
type StateTable struct {
	Name        string
	Description string
	Initial     StateName
	States      map[StateName]*State
	Params      map[string]int
}

// State returns the named state
func (t *StateTable) State(name StateName) (*State, bool) {
	s, ok := t.States[name]
	return s, ok
}

// StateNames returns the state names in sorted order
func (t *StateTable) StateNames() []StateName {
	names := make([]StateName, 0, len(t.States))
	for name := range t.States {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool { return names[i] < names[j] })
	return names
}

// Validate checks the structural invariants of a table: the initial state
// and every rule target exist, and each rule has a condition and action.
func (t *StateTable) Validate() error {
	if t == nil {
		return fmt.Errorf("%w: table is nil", ErrInvalidTable)
	}
	if t.Initial == "" {
		return fmt.Errorf("%w: %s: initial state is required", ErrInvalidTable, t.Name)
	}
	if _, ok := t.States[t.Initial]; !ok && !t.Initial.Terminal() {
		return fmt.Errorf("%w: %s: initial state %s is not defined", ErrInvalidTable, t.Name, t.Initial)
	}

	for _, name := range t.StateNames() {
		state := t.States[name]
		if state == nil || state.Name != name {
			return fmt.Errorf("%w: %s: state %s is malformed", ErrInvalidTable, t.Name, name)
		}
		if name.Terminal() {
			return fmt.Errorf("%w: %s: %s is reserved for terminal states", ErrInvalidTable, t.Name, name)
		}
		if len(state.Rules) == 0 {
			return fmt.Errorf("%w: %s: state %s has no rules", ErrInvalidTable, t.Name, name)
		}
		switch state.OnNoMatch {
		case StayOnNoMatch, FailOnNoMatch:
		default:
			return fmt.Errorf("%w: %s: state %s: unknown on_no_match %q", ErrInvalidTable, t.Name, name, state.OnNoMatch)
		}
		if state.AlarmAfter < 0 {
			return fmt.Errorf("%w: %s: state %s: alarm_after must not be negative", ErrInvalidTable, t.Name, name)
		}
		for i, rule := range state.Rules {
			if rule.Condition == nil {
				return fmt.Errorf("%w: %s: state %s: %s has no condition", ErrInvalidTable, t.Name, name, rule.Label(i))
			}
			if rule.Action == nil {
				return fmt.Errorf("%w: %s: state %s: %s has no action", ErrInvalidTable, t.Name, name, rule.Label(i))
			}
			if _, ok := t.States[rule.Next]; !ok && !rule.Next.Terminal() {
				return fmt.Errorf("%w: %s: state %s: %s targets undefined state %q", ErrInvalidTable, t.Name, name, rule.Label(i), rule.Next)
			}
		}
	}
	return nil
}

// TableBuilder assembles and validates a StateTable
type TableBuilder struct {
	table   *StateTable
	actions *ActionBuilder // carries the template registry for condition validation
	errs    []string
}

// NewTableBuilder starts a table
func NewTableBuilder(name string) *TableBuilder {
	return &TableBuilder{
		table: &StateTable{
			Name:   name,
			States: make(map[StateName]*State),
			Params: make(map[string]int),
		},
		actions: NewActionBuilder(),
	}
}

// WithTemplates enables template name validation
func (tb *TableBuilder) WithTemplates(templates TemplateMatcher) *TableBuilder {
	tb.actions.WithTemplates(templates)
	return tb
}

// Describe sets a description shown by the CLI
func (tb *TableBuilder) Describe(description string) *TableBuilder {
	tb.table.Description = description
	return tb
}

// Initial sets the starting state
func (tb *TableBuilder) Initial(name StateName) *TableBuilder {
	tb.table.Initial = name
	return tb
}

// Param declares a table parameter with its default value
func (tb *TableBuilder) Param(name string, value int) *TableBuilder {
	tb.table.Params[name] = value
	return tb
}

// State adds a state that keeps polling when nothing matches
func (tb *TableBuilder) State(name StateName, rules ...Rule) *TableBuilder {
	return tb.AddState(State{Name: name, Rules: rules, OnNoMatch: StayOnNoMatch})
}

// StrictState adds a state that fails the run when nothing matches
func (tb *TableBuilder) StrictState(name StateName, rules ...Rule) *TableBuilder {
	return tb.AddState(State{Name: name, Rules: rules, OnNoMatch: FailOnNoMatch})
}

// AddState adds a fully specified state
func (tb *TableBuilder) AddState(state State) *TableBuilder {
	if _, dup := tb.table.States[state.Name]; dup {
		tb.errs = append(tb.errs, fmt.Sprintf("state %s defined twice", state.Name))
		return tb
	}
	if state.Name == "" {
		tb.errs = append(tb.errs, "state name is required")
		return tb
	}
	if state.OnNoMatch == "" {
		state.OnNoMatch = StayOnNoMatch
	}
	s := state
	s.Rules = append([]Rule(nil), state.Rules...)
	for i, rule := range s.Rules {
		if rule.Action == nil {
			s.Rules[i].Action = NoOp
		}
		if rule.Condition == nil {
			continue
		}
		if err := rule.Condition.Validate(tb.actions); err != nil {
			tb.errs = append(tb.errs, fmt.Sprintf("state %s: %s: %v", state.Name, rule.Label(i), err))
		}
		if ab, ok := rule.Action.(*ActionBuilder); ok {
			if err := ab.Err(); err != nil {
				tb.errs = append(tb.errs, fmt.Sprintf("state %s: %s: %v", state.Name, rule.Label(i), err))
			}
		}
	}
	tb.table.States[state.Name] = &s
	return tb
}

// Build validates the table and appends the stay-in-place fallback to
// states that keep polling. The table must not be modified afterwards.
func (tb *TableBuilder) Build() (*StateTable, error) {
	if len(tb.errs) > 0 {
		return nil, fmt.Errorf("%w: %s: %s", ErrInvalidTable, tb.table.Name, strings.Join(tb.errs, "; "))
	}

	for _, state := range tb.table.States {
		if state.OnNoMatch != StayOnNoMatch || len(state.Rules) == 0 {
			continue
		}
		if last := state.Rules[len(state.Rules)-1]; IsUnconditional(last.Condition) {
			continue
		}
		state.Rules = append(state.Rules, Rule{
			Condition: AlwaysMatches(),
			Action:    NoOp,
			Next:      state.Name,
			implicit:  true,
		})
	}

	if err := tb.table.Validate(); err != nil {
		return nil, err
	}
	return tb.table, nil
}
