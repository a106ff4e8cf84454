package actions

import (
	"fmt"
	"os"
	"sort"
	"time"

	"gopkg.in/yaml.v3"
)

// TableFile is the YAML layout of a state table:
//
//	name: arceus_reset
//	initial: INITIAL
//	params: {boxes: 1}
//	states:
//	  INITIAL:
//	    alarm_after: 90s
//	    rules:
//	      - when: {type: pixel, point: {y: 598, x: 1160}, color: {b: 17, g: 203, r: 244}}
//	        do:
//	          - {action: press, button: A}
//	        next: MENU
type TableFile struct {
	Name        string               `yaml:"name"`
	Description string               `yaml:"description,omitempty"`
	Tags        []string             `yaml:"tags,omitempty"`
	Initial     string               `yaml:"initial"`
	Params      map[string]int       `yaml:"params,omitempty"`
	States      map[string]StateFile `yaml:"states"`
}

// StateFile is one state of a TableFile
type StateFile struct {
	OnNoMatch  string        `yaml:"on_no_match,omitempty"`
	AlarmAfter time.Duration `yaml:"alarm_after,omitempty"`
	Rules      []RuleFile    `yaml:"rules"`
}

// RuleFile is one rule of a StateFile. When and Do stay raw until the
// registries resolve their polymorphic types.
type RuleFile struct {
	Name string      `yaml:"name,omitempty"`
	When interface{} `yaml:"when"`
	Do   interface{} `yaml:"do,omitempty"`
	Next string      `yaml:"next"`
}

// TableLoader turns YAML state tables into validated StateTables
type TableLoader struct {
	templates TemplateMatcher
	overrides map[string]int
}

// NewTableLoader creates a loader without template validation
func NewTableLoader() *TableLoader {
	return &TableLoader{}
}

// WithTemplates sets the template registry used for build-time validation
func (l *TableLoader) WithTemplates(templates TemplateMatcher) *TableLoader {
	l.templates = templates
	return l
}

// WithParams overrides table parameter defaults (e.g. from the command line).
// Overrides for parameters a table does not declare are ignored.
func (l *TableLoader) WithParams(overrides map[string]int) *TableLoader {
	l.overrides = overrides
	return l
}

// LoadFromFile reads and builds a table
func (l *TableLoader) LoadFromFile(path string) (*StateTable, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read table file %s: %w", path, err)
	}
	table, err := l.Load(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return table, nil
}

// Load parses and builds a table from YAML bytes
func (l *TableLoader) Load(data []byte) (*StateTable, error) {
	var file TableFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}
	return l.Build(&file)
}

// Build converts a parsed file into a validated table
func (l *TableLoader) Build(file *TableFile) (*StateTable, error) {
	if file.Name == "" {
		return nil, fmt.Errorf("%w: name is required", ErrInvalidTable)
	}
	if len(file.States) == 0 {
		return nil, fmt.Errorf("%w: %s: no states defined", ErrInvalidTable, file.Name)
	}

	tb := NewTableBuilder(file.Name).
		WithTemplates(l.templates).
		Describe(file.Description).
		Initial(StateName(file.Initial))

	for name, value := range file.Params {
		if override, ok := l.overrides[name]; ok {
			value = override
		}
		tb.Param(name, value)
	}

	// Sorted so that error messages are deterministic
	names := make([]string, 0, len(file.States))
	for name := range file.States {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		stateFile := file.States[name]
		state := State{
			Name:       StateName(name),
			OnNoMatch:  NoMatchPolicy(stateFile.OnNoMatch),
			AlarmAfter: stateFile.AlarmAfter,
		}
		for i, ruleFile := range stateFile.Rules {
			rule, err := l.buildRule(ruleFile)
			if err != nil {
				return nil, fmt.Errorf("%w: %s: state %s: rule %d: %v", ErrInvalidTable, file.Name, name, i+1, err)
			}
			state.Rules = append(state.Rules, rule)
		}
		tb.AddState(state)
	}

	return tb.Build()
}

func (l *TableLoader) buildRule(file RuleFile) (Rule, error) {
	if file.When == nil {
		return Rule{}, fmt.Errorf("'when' is required")
	}
	condition, err := unmarshalCondition(file.When)
	if err != nil {
		return Rule{}, fmt.Errorf("when: %w", err)
	}

	steps, err := unmarshalNestedActions(file.Do)
	if err != nil {
		return Rule{}, fmt.Errorf("do: %w", err)
	}

	ab := NewActionBuilder().WithTemplates(l.templates)
	if err := ab.AddSteps(steps); err != nil {
		return Rule{}, fmt.Errorf("do: %w", err)
	}

	if file.Next == "" {
		return Rule{}, fmt.Errorf("'next' is required")
	}

	return Rule{
		Name:      file.Name,
		Condition: condition,
		Action:    ab,
		Next:      StateName(file.Next),
	}, nil
}
