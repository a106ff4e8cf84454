package actions

import (
	"errors"
	"fmt"

	"jordanella.com/switch-farm-go/internal/cv"
	"jordanella.com/switch-farm-go/internal/logging"
)

var log = logging.NewLogger("Actions")

// ErrExit is returned by the exit action to end the run successfully
var ErrExit = errors.New("exit requested")

// Action is anything the runner can execute when a rule matches
type Action interface {
	Execute(bot BotInterface) error
}

// ActionStep is a YAML-declared action. Validate runs once when the table
// is built; Build appends the executable steps to the builder.
type ActionStep interface {
	Validate(ab *ActionBuilder) error
	Build(ab *ActionBuilder) *ActionBuilder
}

// ActionBuilder is an ordered sequence of steps. Sequences nest, and an
// empty builder is a no-op.
type ActionBuilder struct {
	steps     []Step
	templates TemplateMatcher // Optional: for validating template names at build time
}

type Step struct {
	name    string
	execute func(BotInterface) error // Bot is provided at execution time
	issue   error
}

// NewActionBuilder creates a new ActionBuilder.
// The bot is not required at build time - it is provided to Execute.
func NewActionBuilder() *ActionBuilder {
	return &ActionBuilder{}
}

// WithTemplates sets the template registry used for build-time validation
func (ab *ActionBuilder) WithTemplates(templates TemplateMatcher) *ActionBuilder {
	ab.templates = templates
	return ab
}

// Len returns the number of steps
func (ab *ActionBuilder) Len() int {
	return len(ab.steps)
}

// StepNames lists the steps in execution order
func (ab *ActionBuilder) StepNames() []string {
	names := make([]string, len(ab.steps))
	for i, step := range ab.steps {
		names[i] = step.name
	}
	return names
}

// Err returns the first build issue recorded by a step
func (ab *ActionBuilder) Err() error {
	for _, step := range ab.steps {
		if step.issue != nil {
			return fmt.Errorf("step '%s': %w", step.name, step.issue)
		}
	}
	return nil
}

// Execute runs the steps in order on the provided bot.
// This allows the same ActionBuilder to be executed by many runs.
func (ab *ActionBuilder) Execute(bot BotInterface) error {
	ctx := bot.Context()
	for _, step := range ab.steps {
		select {
		case <-ctx.Done():
			return fmt.Errorf("%w: %v", cv.ErrUserCancelled, ctx.Err())
		default:
		}

		if step.issue != nil {
			return fmt.Errorf("build configuration error for step '%s': %w", step.name, step.issue)
		}

		if err := step.execute(bot); err != nil {
			return err
		}
	}
	return nil
}

// Then appends another action as a single step
func (ab *ActionBuilder) Then(action Action) *ActionBuilder {
	if action == nil {
		return ab
	}
	name := "Action"
	if nested, ok := action.(*ActionBuilder); ok {
		name = fmt.Sprintf("Sequence (%d)", nested.Len())
	}
	ab.steps = append(ab.steps, Step{name: name, execute: action.Execute})
	return ab
}

// Do appends an arbitrary function as a step
func (ab *ActionBuilder) Do(name string, fn func(BotInterface) error) *ActionBuilder {
	step := Step{name: name, execute: fn}
	if fn == nil {
		step.issue = fmt.Errorf("function is nil")
	}
	ab.steps = append(ab.steps, step)
	return ab
}

// AddSteps validates and builds YAML action steps onto the builder
func (ab *ActionBuilder) AddSteps(actions []ActionStep) error {
	for i, action := range actions {
		if err := action.Validate(ab); err != nil {
			return fmt.Errorf("action %d (%T): %w", i+1, action, err)
		}
		action.Build(ab)
	}
	return nil
}

// buildSteps builds nested actions into a separate builder sharing this
// builder's template registry
func (ab *ActionBuilder) buildSteps(actions []ActionStep) *ActionBuilder {
	nested := NewActionBuilder().WithTemplates(ab.templates)
	for _, action := range actions {
		action.Build(nested)
	}
	return nested
}

// Sequence composes actions into one that runs them in order
func Sequence(actions ...Action) *ActionBuilder {
	ab := NewActionBuilder()
	for _, action := range actions {
		ab.Then(action)
	}
	return ab
}

// Func adapts a function to the Action interface
type Func func(bot BotInterface) error

func (f Func) Execute(bot BotInterface) error {
	return f(bot)
}

// NoOp does nothing
var NoOp Action = Func(func(BotInterface) error { return nil })
