package actions

import (
	"fmt"
)

// If captures a fresh frame and runs Then when the condition holds,
// otherwise Else. Counter-only conditions ignore the frame.
type If struct {
	Condition   Condition    `yaml:"condition"`
	ThenActions []ActionStep `yaml:"then"`
	ElseActions []ActionStep `yaml:"else,omitempty"`
}

// UnmarshalYAML implements custom unmarshaling for If to handle polymorphic Condition and Actions
func (a *If) UnmarshalYAML(unmarshal func(interface{}) error) error {
	var raw map[string]interface{}
	if err := unmarshal(&raw); err != nil {
		return err
	}

	if conditionRaw, ok := raw["condition"]; ok {
		condition, err := unmarshalCondition(conditionRaw)
		if err != nil {
			return fmt.Errorf("failed to unmarshal condition: %w", err)
		}
		a.Condition = condition
	}

	thenActions, err := unmarshalNestedActions(raw["then"])
	if err != nil {
		return fmt.Errorf("failed to unmarshal then actions: %w", err)
	}
	a.ThenActions = thenActions

	elseActions, err := unmarshalNestedActions(raw["else"])
	if err != nil {
		return fmt.Errorf("failed to unmarshal else actions: %w", err)
	}
	a.ElseActions = elseActions

	return nil
}

func (a *If) Validate(ab *ActionBuilder) error {
	if a.Condition == nil {
		return fmt.Errorf("If: condition is required")
	}
	if err := a.Condition.Validate(ab); err != nil {
		return fmt.Errorf("If: invalid condition: %w", err)
	}
	if len(a.ThenActions) == 0 {
		return fmt.Errorf("If: then actions cannot be empty")
	}
	for i, action := range a.ThenActions {
		if err := action.Validate(ab); err != nil {
			return fmt.Errorf("If -> then action %d: %w", i+1, err)
		}
	}
	for i, action := range a.ElseActions {
		if err := action.Validate(ab); err != nil {
			return fmt.Errorf("If -> else action %d: %w", i+1, err)
		}
	}
	return nil
}

func (a *If) Build(ab *ActionBuilder) *ActionBuilder {
	thenBranch := ab.buildSteps(a.ThenActions)
	elseBranch := ab.buildSteps(a.ElseActions)

	ab.steps = append(ab.steps, Step{
		name: "If",
		execute: func(bot BotInterface) error {
			frame, err := bot.Video().Capture(bot.Context())
			if err != nil {
				return err
			}
			if a.Condition.Evaluate(bot, frame) {
				return thenBranch.Execute(bot)
			}
			return elseBranch.Execute(bot)
		},
		issue: a.Validate(ab),
	})
	return ab
}
