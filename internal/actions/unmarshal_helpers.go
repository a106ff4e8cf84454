package actions

import (
	"fmt"
	"reflect"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// conditionRegistry maps condition type names to their concrete struct types
var conditionRegistry = map[string]reflect.Type{
	"pixel":    reflect.TypeOf(Pixel{}),
	"text":     reflect.TypeOf(Text{}),
	"template": reflect.TypeOf(Template{}),
	"counter":  reflect.TypeOf(Counter{}),
	"flag":     reflect.TypeOf(Flag{}),
	"elapsed":  reflect.TypeOf(Elapsed{}),
	"not":      reflect.TypeOf(Not{}),
	"all":      reflect.TypeOf(All{}),
	"any":      reflect.TypeOf(Any{}),
	"none":     reflect.TypeOf(None{}),
	"always":   reflect.TypeOf(Always{}),
}

// getRegisteredConditions returns a sorted list of all registered condition types for error messages
func getRegisteredConditions() []string {
	conditions := make([]string, 0, len(conditionRegistry))
	for name := range conditionRegistry {
		conditions = append(conditions, name)
	}
	sort.Strings(conditions)
	return conditions
}

// unmarshalCondition unmarshals a polymorphic condition from raw YAML data
func unmarshalCondition(conditionRaw interface{}) (Condition, error) {
	if conditionRaw == nil {
		return nil, fmt.Errorf("condition is nil")
	}

	conditionMap, ok := conditionRaw.(map[string]interface{})
	if !ok {
		return nil, fmt.Errorf("condition must be a map/object")
	}

	conditionTypeRaw, ok := conditionMap["type"]
	if !ok {
		return nil, fmt.Errorf("condition missing 'type' field")
	}

	conditionType, ok := conditionTypeRaw.(string)
	if !ok || conditionType == "" {
		return nil, fmt.Errorf("condition 'type' must be a non-empty string")
	}

	// Look up the concrete struct type in the registry
	structType, found := conditionRegistry[strings.ToLower(conditionType)]
	if !found {
		return nil, fmt.Errorf("unknown condition type '%s' (available types: %v)", conditionType, getRegisteredConditions())
	}

	condition := reflect.New(structType).Interface().(Condition)

	// The type key is not a field of any condition
	fields := make(map[string]interface{}, len(conditionMap))
	for k, v := range conditionMap {
		if k != "type" {
			fields[k] = v
		}
	}

	// Marshal back to YAML and unmarshal into the concrete type
	conditionBytes, err := yaml.Marshal(fields)
	if err != nil {
		return nil, fmt.Errorf("error marshaling condition: %w", err)
	}

	if err := yaml.Unmarshal(conditionBytes, condition); err != nil {
		return nil, fmt.Errorf("error unmarshaling condition into %T: %w", condition, err)
	}

	return condition, nil
}

// unmarshalConditions unmarshals a slice of polymorphic conditions
func unmarshalConditions(conditionsRaw interface{}) ([]Condition, error) {
	if conditionsRaw == nil {
		return nil, nil
	}

	conditionsSlice, ok := conditionsRaw.([]interface{})
	if !ok {
		return nil, fmt.Errorf("'conditions' field must be a list")
	}

	conditions := make([]Condition, len(conditionsSlice))
	for i, condRaw := range conditionsSlice {
		condition, err := unmarshalCondition(condRaw)
		if err != nil {
			return nil, fmt.Errorf("condition %d: %w", i+1, err)
		}
		conditions[i] = condition
	}

	return conditions, nil
}

// unmarshalNestedActions unmarshals a list of polymorphic action steps
func unmarshalNestedActions(actionsRaw interface{}) ([]ActionStep, error) {
	if actionsRaw == nil {
		return nil, nil
	}

	actionsSlice, ok := actionsRaw.([]interface{})
	if !ok {
		return nil, fmt.Errorf("'steps' field must be a list")
	}

	actions := make([]ActionStep, len(actionsSlice))
	for i, step := range actionsSlice {
		rawStep, ok := step.(map[string]interface{})
		if !ok {
			return nil, fmt.Errorf("action %d: must be a map/object", i+1)
		}

		actionType, ok := rawStep["action"].(string)
		if !ok || actionType == "" {
			return nil, fmt.Errorf("action %d: missing or invalid 'action' field", i+1)
		}

		// Look up the concrete struct type in the registry
		stepType, found := actionRegistry[strings.ToLower(actionType)]
		if !found {
			return nil, fmt.Errorf("action %d: unknown action type '%s' (available types: %v)", i+1, actionType, getRegisteredActions())
		}

		action := reflect.New(stepType).Interface().(ActionStep)

		fields := make(map[string]interface{}, len(rawStep))
		for k, v := range rawStep {
			if k != "action" {
				fields[k] = v
			}
		}

		// Marshal the raw map back to YAML, then unmarshal it into the concrete struct
		stepBytes, err := yaml.Marshal(fields)
		if err != nil {
			return nil, fmt.Errorf("action %d (%s): error marshaling raw step: %w", i+1, actionType, err)
		}
		if err := yaml.Unmarshal(stepBytes, action); err != nil {
			return nil, fmt.Errorf("action %d (%s): error unmarshaling into %T: %w", i+1, actionType, action, err)
		}

		actions[i] = action
	}

	return actions, nil
}
