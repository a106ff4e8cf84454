package actions

import (
	"reflect"
	"sort"
)

// actionRegistry maps YAML action names to their concrete Go types.
// This enables polymorphic unmarshaling of ActionStep interfaces from YAML.
// Actions are mapped lowercase to allow for fuzzy script writing.
//
// To add a new action:
// 1. Create a struct that implements the ActionStep interface (Validate & Build methods)
// 2. Add it to this registry with the name that will be used in YAML files
var actionRegistry = map[string]reflect.Type{
	// Controller
	"press":   reflect.TypeOf(Press{}),
	"hold":    reflect.TypeOf(Hold{}),
	"release": reflect.TypeOf(Release{}),
	"alarm":   reflect.TypeOf(Alarm{}),
	// Sampling
	"wait":       reflect.TypeOf(Wait{}),
	"wait_until": reflect.TypeOf(WaitUntil{}),
	"waituntil":  reflect.TypeOf(WaitUntil{}),
	// Composition
	"do":       reflect.TypeOf(Do{}),
	"sequence": reflect.TypeOf(Do{}),
	"repeat":   reflect.TypeOf(Repeat{}),
	"if":       reflect.TypeOf(If{}),
	// Counters
	"increment":     reflect.TypeOf(Increment{}),
	"decrement":     reflect.TypeOf(Decrement{}),
	"set_counter":   reflect.TypeOf(SetCounter{}),
	"reset":         reflect.TypeOf(Reset{}),
	"set_flag":      reflect.TypeOf(SetFlag{}),
	"mark_time":     reflect.TypeOf(MarkTime{}),
	"check_elapsed": reflect.TypeOf(CheckElapsed{}),
	// Control
	"log":  reflect.TypeOf(Log{}),
	"exit": reflect.TypeOf(ExitAction{}),
}

// getRegisteredActions returns a sorted list of all registered action types for error messages
func getRegisteredActions() []string {
	actions := make([]string, 0, len(actionRegistry))
	for name := range actionRegistry {
		actions = append(actions, name)
	}
	sort.Strings(actions)
	return actions
}
