package controller

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// ErrUnknownCommand is returned for codes outside the command table
var ErrUnknownCommand = errors.New("unknown command")

// Code is a single command byte understood by the controller firmware
type Code byte

// Control codes
const (
	Release  Code = '0' // Release every held input
	AlarmOn  Code = '!'
	AlarmOff Code = '.'
)

// Command describes one entry of the firmware's command table
type Command struct {
	Code        Code
	Name        string
	Description string
}

// Commands is the fixed command table. Anything else is rejected before it
// reaches the wire.
var Commands = []Command{
	{'A', "A", "A button"},
	{'B', "B", "B button"},
	{'X', "X", "X button"},
	{'Y', "Y", "Y button"},
	{'L', "L", "L shoulder"},
	{'R', "R", "R shoulder"},
	{'z', "ZL", "ZL trigger"},
	{'Z', "ZR", "ZR trigger"},
	{'+', "PLUS", "Plus button"},
	{'-', "MINUS", "Minus button"},
	{'H', "HOME", "Home button"},
	{'w', "UP", "Left stick up"},
	{'a', "LEFT", "Left stick left"},
	{'s', "DOWN", "Left stick down"},
	{'d', "RIGHT", "Left stick right"},
	{'#', "CIRCLE", "Left stick circling, held until released"},
	{'@', "AUX", "Firmware auxiliary macro"},
	{Release, "RELEASE", "Release all inputs"},
	{AlarmOn, "ALARM_ON", "Start the alarm buzzer"},
	{AlarmOff, "ALARM_OFF", "Stop the alarm buzzer"},
}

var (
	byCode = make(map[Code]Command, len(Commands))
	byName = make(map[string]Command, len(Commands))
)

func init() {
	for _, cmd := range Commands {
		byCode[cmd.Code] = cmd
		byName[cmd.Name] = cmd
	}
}

// Lookup validates a raw code
func Lookup(code Code) (Command, error) {
	cmd, ok := byCode[code]
	if !ok {
		return Command{}, fmt.Errorf("%w: %q", ErrUnknownCommand, rune(code))
	}
	return cmd, nil
}

// Parse resolves either a table name ("HOME", case-insensitive) or a
// single raw character ("H")
func Parse(s string) (Code, error) {
	if len(s) == 1 {
		if cmd, ok := byCode[Code(s[0])]; ok {
			return cmd.Code, nil
		}
	}
	if cmd, ok := byName[strings.ToUpper(s)]; ok {
		return cmd.Code, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownCommand, s)
}

// Names returns every command name, sorted
func Names() []string {
	names := make([]string, 0, len(byName))
	for name := range byName {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (c Code) String() string {
	if cmd, ok := byCode[c]; ok {
		return cmd.Name
	}
	return fmt.Sprintf("0x%02x", byte(c))
}
