package actions

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// Interpolation pattern: ${name}
var interpolationPattern = regexp.MustCompile(`^\$\{([a-zA-Z0-9_]+)\}$`)

// IntValue is an integer written either literally or as a ${name} reference
// to a table parameter or counter, resolved when the action runs
type IntValue string

// UnmarshalYAML accepts both bare integers and ${name} strings
func (v *IntValue) UnmarshalYAML(unmarshal func(interface{}) error) error {
	var raw interface{}
	if err := unmarshal(&raw); err != nil {
		return err
	}
	if raw == nil {
		*v = ""
		return nil
	}
	*v = IntValue(fmt.Sprint(raw))
	return nil
}

// HasInterpolation checks if the value references a parameter
func (v IntValue) HasInterpolation() bool {
	return strings.Contains(string(v), "${")
}

// Reference returns the referenced name, or "" for literals
func (v IntValue) Reference() string {
	m := interpolationPattern.FindStringSubmatch(strings.TrimSpace(string(v)))
	if m == nil {
		return ""
	}
	return m[1]
}

// Validate checks the syntax without resolving references
func (v IntValue) Validate() error {
	s := strings.TrimSpace(string(v))
	if s == "" {
		return fmt.Errorf("value is required")
	}
	if v.HasInterpolation() {
		if v.Reference() == "" {
			return fmt.Errorf("malformed reference %q (expected ${name})", s)
		}
		return nil
	}
	if _, err := strconv.Atoi(s); err != nil {
		return fmt.Errorf("value %q is not an integer", s)
	}
	return nil
}

// Resolve returns the integer value, looking references up in counters
func (v IntValue) Resolve(counters *Counters) (int, error) {
	if name := v.Reference(); name != "" {
		value, ok := counters.Lookup(name)
		if !ok {
			return 0, fmt.Errorf("undefined parameter: %s", name)
		}
		return value, nil
	}
	n, err := strconv.Atoi(strings.TrimSpace(string(v)))
	if err != nil {
		return 0, fmt.Errorf("value %q is not an integer", string(v))
	}
	return n, nil
}

// Int wraps a literal
func Int(n int) IntValue {
	return IntValue(strconv.Itoa(n))
}

// Ref wraps a ${name} reference
func Ref(name string) IntValue {
	return IntValue("${" + name + "}")
}
