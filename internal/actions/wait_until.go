package actions

import (
	"fmt"
	"time"

	"jordanella.com/switch-farm-go/internal/monitor"
)

// WaitUntil samples frames until Condition holds. Each time Timeout passes
// without a match, one alarm pair is sounded and polling continues; a zero
// Timeout polls silently forever.
type WaitUntil struct {
	Condition Condition     `yaml:"condition"`
	Timeout   time.Duration `yaml:"timeout,omitempty"`
	Reason    string        `yaml:"reason,omitempty"`
}

// UnmarshalYAML implements custom unmarshaling for WaitUntil to handle polymorphic Condition
func (a *WaitUntil) UnmarshalYAML(unmarshal func(interface{}) error) error {
	var raw map[string]interface{}
	if err := unmarshal(&raw); err != nil {
		return err
	}

	if conditionRaw, ok := raw["condition"]; ok {
		condition, err := unmarshalCondition(conditionRaw)
		if err != nil {
			return fmt.Errorf("WaitUntil: failed to unmarshal condition: %w", err)
		}
		a.Condition = condition
	}

	if timeoutRaw, ok := raw["timeout"]; ok && timeoutRaw != nil {
		timeout, err := parseDuration(timeoutRaw)
		if err != nil {
			return fmt.Errorf("WaitUntil: timeout: %w", err)
		}
		a.Timeout = timeout
	}

	if reason, ok := raw["reason"].(string); ok {
		a.Reason = reason
	}
	return nil
}

func (a *WaitUntil) Validate(ab *ActionBuilder) error {
	if a.Condition == nil {
		return fmt.Errorf("WaitUntil: condition is required")
	}
	if a.Timeout < 0 {
		return fmt.Errorf("WaitUntil: timeout (%v) must not be negative", a.Timeout)
	}
	return a.Condition.Validate(ab)
}

func (a *WaitUntil) Build(ab *ActionBuilder) *ActionBuilder {
	ab.steps = append(ab.steps, Step{
		name: "WaitUntil",
		execute: func(bot BotInterface) error {
			return waitUntil(bot, a.Condition, a.Timeout, a.Reason)
		},
		issue: a.Validate(ab),
	})
	return ab
}

// WaitUntil appends a step that polls until cond holds
func (ab *ActionBuilder) WaitUntil(cond Condition, timeout time.Duration) *ActionBuilder {
	step := &WaitUntil{Condition: cond, Timeout: timeout}
	return step.Build(ab)
}

func waitUntil(bot BotInterface, cond Condition, timeout time.Duration, reason string) error {
	video := bot.Video()
	clock := video.Clock()
	ctx := bot.Context()
	if reason == "" {
		reason = "wait_until timed out"
	}

	deadline := clock.Now().Add(timeout)
	for {
		frame, err := video.Capture(ctx)
		if err != nil {
			return err
		}
		if cond.Evaluate(bot, frame) {
			return nil
		}

		if timeout > 0 && !clock.Now().Before(deadline) {
			log.WarnWithContext("Condition not met before timeout", map[string]interface{}{
				"timeout": timeout.String(),
				"kind":    monitor.KindTimeoutExceeded.String(),
			})
			timing := bot.Timing()
			if err := soundAlarm(bot, 1, timing.AlarmOn, 0, reason); err != nil {
				return err
			}
			deadline = clock.Now().Add(timeout)
		}
	}
}

// parseDuration accepts "1.5s" style strings and bare seconds
func parseDuration(raw interface{}) (time.Duration, error) {
	switch v := raw.(type) {
	case string:
		return time.ParseDuration(v)
	case int:
		return time.Duration(v) * time.Second, nil
	case float64:
		return time.Duration(v * float64(time.Second)), nil
	default:
		return 0, fmt.Errorf("unsupported duration %v", raw)
	}
}
