package actions

import (
	"fmt"
	"time"

	"jordanella.com/switch-farm-go/internal/controller"
	"jordanella.com/switch-farm-go/internal/events"
)

// Press holds a button for d (the configured press duration when d <= 0),
// releases it and samples for the settle interval.
func (ab *ActionBuilder) Press(code controller.Code, d time.Duration) *ActionBuilder {
	step := Step{
		name: fmt.Sprintf("Press %s", code),
		execute: func(bot BotInterface) error {
			return press(bot, code, d)
		},
	}
	if _, err := controller.Lookup(code); err != nil {
		step.issue = err
	}
	ab.steps = append(ab.steps, step)
	return ab
}

// Hold writes a button code without releasing it
func (ab *ActionBuilder) Hold(code controller.Code) *ActionBuilder {
	step := Step{
		name: fmt.Sprintf("Hold %s", code),
		execute: func(bot BotInterface) error {
			return bot.Controller().Send(code)
		},
	}
	if _, err := controller.Lookup(code); err != nil {
		step.issue = err
	}
	ab.steps = append(ab.steps, step)
	return ab
}

// Release releases every held input
func (ab *ActionBuilder) Release() *ActionBuilder {
	ab.steps = append(ab.steps, Step{
		name: "Release",
		execute: func(bot BotInterface) error {
			return bot.Controller().Send(controller.Release)
		},
	})
	return ab
}

// Wait samples frames for d without sending anything
func (ab *ActionBuilder) Wait(d time.Duration) *ActionBuilder {
	step := Step{
		name: fmt.Sprintf("Wait %v", d),
		execute: func(bot BotInterface) error {
			return bot.Video().WaitFor(bot.Context(), d)
		},
	}
	if d < 0 {
		step.issue = fmt.Errorf("duration (%v) must not be negative", d)
	}
	ab.steps = append(ab.steps, step)
	return ab
}

// Alarm plays cycles on/off pulses on the controller's alarm output
func (ab *ActionBuilder) Alarm(cycles int, reason string) *ActionBuilder {
	step := Step{
		name: fmt.Sprintf("Alarm (%d)", cycles),
		execute: func(bot BotInterface) error {
			timing := bot.Timing()
			return soundAlarm(bot, cycles, timing.AlarmOn, timing.AlarmOff, reason)
		},
	}
	if cycles <= 0 {
		step.issue = fmt.Errorf("cycles (%d) must be greater than 0", cycles)
	}
	ab.steps = append(ab.steps, step)
	return ab
}

// Log writes a message to the run log
func (ab *ActionBuilder) Log(message string) *ActionBuilder {
	ab.steps = append(ab.steps, Step{
		name: "Log",
		execute: func(bot BotInterface) error {
			log.InfoWithContext(message, bot.Counters().Snapshot())
			return nil
		},
	})
	return ab
}

// Exit ends the run successfully once reached
func (ab *ActionBuilder) Exit() *ActionBuilder {
	ab.steps = append(ab.steps, Step{
		name: "Exit",
		execute: func(BotInterface) error {
			return ErrExit
		},
	})
	return ab
}

func press(bot BotInterface, code controller.Code, d time.Duration) error {
	timing := bot.Timing()
	if d <= 0 {
		d = timing.PressDuration
	}

	ctrl := bot.Controller()
	video := bot.Video()
	ctx := bot.Context()

	if err := ctrl.Send(code); err != nil {
		return fmt.Errorf("press %s: %w", code, err)
	}
	if err := video.WaitFor(ctx, d); err != nil {
		return err
	}
	if err := ctrl.Send(controller.Release); err != nil {
		return fmt.Errorf("release %s: %w", code, err)
	}
	return video.WaitFor(ctx, timing.SettleInterval)
}

// soundAlarm writes cycles alarm-on/alarm-off pairs, sampling in between
func soundAlarm(bot BotInterface, cycles int, on, off time.Duration, reason string) error {
	ctrl := bot.Controller()
	video := bot.Video()
	ctx := bot.Context()

	publish(bot, events.NewAlarmEvent("actions", reason))
	log.WarnWithContext("Alarm", map[string]interface{}{"reason": reason, "cycles": cycles})

	for i := 0; i < cycles; i++ {
		if err := ctrl.Send(controller.AlarmOn); err != nil {
			return fmt.Errorf("alarm on: %w", err)
		}
		if err := video.WaitFor(ctx, on); err != nil {
			return err
		}
		if err := ctrl.Send(controller.AlarmOff); err != nil {
			return fmt.Errorf("alarm off: %w", err)
		}
		if off > 0 && i < cycles-1 {
			if err := video.WaitFor(ctx, off); err != nil {
				return err
			}
		}
	}
	return nil
}
