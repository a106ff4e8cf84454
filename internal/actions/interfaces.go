package actions

import (
	"context"
	"time"

	"jordanella.com/switch-farm-go/internal/controller"
	"jordanella.com/switch-farm-go/internal/cv"
	"jordanella.com/switch-farm-go/internal/events"
	"jordanella.com/switch-farm-go/internal/ocr"
)

// BotInterface defines the capabilities that actions and conditions need from the bot.
// Actions depend on this interface instead of the concrete bot.Bot type.
type BotInterface interface {
	Context() context.Context

	// Frame source shared with the runner
	Video() VideoInterface

	// Serial link to the controller emulator
	Controller() ControllerInterface

	// Run-scoped counters, flags and timers
	Counters() *Counters

	OCR() ocr.Recognizer
	Templates() TemplateMatcher

	// Resolution that table coordinates are written against
	Reference() cv.Dims

	// Default squared color distance for pixel matches
	Tolerance() int

	Timing() Timing

	// Events may return nil when nobody observes the run
	Events() events.EventBus
}

// VideoInterface is the part of cv.Sampler used by actions
type VideoInterface interface {
	Capture(ctx context.Context) (*cv.Frame, error)
	WaitFor(ctx context.Context, d time.Duration) error
	Clock() cv.Clock
}

// ControllerInterface is the part of controller.Controller used by actions
type ControllerInterface interface {
	Send(code controller.Code) error
	ReleaseAll() error
}

// TemplateMatcher compares frames against named reference images
type TemplateMatcher interface {
	Has(name string) bool
	// BestMatch returns the name of the best scoring template competing with name
	// (its group, or name alone) and whether that score clears the threshold
	BestMatch(name string, frame *cv.Frame, ref cv.Dims) (best string, ok bool, err error)
}

// Timing holds the controller timings applied by press and alarm actions
type Timing struct {
	PressDuration  time.Duration // How long a press is held when no duration is given
	SettleInterval time.Duration // Sampling after a release before the next command
	AlarmOn        time.Duration
	AlarmOff       time.Duration
}

// DefaultTiming returns the timings used by the console scripts
func DefaultTiming() Timing {
	return Timing{
		PressDuration:  100 * time.Millisecond,
		SettleInterval: 75 * time.Millisecond,
		AlarmOn:        500 * time.Millisecond,
		AlarmOff:       500 * time.Millisecond,
	}
}

func publish(bot BotInterface, event events.Event) {
	if bus := bot.Events(); bus != nil {
		bus.Publish(event)
	}
}
