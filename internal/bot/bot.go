package bot

import (
	"context"
	"errors"
	"fmt"

	"jordanella.com/switch-farm-go/internal/actions"
	"jordanella.com/switch-farm-go/internal/controller"
	"jordanella.com/switch-farm-go/internal/cv"
	"jordanella.com/switch-farm-go/internal/events"
	"jordanella.com/switch-farm-go/internal/ocr"
)

// Journal records runs for later audit. *database.DB implements it.
type Journal interface {
	StartRun(tableName, initialState string) (string, error)
	RecordTransition(runID string, tick int64, from, to, rule string) error
	RecordAlarm(runID, state, reason string) error
	FinishRun(runID, result, finalState string, ticks int64, runErr error) error
}

// Devices are the opened resources a bot drives. Sampler and Controller are
// required; the rest are optional.
type Devices struct {
	Sampler    *cv.Sampler
	Controller *controller.Controller
	OCR        ocr.Recognizer
	Templates  actions.TemplateMatcher
	Journal    Journal
	Events     events.EventBus
}

// Bot owns the video and controller handles for the duration of its runs
type Bot struct {
	config            *Config
	sampler           *cv.Sampler
	ctrl              *controller.Controller
	ocr               ocr.Recognizer
	templates         actions.TemplateMatcher
	journal           Journal
	events            events.EventBus
	counters          *actions.Counters
	routineController *RoutineController
	ctx               context.Context
	cancel            context.CancelFunc
}

// New creates a bot over already opened devices. Cancelling parent cancels
// every run at its next frame capture.
func New(parent context.Context, config *Config, devices Devices) (*Bot, error) {
	if config == nil {
		return nil, fmt.Errorf("config is required")
	}
	if devices.Sampler == nil {
		return nil, fmt.Errorf("a frame sampler is required")
	}
	if devices.Controller == nil {
		return nil, fmt.Errorf("a controller is required")
	}

	config.ApplyDefaults()
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	if parent == nil {
		parent = context.Background()
	}
	ctx, cancel := context.WithCancel(parent)

	recognizer := devices.OCR
	if recognizer == nil {
		recognizer = ocr.Unavailable{}
	}

	rc := NewRoutineController()
	devices.Sampler.WithGate(rc)
	devices.Controller.WithSilent(config.Silent)

	return &Bot{
		config:            config,
		sampler:           devices.Sampler,
		ctrl:              devices.Controller,
		ocr:               recognizer,
		templates:         devices.Templates,
		journal:           devices.Journal,
		events:            devices.Events,
		counters:          actions.NewCounters(),
		routineController: rc,
		ctx:               ctx,
		cancel:            cancel,
	}, nil
}

// Shutdown cancels pending runs and closes the devices
func (b *Bot) Shutdown() error {
	b.cancel()
	b.routineController.Stop()

	var errs []error
	if err := b.ctrl.ReleaseAll(); err != nil {
		errs = append(errs, fmt.Errorf("release controller: %w", err))
	}
	if err := b.ctrl.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close controller: %w", err))
	}
	if err := b.sampler.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close video: %w", err))
	}
	return errors.Join(errs...)
}

// Pause suspends the run before its next capture
func (b *Bot) Pause() bool {
	return b.routineController.Pause()
}

// Resume continues a paused run
func (b *Bot) Resume() bool {
	return b.routineController.Resume()
}

// Stop ends the run at its next capture
func (b *Bot) Stop() bool {
	return b.routineController.Stop()
}

// RoutineController returns the pause/stop controller
func (b *Bot) RoutineController() *RoutineController {
	return b.routineController
}

// Sampler returns the frame sampler
func (b *Bot) Sampler() *cv.Sampler {
	return b.sampler
}

// Journal returns the run journal, or nil
func (b *Bot) Journal() Journal {
	return b.journal
}

// Config returns the bot configuration
func (b *Bot) Config() *Config {
	return b.config
}

// actions.BotInterface

func (b *Bot) Context() context.Context {
	return b.ctx
}

func (b *Bot) Video() actions.VideoInterface {
	return b.sampler
}

func (b *Bot) Controller() actions.ControllerInterface {
	return b.ctrl
}

func (b *Bot) Counters() *actions.Counters {
	return b.counters
}

func (b *Bot) OCR() ocr.Recognizer {
	return b.ocr
}

func (b *Bot) Templates() actions.TemplateMatcher {
	return b.templates
}

func (b *Bot) Reference() cv.Dims {
	return b.config.Reference
}

func (b *Bot) Tolerance() int {
	return b.config.Tolerance
}

func (b *Bot) Timing() actions.Timing {
	return b.config.Timing()
}

func (b *Bot) Events() events.EventBus {
	return b.events
}

var _ actions.BotInterface = (*Bot)(nil)
