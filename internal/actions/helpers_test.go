package actions

import (
	"bytes"
	"context"
	"testing"
	"time"

	"jordanella.com/switch-farm-go/internal/controller"
	"jordanella.com/switch-farm-go/internal/cv"
	"jordanella.com/switch-farm-go/internal/events"
	"jordanella.com/switch-farm-go/internal/ocr"
)

const frameInterval = 10 * time.Millisecond

var testDims = cv.Dims{Height: 48, Width: 64}

// recorder captures bytes written to the serial port
type recorder struct {
	bytes.Buffer
}

func (r *recorder) Close() error { return nil }

// testBot drives actions against scripted frames. Every capture advances
// the manual clock by frameInterval.
type testBot struct {
	ctx       context.Context
	clock     *cv.ManualClock
	capturer  *cv.StaticCapturer
	display   *cv.NullDisplay
	sampler   *cv.Sampler
	port      *recorder
	ctrl      *controller.Controller
	counters  *Counters
	ocr       ocr.Recognizer
	templates TemplateMatcher
	ref       cv.Dims
	timing    Timing
	bus       events.EventBus
}

func newTestBot(t *testing.T, frames ...*cv.Frame) *testBot {
	t.Helper()
	if len(frames) == 0 {
		frames = []*cv.Frame{cv.NewSolidFrame(testDims, cv.Color{})}
	}

	clock := cv.NewManualClock(time.Unix(0, 0))
	capturer := cv.NewStaticCapturer(frames...).WithClock(clock, frameInterval)
	display := cv.NewNullDisplay()
	port := &recorder{}

	return &testBot{
		ctx:      context.Background(),
		clock:    clock,
		capturer: capturer,
		display:  display,
		sampler:  cv.NewSampler(capturer, display).WithClock(clock),
		port:     port,
		ctrl:     controller.NewController(port, "test"),
		counters: NewCounters(),
		ocr:      ocr.Unavailable{},
		ref:      frames[0].Dims(),
		timing: Timing{
			PressDuration:  100 * time.Millisecond,
			SettleInterval: 75 * time.Millisecond,
			AlarmOn:        50 * time.Millisecond,
			AlarmOff:       50 * time.Millisecond,
		},
	}
}

// cancelAfter requests the cancel gesture on the n-th capture
func (b *testBot) cancelAfter(n int) *testBot {
	b.capturer.OnRead(func(read int) {
		if read >= n {
			b.display.RequestCancel()
		}
	})
	return b
}

func (b *testBot) sent() string { return b.port.String() }

func (b *testBot) Context() context.Context { return b.ctx }
func (b *testBot) Video() VideoInterface { return b.sampler }
func (b *testBot) Controller() ControllerInterface { return b.ctrl }
func (b *testBot) Counters() *Counters { return b.counters }
func (b *testBot) OCR() ocr.Recognizer { return b.ocr }
func (b *testBot) Templates() TemplateMatcher { return b.templates }
func (b *testBot) Reference() cv.Dims { return b.ref }
func (b *testBot) Tolerance() int { return cv.DefaultTolerance }
func (b *testBot) Timing() Timing { return b.timing }
func (b *testBot) Events() events.EventBus { return b.bus }

// fakeTemplates reports a fixed best match
type fakeTemplates struct {
	known map[string]bool
	best  string
	ok    bool
	err   error
}

func (f *fakeTemplates) Has(name string) bool { return f.known[name] }

func (f *fakeTemplates) BestMatch(name string, frame *cv.Frame, ref cv.Dims) (string, bool, error) {
	return f.best, f.ok, f.err
}
