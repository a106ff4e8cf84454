package bot

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"jordanella.com/switch-farm-go/internal/controller"
	"jordanella.com/switch-farm-go/internal/cv"
)

const frameInterval = 10 * time.Millisecond

var (
	testDims = cv.Dims{Height: 48, Width: 64}
	red      = cv.Color{R: 255}
	black    = cv.Color{}
)

type recorder struct {
	bytes.Buffer
}

func (r *recorder) Close() error { return nil }

// harness wires a bot to scripted frames, a manual clock and a byte recorder
type harness struct {
	bot      *Bot
	clock    *cv.ManualClock
	capturer *cv.StaticCapturer
	display  *cv.NullDisplay
	port     *recorder
}

func newHarness(t *testing.T, devices Devices, frames ...*cv.Frame) *harness {
	t.Helper()

	clock := cv.NewManualClock(time.Unix(0, 0))
	capturer := cv.NewStaticCapturer(frames...).WithClock(clock, frameInterval)
	display := cv.NewNullDisplay()
	port := &recorder{}

	devices.Sampler = cv.NewSampler(capturer, display).WithClock(clock)
	devices.Controller = controller.NewController(port, "test")

	config := &Config{
		Resolution:     testDims,
		Reference:      testDims,
		PressDuration:  100 * time.Millisecond,
		SettleInterval: 75 * time.Millisecond,
		AlarmOn:        50 * time.Millisecond,
		AlarmOff:       50 * time.Millisecond,
	}

	b, err := New(context.Background(), config, devices)
	require.NoError(t, err)
	t.Cleanup(func() { _ = b.Shutdown() })

	return &harness{
		bot:      b,
		clock:    clock,
		capturer: capturer,
		display:  display,
		port:     port,
	}
}

// cancelAfter requests the cancel gesture on the n-th capture
func (h *harness) cancelAfter(n int) *harness {
	h.capturer.OnRead(func(read int) {
		if read >= n {
			h.display.RequestCancel()
		}
	})
	return h
}

func (h *harness) sent() string { return h.port.String() }

func solid(c cv.Color) *cv.Frame {
	return cv.NewSolidFrame(testDims, c)
}
