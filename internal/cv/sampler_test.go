package cv

import (
	"context"
	"image"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stopGate struct{ stopped bool }

func (g *stopGate) CheckPauseOrStop() bool { return !g.stopped }

func TestSamplerCaptureRendersAndCounts(t *testing.T) {
	f1 := NewSolidFrame(Dims{Height: 2, Width: 2}, BGR(1, 1, 1))
	f2 := NewSolidFrame(Dims{Height: 2, Width: 2}, BGR(2, 2, 2))
	s := NewSampler(NewStaticCapturer(f1, f2), nil)

	got, err := s.Capture(context.Background())
	require.NoError(t, err)
	assert.Same(t, f1, got)

	got, err = s.Capture(context.Background())
	require.NoError(t, err)
	assert.Same(t, f2, got)

	// the last frame repeats once the script is exhausted
	got, err = s.Capture(context.Background())
	require.NoError(t, err)
	assert.Same(t, f2, got)

	assert.Equal(t, int64(3), s.FrameCount())
	assert.Same(t, f2, s.Latest())
}

func TestSamplerCancelGestureIsSticky(t *testing.T) {
	display := NewNullDisplay()
	capturer := NewStaticCapturer(NewSolidFrame(Dims{Height: 1, Width: 1}, Color{}))
	s := NewSampler(capturer, display)

	_, err := s.Capture(context.Background())
	require.NoError(t, err)

	display.RequestCancel()
	_, err = s.Capture(context.Background())
	assert.ErrorIs(t, err, ErrUserCancelled)

	reads := capturer.Reads()
	_, err = s.Capture(context.Background())
	assert.ErrorIs(t, err, ErrUserCancelled)
	assert.Equal(t, reads, capturer.Reads(), "no capture after cancellation")
}

func TestSamplerContextAndGateCancel(t *testing.T) {
	frame := NewSolidFrame(Dims{Height: 1, Width: 1}, Color{})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := NewSampler(NewStaticCapturer(frame), nil).Capture(ctx)
	assert.ErrorIs(t, err, ErrUserCancelled)

	gate := &stopGate{}
	s := NewSampler(NewStaticCapturer(frame), nil).WithGate(gate)
	_, err = s.Capture(context.Background())
	require.NoError(t, err)
	gate.stopped = true
	_, err = s.Capture(context.Background())
	assert.ErrorIs(t, err, ErrUserCancelled)
}

func TestSamplerWaitForSamplesUntilDeadline(t *testing.T) {
	clock := NewManualClock(time.Unix(0, 0))
	capturer := NewStaticCapturer(NewSolidFrame(Dims{Height: 1, Width: 1}, Color{})).
		WithClock(clock, 10*time.Millisecond)
	s := NewSampler(capturer, nil).WithClock(clock)

	require.NoError(t, s.WaitFor(context.Background(), 100*time.Millisecond))
	assert.Equal(t, 10, capturer.Reads())

	require.NoError(t, s.WaitFor(context.Background(), 0))
	assert.Equal(t, 11, capturer.Reads(), "zero wait still samples once")
}

func TestReplayCapturer(t *testing.T) {
	dir := t.TempDir()
	for i, name := range []string{"b.png", "a.png"} {
		img := NewSolidFrame(Dims{Height: 2, Width: 3}, BGR(uint8(i), 0, 0)).Image()
		writePNG(t, filepath.Join(dir, name), img)
	}
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0644))

	rc, err := NewReplayCapturer(dir, false)
	require.NoError(t, err)
	assert.Equal(t, Dims{Height: 2, Width: 3}, rc.Dims())

	first, err := rc.Read()
	require.NoError(t, err)
	c, _ := first.At(Point{})
	assert.Equal(t, uint8(1), c.B, "a.png is replayed first")

	_, err = rc.Read()
	require.NoError(t, err)

	_, err = rc.Read()
	assert.ErrorIs(t, err, ErrReplayFinished)
	assert.ErrorIs(t, err, io.EOF)
}

func writePNG(t *testing.T, path string, img image.Image) {
	t.Helper()
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()
	require.NoError(t, png.Encode(f, img))
}
