package cv

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"
)

// ErrUserCancelled is returned once the operator requested a stop
var ErrUserCancelled = errors.New("cancelled by user")

// Gate lets an external controller pause or stop sampling.
// CheckPauseOrStop blocks while paused and returns false once stopped.
type Gate interface {
	CheckPauseOrStop() bool
}

// Sampler pulls frames from a capturer, mirrors them to a display and
// turns the operator's cancel gesture into ErrUserCancelled
type Sampler struct {
	capturer Capturer
	display  Display
	clock    Clock
	gate     Gate

	mu        sync.Mutex
	latest    *Frame
	frames    int64
	cancelled bool
}

// NewSampler creates a sampler. A nil display renders nothing.
func NewSampler(capturer Capturer, display Display) *Sampler {
	if display == nil {
		display = NewNullDisplay()
	}
	return &Sampler{
		capturer: capturer,
		display:  display,
		clock:    RealClock{},
	}
}

// WithClock replaces the time source used by WaitFor
func (s *Sampler) WithClock(clock Clock) *Sampler {
	s.clock = clock
	return s
}

// WithGate attaches a pause/stop controller
func (s *Sampler) WithGate(gate Gate) *Sampler {
	s.gate = gate
	return s
}

// Clock returns the sampler's time source
func (s *Sampler) Clock() Clock {
	return s.clock
}

// Dims returns the capture resolution
func (s *Sampler) Dims() Dims {
	return s.capturer.Dims()
}

// Capture blocks for the next frame and renders it.
// Cancellation is sticky: once observed every later call fails too.
func (s *Sampler) Capture(ctx context.Context) (*Frame, error) {
	if err := s.checkCancelled(ctx); err != nil {
		return nil, err
	}

	frame, err := s.capturer.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to capture frame: %w", err)
	}

	cancel, err := s.display.Show(frame)
	if err != nil {
		return nil, fmt.Errorf("failed to render frame: %w", err)
	}

	s.mu.Lock()
	s.latest = frame
	s.frames++
	if cancel {
		s.cancelled = true
	}
	s.mu.Unlock()

	if cancel {
		return nil, ErrUserCancelled
	}
	return frame, nil
}

func (s *Sampler) checkCancelled(ctx context.Context) error {
	s.mu.Lock()
	cancelled := s.cancelled
	s.mu.Unlock()
	if cancelled {
		return ErrUserCancelled
	}

	if ctx != nil {
		select {
		case <-ctx.Done():
			s.markCancelled()
			return fmt.Errorf("%w: %v", ErrUserCancelled, ctx.Err())
		default:
		}
	}

	if s.gate != nil && !s.gate.CheckPauseOrStop() {
		s.markCancelled()
		return ErrUserCancelled
	}
	return nil
}

func (s *Sampler) markCancelled() {
	s.mu.Lock()
	s.cancelled = true
	s.mu.Unlock()
}

// WaitFor keeps sampling until d has elapsed on the sampler clock.
// At least one frame is captured even for a zero duration.
func (s *Sampler) WaitFor(ctx context.Context, d time.Duration) error {
	end := s.clock.Now().Add(d)
	for {
		if _, err := s.Capture(ctx); err != nil {
			return err
		}
		if !s.clock.Now().Before(end) {
			return nil
		}
	}
}

// Latest returns the most recently captured frame, or nil
func (s *Sampler) Latest() *Frame {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.latest
}

// FrameCount returns how many frames have been captured
func (s *Sampler) FrameCount() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.frames
}

// Close releases the capture device and display
func (s *Sampler) Close() error {
	return errors.Join(s.capturer.Close(), s.display.Close())
}
