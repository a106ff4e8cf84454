package cv

import (
	"errors"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"
)

// ErrCaptureFailed is returned when the device yields no frame
var ErrCaptureFailed = errors.New("capture failed")

// ErrReplayFinished is returned, together with io.EOF, once a non-looping
// replay has no frames left
var ErrReplayFinished = errors.New("replay finished")

// Capturer is a source of frames
type Capturer interface {
	// Read blocks until the next frame is available
	Read() (*Frame, error)
	// Dims returns the configured capture resolution
	Dims() Dims
	Close() error
}

// CaptureConfig holds configuration for frame capture
type CaptureConfig struct {
	Device     int  // Video device index
	Resolution Dims // Requested before the first read
	ReplayDir  string
	ReplayLoop bool
}

// DefaultCaptureConfig returns the high resolution preset on device 0
func DefaultCaptureConfig() *CaptureConfig {
	return &CaptureConfig{
		Device:     0,
		Resolution: DimsHighRes,
	}
}

// StaticCapturer replays a fixed list of frames and then repeats the last one.
// When a clock is attached, every read advances it by the frame interval.
type StaticCapturer struct {
	mu       sync.Mutex
	frames   []*Frame
	next     int
	reads    int
	clock    *ManualClock
	interval time.Duration
	onRead   func(n int)
}

// NewStaticCapturer creates a capturer over frames
func NewStaticCapturer(frames ...*Frame) *StaticCapturer {
	return &StaticCapturer{frames: frames}
}

// WithClock advances clock by interval on every read
func (s *StaticCapturer) WithClock(clock *ManualClock, interval time.Duration) *StaticCapturer {
	s.clock = clock
	s.interval = interval
	return s
}

// OnRead registers a hook called after each read with the read count
func (s *StaticCapturer) OnRead(fn func(n int)) *StaticCapturer {
	s.onRead = fn
	return s
}

func (s *StaticCapturer) Read() (*Frame, error) {
	s.mu.Lock()
	if len(s.frames) == 0 {
		s.mu.Unlock()
		return nil, fmt.Errorf("%w: no frames", ErrCaptureFailed)
	}
	frame := s.frames[s.next]
	if s.next < len(s.frames)-1 {
		s.next++
	}
	s.reads++
	n := s.reads
	if s.clock != nil {
		s.clock.Advance(s.interval)
	}
	hook := s.onRead
	s.mu.Unlock()

	if hook != nil {
		hook(n)
	}
	return frame, nil
}

// Reads returns how many frames have been read
func (s *StaticCapturer) Reads() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.reads
}

func (s *StaticCapturer) Dims() Dims {
	if len(s.frames) == 0 {
		return Dims{}
	}
	return s.frames[0].Dims()
}

func (s *StaticCapturer) Close() error { return nil }

// ReplayCapturer plays back recorded frames from a directory of images,
// in lexical file name order
type ReplayCapturer struct {
	paths []string
	next  int
	loop  bool
	dims  Dims
}

// NewReplayCapturer indexes the png and jpeg files in dir
func NewReplayCapturer(dir string, loop bool) (*ReplayCapturer, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read replay directory: %w", err)
	}

	var paths []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		switch strings.ToLower(filepath.Ext(entry.Name())) {
		case ".png", ".jpg", ".jpeg":
			paths = append(paths, filepath.Join(dir, entry.Name()))
		}
	}
	if len(paths) == 0 {
		return nil, fmt.Errorf("no frames found in %s", dir)
	}
	sort.Strings(paths)

	rc := &ReplayCapturer{paths: paths, loop: loop}
	first, err := rc.load(paths[0])
	if err != nil {
		return nil, err
	}
	rc.dims = first.Dims()
	return rc, nil
}

func (rc *ReplayCapturer) load(path string) (*Frame, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open frame %s: %w", path, err)
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("failed to decode frame %s: %w", path, err)
	}
	return FrameFromImage(img), nil
}

func (rc *ReplayCapturer) Read() (*Frame, error) {
	if rc.next >= len(rc.paths) {
		if !rc.loop {
			return nil, fmt.Errorf("%w after %d frames: %w", ErrReplayFinished, len(rc.paths), io.EOF)
		}
		rc.next = 0
	}
	path := rc.paths[rc.next]
	rc.next++
	return rc.load(path)
}

func (rc *ReplayCapturer) Dims() Dims { return rc.dims }

func (rc *ReplayCapturer) Close() error { return nil }
