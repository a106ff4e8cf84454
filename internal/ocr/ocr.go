// Package ocr defines the text recognition capability used by text predicates.
package ocr

import (
	"errors"
	"image"
	"strings"
	"sync"
)

// ErrUnavailable is returned when no recognition engine is configured
var ErrUnavailable = errors.New("text recognition unavailable")

// Recognizer extracts text from an image
type Recognizer interface {
	Recognize(img image.Image) (string, error)
}

// Normalize collapses whitespace runs and trims the result
func Normalize(text string) string {
	return strings.Join(strings.Fields(text), " ")
}

// Matches reports whether recognized text satisfies expected.
// Contains is used unless exact is set. Comparison happens after Normalize.
func Matches(recognized, expected string, exact bool) bool {
	recognized = Normalize(recognized)
	expected = Normalize(expected)
	if exact {
		return recognized == expected
	}
	return strings.Contains(recognized, expected)
}

// Unavailable is a recognizer that always fails
type Unavailable struct{}

func (Unavailable) Recognize(image.Image) (string, error) {
	return "", ErrUnavailable
}

// Static returns queued results in order and repeats the last one.
// Intended for tests and dry runs.
type Static struct {
	mu      sync.Mutex
	results []string
	calls   int
}

// NewStatic creates a recognizer that yields results in order
func NewStatic(results ...string) *Static {
	return &Static{results: results}
}

func (s *Static) Recognize(image.Image) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.calls++
	if len(s.results) == 0 {
		return "", nil
	}
	i := s.calls - 1
	if i >= len(s.results) {
		i = len(s.results) - 1
	}
	return s.results[i], nil
}

// Calls returns how many recognitions were requested
func (s *Static) Calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}
