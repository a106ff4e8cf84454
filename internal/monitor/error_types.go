package monitor

import (
	"errors"

	"jordanella.com/switch-farm-go/internal/controller"
	"jordanella.com/switch-farm-go/internal/cv"
)

// ErrorKind is the category an error belongs to
type ErrorKind int

const (
	KindNone                   ErrorKind = iota
	KindRecognitionUncertain             // OCR or matching could not decide; the predicate is false
	KindTimeoutExceeded                  // A wait or a state took too long; alarm and continue
	KindInvalidDimensions                // Degenerate reference or frame size
	KindUnknownCommand                   // Controller code outside the command table
	KindNoMatchingRule                   // Strict state saw a frame no rule accepts
	KindInvalidTable                     // State table failed validation
	KindCaptureFailed                    // Video device could not produce a frame
	KindUserCancelled                    // Operator asked to stop
	KindUnexpectedVisualState            // Table reached INVALID
	KindReplayFinished                   // Recorded frames ran out
	KindUnknown                          // Anything else (I/O, serial port, ...)
)

var kindNames = map[ErrorKind]string{
	KindNone:                  "none",
	KindRecognitionUncertain:  "recognition_uncertain",
	KindTimeoutExceeded:       "timeout_exceeded",
	KindInvalidDimensions:     "invalid_dimensions",
	KindUnknownCommand:        "unknown_command",
	KindNoMatchingRule:        "no_matching_rule",
	KindInvalidTable:          "invalid_table",
	KindCaptureFailed:         "capture_failed",
	KindUserCancelled:         "user_cancelled",
	KindUnexpectedVisualState: "unexpected_visual_state",
	KindReplayFinished:        "replay_finished",
	KindUnknown:               "unknown",
}

func (k ErrorKind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return "unknown"
}

// ErrorSeverity determines how the error should be handled
type ErrorSeverity int

const (
	SeverityCritical ErrorSeverity = iota // Stop the run immediately
	SeverityHigh                          // Stop the run, distinct outcome
	SeverityMedium                        // Alert the operator, keep going
	SeverityLow                           // Log only
)

func (s ErrorSeverity) String() string {
	switch s {
	case SeverityCritical:
		return "critical"
	case SeverityHigh:
		return "high"
	case SeverityMedium:
		return "medium"
	default:
		return "low"
	}
}

// ErrorAction tells the runner what to do after an error
type ErrorAction int

const (
	ActionContinue ErrorAction = iota // Keep running
	ActionAlarm                       // Sound the alarm and keep running
	ActionStop                        // End the run cleanly
	ActionAbort                       // End the run as failed
)

func (a ErrorAction) String() string {
	switch a {
	case ActionContinue:
		return "continue"
	case ActionAlarm:
		return "alarm"
	case ActionStop:
		return "stop"
	default:
		return "abort"
	}
}

// Error is a sentinel that carries its own kind. Packages above this one
// declare their sentinels with NewError so Classify needs no import of them.
type Error struct {
	kind ErrorKind
	msg  string
}

// NewError creates a classified sentinel error
func NewError(kind ErrorKind, msg string) *Error {
	return &Error{kind: kind, msg: msg}
}

func (e *Error) Error() string { return e.msg }

// Kind returns the error's category
func (e *Error) Kind() ErrorKind { return e.kind }

// Kinded is implemented by errors that know their category
type Kinded interface {
	Kind() ErrorKind
}

// Classify maps an error chain to its category
func Classify(err error) ErrorKind {
	if err == nil {
		return KindNone
	}

	// User cancellation wins over anything it interrupted
	if errors.Is(err, cv.ErrUserCancelled) {
		return KindUserCancelled
	}

	var kinded Kinded
	if errors.As(err, &kinded) {
		return kinded.Kind()
	}

	switch {
	case errors.Is(err, cv.ErrInvalidDimensions):
		return KindInvalidDimensions
	case errors.Is(err, controller.ErrUnknownCommand):
		return KindUnknownCommand
	case errors.Is(err, cv.ErrCaptureFailed):
		return KindCaptureFailed
	case errors.Is(err, cv.ErrReplayFinished):
		return KindReplayFinished
	}
	return KindUnknown
}
