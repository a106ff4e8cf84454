package bot

import (
	"fmt"
	"time"

	"jordanella.com/switch-farm-go/internal/actions"
	"jordanella.com/switch-farm-go/internal/monitor"
)

// ErrUnexpectedVisualState is returned when a table routes to INVALID
var ErrUnexpectedVisualState = monitor.NewError(monitor.KindUnexpectedVisualState, "unexpected visual state")

// NoMatchingRuleError is returned when a strict state sees a frame that
// none of its rules accept
type NoMatchingRuleError struct {
	State actions.StateName
	Tick  int64
}

func (e *NoMatchingRuleError) Error() string {
	return fmt.Sprintf("no rule of state %s matched the frame at tick %d", e.State, e.Tick)
}

// Kind classifies the error for monitor.Classify
func (e *NoMatchingRuleError) Kind() monitor.ErrorKind {
	return monitor.KindNoMatchingRule
}

// Status is how a run ended
type Status int

const (
	StatusCompleted Status = iota // Reached EXIT
	StatusExited                  // An exit action fired
	StatusInvalid                 // Reached INVALID
	StatusCancelled               // Operator stop
	StatusFailed                  // Any other error
	StatusReplayEnded             // Recorded frames ran out
)

func (s Status) String() string {
	switch s {
	case StatusCompleted:
		return "completed"
	case StatusExited:
		return "exited"
	case StatusInvalid:
		return "invalid"
	case StatusCancelled:
		return "cancelled"
	case StatusReplayEnded:
		return "replay_ended"
	default:
		return "failed"
	}
}

// ExitCode returns the process exit status for the outcome
func (s Status) ExitCode() int {
	switch s {
	case StatusCompleted, StatusExited, StatusCancelled, StatusReplayEnded:
		return 0
	case StatusInvalid:
		return 2
	default:
		return 1
	}
}

// Result summarizes a finished run
type Result struct {
	Status     Status
	RunID      string
	Table      string
	FinalState actions.StateName
	Ticks      int64
	Stats      Stats
	Duration   time.Duration
}

// ExitCode returns the process exit status for the run
func (r Result) ExitCode() int {
	return r.Status.ExitCode()
}
