package monitor

// ErrorResponse describes how the runner reacts to a kind of error
type ErrorResponse struct {
	Kind     ErrorKind
	Severity ErrorSeverity
	Action   ErrorAction
	Message  string
}

// DefaultErrorHandler encodes the standard policy for each kind
func DefaultErrorHandler(kind ErrorKind, err error) ErrorResponse {
	switch kind {
	case KindNone:
		return ErrorResponse{Kind: kind, Severity: SeverityLow, Action: ActionContinue}

	case KindRecognitionUncertain:
		// Never surfaced: the predicate already evaluated to false
		return ErrorResponse{
			Kind:     kind,
			Severity: SeverityLow,
			Action:   ActionContinue,
			Message:  "Recognition uncertain, treated as no match",
		}

	case KindTimeoutExceeded:
		return ErrorResponse{
			Kind:     kind,
			Severity: SeverityMedium,
			Action:   ActionAlarm,
			Message:  "Timeout exceeded, alerting operator and continuing",
		}

	case KindUserCancelled:
		return ErrorResponse{
			Kind:     kind,
			Severity: SeverityLow,
			Action:   ActionStop,
			Message:  "Cancelled by operator",
		}

	case KindReplayFinished:
		return ErrorResponse{
			Kind:     kind,
			Severity: SeverityLow,
			Action:   ActionStop,
			Message:  "Replay finished",
		}

	case KindUnexpectedVisualState:
		return ErrorResponse{
			Kind:     kind,
			Severity: SeverityHigh,
			Action:   ActionStop,
			Message:  "Unexpected visual state, manual intervention required",
		}

	case KindInvalidDimensions, KindUnknownCommand, KindNoMatchingRule, KindInvalidTable:
		return ErrorResponse{
			Kind:     kind,
			Severity: SeverityCritical,
			Action:   ActionAbort,
			Message:  "Programming or configuration error",
		}

	default:
		message := "Unexpected error"
		if err != nil {
			message = err.Error()
		}
		return ErrorResponse{
			Kind:     kind,
			Severity: SeverityCritical,
			Action:   ActionAbort,
			Message:  message,
		}
	}
}

// HandleError classifies err and applies the default policy
func HandleError(err error) ErrorResponse {
	return DefaultErrorHandler(Classify(err), err)
}
