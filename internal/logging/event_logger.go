package logging

import (
	"fmt"

	"jordanella.com/switch-farm-go/internal/events"
)

// EventLogger subscribes to event bus and logs all events
type EventLogger struct {
	logger        *Logger
	eventBus      events.EventBus
	subscriptions []events.SubscriptionID
}

// NewEventLogger subscribes to every event type on the bus
func NewEventLogger(eventBus events.EventBus) *EventLogger {
	el := &EventLogger{
		logger:   NewLogger("Events"),
		eventBus: eventBus,
	}

	for _, eventType := range events.AllEventTypes {
		el.subscriptions = append(el.subscriptions, eventBus.Subscribe(eventType, el.handleEvent))
	}

	return el
}

// handleEvent handles incoming events and logs them
func (el *EventLogger) handleEvent(event events.Event) {
	context := map[string]interface{}{
		"event_type": string(event.Type),
		"source":     event.Source,
	}

	for k, v := range event.Data {
		context[k] = v
	}

	switch event.Type {
	case events.EventTypeTransition, events.EventTypeCounters:
		el.logger.DebugWithContext(fmt.Sprintf("Event: %s", event.Type), context)
	case events.EventTypeError, events.EventTypeRunFailed, events.EventTypeStalled:
		el.logger.WarnWithContext(fmt.Sprintf("Event: %s", event.Type), context)
	default:
		el.logger.InfoWithContext(fmt.Sprintf("Event: %s", event.Type), context)
	}
}

// Close unsubscribes from the bus
func (el *EventLogger) Close() error {
	for _, id := range el.subscriptions {
		el.eventBus.Unsubscribe(id)
	}
	el.subscriptions = nil
	return nil
}
