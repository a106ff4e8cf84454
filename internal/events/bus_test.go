package events

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestBusDeliversInOrder(t *testing.T) {
	bus := NewEventBus(16)

	var mu sync.Mutex
	var got []string
	bus.Subscribe(EventTypeTransition, func(e Event) {
		mu.Lock()
		defer mu.Unlock()
		got = append(got, e.Data["to"].(string))
	})

	for _, to := range []string{"A", "B", "C", "EXIT"} {
		bus.Publish(NewTransitionEvent("run", "x", to, 0, 1))
	}
	bus.Stop()

	assert.Equal(t, []string{"A", "B", "C", "EXIT"}, got)
}

func TestBusUnsubscribeAndCounts(t *testing.T) {
	bus := NewEventBus(4)
	defer bus.Stop()

	id := bus.Subscribe(EventTypeAlarm, func(Event) {})
	bus.Subscribe(EventTypeAlarm, func(Event) {})
	assert.Equal(t, 2, bus.GetSubscriberCount(EventTypeAlarm))

	bus.Unsubscribe(id)
	assert.Equal(t, 1, bus.GetSubscriberCount(EventTypeAlarm))
}

func TestBusRecoversHandlerPanics(t *testing.T) {
	bus := NewEventBus(4)

	delivered := 0
	bus.Subscribe(EventTypeError, func(Event) { panic("handler bug") })
	bus.Subscribe(EventTypeError, func(Event) { delivered++ })

	bus.Publish(NewErrorEvent("test", "custom", "low", "boom"))
	bus.Stop()

	assert.Equal(t, 1, delivered)
	assert.Equal(t, int64(1), bus.Panics())
}

func TestBusDropsAfterStop(t *testing.T) {
	bus := NewEventBus(1)
	bus.Stop()
	bus.Stop()

	bus.Publish(NewAlarmEvent("test", "late"))
	require.Equal(t, int64(1), bus.Dropped())
}

func TestRunFinishedEventCarriesError(t *testing.T) {
	ok := NewRunFinishedEvent("r1", "completed", 10, nil)
	assert.Equal(t, EventTypeRunFinished, ok.Type)

	failed := NewRunFinishedEvent("r1", "error", 10, assert.AnError)
	assert.Equal(t, EventTypeRunFailed, failed.Type)
	assert.Equal(t, assert.AnError.Error(), failed.Data["error"])
}
