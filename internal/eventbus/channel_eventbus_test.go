package eventbus

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// collector records delivered events for assertions.
type collector struct {
	mu     sync.Mutex
	events []Event
	seen   chan struct{}
}

func newCollector() *collector {
	return &collector{seen: make(chan struct{}, 64)}
}

func (c *collector) handle(_ context.Context, event Event) error {
	c.mu.Lock()
	c.events = append(c.events, event)
	c.mu.Unlock()
	c.seen <- struct{}{}
	return nil
}

func (c *collector) wait(t *testing.T, n int) []Event {
	t.Helper()
	for i := 0; i < n; i++ {
		select {
		case <-c.seen:
		case <-time.After(2 * time.Second):
			t.Fatalf("timed out waiting for event %d of %d", i+1, n)
		}
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]Event(nil), c.events...)
}

func TestPublishDeliversToTypedSubscriber(t *testing.T) {
	bus := NewChannelEventBus()
	defer bus.Close()

	c := newCollector()
	_, err := bus.Subscribe([]EventType{EventPlanningSuccess}, c.handle)
	require.NoError(t, err)

	require.NoError(t, bus.Publish(context.Background(), NewEvent(EventPlanningSuccess, "plan", "test", nil)))
	require.NoError(t, bus.Publish(context.Background(), NewEvent(EventSynthesisSuccess, "reply", "test", nil)))

	events := c.wait(t, 1)
	require.Len(t, events, 1)
	assert.Equal(t, EventPlanningSuccess, events[0].Type())
	assert.Equal(t, "plan", events[0].Payload())
}

func TestSubscribeAllSeesEverything(t *testing.T) {
	bus := NewChannelEventBus()
	defer bus.Close()

	c := newCollector()
	_, err := bus.SubscribeAll(c.handle)
	require.NoError(t, err)

	require.NoError(t, bus.Publish(context.Background(), NewEvent(EventRequestStarted, nil, "test", nil)))
	require.NoError(t, bus.Publish(context.Background(), NewEvent(EventToolExecutionFailure, nil, "test", nil)))

	events := c.wait(t, 2)
	assert.Len(t, events, 2)
}

func TestUnsubscribeStopsDelivery(t *testing.T) {
	bus := NewChannelEventBus()
	defer bus.Close()

	c := newCollector()
	id, err := bus.SubscribeAll(c.handle)
	require.NoError(t, err)
	require.NoError(t, bus.Unsubscribe(id))

	require.NoError(t, bus.Publish(context.Background(), NewEvent(EventRequestStarted, nil, "test", nil)))

	select {
	case <-c.seen:
		t.Fatal("unsubscribed handler still received an event")
	case <-time.After(50 * time.Millisecond):
	}
}

func TestUnsubscribeUnknownID(t *testing.T) {
	bus := NewChannelEventBus()
	defer bus.Close()

	require.Error(t, bus.Unsubscribe("not-a-subscription"))
}

func TestSubscribeValidation(t *testing.T) {
	bus := NewChannelEventBus()
	defer bus.Close()

	_, err := bus.Subscribe(nil, func(context.Context, Event) error { return nil })
	require.Error(t, err)

	_, err = bus.Subscribe([]EventType{EventRequestStarted}, nil)
	require.Error(t, err)
}

func TestPublishAfterClose(t *testing.T) {
	bus := NewChannelEventBus()
	require.NoError(t, bus.Close())

	err := bus.Publish(context.Background(), NewEvent(EventRequestStarted, nil, "test", nil))
	require.Error(t, err)
}

func TestCloseIsIdempotent(t *testing.T) {
	bus := NewChannelEventBus()
	require.NoError(t, bus.Close())
	require.NoError(t, bus.Close())
}

func TestFailingHandlerDoesNotBlockOthers(t *testing.T) {
	bus := NewChannelEventBus(WithRetries(1, time.Millisecond))
	defer bus.Close()

	_, err := bus.SubscribeAll(func(context.Context, Event) error {
		return errors.New("handler always fails")
	})
	require.NoError(t, err)

	c := newCollector()
	_, err = bus.SubscribeAll(c.handle)
	require.NoError(t, err)

	require.NoError(t, bus.Publish(context.Background(), NewEvent(EventSystemInfo, nil, "test", nil)))
	events := c.wait(t, 1)
	assert.Len(t, events, 1)
}

func TestEventMetadata(t *testing.T) {
	event := NewEvent(EventPlanningFallback, "payload", "planner", map[string]interface{}{"error": "bad JSON"})
	event.WithMetadata("attempt", 1)

	assert.Equal(t, "planner", event.Source())
	assert.Equal(t, "bad JSON", event.Metadata()["error"])
	assert.Equal(t, 1, event.Metadata()["attempt"])
	assert.NotZero(t, event.Timestamp())
}
