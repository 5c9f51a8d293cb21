package eventbus

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
)

// ChannelEventBus is an EventBus backed by a buffered channel and a small
// worker pool. Handlers run off the publisher's goroutine; a slow handler
// never blocks the request pipeline beyond the channel buffer.
type ChannelEventBus struct {
	subscribers    map[EventType]map[string]EventHandler
	allSubscribers map[string]EventHandler

	eventChan chan queuedEvent
	done      chan struct{}
	closed    bool
	wg        sync.WaitGroup
	mutex     sync.RWMutex

	bufferSize    int
	workerCount   int
	maxRetries    int
	retryInterval time.Duration
}

// queuedEvent bundles an event with the context it was published under.
type queuedEvent struct {
	ctx   context.Context
	event Event
}

// ChannelEventBusOption configures the channel-based event bus.
type ChannelEventBusOption func(*ChannelEventBus)

// WithBufferSize sets the event channel buffer size.
func WithBufferSize(size int) ChannelEventBusOption {
	return func(eb *ChannelEventBus) {
		if size > 0 {
			eb.bufferSize = size
		}
	}
}

// WithWorkerCount sets the number of event processing workers.
func WithWorkerCount(count int) ChannelEventBusOption {
	return func(eb *ChannelEventBus) {
		if count > 0 {
			eb.workerCount = count
		}
	}
}

// WithRetries configures handler retry behavior.
func WithRetries(maxRetries int, retryInterval time.Duration) ChannelEventBusOption {
	return func(eb *ChannelEventBus) {
		eb.maxRetries = maxRetries
		eb.retryInterval = retryInterval
	}
}

// NewChannelEventBus creates a new channel-based event bus and starts its
// workers.
func NewChannelEventBus(options ...ChannelEventBusOption) *ChannelEventBus {
	eb := &ChannelEventBus{
		subscribers:    make(map[EventType]map[string]EventHandler),
		allSubscribers: make(map[string]EventHandler),
		done:           make(chan struct{}),
		bufferSize:     100,
		workerCount:    5,
		maxRetries:     3,
		retryInterval:  100 * time.Millisecond,
	}

	for _, option := range options {
		option(eb)
	}

	eb.eventChan = make(chan queuedEvent, eb.bufferSize)

	for i := 0; i < eb.workerCount; i++ {
		eb.wg.Add(1)
		go eb.worker()
	}

	return eb
}

func (eb *ChannelEventBus) worker() {
	defer eb.wg.Done()
	for {
		select {
		case <-eb.done:
			return
		case evt := <-eb.eventChan:
			eb.dispatch(evt)
		}
	}
}

// dispatch delivers one event to all matching handlers. Handler maps are
// copied under the read lock so handlers may subscribe or unsubscribe
// without deadlocking.
func (eb *ChannelEventBus) dispatch(evt queuedEvent) {
	if evt.ctx.Err() != nil {
		return
	}

	eb.mutex.RLock()
	handlers := make([]EventHandler, 0, len(eb.allSubscribers))
	if typed, exists := eb.subscribers[evt.event.Type()]; exists {
		for _, handler := range typed {
			handlers = append(handlers, handler)
		}
	}
	for _, handler := range eb.allSubscribers {
		handlers = append(handlers, handler)
	}
	eb.mutex.RUnlock()

	for _, handler := range handlers {
		eb.runHandler(evt.ctx, evt.event, handler)
	}
}

// runHandler executes one handler with retries. A persistently failing
// handler is dropped for this event; it never stops other handlers.
func (eb *ChannelEventBus) runHandler(ctx context.Context, event Event, handler EventHandler) {
	for attempt := 0; attempt <= eb.maxRetries; attempt++ {
		if ctx.Err() != nil {
			return
		}
		if err := handler(ctx, event); err == nil {
			return
		}
		if attempt == eb.maxRetries {
			return
		}
		select {
		case <-ctx.Done():
			return
		case <-time.After(eb.retryInterval):
		}
	}
}

// Publish queues an event for delivery. It blocks only when the buffer is
// full, and respects the caller's context while waiting.
func (eb *ChannelEventBus) Publish(ctx context.Context, event Event) error {
	eb.mutex.RLock()
	closed := eb.closed
	eb.mutex.RUnlock()
	if closed {
		return fmt.Errorf("event bus is closed")
	}

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-eb.done:
		return fmt.Errorf("event bus is closed")
	case eb.eventChan <- queuedEvent{ctx: ctx, event: event}:
		return nil
	}
}

// Subscribe registers a handler for specific event types.
func (eb *ChannelEventBus) Subscribe(eventTypes []EventType, handler EventHandler) (string, error) {
	if handler == nil {
		return "", fmt.Errorf("handler cannot be nil")
	}
	if len(eventTypes) == 0 {
		return "", fmt.Errorf("at least one event type is required")
	}

	subscriptionID := uuid.New().String()

	eb.mutex.Lock()
	defer eb.mutex.Unlock()
	if eb.closed {
		return "", fmt.Errorf("event bus is closed")
	}
	for _, eventType := range eventTypes {
		if _, exists := eb.subscribers[eventType]; !exists {
			eb.subscribers[eventType] = make(map[string]EventHandler)
		}
		eb.subscribers[eventType][subscriptionID] = handler
	}

	return subscriptionID, nil
}

// SubscribeAll registers a handler for every event type.
func (eb *ChannelEventBus) SubscribeAll(handler EventHandler) (string, error) {
	if handler == nil {
		return "", fmt.Errorf("handler cannot be nil")
	}

	subscriptionID := uuid.New().String()

	eb.mutex.Lock()
	defer eb.mutex.Unlock()
	if eb.closed {
		return "", fmt.Errorf("event bus is closed")
	}
	eb.allSubscribers[subscriptionID] = handler

	return subscriptionID, nil
}

// Unsubscribe removes a subscription by id.
func (eb *ChannelEventBus) Unsubscribe(subscriptionID string) error {
	eb.mutex.Lock()
	defer eb.mutex.Unlock()

	found := false
	if _, exists := eb.allSubscribers[subscriptionID]; exists {
		delete(eb.allSubscribers, subscriptionID)
		found = true
	}
	for eventType, handlers := range eb.subscribers {
		if _, exists := handlers[subscriptionID]; exists {
			delete(handlers, subscriptionID)
			found = true
		}
		if len(handlers) == 0 {
			delete(eb.subscribers, eventType)
		}
	}

	if !found {
		return fmt.Errorf("subscription '%s' not found", subscriptionID)
	}
	return nil
}

// Close shuts down the event bus and waits for the workers to drain.
func (eb *ChannelEventBus) Close() error {
	eb.mutex.Lock()
	if eb.closed {
		eb.mutex.Unlock()
		return nil
	}
	eb.closed = true
	eb.mutex.Unlock()

	close(eb.done)
	eb.wg.Wait()
	return nil
}
