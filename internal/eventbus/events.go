// Package eventbus provides the pipeline event types and bus used to observe
// request processing.
package eventbus

import (
	"context"
	"time"
)

// EventType identifies what happened within the pipeline.
type EventType string

// Pipeline event types
const (
	// Request lifecycle
	EventRequestStarted EventType = "request_started"
	EventRequestSuccess EventType = "request_success"
	EventRequestFailure EventType = "request_failure"

	// Planning
	EventPlanningStarted  EventType = "planning_started"
	EventPlanningSuccess  EventType = "planning_success"
	EventPlanningFallback EventType = "planning_fallback"

	// Plan execution
	EventExecutionStarted   EventType = "execution_started"
	EventExecutionCompleted EventType = "execution_completed"

	// Individual tool calls
	EventToolExecutionStarted EventType = "tool_execution_started"
	EventToolExecutionSuccess EventType = "tool_execution_success"
	EventToolExecutionFailure EventType = "tool_execution_failure"

	// Knowledge retrieval
	EventRetrievalStarted EventType = "retrieval_started"
	EventRetrievalSuccess EventType = "retrieval_success"
	EventRetrievalFailure EventType = "retrieval_failure"

	// Response synthesis
	EventSynthesisStarted  EventType = "synthesis_started"
	EventSynthesisSuccess  EventType = "synthesis_success"
	EventSynthesisFallback EventType = "synthesis_fallback"

	// UI specification generation
	EventUIGenerationStarted  EventType = "ui_generation_started"
	EventUIGenerationSuccess  EventType = "ui_generation_success"
	EventUIGenerationFallback EventType = "ui_generation_fallback"

	// Async request processing
	EventAsyncStarted   EventType = "async_started"
	EventAsyncSuccess   EventType = "async_success"
	EventAsyncFailure   EventType = "async_failure"
	EventAsyncCancelled EventType = "async_cancelled"

	// System events
	EventSystemError   EventType = "system_error"
	EventSystemWarning EventType = "system_warning"
	EventSystemInfo    EventType = "system_info"
)

// EventHandler is a function that handles events.
type EventHandler func(context.Context, Event) error

// Event represents something that has happened within the pipeline.
type Event interface {
	// Type returns the event type.
	Type() EventType

	// Payload returns the event data.
	Payload() interface{}

	// Metadata returns additional information about the event.
	Metadata() map[string]interface{}

	// Timestamp returns when the event occurred, in unix nanoseconds.
	Timestamp() int64

	// Source returns what generated the event.
	Source() string
}

// EventBus is the central event dispatch system.
type EventBus interface {
	// Publish sends an event to all subscribed handlers.
	Publish(ctx context.Context, event Event) error

	// Subscribe registers a handler for specific event types and returns a
	// subscription id for Unsubscribe.
	Subscribe(eventTypes []EventType, handler EventHandler) (string, error)

	// SubscribeAll registers a handler for every event type.
	SubscribeAll(handler EventHandler) (string, error)

	// Unsubscribe removes a subscription by id.
	Unsubscribe(subscriptionID string) error

	// Close shuts down the event bus.
	Close() error
}

// BaseEvent is the default Event implementation.
type BaseEvent struct {
	eventType  EventType
	payload    interface{}
	metadata   map[string]interface{}
	timestamp  int64
	sourceInfo string
}

// NewEvent creates a new BaseEvent.
func NewEvent(eventType EventType, payload interface{}, source string, metadata map[string]interface{}) *BaseEvent {
	if metadata == nil {
		metadata = make(map[string]interface{})
	}
	return &BaseEvent{
		eventType:  eventType,
		payload:    payload,
		metadata:   metadata,
		timestamp:  time.Now().UnixNano(),
		sourceInfo: source,
	}
}

// Type returns the event type.
func (e *BaseEvent) Type() EventType { return e.eventType }

// Payload returns the event data.
func (e *BaseEvent) Payload() interface{} { return e.payload }

// Metadata returns additional information about the event.
func (e *BaseEvent) Metadata() map[string]interface{} { return e.metadata }

// Timestamp returns when the event occurred, in unix nanoseconds.
func (e *BaseEvent) Timestamp() int64 { return e.timestamp }

// Source returns what generated the event.
func (e *BaseEvent) Source() string { return e.sourceInfo }

// WithMetadata adds one metadata entry and returns the same event.
func (e *BaseEvent) WithMetadata(key string, value interface{}) *BaseEvent {
	e.metadata[key] = value
	return e
}
