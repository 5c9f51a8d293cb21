package assistant

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/shophub-ai/assistant/internal/eventbus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// eventRecorder collects pipeline event types seen during a request.
type eventRecorder struct {
	mu    sync.Mutex
	types []eventbus.EventType
}

func (r *eventRecorder) handle(_ context.Context, event eventbus.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.types = append(r.types, event.Type())
	return nil
}

func (r *eventRecorder) has(eventType eventbus.EventType) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, t := range r.types {
		if t == eventType {
			return true
		}
	}
	return false
}

func (r *eventRecorder) waitFor(t *testing.T, eventType eventbus.EventType) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if r.has(eventType) {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("event %s was never published", eventType)
}

func TestProcessPublishesLifecycleEvents(t *testing.T) {
	bus := eventbus.NewChannelEventBus()
	defer bus.Close()

	recorder := &eventRecorder{}
	_, err := bus.SubscribeAll(recorder.handle)
	require.NoError(t, err)

	app, err := happyStubs().build(WithEventBus(bus))
	require.NoError(t, err)

	_, err = app.Process(context.Background(), ChatRequest{Message: "hello"})
	require.NoError(t, err)

	recorder.waitFor(t, eventbus.EventRequestSuccess)
	assert.True(t, recorder.has(eventbus.EventRequestStarted))
	assert.True(t, recorder.has(eventbus.EventPlanningStarted))
	assert.True(t, recorder.has(eventbus.EventExecutionStarted))
	assert.True(t, recorder.has(eventbus.EventSynthesisStarted))
	assert.True(t, recorder.has(eventbus.EventUIGenerationStarted))
}

func TestPlanningFallbackPublishesEvent(t *testing.T) {
	bus := eventbus.NewChannelEventBus()
	defer bus.Close()

	recorder := &eventRecorder{}
	_, err := bus.SubscribeAll(recorder.handle)
	require.NoError(t, err)

	stubs := happyStubs()
	stubs.planner = func(_ context.Context, _ PlannerInput) (*ExecutionPlan, error) {
		return nil, errors.New("bad model output")
	}

	app, err := stubs.build(WithEventBus(bus))
	require.NoError(t, err)

	_, err = app.Process(context.Background(), ChatRequest{Message: "hello"})
	require.NoError(t, err)

	recorder.waitFor(t, eventbus.EventPlanningFallback)
}
