package assistant

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRequiresComponents(t *testing.T) {
	_, err := New()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "planner")

	stubs := happyStubs()
	_, err = New(
		WithPlanner(stubs.planner),
		WithExecutor(stubs.executor),
		WithSynthesizer(stubs.synthesizer),
		WithUIGenerator(stubs.uiGenerator),
		WithSessionStore(stubs.sessions),
	)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "tool")
}

func TestNewRequiresRegisteredFallbackTool(t *testing.T) {
	stubs := happyStubs()
	_, err := New(
		WithPlanner(stubs.planner),
		WithExecutor(stubs.executor),
		WithSynthesizer(stubs.synthesizer),
		WithUIGenerator(stubs.uiGenerator),
		WithSessionStore(stubs.sessions),
		WithTools(map[string]Tool{"get_order": &stubTool{name: "get_order"}}),
	)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "fallback tool")
}

func TestRegisterToolRejectsDuplicates(t *testing.T) {
	app, err := happyStubs().build()
	require.NoError(t, err)

	require.NoError(t, app.RegisterTool("get_order", &stubTool{name: "get_order"}))
	require.Error(t, app.RegisterTool("get_order", &stubTool{name: "get_order"}))
}

func TestCatalogSortedByName(t *testing.T) {
	app, err := happyStubs().build(WithTools(map[string]Tool{
		"get_order":    &stubTool{name: "get_order"},
		"create_order": &stubTool{name: "create_order"},
	}))
	require.NoError(t, err)

	catalog := app.Catalog()
	require.Len(t, catalog, 3)
	assert.Equal(t, "create_order", catalog[0].Name)
	assert.Equal(t, "get_order", catalog[1].Name)
	assert.Equal(t, "search_products", catalog[2].Name)
}

func TestGetToolByName(t *testing.T) {
	app, err := happyStubs().build()
	require.NoError(t, err)

	tool, err := app.GetToolByName("search_products")
	require.NoError(t, err)
	assert.Equal(t, "search_products", tool.Name())

	_, err = app.GetToolByName("nope")
	require.Error(t, err)
	assert.True(t, IsAssistantError(err))
}

func waitForAsync(t *testing.T, app *Assistant, id string) *AsyncExecutionStatus {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		status, err := app.AsyncStatus(id)
		require.NoError(t, err)
		if status.IsComplete || status.IsCancelled {
			return status
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("async execution did not finish in time")
	return nil
}

func TestProcessAsyncCompletes(t *testing.T) {
	app, err := happyStubs().build()
	require.NoError(t, err)

	id, err := app.ProcessAsync(context.Background(), ChatRequest{Message: "hello"})
	require.NoError(t, err)
	require.NotEmpty(t, id)

	status := waitForAsync(t, app, id)
	assert.True(t, status.IsComplete)

	response, err := app.AsyncResult(id)
	require.NoError(t, err)
	assert.NotEmpty(t, response.Message)
}

func TestProcessAsyncCancel(t *testing.T) {
	release := make(chan struct{})

	stubs := happyStubs()
	stubs.planner = func(ctx context.Context, _ PlannerInput) (*ExecutionPlan, error) {
		select {
		case <-release:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
		return nil, ctx.Err()
	}

	app, err := stubs.build()
	require.NoError(t, err)

	id, err := app.ProcessAsync(context.Background(), ChatRequest{Message: "slow request"})
	require.NoError(t, err)

	cancelled, err := app.CancelAsync(id)
	require.NoError(t, err)
	assert.True(t, cancelled)
	close(release)

	status := waitForAsync(t, app, id)
	assert.True(t, status.IsCancelled)

	_, err = app.AsyncResult(id)
	require.Error(t, err)
}

func TestAsyncStatusUnknownID(t *testing.T) {
	app, err := happyStubs().build()
	require.NoError(t, err)

	_, err = app.AsyncStatus("missing")
	require.Error(t, err)
}

func TestCleanupCompletedExecutions(t *testing.T) {
	app, err := happyStubs().build()
	require.NoError(t, err)

	id, err := app.ProcessAsync(context.Background(), ChatRequest{Message: "hello"})
	require.NoError(t, err)
	waitForAsync(t, app, id)

	removed := app.CleanupCompletedExecutions(0)
	assert.Equal(t, 1, removed)
	assert.Empty(t, app.ListAsyncExecutions())
}
