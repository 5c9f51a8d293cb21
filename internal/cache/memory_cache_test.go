package cache

import (
	"context"
	"testing"
	"time"

	"github.com/shophub-ai/assistant"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCacheSetGet(t *testing.T) {
	c := NewInMemoryCache(time.Minute)
	defer c.Stop()

	require.NoError(t, c.Set(context.Background(), "k", "v"))

	got, err := c.Get(context.Background(), "k")
	require.NoError(t, err)
	assert.Equal(t, "v", got)
}

func TestCacheMiss(t *testing.T) {
	c := NewInMemoryCache(time.Minute)
	defer c.Stop()

	_, err := c.Get(context.Background(), "absent")
	require.Error(t, err)
}

func TestCacheExpiry(t *testing.T) {
	c := NewInMemoryCache(10 * time.Millisecond)
	defer c.Stop()

	require.NoError(t, c.Set(context.Background(), "k", "v"))
	time.Sleep(30 * time.Millisecond)

	_, err := c.Get(context.Background(), "k")
	require.Error(t, err)
}

func TestCacheHonorsContext(t *testing.T) {
	c := NewInMemoryCache(time.Minute)
	defer c.Stop()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := c.Get(ctx, "k")
	require.Error(t, err)
	require.Error(t, c.Set(ctx, "k", "v"))
}

func testPlan() *assistant.ExecutionPlan {
	return &assistant.ExecutionPlan{
		Strategy: "catalog_search",
		Steps: []assistant.PlanStep{{
			ID:   "s1",
			Tool: "search_products",
			Args: map[string]interface{}{"query": "laptop"},
		}},
	}
}

func TestPlanCacheRoundTrip(t *testing.T) {
	c := NewPlanCache(NewInMemoryCache(time.Minute))
	defer c.backend.Stop()

	c.Set(context.Background(), "key", testPlan())

	got, found := c.Get(context.Background(), "key")
	require.True(t, found)
	assert.Equal(t, testPlan().Steps, got.Steps)
}

func TestPlanCacheReturnsCopies(t *testing.T) {
	c := NewPlanCache(NewInMemoryCache(time.Minute))
	defer c.backend.Stop()

	c.Set(context.Background(), "key", testPlan())

	first, found := c.Get(context.Background(), "key")
	require.True(t, found)
	first.Steps[0].Args["query"] = "mutated"

	second, found := c.Get(context.Background(), "key")
	require.True(t, found)
	assert.Equal(t, "laptop", second.Steps[0].Args["query"])
}

func TestPlanCacheSkipsFallbackPlans(t *testing.T) {
	c := NewPlanCache(NewInMemoryCache(time.Minute))
	defer c.backend.Stop()

	plan := testPlan()
	plan.Fallback = true
	c.Set(context.Background(), "key", plan)

	_, found := c.Get(context.Background(), "key")
	assert.False(t, found)
}
