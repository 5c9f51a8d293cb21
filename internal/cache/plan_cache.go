package cache

import (
	"context"

	"github.com/shophub-ai/assistant"
)

// PlanCache adapts InMemoryCache to the typed plan cache the planner uses.
// Plans are copied on the way in and out so a cached plan is never mutated
// by a request.
type PlanCache struct {
	backend *InMemoryCache
}

// NewPlanCache wraps an InMemoryCache as a plan cache.
func NewPlanCache(backend *InMemoryCache) *PlanCache {
	return &PlanCache{backend: backend}
}

// Get implements assistant.PlanCache.
func (c *PlanCache) Get(ctx context.Context, key string) (*assistant.ExecutionPlan, bool) {
	value, err := c.backend.Get(ctx, key)
	if err != nil {
		return nil, false
	}
	plan, ok := value.(*assistant.ExecutionPlan)
	if !ok {
		return nil, false
	}
	return copyPlan(plan), true
}

// Set implements assistant.PlanCache.
func (c *PlanCache) Set(ctx context.Context, key string, plan *assistant.ExecutionPlan) {
	if plan == nil || plan.Fallback {
		// Fallback plans are cheap to rebuild and should never shadow a
		// real plan for the same query.
		return
	}
	c.backend.Set(ctx, key, copyPlan(plan))
}

func copyPlan(plan *assistant.ExecutionPlan) *assistant.ExecutionPlan {
	copied := *plan
	copied.Steps = make([]assistant.PlanStep, len(plan.Steps))
	for i, step := range plan.Steps {
		copiedStep := step
		copiedStep.Args = make(map[string]interface{}, len(step.Args))
		for k, v := range step.Args {
			copiedStep.Args[k] = v
		}
		copied.Steps[i] = copiedStep
	}
	return &copied
}
