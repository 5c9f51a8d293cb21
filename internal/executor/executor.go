// Package executor runs execution plans step by step against the tool
// registry. Failures are contained per step: a bad tool call produces a
// failed result and the rest of the plan still runs.
package executor

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/shophub-ai/assistant"
	"github.com/shophub-ai/assistant/internal/eventbus"
)

// SequentialExecutor executes plan steps in order, one at a time. It always
// returns exactly one result per step in plan order; the only error it
// returns is the caller's context expiring mid-plan.
type SequentialExecutor struct {
	tools       map[string]assistant.Tool
	toolTimeout time.Duration
	eventBus    eventbus.EventBus
	logger      zerolog.Logger
	metrics     *Metrics
}

// Option configures a SequentialExecutor.
type Option func(*SequentialExecutor)

// WithToolTimeout sets the per-call deadline applied to each tool execution.
func WithToolTimeout(d time.Duration) Option {
	return func(e *SequentialExecutor) {
		if d > 0 {
			e.toolTimeout = d
		}
	}
}

// WithEventBus sets the bus used to publish per-tool lifecycle events.
func WithEventBus(eb eventbus.EventBus) Option {
	return func(e *SequentialExecutor) {
		e.eventBus = eb
	}
}

// WithLogger sets the executor's logger.
func WithLogger(logger zerolog.Logger) Option {
	return func(e *SequentialExecutor) {
		e.logger = logger
	}
}

// New creates a SequentialExecutor over the given tool registry.
func New(tools map[string]assistant.Tool, options ...Option) *SequentialExecutor {
	e := &SequentialExecutor{
		tools:       tools,
		toolTimeout: 10 * time.Second,
		logger:      zerolog.Nop(),
		metrics:     &Metrics{},
	}
	for _, option := range options {
		option(e)
	}
	return e
}

// ExecutePlan runs every step of the plan in order. Step arguments may
// reference earlier step outputs with $stepID.field expressions. The result
// slice always has len(plan.Steps) entries in plan order. The returned error
// is non-nil only when ctx was cancelled; in that case the remaining steps
// are reported as failed results.
func (e *SequentialExecutor) ExecutePlan(ctx context.Context, plan *assistant.ExecutionPlan) ([]assistant.ToolResult, error) {
	if plan == nil {
		return []assistant.ToolResult{}, nil
	}

	results := make([]assistant.ToolResult, 0, len(plan.Steps))
	outputs := make(map[string]map[string]interface{}, len(plan.Steps))

	for i, step := range plan.Steps {
		if ctx.Err() != nil {
			for _, remaining := range plan.Steps[i:] {
				results = append(results, assistant.ToolResult{
					StepID:  remaining.ID,
					Tool:    remaining.Tool,
					Success: false,
					Error:   "cancelled before execution",
				})
			}
			return results, ctx.Err()
		}

		result := e.executeStep(ctx, step, outputs)
		results = append(results, result)
		if result.Success {
			outputs[step.ID] = result.Data
		}
		e.metrics.record(result)
	}

	return results, nil
}

func (e *SequentialExecutor) executeStep(ctx context.Context, step assistant.PlanStep, outputs map[string]map[string]interface{}) assistant.ToolResult {
	e.publish(ctx, eventbus.EventToolExecutionStarted, step.Tool, map[string]interface{}{
		"step_id": step.ID,
	})

	result := assistant.ToolResult{StepID: step.ID, Tool: step.Tool}
	start := time.Now()
	defer func() {
		result.Duration = time.Since(start)
	}()

	tool, exists := e.tools[step.Tool]
	if !exists {
		return e.fail(ctx, result, assistant.NewToolNotFoundError("execution", step.Tool))
	}

	args, err := resolveArgs(step.ID, step.Args, outputs)
	if err != nil {
		return e.fail(ctx, result, err)
	}

	if err := tool.Validate(args); err != nil {
		return e.fail(ctx, result, fmt.Errorf("invalid arguments for tool '%s': %w", step.Tool, err))
	}

	callCtx, cancel := context.WithTimeout(ctx, e.toolTimeout)
	data, err := tool.Execute(callCtx, args)
	cancel()
	if err != nil {
		return e.fail(ctx, result, err)
	}

	result.Success = true
	result.Data = data

	e.logger.Debug().
		Str("step_id", step.ID).
		Str("tool", step.Tool).
		Dur("duration", time.Since(start)).
		Msg("tool call succeeded")
	e.publish(ctx, eventbus.EventToolExecutionSuccess, step.Tool, map[string]interface{}{
		"step_id": step.ID,
	})
	return result
}

func (e *SequentialExecutor) fail(ctx context.Context, result assistant.ToolResult, err error) assistant.ToolResult {
	result.Success = false
	result.Error = err.Error()

	e.logger.Warn().
		Str("step_id", result.StepID).
		Str("tool", result.Tool).
		Err(err).
		Msg("tool call failed")
	e.publish(ctx, eventbus.EventToolExecutionFailure, result.Tool, map[string]interface{}{
		"step_id": result.StepID,
		"error":   err.Error(),
	})
	return result
}

func (e *SequentialExecutor) publish(ctx context.Context, eventType eventbus.EventType, payload interface{}, metadata map[string]interface{}) {
	if e.eventBus == nil {
		return
	}
	e.eventBus.Publish(ctx, eventbus.NewEvent(eventType, payload, "SequentialExecutor", metadata))
}

// GetMetrics returns a snapshot of the execution counters.
func (e *SequentialExecutor) GetMetrics() MetricsSnapshot {
	return e.metrics.snapshot()
}
