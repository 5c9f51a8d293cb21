package assistant

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shophub-ai/assistant/internal/eventbus"
)

// Components holds references to the pipeline components needed for state
// transitions.
type Components struct {
	Planner     Planner
	Executor    Executor
	Synthesizer Synthesizer
	UIGenerator UIGenerator
	Retriever   KnowledgeRetriever
	Sessions    SessionStore
	Tools       map[string]Tool
	Config      Config

	// Catalog returns the serialized tool descriptors for planner prompts.
	Catalog func() []ToolDescriptor
}

// apologyMessage is the worst-case reply: every stage failed and nothing
// useful survived.
const apologyMessage = "Sorry, I wasn't able to help with that request. Please try rephrasing it."

// FallbackPlan builds the degraded single-tool plan substituted whenever the
// planner cannot produce a usable plan: a generic catalog search with the raw
// user text as the query.
func FallbackPlan(query, tool string) *ExecutionPlan {
	return &ExecutionPlan{
		Strategy: "fallback_search",
		Steps: []PlanStep{{
			ID:   "s1",
			Tool: tool,
			Args: map[string]interface{}{"query": query},
		}},
		Reasoning: "fallback: planning failed, searching the catalog with the raw request",
		Fallback:  true,
	}
}

// FallbackSummary builds the templated reply used when synthesis fails. It
// names each tool that ran and whether it succeeded; failed steps are never
// reported as successful.
func FallbackSummary(query string, results []ToolResult) string {
	if len(results) == 0 {
		return apologyMessage
	}
	var b strings.Builder
	b.WriteString("Here's what I was able to do for your request:")
	for _, r := range results {
		b.WriteString("\n- ")
		b.WriteString(r.Tool)
		if r.Success {
			b.WriteString(": completed")
		} else {
			b.WriteString(": failed")
			if r.Error != "" {
				b.WriteString(" (")
				b.WriteString(r.Error)
				b.WriteString(")")
			}
		}
	}
	return b.String()
}

// CreateProcessStateMachine builds the complete state machine for one
// request: plan, execute, optionally retrieve, synthesize, generate UI.
func CreateProcessStateMachine(components Components, eventBus eventbus.EventBus) *StateMachine {
	sm := NewStateMachine(eventBus)

	sm.RegisterTransition(StateInit, createInitTransition(components))
	sm.RegisterTransition(StatePlanning, createPlanningTransition(components))
	sm.RegisterTransition(StateExecution, createExecutionTransition(components))
	sm.RegisterTransition(StateRetrieval, createRetrievalTransition(components))
	sm.RegisterTransition(StateSynthesis, createSynthesisTransition(components))
	sm.RegisterTransition(StateUIGeneration, createUIGenerationTransition(components))
	sm.RegisterTransition(StateError, createErrorTransition(components))
	sm.RegisterTransition(StateComplete, createCompleteTransition(components))

	return sm
}

func publish(ctx context.Context, eb eventbus.EventBus, eventType eventbus.EventType, payload interface{}, source string, metadata map[string]interface{}) {
	if eb == nil {
		return
	}
	eb.Publish(ctx, eventbus.NewEvent(eventType, payload, source, metadata))
}

// createInitTransition resolves the session and prepares the planner input.
func createInitTransition(components Components) StateTransition {
	return func(ctx context.Context, eb eventbus.EventBus, pCtx *ProcessContext) (ProcessState, error) {
		publish(ctx, eb, eventbus.EventRequestStarted, pCtx.Request.Message, "StateMachine.Init", map[string]interface{}{
			"session_id": pCtx.Request.SessionID,
		})

		if pCtx.Request.SessionID == "" {
			pCtx.Request.SessionID = uuid.New().String()
		}

		pCtx.Session = components.Sessions.Update(pCtx.Request.SessionID, func(s *Session) {
			if pCtx.Request.CustomerID != "" {
				s.CustomerID = pCtx.Request.CustomerID
			}
			s.History = append(s.History, Turn{Role: "user", Content: pCtx.Request.Message, At: time.Now()})
		})
		pCtx.Catalog = components.Catalog()

		return StatePlanning, nil
	}
}

// createPlanningTransition asks the planner for a plan and fails closed to
// the single-tool fallback plan.
func createPlanningTransition(components Components) StateTransition {
	return func(ctx context.Context, eb eventbus.EventBus, pCtx *ProcessContext) (ProcessState, error) {
		publish(ctx, eb, eventbus.EventPlanningStarted, pCtx.Request.Message, "StateMachine.Planning", nil)

		input := PlannerInput{
			Query:   pCtx.Request.Message,
			Catalog: pCtx.Catalog,
			Session: pCtx.Session,
		}

		planCtx, cancel := context.WithTimeout(ctx, components.Config.LLMTimeout)
		plan, err := components.Planner.GeneratePlan(planCtx, input)
		cancel()

		if err != nil || plan == nil || len(plan.Steps) == 0 {
			if ctx.Err() != nil {
				return StateCancelled, ctx.Err()
			}
			plan = FallbackPlan(pCtx.Request.Message, components.Config.FallbackTool)
			publish(ctx, eb, eventbus.EventPlanningFallback, pCtx.Request.Message, "StateMachine.Planning", map[string]interface{}{
				"error": errString(err),
			})
		}
		if plan.Fallback {
			pCtx.Degraded = true
		}
		pCtx.Plan = plan

		publish(ctx, eb, eventbus.EventPlanningSuccess, plan, "StateMachine.Planning", map[string]interface{}{
			"step_count": len(plan.Steps),
			"strategy":   plan.Strategy,
			"fallback":   plan.Fallback,
		})

		return StateExecution, nil
	}
}

// createExecutionTransition runs the planned tool invocations in order.
func createExecutionTransition(components Components) StateTransition {
	return func(ctx context.Context, eb eventbus.EventBus, pCtx *ProcessContext) (ProcessState, error) {
		publish(ctx, eb, eventbus.EventExecutionStarted, pCtx.Plan, "StateMachine.Execution", map[string]interface{}{
			"step_count": len(pCtx.Plan.Steps),
		})

		results, err := components.Executor.ExecutePlan(ctx, pCtx.Plan)
		pCtx.Results = results
		if err != nil {
			if ctx.Err() != nil {
				return StateCancelled, ctx.Err()
			}
			pCtx.Degraded = true
		}

		failed := 0
		for _, r := range results {
			if !r.Success {
				failed++
			}
		}
		publish(ctx, eb, eventbus.EventExecutionCompleted, results, "StateMachine.Execution", map[string]interface{}{
			"result_count": len(results),
			"failed_count": failed,
		})

		if components.Config.EnableKnowledge && components.Retriever != nil {
			return StateRetrieval, nil
		}
		return StateSynthesis, nil
	}
}

// createRetrievalTransition fetches optional knowledge context. Retrieval is
// best effort and never fails the request.
func createRetrievalTransition(components Components) StateTransition {
	return func(ctx context.Context, eb eventbus.EventBus, pCtx *ProcessContext) (ProcessState, error) {
		publish(ctx, eb, eventbus.EventRetrievalStarted, pCtx.Request.Message, "StateMachine.Retrieval", nil)

		retrCtx, cancel := context.WithTimeout(ctx, components.Config.ToolTimeout)
		knowledge, err := components.Retriever.Retrieve(retrCtx, pCtx.Request.Message)
		cancel()

		if err != nil {
			if ctx.Err() != nil {
				return StateCancelled, ctx.Err()
			}
			publish(ctx, eb, eventbus.EventRetrievalFailure, errString(err), "StateMachine.Retrieval", nil)
		} else if knowledge != "" {
			publish(ctx, eb, eventbus.EventRetrievalSuccess, knowledge, "StateMachine.Retrieval", map[string]interface{}{
				"context_length": len(knowledge),
			})
		}
		pCtx.Knowledge = knowledge

		return StateSynthesis, nil
	}
}

// createSynthesisTransition produces the natural-language reply, falling
// back to a templated summary when the model call fails or returns nothing.
func createSynthesisTransition(components Components) StateTransition {
	return func(ctx context.Context, eb eventbus.EventBus, pCtx *ProcessContext) (ProcessState, error) {
		publish(ctx, eb, eventbus.EventSynthesisStarted, pCtx.Request.Message, "StateMachine.Synthesis", map[string]interface{}{
			"result_count":  len(pCtx.Results),
			"has_knowledge": pCtx.Knowledge != "",
		})

		synthCtx, cancel := context.WithTimeout(ctx, components.Config.LLMTimeout)
		message, err := components.Synthesizer.Synthesize(synthCtx, pCtx.Request.Message, pCtx.Plan, pCtx.Results, pCtx.Knowledge)
		cancel()

		if err != nil || strings.TrimSpace(message) == "" {
			if ctx.Err() != nil {
				return StateCancelled, ctx.Err()
			}
			message = FallbackSummary(pCtx.Request.Message, pCtx.Results)
			pCtx.Degraded = true
			publish(ctx, eb, eventbus.EventSynthesisFallback, message, "StateMachine.Synthesis", map[string]interface{}{
				"error": errString(err),
			})
		} else {
			publish(ctx, eb, eventbus.EventSynthesisSuccess, message, "StateMachine.Synthesis", map[string]interface{}{
				"answer_length": len(message),
			})
		}
		pCtx.Message = message

		return StateUIGeneration, nil
	}
}

// createUIGenerationTransition derives the component tree and assembles the
// final response. An unknown result shape degrades to text_only.
func createUIGenerationTransition(components Components) StateTransition {
	return func(ctx context.Context, eb eventbus.EventBus, pCtx *ProcessContext) (ProcessState, error) {
		publish(ctx, eb, eventbus.EventUIGenerationStarted, nil, "StateMachine.UIGeneration", map[string]interface{}{
			"result_count": len(pCtx.Results),
		})

		layout, comps, err := components.UIGenerator.Generate(pCtx.Results, pCtx.Session)
		if err != nil || layout == "" {
			layout = LayoutTextOnly
			comps = nil
			if err != nil {
				pCtx.Degraded = true
				publish(ctx, eb, eventbus.EventUIGenerationFallback, errString(err), "StateMachine.UIGeneration", nil)
			}
		}
		if comps == nil {
			comps = []UIComponent{}
		}
		pCtx.Layout = layout
		pCtx.Components = comps

		publish(ctx, eb, eventbus.EventUIGenerationSuccess, comps, "StateMachine.UIGeneration", map[string]interface{}{
			"layout":          string(layout),
			"component_count": len(comps),
		})

		pCtx.Response = &ChatResponse{
			Message:    pCtx.Message,
			Components: comps,
			Layout:     layout,
			ToolsUsed:  pCtx.Plan.ToolNames(),
			Reasoning:  pCtx.Plan.Reasoning,
			SessionID:  pCtx.Request.SessionID,
			Degraded:   pCtx.Degraded,
		}

		components.Sessions.Update(pCtx.Request.SessionID, func(s *Session) {
			s.History = append(s.History, Turn{Role: "assistant", Content: pCtx.Message, At: time.Now()})
		})

		publish(ctx, eb, eventbus.EventRequestSuccess, pCtx.Request.Message, "StateMachine.UIGeneration", map[string]interface{}{
			"degraded":    pCtx.Degraded,
			"duration_ms": pCtx.GetTotalDuration().Milliseconds(),
		})

		pCtx.Complete()
		return StateComplete, nil
	}
}

// createErrorTransition converts a stage failure into a degraded but valid
// response. Nothing in the pipeline is fatal to the request.
func createErrorTransition(_ Components) StateTransition {
	return func(ctx context.Context, eb eventbus.EventBus, pCtx *ProcessContext) (ProcessState, error) {
		publish(ctx, eb, eventbus.EventRequestFailure, errString(pCtx.LastError), "StateMachine.Error", map[string]interface{}{
			"stage": pCtx.ErrorStage,
		})

		if pCtx.Response == nil {
			message := pCtx.Message
			if strings.TrimSpace(message) == "" {
				message = FallbackSummary(pCtx.Request.Message, pCtx.Results)
			}
			pCtx.Response = &ChatResponse{
				Message:    message,
				Components: []UIComponent{},
				Layout:     LayoutTextOnly,
				ToolsUsed:  planToolNames(pCtx.Plan),
				SessionID:  pCtx.Request.SessionID,
				Degraded:   true,
			}
		} else {
			pCtx.Response.Degraded = true
		}

		pCtx.Complete()
		return StateComplete, nil
	}
}

// createCompleteTransition handles the terminal state.
func createCompleteTransition(_ Components) StateTransition {
	return func(ctx context.Context, eb eventbus.EventBus, pCtx *ProcessContext) (ProcessState, error) {
		pCtx.Complete()
		return StateComplete, nil
	}
}

func planToolNames(plan *ExecutionPlan) []string {
	if plan == nil {
		return []string{}
	}
	return plan.ToolNames()
}

func errString(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
