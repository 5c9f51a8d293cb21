// Package assistant provides the orchestration runtime for the ShopHub
// AI shopping assistant: an LLM-planned, tool-executing, UI-spec-emitting
// request pipeline over the ShopHub commerce API.
package assistant

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shophub-ai/assistant/internal/eventbus"
)

// Assistant is the main entry point into the orchestration runtime. It
// encapsulates the components required to turn a chat message into a reply
// plus a declarative UI specification.
type Assistant struct {
	// Core components
	planner     Planner
	executor    Executor
	synthesizer Synthesizer
	uiGenerator UIGenerator
	retriever   KnowledgeRetriever
	sessions    SessionStore
	eventBus    eventbus.EventBus

	// Available tools
	tools map[string]Tool

	// Configuration
	config Config

	// Async processing
	asyncExecutions      map[string]*ProcessContext
	asyncExecutionsMutex sync.RWMutex
}

// Config holds the configuration options for the Assistant runtime.
type Config struct {
	// Deadline for each LLM round-trip (planning, synthesis).
	LLMTimeout time.Duration

	// Deadline for each tool call and for knowledge retrieval.
	ToolTimeout time.Duration

	// Tool substituted when planning fails.
	FallbackTool string

	// Enable/disable the knowledge retrieval stage.
	EnableKnowledge bool

	// Event bus configuration
	EnableEventBus      bool
	EventBusBufferSize  int
	EventBusWorkerCount int

	// Maximum conversation turns kept per session.
	MaxHistoryTurns int
}

// DefaultConfig returns a configuration with sensible defaults.
func DefaultConfig() Config {
	return Config{
		LLMTimeout:          30 * time.Second,
		ToolTimeout:         10 * time.Second,
		FallbackTool:        "search_products",
		EnableKnowledge:     true,
		EnableEventBus:      true,
		EventBusBufferSize:  100,
		EventBusWorkerCount: 5,
		MaxHistoryTurns:     20,
	}
}

// Option is a function that configures an Assistant instance.
type Option func(*Assistant)

// WithConfig sets the runtime configuration.
func WithConfig(config Config) Option {
	return func(a *Assistant) {
		a.config = config
	}
}

// WithPlanner sets the planner component.
func WithPlanner(planner Planner) Option {
	return func(a *Assistant) {
		a.planner = planner
	}
}

// WithExecutor sets the executor component.
func WithExecutor(executor Executor) Option {
	return func(a *Assistant) {
		a.executor = executor
	}
}

// WithSynthesizer sets the synthesizer component.
func WithSynthesizer(synthesizer Synthesizer) Option {
	return func(a *Assistant) {
		a.synthesizer = synthesizer
	}
}

// WithUIGenerator sets the UI specification generator.
func WithUIGenerator(generator UIGenerator) Option {
	return func(a *Assistant) {
		a.uiGenerator = generator
	}
}

// WithKnowledgeRetriever sets the optional knowledge retriever.
func WithKnowledgeRetriever(retriever KnowledgeRetriever) Option {
	return func(a *Assistant) {
		a.retriever = retriever
	}
}

// WithSessionStore sets the session store.
func WithSessionStore(store SessionStore) Option {
	return func(a *Assistant) {
		a.sessions = store
	}
}

// WithTools adds tools to the runtime.
func WithTools(tools map[string]Tool) Option {
	return func(a *Assistant) {
		if a.tools == nil {
			a.tools = make(map[string]Tool)
		}
		for name, tool := range tools {
			a.tools[name] = tool
		}
	}
}

// New creates a new Assistant with the provided options.
func New(options ...Option) (*Assistant, error) {
	a := &Assistant{
		config:          DefaultConfig(),
		tools:           make(map[string]Tool),
		asyncExecutions: make(map[string]*ProcessContext),
	}

	for _, option := range options {
		option(a)
	}

	if a.planner == nil {
		return nil, NewConfigurationError("planner is required", nil)
	}
	if a.executor == nil {
		return nil, NewConfigurationError("executor is required", nil)
	}
	if a.synthesizer == nil {
		return nil, NewConfigurationError("synthesizer is required", nil)
	}
	if a.uiGenerator == nil {
		return nil, NewConfigurationError("ui generator is required", nil)
	}
	if a.sessions == nil {
		return nil, NewConfigurationError("session store is required", nil)
	}
	if len(a.tools) == 0 {
		return nil, NewConfigurationError("at least one tool is required", nil)
	}
	if _, ok := a.tools[a.config.FallbackTool]; a.config.FallbackTool != "" && !ok {
		return nil, NewConfigurationError("fallback tool is not registered", nil)
	}

	if a.config.EnableEventBus && a.eventBus == nil {
		a.eventBus = eventbus.NewChannelEventBus(
			eventbus.WithBufferSize(a.config.EventBusBufferSize),
			eventbus.WithWorkerCount(a.config.EventBusWorkerCount),
		)
	}

	return a, nil
}

// RegisterTool adds a new tool to the runtime.
func (a *Assistant) RegisterTool(name string, tool Tool) error {
	if _, exists := a.tools[name]; exists {
		return NewConfigurationError("tool '"+name+"' already exists", nil)
	}
	a.tools[name] = tool
	return nil
}

// Catalog returns the descriptors of all registered tools, sorted by name.
func (a *Assistant) Catalog() []ToolDescriptor {
	return SortedCatalog(a.tools)
}

// GetToolByName returns a tool by its name.
func (a *Assistant) GetToolByName(name string) (Tool, error) {
	if tool, exists := a.tools[name]; exists {
		return tool, nil
	}
	return nil, NewToolNotFoundError("registry", name)
}

// ListTools returns the names of all registered tools.
func (a *Assistant) ListTools() []string {
	names := make([]string, 0, len(a.tools))
	for name := range a.tools {
		names = append(names, name)
	}
	return names
}

// EventBus returns the runtime's event bus, or nil when disabled.
func (a *Assistant) EventBus() eventbus.EventBus {
	return a.eventBus
}

// Process handles one chat request end to end through the pipeline state
// machine. The returned error is non-nil only for context cancellation;
// every stage failure degrades into a valid response instead.
func (a *Assistant) Process(ctx context.Context, req ChatRequest) (*ChatResponse, error) {
	stateMachine := a.createStateMachine()
	processContext := NewProcessContext(req)
	return stateMachine.Execute(ctx, processContext)
}

// createStateMachine builds a state machine with all transitions for the
// request pipeline.
func (a *Assistant) createStateMachine() *StateMachine {
	var eb eventbus.EventBus
	if a.config.EnableEventBus {
		eb = a.eventBus
	}

	components := Components{
		Planner:     a.planner,
		Executor:    a.executor,
		Synthesizer: a.synthesizer,
		UIGenerator: a.uiGenerator,
		Retriever:   a.retriever,
		Sessions:    a.sessions,
		Tools:       a.tools,
		Config:      a.config,
		Catalog:     a.Catalog,
	}

	return CreateProcessStateMachine(components, eb)
}

// ProcessAsync starts an asynchronous request execution and returns a unique
// execution id that can be used to poll status or fetch the result.
func (a *Assistant) ProcessAsync(ctx context.Context, req ChatRequest) (string, error) {
	executionID := uuid.New().String()

	stateMachine := a.createStateMachine()
	processContext := NewProcessContext(req)

	a.asyncExecutionsMutex.Lock()
	a.asyncExecutions[executionID] = processContext
	a.asyncExecutionsMutex.Unlock()

	asyncCtx, cancel := context.WithCancel(context.Background())
	processContext.StateData["cancel"] = cancel

	if a.config.EnableEventBus && a.eventBus != nil {
		a.eventBus.Publish(ctx, eventbus.NewEvent(
			eventbus.EventAsyncStarted,
			req.Message,
			"Assistant.ProcessAsync",
			map[string]interface{}{"execution_id": executionID},
		))
	}

	go func() {
		defer cancel()

		response, err := stateMachine.Execute(asyncCtx, processContext)

		a.asyncExecutionsMutex.Lock()
		if pCtx, exists := a.asyncExecutions[executionID]; exists {
			pCtx.Response = response
			if err != nil && !pCtx.IsTerminal() {
				pCtx.SetCancelled(err, string(pCtx.CurrentState))
			}
		}
		a.asyncExecutionsMutex.Unlock()

		if a.config.EnableEventBus && a.eventBus != nil {
			eventType := eventbus.EventAsyncSuccess
			metadata := map[string]interface{}{
				"execution_id": executionID,
				"duration_ms":  processContext.GetTotalDuration().Milliseconds(),
			}
			if err != nil {
				eventType = eventbus.EventAsyncFailure
				metadata["error"] = err.Error()
				metadata["error_stage"] = processContext.ErrorStage
			}
			// Background context: the request context may already be done.
			a.eventBus.Publish(context.Background(), eventbus.NewEvent(eventType, req.Message, "Assistant.ProcessAsync", metadata))
		}
	}()

	return executionID, nil
}
