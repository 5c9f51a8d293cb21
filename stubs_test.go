package assistant

import (
	"context"
	"sync"
	"time"
)

// plannerFunc adapts a function to the Planner interface.
type plannerFunc func(ctx context.Context, input PlannerInput) (*ExecutionPlan, error)

func (f plannerFunc) GeneratePlan(ctx context.Context, input PlannerInput) (*ExecutionPlan, error) {
	return f(ctx, input)
}

// executorFunc adapts a function to the Executor interface.
type executorFunc func(ctx context.Context, plan *ExecutionPlan) ([]ToolResult, error)

func (f executorFunc) ExecutePlan(ctx context.Context, plan *ExecutionPlan) ([]ToolResult, error) {
	return f(ctx, plan)
}

// synthesizerFunc adapts a function to the Synthesizer interface.
type synthesizerFunc func(ctx context.Context, query string, plan *ExecutionPlan, results []ToolResult, knowledge string) (string, error)

func (f synthesizerFunc) Synthesize(ctx context.Context, query string, plan *ExecutionPlan, results []ToolResult, knowledge string) (string, error) {
	return f(ctx, query, plan, results, knowledge)
}

// uiGeneratorFunc adapts a function to the UIGenerator interface.
type uiGeneratorFunc func(results []ToolResult, session *Session) (LayoutStrategy, []UIComponent, error)

func (f uiGeneratorFunc) Generate(results []ToolResult, session *Session) (LayoutStrategy, []UIComponent, error) {
	return f(results, session)
}

// retrieverFunc adapts a function to the KnowledgeRetriever interface.
type retrieverFunc func(ctx context.Context, query string) (string, error)

func (f retrieverFunc) Retrieve(ctx context.Context, query string) (string, error) {
	return f(ctx, query)
}

// stubTool is a minimal Tool for registry checks.
type stubTool struct {
	name string
}

func (t *stubTool) Name() string { return t.name }

func (t *stubTool) Descriptor() ToolDescriptor {
	return ToolDescriptor{Name: t.name, Description: "stub"}
}

func (t *stubTool) Validate(map[string]interface{}) error { return nil }

func (t *stubTool) Execute(_ context.Context, input map[string]interface{}) (map[string]interface{}, error) {
	return input, nil
}

// memSessions is a coarse in-test SessionStore.
type memSessions struct {
	mu       sync.Mutex
	sessions map[string]*Session
}

func newMemSessions() *memSessions {
	return &memSessions{sessions: map[string]*Session{}}
}

func (s *memSessions) Get(sessionID string) (*Session, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	session, ok := s.sessions[sessionID]
	return session, ok
}

func (s *memSessions) Put(session *Session) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[session.ID] = session
}

func (s *memSessions) Remove(sessionID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, sessionID)
}

func (s *memSessions) Update(sessionID string, fn func(*Session)) *Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	session, ok := s.sessions[sessionID]
	if !ok {
		session = &Session{ID: sessionID, CreatedAt: time.Now()}
		s.sessions[sessionID] = session
	}
	if fn != nil {
		fn(session)
	}
	session.UpdatedAt = time.Now()
	return session
}

// pipelineStubs bundles one working set of components that a test can
// selectively break.
type pipelineStubs struct {
	planner     plannerFunc
	executor    executorFunc
	synthesizer synthesizerFunc
	uiGenerator uiGeneratorFunc
	retriever   retrieverFunc
	sessions    *memSessions
}

func happyStubs() *pipelineStubs {
	return &pipelineStubs{
		planner: func(_ context.Context, input PlannerInput) (*ExecutionPlan, error) {
			return &ExecutionPlan{
				Strategy: "catalog_search",
				Steps: []PlanStep{{
					ID:   "s1",
					Tool: "search_products",
					Args: map[string]interface{}{"query": input.Query},
				}},
				Reasoning: "search the catalog",
			}, nil
		},
		executor: func(_ context.Context, plan *ExecutionPlan) ([]ToolResult, error) {
			results := make([]ToolResult, 0, len(plan.Steps))
			for _, step := range plan.Steps {
				results = append(results, ToolResult{
					StepID:  step.ID,
					Tool:    step.Tool,
					Success: true,
					Data:    map[string]interface{}{"count": 0},
				})
			}
			return results, nil
		},
		synthesizer: func(_ context.Context, _ string, _ *ExecutionPlan, _ []ToolResult, _ string) (string, error) {
			return "Here is what I found.", nil
		},
		uiGenerator: func(_ []ToolResult, _ *Session) (LayoutStrategy, []UIComponent, error) {
			return LayoutTextOnly, []UIComponent{}, nil
		},
		sessions: newMemSessions(),
	}
}

func (s *pipelineStubs) build(extra ...Option) (*Assistant, error) {
	options := []Option{
		WithPlanner(s.planner),
		WithExecutor(s.executor),
		WithSynthesizer(s.synthesizer),
		WithUIGenerator(s.uiGenerator),
		WithSessionStore(s.sessions),
		WithTools(map[string]Tool{"search_products": &stubTool{name: "search_products"}}),
	}
	if s.retriever != nil {
		options = append(options, WithKnowledgeRetriever(s.retriever))
	}
	return New(append(options, extra...)...)
}
