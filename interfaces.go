package assistant

import "context"

// Planner generates an execution plan from a natural-language request.
// Unusable model output (unparsable JSON, unknown tools, empty plans) is
// returned as an error; the pipeline substitutes the single-tool fallback
// plan rather than failing the request.
type Planner interface {
	GeneratePlan(ctx context.Context, input PlannerInput) (*ExecutionPlan, error)
}

// Executor runs a plan's steps in order and returns exactly one ToolResult
// per step, preserving plan order. A failing step never halts the plan; the
// only error an Executor returns is context cancellation.
type Executor interface {
	ExecutePlan(ctx context.Context, plan *ExecutionPlan) ([]ToolResult, error)
}

// Synthesizer turns the request, the plan and the tool results into a
// natural-language reply. Knowledge holds optional retrieved context and may
// be empty.
type Synthesizer interface {
	Synthesize(ctx context.Context, query string, plan *ExecutionPlan, results []ToolResult, knowledge string) (string, error)
}

// UIGenerator derives a declarative component tree and a layout strategy
// from tool results. It is a local, non-LLM step.
type UIGenerator interface {
	Generate(results []ToolResult, session *Session) (LayoutStrategy, []UIComponent, error)
}

// KnowledgeRetriever fetches store policy or FAQ context relevant to the
// query for use during synthesis. Retrieval is best effort.
type KnowledgeRetriever interface {
	Retrieve(ctx context.Context, query string) (string, error)
}

// Tool is a named, parameterized operation wrapping calls to the external
// shop API.
type Tool interface {
	// Execute performs the tool's action with resolved arguments.
	Execute(ctx context.Context, input map[string]interface{}) (map[string]interface{}, error)

	// Descriptor describes the tool for planner prompts.
	Descriptor() ToolDescriptor

	// Validate checks the input before execution. Returns nil if valid.
	Validate(input map[string]interface{}) error

	// Name returns the tool's name.
	Name() string
}

// SessionStore holds per-conversation state keyed by session id. Update runs
// fn under a per-session lock, creating the session if it does not exist;
// this is the only way to mutate a session.
type SessionStore interface {
	Get(sessionID string) (*Session, bool)
	Put(session *Session)
	Remove(sessionID string)
	Update(sessionID string, fn func(*Session)) *Session
}

// PlanCache stores generated plans keyed by a hash of the request and the
// tool catalog.
type PlanCache interface {
	Get(ctx context.Context, key string) (*ExecutionPlan, bool)
	Set(ctx context.Context, key string, plan *ExecutionPlan)
}
