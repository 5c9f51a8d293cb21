package assistant

import (
	"sort"
	"time"
)

// LayoutStrategy is a coarse label describing how the UI generator composed
// the response: one entity, a homogeneous set, a multi-stage flow, or nothing
// renderable at all.
type LayoutStrategy string

const (
	LayoutSingleItem  LayoutStrategy = "single_item"
	LayoutComposition LayoutStrategy = "composition"
	LayoutWorkflow    LayoutStrategy = "workflow"
	LayoutTextOnly    LayoutStrategy = "text_only"
)

// ToolDescriptor describes a registered tool to the planner. Descriptors are
// immutable once the runtime is constructed and are serialized into the
// planning prompt.
type ToolDescriptor struct {
	Name        string            `json:"name"`
	Description string            `json:"description"`
	Parameters  map[string]string `json:"parameters,omitempty"`
	Returns     string            `json:"returns,omitempty"`
	Examples    []string          `json:"examples,omitempty"`
	Category    string            `json:"category,omitempty"`
}

// PlanStep is a single tool invocation inside an execution plan. Args may
// contain literal values or $stepID.field references to the output of an
// earlier step.
type PlanStep struct {
	ID        string                 `json:"id"`
	Tool      string                 `json:"tool"`
	Args      map[string]interface{} `json:"args"`
	Reasoning string                 `json:"reasoning,omitempty"`
}

// ExecutionPlan is an ordered list of tool invocations produced by the
// planner from natural language.
type ExecutionPlan struct {
	Strategy  string     `json:"strategy"`
	Steps     []PlanStep `json:"steps"`
	Reasoning string     `json:"reasoning,omitempty"`

	// Fallback is set when the planner degraded to the single-tool fallback
	// plan instead of a model-generated one.
	Fallback bool `json:"-"`
}

// ToolResult is the normalized envelope for one executed plan step. A failed
// step records a human-readable error and never aborts the rest of the plan.
type ToolResult struct {
	StepID   string                 `json:"step_id"`
	Tool     string                 `json:"tool"`
	Success  bool                   `json:"success"`
	Data     map[string]interface{} `json:"data,omitempty"`
	Error    string                 `json:"error,omitempty"`
	Duration time.Duration          `json:"-"`
}

// UIAction is a declared, data-only action on a component. The renderer wires
// it to its own event dispatch; the core never executes actions.
type UIAction struct {
	Label  string                 `json:"label"`
	Action string                 `json:"action"`
	Data   map[string]interface{} `json:"data,omitempty"`
}

// UIComponent is one node of the declarative UI tree handed to the generic
// renderer: a component type name, plain-value props, ordered children and
// declared actions. Trees are single-parent and acyclic by construction.
type UIComponent struct {
	Type     string                 `json:"type"`
	Props    map[string]interface{} `json:"props,omitempty"`
	Children []UIComponent          `json:"children,omitempty"`
	Actions  []UIAction             `json:"actions,omitempty"`
}

// ChatRequest is the single inbound shape: the user's message plus optional
// session and customer identity.
type ChatRequest struct {
	Message    string `json:"message"`
	SessionID  string `json:"session_id,omitempty"`
	CustomerID string `json:"customer_id,omitempty"`
}

// ChatResponse is the combined payload returned to the caller after a full
// pipeline pass.
type ChatResponse struct {
	Message    string         `json:"message"`
	Components []UIComponent  `json:"components"`
	Layout     LayoutStrategy `json:"layout"`
	ToolsUsed  []string       `json:"tools_used"`
	Reasoning  string         `json:"reasoning,omitempty"`
	SessionID  string         `json:"session_id,omitempty"`

	// Degraded is set when any stage recovered through its fallback path.
	Degraded bool `json:"degraded,omitempty"`
}

// Turn is one message in a session's conversation history.
type Turn struct {
	Role    string    `json:"role"` // "user" or "assistant"
	Content string    `json:"content"`
	At      time.Time `json:"at"`
}

// Session is the per-conversation context: identity plus bounded history.
// Sessions live in process memory only and are lost on restart.
type Session struct {
	ID         string    `json:"id"`
	CustomerID string    `json:"customer_id,omitempty"`
	History    []Turn    `json:"history,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// PlannerInput carries everything the planner needs to produce a plan.
type PlannerInput struct {
	Query   string           `json:"query"`
	Catalog []ToolDescriptor `json:"catalog"`
	Session *Session         `json:"session,omitempty"`
}

// SortedCatalog returns the descriptors sorted by tool name so prompts and
// cache keys are stable across runs.
func SortedCatalog(tools map[string]Tool) []ToolDescriptor {
	catalog := make([]ToolDescriptor, 0, len(tools))
	for _, tool := range tools {
		catalog = append(catalog, tool.Descriptor())
	}
	sort.Slice(catalog, func(i, j int) bool { return catalog[i].Name < catalog[j].Name })
	return catalog
}

// ToolNames returns the distinct tool names of a plan in step order.
func (p *ExecutionPlan) ToolNames() []string {
	seen := make(map[string]struct{}, len(p.Steps))
	names := make([]string, 0, len(p.Steps))
	for _, step := range p.Steps {
		if _, ok := seen[step.Tool]; ok {
			continue
		}
		seen[step.Tool] = struct{}{}
		names = append(names, step.Tool)
	}
	return names
}
