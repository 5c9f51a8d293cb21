package assistant

import (
	"context"
	"fmt"
	"time"

	"github.com/shophub-ai/assistant/internal/eventbus"
)

// ProcessState represents the current stage of a request passing through the
// pipeline.
type ProcessState string

const (
	// StateInit is the initial state of a request.
	StateInit ProcessState = "init"
	// StatePlanning asks the planner for an execution plan.
	StatePlanning ProcessState = "planning"
	// StateExecution runs the planned tool invocations.
	StateExecution ProcessState = "execution"
	// StateRetrieval fetches optional knowledge context.
	StateRetrieval ProcessState = "retrieval"
	// StateSynthesis produces the natural-language reply.
	StateSynthesis ProcessState = "synthesis"
	// StateUIGeneration derives the declarative component tree.
	StateUIGeneration ProcessState = "ui_generation"
	// StateError holds a stage failure before degraded recovery.
	StateError ProcessState = "error"
	// StateComplete is the terminal success state.
	StateComplete ProcessState = "complete"
	// StateCancelled is the terminal state for cancelled requests.
	StateCancelled ProcessState = "cancelled"
	// StateUnknown is reported when an async execution cannot be found.
	StateUnknown ProcessState = "unknown"
)

// ProcessContext carries one request through the state machine. It acts as
// the tape of the pushdown automaton: every stage reads what earlier stages
// wrote and appends its own output.
type ProcessContext struct {
	// Input
	Request ChatRequest

	// Intermediate results
	Session    *Session
	Catalog    []ToolDescriptor
	Plan       *ExecutionPlan
	Results    []ToolResult
	Knowledge  string
	Message    string
	Layout     LayoutStrategy
	Components []UIComponent

	// Final output
	Response *ChatResponse

	// Degraded is set when any stage recovered through a fallback path.
	Degraded bool

	// Error handling
	LastError  error
	ErrorStage string

	// State management
	CurrentState ProcessState
	StateStack   []ProcessState
	StateData    map[string]interface{}

	// Timestamp tracking
	StartTime       time.Time
	EndTime         time.Time
	StateStartTimes map[ProcessState]time.Time
}

// NewProcessContext creates a new process context for the given request.
func NewProcessContext(req ChatRequest) *ProcessContext {
	return &ProcessContext{
		Request:         req,
		CurrentState:    StateInit,
		StateStack:      []ProcessState{},
		StateData:       make(map[string]interface{}),
		StartTime:       time.Now(),
		StateStartTimes: make(map[ProcessState]time.Time),
	}
}

// PushState pushes the current state onto the stack and sets a new current state.
func (pc *ProcessContext) PushState(state ProcessState) {
	pc.StateStack = append(pc.StateStack, pc.CurrentState)
	pc.CurrentState = state
	pc.StateStartTimes[state] = time.Now()
}

// PopState pops the top state from the stack and makes it current.
// Returns false if the stack is empty.
func (pc *ProcessContext) PopState() bool {
	if len(pc.StateStack) == 0 {
		return false
	}
	lastIdx := len(pc.StateStack) - 1
	pc.CurrentState = pc.StateStack[lastIdx]
	pc.StateStack = pc.StateStack[:lastIdx]
	pc.StateStartTimes[pc.CurrentState] = time.Now()
	return true
}

// IsTerminal reports whether the current state ends the request.
func (pc *ProcessContext) IsTerminal() bool {
	return pc.CurrentState == StateComplete || pc.CurrentState == StateCancelled
}

// SetError records a stage failure and transitions to StateError. The error
// transition turns it into a degraded response; it does not end the request.
func (pc *ProcessContext) SetError(err error, stage string) {
	pc.LastError = err
	pc.ErrorStage = stage
	pc.CurrentState = StateError
	pc.StateStartTimes[StateError] = time.Now()
}

// SetCancelled moves the request to the terminal Cancelled state.
func (pc *ProcessContext) SetCancelled(err error, stage string) {
	pc.LastError = err
	pc.ErrorStage = stage
	pc.CurrentState = StateCancelled
	pc.StateStartTimes[StateCancelled] = time.Now()
}

// Complete marks the request as complete and sets the end time.
func (pc *ProcessContext) Complete() {
	pc.CurrentState = StateComplete
	pc.EndTime = time.Now()
	pc.StateStartTimes[StateComplete] = pc.EndTime
}

// GetStateDuration returns the time spent so far in the given state.
func (pc *ProcessContext) GetStateDuration(state ProcessState) time.Duration {
	startTime, ok := pc.StateStartTimes[state]
	if !ok {
		return 0
	}
	if state == pc.CurrentState {
		return time.Since(startTime)
	}
	return 0
}

// GetTotalDuration returns the total duration of the request so far.
func (pc *ProcessContext) GetTotalDuration() time.Duration {
	if pc.CurrentState == StateComplete {
		return pc.EndTime.Sub(pc.StartTime)
	}
	return time.Since(pc.StartTime)
}

// StateTransition advances the context by one state and returns the next one.
type StateTransition func(ctx context.Context, eventBus eventbus.EventBus, pCtx *ProcessContext) (ProcessState, error)

// StateMachine drives a request through the pipeline stages.
type StateMachine struct {
	transitions map[ProcessState]StateTransition
	eventBus    eventbus.EventBus
}

// NewStateMachine creates an empty state machine.
func NewStateMachine(eventBus eventbus.EventBus) *StateMachine {
	return &StateMachine{
		transitions: make(map[ProcessState]StateTransition),
		eventBus:    eventBus,
	}
}

// RegisterTransition registers a transition function for a state.
func (sm *StateMachine) RegisterTransition(state ProcessState, transition StateTransition) {
	sm.transitions[state] = transition
}

// Execute runs the state machine until a terminal state. The returned error
// is non-nil only when the request's context was cancelled or timed out;
// every in-pipeline failure is absorbed into a degraded response.
func (sm *StateMachine) Execute(ctx context.Context, pCtx *ProcessContext) (*ChatResponse, error) {
	for !pCtx.IsTerminal() {
		select {
		case <-ctx.Done():
			err := ctx.Err()
			pCtx.SetCancelled(err, string(pCtx.CurrentState))
			return nil, err
		default:
		}

		transition, exists := sm.transitions[pCtx.CurrentState]
		if !exists {
			err := fmt.Errorf("no transition defined for state: %s", pCtx.CurrentState)
			if pCtx.CurrentState == StateError {
				// No error transition registered; end the request rather
				// than loop between error states.
				pCtx.LastError = err
				pCtx.Complete()
				continue
			}
			pCtx.SetError(err, string(pCtx.CurrentState))
			continue
		}

		nextState, err := transition(ctx, sm.eventBus, pCtx)
		if err != nil {
			currentStage := string(pCtx.CurrentState)
			if err == context.Canceled || err == context.DeadlineExceeded {
				pCtx.SetCancelled(err, currentStage)
			} else if !pCtx.IsTerminal() {
				pCtx.SetError(err, currentStage)
			}
			continue
		}

		if !pCtx.IsTerminal() {
			pCtx.CurrentState = nextState
			pCtx.StateStartTimes[nextState] = time.Now()
		}
	}

	if pCtx.CurrentState == StateCancelled {
		return nil, pCtx.LastError
	}
	return pCtx.Response, nil
}
