package assistant

import (
	"context"
	"fmt"
	"time"

	"github.com/shophub-ai/assistant/internal/eventbus"
)

// AsyncExecutionStatus reports the progress of an async request execution.
type AsyncExecutionStatus struct {
	ExecutionID  string        `json:"execution_id"`
	Message      string        `json:"message"`
	CurrentState ProcessState  `json:"current_state"`
	StartTime    time.Time     `json:"start_time"`
	Duration     time.Duration `json:"duration"`
	IsComplete   bool          `json:"is_complete"`
	IsCancelled  bool          `json:"is_cancelled"`
	ErrorMessage string        `json:"error_message,omitempty"`
	ErrorStage   string        `json:"error_stage,omitempty"`
}

// AsyncStatus retrieves the current status of an async execution.
func (a *Assistant) AsyncStatus(executionID string) (*AsyncExecutionStatus, error) {
	a.asyncExecutionsMutex.RLock()
	defer a.asyncExecutionsMutex.RUnlock()

	pCtx, exists := a.asyncExecutions[executionID]
	if !exists {
		return nil, fmt.Errorf("execution with id '%s' not found", executionID)
	}

	status := &AsyncExecutionStatus{
		ExecutionID:  executionID,
		Message:      pCtx.Request.Message,
		CurrentState: pCtx.CurrentState,
		StartTime:    pCtx.StartTime,
		Duration:     pCtx.GetTotalDuration(),
		IsComplete:   pCtx.CurrentState == StateComplete,
		IsCancelled:  pCtx.CurrentState == StateCancelled,
	}

	if pCtx.LastError != nil {
		status.ErrorMessage = pCtx.LastError.Error()
		status.ErrorStage = pCtx.ErrorStage
	}

	return status, nil
}

// AsyncResult retrieves the response of a completed async execution. It
// returns an error while the execution is still in progress or if it was
// cancelled.
func (a *Assistant) AsyncResult(executionID string) (*ChatResponse, error) {
	a.asyncExecutionsMutex.RLock()
	defer a.asyncExecutionsMutex.RUnlock()

	pCtx, exists := a.asyncExecutions[executionID]
	if !exists {
		return nil, fmt.Errorf("execution with id '%s' not found", executionID)
	}

	if pCtx.CurrentState == StateCancelled {
		return nil, fmt.Errorf("execution was cancelled during stage '%s': %w", pCtx.ErrorStage, pCtx.LastError)
	}
	if pCtx.CurrentState != StateComplete || pCtx.Response == nil {
		return nil, fmt.Errorf("execution is still in progress (current state: %s)", pCtx.CurrentState)
	}

	return pCtx.Response, nil
}

// CancelAsync cancels an ongoing async execution. Returns true if the
// execution was cancelled, false if it had already finished.
func (a *Assistant) CancelAsync(executionID string) (bool, error) {
	a.asyncExecutionsMutex.Lock()
	defer a.asyncExecutionsMutex.Unlock()

	pCtx, exists := a.asyncExecutions[executionID]
	if !exists {
		return false, fmt.Errorf("execution with id '%s' not found", executionID)
	}

	if pCtx.IsTerminal() {
		return false, nil
	}

	cancelFn, ok := pCtx.StateData["cancel"].(context.CancelFunc)
	if !ok {
		return false, fmt.Errorf("cannot cancel execution: cancel function not found")
	}
	cancelFn()
	pCtx.SetCancelled(fmt.Errorf("execution cancelled by caller"), string(pCtx.CurrentState))

	if a.config.EnableEventBus && a.eventBus != nil {
		a.eventBus.Publish(context.Background(), eventbus.NewEvent(
			eventbus.EventAsyncCancelled,
			pCtx.Request.Message,
			"Assistant.CancelAsync",
			map[string]interface{}{
				"execution_id": executionID,
				"duration_ms":  pCtx.GetTotalDuration().Milliseconds(),
			},
		))
	}

	return true, nil
}

// ListAsyncExecutions returns all async execution ids with their current
// states.
func (a *Assistant) ListAsyncExecutions() map[string]string {
	a.asyncExecutionsMutex.RLock()
	defer a.asyncExecutionsMutex.RUnlock()

	result := make(map[string]string, len(a.asyncExecutions))
	for id, pCtx := range a.asyncExecutions {
		result[id] = string(pCtx.CurrentState)
	}
	return result
}

// CleanupCompletedExecutions removes finished executions older than the
// given duration so the async map does not grow without bound.
func (a *Assistant) CleanupCompletedExecutions(olderThan time.Duration) int {
	a.asyncExecutionsMutex.Lock()
	defer a.asyncExecutionsMutex.Unlock()

	now := time.Now()
	count := 0
	for id, pCtx := range a.asyncExecutions {
		if pCtx.IsTerminal() && now.Sub(pCtx.StateStartTimes[pCtx.CurrentState]) > olderThan {
			delete(a.asyncExecutions, id)
			count++
		}
	}
	return count
}
