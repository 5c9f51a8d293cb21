package assistant

import "fmt"

// Error codes for specific failure types
const (
	ErrCodeValidation    = "VALIDATION_ERROR"
	ErrCodeToolNotFound  = "TOOL_NOT_FOUND"
	ErrCodeToolExecution = "TOOL_EXECUTION_ERROR"
	ErrCodeArgResolution = "ARGUMENT_RESOLUTION_ERROR"
	ErrCodePlanning      = "PLAN_GENERATION_ERROR"
	ErrCodeExecution     = "PLAN_EXECUTION_ERROR"
	ErrCodeSynthesis     = "SYNTHESIS_ERROR"
	ErrCodeRetrieval     = "RETRIEVAL_ERROR"
	ErrCodeUIGeneration  = "UI_GENERATION_ERROR"
	ErrCodeConfiguration = "CONFIGURATION_ERROR"
	ErrCodeCancelled     = "EXECUTION_CANCELLED"
	ErrCodeTimeout       = "EXECUTION_TIMEOUT"
	ErrCodeSession       = "SESSION_ERROR"
	ErrCodeInternal      = "INTERNAL_ERROR"
)

// AssistantError is the coded error type used throughout the runtime.
type AssistantError struct {
	Code    string // machine-readable code (e.g. ErrCodeToolNotFound)
	Message string // human-readable message
	Stage   string // pipeline stage where the error occurred
	Cause   error  // underlying error, if any
}

// Error implements the error interface.
func (e *AssistantError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s:%s] %s: %v", e.Stage, e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s:%s] %s", e.Stage, e.Code, e.Message)
}

// Unwrap returns the underlying cause, allowing error chaining.
func (e *AssistantError) Unwrap() error {
	return e.Cause
}

// NewError creates a new AssistantError.
func NewError(code, stage, message string, cause error) *AssistantError {
	return &AssistantError{
		Code:    code,
		Stage:   stage,
		Message: message,
		Cause:   cause,
	}
}

// IsAssistantError reports whether err is an *AssistantError.
func IsAssistantError(err error) bool {
	_, ok := err.(*AssistantError)
	return ok
}

// Specific error constructors

func NewValidationError(stage, message string, cause error) *AssistantError {
	return NewError(ErrCodeValidation, stage, message, cause)
}

func NewToolNotFoundError(stage, toolName string) *AssistantError {
	return NewError(ErrCodeToolNotFound, stage, fmt.Sprintf("tool '%s' not found", toolName), nil)
}

func NewToolExecutionError(stage, toolName string, cause error) *AssistantError {
	return NewError(ErrCodeToolExecution, stage, fmt.Sprintf("execution failed for tool '%s'", toolName), cause)
}

func NewArgResolutionError(stage, stepID, argName string, cause error) *AssistantError {
	msg := fmt.Sprintf("failed to resolve argument '%s' for step '%s'", argName, stepID)
	return NewError(ErrCodeArgResolution, stage, msg, cause)
}

func NewPlanningError(message string, cause error) *AssistantError {
	return NewError(ErrCodePlanning, "planning", message, cause)
}

func NewExecutionError(message string, cause error) *AssistantError {
	return NewError(ErrCodeExecution, "execution", message, cause)
}

func NewSynthesisError(cause error) *AssistantError {
	return NewError(ErrCodeSynthesis, "synthesis", "failed to synthesize reply", cause)
}

func NewRetrievalError(cause error) *AssistantError {
	return NewError(ErrCodeRetrieval, "retrieval", "failed to retrieve knowledge context", cause)
}

func NewUIGenerationError(message string, cause error) *AssistantError {
	return NewError(ErrCodeUIGeneration, "ui_generation", message, cause)
}

func NewConfigurationError(message string, cause error) *AssistantError {
	return NewError(ErrCodeConfiguration, "initialization", message, cause)
}

func NewCancelledError(stage string, cause error) *AssistantError {
	msg := "execution cancelled"
	if cause != nil && cause.Error() != "" && cause.Error() != "context canceled" {
		msg = fmt.Sprintf("execution cancelled: %v", cause)
	}
	return NewError(ErrCodeCancelled, stage, msg, cause)
}

func NewTimeoutError(stage string, cause error) *AssistantError {
	return NewError(ErrCodeTimeout, stage, "execution timed out", cause)
}

func NewSessionError(message string, cause error) *AssistantError {
	return NewError(ErrCodeSession, "session", message, cause)
}

func NewInternalError(stage, message string, cause error) *AssistantError {
	return NewError(ErrCodeInternal, stage, message, cause)
}
