// Package tools provides the fixed tool catalog the planner can invoke,
// each tool wrapping one or more calls to the ShopHub API.
package tools

import (
	"context"
	"fmt"

	"github.com/shophub-ai/assistant"
)

// ToolFunc is the signature of a tool implementation.
type ToolFunc func(ctx context.Context, input map[string]interface{}) (map[string]interface{}, error)

// FuncTool adapts a Go function to the assistant.Tool interface.
type FuncTool struct {
	name       string
	toolFunc   ToolFunc
	descriptor assistant.ToolDescriptor
	validator  func(map[string]interface{}) error
}

// ToolOption configures a FuncTool.
type ToolOption func(*FuncTool)

// WithDescription sets the tool's description.
func WithDescription(description string) ToolOption {
	return func(t *FuncTool) {
		t.descriptor.Description = description
	}
}

// WithCategory sets the tool's category.
func WithCategory(category string) ToolOption {
	return func(t *FuncTool) {
		t.descriptor.Category = category
	}
}

// WithParameters sets the parameter descriptions.
func WithParameters(parameters map[string]string) ToolOption {
	return func(t *FuncTool) {
		t.descriptor.Parameters = parameters
	}
}

// WithReturns sets the return value description.
func WithReturns(returns string) ToolOption {
	return func(t *FuncTool) {
		t.descriptor.Returns = returns
	}
}

// WithExamples adds usage examples.
func WithExamples(examples []string) ToolOption {
	return func(t *FuncTool) {
		t.descriptor.Examples = examples
	}
}

// WithValidator sets a custom input validator.
func WithValidator(validator func(map[string]interface{}) error) ToolOption {
	return func(t *FuncTool) {
		t.validator = validator
	}
}

// NewFuncTool creates a tool from a Go function.
func NewFuncTool(name string, toolFunc ToolFunc, options ...ToolOption) *FuncTool {
	t := &FuncTool{
		name:       name,
		toolFunc:   toolFunc,
		descriptor: assistant.ToolDescriptor{Name: name},
		validator: func(input map[string]interface{}) error {
			if input == nil {
				return fmt.Errorf("input cannot be nil")
			}
			return nil
		},
	}
	for _, option := range options {
		option(t)
	}
	return t
}

// Execute implements assistant.Tool.
func (t *FuncTool) Execute(ctx context.Context, input map[string]interface{}) (map[string]interface{}, error) {
	if t.toolFunc == nil {
		return nil, fmt.Errorf("tool function is nil")
	}
	if err := t.Validate(input); err != nil {
		return nil, fmt.Errorf("input validation failed for %s: %w", t.name, err)
	}
	return t.toolFunc(ctx, input)
}

// Descriptor implements assistant.Tool.
func (t *FuncTool) Descriptor() assistant.ToolDescriptor {
	return t.descriptor
}

// Validate implements assistant.Tool.
func (t *FuncTool) Validate(input map[string]interface{}) error {
	if t.validator != nil {
		return t.validator(input)
	}
	return nil
}

// Name implements assistant.Tool.
func (t *FuncTool) Name() string {
	return t.name
}
