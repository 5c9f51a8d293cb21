// Package llm abstracts the language model as a text-in, text-out function
// so the planner and synthesizer stay swappable between hosted models and
// deterministic test doubles.
package llm

import (
	"context"
	"fmt"
	"sync"
)

// Generator is the minimal model contract the pipeline depends on.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// GeneratorFunc adapts a plain function to the Generator interface.
type GeneratorFunc func(ctx context.Context, prompt string) (string, error)

// Generate implements Generator.
func (f GeneratorFunc) Generate(ctx context.Context, prompt string) (string, error) {
	return f(ctx, prompt)
}

// ScriptedGenerator replays a fixed sequence of responses. It is used in
// tests and offline runs where no model is available.
type ScriptedGenerator struct {
	mu        sync.Mutex
	responses []string
	index     int
}

// NewScriptedGenerator creates a generator that returns the given responses
// in order and then errors.
func NewScriptedGenerator(responses ...string) *ScriptedGenerator {
	return &ScriptedGenerator{responses: responses}
}

// Generate returns the next scripted response.
func (g *ScriptedGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	g.mu.Lock()
	defer g.mu.Unlock()
	if g.index >= len(g.responses) {
		return "", fmt.Errorf("scripted generator exhausted after %d responses", len(g.responses))
	}
	response := g.responses[g.index]
	g.index++
	return response, nil
}
