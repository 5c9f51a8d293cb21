// Package synthesizer turns tool results into the natural-language reply.
package synthesizer

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/rs/zerolog"
	"github.com/shophub-ai/assistant"
	"github.com/shophub-ai/assistant/internal/llm"
)

const synthesisInstructions = `You are the reply writer of a shopping assistant.
Write a short, friendly reply to the user's request using ONLY the tool
results below.

Rules:
- Never invent products, orders or prices that are not in the results.
- If a tool failed, acknowledge it honestly instead of pretending it worked.
- If a result list is empty, say so plainly.
- Format prices with a dollar sign and two decimals, like $1199.99.
- Reply with plain text only, no markdown and no JSON.`

// LLMSynthesizer produces the reply with a single model call.
type LLMSynthesizer struct {
	generator llm.Generator
	logger    zerolog.Logger
}

// Option configures an LLMSynthesizer.
type Option func(*LLMSynthesizer)

// WithLogger sets the synthesizer's logger.
func WithLogger(logger zerolog.Logger) Option {
	return func(s *LLMSynthesizer) {
		s.logger = logger
	}
}

// New creates an LLMSynthesizer over the given generator.
func New(generator llm.Generator, options ...Option) *LLMSynthesizer {
	s := &LLMSynthesizer{
		generator: generator,
		logger:    zerolog.Nop(),
	}
	for _, option := range options {
		option(s)
	}
	return s
}

// Synthesize implements assistant.Synthesizer.
func (s *LLMSynthesizer) Synthesize(ctx context.Context, query string, plan *assistant.ExecutionPlan, results []assistant.ToolResult, knowledge string) (string, error) {
	prompt := buildSynthesisPrompt(query, plan, results, knowledge)

	reply, err := s.generator.Generate(ctx, prompt)
	if err != nil {
		return "", assistant.NewSynthesisError(err)
	}

	reply = strings.TrimSpace(reply)
	s.logger.Debug().Int("reply_length", len(reply)).Msg("synthesized reply")
	return reply, nil
}

// buildSynthesisPrompt serializes the request, the plan reasoning, every
// tool result and the optional knowledge context.
func buildSynthesisPrompt(query string, plan *assistant.ExecutionPlan, results []assistant.ToolResult, knowledge string) string {
	var b strings.Builder
	b.WriteString(synthesisInstructions)

	fmt.Fprintf(&b, "\n\nUser request: %s\n", query)
	if plan != nil && plan.Reasoning != "" {
		fmt.Fprintf(&b, "\nPlan reasoning: %s\n", plan.Reasoning)
	}

	b.WriteString("\nTool results:\n")
	if len(results) == 0 {
		b.WriteString("(no tools were run)\n")
	}
	for _, r := range results {
		if r.Success {
			fmt.Fprintf(&b, "\n%s (succeeded):\n%s\n", r.Tool, compactJSON(r.Data))
		} else {
			fmt.Fprintf(&b, "\n%s (FAILED): %s\n", r.Tool, r.Error)
		}
	}

	if knowledge != "" {
		fmt.Fprintf(&b, "\nStore policies relevant to this request:\n%s\n", knowledge)
	}

	return b.String()
}

func compactJSON(data map[string]interface{}) string {
	encoded, err := json.Marshal(data)
	if err != nil {
		return fmt.Sprintf("%v", data)
	}
	return string(encoded)
}
