package synthesizer

import (
	"context"
	"testing"

	"github.com/shophub-ai/assistant"
	"github.com/shophub-ai/assistant/internal/llm"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSynthesizeReturnsTrimmedReply(t *testing.T) {
	s := New(llm.NewScriptedGenerator("  I found one laptop under $2000: the MacBook Air M2 at $1199.99.  \n"))

	reply, err := s.Synthesize(context.Background(), "Find laptops under $2000", nil, []assistant.ToolResult{
		{StepID: "s1", Tool: "search_products", Success: true, Data: map[string]interface{}{"count": 1}},
	}, "")

	require.NoError(t, err)
	assert.Equal(t, "I found one laptop under $2000: the MacBook Air M2 at $1199.99.", reply)
}

func TestSynthesizeGeneratorError(t *testing.T) {
	s := New(llm.NewScriptedGenerator())

	_, err := s.Synthesize(context.Background(), "hi", nil, nil, "")
	require.Error(t, err)
	assert.True(t, assistant.IsAssistantError(err))
}

func TestSynthesisPromptIncludesFailures(t *testing.T) {
	plan := &assistant.ExecutionPlan{Reasoning: "look up the order"}
	results := []assistant.ToolResult{
		{Tool: "get_order", Success: false, Error: "order not found"},
		{Tool: "search_products", Success: true, Data: map[string]interface{}{"count": 0}},
	}

	prompt := buildSynthesisPrompt("where is my order", plan, results, "Returns accepted within 30 days.")

	assert.Contains(t, prompt, "get_order (FAILED): order not found")
	assert.Contains(t, prompt, `"count":0`)
	assert.Contains(t, prompt, "look up the order")
	assert.Contains(t, prompt, "Returns accepted within 30 days.")
	assert.Contains(t, prompt, "where is my order")
}

func TestSynthesisPromptNoResults(t *testing.T) {
	prompt := buildSynthesisPrompt("hello", nil, nil, "")
	assert.Contains(t, prompt, "no tools were run")
}
