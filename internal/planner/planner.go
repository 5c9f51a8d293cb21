// Package planner turns a chat request and the tool catalog into an
// execution plan. The primary implementation asks the model for a JSON plan;
// a deterministic rule planner backs tests and offline runs.
package planner

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/rs/zerolog"
	"github.com/shophub-ai/assistant"
	"github.com/shophub-ai/assistant/internal/llm"
)

// LLMPlanner generates plans with a single model call. A successful plan is
// cached keyed by the query and the catalog it was planned against; any
// unusable model output is returned as an error for the caller's fallback.
type LLMPlanner struct {
	generator llm.Generator
	cache     assistant.PlanCache
	logger    zerolog.Logger
}

// Option configures an LLMPlanner.
type Option func(*LLMPlanner)

// WithCache sets the plan cache consulted before each model call.
func WithCache(cache assistant.PlanCache) Option {
	return func(p *LLMPlanner) {
		p.cache = cache
	}
}

// WithLogger sets the planner's logger.
func WithLogger(logger zerolog.Logger) Option {
	return func(p *LLMPlanner) {
		p.logger = logger
	}
}

// New creates an LLMPlanner over the given generator.
func New(generator llm.Generator, options ...Option) *LLMPlanner {
	p := &LLMPlanner{
		generator: generator,
		logger:    zerolog.Nop(),
	}
	for _, option := range options {
		option(p)
	}
	return p
}

// GeneratePlan implements assistant.Planner.
func (p *LLMPlanner) GeneratePlan(ctx context.Context, input assistant.PlannerInput) (*assistant.ExecutionPlan, error) {
	cacheKey := planCacheKey(input)
	if p.cache != nil {
		if cached, found := p.cache.Get(ctx, cacheKey); found {
			p.logger.Debug().Str("key", cacheKey).Msg("plan cache hit")
			return cached, nil
		}
	}

	raw, err := p.generator.Generate(ctx, buildPlannerPrompt(input))
	if err != nil {
		return nil, assistant.NewPlanningError("model call failed", err)
	}

	plan, err := parsePlan(raw, input.Catalog)
	if err != nil {
		p.logger.Warn().Err(err).Msg("discarding unusable plan output")
		return nil, err
	}

	if p.cache != nil {
		p.cache.Set(ctx, cacheKey, plan)
	}
	return plan, nil
}

// planCacheKey hashes the query together with the catalog so a changed tool
// set never serves a stale plan.
func planCacheKey(input assistant.PlannerInput) string {
	h := sha1.New()
	h.Write([]byte(input.Query))
	for _, d := range input.Catalog {
		h.Write([]byte{0})
		h.Write([]byte(d.Name))
	}
	return "plan:" + hex.EncodeToString(h.Sum(nil))
}

// planDocument is the JSON shape the model is asked to produce.
type planDocument struct {
	Strategy  string `json:"strategy"`
	Reasoning string `json:"reasoning"`
	Steps     []struct {
		ID        string                 `json:"id"`
		Tool      string                 `json:"tool"`
		Args      map[string]interface{} `json:"args"`
		Reasoning string                 `json:"reasoning"`
	} `json:"steps"`
}

// parsePlan extracts and validates the plan JSON from the model output.
func parsePlan(raw string, catalog []assistant.ToolDescriptor) (*assistant.ExecutionPlan, error) {
	jsonText, err := extractJSON(raw)
	if err != nil {
		return nil, assistant.NewPlanningError("no JSON object in model output", err)
	}

	var doc planDocument
	if err := json.Unmarshal([]byte(jsonText), &doc); err != nil {
		return nil, assistant.NewPlanningError("plan JSON does not parse", err)
	}
	if len(doc.Steps) == 0 {
		return nil, assistant.NewPlanningError("plan has no steps", nil)
	}

	known := make(map[string]bool, len(catalog))
	for _, d := range catalog {
		known[d.Name] = true
	}

	seen := make(map[string]bool, len(doc.Steps))
	steps := make([]assistant.PlanStep, 0, len(doc.Steps))
	for i, s := range doc.Steps {
		id := strings.TrimSpace(s.ID)
		if id == "" {
			id = fmt.Sprintf("s%d", i+1)
		}
		if seen[id] {
			return nil, assistant.NewPlanningError(fmt.Sprintf("duplicate step id '%s'", id), nil)
		}
		seen[id] = true

		if !known[s.Tool] {
			return nil, assistant.NewPlanningError(fmt.Sprintf("plan references unknown tool '%s'", s.Tool), nil)
		}

		args := s.Args
		if args == nil {
			args = map[string]interface{}{}
		}
		steps = append(steps, assistant.PlanStep{
			ID:        id,
			Tool:      s.Tool,
			Args:      args,
			Reasoning: s.Reasoning,
		})
	}

	strategy := doc.Strategy
	if strategy == "" {
		strategy = "sequential"
	}
	return &assistant.ExecutionPlan{
		Strategy:  strategy,
		Steps:     steps,
		Reasoning: doc.Reasoning,
	}, nil
}

// extractJSON pulls the outermost JSON object out of the model output,
// tolerating markdown fences and surrounding prose.
func extractJSON(raw string) (string, error) {
	text := strings.TrimSpace(raw)
	if idx := strings.Index(text, "```"); idx >= 0 {
		text = text[idx+3:]
		text = strings.TrimPrefix(text, "json")
		if end := strings.Index(text, "```"); end >= 0 {
			text = text[:end]
		}
	}

	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start < 0 || end <= start {
		return "", fmt.Errorf("model output contains no JSON object")
	}
	return text[start : end+1], nil
}
