package llm

import (
	"context"
	"fmt"

	"github.com/firebase/genkit/go/ai"
	"github.com/firebase/genkit/go/genkit"
)

// GenkitGenerator backs the Generator interface with a Genkit model.
type GenkitGenerator struct {
	g     *genkit.Genkit
	model string
}

// NewGenkitGenerator creates a generator for the given Genkit instance.
// model may be empty to use the instance's default model.
func NewGenkitGenerator(g *genkit.Genkit, model string) *GenkitGenerator {
	return &GenkitGenerator{g: g, model: model}
}

// Generate implements Generator with a single model round-trip.
func (gg *GenkitGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	opts := []ai.GenerateOption{ai.WithPrompt(prompt)}
	if gg.model != "" {
		opts = append(opts, ai.WithModelName(gg.model))
	}

	resp, err := genkit.Generate(ctx, gg.g, opts...)
	if err != nil {
		return "", fmt.Errorf("model generation failed: %w", err)
	}
	return resp.Text(), nil
}
