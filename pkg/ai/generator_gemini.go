package ai

import "context"

// DefaultModel is the fixed generation model.
const DefaultModel = "gemini-2.5-flash"

// Moderate sampling bias: varied but not incoherent output.
const defaultTemperature = 0.8

// GeminiGenerator wraps GeminiClient with a fixed model and a JSON-output
// generation config for text generation.
type GeminiGenerator struct {
	client *GeminiClient
	model  string
}

// NewGeminiGenerator builds a Gemini-based TextGenerator.
func NewGeminiGenerator(client *GeminiClient, model string) *GeminiGenerator {
	if model == "" {
		model = DefaultModel
	}
	return &GeminiGenerator{client: client, model: model}
}

// GenerateText implements TextGenerator using Gemini in structured-text
// (JSON mime type) output mode.
func (g *GeminiGenerator) GenerateText(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	temperature := defaultTemperature
	cfg := &GenerationConfig{
		ResponseMIMEType: "application/json",
		Temperature:      &temperature,
	}
	return g.client.GenerateText(ctx, g.model, systemPrompt, userPrompt, cfg)
}
