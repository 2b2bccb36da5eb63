package ai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"viralstudio/pkg/domain"
	"viralstudio/pkg/prompt"
)

var (
	// ErrMissingKey means no API key was supplied; nothing was sent.
	ErrMissingKey = errors.New("api key is missing")
	// ErrEmptyResponse means the model returned no text at all.
	ErrEmptyResponse = errors.New("empty response from model")
	// ErrMalformedResponse means the model's reply did not decode into the
	// declared content structure. Deterministic; never worth retrying.
	ErrMalformedResponse = errors.New("malformed model response")
)

// GeneratorFactory builds a TextGenerator for a caller's API key. The
// default factory returns a Gemini generator; tests inject fakes.
type GeneratorFactory func(apiKey string) (TextGenerator, error)

// ContentGenerator turns a generation request into structured content:
// prompt assembly, one model call, and decoding of the reply.
type ContentGenerator struct {
	newGenerator GeneratorFactory
}

// NewContentGenerator builds a generator backed by Gemini. An empty model
// selects the fixed default.
func NewContentGenerator(model string) *ContentGenerator {
	return &ContentGenerator{
		newGenerator: func(apiKey string) (TextGenerator, error) {
			client, err := NewGeminiClient(apiKey)
			if err != nil {
				return nil, err
			}
			return NewGeminiGenerator(client, model), nil
		},
	}
}

// NewContentGeneratorWithFactory builds a generator with a custom provider
// factory.
func NewContentGeneratorWithFactory(factory GeneratorFactory) *ContentGenerator {
	return &ContentGenerator{newGenerator: factory}
}

// Generate calls the model and decodes its structured reply. The API key is
// validated before any network I/O.
func (g *ContentGenerator) Generate(ctx context.Context, req domain.GenerationRequest, apiKey string) (domain.GeneratedContent, error) {
	if strings.TrimSpace(apiKey) == "" {
		return domain.GeneratedContent{}, ErrMissingKey
	}
	generator, err := g.newGenerator(apiKey)
	if err != nil {
		return domain.GeneratedContent{}, err
	}
	systemPrompt, userPrompt := prompt.Build(req)
	text, err := generator.GenerateText(ctx, systemPrompt, userPrompt)
	if err != nil {
		return domain.GeneratedContent{}, err
	}
	return decodeContent(text)
}

// decodeContent parses the model reply into GeneratedContent, translating
// parse failures into ErrMalformedResponse instead of leaking raw decoder
// errors.
func decodeContent(text string) (domain.GeneratedContent, error) {
	text = stripCodeFence(text)
	if text == "" {
		return domain.GeneratedContent{}, ErrEmptyResponse
	}
	var content domain.GeneratedContent
	if err := json.Unmarshal([]byte(text), &content); err != nil {
		return domain.GeneratedContent{}, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	return content, nil
}

// stripCodeFence removes a surrounding markdown code fence. Models sometimes
// wrap the JSON despite the raw-output instruction.
func stripCodeFence(text string) string {
	text = strings.TrimSpace(text)
	if !strings.HasPrefix(text, "```") {
		return text
	}
	text = strings.TrimPrefix(text, "```")
	if idx := strings.Index(text, "\n"); idx >= 0 && !strings.HasPrefix(text, "\n") {
		// Drop the language tag on the opening fence line.
		text = text[idx+1:]
	}
	text = strings.TrimSuffix(strings.TrimSpace(text), "```")
	return strings.TrimSpace(text)
}
