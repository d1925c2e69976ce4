// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package extract

import (
	"context"
	"errors"
	"fmt"

	"google.golang.org/genai"
)

// DefaultGeminiModel is used when no model is configured for the gemini provider.
const DefaultGeminiModel = "gemini-2.5-flash"

// GeminiBackend sends prompts to the Gemini API through the GenAI SDK.
type GeminiBackend struct {
	client    *genai.Client
	model     string
	maxTokens int32
}

// NewGeminiBackend creates a GenAI client for apiKey.
func NewGeminiBackend(ctx context.Context, apiKey, model string) (*GeminiBackend, error) {
	if apiKey == "" {
		return nil, errors.New("gemini API key is required")
	}
	if model == "" {
		model = DefaultGeminiModel
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create GenAI client: %w", err)
	}

	return &GeminiBackend{
		client:    client,
		model:     model,
		maxTokens: defaultMaxTokens,
	}, nil
}

// Complete generates a reply to prompt at temperature 0.
func (g *GeminiBackend) Complete(ctx context.Context, prompt string) (string, error) {
	resp, err := g.client.Models.GenerateContent(ctx, g.model, genai.Text(prompt), &genai.GenerateContentConfig{
		Temperature:     genai.Ptr[float32](0),
		MaxOutputTokens: g.maxTokens,
	})
	if err != nil {
		return "", fmt.Errorf("gemini generate: %w", err)
	}

	text := resp.Text()
	if text == "" {
		return "", errors.New("gemini returned no text")
	}
	return text, nil
}
