package provider

import (
	"context"
	"errors"
	"strings"

	"google.golang.org/genai"
)

type GeminiConfig struct {
	Model  string
	APIKey string
}

// GeminiBackend talks to the Gemini API. The genai client binds its key at
// construction, so a per-call override builds a throwaway client.
type GeminiBackend struct {
	cfg GeminiConfig
}

func NewGeminiBackend(cfg GeminiConfig) *GeminiBackend {
	return &GeminiBackend{cfg: cfg}
}

func (b *GeminiBackend) Generate(ctx context.Context, system, message, apiKey string) (string, error) {
	key := strings.TrimSpace(apiKey)
	if key == "" {
		key = strings.TrimSpace(b.cfg.APIKey)
	}
	if key == "" {
		return "", &Error{Provider: IDGemini, Err: errors.New("missing api key")}
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		Backend: genai.BackendGeminiAPI,
		APIKey:  key,
	})
	if err != nil {
		return "", &Error{Provider: IDGemini, Err: err}
	}

	cfg := &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(system, genai.RoleUser),
	}
	resp, err := client.Models.GenerateContent(ctx, b.cfg.Model, genai.Text(message), cfg)
	if err != nil {
		return "", &Error{Provider: IDGemini, Err: err}
	}
	text := resp.Text()
	if strings.TrimSpace(text) == "" {
		return "", &Error{Provider: IDGemini, Err: errors.New("empty response")}
	}
	return text, nil
}
