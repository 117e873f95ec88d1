package provider

import (
	"context"
	"fmt"
)

const (
	IDOpenAI = "openai"
	IDGemini = "gemini"
	IDOllama = "ollama"
)

// Request is one generation call. ProjectContext is the flattened file block
// the caller built from the registry; APIKey, when set, overrides the
// configured credential for this call only.
type Request struct {
	Message        string
	ProjectContext string
	ProviderID     string
	APIKey         string
}

type Reply struct {
	Content string
}

// Backend is one text-generation implementation. Every backend sits behind
// the same signature so adding one never changes call sites.
type Backend interface {
	Generate(ctx context.Context, system, message, apiKey string) (string, error)
}

// Error carries the provider id alongside the underlying failure. A provider
// error is per-call; nothing is cached as a permanent provider-down state.
type Error struct {
	Provider string
	Err      error
}

func (e *Error) Error() string {
	return fmt.Sprintf("provider %s: %v", e.Provider, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }
