package provider

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/ollama/ollama/api"
)

type OllamaConfig struct {
	BaseURL string
	Model   string
	APIKey  string
}

// OllamaBackend drives a local or remote Ollama server. No key is required
// for localhost; remote servers with auth get a bearer token transport.
type OllamaBackend struct {
	cfg    OllamaConfig
	client *api.Client
}

type bearerTransport struct {
	base   http.RoundTripper
	apiKey string
}

func (t *bearerTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	clone := req.Clone(req.Context())
	clone.Header.Set("Authorization", "Bearer "+t.apiKey)
	return t.base.RoundTrip(clone)
}

func NewOllamaBackend(cfg OllamaConfig) (*OllamaBackend, error) {
	if strings.TrimSpace(cfg.Model) == "" {
		return nil, errors.New("model name is required")
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = "http://127.0.0.1:11434"
	}
	base, err := url.Parse(cfg.BaseURL)
	if err != nil {
		return nil, err
	}
	httpClient := &http.Client{Timeout: 120 * time.Second}
	if strings.TrimSpace(cfg.APIKey) != "" {
		httpClient.Transport = &bearerTransport{base: http.DefaultTransport, apiKey: strings.TrimSpace(cfg.APIKey)}
	}
	return &OllamaBackend{
		cfg:    cfg,
		client: api.NewClient(base, httpClient),
	}, nil
}

func (b *OllamaBackend) Generate(ctx context.Context, system, message, _ string) (string, error) {
	stream := false
	var sb strings.Builder
	err := b.client.Generate(ctx, &api.GenerateRequest{
		Model:  b.cfg.Model,
		Prompt: message,
		System: system,
		Stream: &stream,
	}, func(resp api.GenerateResponse) error {
		sb.WriteString(resp.Response)
		return nil
	})
	if err != nil {
		return "", &Error{Provider: IDOllama, Err: err}
	}
	if strings.TrimSpace(sb.String()) == "" {
		return "", &Error{Provider: IDOllama, Err: errors.New("empty response")}
	}
	return sb.String(), nil
}
