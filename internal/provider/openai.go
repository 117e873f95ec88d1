package provider

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/packages/param"
	"github.com/openai/openai-go/responses"
)

type OpenAIConfig struct {
	BaseURL string
	Model   string
	APIKey  string
}

// OpenAIBackend drives the OpenAI responses API. One service instance is
// reused for calls with the configured key; a per-call key builds a fresh
// service so the override never leaks into later calls.
type OpenAIBackend struct {
	cfg        OpenAIConfig
	httpClient *http.Client
	service    responses.ResponseService
}

func NewOpenAIBackend(cfg OpenAIConfig, httpClient *http.Client) *OpenAIBackend {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &OpenAIBackend{
		cfg:        cfg,
		httpClient: httpClient,
		service:    responses.NewResponseService(openAIOptions(cfg, httpClient, "")...),
	}
}

func openAIOptions(cfg OpenAIConfig, httpClient *http.Client, keyOverride string) []option.RequestOption {
	opts := []option.RequestOption{option.WithHTTPClient(httpClient)}
	if base := strings.TrimSpace(cfg.BaseURL); base != "" {
		opts = append(opts, option.WithBaseURL(base))
	}
	key := strings.TrimSpace(keyOverride)
	if key == "" {
		key = strings.TrimSpace(cfg.APIKey)
	}
	if key != "" {
		opts = append(opts, option.WithAPIKey(key))
	}
	return opts
}

func (b *OpenAIBackend) Generate(ctx context.Context, system, message, apiKey string) (string, error) {
	if strings.TrimSpace(apiKey) == "" && strings.TrimSpace(b.cfg.APIKey) == "" {
		return "", &Error{Provider: IDOpenAI, Err: errors.New("missing api key")}
	}
	service := b.service
	if strings.TrimSpace(apiKey) != "" {
		service = responses.NewResponseService(openAIOptions(b.cfg, b.httpClient, apiKey)...)
	}

	params := responses.ResponseNewParams{
		Model:        b.cfg.Model,
		Instructions: param.NewOpt(system),
	}
	params.Input.OfString = param.NewOpt(message)

	resp, err := service.New(ctx, params)
	if err != nil {
		return "", &Error{Provider: IDOpenAI, Err: err}
	}
	text := resp.OutputText()
	if strings.TrimSpace(text) == "" {
		return "", &Error{Provider: IDOpenAI, Err: errors.New("empty response")}
	}
	return text, nil
}
