package global

import (
	"os"
	"path/filepath"
	"testing"
)

func TestConfigStore_LoadOrInitWritesDefaults(t *testing.T) {
	dir := t.TempDir()
	store := NewConfigStore(dir)

	cfg, err := store.LoadOrInit()
	if err != nil {
		t.Fatalf("LoadOrInit failed: %v", err)
	}
	if cfg.DefaultProvider != "openai" {
		t.Fatalf("expected openai default, got %q", cfg.DefaultProvider)
	}
	if _, err := os.Stat(filepath.Join(dir, configTOMLFileName)); err != nil {
		t.Fatalf("config file not written: %v", err)
	}
}

func TestConfigStore_SaveRoundTrip(t *testing.T) {
	dir := t.TempDir()
	store := NewConfigStore(dir)

	in := GlobalConfig{
		DefaultProvider: "Ollama",
		Credentials: ProviderCredentials{
			GeminiAPIKey:  "  key-123  ",
			OllamaBaseURL: "http://10.0.0.2:11434",
		},
	}
	if err := store.Save(in); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	out, err := store.LoadOrInit()
	if err != nil {
		t.Fatalf("LoadOrInit failed: %v", err)
	}
	if out.DefaultProvider != "ollama" {
		t.Fatalf("expected normalized provider, got %q", out.DefaultProvider)
	}
	if out.Credentials.GeminiAPIKey != "key-123" {
		t.Fatalf("expected trimmed key, got %q", out.Credentials.GeminiAPIKey)
	}
	if out.Credentials.OllamaBaseURL != "http://10.0.0.2:11434" {
		t.Fatalf("unexpected ollama base url %q", out.Credentials.OllamaBaseURL)
	}
}

func TestConfigStore_UnknownProviderFallsBack(t *testing.T) {
	dir := t.TempDir()
	store := NewConfigStore(dir)
	if err := store.Save(GlobalConfig{DefaultProvider: "bard"}); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	out, err := store.LoadOrInit()
	if err != nil {
		t.Fatalf("LoadOrInit failed: %v", err)
	}
	if out.DefaultProvider != "openai" {
		t.Fatalf("expected fallback provider, got %q", out.DefaultProvider)
	}
}
