package config

import (
	"testing"
	"time"
)

func TestLoadConfig_Defaults(t *testing.T) {
	t.Setenv("CODELINK_LOG_LEVEL", "")
	t.Setenv("CODELINK_HOST", "")
	t.Setenv("CODELINK_PORT", "")
	t.Setenv("CODELINK_DEFAULT_PROVIDER", "")

	cfg := LoadConfig()
	if cfg.LogLevel != "info" {
		t.Fatalf("expected info log level, got %q", cfg.LogLevel)
	}
	if cfg.ListenHost != "127.0.0.1" || cfg.ListenPort != 4870 {
		t.Fatalf("unexpected listen address %s:%d", cfg.ListenHost, cfg.ListenPort)
	}
	if cfg.DefaultProvider != "openai" {
		t.Fatalf("expected openai default provider, got %q", cfg.DefaultProvider)
	}
	if cfg.ProviderTimeout != 120*time.Second {
		t.Fatalf("unexpected provider timeout %v", cfg.ProviderTimeout)
	}
}

func TestLoadConfig_Overrides(t *testing.T) {
	t.Setenv("CODELINK_PORT", "5001")
	t.Setenv("CODELINK_DEFAULT_PROVIDER", "ollama")
	t.Setenv("CODELINK_TASK_HISTORY_LIMIT", "7")

	cfg := LoadConfig()
	if cfg.ListenPort != 5001 {
		t.Fatalf("expected port override, got %d", cfg.ListenPort)
	}
	if cfg.DefaultProvider != "ollama" {
		t.Fatalf("expected provider override, got %q", cfg.DefaultProvider)
	}
	if cfg.TaskHistoryLimit != 7 {
		t.Fatalf("expected history limit override, got %d", cfg.TaskHistoryLimit)
	}
}

func TestLoadConfig_MalformedPortFallsBack(t *testing.T) {
	t.Setenv("CODELINK_PORT", "not-a-port")
	cfg := LoadConfig()
	if cfg.ListenPort != 4870 {
		t.Fatalf("expected default port on malformed value, got %d", cfg.ListenPort)
	}
}

func TestGetConfig_CachesWithinTTL(t *testing.T) {
	t.Setenv("CODELINK_PORT", "5002")
	LoadConfig()

	t.Setenv("CODELINK_PORT", "5003")
	cfg := GetConfig()
	if cfg.ListenPort != 5002 {
		t.Fatalf("expected cached port 5002, got %d", cfg.ListenPort)
	}
}
