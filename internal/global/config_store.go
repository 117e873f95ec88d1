package global

import (
	"os"
	"path/filepath"
	"strings"

	toml "github.com/pelletier/go-toml/v2"
)

const configTOMLFileName = "config.toml"

// ProviderCredentials are deployment-owned secrets. Environment variables
// take precedence over this file; the file exists for setups where exporting
// keys per shell is impractical.
type ProviderCredentials struct {
	OpenAIAPIKey   string `toml:"openai_api_key,omitempty"`
	OpenAIEndpoint string `toml:"openai_endpoint,omitempty"`
	GeminiAPIKey   string `toml:"gemini_api_key,omitempty"`
	OllamaBaseURL  string `toml:"ollama_base_url,omitempty"`
}

type GlobalConfig struct {
	DefaultProvider string              `toml:"default_provider"`
	Credentials     ProviderCredentials `toml:"credentials"`
}

type ConfigStore struct {
	dir string
}

func NewConfigStore(dir string) *ConfigStore {
	return &ConfigStore{dir: dir}
}

func (s *ConfigStore) LoadOrInit() (GlobalConfig, error) {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return GlobalConfig{}, err
	}

	path := filepath.Join(s.dir, configTOMLFileName)
	if b, err := os.ReadFile(path); err == nil {
		var cfg GlobalConfig
		if err := toml.Unmarshal(b, &cfg); err != nil {
			return GlobalConfig{}, err
		}
		return normalizeConfig(cfg), nil
	} else if !os.IsNotExist(err) {
		return GlobalConfig{}, err
	}

	cfg := normalizeConfig(GlobalConfig{})
	if err := writeTOMLAtomically(path, cfg); err != nil {
		return GlobalConfig{}, err
	}
	return cfg, nil
}

func (s *ConfigStore) Save(cfg GlobalConfig) error {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return err
	}
	return writeTOMLAtomically(filepath.Join(s.dir, configTOMLFileName), normalizeConfig(cfg))
}

func normalizeConfig(cfg GlobalConfig) GlobalConfig {
	switch strings.ToLower(strings.TrimSpace(cfg.DefaultProvider)) {
	case "openai", "gemini", "ollama":
		cfg.DefaultProvider = strings.ToLower(strings.TrimSpace(cfg.DefaultProvider))
	default:
		cfg.DefaultProvider = "openai"
	}
	cfg.Credentials.OpenAIAPIKey = strings.TrimSpace(cfg.Credentials.OpenAIAPIKey)
	cfg.Credentials.OpenAIEndpoint = strings.TrimSpace(cfg.Credentials.OpenAIEndpoint)
	cfg.Credentials.GeminiAPIKey = strings.TrimSpace(cfg.Credentials.GeminiAPIKey)
	cfg.Credentials.OllamaBaseURL = strings.TrimSpace(cfg.Credentials.OllamaBaseURL)
	return cfg
}

func writeTOMLAtomically(path string, v any) error {
	b, err := toml.Marshal(v)
	if err != nil {
		return err
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, b, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}
