package config

import (
	"os"
	"path/filepath"
	"sync"
	"time"
)

type Config struct {
	LogLevel        string
	ListenHost      string
	ListenPort      int
	DBPath          string
	DefaultProvider string

	OpenAIEndpoint string
	OpenAIModel    string
	OpenAIAPIKey   string
	GeminiAPIKey   string
	GeminiModel    string
	OllamaBaseURL  string
	OllamaModel    string

	ProviderTimeout  time.Duration
	TaskRetention    time.Duration
	TaskHistoryLimit int
	ContextMaxFiles  int
}

var (
	cacheTTL   = 10 * time.Second
	nowFunc    = time.Now
	cacheMu    sync.RWMutex
	cachedCfg  Config
	cachedAt   time.Time
	cacheValid bool
)

func LoadConfig() Config {
	cfg := loadFromEnv()
	cacheMu.Lock()
	cachedCfg = cfg
	cachedAt = nowFunc()
	cacheValid = true
	cacheMu.Unlock()
	return cfg
}

func GetConfig() *Config {
	now := nowFunc()
	cacheMu.RLock()
	valid := cacheValid && now.Sub(cachedAt) < cacheTTL
	if valid {
		out := cachedCfg
		cacheMu.RUnlock()
		return &out
	}
	cacheMu.RUnlock()

	cfg := loadFromEnv()
	cacheMu.Lock()
	cachedCfg = cfg
	cachedAt = now
	cacheValid = true
	cacheMu.Unlock()

	out := cfg
	return &out
}

func loadFromEnv() Config {
	level := os.Getenv("CODELINK_LOG_LEVEL")
	if level == "" {
		level = "info"
	}

	host := os.Getenv("CODELINK_HOST")
	if host == "" {
		host = "127.0.0.1"
	}
	port := atoiOrDefault(os.Getenv("CODELINK_PORT"), 4870)

	dbPath := os.Getenv("CODELINK_DB_PATH")
	if dbPath == "" {
		dbPath = defaultDBPath()
	}

	provider := os.Getenv("CODELINK_DEFAULT_PROVIDER")
	if provider == "" {
		provider = "openai"
	}

	openAIModel := os.Getenv("OPENAI_MODEL")
	if openAIModel == "" {
		openAIModel = "gpt-4o-mini"
	}
	geminiModel := os.Getenv("GEMINI_MODEL")
	if geminiModel == "" {
		geminiModel = "gemini-2.0-flash"
	}
	ollamaBase := os.Getenv("OLLAMA_HOST")
	if ollamaBase == "" {
		ollamaBase = "http://127.0.0.1:11434"
	}
	ollamaModel := os.Getenv("OLLAMA_MODEL")
	if ollamaModel == "" {
		ollamaModel = "qwen2.5-coder"
	}

	providerTimeout := time.Duration(atoiOrDefault(os.Getenv("CODELINK_PROVIDER_TIMEOUT_SECONDS"), 120)) * time.Second
	retention := time.Duration(atoiOrDefault(os.Getenv("CODELINK_TASK_RETENTION_MINUTES"), 60)) * time.Minute
	historyLimit := atoiOrDefault(os.Getenv("CODELINK_TASK_HISTORY_LIMIT"), 50)
	contextMaxFiles := atoiOrDefault(os.Getenv("CODELINK_CONTEXT_MAX_FILES"), 20)

	return Config{
		LogLevel:         level,
		ListenHost:       host,
		ListenPort:       port,
		DBPath:           dbPath,
		DefaultProvider:  provider,
		OpenAIEndpoint:   os.Getenv("OPENAI_ENDPOINT"),
		OpenAIModel:      openAIModel,
		OpenAIAPIKey:     os.Getenv("OPENAI_API_KEY"),
		GeminiAPIKey:     os.Getenv("GEMINI_API_KEY"),
		GeminiModel:      geminiModel,
		OllamaBaseURL:    ollamaBase,
		OllamaModel:      ollamaModel,
		ProviderTimeout:  providerTimeout,
		TaskRetention:    retention,
		TaskHistoryLimit: historyLimit,
		ContextMaxFiles:  contextMaxFiles,
	}
}

func defaultDBPath() string {
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		return filepath.Clean("codelink.db")
	}
	return filepath.Join(home, ".config", "codelink", "codelink.db")
}

func atoiOrDefault(v string, fallback int) int {
	n := 0
	for i := 0; i < len(v); i++ {
		if v[i] < '0' || v[i] > '9' {
			return fallback
		}
		n = n*10 + int(v[i]-'0')
	}
	if n == 0 {
		return fallback
	}
	return n
}
