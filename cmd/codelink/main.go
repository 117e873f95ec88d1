package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"codelink/hub/internal/api"
	"codelink/hub/internal/command"
	"codelink/hub/internal/config"
	"codelink/hub/internal/db"
	"codelink/hub/internal/global"
	"codelink/hub/internal/hub"
	"codelink/hub/internal/logging"
	"codelink/hub/internal/provider"
	"codelink/hub/internal/registry"
	"codelink/hub/internal/store"
	"codelink/hub/internal/taskqueue"
)

var version = "dev"

func main() {
	app := command.BuildApp(command.Deps{
		RunServe:        runServe,
		RunMigrateUp:    runMigrateUp,
		RunClearStorage: runClearStorage,
	})
	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func runServe(ctx context.Context, cfg config.Config) error {
	logger := logging.NewLogger(logging.Options{Level: cfg.LogLevel, Component: "codelink"})
	logger.Info("starting", "version", version)

	cfg = mergeGlobalConfig(cfg)

	gdb, err := db.OpenSQLite(cfg.DBPath)
	if err != nil {
		return err
	}
	projectStore, err := store.NewProjectStore(gdb)
	if err != nil {
		return err
	}
	messageStore, err := store.NewMessageStore(gdb)
	if err != nil {
		return err
	}

	reg := registry.New(logger.With("component", "registry"), projectStore)
	if err := reg.Rebuild(); err != nil {
		return err
	}

	queue := taskqueue.New(logger.With("component", "taskqueue"), taskqueue.Options{
		Retention:           cfg.TaskRetention,
		ProjectHistoryLimit: cfg.TaskHistoryLimit,
	})

	router := provider.NewRouter(logger.With("component", "provider"), cfg.DefaultProvider)
	router.Register(provider.IDOpenAI, provider.NewOpenAIBackend(provider.OpenAIConfig{
		BaseURL: cfg.OpenAIEndpoint,
		Model:   cfg.OpenAIModel,
		APIKey:  cfg.OpenAIAPIKey,
	}, nil))
	router.Register(provider.IDGemini, provider.NewGeminiBackend(provider.GeminiConfig{
		Model:  cfg.GeminiModel,
		APIKey: cfg.GeminiAPIKey,
	}))
	if ollama, err := provider.NewOllamaBackend(provider.OllamaConfig{
		BaseURL: cfg.OllamaBaseURL,
		Model:   cfg.OllamaModel,
	}); err != nil {
		logger.Warn("ollama backend unavailable", "error", err)
	} else {
		router.Register(provider.IDOllama, ollama)
	}

	relay := hub.New(logger.With("component", "hub"), reg, queue)
	chat := hub.NewChatService(
		logger.With("component", "chat"),
		reg, router, queue, messageStore, relay,
		hub.ChatOptions{ProviderTimeout: cfg.ProviderTimeout, ContextMaxFiles: cfg.ContextMaxFiles},
	)

	server := api.NewServer(api.Deps{
		Logger:   logger.With("component", "api"),
		Registry: reg,
		Queue:    queue,
		Messages: messageStore,
		Chat:     chat,
		Hub:      relay,
	})

	runCtx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	go queue.RunSweeper(runCtx, time.Minute)

	addr := net.JoinHostPort(cfg.ListenHost, strconv.Itoa(cfg.ListenPort))
	httpServer := &http.Server{Addr: addr, Handler: server.Handler()}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("listening", "addr", addr)
		errCh <- httpServer.ListenAndServe()
	}()

	select {
	case <-runCtx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = httpServer.Shutdown(shutdownCtx)
		logger.Info("stopped")
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

func runMigrateUp(_ context.Context, cfg config.Config) error {
	gdb, err := db.OpenSQLite(cfg.DBPath)
	if err != nil {
		return err
	}
	return db.SyncSchema(gdb)
}

func runClearStorage(_ context.Context, cfg config.Config) error {
	gdb, err := db.OpenSQLite(cfg.DBPath)
	if err != nil {
		return err
	}
	projectStore, err := store.NewProjectStore(gdb)
	if err != nil {
		return err
	}
	return projectStore.Clear()
}

// mergeGlobalConfig overlays file-based credentials from the user config dir
// onto env config. Environment always wins.
func mergeGlobalConfig(cfg config.Config) config.Config {
	dir, err := global.DefaultConfigDir()
	if err != nil {
		return cfg
	}
	fileCfg, err := global.NewConfigStore(dir).LoadOrInit()
	if err != nil {
		return cfg
	}
	if cfg.OpenAIAPIKey == "" {
		cfg.OpenAIAPIKey = fileCfg.Credentials.OpenAIAPIKey
	}
	if cfg.OpenAIEndpoint == "" {
		cfg.OpenAIEndpoint = fileCfg.Credentials.OpenAIEndpoint
	}
	if cfg.GeminiAPIKey == "" {
		cfg.GeminiAPIKey = fileCfg.Credentials.GeminiAPIKey
	}
	if fileCfg.Credentials.OllamaBaseURL != "" && os.Getenv("OLLAMA_HOST") == "" {
		cfg.OllamaBaseURL = fileCfg.Credentials.OllamaBaseURL
	}
	if os.Getenv("CODELINK_DEFAULT_PROVIDER") == "" && fileCfg.DefaultProvider != "" {
		cfg.DefaultProvider = fileCfg.DefaultProvider
	}
	return cfg
}
