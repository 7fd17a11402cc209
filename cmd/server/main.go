package main

import (
	"net/http"

	"github.com/aurora-chat/aurora/internal/api"
	"github.com/aurora-chat/aurora/internal/chat"
	"github.com/aurora-chat/aurora/internal/config"
	"github.com/aurora-chat/aurora/internal/db"
	"github.com/aurora-chat/aurora/internal/llm"
	"github.com/aurora-chat/aurora/internal/nickname"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

func main() {
	logger, _ := zap.NewProduction()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("failed to load config", zap.Error(err))
	}

	store, err := db.New(cfg.DBPath)
	if err != nil {
		logger.Fatal("failed to initialize database",
			zap.Error(err),
			zap.String("dbPath", cfg.DBPath))
	}
	defer func() {
		if err := multierr.Append(store.Close(), logger.Sync()); err != nil {
			logger.Error("shutdown cleanup failed", zap.Error(err))
		}
	}()

	var completer llm.Completer
	switch cfg.Backend {
	case config.BackendOpenAI:
		completer, err = llm.NewOpenAIClient(cfg.OpenAIBase, cfg.OpenAIToken, cfg.OpenAIModel, cfg.LLMTimeout)
		if err != nil {
			logger.Fatal("failed to initialize openai backend", zap.Error(err))
		}
	default:
		completer = llm.NewClient(cfg.InvokeURL, cfg.LLMTimeout, logger)
	}

	chatService := chat.NewService(store, completer, nickname.DefaultTable(), cfg.SystemPrompt(), logger)
	handler := api.NewHandler(chatService, logger)

	r := chi.NewRouter()
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
	}))
	handler.RegisterRoutes(r)
	r.Handle("/*", http.FileServer(http.Dir(cfg.WebDir)))

	logger.Info("starting server",
		zap.String("addr", cfg.Addr),
		zap.String("backend", cfg.Backend))
	if err := http.ListenAndServe(cfg.Addr, r); err != nil {
		logger.Fatal("failed to start server", zap.Error(err))
	}
}
