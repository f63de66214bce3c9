package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/ent0n29/chatrelay/internal/chat"
	"github.com/ent0n29/chatrelay/internal/config"
	"github.com/ent0n29/chatrelay/internal/httpapi"
	"github.com/ent0n29/chatrelay/internal/observability"
	"github.com/ent0n29/chatrelay/internal/prompt"
	"github.com/ent0n29/chatrelay/internal/provider"
	"github.com/ent0n29/chatrelay/internal/relay"
	"github.com/ent0n29/chatrelay/internal/store"
	"github.com/ent0n29/chatrelay/internal/telegram"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	metrics := observability.NewMetrics(cfg.MetricsNamespace)

	ctx := context.Background()
	st, err := store.NewStore(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("store init failed: %v", err)
	}
	defer st.Close()

	providers := provider.NewRegistry(
		provider.NewHTTPClient(provider.Options{
			Name:    "openrouter",
			BaseURL: cfg.OpenRouterBaseURL,
			Model:   cfg.OpenRouterModel,
			APIKey:  cfg.OpenRouterAPIKey,
			ExtraHeaders: map[string]string{
				"HTTP-Referer": "http://localhost",
				"X-Title":      "chatrelay",
			},
			Timeout: cfg.ProviderTimeout,
		}),
		provider.NewHTTPClient(provider.Options{
			Name:    "groq",
			BaseURL: cfg.GroqBaseURL,
			Model:   cfg.GroqModel,
			APIKey:  cfg.GroqAPIKey,
			Timeout: cfg.ProviderTimeout,
		}),
		provider.NewHTTPClient(provider.Options{
			Name:    "groq-large",
			BaseURL: cfg.GroqBaseURL,
			Model:   cfg.GroqLargeModel,
			APIKey:  cfg.GroqAPIKey,
			Timeout: cfg.ProviderTimeout,
		}),
	)

	relayClient, err := providers.Get(cfg.RelayProvider)
	if err != nil {
		log.Fatalf("relay provider init failed: %v", err)
	}

	prompts := prompt.NewBuilder(cfg.ReferenceLocation())
	orchestrator := chat.NewOrchestrator(st, prompts, metrics, logger)
	sender := telegram.NewClient(cfg.TelegramAPIBase, cfg.TelegramBotToken, cfg.TelegramSendTimeout)
	rel := relay.New(relayClient, prompts, sender, cfg.RelayFallbackText, metrics, logger)
	auth := httpapi.NewStaticTokenAuthenticator(cfg.AuthTokens)

	api := httpapi.New(cfg, orchestrator, providers, st, rel, auth, metrics, logger)
	httpServer := &http.Server{
		Addr:    cfg.BindAddr,
		Handler: api.Router(),
	}

	go func() {
		logger.Info("server listening", "addr", cfg.BindAddr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("listen error: %v", err)
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh
	logger.Info("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", "error", err)
	}
}
