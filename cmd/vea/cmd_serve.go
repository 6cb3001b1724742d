package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/cobra"

	"github.com/vea-app/vea/internal/functions"
	"github.com/vea-app/vea/internal/gateway"
	"github.com/vea-app/vea/internal/httpapi"
	"github.com/vea-app/vea/internal/media"
	"github.com/vea-app/vea/internal/orchestrator"
	"github.com/vea-app/vea/internal/store"
	"github.com/vea-app/vea/internal/types"
	"github.com/vea-app/vea/pkg/llm"
	"github.com/vea-app/vea/pkg/llm/openai"
)

func init() {
	rootCmd.AddCommand(serveCmd)
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the VEA daemon",
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg := loadConfig()
	setupLogging(cfg)

	if err := os.MkdirAll(cfg.DataDir, 0755); err != nil {
		return fmt.Errorf("create data dir: %w", err)
	}
	if cfg.Auth.Secret == "" {
		return fmt.Errorf("auth.secret is required (set VEA_AUTH_SECRET)")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Stores. Without a database the service runs memory-only: sessions and
	// business data vanish on restart, which is fine for development.
	var (
		sink      types.MessageStore
		dataStore types.DataStore
	)
	memory := store.NewMemory()
	sink, dataStore = memory, memory
	if cfg.DatabaseURL != "" {
		pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
		if err != nil {
			return fmt.Errorf("connect database: %w", err)
		}
		defer pool.Close()
		pg := store.NewPostgres(pool)
		if err := pg.EnsureSchema(ctx); err != nil {
			return fmt.Errorf("ensure schema: %w", err)
		}
		sink, dataStore = pg, pg
	} else {
		slog.Warn("no database configured, running memory-only")
	}
	sessions := store.NewSessions(sink, cfg.HistoryLimit)

	// LLM provider
	provider := openai.New(&llm.Config{
		BaseURL:     cfg.LLM.BaseURL,
		APIKey:      cfg.LLM.APIKey,
		Model:       cfg.LLM.Model,
		MaxTokens:   cfg.LLM.MaxTokens,
		Temperature: cfg.LLM.Temperature,
		Timeout:     time.Duration(cfg.LLM.TimeoutSeconds) * time.Second,
		NativeTools: cfg.LLM.NativeTools,
	})

	budget, err := orchestrator.NewHistoryBudget(cfg.LLM.Model, cfg.LLM.MaxContextTokens, cfg.LLM.OutputReserve)
	if err != nil {
		return fmt.Errorf("create history budget: %w", err)
	}

	// Function catalog over the data layer
	registry := functions.NewRegistry()
	dispatcher := functions.NewDispatcher(registry, dataStore)

	// Media generation
	var mediaGateway *media.Gateway
	var poller gateway.VideoWatcher
	if cfg.Media.APIKey != "" && cfg.Media.BaseURL != "" {
		mediaGateway = media.NewGateway(media.Config{
			BaseURL:           cfg.Media.BaseURL,
			APIKey:            cfg.Media.APIKey,
			ImageModel:        cfg.Media.ImageModel,
			ImageEditModel:    cfg.Media.ImageEditModel,
			VideoModel:        cfg.Media.VideoModel,
			ImagePollInterval: time.Duration(cfg.Media.ImagePollSeconds) * time.Second,
			ImagePollAttempts: cfg.Media.ImagePollAttempts,
		})
		poller = media.NewPoller(mediaGateway.Client(),
			time.Duration(cfg.Media.VideoPollSeconds)*time.Second,
			cfg.Media.VideoPollAttempts, sink)
	} else {
		slog.Warn("media generation disabled (no provider configured)")
	}

	orch := orchestrator.New(provider, registry, dispatcher, mediaGateway, budget)

	gw := gateway.New(sessions, sink, orch, poller, int64(cfg.MaxConcurrent))
	gw.Start(ctx)
	defer gw.Stop()

	slog.Info("vea started",
		"data_dir", cfg.DataDir,
		"log_level", cfg.LogLevel,
		"listen", cfg.Listen,
		"max_concurrent", cfg.MaxConcurrent,
		"llm_provider", cfg.LLM.Provider,
		"llm_model", cfg.LLM.Model,
		"native_tools", cfg.LLM.NativeTools,
		"media_enabled", mediaGateway != nil,
		"database", cfg.DatabaseURL != "",
	)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		slog.Info("shutting down")
		cancel()
	}()

	server := httpapi.New(gw, cfg.Auth.Secret, cfg.Listen)
	return server.Start(ctx)
}
