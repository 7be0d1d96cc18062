package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/mcoot/quizarena/internal/api"
	"github.com/mcoot/quizarena/internal/config"
	"github.com/mcoot/quizarena/internal/factory"
	"github.com/mcoot/quizarena/internal/services/auth"
	"github.com/mcoot/quizarena/internal/services/matchmaking"
	redisstorage "github.com/mcoot/quizarena/internal/storage/redis"
	"github.com/mcoot/quizarena/internal/transport"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("invalid configuration", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// Set up logging with JSON output
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: cfg.Level(),
	}))
	slog.SetDefault(logger)

	// Handle graceful shutdown
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// Build factory config from environment
	factoryCfg := factory.Config{
		Logger:          logger,
		StorageType:     cfg.StorageType,
		SQLitePath:      cfg.SQLitePath,
		ContentSeedPath: cfg.ContentSeedPath,
		AuthConfig: auth.Config{
			Secret:   cfg.JWTSecret,
			TokenTTL: cfg.TokenTTL,
		},
		MatchmakingConfig: matchmaking.Config{
			MatchDuration:       cfg.MatchDuration,
			Cooldown:            cfg.Cooldown,
			TopicCount:          cfg.TopicCount,
			ContentFetchTimeout: cfg.ContentFetchTimeout,
		},
		TransportConfig: transport.Config{
			MessagesPerSecond: cfg.MessagesPerSecond,
			MessageBurst:      cfg.MessageBurst,
		},
	}
	if cfg.StorageType == config.StorageRedis {
		redisCfg := redisstorage.DefaultConfig()
		redisCfg.URL = cfg.RedisURL
		factoryCfg.RedisConfig = &redisCfg
	}

	// Create application factory
	app, err := factory.New(ctx, factoryCfg)
	if err != nil {
		logger.Error("failed to create application", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer func() {
		if err := app.Close(); err != nil {
			logger.Warn("failed to close storage", slog.String("error", err.Error()))
		}
	}()

	// Run the matchmaking loop
	orchestratorErr := make(chan error, 1)
	go func() {
		orchestratorErr <- app.Orchestrator.Run(ctx)
	}()

	router := api.NewRouter(api.RouterConfig{
		Logger:             logger,
		Clock:              app.Clock,
		AuthService:        app.AuthService,
		Orchestrator:       app.Orchestrator,
		Hub:                app.Hub,
		LeaderboardService: app.LeaderboardService,
		ContentService:     app.ContentService,
	})

	// Create server
	serverConfig := api.DefaultServerConfig()
	serverConfig.Host = cfg.Host
	serverConfig.Port = cfg.Port
	server := api.NewServer(router, serverConfig, logger)
	server.OnShutdown(app.Hub.Close)

	// Start server in goroutine
	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()

	logger.Info("server started", slog.String("addr", server.Addr()))

	// Wait for shutdown or error
	exitCode := 0
	select {
	case err := <-errCh:
		if err != nil {
			logger.Error("server error", slog.String("error", err.Error()))
			exitCode = 1
		}
	case <-ctx.Done():
		logger.Info("shutdown signal received")
		if err := server.Shutdown(context.Background()); err != nil {
			logger.Error("shutdown error", slog.String("error", err.Error()))
			exitCode = 1
		}
	}

	// Stop matchmaking and wait for in-flight results to be written
	cancel()
	if err := <-orchestratorErr; err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("matchmaking stopped with error", slog.String("error", err.Error()))
		exitCode = 1
	}

	logger.Info("server stopped")
	if exitCode != 0 {
		_ = app.Close()
		os.Exit(exitCode)
	}
}
