package factory

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/mcoot/quizarena/internal/dependencies/clock"
	"github.com/mcoot/quizarena/internal/dependencies/random"
	"github.com/mcoot/quizarena/internal/services/auth"
	"github.com/mcoot/quizarena/internal/services/content"
	"github.com/mcoot/quizarena/internal/services/leaderboard"
	"github.com/mcoot/quizarena/internal/services/matchmaking"
	"github.com/mcoot/quizarena/internal/storage"
	"github.com/mcoot/quizarena/internal/storage/memory"
	redisstorage "github.com/mcoot/quizarena/internal/storage/redis"
	"github.com/mcoot/quizarena/internal/storage/sqlite"
	"github.com/mcoot/quizarena/internal/transport"
)

// Storage type constants
const (
	StorageTypeMemory = "memory"
	StorageTypeRedis  = "redis"
	StorageTypeSQLite = "sqlite"
)

// App contains all wired application components
type App struct {
	// Storage
	Storage storage.Storage

	// External dependencies
	Clock  clock.Clock
	Random random.Random

	// Services
	AuthService        *auth.Service
	ContentService     *content.Service
	LeaderboardService *leaderboard.Service
	Orchestrator       *matchmaking.Orchestrator
	Hub                *transport.Hub

	closer io.Closer
}

// Config holds configuration for the application factory
type Config struct {
	// AuthConfig holds configuration for the auth service (optional)
	AuthConfig auth.Config
	// MatchmakingConfig holds session timings (optional)
	MatchmakingConfig matchmaking.Config
	// TransportConfig holds per-connection limits (optional)
	TransportConfig transport.Config
	// ContentSeedPath is a YAML file of topics loaded at startup (optional)
	ContentSeedPath string
	// Logger is the application logger (optional)
	// If nil, a no-op logger is used
	Logger *slog.Logger
	// StorageType selects the storage backend ("memory", "redis" or "sqlite")
	// If empty, defaults to "memory"
	StorageType string
	// RedisConfig holds Redis connection settings (required if StorageType is "redis")
	RedisConfig *redisstorage.Config
	// SQLitePath is the database file (required if StorageType is "sqlite")
	SQLitePath string
}

// New creates a new application with all dependencies wired
func New(ctx context.Context, cfg Config) (*App, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}

	store, closer, err := openStorage(ctx, cfg)
	if err != nil {
		return nil, err
	}

	app := newWithDependencies(store, clock.New(), random.New(), cfg, logger)
	app.closer = closer

	if cfg.ContentSeedPath != "" {
		if err := app.ContentService.LoadFromFile(ctx, cfg.ContentSeedPath); err != nil {
			_ = app.Close()
			return nil, fmt.Errorf("seed content: %w", err)
		}
	}
	return app, nil
}

func openStorage(ctx context.Context, cfg Config) (storage.Storage, io.Closer, error) {
	storageType := cfg.StorageType
	if storageType == "" {
		storageType = StorageTypeMemory
	}

	switch storageType {
	case StorageTypeMemory:
		return memory.New(), nil, nil
	case StorageTypeRedis:
		if cfg.RedisConfig == nil {
			return nil, nil, errors.New("RedisConfig required when StorageType is redis")
		}
		store, err := redisstorage.New(*cfg.RedisConfig)
		if err != nil {
			return nil, nil, err
		}
		return store, store, nil
	case StorageTypeSQLite:
		if cfg.SQLitePath == "" {
			return nil, nil, errors.New("SQLitePath required when StorageType is sqlite")
		}
		store, err := sqlite.Open(ctx, cfg.SQLitePath)
		if err != nil {
			return nil, nil, err
		}
		return store, store, nil
	default:
		return nil, nil, errors.New("invalid StorageType: must be 'memory', 'redis' or 'sqlite'")
	}
}

// newWithDependencies creates an App with the given dependencies (useful for testing)
func newWithDependencies(store storage.Storage, clk clock.Clock, rnd random.Random, cfg Config, logger *slog.Logger) *App {
	authService := auth.New(store, clk, cfg.AuthConfig, logger)
	contentService := content.New(store, logger)
	leaderboardService := leaderboard.New(store, logger)
	hub := transport.NewHub(cfg.TransportConfig, rnd, clk, logger)
	orchestrator := matchmaking.New(cfg.MatchmakingConfig, contentService, leaderboardService, hub, clk, rnd, logger)
	hub.Attach(orchestrator)

	return &App{
		Storage:            store,
		Clock:              clk,
		Random:             rnd,
		AuthService:        authService,
		ContentService:     contentService,
		LeaderboardService: leaderboardService,
		Orchestrator:       orchestrator,
		Hub:                hub,
	}
}

// Close releases the storage backend
func (a *App) Close() error {
	if a.closer == nil {
		return nil
	}
	return a.closer.Close()
}
