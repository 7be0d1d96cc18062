// Package config loads server configuration from the environment.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Storage backends
const (
	StorageMemory = "memory"
	StorageRedis  = "redis"
	StorageSQLite = "sqlite"
)

// Config is the server configuration
type Config struct {
	Host     string `env:"QUIZ_HOST"`
	Port     int    `env:"QUIZ_PORT" envDefault:"8080"`
	LogLevel string `env:"QUIZ_LOG_LEVEL" envDefault:"info"`

	StorageType string `env:"QUIZ_STORAGE_TYPE" envDefault:"memory"`
	RedisURL    string `env:"QUIZ_REDIS_URL"`
	SQLitePath  string `env:"QUIZ_SQLITE_PATH" envDefault:"quizarena.db"`

	JWTSecret string        `env:"QUIZ_JWT_SECRET"`
	TokenTTL  time.Duration `env:"QUIZ_TOKEN_TTL" envDefault:"24h"`

	MatchDuration       time.Duration `env:"QUIZ_MATCH_DURATION" envDefault:"135s"`
	Cooldown            time.Duration `env:"QUIZ_COOLDOWN" envDefault:"3s"`
	TopicCount          int           `env:"QUIZ_TOPIC_COUNT" envDefault:"5"`
	ContentFetchTimeout time.Duration `env:"QUIZ_CONTENT_FETCH_TIMEOUT" envDefault:"10s"`
	ContentSeedPath     string        `env:"QUIZ_CONTENT_SEED_PATH" envDefault:"data/topics.yaml"`

	MessagesPerSecond float64 `env:"QUIZ_WS_MESSAGES_PER_SECOND" envDefault:"5"`
	MessageBurst      int     `env:"QUIZ_WS_MESSAGE_BURST" envDefault:"10"`
}

// Load reads an optional .env file and parses the environment.
// Variables already set take precedence over the file.
func Load(files ...string) (Config, error) {
	if err := godotenv.Load(files...); err != nil && len(files) > 0 {
		return Config{}, fmt.Errorf("load env file: %w", err)
	}
	return Parse()
}

// Parse reads configuration from the environment only
func Parse() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks values env tags cannot express
func (c Config) Validate() error {
	switch c.StorageType {
	case StorageMemory, StorageSQLite:
	case StorageRedis:
		if c.RedisURL == "" {
			return errors.New("QUIZ_REDIS_URL required when QUIZ_STORAGE_TYPE=redis")
		}
	default:
		return fmt.Errorf("invalid QUIZ_STORAGE_TYPE %q: must be memory, redis or sqlite", c.StorageType)
	}
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("invalid QUIZ_PORT %d", c.Port)
	}
	if c.MatchDuration <= 0 {
		return errors.New("QUIZ_MATCH_DURATION must be positive")
	}
	if c.Cooldown < 0 {
		return errors.New("QUIZ_COOLDOWN must not be negative")
	}
	if c.TopicCount <= 0 {
		return errors.New("QUIZ_TOPIC_COUNT must be positive")
	}
	return nil
}

// Addr returns the listen address
func (c Config) Addr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

// Level returns the slog level named by LogLevel, defaulting to info
func (c Config) Level() slog.Level {
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
