package api

import (
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/mcoot/quizarena/internal/api/handler"
	"github.com/mcoot/quizarena/internal/api/middleware"
	"github.com/mcoot/quizarena/internal/dependencies/clock"
	logmiddleware "github.com/mcoot/quizarena/internal/middleware"
	"github.com/mcoot/quizarena/internal/services/auth"
	"github.com/mcoot/quizarena/internal/services/content"
	"github.com/mcoot/quizarena/internal/services/leaderboard"
	"github.com/mcoot/quizarena/internal/services/matchmaking"
	"github.com/mcoot/quizarena/internal/transport"
)

// RouterConfig holds configuration for the API router
type RouterConfig struct {
	Logger             *slog.Logger
	Clock              clock.Clock
	AuthService        *auth.Service
	Orchestrator       *matchmaking.Orchestrator
	Hub                *transport.Hub
	LeaderboardService leaderboard.ServiceInterface
	ContentService     content.ServiceInterface
}

// NewRouter creates a new router with the API and transport endpoints configured
func NewRouter(cfg RouterConfig) http.Handler {
	r := mux.NewRouter()

	// Create handlers
	authHandler := handler.NewAuthHandler(cfg.AuthService)
	queueHandler := handler.NewQueueHandler(cfg.Orchestrator, cfg.Hub, cfg.Clock)
	sessionHandler := handler.NewSessionHandler(cfg.Orchestrator)
	leaderboardHandler := handler.NewLeaderboardHandler(cfg.LeaderboardService, cfg.ContentService)

	// Create middleware
	authMiddleware := middleware.Auth(cfg.AuthService)
	loggingMiddleware := logmiddleware.Logging(cfg.Logger)
	recoveryMiddleware := middleware.Recovery(cfg.Logger)

	r.Use(recoveryMiddleware)
	r.Use(loggingMiddleware)

	// Player connections
	r.HandleFunc("/ws", cfg.Hub.ServeWS).Methods(http.MethodGet)
	r.HandleFunc("/events", cfg.Hub.ServeSSE).Methods(http.MethodGet)

	api := r.PathPrefix("/api/v1").Subrouter()

	// Account routes (no auth required to register or log in)
	api.HandleFunc("/auth/register", authHandler.Register).Methods(http.MethodPost)
	api.HandleFunc("/auth/login", authHandler.Login).Methods(http.MethodPost)

	// Public read routes
	api.HandleFunc("/matchmaking/status", queueHandler.Status).Methods(http.MethodGet)
	api.HandleFunc("/leaderboard", leaderboardHandler.Leaderboard).Methods(http.MethodGet)
	api.HandleFunc("/results/{id}", leaderboardHandler.Result).Methods(http.MethodGet)
	api.HandleFunc("/topics", leaderboardHandler.Topics).Methods(http.MethodGet)
	api.HandleFunc("/health", healthHandler).Methods(http.MethodGet)

	// Protected routes
	protected := api.NewRoute().Subrouter()
	protected.Use(authMiddleware)
	protected.HandleFunc("/auth/me", authHandler.Me).Methods(http.MethodGet)
	protected.HandleFunc("/queue/join", queueHandler.Join).Methods(http.MethodGet, http.MethodPost)
	protected.HandleFunc("/queue/leave", queueHandler.Leave).Methods(http.MethodGet, http.MethodPost)
	protected.HandleFunc("/sessions/{id}", sessionHandler.Get).Methods(http.MethodGet)
	protected.HandleFunc("/sessions/{id}/score", sessionHandler.SubmitScore).Methods(http.MethodPost)

	return r
}

func healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`{"status":"ok"}`))
}
