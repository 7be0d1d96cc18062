package leaderboard

import (
	"context"
	"log/slog"

	"github.com/mcoot/quizarena/internal/model"
	"github.com/mcoot/quizarena/internal/storage"
)

const (
	// DefaultLimit is used when no limit is requested
	DefaultLimit = 50
	// MaxLimit caps a single leaderboard page
	MaxLimit = 500
)

// Service records finished sessions and serves standings
type Service struct {
	storage storage.Storage
	logger  *slog.Logger
}

// New creates a new leaderboard Service
func New(storage storage.Storage, logger *slog.Logger) *Service {
	return &Service{
		storage: storage,
		logger:  logger.With(slog.String("component", "leaderboard")),
	}
}

// RecordOutcome stores a finished session and updates both players' standings.
// Returns model.ErrResultExists if the session was already recorded.
func (s *Service) RecordOutcome(ctx context.Context, result *model.SessionResult) error {
	if !result.User1ID.Valid() || !result.User2ID.Valid() {
		return model.ErrInvalidPlayerIDs
	}
	if err := s.storage.SaveSessionResult(ctx, result); err != nil {
		return err
	}

	s.logger.Info("outcome recorded",
		slog.String("session_id", string(result.SessionID)),
		slog.Int64("user1_id", int64(result.User1ID)),
		slog.Int64("user2_id", int64(result.User2ID)),
		slog.String("outcome", result.Outcome.String()))
	return nil
}

// Leaderboard returns the best players first
func (s *Service) Leaderboard(ctx context.Context, limit int) ([]*model.LeaderboardEntry, error) {
	switch {
	case limit <= 0:
		limit = DefaultLimit
	case limit > MaxLimit:
		limit = MaxLimit
	}
	return s.storage.GetLeaderboard(ctx, limit)
}

// Result returns the recorded outcome of a session
func (s *Service) Result(ctx context.Context, id model.SessionID) (*model.SessionResult, error) {
	return s.storage.GetSessionResult(ctx, id)
}

// ServiceInterface is the leaderboard API used by handlers and the orchestrator
type ServiceInterface interface {
	RecordOutcome(ctx context.Context, result *model.SessionResult) error
	Leaderboard(ctx context.Context, limit int) ([]*model.LeaderboardEntry, error)
	Result(ctx context.Context, id model.SessionID) (*model.SessionResult, error)
}

var _ ServiceInterface = (*Service)(nil)
