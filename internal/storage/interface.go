package storage

import (
	"context"

	"github.com/mcoot/quizarena/internal/model"
)

// Storage defines the interface for data persistence
type Storage interface {
	// User operations

	// CreateUser assigns the next user id and stores the user.
	// Returns model.ErrUserExists if the email or username is taken.
	CreateUser(ctx context.Context, user *model.User) error
	GetUser(ctx context.Context, id model.UserID) (*model.User, error)
	GetUserByEmail(ctx context.Context, email string) (*model.User, error)

	// Content operations
	SaveTopic(ctx context.Context, topic *model.Topic) error
	GetTopic(ctx context.Context, id model.TopicID) (*model.Topic, error)
	ListTopics(ctx context.Context) ([]*model.Topic, error)
	// SaveQuestions replaces every question for the topic
	SaveQuestions(ctx context.Context, topicID model.TopicID, questions []model.Question) error
	GetQuestionsForTopic(ctx context.Context, topicID model.TopicID) ([]model.Question, error)

	// Result operations

	// SaveSessionResult stores the result and updates both players' standings.
	// Returns model.ErrResultExists if the session was already recorded.
	SaveSessionResult(ctx context.Context, result *model.SessionResult) error
	GetSessionResult(ctx context.Context, id model.SessionID) (*model.SessionResult, error)
	// GetLeaderboard returns up to limit entries, best first
	GetLeaderboard(ctx context.Context, limit int) ([]*model.LeaderboardEntry, error)
}
