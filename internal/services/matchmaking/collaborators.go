package matchmaking

import (
	"context"

	"github.com/mcoot/quizarena/internal/model"
)

// ContentFetcher loads the questions for a topic
type ContentFetcher interface {
	FetchContent(ctx context.Context, topic model.TopicID) (*model.Content, error)
}

// OutcomeRecorder durably stores a finished session
type OutcomeRecorder interface {
	RecordOutcome(ctx context.Context, result *model.SessionResult) error
}

// Emitter delivers an event to a single connection. Delivery to a connection
// that is no longer open fails with an error wrapping model.ErrConnectionClosed.
type Emitter interface {
	Emit(conn model.ConnectionID, event model.EventType, payload any) error
}
