package model

// EventType names a message exchanged over a player connection
type EventType string

const (
	// Outbound events
	EventConnected EventType = "connected"
	EventQueued    EventType = "queued"
	EventGameStart EventType = "game_start"
	EventGameEnd   EventType = "game_end"
	EventError     EventType = "error"

	// Inbound events
	EventSubmitScore EventType = "game_end" // Client reports its final score
	EventPing        EventType = "ping"
	EventPong        EventType = "pong"
)

// ConnectedPayload tells a client which connection id to pass to the queue endpoints
type ConnectedPayload struct {
	SocketID ConnectionID `json:"socketId"`
}

// QueuedPayload acknowledges a join
type QueuedPayload struct {
	Message string `json:"message"`
}

// GameStartPayload is delivered to both players when a session starts
type GameStartPayload struct {
	GameID    SessionID  `json:"gameId"`
	Message   string     `json:"message"`
	Questions []Question `json:"questions"`
	Topic     Topic      `json:"topic"`
	Deadline  int64      `json:"deadline"` // Unix milliseconds
}

// GameEndPayload is delivered to both players when a session is finalized
type GameEndPayload struct {
	GameID  SessionID    `json:"gameId"`
	Message string       `json:"message"`
	Outcome Outcome      `json:"outcome"`
	Reason  FinishReason `json:"reason"`
	Scores  [2]int       `json:"scores"`
	Players [2]UserID    `json:"players"`
}

// SubmitScorePayload is the inbound score submission
type SubmitScorePayload struct {
	GameID         SessionID `json:"gameId"`
	Score          int       `json:"score"`
	CompletionTime int64     `json:"completionTime,omitempty"`
}

// ErrorPayload reports a rejected inbound message
type ErrorPayload struct {
	Message string `json:"message"`
}
