package response

import (
	"time"

	"github.com/mcoot/quizarena/internal/model"
	"github.com/mcoot/quizarena/internal/services/auth"
)

// User represents an account in API responses
type User struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email,omitempty"`
}

// UserFromModel converts a model.User to a response User
func UserFromModel(u *model.User) User {
	return User{
		ID:       int64(u.ID),
		Username: u.Username,
		Email:    u.Email,
	}
}

// UserFromIdentity converts a token identity to a response User
func UserFromIdentity(id *model.UserIdentity) User {
	return User{
		ID:       int64(id.ID),
		Username: id.Username,
	}
}

// AuthResponse is the response for the login endpoint
type AuthResponse struct {
	Message   string    `json:"message"`
	Token     string    `json:"token"`
	User      User      `json:"user"`
	ExpiresAt time.Time `json:"expires_at"`
}

// AuthResponseFromSession creates an AuthResponse from an issued token
func AuthResponseFromSession(s *auth.Session) AuthResponse {
	return AuthResponse{
		Message: "Login successful",
		Token:   s.Token,
		User: User{
			ID:       int64(s.User.ID),
			Username: s.User.Username,
			Email:    s.Email,
		},
		ExpiresAt: s.ExpiresAt,
	}
}

// RegisterResponse is the response for the register endpoint
type RegisterResponse struct {
	Message string `json:"message"`
	User    User   `json:"user"`
}

// Message is a plain acknowledgement
type Message struct {
	Message string `json:"message"`
}

// Player is one seat in a session
type Player struct {
	UserID    int64  `json:"user_id"`
	Username  string `json:"username"`
	Score     int    `json:"score"`
	Submitted bool   `json:"submitted"`
}

// Session represents a live session
type Session struct {
	ID        string      `json:"id"`
	Status    string      `json:"status"`
	Topic     model.Topic `json:"topic"`
	Players   [2]Player   `json:"players"`
	Deadline  time.Time   `json:"deadline"`
	CreatedAt time.Time   `json:"created_at"`
}

// SessionFromModel converts a model.Session
func SessionFromModel(s *model.Session) Session {
	resp := Session{
		ID:        string(s.ID),
		Status:    string(s.Status),
		Deadline:  s.Deadline,
		CreatedAt: s.CreatedAt,
	}
	if s.Content != nil {
		resp.Topic = s.Content.Topic
	}
	for i, p := range s.Players {
		resp.Players[i] = Player{
			UserID:    int64(p.UserID),
			Username:  p.Username,
			Score:     p.Score,
			Submitted: p.Submitted,
		}
	}
	return resp
}

// Result represents a recorded session outcome
type Result struct {
	SessionID  string    `json:"session_id"`
	Players    [2]int64  `json:"players"`
	Scores     [2]int    `json:"scores"`
	Outcome    string    `json:"outcome"`
	Winner     *int64    `json:"winner"`
	Reason     string    `json:"reason"`
	FinishedAt time.Time `json:"finished_at"`
}

// ResultFromModel converts a model.SessionResult
func ResultFromModel(r *model.SessionResult) Result {
	resp := Result{
		SessionID:  string(r.SessionID),
		Players:    [2]int64{int64(r.User1ID), int64(r.User2ID)},
		Scores:     [2]int{r.User1Score, r.User2Score},
		Outcome:    r.Outcome.String(),
		Reason:     string(r.Reason),
		FinishedAt: r.FinishedAt,
	}
	if winner := r.Winner(); winner.Valid() {
		id := int64(winner)
		resp.Winner = &id
	}
	return resp
}

// LeaderboardEntry is one ranked row
type LeaderboardEntry struct {
	Rank     int    `json:"rank"`
	UserID   int64  `json:"user_id"`
	Username string `json:"username"`
	Points   int    `json:"points"`
	Wins     int    `json:"wins"`
	Losses   int    `json:"losses"`
	Draws    int    `json:"draws"`
	Played   int    `json:"played"`
}

// LeaderboardResponse wraps the ranked rows
type LeaderboardResponse struct {
	Entries []LeaderboardEntry `json:"entries"`
}

// LeaderboardFromModel ranks entries in the order given
func LeaderboardFromModel(entries []*model.LeaderboardEntry) LeaderboardResponse {
	resp := LeaderboardResponse{Entries: make([]LeaderboardEntry, len(entries))}
	for i, e := range entries {
		resp.Entries[i] = LeaderboardEntry{
			Rank:     i + 1,
			UserID:   int64(e.UserID),
			Username: e.Username,
			Points:   e.Points,
			Wins:     e.Wins,
			Losses:   e.Losses,
			Draws:    e.Draws,
			Played:   e.Played(),
		}
	}
	return resp
}

// TopicsResponse lists the available topics
type TopicsResponse struct {
	Topics []model.Topic `json:"topics"`
}

// TopicsFromModel converts topic pointers
func TopicsFromModel(topics []*model.Topic) TopicsResponse {
	resp := TopicsResponse{Topics: make([]model.Topic, len(topics))}
	for i, t := range topics {
		resp.Topics[i] = *t
	}
	return resp
}

// MatchmakingStatus is the live queue snapshot
type MatchmakingStatus struct {
	Queued         int        `json:"queued"`
	ActiveSessions int        `json:"active_sessions"`
	Starting       bool       `json:"starting"`
	CooldownUntil  *time.Time `json:"cooldown_until,omitempty"`
	Connections    int        `json:"connections"`
}

// MatchmakingStatusFromModel converts a status snapshot. A cooldown that has
// already elapsed at now is omitted.
func MatchmakingStatusFromModel(s model.MatchmakingStatus, connections int, now time.Time) MatchmakingStatus {
	resp := MatchmakingStatus{
		Queued:         s.Queued,
		ActiveSessions: s.ActiveSessions,
		Starting:       s.Locked,
		Connections:    connections,
	}
	if s.CooldownUntil.After(now) {
		until := s.CooldownUntil
		resp.CooldownUntil = &until
	}
	return resp
}
