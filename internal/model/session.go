package model

import "time"

// SessionID uniquely identifies a head-to-head session
type SessionID string

// SessionStatus represents the lifecycle phase of a session
type SessionStatus string

const (
	SessionStatusOpen       SessionStatus = "open"       // Accepting score submissions
	SessionStatusFinalizing SessionStatus = "finalizing" // Finalization triggered, no further changes
)

// PlayerSlot is one player's mutable state within a session
type PlayerSlot struct {
	UserID     UserID
	Username   string
	Connection ConnectionID
	Score      int
	Submitted  bool
}

// Session is one in-progress quiz match between two users
type Session struct {
	ID        SessionID
	Players   [2]PlayerSlot
	Deadline  time.Time
	Content   *Content
	Status    SessionStatus
	CreatedAt time.Time
}

// SlotFor returns the index of the slot occupied by the user, or -1
func (s *Session) SlotFor(userID UserID) int {
	for i := range s.Players {
		if s.Players[i].UserID == userID {
			return i
		}
	}
	return -1
}

// BothSubmitted returns true once both players have submitted a score
func (s *Session) BothSubmitted() bool {
	return s.Players[0].Submitted && s.Players[1].Submitted
}

// Expired returns true if the deadline has been reached
func (s *Session) Expired(now time.Time) bool {
	return !now.Before(s.Deadline)
}

// IsOpen returns true while the session still accepts submissions
func (s *Session) IsOpen() bool {
	return s.Status == SessionStatusOpen
}

// Outcome is the persisted result code of a session
type Outcome int

const (
	OutcomeTie        Outcome = 0
	OutcomePlayer1Win Outcome = 1
	OutcomePlayer2Win Outcome = 2
)

// String returns a human-readable label for the outcome
func (o Outcome) String() string {
	switch o {
	case OutcomePlayer1Win:
		return "player1_win"
	case OutcomePlayer2Win:
		return "player2_win"
	default:
		return "tie"
	}
}

// DetermineOutcome compares two scores. Only a strictly higher score wins.
func DetermineOutcome(score1, score2 int) Outcome {
	switch {
	case score1 > score2:
		return OutcomePlayer1Win
	case score2 > score1:
		return OutcomePlayer2Win
	default:
		return OutcomeTie
	}
}

// FinishReason records which trigger finalized a session
type FinishReason string

const (
	FinishBothSubmitted FinishReason = "both_submitted"
	FinishDeadline      FinishReason = "deadline"
	FinishDisconnect    FinishReason = "disconnect"
)

// SessionResult is the durable record of a finished session
type SessionResult struct {
	SessionID  SessionID
	User1ID    UserID
	User2ID    UserID
	User1Score int
	User2Score int
	Outcome    Outcome
	Reason     FinishReason
	FinishedAt time.Time
}

// Winner returns the winning user id, or 0 for a tie
func (r *SessionResult) Winner() UserID {
	switch r.Outcome {
	case OutcomePlayer1Win:
		return r.User1ID
	case OutcomePlayer2Win:
		return r.User2ID
	default:
		return 0
	}
}

// MatchmakingStatus is a point-in-time view of the orchestrator
type MatchmakingStatus struct {
	Queued         int
	ActiveSessions int
	Locked         bool
	CooldownUntil  time.Time
}
