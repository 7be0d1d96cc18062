package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"time"
)

// Output handles formatting output based on the configured format
type Output struct {
	format string
}

// NewOutput creates a new Output formatter
func NewOutput(format string) *Output {
	return &Output{format: format}
}

// JSON reports whether machine-readable output was requested
func (o *Output) JSON() bool {
	return o.format == "json"
}

// Print outputs data in the configured format
func (o *Output) Print(data any) {
	if o.JSON() {
		o.printJSON(data)
	} else {
		o.printText(data)
	}
}

// PrintError outputs an error
func (o *Output) PrintError(err error) {
	if o.JSON() {
		errData := map[string]any{
			"error": map[string]string{
				"message": err.Error(),
			},
		}
		data, _ := json.Marshal(errData)
		fmt.Fprintln(os.Stderr, string(data))
	} else {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
	}
}

// PrintMessage outputs a simple message
func (o *Output) PrintMessage(msg string) {
	if o.JSON() {
		data, _ := json.Marshal(map[string]string{"message": msg})
		fmt.Println(string(data))
	} else {
		fmt.Println(msg)
	}
}

// Progress prints a status line in text mode only
func (o *Output) Progress(format string, args ...any) {
	if !o.JSON() {
		fmt.Printf(format+"\n", args...)
	}
}

func (o *Output) printJSON(data any) {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	_ = enc.Encode(data)
}

func (o *Output) printText(data any) {
	switch v := data.(type) {
	case User:
		o.printUser(v)
	case AuthResult:
		o.printAuthResult(v)
	case RegisterResult:
		o.printRegisterResult(v)
	case Leaderboard:
		o.printLeaderboard(v)
	case Result:
		o.printResult(v)
	case Topics:
		o.printTopics(v)
	case Status:
		o.printStatus(v)
	case PlayResult:
		o.printPlayResult(v)
	case HealthResult:
		o.printHealthResult(v)
	default:
		// Fallback to JSON for unknown types
		o.printJSON(data)
	}
}

// User response type (matches API)
type User struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email,omitempty"`
}

// AuthResult is the login response
type AuthResult struct {
	Message   string    `json:"message"`
	Token     string    `json:"token"`
	User      User      `json:"user"`
	ExpiresAt time.Time `json:"expires_at"`
}

// RegisterResult is the register response
type RegisterResult struct {
	Message string `json:"message"`
	User    User   `json:"user"`
}

// Message is a plain acknowledgement
type Message struct {
	Message string `json:"message"`
}

// LeaderboardEntry response type
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

// Leaderboard response type
type Leaderboard struct {
	Entries []LeaderboardEntry `json:"entries"`
}

// Result response type
type Result struct {
	SessionID  string    `json:"session_id"`
	Players    [2]int64  `json:"players"`
	Scores     [2]int    `json:"scores"`
	Outcome    string    `json:"outcome"`
	Winner     *int64    `json:"winner"`
	Reason     string    `json:"reason"`
	FinishedAt time.Time `json:"finished_at"`
}

// Topic response type
type Topic struct {
	ID          int    `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

// Topics response type
type Topics struct {
	Topics []Topic `json:"topics"`
}

// Status response type
type Status struct {
	Queued         int        `json:"queued"`
	ActiveSessions int        `json:"active_sessions"`
	Starting       bool       `json:"starting"`
	CooldownUntil  *time.Time `json:"cooldown_until,omitempty"`
	Connections    int        `json:"connections"`
}

// HealthResult response type
type HealthResult struct {
	Status    string `json:"status"`
	LatencyMS int64  `json:"latency_ms"`
}

// PlayResult summarises a finished match from the caller's seat
type PlayResult struct {
	GameID    string   `json:"game_id"`
	Topic     string   `json:"topic"`
	Result    string   `json:"result"` // won, lost or tie
	Reason    string   `json:"reason"`
	Scores    [2]int   `json:"scores"`
	Players   [2]int64 `json:"players"`
	Seat      int      `json:"seat"`
	Questions int      `json:"questions"`
}

func (o *Output) printUser(u User) {
	fmt.Printf("User: %s (%d)\n", u.Username, u.ID)
	if u.Email != "" {
		fmt.Printf("Email: %s\n", u.Email)
	}
}

func (o *Output) printAuthResult(a AuthResult) {
	o.printUser(a.User)
	fmt.Printf("Token: %s\n", a.Token)
	fmt.Printf("Expires: %s\n", a.ExpiresAt.Format(time.RFC3339))
}

func (o *Output) printRegisterResult(r RegisterResult) {
	fmt.Println(r.Message)
	o.printUser(r.User)
}

func (o *Output) printLeaderboard(l Leaderboard) {
	if len(l.Entries) == 0 {
		fmt.Println("No results yet")
		return
	}
	fmt.Printf("%-4s %-20s %6s %4s %4s %4s\n", "#", "Player", "Points", "W", "L", "D")
	for _, e := range l.Entries {
		name := e.Username
		if name == "" {
			name = fmt.Sprintf("user %d", e.UserID)
		}
		fmt.Printf("%-4d %-20s %6d %4d %4d %4d\n", e.Rank, name, e.Points, e.Wins, e.Losses, e.Draws)
	}
}

func (o *Output) printResult(r Result) {
	fmt.Printf("Session: %s\n", r.SessionID)
	fmt.Printf("Players: %d vs %d\n", r.Players[0], r.Players[1])
	fmt.Printf("Scores: %d - %d\n", r.Scores[0], r.Scores[1])
	if r.Winner != nil {
		fmt.Printf("Winner: %d\n", *r.Winner)
	} else {
		fmt.Println("Winner: none (tie)")
	}
	fmt.Printf("Finished: %s (%s)\n", r.FinishedAt.Format(time.RFC3339), r.Reason)
}

func (o *Output) printTopics(t Topics) {
	for _, topic := range t.Topics {
		fmt.Printf("%d. %s", topic.ID, topic.Name)
		if topic.Description != "" {
			fmt.Printf(" - %s", topic.Description)
		}
		fmt.Println()
	}
}

func (o *Output) printStatus(s Status) {
	fmt.Printf("Queued: %d\n", s.Queued)
	fmt.Printf("Active sessions: %d\n", s.ActiveSessions)
	fmt.Printf("Connections: %d\n", s.Connections)
	if s.Starting {
		fmt.Println("A session is starting")
	}
	if s.CooldownUntil != nil {
		fmt.Printf("Cooldown until: %s\n", s.CooldownUntil.Format(time.RFC3339))
	}
}

func (o *Output) printPlayResult(p PlayResult) {
	fmt.Printf("Game %s (%s) finished: you %s\n", p.GameID, p.Topic, p.Result)
	fmt.Printf("Scores: %d - %d (%s)\n", p.Scores[0], p.Scores[1], p.Reason)
}

func (o *Output) printHealthResult(h HealthResult) {
	fmt.Printf("Status: %s (%dms)\n", h.Status, h.LatencyMS)
}
