package request

// RegisterRequest is the request body for creating an account
type RegisterRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginRequest is the request body for logging in
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// QueueRequest optionally carries the socket id in the body instead of the query
type QueueRequest struct {
	SocketID string `json:"socketId"`
}

// SubmitScoreRequest is the request body for reporting a final score
type SubmitScoreRequest struct {
	SocketID       string `json:"socketId"`
	Score          *int   `json:"score"`
	CompletionTime int64  `json:"completionTime,omitempty"`
}
