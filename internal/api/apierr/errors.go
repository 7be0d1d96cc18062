package apierr

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/mcoot/quizarena/internal/model"
	"github.com/mcoot/quizarena/internal/services/auth"
)

// APIError represents an API error response
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ErrorResponse wraps an APIError
type ErrorResponse struct {
	Error APIError `json:"error"`
}

// Common error codes
const (
	CodeInvalidRequest         = "INVALID_REQUEST"
	CodeUnauthorized           = "UNAUTHORIZED"
	CodeAlreadyInMatch         = "ALREADY_IN_MATCH"
	CodeMissingConnection      = "MISSING_CONNECTION"
	CodeCannotLeaveActiveMatch = "CANNOT_LEAVE_ACTIVE_MATCH"
	CodeNotQueued              = "NOT_QUEUED"
	CodeConnectionInUse        = "CONNECTION_IN_USE"
	CodeSessionNotFound        = "SESSION_NOT_FOUND"
	CodeUserNotInSession       = "USER_NOT_IN_SESSION"
	CodeInvalidScore           = "INVALID_SCORE"
	CodeResultNotFound         = "RESULT_NOT_FOUND"
	CodeUserNotFound           = "USER_NOT_FOUND"
	CodeUserExists             = "USER_EXISTS"
	CodeInvalidCredentials     = "INVALID_CREDENTIALS"
	CodeUnavailable            = "UNAVAILABLE"
	CodeInternalError          = "INTERNAL_ERROR"
)

// httpError combines an HTTP status code with an APIError
type httpError struct {
	status   int
	apiError APIError
}

// Error implements error interface
func (e *httpError) Error() string {
	return e.apiError.Message
}

// WriteError writes an error response to the response writer
func WriteError(w http.ResponseWriter, err error) {
	he := toHTTPError(err)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(he.status)
	_ = json.NewEncoder(w).Encode(ErrorResponse{Error: he.apiError})
}

// toHTTPError converts an error to an httpError
func toHTTPError(err error) *httpError {
	var he *httpError
	if errors.As(err, &he) {
		return he
	}

	switch {
	// Admission
	case errors.Is(err, model.ErrAlreadyInMatch):
		return &httpError{http.StatusConflict, APIError{CodeAlreadyInMatch, "Already in a match"}}
	case errors.Is(err, model.ErrMissingConnection), errors.Is(err, model.ErrConnectionClosed):
		return &httpError{http.StatusBadRequest, APIError{CodeMissingConnection, "A live socketId is required"}}
	case errors.Is(err, model.ErrUnauthorized):
		return &httpError{http.StatusUnauthorized, APIError{CodeUnauthorized, "Authentication required"}}
	case errors.Is(err, model.ErrCannotLeaveActiveMatch):
		return &httpError{http.StatusConflict, APIError{CodeCannotLeaveActiveMatch, "Cannot leave an active match"}}
	case errors.Is(err, model.ErrConnectionInUse):
		return &httpError{http.StatusConflict, APIError{CodeConnectionInUse, "The socketId belongs to another user"}}
	case errors.Is(err, model.ErrNotQueued):
		return &httpError{http.StatusNotFound, APIError{CodeNotQueued, "Not in the queue"}}

	// Sessions
	case errors.Is(err, model.ErrSessionNotFound):
		return &httpError{http.StatusNotFound, APIError{CodeSessionNotFound, "Session not found"}}
	case errors.Is(err, model.ErrUserNotInSession):
		return &httpError{http.StatusForbidden, APIError{CodeUserNotInSession, "Not a player in this session"}}
	case errors.Is(err, model.ErrInvalidScore):
		return &httpError{http.StatusBadRequest, APIError{CodeInvalidScore, "Score must not be negative"}}
	case errors.Is(err, model.ErrResultNotFound):
		return &httpError{http.StatusNotFound, APIError{CodeResultNotFound, "Result not found"}}
	case errors.Is(err, model.ErrOrchestratorStopped):
		return &httpError{http.StatusServiceUnavailable, APIError{CodeUnavailable, "Matchmaking is unavailable"}}

	// Users
	case errors.Is(err, model.ErrUserNotFound):
		return &httpError{http.StatusNotFound, APIError{CodeUserNotFound, "User not found"}}
	case errors.Is(err, model.ErrUserExists):
		return &httpError{http.StatusConflict, APIError{CodeUserExists, "User already exists"}}

	// Auth
	case errors.Is(err, auth.ErrInvalidCredentials):
		return &httpError{http.StatusUnauthorized, APIError{CodeInvalidCredentials, "Invalid email or password"}}
	case errors.Is(err, auth.ErrInvalidToken):
		return &httpError{http.StatusUnauthorized, APIError{CodeUnauthorized, "Invalid or expired token"}}
	case errors.Is(err, auth.ErrMissingFields):
		return &httpError{http.StatusBadRequest, APIError{CodeInvalidRequest, "All fields are required"}}

	default:
		return &httpError{http.StatusInternalServerError, APIError{CodeInternalError, "Internal server error"}}
	}
}

// NewInvalidRequestError creates an invalid request error
func NewInvalidRequestError(message string) error {
	return &httpError{http.StatusBadRequest, APIError{CodeInvalidRequest, message}}
}

// NewUnauthorizedError creates an unauthorized error
func NewUnauthorizedError() error {
	return &httpError{http.StatusUnauthorized, APIError{CodeUnauthorized, "Authentication required"}}
}

// NewInternalError creates an internal server error
func NewInternalError() error {
	return &httpError{http.StatusInternalServerError, APIError{CodeInternalError, "Internal server error"}}
}
