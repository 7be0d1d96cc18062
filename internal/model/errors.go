package model

import "errors"

// Common errors used across the application
var (
	// Admission errors
	ErrAlreadyInMatch         = errors.New("user is already in a match")
	ErrMissingConnection      = errors.New("missing connection id")
	ErrUnauthorized           = errors.New("unauthorized")
	ErrCannotLeaveActiveMatch = errors.New("cannot leave an active match")
	ErrNotQueued              = errors.New("connection is not queued")
	ErrConnectionClosed       = errors.New("connection is closed")
	ErrConnectionInUse        = errors.New("connection belongs to another user")

	// Matchmaking errors
	ErrInsufficientPlayers      = errors.New("insufficient players to start a session")
	ErrIdentityResolutionFailed = errors.New("could not resolve player identity")
	ErrContentFetchFailed       = errors.New("could not fetch match content")
	ErrOrchestratorStopped      = errors.New("matchmaking orchestrator is not running")

	// Session errors
	ErrSessionNotFound  = errors.New("session not found")
	ErrUserNotInSession = errors.New("user is not part of this session")
	ErrInvalidScore     = errors.New("score must not be negative")
	ErrResultExists     = errors.New("session result already recorded")
	ErrResultNotFound   = errors.New("session result not found")
	ErrInvalidPlayerIDs = errors.New("session has invalid player ids")

	// User errors
	ErrUserNotFound = errors.New("user not found")
	ErrUserExists   = errors.New("user already exists")

	// Content errors
	ErrTopicNotFound   = errors.New("topic not found")
	ErrContentNotFound = errors.New("no content for topic")
)
