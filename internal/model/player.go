package model

import "time"

// ConnectionID identifies one live transport connection
type ConnectionID string

// UserID uniquely identifies a registered user. Zero and negative values are invalid.
type UserID int64

// Valid reports whether the id could belong to a real user
func (id UserID) Valid() bool {
	return id > 0
}

// UserIdentity is the authenticated caller behind a request or connection
type UserIdentity struct {
	ID       UserID
	Username string
}

// User is a registered account
type User struct {
	ID           UserID
	Username     string
	Email        string // login key (unique)
	PasswordHash string // bcrypt hash
	CreatedAt    time.Time
}

// Identity returns the public identity for the user
func (u *User) Identity() UserIdentity {
	return UserIdentity{ID: u.ID, Username: u.Username}
}
