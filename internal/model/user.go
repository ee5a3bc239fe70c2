package model

import "time"

// User represents an identity resolved from a normalized email address.
type User struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`
}

// AuthContext holds the authenticated caller of a request.
// Populated by the session middleware from a verified session token.
type AuthContext struct {
	UserID string
	Email  string
}
