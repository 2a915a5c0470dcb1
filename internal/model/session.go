package model

import "time"

// Session identifies a signed-in user for the duration of a browser session.
// The session token itself is opaque; only its hash is used as the Redis key.
type Session struct {
	UserID    string    `json:"user_id"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`
}
