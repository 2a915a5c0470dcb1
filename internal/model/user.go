// Package model defines domain entities for the application.
package model

import "time"

// User represents an account that owns a token balance and a completion history.
// The balance is mutated only through the repository's ledger methods; the rest
// of the application treats it as read-only.
type User struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"` // Argon2id PHC string, never serialized
	Tokens       int64     `json:"tokens"`
	CreatedAt    time.Time `json:"created_at"`
}
