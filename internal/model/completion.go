package model

import "time"

// Completion is one historical prompt submission and its answer.
// Records are append-only: created exactly once per successful submission,
// never updated or deleted afterwards.
type Completion struct {
	ID        string    `json:"id"`      // ULID (time-sortable)
	UserID    string    `json:"user_id"` // FK to users.id
	Prompt    string    `json:"prompt"`
	Tokens    int64     `json:"tokens"` // Requested token budget, debited from the owner
	Answer    string    `json:"answer"` // May be empty if the provider returned no text
	CreatedAt time.Time `json:"created_at"`
}

// CompletionListItem is the projection used by the history listing:
// just enough to render the recent-prompts list.
type CompletionListItem struct {
	ID     string `json:"id"`
	Prompt string `json:"prompt"`
}
