// Package dto provides Data Transfer Objects for API requests and responses.
package dto

import (
	"github.com/oraculo/oraculo/internal/model"
)

// SubmitCompletionRequest represents the request body for submitting a prompt.
// Tokens is a string because it arrives straight from a form field.
type SubmitCompletionRequest struct {
	Prompt string `json:"prompt"`
	Tokens string `json:"tokens"`
}

// CompletionResponse represents a stored completion in API responses.
type CompletionResponse struct {
	ID     string `json:"id"`
	Prompt string `json:"prompt"`
	Tokens int64  `json:"tokens"`
	Answer string `json:"answer"`
}

// UserBalance carries the remaining token balance after a submission.
type UserBalance struct {
	Tokens int64 `json:"tokens"`
}

// FieldErrors reports per-field validation failures. At most one field is
// populated; the other stays null.
type FieldErrors struct {
	Tokens *string `json:"tokens"`
	Prompt *string `json:"prompt"`
}

// SubmitCompletionResponse is the submission outcome. On success Errors is
// null and the completion plus updated balance are set; on a validation
// failure only Errors is set.
type SubmitCompletionResponse struct {
	AddedCompletion *CompletionResponse `json:"added_completion,omitempty"`
	UpdatedUser     *UserBalance        `json:"updated_user,omitempty"`
	Errors          *FieldErrors        `json:"errors"`
}

// CompletionListItem is one entry of the recent-submissions listing.
type CompletionListItem struct {
	ID     string `json:"id"`
	Prompt string `json:"prompt"`
}

// CompletionListResponse represents the recent-submissions view: the
// signed-in user plus their latest prompts, newest first.
type CompletionListResponse struct {
	User        *UserProfile         `json:"user"`
	Completions []CompletionListItem `json:"completions"`
}

// ErrorResponse represents a generic API error.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

// ToCompletionResponse converts a Completion model to its DTO.
func ToCompletionResponse(completion *model.Completion) *CompletionResponse {
	return &CompletionResponse{
		ID:     completion.ID,
		Prompt: completion.Prompt,
		Tokens: completion.Tokens,
		Answer: completion.Answer,
	}
}

// ToCompletionListResponse converts a user and their recent completions to
// the listing DTO. The completions slice is always non-nil in the response.
func ToCompletionListResponse(user *model.User, items []model.CompletionListItem) *CompletionListResponse {
	listed := make([]CompletionListItem, len(items))
	for i, item := range items {
		listed[i] = CompletionListItem{ID: item.ID, Prompt: item.Prompt}
	}
	return &CompletionListResponse{
		User:        ToUserProfile(user),
		Completions: listed,
	}
}
