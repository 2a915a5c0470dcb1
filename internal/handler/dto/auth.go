package dto

import (
	"github.com/oraculo/oraculo/internal/model"
)

// SignupRequest represents the request body for registration.
type SignupRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginRequest represents the request body for login.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// UserProfile represents the signed-in user in API responses.
type UserProfile struct {
	ID     string `json:"id"`
	Email  string `json:"email"`
	Tokens int64  `json:"tokens"`
}

// AuthResponse is returned by signup and login.
type AuthResponse struct {
	User *UserProfile `json:"user"`
}

// ToUserProfile converts a User model to its DTO.
func ToUserProfile(user *model.User) *UserProfile {
	return &UserProfile{
		ID:     user.ID,
		Email:  user.Email,
		Tokens: user.Tokens,
	}
}
