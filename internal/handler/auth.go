package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/oraculo/oraculo/internal/handler/dto"
	"github.com/oraculo/oraculo/internal/middleware"
	"github.com/oraculo/oraculo/internal/service"
)

// AuthHandler handles registration, login and logout.
type AuthHandler struct {
	svc        *service.AccountService
	logger     *slog.Logger
	sessionTTL time.Duration
	secure     bool
}

// NewAuthHandler creates a new AuthHandler. secure controls the Secure flag
// on the session cookie; disable it only in development.
func NewAuthHandler(svc *service.AccountService, logger *slog.Logger, sessionTTL time.Duration, secure bool) *AuthHandler {
	return &AuthHandler{
		svc:        svc,
		logger:     logger,
		sessionTTL: sessionTTL,
		secure:     secure,
	}
}

// Signup handles POST /auth/signup.
func (h *AuthHandler) Signup(w http.ResponseWriter, r *http.Request) {
	var req dto.SignupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "INVALID_JSON", "Invalid request body")
		return
	}

	user, token, err := h.svc.Signup(r.Context(), req.Email, req.Password)
	if err != nil {
		h.handleAccountError(w, err)
		return
	}

	h.logger.Info("user_registered",
		"user_id", user.ID,
		"tokens_granted", user.Tokens,
	)

	h.setSessionCookie(w, token)
	writeJSON(w, http.StatusCreated, dto.AuthResponse{User: dto.ToUserProfile(user)})
}

// Login handles POST /auth/login.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req dto.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "INVALID_JSON", "Invalid request body")
		return
	}

	user, token, err := h.svc.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		h.handleAccountError(w, err)
		return
	}

	h.logger.Info("user_logged_in", "user_id", user.ID)

	h.setSessionCookie(w, token)
	writeJSON(w, http.StatusOK, dto.AuthResponse{User: dto.ToUserProfile(user)})
}

// Logout handles POST /auth/logout. Revokes the session and clears the cookie.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	token := middleware.ExtractSessionToken(r)
	if token != "" {
		if err := h.svc.Logout(r.Context(), token); err != nil {
			h.logger.Error("logout_failed", "error", err)
		}
	}

	h.clearSessionCookie(w)
	w.WriteHeader(http.StatusNoContent)
}

// handleAccountError maps account service errors to HTTP responses.
func (h *AuthHandler) handleAccountError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, service.ErrInvalidEmail):
		h.writeError(w, http.StatusBadRequest, "INVALID_EMAIL", "Invalid email address")
	case errors.Is(err, service.ErrPasswordTooShort):
		h.writeError(w, http.StatusBadRequest, "PASSWORD_TOO_SHORT", "Password must be at least 8 characters")
	case errors.Is(err, service.ErrEmailTaken):
		h.writeError(w, http.StatusConflict, "EMAIL_TAKEN", "Email already registered")
	case errors.Is(err, service.ErrInvalidCredentials):
		// Same response for bad password and unknown email to prevent enumeration
		h.writeError(w, http.StatusUnauthorized, "INVALID_CREDENTIALS", "Invalid email or password")
	default:
		h.logger.Error("internal_error", "error", err)
		h.writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "An internal error occurred")
	}
}

func (h *AuthHandler) setSessionCookie(w http.ResponseWriter, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     middleware.SessionCookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(h.sessionTTL.Seconds()),
		HttpOnly: true,
		Secure:   h.secure,
		SameSite: http.SameSiteLaxMode,
	})
}

func (h *AuthHandler) clearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     middleware.SessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// writeError writes an error response.
func (h *AuthHandler) writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, dto.ErrorResponse{
		Error: message,
		Code:  code,
	})
}
