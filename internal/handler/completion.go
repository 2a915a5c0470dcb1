package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/oraculo/oraculo/internal/auth"
	"github.com/oraculo/oraculo/internal/handler/dto"
	"github.com/oraculo/oraculo/internal/service"
)

// CompletionHandler handles HTTP requests for prompt submissions.
type CompletionHandler struct {
	svc    *service.CompletionService
	logger *slog.Logger
}

// NewCompletionHandler creates a new CompletionHandler.
func NewCompletionHandler(svc *service.CompletionService, logger *slog.Logger) *CompletionHandler {
	return &CompletionHandler{
		svc:    svc,
		logger: logger,
	}
}

// Submit handles POST /api/v1/completions.
func (h *CompletionHandler) Submit(w http.ResponseWriter, r *http.Request) {
	session := auth.MustSessionFromContext(r.Context())

	var req dto.SubmitCompletionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "INVALID_JSON", "Invalid request body")
		return
	}

	result, err := h.svc.Submit(r.Context(), service.SubmitInput{
		UserID: session.UserID,
		Prompt: req.Prompt,
		Tokens: req.Tokens,
	})
	if err != nil {
		h.handleSubmitError(w, r, err)
		return
	}

	h.logger.Info("completion_created",
		"completion_id", result.Completion.ID,
		"user_id", session.UserID,
		"tokens_spent", result.Completion.Tokens,
		"balance_after", result.User.Tokens,
	)

	writeJSON(w, http.StatusOK, dto.SubmitCompletionResponse{
		AddedCompletion: dto.ToCompletionResponse(result.Completion),
		UpdatedUser:     &dto.UserBalance{Tokens: result.User.Tokens},
		Errors:          nil,
	})
}

// List handles GET /api/v1/completions. Returns the signed-in user and their
// most recent submissions, newest first.
func (h *CompletionHandler) List(w http.ResponseWriter, r *http.Request) {
	session := auth.MustSessionFromContext(r.Context())

	user, err := h.svc.CurrentUser(r.Context(), session.UserID)
	if err != nil {
		h.handleSubmitError(w, r, err)
		return
	}

	items, err := h.svc.ListRecent(r.Context(), session.UserID)
	if err != nil {
		h.handleSubmitError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.ToCompletionListResponse(user, items))
}

// handleSubmitError maps service errors to HTTP responses. Validation
// failures use the field-errors envelope; everything else gets a plain
// error response.
func (h *CompletionHandler) handleSubmitError(w http.ResponseWriter, r *http.Request, err error) {
	var vErr *service.ValidationError
	if errors.As(err, &vErr) {
		writeJSON(w, http.StatusUnprocessableEntity, dto.SubmitCompletionResponse{
			Errors: fieldErrors(vErr),
		})
		return
	}

	var provErr *service.ProviderError
	switch {
	case errors.Is(err, service.ErrUserNotFound):
		h.writeError(w, http.StatusNotFound, "USER_NOT_FOUND", "User not found")
	case errors.As(err, &provErr):
		h.logger.Error("provider_error", "error", err, "path", r.URL.Path)
		h.writeError(w, http.StatusBadGateway, "PROVIDER_ERROR", "Completion request failed")
	default:
		h.logger.Error("internal_error", "error", err, "path", r.URL.Path)
		h.writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "An internal error occurred")
	}
}

// fieldErrors builds the per-field error envelope with exactly one field set.
func fieldErrors(vErr *service.ValidationError) *dto.FieldErrors {
	fieldErrs := &dto.FieldErrors{}
	msg := vErr.Message
	switch vErr.Field {
	case service.FieldTokens:
		fieldErrs.Tokens = &msg
	case service.FieldPrompt:
		fieldErrs.Prompt = &msg
	}
	return fieldErrs
}

// writeError writes an error response.
func (h *CompletionHandler) writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, dto.ErrorResponse{
		Error: message,
		Code:  code,
	})
}
