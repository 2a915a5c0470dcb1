package handler

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/oraculo/oraculo/internal/auth"
	"github.com/oraculo/oraculo/internal/handler/dto"
	"github.com/oraculo/oraculo/internal/model"
	"github.com/oraculo/oraculo/internal/provider"
	"github.com/oraculo/oraculo/internal/repository"
	"github.com/oraculo/oraculo/internal/service"
)

type stubLedger struct {
	user *model.User
}

func (l *stubLedger) GetUserByID(_ context.Context, id string) (*model.User, error) {
	if l.user == nil || l.user.ID != id {
		return nil, repository.ErrUserNotFound
	}
	copied := *l.user
	return &copied, nil
}

func (l *stubLedger) UpdateUserTokens(_ context.Context, _ string, tokens int64) (*model.User, error) {
	l.user.Tokens = tokens
	copied := *l.user
	return &copied, nil
}

func (l *stubLedger) DebitUserTokens(_ context.Context, _ string, amount int64) (*model.User, error) {
	if l.user.Tokens < amount {
		return nil, repository.ErrInsufficientFunds
	}
	l.user.Tokens -= amount
	copied := *l.user
	return &copied, nil
}

type stubHistory struct {
	recent []model.CompletionListItem
}

func (h *stubHistory) CreateCompletion(_ context.Context, _ *model.Completion) error {
	return nil
}

func (h *stubHistory) ListRecentCompletions(_ context.Context, _ string, limit int) ([]model.CompletionListItem, error) {
	if len(h.recent) > limit {
		return h.recent[:limit], nil
	}
	return h.recent, nil
}

type stubCompleter struct {
	answer string
	err    error
}

func (c *stubCompleter) Complete(_ context.Context, _ string, _ int64) (*provider.CompletionResponse, error) {
	if c.err != nil {
		return nil, c.err
	}
	return &provider.CompletionResponse{Choices: []provider.Choice{{Text: c.answer}}}, nil
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func authedRequest(method, target, body string) *http.Request {
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	ctx := auth.ContextWithSession(req.Context(), &model.Session{UserID: "u1", Email: "ana@example.com"})
	return req.WithContext(ctx)
}

func newCompletionHandler(ledger service.Ledger, history service.History, completer service.Completer) *CompletionHandler {
	svc := service.NewCompletionService(ledger, history, completer, nil, false)
	return NewCompletionHandler(svc, testLogger())
}

func TestCompletionHandler_Submit(t *testing.T) {
	ledger := &stubLedger{user: &model.User{ID: "u1", Email: "ana@example.com", Tokens: 100}}
	h := newCompletionHandler(ledger, &stubHistory{}, &stubCompleter{answer: " The answer is 42."})

	req := authedRequest(http.MethodPost, "/api/v1/completions", `{"prompt":"Hello there","tokens":"50"}`)
	rec := httptest.NewRecorder()

	h.Submit(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var resp dto.SubmitCompletionResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}

	if resp.Errors != nil {
		t.Errorf("expected null errors, got %+v", resp.Errors)
	}
	if resp.AddedCompletion == nil || resp.AddedCompletion.Answer != " The answer is 42." {
		t.Errorf("unexpected completion: %+v", resp.AddedCompletion)
	}
	if resp.UpdatedUser == nil || resp.UpdatedUser.Tokens != 50 {
		t.Errorf("expected updated balance 50, got %+v", resp.UpdatedUser)
	}
}

func TestCompletionHandler_SubmitValidationErrors(t *testing.T) {
	tests := []struct {
		name      string
		body      string
		wantField string
		wantMsg   string
	}{
		{"missing_tokens", `{"prompt":"Hello there","tokens":""}`, "tokens", "missing"},
		{"insufficient_tokens", `{"prompt":"Hello there","tokens":"500"}`, "tokens", "insufficient"},
		{"missing_prompt", `{"prompt":"","tokens":"50"}`, "prompt", "missing"},
		{"short_prompt", `{"prompt":"Hi","tokens":"50"}`, "prompt", "too short"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ledger := &stubLedger{user: &model.User{ID: "u1", Tokens: 100}}
			h := newCompletionHandler(ledger, &stubHistory{}, &stubCompleter{answer: "never"})

			req := authedRequest(http.MethodPost, "/api/v1/completions", tt.body)
			rec := httptest.NewRecorder()

			h.Submit(rec, req)

			if rec.Code != http.StatusUnprocessableEntity {
				t.Fatalf("expected status 422, got %d: %s", rec.Code, rec.Body.String())
			}

			var resp dto.SubmitCompletionResponse
			if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
				t.Fatalf("failed to decode response: %v", err)
			}
			if resp.Errors == nil {
				t.Fatal("expected field errors")
			}
			if resp.AddedCompletion != nil || resp.UpdatedUser != nil {
				t.Error("rejected submission must not carry a completion or balance")
			}

			var got *string
			var other *string
			if tt.wantField == "tokens" {
				got, other = resp.Errors.Tokens, resp.Errors.Prompt
			} else {
				got, other = resp.Errors.Prompt, resp.Errors.Tokens
			}
			if got == nil || *got != tt.wantMsg {
				t.Errorf("expected %s error %q, got %v", tt.wantField, tt.wantMsg, got)
			}
			if other != nil {
				t.Errorf("expected exactly one populated field, other was %q", *other)
			}
		})
	}
}

func TestCompletionHandler_SubmitInvalidJSON(t *testing.T) {
	ledger := &stubLedger{user: &model.User{ID: "u1", Tokens: 100}}
	h := newCompletionHandler(ledger, &stubHistory{}, &stubCompleter{})

	req := authedRequest(http.MethodPost, "/api/v1/completions", `{not json`)
	rec := httptest.NewRecorder()

	h.Submit(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", rec.Code)
	}
}

func TestCompletionHandler_SubmitProviderFault(t *testing.T) {
	ledger := &stubLedger{user: &model.User{ID: "u1", Tokens: 100}}
	h := newCompletionHandler(ledger, &stubHistory{}, &stubCompleter{err: provider.ErrEmptyChoices})

	req := authedRequest(http.MethodPost, "/api/v1/completions", `{"prompt":"Hello there","tokens":"50"}`)
	rec := httptest.NewRecorder()

	h.Submit(rec, req)

	if rec.Code != http.StatusBadGateway {
		t.Fatalf("expected status 502, got %d: %s", rec.Code, rec.Body.String())
	}

	var resp dto.ErrorResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.Code != "PROVIDER_ERROR" {
		t.Errorf("unexpected error code %q", resp.Code)
	}
}

func TestCompletionHandler_List(t *testing.T) {
	ledger := &stubLedger{user: &model.User{ID: "u1", Email: "ana@example.com", Tokens: 40}}
	history := &stubHistory{recent: []model.CompletionListItem{
		{ID: "c3", Prompt: "latest prompt"},
		{ID: "c2", Prompt: "older prompt"},
	}}
	h := newCompletionHandler(ledger, history, &stubCompleter{})

	req := authedRequest(http.MethodGet, "/api/v1/completions", "")
	rec := httptest.NewRecorder()

	h.List(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var resp dto.CompletionListResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.User == nil || resp.User.Tokens != 40 {
		t.Errorf("unexpected user: %+v", resp.User)
	}
	if len(resp.Completions) != 2 || resp.Completions[0].ID != "c3" {
		t.Errorf("unexpected completions: %+v", resp.Completions)
	}
}

func TestCompletionHandler_ListEmpty(t *testing.T) {
	ledger := &stubLedger{user: &model.User{ID: "u1", Tokens: 40}}
	h := newCompletionHandler(ledger, &stubHistory{}, &stubCompleter{})

	req := authedRequest(http.MethodGet, "/api/v1/completions", "")
	rec := httptest.NewRecorder()

	h.List(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}

	body := rec.Body.String()
	if !strings.Contains(body, `"completions":[]`) {
		t.Errorf("expected empty array, got %s", body)
	}
}
