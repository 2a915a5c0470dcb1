package middleware

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestExtractSessionToken(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		cookie string
		header string
		want   string
	}{
		{"from_cookie", "osk_0123456789abcdef0123456789abcdef", "", "osk_0123456789abcdef0123456789abcdef"},
		{"from_bearer_header", "", "Bearer osk_4f8d2e1b9c7a5f3d2e1b9c7a5f3d2e1b", "osk_4f8d2e1b9c7a5f3d2e1b9c7a5f3d2e1b"},
		{"cookie_wins_over_header", "osk_0123456789abcdef0123456789abcdef", "Bearer osk_4f8d2e1b9c7a5f3d2e1b9c7a5f3d2e1b", "osk_0123456789abcdef0123456789abcdef"},
		{"non_bearer_header_ignored", "", "Basic dXNlcjpwYXNz", ""},
		{"missing", "", "", ""},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			req := httptest.NewRequest("GET", "/api/v1/completions", nil)
			if tt.cookie != "" {
				req.AddCookie(&http.Cookie{Name: SessionCookieName, Value: tt.cookie})
			}
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}

			if got := ExtractSessionToken(req); got != tt.want {
				t.Errorf("ExtractSessionToken() = %q, want %q", got, tt.want)
			}
		})
	}
}

// Malformed and absent tokens are rejected before the session store is
// consulted, so these cases run without a cache behind the middleware.
func TestAuth_RejectsBeforeSessionLookup(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		token string
	}{
		{"missing_token", ""},
		{"wrong_prefix", "psk_0123456789abcdef0123456789abcdef"},
		{"short_secret", "osk_0123456789abcdef"},
		{"uppercase_hex", "osk_0123456789ABCDEF0123456789ABCDEF"},
		{"not_a_token", "garbage"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			cfg := AuthConfig{Logger: slog.New(slog.NewTextHandler(io.Discard, nil))}
			next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				t.Error("request passed authentication")
			})

			req := httptest.NewRequest("GET", "/api/v1/completions", nil)
			if tt.token != "" {
				req.Header.Set("Authorization", "Bearer "+tt.token)
			}

			rec := httptest.NewRecorder()
			Auth(cfg)(next).ServeHTTP(rec, req)

			if rec.Code != http.StatusUnauthorized {
				t.Errorf("expected status 401, got %d", rec.Code)
			}
			if body := rec.Body.String(); !strings.Contains(body, "UNAUTHORIZED") {
				t.Errorf("unexpected body: %s", body)
			}
		})
	}
}
