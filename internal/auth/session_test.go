package auth

import (
	"strings"
	"testing"
)

func TestGenerateSessionToken_Format(t *testing.T) {
	t.Parallel()

	token, err := GenerateSessionToken()
	if err != nil {
		t.Fatalf("GenerateSessionToken failed: %v", err)
	}

	if !strings.HasPrefix(token, "osk_") {
		t.Errorf("Token should start with osk_, got: %s", token)
	}

	secret := strings.TrimPrefix(token, "osk_")
	if len(secret) != SessionSecretLen {
		t.Errorf("Secret should be %d chars, got: %d", SessionSecretLen, len(secret))
	}

	if !ValidateTokenFormat(token) {
		t.Errorf("Generated token should pass format validation: %s", token)
	}
}

func TestGenerateSessionToken_Unique(t *testing.T) {
	t.Parallel()

	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		token, err := GenerateSessionToken()
		if err != nil {
			t.Fatalf("GenerateSessionToken failed: %v", err)
		}
		if seen[token] {
			t.Fatalf("Duplicate token generated: %s", token)
		}
		seen[token] = true
	}
}

func TestValidateTokenFormat(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		token string
		valid bool
	}{
		{"valid", "osk_4f8d2e1b9c7a5f3d2e1b9c7a5f3d2e1b", true},
		{"empty", "", false},
		{"missing prefix", "4f8d2e1b9c7a5f3d2e1b9c7a5f3d2e1b", false},
		{"wrong prefix", "pk_4f8d2e1b9c7a5f3d2e1b9c7a5f3d2e1b", false},
		{"too short", "osk_4f8d2e1b", false},
		{"uppercase hex", "osk_4F8D2E1B9C7A5F3D2E1B9C7A5F3D2E1B", false},
		{"non-hex", "osk_zzzz2e1b9c7a5f3d2e1b9c7a5f3d2e1b", false},
		{"trailing garbage", "osk_4f8d2e1b9c7a5f3d2e1b9c7a5f3d2e1bXX", false},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if got := ValidateTokenFormat(tt.token); got != tt.valid {
				t.Errorf("ValidateTokenFormat(%q) = %v, want %v", tt.token, got, tt.valid)
			}
		})
	}
}
