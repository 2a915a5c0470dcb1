package auth

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"regexp"
)

// Session token format: osk_{secret}
// Example: osk_4f8d2e1b9c7a5f3d2e1b9c7a5f3d2e1b
const (
	// SessionSecretLen is the secret length (hex encoded 16 bytes).
	SessionSecretLen = 32
)

// tokenFormatRegex validates the session token format.
var tokenFormatRegex = regexp.MustCompile(`^osk_([a-f0-9]{32})$`)

// GenerateSessionToken creates a new opaque session token.
// The plaintext is handed to the client once; only its hash is stored.
func GenerateSessionToken() (string, error) {
	secretBytes := make([]byte, 16)
	if _, err := rand.Read(secretBytes); err != nil {
		return "", fmt.Errorf("generate session secret: %w", err)
	}

	return fmt.Sprintf("osk_%s", hex.EncodeToString(secretBytes)), nil
}

// ValidateTokenFormat checks if the token matches the expected format.
// A cheap pre-check before touching Redis.
func ValidateTokenFormat(token string) bool {
	return tokenFormatRegex.MatchString(token)
}
