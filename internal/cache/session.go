package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/oraculo/oraculo/internal/model"
)

const (
	// sessionKeyPrefix is the Redis key prefix for session records.
	sessionKeyPrefix = "session:"
)

// ErrSessionNotFound indicates the session token is unknown or expired.
var ErrSessionNotFound = errors.New("session not found")

// storedSession is the session record persisted in Redis.
type storedSession struct {
	UserID    string    `json:"user_id"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`
}

// SetSession stores a session under the hash of its token with the given TTL.
// Only the token hash ever reaches Redis, so a leaked dump cannot be replayed.
func (c *Cache) SetSession(ctx context.Context, token string, session *model.Session, ttl time.Duration) error {
	key := sessionKeyPrefix + hashSessionToken(token)

	data, err := json.Marshal(storedSession{
		UserID:    session.UserID,
		Email:     session.Email,
		CreatedAt: session.CreatedAt,
	})
	if err != nil {
		return fmt.Errorf("marshal session: %w", err)
	}

	return c.client.Set(ctx, key, data, ttl).Err()
}

// GetSession resolves a session token to its session record.
// Returns ErrSessionNotFound for unknown, expired, or corrupted entries.
func (c *Cache) GetSession(ctx context.Context, token string) (*model.Session, error) {
	key := sessionKeyPrefix + hashSessionToken(token)

	data, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrSessionNotFound
		}
		return nil, fmt.Errorf("redis get session failed: %w", err)
	}

	var stored storedSession
	if err := json.Unmarshal(data, &stored); err != nil {
		// Corrupted entry - treat as missing
		return nil, ErrSessionNotFound
	}

	return &model.Session{
		UserID:    stored.UserID,
		Email:     stored.Email,
		CreatedAt: stored.CreatedAt,
	}, nil
}

// DeleteSession removes a session. Used on logout.
func (c *Cache) DeleteSession(ctx context.Context, token string) error {
	key := sessionKeyPrefix + hashSessionToken(token)
	return c.client.Del(ctx, key).Err()
}

// hashSessionToken derives the Redis key component from a session token.
func hashSessionToken(token string) string {
	hash := sha256.Sum256([]byte(token))
	return hex.EncodeToString(hash[:])
}
