// Package testutil provides shared helpers for integration tests.
package testutil

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/oklog/ulid/v2"
	"github.com/redis/go-redis/v9"

	"github.com/oraculo/oraculo/internal/model"
)

// RequireEnv returns an environment variable or skips the test if missing.
func RequireEnv(t testing.TB, key string) string {
	t.Helper()
	value := os.Getenv(key)
	if value == "" {
		t.Skipf("%s not set", key)
	}
	return value
}

const advisoryLockID int64 = 314314

// AcquireDBLock grabs a global advisory lock to serialize DB tests.
func AcquireDBLock(ctx context.Context, pool *pgxpool.Pool) (func() error, error) {
	conn, err := pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire connection: %w", err)
	}

	if _, err := conn.Exec(ctx, "SELECT pg_advisory_lock($1)", advisoryLockID); err != nil {
		conn.Release()
		return nil, fmt.Errorf("acquire advisory lock: %w", err)
	}

	unlock := func() error {
		defer conn.Release()
		if _, err := conn.Exec(ctx, "SELECT pg_advisory_unlock($1)", advisoryLockID); err != nil {
			return fmt.Errorf("release advisory lock: %w", err)
		}
		return nil
	}

	return unlock, nil
}

// ResetUsersSchema drops and recreates the users schema for tests.
func ResetUsersSchema(ctx context.Context, pool *pgxpool.Pool) error {
	return applyMigrationPair(ctx, pool, "000001_users")
}

// ResetCompletionsSchema drops and recreates the completions schema for tests.
func ResetCompletionsSchema(ctx context.Context, pool *pgxpool.Pool) error {
	return applyMigrationPair(ctx, pool, "000002_completions")
}

// ResetCoreSchema drops and recreates both the users and completions schemas.
// Completions go down first because of the user_id foreign key.
func ResetCoreSchema(ctx context.Context, pool *pgxpool.Pool) error {
	root, err := ProjectRoot()
	if err != nil {
		return err
	}

	for _, name := range []string{"000002_completions.down.sql", "000001_users.down.sql"} {
		if err := execMigration(ctx, pool, filepath.Join(root, "migrations", name)); err != nil {
			return err
		}
	}
	for _, name := range []string{"000001_users.up.sql", "000002_completions.up.sql"} {
		if err := execMigration(ctx, pool, filepath.Join(root, "migrations", name)); err != nil {
			return err
		}
	}

	return nil
}

func applyMigrationPair(ctx context.Context, pool *pgxpool.Pool, base string) error {
	root, err := ProjectRoot()
	if err != nil {
		return err
	}

	if err := execMigration(ctx, pool, filepath.Join(root, "migrations", base+".down.sql")); err != nil {
		return err
	}
	return execMigration(ctx, pool, filepath.Join(root, "migrations", base+".up.sql"))
}

func execMigration(ctx context.Context, pool *pgxpool.Pool, path string) error {
	sql, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read migration %s: %w", filepath.Base(path), err)
	}
	if _, err := pool.Exec(ctx, string(sql)); err != nil {
		return fmt.Errorf("apply migration %s: %w", filepath.Base(path), err)
	}
	return nil
}

// FlushRedis clears the current Redis database.
func FlushRedis(ctx context.Context, client *redis.Client) error {
	return client.FlushDB(ctx).Err()
}

// ProjectRoot returns the project root directory.
func ProjectRoot() (string, error) {
	_, filename, _, ok := runtime.Caller(0)
	if !ok {
		return "", fmt.Errorf("failed to resolve testutil path")
	}
	root := filepath.Clean(filepath.Join(filepath.Dir(filename), "..", ".."))
	return root, nil
}

// ============================================================================
// Test Data Factories
// ============================================================================

// UniqueID returns a ULID-based identifier with a readable prefix.
func UniqueID(prefix string) string {
	return fmt.Sprintf("%s-%s", prefix, ulid.Make().String())
}

// UniqueEmail returns a unique email address for test users.
func UniqueEmail(prefix string) string {
	return fmt.Sprintf("%s-%s@oraculo.test", prefix, ulid.Make().String())
}

// NewTestUser creates a test user with the given token balance.
func NewTestUser(t testing.TB, tokens int64) *model.User {
	t.Helper()
	return &model.User{
		ID:           UniqueID("user"),
		Email:        UniqueEmail("user"),
		PasswordHash: "$argon2id$v=19$m=65536,t=3,p=4$dGVzdHNhbHQ$dGVzdGhhc2g",
		Tokens:       tokens,
		CreatedAt:    time.Now().UTC(),
	}
}

// NewTestCompletion creates a completion record owned by userID.
func NewTestCompletion(t testing.TB, userID string, tokens int64) *model.Completion {
	t.Helper()
	return &model.Completion{
		ID:        ulid.Make().String(),
		UserID:    userID,
		Prompt:    "What is the airspeed velocity of an unladen swallow?",
		Tokens:    tokens,
		Answer:    "About eleven meters per second.",
		CreatedAt: time.Now().UTC(),
	}
}
