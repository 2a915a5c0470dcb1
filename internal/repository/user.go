package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/oraculo/oraculo/internal/model"
)

// Common errors for user repository operations.
var (
	ErrUserNotFound      = errors.New("user not found")
	ErrEmailExists       = errors.New("email already exists")
	ErrInsufficientFunds = errors.New("insufficient token balance")
)

// CreateUser inserts a new user into the database.
func (r *Repository) CreateUser(ctx context.Context, user *model.User) error {
	query := `
		INSERT INTO users (id, email, password_hash, tokens, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`

	_, err := r.pool.Exec(ctx, query,
		user.ID,
		user.Email,
		user.PasswordHash,
		user.Tokens,
		user.CreatedAt,
	)

	if err != nil {
		if isUniqueViolation(err) {
			return ErrEmailExists
		}
		return fmt.Errorf("failed to create user: %w", err)
	}

	return nil
}

// GetUserByID retrieves a user by their ID.
func (r *Repository) GetUserByID(ctx context.Context, id string) (*model.User, error) {
	query := `
		SELECT id, email, password_hash, tokens, created_at
		FROM users
		WHERE id = $1
	`

	var user model.User
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&user.ID,
		&user.Email,
		&user.PasswordHash,
		&user.Tokens,
		&user.CreatedAt,
	)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user by ID: %w", err)
	}

	return &user, nil
}

// GetUserByEmail retrieves a user by their email address.
func (r *Repository) GetUserByEmail(ctx context.Context, email string) (*model.User, error) {
	query := `
		SELECT id, email, password_hash, tokens, created_at
		FROM users
		WHERE email = $1
	`

	var user model.User
	err := r.pool.QueryRow(ctx, query, email).Scan(
		&user.ID,
		&user.Email,
		&user.PasswordHash,
		&user.Tokens,
		&user.CreatedAt,
	)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user by email: %w", err)
	}

	return &user, nil
}

// UpdateUserTokens unconditionally overwrites the stored balance with tokens.
// The caller computes the new absolute value; no lower bound is enforced at
// this layer. Sufficiency is checked earlier in the submission workflow.
func (r *Repository) UpdateUserTokens(ctx context.Context, id string, tokens int64) (*model.User, error) {
	query := `
		UPDATE users
		SET tokens = $2
		WHERE id = $1
		RETURNING id, email, password_hash, tokens, created_at
	`

	var user model.User
	err := r.pool.QueryRow(ctx, query, id, tokens).Scan(
		&user.ID,
		&user.Email,
		&user.PasswordHash,
		&user.Tokens,
		&user.CreatedAt,
	)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to update user tokens: %w", err)
	}

	return &user, nil
}

// DebitUserTokens atomically checks sufficiency and subtracts amount from the
// balance in a single statement. Returns ErrInsufficientFunds when the guard
// fails, so concurrent submissions cannot overdraw the same balance.
func (r *Repository) DebitUserTokens(ctx context.Context, id string, amount int64) (*model.User, error) {
	query := `
		UPDATE users
		SET tokens = tokens - $2
		WHERE id = $1 AND tokens >= $2
		RETURNING id, email, password_hash, tokens, created_at
	`

	var user model.User
	err := r.pool.QueryRow(ctx, query, id, amount).Scan(
		&user.ID,
		&user.Email,
		&user.PasswordHash,
		&user.Tokens,
		&user.CreatedAt,
	)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			// Guard failed: either the user is gone or the balance is short.
			if _, lookupErr := r.GetUserByID(ctx, id); lookupErr != nil {
				return nil, lookupErr
			}
			return nil, ErrInsufficientFunds
		}
		return nil, fmt.Errorf("failed to debit user tokens: %w", err)
	}

	return &user, nil
}

// isUniqueViolation checks if the error is a PostgreSQL unique constraint violation.
func isUniqueViolation(err error) bool {
	// PostgreSQL error code 23505 is unique_violation
	return err != nil && (strings.Contains(err.Error(), "23505") || strings.Contains(err.Error(), "unique"))
}
