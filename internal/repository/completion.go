package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/oraculo/oraculo/internal/model"
)

// ErrCompletionNotFound indicates the requested completion does not exist.
var ErrCompletionNotFound = errors.New("completion not found")

// CreateCompletion inserts a new completion record.
// Completions are append-only; there is no update or delete counterpart.
func (r *Repository) CreateCompletion(ctx context.Context, completion *model.Completion) error {
	query := `
		INSERT INTO completions (id, user_id, prompt, tokens, answer, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	_, err := r.pool.Exec(ctx, query,
		completion.ID,
		completion.UserID,
		completion.Prompt,
		completion.Tokens,
		completion.Answer,
		completion.CreatedAt,
	)

	if err != nil {
		return fmt.Errorf("failed to create completion: %w", err)
	}

	return nil
}

// GetCompletionByID retrieves a single completion record.
func (r *Repository) GetCompletionByID(ctx context.Context, id string) (*model.Completion, error) {
	query := `
		SELECT id, user_id, prompt, tokens, answer, created_at
		FROM completions
		WHERE id = $1
	`

	var completion model.Completion
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&completion.ID,
		&completion.UserID,
		&completion.Prompt,
		&completion.Tokens,
		&completion.Answer,
		&completion.CreatedAt,
	)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrCompletionNotFound
		}
		return nil, fmt.Errorf("failed to get completion by ID: %w", err)
	}

	return &completion, nil
}

// ListRecentCompletions returns up to limit completions for a user, most
// recent first. An empty slice means the user has no history yet; that is
// distinct from the user not existing.
func (r *Repository) ListRecentCompletions(ctx context.Context, userID string, limit int) ([]model.CompletionListItem, error) {
	query := `
		SELECT id, prompt
		FROM completions
		WHERE user_id = $1
		ORDER BY created_at DESC, id DESC
		LIMIT $2
	`

	rows, err := r.pool.Query(ctx, query, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list completions: %w", err)
	}
	defer rows.Close()

	items := make([]model.CompletionListItem, 0, limit)
	for rows.Next() {
		var item model.CompletionListItem
		if err := rows.Scan(&item.ID, &item.Prompt); err != nil {
			return nil, fmt.Errorf("failed to scan completion row: %w", err)
		}
		items = append(items, item)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate completions: %w", err)
	}

	return items, nil
}

// CountCompletions returns the number of completions a user has submitted.
func (r *Repository) CountCompletions(ctx context.Context, userID string) (int64, error) {
	query := `SELECT COUNT(*) FROM completions WHERE user_id = $1`

	var count int64
	if err := r.pool.QueryRow(ctx, query, userID).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count completions: %w", err)
	}

	return count, nil
}
