//go:build integration

package repository

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/oraculo/oraculo/internal/model"
	"github.com/oraculo/oraculo/internal/testutil"
)

func seedUser(t *testing.T, ctx context.Context, repo *Repository, tokens int64) *model.User {
	t.Helper()
	user := testutil.NewTestUser(t, tokens)
	if err := repo.CreateUser(ctx, user); err != nil {
		t.Fatalf("seed user: %v", err)
	}
	return user
}

func TestIntegrationCompletionRepository_CreateAndGet(t *testing.T) {
	ctx, repo := newCoreTestEnv(t)
	user := seedUser(t, ctx, repo, 100)

	completion := testutil.NewTestCompletion(t, user.ID, 50)
	if err := repo.CreateCompletion(ctx, completion); err != nil {
		t.Fatalf("CreateCompletion failed: %v", err)
	}

	retrieved, err := repo.GetCompletionByID(ctx, completion.ID)
	if err != nil {
		t.Fatalf("GetCompletionByID failed: %v", err)
	}
	if retrieved.Prompt != completion.Prompt {
		t.Errorf("Prompt mismatch: got %q, want %q", retrieved.Prompt, completion.Prompt)
	}
	if retrieved.Tokens != 50 {
		t.Errorf("Tokens mismatch: got %d, want 50", retrieved.Tokens)
	}
	if retrieved.Answer != completion.Answer {
		t.Errorf("Answer mismatch: got %q, want %q", retrieved.Answer, completion.Answer)
	}
	if retrieved.CreatedAt.IsZero() {
		t.Error("CreatedAt should be set")
	}
}

func TestIntegrationCompletionRepository_GetByID_NotFound(t *testing.T) {
	ctx, repo := newCoreTestEnv(t)

	_, err := repo.GetCompletionByID(ctx, "nonexistent-id")
	if !errors.Is(err, ErrCompletionNotFound) {
		t.Errorf("Expected ErrCompletionNotFound, got: %v", err)
	}
}

func TestIntegrationCompletionRepository_ListRecent_Empty(t *testing.T) {
	ctx, repo := newCoreTestEnv(t)
	user := seedUser(t, ctx, repo, 0)

	items, err := repo.ListRecentCompletions(ctx, user.ID, 6)
	if err != nil {
		t.Fatalf("ListRecentCompletions failed: %v", err)
	}
	if len(items) != 0 {
		t.Errorf("Expected empty history, got %d items", len(items))
	}
}

func TestIntegrationCompletionRepository_ListRecent_OrderAndLimit(t *testing.T) {
	ctx, repo := newCoreTestEnv(t)
	user := seedUser(t, ctx, repo, 0)

	base := time.Now().UTC().Add(-time.Hour)
	for i := 0; i < 8; i++ {
		completion := testutil.NewTestCompletion(t, user.ID, 10)
		completion.Prompt = fmt.Sprintf("prompt number %d", i)
		completion.CreatedAt = base.Add(time.Duration(i) * time.Minute)
		if err := repo.CreateCompletion(ctx, completion); err != nil {
			t.Fatalf("CreateCompletion %d failed: %v", i, err)
		}
	}

	items, err := repo.ListRecentCompletions(ctx, user.ID, 6)
	if err != nil {
		t.Fatalf("ListRecentCompletions failed: %v", err)
	}
	if len(items) != 6 {
		t.Fatalf("Expected 6 items, got %d", len(items))
	}

	// Most recent first: prompts 7 down through 2.
	for i, item := range items {
		want := fmt.Sprintf("prompt number %d", 7-i)
		if item.Prompt != want {
			t.Errorf("Item %d: got %q, want %q", i, item.Prompt, want)
		}
	}
}

func TestIntegrationCompletionRepository_ListRecent_ScopedToUser(t *testing.T) {
	ctx, repo := newCoreTestEnv(t)
	owner := seedUser(t, ctx, repo, 0)
	other := seedUser(t, ctx, repo, 0)

	if err := repo.CreateCompletion(ctx, testutil.NewTestCompletion(t, owner.ID, 10)); err != nil {
		t.Fatalf("CreateCompletion failed: %v", err)
	}

	items, err := repo.ListRecentCompletions(ctx, other.ID, 6)
	if err != nil {
		t.Fatalf("ListRecentCompletions failed: %v", err)
	}
	if len(items) != 0 {
		t.Errorf("History leaked across users: got %d items", len(items))
	}
}

func TestIntegrationCompletionRepository_Count(t *testing.T) {
	ctx, repo := newCoreTestEnv(t)
	user := seedUser(t, ctx, repo, 0)

	for i := 0; i < 3; i++ {
		if err := repo.CreateCompletion(ctx, testutil.NewTestCompletion(t, user.ID, 10)); err != nil {
			t.Fatalf("CreateCompletion failed: %v", err)
		}
	}

	count, err := repo.CountCompletions(ctx, user.ID)
	if err != nil {
		t.Fatalf("CountCompletions failed: %v", err)
	}
	if count != 3 {
		t.Errorf("Count mismatch: got %d, want 3", count)
	}
}
