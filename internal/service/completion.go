// Package service provides business logic for the application.
package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"
	"unicode/utf8"

	"github.com/oklog/ulid/v2"

	"github.com/oraculo/oraculo/internal/metrics"
	"github.com/oraculo/oraculo/internal/model"
	"github.com/oraculo/oraculo/internal/provider"
	"github.com/oraculo/oraculo/internal/repository"
)

// Field names for validation errors.
const (
	FieldTokens = "tokens"
	FieldPrompt = "prompt"
)

const (
	// minPromptLength is the minimum prompt length in characters.
	minPromptLength = 5

	// historyLimit is how many recent completions the listing returns.
	historyLimit = 6
)

// ErrUserNotFound indicates the submitting user does not exist.
// Fatal for the current request.
var ErrUserNotFound = errors.New("user not found")

// ProviderError wraps a failure from the external completion provider so the
// HTTP layer can report it as an upstream fault.
type ProviderError struct {
	Err error
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("completion provider: %v", e.Err)
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}

// ValidationError is a field-scoped, user-facing submission failure.
// Exactly one field is ever reported per failure; validation short-circuits.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Validation failures, in the order the workflow checks them.
var (
	ErrTokensMissing  = &ValidationError{Field: FieldTokens, Message: "missing"}
	ErrTokensExceeded = &ValidationError{Field: FieldTokens, Message: "insufficient"}
	ErrPromptMissing  = &ValidationError{Field: FieldPrompt, Message: "missing"}
	ErrPromptTooShort = &ValidationError{Field: FieldPrompt, Message: "too short"}
)

// Ledger reads and writes per-user token balances.
type Ledger interface {
	GetUserByID(ctx context.Context, id string) (*model.User, error)
	UpdateUserTokens(ctx context.Context, id string, tokens int64) (*model.User, error)
	DebitUserTokens(ctx context.Context, id string, amount int64) (*model.User, error)
}

// History appends and lists completion records.
type History interface {
	CreateCompletion(ctx context.Context, completion *model.Completion) error
	ListRecentCompletions(ctx context.Context, userID string, limit int) ([]model.CompletionListItem, error)
}

// Completer issues one completion call to the external provider.
type Completer interface {
	Complete(ctx context.Context, prompt string, maxTokens int64) (*provider.CompletionResponse, error)
}

// CompletionService orchestrates the prompt submission workflow.
type CompletionService struct {
	ledger       Ledger
	history      History
	completer    Completer
	metrics      metrics.Recorder
	strictLedger bool
}

// NewCompletionService creates a CompletionService.
// With strictLedger enabled the balance debit is a single guarded UPDATE,
// closing the lost-update race between concurrent submissions. Disabled, the
// debit overwrites the balance read at validation time.
func NewCompletionService(ledger Ledger, history History, completer Completer, recorder metrics.Recorder, strictLedger bool) *CompletionService {
	if recorder == nil {
		recorder = metrics.NewNoop()
	}
	return &CompletionService{
		ledger:       ledger,
		history:      history,
		completer:    completer,
		metrics:      recorder,
		strictLedger: strictLedger,
	}
}

// SubmitInput carries the raw submission fields.
// Prompt and Tokens arrive unparsed from the form/JSON layer.
type SubmitInput struct {
	UserID string
	Prompt string
	Tokens string
}

// SubmitResult is the outcome of a successful submission.
type SubmitResult struct {
	Completion *model.Completion
	User       *model.User
}

// Submit runs the full submission workflow: validate, call the provider,
// append the history record, debit the balance.
//
// Validation short-circuits on the first failure, in this order: tokens
// present and numeric, balance sufficient, prompt present, prompt long
// enough. No side effect happens before validation passes; the provider is
// never invoked for a rejected submission.
//
// The history append and the ledger update are two independent writes with
// no shared transaction: a crash between them leaves a history record whose
// cost was never debited.
func (s *CompletionService) Submit(ctx context.Context, input SubmitInput) (*SubmitResult, error) {
	user, err := s.ledger.GetUserByID(ctx, input.UserID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("load user: %w", err)
	}

	requested, vErr := s.validate(user, input)
	if vErr != nil {
		s.metrics.IncSubmissionRejected(vErr.Field)
		return nil, vErr
	}

	start := time.Now()
	resp, err := s.completer.Complete(ctx, input.Prompt, requested)
	s.metrics.ObserveProviderDuration(time.Since(start))
	if err != nil {
		s.metrics.IncProviderFault()
		return nil, &ProviderError{Err: err}
	}

	completion := &model.Completion{
		ID:        ulid.Make().String(),
		UserID:    user.ID,
		Prompt:    input.Prompt,
		Tokens:    requested,
		Answer:    resp.FirstChoiceText(),
		CreatedAt: time.Now().UTC(),
	}

	if err := s.history.CreateCompletion(ctx, completion); err != nil {
		return nil, fmt.Errorf("append completion: %w", err)
	}

	updated, err := s.debit(ctx, user, requested)
	if err != nil {
		return nil, err
	}

	s.metrics.IncSubmissionAccepted()
	s.metrics.ObserveTokensSpent(requested)

	return &SubmitResult{
		Completion: completion,
		User:       updated,
	}, nil
}

// validate applies the submission checks in order and returns the parsed
// token budget on success.
func (s *CompletionService) validate(user *model.User, input SubmitInput) (int64, *ValidationError) {
	if input.Tokens == "" {
		return 0, ErrTokensMissing
	}
	requested, err := strconv.ParseInt(input.Tokens, 10, 64)
	if err != nil || requested < 0 {
		return 0, ErrTokensMissing
	}

	if requested > user.Tokens {
		return 0, ErrTokensExceeded
	}

	if input.Prompt == "" {
		return 0, ErrPromptMissing
	}

	if utf8.RuneCountInString(input.Prompt) < minPromptLength {
		return 0, ErrPromptTooShort
	}

	return requested, nil
}

// debit subtracts the requested budget from the user's balance.
func (s *CompletionService) debit(ctx context.Context, user *model.User, requested int64) (*model.User, error) {
	if s.strictLedger {
		updated, err := s.ledger.DebitUserTokens(ctx, user.ID, requested)
		if err != nil {
			if errors.Is(err, repository.ErrInsufficientFunds) {
				// A concurrent submission won the balance. The history
				// record above already exists; this request still fails.
				return nil, ErrTokensExceeded
			}
			return nil, fmt.Errorf("debit balance: %w", err)
		}
		return updated, nil
	}

	updated, err := s.ledger.UpdateUserTokens(ctx, user.ID, user.Tokens-requested)
	if err != nil {
		return nil, fmt.Errorf("update balance: %w", err)
	}
	return updated, nil
}

// ListRecent returns the user's most recent completions, capped at six.
func (s *CompletionService) ListRecent(ctx context.Context, userID string) ([]model.CompletionListItem, error) {
	items, err := s.history.ListRecentCompletions(ctx, userID, historyLimit)
	if err != nil {
		return nil, fmt.Errorf("list completions: %w", err)
	}
	return items, nil
}

// CurrentUser resolves a user for display (email and remaining balance).
func (s *CompletionService) CurrentUser(ctx context.Context, userID string) (*model.User, error) {
	user, err := s.ledger.GetUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("load user: %w", err)
	}
	return user, nil
}
