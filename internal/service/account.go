package service

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/oraculo/oraculo/internal/auth"
	"github.com/oraculo/oraculo/internal/model"
	"github.com/oraculo/oraculo/internal/repository"
)

const minPasswordLength = 8

var (
	ErrInvalidEmail       = errors.New("invalid email address")
	ErrPasswordTooShort   = errors.New("password too short")
	ErrEmailTaken         = errors.New("email already registered")
	ErrInvalidCredentials = errors.New("invalid credentials")
)

// AccountStore is the subset of the repository the account flows need.
type AccountStore interface {
	CreateUser(ctx context.Context, user *model.User) error
	GetUserByEmail(ctx context.Context, email string) (*model.User, error)
}

// SessionStore persists session tokens between requests.
type SessionStore interface {
	SetSession(ctx context.Context, token string, session *model.Session, ttl time.Duration) error
	DeleteSession(ctx context.Context, token string) error
}

// AccountService handles registration, login and logout.
type AccountService struct {
	store      AccountStore
	sessions   SessionStore
	tokenGrant int64
	sessionTTL time.Duration
}

func NewAccountService(store AccountStore, sessions SessionStore, tokenGrant int64, sessionTTL time.Duration) *AccountService {
	return &AccountService{
		store:      store,
		sessions:   sessions,
		tokenGrant: tokenGrant,
		sessionTTL: sessionTTL,
	}
}

// Signup registers a new user with the configured starting balance and opens
// a session. The returned token is shown once and only its hash is stored.
func (s *AccountService) Signup(ctx context.Context, email, password string) (*model.User, string, error) {
	email = normalizeEmail(email)
	if err := validateEmail(email); err != nil {
		return nil, "", err
	}
	if len(password) < minPasswordLength {
		return nil, "", ErrPasswordTooShort
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return nil, "", fmt.Errorf("hash password: %w", err)
	}

	user := &model.User{
		ID:           ulid.Make().String(),
		Email:        email,
		PasswordHash: hash,
		Tokens:       s.tokenGrant,
		CreatedAt:    time.Now().UTC(),
	}

	if err := s.store.CreateUser(ctx, user); err != nil {
		if errors.Is(err, repository.ErrEmailExists) {
			return nil, "", ErrEmailTaken
		}
		return nil, "", fmt.Errorf("create user: %w", err)
	}

	token, err := s.openSession(ctx, user)
	if err != nil {
		return nil, "", err
	}
	return user, token, nil
}

// Login verifies credentials and opens a session.
func (s *AccountService) Login(ctx context.Context, email, password string) (*model.User, string, error) {
	email = normalizeEmail(email)

	user, err := s.store.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, "", ErrInvalidCredentials
		}
		return nil, "", fmt.Errorf("load user: %w", err)
	}

	ok, err := auth.VerifyPassword(password, user.PasswordHash)
	if err != nil {
		return nil, "", fmt.Errorf("verify password: %w", err)
	}
	if !ok {
		return nil, "", ErrInvalidCredentials
	}

	token, err := s.openSession(ctx, user)
	if err != nil {
		return nil, "", err
	}
	return user, token, nil
}

// Logout revokes the session token. Unknown tokens are not an error.
func (s *AccountService) Logout(ctx context.Context, token string) error {
	if err := s.sessions.DeleteSession(ctx, token); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

func (s *AccountService) openSession(ctx context.Context, user *model.User) (string, error) {
	token, err := auth.GenerateSessionToken()
	if err != nil {
		return "", fmt.Errorf("generate session token: %w", err)
	}

	stored := &model.Session{
		UserID:    user.ID,
		Email:     user.Email,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.sessions.SetSession(ctx, token, stored, s.sessionTTL); err != nil {
		return "", fmt.Errorf("store session: %w", err)
	}
	return token, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func validateEmail(email string) error {
	if email == "" {
		return ErrInvalidEmail
	}
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return ErrInvalidEmail
	}
	return nil
}
