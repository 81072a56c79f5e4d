package app

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ledgerdesk/ledger-service/internal/auth"
	"github.com/ledgerdesk/ledger-service/internal/domain"
	"github.com/ledgerdesk/ledger-service/internal/store"
)

// Session is the result of a successful register or login.
type Session struct {
	User      domain.PublicUser `json:"user"`
	Token     string            `json:"token"`
	ExpiresAt time.Time         `json:"-"`
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func findUserByEmail(tx store.Tx, email string) (*domain.User, error) {
	users, err := store.Filter(tx, store.Users, func(u domain.User) bool {
		return normalizeEmail(u.Email) == email
	})
	if err != nil {
		return nil, err
	}
	if len(users) == 0 {
		return nil, ErrUserNotFound
	}
	return &users[0], nil
}

// Register creates a user and opens a session for it.
func (s *Service) Register(ctx context.Context, req domain.RegisterRequest) (*Session, error) {
	email := normalizeEmail(req.Email)
	if email == "" || req.Password == "" || strings.TrimSpace(req.Name) == "" {
		return nil, invalidInput("All fields required")
	}

	// Hash outside the store lock; bcrypt is deliberately slow.
	hash, err := auth.HashPassword(req.Password)
	if errors.Is(err, auth.ErrPasswordTooLong) {
		return nil, invalidInput("Password too long")
	}
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := domain.User{
		ID:        s.newID(),
		Email:     email,
		Password:  hash,
		Name:      strings.TrimSpace(req.Name),
		CreatedAt: s.timestamp(),
	}
	err = s.store.Update(ctx, func(tx store.Tx) error {
		if _, err := findUserByEmail(tx, email); err == nil {
			return ErrUserExists
		} else if !errors.Is(err, ErrUserNotFound) {
			return err
		}
		return store.Append(tx, store.Users, user)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("user registered", "user_id", user.ID)
	return s.openSession(user)
}

// Login checks credentials and opens a session.
func (s *Service) Login(ctx context.Context, req domain.LoginRequest) (*Session, error) {
	email := normalizeEmail(req.Email)
	if email == "" || req.Password == "" {
		return nil, invalidInput("Email and password required")
	}

	if err := s.checkLoginRateLimit(ctx, email); err != nil {
		return nil, err
	}

	var user *domain.User
	err := s.store.View(ctx, func(tx store.Tx) error {
		var err error
		user, err = findUserByEmail(tx, email)
		return err
	})
	if errors.Is(err, ErrUserNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}

	if err := auth.CheckPassword(user.Password, req.Password); err != nil {
		if errors.Is(err, auth.ErrPasswordMismatch) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("check password: %w", err)
	}
	return s.openSession(*user)
}

func (s *Service) checkLoginRateLimit(ctx context.Context, email string) error {
	if s.loginLimiter == nil {
		return nil
	}
	err := s.loginLimiter.AllowLogin(ctx, email)
	var limited *RateLimitError
	if err == nil || errors.As(err, &limited) {
		return err
	}
	// Fail open: a Redis outage must not lock every user out.
	s.logger.Warn("login rate limiter unavailable", "error", err)
	return nil
}

func (s *Service) openSession(user domain.User) (*Session, error) {
	token, expiresAt, err := s.tokens.Issue(user.ID)
	if err != nil {
		return nil, err
	}
	return &Session{User: user.Public(), Token: token, ExpiresAt: expiresAt}, nil
}

// Authenticate resolves a session token to a user id.
func (s *Service) Authenticate(token string) (string, error) {
	return s.tokens.Verify(token)
}

// CurrentUser returns the public profile of userID.
func (s *Service) CurrentUser(ctx context.Context, userID string) (*domain.PublicUser, error) {
	var user *domain.User
	err := s.store.View(ctx, func(tx store.Tx) error {
		var err error
		user, err = store.FindByID[domain.User](tx, store.Users, userID)
		return notFoundAs(err, ErrUserNotFound)
	})
	if err != nil {
		return nil, err
	}
	public := user.Public()
	return &public, nil
}
