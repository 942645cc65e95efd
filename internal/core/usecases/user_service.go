package usecases

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/olaizola/maplabel/internal/core/domain"
	"github.com/olaizola/maplabel/internal/core/ports"
)

// ErrInvalidCredentials is returned for a bad email/password pair. The
// message is deliberately identical for unknown email and wrong password.
var ErrInvalidCredentials = fmt.Errorf("invalid credentials")

// ErrSessionsUnavailable is returned when no session store is configured.
// The API can start without valkey, but logins need somewhere to live.
var ErrSessionsUnavailable = fmt.Errorf("session store unavailable")

const sessionPrefix = "session:"

// UserService handles accounts and valkey-backed bearer-token sessions.
type UserService struct {
	users      ports.UserRepository
	sessions   ports.CacheService
	sessionTTL int
}

// NewUserService creates a new UserService. sessionTTL is in seconds.
func NewUserService(users ports.UserRepository, sessions ports.CacheService, sessionTTL int) *UserService {
	return &UserService{users: users, sessions: sessions, sessionTTL: sessionTTL}
}

// Register creates an account with a bcrypt password hash.
func (s *UserService) Register(ctx context.Context, email, name, password string) (*domain.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || !strings.Contains(email, "@") {
		return nil, fmt.Errorf("invalid email")
	}
	if len(password) < 8 {
		return nil, fmt.Errorf("password must be at least 8 characters")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := &domain.User{
		ID:           uuid.NewString(),
		Email:        email,
		Name:         name,
		PasswordHash: string(hash),
		CreatedAt:    time.Now().UTC(),
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, fmt.Errorf("persist user: %w", err)
	}
	return user, nil
}

// Login verifies credentials and issues a session token.
func (s *UserService) Login(ctx context.Context, email, password string) (string, *domain.User, error) {
	if s.sessions == nil {
		return "", nil, ErrSessionsUnavailable
	}

	user, err := s.users.GetByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		return "", nil, ErrInvalidCredentials
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		return "", nil, ErrInvalidCredentials
	}

	token := uuid.NewString()
	if err := s.sessions.Set(ctx, sessionPrefix+token, []byte(user.ID), s.sessionTTL); err != nil {
		return "", nil, fmt.Errorf("store session: %w", err)
	}
	return token, user, nil
}

// Logout revokes a session token.
func (s *UserService) Logout(ctx context.Context, token string) error {
	if s.sessions == nil {
		return ErrSessionsUnavailable
	}
	return s.sessions.Delete(ctx, sessionPrefix+token)
}

// Authenticate resolves a session token to a user id.
func (s *UserService) Authenticate(ctx context.Context, token string) (string, error) {
	if token == "" {
		return "", ErrInvalidCredentials
	}
	if s.sessions == nil {
		return "", ErrSessionsUnavailable
	}
	userID, err := s.sessions.Get(ctx, sessionPrefix+token)
	if err != nil || len(userID) == 0 {
		return "", ErrInvalidCredentials
	}
	return string(userID), nil
}
