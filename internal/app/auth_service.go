package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"quiz-api/internal/auth"
	"quiz-api/internal/domain"
)

const minPasswordLength = 6

// AuthService covers registration, login and identity resolution.
type AuthService struct {
	users  UserRepository
	tokens TokenService
	log    *slog.Logger
	now    func() time.Time
}

func NewAuthService(users UserRepository, tokens TokenService, log *slog.Logger) *AuthService {
	return &AuthService{users: users, tokens: tokens, log: log, now: time.Now}
}

// Register creates an account and returns it without the password hash.
func (s *AuthService) Register(ctx context.Context, username, password string) (domain.User, error) {
	var problems []string
	if strings.TrimSpace(username) == "" {
		problems = append(problems, "Please add a username")
	}
	if password == "" {
		problems = append(problems, "Please add a password")
	} else if len(password) < minPasswordLength {
		problems = append(problems, fmt.Sprintf("Password must be at least %d characters", minPasswordLength))
	}
	if len(problems) > 0 {
		return domain.User{}, domain.NewValidationError(problems...)
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return domain.User{}, fmt.Errorf("hash password: %w", err)
	}
	user, err := s.users.Create(ctx, domain.User{
		ID:           uuid.NewString(),
		Username:     username,
		PasswordHash: hash,
		CreatedAt:    s.now().UTC(),
	})
	if err != nil {
		return domain.User{}, err
	}
	user.PasswordHash = ""
	return user, nil
}

// VerifyCredentials reports whether password matches the stored hash for username.
// An unknown username and a wrong password are both reported as ok=false.
func (s *AuthService) VerifyCredentials(ctx context.Context, username, password string) (domain.User, bool, error) {
	user, err := s.users.FindByUsername(ctx, username)
	if errors.Is(err, domain.ErrUserNotFound) {
		return domain.User{}, false, nil
	}
	if err != nil {
		return domain.User{}, false, err
	}
	if err := auth.CheckPassword(user.PasswordHash, password); err != nil {
		return domain.User{}, false, nil
	}
	user.PasswordHash = ""
	return user, true, nil
}

// RegisterAndIssue registers a user and returns a session token for it.
func (s *AuthService) RegisterAndIssue(ctx context.Context, username, password string) (string, error) {
	user, err := s.Register(ctx, username, password)
	if err != nil {
		return "", err
	}
	return s.tokens.Issue(user.ID)
}

// Login returns a session token for valid credentials.
func (s *AuthService) Login(ctx context.Context, username, password string) (string, error) {
	if username == "" || password == "" {
		return "", domain.NewValidationError("Please provide a username and password")
	}
	user, ok, err := s.VerifyCredentials(ctx, username, password)
	if err != nil {
		return "", err
	}
	if !ok {
		s.log.DebugContext(ctx, "login rejected", "username", username)
		return "", domain.ErrInvalidCredentials
	}
	return s.tokens.Issue(user.ID)
}

// Authenticate resolves a bearer token to a live user.
func (s *AuthService) Authenticate(ctx context.Context, token string) (domain.User, error) {
	if token == "" {
		return domain.User{}, fmt.Errorf("%w: no token", domain.ErrUnauthenticated)
	}
	userID, err := s.tokens.Verify(token)
	if err != nil {
		return domain.User{}, fmt.Errorf("%w: %w", domain.ErrUnauthenticated, err)
	}
	user, err := s.users.FindByID(ctx, userID)
	if errors.Is(err, domain.ErrUserNotFound) {
		return domain.User{}, fmt.Errorf("%w: %w", domain.ErrUnauthenticated, err)
	}
	if err != nil {
		return domain.User{}, err
	}
	user.PasswordHash = ""
	return user, nil
}

// Me returns the current user's public profile.
func (s *AuthService) Me(ctx context.Context, userID string) (domain.User, error) {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return domain.User{}, err
	}
	user.PasswordHash = ""
	return user, nil
}
