package app_test

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"quiz-api/internal/app"
	"quiz-api/internal/auth"
	"quiz-api/internal/domain"
	"quiz-api/internal/infra/memory"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newAuthService(t *testing.T) (*app.AuthService, *memory.UserRepository, *auth.TokenIssuer) {
	t.Helper()
	tokens, err := auth.NewTokenIssuer("test-secret", "quiz-api", time.Hour)
	require.NoError(t, err)
	users := memory.NewUserRepository()
	return app.NewAuthService(users, tokens, discardLogger()), users, tokens
}

func TestRegisterStoresHashedPassword(t *testing.T) {
	ctx := context.Background()
	svc, users, _ := newAuthService(t)

	user, err := svc.Register(ctx, "alice", "secret1")
	require.NoError(t, err)
	assert.NotEmpty(t, user.ID)
	assert.Empty(t, user.PasswordHash)

	stored, err := users.FindByUsername(ctx, "alice")
	require.NoError(t, err)
	assert.NotEqual(t, "secret1", stored.PasswordHash)
	assert.NoError(t, auth.CheckPassword(stored.PasswordHash, "secret1"))
}

func TestRegisterValidation(t *testing.T) {
	svc, _, _ := newAuthService(t)

	tests := []struct {
		name     string
		username string
		password string
		messages []string
	}{
		{"missing username", "", "secret1", []string{"Please add a username"}},
		{"missing password", "alice", "", []string{"Please add a password"}},
		{"short password", "alice", "12345", []string{"Password must be at least 6 characters"}},
		{"both problems", "  ", "123", []string{"Please add a username", "Password must be at least 6 characters"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Register(context.Background(), tt.username, tt.password)
			require.ErrorIs(t, err, domain.ErrValidation)
			var verr *domain.ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, tt.messages, verr.Messages)
		})
	}
}

func TestRegisterDuplicate(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newAuthService(t)

	_, err := svc.Register(ctx, "alice", "secret1")
	require.NoError(t, err)
	_, err = svc.Register(ctx, "alice", "other-secret")
	assert.ErrorIs(t, err, domain.ErrDuplicateUsername)
}

func TestVerifyCredentials(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newAuthService(t)
	registered, err := svc.Register(ctx, "alice", "secret1")
	require.NoError(t, err)

	user, ok, err := svc.VerifyCredentials(ctx, "alice", "secret1")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, registered.ID, user.ID)
	assert.Empty(t, user.PasswordHash)

	_, ok, err = svc.VerifyCredentials(ctx, "alice", "wrong")
	require.NoError(t, err)
	assert.False(t, ok)

	_, ok, err = svc.VerifyCredentials(ctx, "nobody", "secret1")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestLoginAndAuthenticate(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newAuthService(t)
	registered, err := svc.Register(ctx, "alice", "secret1")
	require.NoError(t, err)

	_, err = svc.Login(ctx, "alice", "")
	assert.ErrorIs(t, err, domain.ErrValidation)

	_, err = svc.Login(ctx, "alice", "wrong1")
	assert.ErrorIs(t, err, domain.ErrInvalidCredentials)
	_, err = svc.Login(ctx, "nobody", "secret1")
	assert.ErrorIs(t, err, domain.ErrInvalidCredentials)

	token, err := svc.Login(ctx, "alice", "secret1")
	require.NoError(t, err)

	user, err := svc.Authenticate(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, registered.ID, user.ID)
	assert.Empty(t, user.PasswordHash)
}

func TestAuthenticateFailures(t *testing.T) {
	ctx := context.Background()
	svc, _, tokens := newAuthService(t)

	_, err := svc.Authenticate(ctx, "")
	assert.ErrorIs(t, err, domain.ErrUnauthenticated)

	_, err = svc.Authenticate(ctx, "not-a-token")
	assert.ErrorIs(t, err, domain.ErrUnauthenticated)
	assert.ErrorIs(t, err, domain.ErrTokenInvalid)

	ghost, err := tokens.Issue(uuid.NewString())
	require.NoError(t, err)
	_, err = svc.Authenticate(ctx, ghost)
	assert.ErrorIs(t, err, domain.ErrUnauthenticated)
	assert.ErrorIs(t, err, domain.ErrUserNotFound)
}

func TestRegisterAndIssue(t *testing.T) {
	ctx := context.Background()
	svc, _, tokens := newAuthService(t)

	token, err := svc.RegisterAndIssue(ctx, "alice", "secret1")
	require.NoError(t, err)
	userID, err := tokens.Verify(token)
	require.NoError(t, err)

	me, err := svc.Me(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, "alice", me.Username)
}
