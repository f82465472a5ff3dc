package app

import (
	"context"

	"quiz-api/internal/domain"
)

// UserRepository persists accounts (in-memory, Postgres, SQLite).
// Create must enforce username uniqueness itself and return
// domain.ErrDuplicateUsername on conflict.
type UserRepository interface {
	Create(ctx context.Context, user domain.User) (domain.User, error)
	FindByID(ctx context.Context, id string) (domain.User, error)
	FindByUsername(ctx context.Context, username string) (domain.User, error)
}

// QuizRepository persists quizzes with their embedded question lists.
// FindByID returns domain.ErrQuizNotFound for unknown or malformed ids.
// AppendQuestion must be atomic per quiz.
type QuizRepository interface {
	Create(ctx context.Context, quiz domain.Quiz) (domain.Quiz, error)
	FindByID(ctx context.Context, id string) (domain.Quiz, error)
	FindAll(ctx context.Context) ([]domain.Quiz, error)
	AppendQuestion(ctx context.Context, quizID string, question domain.Question) (domain.Quiz, error)
}

// TokenService issues and verifies session tokens.
type TokenService interface {
	Issue(userID string) (string, error)
	Verify(token string) (string, error)
}
