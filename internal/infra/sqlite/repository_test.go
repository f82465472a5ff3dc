package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"quiz-api/internal/domain"
)

func newTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("db open: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func TestUserRepositoryUniqueUsername(t *testing.T) {
	ctx := context.Background()
	users := NewUserRepository(newTestDB(t))

	alice, err := users.Create(ctx, newUser("alice"))
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := users.Create(ctx, newUser("alice")); !errors.Is(err, domain.ErrDuplicateUsername) {
		t.Fatalf("expected ErrDuplicateUsername, got %v", err)
	}

	got, err := users.FindByUsername(ctx, "alice")
	if err != nil {
		t.Fatalf("find by username: %v", err)
	}
	if got.ID != alice.ID || got.PasswordHash != "hash" {
		t.Fatalf("unexpected user %+v", got)
	}
	if _, err := users.FindByID(ctx, uuid.NewString()); !errors.Is(err, domain.ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
}

func TestQuizRepositoryRoundTrip(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	users := NewUserRepository(db)
	quizzes := NewQuizRepository(db)

	alice, _ := users.Create(ctx, newUser("alice"))
	quiz, err := quizzes.Create(ctx, domain.Quiz{
		ID:          uuid.NewString(),
		Title:       "Geography",
		Description: "Capitals",
		CreatedBy:   alice.ID,
		CreatedAt:   time.Now(),
	})
	if err != nil {
		t.Fatalf("create quiz: %v", err)
	}

	for i := 0; i < 3; i++ {
		updated, err := quizzes.AppendQuestion(ctx, quiz.ID, domain.Question{
			QuestionText:  fmt.Sprintf("Q%d", i),
			Options:       []string{"Paris", "Lyon"},
			CorrectAnswer: "Paris",
		})
		if err != nil {
			t.Fatalf("append %d: %v", i, err)
		}
		if len(updated.Questions) != i+1 {
			t.Fatalf("expected %d questions after append, got %d", i+1, len(updated.Questions))
		}
	}

	all, err := quizzes.FindAll(ctx)
	if err != nil {
		t.Fatalf("find all: %v", err)
	}
	if len(all) != 1 || all[0].Creator == nil || all[0].Creator.Username != "alice" {
		t.Fatalf("unexpected list %+v", all)
	}
	for i, q := range all[0].Questions {
		if q.QuestionText != fmt.Sprintf("Q%d", i) || q.CorrectAnswer != "Paris" || len(q.Options) != 2 {
			t.Fatalf("unexpected question %d: %+v", i, q)
		}
	}
}

func TestQuizRepositoryConcurrentAppends(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	users := NewUserRepository(db)
	quizzes := NewQuizRepository(db)
	alice, _ := users.Create(ctx, newUser("alice"))
	quiz, _ := quizzes.Create(ctx, domain.Quiz{ID: uuid.NewString(), Title: "t", Description: "d", CreatedBy: alice.ID, CreatedAt: time.Now()})

	const n = 20
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := quizzes.AppendQuestion(ctx, quiz.ID, domain.Question{
				QuestionText: fmt.Sprintf("Q%d", i), Options: []string{"a", "b"}, CorrectAnswer: "a",
			})
			if err != nil {
				t.Errorf("append: %v", err)
			}
		}(i)
	}
	wg.Wait()

	got, err := quizzes.FindByID(ctx, quiz.ID)
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if len(got.Questions) != n {
		t.Fatalf("expected %d questions, got %d", n, len(got.Questions))
	}
}

func TestQuizRepositoryNotFoundAndUnknownCreator(t *testing.T) {
	ctx := context.Background()
	quizzes := NewQuizRepository(newTestDB(t))

	if _, err := quizzes.FindByID(ctx, "12345"); !errors.Is(err, domain.ErrQuizNotFound) {
		t.Fatalf("expected ErrQuizNotFound for malformed id, got %v", err)
	}
	if _, err := quizzes.AppendQuestion(ctx, uuid.NewString(), domain.Question{}); !errors.Is(err, domain.ErrQuizNotFound) {
		t.Fatalf("expected ErrQuizNotFound for unknown id, got %v", err)
	}
	_, err := quizzes.Create(ctx, domain.Quiz{ID: uuid.NewString(), Title: "t", Description: "d", CreatedBy: uuid.NewString(), CreatedAt: time.Now()})
	if !errors.Is(err, domain.ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound for unknown creator, got %v", err)
	}
}

func newUser(username string) domain.User {
	return domain.User{
		ID:           uuid.NewString(),
		Username:     username,
		PasswordHash: "hash",
		CreatedAt:    time.Now(),
	}
}
