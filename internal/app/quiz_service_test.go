package app_test

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"quiz-api/internal/app"
	"quiz-api/internal/domain"
	"quiz-api/internal/infra/memory"
)

type quizFixture struct {
	svc   *app.QuizService
	owner domain.User
	other domain.User
}

func newQuizFixture(t *testing.T) quizFixture {
	t.Helper()
	ctx := context.Background()
	users := memory.NewUserRepository()
	owner, err := users.Create(ctx, domain.User{ID: uuid.NewString(), Username: "alice", PasswordHash: "x"})
	require.NoError(t, err)
	other, err := users.Create(ctx, domain.User{ID: uuid.NewString(), Username: "bob", PasswordHash: "x"})
	require.NoError(t, err)

	fixed := time.Date(2024, 11, 22, 10, 0, 0, 0, time.UTC)
	svc := app.NewQuizServiceWithClock(memory.NewQuizRepository(users), users, discardLogger(), func() time.Time { return fixed })
	return quizFixture{svc: svc, owner: owner, other: other}
}

func TestCreateQuiz(t *testing.T) {
	ctx := context.Background()
	f := newQuizFixture(t)

	quiz, err := f.svc.CreateQuiz(ctx, f.owner.ID, "  Basics  ", "Warm-up", nil)
	require.NoError(t, err)
	assert.Equal(t, "Basics", quiz.Title)
	assert.Equal(t, f.owner.ID, quiz.CreatedBy)
	assert.NotNil(t, quiz.Questions)
	assert.Empty(t, quiz.Questions)
	assert.Equal(t, time.Date(2024, 11, 22, 10, 0, 0, 0, time.UTC), quiz.CreatedAt)

	_, err = f.svc.CreateQuiz(ctx, f.owner.ID, "", "Warm-up", nil)
	assert.ErrorIs(t, err, domain.ErrValidation)
	_, err = f.svc.CreateQuiz(ctx, f.owner.ID, "Basics", " ", nil)
	assert.ErrorIs(t, err, domain.ErrValidation)

	_, err = f.svc.CreateQuiz(ctx, uuid.NewString(), "Basics", "Warm-up", nil)
	assert.ErrorIs(t, err, domain.ErrUserNotFound)
}

func TestCreateQuizValidatesInitialQuestions(t *testing.T) {
	f := newQuizFixture(t)

	_, err := f.svc.CreateQuiz(context.Background(), f.owner.ID, "Basics", "Warm-up", []domain.Question{
		{QuestionText: "2+2?", Options: []string{"3", "4"}, CorrectAnswer: "4"},
		{QuestionText: "Odd one", Options: []string{"a"}, CorrectAnswer: "b"},
	})
	var verr *domain.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, []string{
		"question 1: At least two options are required",
		"question 1: Correct answer must be one of the options.",
	}, verr.Messages)
}

func TestAddQuestionChecks(t *testing.T) {
	ctx := context.Background()
	f := newQuizFixture(t)
	quiz, err := f.svc.CreateQuiz(ctx, f.owner.ID, "Basics", "Warm-up", nil)
	require.NoError(t, err)

	tests := []struct {
		name      string
		quizID    string
		requester string
		text      string
		options   []string
		correct   string
		want      error
	}{
		{"missing text", quiz.ID, f.owner.ID, "", []string{"a", "b"}, "a", domain.ErrValidation},
		{"one option", quiz.ID, f.owner.ID, "Q", []string{"a"}, "a", domain.ErrValidation},
		{"empty option", quiz.ID, f.owner.ID, "Q", []string{"a", " "}, "a", domain.ErrValidation},
		{"foreign answer", quiz.ID, f.owner.ID, "Q", []string{"a", "b"}, "c", domain.ErrValidation},
		{"unknown quiz as non-owner", uuid.NewString(), f.other.ID, "Q", []string{"a", "b"}, "a", domain.ErrQuizNotFound},
		{"malformed id", "not-an-id", f.owner.ID, "Q", []string{"a", "b"}, "a", domain.ErrQuizNotFound},
		{"non-owner", quiz.ID, f.other.ID, "Q", []string{"a", "b"}, "a", domain.ErrForbidden},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.svc.AddQuestion(ctx, tt.quizID, tt.requester, tt.text, tt.options, tt.correct)
			assert.ErrorIs(t, err, tt.want)
		})
	}

	stored, err := f.svc.GetQuiz(ctx, quiz.ID)
	require.NoError(t, err)
	assert.Empty(t, stored.Questions, "rejected questions must not be stored")
}

func TestAddQuestionAppendsInOrder(t *testing.T) {
	ctx := context.Background()
	f := newQuizFixture(t)
	quiz, err := f.svc.CreateQuiz(ctx, f.owner.ID, "Basics", "Warm-up", nil)
	require.NoError(t, err)

	options := []string{"Paris", "Lyon"}
	updated, err := f.svc.AddQuestion(ctx, quiz.ID, f.owner.ID, "Capital of France?", options, "Paris")
	require.NoError(t, err)
	options[0] = "Mutated"

	updated, err = f.svc.AddQuestion(ctx, quiz.ID, f.owner.ID, "2+2?", []string{"3", "4"}, "4")
	require.NoError(t, err)
	require.Len(t, updated.Questions, 2)
	assert.Equal(t, "Capital of France?", updated.Questions[0].QuestionText)
	assert.Equal(t, "Paris", updated.Questions[0].Options[0])
	assert.Equal(t, "2+2?", updated.Questions[1].QuestionText)
}

func TestConcurrentAddQuestionKeepsEveryQuestion(t *testing.T) {
	ctx := context.Background()
	f := newQuizFixture(t)
	quiz, err := f.svc.CreateQuiz(ctx, f.owner.ID, "Basics", "Warm-up", nil)
	require.NoError(t, err)

	const n = 30
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := f.svc.AddQuestion(ctx, quiz.ID, f.owner.ID, fmt.Sprintf("Q%d", i), []string{"a", "b"}, "a")
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	stored, err := f.svc.GetQuiz(ctx, quiz.ID)
	require.NoError(t, err)
	assert.Len(t, stored.Questions, n)
}

func TestSubmit(t *testing.T) {
	ctx := context.Background()
	f := newQuizFixture(t)
	quiz, err := f.svc.CreateQuiz(ctx, f.owner.ID, "Basics", "Warm-up", twoQuestionQuiz().Questions)
	require.NoError(t, err)

	result, err := f.svc.Submit(ctx, quiz.ID, f.other.ID, []domain.Answer{
		{QuestionIndex: 0, SelectedAnswer: "4"},
		{QuestionIndex: 7, SelectedAnswer: "Paris"},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, result.Score)
	assert.Equal(t, 2, result.TotalQuestions)
	assert.Equal(t, []int{7}, result.Skipped)

	_, err = f.svc.Submit(ctx, uuid.NewString(), f.other.ID, nil)
	assert.ErrorIs(t, err, domain.ErrQuizNotFound)
}

func TestListQuizzesJoinsCreator(t *testing.T) {
	ctx := context.Background()
	f := newQuizFixture(t)
	_, err := f.svc.CreateQuiz(ctx, f.owner.ID, "First", "one", nil)
	require.NoError(t, err)
	_, err = f.svc.CreateQuiz(ctx, f.other.ID, "Second", "two", nil)
	require.NoError(t, err)

	quizzes, err := f.svc.ListQuizzes(ctx)
	require.NoError(t, err)
	require.Len(t, quizzes, 2)
	assert.Equal(t, "First", quizzes[0].Title)
	require.NotNil(t, quizzes[0].Creator)
	assert.Equal(t, "alice", quizzes[0].Creator.Username)
	assert.Equal(t, "bob", quizzes[1].Creator.Username)
}
