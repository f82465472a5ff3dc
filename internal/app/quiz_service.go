package app

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"quiz-api/internal/domain"
)

// QuizService contains the quiz authoring and taking use cases.
type QuizService struct {
	quizzes QuizRepository
	users   UserRepository
	log     *slog.Logger
	now     func() time.Time
}

func NewQuizService(quizzes QuizRepository, users UserRepository, log *slog.Logger) *QuizService {
	return NewQuizServiceWithClock(quizzes, users, log, time.Now)
}

// NewQuizServiceWithClock is test-only for deterministic timestamps.
func NewQuizServiceWithClock(quizzes QuizRepository, users UserRepository, log *slog.Logger, now func() time.Time) *QuizService {
	return &QuizService{quizzes: quizzes, users: users, log: log, now: now}
}

// CreateQuiz stores a new quiz owned by creatorID. The creator always comes
// from the authenticated identity, never from the request body.
func (s *QuizService) CreateQuiz(ctx context.Context, creatorID, title, description string, questions []domain.Question) (domain.Quiz, error) {
	title = strings.TrimSpace(title)
	if title == "" || strings.TrimSpace(description) == "" {
		return domain.Quiz{}, domain.NewValidationError("Please provide title and description")
	}
	var problems []string
	for i, q := range questions {
		for _, msg := range validateQuestion(q.QuestionText, q.Options, q.CorrectAnswer) {
			problems = append(problems, fmt.Sprintf("question %d: %s", i, msg))
		}
	}
	if len(problems) > 0 {
		return domain.Quiz{}, domain.NewValidationError(problems...)
	}

	if _, err := s.users.FindByID(ctx, creatorID); err != nil {
		return domain.Quiz{}, fmt.Errorf("resolve creator: %w", err)
	}

	if questions == nil {
		questions = []domain.Question{}
	}
	quiz, err := s.quizzes.Create(ctx, domain.Quiz{
		ID:          uuid.NewString(),
		Title:       title,
		Description: description,
		CreatedBy:   creatorID,
		Questions:   questions,
		CreatedAt:   s.now().UTC(),
	})
	if err != nil {
		return domain.Quiz{}, fmt.Errorf("create quiz: %w", err)
	}
	s.log.InfoContext(ctx, "quiz created", "quiz_id", quiz.ID, "creator", creatorID, "questions", len(quiz.Questions))
	return quiz, nil
}

// AddQuestion appends a question to a quiz owned by requesterID.
// Checks run in order: question shape, quiz existence, ownership. A
// non-owner probing an unknown id therefore sees ErrQuizNotFound.
func (s *QuizService) AddQuestion(ctx context.Context, quizID, requesterID, questionText string, options []string, correctAnswer string) (domain.Quiz, error) {
	if problems := validateQuestion(questionText, options, correctAnswer); len(problems) > 0 {
		return domain.Quiz{}, domain.NewValidationError(problems...)
	}

	quiz, err := s.quizzes.FindByID(ctx, quizID)
	if err != nil {
		return domain.Quiz{}, err
	}
	if quiz.CreatedBy != requesterID {
		return domain.Quiz{}, domain.ErrForbidden
	}

	updated, err := s.quizzes.AppendQuestion(ctx, quizID, domain.Question{
		QuestionText:  questionText,
		Options:       append([]string(nil), options...),
		CorrectAnswer: correctAnswer,
	})
	if err != nil {
		return domain.Quiz{}, fmt.Errorf("append question: %w", err)
	}
	return updated, nil
}

// GetQuiz returns a quiz with its questions and correct answers.
func (s *QuizService) GetQuiz(ctx context.Context, quizID string) (domain.Quiz, error) {
	return s.quizzes.FindByID(ctx, quizID)
}

// ListQuizzes returns every quiz with its creator joined.
func (s *QuizService) ListQuizzes(ctx context.Context) ([]domain.Quiz, error) {
	quizzes, err := s.quizzes.FindAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("list quizzes: %w", err)
	}
	return quizzes, nil
}

// Submit scores answers against the stored quiz. Nothing is persisted.
func (s *QuizService) Submit(ctx context.Context, quizID, userID string, answers []domain.Answer) (domain.Result, error) {
	quiz, err := s.quizzes.FindByID(ctx, quizID)
	if err != nil {
		return domain.Result{}, err
	}
	result := Score(quiz, answers)
	for _, idx := range result.Skipped {
		s.log.WarnContext(ctx, "invalid question index", "quiz_id", quizID, "user_id", userID, "index", idx)
	}
	return result, nil
}

func validateQuestion(questionText string, options []string, correctAnswer string) []string {
	var problems []string
	if strings.TrimSpace(questionText) == "" {
		problems = append(problems, "Question text is required")
	}
	if len(options) < 2 {
		problems = append(problems, "At least two options are required")
	}
	for i, opt := range options {
		if strings.TrimSpace(opt) == "" {
			problems = append(problems, fmt.Sprintf("Option %d must not be empty", i))
		}
	}
	switch {
	case correctAnswer == "":
		problems = append(problems, "Correct answer is required")
	case !contains(options, correctAnswer):
		problems = append(problems, "Correct answer must be one of the options.")
	}
	return problems
}

func contains(values []string, target string) bool {
	for _, value := range values {
		if value == target {
			return true
		}
	}
	return false
}
