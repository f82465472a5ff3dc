package memory

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"quiz-api/internal/app"
	"quiz-api/internal/domain"
)

// QuizRepository keeps quizzes in process memory, in creation order.
// Stored question slices are never modified in place: AppendQuestion swaps in
// a fresh slice, so a snapshot handed to a reader stays consistent.
type QuizRepository struct {
	users app.UserRepository

	mu      sync.RWMutex
	quizzes map[string]domain.Quiz
	order   []string
}

func NewQuizRepository(users app.UserRepository) *QuizRepository {
	return &QuizRepository{
		users:   users,
		quizzes: make(map[string]domain.Quiz),
	}
}

func (r *QuizRepository) Create(_ context.Context, quiz domain.Quiz) (domain.Quiz, error) {
	quiz.Questions = cloneQuestions(quiz.Questions)
	quiz.Creator = nil

	r.mu.Lock()
	defer r.mu.Unlock()
	r.quizzes[quiz.ID] = quiz
	r.order = append(r.order, quiz.ID)
	return quiz, nil
}

func (r *QuizRepository) FindByID(_ context.Context, id string) (domain.Quiz, error) {
	if _, err := uuid.Parse(id); err != nil {
		return domain.Quiz{}, domain.ErrQuizNotFound
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	quiz, ok := r.quizzes[id]
	if !ok {
		return domain.Quiz{}, domain.ErrQuizNotFound
	}
	return quiz, nil
}

func (r *QuizRepository) FindAll(ctx context.Context) ([]domain.Quiz, error) {
	r.mu.RLock()
	quizzes := make([]domain.Quiz, 0, len(r.order))
	for _, id := range r.order {
		quizzes = append(quizzes, r.quizzes[id])
	}
	r.mu.RUnlock()

	for i := range quizzes {
		creator := &domain.Creator{ID: quizzes[i].CreatedBy}
		if user, err := r.users.FindByID(ctx, quizzes[i].CreatedBy); err == nil {
			creator.Username = user.Username
		}
		quizzes[i].Creator = creator
	}
	return quizzes, nil
}

func (r *QuizRepository) AppendQuestion(_ context.Context, quizID string, question domain.Question) (domain.Quiz, error) {
	if _, err := uuid.Parse(quizID); err != nil {
		return domain.Quiz{}, domain.ErrQuizNotFound
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	quiz, ok := r.quizzes[quizID]
	if !ok {
		return domain.Quiz{}, domain.ErrQuizNotFound
	}
	questions := make([]domain.Question, len(quiz.Questions), len(quiz.Questions)+1)
	copy(questions, quiz.Questions)
	quiz.Questions = append(questions, question)
	r.quizzes[quizID] = quiz
	return quiz, nil
}

func cloneQuestions(questions []domain.Question) []domain.Question {
	out := make([]domain.Question, len(questions))
	copy(out, questions)
	return out
}
