package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"quiz-api/internal/domain"
)

const quizColumns = `id::text, title, description, created_by::text, questions, created_at`

// QuizRepository stores quizzes with their questions as a JSONB array.
type QuizRepository struct {
	pool *pgxpool.Pool
}

func NewQuizRepository(pool *pgxpool.Pool) *QuizRepository {
	return &QuizRepository{pool: pool}
}

func (r *QuizRepository) Create(ctx context.Context, quiz domain.Quiz) (domain.Quiz, error) {
	if quiz.Questions == nil {
		quiz.Questions = []domain.Question{}
	}
	raw, err := json.Marshal(quiz.Questions)
	if err != nil {
		return domain.Quiz{}, fmt.Errorf("marshal questions: %w", err)
	}
	_, err = r.pool.Exec(ctx,
		`INSERT INTO quizzes (id, title, description, created_by, questions, created_at)
		 VALUES ($1, $2, $3, $4, $5::jsonb, $6)`,
		quiz.ID, quiz.Title, quiz.Description, quiz.CreatedBy, string(raw), quiz.CreatedAt)
	if err != nil {
		if isPgError(err, foreignKeyViolation) {
			return domain.Quiz{}, domain.ErrUserNotFound
		}
		return domain.Quiz{}, fmt.Errorf("insert quiz: %w", err)
	}
	quiz.Creator = nil
	return quiz, nil
}

func (r *QuizRepository) FindByID(ctx context.Context, id string) (domain.Quiz, error) {
	if _, err := uuid.Parse(id); err != nil {
		return domain.Quiz{}, domain.ErrQuizNotFound
	}
	row := r.pool.QueryRow(ctx, `SELECT `+quizColumns+` FROM quizzes WHERE id = $1`, id)
	return scanQuiz(row)
}

func (r *QuizRepository) FindAll(ctx context.Context) ([]domain.Quiz, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT q.id::text, q.title, q.description, q.created_by::text, q.questions, q.created_at, u.username
		FROM quizzes q
		JOIN users u ON u.id = q.created_by
		ORDER BY q.created_at, q.id`)
	if err != nil {
		return nil, fmt.Errorf("query quizzes: %w", err)
	}
	defer rows.Close()

	quizzes := []domain.Quiz{}
	for rows.Next() {
		var (
			quiz     domain.Quiz
			raw      []byte
			username string
		)
		if err := rows.Scan(&quiz.ID, &quiz.Title, &quiz.Description, &quiz.CreatedBy, &raw, &quiz.CreatedAt, &username); err != nil {
			return nil, fmt.Errorf("scan quiz: %w", err)
		}
		if err := json.Unmarshal(raw, &quiz.Questions); err != nil {
			return nil, fmt.Errorf("unmarshal questions: %w", err)
		}
		quiz.Creator = &domain.Creator{ID: quiz.CreatedBy, Username: username}
		quizzes = append(quizzes, quiz)
	}
	return quizzes, rows.Err()
}

// AppendQuestion appends in a single UPDATE, so the row lock serializes
// concurrent appends and readers see either the old or the new array.
func (r *QuizRepository) AppendQuestion(ctx context.Context, quizID string, question domain.Question) (domain.Quiz, error) {
	if _, err := uuid.Parse(quizID); err != nil {
		return domain.Quiz{}, domain.ErrQuizNotFound
	}
	raw, err := json.Marshal(question)
	if err != nil {
		return domain.Quiz{}, fmt.Errorf("marshal question: %w", err)
	}
	row := r.pool.QueryRow(ctx, `
		UPDATE quizzes
		SET questions = questions || jsonb_build_array($2::jsonb)
		WHERE id = $1
		RETURNING `+quizColumns, quizID, string(raw))
	return scanQuiz(row)
}

func scanQuiz(row pgx.Row) (domain.Quiz, error) {
	var (
		quiz domain.Quiz
		raw  []byte
	)
	err := row.Scan(&quiz.ID, &quiz.Title, &quiz.Description, &quiz.CreatedBy, &raw, &quiz.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Quiz{}, domain.ErrQuizNotFound
	}
	if err != nil {
		return domain.Quiz{}, fmt.Errorf("scan quiz: %w", err)
	}
	if err := json.Unmarshal(raw, &quiz.Questions); err != nil {
		return domain.Quiz{}, fmt.Errorf("unmarshal questions: %w", err)
	}
	return quiz, nil
}
