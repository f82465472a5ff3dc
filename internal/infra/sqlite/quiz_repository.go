package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/mattn/go-sqlite3"

	"quiz-api/internal/domain"
)

const quizColumns = `id, title, description, created_by, questions, created_at`

// QuizRepository stores questions as a JSON array column.
type QuizRepository struct {
	db *sql.DB
}

func NewQuizRepository(db *sql.DB) *QuizRepository {
	return &QuizRepository{db: db}
}

func (r *QuizRepository) Create(ctx context.Context, quiz domain.Quiz) (domain.Quiz, error) {
	if quiz.Questions == nil {
		quiz.Questions = []domain.Question{}
	}
	raw, err := json.Marshal(quiz.Questions)
	if err != nil {
		return domain.Quiz{}, fmt.Errorf("marshal questions: %w", err)
	}
	_, err = r.db.ExecContext(ctx,
		`INSERT INTO quizzes (`+quizColumns+`) VALUES (?, ?, ?, ?, ?, ?)`,
		quiz.ID, quiz.Title, quiz.Description, quiz.CreatedBy, string(raw), quiz.CreatedAt.UTC())
	if err != nil {
		if isConstraint(err, sqlite3.ErrConstraintForeignKey) {
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
	row := r.db.QueryRowContext(ctx, `SELECT `+quizColumns+` FROM quizzes WHERE id = ?`, id)
	return scanQuiz(row)
}

func (r *QuizRepository) FindAll(ctx context.Context) ([]domain.Quiz, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT q.id, q.title, q.description, q.created_by, q.questions, q.created_at, u.username
		FROM quizzes q
		JOIN users u ON u.id = q.created_by
		ORDER BY q.rowid`)
	if err != nil {
		return nil, fmt.Errorf("query quizzes: %w", err)
	}
	defer rows.Close()

	quizzes := []domain.Quiz{}
	for rows.Next() {
		var (
			quiz     domain.Quiz
			raw      string
			username string
		)
		if err := rows.Scan(&quiz.ID, &quiz.Title, &quiz.Description, &quiz.CreatedBy, &raw, &quiz.CreatedAt, &username); err != nil {
			return nil, fmt.Errorf("scan quiz: %w", err)
		}
		if err := json.Unmarshal([]byte(raw), &quiz.Questions); err != nil {
			return nil, fmt.Errorf("unmarshal questions: %w", err)
		}
		quiz.Creator = &domain.Creator{ID: quiz.CreatedBy, Username: username}
		quizzes = append(quizzes, quiz)
	}
	return quizzes, rows.Err()
}

// AppendQuestion appends with json_insert and reads the row back in the same
// transaction.
func (r *QuizRepository) AppendQuestion(ctx context.Context, quizID string, question domain.Question) (domain.Quiz, error) {
	if _, err := uuid.Parse(quizID); err != nil {
		return domain.Quiz{}, domain.ErrQuizNotFound
	}
	raw, err := json.Marshal(question)
	if err != nil {
		return domain.Quiz{}, fmt.Errorf("marshal question: %w", err)
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return domain.Quiz{}, fmt.Errorf("begin append: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		`UPDATE quizzes SET questions = json_insert(questions, '$[#]', json(?)) WHERE id = ?`,
		string(raw), quizID)
	if err != nil {
		return domain.Quiz{}, fmt.Errorf("append question: %w", err)
	}
	if n, err := res.RowsAffected(); err != nil {
		return domain.Quiz{}, err
	} else if n == 0 {
		return domain.Quiz{}, domain.ErrQuizNotFound
	}
	quiz, err := scanQuiz(tx.QueryRowContext(ctx, `SELECT `+quizColumns+` FROM quizzes WHERE id = ?`, quizID))
	if err != nil {
		return domain.Quiz{}, err
	}
	if err := tx.Commit(); err != nil {
		return domain.Quiz{}, fmt.Errorf("commit append: %w", err)
	}
	return quiz, nil
}

func scanQuiz(row *sql.Row) (domain.Quiz, error) {
	var (
		quiz domain.Quiz
		raw  string
	)
	err := row.Scan(&quiz.ID, &quiz.Title, &quiz.Description, &quiz.CreatedBy, &raw, &quiz.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Quiz{}, domain.ErrQuizNotFound
	}
	if err != nil {
		return domain.Quiz{}, fmt.Errorf("scan quiz: %w", err)
	}
	if err := json.Unmarshal([]byte(raw), &quiz.Questions); err != nil {
		return domain.Quiz{}, fmt.Errorf("unmarshal questions: %w", err)
	}
	return quiz, nil
}
