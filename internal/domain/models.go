package domain

import "time"

// User is a registered account. PasswordHash never leaves the server.
type User struct {
	ID           string    `json:"id"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"createdAt"`
}

// Creator is the joined view of a quiz author.
type Creator struct {
	ID       string `json:"id"`
	Username string `json:"username"`
}

// Question is a multiple-choice question embedded in a quiz.
// It is addressed by its position in Quiz.Questions.
type Question struct {
	QuestionText  string   `json:"questionText"`
	Options       []string `json:"options"`
	CorrectAnswer string   `json:"correctAnswer"`
}

// Quiz is a titled, append-only list of questions owned by its creator.
type Quiz struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	CreatedBy   string     `json:"createdBy"`
	Creator     *Creator   `json:"creator,omitempty"`
	Questions   []Question `json:"questions"`
	CreatedAt   time.Time  `json:"createdAt"`
}

// Answer is one submitted (questionIndex, selectedAnswer) pair.
type Answer struct {
	QuestionIndex  int    `json:"questionIndex"`
	SelectedAnswer string `json:"selectedAnswer"`
}

// Result summarizes a scored submission.
type Result struct {
	Score          int   `json:"score"`
	TotalQuestions int   `json:"totalQuestions"`
	Skipped        []int `json:"-"`
}
