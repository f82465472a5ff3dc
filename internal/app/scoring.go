package app

import "quiz-api/internal/domain"

// Score grades answers against quiz. Out-of-range indices are collected in
// Result.Skipped rather than failing. Every pair is graded on its own, so a
// correct answer repeated for the same index counts each time. Existing
// clients rely on that.
func Score(quiz domain.Quiz, answers []domain.Answer) domain.Result {
	total := len(quiz.Questions)
	result := domain.Result{TotalQuestions: total}
	for _, answer := range answers {
		if answer.QuestionIndex < 0 || answer.QuestionIndex >= total {
			result.Skipped = append(result.Skipped, answer.QuestionIndex)
			continue
		}
		if quiz.Questions[answer.QuestionIndex].CorrectAnswer == answer.SelectedAnswer {
			result.Score++
		}
	}
	return result
}
