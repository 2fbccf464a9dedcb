package entity

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCalculateScore_CountsUnansweredAsIncorrect(t *testing.T) {
	// 5 вопросов: 3 верных, 1 неверный, 1 без ответа
	results := []QuizResult{
		{QuestionID: "q1", UserAnswer: "a", CorrectAnswer: "a", IsCorrect: true},
		{QuestionID: "q2", UserAnswer: "b", CorrectAnswer: "b", IsCorrect: true},
		{QuestionID: "q3", UserAnswer: "c", CorrectAnswer: "c", IsCorrect: true},
		{QuestionID: "q4", UserAnswer: "x", CorrectAnswer: "d", IsCorrect: false},
		{QuestionID: "q5", UserAnswer: "", CorrectAnswer: "e", IsCorrect: false},
	}

	assert.Equal(t, 60, CalculateScore(results), "балл считается от всех вопросов, а не только отвеченных")
}

func TestCalculateScore_Rounding(t *testing.T) {
	// 2 из 3 — 66.67 округляется до 67
	results := []QuizResult{
		{IsCorrect: true},
		{IsCorrect: true},
		{IsCorrect: false},
	}

	assert.Equal(t, 67, CalculateScore(results))
	assert.Equal(t, 0, CalculateScore(nil), "пустая попытка даёт 0")
}

func TestQuestion_IsCorrect(t *testing.T) {
	q := Question{ID: "q1", Text: "2+2?", Answers: []string{"3", "4"}, Correct: "4"}

	assert.True(t, q.IsCorrect("4"))
	assert.False(t, q.IsCorrect("3"))
	assert.False(t, q.IsCorrect(""), "пустой ответ всегда неверен")
}

func TestSubject_IsSeed_FallsBackToIDPrefix(t *testing.T) {
	// Снимки, записанные до появления поля Origin, не содержат его
	legacy := Subject{ID: "preloaded-subject-math"}
	user := Subject{ID: "subject-123"}
	tagged := Subject{ID: "subject-456", Origin: OriginSeed}

	assert.True(t, legacy.IsSeed())
	assert.False(t, user.IsSeed())
	assert.True(t, tagged.IsSeed(), "явный Origin имеет приоритет над префиксом")
}

func TestOverlayKey_Format(t *testing.T) {
	key := OverlayKey("preloaded-subject-math", "preloaded-exam-preloaded-subject-math-algebra")
	assert.Equal(t, "preloaded-subject-math-preloaded-exam-preloaded-subject-math-algebra", key)
}
