package entity

import (
	"math"
	"time"
)

// QuizResult — результат по одному вопросу внутри попытки.
// Производная запись, никогда не редактируется.
type QuizResult struct {
	QuestionID    string `json:"question_id"`
	UserAnswer    string `json:"user_answer"`
	CorrectAnswer string `json:"correct_answer"`
	IsCorrect     bool   `json:"is_correct"`
}

// ExamAttempt — одна завершённая (или прерванная) попытка прохождения
// экзамена. Неизменяема после создания: попытку можно только удалить.
// QuestionIDs хранит точный порядок вопросов, чтобы пересдача могла
// воспроизвести его даже после изменения живого набора вопросов экзамена.
type ExamAttempt struct {
	ID             string       `json:"id"`
	ExamID         string       `json:"exam_id"`
	SubjectID      string       `json:"subject_id"`
	Timestamp      time.Time    `json:"timestamp"`
	Results        []QuizResult `json:"results"`
	Score          int          `json:"score"`
	TotalQuestions int          `json:"total_questions"`
	QuestionIDs    []string     `json:"question_ids"`
	IsComplete     bool         `json:"is_complete"`
}

// CorrectCount возвращает число верных ответов в попытке
func (a *ExamAttempt) CorrectCount() int {
	count := 0
	for _, r := range a.Results {
		if r.IsCorrect {
			count++
		}
	}
	return count
}

// CalculateScore считает итоговый балл 0–100 по всем вопросам попытки:
// round(100 * correct / total). Неотвеченные вопросы считаются неверными.
func CalculateScore(results []QuizResult) int {
	total := len(results)
	if total == 0 {
		return 0
	}
	correct := 0
	for _, r := range results {
		if r.IsCorrect {
			correct++
		}
	}
	return int(math.Round(float64(correct) / float64(total) * 100))
}
