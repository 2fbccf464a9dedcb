package dto

import (
	"time"

	"github.com/asaadmansour/leastud/internal/domain/entity"
)

// ResultResponse представляет результат по одному вопросу попытки
type ResultResponse struct {
	QuestionID    string `json:"question_id"`
	UserAnswer    string `json:"user_answer"`
	CorrectAnswer string `json:"correct_answer"`
	IsCorrect     bool   `json:"is_correct"`
}

// AttemptResponse представляет попытку прохождения экзамена
type AttemptResponse struct {
	ID             string           `json:"id"`
	ExamID         string           `json:"exam_id"`
	SubjectID      string           `json:"subject_id"`
	Timestamp      time.Time        `json:"timestamp"`
	Score          int              `json:"score"`
	CorrectAnswers int              `json:"correct_answers"`
	TotalQuestions int              `json:"total_questions"`
	IsComplete     bool             `json:"is_complete"`
	Results        []ResultResponse `json:"results,omitempty"`
}

// NewAttemptResponse создает DTO для попытки
func NewAttemptResponse(attempt *entity.ExamAttempt, includeResults bool) *AttemptResponse {
	if attempt == nil {
		return nil
	}

	var resultsDTO []ResultResponse
	if includeResults {
		resultsDTO = make([]ResultResponse, len(attempt.Results))
		for i, r := range attempt.Results {
			resultsDTO[i] = ResultResponse{
				QuestionID:    r.QuestionID,
				UserAnswer:    r.UserAnswer,
				CorrectAnswer: r.CorrectAnswer,
				IsCorrect:     r.IsCorrect,
			}
		}
	}

	return &AttemptResponse{
		ID:             attempt.ID,
		ExamID:         attempt.ExamID,
		SubjectID:      attempt.SubjectID,
		Timestamp:      attempt.Timestamp,
		Score:          attempt.Score,
		CorrectAnswers: attempt.CorrectCount(),
		TotalQuestions: attempt.TotalQuestions,
		IsComplete:     attempt.IsComplete,
		Results:        resultsDTO,
	}
}

// NewListAttemptResponse создает слайс DTO для списка попыток
func NewListAttemptResponse(attempts []entity.ExamAttempt) []*AttemptResponse {
	list := make([]*AttemptResponse, len(attempts))
	for i := range attempts {
		list[i] = NewAttemptResponse(&attempts[i], false)
	}
	return list
}
