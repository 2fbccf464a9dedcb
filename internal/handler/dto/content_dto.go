package dto

import (
	"time"

	"github.com/asaadmansour/leastud/internal/domain/entity"
)

// QuestionResponse представляет вопрос в формате для ответа клиенту
type QuestionResponse struct {
	ID      string   `json:"id"`
	Text    string   `json:"text"`
	Answers []string `json:"answers"`
	Correct string   `json:"correct"`
	Origin  string   `json:"origin,omitempty"`
}

// ExamResponse представляет экзамен в формате для ответа клиенту
type ExamResponse struct {
	ID            string             `json:"id"`
	Name          string             `json:"name"`
	Origin        string             `json:"origin,omitempty"`
	QuestionCount int                `json:"question_count"`
	Questions     []QuestionResponse `json:"questions,omitempty"`
	CreatedAt     time.Time          `json:"created_at"`
}

// SubjectResponse представляет предмет в формате для ответа клиенту
type SubjectResponse struct {
	ID        string         `json:"id"`
	Name      string         `json:"name"`
	Origin    string         `json:"origin,omitempty"`
	ExamCount int            `json:"exam_count"`
	Exams     []ExamResponse `json:"exams,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
}

// NewQuestionResponse создает DTO для вопроса
func NewQuestionResponse(q *entity.Question) QuestionResponse {
	return QuestionResponse{
		ID:      q.ID,
		Text:    q.Text,
		Answers: q.Answers,
		Correct: q.Correct,
		Origin:  string(q.Origin),
	}
}

// NewExamResponse создает DTO для экзамена
func NewExamResponse(exam *entity.Exam, includeQuestions bool) *ExamResponse {
	if exam == nil {
		return nil
	}

	var questionsDTO []QuestionResponse
	if includeQuestions {
		questionsDTO = make([]QuestionResponse, len(exam.Questions))
		for i := range exam.Questions {
			questionsDTO[i] = NewQuestionResponse(&exam.Questions[i])
		}
	}

	return &ExamResponse{
		ID:            exam.ID,
		Name:          exam.Name,
		Origin:        string(exam.Origin),
		QuestionCount: len(exam.Questions),
		Questions:     questionsDTO,
		CreatedAt:     exam.CreatedAt,
	}
}

// NewSubjectResponse создает DTO для предмета
func NewSubjectResponse(subject *entity.Subject, includeExams bool) *SubjectResponse {
	if subject == nil {
		return nil
	}

	var examsDTO []ExamResponse
	if includeExams {
		examsDTO = make([]ExamResponse, len(subject.Exams))
		for i := range subject.Exams {
			examsDTO[i] = *NewExamResponse(&subject.Exams[i], false)
		}
	}

	return &SubjectResponse{
		ID:        subject.ID,
		Name:      subject.Name,
		Origin:    string(subject.Origin),
		ExamCount: len(subject.Exams),
		Exams:     examsDTO,
		CreatedAt: subject.CreatedAt,
	}
}

// NewListSubjectResponse создает слайс DTO для списка предметов
func NewListSubjectResponse(subjects []entity.Subject) []*SubjectResponse {
	list := make([]*SubjectResponse, len(subjects))
	for i := range subjects {
		list[i] = NewSubjectResponse(&subjects[i], false)
	}
	return list
}
