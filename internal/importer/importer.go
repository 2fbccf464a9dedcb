// Package importer валидирует и преобразует внешние документы с вопросами.
// Чистые функции без внутреннего состояния: валидация выполняется до любой
// записи в хранилище.
package importer

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/asaadmansour/leastud/internal/domain/entity"
	apperrors "github.com/asaadmansour/leastud/internal/pkg/errors"
)

// Document — документ импорта: один предмет, один экзамен, список вопросов
type Document struct {
	Subject   string        `json:"subject"`
	Exam      string        `json:"exam"`
	Questions []RawQuestion `json:"questions"`
}

// RawQuestion — вопрос в том виде, в каком он приходит в документе импорта
type RawQuestion struct {
	Question string   `json:"question"`
	Answers  []string `json:"answers"`
	Correct  string   `json:"correct"`
}

// Parse разбирает документ импорта. Синтаксически сломанный JSON даёт общую
// ошибку формата; структурные нарушения — описательную ошибку с именем поля.
func Parse(data []byte) (*Document, error) {
	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: invalid JSON", apperrors.ErrInvalidFormat)
	}

	if err := validateDocument(&doc); err != nil {
		return nil, err
	}
	return &doc, nil
}

// ParseMany разбирает массив документов импорта (формат встроенного каталога)
func ParseMany(data []byte) ([]Document, error) {
	var docs []Document
	if err := json.Unmarshal(data, &docs); err != nil {
		return nil, fmt.Errorf("%w: invalid JSON", apperrors.ErrInvalidFormat)
	}

	for i := range docs {
		if err := validateDocument(&docs[i]); err != nil {
			return nil, fmt.Errorf("document #%d: %w", i+1, err)
		}
	}
	return docs, nil
}

// validateDocument проверяет структуру документа: { subject, exam, questions[] }.
// Пустой массив вопросов допустим, отсутствующий — нет.
func validateDocument(doc *Document) error {
	if strings.TrimSpace(doc.Subject) == "" {
		return fmt.Errorf("%w: field \"subject\" is required", apperrors.ErrValidation)
	}
	if strings.TrimSpace(doc.Exam) == "" {
		return fmt.Errorf("%w: field \"exam\" is required", apperrors.ErrValidation)
	}
	if doc.Questions == nil {
		return fmt.Errorf("%w: field \"questions\" must be an array", apperrors.ErrValidation)
	}

	for i, q := range doc.Questions {
		if strings.TrimSpace(q.Question) == "" {
			return fmt.Errorf("%w: question #%d: field \"question\" is required", apperrors.ErrValidation, i+1)
		}
		if q.Answers == nil {
			return fmt.Errorf("%w: question #%d: field \"answers\" must be an array", apperrors.ErrValidation, i+1)
		}
		if strings.TrimSpace(q.Correct) == "" {
			return fmt.Errorf("%w: question #%d: field \"correct\" is required", apperrors.ErrValidation, i+1)
		}
		if !containsString(q.Answers, q.Correct) {
			return fmt.Errorf("%w: question #%d: correct answer %q must be in answers", apperrors.ErrValidation, i+1, q.Correct)
		}
	}
	return nil
}

// ValidateQuestion проверяет форму одного вопроса при ручном создании
// и редактировании
func ValidateQuestion(text string, answers []string, correct string) error {
	if strings.TrimSpace(text) == "" {
		return fmt.Errorf("%w: question text is required", apperrors.ErrValidation)
	}
	if len(answers) < 2 {
		return fmt.Errorf("%w: at least 2 answer options are required", apperrors.ErrValidation)
	}
	for _, a := range answers {
		if strings.TrimSpace(a) == "" {
			return fmt.Errorf("%w: all answer options must be filled", apperrors.ErrValidation)
		}
	}
	if strings.TrimSpace(correct) == "" {
		return fmt.Errorf("%w: correct answer must be selected", apperrors.ErrValidation)
	}
	if !containsString(answers, correct) {
		return fmt.Errorf("%w: correct answer must be one of the answer options", apperrors.ErrValidation)
	}
	return nil
}

// ToQuestions преобразует вопросы документа в сущности со свежими ID
func (d *Document) ToQuestions(origin entity.Origin) []entity.Question {
	questions := make([]entity.Question, 0, len(d.Questions))
	for _, raw := range d.Questions {
		questions = append(questions, entity.Question{
			ID:      NewQuestionID(),
			Text:    raw.Question,
			Answers: append([]string(nil), raw.Answers...),
			Correct: raw.Correct,
			Origin:  origin,
		})
	}
	return questions
}

// NewQuestionID генерирует уникальный ID вопроса
func NewQuestionID() string {
	return "question-" + uuid.NewString()
}

func containsString(list []string, value string) bool {
	for _, item := range list {
		if item == value {
			return true
		}
	}
	return false
}
