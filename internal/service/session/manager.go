package session

import (
	"fmt"
	"log"
	"math/rand"
	"sync"

	"github.com/asaadmansour/leastud/internal/domain/entity"
	apperrors "github.com/asaadmansour/leastud/internal/pkg/errors"
)

// Manager владеет активными сессиями викторины. Завершённая сессия
// удаляется из карты автоматически.
type Manager struct {
	cfg      *Config
	recorder AttemptRecorder

	sessions sync.Map // map[string]*Session
}

// NewManager создает менеджер сессий
func NewManager(cfg *Config, recorder AttemptRecorder) *Manager {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	return &Manager{
		cfg:      cfg,
		recorder: recorder,
	}
}

// Start создает новую сессию по набору вопросов экзамена
func (m *Manager) Start(subjectID, examID string, questions []entity.Question) (*Session, error) {
	if len(questions) == 0 {
		return nil, fmt.Errorf("exam has no questions: %w", apperrors.ErrValidation)
	}

	s := newSession(subjectID, examID, questions, m.cfg, m.recorder)
	s.onClose = func() {
		m.sessions.Delete(s.ID)
	}
	m.sessions.Store(s.ID, s)

	log.Printf("[SessionManager] Сессия %s создана для экзамена %s (%d вопросов)", s.ID, examID, len(questions))
	return s, nil
}

// Get возвращает активную сессию по ID
func (m *Manager) Get(sessionID string) (*Session, error) {
	value, ok := m.sessions.Load(sessionID)
	if !ok {
		return nil, fmt.Errorf("session %s: %w", sessionID, apperrors.ErrNotFound)
	}
	return value.(*Session), nil
}

// SelectFreshQuestions случайно выбирает count вопросов из пула экзамена:
// перемешивание и усечение. Count ограничивается диапазоном 1..N; значение
// вне диапазона означает весь пул.
func SelectFreshQuestions(pool []entity.Question, count int) []entity.Question {
	if count <= 0 || count > len(pool) {
		count = len(pool)
	}

	selected := entity.CloneQuestions(pool)
	rand.Shuffle(len(selected), func(i, j int) {
		selected[i], selected[j] = selected[j], selected[i]
	})
	return selected[:count]
}

// ResolveRetakeQuestions восстанавливает точный набор и порядок вопросов
// прошлой попытки по живому экзамену. Вопросы, которых в экзамене больше
// нет, молча пропускаются; пустой результат означает, что пересдача
// невозможна и нужно начать обычную сессию.
func ResolveRetakeQuestions(exam *entity.Exam, attempt *entity.ExamAttempt) []entity.Question {
	if exam == nil || attempt == nil {
		return nil
	}

	questions := make([]entity.Question, 0, len(attempt.QuestionIDs))
	for _, id := range attempt.QuestionIDs {
		if q := exam.FindQuestion(id); q != nil {
			questions = append(questions, q.Clone())
		}
	}
	return questions
}
