package service

import (
	"fmt"
	"sort"
	"sync"

	"github.com/asaadmansour/leastud/internal/domain/entity"
	apperrors "github.com/asaadmansour/leastud/internal/pkg/errors"
)

// AttemptService хранит журнал попыток прохождения экзаменов. Попытки
// неизменяемы: их можно записать, прочитать и удалить, но не отредактировать.
type AttemptService struct {
	mu       sync.RWMutex
	attempts []entity.ExamAttempt

	onChange func()
}

// NewAttemptService создает пустой журнал попыток
func NewAttemptService() *AttemptService {
	return &AttemptService{}
}

// SetOnChange устанавливает хук сохранения состояния
func (s *AttemptService) SetOnChange(fn func()) {
	s.onChange = fn
}

func (s *AttemptService) changed() {
	if s.onChange != nil {
		s.onChange()
	}
}

// Restore заменяет журнал содержимым сохранённого снимка
func (s *AttemptService) Restore(attempts []entity.ExamAttempt) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.attempts = append([]entity.ExamAttempt(nil), attempts...)
}

// Snapshot возвращает копию журнала для сохранения
func (s *AttemptService) Snapshot() []entity.ExamAttempt {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]entity.ExamAttempt(nil), s.attempts...)
}

// Record добавляет попытку в журнал
func (s *AttemptService) Record(attempt entity.ExamAttempt) {
	s.mu.Lock()
	s.attempts = append(s.attempts, attempt)
	s.mu.Unlock()

	s.changed()
}

// GetAll возвращает все попытки, новые первыми
func (s *AttemptService) GetAll() []entity.ExamAttempt {
	s.mu.RLock()
	out := append([]entity.ExamAttempt(nil), s.attempts...)
	s.mu.RUnlock()

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Timestamp.After(out[j].Timestamp)
	})
	return out
}

// GetByExam возвращает попытки одного экзамена, новые первыми
func (s *AttemptService) GetByExam(examID string) []entity.ExamAttempt {
	all := s.GetAll()
	out := make([]entity.ExamAttempt, 0, len(all))
	for _, a := range all {
		if a.ExamID == examID {
			out = append(out, a)
		}
	}
	return out
}

// GetByID возвращает попытку по её ID
func (s *AttemptService) GetByID(attemptID string) (*entity.ExamAttempt, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for i := range s.attempts {
		if s.attempts[i].ID == attemptID {
			attempt := s.attempts[i]
			return &attempt, nil
		}
	}
	return nil, fmt.Errorf("attempt %s: %w", attemptID, apperrors.ErrNotFound)
}

// MostRecent возвращает последнюю по времени попытку экзамена, либо nil.
// Используется пересдачей для воспроизведения точного набора и порядка
// вопросов.
func (s *AttemptService) MostRecent(examID string) *entity.ExamAttempt {
	attempts := s.GetByExam(examID)
	if len(attempts) == 0 {
		return nil
	}
	attempt := attempts[0]
	return &attempt
}

// Delete удаляет попытку из журнала
func (s *AttemptService) Delete(attemptID string) error {
	s.mu.Lock()
	index := -1
	for i := range s.attempts {
		if s.attempts[i].ID == attemptID {
			index = i
			break
		}
	}
	if index < 0 {
		s.mu.Unlock()
		return fmt.Errorf("attempt %s: %w", attemptID, apperrors.ErrNotFound)
	}
	s.attempts = append(s.attempts[:index], s.attempts[index+1:]...)
	s.mu.Unlock()

	s.changed()
	return nil
}
