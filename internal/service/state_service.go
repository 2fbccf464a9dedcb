package service

import (
	"errors"
	"log"

	"github.com/asaadmansour/leastud/internal/domain/repository"
	apperrors "github.com/asaadmansour/leastud/internal/pkg/errors"
)

// StateService связывает сервисы каталога и попыток с долговременным
// хранилищем: восстанавливает снимок при старте и перезаписывает его после
// каждой мутации. Ошибки сохранения логируются и не прерывают операцию,
// вызвавшую мутацию.
type StateService struct {
	content  *ContentService
	attempts *AttemptService
	repo     repository.SnapshotRepository
}

// NewStateService создает сервис состояния и подписывает его на мутации
// обоих сервисов
func NewStateService(content *ContentService, attempts *AttemptService, repo repository.SnapshotRepository) *StateService {
	s := &StateService{
		content:  content,
		attempts: attempts,
		repo:     repo,
	}
	content.SetOnChange(s.persist)
	attempts.SetOnChange(s.persist)
	return s
}

// Restore загружает последний снимок и выполняет слияние встроенного
// каталога. Отсутствие снимка (первый запуск) не является ошибкой.
func (s *StateService) Restore() error {
	snapshot, err := s.repo.Load()
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			log.Println("[StateService] Снимок не найден, старт с пустого состояния")
			s.content.InitializePreloaded()
			return nil
		}
		return err
	}

	s.content.Restore(snapshot.Subjects, snapshot.Overlay)
	s.attempts.Restore(snapshot.Attempts)
	s.content.InitializePreloaded()
	log.Printf("[StateService] Снимок восстановлен: %d предметов, %d попыток",
		len(snapshot.Subjects), len(snapshot.Attempts))
	return nil
}

// Save принудительно записывает текущее состояние
func (s *StateService) Save() error {
	subjects, overlay := s.content.Snapshot()
	return s.repo.Save(&repository.Snapshot{
		Subjects: subjects,
		Overlay:  overlay,
		Attempts: s.attempts.Snapshot(),
	})
}

func (s *StateService) persist() {
	if err := s.Save(); err != nil {
		log.Printf("[StateService] Ошибка сохранения снимка: %v", err)
	}
}
