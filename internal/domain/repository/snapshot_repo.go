package repository

import "github.com/asaadmansour/leastud/internal/domain/entity"

// Snapshot — единственная долговременная запись приложения: живая коллекция
// предметов, оверлей пользовательских вопросов для встроенных экзаменов и
// журнал попыток. Восстанавливается целиком при старте, после чего один раз
// выполняется слияние встроенного каталога.
type Snapshot struct {
	Subjects []entity.Subject              `json:"subjects"`
	Overlay  map[string][]entity.Question  `json:"user_questions_for_preloaded"`
	Attempts []entity.ExamAttempt          `json:"attempts"`
}

// SnapshotRepository определяет интерфейс долговременного хранения снимка
type SnapshotRepository interface {
	// Load возвращает последний сохранённый снимок,
	// либо apperrors.ErrNotFound при первом запуске.
	Load() (*Snapshot, error)

	// Save перезаписывает снимок целиком.
	Save(snapshot *Snapshot) error
}
