// Package sqlite реализует долговременное хранение снимка состояния в
// локальной базе SQLite. Снимок хранится одной строкой с JSON-колонками:
// состояние приложения пишется и читается целиком, как единое целое.
package sqlite

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/asaadmansour/leastud/internal/domain/entity"
	"github.com/asaadmansour/leastud/internal/domain/repository"
	apperrors "github.com/asaadmansour/leastud/internal/pkg/errors"
)

// snapshotRowID — фиксированный ключ единственной строки снимка
const snapshotRowID = 1

// SubjectsJSON хранит список предметов как JSON-колонку
type SubjectsJSON []entity.Subject

// Value сериализует список предметов для записи в БД
func (s SubjectsJSON) Value() (driver.Value, error) {
	return json.Marshal(s)
}

// Scan десериализует список предметов из БД
func (s *SubjectsJSON) Scan(value interface{}) error {
	return scanJSON(value, s)
}

// OverlayJSON хранит оверлей пользовательских вопросов как JSON-колонку
type OverlayJSON map[string][]entity.Question

// Value сериализует оверлей для записи в БД
func (o OverlayJSON) Value() (driver.Value, error) {
	return json.Marshal(o)
}

// Scan десериализует оверлей из БД
func (o *OverlayJSON) Scan(value interface{}) error {
	return scanJSON(value, o)
}

// AttemptsJSON хранит журнал попыток как JSON-колонку
type AttemptsJSON []entity.ExamAttempt

// Value сериализует журнал попыток для записи в БД
func (a AttemptsJSON) Value() (driver.Value, error) {
	return json.Marshal(a)
}

// Scan десериализует журнал попыток из БД
func (a *AttemptsJSON) Scan(value interface{}) error {
	return scanJSON(value, a)
}

func scanJSON(value, target interface{}) error {
	if value == nil {
		return nil
	}
	switch v := value.(type) {
	case []byte:
		return json.Unmarshal(v, target)
	case string:
		return json.Unmarshal([]byte(v), target)
	default:
		return fmt.Errorf("unsupported column type %T", value)
	}
}

// snapshotRecord — схема единственной строки снимка
type snapshotRecord struct {
	ID        int          `gorm:"primaryKey"`
	Subjects  SubjectsJSON `gorm:"type:text"`
	Overlay   OverlayJSON  `gorm:"type:text"`
	Attempts  AttemptsJSON `gorm:"type:text"`
	UpdatedAt time.Time
}

// TableName задает имя таблицы снимка
func (snapshotRecord) TableName() string {
	return "state_snapshots"
}

// SnapshotRepo реализует repository.SnapshotRepository поверх GORM
type SnapshotRepo struct {
	db *gorm.DB
}

// NewSnapshotRepo создает репозиторий и мигрирует схему
func NewSnapshotRepo(db *gorm.DB) (*SnapshotRepo, error) {
	if err := db.AutoMigrate(&snapshotRecord{}); err != nil {
		return nil, fmt.Errorf("failed to migrate snapshot schema: %w", err)
	}
	return &SnapshotRepo{db: db}, nil
}

// Load возвращает последний сохранённый снимок
func (r *SnapshotRepo) Load() (*repository.Snapshot, error) {
	var record snapshotRecord
	if err := r.db.First(&record, snapshotRowID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("snapshot: %w", apperrors.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to load snapshot: %w", err)
	}

	return &repository.Snapshot{
		Subjects: record.Subjects,
		Overlay:  record.Overlay,
		Attempts: record.Attempts,
	}, nil
}

// Save перезаписывает снимок целиком
func (r *SnapshotRepo) Save(snapshot *repository.Snapshot) error {
	record := snapshotRecord{
		ID:        snapshotRowID,
		Subjects:  snapshot.Subjects,
		Overlay:   snapshot.Overlay,
		Attempts:  snapshot.Attempts,
		UpdatedAt: time.Now(),
	}
	if err := r.db.Save(&record).Error; err != nil {
		return fmt.Errorf("failed to save snapshot: %w", err)
	}
	return nil
}
