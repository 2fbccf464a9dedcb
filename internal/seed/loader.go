// Package seed строит встроенный каталог предметов/экзаменов/вопросов из
// статического JSON-документа. Деривация детерминирована: одинаковый вход
// всегда даёт одинаковые ID, поэтому каталог можно пересобирать при каждом
// запуске без потери связности с сохранённым состоянием.
package seed

import (
	"fmt"
	"log"
	"os"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/asaadmansour/leastud/internal/domain/entity"
	"github.com/asaadmansour/leastud/internal/importer"
)

var whitespaceRuns = regexp.MustCompile(`\s+`)

// Slug приводит имя к нижнему регистру и заменяет пробельные
// последовательности дефисами
func Slug(name string) string {
	return whitespaceRuns.ReplaceAllString(strings.ToLower(strings.TrimSpace(name)), "-")
}

// SubjectID строит детерминированный ID встроенного предмета по его имени
func SubjectID(subjectName string) string {
	return entity.SeedSubjectIDPrefix + Slug(subjectName)
}

// ExamID строит детерминированный ID встроенного экзамена по ID предмета
// и имени экзамена
func ExamID(subjectID, examName string) string {
	return entity.SeedExamIDPrefix + subjectID + "-" + Slug(examName)
}

// Loader загружает встроенный каталог и держит его кешированный снимок.
// Снимок считается один раз и переиспользуется; Invalidate сбрасывает кеш
// явно (например, в тестах или при смене файла каталога).
type Loader struct {
	path string

	mu     sync.RWMutex
	cached []entity.Subject
	loaded bool
}

// NewLoader создает загрузчик встроенного каталога из файла.
// Пустой путь означает пустой каталог.
func NewLoader(path string) *Loader {
	return &Loader{path: path}
}

// Load читает и разбирает файл каталога, заполняя кеш. Отсутствующий файл —
// не ошибка: приложение работает с пустым встроенным каталогом.
func (l *Loader) Load() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.path == "" {
		l.cached = nil
		l.loaded = true
		return nil
	}

	raw, err := os.ReadFile(l.path)
	if err != nil {
		if os.IsNotExist(err) {
			log.Printf("[Seed] Файл каталога %s не найден, встроенный каталог пуст", l.path)
			l.cached = nil
			l.loaded = true
			return nil
		}
		return fmt.Errorf("failed to read seed file: %w", err)
	}

	docs, err := importer.ParseMany(raw)
	if err != nil {
		return fmt.Errorf("failed to parse seed file %s: %w", l.path, err)
	}

	l.cached = BuildSubjects(docs)
	l.loaded = true
	log.Printf("[Seed] Встроенный каталог загружен: %d предметов из %s", len(l.cached), l.path)
	return nil
}

// Subjects возвращает глубокие копии предметов встроенного каталога.
// Копии нужны, чтобы правки живой коллекции не протекали в кеш.
func (l *Loader) Subjects() []entity.Subject {
	l.ensureLoaded()
	l.mu.RLock()
	defer l.mu.RUnlock()
	return entity.CloneSubjects(l.cached)
}

// Subject возвращает копию встроенного предмета по ID, либо nil
func (l *Loader) Subject(subjectID string) *entity.Subject {
	l.ensureLoaded()
	l.mu.RLock()
	defer l.mu.RUnlock()
	for i := range l.cached {
		if l.cached[i].ID == subjectID {
			clone := l.cached[i].Clone()
			return &clone
		}
	}
	return nil
}

// Invalidate сбрасывает кешированный снимок; следующее чтение пересоберёт его
func (l *Loader) Invalidate() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.cached = nil
	l.loaded = false
}

// ensureLoaded пересобирает кеш после Invalidate. Ошибка пересборки не
// фатальна: каталог остаётся пустым до следующего успешного Load.
func (l *Loader) ensureLoaded() {
	l.mu.RLock()
	loaded := l.loaded
	l.mu.RUnlock()
	if loaded {
		return
	}

	if err := l.Load(); err != nil {
		log.Printf("[Seed] Пересборка каталога не удалась: %v", err)
	}
}

// BuildSubjects строит предметы каталога из документов импорта. Документы с
// одинаковым предметом складываются в один Subject; каждый документ даёт один
// экзамен. ID вопросов детерминированы (позиция внутри экзамена), чтобы
// повторная деривация не плодила новые ID.
func BuildSubjects(docs []importer.Document) []entity.Subject {
	var order []string
	byID := make(map[string]*entity.Subject)

	for _, doc := range docs {
		subjectID := SubjectID(doc.Subject)

		subject, ok := byID[subjectID]
		if !ok {
			subject = &entity.Subject{
				ID:        subjectID,
				Name:      doc.Subject,
				Origin:    entity.OriginSeed,
				CreatedAt: time.Now(),
			}
			byID[subjectID] = subject
			order = append(order, subjectID)
		}

		examID := ExamID(subjectID, doc.Exam)
		questions := make([]entity.Question, 0, len(doc.Questions))
		for i, raw := range doc.Questions {
			questions = append(questions, entity.Question{
				ID:      fmt.Sprintf("%s-q%d", examID, i+1),
				Text:    raw.Question,
				Answers: append([]string(nil), raw.Answers...),
				Correct: raw.Correct,
				Origin:  entity.OriginSeed,
			})
		}

		subject.Exams = append(subject.Exams, entity.Exam{
			ID:        examID,
			Name:      doc.Exam,
			Questions: questions,
			Origin:    entity.OriginSeed,
			CreatedAt: time.Now(),
		})
	}

	subjects := make([]entity.Subject, 0, len(order))
	for _, id := range order {
		subjects = append(subjects, *byID[id])
	}
	return subjects
}
