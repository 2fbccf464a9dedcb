package service

import (
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/asaadmansour/leastud/internal/domain/entity"
	apperrors "github.com/asaadmansour/leastud/internal/pkg/errors"
	"github.com/asaadmansour/leastud/internal/seed"
)

// ContentService — единственный владелец каталога предметов/экзаменов/вопросов.
// Живая коллекция хранит пользовательские предметы и материализованные
// встроенные предметы; оверлей хранит пользовательские вопросы для встроенных
// экзаменов отдельно, чтобы повторная деривация каталога их не теряла.
type ContentService struct {
	seeds *seed.Loader

	mu       sync.RWMutex
	subjects []entity.Subject
	overlay  map[string][]entity.Question

	onChange func()
}

// NewContentService создает сервис каталога поверх загрузчика встроенного
// контента
func NewContentService(seeds *seed.Loader) *ContentService {
	return &ContentService{
		seeds:   seeds,
		overlay: make(map[string][]entity.Question),
	}
}

// SetOnChange устанавливает хук сохранения состояния; вызывается после каждой
// мутации, ошибки сохранения не прерывают операцию
func (s *ContentService) SetOnChange(fn func()) {
	s.onChange = fn
}

func (s *ContentService) changed() {
	if s.onChange != nil {
		s.onChange()
	}
}

// Restore заменяет живое состояние содержимым сохранённого снимка
func (s *ContentService) Restore(subjects []entity.Subject, overlay map[string][]entity.Question) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.subjects = entity.CloneSubjects(subjects)
	s.overlay = make(map[string][]entity.Question, len(overlay))
	for key, questions := range overlay {
		s.overlay[key] = entity.CloneQuestions(questions)
	}
}

// Snapshot возвращает копию живого состояния для сохранения
func (s *ContentService) Snapshot() ([]entity.Subject, map[string][]entity.Question) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	overlay := make(map[string][]entity.Question, len(s.overlay))
	for key, questions := range s.overlay {
		overlay[key] = entity.CloneQuestions(questions)
	}
	return entity.CloneSubjects(s.subjects), overlay
}

// AddSubject создает пользовательский предмет с пустым списком экзаменов
func (s *ContentService) AddSubject(name string) entity.Subject {
	subject := entity.Subject{
		ID:        "subject-" + uuid.NewString(),
		Name:      name,
		Exams:     []entity.Exam{},
		Origin:    entity.OriginUser,
		CreatedAt: time.Now(),
	}

	s.mu.Lock()
	s.subjects = append(s.subjects, subject)
	s.mu.Unlock()

	s.changed()
	return subject.Clone()
}

// UpdateSubject переименовывает предмет в живой коллекции. Разрешено и для
// встроенных предметов: меняется только отображаемое имя текущего снимка,
// исходный каталог не затрагивается.
func (s *ContentService) UpdateSubject(id, name string) error {
	s.mu.Lock()
	subject := s.findSubject(id)
	if subject == nil {
		s.mu.Unlock()
		return fmt.Errorf("subject %s: %w", id, apperrors.ErrNotFound)
	}
	subject.Name = name
	s.mu.Unlock()

	s.changed()
	return nil
}

// DeleteSubject удаляет предмет из живой коллекции. Для встроенного предмета
// удаление мягкое: следующий проход InitializePreloaded вернёт его обратно.
func (s *ContentService) DeleteSubject(id string) error {
	s.mu.Lock()
	index := -1
	for i := range s.subjects {
		if s.subjects[i].ID == id {
			index = i
			break
		}
	}
	if index < 0 {
		s.mu.Unlock()
		return fmt.Errorf("subject %s: %w", id, apperrors.ErrNotFound)
	}
	if s.subjects[index].IsSeed() {
		log.Printf("[ContentService] Мягкое удаление встроенного предмета %s: вернётся при следующем слиянии каталога", id)
	}
	s.subjects = append(s.subjects[:index], s.subjects[index+1:]...)
	s.mu.Unlock()

	s.changed()
	return nil
}

// AddExam добавляет экзамен к предмету. Если встроенный предмет ещё не
// материализован в живой коллекции, он сначала копируется из каталога.
func (s *ContentService) AddExam(subjectID, name string) (entity.Exam, error) {
	exam := entity.Exam{
		ID:        "exam-" + uuid.NewString(),
		Name:      name,
		Questions: []entity.Question{},
		Origin:    entity.OriginUser,
		CreatedAt: time.Now(),
	}

	s.mu.Lock()
	subject := s.findSubject(subjectID)
	if subject == nil && entity.IsSeedSubjectID(subjectID) {
		if seedSubject := s.seeds.Subject(subjectID); seedSubject != nil {
			s.subjects = append(s.subjects, *seedSubject)
			subject = &s.subjects[len(s.subjects)-1]
		}
	}
	if subject == nil {
		s.mu.Unlock()
		return entity.Exam{}, fmt.Errorf("subject %s: %w", subjectID, apperrors.ErrNotFound)
	}
	subject.Exams = append(subject.Exams, exam)
	s.mu.Unlock()

	s.changed()
	return exam.Clone(), nil
}

// UpdateExam переименовывает экзамен
func (s *ContentService) UpdateExam(subjectID, examID, name string) error {
	s.mu.Lock()
	exam, err := s.findExam(subjectID, examID)
	if err != nil {
		s.mu.Unlock()
		return err
	}
	exam.Name = name
	s.mu.Unlock()

	s.changed()
	return nil
}

// DeleteExam удаляет экзамен из живой коллекции предмета
func (s *ContentService) DeleteExam(subjectID, examID string) error {
	s.mu.Lock()
	subject := s.findSubject(subjectID)
	if subject == nil {
		s.mu.Unlock()
		return fmt.Errorf("subject %s: %w", subjectID, apperrors.ErrNotFound)
	}
	index := -1
	for i := range subject.Exams {
		if subject.Exams[i].ID == examID {
			index = i
			break
		}
	}
	if index < 0 {
		s.mu.Unlock()
		return fmt.Errorf("exam %s: %w", examID, apperrors.ErrNotFound)
	}
	subject.Exams = append(subject.Exams[:index], subject.Exams[index+1:]...)
	s.mu.Unlock()

	s.changed()
	return nil
}

// AddQuestion добавляет вопрос к экзамену. Для пары встроенный-предмет +
// встроенный-экзамен вопрос дополнительно записывается в оверлей, чтобы
// пережить повторную деривацию каталога; в живой экзамен он попадает сразу
// для немедленной видимости.
func (s *ContentService) AddQuestion(subjectID, examID string, question entity.Question) error {
	s.mu.Lock()
	if entity.IsSeedSubjectID(subjectID) && entity.IsSeedExamID(examID) {
		key := entity.OverlayKey(subjectID, examID)
		s.overlay[key] = append(s.overlay[key], question.Clone())

		// Живой экзамен может быть ещё не материализован; оверлея достаточно,
		// объединённые представления его учитывают.
		if exam, err := s.findExam(subjectID, examID); err == nil {
			exam.Questions = append(exam.Questions, question.Clone())
		}
		s.mu.Unlock()

		s.changed()
		return nil
	}

	exam, err := s.findExam(subjectID, examID)
	if err != nil {
		s.mu.Unlock()
		return err
	}
	exam.Questions = append(exam.Questions, question.Clone())
	s.mu.Unlock()

	s.changed()
	return nil
}

// UpdateQuestion заменяет вопрос целиком. Для встроенного экзамена сначала
// определяется, оверлейный это вопрос или исходный: правки оверлейных
// вопросов обновляют и оверлей, правки исходных живут только в живом списке
// и не переживают повторную деривацию каталога.
func (s *ContentService) UpdateQuestion(subjectID, examID, questionID string, question entity.Question) error {
	question.ID = questionID

	s.mu.Lock()
	found := false

	if entity.IsSeedSubjectID(subjectID) && entity.IsSeedExamID(examID) {
		key := entity.OverlayKey(subjectID, examID)
		for i := range s.overlay[key] {
			if s.overlay[key][i].ID == questionID {
				s.overlay[key][i] = question.Clone()
				found = true
				break
			}
		}
	}

	if exam, err := s.findExam(subjectID, examID); err == nil {
		for i := range exam.Questions {
			if exam.Questions[i].ID == questionID {
				exam.Questions[i] = question.Clone()
				found = true
				break
			}
		}
	}

	s.mu.Unlock()
	if !found {
		return fmt.Errorf("question %s: %w", questionID, apperrors.ErrNotFound)
	}

	s.changed()
	return nil
}

// DeleteQuestion удаляет вопрос из живого списка и, для оверлейных вопросов,
// из оверлея
func (s *ContentService) DeleteQuestion(subjectID, examID, questionID string) error {
	s.mu.Lock()
	found := false

	if entity.IsSeedSubjectID(subjectID) && entity.IsSeedExamID(examID) {
		key := entity.OverlayKey(subjectID, examID)
		for i := range s.overlay[key] {
			if s.overlay[key][i].ID == questionID {
				s.overlay[key] = append(s.overlay[key][:i], s.overlay[key][i+1:]...)
				found = true
				break
			}
		}
	}

	if exam, err := s.findExam(subjectID, examID); err == nil {
		for i := range exam.Questions {
			if exam.Questions[i].ID == questionID {
				exam.Questions = append(exam.Questions[:i], exam.Questions[i+1:]...)
				found = true
				break
			}
		}
	}

	s.mu.Unlock()
	if !found {
		return fmt.Errorf("question %s: %w", questionID, apperrors.ErrNotFound)
	}

	s.changed()
	return nil
}

// GetSubject возвращает объединённое представление предмета: для встроенных
// предметов — каталог со склеенными живыми правками и оверлеем, для
// пользовательских — копию живой версии
func (s *ContentService) GetSubject(id string) (*entity.Subject, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if entity.IsSeedSubjectID(id) {
		if seedSubject := s.seeds.Subject(id); seedSubject != nil {
			merged := s.mergeSubject(*seedSubject, s.findSubject(id))
			return &merged, nil
		}
	}

	if subject := s.findSubject(id); subject != nil {
		clone := subject.Clone()
		return &clone, nil
	}
	return nil, fmt.Errorf("subject %s: %w", id, apperrors.ErrNotFound)
}

// GetExam возвращает объединённое представление экзамена
func (s *ContentService) GetExam(subjectID, examID string) (*entity.Exam, error) {
	subject, err := s.GetSubject(subjectID)
	if err != nil {
		return nil, err
	}
	exam := subject.FindExam(examID)
	if exam == nil {
		return nil, fmt.Errorf("exam %s: %w", examID, apperrors.ErrNotFound)
	}
	clone := exam.Clone()
	return &clone, nil
}

// GetAllSubjects возвращает весь каталог: встроенные предметы в объединённой
// форме, затем пользовательские
func (s *ContentService) GetAllSubjects() []entity.Subject {
	popular := s.GetPopularSubjects()
	user := s.GetUserSubjects()
	return append(popular, user...)
}

// GetPopularSubjects возвращает все встроенные предметы в объединённой форме,
// независимо от того, материализованы ли они в живой коллекции
func (s *ContentService) GetPopularSubjects() []entity.Subject {
	s.mu.RLock()
	defer s.mu.RUnlock()

	seedSubjects := s.seeds.Subjects()
	merged := make([]entity.Subject, 0, len(seedSubjects))
	for _, seedSubject := range seedSubjects {
		merged = append(merged, s.mergeSubject(seedSubject, s.findSubject(seedSubject.ID)))
	}
	return merged
}

// GetUserSubjects возвращает только пользовательские предметы
func (s *ContentService) GetUserSubjects() []entity.Subject {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var user []entity.Subject
	for i := range s.subjects {
		if !s.subjects[i].IsSeed() {
			user = append(user, s.subjects[i].Clone())
		}
	}
	return user
}

// InitializePreloaded выполняет идемпотентный проход слияния встроенного
// каталога в живую коллекцию. Вызывается один раз после восстановления
// снимка: отсутствующие предметы вставляются целиком, у существующих
// добавляются отсутствующие экзамены, а списки вопросов пересобираются по
// каноническому правилу слияния. Мягко удалённые встроенные предметы здесь
// воскресают — это ожидаемое свойство, встроенный контент трудно потерять
// навсегда.
func (s *ContentService) InitializePreloaded() {
	s.mu.Lock()
	for _, seedSubject := range s.seeds.Subjects() {
		live := s.findSubject(seedSubject.ID)
		if live == nil {
			s.subjects = append(s.subjects, seedSubject)
			continue
		}

		for _, seedExam := range seedSubject.Exams {
			liveExam := live.FindExam(seedExam.ID)
			if liveExam == nil {
				live.Exams = append(live.Exams, seedExam)
				continue
			}
			key := entity.OverlayKey(seedSubject.ID, seedExam.ID)
			liveExam.Questions = mergeQuestions(seedExam.Questions, s.overlay[key])
		}
	}
	s.mu.Unlock()

	s.changed()
}

// mergeSubject строит объединённое представление встроенного предмета.
// База — живая версия, если предмет материализован (сохраняет переименования
// и пользовательские экзамены); каждый экзамен каталога гарантированно
// присутствует, его вопросы пересобираются по каноническому правилу.
// Вызывается под s.mu.
func (s *ContentService) mergeSubject(seedSubject entity.Subject, live *entity.Subject) entity.Subject {
	if live == nil {
		for i := range seedSubject.Exams {
			key := entity.OverlayKey(seedSubject.ID, seedSubject.Exams[i].ID)
			seedSubject.Exams[i].Questions = mergeQuestions(seedSubject.Exams[i].Questions, s.overlay[key])
		}
		return seedSubject
	}

	merged := live.Clone()
	for _, seedExam := range seedSubject.Exams {
		key := entity.OverlayKey(seedSubject.ID, seedExam.ID)
		if liveExam := merged.FindExam(seedExam.ID); liveExam != nil {
			liveExam.Questions = mergeQuestions(seedExam.Questions, s.overlay[key])
		} else {
			seedExam.Questions = mergeQuestions(seedExam.Questions, s.overlay[key])
			merged.Exams = append(merged.Exams, seedExam)
		}
	}
	return merged
}

// mergeQuestions — каноническое правило слияния: вопросы каталога первыми в
// своём порядке, затем оверлейные, чьи ID не совпадают с каталожными, в
// порядке добавления. При коллизии ID побеждает каталожная версия.
func mergeQuestions(seedQuestions, overlayQuestions []entity.Question) []entity.Question {
	seedIDs := make(map[string]struct{}, len(seedQuestions))
	for _, q := range seedQuestions {
		seedIDs[q.ID] = struct{}{}
	}

	merged := entity.CloneQuestions(seedQuestions)
	for _, q := range overlayQuestions {
		if _, exists := seedIDs[q.ID]; !exists {
			merged = append(merged, q.Clone())
		}
	}
	return merged
}

// findSubject возвращает указатель на предмет живой коллекции.
// Вызывается под s.mu.
func (s *ContentService) findSubject(id string) *entity.Subject {
	for i := range s.subjects {
		if s.subjects[i].ID == id {
			return &s.subjects[i]
		}
	}
	return nil
}

// findExam возвращает указатель на экзамен живой коллекции.
// Вызывается под s.mu.
func (s *ContentService) findExam(subjectID, examID string) (*entity.Exam, error) {
	subject := s.findSubject(subjectID)
	if subject == nil {
		return nil, fmt.Errorf("subject %s: %w", subjectID, apperrors.ErrNotFound)
	}
	exam := subject.FindExam(examID)
	if exam == nil {
		return nil, fmt.Errorf("exam %s: %w", examID, apperrors.ErrNotFound)
	}
	return exam, nil
}
