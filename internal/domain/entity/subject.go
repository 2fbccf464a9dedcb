package entity

import (
	"strings"
	"time"
)

// Префиксы ID встроенного каталога. Это долговременный формат идентификаторов:
// от него зависят ключи оверлея и состояние, сохранённое прошлыми версиями,
// поэтому префиксы сохраняются даже при наличии явного поля Origin.
const (
	SeedSubjectIDPrefix = "preloaded-subject-"
	SeedExamIDPrefix    = "preloaded-exam-"
)

// Subject представляет предмет — владельца набора экзаменов
type Subject struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Exams     []Exam    `json:"exams"`
	Origin    Origin    `json:"origin,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// IsSeed сообщает, относится ли предмет к встроенному каталогу.
// Для снимков состояния, записанных до появления поля Origin,
// используется запасная проверка по префиксу ID.
func (s *Subject) IsSeed() bool {
	if s.Origin != "" {
		return s.Origin == OriginSeed
	}
	return IsSeedSubjectID(s.ID)
}

// IsSeed сообщает, относится ли экзамен к встроенному каталогу
func (e *Exam) IsSeed() bool {
	if e.Origin != "" {
		return e.Origin == OriginSeed
	}
	return IsSeedExamID(e.ID)
}

// FindExam возвращает экзамен по ID или nil
func (s *Subject) FindExam(examID string) *Exam {
	for i := range s.Exams {
		if s.Exams[i].ID == examID {
			return &s.Exams[i]
		}
	}
	return nil
}

// Clone возвращает глубокую копию предмета
func (s Subject) Clone() Subject {
	out := s
	out.Exams = make([]Exam, len(s.Exams))
	for i, e := range s.Exams {
		out.Exams[i] = e.Clone()
	}
	return out
}

// CloneSubjects возвращает глубокую копию списка предметов
func CloneSubjects(subjects []Subject) []Subject {
	out := make([]Subject, len(subjects))
	for i, s := range subjects {
		out[i] = s.Clone()
	}
	return out
}

// IsSeedSubjectID проверяет принадлежность ID предмета к пространству имён
// встроенного каталога
func IsSeedSubjectID(subjectID string) bool {
	return strings.HasPrefix(subjectID, SeedSubjectIDPrefix)
}

// IsSeedExamID проверяет принадлежность ID экзамена к пространству имён
// встроенного каталога
func IsSeedExamID(examID string) bool {
	return strings.HasPrefix(examID, SeedExamIDPrefix)
}

// OverlayKey строит ключ оверлея пользовательских вопросов для встроенного
// экзамена. Формат должен оставаться стабильным между запусками.
func OverlayKey(subjectID, examID string) string {
	return subjectID + "-" + examID
}
