package entity

import "time"

// Exam представляет экзамен внутри предмета. Порядок вопросов — порядок
// добавления; он важен для стабильной индексации при редактировании, но не
// используется как порядок показа во время викторины.
type Exam struct {
	ID        string     `json:"id"`
	Name      string     `json:"name"`
	Questions []Question `json:"questions"`
	Origin    Origin     `json:"origin,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
}

// FindQuestion возвращает вопрос по ID или nil
func (e *Exam) FindQuestion(questionID string) *Question {
	for i := range e.Questions {
		if e.Questions[i].ID == questionID {
			return &e.Questions[i]
		}
	}
	return nil
}

// Clone возвращает глубокую копию экзамена
func (e Exam) Clone() Exam {
	out := e
	out.Questions = CloneQuestions(e.Questions)
	return out
}
