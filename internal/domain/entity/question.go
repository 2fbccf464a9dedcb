package entity

// Origin указывает происхождение сущности каталога: встроенный (seed)
// контент, поставляемый вместе с приложением, или контент, созданный автором.
type Origin string

const (
	// OriginSeed — сущность получена из встроенного каталога.
	OriginSeed Origin = "seed"

	// OriginUser — сущность создана автором.
	OriginUser Origin = "user"
)

// Question представляет вопрос с вариантами ответов.
// После валидации вопрос неизменяем: редактирование заменяет его целиком.
type Question struct {
	ID      string   `json:"id"`
	Text    string   `json:"text"`
	Answers []string `json:"answers"`
	Correct string   `json:"correct"`
	Origin  Origin   `json:"origin,omitempty"`
}

// IsCorrect проверяет ответ пользователя точным сравнением строк.
// Пустая строка (нет ответа) всегда считается неверной.
func (q *Question) IsCorrect(answer string) bool {
	return answer != "" && answer == q.Correct
}

// HasAnswer проверяет, входит ли вариант в список ответов
func (q *Question) HasAnswer(answer string) bool {
	for _, a := range q.Answers {
		if a == answer {
			return true
		}
	}
	return false
}

// Clone возвращает глубокую копию вопроса
func (q Question) Clone() Question {
	out := q
	out.Answers = append([]string(nil), q.Answers...)
	return out
}

// CloneQuestions возвращает глубокую копию списка вопросов
func CloneQuestions(questions []Question) []Question {
	if questions == nil {
		return nil
	}
	out := make([]Question, len(questions))
	for i, q := range questions {
		out[i] = q.Clone()
	}
	return out
}
