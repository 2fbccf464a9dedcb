// Package session реализует машину состояний прохождения викторины:
// общий обратный отсчет на всю викторину, пауза при скрытии вкладки,
// блокировка по истечении времени и фиксация попытки.
package session

import (
	"time"

	"github.com/asaadmansour/leastud/internal/domain/entity"
)

// State — состояние сессии викторины
type State string

const (
	// StateConfiguring — сессия создана, викторина еще не запущена.
	StateConfiguring State = "configuring"
	// StateRunning — викторина идет, отсчет тикает.
	StateRunning State = "running"
	// StatePaused — вкладка скрыта, отсчет остановлен.
	StatePaused State = "paused"
	// StateTimeUp — время вышло, ответы заблокированы, ждем авто-отправку.
	StateTimeUp State = "time_up"
	// StateComplete — попытка зафиксирована, сессия закрыта.
	StateComplete State = "complete"
)

// Типы событий, отправляемых наблюдателям сессии
const (
	EventTick      = "quiz:tick"
	EventTimeUp    = "quiz:time_up"
	EventPaused    = "quiz:paused"
	EventResumed   = "quiz:resumed"
	EventSubmitted = "quiz:submitted"
)

// Event — событие сессии для отправки по WebSocket
type Event struct {
	Type string                 `json:"type"`
	Data map[string]interface{} `json:"data"`
}

// Config содержит настройки таймеров сессии
type Config struct {
	// Бюджет времени на один вопрос в секундах; общий отсчет викторины
	// равен этому значению, умноженному на число выбранных вопросов
	SecondsPerQuestion int
	// Задержка между истечением времени и авто-отправкой
	GraceDelay time.Duration
	// Интервал тика отсчета; в тестах уменьшается
	TickInterval time.Duration
	// Размер буфера канала событий
	TickBuffer int
}

// DefaultConfig возвращает конфигурацию по умолчанию
func DefaultConfig() *Config {
	return &Config{
		SecondsPerQuestion: 40,
		GraceDelay:         1 * time.Second,
		TickInterval:       1 * time.Second,
		TickBuffer:         16,
	}
}

// AttemptRecorder принимает зафиксированную попытку. Реализуется сервисом
// попыток; в тестах подменяется функцией.
type AttemptRecorder interface {
	Record(attempt entity.ExamAttempt)
}

// RecorderFunc адаптирует функцию к интерфейсу AttemptRecorder
type RecorderFunc func(attempt entity.ExamAttempt)

// Record вызывает f(attempt)
func (f RecorderFunc) Record(attempt entity.ExamAttempt) {
	f(attempt)
}

// Status — снимок состояния сессии для HTTP-ответов
type Status struct {
	SessionID        string            `json:"session_id"`
	SubjectID        string            `json:"subject_id"`
	ExamID           string            `json:"exam_id"`
	State            State             `json:"state"`
	CurrentIndex     int               `json:"current_index"`
	TotalQuestions   int               `json:"total_questions"`
	SecondsRemaining int               `json:"seconds_remaining"`
	CurrentQuestion  *entity.Question  `json:"current_question,omitempty"`
	Answers          map[string]string `json:"answers"`
}
