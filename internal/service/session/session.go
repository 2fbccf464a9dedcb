package session

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/asaadmansour/leastud/internal/domain/entity"
	apperrors "github.com/asaadmansour/leastud/internal/pkg/errors"
)

// Session — одна сессия прохождения экзамена. Все переходы состояния
// выполняются под общим мьютексом; тикер отсчета живёт в отдельной горутине
// и защищён поколением таймера: после остановки отсчета опоздавшие тики
// становятся пустыми операциями. Отсчет общий на всю викторину, переходы
// между вопросами его не трогают.
type Session struct {
	ID        string
	SubjectID string
	ExamID    string

	cfg      *Config
	recorder AttemptRecorder

	mu        sync.Mutex
	state     State
	questions []entity.Question
	answers   map[string]string
	current   int
	remaining int
	timerGen  int
	timerStop context.CancelFunc
	submitted bool

	events  chan Event
	onClose func()
}

func newSession(subjectID, examID string, questions []entity.Question, cfg *Config, recorder AttemptRecorder) *Session {
	return &Session{
		ID:        "session-" + uuid.NewString(),
		SubjectID: subjectID,
		ExamID:    examID,
		cfg:       cfg,
		recorder:  recorder,
		state:     StateConfiguring,
		questions: entity.CloneQuestions(questions),
		answers:   make(map[string]string),
		remaining: cfg.SecondsPerQuestion * len(questions),
		events:    make(chan Event, cfg.TickBuffer),
	}
}

// Events возвращает канал событий сессии для подписчиков WebSocket
func (s *Session) Events() <-chan Event {
	return s.events
}

// Begin запускает викторину: переход configuring -> running и старт общего
// отсчета
func (s *Session) Begin() error {
	s.mu.Lock()
	if s.state != StateConfiguring {
		s.mu.Unlock()
		return fmt.Errorf("session %s is not in configuring state: %w", s.ID, apperrors.ErrConflict)
	}
	s.state = StateRunning
	s.current = 0
	s.startCountdownLocked()
	s.mu.Unlock()

	log.Printf("[Session] Сессия %s запущена: %d вопросов", s.ID, len(s.questions))
	return nil
}

// Answer записывает ответ на вопрос. Повторный ответ перезаписывает прежний.
// Вопрос должен принадлежать сессии, а вариант — списку ответов вопроса.
func (s *Session) Answer(questionID, answer string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.ensureRunningLocked(); err != nil {
		return err
	}

	question := s.findQuestionLocked(questionID)
	if question == nil {
		return fmt.Errorf("question %s: %w", questionID, apperrors.ErrNotFound)
	}
	if !question.HasAnswer(answer) {
		return fmt.Errorf("answer is not one of the question options: %w", apperrors.ErrValidation)
	}

	s.answers[questionID] = answer
	return nil
}

// Next переходит к следующему вопросу, не трогая отсчет. На последнем
// вопросе завершает викторину, фиксируя полную попытку.
func (s *Session) Next() error {
	s.mu.Lock()
	if err := s.ensureRunningLocked(); err != nil {
		s.mu.Unlock()
		return err
	}

	if s.current >= len(s.questions)-1 {
		s.mu.Unlock()
		return s.Submit()
	}

	s.current++
	s.mu.Unlock()
	return nil
}

// Previous возвращается к предыдущему вопросу, не трогая отсчет
func (s *Session) Previous() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.ensureRunningLocked(); err != nil {
		return err
	}
	if s.current == 0 {
		return fmt.Errorf("already at the first question: %w", apperrors.ErrConflict)
	}

	s.current--
	return nil
}

// Submit завершает викторину вручную и фиксирует полную попытку
func (s *Session) Submit() error {
	return s.finish(true)
}

// Exit прерывает викторину; попытка фиксируется как неполная
func (s *Session) Exit() error {
	return s.finish(false)
}

// SetVisibility сообщает сессии о видимости вкладки. Скрытие ставит отсчет
// на паузу, возврат видимости возобновляет его. После истечения времени и
// после фиксации попытки видимость игнорируется.
func (s *Session) SetVisibility(visible bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch {
	case !visible && s.state == StateRunning:
		s.state = StatePaused
		s.emitLocked(Event{Type: EventPaused, Data: map[string]interface{}{
			"session_id": s.ID,
		}})
	case visible && s.state == StatePaused:
		s.state = StateRunning
		s.emitLocked(Event{Type: EventResumed, Data: map[string]interface{}{
			"session_id":        s.ID,
			"seconds_remaining": s.remaining,
		}})
	}
}

// Status возвращает снимок состояния сессии
func (s *Session) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()

	answers := make(map[string]string, len(s.answers))
	for id, answer := range s.answers {
		answers[id] = answer
	}

	status := Status{
		SessionID:        s.ID,
		SubjectID:        s.SubjectID,
		ExamID:           s.ExamID,
		State:            s.state,
		CurrentIndex:     s.current,
		TotalQuestions:   len(s.questions),
		SecondsRemaining: s.remaining,
		Answers:          answers,
	}
	if s.state != StateConfiguring && s.state != StateComplete && s.current < len(s.questions) {
		question := s.questions[s.current].Clone()
		status.CurrentQuestion = &question
	}
	return status
}

// finish фиксирует попытку ровно один раз. Повторный вызов (двойная отправка,
// авто-отправка после ручной) возвращает ErrSessionClosed.
func (s *Session) finish(isComplete bool) error {
	s.mu.Lock()
	if s.submitted {
		s.mu.Unlock()
		return fmt.Errorf("session %s: %w", s.ID, apperrors.ErrSessionClosed)
	}
	if s.state == StateConfiguring {
		s.mu.Unlock()
		return fmt.Errorf("session %s has not started: %w", s.ID, apperrors.ErrConflict)
	}
	s.submitted = true
	s.state = StateComplete
	s.stopCountdownLocked()
	attempt := s.buildAttemptLocked(isComplete)
	s.emitLocked(Event{Type: EventSubmitted, Data: map[string]interface{}{
		"session_id":  s.ID,
		"attempt_id":  attempt.ID,
		"score":       attempt.Score,
		"is_complete": attempt.IsComplete,
	}})
	// После фиксации попытки событий больше не будет; submitted не даёт
	// опоздавшим тикам писать в закрытый канал.
	close(s.events)
	onClose := s.onClose
	s.mu.Unlock()

	s.recorder.Record(attempt)
	if onClose != nil {
		onClose()
	}
	log.Printf("[Session] Сессия %s завершена: балл %d, полная=%v", s.ID, attempt.Score, attempt.IsComplete)
	return nil
}

// buildAttemptLocked строит запись попытки по всем вопросам сессии.
// Неотвеченные вопросы входят в результаты с пустым ответом и считаются
// неверными. Вызывается под s.mu.
func (s *Session) buildAttemptLocked(isComplete bool) entity.ExamAttempt {
	results := make([]entity.QuizResult, 0, len(s.questions))
	questionIDs := make([]string, 0, len(s.questions))
	for _, q := range s.questions {
		answer := s.answers[q.ID]
		results = append(results, entity.QuizResult{
			QuestionID:    q.ID,
			UserAnswer:    answer,
			CorrectAnswer: q.Correct,
			IsCorrect:     q.IsCorrect(answer),
		})
		questionIDs = append(questionIDs, q.ID)
	}

	return entity.ExamAttempt{
		ID:             "attempt-" + uuid.NewString(),
		ExamID:         s.ExamID,
		SubjectID:      s.SubjectID,
		Timestamp:      time.Now(),
		Results:        results,
		Score:          entity.CalculateScore(results),
		TotalQuestions: len(results),
		QuestionIDs:    questionIDs,
		IsComplete:     isComplete,
	}
}

// startCountdownLocked запускает общий отсчет викторины. Вызывается под s.mu.
func (s *Session) startCountdownLocked() {
	s.stopCountdownLocked()
	s.timerGen++
	gen := s.timerGen

	ctx, cancel := context.WithCancel(context.Background())
	s.timerStop = cancel

	go s.runCountdown(ctx, gen)
}

// stopCountdownLocked отменяет текущий отсчет. Вызывается под s.mu.
func (s *Session) stopCountdownLocked() {
	if s.timerStop != nil {
		s.timerStop()
		s.timerStop = nil
	}
}

// runCountdown тикает раз в TickInterval и уменьшает общий остаток секунд
// викторины. Тик сверяет поколение таймера: после остановки отсчета старая
// горутина молча выходит. Пауза не останавливает тикер, тики просто не
// уменьшают остаток.
func (s *Session) runCountdown(ctx context.Context, gen int) {
	ticker := time.NewTicker(s.cfg.TickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if expired := s.tick(gen); expired {
				return
			}
		case <-ctx.Done():
			return
		}
	}
}

// tick обрабатывает один тик отсчета; возвращает true, когда отсчет
// завершён и горутине пора выходить
func (s *Session) tick(gen int) bool {
	s.mu.Lock()

	if gen != s.timerGen || s.submitted {
		s.mu.Unlock()
		return true
	}
	if s.state == StatePaused {
		s.mu.Unlock()
		return false
	}
	if s.state != StateRunning {
		s.mu.Unlock()
		return true
	}

	s.remaining--
	if s.remaining > 0 {
		s.emitLocked(Event{Type: EventTick, Data: map[string]interface{}{
			"session_id":        s.ID,
			"question_index":    s.current,
			"seconds_remaining": s.remaining,
		}})
		s.mu.Unlock()
		return false
	}

	// Время вышло: блокируем ответы и через паузу фиксируем попытку
	s.remaining = 0
	s.state = StateTimeUp
	s.emitLocked(Event{Type: EventTimeUp, Data: map[string]interface{}{
		"session_id":     s.ID,
		"question_index": s.current,
	}})
	s.mu.Unlock()

	log.Printf("[Session] Сессия %s: время вышло, авто-отправка через %v", s.ID, s.cfg.GraceDelay)
	time.AfterFunc(s.cfg.GraceDelay, func() {
		if err := s.Submit(); err != nil {
			log.Printf("[Session] Сессия %s: авто-отправка пропущена: %v", s.ID, err)
		}
	})
	return true
}

// ensureRunningLocked проверяет, что сессия принимает действия игрока.
// Вызывается под s.mu.
func (s *Session) ensureRunningLocked() error {
	switch s.state {
	case StateRunning:
		return nil
	case StateConfiguring:
		return fmt.Errorf("session %s has not started: %w", s.ID, apperrors.ErrConflict)
	case StatePaused:
		return fmt.Errorf("session %s is paused: %w", s.ID, apperrors.ErrConflict)
	case StateTimeUp:
		return fmt.Errorf("time is up for session %s: %w", s.ID, apperrors.ErrSessionClosed)
	default:
		return fmt.Errorf("session %s: %w", s.ID, apperrors.ErrSessionClosed)
	}
}

// findQuestionLocked возвращает вопрос сессии по ID. Вызывается под s.mu.
func (s *Session) findQuestionLocked(questionID string) *entity.Question {
	for i := range s.questions {
		if s.questions[i].ID == questionID {
			return &s.questions[i]
		}
	}
	return nil
}

// emitLocked отправляет событие подписчикам без блокировки: при переполнении
// буфера событие отбрасывается. Вызывается под s.mu.
func (s *Session) emitLocked(event Event) {
	select {
	case s.events <- event:
	default:
	}
}
