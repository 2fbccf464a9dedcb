package handler

import (
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/asaadmansour/leastud/internal/domain/entity"
	apperrors "github.com/asaadmansour/leastud/internal/pkg/errors"
	"github.com/asaadmansour/leastud/internal/service"
	"github.com/asaadmansour/leastud/internal/service/session"
	"github.com/asaadmansour/leastud/internal/websocket"
)

// SessionHandler обрабатывает запросы сессий прохождения викторины
type SessionHandler struct {
	sessionManager *session.Manager
	contentService *service.ContentService
	attemptService *service.AttemptService
	hub            *websocket.Hub
}

// NewSessionHandler создает новый обработчик сессий
func NewSessionHandler(
	sessionManager *session.Manager,
	contentService *service.ContentService,
	attemptService *service.AttemptService,
	hub *websocket.Hub,
) *SessionHandler {
	return &SessionHandler{
		sessionManager: sessionManager,
		contentService: contentService,
		attemptService: attemptService,
		hub:            hub,
	}
}

// StartSessionRequest представляет запрос на создание сессии
type StartSessionRequest struct {
	SubjectID string `json:"subject_id" binding:"required"`
	ExamID    string `json:"exam_id" binding:"required"`
	// QuestionCount: сколько вопросов выбрать из пула экзамена.
	// Значение вне диапазона 1..N означает весь пул.
	QuestionCount int `json:"question_count"`
	// Retake: воспроизвести набор и порядок вопросов последней попытки.
	Retake bool `json:"retake"`
}

// StartSession создает сессию викторины. В обычном режиме вопросы выбираются
// случайно из объединённого набора экзамена. При пересдаче набор и порядок
// берутся из последней попытки без перемешивания; если ни один её вопрос
// больше не существует, начинается обычная сессия.
func (h *SessionHandler) StartSession(c *gin.Context) {
	var req StartSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	exam, err := h.contentService.GetExam(req.SubjectID, req.ExamID)
	if err != nil {
		h.handleSessionError(c, err)
		return
	}

	var questions []entity.Question
	if req.Retake {
		lastAttempt := h.attemptService.MostRecent(req.ExamID)
		questions = session.ResolveRetakeQuestions(exam, lastAttempt)
		if len(questions) == 0 {
			log.Printf("[SessionHandler] Пересдача экзамена %s невозможна, начинаю обычную сессию", req.ExamID)
		}
	}
	if len(questions) == 0 {
		questions = session.SelectFreshQuestions(exam.Questions, req.QuestionCount)
	}

	s, err := h.sessionManager.Start(req.SubjectID, req.ExamID, questions)
	if err != nil {
		h.handleSessionError(c, err)
		return
	}

	h.hub.Attach(s)
	c.JSON(http.StatusCreated, s.Status())
}

// BeginSession запускает викторину и отсчет первого вопроса
func (h *SessionHandler) BeginSession(c *gin.Context) {
	s, ok := h.session(c)
	if !ok {
		return
	}

	if err := s.Begin(); err != nil {
		h.handleSessionError(c, err)
		return
	}

	c.JSON(http.StatusOK, s.Status())
}

// GetSession возвращает текущее состояние сессии
func (h *SessionHandler) GetSession(c *gin.Context) {
	s, ok := h.session(c)
	if !ok {
		return
	}

	c.JSON(http.StatusOK, s.Status())
}

// AnswerRequest представляет запрос на запись ответа
type AnswerRequest struct {
	QuestionID string `json:"question_id" binding:"required"`
	Answer     string `json:"answer" binding:"required"`
}

// AnswerQuestion записывает ответ на вопрос сессии
func (h *SessionHandler) AnswerQuestion(c *gin.Context) {
	s, ok := h.session(c)
	if !ok {
		return
	}

	var req AnswerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := s.Answer(req.QuestionID, req.Answer); err != nil {
		h.handleSessionError(c, err)
		return
	}

	c.JSON(http.StatusOK, s.Status())
}

// NextQuestion переходит к следующему вопросу; на последнем вопросе
// завершает викторину
func (h *SessionHandler) NextQuestion(c *gin.Context) {
	s, ok := h.session(c)
	if !ok {
		return
	}

	if err := s.Next(); err != nil {
		h.handleSessionError(c, err)
		return
	}

	c.JSON(http.StatusOK, s.Status())
}

// PreviousQuestion возвращается к предыдущему вопросу
func (h *SessionHandler) PreviousQuestion(c *gin.Context) {
	s, ok := h.session(c)
	if !ok {
		return
	}

	if err := s.Previous(); err != nil {
		h.handleSessionError(c, err)
		return
	}

	c.JSON(http.StatusOK, s.Status())
}

// SubmitSession завершает викторину вручную и фиксирует полную попытку
func (h *SessionHandler) SubmitSession(c *gin.Context) {
	s, ok := h.session(c)
	if !ok {
		return
	}

	if err := s.Submit(); err != nil {
		h.handleSessionError(c, err)
		return
	}

	c.JSON(http.StatusOK, s.Status())
}

// ExitSession прерывает викторину; попытка фиксируется как неполная
func (h *SessionHandler) ExitSession(c *gin.Context) {
	s, ok := h.session(c)
	if !ok {
		return
	}

	if err := s.Exit(); err != nil {
		h.handleSessionError(c, err)
		return
	}

	c.JSON(http.StatusOK, s.Status())
}

// VisibilityRequest представляет сигнал видимости вкладки
type VisibilityRequest struct {
	Visible *bool `json:"visible" binding:"required"`
}

// SetVisibility ставит отсчет на паузу при скрытии вкладки и возобновляет
// его при возврате. HTTP-дубль WebSocket-сообщения visibility.
func (h *SessionHandler) SetVisibility(c *gin.Context) {
	s, ok := h.session(c)
	if !ok {
		return
	}

	var req VisibilityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	s.SetVisibility(*req.Visible)
	c.JSON(http.StatusOK, s.Status())
}

// session извлекает сессию по ID из контекста; при отсутствии пишет ответ
// и возвращает false
func (h *SessionHandler) session(c *gin.Context) (*session.Session, bool) {
	sessionID := c.MustGet("sessionID").(string) // Получаем из контекста

	s, err := h.sessionManager.Get(sessionID)
	if err != nil {
		h.handleSessionError(c, err)
		return nil, false
	}
	return s, true
}

// handleSessionError обрабатывает ошибки сессий и отправляет соответствующий HTTP ответ
func (h *SessionHandler) handleSessionError(c *gin.Context, err error) {
	if errors.Is(err, apperrors.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	} else if errors.Is(err, apperrors.ErrSessionClosed) {
		c.JSON(http.StatusGone, gin.H{"error": err.Error()})
	} else if errors.Is(err, apperrors.ErrConflict) {
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	} else if errors.Is(err, apperrors.ErrValidation) {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
	} else {
		log.Printf("ERROR: Internal server error in SessionHandler: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
	}
}
