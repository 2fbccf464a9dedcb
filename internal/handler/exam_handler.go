package handler

import (
	"errors"
	"io"
	"log"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/asaadmansour/leastud/internal/domain/entity"
	"github.com/asaadmansour/leastud/internal/handler/dto"
	"github.com/asaadmansour/leastud/internal/importer"
	apperrors "github.com/asaadmansour/leastud/internal/pkg/errors"
	"github.com/asaadmansour/leastud/internal/service"
)

// ExamHandler обрабатывает запросы, связанные с экзаменами и их вопросами
type ExamHandler struct {
	contentService *service.ContentService
}

// NewExamHandler создает новый обработчик экзаменов
func NewExamHandler(contentService *service.ContentService) *ExamHandler {
	return &ExamHandler{contentService: contentService}
}

// CreateExamRequest представляет запрос на создание экзамена
type CreateExamRequest struct {
	Name string `json:"name" binding:"required,min=1,max=100"`
}

// CreateExam обрабатывает запрос на создание экзамена в предмете
func (h *ExamHandler) CreateExam(c *gin.Context) {
	subjectID := c.MustGet("subjectID").(string) // Получаем из контекста

	var req CreateExamRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	exam, err := h.contentService.AddExam(subjectID, req.Name)
	if err != nil {
		h.handleExamError(c, err)
		return
	}

	c.JSON(http.StatusCreated, dto.NewExamResponse(&exam, false))
}

// GetExam возвращает экзамен вместе с вопросами
func (h *ExamHandler) GetExam(c *gin.Context) {
	subjectID := c.MustGet("subjectID").(string)
	examID := c.MustGet("examID").(string)

	exam, err := h.contentService.GetExam(subjectID, examID)
	if err != nil {
		h.handleExamError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.NewExamResponse(exam, true))
}

// UpdateExamRequest представляет запрос на переименование экзамена
type UpdateExamRequest struct {
	Name string `json:"name" binding:"required,min=1,max=100"`
}

// UpdateExam обрабатывает запрос на переименование экзамена
func (h *ExamHandler) UpdateExam(c *gin.Context) {
	subjectID := c.MustGet("subjectID").(string)
	examID := c.MustGet("examID").(string)

	var req UpdateExamRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.contentService.UpdateExam(subjectID, examID, req.Name); err != nil {
		h.handleExamError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Exam updated successfully"})
}

// DeleteExam обрабатывает запрос на удаление экзамена
func (h *ExamHandler) DeleteExam(c *gin.Context) {
	subjectID := c.MustGet("subjectID").(string)
	examID := c.MustGet("examID").(string)

	if err := h.contentService.DeleteExam(subjectID, examID); err != nil {
		h.handleExamError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Exam deleted successfully"})
}

// QuestionRequest представляет запрос на создание или замену вопроса
type QuestionRequest struct {
	Question string   `json:"question" binding:"required"`
	Answers  []string `json:"answers" binding:"required"`
	Correct  string   `json:"correct" binding:"required"`
}

// AddQuestion обрабатывает запрос на добавление вопроса к экзамену
func (h *ExamHandler) AddQuestion(c *gin.Context) {
	subjectID := c.MustGet("subjectID").(string)
	examID := c.MustGet("examID").(string)

	var req QuestionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := importer.ValidateQuestion(req.Question, req.Answers, req.Correct); err != nil {
		h.handleExamError(c, err)
		return
	}

	question := entity.Question{
		ID:      importer.NewQuestionID(),
		Text:    req.Question,
		Answers: req.Answers,
		Correct: req.Correct,
		Origin:  entity.OriginUser,
	}
	if err := h.contentService.AddQuestion(subjectID, examID, question); err != nil {
		h.handleExamError(c, err)
		return
	}

	c.JSON(http.StatusCreated, dto.NewQuestionResponse(&question))
}

// UpdateQuestion обрабатывает запрос на замену вопроса целиком
func (h *ExamHandler) UpdateQuestion(c *gin.Context) {
	subjectID := c.MustGet("subjectID").(string)
	examID := c.MustGet("examID").(string)
	questionID := c.MustGet("questionID").(string)

	var req QuestionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := importer.ValidateQuestion(req.Question, req.Answers, req.Correct); err != nil {
		h.handleExamError(c, err)
		return
	}

	question := entity.Question{
		ID:      questionID,
		Text:    req.Question,
		Answers: req.Answers,
		Correct: req.Correct,
		Origin:  entity.OriginUser,
	}
	if err := h.contentService.UpdateQuestion(subjectID, examID, questionID, question); err != nil {
		h.handleExamError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.NewQuestionResponse(&question))
}

// DeleteQuestion обрабатывает запрос на удаление вопроса
func (h *ExamHandler) DeleteQuestion(c *gin.Context) {
	subjectID := c.MustGet("subjectID").(string)
	examID := c.MustGet("examID").(string)
	questionID := c.MustGet("questionID").(string)

	if err := h.contentService.DeleteQuestion(subjectID, examID, questionID); err != nil {
		h.handleExamError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Question deleted successfully"})
}

// ImportExam обрабатывает загрузку JSON-документа с экзаменом.
// Документ несет имя предмета, имя экзамена и список вопросов; предмет
// подбирается по имени среди существующих или создается заново.
// POST /api/import
func (h *ExamHandler) ImportExam(c *gin.Context) {
	raw, err := io.ReadAll(http.MaxBytesReader(c.Writer, c.Request.Body, 4<<20))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Failed to read request body"})
		return
	}

	doc, err := importer.Parse(raw)
	if err != nil {
		h.handleExamError(c, err)
		return
	}

	subjectID := h.resolveSubjectForImport(doc.Subject)

	exam, err := h.contentService.AddExam(subjectID, doc.Exam)
	if err != nil {
		h.handleExamError(c, err)
		return
	}

	for _, question := range doc.ToQuestions(entity.OriginUser) {
		if err := h.contentService.AddQuestion(subjectID, exam.ID, question); err != nil {
			h.handleExamError(c, err)
			return
		}
	}

	imported, err := h.contentService.GetExam(subjectID, exam.ID)
	if err != nil {
		h.handleExamError(c, err)
		return
	}

	log.Printf("[ExamHandler] Импортирован экзамен '%s' (%d вопросов) в предмет %s", doc.Exam, len(doc.Questions), subjectID)
	c.JSON(http.StatusCreated, gin.H{
		"subject_id": subjectID,
		"exam":       dto.NewExamResponse(imported, true),
	})
}

// resolveSubjectForImport находит предмет по имени без учета регистра,
// либо создает новый пользовательский предмет
func (h *ExamHandler) resolveSubjectForImport(name string) string {
	for _, subject := range h.contentService.GetAllSubjects() {
		if strings.EqualFold(subject.Name, name) {
			return subject.ID
		}
	}
	return h.contentService.AddSubject(name).ID
}

// handleExamError обрабатывает ошибки сервиса каталога и отправляет соответствующий HTTP ответ
func (h *ExamHandler) handleExamError(c *gin.Context, err error) {
	if errors.Is(err, apperrors.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	} else if errors.Is(err, apperrors.ErrInvalidFormat) {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	} else if errors.Is(err, apperrors.ErrValidation) {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
	} else if errors.Is(err, apperrors.ErrConflict) {
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	} else {
		log.Printf("ERROR: Internal server error in ExamHandler: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
	}
}
