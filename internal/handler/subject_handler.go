package handler

import (
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/asaadmansour/leastud/internal/handler/dto"
	apperrors "github.com/asaadmansour/leastud/internal/pkg/errors"
	"github.com/asaadmansour/leastud/internal/service"
)

// SubjectHandler обрабатывает запросы, связанные с предметами
type SubjectHandler struct {
	contentService *service.ContentService
}

// NewSubjectHandler создает новый обработчик предметов
func NewSubjectHandler(contentService *service.ContentService) *SubjectHandler {
	return &SubjectHandler{contentService: contentService}
}

// CreateSubjectRequest представляет запрос на создание предмета
type CreateSubjectRequest struct {
	Name string `json:"name" binding:"required,min=1,max=100"`
}

// CreateSubject обрабатывает запрос на создание предмета
func (h *SubjectHandler) CreateSubject(c *gin.Context) {
	var req CreateSubjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	subject := h.contentService.AddSubject(req.Name)

	c.JSON(http.StatusCreated, dto.NewSubjectResponse(&subject, false))
}

// ListSubjects возвращает список предметов.
// Параметр filter сужает выборку: popular - встроенные, user - пользовательские.
func (h *SubjectHandler) ListSubjects(c *gin.Context) {
	switch c.DefaultQuery("filter", "all") {
	case "popular":
		c.JSON(http.StatusOK, dto.NewListSubjectResponse(h.contentService.GetPopularSubjects()))
	case "user":
		c.JSON(http.StatusOK, dto.NewListSubjectResponse(h.contentService.GetUserSubjects()))
	default:
		c.JSON(http.StatusOK, dto.NewListSubjectResponse(h.contentService.GetAllSubjects()))
	}
}

// GetSubject возвращает предмет вместе с экзаменами
func (h *SubjectHandler) GetSubject(c *gin.Context) {
	subjectID := c.MustGet("subjectID").(string) // Получаем из контекста

	subject, err := h.contentService.GetSubject(subjectID)
	if err != nil {
		h.handleSubjectError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.NewSubjectResponse(subject, true))
}

// UpdateSubjectRequest представляет запрос на переименование предмета
type UpdateSubjectRequest struct {
	Name string `json:"name" binding:"required,min=1,max=100"`
}

// UpdateSubject обрабатывает запрос на переименование предмета
func (h *SubjectHandler) UpdateSubject(c *gin.Context) {
	subjectID := c.MustGet("subjectID").(string)

	var req UpdateSubjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.contentService.UpdateSubject(subjectID, req.Name); err != nil {
		h.handleSubjectError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Subject updated successfully"})
}

// DeleteSubject обрабатывает запрос на удаление предмета
func (h *SubjectHandler) DeleteSubject(c *gin.Context) {
	subjectID := c.MustGet("subjectID").(string)

	if err := h.contentService.DeleteSubject(subjectID); err != nil {
		h.handleSubjectError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Subject deleted successfully"})
}

// handleSubjectError обрабатывает ошибки сервиса каталога и отправляет соответствующий HTTP ответ
func (h *SubjectHandler) handleSubjectError(c *gin.Context, err error) {
	if errors.Is(err, apperrors.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	} else if errors.Is(err, apperrors.ErrConflict) {
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	} else if errors.Is(err, apperrors.ErrValidation) {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
	} else {
		log.Printf("ERROR: Internal server error in SubjectHandler: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
	}
}
