package handler

import (
	"encoding/csv"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/xuri/excelize/v2"

	"github.com/asaadmansour/leastud/internal/domain/entity"
	"github.com/asaadmansour/leastud/internal/handler/dto"
	apperrors "github.com/asaadmansour/leastud/internal/pkg/errors"
	"github.com/asaadmansour/leastud/internal/service"
)

// AttemptHandler обрабатывает запросы к журналу попыток
type AttemptHandler struct {
	attemptService *service.AttemptService
	contentService *service.ContentService
}

// NewAttemptHandler создает новый обработчик попыток
func NewAttemptHandler(attemptService *service.AttemptService, contentService *service.ContentService) *AttemptHandler {
	return &AttemptHandler{
		attemptService: attemptService,
		contentService: contentService,
	}
}

// ListAttempts возвращает попытки, новые первыми.
// Параметр exam_id сужает выборку до одного экзамена.
func (h *AttemptHandler) ListAttempts(c *gin.Context) {
	if examID := c.Query("exam_id"); examID != "" {
		c.JSON(http.StatusOK, dto.NewListAttemptResponse(h.attemptService.GetByExam(examID)))
		return
	}
	c.JSON(http.StatusOK, dto.NewListAttemptResponse(h.attemptService.GetAll()))
}

// GetAttempt возвращает попытку вместе с разбором по вопросам
func (h *AttemptHandler) GetAttempt(c *gin.Context) {
	attemptID := c.MustGet("attemptID").(string) // Получаем из контекста

	attempt, err := h.attemptService.GetByID(attemptID)
	if err != nil {
		h.handleAttemptError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.NewAttemptResponse(attempt, true))
}

// DeleteAttempt обрабатывает запрос на удаление попытки
func (h *AttemptHandler) DeleteAttempt(c *gin.Context) {
	attemptID := c.MustGet("attemptID").(string)

	if err := h.attemptService.Delete(attemptID); err != nil {
		h.handleAttemptError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Attempt deleted successfully"})
}

// ExportAttempts экспортирует журнал попыток в CSV или Excel формате
// GET /api/attempts/export?format=csv|xlsx
func (h *AttemptHandler) ExportAttempts(c *gin.Context) {
	format := c.DefaultQuery("format", "csv")
	attempts := h.attemptService.GetAll()

	filename := fmt.Sprintf("attempts_%s", time.Now().Format("2006-01-02"))

	switch format {
	case "xlsx":
		h.exportXLSX(c, attempts, filename)
	default:
		h.exportCSV(c, attempts, filename)
	}
}

// attemptExportRow собирает строку экспорта с человекочитаемыми именами
// предмета и экзамена; удаленные сущности остаются в виде ID
func (h *AttemptHandler) attemptExportRow(attempt *entity.ExamAttempt) (subjectName, examName string) {
	subjectName = attempt.SubjectID
	examName = attempt.ExamID

	if subject, err := h.contentService.GetSubject(attempt.SubjectID); err == nil {
		subjectName = subject.Name
		if exam := subject.FindExam(attempt.ExamID); exam != nil {
			examName = exam.Name
		}
	}
	return subjectName, examName
}

// exportCSV экспортирует попытки в CSV с правильным экранированием спецсимволов
func (h *AttemptHandler) exportCSV(c *gin.Context, attempts []entity.ExamAttempt, filename string) {
	c.Header("Content-Type", "text/csv; charset=utf-8")
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=\"%s.csv\"", filename))

	// BOM для корректного отображения UTF-8 в Excel
	c.Writer.Write([]byte{0xEF, 0xBB, 0xBF})

	// Используем encoding/csv для правильного экранирования запятых/кавычек
	writer := csv.NewWriter(c.Writer)
	defer writer.Flush()

	// Заголовки
	writer.Write([]string{"Дата", "Предмет", "Экзамен", "Балл", "Правильных", "Всего вопросов", "Завершена"})

	// Данные
	for i := range attempts {
		a := &attempts[i]
		subjectName, examName := h.attemptExportRow(a)
		complete := "Нет"
		if a.IsComplete {
			complete = "Да"
		}

		writer.Write([]string{
			a.Timestamp.Format("2006-01-02 15:04"),
			sanitizeForExcel(subjectName),
			sanitizeForExcel(examName),
			strconv.Itoa(a.Score),
			strconv.Itoa(a.CorrectCount()),
			strconv.Itoa(a.TotalQuestions),
			complete,
		})
	}
}

// exportXLSX экспортирует попытки в Excel с использованием StreamWriter
func (h *AttemptHandler) exportXLSX(c *gin.Context, attempts []entity.ExamAttempt, filename string) {
	c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=\"%s.xlsx\"", filename))

	f := excelize.NewFile()
	defer f.Close()

	sheetName := "Попытки"
	f.SetSheetName("Sheet1", sheetName)

	sw, err := f.NewStreamWriter(sheetName)
	if err != nil {
		log.Printf("[AttemptHandler] Ошибка создания StreamWriter: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create Excel file"})
		return
	}

	// Заголовки
	headers := []interface{}{"Дата", "Предмет", "Экзамен", "Балл", "Правильных", "Всего вопросов", "Завершена"}
	if err := sw.SetRow("A1", headers); err != nil {
		log.Printf("[AttemptHandler] Ошибка записи заголовков: %v", err)
	}

	// Данные
	for i := range attempts {
		a := &attempts[i]
		rowNum := i + 2 // Начинаем с 2 строки (1 - заголовки)
		cell := fmt.Sprintf("A%d", rowNum)

		subjectName, examName := h.attemptExportRow(a)
		complete := "Нет"
		if a.IsComplete {
			complete = "Да"
		}

		row := []interface{}{
			a.Timestamp.Format("2006-01-02 15:04"),
			sanitizeForExcel(subjectName),
			sanitizeForExcel(examName),
			a.Score,
			a.CorrectCount(),
			a.TotalQuestions,
			complete,
		}
		if err := sw.SetRow(cell, row); err != nil {
			log.Printf("[AttemptHandler] Ошибка записи строки %d: %v", rowNum, err)
		}
	}

	if err := sw.Flush(); err != nil {
		log.Printf("[AttemptHandler] Ошибка при Flush: %v", err)
	}

	// Записываем в response
	if err := f.Write(c.Writer); err != nil {
		log.Printf("[AttemptHandler] Ошибка записи Excel в response: %v", err)
	}
}

// sanitizeForExcel экранирует данные для защиты от formula injection в Excel/CSV
func sanitizeForExcel(s string) string {
	if len(s) == 0 {
		return s
	}
	// Символы, начинающие формулу в Excel/LibreOffice: = + - @ \t \r
	if s[0] == '=' || s[0] == '+' || s[0] == '-' || s[0] == '@' || s[0] == '\t' || s[0] == '\r' {
		return "'" + s
	}
	return s
}

// handleAttemptError обрабатывает ошибки журнала попыток и отправляет соответствующий HTTP ответ
func (h *AttemptHandler) handleAttemptError(c *gin.Context, err error) {
	if errors.Is(err, apperrors.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	} else {
		log.Printf("ERROR: Internal server error in AttemptHandler: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
	}
}
