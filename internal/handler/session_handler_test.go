package handler

import (
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/asaadmansour/leastud/internal/middleware"
	"github.com/asaadmansour/leastud/internal/service"
	"github.com/asaadmansour/leastud/internal/service/session"
	"github.com/asaadmansour/leastud/internal/websocket"
)

func newSessionTestRouter(t *testing.T) (*gin.Engine, *service.AttemptService) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	_, contentService := newTestRouter(t)
	attemptService := service.NewAttemptService()

	cfg := session.DefaultConfig()
	cfg.SecondsPerQuestion = 100000
	cfg.TickInterval = 10 * time.Millisecond
	cfg.GraceDelay = 20 * time.Millisecond

	sessionManager := session.NewManager(cfg, attemptService)
	hub := websocket.NewHub()
	sessionHandler := NewSessionHandler(sessionManager, contentService, attemptService, hub)
	attemptHandler := NewAttemptHandler(attemptService, contentService)

	router := gin.New()
	api := router.Group("/api")

	attempts := api.Group("/attempts")
	attempts.GET("", attemptHandler.ListAttempts)

	sessions := api.Group("/quiz/sessions")
	sessions.POST("", sessionHandler.StartSession)

	sessionWithID := sessions.Group("/:sessionID")
	sessionWithID.Use(middleware.ExtractStringParam("sessionID", "sessionID"))
	sessionWithID.GET("", sessionHandler.GetSession)
	sessionWithID.POST("/begin", sessionHandler.BeginSession)
	sessionWithID.POST("/answer", sessionHandler.AnswerQuestion)
	sessionWithID.POST("/next", sessionHandler.NextQuestion)
	sessionWithID.POST("/submit", sessionHandler.SubmitSession)
	sessionWithID.POST("/exit", sessionHandler.ExitSession)
	sessionWithID.POST("/visibility", sessionHandler.SetVisibility)

	return router, attemptService
}

const (
	mathSubjectID = "preloaded-subject-math"
	algebraExamID = "preloaded-exam-preloaded-subject-math-algebra"
)

func TestSessionHandler_FullQuizFlow(t *testing.T) {
	router, attemptService := newSessionTestRouter(t)

	w := performJSON(router, http.MethodPost, "/api/quiz/sessions", gin.H{
		"subject_id": mathSubjectID,
		"exam_id":    algebraExamID,
	})
	require.Equal(t, http.StatusCreated, w.Code)

	var status session.Status
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &status))
	assert.Equal(t, session.StateConfiguring, status.State)
	require.Equal(t, 1, status.TotalQuestions)

	base := "/api/quiz/sessions/" + status.SessionID

	w = performJSON(router, http.MethodPost, base+"/begin", nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &status))
	require.NotNil(t, status.CurrentQuestion)

	w = performJSON(router, http.MethodPost, base+"/answer", gin.H{
		"question_id": status.CurrentQuestion.ID,
		"answer":      "4",
	})
	require.Equal(t, http.StatusOK, w.Code)

	w = performJSON(router, http.MethodPost, base+"/submit", nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &status))
	assert.Equal(t, session.StateComplete, status.State)

	all := attemptService.GetAll()
	require.Len(t, all, 1)
	assert.Equal(t, 100, all[0].Score)
	assert.True(t, all[0].IsComplete)

	// Завершённая сессия удалена из менеджера
	w = performJSON(router, http.MethodGet, base, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestSessionHandler_ExitRecordsIncomplete(t *testing.T) {
	router, attemptService := newSessionTestRouter(t)

	w := performJSON(router, http.MethodPost, "/api/quiz/sessions", gin.H{
		"subject_id": mathSubjectID,
		"exam_id":    algebraExamID,
	})
	require.Equal(t, http.StatusCreated, w.Code)
	var status session.Status
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &status))

	base := "/api/quiz/sessions/" + status.SessionID
	require.Equal(t, http.StatusOK, performJSON(router, http.MethodPost, base+"/begin", nil).Code)
	require.Equal(t, http.StatusOK, performJSON(router, http.MethodPost, base+"/exit", nil).Code)

	all := attemptService.GetAll()
	require.Len(t, all, 1)
	assert.False(t, all[0].IsComplete)
}

func TestSessionHandler_StartUnknownExam(t *testing.T) {
	router, _ := newSessionTestRouter(t)

	w := performJSON(router, http.MethodPost, "/api/quiz/sessions", gin.H{
		"subject_id": mathSubjectID,
		"exam_id":    "exam-missing",
	})

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestSessionHandler_VisibilityPause(t *testing.T) {
	router, _ := newSessionTestRouter(t)

	w := performJSON(router, http.MethodPost, "/api/quiz/sessions", gin.H{
		"subject_id": mathSubjectID,
		"exam_id":    algebraExamID,
	})
	require.Equal(t, http.StatusCreated, w.Code)
	var status session.Status
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &status))

	base := "/api/quiz/sessions/" + status.SessionID
	require.Equal(t, http.StatusOK, performJSON(router, http.MethodPost, base+"/begin", nil).Code)

	w = performJSON(router, http.MethodPost, base+"/visibility", gin.H{"visible": false})
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &status))
	assert.Equal(t, session.StatePaused, status.State)

	w = performJSON(router, http.MethodPost, base+"/visibility", gin.H{"visible": true})
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &status))
	assert.Equal(t, session.StateRunning, status.State)
}

func TestSessionHandler_RetakeUsesLastAttemptOrder(t *testing.T) {
	router, attemptService := newSessionTestRouter(t)

	// Первая попытка задает набор и порядок вопросов
	w := performJSON(router, http.MethodPost, "/api/quiz/sessions", gin.H{
		"subject_id": mathSubjectID,
		"exam_id":    algebraExamID,
	})
	require.Equal(t, http.StatusCreated, w.Code)
	var status session.Status
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &status))
	base := "/api/quiz/sessions/" + status.SessionID
	require.Equal(t, http.StatusOK, performJSON(router, http.MethodPost, base+"/begin", nil).Code)
	require.Equal(t, http.StatusOK, performJSON(router, http.MethodPost, base+"/submit", nil).Code)

	firstAttempt := attemptService.GetAll()[0]

	// Пересдача воспроизводит те же вопросы
	w = performJSON(router, http.MethodPost, "/api/quiz/sessions", gin.H{
		"subject_id": mathSubjectID,
		"exam_id":    algebraExamID,
		"retake":     true,
	})
	require.Equal(t, http.StatusCreated, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &status))
	assert.Equal(t, len(firstAttempt.QuestionIDs), status.TotalQuestions)
}
