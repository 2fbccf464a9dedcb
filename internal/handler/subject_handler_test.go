package handler

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/asaadmansour/leastud/internal/middleware"
	"github.com/asaadmansour/leastud/internal/seed"
	"github.com/asaadmansour/leastud/internal/service"
)

func newTestRouter(t *testing.T) (*gin.Engine, *service.ContentService) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	path := filepath.Join(t.TempDir(), "preloaded.json")
	payload := `[
		{"subject": "Math", "exam": "Algebra", "questions": [
			{"question": "2+2?", "answers": ["3", "4"], "correct": "4"}
		]}
	]`
	require.NoError(t, os.WriteFile(path, []byte(payload), 0o644))

	loader := seed.NewLoader(path)
	require.NoError(t, loader.Load())

	contentService := service.NewContentService(loader)
	contentService.InitializePreloaded()

	subjectHandler := NewSubjectHandler(contentService)
	examHandler := NewExamHandler(contentService)

	router := gin.New()
	api := router.Group("/api")
	api.POST("/import", examHandler.ImportExam)

	subjects := api.Group("/subjects")
	subjects.GET("", subjectHandler.ListSubjects)
	subjects.POST("", subjectHandler.CreateSubject)

	subjectWithID := subjects.Group("/:subjectID")
	subjectWithID.Use(middleware.ExtractStringParam("subjectID", "subjectID"))
	subjectWithID.GET("", subjectHandler.GetSubject)
	subjectWithID.PUT("", subjectHandler.UpdateSubject)
	subjectWithID.DELETE("", subjectHandler.DeleteSubject)

	exams := subjectWithID.Group("/exams")
	exams.POST("", examHandler.CreateExam)

	examWithID := exams.Group("/:examID")
	examWithID.Use(middleware.ExtractStringParam("examID", "examID"))
	examWithID.GET("", examHandler.GetExam)
	examWithID.POST("/questions", examHandler.AddQuestion)

	return router, contentService
}

func performJSON(router *gin.Engine, method, url string, body interface{}) *httptest.ResponseRecorder {
	var reader *bytes.Reader
	if body != nil {
		raw, _ := json.Marshal(body)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, url, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestSubjectHandler_CreateAndGet(t *testing.T) {
	router, _ := newTestRouter(t)

	w := performJSON(router, http.MethodPost, "/api/subjects", gin.H{"name": "Physics"})
	require.Equal(t, http.StatusCreated, w.Code)

	var created struct {
		ID   string `json:"id"`
		Name string `json:"name"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
	assert.Equal(t, "Physics", created.Name)

	w = performJSON(router, http.MethodGet, "/api/subjects/"+created.ID, nil)
	require.Equal(t, http.StatusOK, w.Code)
}

func TestSubjectHandler_CreateValidation(t *testing.T) {
	router, _ := newTestRouter(t)

	w := performJSON(router, http.MethodPost, "/api/subjects", gin.H{"name": ""})

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSubjectHandler_GetUnknownSubject(t *testing.T) {
	router, _ := newTestRouter(t)

	w := performJSON(router, http.MethodGet, "/api/subjects/subject-missing", nil)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestSubjectHandler_ListFilters(t *testing.T) {
	router, _ := newTestRouter(t)
	performJSON(router, http.MethodPost, "/api/subjects", gin.H{"name": "Physics"})

	var popular []struct {
		ID string `json:"id"`
	}
	w := performJSON(router, http.MethodGet, "/api/subjects?filter=popular", nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &popular))
	require.Len(t, popular, 1)
	assert.Equal(t, "preloaded-subject-math", popular[0].ID)

	var user []struct {
		Name string `json:"name"`
	}
	w = performJSON(router, http.MethodGet, "/api/subjects?filter=user", nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &user))
	require.Len(t, user, 1)
	assert.Equal(t, "Physics", user[0].Name)
}

func TestExamHandler_AddQuestionValidation(t *testing.T) {
	router, _ := newTestRouter(t)

	w := performJSON(router, http.MethodPost, "/api/subjects", gin.H{"name": "Physics"})
	require.Equal(t, http.StatusCreated, w.Code)
	var subject struct {
		ID string `json:"id"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &subject))

	w = performJSON(router, http.MethodPost, "/api/subjects/"+subject.ID+"/exams", gin.H{"name": "Mechanics"})
	require.Equal(t, http.StatusCreated, w.Code)
	var exam struct {
		ID string `json:"id"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &exam))

	base := "/api/subjects/" + subject.ID + "/exams/" + exam.ID + "/questions"

	// Правильный ответ не входит в варианты
	w = performJSON(router, http.MethodPost, base, gin.H{
		"question": "F=?", "answers": []string{"ma", "mv"}, "correct": "E",
	})
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)

	w = performJSON(router, http.MethodPost, base, gin.H{
		"question": "F=?", "answers": []string{"ma", "mv"}, "correct": "ma",
	})
	assert.Equal(t, http.StatusCreated, w.Code)
}

func TestExamHandler_ImportCreatesSubjectAndExam(t *testing.T) {
	router, svc := newTestRouter(t)

	w := performJSON(router, http.MethodPost, "/api/import", gin.H{
		"subject": "Chemistry",
		"exam":    "Organic",
		"questions": []gin.H{
			{"question": "H2O?", "answers": []string{"water", "salt"}, "correct": "water"},
		},
	})

	require.Equal(t, http.StatusCreated, w.Code)

	var resp struct {
		SubjectID string `json:"subject_id"`
		Exam      struct {
			ID            string `json:"id"`
			QuestionCount int    `json:"question_count"`
		} `json:"exam"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, 1, resp.Exam.QuestionCount)

	subject, err := svc.GetSubject(resp.SubjectID)
	require.NoError(t, err)
	assert.Equal(t, "Chemistry", subject.Name)
}

func TestExamHandler_ImportIntoExistingSubjectByName(t *testing.T) {
	router, svc := newTestRouter(t)

	w := performJSON(router, http.MethodPost, "/api/import", gin.H{
		"subject":   "math",
		"exam":      "Trigonometry",
		"questions": []gin.H{},
	})

	require.Equal(t, http.StatusCreated, w.Code)

	var resp struct {
		SubjectID string `json:"subject_id"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	// Имя совпало со встроенным предметом без учета регистра
	assert.Equal(t, "preloaded-subject-math", resp.SubjectID)

	subject, err := svc.GetSubject(resp.SubjectID)
	require.NoError(t, err)
	assert.Len(t, subject.Exams, 2)
}

func TestExamHandler_ImportMalformedJSON(t *testing.T) {
	router, _ := newTestRouter(t)

	req := httptest.NewRequest(http.MethodPost, "/api/import", bytes.NewReader([]byte(`{broken`)))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}
