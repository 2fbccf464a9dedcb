package service

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/asaadmansour/leastud/internal/domain/entity"
	apperrors "github.com/asaadmansour/leastud/internal/pkg/errors"
	"github.com/asaadmansour/leastud/internal/seed"
)

func newSeededLoader(t *testing.T, payload string) *seed.Loader {
	t.Helper()
	path := filepath.Join(t.TempDir(), "preloaded.json")
	require.NoError(t, os.WriteFile(path, []byte(payload), 0o644))
	loader := seed.NewLoader(path)
	require.NoError(t, loader.Load())
	return loader
}

const mathSeed = `[
	{"subject": "Math", "exam": "Algebra", "questions": [
		{"question": "2+2?", "answers": ["3", "4"], "correct": "4"},
		{"question": "3*3?", "answers": ["6", "9"], "correct": "9"}
	]}
]`

func newTestContentService(t *testing.T) *ContentService {
	t.Helper()
	return NewContentService(newSeededLoader(t, mathSeed))
}

func TestContentService_AddSubject(t *testing.T) {
	svc := newTestContentService(t)

	subject := svc.AddSubject("Physics")

	assert.NotEmpty(t, subject.ID)
	assert.Equal(t, "Physics", subject.Name)
	assert.Equal(t, entity.OriginUser, subject.Origin)
	assert.Empty(t, subject.Exams)

	user := svc.GetUserSubjects()
	require.Len(t, user, 1)
	assert.Equal(t, subject.ID, user[0].ID)
}

func TestContentService_UpdateSubject_NotFound(t *testing.T) {
	svc := newTestContentService(t)

	err := svc.UpdateSubject("subject-missing", "New Name")

	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestContentService_GetPopularSubjects_MergedFromCatalog(t *testing.T) {
	svc := newTestContentService(t)

	popular := svc.GetPopularSubjects()

	require.Len(t, popular, 1)
	assert.Equal(t, "preloaded-subject-math", popular[0].ID)
	require.Len(t, popular[0].Exams, 1)
	assert.Len(t, popular[0].Exams[0].Questions, 2)
}

func TestContentService_AddQuestionToSeedExam_GoesToOverlay(t *testing.T) {
	svc := newTestContentService(t)
	subjectID := "preloaded-subject-math"
	examID := "preloaded-exam-preloaded-subject-math-algebra"

	err := svc.AddQuestion(subjectID, examID, entity.Question{
		ID:      "question-custom-1",
		Text:    "5+5?",
		Answers: []string{"10", "11"},
		Correct: "10",
		Origin:  entity.OriginUser,
	})
	require.NoError(t, err)

	exam, err := svc.GetExam(subjectID, examID)
	require.NoError(t, err)
	require.Len(t, exam.Questions, 3)
	// Каталожные вопросы идут первыми, оверлейный в хвосте
	assert.Equal(t, examID+"-q1", exam.Questions[0].ID)
	assert.Equal(t, examID+"-q2", exam.Questions[1].ID)
	assert.Equal(t, "question-custom-1", exam.Questions[2].ID)

	_, overlay := svc.Snapshot()
	key := entity.OverlayKey(subjectID, examID)
	require.Len(t, overlay[key], 1)
	assert.Equal(t, "question-custom-1", overlay[key][0].ID)
}

func TestContentService_MergeIsIdempotent(t *testing.T) {
	svc := newTestContentService(t)
	subjectID := "preloaded-subject-math"
	examID := "preloaded-exam-preloaded-subject-math-algebra"

	require.NoError(t, svc.AddQuestion(subjectID, examID, entity.Question{
		ID: "question-custom-1", Text: "5+5?", Answers: []string{"10", "11"}, Correct: "10",
	}))

	svc.InitializePreloaded()
	svc.InitializePreloaded()

	exam, err := svc.GetExam(subjectID, examID)
	require.NoError(t, err)
	assert.Len(t, exam.Questions, 3, "повторное слияние не должно дублировать вопросы")
}

func TestContentService_SeedWinsOverlayIDCollision(t *testing.T) {
	svc := newTestContentService(t)
	subjectID := "preloaded-subject-math"
	examID := "preloaded-exam-preloaded-subject-math-algebra"
	seedQuestionID := examID + "-q1"

	// Снимок прошлого запуска мог занести в оверлей вопрос с каталожным ID
	svc.Restore(nil, map[string][]entity.Question{
		entity.OverlayKey(subjectID, examID): {
			{ID: seedQuestionID, Text: "hijacked?", Answers: []string{"a", "b"}, Correct: "a"},
			{ID: "question-custom-1", Text: "5+5?", Answers: []string{"10", "11"}, Correct: "10"},
		},
	})
	svc.InitializePreloaded()

	exam, err := svc.GetExam(subjectID, examID)
	require.NoError(t, err)
	require.Len(t, exam.Questions, 3)

	// При совпадении ID побеждает каталожная версия, дубликата нет
	assert.Equal(t, seedQuestionID, exam.Questions[0].ID)
	assert.Equal(t, "2+2?", exam.Questions[0].Text)
	assert.Equal(t, examID+"-q2", exam.Questions[1].ID)
	assert.Equal(t, "question-custom-1", exam.Questions[2].ID)

	seen := 0
	for _, q := range exam.Questions {
		if q.ID == seedQuestionID {
			seen++
		}
	}
	assert.Equal(t, 1, seen)
}

func TestContentService_SoftDeletedSeedSubjectResurrects(t *testing.T) {
	svc := newTestContentService(t)
	svc.InitializePreloaded()

	require.NoError(t, svc.DeleteSubject("preloaded-subject-math"))
	assert.Empty(t, svc.GetUserSubjects())

	svc.InitializePreloaded()

	subject, err := svc.GetSubject("preloaded-subject-math")
	require.NoError(t, err)
	assert.Equal(t, "Math", subject.Name)
}

func TestContentService_SeedQuestionEditLostOnRemerge(t *testing.T) {
	svc := newTestContentService(t)
	svc.InitializePreloaded()
	subjectID := "preloaded-subject-math"
	examID := "preloaded-exam-preloaded-subject-math-algebra"
	seedQuestionID := examID + "-q1"

	require.NoError(t, svc.UpdateQuestion(subjectID, examID, seedQuestionID, entity.Question{
		Text: "edited?", Answers: []string{"a", "b"}, Correct: "a",
	}))

	svc.InitializePreloaded()

	exam, err := svc.GetExam(subjectID, examID)
	require.NoError(t, err)
	// Правка каталожного вопроса не попадает в оверлей и откатывается
	assert.Equal(t, "2+2?", exam.FindQuestion(seedQuestionID).Text)
}

func TestContentService_OverlayQuestionEditSurvivesRemerge(t *testing.T) {
	svc := newTestContentService(t)
	svc.InitializePreloaded()
	subjectID := "preloaded-subject-math"
	examID := "preloaded-exam-preloaded-subject-math-algebra"

	require.NoError(t, svc.AddQuestion(subjectID, examID, entity.Question{
		ID: "question-custom-1", Text: "5+5?", Answers: []string{"10", "11"}, Correct: "10",
	}))
	require.NoError(t, svc.UpdateQuestion(subjectID, examID, "question-custom-1", entity.Question{
		Text: "edited", Answers: []string{"10", "11"}, Correct: "11",
	}))

	svc.InitializePreloaded()

	exam, err := svc.GetExam(subjectID, examID)
	require.NoError(t, err)
	edited := exam.FindQuestion("question-custom-1")
	require.NotNil(t, edited)
	assert.Equal(t, "edited", edited.Text)
	assert.Equal(t, "11", edited.Correct)
}

func TestContentService_DeleteOverlayQuestion(t *testing.T) {
	svc := newTestContentService(t)
	subjectID := "preloaded-subject-math"
	examID := "preloaded-exam-preloaded-subject-math-algebra"

	require.NoError(t, svc.AddQuestion(subjectID, examID, entity.Question{
		ID: "question-custom-1", Text: "5+5?", Answers: []string{"10", "11"}, Correct: "10",
	}))
	require.NoError(t, svc.DeleteQuestion(subjectID, examID, "question-custom-1"))

	exam, err := svc.GetExam(subjectID, examID)
	require.NoError(t, err)
	assert.Len(t, exam.Questions, 2)

	_, overlay := svc.Snapshot()
	assert.Empty(t, overlay[entity.OverlayKey(subjectID, examID)])
}

func TestContentService_AddExamMaterializesSeedSubject(t *testing.T) {
	svc := newTestContentService(t)
	subjectID := "preloaded-subject-math"

	exam, err := svc.AddExam(subjectID, "My Extra Exam")
	require.NoError(t, err)
	assert.Equal(t, entity.OriginUser, exam.Origin)

	// Пользовательский экзамен виден в объединённом представлении рядом с
	// каталожным
	subject, err := svc.GetSubject(subjectID)
	require.NoError(t, err)
	require.Len(t, subject.Exams, 2)
	assert.NotNil(t, subject.FindExam(exam.ID))
}

func TestContentService_RenameSeedSubjectSurvivesMergeView(t *testing.T) {
	svc := newTestContentService(t)
	svc.InitializePreloaded()

	require.NoError(t, svc.UpdateSubject("preloaded-subject-math", "Mathematics"))

	subject, err := svc.GetSubject("preloaded-subject-math")
	require.NoError(t, err)
	assert.Equal(t, "Mathematics", subject.Name)
}

func TestContentService_UserSubjectCRUD(t *testing.T) {
	svc := newTestContentService(t)

	subject := svc.AddSubject("Chemistry")
	exam, err := svc.AddExam(subject.ID, "Organic")
	require.NoError(t, err)

	require.NoError(t, svc.AddQuestion(subject.ID, exam.ID, entity.Question{
		ID: "question-1", Text: "H2O?", Answers: []string{"water", "salt"}, Correct: "water",
	}))
	require.NoError(t, svc.UpdateExam(subject.ID, exam.ID, "Organic Chemistry"))

	got, err := svc.GetExam(subject.ID, exam.ID)
	require.NoError(t, err)
	assert.Equal(t, "Organic Chemistry", got.Name)
	assert.Len(t, got.Questions, 1)

	require.NoError(t, svc.DeleteExam(subject.ID, exam.ID))
	_, err = svc.GetExam(subject.ID, exam.ID)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)

	require.NoError(t, svc.DeleteSubject(subject.ID))
	_, err = svc.GetSubject(subject.ID)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestContentService_SnapshotRestoreRoundTrip(t *testing.T) {
	svc := newTestContentService(t)
	subject := svc.AddSubject("Physics")
	require.NoError(t, svc.AddQuestion(
		"preloaded-subject-math",
		"preloaded-exam-preloaded-subject-math-algebra",
		entity.Question{ID: "question-custom-1", Text: "5+5?", Answers: []string{"10"}, Correct: "10"},
	))

	subjects, overlay := svc.Snapshot()

	restored := NewContentService(newSeededLoader(t, mathSeed))
	restored.Restore(subjects, overlay)
	restored.InitializePreloaded()

	got, err := restored.GetSubject(subject.ID)
	require.NoError(t, err)
	assert.Equal(t, "Physics", got.Name)

	exam, err := restored.GetExam("preloaded-subject-math", "preloaded-exam-preloaded-subject-math-algebra")
	require.NoError(t, err)
	assert.Len(t, exam.Questions, 3)
}

func TestContentService_OnChangeFiresOnMutation(t *testing.T) {
	svc := newTestContentService(t)
	svc.InitializePreloaded()
	calls := 0
	svc.SetOnChange(func() { calls++ })

	svc.AddSubject("Physics")
	require.NoError(t, svc.UpdateSubject("preloaded-subject-math", "Mathematics"))

	assert.Equal(t, 2, calls)
}
