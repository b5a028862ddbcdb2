package echoapi

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/mansa/core/activity"
	"github.com/trezcool/mansa/core/curriculum"
	"github.com/trezcool/mansa/core/user"
)

// createSubjectTree creates a stage, a grade and a subject, and returns the subject ID.
func createSubjectTree(t *testing.T, app *testApp, adminToken string) string {
	t.Helper()

	rec := app.do(http.MethodPost, "/api/curriculum/stages", adminToken, curriculum.NewStage{Name: "Primary"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var stage curriculum.Stage
	decode(t, rec, &stage)

	rec = app.do(http.MethodPost, "/api/curriculum/grades", adminToken, curriculum.NewGrade{Name: "Grade 1", StageID: stage.ID})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var grade curriculum.Grade
	decode(t, rec, &grade)

	rec = app.do(http.MethodPost, "/api/curriculum/subjects", adminToken, curriculum.NewSubject{Name: "Maths", GradeID: grade.ID})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var subject curriculum.Subject
	decode(t, rec, &subject)
	return subject.ID
}

func createLesson(t *testing.T, app *testApp, token, unitID, title string, published bool) curriculum.Lesson {
	t.Helper()
	rec := app.do(http.MethodPost, "/api/curriculum/lessons", token, curriculum.NewLesson{
		Title:     title,
		Content:   "<p>Hello</p>",
		UnitID:    unitID,
		Published: published,
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var lesson curriculum.Lesson
	decode(t, rec, &lesson)
	return lesson
}

func createUnit(t *testing.T, app *testApp, token, subjectID string) curriculum.Unit {
	t.Helper()
	rec := app.do(http.MethodPost, "/api/curriculum/units", token, curriculum.NewUnit{Name: "Numbers", SubjectID: subjectID})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var unit curriculum.Unit
	decode(t, rec, &unit)
	return unit
}

func Test_curriculumApi(t *testing.T) {
	app := setup(t)
	admin := app.createUser("Admin", "admin@test.cd", user.RoleAdmin)
	teacher := app.createUser("Teacher", "teacher@test.cd", user.RoleTeacher)
	student := app.createUser("Student", "student@test.cd", user.RoleStudent)
	teacherToken, studentToken := app.token(teacher), app.token(student)

	subjectID := createSubjectTree(t, app, app.token(admin))
	unit := createUnit(t, app, teacherToken, subjectID)
	published := createLesson(t, app, teacherToken, unit.ID, "Counting", true)
	draft := createLesson(t, app, teacherToken, unit.ID, "Adding", false)

	runCodeTests(t, app, []httpTest{
		{name: "stages are public", method: http.MethodGet, path: "/api/curriculum/stages", wantCode: http.StatusOK},
		{name: "teachers cannot create stages", method: http.MethodPost, path: "/api/curriculum/stages", token: teacherToken, body: curriculum.NewStage{Name: "High"}, wantCode: http.StatusForbidden},
		{name: "blank stage name", method: http.MethodPost, path: "/api/curriculum/stages", token: app.token(admin), body: curriculum.NewStage{Name: "  "}, wantCode: http.StatusBadRequest},
		{name: "students cannot create lessons", method: http.MethodPost, path: "/api/curriculum/lessons", token: studentToken, body: curriculum.NewLesson{Title: "X", UnitID: unit.ID}, wantCode: http.StatusForbidden},
		{name: "unknown unit", method: http.MethodPost, path: "/api/curriculum/lessons", token: teacherToken, body: curriculum.NewLesson{Title: "X", UnitID: "5f1c0c5e-0000-4000-8000-000000000000"}, wantCode: http.StatusNotFound},
		{name: "draft hidden from students", method: http.MethodGet, path: "/api/curriculum/lessons/" + draft.ID, token: studentToken, wantCode: http.StatusNotFound},
		{name: "draft visible to its teacher", method: http.MethodGet, path: "/api/curriculum/lessons/" + draft.ID, token: teacherToken, wantCode: http.StatusOK},
		{name: "teachers cannot complete lessons", method: http.MethodPost, path: "/api/curriculum/lessons/" + published.ID + "/complete", token: teacherToken, wantCode: http.StatusForbidden},
		{name: "stats require a teacher", method: http.MethodGet, path: "/api/curriculum/stats", token: studentToken, wantCode: http.StatusForbidden},
	})

	t.Run("subject outline", func(t *testing.T) {
		rec := app.do(http.MethodGet, "/api/curriculum/subjects/"+subjectID, studentToken, nil)
		require.Equal(t, http.StatusOK, rec.Code)
		var subject curriculum.Subject
		decode(t, rec, &subject)
		require.Len(t, subject.Units, 1)
		require.Len(t, subject.Units[0].Lessons, 1)
		assert.Equal(t, published.ID, subject.Units[0].Lessons[0].ID)

		rec = app.do(http.MethodGet, "/api/curriculum/subjects/"+subjectID, teacherToken, nil)
		require.Equal(t, http.StatusOK, rec.Code)
		decode(t, rec, &subject)
		assert.Len(t, subject.Units[0].Lessons, 2)
	})

	t.Run("complete lesson", func(t *testing.T) {
		path := "/api/curriculum/lessons/" + published.ID
		rec := app.do(http.MethodPost, path+"/complete", studentToken, nil)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		rec = app.do(http.MethodPost, path+"/complete", studentToken, nil)
		require.Equal(t, http.StatusOK, rec.Code, "completing twice is fine")

		rec = app.do(http.MethodGet, path, studentToken, nil)
		require.Equal(t, http.StatusOK, rec.Code)
		var lesson curriculum.Lesson
		decode(t, rec, &lesson)
		assert.True(t, lesson.Completed)
	})

	t.Run("stats and lessons", func(t *testing.T) {
		rec := app.do(http.MethodGet, "/api/curriculum/stats", teacherToken, nil)
		require.Equal(t, http.StatusOK, rec.Code)
		var stats curriculum.TeacherStats
		decode(t, rec, &stats)
		assert.Equal(t, 2, stats.Lessons)

		rec = app.do(http.MethodGet, "/api/curriculum/lessons", teacherToken, nil)
		require.Equal(t, http.StatusOK, rec.Code)
		var lessons []curriculum.LessonSummary
		decode(t, rec, &lessons)
		assert.Len(t, lessons, 2)
	})

	t.Run("lesson creation is logged", func(t *testing.T) {
		rec := app.do(http.MethodGet, "/api/admin/logs?action="+activity.ActionCreateLesson, app.token(admin), nil)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		var resp struct {
			Logs  []activity.Log `json:"logs"`
			Total int            `json:"total"`
		}
		decode(t, rec, &resp)
		assert.Equal(t, 2, resp.Total)
	})
}
