package echoapi

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/mansa/core/bank"
	"github.com/trezcool/mansa/core/quiz"
	"github.com/trezcool/mansa/core/user"
)

func newTestQuiz(published bool) quiz.NewQuiz {
	return quiz.NewQuiz{
		Title:     "Fractions",
		Published: published,
		Questions: []quiz.NewQuestion{
			{
				Text:   "1/2 + 1/2 = ?",
				Points: 2,
				Options: []quiz.NewOption{
					{Text: "1", IsCorrect: true},
					{Text: "2"},
				},
			},
			{
				Text: "Is 1/3 > 1/4?",
				Type: quiz.TypeTrueFalse,
				Options: []quiz.NewOption{
					{Text: "True", IsCorrect: true},
					{Text: "False"},
				},
			},
		},
	}
}

func Test_quizApi_flow(t *testing.T) {
	app := setup(t)
	teacher := app.createUser("Teacher", "teacher@test.cd", user.RoleTeacher)
	other := app.createUser("Other", "other@test.cd", user.RoleTeacher)
	student := app.createUser("Student", "student@test.cd", user.RoleStudent)
	teacherToken, studentToken := app.token(teacher), app.token(student)

	rec := app.do(http.MethodPost, "/api/quiz", studentToken, newTestQuiz(true))
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = app.do(http.MethodPost, "/api/quiz", teacherToken, newTestQuiz(true))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var qz quiz.Quiz
	decode(t, rec, &qz)
	require.Len(t, qz.Questions, 2)
	assert.Equal(t, 1, qz.Questions[1].Points, "points default to 1")

	runCodeTests(t, app, []httpTest{
		{name: "unknown quiz", method: http.MethodGet, path: "/api/quiz/5f1c0c5e-0000-4000-8000-000000000000", token: studentToken, wantCode: http.StatusNotFound},
		{name: "update by another teacher", method: http.MethodPatch, path: "/api/quiz/" + qz.ID, token: app.token(other), body: quiz.UpdateQuiz{Title: strPtr("Mine")}, wantCode: http.StatusForbidden},
		{name: "invalid question", method: http.MethodPost, path: "/api/quiz/" + qz.ID + "/questions", token: teacherToken, body: quiz.NewQuestion{Text: "Only one?", Options: []quiz.NewOption{{Text: "yes"}}}, wantCode: http.StatusBadRequest},
		{name: "results require teacher", method: http.MethodGet, path: "/api/quiz/" + qz.ID + "/results", token: studentToken, wantCode: http.StatusForbidden},
	})

	t.Run("students do not see the answers", func(t *testing.T) {
		rec := app.do(http.MethodGet, "/api/quiz/"+qz.ID, studentToken, nil)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.NotContains(t, rec.Body.String(), "is_correct")

		rec = app.do(http.MethodGet, "/api/quiz/"+qz.ID, teacherToken, nil)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), "is_correct")
	})

	var attempt quiz.Attempt
	t.Run("start attempt", func(t *testing.T) {
		rec := app.do(http.MethodPost, "/api/quiz/"+qz.ID+"/attempt", studentToken, nil)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		decode(t, rec, &attempt)

		// resumed
		rec = app.do(http.MethodPost, "/api/quiz/"+qz.ID+"/attempt", studentToken, nil)
		require.Equal(t, http.StatusOK, rec.Code)
		var again quiz.Attempt
		decode(t, rec, &again)
		assert.Equal(t, attempt.ID, again.ID)
	})

	t.Run("submit", func(t *testing.T) {
		sub := quiz.Submission{
			AttemptID: attempt.ID,
			Answers: []quiz.SubmittedAnswer{
				{QuestionID: qz.Questions[0].ID, SelectedOptionID: qz.Questions[0].Options[0].ID},
				{QuestionID: qz.Questions[1].ID, SelectedOptionID: qz.Questions[1].Options[1].ID},
			},
		}
		rec := app.do(http.MethodPost, "/api/quiz/submit", app.token(other), sub)
		assert.Equal(t, http.StatusForbidden, rec.Code)

		rec = app.do(http.MethodPost, "/api/quiz/submit", studentToken, sub)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		var res quiz.Result
		decode(t, rec, &res)
		assert.Equal(t, 2, res.Score)
		assert.Equal(t, 3, res.Total)
		assert.Equal(t, 66.67, res.Percentage)
		assert.True(t, res.Passed)

		rec = app.do(http.MethodPost, "/api/quiz/submit", studentToken, sub)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "quiz already completed", errorOf(t, rec).Error)

		rec = app.do(http.MethodPost, "/api/quiz/"+qz.ID+"/attempt", studentToken, nil)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("results", func(t *testing.T) {
		rec := app.do(http.MethodGet, "/api/quiz/results/me", studentToken, nil)
		require.Equal(t, http.StatusOK, rec.Code)
		var mine []quiz.Result
		decode(t, rec, &mine)
		require.Len(t, mine, 1)
		assert.Equal(t, "Fractions", mine[0].QuizTitle)

		rec = app.do(http.MethodGet, "/api/quiz/"+qz.ID+"/results", teacherToken, nil)
		require.Equal(t, http.StatusOK, rec.Code)
		var all []quiz.AttemptResult
		decode(t, rec, &all)
		require.Len(t, all, 1)
		assert.Equal(t, "student@test.cd", all[0].UserEmail)

		rec = app.do(http.MethodGet, "/api/quiz/attempt/"+attempt.ID+"/review", teacherToken, nil)
		assert.Equal(t, http.StatusOK, rec.Code)
		rec = app.do(http.MethodGet, "/api/quiz/attempt/"+attempt.ID+"/review", app.token(other), nil)
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("cannot unpublish with attempts", func(t *testing.T) {
		rec := app.do(http.MethodPatch, "/api/quiz/"+qz.ID, teacherToken, quiz.UpdateQuiz{Published: boolPtr(false)})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("my quizzes and delete", func(t *testing.T) {
		rec := app.do(http.MethodGet, "/api/quiz/my-quizzes?search=fract", teacherToken, nil)
		require.Equal(t, http.StatusOK, rec.Code)
		var resp struct {
			Quizzes []quiz.Quiz `json:"quizzes"`
			Total   int         `json:"total"`
		}
		decode(t, rec, &resp)
		assert.Equal(t, 1, resp.Total)

		rec = app.do(http.MethodDelete, "/api/quiz/"+qz.ID, teacherToken, nil)
		require.Equal(t, http.StatusOK, rec.Code)
		rec = app.do(http.MethodGet, "/api/quiz/"+qz.ID, teacherToken, nil)
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}

func Test_quizApi_unpublished(t *testing.T) {
	app := setup(t)
	teacher := app.createUser("Teacher", "teacher@test.cd", user.RoleTeacher)
	student := app.createUser("Student", "student@test.cd", user.RoleStudent)

	rec := app.do(http.MethodPost, "/api/quiz", app.token(teacher), newTestQuiz(false))
	require.Equal(t, http.StatusCreated, rec.Code)
	var qz quiz.Quiz
	decode(t, rec, &qz)

	rec = app.do(http.MethodGet, "/api/quiz/"+qz.ID, app.token(student), nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	rec = app.do(http.MethodPost, "/api/quiz/"+qz.ID+"/attempt", app.token(student), nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func Test_bankApi(t *testing.T) {
	app := setup(t)
	admin := app.createUser("Admin", "admin@test.cd", user.RoleAdmin)
	teacher := app.createUser("Teacher", "teacher@test.cd", user.RoleTeacher)
	teacherToken := app.token(teacher)
	subject := createSubjectTree(t, app, app.token(admin))

	rec := app.do(http.MethodPost, "/api/bank", teacherToken, bank.NewQuestion{
		Text:       "What is 2 + 2?",
		Difficulty: bank.DifficultyEasy,
		SubjectID:  subject,
		Options:    []bank.NewOption{{Text: "4", IsCorrect: true}, {Text: "5"}},
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var bq bank.Question
	decode(t, rec, &bq)

	rec = app.do(http.MethodPost, "/api/bank", teacherToken, bank.NewQuestion{Text: "2+2", Difficulty: "TRIVIAL", SubjectID: subject})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = app.do(http.MethodGet, "/api/bank?difficulty=EASY&search=2+%2B+2", app.token(admin), nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var resp struct {
		Questions []bank.Question `json:"questions"`
		Total     int             `json:"total"`
	}
	decode(t, rec, &resp)
	assert.Equal(t, 1, resp.Total)

	rec = app.do(http.MethodPost, "/api/quiz", teacherToken, quiz.NewQuiz{Title: "Imported"})
	require.Equal(t, http.StatusCreated, rec.Code)
	var qz quiz.Quiz
	decode(t, rec, &qz)

	rec = app.do(http.MethodPost, "/api/bank/import", teacherToken, bank.Import{QuizID: qz.ID, QuestionIDs: []string{bq.ID}})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var imported struct {
		Imported int `json:"imported"`
	}
	decode(t, rec, &imported)
	assert.Equal(t, 1, imported.Imported)

	rec = app.do(http.MethodDelete, "/api/bank/"+bq.ID, teacherToken, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}
