package quiz_test

import (
	"context"
	"sync"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/mansa/core"
	"github.com/trezcool/mansa/core/quiz"
	"github.com/trezcool/mansa/core/user"
	"github.com/trezcool/mansa/storage/database/inmem"
)

var (
	teacher = user.User{ID: "t1", Name: "Teacher", Role: user.RoleTeacher}
	other   = user.User{ID: "t2", Name: "Other", Role: user.RoleTeacher}
	admin   = user.User{ID: "a1", Name: "Admin", Role: user.RoleAdmin}
	student = user.User{ID: "s1", Name: "Student", Role: user.RoleStudent}
)

func newQuiz(published bool) quiz.NewQuiz {
	return quiz.NewQuiz{
		Title:     " Algebra basics ",
		Published: published,
		Questions: []quiz.NewQuestion{
			{Text: "2+2?", Points: 2, Options: []quiz.NewOption{{Text: "4", IsCorrect: true}, {Text: "5"}}},
			{Text: "Is 7 prime?", Type: quiz.TypeTrueFalse, Options: []quiz.NewOption{{Text: "True", IsCorrect: true}, {Text: "False"}}},
		},
	}
}

func setup(t *testing.T) *quiz.Service {
	t.Helper()
	return quiz.NewService(inmemdb.NewQuizRepository(inmemdb.Open()))
}

func correctOption(q quiz.Question) string {
	for _, o := range q.Options {
		if o.IsCorrect {
			return o.ID
		}
	}
	return ""
}

func TestService_Create(t *testing.T) {
	ctx := context.Background()
	svc := setup(t)

	qz, err := svc.Create(ctx, teacher, newQuiz(true))
	require.NoError(t, err)
	assert.Equal(t, "Algebra basics", qz.Title)
	assert.Equal(t, teacher.ID, qz.TeacherID)
	require.Len(t, qz.Questions, 2)
	assert.Equal(t, 2, qz.Questions[0].Points)
	assert.Equal(t, 1, qz.Questions[1].Points, "points default to 1")
	assert.Equal(t, quiz.TypeMCQ, qz.Questions[0].Type)
	assert.Equal(t, 3, qz.TotalPoints())

	bad := newQuiz(true)
	bad.Questions[0].Options = bad.Questions[0].Options[:1]
	_, err = svc.Create(ctx, teacher, bad)
	assert.Error(t, err, "a question needs at least 2 options")

	_, err = svc.Create(ctx, teacher, quiz.NewQuiz{Title: "   "})
	assert.Error(t, err)
}

func TestService_GetAndPermissions(t *testing.T) {
	ctx := context.Background()
	svc := setup(t)

	draft, err := svc.Create(ctx, teacher, newQuiz(false))
	require.NoError(t, err)

	_, err = svc.Get(ctx, student, draft.ID)
	assert.Equal(t, quiz.ErrNotFound, err, "students cannot see drafts")
	_, err = svc.Get(ctx, teacher, draft.ID)
	assert.NoError(t, err)

	_, err = svc.AddQuestion(ctx, other, draft.ID, quiz.NewQuestion{Text: "x", Options: []quiz.NewOption{{Text: "a"}, {Text: "b"}}})
	assert.Equal(t, quiz.ErrNotOwner, err)
	q, err := svc.AddQuestion(ctx, admin, draft.ID, quiz.NewQuestion{Text: "x", Options: []quiz.NewOption{{Text: "a"}, {Text: "b", IsCorrect: true}}})
	require.NoError(t, err)
	assert.Equal(t, draft.ID, q.QuizID)

	assert.Equal(t, quiz.ErrNotOwner, svc.Delete(ctx, other, draft.ID))
	require.NoError(t, svc.Delete(ctx, teacher, draft.ID))
	_, err = svc.Get(ctx, teacher, draft.ID)
	assert.True(t, core.IsNotFound(err))
}

func TestService_AttemptLifecycle(t *testing.T) {
	ctx := context.Background()
	svc := setup(t)

	draft, err := svc.Create(ctx, teacher, newQuiz(false))
	require.NoError(t, err)
	_, err = svc.StartAttempt(ctx, student, draft.ID)
	assert.Equal(t, quiz.ErrNotPublished, err)

	qz, err := svc.Create(ctx, teacher, newQuiz(true))
	require.NoError(t, err)

	attempt, err := svc.StartAttempt(ctx, student, qz.ID)
	require.NoError(t, err)
	resumed, err := svc.StartAttempt(ctx, student, qz.ID)
	require.NoError(t, err)
	assert.Equal(t, attempt.ID, resumed.ID, "ongoing attempts are resumed")

	_, err = svc.SubmitAttempt(ctx, other, quiz.Submission{AttemptID: attempt.ID})
	assert.Equal(t, quiz.ErrNotYourAttempt, err)

	res, err := svc.SubmitAttempt(ctx, student, quiz.Submission{
		AttemptID: attempt.ID,
		Answers: []quiz.SubmittedAnswer{
			{QuestionID: qz.Questions[0].ID, SelectedOptionID: correctOption(qz.Questions[0])},
			{QuestionID: qz.Questions[1].ID, SelectedOptionID: qz.Questions[1].Options[1].ID},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, 2, res.Score)
	assert.Equal(t, 3, res.Total)
	assert.Equal(t, 66.67, res.Percentage)
	assert.True(t, res.Passed)
	assert.Equal(t, "Algebra basics", res.QuizTitle)

	_, err = svc.SubmitAttempt(ctx, student, quiz.Submission{AttemptID: attempt.ID})
	assert.Equal(t, quiz.ErrAlreadyCompleted, err)
	_, err = svc.StartAttempt(ctx, student, qz.ID)
	assert.Equal(t, quiz.ErrAlreadyCompleted, err)

	_, err = svc.Update(ctx, teacher, qz.ID, quiz.UpdateQuiz{Published: new(bool)})
	assert.Equal(t, quiz.ErrHasAttempts, err)

	results, err := svc.QueryMyResults(ctx, student)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, res.ID, results[0].ID)

	review, err := svc.AttemptReview(ctx, teacher, attempt.ID)
	require.NoError(t, err)
	assert.Len(t, review.Answers, 2)
	require.NotNil(t, review.Result)
	assert.Equal(t, 2, review.Result.Score)
	_, err = svc.AttemptReview(ctx, other, attempt.ID)
	assert.Equal(t, quiz.ErrNotYourAttempt, err)

	quizResults, err := svc.QueryQuizResults(ctx, teacher, qz.ID)
	require.NoError(t, err)
	assert.Len(t, quizResults, 1)
	_, err = svc.QueryQuizResults(ctx, other, qz.ID)
	assert.Equal(t, quiz.ErrNotOwner, err)
}

func TestService_SubmitAttempt_concurrent(t *testing.T) {
	ctx := context.Background()
	svc := setup(t)

	qz, err := svc.Create(ctx, teacher, newQuiz(true))
	require.NoError(t, err)
	attempt, err := svc.StartAttempt(ctx, student, qz.ID)
	require.NoError(t, err)

	const n = 10
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		successes int
		failures  int
	)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.SubmitAttempt(ctx, student, quiz.Submission{AttemptID: attempt.ID})
			mu.Lock()
			defer mu.Unlock()
			if err == nil {
				successes++
			} else if errors.Cause(err) == quiz.ErrAlreadyCompleted {
				failures++
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, successes)
	assert.Equal(t, n-1, failures)
	results, err := svc.QueryMyResults(ctx, student)
	require.NoError(t, err)
	assert.Len(t, results, 1)
}

func TestService_QueryMine(t *testing.T) {
	ctx := context.Background()
	svc := setup(t)

	for i := 0; i < 3; i++ {
		_, err := svc.Create(ctx, teacher, newQuiz(true))
		require.NoError(t, err)
	}
	_, err := svc.Create(ctx, other, newQuiz(true))
	require.NoError(t, err)

	quizzes, info, err := svc.QueryMine(ctx, teacher, "", core.Page{Page: 1, Limit: 2})
	require.NoError(t, err)
	assert.Len(t, quizzes, 2)
	assert.Equal(t, core.PageInfo{Total: 3, Page: 1, Limit: 2, Pages: 2}, info)
	assert.Equal(t, 2, quizzes[0].QuestionCount)

	quizzes, _, err = svc.QueryMine(ctx, teacher, "geometry", core.Page{})
	require.NoError(t, err)
	assert.Empty(t, quizzes)
}

func TestService_BackfillPercentages(t *testing.T) {
	ctx := context.Background()
	repo := inmemdb.NewQuizRepository(inmemdb.Open())
	svc := quiz.NewService(repo)

	qz, err := svc.Create(ctx, teacher, newQuiz(true))
	require.NoError(t, err)
	attempt, err := svc.StartAttempt(ctx, student, qz.ID)
	require.NoError(t, err)
	res, err := svc.SubmitAttempt(ctx, student, quiz.Submission{
		AttemptID: attempt.ID,
		Answers:   []quiz.SubmittedAnswer{{QuestionID: qz.Questions[0].ID, SelectedOptionID: correctOption(qz.Questions[0])}},
	})
	require.NoError(t, err)

	n, err := svc.BackfillPercentages(ctx)
	require.NoError(t, err)
	assert.Zero(t, n, "up to date results are left alone")

	require.NoError(t, repo.UpdateResultPercentage(ctx, res.ID, 0))
	n, err = svc.BackfillPercentages(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	results, err := svc.QueryMyResults(ctx, student)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, 66.67, results[0].Percentage)
}
