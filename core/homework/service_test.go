package homework_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/mansa/core"
	"github.com/trezcool/mansa/core/curriculum"
	"github.com/trezcool/mansa/core/homework"
	"github.com/trezcool/mansa/core/user"
	"github.com/trezcool/mansa/storage/database/inmem"
)

var (
	teacher = user.User{ID: "t1", Name: "Teacher", Role: user.RoleTeacher}
	other   = user.User{ID: "t2", Name: "Other", Role: user.RoleTeacher}
	admin   = user.User{ID: "a1", Name: "Admin", Role: user.RoleAdmin}
	student = user.User{ID: "s1", Name: "Student", Role: user.RoleStudent}
)

func setup(t *testing.T) (*homework.Service, curriculum.Subject) {
	t.Helper()
	ctx := context.Background()
	db := inmemdb.Open()

	curr := curriculum.NewService(inmemdb.NewCurriculumRepository(db), nil, nil)
	stage, err := curr.CreateStage(ctx, curriculum.NewStage{Name: "High School"})
	require.NoError(t, err)
	grade, err := curr.CreateGrade(ctx, curriculum.NewGrade{Name: "Grade 11", StageID: stage.ID})
	require.NoError(t, err)
	subject, err := curr.CreateSubject(ctx, curriculum.NewSubject{Name: "Chemistry", GradeID: grade.ID})
	require.NoError(t, err)

	return homework.NewService(inmemdb.NewHomeworkRepository(db)), subject
}

func newAssignment(subjectID, title string, due time.Time) homework.NewAssignment {
	return homework.NewAssignment{Title: title, DueDate: due, SubjectID: subjectID, Published: true}
}

func TestService_Assignments(t *testing.T) {
	ctx := context.Background()
	svc, subject := setup(t)
	now := time.Now()

	later, err := svc.Create(ctx, teacher, newAssignment(subject.ID, "Alkanes", now.Add(48*time.Hour)))
	require.NoError(t, err)
	assert.Equal(t, "Chemistry", later.SubjectName)
	sooner, err := svc.Create(ctx, teacher, newAssignment(subject.ID, "Alkenes", now.Add(24*time.Hour)))
	require.NoError(t, err)
	_, err = svc.Create(ctx, other, newAssignment(subject.ID, "Alkynes", now))
	require.NoError(t, err)

	_, err = svc.Create(ctx, teacher, newAssignment(subject.ID, "Al", now))
	assert.True(t, core.IsInvalidInput(err), "title is too short")
	_, err = svc.Create(ctx, teacher, homework.NewAssignment{Title: "No due date", SubjectID: subject.ID})
	assert.True(t, core.IsInvalidInput(err))

	mine, err := svc.Query(ctx, teacher, "")
	require.NoError(t, err)
	require.Len(t, mine, 2, "teachers only see their own assignments")
	assert.Equal(t, sooner.ID, mine[0].ID, "nearest due date first")
	assert.Equal(t, later.ID, mine[1].ID)

	all, err := svc.Query(ctx, student, subject.ID)
	require.NoError(t, err)
	assert.Len(t, all, 3)
	none, err := svc.Query(ctx, student, "other-subject")
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestService_SubmitAndGrade(t *testing.T) {
	ctx := context.Background()
	svc, subject := setup(t)

	a, err := svc.Create(ctx, teacher, newAssignment(subject.ID, "Alkanes", time.Now().Add(time.Hour)))
	require.NoError(t, err)

	_, err = svc.Submit(ctx, student, a.ID, homework.NewSubmission{FileURL: "not a url"})
	assert.True(t, core.IsInvalidInput(err))
	_, err = svc.Submit(ctx, student, "unknown", homework.NewSubmission{FileURL: "/uploads/work.pdf"})
	assert.Equal(t, homework.ErrNotFound, err)

	sub, err := svc.Submit(ctx, student, a.ID, homework.NewSubmission{FileURL: "/uploads/work.pdf"})
	require.NoError(t, err)
	assert.Equal(t, homework.StatusSubmitted, sub.Status)
	_, err = svc.Submit(ctx, student, a.ID, homework.NewSubmission{FileURL: "https://files.example.com/work.pdf"})
	assert.Equal(t, homework.ErrAlreadySubmitted, err)

	assignments, err := svc.Query(ctx, teacher, "")
	require.NoError(t, err)
	assert.Equal(t, 1, assignments[0].SubmissionCount)

	_, err = svc.Submissions(ctx, other, a.ID)
	assert.Equal(t, homework.ErrNotOwner, err)
	subs, err := svc.Submissions(ctx, admin, a.ID)
	require.NoError(t, err)
	require.Len(t, subs, 1)

	negative := -1.0
	_, err = svc.Grade(ctx, teacher, sub.ID, homework.Grade{Score: &negative})
	assert.True(t, core.IsInvalidInput(err))
	_, err = svc.Grade(ctx, teacher, sub.ID, homework.Grade{})
	assert.True(t, core.IsInvalidInput(err), "score is required")

	score, feedback := 17.5, " Well done "
	_, err = svc.Grade(ctx, other, sub.ID, homework.Grade{Score: &score})
	assert.Equal(t, homework.ErrNotOwner, err)
	graded, err := svc.Grade(ctx, teacher, sub.ID, homework.Grade{Score: &score, Feedback: &feedback})
	require.NoError(t, err)
	assert.Equal(t, homework.StatusGraded, graded.Status)
	assert.Equal(t, 17.5, *graded.Score)
	assert.Equal(t, "Well done", *graded.Feedback)
	assert.NotNil(t, graded.GradedAt)

	mine, err := svc.MySubmissions(ctx, student)
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, "Alkanes", mine[0].AssignmentTitle)
	assert.Equal(t, "Chemistry", mine[0].SubjectName)
	assert.Equal(t, homework.StatusGraded, mine[0].Status)
}
