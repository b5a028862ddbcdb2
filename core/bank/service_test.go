package bank_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/mansa/core"
	"github.com/trezcool/mansa/core/bank"
	"github.com/trezcool/mansa/core/curriculum"
	"github.com/trezcool/mansa/core/quiz"
	"github.com/trezcool/mansa/core/user"
	"github.com/trezcool/mansa/storage/database/inmem"
)

var (
	teacher = user.User{ID: "t1", Name: "Teacher", Role: user.RoleTeacher}
	other   = user.User{ID: "t2", Name: "Other", Role: user.RoleTeacher}
	admin   = user.User{ID: "a1", Name: "Admin", Role: user.RoleAdmin}
)

type fixture struct {
	bank    *bank.Service
	quizzes *quiz.Service
	subject curriculum.Subject
}

func setup(t *testing.T) fixture {
	t.Helper()
	ctx := context.Background()
	db := inmemdb.Open()

	curr := curriculum.NewService(inmemdb.NewCurriculumRepository(db), nil, nil)
	stage, err := curr.CreateStage(ctx, curriculum.NewStage{Name: "High School"})
	require.NoError(t, err)
	grade, err := curr.CreateGrade(ctx, curriculum.NewGrade{Name: "Grade 10", StageID: stage.ID})
	require.NoError(t, err)
	subject, err := curr.CreateSubject(ctx, curriculum.NewSubject{Name: "Physics", GradeID: grade.ID})
	require.NoError(t, err)

	quizzes := quiz.NewService(inmemdb.NewQuizRepository(db))
	return fixture{
		bank:    bank.NewService(inmemdb.NewBankRepository(db), quizzes),
		quizzes: quizzes,
		subject: subject,
	}
}

func newQuestion(subjectID, text, difficulty string) bank.NewQuestion {
	return bank.NewQuestion{
		Text:       text,
		Difficulty: difficulty,
		SubjectID:  subjectID,
		Options:    []bank.NewOption{{Text: "Yes", IsCorrect: true}, {Text: "No"}},
	}
}

func TestService_Create(t *testing.T) {
	ctx := context.Background()
	f := setup(t)

	q, err := f.bank.Create(ctx, teacher, newQuestion(f.subject.ID, " What is inertia? ", bank.DifficultyEasy))
	require.NoError(t, err)
	assert.Equal(t, "What is inertia?", q.Text)
	assert.Equal(t, "Physics", q.SubjectName)
	assert.Len(t, q.Options, 2)

	tests := []struct {
		name string
		nq   bank.NewQuestion
	}{
		{"short text", newQuestion(f.subject.ID, "Why", bank.DifficultyEasy)},
		{"bad difficulty", newQuestion(f.subject.ID, "What is mass?", "TRIVIAL")},
		{"bad subject", newQuestion("nope", "What is mass?", bank.DifficultyHard)},
		{"one option", func() bank.NewQuestion {
			nq := newQuestion(f.subject.ID, "What is mass?", bank.DifficultyHard)
			nq.Options = nq.Options[:1]
			return nq
		}()},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := f.bank.Create(ctx, teacher, tc.nq)
			assert.True(t, core.IsInvalidInput(err), err)
		})
	}

	_, err = f.bank.Create(ctx, teacher, newQuestion("0b5c6c47-3b0b-4e3c-9a37-2d3c8b8f0b11", "What is mass?", bank.DifficultyHard))
	assert.Equal(t, bank.ErrSubjectNotFound, err)
}

func TestService_QueryAndDelete(t *testing.T) {
	ctx := context.Background()
	f := setup(t)

	easy, err := f.bank.Create(ctx, teacher, newQuestion(f.subject.ID, "What is inertia?", bank.DifficultyEasy))
	require.NoError(t, err)
	_, err = f.bank.Create(ctx, teacher, newQuestion(f.subject.ID, "Define momentum", bank.DifficultyHard))
	require.NoError(t, err)

	questions, info, err := f.bank.Query(ctx, bank.QueryFilter{Difficulty: bank.DifficultyHard}, core.Page{})
	require.NoError(t, err)
	require.Len(t, questions, 1)
	assert.Equal(t, "Define momentum", questions[0].Text)
	assert.Equal(t, core.PageInfo{Total: 1, Page: 1, Limit: core.DefaultPageLimit, Pages: 1}, info)

	questions, _, err = f.bank.Query(ctx, bank.QueryFilter{Search: "INERTIA"}, core.Page{})
	require.NoError(t, err)
	assert.Len(t, questions, 1)

	assert.Equal(t, bank.ErrNotOwner, f.bank.Delete(ctx, other, easy.ID))
	require.NoError(t, f.bank.Delete(ctx, admin, easy.ID))
	assert.Equal(t, bank.ErrNotFound, f.bank.Delete(ctx, teacher, easy.ID))

	_, info, err = f.bank.Query(ctx, bank.QueryFilter{}, core.Page{})
	require.NoError(t, err)
	assert.Equal(t, 1, info.Total)
}

func TestService_Import(t *testing.T) {
	ctx := context.Background()
	f := setup(t)

	q1, err := f.bank.Create(ctx, teacher, newQuestion(f.subject.ID, "What is inertia?", bank.DifficultyEasy))
	require.NoError(t, err)
	q2, err := f.bank.Create(ctx, teacher, newQuestion(f.subject.ID, "Define momentum", bank.DifficultyMedium))
	require.NoError(t, err)
	qz, err := f.quizzes.Create(ctx, teacher, quiz.NewQuiz{Title: "Mechanics"})
	require.NoError(t, err)

	_, err = f.bank.Import(ctx, other, bank.Import{QuizID: qz.ID, QuestionIDs: []string{q1.ID}})
	assert.Equal(t, quiz.ErrNotOwner, err)

	n, err := f.bank.Import(ctx, teacher, bank.Import{QuizID: qz.ID, QuestionIDs: []string{q1.ID, q2.ID, "unknown"}})
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	qz, err = f.quizzes.Get(ctx, teacher, qz.ID)
	require.NoError(t, err)
	require.Len(t, qz.Questions, 2)
	for _, q := range qz.Questions {
		assert.Equal(t, quiz.TypeMCQ, q.Type)
		assert.Equal(t, 1, q.Points)
		assert.Len(t, q.Options, 2)
	}

	_, err = f.bank.Import(ctx, teacher, bank.Import{QuizID: qz.ID})
	assert.True(t, core.IsInvalidInput(err))
}
