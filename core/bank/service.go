package bank

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/mansa/core"
	"github.com/trezcool/mansa/core/quiz"
	"github.com/trezcool/mansa/core/user"
)

var (
	// errors
	ErrNotFound        = core.NewNotFoundError("bank question")
	ErrSubjectNotFound = core.NewNotFoundError("subject")
	ErrNotOwner        = core.NewPermissionError("only the question owner can do this")

	nowFunc = time.Now // mockable
)

type (
	Repository interface {
		// CreateQuestion returns ErrSubjectNotFound when the subject or the unit does not exist.
		CreateQuestion(ctx context.Context, q Question) (Question, error)
		GetQuestion(ctx context.Context, id string) (Question, error)
		// GetQuestions returns the non-deleted questions among the given IDs, with their options.
		GetQuestions(ctx context.Context, ids []string) ([]Question, error)
		QueryQuestions(ctx context.Context, filter QueryFilter, page core.Page) ([]Question, int, error)
		DeleteQuestion(ctx context.Context, id string) error
	}

	// QuizImporter appends questions to a quiz the actor manages.
	QuizImporter interface {
		ImportQuestions(ctx context.Context, actor user.User, quizID string, nqs []quiz.NewQuestion) (int, error)
	}

	Service struct {
		repo    Repository
		quizzes QuizImporter
	}
)

func NewService(repo Repository, quizzes QuizImporter) *Service {
	return &Service{repo: repo, quizzes: quizzes}
}

func (svc *Service) Query(ctx context.Context, filter QueryFilter, page core.Page) ([]Question, core.PageInfo, error) {
	filter.Clean()
	page.Clean()
	questions, total, err := svc.repo.QueryQuestions(ctx, filter, page)
	if err != nil {
		return nil, core.PageInfo{}, errors.Wrap(err, "querying bank questions")
	}
	if questions == nil {
		questions = []Question{}
	}
	return questions, core.NewPageInfo(page, total), nil
}

func (svc *Service) Create(ctx context.Context, teacher user.User, nq NewQuestion) (Question, error) {
	if err := nq.Validate(); err != nil {
		return Question{}, err
	}
	q := Question{
		Text:       nq.Text,
		Difficulty: nq.Difficulty,
		SubjectID:  nq.SubjectID,
		UnitID:     nq.UnitID,
		TeacherID:  teacher.ID,
		CreatedAt:  nowFunc().UTC(),
		Options:    make([]Option, 0, len(nq.Options)),
	}
	for _, no := range nq.Options {
		q.Options = append(q.Options, Option{Text: no.Text, IsCorrect: no.IsCorrect})
	}
	q, err := svc.repo.CreateQuestion(ctx, q)
	if err != nil {
		if errors.Cause(err) == ErrSubjectNotFound {
			return Question{}, ErrSubjectNotFound
		}
		return Question{}, errors.Wrap(err, "creating bank question")
	}
	return q, nil
}

// Delete soft-deletes the question. Teachers can only delete their own questions.
func (svc *Service) Delete(ctx context.Context, actor user.User, id string) error {
	q, err := svc.repo.GetQuestion(ctx, id)
	if err != nil {
		return err
	}
	if !actor.IsAdmin() && q.TeacherID != actor.ID {
		return ErrNotOwner
	}
	return errors.Wrap(svc.repo.DeleteQuestion(ctx, q.ID), "deleting bank question")
}

// Import copies bank questions into a quiz as multiple-choice questions worth 1 point each.
// Unknown or deleted questions are skipped; it returns the number of imported questions.
func (svc *Service) Import(ctx context.Context, actor user.User, im Import) (int, error) {
	if err := im.Validate(); err != nil {
		return 0, err
	}
	questions, err := svc.repo.GetQuestions(ctx, im.QuestionIDs)
	if err != nil {
		return 0, errors.Wrap(err, "getting bank questions")
	}

	nqs := make([]quiz.NewQuestion, 0, len(questions))
	for _, q := range questions {
		nq := quiz.NewQuestion{Text: q.Text, Type: quiz.TypeMCQ, Points: 1}
		for _, o := range q.Options {
			nq.Options = append(nq.Options, quiz.NewOption{Text: o.Text, IsCorrect: o.IsCorrect})
		}
		nqs = append(nqs, nq)
	}
	return svc.quizzes.ImportQuestions(ctx, actor, im.QuizID, nqs)
}
