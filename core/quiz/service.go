package quiz

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/mansa/core"
	"github.com/trezcool/mansa/core/user"
)

var (
	// errors
	ErrNotFound         = core.NewNotFoundError("quiz")
	ErrAttemptNotFound  = core.NewNotFoundError("attempt")
	ErrResultNotFound   = core.NewNotFoundError("result")
	ErrAttemptExists    = errors.New("attempt already exists")
	ErrNotPublished     = core.NewValidationError(errors.New("quiz is not published"))
	ErrAlreadyCompleted = core.NewValidationError(errors.New("quiz already completed"))
	ErrHasAttempts      = core.NewValidationError(errors.New("cannot unpublish a quiz that has attempts"))
	ErrNotOwner         = core.NewPermissionError("only the quiz owner can do this")
	ErrNotYourAttempt   = core.NewPermissionError("this attempt belongs to another user")

	nowFunc = time.Now // mockable
)

type (
	Repository interface {
		// CreateQuiz creates the quiz along with its questions and their options.
		CreateQuiz(ctx context.Context, qz Quiz) (Quiz, error)
		CreateQuestions(ctx context.Context, quizID string, questions []Question) ([]Question, error)
		// GetQuiz returns a non-deleted quiz with its questions and options.
		GetQuiz(ctx context.Context, id string) (Quiz, error)
		QueryQuizzes(ctx context.Context, filter QueryFilter, page core.Page) ([]Quiz, int, error)
		UpdateQuiz(ctx context.Context, qz Quiz) (Quiz, error)
		DeleteQuiz(ctx context.Context, id string) error
		CountAttempts(ctx context.Context, quizID string) (int, error)

		GetAttempt(ctx context.Context, id string) (Attempt, error)
		GetUserAttempt(ctx context.Context, userID, quizID string) (Attempt, error)
		// CreateAttempt returns ErrAttemptExists when the user already has an attempt at the quiz.
		CreateAttempt(ctx context.Context, attempt Attempt) (Attempt, error)
		// CompleteAttempt atomically stores the answers and the result, and marks the attempt completed.
		// It returns ErrAlreadyCompleted when the attempt was completed in the meantime.
		CompleteAttempt(ctx context.Context, attempt Attempt, answers []Answer, res Result) (Result, error)
		GetAnswers(ctx context.Context, attemptID string) ([]Answer, error)
		GetResult(ctx context.Context, attemptID string) (Result, error)
		QueryUserResults(ctx context.Context, userID string) ([]Result, error)
		QueryQuizResults(ctx context.Context, quizID string) ([]AttemptResult, error)
		QueryAllResults(ctx context.Context) ([]Result, error)
		UpdateResultPercentage(ctx context.Context, id string, percentage float64) error
	}

	Service struct {
		repo Repository
	}
)

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func canManage(actor user.User, qz Quiz) bool {
	return actor.IsAdmin() || qz.TeacherID == actor.ID
}

func newQuestions(nqs []NewQuestion, now time.Time, offset int) []Question {
	questions := make([]Question, 0, len(nqs))
	for i, nq := range nqs {
		q := Question{
			Text:      nq.Text,
			Type:      nq.Type,
			Points:    nq.Points,
			Position:  offset + i,
			CreatedAt: now,
			Options:   make([]Option, 0, len(nq.Options)),
		}
		for j, no := range nq.Options {
			q.Options = append(q.Options, Option{Text: no.Text, IsCorrect: no.IsCorrect, Position: j})
		}
		questions = append(questions, q)
	}
	return questions
}

func (svc *Service) Create(ctx context.Context, teacher user.User, nq NewQuiz) (Quiz, error) {
	if err := nq.Validate(); err != nil {
		return Quiz{}, err
	}
	now := nowFunc().UTC()
	qz := Quiz{
		Title:       nq.Title,
		Description: nq.Description,
		TeacherID:   teacher.ID,
		LessonID:    nq.LessonID,
		Published:   nq.Published,
		CreatedAt:   now,
		UpdatedAt:   now,
		Questions:   newQuestions(nq.Questions, now, 0),
	}
	qz, err := svc.repo.CreateQuiz(ctx, qz)
	return qz, errors.Wrap(err, "creating quiz")
}

// Get returns the quiz. Students can only see published quizzes.
func (svc *Service) Get(ctx context.Context, viewer user.User, id string) (Quiz, error) {
	qz, err := svc.repo.GetQuiz(ctx, id)
	if err != nil {
		return Quiz{}, err
	}
	if !qz.Published && viewer.IsStudent() {
		return Quiz{}, ErrNotFound
	}
	return qz, nil
}

func (svc *Service) getManaged(ctx context.Context, actor user.User, id string) (Quiz, error) {
	qz, err := svc.repo.GetQuiz(ctx, id)
	if err != nil {
		return Quiz{}, err
	}
	if !canManage(actor, qz) {
		return Quiz{}, ErrNotOwner
	}
	return qz, nil
}

func (svc *Service) AddQuestion(ctx context.Context, actor user.User, quizID string, nq NewQuestion) (Question, error) {
	if err := nq.Validate(); err != nil {
		return Question{}, err
	}
	qs, err := svc.addQuestions(ctx, actor, quizID, []NewQuestion{nq})
	if err != nil {
		return Question{}, err
	}
	return qs[0], nil
}

// ImportQuestions appends already validated questions to the quiz.
func (svc *Service) ImportQuestions(ctx context.Context, actor user.User, quizID string, nqs []NewQuestion) (int, error) {
	qs, err := svc.addQuestions(ctx, actor, quizID, nqs)
	return len(qs), err
}

func (svc *Service) addQuestions(ctx context.Context, actor user.User, quizID string, nqs []NewQuestion) ([]Question, error) {
	qz, err := svc.getManaged(ctx, actor, quizID)
	if err != nil {
		return nil, err
	}
	if len(nqs) == 0 {
		return []Question{}, nil
	}
	qs, err := svc.repo.CreateQuestions(ctx, qz.ID, newQuestions(nqs, nowFunc().UTC(), len(qz.Questions)))
	return qs, errors.Wrap(err, "creating questions")
}

func (svc *Service) Update(ctx context.Context, actor user.User, id string, uq UpdateQuiz) (Quiz, error) {
	if err := uq.Validate(); err != nil {
		return Quiz{}, err
	}
	qz, err := svc.getManaged(ctx, actor, id)
	if err != nil {
		return Quiz{}, err
	}

	if uq.Published != nil && !*uq.Published && qz.Published {
		n, err := svc.repo.CountAttempts(ctx, qz.ID)
		if err != nil {
			return Quiz{}, errors.Wrap(err, "counting attempts")
		}
		if n > 0 {
			return Quiz{}, ErrHasAttempts
		}
	}
	if uq.Title != nil {
		qz.Title = *uq.Title
	}
	if uq.Description != nil {
		qz.Description = *uq.Description
	}
	if uq.Published != nil {
		qz.Published = *uq.Published
	}
	qz.UpdatedAt = nowFunc().UTC()
	qz, err = svc.repo.UpdateQuiz(ctx, qz)
	return qz, errors.Wrap(err, "updating quiz")
}

// Delete soft-deletes the quiz.
func (svc *Service) Delete(ctx context.Context, actor user.User, id string) error {
	qz, err := svc.getManaged(ctx, actor, id)
	if err != nil {
		return err
	}
	return errors.Wrap(svc.repo.DeleteQuiz(ctx, qz.ID), "deleting quiz")
}

func (svc *Service) QueryMine(ctx context.Context, teacher user.User, search string, page core.Page) ([]Quiz, core.PageInfo, error) {
	page.Clean()
	filter := QueryFilter{TeacherID: teacher.ID, Search: core.CleanString(search)}
	quizzes, total, err := svc.repo.QueryQuizzes(ctx, filter, page)
	if err != nil {
		return nil, core.PageInfo{}, errors.Wrap(err, "querying quizzes")
	}
	if quizzes == nil {
		quizzes = []Quiz{}
	}
	return quizzes, core.NewPageInfo(page, total), nil
}

// StartAttempt starts the user's single attempt at a published quiz, or resumes the ongoing one.
func (svc *Service) StartAttempt(ctx context.Context, usr user.User, quizID string) (Attempt, error) {
	qz, err := svc.repo.GetQuiz(ctx, quizID)
	if err != nil {
		return Attempt{}, err
	}
	if !qz.Published {
		return Attempt{}, ErrNotPublished
	}

	resume := func() (Attempt, error) {
		attempt, err := svc.repo.GetUserAttempt(ctx, usr.ID, qz.ID)
		if err != nil {
			return Attempt{}, err
		}
		if attempt.IsCompleted() {
			return Attempt{}, ErrAlreadyCompleted
		}
		return attempt, nil
	}

	attempt, err := resume()
	if err == nil || errors.Cause(err) != ErrAttemptNotFound {
		return attempt, err
	}

	attempt, err = svc.repo.CreateAttempt(ctx, Attempt{UserID: usr.ID, QuizID: qz.ID, StartedAt: nowFunc().UTC()})
	if errors.Cause(err) == ErrAttemptExists { // lost a race against a concurrent start
		return resume()
	}
	return attempt, errors.Wrap(err, "creating attempt")
}

// SubmitAttempt grades the answers and completes the attempt. An attempt can only be submitted once.
func (svc *Service) SubmitAttempt(ctx context.Context, usr user.User, sub Submission) (Result, error) {
	if err := sub.Validate(); err != nil {
		return Result{}, err
	}
	attempt, err := svc.repo.GetAttempt(ctx, sub.AttemptID)
	if err != nil {
		return Result{}, err
	}
	if attempt.UserID != usr.ID {
		return Result{}, ErrNotYourAttempt
	}
	if attempt.IsCompleted() {
		return Result{}, ErrAlreadyCompleted
	}

	qz, err := svc.repo.GetQuiz(ctx, attempt.QuizID)
	if err != nil {
		return Result{}, err
	}

	grade := GradeAttempt(qz.Questions, sub.Answers)
	now := nowFunc().UTC()
	for i := range grade.Answers {
		grade.Answers[i].AttemptID = attempt.ID
	}
	res := Result{
		AttemptID:  attempt.ID,
		UserID:     usr.ID,
		QuizID:     qz.ID,
		Score:      grade.Score,
		Total:      grade.Total,
		Percentage: grade.Percentage,
		Passed:     grade.Passed,
		CreatedAt:  now,
	}
	attempt.CompletedAt = &now

	res, err = svc.repo.CompleteAttempt(ctx, attempt, grade.Answers, res)
	if err != nil {
		if errors.Cause(err) == ErrAlreadyCompleted {
			return Result{}, ErrAlreadyCompleted
		}
		return Result{}, errors.Wrap(err, "completing attempt")
	}
	res.QuizTitle = qz.Title
	return res, nil
}

func (svc *Service) QueryMyResults(ctx context.Context, usr user.User) ([]Result, error) {
	results, err := svc.repo.QueryUserResults(ctx, usr.ID)
	if err != nil {
		return nil, errors.Wrap(err, "querying results")
	}
	if results == nil {
		results = []Result{}
	}
	return results, nil
}

// BackfillPercentages recomputes the percentage of every Result whose stored value is stale.
func (svc *Service) BackfillPercentages(ctx context.Context) (int, error) {
	results, err := svc.repo.QueryAllResults(ctx)
	if err != nil {
		return 0, errors.Wrap(err, "querying results")
	}

	var n int
	for _, res := range results {
		pct := Percentage(res.Score, res.Total)
		if pct == res.Percentage {
			continue
		}
		if err = svc.repo.UpdateResultPercentage(ctx, res.ID, pct); err != nil {
			return n, errors.Wrapf(err, "updating result %s", res.ID)
		}
		n++
	}
	return n, nil
}

// AttemptReview returns the attempt with the full quiz (correct options included) and the given answers.
// It is visible to the attempt owner, the quiz owner and admins.
func (svc *Service) AttemptReview(ctx context.Context, viewer user.User, attemptID string) (AttemptReview, error) {
	attempt, err := svc.repo.GetAttempt(ctx, attemptID)
	if err != nil {
		return AttemptReview{}, err
	}
	qz, err := svc.repo.GetQuiz(ctx, attempt.QuizID)
	if err != nil {
		return AttemptReview{}, err
	}
	if attempt.UserID != viewer.ID && !canManage(viewer, qz) {
		return AttemptReview{}, ErrNotYourAttempt
	}

	answers, err := svc.repo.GetAnswers(ctx, attempt.ID)
	if err != nil {
		return AttemptReview{}, errors.Wrap(err, "getting answers")
	}
	if answers == nil {
		answers = []Answer{}
	}
	review := AttemptReview{Attempt: attempt, Quiz: qz, Answers: answers}

	res, err := svc.repo.GetResult(ctx, attempt.ID)
	switch {
	case err == nil:
		res.QuizTitle = qz.Title
		review.Result = &res
	case errors.Cause(err) != ErrResultNotFound:
		return AttemptReview{}, errors.Wrap(err, "getting result")
	}
	return review, nil
}

// QueryQuizResults returns the completed attempts of a quiz, newest first.
func (svc *Service) QueryQuizResults(ctx context.Context, actor user.User, quizID string) ([]AttemptResult, error) {
	qz, err := svc.getManaged(ctx, actor, quizID)
	if err != nil {
		return nil, err
	}
	results, err := svc.repo.QueryQuizResults(ctx, qz.ID)
	if err != nil {
		return nil, errors.Wrap(err, "querying quiz results")
	}
	if results == nil {
		results = []AttemptResult{}
	}
	return results, nil
}
