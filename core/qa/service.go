package qa

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/mansa/core"
	"github.com/trezcool/mansa/core/notification"
	"github.com/trezcool/mansa/core/user"
)

var (
	// errors
	ErrNotFound          = core.NewNotFoundError("question")
	ErrAnswerNotFound    = core.NewNotFoundError("answer")
	ErrVoteNotFound      = core.NewNotFoundError("vote")
	ErrLessonNotFound    = core.NewNotFoundError("lesson")
	ErrNotAuthor         = core.NewPermissionError("you can only modify your own content")
	ErrCannotMarkBest    = core.NewPermissionError("only the lesson teacher can mark the best answer")
	ErrAnswerNotInThread = core.NewValidationError(errors.New("answer does not belong to this question"))
	ErrUnknownKind       = core.NewValidationError(errors.New("type must be question or answer"))

	nowFunc = time.Now // mockable
)

type (
	Repository interface {
		// QueryQuestions returns non-deleted questions with their tallies and answer count.
		QueryQuestions(ctx context.Context, filter QueryFilter, page core.Page) ([]Question, int, error)
		// GetQuestion returns a non-deleted question with its tallies and answer count.
		GetQuestion(ctx context.Context, id string) (Question, error)
		// CreateQuestion returns ErrLessonNotFound when the lesson or the subject does not exist.
		CreateQuestion(ctx context.Context, q Question) (Question, error)
		UpdateQuestion(ctx context.Context, q Question) error
		DeleteQuestion(ctx context.Context, id string) error
		SetBestAnswer(ctx context.Context, questionID string, answerID *string) error

		// QueryAnswers returns the non-deleted answers of a question with their tallies, oldest first.
		QueryAnswers(ctx context.Context, questionID string) ([]Answer, error)
		GetAnswer(ctx context.Context, id string) (Answer, error)
		CreateAnswer(ctx context.Context, a Answer) (Answer, error)
		UpdateAnswer(ctx context.Context, a Answer) error
		DeleteAnswer(ctx context.Context, id string) error

		// GetVote returns ErrVoteNotFound when the user has not voted on the entity.
		GetVote(ctx context.Context, kind, entityID, userID string) (Vote, error)
		// QueryUserVotes returns the user's votes on the answers of a question.
		QueryUserVotes(ctx context.Context, questionID, userID string) ([]Vote, error)
		// SaveVote creates the vote or overrides the direction of the existing one.
		SaveVote(ctx context.Context, kind string, v Vote) error
		DeleteVote(ctx context.Context, kind, entityID, userID string) error

		QueryModerationFeed(ctx context.Context, search string, page core.Page) ([]ModerationItem, int, error)
	}

	// BannedWordSource provides the words forbidden in user content.
	BannedWordSource interface {
		BannedWords(ctx context.Context) ([]string, error)
	}

	Service struct {
		repo     Repository
		banned   BannedWordSource
		notifier notification.Notifier
	}
)

func NewService(repo Repository, banned BannedWordSource, notifier notification.Notifier) *Service {
	return &Service{repo: repo, banned: banned, notifier: notifier}
}

func (svc *Service) checkContent(ctx context.Context, text string) error {
	if svc.banned == nil {
		return nil
	}
	words, err := svc.banned.BannedWords(ctx)
	if err != nil {
		return errors.Wrap(err, "getting banned words")
	}
	return CheckContent(text, words)
}

func (svc *Service) notify(ctx context.Context, n notification.NewNotification, userID string) {
	if svc.notifier != nil {
		svc.notifier.Notify(ctx, n, userID)
	}
}

func (svc *Service) Query(ctx context.Context, filter QueryFilter, page core.Page) ([]Question, core.PageInfo, error) {
	filter.Clean()
	page.Clean()
	questions, total, err := svc.repo.QueryQuestions(ctx, filter, page)
	if err != nil {
		return nil, core.PageInfo{}, errors.Wrap(err, "querying questions")
	}
	if questions == nil {
		questions = []Question{}
	}
	return questions, core.NewPageInfo(page, total), nil
}

// Get returns the question with its answers, best answer first then oldest first.
// Votes of the viewer are attached to the question and every answer.
func (svc *Service) Get(ctx context.Context, viewer user.User, id string) (Question, error) {
	q, err := svc.repo.GetQuestion(ctx, id)
	if err != nil {
		return Question{}, err
	}

	v, err := svc.repo.GetVote(ctx, KindQuestion, q.ID, viewer.ID)
	switch {
	case err == nil:
		q.UserVote = &v
	case errors.Cause(err) != ErrVoteNotFound:
		return Question{}, errors.Wrap(err, "getting vote")
	}

	answers, err := svc.repo.QueryAnswers(ctx, q.ID)
	if err != nil {
		return Question{}, errors.Wrap(err, "querying answers")
	}
	votes, err := svc.repo.QueryUserVotes(ctx, q.ID, viewer.ID)
	if err != nil {
		return Question{}, errors.Wrap(err, "querying votes")
	}
	byAnswer := make(map[string]Vote, len(votes))
	for _, v := range votes {
		byAnswer[v.EntityID] = v
	}

	for i := range answers {
		a := &answers[i]
		a.IsBestAnswer = q.BestAnswerID != nil && *q.BestAnswerID == a.ID
		if v, ok := byAnswer[a.ID]; ok {
			a.UserVote = &v
		}
	}
	sort.SliceStable(answers, func(i, j int) bool {
		if answers[i].IsBestAnswer != answers[j].IsBestAnswer {
			return answers[i].IsBestAnswer
		}
		return answers[i].CreatedAt.Before(answers[j].CreatedAt)
	})
	if answers == nil {
		answers = []Answer{}
	}
	q.Answers = answers
	return q, nil
}

// CreateQuestion asks a question. The teacher of the lesson is notified.
func (svc *Service) CreateQuestion(ctx context.Context, author user.User, nq NewQuestion) (Question, error) {
	if err := nq.Validate(); err != nil {
		return Question{}, err
	}
	if err := svc.checkContent(ctx, nq.Title+" "+nq.Content); err != nil {
		return Question{}, err
	}

	now := nowFunc().UTC()
	q, err := svc.repo.CreateQuestion(ctx, Question{
		Title:     nq.Title,
		Content:   nq.Content,
		LessonID:  nq.LessonID,
		SubjectID: nq.SubjectID,
		AuthorID:  author.ID,
		CreatedAt: now,
		UpdatedAt: now,
	})
	if err != nil {
		if errors.Cause(err) == ErrLessonNotFound {
			return Question{}, ErrLessonNotFound
		}
		return Question{}, errors.Wrap(err, "creating question")
	}
	if q, err = svc.repo.GetQuestion(ctx, q.ID); err != nil {
		return Question{}, errors.Wrap(err, "getting question")
	}

	if q.LessonTeacherID != nil && *q.LessonTeacherID != author.ID {
		svc.notify(ctx, notification.NewNotification{
			Title:   "New Question",
			Message: fmt.Sprintf("%s asked a question in %s", author.Name, core.StringValue(q.LessonTitle)),
			Type:    notification.TypeQA,
			Link:    "/student/qa",
		}, *q.LessonTeacherID)
	}
	return q, nil
}

func (svc *Service) getAuthoredQuestion(ctx context.Context, actor user.User, id string) (Question, error) {
	q, err := svc.repo.GetQuestion(ctx, id)
	if err != nil {
		return Question{}, err
	}
	if q.AuthorID != actor.ID {
		return Question{}, ErrNotAuthor
	}
	return q, nil
}

func (svc *Service) UpdateQuestion(ctx context.Context, actor user.User, id string, uq UpdateQuestion) (Question, error) {
	if err := uq.Validate(); err != nil {
		return Question{}, err
	}
	q, err := svc.getAuthoredQuestion(ctx, actor, id)
	if err != nil {
		return Question{}, err
	}
	if uq.Title != nil {
		q.Title = *uq.Title
	}
	if uq.Content != nil {
		q.Content = *uq.Content
	}
	if err = svc.checkContent(ctx, q.Title+" "+q.Content); err != nil {
		return Question{}, err
	}
	q.UpdatedAt = nowFunc().UTC()
	if err = svc.repo.UpdateQuestion(ctx, q); err != nil {
		return Question{}, errors.Wrap(err, "updating question")
	}
	return q, nil
}

// DeleteQuestion soft-deletes one of the actor's questions.
func (svc *Service) DeleteQuestion(ctx context.Context, actor user.User, id string) error {
	q, err := svc.getAuthoredQuestion(ctx, actor, id)
	if err != nil {
		return err
	}
	return errors.Wrap(svc.repo.DeleteQuestion(ctx, q.ID), "deleting question")
}

// CreateAnswer replies to a question. The question author is notified.
func (svc *Service) CreateAnswer(ctx context.Context, author user.User, questionID string, ai AnswerInput) (Answer, error) {
	if err := ai.Validate(); err != nil {
		return Answer{}, err
	}
	if err := svc.checkContent(ctx, ai.Content); err != nil {
		return Answer{}, err
	}
	q, err := svc.repo.GetQuestion(ctx, questionID)
	if err != nil {
		return Answer{}, err
	}

	now := nowFunc().UTC()
	a, err := svc.repo.CreateAnswer(ctx, Answer{
		QuestionID: q.ID,
		Content:    ai.Content,
		AuthorID:   author.ID,
		CreatedAt:  now,
		UpdatedAt:  now,
	})
	if err != nil {
		return Answer{}, errors.Wrap(err, "creating answer")
	}
	a.AuthorName = author.Name
	a.AuthorRole = author.Role

	if q.AuthorID != author.ID {
		svc.notify(ctx, notification.NewNotification{
			Title:   "New Answer",
			Message: fmt.Sprintf("%s replied to your question: %s", author.Name, q.Title),
			Type:    notification.TypeQA,
			Link:    "/student/qa",
		}, q.AuthorID)
	}
	return a, nil
}

func (svc *Service) getAuthoredAnswer(ctx context.Context, actor user.User, id string) (Answer, error) {
	a, err := svc.repo.GetAnswer(ctx, id)
	if err != nil {
		return Answer{}, err
	}
	if a.AuthorID != actor.ID {
		return Answer{}, ErrNotAuthor
	}
	return a, nil
}

func (svc *Service) UpdateAnswer(ctx context.Context, actor user.User, id string, ai AnswerInput) (Answer, error) {
	if err := ai.Validate(); err != nil {
		return Answer{}, err
	}
	a, err := svc.getAuthoredAnswer(ctx, actor, id)
	if err != nil {
		return Answer{}, err
	}
	if err = svc.checkContent(ctx, ai.Content); err != nil {
		return Answer{}, err
	}
	a.Content = ai.Content
	a.UpdatedAt = nowFunc().UTC()
	if err = svc.repo.UpdateAnswer(ctx, a); err != nil {
		return Answer{}, errors.Wrap(err, "updating answer")
	}
	return a, nil
}

// DeleteAnswer soft-deletes one of the actor's answers.
func (svc *Service) DeleteAnswer(ctx context.Context, actor user.User, id string) error {
	a, err := svc.getAuthoredAnswer(ctx, actor, id)
	if err != nil {
		return err
	}
	return errors.Wrap(svc.repo.DeleteAnswer(ctx, a.ID), "deleting answer")
}

func canMarkBest(actor user.User, q Question) bool {
	switch {
	case actor.IsAdmin():
		return true
	case q.LessonTeacherID != nil:
		return *q.LessonTeacherID == actor.ID
	default:
		return actor.IsTeacher()
	}
}

// MarkBestAnswer marks the best answer of a question, which resolves it. An empty answerID clears it.
func (svc *Service) MarkBestAnswer(ctx context.Context, actor user.User, questionID, answerID string) (Question, error) {
	q, err := svc.repo.GetQuestion(ctx, questionID)
	if err != nil {
		return Question{}, err
	}
	if !canMarkBest(actor, q) {
		return Question{}, ErrCannotMarkBest
	}

	var best *string
	if answerID = core.CleanString(answerID); answerID != "" {
		a, err := svc.repo.GetAnswer(ctx, answerID)
		if err != nil {
			return Question{}, err
		}
		if a.QuestionID != q.ID {
			return Question{}, ErrAnswerNotInThread
		}
		best = &a.ID
	}
	if err = svc.repo.SetBestAnswer(ctx, q.ID, best); err != nil {
		return Question{}, errors.Wrap(err, "setting best answer")
	}
	return svc.Get(ctx, actor, q.ID)
}

func (svc *Service) vote(ctx context.Context, voter user.User, kind, entityID string, isUpvote bool) error {
	var current *Vote
	v, err := svc.repo.GetVote(ctx, kind, entityID, voter.ID)
	switch {
	case err == nil:
		current = &v
	case errors.Cause(err) != ErrVoteNotFound:
		return errors.Wrap(err, "getting vote")
	}

	switch ResolveVote(current, isUpvote) {
	case VoteRemove:
		err = svc.repo.DeleteVote(ctx, kind, entityID, voter.ID)
	case VoteFlip:
		current.IsUpvote = isUpvote
		err = svc.repo.SaveVote(ctx, kind, *current)
	default:
		err = svc.repo.SaveVote(ctx, kind, Vote{
			EntityID:  entityID,
			UserID:    voter.ID,
			IsUpvote:  isUpvote,
			CreatedAt: nowFunc().UTC(),
		})
	}
	return errors.Wrap(err, "saving vote")
}

// VoteQuestion toggles the voter's vote on the question and returns the refreshed question.
func (svc *Service) VoteQuestion(ctx context.Context, voter user.User, questionID string, isUpvote bool) (Question, error) {
	q, err := svc.repo.GetQuestion(ctx, questionID)
	if err != nil {
		return Question{}, err
	}
	if err = svc.vote(ctx, voter, KindQuestion, q.ID, isUpvote); err != nil {
		return Question{}, err
	}
	return svc.Get(ctx, voter, q.ID)
}

// VoteAnswer toggles the voter's vote on the answer and returns the refreshed question.
func (svc *Service) VoteAnswer(ctx context.Context, voter user.User, answerID string, isUpvote bool) (Question, error) {
	a, err := svc.repo.GetAnswer(ctx, answerID)
	if err != nil {
		return Question{}, err
	}
	if err = svc.vote(ctx, voter, KindAnswer, a.ID, isUpvote); err != nil {
		return Question{}, err
	}
	return svc.Get(ctx, voter, a.QuestionID)
}

// ModerationFeed lists the latest questions along with their author, for moderators.
func (svc *Service) ModerationFeed(ctx context.Context, search string, page core.Page) ([]ModerationItem, core.PageInfo, error) {
	page.Clean()
	items, total, err := svc.repo.QueryModerationFeed(ctx, core.CleanString(search), page)
	if err != nil {
		return nil, core.PageInfo{}, errors.Wrap(err, "querying moderation feed")
	}
	if items == nil {
		items = []ModerationItem{}
	}
	return items, core.NewPageInfo(page, total), nil
}

// DeleteContent soft-deletes any question or answer.
func (svc *Service) DeleteContent(ctx context.Context, kind, id string) error {
	switch kind {
	case KindQuestion:
		q, err := svc.repo.GetQuestion(ctx, id)
		if err != nil {
			return err
		}
		return errors.Wrap(svc.repo.DeleteQuestion(ctx, q.ID), "deleting question")
	case KindAnswer:
		a, err := svc.repo.GetAnswer(ctx, id)
		if err != nil {
			return err
		}
		return errors.Wrap(svc.repo.DeleteAnswer(ctx, a.ID), "deleting answer")
	default:
		return ErrUnknownKind
	}
}
