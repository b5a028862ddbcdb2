package inmemdb

import (
	"context"
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/trezcool/mansa/core"
	"github.com/trezcool/mansa/core/qa"
)

type qaRepository struct {
	db         *qaTables
	curriculum *curriculumTables
	users      *userTable
}

var _ qa.Repository = (*qaRepository)(nil)

func NewQARepository(db *DB) qa.Repository {
	return &qaRepository{db: db.qa, curriculum: db.curriculum, users: db.user}
}

func (repo *qaRepository) rlockAll() func() {
	repo.curriculum.RLock()
	repo.db.RLock()
	repo.users.RLock()
	return func() {
		repo.users.RUnlock()
		repo.db.RUnlock()
		repo.curriculum.RUnlock()
	}
}

func (repo *qaRepository) tally(kind, entityID string) qa.Tally {
	votes := make([]qa.Vote, 0)
	for key, v := range repo.db.votes {
		if key[0] == kind && key[1] == entityID {
			votes = append(votes, v)
		}
	}
	return qa.TallyVotes(votes)
}

func (repo *qaRepository) answerCount(questionID string) int {
	var n int
	for _, a := range repo.db.answers {
		if a.QuestionID == questionID && !a.IsDeleted {
			n++
		}
	}
	return n
}

// question returns the stored question along with its joined fields.
func (repo *qaRepository) question(q *qa.Question) qa.Question {
	item := *q
	item.Answers = nil
	item.UserVote = nil
	if usr, ok := repo.users.table[q.AuthorID]; ok {
		item.AuthorName = usr.Name
		item.AuthorRole = usr.Role
	}
	item.LessonTitle, item.LessonTeacherID, item.SubjectName = nil, nil, nil
	if q.LessonID != nil {
		if l, ok := repo.curriculum.lessons[*q.LessonID]; ok {
			title, teacherID := l.Title, l.TeacherID
			item.LessonTitle = &title
			item.LessonTeacherID = &teacherID
		}
	}
	if q.SubjectID != nil {
		if s, ok := repo.curriculum.subjects[*q.SubjectID]; ok {
			name := s.Name
			item.SubjectName = &name
		}
	}
	item.AnswerCount = repo.answerCount(q.ID)
	item.Tally = repo.tally(qa.KindQuestion, q.ID)
	return item
}

func (repo *qaRepository) QueryQuestions(_ context.Context, filter qa.QueryFilter, page core.Page) ([]qa.Question, int, error) {
	defer repo.rlockAll()()

	search := strings.ToLower(filter.Search)
	matches := make([]qa.Question, 0)
	for _, q := range repo.db.questions {
		switch {
		case q.IsDeleted,
			filter.LessonID != "" && core.StringValue(q.LessonID) != filter.LessonID,
			filter.SubjectID != "" && core.StringValue(q.SubjectID) != filter.SubjectID,
			filter.AuthorID != "" && q.AuthorID != filter.AuthorID,
			search != "" && !strings.Contains(strings.ToLower(q.Title), search) &&
				!strings.Contains(strings.ToLower(q.Content), search):
			continue
		}
		matches = append(matches, repo.question(q))
	}

	ord := filter.Ordering
	sort.SliceStable(matches, func(i, j int) bool {
		a, b := matches[i], matches[j]
		if !ord.Ascending {
			a, b = b, a
		}
		switch ord.Field {
		case "title":
			return a.Title < b.Title
		case "updated_at":
			return a.UpdatedAt.Before(b.UpdatedAt)
		default:
			return a.CreatedAt.Before(b.CreatedAt)
		}
	})
	return paginate(matches, page), len(matches), nil
}

func (repo *qaRepository) GetQuestion(_ context.Context, id string) (qa.Question, error) {
	defer repo.rlockAll()()

	q, ok := repo.db.questions[id]
	if !ok || q.IsDeleted {
		return qa.Question{}, qa.ErrNotFound
	}
	return repo.question(q), nil
}

func (repo *qaRepository) CreateQuestion(_ context.Context, q qa.Question) (qa.Question, error) {
	repo.curriculum.RLock()
	defer repo.curriculum.RUnlock()
	repo.db.Lock()
	defer repo.db.Unlock()

	if q.LessonID != nil {
		if _, ok := repo.curriculum.lessons[*q.LessonID]; !ok {
			return qa.Question{}, qa.ErrLessonNotFound
		}
	}
	if q.SubjectID != nil {
		if _, ok := repo.curriculum.subjects[*q.SubjectID]; !ok {
			return qa.Question{}, qa.ErrLessonNotFound
		}
	}
	q.ID = uuid.NewString()
	repo.db.questions[q.ID] = &q
	return q, nil
}

func (repo *qaRepository) UpdateQuestion(_ context.Context, q qa.Question) error {
	repo.db.Lock()
	defer repo.db.Unlock()

	orig, ok := repo.db.questions[q.ID]
	if !ok {
		return qa.ErrNotFound
	}
	orig.Title = q.Title
	orig.Content = q.Content
	orig.UpdatedAt = q.UpdatedAt
	return nil
}

func (repo *qaRepository) DeleteQuestion(_ context.Context, id string) error {
	repo.db.Lock()
	defer repo.db.Unlock()

	if q, ok := repo.db.questions[id]; ok {
		q.IsDeleted = true
	}
	return nil
}

func (repo *qaRepository) SetBestAnswer(_ context.Context, questionID string, answerID *string) error {
	repo.db.Lock()
	defer repo.db.Unlock()

	q, ok := repo.db.questions[questionID]
	if !ok {
		return qa.ErrNotFound
	}
	if answerID != nil {
		id := *answerID
		answerID = &id
	}
	q.BestAnswerID = answerID
	q.IsResolved = answerID != nil
	return nil
}

func (repo *qaRepository) answer(a *qa.Answer) qa.Answer {
	item := *a
	item.UserVote = nil
	if usr, ok := repo.users.table[a.AuthorID]; ok {
		item.AuthorName = usr.Name
		item.AuthorRole = usr.Role
	}
	item.Tally = repo.tally(qa.KindAnswer, a.ID)
	return item
}

func (repo *qaRepository) QueryAnswers(_ context.Context, questionID string) ([]qa.Answer, error) {
	defer repo.rlockAll()()

	answers := make([]qa.Answer, 0)
	for _, a := range repo.db.answers {
		if a.QuestionID == questionID && !a.IsDeleted {
			answers = append(answers, repo.answer(a))
		}
	}
	sort.Slice(answers, func(i, j int) bool { return answers[i].CreatedAt.Before(answers[j].CreatedAt) })
	return answers, nil
}

func (repo *qaRepository) GetAnswer(_ context.Context, id string) (qa.Answer, error) {
	defer repo.rlockAll()()

	a, ok := repo.db.answers[id]
	if !ok || a.IsDeleted {
		return qa.Answer{}, qa.ErrAnswerNotFound
	}
	return repo.answer(a), nil
}

func (repo *qaRepository) CreateAnswer(_ context.Context, a qa.Answer) (qa.Answer, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	if _, ok := repo.db.questions[a.QuestionID]; !ok {
		return qa.Answer{}, qa.ErrNotFound
	}
	a.ID = uuid.NewString()
	repo.db.answers[a.ID] = &a
	return a, nil
}

func (repo *qaRepository) UpdateAnswer(_ context.Context, a qa.Answer) error {
	repo.db.Lock()
	defer repo.db.Unlock()

	orig, ok := repo.db.answers[a.ID]
	if !ok {
		return qa.ErrAnswerNotFound
	}
	orig.Content = a.Content
	orig.UpdatedAt = a.UpdatedAt
	return nil
}

func (repo *qaRepository) DeleteAnswer(_ context.Context, id string) error {
	repo.db.Lock()
	defer repo.db.Unlock()

	if a, ok := repo.db.answers[id]; ok {
		a.IsDeleted = true
	}
	return nil
}

func (repo *qaRepository) GetVote(_ context.Context, kind, entityID, userID string) (qa.Vote, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	v, ok := repo.db.votes[[3]string{kind, entityID, userID}]
	if !ok {
		return qa.Vote{}, qa.ErrVoteNotFound
	}
	return v, nil
}

func (repo *qaRepository) QueryUserVotes(_ context.Context, questionID, userID string) ([]qa.Vote, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	votes := make([]qa.Vote, 0)
	for key, v := range repo.db.votes {
		if key[0] != qa.KindAnswer || key[2] != userID {
			continue
		}
		if a, ok := repo.db.answers[key[1]]; ok && a.QuestionID == questionID {
			votes = append(votes, v)
		}
	}
	return votes, nil
}

func (repo *qaRepository) SaveVote(_ context.Context, kind string, v qa.Vote) error {
	repo.db.Lock()
	defer repo.db.Unlock()

	key := [3]string{kind, v.EntityID, v.UserID}
	if existing, ok := repo.db.votes[key]; ok {
		existing.IsUpvote = v.IsUpvote
		v = existing
	}
	repo.db.votes[key] = v
	return nil
}

func (repo *qaRepository) DeleteVote(_ context.Context, kind, entityID, userID string) error {
	repo.db.Lock()
	defer repo.db.Unlock()

	delete(repo.db.votes, [3]string{kind, entityID, userID})
	return nil
}

func (repo *qaRepository) QueryModerationFeed(_ context.Context, search string, page core.Page) ([]qa.ModerationItem, int, error) {
	defer repo.rlockAll()()

	search = strings.ToLower(search)
	items := make([]qa.ModerationItem, 0)
	for _, q := range repo.db.questions {
		if q.IsDeleted {
			continue
		}
		item := qa.ModerationItem{
			ID:          q.ID,
			Title:       q.Title,
			Content:     q.Content,
			CreatedAt:   q.CreatedAt,
			AuthorID:    q.AuthorID,
			AnswerCount: repo.answerCount(q.ID),
		}
		if usr, ok := repo.users.table[q.AuthorID]; ok {
			item.AuthorName = usr.Name
			item.AuthorEmail = usr.Email
			item.AuthorBlocked = usr.IsBlocked
		}
		if search != "" &&
			!strings.Contains(strings.ToLower(item.Title), search) &&
			!strings.Contains(strings.ToLower(item.Content), search) &&
			!strings.Contains(strings.ToLower(item.AuthorName), search) {
			continue
		}
		items = append(items, item)
	}
	sort.Slice(items, func(i, j int) bool { return items[i].CreatedAt.After(items[j].CreatedAt) })
	return paginate(items, page), len(items), nil
}
