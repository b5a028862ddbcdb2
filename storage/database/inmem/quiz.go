package inmemdb

import (
	"context"
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/trezcool/mansa/core"
	"github.com/trezcool/mansa/core/quiz"
)

type quizRepository struct {
	db    *quizTables
	users *userTable
}

var _ quiz.Repository = (*quizRepository)(nil)

func NewQuizRepository(db *DB) quiz.Repository {
	return &quizRepository{db: db.quiz, users: db.user}
}

func copyQuiz(qz quiz.Quiz) quiz.Quiz {
	questions := make([]quiz.Question, 0, len(qz.Questions))
	for _, q := range qz.Questions {
		q.Options = append([]quiz.Option(nil), q.Options...)
		questions = append(questions, q)
	}
	qz.Questions = questions
	return qz
}

func (repo *quizRepository) saveQuestions(quizID string, questions []quiz.Question) []quiz.Question {
	for i := range questions {
		questions[i].ID = uuid.NewString()
		questions[i].QuizID = quizID
		for j := range questions[i].Options {
			questions[i].Options[j].ID = uuid.NewString()
			questions[i].Options[j].QuestionID = questions[i].ID
		}
	}
	qz := repo.db.quizzes[quizID]
	qz.Questions = append(qz.Questions, questions...)
	return questions
}

func (repo *quizRepository) CreateQuiz(_ context.Context, qz quiz.Quiz) (quiz.Quiz, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	qz = copyQuiz(qz)
	qz.ID = uuid.NewString()
	questions := qz.Questions
	qz.Questions = nil
	repo.db.quizzes[qz.ID] = &qz
	repo.saveQuestions(qz.ID, questions)
	return copyQuiz(qz), nil
}

func (repo *quizRepository) CreateQuestions(_ context.Context, quizID string, questions []quiz.Question) ([]quiz.Question, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	if _, ok := repo.db.quizzes[quizID]; !ok {
		return nil, quiz.ErrNotFound
	}
	questions = copyQuiz(quiz.Quiz{Questions: questions}).Questions
	saved := repo.saveQuestions(quizID, questions)
	return copyQuiz(quiz.Quiz{Questions: saved}).Questions, nil
}

func (repo *quizRepository) GetQuiz(_ context.Context, id string) (quiz.Quiz, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	qz, ok := repo.db.quizzes[id]
	if !ok || qz.IsDeleted {
		return quiz.Quiz{}, quiz.ErrNotFound
	}
	return copyQuiz(*qz), nil
}

func (repo *quizRepository) QueryQuizzes(_ context.Context, filter quiz.QueryFilter, page core.Page) ([]quiz.Quiz, int, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	search := strings.ToLower(filter.Search)
	matches := make([]quiz.Quiz, 0)
	for _, qz := range repo.db.quizzes {
		if qz.IsDeleted || (filter.TeacherID != "" && qz.TeacherID != filter.TeacherID) {
			continue
		}
		if search != "" && !strings.Contains(strings.ToLower(qz.Title), search) {
			continue
		}
		item := *qz
		item.Questions = nil
		item.QuestionCount = len(qz.Questions)
		item.AttemptCount = repo.countAttempts(qz.ID)
		matches = append(matches, item)
	}
	sort.Slice(matches, func(i, j int) bool { return matches[i].CreatedAt.After(matches[j].CreatedAt) })
	return paginate(matches, page), len(matches), nil
}

func (repo *quizRepository) UpdateQuiz(_ context.Context, qz quiz.Quiz) (quiz.Quiz, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	orig, ok := repo.db.quizzes[qz.ID]
	if !ok {
		return quiz.Quiz{}, quiz.ErrNotFound
	}
	orig.Title = qz.Title
	orig.Description = qz.Description
	orig.Published = qz.Published
	orig.UpdatedAt = qz.UpdatedAt
	return copyQuiz(*orig), nil
}

func (repo *quizRepository) DeleteQuiz(_ context.Context, id string) error {
	repo.db.Lock()
	defer repo.db.Unlock()

	if qz, ok := repo.db.quizzes[id]; ok {
		qz.IsDeleted = true
	}
	return nil
}

func (repo *quizRepository) countAttempts(quizID string) int {
	var n int
	for _, a := range repo.db.attempts {
		if a.QuizID == quizID {
			n++
		}
	}
	return n
}

func (repo *quizRepository) CountAttempts(_ context.Context, quizID string) (int, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()
	return repo.countAttempts(quizID), nil
}

func (repo *quizRepository) GetAttempt(_ context.Context, id string) (quiz.Attempt, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if a, ok := repo.db.attempts[id]; ok {
		return *a, nil
	}
	return quiz.Attempt{}, quiz.ErrAttemptNotFound
}

func (repo *quizRepository) GetUserAttempt(_ context.Context, userID, quizID string) (quiz.Attempt, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	for _, a := range repo.db.attempts {
		if a.UserID == userID && a.QuizID == quizID {
			return *a, nil
		}
	}
	return quiz.Attempt{}, quiz.ErrAttemptNotFound
}

func (repo *quizRepository) CreateAttempt(_ context.Context, attempt quiz.Attempt) (quiz.Attempt, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	for _, a := range repo.db.attempts {
		if a.UserID == attempt.UserID && a.QuizID == attempt.QuizID {
			return quiz.Attempt{}, quiz.ErrAttemptExists
		}
	}
	attempt.ID = uuid.NewString()
	repo.db.attempts[attempt.ID] = &attempt
	return attempt, nil
}

func (repo *quizRepository) CompleteAttempt(_ context.Context, attempt quiz.Attempt, answers []quiz.Answer, res quiz.Result) (quiz.Result, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	orig, ok := repo.db.attempts[attempt.ID]
	if !ok {
		return quiz.Result{}, quiz.ErrAttemptNotFound
	}
	if orig.CompletedAt != nil {
		return quiz.Result{}, quiz.ErrAlreadyCompleted
	}
	completedAt := *attempt.CompletedAt
	orig.CompletedAt = &completedAt

	saved := make([]quiz.Answer, 0, len(answers))
	for _, ans := range answers {
		ans.ID = uuid.NewString()
		ans.AttemptID = attempt.ID
		saved = append(saved, ans)
	}
	repo.db.answers[attempt.ID] = saved

	res.ID = uuid.NewString()
	repo.db.results[attempt.ID] = &res
	return res, nil
}

func (repo *quizRepository) GetAnswers(_ context.Context, attemptID string) ([]quiz.Answer, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()
	return append([]quiz.Answer{}, repo.db.answers[attemptID]...), nil
}

func (repo *quizRepository) GetResult(_ context.Context, attemptID string) (quiz.Result, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if res, ok := repo.db.results[attemptID]; ok {
		return *res, nil
	}
	return quiz.Result{}, quiz.ErrResultNotFound
}

func (repo *quizRepository) QueryUserResults(_ context.Context, userID string) ([]quiz.Result, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	results := make([]quiz.Result, 0)
	for _, res := range repo.db.results {
		if res.UserID != userID {
			continue
		}
		item := *res
		if qz, ok := repo.db.quizzes[res.QuizID]; ok {
			item.QuizTitle = qz.Title
		}
		results = append(results, item)
	}
	sort.Slice(results, func(i, j int) bool { return results[i].CreatedAt.After(results[j].CreatedAt) })
	return results, nil
}

func (repo *quizRepository) QueryAllResults(context.Context) ([]quiz.Result, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	results := make([]quiz.Result, 0, len(repo.db.results))
	for _, res := range repo.db.results {
		results = append(results, *res)
	}
	sort.Slice(results, func(i, j int) bool { return results[i].CreatedAt.Before(results[j].CreatedAt) })
	return results, nil
}

func (repo *quizRepository) UpdateResultPercentage(_ context.Context, id string, percentage float64) error {
	repo.db.Lock()
	defer repo.db.Unlock()

	for _, res := range repo.db.results {
		if res.ID == id {
			res.Percentage = percentage
			return nil
		}
	}
	return quiz.ErrResultNotFound
}

func (repo *quizRepository) QueryQuizResults(_ context.Context, quizID string) ([]quiz.AttemptResult, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()
	repo.users.RLock()
	defer repo.users.RUnlock()

	results := make([]quiz.AttemptResult, 0)
	for _, a := range repo.db.attempts {
		res, ok := repo.db.results[a.ID]
		if a.QuizID != quizID || a.CompletedAt == nil || !ok {
			continue
		}
		ar := quiz.AttemptResult{Attempt: *a, Result: *res}
		if usr, ok := repo.users.table[a.UserID]; ok {
			ar.UserName = usr.Name
			ar.UserEmail = usr.Email
		}
		results = append(results, ar)
	}
	sort.Slice(results, func(i, j int) bool { return results[i].CompletedAt.After(*results[j].CompletedAt) })
	return results, nil
}
