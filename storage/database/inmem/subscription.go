package inmemdb

import (
	"context"
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/trezcool/mansa/core"
	"github.com/trezcool/mansa/core/curriculum"
	"github.com/trezcool/mansa/core/quiz"
	"github.com/trezcool/mansa/core/subscription"
)

type subscriptionRepository struct {
	db         *subscriptionTable
	curriculum *curriculumTables
	quizzes    *quizTables
	users      *userTable
}

var _ subscription.Repository = (*subscriptionRepository)(nil)

func NewSubscriptionRepository(db *DB) subscription.Repository {
	return &subscriptionRepository{db: db.subscription, curriculum: db.curriculum, quizzes: db.quiz, users: db.user}
}

func (repo *subscriptionRepository) find(studentID, teacherID string) *subscription.Subscription {
	for _, sub := range repo.db.table {
		if sub.StudentID == studentID && sub.TeacherID == teacherID {
			return sub
		}
	}
	return nil
}

func (repo *subscriptionRepository) CreateSubscription(_ context.Context, sub subscription.Subscription) (subscription.Subscription, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	if repo.find(sub.StudentID, sub.TeacherID) != nil {
		return subscription.Subscription{}, subscription.ErrAlreadySubscribed
	}
	sub.ID = uuid.NewString()
	repo.db.table[sub.ID] = &sub
	return sub, nil
}

func (repo *subscriptionRepository) GetSubscription(_ context.Context, studentID, teacherID string) (subscription.Subscription, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	sub := repo.find(studentID, teacherID)
	if sub == nil {
		return subscription.Subscription{}, subscription.ErrNotFound
	}
	return *sub, nil
}

func (repo *subscriptionRepository) UpdateSubscription(_ context.Context, sub subscription.Subscription) (subscription.Subscription, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	orig, ok := repo.db.table[sub.ID]
	if !ok {
		return subscription.Subscription{}, subscription.ErrNotFound
	}
	orig.Status = sub.Status
	orig.UpdatedAt = sub.UpdatedAt
	return *orig, nil
}

func (repo *subscriptionRepository) DeleteSubscription(_ context.Context, id string) error {
	repo.db.Lock()
	defer repo.db.Unlock()

	delete(repo.db.table, id)
	return nil
}

func (repo *subscriptionRepository) ApproveAll(context.Context) (int, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	var n int
	for _, sub := range repo.db.table {
		if sub.Status != subscription.StatusApproved {
			sub.Status = subscription.StatusApproved
			n++
		}
	}
	return n, nil
}

func (repo *subscriptionRepository) QueryRequests(_ context.Context, teacherID string) ([]subscription.Request, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()
	repo.users.RLock()
	defer repo.users.RUnlock()

	reqs := make([]subscription.Request, 0)
	for _, sub := range repo.db.table {
		if sub.TeacherID != teacherID || sub.Status != subscription.StatusPending {
			continue
		}
		req := subscription.Request{ID: sub.ID, StudentID: sub.StudentID, CreatedAt: sub.CreatedAt}
		if usr, ok := repo.users.table[sub.StudentID]; ok {
			req.StudentName = usr.Name
			req.StudentEmail = usr.Email
		}
		reqs = append(reqs, req)
	}
	sort.Slice(reqs, func(i, j int) bool { return reqs[i].CreatedAt.After(reqs[j].CreatedAt) })
	return reqs, nil
}

func (repo *subscriptionRepository) QueryTeachers(_ context.Context, studentID string, subscribedOnly bool) ([]subscription.Teacher, error) {
	repo.curriculum.RLock()
	defer repo.curriculum.RUnlock()
	repo.quizzes.RLock()
	defer repo.quizzes.RUnlock()
	repo.db.RLock()
	defer repo.db.RUnlock()
	repo.users.RLock()
	defer repo.users.RUnlock()

	teachers := make([]subscription.Teacher, 0)
	for _, usr := range repo.users.table {
		if !usr.IsTeacher() || !usr.IsActive || usr.IsDeleted {
			continue
		}
		t := subscription.Teacher{ID: usr.ID, Name: usr.Name, Email: usr.Email}
		if sub := repo.find(studentID, usr.ID); sub != nil {
			status := sub.Status
			t.IsSubscribed = true
			t.Status = &status
		} else if subscribedOnly {
			continue
		}
		for _, l := range repo.curriculum.lessons {
			if l.TeacherID == usr.ID && !l.IsDeleted {
				t.LessonCount++
			}
		}
		for _, qz := range repo.quizzes.quizzes {
			if qz.TeacherID == usr.ID && !qz.IsDeleted {
				t.QuizCount++
			}
		}
		teachers = append(teachers, t)
	}
	sort.Slice(teachers, func(i, j int) bool { return teachers[i].Name < teachers[j].Name })
	return teachers, nil
}

func (repo *subscriptionRepository) QueryLessons(_ context.Context, studentID string) ([]curriculum.LessonSummary, error) {
	repo.curriculum.RLock()
	defer repo.curriculum.RUnlock()
	repo.db.RLock()
	defer repo.db.RUnlock()
	repo.users.RLock()
	defer repo.users.RUnlock()

	return approvedLessons(repo.curriculum, repo.db, repo.users, studentID), nil
}

// approvedLessons returns the published lessons of the teachers who approved the student, newest first.
func approvedLessons(curr *curriculumTables, subs *subscriptionTable, users *userTable, studentID string) []curriculum.LessonSummary {
	teachers := subs.approvedTeachers(studentID)
	lessons := make([]curriculum.LessonSummary, 0)
	for _, l := range curr.lessons {
		if !teachers[l.TeacherID] || !l.Published || l.IsDeleted {
			continue
		}
		p, ok := curr.progress[[2]string{studentID, l.ID}]
		lessons = append(lessons, curriculum.LessonSummary{
			ID:          l.ID,
			Title:       l.Title,
			UnitID:      l.UnitID,
			TeacherID:   l.TeacherID,
			TeacherName: users.name(l.TeacherID),
			Published:   l.Published,
			CreatedAt:   l.CreatedAt,
			Completed:   ok && p.Completed,
		})
	}
	sort.Slice(lessons, func(i, j int) bool { return lessons[i].CreatedAt.After(lessons[j].CreatedAt) })
	return lessons
}

func (repo *subscriptionRepository) QueryQuizzes(_ context.Context, studentID string) ([]quiz.Quiz, error) {
	repo.quizzes.RLock()
	defer repo.quizzes.RUnlock()
	repo.db.RLock()
	defer repo.db.RUnlock()
	repo.users.RLock()
	defer repo.users.RUnlock()

	teachers := repo.db.approvedTeachers(studentID)
	quizzes := make([]quiz.Quiz, 0)
	for _, qz := range repo.quizzes.quizzes {
		if !teachers[qz.TeacherID] || !qz.Published || qz.IsDeleted {
			continue
		}
		item := *qz
		item.Questions = nil
		item.QuestionCount = len(qz.Questions)
		item.TeacherName = repo.users.name(qz.TeacherID)
		quizzes = append(quizzes, item)
	}
	sort.Slice(quizzes, func(i, j int) bool { return quizzes[i].CreatedAt.After(quizzes[j].CreatedAt) })
	return quizzes, nil
}

func (repo *subscriptionRepository) QueryStudents(_ context.Context, teacherID, search string, page core.Page) ([]subscription.Student, int, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()
	repo.users.RLock()
	defer repo.users.RUnlock()

	search = strings.ToLower(search)
	students := make([]subscription.Student, 0)
	for _, sub := range repo.db.table {
		if sub.TeacherID != teacherID || sub.Status != subscription.StatusApproved {
			continue
		}
		usr, ok := repo.users.table[sub.StudentID]
		if !ok || usr.IsDeleted {
			continue
		}
		if search != "" && !strings.Contains(strings.ToLower(usr.Name), search) &&
			!strings.Contains(strings.ToLower(usr.Email), search) {
			continue
		}
		students = append(students, subscription.Student{
			ID:           usr.ID,
			Name:         usr.Name,
			Email:        usr.Email,
			CreatedAt:    usr.CreatedAt,
			SubscribedAt: sub.CreatedAt,
		})
	}
	sort.Slice(students, func(i, j int) bool { return students[i].SubscribedAt.After(students[j].SubscribedAt) })
	return paginate(students, page), len(students), nil
}

func (repo *subscriptionRepository) QueryStudentResults(_ context.Context, teacherID string, filter subscription.ResultFilter, page core.Page) ([]subscription.StudentResult, int, error) {
	repo.quizzes.RLock()
	defer repo.quizzes.RUnlock()
	repo.db.RLock()
	defer repo.db.RUnlock()
	repo.users.RLock()
	defer repo.users.RUnlock()

	students := repo.db.approvedStudents(teacherID)
	results := make([]subscription.StudentResult, 0)
	for _, a := range repo.quizzes.attempts {
		qz, ok := repo.quizzes.quizzes[a.QuizID]
		res, done := repo.quizzes.results[a.ID]
		switch {
		case !ok || !done || a.CompletedAt == nil,
			qz.TeacherID != teacherID,
			!students[a.UserID],
			filter.StudentID != "" && a.UserID != filter.StudentID,
			filter.QuizID != "" && a.QuizID != filter.QuizID:
			continue
		}
		item := subscription.StudentResult{
			AttemptID:   a.ID,
			StudentID:   a.UserID,
			QuizID:      qz.ID,
			QuizTitle:   qz.Title,
			Score:       res.Score,
			Total:       res.Total,
			Percentage:  res.Percentage,
			Passed:      res.Passed,
			CompletedAt: *a.CompletedAt,
		}
		if usr, ok := repo.users.table[a.UserID]; ok {
			item.StudentName = usr.Name
			item.StudentEmail = usr.Email
		}
		results = append(results, item)
	}

	sort.SliceStable(results, func(i, j int) bool {
		a, b := results[i], results[j]
		switch filter.Sort {
		case subscription.SortScoreAsc:
			return a.Score < b.Score
		case subscription.SortScoreDesc:
			return a.Score > b.Score
		case subscription.SortPercentageDesc:
			return a.Percentage > b.Percentage
		default:
			return a.CompletedAt.After(b.CompletedAt)
		}
	})
	return paginate(results, page), len(results), nil
}

func (repo *subscriptionRepository) ApprovedStudentIDs(_ context.Context, teacherID string) ([]string, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	ids := make([]string, 0)
	for id := range repo.db.approvedStudents(teacherID) {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}
