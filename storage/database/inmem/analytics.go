package inmemdb

import (
	"context"
	"sort"

	"github.com/trezcool/mansa/core/analytics"
	"github.com/trezcool/mansa/core/curriculum"
	"github.com/trezcool/mansa/core/homework"
	"github.com/trezcool/mansa/core/user"
)

type analyticsRepository struct {
	curriculum    *curriculumTables
	quizzes       *quizTables
	homework      *homeworkTables
	subscriptions *subscriptionTable
	users         *userTable
}

var _ analytics.Repository = (*analyticsRepository)(nil)

func NewAnalyticsRepository(db *DB) analytics.Repository {
	return &analyticsRepository{
		curriculum:    db.curriculum,
		quizzes:       db.quiz,
		homework:      db.homework,
		subscriptions: db.subscription,
		users:         db.user,
	}
}

func (repo *analyticsRepository) StudentLessonCounts(_ context.Context, studentID string) (analytics.LessonCounts, error) {
	repo.curriculum.RLock()
	defer repo.curriculum.RUnlock()
	repo.subscriptions.RLock()
	defer repo.subscriptions.RUnlock()
	repo.users.RLock()
	defer repo.users.RUnlock()

	var counts analytics.LessonCounts
	for _, l := range approvedLessons(repo.curriculum, repo.subscriptions, repo.users, studentID) {
		counts.Total++
		if l.Completed {
			counts.Completed++
		}
	}
	return counts, nil
}

func (repo *analyticsRepository) results(keep func(quizTeacherID, userID string) bool) []analytics.ResultRow {
	rows := make([]analytics.ResultRow, 0)
	for _, res := range repo.quizzes.results {
		qz, ok := repo.quizzes.quizzes[res.QuizID]
		if !ok || !keep(qz.TeacherID, res.UserID) {
			continue
		}
		rows = append(rows, analytics.ResultRow{
			QuizID:      qz.ID,
			QuizTitle:   qz.Title,
			StudentName: repo.users.name(res.UserID),
			Score:       res.Score,
			Total:       res.Total,
			CreatedAt:   res.CreatedAt,
		})
	}
	return rows
}

func (repo *analyticsRepository) StudentResults(_ context.Context, studentID string) ([]analytics.ResultRow, error) {
	repo.quizzes.RLock()
	defer repo.quizzes.RUnlock()
	repo.users.RLock()
	defer repo.users.RUnlock()

	rows := repo.results(func(_, userID string) bool { return userID == studentID })
	sort.Slice(rows, func(i, j int) bool { return rows[i].CreatedAt.Before(rows[j].CreatedAt) })
	return rows, nil
}

func (repo *analyticsRepository) RecentLessons(_ context.Context, studentID string, limit int) ([]curriculum.LessonSummary, error) {
	repo.curriculum.RLock()
	defer repo.curriculum.RUnlock()
	repo.subscriptions.RLock()
	defer repo.subscriptions.RUnlock()
	repo.users.RLock()
	defer repo.users.RUnlock()

	lessons := approvedLessons(repo.curriculum, repo.subscriptions, repo.users, studentID)
	if len(lessons) > limit {
		lessons = lessons[:limit]
	}
	return lessons, nil
}

func (repo *analyticsRepository) TeacherQuizzes(_ context.Context, teacherID string) ([]analytics.QuizRef, error) {
	repo.quizzes.RLock()
	defer repo.quizzes.RUnlock()

	refs := make([]analytics.QuizRef, 0)
	for _, qz := range repo.quizzes.quizzes {
		if qz.TeacherID == teacherID && !qz.IsDeleted {
			refs = append(refs, analytics.QuizRef{ID: qz.ID, Title: qz.Title})
		}
	}
	sort.Slice(refs, func(i, j int) bool { return refs[i].Title < refs[j].Title })
	return refs, nil
}

func (repo *analyticsRepository) TeacherResults(_ context.Context, teacherID string) ([]analytics.ResultRow, error) {
	repo.quizzes.RLock()
	defer repo.quizzes.RUnlock()
	repo.users.RLock()
	defer repo.users.RUnlock()

	rows := repo.results(func(quizTeacherID, _ string) bool { return quizTeacherID == teacherID })
	sort.Slice(rows, func(i, j int) bool { return rows[i].CreatedAt.After(rows[j].CreatedAt) })
	return rows, nil
}

func (repo *analyticsRepository) PendingSubmissions(_ context.Context, teacherID string) (int, error) {
	repo.homework.RLock()
	defer repo.homework.RUnlock()

	var n int
	for _, sub := range repo.homework.submissions {
		a, ok := repo.homework.assignments[sub.AssignmentID]
		if ok && a.TeacherID == teacherID && sub.Status == homework.StatusSubmitted {
			n++
		}
	}
	return n, nil
}

func (repo *analyticsRepository) UsersByRole(context.Context) (map[string]int, error) {
	repo.users.RLock()
	defer repo.users.RUnlock()

	roles := make(map[string]int)
	for _, usr := range repo.users.table {
		if !usr.IsDeleted {
			roles[usr.Role]++
		}
	}
	return roles, nil
}

func (repo *analyticsRepository) ContentTotals(context.Context) (analytics.ContentTotals, error) {
	repo.curriculum.RLock()
	defer repo.curriculum.RUnlock()
	repo.quizzes.RLock()
	defer repo.quizzes.RUnlock()

	var totals analytics.ContentTotals
	for _, l := range repo.curriculum.lessons {
		if !l.IsDeleted {
			totals.Lessons++
		}
	}
	for _, qz := range repo.quizzes.quizzes {
		if !qz.IsDeleted {
			totals.Quizzes++
		}
	}
	return totals, nil
}

func (repo *analyticsRepository) RecentUsers(_ context.Context, limit int) ([]user.User, error) {
	repo.users.RLock()
	defer repo.users.RUnlock()

	users := make([]user.User, 0)
	for _, usr := range repo.users.table {
		if !usr.IsDeleted {
			users = append(users, *usr)
		}
	}
	sort.Slice(users, func(i, j int) bool { return users[i].CreatedAt.After(users[j].CreatedAt) })
	if len(users) > limit {
		users = users[:limit]
	}
	return users, nil
}
