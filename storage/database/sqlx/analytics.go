package sqlxrepos

import (
	"context"

	"github.com/jmoiron/sqlx"

	"github.com/trezcool/mansa/core/analytics"
	"github.com/trezcool/mansa/core/curriculum"
	"github.com/trezcool/mansa/core/user"
)

const resultRowSelect = `
	SELECT r.quiz_id, q.title AS quiz_title, u.name AS student_name, r.score, r.total, r.created_at
	FROM results r
	JOIN quizzes q ON q.id = r.quiz_id
	JOIN users u ON u.id = r.user_id`

type analyticsRepository struct {
	db *sqlx.DB
}

var _ analytics.Repository = (*analyticsRepository)(nil)

func NewAnalyticsRepository(db *sqlx.DB) analytics.Repository {
	return &analyticsRepository{db: db}
}

func (repo *analyticsRepository) StudentLessonCounts(ctx context.Context, studentID string) (analytics.LessonCounts, error) {
	var counts analytics.LessonCounts
	err := repo.db.GetContext(ctx, &counts, `
		SELECT COUNT(*) AS total, COUNT(*) FILTER (WHERE completed) AS completed
		FROM (`+subscribedLessons+`) sl`, studentID)
	return counts, err
}

func (repo *analyticsRepository) StudentResults(ctx context.Context, studentID string) ([]analytics.ResultRow, error) {
	rows := make([]analytics.ResultRow, 0)
	err := repo.db.SelectContext(ctx, &rows, resultRowSelect+` WHERE r.user_id = $1 ORDER BY r.created_at`, studentID)
	return rows, err
}

func (repo *analyticsRepository) RecentLessons(ctx context.Context, studentID string, limit int) ([]curriculum.LessonSummary, error) {
	lessons := make([]curriculum.LessonSummary, 0)
	err := repo.db.SelectContext(ctx, &lessons, subscribedLessons+` ORDER BY l.created_at DESC LIMIT $2`, studentID, limit)
	return lessons, err
}

func (repo *analyticsRepository) TeacherQuizzes(ctx context.Context, teacherID string) ([]analytics.QuizRef, error) {
	refs := make([]analytics.QuizRef, 0)
	err := repo.db.SelectContext(ctx, &refs, `
		SELECT id, title FROM quizzes WHERE teacher_id = $1 AND NOT is_deleted ORDER BY title`, teacherID)
	return refs, err
}

func (repo *analyticsRepository) TeacherResults(ctx context.Context, teacherID string) ([]analytics.ResultRow, error) {
	rows := make([]analytics.ResultRow, 0)
	err := repo.db.SelectContext(ctx, &rows, resultRowSelect+` WHERE q.teacher_id = $1 ORDER BY r.created_at DESC`, teacherID)
	return rows, err
}

func (repo *analyticsRepository) PendingSubmissions(ctx context.Context, teacherID string) (int, error) {
	var n int
	err := repo.db.GetContext(ctx, &n, `
		SELECT COUNT(*) FROM assignment_submissions s JOIN assignments a ON a.id = s.assignment_id
		WHERE a.teacher_id = $1 AND s.status = 'SUBMITTED'`, teacherID)
	return n, err
}

func (repo *analyticsRepository) UsersByRole(ctx context.Context) (map[string]int, error) {
	var rows []struct {
		Role  string `db:"role"`
		Total int    `db:"total"`
	}
	if err := repo.db.SelectContext(ctx, &rows,
		`SELECT role, COUNT(*) AS total FROM users WHERE NOT is_deleted GROUP BY role`); err != nil {
		return nil, err
	}
	roles := make(map[string]int, len(rows))
	for _, r := range rows {
		roles[r.Role] = r.Total
	}
	return roles, nil
}

func (repo *analyticsRepository) ContentTotals(ctx context.Context) (analytics.ContentTotals, error) {
	var totals analytics.ContentTotals
	err := repo.db.GetContext(ctx, &totals, `
		SELECT
			(SELECT COUNT(*) FROM lessons WHERE NOT is_deleted) AS lessons,
			(SELECT COUNT(*) FROM quizzes WHERE NOT is_deleted) AS quizzes`)
	return totals, err
}

func (repo *analyticsRepository) RecentUsers(ctx context.Context, limit int) ([]user.User, error) {
	users := make([]user.User, 0)
	err := repo.db.SelectContext(ctx, &users, `
		SELECT `+userColumns+` FROM users WHERE NOT is_deleted ORDER BY created_at DESC LIMIT $1`, limit)
	return users, err
}
