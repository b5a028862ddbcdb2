package sqlxrepos

import (
	"context"

	"github.com/jmoiron/sqlx"

	"github.com/trezcool/mansa/core"
	"github.com/trezcool/mansa/core/curriculum"
	"github.com/trezcool/mansa/core/quiz"
	"github.com/trezcool/mansa/core/subscription"
	"github.com/trezcool/mansa/storage/database"
)

const (
	subscriptionColumns = `id, student_id, teacher_id, status, created_at, updated_at`

	// approvedTeachers selects the IDs of the teachers who approved the student bound to $1.
	approvedTeachers = `SELECT teacher_id FROM subscriptions WHERE student_id::text = $1 AND status = 'APPROVED'`

	// subscribedLessons selects the published lessons of the teachers who approved the student bound to $1.
	subscribedLessons = lessonSummarySelect + `
	WHERE l.published AND NOT l.is_deleted AND l.teacher_id IN (` + approvedTeachers + `)`
)

var resultOrders = map[string]string{
	subscription.SortDateDesc:       "a.completed_at DESC",
	subscription.SortScoreAsc:       "r.score ASC, a.completed_at DESC",
	subscription.SortScoreDesc:      "r.score DESC, a.completed_at DESC",
	subscription.SortPercentageDesc: "r.percentage DESC, a.completed_at DESC",
}

type subscriptionRepository struct {
	db *sqlx.DB
}

var _ subscription.Repository = (*subscriptionRepository)(nil)

func NewSubscriptionRepository(db *sqlx.DB) subscription.Repository {
	return &subscriptionRepository{db: db}
}

func (repo *subscriptionRepository) CreateSubscription(ctx context.Context, sub subscription.Subscription) (subscription.Subscription, error) {
	sub.ID = newID()
	_, err := repo.db.NamedExecContext(ctx, `
		INSERT INTO subscriptions (`+subscriptionColumns+`)
		VALUES (:id, :student_id, :teacher_id, :status, :created_at, :updated_at)`, sub)
	switch {
	case database.IsUniqueViolation(err):
		return subscription.Subscription{}, subscription.ErrAlreadySubscribed
	case database.IsForeignKeyViolation(err):
		return subscription.Subscription{}, subscription.ErrTeacherNotFound
	case err != nil:
		return subscription.Subscription{}, err
	}
	return sub, nil
}

func (repo *subscriptionRepository) GetSubscription(ctx context.Context, studentID, teacherID string) (subscription.Subscription, error) {
	var sub subscription.Subscription
	err := repo.db.GetContext(ctx, &sub, `
		SELECT `+subscriptionColumns+` FROM subscriptions WHERE student_id = $1 AND teacher_id = $2`, studentID, teacherID)
	return sub, orNotFound(err, subscription.ErrNotFound)
}

func (repo *subscriptionRepository) UpdateSubscription(ctx context.Context, sub subscription.Subscription) (subscription.Subscription, error) {
	var updated subscription.Subscription
	err := repo.db.GetContext(ctx, &updated, `
		UPDATE subscriptions SET status = $2, updated_at = $3 WHERE id = $1
		RETURNING `+subscriptionColumns, sub.ID, sub.Status, sub.UpdatedAt)
	return updated, orNotFound(err, subscription.ErrNotFound)
}

func (repo *subscriptionRepository) DeleteSubscription(ctx context.Context, id string) error {
	_, err := repo.db.ExecContext(ctx, `DELETE FROM subscriptions WHERE id = $1`, id)
	return err
}

func (repo *subscriptionRepository) ApproveAll(ctx context.Context) (int, error) {
	res, err := repo.db.ExecContext(ctx, `UPDATE subscriptions SET status = 'APPROVED', updated_at = now() WHERE status <> 'APPROVED'`)
	if err != nil {
		return 0, err
	}
	n, err := res.RowsAffected()
	return int(n), err
}

func (repo *subscriptionRepository) QueryRequests(ctx context.Context, teacherID string) ([]subscription.Request, error) {
	reqs := make([]subscription.Request, 0)
	err := repo.db.SelectContext(ctx, &reqs, `
		SELECT s.id, s.student_id, u.name AS student_name, u.email AS student_email, s.created_at
		FROM subscriptions s JOIN users u ON u.id = s.student_id
		WHERE s.teacher_id = $1 AND s.status = 'PENDING'
		ORDER BY s.created_at DESC`, teacherID)
	return reqs, err
}

func (repo *subscriptionRepository) QueryTeachers(ctx context.Context, studentID string, subscribedOnly bool) ([]subscription.Teacher, error) {
	teachers := make([]subscription.Teacher, 0)
	err := repo.db.SelectContext(ctx, &teachers, `
		SELECT u.id, u.name, u.email,
			(SELECT COUNT(*) FROM lessons l WHERE l.teacher_id = u.id AND NOT l.is_deleted) AS lesson_count,
			(SELECT COUNT(*) FROM quizzes q WHERE q.teacher_id = u.id AND NOT q.is_deleted) AS quiz_count,
			s.id IS NOT NULL AS is_subscribed,
			s.status
		FROM users u
		LEFT JOIN subscriptions s ON s.teacher_id = u.id AND s.student_id::text = $1
		WHERE u.role = 'TEACHER' AND u.is_active AND NOT u.is_deleted AND (NOT $2 OR s.id IS NOT NULL)
		ORDER BY u.name`, studentID, subscribedOnly)
	return teachers, err
}

func (repo *subscriptionRepository) QueryLessons(ctx context.Context, studentID string) ([]curriculum.LessonSummary, error) {
	lessons := make([]curriculum.LessonSummary, 0)
	err := repo.db.SelectContext(ctx, &lessons, subscribedLessons+` ORDER BY l.created_at DESC`, studentID)
	return lessons, err
}

func (repo *subscriptionRepository) QueryQuizzes(ctx context.Context, studentID string) ([]quiz.Quiz, error) {
	quizzes := make([]quiz.Quiz, 0)
	err := repo.db.SelectContext(ctx, &quizzes, `
		SELECT `+quizColumns+`, u.name AS teacher_name,
			(SELECT COUNT(*) FROM quiz_questions qq WHERE qq.quiz_id = q.id) AS question_count,
			(SELECT COUNT(*) FROM quiz_attempts a WHERE a.quiz_id = q.id) AS attempt_count
		FROM quizzes q JOIN users u ON u.id = q.teacher_id
		WHERE q.published AND NOT q.is_deleted AND q.teacher_id IN (`+approvedTeachers+`)
		ORDER BY q.created_at DESC`, studentID)
	return quizzes, err
}

func (repo *subscriptionRepository) QueryStudents(ctx context.Context, teacherID, search string, page core.Page) ([]subscription.Student, int, error) {
	where := `
		FROM subscriptions s JOIN users u ON u.id = s.student_id
		WHERE s.teacher_id = $1 AND s.status = 'APPROVED' AND NOT u.is_deleted
			AND ($2 = '' OR u.name ILIKE $3 OR u.email ILIKE $3)`
	args := []interface{}{teacherID, search, database.Like(search)}

	var total int
	if err := repo.db.GetContext(ctx, &total, `SELECT COUNT(*)`+where, args...); err != nil {
		return nil, 0, err
	}
	limit, offset := limitOffset(page)
	students := make([]subscription.Student, 0)
	err := repo.db.SelectContext(ctx, &students, `
		SELECT u.id, u.name, u.email, u.created_at, s.created_at AS subscribed_at`+where+`
		ORDER BY s.created_at DESC LIMIT $4 OFFSET $5`, append(args, limit, offset)...)
	return students, total, err
}

func (repo *subscriptionRepository) QueryStudentResults(ctx context.Context, teacherID string, filter subscription.ResultFilter, page core.Page) ([]subscription.StudentResult, int, error) {
	where := `
		FROM results r
		JOIN quiz_attempts a ON a.id = r.attempt_id
		JOIN quizzes q ON q.id = r.quiz_id
		JOIN users u ON u.id = r.user_id
		JOIN subscriptions s ON s.student_id = r.user_id AND s.teacher_id = q.teacher_id AND s.status = 'APPROVED'
		WHERE q.teacher_id = $1 AND a.completed_at IS NOT NULL
			AND ($2 = '' OR r.user_id::text = $2)
			AND ($3 = '' OR r.quiz_id::text = $3)`
	args := []interface{}{teacherID, filter.StudentID, filter.QuizID}

	var total int
	if err := repo.db.GetContext(ctx, &total, `SELECT COUNT(*)`+where, args...); err != nil {
		return nil, 0, err
	}
	order, ok := resultOrders[filter.Sort]
	if !ok {
		order = resultOrders[subscription.SortDateDesc]
	}
	limit, offset := limitOffset(page)
	results := make([]subscription.StudentResult, 0)
	err := repo.db.SelectContext(ctx, &results, `
		SELECT a.id AS attempt_id, r.user_id AS student_id, u.name AS student_name, u.email AS student_email,
			q.id AS quiz_id, q.title AS quiz_title, r.score, r.total, r.percentage, r.passed, a.completed_at`+where+`
		ORDER BY `+order+` LIMIT $4 OFFSET $5`, append(args, limit, offset)...)
	return results, total, err
}

func (repo *subscriptionRepository) ApprovedStudentIDs(ctx context.Context, teacherID string) ([]string, error) {
	ids := make([]string, 0)
	err := repo.db.SelectContext(ctx, &ids, `
		SELECT student_id FROM subscriptions WHERE teacher_id = $1 AND status = 'APPROVED' ORDER BY student_id`, teacherID)
	return ids, err
}
