package sqlxrepos

import (
	"context"

	"github.com/jmoiron/sqlx"

	"github.com/trezcool/mansa/core/homework"
	"github.com/trezcool/mansa/storage/database"
)

const (
	assignmentColumns = `a.id, a.title, a.description, a.file_url, a.due_date, a.subject_id, a.teacher_id, a.published, a.is_deleted, a.created_at`
	submissionColumns = `s.id, s.assignment_id, s.student_id, s.file_url, s.content, s.status, s.score, s.feedback, s.submitted_at, s.graded_at`
)

type homeworkRepository struct {
	db *sqlx.DB
}

var _ homework.Repository = (*homeworkRepository)(nil)

func NewHomeworkRepository(db *sqlx.DB) homework.Repository {
	return &homeworkRepository{db: db}
}

func (repo *homeworkRepository) QueryAssignments(ctx context.Context, filter homework.QueryFilter) ([]homework.Assignment, error) {
	assignments := make([]homework.Assignment, 0)
	err := repo.db.SelectContext(ctx, &assignments, `
		SELECT `+assignmentColumns+`, sj.name AS subject_name, u.name AS teacher_name,
			(SELECT COUNT(*) FROM assignment_submissions s WHERE s.assignment_id = a.id) AS submission_count
		FROM assignments a
		JOIN subjects sj ON sj.id = a.subject_id
		JOIN users u ON u.id = a.teacher_id
		WHERE NOT a.is_deleted
			AND ($1 = '' OR a.teacher_id::text = $1)
			AND ($2 = '' OR a.subject_id::text = $2)
		ORDER BY a.due_date`, filter.TeacherID, filter.SubjectID)
	return assignments, err
}

func (repo *homeworkRepository) CreateAssignment(ctx context.Context, a homework.Assignment) (homework.Assignment, error) {
	a.ID = newID()
	err := repo.db.GetContext(ctx, &a.SubjectName, `
		WITH a AS (
			INSERT INTO assignments (id, title, description, file_url, due_date, subject_id, teacher_id, published, created_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
			RETURNING subject_id
		)
		SELECT sj.name FROM a JOIN subjects sj ON sj.id = a.subject_id`,
		a.ID, a.Title, a.Description, a.FileURL, a.DueDate, a.SubjectID, a.TeacherID, a.Published, a.CreatedAt)
	if database.IsForeignKeyViolation(err) {
		return homework.Assignment{}, homework.ErrSubjectNotFound
	}
	return a, err
}

func (repo *homeworkRepository) GetAssignment(ctx context.Context, id string) (homework.Assignment, error) {
	var a homework.Assignment
	err := repo.db.GetContext(ctx, &a, `SELECT `+assignmentColumns+` FROM assignments a WHERE a.id = $1 AND NOT a.is_deleted`, id)
	return a, orNotFound(err, homework.ErrNotFound)
}

func (repo *homeworkRepository) CreateSubmission(ctx context.Context, sub homework.Submission) (homework.Submission, error) {
	sub.ID = newID()
	_, err := repo.db.NamedExecContext(ctx, `
		INSERT INTO assignment_submissions (id, assignment_id, student_id, file_url, content, status, submitted_at)
		VALUES (:id, :assignment_id, :student_id, :file_url, :content, :status, :submitted_at)`, sub)
	switch {
	case database.IsUniqueViolation(err):
		return homework.Submission{}, homework.ErrAlreadySubmitted
	case database.IsForeignKeyViolation(err):
		return homework.Submission{}, homework.ErrNotFound
	case err != nil:
		return homework.Submission{}, err
	}
	return sub, nil
}

func (repo *homeworkRepository) GetSubmission(ctx context.Context, id string) (homework.Submission, error) {
	var sub homework.Submission
	err := repo.db.GetContext(ctx, &sub, `SELECT `+submissionColumns+` FROM assignment_submissions s WHERE s.id = $1`, id)
	return sub, orNotFound(err, homework.ErrSubmissionNotFound)
}

func (repo *homeworkRepository) UpdateSubmission(ctx context.Context, sub homework.Submission) (homework.Submission, error) {
	res, err := repo.db.NamedExecContext(ctx, `
		UPDATE assignment_submissions SET score = :score, feedback = :feedback, status = :status, graded_at = :graded_at
		WHERE id = :id`, sub)
	if err = mustAffect(res, err, homework.ErrSubmissionNotFound); err != nil {
		return homework.Submission{}, err
	}
	return repo.GetSubmission(ctx, sub.ID)
}

func (repo *homeworkRepository) QuerySubmissions(ctx context.Context, assignmentID string) ([]homework.Submission, error) {
	subs := make([]homework.Submission, 0)
	err := repo.db.SelectContext(ctx, &subs, `
		SELECT `+submissionColumns+`, u.name AS student_name, u.email AS student_email
		FROM assignment_submissions s JOIN users u ON u.id = s.student_id
		WHERE s.assignment_id = $1
		ORDER BY s.submitted_at DESC`, assignmentID)
	return subs, err
}

func (repo *homeworkRepository) QueryStudentSubmissions(ctx context.Context, studentID string) ([]homework.Submission, error) {
	subs := make([]homework.Submission, 0)
	err := repo.db.SelectContext(ctx, &subs, `
		SELECT `+submissionColumns+`, a.title AS assignment_title, a.due_date, sj.name AS subject_name
		FROM assignment_submissions s
		JOIN assignments a ON a.id = s.assignment_id
		JOIN subjects sj ON sj.id = a.subject_id
		WHERE s.student_id = $1
		ORDER BY s.submitted_at DESC`, studentID)
	return subs, err
}
