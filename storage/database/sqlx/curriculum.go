package sqlxrepos

import (
	"context"

	"github.com/jmoiron/sqlx"

	"github.com/trezcool/mansa/core/curriculum"
	"github.com/trezcool/mansa/storage/database"
)

const lessonSummarySelect = `
	SELECT l.id, l.title, l.unit_id, l.teacher_id, u.name AS teacher_name, l.published, l.created_at,
		COALESCE(p.completed, false) AS completed
	FROM lessons l
	JOIN users u ON u.id = l.teacher_id
	LEFT JOIN lesson_progress p ON p.lesson_id = l.id AND p.user_id::text = $1`

type curriculumRepository struct {
	db *sqlx.DB
}

var _ curriculum.Repository = (*curriculumRepository)(nil)

func NewCurriculumRepository(db *sqlx.DB) curriculum.Repository {
	return &curriculumRepository{db: db}
}

func (repo *curriculumRepository) CreateStage(ctx context.Context, stage curriculum.Stage) (curriculum.Stage, error) {
	stage.ID = newID()
	_, err := repo.db.NamedExecContext(ctx, `INSERT INTO stages (id, name, created_at) VALUES (:id, :name, :created_at)`, stage)
	stage.Grades = []curriculum.Grade{}
	return stage, err
}

func (repo *curriculumRepository) CreateGrade(ctx context.Context, grade curriculum.Grade) (curriculum.Grade, error) {
	grade.ID = newID()
	_, err := repo.db.NamedExecContext(ctx,
		`INSERT INTO grades (id, name, stage_id, created_at) VALUES (:id, :name, :stage_id, :created_at)`, grade)
	if database.IsForeignKeyViolation(err) {
		return curriculum.Grade{}, curriculum.ErrStageNotFound
	}
	grade.Subjects = []curriculum.Subject{}
	return grade, err
}

func (repo *curriculumRepository) CreateSubject(ctx context.Context, subject curriculum.Subject) (curriculum.Subject, error) {
	subject.ID = newID()
	err := repo.db.GetContext(ctx, &subject.GradeName, `
		WITH s AS (
			INSERT INTO subjects (id, name, grade_id, created_at) VALUES ($1, $2, $3, $4) RETURNING grade_id
		)
		SELECT g.name FROM s JOIN grades g ON g.id = s.grade_id`,
		subject.ID, subject.Name, subject.GradeID, subject.CreatedAt)
	if database.IsForeignKeyViolation(err) {
		return curriculum.Subject{}, curriculum.ErrGradeNotFound
	}
	return subject, err
}

func (repo *curriculumRepository) CreateUnit(ctx context.Context, unit curriculum.Unit) (curriculum.Unit, error) {
	unit.ID = newID()
	_, err := repo.db.NamedExecContext(ctx,
		`INSERT INTO units (id, name, subject_id, created_at) VALUES (:id, :name, :subject_id, :created_at)`, unit)
	if database.IsForeignKeyViolation(err) {
		return curriculum.Unit{}, curriculum.ErrSubjectNotFound
	}
	return unit, err
}

func (repo *curriculumRepository) QueryStageTree(ctx context.Context) ([]curriculum.Stage, error) {
	var (
		stages   []curriculum.Stage
		grades   []curriculum.Grade
		subjects []curriculum.Subject
		units    []curriculum.Unit
	)
	if err := repo.db.SelectContext(ctx, &stages, `SELECT id, name, created_at FROM stages ORDER BY name`); err != nil {
		return nil, err
	}
	if err := repo.db.SelectContext(ctx, &grades, `SELECT id, name, stage_id, created_at FROM grades ORDER BY name`); err != nil {
		return nil, err
	}
	if err := repo.db.SelectContext(ctx, &subjects, `SELECT id, name, grade_id, created_at FROM subjects ORDER BY name`); err != nil {
		return nil, err
	}
	if err := repo.db.SelectContext(ctx, &units, `SELECT id, name, subject_id, created_at FROM units ORDER BY name`); err != nil {
		return nil, err
	}

	unitsBySubject := make(map[string][]curriculum.Unit)
	for _, u := range units {
		u.Lessons = []curriculum.LessonSummary{}
		unitsBySubject[u.SubjectID] = append(unitsBySubject[u.SubjectID], u)
	}
	subjectsByGrade := make(map[string][]curriculum.Subject)
	for _, s := range subjects {
		s.Units = append([]curriculum.Unit{}, unitsBySubject[s.ID]...)
		subjectsByGrade[s.GradeID] = append(subjectsByGrade[s.GradeID], s)
	}
	gradesByStage := make(map[string][]curriculum.Grade)
	for _, g := range grades {
		g.Subjects = append([]curriculum.Subject{}, subjectsByGrade[g.ID]...)
		gradesByStage[g.StageID] = append(gradesByStage[g.StageID], g)
	}
	tree := make([]curriculum.Stage, 0, len(stages))
	for _, s := range stages {
		s.Grades = append([]curriculum.Grade{}, gradesByStage[s.ID]...)
		tree = append(tree, s)
	}
	return tree, nil
}

func (repo *curriculumRepository) GetSubject(ctx context.Context, id, userID string) (curriculum.Subject, error) {
	var subject curriculum.Subject
	err := repo.db.GetContext(ctx, &subject, `
		SELECT s.id, s.name, s.grade_id, s.created_at, g.name AS grade_name
		FROM subjects s JOIN grades g ON g.id = s.grade_id
		WHERE s.id = $1`, id)
	if err != nil {
		return curriculum.Subject{}, orNotFound(err, curriculum.ErrSubjectNotFound)
	}

	var units []curriculum.Unit
	if err = repo.db.SelectContext(ctx, &units,
		`SELECT id, name, subject_id, created_at FROM units WHERE subject_id = $1 ORDER BY name`, id); err != nil {
		return curriculum.Subject{}, err
	}
	var lessons []curriculum.LessonSummary
	if err = repo.db.SelectContext(ctx, &lessons, lessonSummarySelect+`
		JOIN units un ON un.id = l.unit_id
		WHERE un.subject_id = $2 AND NOT l.is_deleted
		ORDER BY l.created_at`, userID, id); err != nil {
		return curriculum.Subject{}, err
	}

	byUnit := make(map[string][]curriculum.LessonSummary)
	for _, l := range lessons {
		byUnit[l.UnitID] = append(byUnit[l.UnitID], l)
	}
	subject.Units = make([]curriculum.Unit, 0, len(units))
	for _, u := range units {
		u.Lessons = append([]curriculum.LessonSummary{}, byUnit[u.ID]...)
		subject.Units = append(subject.Units, u)
	}
	return subject, nil
}

func (repo *curriculumRepository) GetLesson(ctx context.Context, id string) (curriculum.Lesson, error) {
	var lesson curriculum.Lesson
	err := repo.db.GetContext(ctx, &lesson, `
		SELECT l.id, l.title, l.content, l.video_url, l.pdf_url, l.unit_id, l.teacher_id, l.published, l.is_deleted,
			l.created_at, l.updated_at, u.name AS teacher_name, un.name AS unit_name, un.subject_id
		FROM lessons l
		JOIN users u ON u.id = l.teacher_id
		JOIN units un ON un.id = l.unit_id
		WHERE l.id = $1 AND NOT l.is_deleted`, id)
	if err != nil {
		return curriculum.Lesson{}, orNotFound(err, curriculum.ErrLessonNotFound)
	}

	var refs []curriculum.QuizRef
	if err = repo.db.SelectContext(ctx, &refs, `
		SELECT id, title FROM quizzes WHERE lesson_id = $1 AND NOT is_deleted ORDER BY created_at LIMIT 1`, id); err != nil {
		return curriculum.Lesson{}, err
	}
	if len(refs) > 0 {
		lesson.Quiz = &refs[0]
	}
	return lesson, nil
}

func (repo *curriculumRepository) QueryLessons(ctx context.Context, teacherID string) ([]curriculum.LessonSummary, error) {
	lessons := make([]curriculum.LessonSummary, 0)
	err := repo.db.SelectContext(ctx, &lessons, lessonSummarySelect+`
		WHERE NOT l.is_deleted AND ($2 = '' OR l.teacher_id::text = $2)
		ORDER BY l.title`, "", teacherID)
	return lessons, err
}

func (repo *curriculumRepository) CreateLesson(ctx context.Context, lesson curriculum.Lesson) (curriculum.Lesson, error) {
	lesson.ID = newID()
	err := repo.db.QueryRowxContext(ctx, `
		WITH l AS (
			INSERT INTO lessons (id, title, content, video_url, pdf_url, unit_id, teacher_id, published, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
			RETURNING unit_id
		)
		SELECT un.name, un.subject_id FROM l JOIN units un ON un.id = l.unit_id`,
		lesson.ID, lesson.Title, lesson.Content, lesson.VideoURL, lesson.PDFURL, lesson.UnitID, lesson.TeacherID,
		lesson.Published, lesson.CreatedAt, lesson.UpdatedAt,
	).Scan(&lesson.UnitName, &lesson.SubjectID)
	if database.IsForeignKeyViolation(err) {
		return curriculum.Lesson{}, curriculum.ErrUnitNotFound
	}
	return lesson, err
}

func (repo *curriculumRepository) IsLessonCompleted(ctx context.Context, userID, lessonID string) (bool, error) {
	var done bool
	err := repo.db.GetContext(ctx, &done, `
		SELECT EXISTS (SELECT 1 FROM lesson_progress WHERE user_id = $1 AND lesson_id = $2 AND completed)`,
		userID, lessonID)
	return done, err
}

func (repo *curriculumRepository) UpsertProgress(ctx context.Context, p curriculum.Progress) error {
	_, err := repo.db.ExecContext(ctx, `
		INSERT INTO lesson_progress (id, user_id, lesson_id, completed, last_viewed_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (user_id, lesson_id) DO UPDATE SET completed = EXCLUDED.completed, last_viewed_at = EXCLUDED.last_viewed_at`,
		newID(), p.UserID, p.LessonID, p.Completed, p.LastViewedAt)
	return err
}

func (repo *curriculumRepository) TeacherStats(ctx context.Context, teacherID string) (curriculum.TeacherStats, error) {
	var stats curriculum.TeacherStats
	err := repo.db.GetContext(ctx, &stats, `
		SELECT
			(SELECT COUNT(*) FROM lessons WHERE teacher_id = $1 AND NOT is_deleted) AS lessons,
			(SELECT COUNT(*) FROM quizzes WHERE teacher_id = $1 AND NOT is_deleted) AS quizzes,
			(SELECT COUNT(*) FROM subscriptions WHERE teacher_id = $1 AND status = 'APPROVED') AS students`,
		teacherID)
	return stats, err
}
