package sqlxrepos

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/trezcool/mansa/core"
	"github.com/trezcool/mansa/core/quiz"
	"github.com/trezcool/mansa/storage/database"
)

const (
	quizColumns   = `q.id, q.title, q.description, q.teacher_id, q.lesson_id, q.published, q.is_deleted, q.created_at, q.updated_at`
	resultColumns = `r.id, r.attempt_id, r.user_id, r.quiz_id, r.score, r.total, r.percentage, r.passed, r.created_at`
)

type quizRepository struct {
	db *sqlx.DB
}

var _ quiz.Repository = (*quizRepository)(nil)

func NewQuizRepository(db *sqlx.DB) quiz.Repository {
	return &quizRepository{db: db}
}

func insertQuestions(ctx context.Context, tx *sqlx.Tx, quizID string, questions []quiz.Question) ([]quiz.Question, error) {
	saved := make([]quiz.Question, 0, len(questions))
	for _, q := range questions {
		q.ID = newID()
		q.QuizID = quizID
		if _, err := tx.NamedExecContext(ctx, `
			INSERT INTO quiz_questions (id, quiz_id, text, type, points, position, created_at)
			VALUES (:id, :quiz_id, :text, :type, :points, :position, :created_at)`, q); err != nil {
			return nil, errors.Wrap(err, "inserting question")
		}
		options := make([]quiz.Option, 0, len(q.Options))
		for _, o := range q.Options {
			o.ID = newID()
			o.QuestionID = q.ID
			if _, err := tx.NamedExecContext(ctx, `
				INSERT INTO quiz_options (id, question_id, text, is_correct, position)
				VALUES (:id, :question_id, :text, :is_correct, :position)`, o); err != nil {
				return nil, errors.Wrap(err, "inserting option")
			}
			options = append(options, o)
		}
		q.Options = options
		saved = append(saved, q)
	}
	return saved, nil
}

func (repo *quizRepository) CreateQuiz(ctx context.Context, qz quiz.Quiz) (quiz.Quiz, error) {
	qz.ID = newID()
	err := database.WithTx(ctx, repo.db, func(tx *sqlx.Tx) error {
		if _, err := tx.NamedExecContext(ctx, `
			INSERT INTO quizzes (id, title, description, teacher_id, lesson_id, published, created_at, updated_at)
			VALUES (:id, :title, :description, :teacher_id, :lesson_id, :published, :created_at, :updated_at)`, qz); err != nil {
			return errors.Wrap(err, "inserting quiz")
		}
		questions, err := insertQuestions(ctx, tx, qz.ID, qz.Questions)
		qz.Questions = questions
		return err
	})
	if err != nil {
		return quiz.Quiz{}, err
	}
	return qz, nil
}

func (repo *quizRepository) CreateQuestions(ctx context.Context, quizID string, questions []quiz.Question) ([]quiz.Question, error) {
	var saved []quiz.Question
	err := database.WithTx(ctx, repo.db, func(tx *sqlx.Tx) error {
		var err error
		saved, err = insertQuestions(ctx, tx, quizID, questions)
		return err
	})
	if database.IsForeignKeyViolation(err) {
		return nil, quiz.ErrNotFound
	}
	return saved, err
}

func (repo *quizRepository) loadQuestions(ctx context.Context, qz *quiz.Quiz) error {
	questions := make([]quiz.Question, 0)
	if err := repo.db.SelectContext(ctx, &questions, `
		SELECT id, quiz_id, text, type, points, position, created_at
		FROM quiz_questions WHERE quiz_id = $1 ORDER BY position, created_at`, qz.ID); err != nil {
		return errors.Wrap(err, "selecting questions")
	}
	var options []quiz.Option
	if err := repo.db.SelectContext(ctx, &options, `
		SELECT o.id, o.question_id, o.text, o.is_correct, o.position
		FROM quiz_options o JOIN quiz_questions q ON q.id = o.question_id
		WHERE q.quiz_id = $1 ORDER BY o.position`, qz.ID); err != nil {
		return errors.Wrap(err, "selecting options")
	}

	byQuestion := make(map[string][]quiz.Option, len(questions))
	for _, o := range options {
		byQuestion[o.QuestionID] = append(byQuestion[o.QuestionID], o)
	}
	for i := range questions {
		questions[i].Options = append([]quiz.Option{}, byQuestion[questions[i].ID]...)
	}
	qz.Questions = questions
	return nil
}

func (repo *quizRepository) GetQuiz(ctx context.Context, id string) (quiz.Quiz, error) {
	var qz quiz.Quiz
	err := repo.db.GetContext(ctx, &qz, `SELECT `+quizColumns+` FROM quizzes q WHERE q.id = $1 AND NOT q.is_deleted`, id)
	if err != nil {
		return quiz.Quiz{}, orNotFound(err, quiz.ErrNotFound)
	}
	if err = repo.loadQuestions(ctx, &qz); err != nil {
		return quiz.Quiz{}, err
	}
	return qz, nil
}

func (repo *quizRepository) QueryQuizzes(ctx context.Context, filter quiz.QueryFilter, page core.Page) ([]quiz.Quiz, int, error) {
	where := ` WHERE NOT q.is_deleted AND ($1 = '' OR q.teacher_id::text = $1) AND ($2 = '' OR q.title ILIKE $3)`
	args := []interface{}{filter.TeacherID, filter.Search, database.Like(filter.Search)}

	var total int
	if err := repo.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM quizzes q`+where, args...); err != nil {
		return nil, 0, err
	}
	limit, offset := limitOffset(page)
	quizzes := make([]quiz.Quiz, 0)
	err := repo.db.SelectContext(ctx, &quizzes, `
		SELECT `+quizColumns+`, u.name AS teacher_name,
			(SELECT COUNT(*) FROM quiz_questions qq WHERE qq.quiz_id = q.id) AS question_count,
			(SELECT COUNT(*) FROM quiz_attempts a WHERE a.quiz_id = q.id) AS attempt_count
		FROM quizzes q JOIN users u ON u.id = q.teacher_id`+where+`
		ORDER BY q.created_at DESC LIMIT $4 OFFSET $5`,
		append(args, limit, offset)...)
	return quizzes, total, err
}

func (repo *quizRepository) UpdateQuiz(ctx context.Context, qz quiz.Quiz) (quiz.Quiz, error) {
	res, err := repo.db.NamedExecContext(ctx, `
		UPDATE quizzes SET title = :title, description = :description, published = :published, updated_at = :updated_at
		WHERE id = :id`, qz)
	if err = mustAffect(res, err, quiz.ErrNotFound); err != nil {
		return quiz.Quiz{}, err
	}
	return qz, nil
}

func (repo *quizRepository) DeleteQuiz(ctx context.Context, id string) error {
	_, err := repo.db.ExecContext(ctx, `UPDATE quizzes SET is_deleted = true WHERE id = $1`, id)
	return err
}

func (repo *quizRepository) CountAttempts(ctx context.Context, quizID string) (int, error) {
	var n int
	err := repo.db.GetContext(ctx, &n, `SELECT COUNT(*) FROM quiz_attempts WHERE quiz_id = $1`, quizID)
	return n, err
}

func (repo *quizRepository) GetAttempt(ctx context.Context, id string) (quiz.Attempt, error) {
	var a quiz.Attempt
	err := repo.db.GetContext(ctx, &a, `SELECT id, user_id, quiz_id, started_at, completed_at FROM quiz_attempts WHERE id = $1`, id)
	return a, orNotFound(err, quiz.ErrAttemptNotFound)
}

func (repo *quizRepository) GetUserAttempt(ctx context.Context, userID, quizID string) (quiz.Attempt, error) {
	var a quiz.Attempt
	err := repo.db.GetContext(ctx, &a, `
		SELECT id, user_id, quiz_id, started_at, completed_at FROM quiz_attempts WHERE user_id = $1 AND quiz_id = $2`,
		userID, quizID)
	return a, orNotFound(err, quiz.ErrAttemptNotFound)
}

func (repo *quizRepository) CreateAttempt(ctx context.Context, attempt quiz.Attempt) (quiz.Attempt, error) {
	attempt.ID = newID()
	_, err := repo.db.NamedExecContext(ctx, `
		INSERT INTO quiz_attempts (id, user_id, quiz_id, started_at) VALUES (:id, :user_id, :quiz_id, :started_at)`, attempt)
	switch {
	case database.IsUniqueViolation(err):
		return quiz.Attempt{}, quiz.ErrAttemptExists
	case database.IsForeignKeyViolation(err):
		return quiz.Attempt{}, quiz.ErrNotFound
	case err != nil:
		return quiz.Attempt{}, err
	}
	return attempt, nil
}

func (repo *quizRepository) CompleteAttempt(ctx context.Context, attempt quiz.Attempt, answers []quiz.Answer, res quiz.Result) (quiz.Result, error) {
	res.ID = newID()
	err := database.WithTx(ctx, repo.db, func(tx *sqlx.Tx) error {
		// the completed_at guard makes concurrent submissions of the same attempt fail
		r, err := tx.ExecContext(ctx,
			`UPDATE quiz_attempts SET completed_at = $2 WHERE id = $1 AND completed_at IS NULL`,
			attempt.ID, attempt.CompletedAt)
		if err = mustAffect(r, err, quiz.ErrAlreadyCompleted); err != nil {
			return err
		}

		for _, ans := range answers {
			ans.ID = newID()
			ans.AttemptID = attempt.ID
			if _, err = tx.NamedExecContext(ctx, `
				INSERT INTO quiz_answers (id, attempt_id, question_id, selected_option_id)
				VALUES (:id, :attempt_id, :question_id, :selected_option_id)
				ON CONFLICT (attempt_id, question_id) DO NOTHING`, ans); err != nil {
				return errors.Wrap(err, "inserting answer")
			}
		}

		_, err = tx.NamedExecContext(ctx, `
			INSERT INTO results (id, attempt_id, user_id, quiz_id, score, total, percentage, passed, created_at)
			VALUES (:id, :attempt_id, :user_id, :quiz_id, :score, :total, :percentage, :passed, :created_at)`, res)
		return errors.Wrap(err, "inserting result")
	})
	if err != nil {
		return quiz.Result{}, err
	}
	return res, nil
}

func (repo *quizRepository) GetAnswers(ctx context.Context, attemptID string) ([]quiz.Answer, error) {
	answers := make([]quiz.Answer, 0)
	err := repo.db.SelectContext(ctx, &answers, `
		SELECT a.id, a.attempt_id, a.question_id, a.selected_option_id
		FROM quiz_answers a JOIN quiz_questions q ON q.id = a.question_id
		WHERE a.attempt_id = $1 ORDER BY q.position`, attemptID)
	return answers, err
}

func (repo *quizRepository) GetResult(ctx context.Context, attemptID string) (quiz.Result, error) {
	var res quiz.Result
	err := repo.db.GetContext(ctx, &res, `SELECT `+resultColumns+` FROM results r WHERE r.attempt_id = $1`, attemptID)
	return res, orNotFound(err, quiz.ErrResultNotFound)
}

func (repo *quizRepository) QueryAllResults(ctx context.Context) ([]quiz.Result, error) {
	results := make([]quiz.Result, 0)
	err := repo.db.SelectContext(ctx, &results, `SELECT `+resultColumns+` FROM results r ORDER BY r.created_at`)
	return results, err
}

func (repo *quizRepository) UpdateResultPercentage(ctx context.Context, id string, percentage float64) error {
	res, err := repo.db.ExecContext(ctx, `UPDATE results SET percentage = $2 WHERE id = $1`, id, percentage)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return quiz.ErrResultNotFound
	}
	return nil
}

func (repo *quizRepository) QueryUserResults(ctx context.Context, userID string) ([]quiz.Result, error) {
	results := make([]quiz.Result, 0)
	err := repo.db.SelectContext(ctx, &results, `
		SELECT `+resultColumns+`, q.title AS quiz_title
		FROM results r JOIN quizzes q ON q.id = r.quiz_id
		WHERE r.user_id = $1 ORDER BY r.created_at DESC`, userID)
	return results, err
}

func (repo *quizRepository) QueryQuizResults(ctx context.Context, quizID string) ([]quiz.AttemptResult, error) {
	var rows []struct {
		quiz.Result
		StartedAt   time.Time `db:"started_at"`
		CompletedAt time.Time `db:"completed_at"`
		UserName    string    `db:"user_name"`
		UserEmail   string    `db:"user_email"`
	}
	err := repo.db.SelectContext(ctx, &rows, `
		SELECT `+resultColumns+`, a.started_at, a.completed_at, u.name AS user_name, u.email AS user_email
		FROM results r
		JOIN quiz_attempts a ON a.id = r.attempt_id
		JOIN users u ON u.id = r.user_id
		WHERE r.quiz_id = $1 AND a.completed_at IS NOT NULL
		ORDER BY a.completed_at DESC`, quizID)
	if err != nil {
		return nil, err
	}

	results := make([]quiz.AttemptResult, 0, len(rows))
	for _, row := range rows {
		completedAt := row.CompletedAt
		results = append(results, quiz.AttemptResult{
			Attempt: quiz.Attempt{
				ID:          row.AttemptID,
				UserID:      row.UserID,
				QuizID:      row.QuizID,
				StartedAt:   row.StartedAt,
				CompletedAt: &completedAt,
			},
			UserName:  row.UserName,
			UserEmail: row.UserEmail,
			Result:    row.Result,
		})
	}
	return results, nil
}
