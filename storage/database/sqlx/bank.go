package sqlxrepos

import (
	"context"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/trezcool/mansa/core"
	"github.com/trezcool/mansa/core/bank"
	"github.com/trezcool/mansa/storage/database"
)

const bankQuestionSelect = `
	SELECT q.id, q.text, q.difficulty, q.subject_id, q.unit_id, q.teacher_id, q.is_deleted, q.created_at,
		s.name AS subject_name, un.name AS unit_name
	FROM bank_questions q
	JOIN subjects s ON s.id = q.subject_id
	LEFT JOIN units un ON un.id = q.unit_id`

type bankRepository struct {
	db *sqlx.DB
}

var _ bank.Repository = (*bankRepository)(nil)

func NewBankRepository(db *sqlx.DB) bank.Repository {
	return &bankRepository{db: db}
}

func (repo *bankRepository) CreateQuestion(ctx context.Context, q bank.Question) (bank.Question, error) {
	q.ID = newID()
	err := database.WithTx(ctx, repo.db, func(tx *sqlx.Tx) error {
		if _, err := tx.NamedExecContext(ctx, `
			INSERT INTO bank_questions (id, text, difficulty, subject_id, unit_id, teacher_id, created_at)
			VALUES (:id, :text, :difficulty, :subject_id, :unit_id, :teacher_id, :created_at)`, q); err != nil {
			return err
		}
		for i := range q.Options {
			q.Options[i].ID = newID()
			q.Options[i].QuestionID = q.ID
			if _, err := tx.ExecContext(ctx, `
				INSERT INTO bank_options (id, question_id, text, is_correct, position) VALUES ($1, $2, $3, $4, $5)`,
				q.Options[i].ID, q.ID, q.Options[i].Text, q.Options[i].IsCorrect, i); err != nil {
				return errors.Wrap(err, "inserting option")
			}
		}
		return nil
	})
	if database.IsForeignKeyViolation(err) {
		return bank.Question{}, bank.ErrSubjectNotFound
	}
	if err != nil {
		return bank.Question{}, err
	}
	return repo.GetQuestion(ctx, q.ID)
}

func (repo *bankRepository) withOptions(ctx context.Context, questions []bank.Question) error {
	if len(questions) == 0 {
		return nil
	}
	ids := make([]string, 0, len(questions))
	for _, q := range questions {
		ids = append(ids, q.ID)
	}
	query, args, err := in(repo.db, `
		SELECT id, question_id, text, is_correct FROM bank_options WHERE question_id IN (?) ORDER BY position`, ids)
	if err != nil {
		return errors.Wrap(err, "building query")
	}
	var options []bank.Option
	if err = repo.db.SelectContext(ctx, &options, query, args...); err != nil {
		return errors.Wrap(err, "selecting options")
	}

	byQuestion := make(map[string][]bank.Option, len(questions))
	for _, o := range options {
		byQuestion[o.QuestionID] = append(byQuestion[o.QuestionID], o)
	}
	for i := range questions {
		questions[i].Options = append([]bank.Option{}, byQuestion[questions[i].ID]...)
	}
	return nil
}

func (repo *bankRepository) GetQuestion(ctx context.Context, id string) (bank.Question, error) {
	var q bank.Question
	if err := repo.db.GetContext(ctx, &q, bankQuestionSelect+` WHERE q.id = $1 AND NOT q.is_deleted`, id); err != nil {
		return bank.Question{}, orNotFound(err, bank.ErrNotFound)
	}
	questions := []bank.Question{q}
	if err := repo.withOptions(ctx, questions); err != nil {
		return bank.Question{}, err
	}
	return questions[0], nil
}

func (repo *bankRepository) GetQuestions(ctx context.Context, ids []string) ([]bank.Question, error) {
	questions := make([]bank.Question, 0, len(ids))
	valid := make([]string, 0, len(ids))
	for _, id := range ids {
		if isUUID(id) {
			valid = append(valid, id)
		}
	}
	if len(valid) == 0 {
		return questions, nil
	}
	query, args, err := in(repo.db, bankQuestionSelect+` WHERE q.id IN (?) AND NOT q.is_deleted`, valid)
	if err != nil {
		return nil, errors.Wrap(err, "building query")
	}
	var found []bank.Question
	if err = repo.db.SelectContext(ctx, &found, query, args...); err != nil {
		return nil, err
	}
	if err = repo.withOptions(ctx, found); err != nil {
		return nil, err
	}

	// keep the requested order
	byID := make(map[string]bank.Question, len(found))
	for _, q := range found {
		byID[q.ID] = q
	}
	for _, id := range valid {
		if q, ok := byID[id]; ok {
			questions = append(questions, q)
		}
	}
	return questions, nil
}

func (repo *bankRepository) QueryQuestions(ctx context.Context, filter bank.QueryFilter, page core.Page) ([]bank.Question, int, error) {
	where := `
		WHERE NOT q.is_deleted
			AND ($1 = '' OR q.subject_id::text = $1)
			AND ($2 = '' OR q.unit_id::text = $2)
			AND ($3 = '' OR q.difficulty = $3)
			AND ($4 = '' OR q.text ILIKE $5)`
	args := []interface{}{filter.SubjectID, filter.UnitID, filter.Difficulty, filter.Search, database.Like(filter.Search)}

	var total int
	if err := repo.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM bank_questions q`+where, args...); err != nil {
		return nil, 0, err
	}
	limit, offset := limitOffset(page)
	questions := make([]bank.Question, 0)
	if err := repo.db.SelectContext(ctx, &questions, bankQuestionSelect+where+`
		ORDER BY q.created_at DESC LIMIT $6 OFFSET $7`, append(args, limit, offset)...); err != nil {
		return nil, 0, err
	}
	return questions, total, repo.withOptions(ctx, questions)
}

func (repo *bankRepository) DeleteQuestion(ctx context.Context, id string) error {
	_, err := repo.db.ExecContext(ctx, `UPDATE bank_questions SET is_deleted = true WHERE id = $1`, id)
	return err
}
