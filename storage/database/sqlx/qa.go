package sqlxrepos

import (
	"context"

	"github.com/jmoiron/sqlx"

	"github.com/trezcool/mansa/core"
	"github.com/trezcool/mansa/core/qa"
	"github.com/trezcool/mansa/storage/database"
)

const (
	qaQuestionSelect = `
	SELECT q.id, q.title, q.content, q.lesson_id, q.subject_id, q.author_id, q.best_answer_id, q.is_resolved,
		q.is_deleted, q.created_at, q.updated_at,
		u.name AS author_name, u.role AS author_role,
		l.title AS lesson_title, l.teacher_id AS lesson_teacher_id, s.name AS subject_name,
		(SELECT COUNT(*) FROM qa_answers a WHERE a.question_id = q.id AND NOT a.is_deleted) AS answer_count,
		COALESCE(v.upvotes, 0) AS upvotes, COALESCE(v.downvotes, 0) AS downvotes,
		COALESCE(v.upvotes, 0) - COALESCE(v.downvotes, 0) AS vote_score
	FROM qa_questions q
	JOIN users u ON u.id = q.author_id
	LEFT JOIN lessons l ON l.id = q.lesson_id
	LEFT JOIN subjects s ON s.id = q.subject_id
	LEFT JOIN (
		SELECT question_id, COUNT(*) FILTER (WHERE is_upvote) AS upvotes, COUNT(*) FILTER (WHERE NOT is_upvote) AS downvotes
		FROM qa_question_votes GROUP BY question_id
	) v ON v.question_id = q.id`

	qaAnswerSelect = `
	SELECT a.id, a.question_id, a.content, a.author_id, a.is_deleted, a.created_at, a.updated_at,
		u.name AS author_name, u.role AS author_role,
		COALESCE(v.upvotes, 0) AS upvotes, COALESCE(v.downvotes, 0) AS downvotes,
		COALESCE(v.upvotes, 0) - COALESCE(v.downvotes, 0) AS vote_score
	FROM qa_answers a
	JOIN users u ON u.id = a.author_id
	LEFT JOIN (
		SELECT answer_id, COUNT(*) FILTER (WHERE is_upvote) AS upvotes, COUNT(*) FILTER (WHERE NOT is_upvote) AS downvotes
		FROM qa_answer_votes GROUP BY answer_id
	) v ON v.answer_id = a.id`
)

var qaOrderColumns = map[string]string{
	"created_at": "q.created_at",
	"updated_at": "q.updated_at",
	"title":      "q.title",
}

// voteTable returns the table holding the votes of kind and its entity column.
func voteTable(kind string) (string, string, error) {
	switch kind {
	case qa.KindQuestion:
		return "qa_question_votes", "question_id", nil
	case qa.KindAnswer:
		return "qa_answer_votes", "answer_id", nil
	}
	return "", "", qa.ErrUnknownKind
}

type qaRepository struct {
	db *sqlx.DB
}

var _ qa.Repository = (*qaRepository)(nil)

func NewQARepository(db *sqlx.DB) qa.Repository {
	return &qaRepository{db: db}
}

func (repo *qaRepository) QueryQuestions(ctx context.Context, filter qa.QueryFilter, page core.Page) ([]qa.Question, int, error) {
	where := `
		WHERE NOT q.is_deleted
			AND ($1 = '' OR q.lesson_id::text = $1)
			AND ($2 = '' OR q.subject_id::text = $2)
			AND ($3 = '' OR q.author_id::text = $3)
			AND ($4 = '' OR q.title ILIKE $5 OR q.content ILIKE $5)`
	args := []interface{}{filter.LessonID, filter.SubjectID, filter.AuthorID, filter.Search, database.Like(filter.Search)}

	var total int
	if err := repo.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM qa_questions q`+where, args...); err != nil {
		return nil, 0, err
	}
	order := core.OrderingClause([]core.DBOrdering{filter.Ordering}, qaOrderColumns, core.DBOrdering{Field: "q.created_at"})
	limit, offset := limitOffset(page)
	questions := make([]qa.Question, 0)
	err := repo.db.SelectContext(ctx, &questions, qaQuestionSelect+where+`
		ORDER BY `+order+` LIMIT $6 OFFSET $7`, append(args, limit, offset)...)
	return questions, total, err
}

func (repo *qaRepository) GetQuestion(ctx context.Context, id string) (qa.Question, error) {
	var q qa.Question
	err := repo.db.GetContext(ctx, &q, qaQuestionSelect+` WHERE q.id = $1 AND NOT q.is_deleted`, id)
	return q, orNotFound(err, qa.ErrNotFound)
}

func (repo *qaRepository) CreateQuestion(ctx context.Context, q qa.Question) (qa.Question, error) {
	q.ID = newID()
	_, err := repo.db.NamedExecContext(ctx, `
		INSERT INTO qa_questions (id, title, content, lesson_id, subject_id, author_id, created_at, updated_at)
		VALUES (:id, :title, :content, :lesson_id, :subject_id, :author_id, :created_at, :updated_at)`, q)
	if database.IsForeignKeyViolation(err) {
		return qa.Question{}, qa.ErrLessonNotFound
	}
	return q, err
}

func (repo *qaRepository) UpdateQuestion(ctx context.Context, q qa.Question) error {
	res, err := repo.db.ExecContext(ctx,
		`UPDATE qa_questions SET title = $2, content = $3, updated_at = $4 WHERE id = $1`,
		q.ID, q.Title, q.Content, q.UpdatedAt)
	return mustAffect(res, err, qa.ErrNotFound)
}

func (repo *qaRepository) DeleteQuestion(ctx context.Context, id string) error {
	_, err := repo.db.ExecContext(ctx, `UPDATE qa_questions SET is_deleted = true WHERE id = $1`, id)
	return err
}

func (repo *qaRepository) SetBestAnswer(ctx context.Context, questionID string, answerID *string) error {
	res, err := repo.db.ExecContext(ctx,
		`UPDATE qa_questions SET best_answer_id = $2, is_resolved = $2::uuid IS NOT NULL WHERE id = $1`,
		questionID, answerID)
	if database.IsForeignKeyViolation(err) {
		return qa.ErrAnswerNotFound
	}
	return mustAffect(res, err, qa.ErrNotFound)
}

func (repo *qaRepository) QueryAnswers(ctx context.Context, questionID string) ([]qa.Answer, error) {
	answers := make([]qa.Answer, 0)
	err := repo.db.SelectContext(ctx, &answers, qaAnswerSelect+`
		WHERE a.question_id = $1 AND NOT a.is_deleted ORDER BY a.created_at`, questionID)
	return answers, err
}

func (repo *qaRepository) GetAnswer(ctx context.Context, id string) (qa.Answer, error) {
	var a qa.Answer
	err := repo.db.GetContext(ctx, &a, qaAnswerSelect+` WHERE a.id = $1 AND NOT a.is_deleted`, id)
	return a, orNotFound(err, qa.ErrAnswerNotFound)
}

func (repo *qaRepository) CreateAnswer(ctx context.Context, a qa.Answer) (qa.Answer, error) {
	a.ID = newID()
	_, err := repo.db.NamedExecContext(ctx, `
		INSERT INTO qa_answers (id, question_id, content, author_id, created_at, updated_at)
		VALUES (:id, :question_id, :content, :author_id, :created_at, :updated_at)`, a)
	if database.IsForeignKeyViolation(err) {
		return qa.Answer{}, qa.ErrNotFound
	}
	return a, err
}

func (repo *qaRepository) UpdateAnswer(ctx context.Context, a qa.Answer) error {
	res, err := repo.db.ExecContext(ctx,
		`UPDATE qa_answers SET content = $2, updated_at = $3 WHERE id = $1`, a.ID, a.Content, a.UpdatedAt)
	return mustAffect(res, err, qa.ErrAnswerNotFound)
}

func (repo *qaRepository) DeleteAnswer(ctx context.Context, id string) error {
	_, err := repo.db.ExecContext(ctx, `UPDATE qa_answers SET is_deleted = true WHERE id = $1`, id)
	return err
}

func (repo *qaRepository) GetVote(ctx context.Context, kind, entityID, userID string) (qa.Vote, error) {
	table, col, err := voteTable(kind)
	if err != nil {
		return qa.Vote{}, err
	}
	var v qa.Vote
	err = repo.db.GetContext(ctx, &v, `
		SELECT `+col+` AS entity_id, user_id, is_upvote, created_at FROM `+table+` WHERE `+col+` = $1 AND user_id = $2`,
		entityID, userID)
	return v, orNotFound(err, qa.ErrVoteNotFound)
}

func (repo *qaRepository) QueryUserVotes(ctx context.Context, questionID, userID string) ([]qa.Vote, error) {
	votes := make([]qa.Vote, 0)
	err := repo.db.SelectContext(ctx, &votes, `
		SELECT v.answer_id AS entity_id, v.user_id, v.is_upvote, v.created_at
		FROM qa_answer_votes v JOIN qa_answers a ON a.id = v.answer_id
		WHERE a.question_id = $1 AND v.user_id = $2`, questionID, userID)
	return votes, err
}

func (repo *qaRepository) SaveVote(ctx context.Context, kind string, v qa.Vote) error {
	table, col, err := voteTable(kind)
	if err != nil {
		return err
	}
	_, err = repo.db.ExecContext(ctx, `
		INSERT INTO `+table+` (`+col+`, user_id, is_upvote, created_at) VALUES ($1, $2, $3, $4)
		ON CONFLICT (`+col+`, user_id) DO UPDATE SET is_upvote = EXCLUDED.is_upvote`,
		v.EntityID, v.UserID, v.IsUpvote, v.CreatedAt)
	return err
}

func (repo *qaRepository) DeleteVote(ctx context.Context, kind, entityID, userID string) error {
	table, col, err := voteTable(kind)
	if err != nil {
		return err
	}
	_, err = repo.db.ExecContext(ctx, `DELETE FROM `+table+` WHERE `+col+` = $1 AND user_id = $2`, entityID, userID)
	return err
}

func (repo *qaRepository) QueryModerationFeed(ctx context.Context, search string, page core.Page) ([]qa.ModerationItem, int, error) {
	where := `
		FROM qa_questions q JOIN users u ON u.id = q.author_id
		WHERE NOT q.is_deleted AND ($1 = '' OR q.title ILIKE $2 OR q.content ILIKE $2 OR u.name ILIKE $2)`
	args := []interface{}{search, database.Like(search)}

	var total int
	if err := repo.db.GetContext(ctx, &total, `SELECT COUNT(*)`+where, args...); err != nil {
		return nil, 0, err
	}
	limit, offset := limitOffset(page)
	items := make([]qa.ModerationItem, 0)
	err := repo.db.SelectContext(ctx, &items, `
		SELECT q.id, q.title, q.content, q.created_at, q.author_id,
			u.name AS author_name, u.email AS author_email, u.is_blocked AS author_blocked,
			(SELECT COUNT(*) FROM qa_answers a WHERE a.question_id = q.id AND NOT a.is_deleted) AS answer_count`+where+`
		ORDER BY q.created_at DESC LIMIT $3 OFFSET $4`, append(args, limit, offset)...)
	return items, total, err
}
