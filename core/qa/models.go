package qa

import (
	"time"

	"github.com/trezcool/mansa/core"
)

// Content kinds, used for votes and moderation.
const (
	KindQuestion = "question"
	KindAnswer   = "answer"
)

// Orderable fields of questions.
var orderFields = map[string]bool{"created_at": true, "updated_at": true, "title": true}

type Question struct {
	ID           string    `json:"id" db:"id"`
	Title        string    `json:"title" db:"title"`
	Content      string    `json:"content" db:"content"`
	LessonID     *string   `json:"lesson_id" db:"lesson_id"`
	SubjectID    *string   `json:"subject_id" db:"subject_id"`
	AuthorID     string    `json:"author_id" db:"author_id"`
	BestAnswerID *string   `json:"best_answer_id" db:"best_answer_id"`
	IsResolved   bool      `json:"is_resolved" db:"is_resolved"`
	IsDeleted    bool      `json:"-" db:"is_deleted"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time `json:"updated_at" db:"updated_at"`

	AuthorName      string  `json:"author_name" db:"author_name"`
	AuthorRole      string  `json:"author_role" db:"author_role"`
	LessonTitle     *string `json:"lesson_title" db:"lesson_title"`
	LessonTeacherID *string `json:"-" db:"lesson_teacher_id"`
	SubjectName     *string `json:"subject_name" db:"subject_name"`
	AnswerCount     int     `json:"answer_count" db:"answer_count"`
	Tally

	UserVote *Vote    `json:"user_vote,omitempty" db:"-"`
	Answers  []Answer `json:"answers,omitempty" db:"-"`
}

type Answer struct {
	ID         string    `json:"id" db:"id"`
	QuestionID string    `json:"question_id" db:"question_id"`
	Content    string    `json:"content" db:"content"`
	AuthorID   string    `json:"author_id" db:"author_id"`
	IsDeleted  bool      `json:"-" db:"is_deleted"`
	CreatedAt  time.Time `json:"created_at" db:"created_at"`
	UpdatedAt  time.Time `json:"updated_at" db:"updated_at"`

	AuthorName   string `json:"author_name" db:"author_name"`
	AuthorRole   string `json:"author_role" db:"author_role"`
	IsBestAnswer bool   `json:"is_best_answer" db:"-"`
	Tally

	UserVote *Vote `json:"user_vote,omitempty" db:"-"`
}

// ModerationItem is a question as seen by moderators.
type ModerationItem struct {
	ID            string    `json:"id" db:"id"`
	Title         string    `json:"title" db:"title"`
	Content       string    `json:"content" db:"content"`
	CreatedAt     time.Time `json:"created_at" db:"created_at"`
	AuthorID      string    `json:"author_id" db:"author_id"`
	AuthorName    string    `json:"author_name" db:"author_name"`
	AuthorEmail   string    `json:"author_email" db:"author_email"`
	AuthorBlocked bool      `json:"author_blocked" db:"author_blocked"`
	AnswerCount   int       `json:"answer_count" db:"answer_count"`
}

// NewQuestion contains information needed to ask a new Question.
type NewQuestion struct {
	Title     string  `json:"title" validate:"required,notblank,max=255"`
	Content   string  `json:"content" validate:"required,notblank"`
	LessonID  *string `json:"lesson_id" validate:"omitempty,uuid"`
	SubjectID *string `json:"subject_id" validate:"omitempty,uuid"`
}

func (nq *NewQuestion) Validate() error {
	nq.Title = core.StripHTML(nq.Title)
	nq.Content = core.SanitizeHTML(nq.Content)
	nq.LessonID = core.CleanStringPtr(nq.LessonID)
	nq.SubjectID = core.CleanStringPtr(nq.SubjectID)
	return core.Validate.Struct(nq)
}

// UpdateQuestion defines what information may be provided to modify an existing Question.
type UpdateQuestion struct {
	Title   *string `json:"title" validate:"omitempty,notblank,max=255"`
	Content *string `json:"content" validate:"omitempty,notblank"`
}

func (uq *UpdateQuestion) Validate() error {
	if uq.Title != nil {
		t := core.StripHTML(*uq.Title)
		uq.Title = &t
	}
	if uq.Content != nil {
		c := core.SanitizeHTML(*uq.Content)
		uq.Content = &c
	}
	return core.Validate.Struct(uq)
}

// AnswerInput contains the content of a new or edited Answer.
type AnswerInput struct {
	Content string `json:"content" validate:"required,notblank"`
}

func (ai *AnswerInput) Validate() error {
	ai.Content = core.SanitizeHTML(ai.Content)
	return core.Validate.Struct(ai)
}

type QueryFilter struct {
	LessonID  string
	SubjectID string
	AuthorID  string
	Search    string
	Ordering  core.DBOrdering
}

func (qf *QueryFilter) Clean() {
	qf.LessonID = core.CleanString(qf.LessonID)
	qf.SubjectID = core.CleanString(qf.SubjectID)
	qf.AuthorID = core.CleanString(qf.AuthorID)
	qf.Search = core.CleanString(qf.Search)
	if !orderFields[qf.Ordering.Field] {
		qf.Ordering = core.DBOrdering{Field: "created_at"}
	}
}
