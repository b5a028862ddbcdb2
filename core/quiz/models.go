package quiz

import (
	"time"

	"github.com/trezcool/mansa/core"
)

// Question types
const (
	TypeMCQ       = "MCQ"
	TypeTrueFalse = "TRUE_FALSE"
)

type Quiz struct {
	ID          string     `json:"id" db:"id"`
	Title       string     `json:"title" db:"title"`
	Description string     `json:"description" db:"description"`
	TeacherID   string     `json:"teacher_id" db:"teacher_id"`
	LessonID    *string    `json:"lesson_id" db:"lesson_id"`
	Published   bool       `json:"published" db:"published"`
	IsDeleted   bool       `json:"-" db:"is_deleted"`
	CreatedAt   time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at" db:"updated_at"`
	Questions   []Question `json:"questions,omitempty" db:"-"`

	// list views
	TeacherName   string `json:"teacher_name,omitempty" db:"teacher_name"`
	QuestionCount int    `json:"question_count" db:"question_count"`
	AttemptCount  int    `json:"attempt_count" db:"attempt_count"`
}

type Question struct {
	ID        string    `json:"id" db:"id"`
	QuizID    string    `json:"quiz_id" db:"quiz_id"`
	Text      string    `json:"text" db:"text"`
	Type      string    `json:"type" db:"type"`
	Points    int       `json:"points" db:"points"`
	Position  int       `json:"-" db:"position"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	Options   []Option  `json:"options" db:"-"`
}

type Option struct {
	ID         string `json:"id" db:"id"`
	QuestionID string `json:"question_id" db:"question_id"`
	Text       string `json:"text" db:"text"`
	IsCorrect  bool   `json:"is_correct" db:"is_correct"`
	Position   int    `json:"-" db:"position"`
}

// TotalPoints sums the points of all the questions.
func (qz Quiz) TotalPoints() int {
	var total int
	for _, q := range qz.Questions {
		total += q.Points
	}
	return total
}

// PublicQuiz is the student view of a Quiz: the correct options are not disclosed.
type PublicQuiz struct {
	ID          string           `json:"id"`
	Title       string           `json:"title"`
	Description string           `json:"description"`
	TeacherID   string           `json:"teacher_id"`
	LessonID    *string          `json:"lesson_id"`
	Published   bool             `json:"published"`
	CreatedAt   time.Time        `json:"created_at"`
	Questions   []PublicQuestion `json:"questions"`
}

type PublicQuestion struct {
	ID      string         `json:"id"`
	Text    string         `json:"text"`
	Type    string         `json:"type"`
	Points  int            `json:"points"`
	Options []PublicOption `json:"options"`
}

type PublicOption struct {
	ID   string `json:"id"`
	Text string `json:"text"`
}

func (qz Quiz) Public() PublicQuiz {
	pq := PublicQuiz{
		ID:          qz.ID,
		Title:       qz.Title,
		Description: qz.Description,
		TeacherID:   qz.TeacherID,
		LessonID:    qz.LessonID,
		Published:   qz.Published,
		CreatedAt:   qz.CreatedAt,
		Questions:   make([]PublicQuestion, 0, len(qz.Questions)),
	}
	for _, q := range qz.Questions {
		pqs := PublicQuestion{ID: q.ID, Text: q.Text, Type: q.Type, Points: q.Points, Options: make([]PublicOption, 0, len(q.Options))}
		for _, o := range q.Options {
			pqs.Options = append(pqs.Options, PublicOption{ID: o.ID, Text: o.Text})
		}
		pq.Questions = append(pq.Questions, pqs)
	}
	return pq
}

type Attempt struct {
	ID          string     `json:"id" db:"id"`
	UserID      string     `json:"user_id" db:"user_id"`
	QuizID      string     `json:"quiz_id" db:"quiz_id"`
	StartedAt   time.Time  `json:"started_at" db:"started_at"`
	CompletedAt *time.Time `json:"completed_at" db:"completed_at"`
}

func (a Attempt) IsCompleted() bool { return a.CompletedAt != nil }

type Answer struct {
	ID               string  `json:"id" db:"id"`
	AttemptID        string  `json:"attempt_id" db:"attempt_id"`
	QuestionID       string  `json:"question_id" db:"question_id"`
	SelectedOptionID *string `json:"selected_option_id" db:"selected_option_id"`
}

type Result struct {
	ID         string    `json:"id" db:"id"`
	AttemptID  string    `json:"attempt_id" db:"attempt_id"`
	UserID     string    `json:"user_id" db:"user_id"`
	QuizID     string    `json:"quiz_id" db:"quiz_id"`
	Score      int       `json:"score" db:"score"`
	Total      int       `json:"total" db:"total"`
	Percentage float64   `json:"percentage" db:"percentage"`
	Passed     bool      `json:"passed" db:"passed"`
	CreatedAt  time.Time `json:"created_at" db:"created_at"`
	QuizTitle  string    `json:"quiz_title,omitempty" db:"quiz_title"`
}

// AttemptResult is a completed attempt with its user and Result, as seen by the quiz owner.
type AttemptResult struct {
	Attempt
	UserName  string `json:"user_name" db:"user_name"`
	UserEmail string `json:"user_email" db:"user_email"`
	Result    Result `json:"result" db:"result"`
}

type AttemptReview struct {
	Attempt Attempt  `json:"attempt"`
	Quiz    Quiz     `json:"quiz"`
	Answers []Answer `json:"answers"`
	Result  *Result  `json:"result"`
}

// NewOption contains information needed to create a new Option.
type NewOption struct {
	Text      string `json:"text" validate:"required,notblank"`
	IsCorrect bool   `json:"is_correct"`
}

// NewQuestion contains information needed to create a new Question.
type NewQuestion struct {
	Text    string      `json:"text" validate:"required,notblank"`
	Type    string      `json:"type" validate:"omitempty,oneof=MCQ TRUE_FALSE"`
	Points  int         `json:"points" validate:"gte=0"`
	Options []NewOption `json:"options" validate:"required,min=2,dive"`
}

func (nq *NewQuestion) Clean() {
	nq.Text = core.CleanString(nq.Text)
	if nq.Type == "" {
		nq.Type = TypeMCQ
	}
	if nq.Points < 1 {
		nq.Points = 1
	}
	for i := range nq.Options {
		nq.Options[i].Text = core.CleanString(nq.Options[i].Text)
	}
}

func (nq *NewQuestion) Validate() error {
	nq.Clean()
	return core.Validate.Struct(nq)
}

// NewQuiz contains information needed to create a new Quiz.
type NewQuiz struct {
	Title       string        `json:"title" validate:"required,notblank,max=255"`
	Description string        `json:"description"`
	LessonID    *string       `json:"lesson_id" validate:"omitempty,uuid"`
	Published   bool          `json:"published"`
	Questions   []NewQuestion `json:"questions" validate:"dive"`
}

func (nq *NewQuiz) Validate() error {
	nq.Title = core.CleanString(nq.Title)
	nq.Description = core.CleanString(nq.Description)
	nq.LessonID = core.CleanStringPtr(nq.LessonID)
	for i := range nq.Questions {
		nq.Questions[i].Clean()
	}
	return core.Validate.Struct(nq)
}

// UpdateQuiz defines what information may be provided to modify an existing Quiz.
type UpdateQuiz struct {
	Title       *string `json:"title" validate:"omitempty,notblank,max=255"`
	Description *string `json:"description"`
	Published   *bool   `json:"published"`
}

func (uq *UpdateQuiz) Validate() error {
	if uq.Title != nil {
		t := core.CleanString(*uq.Title)
		uq.Title = &t
	}
	if uq.Description != nil {
		d := core.CleanString(*uq.Description)
		uq.Description = &d
	}
	return core.Validate.Struct(uq)
}

type SubmittedAnswer struct {
	QuestionID       string `json:"question_id" validate:"required"`
	SelectedOptionID string `json:"selected_option_id"`
}

type Submission struct {
	AttemptID string            `json:"attempt_id" validate:"required"`
	Answers   []SubmittedAnswer `json:"answers" validate:"dive"`
}

func (s *Submission) Validate() error {
	s.AttemptID = core.CleanString(s.AttemptID)
	return core.Validate.Struct(s)
}

type QueryFilter struct {
	TeacherID string
	Search    string
}
