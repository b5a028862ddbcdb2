package bank

import (
	"time"

	"github.com/trezcool/mansa/core"
)

// Difficulties
const (
	DifficultyEasy   = "EASY"
	DifficultyMedium = "MEDIUM"
	DifficultyHard   = "HARD"
)

type Question struct {
	ID          string    `json:"id" db:"id"`
	Text        string    `json:"text" db:"text"`
	Difficulty  string    `json:"difficulty" db:"difficulty"`
	SubjectID   string    `json:"subject_id" db:"subject_id"`
	UnitID      *string   `json:"unit_id" db:"unit_id"`
	TeacherID   string    `json:"teacher_id" db:"teacher_id"`
	IsDeleted   bool      `json:"-" db:"is_deleted"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
	SubjectName string    `json:"subject_name" db:"subject_name"`
	UnitName    *string   `json:"unit_name" db:"unit_name"`
	Options     []Option  `json:"options" db:"-"`
}

type Option struct {
	ID         string `json:"id" db:"id"`
	QuestionID string `json:"question_id" db:"question_id"`
	Text       string `json:"text" db:"text"`
	IsCorrect  bool   `json:"is_correct" db:"is_correct"`
}

type NewOption struct {
	Text      string `json:"text" validate:"required,notblank"`
	IsCorrect bool   `json:"is_correct"`
}

// NewQuestion contains information needed to add a question to the bank.
type NewQuestion struct {
	Text       string      `json:"text" validate:"required,min=5"`
	Difficulty string      `json:"difficulty" validate:"required,oneof=EASY MEDIUM HARD"`
	SubjectID  string      `json:"subject_id" validate:"required,uuid"`
	UnitID     *string     `json:"unit_id" validate:"omitempty,uuid"`
	Options    []NewOption `json:"options" validate:"required,min=2,dive"`
}

func (nq *NewQuestion) Validate() error {
	nq.Text = core.CleanString(nq.Text)
	nq.Difficulty = core.CleanString(nq.Difficulty)
	nq.SubjectID = core.CleanString(nq.SubjectID)
	nq.UnitID = core.CleanStringPtr(nq.UnitID)
	for i := range nq.Options {
		nq.Options[i].Text = core.CleanString(nq.Options[i].Text)
	}
	return core.Validate.Struct(nq)
}

type Import struct {
	QuizID      string   `json:"quiz_id" validate:"required"`
	QuestionIDs []string `json:"bank_question_ids" validate:"required,min=1"`
}

func (im *Import) Validate() error {
	im.QuizID = core.CleanString(im.QuizID)
	return core.Validate.Struct(im)
}

type QueryFilter struct {
	Search     string
	SubjectID  string
	UnitID     string
	Difficulty string
}

func (qf *QueryFilter) Clean() {
	qf.Search = core.CleanString(qf.Search)
	qf.SubjectID = core.CleanString(qf.SubjectID)
	qf.UnitID = core.CleanString(qf.UnitID)
	qf.Difficulty = core.CleanString(qf.Difficulty)
}
