package curriculum

import (
	"time"

	"github.com/trezcool/mansa/core"
)

type Stage struct {
	ID        string    `json:"id" db:"id"`
	Name      string    `json:"name" db:"name"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	Grades    []Grade   `json:"grades" db:"-"`
}

type Grade struct {
	ID        string    `json:"id" db:"id"`
	Name      string    `json:"name" db:"name"`
	StageID   string    `json:"stage_id" db:"stage_id"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	Subjects  []Subject `json:"subjects" db:"-"`
}

type Subject struct {
	ID        string    `json:"id" db:"id"`
	Name      string    `json:"name" db:"name"`
	GradeID   string    `json:"grade_id" db:"grade_id"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	GradeName string    `json:"grade_name,omitempty" db:"grade_name"`
	Units     []Unit    `json:"units,omitempty" db:"-"`
}

type Unit struct {
	ID        string          `json:"id" db:"id"`
	Name      string          `json:"name" db:"name"`
	SubjectID string          `json:"subject_id" db:"subject_id"`
	CreatedAt time.Time       `json:"created_at" db:"created_at"`
	Lessons   []LessonSummary `json:"lessons" db:"-"`
}

type Lesson struct {
	ID        string    `json:"id" db:"id"`
	Title     string    `json:"title" db:"title"`
	Content   string    `json:"content" db:"content"`
	VideoURL  *string   `json:"video_url" db:"video_url"`
	PDFURL    *string   `json:"pdf_url" db:"pdf_url"`
	UnitID    string    `json:"unit_id" db:"unit_id"`
	TeacherID string    `json:"teacher_id" db:"teacher_id"`
	Published bool      `json:"published" db:"published"`
	IsDeleted bool      `json:"-" db:"is_deleted"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`

	TeacherName string   `json:"teacher_name,omitempty" db:"teacher_name"`
	UnitName    string   `json:"unit_name,omitempty" db:"unit_name"`
	SubjectID   string   `json:"subject_id,omitempty" db:"subject_id"`
	Completed   bool     `json:"completed" db:"-"`
	Quiz        *QuizRef `json:"quiz" db:"-"`
}

type LessonSummary struct {
	ID          string    `json:"id" db:"id"`
	Title       string    `json:"title" db:"title"`
	UnitID      string    `json:"unit_id" db:"unit_id"`
	TeacherID   string    `json:"teacher_id" db:"teacher_id"`
	TeacherName string    `json:"teacher_name" db:"teacher_name"`
	Published   bool      `json:"published" db:"published"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
	Completed   bool      `json:"completed" db:"completed"`
}

type QuizRef struct {
	ID    string `json:"id" db:"id"`
	Title string `json:"title" db:"title"`
}

type Progress struct {
	UserID       string    `db:"user_id"`
	LessonID     string    `db:"lesson_id"`
	Completed    bool      `db:"completed"`
	LastViewedAt time.Time `db:"last_viewed_at"`
}

type TeacherStats struct {
	Lessons  int `json:"lessons" db:"lessons"`
	Quizzes  int `json:"quizzes" db:"quizzes"`
	Students int `json:"students" db:"students"`
}

type NewStage struct {
	Name string `json:"name" validate:"required,notblank,max=255"`
}

func (ns *NewStage) Validate() error {
	ns.Name = core.CleanString(ns.Name)
	return core.Validate.Struct(ns)
}

type NewGrade struct {
	Name    string `json:"name" validate:"required,notblank,max=255"`
	StageID string `json:"stage_id" validate:"required,uuid"`
}

func (ng *NewGrade) Validate() error {
	ng.Name = core.CleanString(ng.Name)
	ng.StageID = core.CleanString(ng.StageID)
	return core.Validate.Struct(ng)
}

type NewSubject struct {
	Name    string `json:"name" validate:"required,notblank,max=255"`
	GradeID string `json:"grade_id" validate:"required,uuid"`
}

func (ns *NewSubject) Validate() error {
	ns.Name = core.CleanString(ns.Name)
	ns.GradeID = core.CleanString(ns.GradeID)
	return core.Validate.Struct(ns)
}

type NewUnit struct {
	Name      string `json:"name" validate:"required,notblank,max=255"`
	SubjectID string `json:"subject_id" validate:"required,uuid"`
}

func (nu *NewUnit) Validate() error {
	nu.Name = core.CleanString(nu.Name)
	nu.SubjectID = core.CleanString(nu.SubjectID)
	return core.Validate.Struct(nu)
}

// NewLesson contains information needed to create a new Lesson.
type NewLesson struct {
	Title     string  `json:"title" validate:"required,notblank,max=255"`
	Content   string  `json:"content"`
	VideoURL  *string `json:"video_url" validate:"omitempty,url|startswith=/"`
	PDFURL    *string `json:"pdf_url" validate:"omitempty,url|startswith=/"`
	UnitID    string  `json:"unit_id" validate:"required,uuid"`
	Published bool    `json:"published"`
}

func (nl *NewLesson) Validate() error {
	nl.Title = core.StripHTML(nl.Title)
	nl.Content = core.SanitizeHTML(nl.Content)
	nl.VideoURL = core.CleanStringPtr(nl.VideoURL)
	nl.PDFURL = core.CleanStringPtr(nl.PDFURL)
	nl.UnitID = core.CleanString(nl.UnitID)
	return core.Validate.Struct(nl)
}
