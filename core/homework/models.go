package homework

import (
	"time"

	"github.com/trezcool/mansa/core"
)

// Submission statuses
const (
	StatusSubmitted = "SUBMITTED"
	StatusGraded    = "GRADED"
)

type Assignment struct {
	ID          string    `json:"id" db:"id"`
	Title       string    `json:"title" db:"title"`
	Description string    `json:"description" db:"description"`
	FileURL     *string   `json:"file_url" db:"file_url"`
	DueDate     time.Time `json:"due_date" db:"due_date"`
	SubjectID   string    `json:"subject_id" db:"subject_id"`
	TeacherID   string    `json:"teacher_id" db:"teacher_id"`
	Published   bool      `json:"published" db:"published"`
	IsDeleted   bool      `json:"-" db:"is_deleted"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`

	SubjectName     string `json:"subject_name" db:"subject_name"`
	TeacherName     string `json:"teacher_name" db:"teacher_name"`
	SubmissionCount int    `json:"submission_count" db:"submission_count"`
}

type Submission struct {
	ID           string     `json:"id" db:"id"`
	AssignmentID string     `json:"assignment_id" db:"assignment_id"`
	StudentID    string     `json:"student_id" db:"student_id"`
	FileURL      string     `json:"file_url" db:"file_url"`
	Content      *string    `json:"content" db:"content"`
	Status       string     `json:"status" db:"status"`
	Score        *float64   `json:"score" db:"score"`
	Feedback     *string    `json:"feedback" db:"feedback"`
	SubmittedAt  time.Time  `json:"submitted_at" db:"submitted_at"`
	GradedAt     *time.Time `json:"graded_at" db:"graded_at"`

	StudentName     string     `json:"student_name,omitempty" db:"student_name"`
	StudentEmail    string     `json:"student_email,omitempty" db:"student_email"`
	AssignmentTitle string     `json:"assignment_title,omitempty" db:"assignment_title"`
	DueDate         *time.Time `json:"due_date,omitempty" db:"due_date"`
	SubjectName     string     `json:"subject_name,omitempty" db:"subject_name"`
}

// NewAssignment contains information needed to create a new Assignment.
type NewAssignment struct {
	Title       string    `json:"title" validate:"required,min=3,max=255"`
	Description string    `json:"description"`
	FileURL     *string   `json:"file_url" validate:"omitempty,url|startswith=/"`
	DueDate     time.Time `json:"due_date" validate:"required"`
	SubjectID   string    `json:"subject_id" validate:"required,uuid"`
	Published   bool      `json:"published"`
}

func (na *NewAssignment) Validate() error {
	na.Title = core.StripHTML(na.Title)
	na.Description = core.SanitizeHTML(na.Description)
	na.FileURL = core.CleanStringPtr(na.FileURL)
	na.SubjectID = core.CleanString(na.SubjectID)
	return core.Validate.Struct(na)
}

// NewSubmission contains the work a student hands in.
type NewSubmission struct {
	FileURL string  `json:"file_url" validate:"required,url|startswith=/"`
	Content *string `json:"content"`
}

func (ns *NewSubmission) Validate() error {
	ns.FileURL = core.CleanString(ns.FileURL)
	if ns.Content != nil {
		c := core.SanitizeHTML(*ns.Content)
		ns.Content = &c
	}
	return core.Validate.Struct(ns)
}

type Grade struct {
	Score    *float64 `json:"score" validate:"required,gte=0"`
	Feedback *string  `json:"feedback"`
}

func (g *Grade) Validate() error {
	g.Feedback = core.CleanStringPtr(g.Feedback)
	return core.Validate.Struct(g)
}

type QueryFilter struct {
	TeacherID string
	SubjectID string
}
