package subscription

import (
	"time"

	"github.com/trezcool/mansa/core"
)

// Statuses
const (
	StatusPending  = "PENDING"
	StatusApproved = "APPROVED"
)

// Sorts of student results
const (
	SortDateDesc       = "date_desc"
	SortScoreAsc       = "score_asc"
	SortScoreDesc      = "score_desc"
	SortPercentageDesc = "percentage_desc"
)

type Subscription struct {
	ID        string    `json:"id" db:"id"`
	StudentID string    `json:"student_id" db:"student_id"`
	TeacherID string    `json:"teacher_id" db:"teacher_id"`
	Status    string    `json:"status" db:"status"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// Teacher is a teacher as listed to students.
type Teacher struct {
	ID           string  `json:"id" db:"id"`
	Name         string  `json:"name" db:"name"`
	Email        string  `json:"email" db:"email"`
	LessonCount  int     `json:"lesson_count" db:"lesson_count"`
	QuizCount    int     `json:"quiz_count" db:"quiz_count"`
	IsSubscribed bool    `json:"is_subscribed" db:"is_subscribed"`
	Status       *string `json:"status" db:"status"`
}

// Student is a subscriber as listed to teachers.
type Student struct {
	ID           string    `json:"id" db:"id"`
	Name         string    `json:"name" db:"name"`
	Email        string    `json:"email" db:"email"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
	SubscribedAt time.Time `json:"subscribed_at" db:"subscribed_at"`
}

// Request is a pending subscription as seen by the teacher.
type Request struct {
	ID           string    `json:"id" db:"id"`
	StudentID    string    `json:"student_id" db:"student_id"`
	StudentName  string    `json:"student_name" db:"student_name"`
	StudentEmail string    `json:"student_email" db:"student_email"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
}

type StudentResult struct {
	AttemptID    string    `json:"attempt_id" db:"attempt_id"`
	StudentID    string    `json:"student_id" db:"student_id"`
	StudentName  string    `json:"student_name" db:"student_name"`
	StudentEmail string    `json:"student_email" db:"student_email"`
	QuizID       string    `json:"quiz_id" db:"quiz_id"`
	QuizTitle    string    `json:"quiz_title" db:"quiz_title"`
	Score        int       `json:"score" db:"score"`
	Total        int       `json:"total" db:"total"`
	Percentage   float64   `json:"percentage" db:"percentage"`
	Passed       bool      `json:"passed" db:"passed"`
	CompletedAt  time.Time `json:"completed_at" db:"completed_at"`
}

type ResultFilter struct {
	StudentID string
	QuizID    string
	Sort      string
}

func (rf *ResultFilter) Clean() {
	rf.StudentID = core.CleanString(rf.StudentID)
	rf.QuizID = core.CleanString(rf.QuizID)
	switch rf.Sort {
	case SortScoreAsc, SortScoreDesc, SortPercentageDesc:
	default:
		rf.Sort = SortDateDesc
	}
}
