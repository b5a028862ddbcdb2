package analytics

import (
	"time"

	"github.com/trezcool/mansa/core/curriculum"
	"github.com/trezcool/mansa/core/user"
)

// ResultRow is a quiz result as read for analytics.
type ResultRow struct {
	QuizID      string    `db:"quiz_id"`
	QuizTitle   string    `db:"quiz_title"`
	StudentName string    `db:"student_name"`
	Score       int       `db:"score"`
	Total       int       `db:"total"`
	CreatedAt   time.Time `db:"created_at"`
}

type QuizRef struct {
	ID    string `db:"id"`
	Title string `db:"title"`
}

type LessonCounts struct {
	Total     int `db:"total"`
	Completed int `db:"completed"`
}

type ContentTotals struct {
	Lessons int `json:"lessons" db:"lessons"`
	Quizzes int `json:"quizzes" db:"quizzes"`
}

type Progress struct {
	Total      int     `json:"total"`
	Completed  int     `json:"completed"`
	Percentage float64 `json:"percentage"`
}

type PerformancePoint struct {
	Date  string  `json:"date"`
	Score float64 `json:"score"`
	Title string  `json:"title"`
}

type StudentDashboard struct {
	Progress            Progress                   `json:"progress"`
	AvgScore            float64                    `json:"avg_score"`
	PerformanceOverTime []PerformancePoint         `json:"performance_over_time"`
	RecentLessons       []curriculum.LessonSummary `json:"recent_lessons"`
}

type QuizPerformance struct {
	QuizID       string  `json:"quiz_id"`
	Title        string  `json:"title"`
	AvgScore     float64 `json:"avg_score"`
	AttemptCount int     `json:"attempt_count"`
}

type RecentResult struct {
	StudentName string    `json:"student_name"`
	QuizTitle   string    `json:"quiz_title"`
	Score       float64   `json:"score"`
	Date        time.Time `json:"date"`
}

type TeacherDashboard struct {
	QuizPerformance    []QuizPerformance `json:"quiz_performance"`
	PendingSubmissions int               `json:"pending_submissions"`
	RecentActivity     []RecentResult    `json:"recent_activity"`
}

type Report struct {
	UsersByRole  map[string]int `json:"users_by_role"`
	TotalContent ContentTotals  `json:"total_content"`
}

type AdminDashboard struct {
	Report
	RecentUsers []user.User `json:"recent_users"`
}
