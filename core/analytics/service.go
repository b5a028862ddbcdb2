package analytics

import (
	"context"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"

	"github.com/trezcool/mansa/core/curriculum"
	"github.com/trezcool/mansa/core/user"
)

const (
	performanceSize   = 10
	recentLessonsSize = 5
	recentSize        = 5
)

var hundred = decimal.NewFromInt(100)

type (
	Repository interface {
		// StudentLessonCounts counts the published lessons of the teachers who approved the student,
		// and how many of them the student completed.
		StudentLessonCounts(ctx context.Context, studentID string) (LessonCounts, error)
		// StudentResults returns the student's results, oldest first.
		StudentResults(ctx context.Context, studentID string) ([]ResultRow, error)
		RecentLessons(ctx context.Context, studentID string, limit int) ([]curriculum.LessonSummary, error)

		TeacherQuizzes(ctx context.Context, teacherID string) ([]QuizRef, error)
		// TeacherResults returns the results on the teacher's quizzes, newest first.
		TeacherResults(ctx context.Context, teacherID string) ([]ResultRow, error)
		PendingSubmissions(ctx context.Context, teacherID string) (int, error)

		UsersByRole(ctx context.Context) (map[string]int, error)
		ContentTotals(ctx context.Context) (ContentTotals, error)
		RecentUsers(ctx context.Context, limit int) ([]user.User, error)
	}

	Service struct {
		repo Repository
	}
)

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func ratio(part, total int) decimal.Decimal {
	if total <= 0 {
		return decimal.Zero
	}
	return decimal.NewFromInt(int64(part)).Div(decimal.NewFromInt(int64(total))).Mul(hundred)
}

// Percent returns part/total as a percentage rounded to two decimals, 0 when total is 0.
func Percent(part, total int) float64 {
	return ratio(part, total).Round(2).InexactFloat64()
}

// AverageScore returns the mean percentage of the results, rounded to two decimals.
func AverageScore(rows []ResultRow) float64 {
	if len(rows) == 0 {
		return 0
	}
	sum := decimal.Zero
	for _, r := range rows {
		sum = sum.Add(ratio(r.Score, r.Total))
	}
	return sum.Div(decimal.NewFromInt(int64(len(rows)))).Round(2).InexactFloat64()
}

func (svc *Service) Student(ctx context.Context, student user.User) (StudentDashboard, error) {
	counts, err := svc.repo.StudentLessonCounts(ctx, student.ID)
	if err != nil {
		return StudentDashboard{}, errors.Wrap(err, "counting lessons")
	}
	results, err := svc.repo.StudentResults(ctx, student.ID)
	if err != nil {
		return StudentDashboard{}, errors.Wrap(err, "querying results")
	}
	lessons, err := svc.repo.RecentLessons(ctx, student.ID, recentLessonsSize)
	if err != nil {
		return StudentDashboard{}, errors.Wrap(err, "querying recent lessons")
	}
	if lessons == nil {
		lessons = []curriculum.LessonSummary{}
	}

	last := results
	if len(last) > performanceSize {
		last = last[len(last)-performanceSize:]
	}
	points := make([]PerformancePoint, 0, len(last))
	for _, r := range last {
		points = append(points, PerformancePoint{
			Date:  r.CreatedAt.UTC().Format("2006-01-02"),
			Score: Percent(r.Score, r.Total),
			Title: r.QuizTitle,
		})
	}

	return StudentDashboard{
		Progress: Progress{
			Total:      counts.Total,
			Completed:  counts.Completed,
			Percentage: Percent(counts.Completed, counts.Total),
		},
		AvgScore:            AverageScore(results),
		PerformanceOverTime: points,
		RecentLessons:       lessons,
	}, nil
}

func (svc *Service) Teacher(ctx context.Context, teacher user.User) (TeacherDashboard, error) {
	quizzes, err := svc.repo.TeacherQuizzes(ctx, teacher.ID)
	if err != nil {
		return TeacherDashboard{}, errors.Wrap(err, "querying quizzes")
	}
	results, err := svc.repo.TeacherResults(ctx, teacher.ID)
	if err != nil {
		return TeacherDashboard{}, errors.Wrap(err, "querying results")
	}
	pending, err := svc.repo.PendingSubmissions(ctx, teacher.ID)
	if err != nil {
		return TeacherDashboard{}, errors.Wrap(err, "counting pending submissions")
	}

	byQuiz := make(map[string][]ResultRow, len(quizzes))
	for _, r := range results {
		byQuiz[r.QuizID] = append(byQuiz[r.QuizID], r)
	}
	perf := make([]QuizPerformance, 0, len(quizzes))
	for _, qz := range quizzes {
		rows := byQuiz[qz.ID]
		perf = append(perf, QuizPerformance{
			QuizID:       qz.ID,
			Title:        qz.Title,
			AvgScore:     AverageScore(rows),
			AttemptCount: len(rows),
		})
	}

	recent := make([]RecentResult, 0, recentSize)
	for i, r := range results {
		if i == recentSize {
			break
		}
		recent = append(recent, RecentResult{
			StudentName: r.StudentName,
			QuizTitle:   r.QuizTitle,
			Score:       Percent(r.Score, r.Total),
			Date:        r.CreatedAt,
		})
	}

	return TeacherDashboard{QuizPerformance: perf, PendingSubmissions: pending, RecentActivity: recent}, nil
}

// Report returns the platform totals.
func (svc *Service) Report(ctx context.Context) (Report, error) {
	roles, err := svc.repo.UsersByRole(ctx)
	if err != nil {
		return Report{}, errors.Wrap(err, "counting users")
	}
	byRole := map[string]int{user.RoleStudent: 0, user.RoleTeacher: 0, user.RoleAdmin: 0}
	for role, n := range roles {
		byRole[role] = n
	}
	totals, err := svc.repo.ContentTotals(ctx)
	if err != nil {
		return Report{}, errors.Wrap(err, "counting content")
	}
	return Report{UsersByRole: byRole, TotalContent: totals}, nil
}

func (svc *Service) Admin(ctx context.Context) (AdminDashboard, error) {
	report, err := svc.Report(ctx)
	if err != nil {
		return AdminDashboard{}, err
	}
	users, err := svc.repo.RecentUsers(ctx, recentSize)
	if err != nil {
		return AdminDashboard{}, errors.Wrap(err, "querying recent users")
	}
	if users == nil {
		users = []user.User{}
	}
	return AdminDashboard{Report: report, RecentUsers: users}, nil
}
