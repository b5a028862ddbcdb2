package subscription

import (
	"context"
	"fmt"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/mansa/core"
	"github.com/trezcool/mansa/core/curriculum"
	"github.com/trezcool/mansa/core/notification"
	"github.com/trezcool/mansa/core/quiz"
	"github.com/trezcool/mansa/core/user"
)

var (
	// errors
	ErrNotFound          = core.NewNotFoundError("subscription")
	ErrTeacherNotFound   = core.NewNotFoundError("teacher")
	ErrAlreadySubscribed = core.NewValidationError(errors.New("already subscribed to this teacher"))
	ErrNotPending        = core.NewValidationError(errors.New("subscription is not pending"))

	nowFunc = time.Now // mockable
)

type (
	Repository interface {
		// CreateSubscription returns ErrAlreadySubscribed when the student already follows the teacher.
		CreateSubscription(ctx context.Context, sub Subscription) (Subscription, error)
		GetSubscription(ctx context.Context, studentID, teacherID string) (Subscription, error)
		UpdateSubscription(ctx context.Context, sub Subscription) (Subscription, error)
		DeleteSubscription(ctx context.Context, id string) error
		// ApproveAll approves every pending subscription and returns how many were updated.
		ApproveAll(ctx context.Context) (int, error)

		QueryRequests(ctx context.Context, teacherID string) ([]Request, error)
		// QueryTeachers returns the active teachers, flagged with the student's subscriptions.
		// When subscribedOnly is set, only the teachers the student follows are returned.
		QueryTeachers(ctx context.Context, studentID string, subscribedOnly bool) ([]Teacher, error)
		QueryLessons(ctx context.Context, studentID string) ([]curriculum.LessonSummary, error)
		QueryQuizzes(ctx context.Context, studentID string) ([]quiz.Quiz, error)
		QueryStudents(ctx context.Context, teacherID, search string, page core.Page) ([]Student, int, error)
		QueryStudentResults(ctx context.Context, teacherID string, filter ResultFilter, page core.Page) ([]StudentResult, int, error)
		ApprovedStudentIDs(ctx context.Context, teacherID string) ([]string, error)
	}

	UserGetter interface {
		GetByID(ctx context.Context, id string) (user.User, error)
	}

	Service struct {
		repo     Repository
		users    UserGetter
		notifier notification.Notifier
	}
)

func NewService(repo Repository, users UserGetter, notifier notification.Notifier) *Service {
	return &Service{repo: repo, users: users, notifier: notifier}
}

func (svc *Service) notify(ctx context.Context, n notification.NewNotification, userID string) {
	if svc.notifier != nil {
		svc.notifier.Notify(ctx, n, userID)
	}
}

// Subscribe asks to follow a teacher. The subscription stays pending until the teacher approves it.
func (svc *Service) Subscribe(ctx context.Context, student user.User, teacherID string) (Subscription, error) {
	teacher, err := svc.users.GetByID(ctx, core.CleanString(teacherID))
	if err != nil {
		if core.IsNotFound(err) {
			return Subscription{}, ErrTeacherNotFound
		}
		return Subscription{}, errors.Wrap(err, "getting teacher")
	}
	if !teacher.IsTeacher() || !teacher.IsActive || teacher.IsBlocked {
		return Subscription{}, ErrTeacherNotFound
	}

	now := nowFunc().UTC()
	sub, err := svc.repo.CreateSubscription(ctx, Subscription{
		StudentID: student.ID,
		TeacherID: teacher.ID,
		Status:    StatusPending,
		CreatedAt: now,
		UpdatedAt: now,
	})
	if err != nil {
		if errors.Cause(err) == ErrAlreadySubscribed {
			return Subscription{}, ErrAlreadySubscribed
		}
		return Subscription{}, errors.Wrap(err, "creating subscription")
	}

	svc.notify(ctx, notification.NewNotification{
		Title:   "New Subscription Request",
		Message: fmt.Sprintf("%s wants to follow your lessons", student.Name),
		Type:    notification.TypeSubscription,
		Link:    "/teacher/students",
	}, teacher.ID)
	return sub, nil
}

func (svc *Service) Unsubscribe(ctx context.Context, student user.User, teacherID string) error {
	sub, err := svc.repo.GetSubscription(ctx, student.ID, core.CleanString(teacherID))
	if err != nil {
		return err
	}
	return errors.Wrap(svc.repo.DeleteSubscription(ctx, sub.ID), "deleting subscription")
}

func (svc *Service) RemoveStudent(ctx context.Context, teacher user.User, studentID string) error {
	sub, err := svc.repo.GetSubscription(ctx, core.CleanString(studentID), teacher.ID)
	if err != nil {
		return err
	}
	return errors.Wrap(svc.repo.DeleteSubscription(ctx, sub.ID), "deleting subscription")
}

func (svc *Service) getPending(ctx context.Context, teacher user.User, studentID string) (Subscription, error) {
	sub, err := svc.repo.GetSubscription(ctx, core.CleanString(studentID), teacher.ID)
	if err != nil {
		return Subscription{}, err
	}
	if sub.Status != StatusPending {
		return Subscription{}, ErrNotPending
	}
	return sub, nil
}

// Approve accepts a pending request and notifies the student.
func (svc *Service) Approve(ctx context.Context, teacher user.User, studentID string) (Subscription, error) {
	sub, err := svc.getPending(ctx, teacher, studentID)
	if err != nil {
		return Subscription{}, err
	}
	sub.Status = StatusApproved
	sub.UpdatedAt = nowFunc().UTC()
	if sub, err = svc.repo.UpdateSubscription(ctx, sub); err != nil {
		return Subscription{}, errors.Wrap(err, "approving subscription")
	}

	svc.notify(ctx, notification.NewNotification{
		Title:   "Subscription Approved",
		Message: fmt.Sprintf("%s accepted your subscription request", teacher.Name),
		Type:    notification.TypeSubscription,
		Link:    "/student/teachers",
	}, sub.StudentID)
	return sub, nil
}

// Reject deletes a pending request.
func (svc *Service) Reject(ctx context.Context, teacher user.User, studentID string) error {
	sub, err := svc.getPending(ctx, teacher, studentID)
	if err != nil {
		return err
	}
	return errors.Wrap(svc.repo.DeleteSubscription(ctx, sub.ID), "deleting subscription")
}

func (svc *Service) PendingRequests(ctx context.Context, teacher user.User) ([]Request, error) {
	reqs, err := svc.repo.QueryRequests(ctx, teacher.ID)
	if err != nil {
		return nil, errors.Wrap(err, "querying requests")
	}
	if reqs == nil {
		reqs = []Request{}
	}
	return reqs, nil
}

func (svc *Service) queryTeachers(ctx context.Context, student user.User, subscribedOnly bool) ([]Teacher, error) {
	teachers, err := svc.repo.QueryTeachers(ctx, student.ID, subscribedOnly)
	if err != nil {
		return nil, errors.Wrap(err, "querying teachers")
	}
	if teachers == nil {
		teachers = []Teacher{}
	}
	return teachers, nil
}

// MyTeachers lists the teachers the student follows or asked to follow.
func (svc *Service) MyTeachers(ctx context.Context, student user.User) ([]Teacher, error) {
	return svc.queryTeachers(ctx, student, true)
}

func (svc *Service) AllTeachers(ctx context.Context, student user.User) ([]Teacher, error) {
	return svc.queryTeachers(ctx, student, false)
}

// SubscribedLessons lists the published lessons of the teachers who approved the student.
func (svc *Service) SubscribedLessons(ctx context.Context, student user.User) ([]curriculum.LessonSummary, error) {
	lessons, err := svc.repo.QueryLessons(ctx, student.ID)
	if err != nil {
		return nil, errors.Wrap(err, "querying lessons")
	}
	if lessons == nil {
		lessons = []curriculum.LessonSummary{}
	}
	return lessons, nil
}

// SubscribedQuizzes lists the published quizzes of the teachers who approved the student.
func (svc *Service) SubscribedQuizzes(ctx context.Context, student user.User) ([]quiz.Quiz, error) {
	quizzes, err := svc.repo.QueryQuizzes(ctx, student.ID)
	if err != nil {
		return nil, errors.Wrap(err, "querying quizzes")
	}
	if quizzes == nil {
		quizzes = []quiz.Quiz{}
	}
	return quizzes, nil
}

// MyStudents lists the approved subscribers of the teacher.
func (svc *Service) MyStudents(ctx context.Context, teacher user.User, search string, page core.Page) ([]Student, core.PageInfo, error) {
	page.Clean()
	students, total, err := svc.repo.QueryStudents(ctx, teacher.ID, core.CleanString(search), page)
	if err != nil {
		return nil, core.PageInfo{}, errors.Wrap(err, "querying students")
	}
	if students == nil {
		students = []Student{}
	}
	return students, core.NewPageInfo(page, total), nil
}

// MyStudentsResults lists the results of approved subscribers on the teacher's quizzes.
func (svc *Service) MyStudentsResults(ctx context.Context, teacher user.User, filter ResultFilter, page core.Page) ([]StudentResult, core.PageInfo, error) {
	filter.Clean()
	page.Clean()
	results, total, err := svc.repo.QueryStudentResults(ctx, teacher.ID, filter, page)
	if err != nil {
		return nil, core.PageInfo{}, errors.Wrap(err, "querying student results")
	}
	if results == nil {
		results = []StudentResult{}
	}
	return results, core.NewPageInfo(page, total), nil
}

func (svc *Service) ApprovedStudentIDs(ctx context.Context, teacherID string) ([]string, error) {
	ids, err := svc.repo.ApprovedStudentIDs(ctx, teacherID)
	return ids, errors.Wrap(err, "querying approved students")
}

// ApproveAll approves every pending subscription.
func (svc *Service) ApproveAll(ctx context.Context) (int, error) {
	n, err := svc.repo.ApproveAll(ctx)
	return n, errors.Wrap(err, "approving subscriptions")
}
