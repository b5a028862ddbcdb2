package curriculum

import (
	"context"
	"fmt"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/mansa/core"
	"github.com/trezcool/mansa/core/notification"
	"github.com/trezcool/mansa/core/user"
)

var (
	// errors
	ErrStageNotFound   = core.NewNotFoundError("stage")
	ErrGradeNotFound   = core.NewNotFoundError("grade")
	ErrSubjectNotFound = core.NewNotFoundError("subject")
	ErrUnitNotFound    = core.NewNotFoundError("unit")
	ErrLessonNotFound  = core.NewNotFoundError("lesson")

	nowFunc = time.Now // mockable
)

type (
	Repository interface {
		CreateStage(ctx context.Context, stage Stage) (Stage, error)
		// CreateGrade returns ErrStageNotFound when the stage does not exist. Same goes for subjects and units.
		CreateGrade(ctx context.Context, grade Grade) (Grade, error)
		CreateSubject(ctx context.Context, subject Subject) (Subject, error)
		CreateUnit(ctx context.Context, unit Unit) (Unit, error)
		// QueryStageTree returns every stage with its grades, subjects and units.
		QueryStageTree(ctx context.Context) ([]Stage, error)
		// GetSubject returns the subject with its units and their non-deleted lessons,
		// flagged with the completion of the given user.
		GetSubject(ctx context.Context, id, userID string) (Subject, error)
		// GetLesson returns a non-deleted lesson along with its linked quiz, if any.
		GetLesson(ctx context.Context, id string) (Lesson, error)
		QueryLessons(ctx context.Context, teacherID string) ([]LessonSummary, error)
		CreateLesson(ctx context.Context, lesson Lesson) (Lesson, error)
		IsLessonCompleted(ctx context.Context, userID, lessonID string) (bool, error)
		UpsertProgress(ctx context.Context, p Progress) error
		TeacherStats(ctx context.Context, teacherID string) (TeacherStats, error)
	}

	// SubscriberSource lists the students following a teacher.
	SubscriberSource interface {
		ApprovedStudentIDs(ctx context.Context, teacherID string) ([]string, error)
	}

	Service struct {
		repo        Repository
		notifier    notification.Notifier
		subscribers SubscriberSource
	}
)

func NewService(repo Repository, notifier notification.Notifier, subscribers SubscriberSource) *Service {
	return &Service{repo: repo, notifier: notifier, subscribers: subscribers}
}

func (svc *Service) CreateStage(ctx context.Context, ns NewStage) (Stage, error) {
	if err := ns.Validate(); err != nil {
		return Stage{}, err
	}
	stage, err := svc.repo.CreateStage(ctx, Stage{Name: ns.Name, CreatedAt: nowFunc().UTC()})
	return stage, errors.Wrap(err, "creating stage")
}

func (svc *Service) CreateGrade(ctx context.Context, ng NewGrade) (Grade, error) {
	if err := ng.Validate(); err != nil {
		return Grade{}, err
	}
	grade, err := svc.repo.CreateGrade(ctx, Grade{Name: ng.Name, StageID: ng.StageID, CreatedAt: nowFunc().UTC()})
	if err != nil {
		if errors.Cause(err) == ErrStageNotFound {
			return Grade{}, ErrStageNotFound
		}
		return Grade{}, errors.Wrap(err, "creating grade")
	}
	return grade, nil
}

func (svc *Service) CreateSubject(ctx context.Context, ns NewSubject) (Subject, error) {
	if err := ns.Validate(); err != nil {
		return Subject{}, err
	}
	subject, err := svc.repo.CreateSubject(ctx, Subject{Name: ns.Name, GradeID: ns.GradeID, CreatedAt: nowFunc().UTC()})
	if err != nil {
		if errors.Cause(err) == ErrGradeNotFound {
			return Subject{}, ErrGradeNotFound
		}
		return Subject{}, errors.Wrap(err, "creating subject")
	}
	return subject, nil
}

func (svc *Service) CreateUnit(ctx context.Context, nu NewUnit) (Unit, error) {
	if err := nu.Validate(); err != nil {
		return Unit{}, err
	}
	unit, err := svc.repo.CreateUnit(ctx, Unit{Name: nu.Name, SubjectID: nu.SubjectID, CreatedAt: nowFunc().UTC()})
	if err != nil {
		if errors.Cause(err) == ErrSubjectNotFound {
			return Unit{}, ErrSubjectNotFound
		}
		return Unit{}, errors.Wrap(err, "creating unit")
	}
	unit.Lessons = []LessonSummary{}
	return unit, nil
}

func (svc *Service) Stages(ctx context.Context) ([]Stage, error) {
	stages, err := svc.repo.QueryStageTree(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "querying stages")
	}
	if stages == nil {
		stages = []Stage{}
	}
	return stages, nil
}

// Subject returns the subject outline with the viewer's progress. Students only see published lessons.
func (svc *Service) Subject(ctx context.Context, viewer user.User, id string) (Subject, error) {
	subject, err := svc.repo.GetSubject(ctx, id, viewer.ID)
	if err != nil {
		return Subject{}, err
	}
	if subject.Units == nil {
		subject.Units = []Unit{}
	}
	for i, unit := range subject.Units {
		lessons := make([]LessonSummary, 0, len(unit.Lessons))
		for _, l := range unit.Lessons {
			if viewer.IsStudent() && !l.Published {
				continue
			}
			lessons = append(lessons, l)
		}
		subject.Units[i].Lessons = lessons
	}
	return subject, nil
}

func (svc *Service) Lesson(ctx context.Context, viewer user.User, id string) (Lesson, error) {
	lesson, err := svc.repo.GetLesson(ctx, id)
	if err != nil {
		return Lesson{}, err
	}
	if viewer.IsStudent() && !lesson.Published {
		return Lesson{}, ErrLessonNotFound
	}
	lesson.Completed, err = svc.repo.IsLessonCompleted(ctx, viewer.ID, lesson.ID)
	return lesson, errors.Wrap(err, "checking lesson progress")
}

// Lessons lists the lessons a quiz can be linked to. Teachers only get their own.
func (svc *Service) Lessons(ctx context.Context, viewer user.User) ([]LessonSummary, error) {
	var teacherID string
	if !viewer.IsAdmin() {
		teacherID = viewer.ID
	}
	lessons, err := svc.repo.QueryLessons(ctx, teacherID)
	if err != nil {
		return nil, errors.Wrap(err, "querying lessons")
	}
	if lessons == nil {
		lessons = []LessonSummary{}
	}
	return lessons, nil
}

// CreateLesson creates a lesson owned by the teacher.
// Approved subscribers of the teacher are notified when the lesson is published right away.
func (svc *Service) CreateLesson(ctx context.Context, teacher user.User, nl NewLesson) (Lesson, error) {
	if err := nl.Validate(); err != nil {
		return Lesson{}, err
	}
	now := nowFunc().UTC()
	lesson, err := svc.repo.CreateLesson(ctx, Lesson{
		Title:     nl.Title,
		Content:   nl.Content,
		VideoURL:  nl.VideoURL,
		PDFURL:    nl.PDFURL,
		UnitID:    nl.UnitID,
		TeacherID: teacher.ID,
		Published: nl.Published,
		CreatedAt: now,
		UpdatedAt: now,
	})
	if err != nil {
		if errors.Cause(err) == ErrUnitNotFound {
			return Lesson{}, ErrUnitNotFound
		}
		return Lesson{}, errors.Wrap(err, "creating lesson")
	}
	lesson.TeacherName = teacher.Name

	if lesson.Published && svc.subscribers != nil && svc.notifier != nil {
		// notifications are best effort
		if studentIDs, err := svc.subscribers.ApprovedStudentIDs(ctx, teacher.ID); err == nil {
			svc.notifier.Notify(ctx, notification.NewNotification{
				Title:   "New Lesson Available",
				Message: fmt.Sprintf("Teacher %s added a new lesson: %s", teacher.Name, lesson.Title),
				Type:    notification.TypeLesson,
				Link:    "/student/lessons/" + lesson.ID,
			}, studentIDs...)
		}
	}
	return lesson, nil
}

// MarkComplete records that the user completed the lesson. Calling it again refreshes the last view.
func (svc *Service) MarkComplete(ctx context.Context, usr user.User, lessonID string) error {
	lesson, err := svc.Lesson(ctx, usr, lessonID)
	if err != nil {
		return err
	}
	p := Progress{UserID: usr.ID, LessonID: lesson.ID, Completed: true, LastViewedAt: nowFunc().UTC()}
	return errors.Wrap(svc.repo.UpsertProgress(ctx, p), "saving progress")
}

func (svc *Service) TeacherStats(ctx context.Context, teacher user.User) (TeacherStats, error) {
	stats, err := svc.repo.TeacherStats(ctx, teacher.ID)
	return stats, errors.Wrap(err, "computing teacher stats")
}
