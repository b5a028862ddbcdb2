package homework

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/mansa/core"
	"github.com/trezcool/mansa/core/user"
)

var (
	// errors
	ErrNotFound           = core.NewNotFoundError("assignment")
	ErrSubmissionNotFound = core.NewNotFoundError("submission")
	ErrSubjectNotFound    = core.NewNotFoundError("subject")
	ErrAlreadySubmitted   = core.NewValidationError(errors.New("assignment already submitted"))
	ErrNotOwner           = core.NewPermissionError("only the assignment owner can do this")

	nowFunc = time.Now // mockable
)

type (
	Repository interface {
		// QueryAssignments returns non-deleted assignments with their submission count, nearest due date first.
		QueryAssignments(ctx context.Context, filter QueryFilter) ([]Assignment, error)
		// CreateAssignment returns ErrSubjectNotFound when the subject does not exist.
		CreateAssignment(ctx context.Context, a Assignment) (Assignment, error)
		GetAssignment(ctx context.Context, id string) (Assignment, error)
		// CreateSubmission returns ErrAlreadySubmitted when the student already submitted the assignment.
		CreateSubmission(ctx context.Context, sub Submission) (Submission, error)
		GetSubmission(ctx context.Context, id string) (Submission, error)
		UpdateSubmission(ctx context.Context, sub Submission) (Submission, error)
		// QuerySubmissions returns the submissions of an assignment with their student, newest first.
		QuerySubmissions(ctx context.Context, assignmentID string) ([]Submission, error)
		// QueryStudentSubmissions returns the submissions of a student with their assignment, newest first.
		QueryStudentSubmissions(ctx context.Context, studentID string) ([]Submission, error)
	}

	Service struct {
		repo Repository
	}
)

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Query lists assignments. Teachers only see their own.
func (svc *Service) Query(ctx context.Context, viewer user.User, subjectID string) ([]Assignment, error) {
	filter := QueryFilter{SubjectID: core.CleanString(subjectID)}
	if viewer.IsTeacher() {
		filter.TeacherID = viewer.ID
	}
	assignments, err := svc.repo.QueryAssignments(ctx, filter)
	if err != nil {
		return nil, errors.Wrap(err, "querying assignments")
	}
	if assignments == nil {
		assignments = []Assignment{}
	}
	return assignments, nil
}

func (svc *Service) Create(ctx context.Context, teacher user.User, na NewAssignment) (Assignment, error) {
	if err := na.Validate(); err != nil {
		return Assignment{}, err
	}
	a, err := svc.repo.CreateAssignment(ctx, Assignment{
		Title:       na.Title,
		Description: na.Description,
		FileURL:     na.FileURL,
		DueDate:     na.DueDate.UTC(),
		SubjectID:   na.SubjectID,
		TeacherID:   teacher.ID,
		Published:   na.Published,
		CreatedAt:   nowFunc().UTC(),
	})
	if err != nil {
		if errors.Cause(err) == ErrSubjectNotFound {
			return Assignment{}, ErrSubjectNotFound
		}
		return Assignment{}, errors.Wrap(err, "creating assignment")
	}
	a.TeacherName = teacher.Name
	return a, nil
}

// Submit hands in the student's work. A student submits an assignment only once.
func (svc *Service) Submit(ctx context.Context, student user.User, assignmentID string, ns NewSubmission) (Submission, error) {
	if err := ns.Validate(); err != nil {
		return Submission{}, err
	}
	a, err := svc.repo.GetAssignment(ctx, assignmentID)
	if err != nil {
		return Submission{}, err
	}
	sub, err := svc.repo.CreateSubmission(ctx, Submission{
		AssignmentID: a.ID,
		StudentID:    student.ID,
		FileURL:      ns.FileURL,
		Content:      ns.Content,
		Status:       StatusSubmitted,
		SubmittedAt:  nowFunc().UTC(),
	})
	if err != nil {
		if errors.Cause(err) == ErrAlreadySubmitted {
			return Submission{}, ErrAlreadySubmitted
		}
		return Submission{}, errors.Wrap(err, "creating submission")
	}
	return sub, nil
}

func (svc *Service) getManaged(ctx context.Context, actor user.User, id string) (Assignment, error) {
	a, err := svc.repo.GetAssignment(ctx, id)
	if err != nil {
		return Assignment{}, err
	}
	if !actor.IsAdmin() && a.TeacherID != actor.ID {
		return Assignment{}, ErrNotOwner
	}
	return a, nil
}

func (svc *Service) Submissions(ctx context.Context, actor user.User, assignmentID string) ([]Submission, error) {
	a, err := svc.getManaged(ctx, actor, assignmentID)
	if err != nil {
		return nil, err
	}
	subs, err := svc.repo.QuerySubmissions(ctx, a.ID)
	if err != nil {
		return nil, errors.Wrap(err, "querying submissions")
	}
	if subs == nil {
		subs = []Submission{}
	}
	return subs, nil
}

// Grade scores a submission. Grading an already graded submission overrides the previous grade.
func (svc *Service) Grade(ctx context.Context, actor user.User, submissionID string, g Grade) (Submission, error) {
	if err := g.Validate(); err != nil {
		return Submission{}, err
	}
	sub, err := svc.repo.GetSubmission(ctx, submissionID)
	if err != nil {
		return Submission{}, err
	}
	if _, err = svc.getManaged(ctx, actor, sub.AssignmentID); err != nil {
		return Submission{}, err
	}

	now := nowFunc().UTC()
	sub.Score = g.Score
	sub.Feedback = g.Feedback
	sub.Status = StatusGraded
	sub.GradedAt = &now
	sub, err = svc.repo.UpdateSubmission(ctx, sub)
	return sub, errors.Wrap(err, "grading submission")
}

func (svc *Service) MySubmissions(ctx context.Context, student user.User) ([]Submission, error) {
	subs, err := svc.repo.QueryStudentSubmissions(ctx, student.ID)
	if err != nil {
		return nil, errors.Wrap(err, "querying submissions")
	}
	if subs == nil {
		subs = []Submission{}
	}
	return subs, nil
}
