package inmemdb

import (
	"context"
	"sort"

	"github.com/google/uuid"

	"github.com/trezcool/mansa/core/homework"
)

type homeworkRepository struct {
	db         *homeworkTables
	curriculum *curriculumTables
	users      *userTable
}

var _ homework.Repository = (*homeworkRepository)(nil)

func NewHomeworkRepository(db *DB) homework.Repository {
	return &homeworkRepository{db: db.homework, curriculum: db.curriculum, users: db.user}
}

func (repo *homeworkRepository) countSubmissions(assignmentID string) int {
	var n int
	for _, sub := range repo.db.submissions {
		if sub.AssignmentID == assignmentID {
			n++
		}
	}
	return n
}

func (repo *homeworkRepository) QueryAssignments(_ context.Context, filter homework.QueryFilter) ([]homework.Assignment, error) {
	repo.curriculum.RLock()
	defer repo.curriculum.RUnlock()
	repo.db.RLock()
	defer repo.db.RUnlock()
	repo.users.RLock()
	defer repo.users.RUnlock()

	assignments := make([]homework.Assignment, 0)
	for _, a := range repo.db.assignments {
		switch {
		case a.IsDeleted,
			filter.TeacherID != "" && a.TeacherID != filter.TeacherID,
			filter.SubjectID != "" && a.SubjectID != filter.SubjectID:
			continue
		}
		item := *a
		if s, ok := repo.curriculum.subjects[a.SubjectID]; ok {
			item.SubjectName = s.Name
		}
		item.TeacherName = repo.users.name(a.TeacherID)
		item.SubmissionCount = repo.countSubmissions(a.ID)
		assignments = append(assignments, item)
	}
	sort.Slice(assignments, func(i, j int) bool { return assignments[i].DueDate.Before(assignments[j].DueDate) })
	return assignments, nil
}

func (repo *homeworkRepository) CreateAssignment(_ context.Context, a homework.Assignment) (homework.Assignment, error) {
	repo.curriculum.RLock()
	defer repo.curriculum.RUnlock()
	repo.db.Lock()
	defer repo.db.Unlock()

	s, ok := repo.curriculum.subjects[a.SubjectID]
	if !ok {
		return homework.Assignment{}, homework.ErrSubjectNotFound
	}
	a.ID = uuid.NewString()
	a.SubjectName = s.Name
	repo.db.assignments[a.ID] = &a
	return a, nil
}

func (repo *homeworkRepository) GetAssignment(_ context.Context, id string) (homework.Assignment, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	a, ok := repo.db.assignments[id]
	if !ok || a.IsDeleted {
		return homework.Assignment{}, homework.ErrNotFound
	}
	return *a, nil
}

func (repo *homeworkRepository) CreateSubmission(_ context.Context, sub homework.Submission) (homework.Submission, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	for _, s := range repo.db.submissions {
		if s.AssignmentID == sub.AssignmentID && s.StudentID == sub.StudentID {
			return homework.Submission{}, homework.ErrAlreadySubmitted
		}
	}
	sub.ID = uuid.NewString()
	repo.db.submissions[sub.ID] = &sub
	return sub, nil
}

func (repo *homeworkRepository) GetSubmission(_ context.Context, id string) (homework.Submission, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	sub, ok := repo.db.submissions[id]
	if !ok {
		return homework.Submission{}, homework.ErrSubmissionNotFound
	}
	return *sub, nil
}

func (repo *homeworkRepository) UpdateSubmission(_ context.Context, sub homework.Submission) (homework.Submission, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	orig, ok := repo.db.submissions[sub.ID]
	if !ok {
		return homework.Submission{}, homework.ErrSubmissionNotFound
	}
	orig.Score = sub.Score
	orig.Feedback = sub.Feedback
	orig.Status = sub.Status
	orig.GradedAt = sub.GradedAt
	return *orig, nil
}

func newestSubmissionsFirst(subs []homework.Submission) {
	sort.Slice(subs, func(i, j int) bool { return subs[i].SubmittedAt.After(subs[j].SubmittedAt) })
}

func (repo *homeworkRepository) QuerySubmissions(_ context.Context, assignmentID string) ([]homework.Submission, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()
	repo.users.RLock()
	defer repo.users.RUnlock()

	subs := make([]homework.Submission, 0)
	for _, sub := range repo.db.submissions {
		if sub.AssignmentID != assignmentID {
			continue
		}
		item := *sub
		if usr, ok := repo.users.table[sub.StudentID]; ok {
			item.StudentName = usr.Name
			item.StudentEmail = usr.Email
		}
		subs = append(subs, item)
	}
	newestSubmissionsFirst(subs)
	return subs, nil
}

func (repo *homeworkRepository) QueryStudentSubmissions(_ context.Context, studentID string) ([]homework.Submission, error) {
	repo.curriculum.RLock()
	defer repo.curriculum.RUnlock()
	repo.db.RLock()
	defer repo.db.RUnlock()

	subs := make([]homework.Submission, 0)
	for _, sub := range repo.db.submissions {
		if sub.StudentID != studentID {
			continue
		}
		item := *sub
		if a, ok := repo.db.assignments[sub.AssignmentID]; ok {
			due := a.DueDate
			item.AssignmentTitle = a.Title
			item.DueDate = &due
			if s, ok := repo.curriculum.subjects[a.SubjectID]; ok {
				item.SubjectName = s.Name
			}
		}
		subs = append(subs, item)
	}
	newestSubmissionsFirst(subs)
	return subs, nil
}
