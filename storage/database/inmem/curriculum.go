package inmemdb

import (
	"context"
	"sort"

	"github.com/google/uuid"

	"github.com/trezcool/mansa/core/curriculum"
)

type curriculumRepository struct {
	db            *curriculumTables
	quizzes       *quizTables
	subscriptions *subscriptionTable
	users         *userTable
}

var _ curriculum.Repository = (*curriculumRepository)(nil)

func NewCurriculumRepository(db *DB) curriculum.Repository {
	return &curriculumRepository{db: db.curriculum, quizzes: db.quiz, subscriptions: db.subscription, users: db.user}
}

func (repo *curriculumRepository) CreateStage(_ context.Context, stage curriculum.Stage) (curriculum.Stage, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	stage.ID = uuid.NewString()
	stage.Grades = nil
	repo.db.stages[stage.ID] = &stage
	stage.Grades = []curriculum.Grade{}
	return stage, nil
}

func (repo *curriculumRepository) CreateGrade(_ context.Context, grade curriculum.Grade) (curriculum.Grade, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	if _, ok := repo.db.stages[grade.StageID]; !ok {
		return curriculum.Grade{}, curriculum.ErrStageNotFound
	}
	grade.ID = uuid.NewString()
	grade.Subjects = nil
	repo.db.grades[grade.ID] = &grade
	grade.Subjects = []curriculum.Subject{}
	return grade, nil
}

func (repo *curriculumRepository) CreateSubject(_ context.Context, subject curriculum.Subject) (curriculum.Subject, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	grade, ok := repo.db.grades[subject.GradeID]
	if !ok {
		return curriculum.Subject{}, curriculum.ErrGradeNotFound
	}
	subject.ID = uuid.NewString()
	subject.Units = nil
	subject.GradeName = grade.Name
	repo.db.subjects[subject.ID] = &subject
	return subject, nil
}

func (repo *curriculumRepository) CreateUnit(_ context.Context, unit curriculum.Unit) (curriculum.Unit, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	if _, ok := repo.db.subjects[unit.SubjectID]; !ok {
		return curriculum.Unit{}, curriculum.ErrSubjectNotFound
	}
	unit.ID = uuid.NewString()
	unit.Lessons = nil
	repo.db.units[unit.ID] = &unit
	return unit, nil
}

func byName[T any](items []T, name func(T) string) {
	sort.SliceStable(items, func(i, j int) bool { return name(items[i]) < name(items[j]) })
}

func (repo *curriculumRepository) QueryStageTree(context.Context) ([]curriculum.Stage, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	units := make(map[string][]curriculum.Unit)
	for _, u := range repo.db.units {
		item := *u
		item.Lessons = []curriculum.LessonSummary{}
		units[u.SubjectID] = append(units[u.SubjectID], item)
	}
	subjects := make(map[string][]curriculum.Subject)
	for _, s := range repo.db.subjects {
		item := *s
		item.Units = append([]curriculum.Unit{}, units[s.ID]...)
		byName(item.Units, func(u curriculum.Unit) string { return u.Name })
		subjects[s.GradeID] = append(subjects[s.GradeID], item)
	}
	grades := make(map[string][]curriculum.Grade)
	for _, g := range repo.db.grades {
		item := *g
		item.Subjects = append([]curriculum.Subject{}, subjects[g.ID]...)
		byName(item.Subjects, func(s curriculum.Subject) string { return s.Name })
		grades[g.StageID] = append(grades[g.StageID], item)
	}
	stages := make([]curriculum.Stage, 0, len(repo.db.stages))
	for _, s := range repo.db.stages {
		item := *s
		item.Grades = append([]curriculum.Grade{}, grades[s.ID]...)
		byName(item.Grades, func(g curriculum.Grade) string { return g.Name })
		stages = append(stages, item)
	}
	byName(stages, func(s curriculum.Stage) string { return s.Name })
	return stages, nil
}

func (repo *curriculumRepository) completed(userID, lessonID string) bool {
	p, ok := repo.db.progress[[2]string{userID, lessonID}]
	return ok && p.Completed
}

func (repo *curriculumRepository) summary(l *curriculum.Lesson, userID string) curriculum.LessonSummary {
	return curriculum.LessonSummary{
		ID:          l.ID,
		Title:       l.Title,
		UnitID:      l.UnitID,
		TeacherID:   l.TeacherID,
		TeacherName: repo.users.name(l.TeacherID),
		Published:   l.Published,
		CreatedAt:   l.CreatedAt,
		Completed:   repo.completed(userID, l.ID),
	}
}

func (repo *curriculumRepository) GetSubject(_ context.Context, id, userID string) (curriculum.Subject, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()
	repo.users.RLock()
	defer repo.users.RUnlock()

	s, ok := repo.db.subjects[id]
	if !ok {
		return curriculum.Subject{}, curriculum.ErrSubjectNotFound
	}
	subject := *s
	if g, ok := repo.db.grades[s.GradeID]; ok {
		subject.GradeName = g.Name
	}

	lessons := make(map[string][]curriculum.LessonSummary)
	for _, l := range repo.db.lessons {
		if !l.IsDeleted {
			lessons[l.UnitID] = append(lessons[l.UnitID], repo.summary(l, userID))
		}
	}
	subject.Units = []curriculum.Unit{}
	for _, u := range repo.db.units {
		if u.SubjectID != id {
			continue
		}
		unit := *u
		unit.Lessons = append([]curriculum.LessonSummary{}, lessons[u.ID]...)
		sort.Slice(unit.Lessons, func(i, j int) bool { return unit.Lessons[i].CreatedAt.Before(unit.Lessons[j].CreatedAt) })
		subject.Units = append(subject.Units, unit)
	}
	byName(subject.Units, func(u curriculum.Unit) string { return u.Name })
	return subject, nil
}

func (repo *curriculumRepository) GetLesson(_ context.Context, id string) (curriculum.Lesson, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()
	repo.quizzes.RLock()
	defer repo.quizzes.RUnlock()
	repo.users.RLock()
	defer repo.users.RUnlock()

	l, ok := repo.db.lessons[id]
	if !ok || l.IsDeleted {
		return curriculum.Lesson{}, curriculum.ErrLessonNotFound
	}
	lesson := *l
	lesson.TeacherName = repo.users.name(l.TeacherID)
	if u, ok := repo.db.units[l.UnitID]; ok {
		lesson.UnitName = u.Name
		lesson.SubjectID = u.SubjectID
	}
	for _, qz := range repo.quizzes.quizzes {
		if !qz.IsDeleted && qz.LessonID != nil && *qz.LessonID == l.ID {
			lesson.Quiz = &curriculum.QuizRef{ID: qz.ID, Title: qz.Title}
			break
		}
	}
	return lesson, nil
}

func (repo *curriculumRepository) QueryLessons(_ context.Context, teacherID string) ([]curriculum.LessonSummary, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()
	repo.users.RLock()
	defer repo.users.RUnlock()

	lessons := make([]curriculum.LessonSummary, 0)
	for _, l := range repo.db.lessons {
		if l.IsDeleted || (teacherID != "" && l.TeacherID != teacherID) {
			continue
		}
		lessons = append(lessons, repo.summary(l, ""))
	}
	byName(lessons, func(l curriculum.LessonSummary) string { return l.Title })
	return lessons, nil
}

func (repo *curriculumRepository) CreateLesson(_ context.Context, lesson curriculum.Lesson) (curriculum.Lesson, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	u, ok := repo.db.units[lesson.UnitID]
	if !ok {
		return curriculum.Lesson{}, curriculum.ErrUnitNotFound
	}
	lesson.ID = uuid.NewString()
	lesson.UnitName = u.Name
	lesson.SubjectID = u.SubjectID
	repo.db.lessons[lesson.ID] = &lesson
	return lesson, nil
}

func (repo *curriculumRepository) IsLessonCompleted(_ context.Context, userID, lessonID string) (bool, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()
	return repo.completed(userID, lessonID), nil
}

func (repo *curriculumRepository) UpsertProgress(_ context.Context, p curriculum.Progress) error {
	repo.db.Lock()
	defer repo.db.Unlock()

	repo.db.progress[[2]string{p.UserID, p.LessonID}] = &p
	return nil
}

func (repo *curriculumRepository) TeacherStats(_ context.Context, teacherID string) (curriculum.TeacherStats, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()
	repo.quizzes.RLock()
	defer repo.quizzes.RUnlock()
	repo.subscriptions.RLock()
	defer repo.subscriptions.RUnlock()

	var stats curriculum.TeacherStats
	for _, l := range repo.db.lessons {
		if l.TeacherID == teacherID && !l.IsDeleted {
			stats.Lessons++
		}
	}
	for _, qz := range repo.quizzes.quizzes {
		if qz.TeacherID == teacherID && !qz.IsDeleted {
			stats.Quizzes++
		}
	}
	stats.Students = len(repo.subscriptions.approvedStudents(teacherID))
	return stats, nil
}
