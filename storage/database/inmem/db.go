package inmemdb

import (
	"sync"

	"github.com/trezcool/mansa/core/activity"
	"github.com/trezcool/mansa/core/bank"
	"github.com/trezcool/mansa/core/curriculum"
	"github.com/trezcool/mansa/core/homework"
	"github.com/trezcool/mansa/core/notification"
	"github.com/trezcool/mansa/core/qa"
	"github.com/trezcool/mansa/core/quiz"
	"github.com/trezcool/mansa/core/subscription"
	"github.com/trezcool/mansa/core/sysconfig"
	"github.com/trezcool/mansa/core/user"
)

// DB holds one lock per table group.
// Repositories reading several groups lock them in declaration order.
type (
	DB struct {
		curriculum   *curriculumTables
		quiz         *quizTables
		homework     *homeworkTables
		bank         *bankTable
		qa           *qaTables
		subscription *subscriptionTable
		notification *notificationTable
		sysconfig    *sysconfigTable
		activity     *activityTable
		user         *userTable
	}

	curriculumTables struct {
		sync.RWMutex
		stages   map[string]*curriculum.Stage
		grades   map[string]*curriculum.Grade
		subjects map[string]*curriculum.Subject
		units    map[string]*curriculum.Unit
		lessons  map[string]*curriculum.Lesson
		progress map[[2]string]*curriculum.Progress // by user and lesson IDs
	}

	quizTables struct {
		sync.RWMutex
		quizzes  map[string]*quiz.Quiz
		attempts map[string]*quiz.Attempt
		answers  map[string][]quiz.Answer // by attempt ID
		results  map[string]*quiz.Result  // by attempt ID
	}

	homeworkTables struct {
		sync.RWMutex
		assignments map[string]*homework.Assignment
		submissions map[string]*homework.Submission
	}

	bankTable struct {
		sync.RWMutex
		table map[string]*bank.Question
	}

	qaTables struct {
		sync.RWMutex
		questions map[string]*qa.Question
		answers   map[string]*qa.Answer
		votes     map[[3]string]qa.Vote // by kind, entity and user IDs
	}

	subscriptionTable struct {
		sync.RWMutex
		table map[string]*subscription.Subscription
	}

	notificationTable struct {
		sync.RWMutex
		table map[string]*notification.Notification
	}

	sysconfigTable struct {
		sync.RWMutex
		conf *sysconfig.SystemConfig
	}

	activityTable struct {
		sync.RWMutex
		logs []activity.Log
	}

	userTable struct {
		sync.RWMutex
		table map[string]*user.User
	}
)

// Open returns an empty in-memory database, used by tests.
func Open() *DB {
	return &DB{
		curriculum: &curriculumTables{
			stages:   make(map[string]*curriculum.Stage),
			grades:   make(map[string]*curriculum.Grade),
			subjects: make(map[string]*curriculum.Subject),
			units:    make(map[string]*curriculum.Unit),
			lessons:  make(map[string]*curriculum.Lesson),
			progress: make(map[[2]string]*curriculum.Progress),
		},
		quiz: &quizTables{
			quizzes:  make(map[string]*quiz.Quiz),
			attempts: make(map[string]*quiz.Attempt),
			answers:  make(map[string][]quiz.Answer),
			results:  make(map[string]*quiz.Result),
		},
		homework: &homeworkTables{
			assignments: make(map[string]*homework.Assignment),
			submissions: make(map[string]*homework.Submission),
		},
		bank: &bankTable{table: make(map[string]*bank.Question)},
		qa: &qaTables{
			questions: make(map[string]*qa.Question),
			answers:   make(map[string]*qa.Answer),
			votes:     make(map[[3]string]qa.Vote),
		},
		subscription: &subscriptionTable{table: make(map[string]*subscription.Subscription)},
		notification: &notificationTable{table: make(map[string]*notification.Notification)},
		sysconfig:    &sysconfigTable{},
		activity:     &activityTable{},
		user:         &userTable{table: make(map[string]*user.User)},
	}
}

func (tbl *subscriptionTable) approvedStudents(teacherID string) map[string]bool {
	ids := make(map[string]bool)
	for _, sub := range tbl.table {
		if sub.TeacherID == teacherID && sub.Status == subscription.StatusApproved {
			ids[sub.StudentID] = true
		}
	}
	return ids
}

func (tbl *subscriptionTable) approvedTeachers(studentID string) map[string]bool {
	ids := make(map[string]bool)
	for _, sub := range tbl.table {
		if sub.StudentID == studentID && sub.Status == subscription.StatusApproved {
			ids[sub.TeacherID] = true
		}
	}
	return ids
}

func (tbl *userTable) name(id string) string {
	if usr, ok := tbl.table[id]; ok {
		return usr.Name
	}
	return ""
}
