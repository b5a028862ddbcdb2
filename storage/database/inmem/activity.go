package inmemdb

import (
	"context"
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/trezcool/mansa/core"
	"github.com/trezcool/mansa/core/activity"
)

type activityRepository struct {
	db    *activityTable
	users *userTable
}

var _ activity.Repository = (*activityRepository)(nil)

func NewActivityRepository(db *DB) activity.Repository {
	return &activityRepository{db: db.activity, users: db.user}
}

func (repo *activityRepository) CreateLog(_ context.Context, l activity.Log) (activity.Log, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	l.ID = uuid.NewString()
	repo.db.logs = append(repo.db.logs, l)
	return l, nil
}

func (repo *activityRepository) QueryLogs(_ context.Context, filter activity.QueryFilter, page core.Page) ([]activity.Log, int, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()
	repo.users.RLock()
	defer repo.users.RUnlock()

	search := strings.ToLower(filter.Search)
	matches := make([]activity.Log, 0)
	for _, l := range repo.db.logs {
		if l.UserID != nil {
			if usr, ok := repo.users.table[*l.UserID]; ok {
				name, email := usr.Name, usr.Email
				l.UserName, l.UserEmail = &name, &email
			}
		}
		if filter.Action != "" && l.Action != filter.Action {
			continue
		}
		if search != "" &&
			!strings.Contains(strings.ToLower(l.Action), search) &&
			!strings.Contains(strings.ToLower(core.StringValue(l.UserName)), search) &&
			!strings.Contains(strings.ToLower(core.StringValue(l.UserEmail)), search) {
			continue
		}
		matches = append(matches, l)
	}
	sort.SliceStable(matches, func(i, j int) bool { return matches[i].CreatedAt.After(matches[j].CreatedAt) })
	return paginate(matches, page), len(matches), nil
}
