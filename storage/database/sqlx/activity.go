package sqlxrepos

import (
	"context"
	"encoding/json"

	"github.com/jmoiron/sqlx"

	"github.com/trezcool/mansa/core"
	"github.com/trezcool/mansa/core/activity"
	"github.com/trezcool/mansa/storage/database"
)

type activityRepository struct {
	db *sqlx.DB
}

var _ activity.Repository = (*activityRepository)(nil)

func NewActivityRepository(db *sqlx.DB) activity.Repository {
	return &activityRepository{db: db}
}

func (repo *activityRepository) CreateLog(ctx context.Context, l activity.Log) (activity.Log, error) {
	l.ID = newID()
	if len(l.Details) == 0 {
		l.Details = json.RawMessage(`{}`)
	}
	_, err := repo.db.ExecContext(ctx, `
		INSERT INTO activity_logs (id, user_id, action, details, ip, created_at) VALUES ($1, $2, $3, $4, $5, $6)`,
		l.ID, l.UserID, l.Action, []byte(l.Details), l.IP, l.CreatedAt)
	return l, err
}

func (repo *activityRepository) QueryLogs(ctx context.Context, filter activity.QueryFilter, page core.Page) ([]activity.Log, int, error) {
	where := `
		FROM activity_logs l LEFT JOIN users u ON u.id = l.user_id
		WHERE ($1 = '' OR l.action = $1)
			AND ($2 = '' OR l.action ILIKE $3 OR u.name ILIKE $3 OR u.email ILIKE $3)`
	args := []interface{}{filter.Action, filter.Search, database.Like(filter.Search)}

	var total int
	if err := repo.db.GetContext(ctx, &total, `SELECT COUNT(*)`+where, args...); err != nil {
		return nil, 0, err
	}
	limit, offset := limitOffset(page)
	logs := make([]activity.Log, 0)
	err := repo.db.SelectContext(ctx, &logs, `
		SELECT l.id, l.user_id, l.action, l.details, l.ip, l.created_at, u.name AS user_name, u.email AS user_email`+where+`
		ORDER BY l.created_at DESC LIMIT $4 OFFSET $5`,
		append(args, limit, offset)...)
	return logs, total, err
}
