package sqlxrepos

import (
	"context"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/trezcool/mansa/core/notification"
)

const notificationColumns = `id, user_id, title, message, type, link, is_read, created_at`

type notificationRepository struct {
	db *sqlx.DB
}

var _ notification.Repository = (*notificationRepository)(nil)

func NewNotificationRepository(db *sqlx.DB) notification.Repository {
	return &notificationRepository{db: db}
}

func (repo *notificationRepository) CreateNotifications(ctx context.Context, notifs []notification.Notification) error {
	if len(notifs) == 0 {
		return nil
	}
	for i := range notifs {
		notifs[i].ID = newID()
	}
	// batch insert
	_, err := repo.db.NamedExecContext(ctx, `
		INSERT INTO notifications (`+notificationColumns+`)
		VALUES (:id, :user_id, :title, :message, :type, :link, :is_read, :created_at)`, notifs)
	return errors.Wrap(err, "inserting notifications")
}

func (repo *notificationRepository) GetNotification(ctx context.Context, id string) (notification.Notification, error) {
	var n notification.Notification
	err := repo.db.GetContext(ctx, &n, `SELECT `+notificationColumns+` FROM notifications WHERE id = $1`, id)
	return n, orNotFound(err, notification.ErrNotFound)
}

func (repo *notificationRepository) QueryLatest(ctx context.Context, userID string, limit int) ([]notification.Notification, error) {
	notifs := make([]notification.Notification, 0)
	err := repo.db.SelectContext(ctx, &notifs, `
		SELECT `+notificationColumns+` FROM notifications
		WHERE user_id = $1 ORDER BY created_at DESC LIMIT $2`, userID, limit)
	return notifs, err
}

func (repo *notificationRepository) CountUnread(ctx context.Context, userID string) (int, error) {
	var n int
	err := repo.db.GetContext(ctx, &n, `SELECT COUNT(*) FROM notifications WHERE user_id = $1 AND NOT is_read`, userID)
	return n, err
}

func (repo *notificationRepository) MarkRead(ctx context.Context, id string) error {
	res, err := repo.db.ExecContext(ctx, `UPDATE notifications SET is_read = true WHERE id = $1`, id)
	return mustAffect(res, err, notification.ErrNotFound)
}

func (repo *notificationRepository) MarkAllRead(ctx context.Context, userID string) error {
	_, err := repo.db.ExecContext(ctx, `UPDATE notifications SET is_read = true WHERE user_id = $1 AND NOT is_read`, userID)
	return err
}
