package inmemdb

import (
	"context"
	"sort"

	"github.com/google/uuid"

	"github.com/trezcool/mansa/core/notification"
)

type notificationRepository struct {
	db *notificationTable
}

var _ notification.Repository = (*notificationRepository)(nil)

func NewNotificationRepository(db *DB) notification.Repository {
	return &notificationRepository{db: db.notification}
}

func (repo *notificationRepository) CreateNotifications(_ context.Context, notifs []notification.Notification) error {
	repo.db.Lock()
	defer repo.db.Unlock()

	for _, n := range notifs {
		n := n
		n.ID = uuid.NewString()
		repo.db.table[n.ID] = &n
	}
	return nil
}

func (repo *notificationRepository) GetNotification(_ context.Context, id string) (notification.Notification, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if n, ok := repo.db.table[id]; ok {
		return *n, nil
	}
	return notification.Notification{}, notification.ErrNotFound
}

func (repo *notificationRepository) QueryLatest(_ context.Context, userID string, limit int) ([]notification.Notification, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	notifs := make([]notification.Notification, 0)
	for _, n := range repo.db.table {
		if n.UserID == userID {
			notifs = append(notifs, *n)
		}
	}
	sort.Slice(notifs, func(i, j int) bool { return notifs[i].CreatedAt.After(notifs[j].CreatedAt) })
	if len(notifs) > limit {
		notifs = notifs[:limit]
	}
	return notifs, nil
}

func (repo *notificationRepository) CountUnread(_ context.Context, userID string) (int, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	var count int
	for _, n := range repo.db.table {
		if n.UserID == userID && !n.IsRead {
			count++
		}
	}
	return count, nil
}

func (repo *notificationRepository) MarkRead(_ context.Context, id string) error {
	repo.db.Lock()
	defer repo.db.Unlock()

	if n, ok := repo.db.table[id]; ok {
		n.IsRead = true
	}
	return nil
}

func (repo *notificationRepository) MarkAllRead(_ context.Context, userID string) error {
	repo.db.Lock()
	defer repo.db.Unlock()

	for _, n := range repo.db.table {
		if n.UserID == userID {
			n.IsRead = true
		}
	}
	return nil
}
