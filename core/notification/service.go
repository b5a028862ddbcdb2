package notification

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/mansa/core"
	"github.com/trezcool/mansa/core/user"
)

var (
	// errors
	ErrNotFound = core.NewNotFoundError("notification")

	nowFunc = time.Now // mockable
)

type (
	Repository interface {
		CreateNotifications(ctx context.Context, notifs []Notification) error
		GetNotification(ctx context.Context, id string) (Notification, error)
		// QueryLatest returns the latest notifications of the user, newest first.
		QueryLatest(ctx context.Context, userID string, limit int) ([]Notification, error)
		CountUnread(ctx context.Context, userID string) (int, error)
		MarkRead(ctx context.Context, id string) error
		MarkAllRead(ctx context.Context, userID string) error
	}

	// Notifier notifies users about events of other domains.
	// Notifications are best effort: failures are logged, never returned.
	Notifier interface {
		Notify(ctx context.Context, n NewNotification, userIDs ...string)
	}

	Service struct {
		repo   Repository
		logger core.Logger
	}
)

var _ Notifier = (*Service)(nil)

func NewService(repo Repository, logger core.Logger) *Service {
	return &Service{repo: repo, logger: logger}
}

func (svc *Service) Notify(ctx context.Context, n NewNotification, userIDs ...string) {
	if len(userIDs) == 0 {
		return
	}
	var link *string
	if n.Link != "" {
		l := n.Link
		link = &l
	}
	now := nowFunc().UTC()
	notifs := make([]Notification, 0, len(userIDs))
	for _, id := range userIDs {
		notifs = append(notifs, Notification{
			UserID:    id,
			Title:     n.Title,
			Message:   n.Message,
			Type:      n.Type,
			Link:      link,
			CreatedAt: now,
		})
	}
	if err := svc.repo.CreateNotifications(ctx, notifs); err != nil && svc.logger != nil {
		svc.logger.Error("creating notifications", errors.Wrap(err, "creating notifications"), map[string]interface{}{
			"type":       n.Type,
			"recipients": len(userIDs),
		})
	}
}

func (svc *Service) Feed(ctx context.Context, usr user.User) (Feed, error) {
	notifs, err := svc.repo.QueryLatest(ctx, usr.ID, feedSize)
	if err != nil {
		return Feed{}, errors.Wrap(err, "querying notifications")
	}
	if notifs == nil {
		notifs = []Notification{}
	}
	unread, err := svc.repo.CountUnread(ctx, usr.ID)
	if err != nil {
		return Feed{}, errors.Wrap(err, "counting unread notifications")
	}
	return Feed{Notifications: notifs, UnreadCount: unread}, nil
}

// MarkRead marks one of the user's notifications as read.
func (svc *Service) MarkRead(ctx context.Context, usr user.User, id string) error {
	n, err := svc.repo.GetNotification(ctx, id)
	if err != nil {
		return err
	}
	if n.UserID != usr.ID {
		return ErrNotFound
	}
	return errors.Wrap(svc.repo.MarkRead(ctx, n.ID), "marking notification read")
}

func (svc *Service) MarkAllRead(ctx context.Context, usr user.User) error {
	return errors.Wrap(svc.repo.MarkAllRead(ctx, usr.ID), "marking notifications read")
}
