package notification_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/mansa/core/notification"
	"github.com/trezcool/mansa/core/user"
	"github.com/trezcool/mansa/storage/database/inmem"
)

func TestService(t *testing.T) {
	ctx := context.Background()
	svc := notification.NewService(inmemdb.NewNotificationRepository(inmemdb.Open()), nil)

	ann := user.User{ID: "ann"}
	bob := user.User{ID: "bob"}

	svc.Notify(ctx, notification.NewNotification{Title: "New lesson", Message: "Algebra", Type: notification.TypeLesson, Link: "/lessons/1"}, ann.ID, bob.ID)
	svc.Notify(ctx, notification.NewNotification{Title: "New answer", Type: notification.TypeQA}, ann.ID)
	svc.Notify(ctx, notification.NewNotification{Title: "nobody"})

	feed, err := svc.Feed(ctx, ann)
	require.NoError(t, err)
	assert.Len(t, feed.Notifications, 2)
	assert.Equal(t, 2, feed.UnreadCount)

	bobFeed, err := svc.Feed(ctx, bob)
	require.NoError(t, err)
	require.Len(t, bobFeed.Notifications, 1)
	bobNotif := bobFeed.Notifications[0]
	require.NotNil(t, bobNotif.Link)
	assert.Equal(t, "/lessons/1", *bobNotif.Link)

	// owner only
	assert.Equal(t, notification.ErrNotFound, svc.MarkRead(ctx, ann, bobNotif.ID))
	require.NoError(t, svc.MarkRead(ctx, bob, bobNotif.ID))
	bobFeed, err = svc.Feed(ctx, bob)
	require.NoError(t, err)
	assert.Equal(t, 0, bobFeed.UnreadCount)

	require.NoError(t, svc.MarkAllRead(ctx, ann))
	feed, err = svc.Feed(ctx, ann)
	require.NoError(t, err)
	assert.Equal(t, 0, feed.UnreadCount)
}
