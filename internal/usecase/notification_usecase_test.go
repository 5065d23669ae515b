package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"haulhub/internal/domain/entity"
	"haulhub/internal/domain/repository"
	apperrors "haulhub/pkg/errors"
)

type fakeNotificationAPI struct {
	listNotifications     func(ctx context.Context, actor entity.Actor) (repository.NotificationFeed, error)
	markNotificationsRead func(ctx context.Context, ids []int64) error
	markNotificationRead  func(ctx context.Context, id int64) error
}

func (f *fakeNotificationAPI) ListNotifications(ctx context.Context, actor entity.Actor) (repository.NotificationFeed, error) {
	return f.listNotifications(ctx, actor)
}

func (f *fakeNotificationAPI) MarkNotificationsRead(ctx context.Context, ids []int64) error {
	return f.markNotificationsRead(ctx, ids)
}

func (f *fakeNotificationAPI) MarkNotificationRead(ctx context.Context, id int64) error {
	return f.markNotificationRead(ctx, id)
}

func unreadNotification(id int64, title string) entity.Notification {
	return entity.Notification{
		ID:        id,
		Type:      entity.NotificationMessage,
		Title:     title,
		Read:      false,
		CreatedAt: time.Now(),
	}
}

func staticFeed(feed repository.NotificationFeed) *fakeNotificationAPI {
	return &fakeNotificationAPI{
		listNotifications: func(ctx context.Context, actor entity.Actor) (repository.NotificationFeed, error) {
			return feed, nil
		},
	}
}

func TestCatchUpRaisesExactlyOneAlertForNewestItem(t *testing.T) {
	feed := repository.NotificationFeed{
		UnreadCount: 3,
		Notifications: []entity.Notification{
			unreadNotification(103, "n3"),
			unreadNotification(102, "n2"),
			unreadNotification(101, "n1"),
		},
	}

	uc := NewNotificationUseCase(staticFeed(feed), time.Second)
	uc.SetAlertsEnabled(entity.RoleCustomer, true)

	var alerts []Alert
	uc.OnAlert(func(a Alert) { alerts = append(alerts, a) })

	_, err := uc.Poll(context.Background(), customer)
	require.NoError(t, err)

	require.Len(t, alerts, 1, "three arrivals, one alert")
	assert.Equal(t, int64(103), alerts[0].NotificationID)
	assert.Equal(t, "n3", alerts[0].Title)

	// Same head on the next poll: nothing new, nothing fires.
	_, err = uc.Poll(context.Background(), customer)
	require.NoError(t, err)
	assert.Len(t, alerts, 1)
}

func TestDisabledChannelSuppressesAlertsButAdvancesCursor(t *testing.T) {
	feed := repository.NotificationFeed{
		UnreadCount:   1,
		Notifications: []entity.Notification{unreadNotification(50, "new bid")},
	}

	uc := NewNotificationUseCase(staticFeed(feed), time.Second)

	var alerts []Alert
	uc.OnAlert(func(a Alert) { alerts = append(alerts, a) })

	_, err := uc.Poll(context.Background(), customer)
	require.NoError(t, err)
	assert.Empty(t, alerts)

	// Enabling afterwards must not replay the already-seen head.
	uc.SetAlertsEnabled(entity.RoleCustomer, true)
	_, err = uc.Poll(context.Background(), customer)
	require.NoError(t, err)
	assert.Empty(t, alerts)
}

func TestReadHeadNeverAlerts(t *testing.T) {
	head := unreadNotification(60, "seen already")
	head.Read = true
	feed := repository.NotificationFeed{Notifications: []entity.Notification{head}}

	uc := NewNotificationUseCase(staticFeed(feed), time.Second)
	uc.SetAlertsEnabled(entity.RoleCustomer, true)

	var alerts []Alert
	uc.OnAlert(func(a Alert) { alerts = append(alerts, a) })

	_, err := uc.Poll(context.Background(), customer)
	require.NoError(t, err)
	assert.Empty(t, alerts)
}

func TestRoleChannelsAreIndependent(t *testing.T) {
	feed := repository.NotificationFeed{
		Notifications: []entity.Notification{unreadNotification(70, "payout released")},
	}

	uc := NewNotificationUseCase(staticFeed(feed), time.Second)
	uc.SetAlertsEnabled(entity.RoleCustomer, true)
	uc.SetAlertsEnabled(entity.RoleSupplier, true)

	var alerts []Alert
	uc.OnAlert(func(a Alert) { alerts = append(alerts, a) })

	_, err := uc.Poll(context.Background(), customer)
	require.NoError(t, err)
	require.Len(t, alerts, 1)

	// The supplier channel has its own cursor, so the same head is new
	// for it.
	_, err = uc.Poll(context.Background(), supplier)
	require.NoError(t, err)
	assert.Len(t, alerts, 2)
}

func TestUnreadBadgeTracksLastValidPoll(t *testing.T) {
	feed := repository.NotificationFeed{
		UnreadCount:   3,
		Notifications: []entity.Notification{unreadNotification(80, "x")},
	}
	api := staticFeed(feed)
	api.markNotificationsRead = func(ctx context.Context, ids []int64) error { return nil }

	uc := NewNotificationUseCase(api, time.Second)

	assert.Equal(t, 0, uc.UnreadBadge(entity.RoleCustomer))

	_, err := uc.Poll(context.Background(), customer)
	require.NoError(t, err)
	assert.Equal(t, 3, uc.UnreadBadge(entity.RoleCustomer))

	// A successful mark invalidates the cached feed until the next poll.
	require.NoError(t, uc.MarkAllRead(context.Background(), entity.RoleCustomer, []int64{80}))
	assert.Equal(t, 0, uc.UnreadBadge(entity.RoleCustomer))
}

func TestFailedMarkLeavesBadgeStale(t *testing.T) {
	feed := repository.NotificationFeed{
		UnreadCount:   2,
		Notifications: []entity.Notification{unreadNotification(90, "x")},
	}
	api := staticFeed(feed)
	api.markNotificationsRead = func(ctx context.Context, ids []int64) error {
		return errors.New("gateway timeout")
	}
	api.markNotificationRead = func(ctx context.Context, id int64) error {
		return errors.New("gateway timeout")
	}

	uc := NewNotificationUseCase(api, time.Second)
	_, err := uc.Poll(context.Background(), customer)
	require.NoError(t, err)

	err = uc.MarkAllRead(context.Background(), entity.RoleCustomer, []int64{90})
	assert.True(t, apperrors.Is(err, apperrors.CodeNetwork))
	assert.Equal(t, 2, uc.UnreadBadge(entity.RoleCustomer), "badge stays stale until the next poll")

	err = uc.MarkOneRead(context.Background(), entity.RoleCustomer, 90)
	assert.True(t, apperrors.Is(err, apperrors.CodeNetwork))
	assert.Equal(t, 2, uc.UnreadBadge(entity.RoleCustomer))
}

func TestMarkAllReadWithNoIDsIsANoOp(t *testing.T) {
	api := staticFeed(repository.NotificationFeed{})
	api.markNotificationsRead = func(ctx context.Context, ids []int64) error {
		t.Fatal("no remote call expected")
		return nil
	}

	uc := NewNotificationUseCase(api, time.Second)
	assert.NoError(t, uc.MarkAllRead(context.Background(), entity.RoleCustomer, nil))
}
