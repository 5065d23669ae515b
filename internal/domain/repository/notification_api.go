package repository

import (
	"context"

	"haulhub/internal/domain/entity"
)

// NotificationFeed is one polled snapshot of an actor's notifications,
// newest first. UnreadCount is computed server-side.
type NotificationFeed struct {
	UnreadCount   int                   `json:"unread_count"`
	Notifications []entity.Notification `json:"notifications"`
}

type NotificationAPI interface {
	ListNotifications(ctx context.Context, actor entity.Actor) (NotificationFeed, error)
	MarkNotificationsRead(ctx context.Context, ids []int64) error
	MarkNotificationRead(ctx context.Context, id int64) error
}
