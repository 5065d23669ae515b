package usecase

import (
	"context"
	"sync"
	"time"

	"haulhub/internal/domain/entity"
	"haulhub/internal/domain/repository"
	"haulhub/pkg/logger"
)

// Alert is one local notification surfaced to the host UI (toast, system
// notification). At most one alert fires per genuinely new feed head.
type Alert struct {
	NotificationID int64
	Type           entity.NotificationType
	Title          string
	Body           string
	RefID          int64
}

// NotificationUseCase turns a polled notification feed into deduplicated
// local alerts. Each role keeps its own channel: an independent
// last-surfaced cursor and an independent enabled toggle, so a user acting
// as both customer and supplier gets separate streams.
type NotificationUseCase struct {
	api     repository.NotificationAPI
	timeout time.Duration

	mu           sync.Mutex
	lastSurfaced map[entity.Role]int64
	enabled      map[entity.Role]bool
	cached       map[entity.Role]repository.NotificationFeed
	cacheValid   map[entity.Role]bool
	subs         map[int]func(Alert)
	nextSub      int
}

func NewNotificationUseCase(api repository.NotificationAPI, timeout time.Duration) *NotificationUseCase {
	return &NotificationUseCase{
		api:          api,
		timeout:      timeout,
		lastSurfaced: make(map[entity.Role]int64),
		enabled:      make(map[entity.Role]bool),
		cached:       make(map[entity.Role]repository.NotificationFeed),
		cacheValid:   make(map[entity.Role]bool),
		subs:         make(map[int]func(Alert)),
	}
}

// SetAlertsEnabled toggles local alerts for one role channel. The toggle is
// persisted by the host application; disabling suppresses alerts but the
// dedup cursor still advances, so re-enabling never replays a backlog.
func (uc *NotificationUseCase) SetAlertsEnabled(role entity.Role, enabled bool) {
	uc.mu.Lock()
	uc.enabled[role] = enabled
	uc.mu.Unlock()
}

// OnAlert registers a subscriber for local alerts and returns its
// unsubscribe func.
func (uc *NotificationUseCase) OnAlert(fn func(Alert)) func() {
	uc.mu.Lock()
	id := uc.nextSub
	uc.nextSub++
	uc.subs[id] = fn
	uc.mu.Unlock()

	return func() {
		uc.mu.Lock()
		delete(uc.subs, id)
		uc.mu.Unlock()
	}
}

// Poll fetches the actor's feed, raises at most one alert for the newest
// unread item when the feed head moved, and returns the feed. Even when
// several notifications arrived since the last poll, only the most recent
// triggers an alert, so catch-up never produces an alert storm.
func (uc *NotificationUseCase) Poll(ctx context.Context, actor entity.Actor) (repository.NotificationFeed, error) {
	callCtx, cancel := context.WithTimeout(ctx, uc.timeout)
	defer cancel()

	feed, err := uc.api.ListNotifications(callCtx, actor)
	if err != nil {
		return repository.NotificationFeed{}, classifyRemoteError(err, "list notifications")
	}

	newest, ok := newestNotification(feed.Notifications)

	uc.mu.Lock()
	uc.cached[actor.Role] = feed
	uc.cacheValid[actor.Role] = true

	var alert *Alert
	if ok && newest.ID != uc.lastSurfaced[actor.Role] {
		if !newest.Read && uc.enabled[actor.Role] {
			alert = &Alert{
				NotificationID: newest.ID,
				Type:           newest.Type,
				Title:          newest.Title,
				Body:           newest.Body,
				RefID:          newest.RefID,
			}
		}
		uc.lastSurfaced[actor.Role] = newest.ID
	}
	fns := make([]func(Alert), 0, len(uc.subs))
	for _, fn := range uc.subs {
		fns = append(fns, fn)
	}
	uc.mu.Unlock()

	if alert != nil {
		for _, fn := range fns {
			fn(*alert)
		}
	}
	return feed, nil
}

// UnreadBadge returns the last polled unread count for the role, zero when
// no valid poll has completed. The badge is the server's number; the
// aggregator only decides what is genuinely new.
func (uc *NotificationUseCase) UnreadBadge(role entity.Role) int {
	uc.mu.Lock()
	defer uc.mu.Unlock()

	if !uc.cacheValid[role] {
		return 0
	}
	return uc.cached[role].UnreadCount
}

// MarkAllRead marks the given notifications read. On success the cached feed
// is invalidated so the next poll reflects the new state; on failure the
// badge stays stale until the next natural poll cycle, never an immediate
// automatic retry.
func (uc *NotificationUseCase) MarkAllRead(ctx context.Context, role entity.Role, ids []int64) error {
	if len(ids) == 0 {
		return nil
	}
	callCtx, cancel := context.WithTimeout(ctx, uc.timeout)
	defer cancel()

	if err := uc.api.MarkNotificationsRead(callCtx, ids); err != nil {
		logger.Warn("MarkAllRead: %d notifications not marked, badge stale until next poll: %v", len(ids), err)
		return classifyRemoteError(err, "mark notifications read")
	}
	uc.invalidate(role)
	return nil
}

// MarkOneRead marks a single notification read, with the same stale-badge
// policy as MarkAllRead.
func (uc *NotificationUseCase) MarkOneRead(ctx context.Context, role entity.Role, id int64) error {
	callCtx, cancel := context.WithTimeout(ctx, uc.timeout)
	defer cancel()

	if err := uc.api.MarkNotificationRead(callCtx, id); err != nil {
		logger.Warn("MarkOneRead: notification %d not marked, badge stale until next poll: %v", id, err)
		return classifyRemoteError(err, "mark notification read")
	}
	uc.invalidate(role)
	return nil
}

// Watch polls the actor's feed at the given interval until the handle is
// stopped.
func (uc *NotificationUseCase) Watch(actor entity.Actor, interval time.Duration) *RefreshHandle {
	interval = clampInterval(interval)
	ctx, cancel := context.WithCancel(context.Background())
	h := &RefreshHandle{cancel: cancel, done: make(chan struct{})}

	go func() {
		defer close(h.done)
		if _, err := uc.Poll(ctx, actor); err != nil {
			logger.Debug("Watch: notification poll failed for %s: %v", actor, err)
		}

		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				if _, err := uc.Poll(ctx, actor); err != nil {
					logger.Debug("Watch: notification poll failed for %s: %v", actor, err)
				}
			case <-ctx.Done():
				return
			}
		}
	}()
	return h
}

func (uc *NotificationUseCase) invalidate(role entity.Role) {
	uc.mu.Lock()
	uc.cacheValid[role] = false
	uc.mu.Unlock()
}

func newestNotification(list []entity.Notification) (entity.Notification, bool) {
	if len(list) == 0 {
		return entity.Notification{}, false
	}
	newest := list[0]
	for _, n := range list[1:] {
		if n.ID > newest.ID {
			newest = n
		}
	}
	return newest, true
}
