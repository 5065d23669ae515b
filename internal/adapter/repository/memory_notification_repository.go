package repository

import (
	"sort"
	"sync"
	"time"

	"haulhub/internal/domain/entity"
)

// MemoryNotificationRepository is the broker's per-actor notification feed.
type MemoryNotificationRepository struct {
	mu      sync.Mutex
	byActor map[entity.ActorRef][]entity.Notification
	nextID  int64
}

func NewMemoryNotificationRepository() *MemoryNotificationRepository {
	return &MemoryNotificationRepository{
		byActor: make(map[entity.ActorRef][]entity.Notification),
	}
}

// Push appends a notification to the actor's feed and returns it.
func (r *MemoryNotificationRepository) Push(ref entity.ActorRef, typ entity.NotificationType, title, body string, refID int64) entity.Notification {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.nextID++
	n := entity.Notification{
		ID:        r.nextID,
		Type:      typ,
		Title:     title,
		Body:      body,
		RefID:     refID,
		CreatedAt: time.Now(),
	}
	r.byActor[ref] = append(r.byActor[ref], n)
	return n
}

// ListByActor returns the actor's feed newest-first with its unread count.
func (r *MemoryNotificationRepository) ListByActor(ref entity.ActorRef, limit int) (int, []entity.Notification) {
	r.mu.Lock()
	defer r.mu.Unlock()

	list := r.byActor[ref]
	unread := 0
	for _, n := range list {
		if !n.Read {
			unread++
		}
	}

	out := make([]entity.Notification, len(list))
	copy(out, list)
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return unread, out
}

// MarkRead flags the given notifications read within the actor's feed.
// Unknown ids are ignored.
func (r *MemoryNotificationRepository) MarkRead(ref entity.ActorRef, ids []int64) {
	r.mu.Lock()
	defer r.mu.Unlock()

	want := make(map[int64]bool, len(ids))
	for _, id := range ids {
		want[id] = true
	}
	list := r.byActor[ref]
	for i := range list {
		if want[list[i].ID] {
			list[i].Read = true
		}
	}
}
