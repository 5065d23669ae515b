package repository

import (
	"sort"
	"sync"
	"time"

	"haulhub/internal/domain/entity"
	"haulhub/pkg/errors"
)

// MemoryDisputeRepository is the broker's dispute ledger.
type MemoryDisputeRepository struct {
	mu       sync.Mutex
	disputes map[int64]*entity.Dispute
	nextID   int64
}

func NewMemoryDisputeRepository() *MemoryDisputeRepository {
	return &MemoryDisputeRepository{
		disputes: make(map[int64]*entity.Dispute),
	}
}

func (r *MemoryDisputeRepository) Create(orderID int64, reporter, respondent entity.Actor, subject string, conversationID int64) entity.Dispute {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.nextID++
	d := &entity.Dispute{
		ID:             r.nextID,
		OrderID:        orderID,
		Reporter:       reporter,
		Respondent:     respondent,
		Subject:        subject,
		Status:         entity.DisputePending,
		ConversationID: conversationID,
		CreatedAt:      time.Now(),
	}
	r.disputes[d.ID] = d
	return *d
}

// AttachConversation links the dispute to the thread the parties argue in.
func (r *MemoryDisputeRepository) AttachConversation(id, conversationID int64) (entity.Dispute, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	d, ok := r.disputes[id]
	if !ok {
		return entity.Dispute{}, errors.NotFound("dispute", nil)
	}
	d.ConversationID = conversationID
	return *d, nil
}

func (r *MemoryDisputeRepository) GetByID(id int64) (entity.Dispute, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	d, ok := r.disputes[id]
	if !ok {
		return entity.Dispute{}, errors.NotFound("dispute", nil)
	}
	return *d, nil
}

// List returns every dispute, newest first. Only admin calls this.
func (r *MemoryDisputeRepository) List() []entity.Dispute {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]entity.Dispute, 0, len(r.disputes))
	for _, d := range r.disputes {
		out = append(out, *d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out
}

// Resolve marks the dispute resolved by the given admin.
func (r *MemoryDisputeRepository) Resolve(id, adminID int64) (entity.Dispute, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	d, ok := r.disputes[id]
	if !ok {
		return entity.Dispute{}, errors.NotFound("dispute", nil)
	}
	if d.Status == entity.DisputeResolved {
		return entity.Dispute{}, errors.Conflict("dispute already resolved", nil)
	}
	now := time.Now()
	d.Status = entity.DisputeResolved
	d.AssignedAdminID = adminID
	d.ResolvedAt = &now
	return *d, nil
}
