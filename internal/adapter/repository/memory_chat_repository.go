package repository

import (
	"sort"
	"sync"
	"time"

	"haulhub/internal/domain/entity"
	"haulhub/pkg/errors"
)

// MemoryChatRepository is the broker's authoritative conversation state.
// It keeps the contract a persistent store would implement: server-assigned
// ids, monotonic read cursors, idempotent sends keyed by the client key, and
// rejection of writes into closed conversations.
type MemoryChatRepository struct {
	mu            sync.Mutex
	conversations map[int64]*entity.Conversation
	messages      map[int64][]entity.Message
	byClientKey   map[string]entity.Message
	nextConvID    int64
	nextMsgID     int64
}

func NewMemoryChatRepository() *MemoryChatRepository {
	return &MemoryChatRepository{
		conversations: make(map[int64]*entity.Conversation),
		messages:      make(map[int64][]entity.Message),
		byClientKey:   make(map[string]entity.Message),
	}
}

// CreateConversation opens a thread between two parties. disputeID is zero
// for regular threads.
func (r *MemoryChatRepository) CreateConversation(a, b entity.Actor, disputeID int64) (entity.Conversation, error) {
	if !a.Role.Valid() || !b.Role.Valid() {
		return entity.Conversation{}, errors.Validation("invalid participant role")
	}
	if a.Ref() == b.Ref() {
		return entity.Conversation{}, errors.Validation("a conversation needs two distinct parties")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.nextConvID++
	conv := &entity.Conversation{
		ID:     r.nextConvID,
		Status: entity.ConversationOpen,
		Participants: [2]entity.Participant{
			{Actor: a},
			{Actor: b},
		},
		DisputeID:     disputeID,
		LastMessageAt: time.Now(),
	}
	r.conversations[conv.ID] = conv
	return *conv, nil
}

// GetByID returns a copy of the conversation.
func (r *MemoryChatRepository) GetByID(id int64) (entity.Conversation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	conv, ok := r.conversations[id]
	if !ok {
		return entity.Conversation{}, errors.NotFound("conversation", nil)
	}
	return *conv, nil
}

// ListByActor returns the actor's conversations, most recent first. Admin
// additionally sees every dispute conversation as an observer.
func (r *MemoryChatRepository) ListByActor(ref entity.ActorRef) []entity.Conversation {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []entity.Conversation
	for _, conv := range r.conversations {
		if conv.Participant(ref) != nil || (ref.Role == entity.RoleAdmin && conv.DisputeID != 0) {
			out = append(out, *conv)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].LastMessageAt.Equal(out[j].LastMessageAt) {
			return out[i].LastMessageAt.After(out[j].LastMessageAt)
		}
		return out[i].ID > out[j].ID
	})
	return out
}

// Messages returns the ordered message list of a conversation.
func (r *MemoryChatRepository) Messages(conversationID int64) ([]entity.Message, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.conversations[conversationID]; !ok {
		return nil, errors.NotFound("conversation", nil)
	}
	list := r.messages[conversationID]
	out := make([]entity.Message, len(list))
	copy(out, list)
	return out, nil
}

// AppendMessage stores a message, assigns its id and timestamp, and updates
// the conversation summary. A resent client key returns the already-stored
// message instead of duplicating it.
func (r *MemoryChatRepository) AppendMessage(conversationID int64, sender entity.Actor, body, imageURL, clientKey string) (entity.Message, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	conv, ok := r.conversations[conversationID]
	if !ok {
		return entity.Message{}, errors.NotFound("conversation", nil)
	}
	if conv.Status == entity.ConversationClosed {
		return entity.Message{}, errors.Conflict("conversation is closed", nil)
	}
	if conv.Participant(sender.Ref()) == nil {
		return entity.Message{}, errors.Forbidden("sender is not a participant in this conversation", nil)
	}

	if clientKey != "" {
		if existing, ok := r.byClientKey[clientKey]; ok {
			return existing, nil
		}
	}

	r.nextMsgID++
	msg := entity.Message{
		ID:             r.nextMsgID,
		ConversationID: conversationID,
		Sender:         sender,
		Body:           body,
		ImageURL:       imageURL,
		CreatedAt:      time.Now(),
		State:          entity.MessageConfirmed,
		ClientKey:      clientKey,
	}
	r.messages[conversationID] = append(r.messages[conversationID], msg)
	if clientKey != "" {
		r.byClientKey[clientKey] = msg
	}

	conv.LastMessage = body
	conv.LastMessageAt = msg.CreatedAt
	return msg, nil
}

// SetReadCursor advances a participant's cursor. Backward moves are ignored,
// not an error: a slow client re-sending an old cursor is normal.
func (r *MemoryChatRepository) SetReadCursor(conversationID int64, ref entity.ActorRef, lastReadID int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	conv, ok := r.conversations[conversationID]
	if !ok {
		return errors.NotFound("conversation", nil)
	}
	p := conv.Participant(ref)
	if p == nil {
		return errors.Forbidden("actor is not a participant in this conversation", nil)
	}
	if lastReadID > p.LastReadID {
		p.LastReadID = lastReadID
	}
	return nil
}

// Close transitions the conversation to closed. Closure is terminal; the
// thread is never deleted.
func (r *MemoryChatRepository) Close(conversationID int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	conv, ok := r.conversations[conversationID]
	if !ok {
		return errors.NotFound("conversation", nil)
	}
	conv.Status = entity.ConversationClosed
	return nil
}

// UnreadCountFor derives the unread count of one participant.
func (r *MemoryChatRepository) UnreadCountFor(conversationID int64, ref entity.ActorRef) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	conv, ok := r.conversations[conversationID]
	if !ok {
		return 0
	}
	p := conv.Participant(ref)
	if p == nil {
		return 0
	}
	count := 0
	for _, m := range r.messages[conversationID] {
		if m.ID > p.LastReadID && m.Sender.Ref() != ref {
			count++
		}
	}
	return count
}
