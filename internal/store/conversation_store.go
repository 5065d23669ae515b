package store

import (
	"sort"
	"sync"

	"haulhub/internal/domain/entity"
	"haulhub/internal/domain/service"
)

type EventKind string

const (
	EventConversations EventKind = "conversations"
	EventMessages      EventKind = "messages"
)

// Event describes one completed store mutation. ConversationID is zero for
// batch conversation upserts.
type Event struct {
	Kind           EventKind
	ConversationID int64
}

// ConversationStore is the single source of truth the UI reads from: the
// authoritative-as-of-last-sync state of every conversation and message list
// the session has touched. All mutation goes through its operation set and
// every operation completes under one lock acquisition, so a reader never
// observes a half-applied merge. Change notification is an explicit observer
// list so any UI layer or test harness can subscribe.
type ConversationStore struct {
	mu       sync.Mutex
	viewer   entity.Actor
	identity service.Identity

	conversations map[int64]*entity.Conversation
	messages      map[int64][]entity.Message
	loaded        map[int64]bool

	subs    map[int]func(Event)
	nextSub int
}

func NewConversationStore(viewer entity.Actor) *ConversationStore {
	return &ConversationStore{
		viewer:        viewer,
		identity:      service.NewIdentity(),
		conversations: make(map[int64]*entity.Conversation),
		messages:      make(map[int64][]entity.Message),
		loaded:        make(map[int64]bool),
		subs:          make(map[int]func(Event)),
	}
}

func (s *ConversationStore) Viewer() entity.Actor {
	return s.viewer
}

// Subscribe registers an observer and returns its unsubscribe func.
// Observers run after the mutation's lock is released.
func (s *ConversationStore) Subscribe(fn func(Event)) func() {
	s.mu.Lock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = fn
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		delete(s.subs, id)
		s.mu.Unlock()
	}
}

func (s *ConversationStore) snapshotSubs() []func(Event) {
	fns := make([]func(Event), 0, len(s.subs))
	for _, fn := range s.subs {
		fns = append(fns, fn)
	}
	return fns
}

func (s *ConversationStore) emit(fns []func(Event), ev Event) {
	for _, fn := range fns {
		fn(ev)
	}
}

// UpsertConversations merges a batch of conversations keyed by id. Read
// cursors only move forward: a stale snapshot can never regress a cursor the
// local session already advanced. Summary fields are recomputed from the
// message list when it is loaded, otherwise adopted from the snapshot.
func (s *ConversationStore) UpsertConversations(list []entity.Conversation) {
	s.mu.Lock()
	for _, incoming := range list {
		in := incoming
		existing, ok := s.conversations[in.ID]
		if !ok {
			c := in
			s.conversations[in.ID] = &c
			s.recomputeSummaryLocked(&c)
			continue
		}
		// Match by ref, not slot: a snapshot may list the same two
		// participants in either order.
		for i := range in.Participants {
			if p := existing.Participant(in.Participants[i].Ref()); p != nil &&
				in.Participants[i].LastReadID < p.LastReadID {
				in.Participants[i].LastReadID = p.LastReadID
			}
		}
		*existing = in
		s.recomputeSummaryLocked(existing)
	}
	fns := s.snapshotSubs()
	s.mu.Unlock()

	s.emit(fns, Event{Kind: EventConversations})
}

// UpsertMessages merges a batch into the conversation's ordered list. The
// merge is an additive union by id: a message with a known id replaces that
// entry, everything else is inserted, and nothing is ever deleted. In
// particular an in-flight pending entry survives a poll whose snapshot does
// not contain it yet.
func (s *ConversationStore) UpsertMessages(conversationID int64, batch []entity.Message) {
	s.mu.Lock()
	list := s.messages[conversationID]
	for _, incoming := range batch {
		m := incoming
		if m.State == "" && !m.Provisional() {
			m.State = entity.MessageConfirmed
		}
		replaced := false
		for i := range list {
			if list[i].ID == m.ID {
				list[i] = m
				replaced = true
				break
			}
		}
		if !replaced {
			list = append(list, m)
		}
	}
	sort.SliceStable(list, func(i, j int) bool { return list[i].Before(list[j]) })
	s.messages[conversationID] = list
	s.loaded[conversationID] = true
	if conv, ok := s.conversations[conversationID]; ok {
		s.recomputeSummaryLocked(conv)
	}
	fns := s.snapshotSubs()
	s.mu.Unlock()

	s.emit(fns, Event{Kind: EventMessages, ConversationID: conversationID})
}

// PromoteMessage replaces a provisional entry with its server-confirmed form.
// Promoting an id that was already promoted is a no-op, so a retried success
// callback leaves the store unchanged.
func (s *ConversationStore) PromoteMessage(conversationID, provisionalID int64, confirmed entity.Message) {
	s.mu.Lock()
	list := s.messages[conversationID]
	confirmed.State = entity.MessageConfirmed
	promoted := false
	for i := range list {
		if list[i].ID == provisionalID {
			list[i] = confirmed
			promoted = true
			break
		}
	}
	if !promoted {
		// The poll may have delivered the confirmed message first; make
		// sure it is present either way.
		found := false
		for i := range list {
			if list[i].ID == confirmed.ID {
				list[i] = confirmed
				found = true
				break
			}
		}
		if !found {
			list = append(list, confirmed)
		}
	}
	// A racing poll can have appended the confirmed id while the
	// provisional entry still existed; drop the duplicate.
	list = dedupeByID(list)
	sort.SliceStable(list, func(i, j int) bool { return list[i].Before(list[j]) })
	s.messages[conversationID] = list
	if conv, ok := s.conversations[conversationID]; ok {
		s.recomputeSummaryLocked(conv)
	}
	fns := s.snapshotSubs()
	s.mu.Unlock()

	s.emit(fns, Event{Kind: EventMessages, ConversationID: conversationID})
}

// DiscardMessage removes a failed provisional entry. Unknown ids are ignored.
func (s *ConversationStore) DiscardMessage(conversationID, provisionalID int64) {
	s.mu.Lock()
	list := s.messages[conversationID]
	for i := range list {
		if list[i].ID == provisionalID {
			list = append(list[:i], list[i+1:]...)
			break
		}
	}
	s.messages[conversationID] = list
	if conv, ok := s.conversations[conversationID]; ok {
		s.recomputeSummaryLocked(conv)
	}
	fns := s.snapshotSubs()
	s.mu.Unlock()

	s.emit(fns, Event{Kind: EventMessages, ConversationID: conversationID})
}

// SetReadCursor advances a participant's cursor. It reports whether the
// cursor moved; attempts to set it backward are ignored.
func (s *ConversationStore) SetReadCursor(conversationID int64, ref entity.ActorRef, messageID int64) bool {
	s.mu.Lock()
	conv, ok := s.conversations[conversationID]
	if !ok {
		s.mu.Unlock()
		return false
	}
	p := conv.Participant(ref)
	if p == nil || messageID <= p.LastReadID {
		s.mu.Unlock()
		return false
	}
	p.LastReadID = messageID
	s.recomputeSummaryLocked(conv)
	fns := s.snapshotSubs()
	s.mu.Unlock()

	s.emit(fns, Event{Kind: EventConversations, ConversationID: conversationID})
	return true
}

// Conversations returns a most-recent-first snapshot of every conversation.
func (s *ConversationStore) Conversations() []entity.Conversation {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]entity.Conversation, 0, len(s.conversations))
	for _, c := range s.conversations {
		out = append(out, *c)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].LastMessageAt.Equal(out[j].LastMessageAt) {
			return out[i].LastMessageAt.After(out[j].LastMessageAt)
		}
		return out[i].ID > out[j].ID
	})
	return out
}

func (s *ConversationStore) Conversation(id int64) (entity.Conversation, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.conversations[id]
	if !ok {
		return entity.Conversation{}, false
	}
	return *c, true
}

// Messages returns an ordered snapshot of one conversation's messages.
func (s *ConversationStore) Messages(conversationID int64) []entity.Message {
	s.mu.Lock()
	defer s.mu.Unlock()

	list := s.messages[conversationID]
	out := make([]entity.Message, len(list))
	copy(out, list)
	return out
}

// HighestConfirmedID returns the largest server-assigned message id known
// for the conversation, or zero. Provisional ids never count.
func (s *ConversationStore) HighestConfirmedID(conversationID int64) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	var max int64
	for _, m := range s.messages[conversationID] {
		if !m.Provisional() && m.ID > max {
			max = m.ID
		}
	}
	return max
}

// UnreadTotal sums the viewer-relative unread counts across conversations.
func (s *ConversationStore) UnreadTotal() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	total := 0
	for _, c := range s.conversations {
		total += c.UnreadCount
	}
	return total
}

// recomputeSummaryLocked refreshes the conversation's derived fields from
// its message list. Summaries are never ground truth: a conversation whose
// list was not loaded keeps whatever the server snapshot said.
func (s *ConversationStore) recomputeSummaryLocked(conv *entity.Conversation) {
	if !s.loaded[conv.ID] {
		return
	}
	list := s.messages[conv.ID]
	if len(list) > 0 {
		last := list[len(list)-1]
		conv.LastMessage = last.Body
		conv.LastMessageAt = last.CreatedAt
	}
	conv.UnreadCount = s.identity.UnreadFor(s.viewer, conv, list)
}

func dedupeByID(list []entity.Message) []entity.Message {
	seen := make(map[int64]bool, len(list))
	out := list[:0]
	for _, m := range list {
		if seen[m.ID] {
			continue
		}
		seen[m.ID] = true
		out = append(out, m)
	}
	return out
}
