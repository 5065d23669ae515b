package entity

import "time"

type ConversationStatus string

const (
	ConversationOpen   ConversationStatus = "open"
	ConversationClosed ConversationStatus = "closed"
)

// Participant is one of the two stored parties of a conversation together
// with its read cursor. A message is unread for the participant iff the
// message id exceeds LastReadID.
type Participant struct {
	Actor
	LastReadID int64 `json:"last_read_id"`
}

// Conversation is a two-party thread. Either participant may have initiated
// it; "other party" is always resolved relative to a viewer, never by slot.
// Admin observes dispute conversations without being stored as a participant.
type Conversation struct {
	ID           int64              `json:"id"`
	Participants [2]Participant     `json:"participants"`
	DisputeID    int64              `json:"dispute_id,omitempty"`
	Status       ConversationStatus `json:"status"`

	// Denormalized summary, derived. Recomputed from the message list when
	// it is loaded, otherwise adopted from the server snapshot.
	LastMessage   string    `json:"last_message,omitempty"`
	LastMessageAt time.Time `json:"last_message_at"`
	UnreadCount   int       `json:"unread_count"`
}

func (c *Conversation) Closed() bool {
	return c.Status == ConversationClosed
}

// Participant returns the stored participant matching ref, or nil.
func (c *Conversation) Participant(ref ActorRef) *Participant {
	for i := range c.Participants {
		if c.Participants[i].Ref() == ref {
			return &c.Participants[i]
		}
	}
	return nil
}
