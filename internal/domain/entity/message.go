package entity

import "time"

type MessageState string

const (
	// MessagePending marks a locally-authored message that has not been
	// confirmed by the server yet.
	MessagePending   MessageState = "pending"
	MessageConfirmed MessageState = "confirmed"
)

// Message is a single conversation entry. Server-assigned ids are positive;
// provisional ids handed out by the local engine are negative, so the two
// spaces can never collide and a provisional entry stays recognizable until
// it is promoted or discarded.
type Message struct {
	ID             int64        `json:"id"`
	ConversationID int64        `json:"conversation_id"`
	Sender         Actor        `json:"sender"`
	Body           string       `json:"body"`
	ImageURL       string       `json:"image_url,omitempty"`
	CreatedAt      time.Time    `json:"created_at"`
	State          MessageState `json:"state"`

	// ClientKey is a uuid attached to locally-authored messages so the
	// server can deduplicate a resent payload. Empty on polled messages.
	ClientKey string `json:"client_key,omitempty"`
}

func (m Message) Provisional() bool {
	return m.ID < 0
}

// Before reports the total order within a conversation:
// (created timestamp, id) ascending.
func (m Message) Before(other Message) bool {
	if !m.CreatedAt.Equal(other.CreatedAt) {
		return m.CreatedAt.Before(other.CreatedAt)
	}
	return m.ID < other.ID
}
