package push

import "haulhub/internal/domain/entity"

const (
	EventNewMessage         = "new_message"
	EventConversationUpdate = "conversation_update"
)

// Event is one live-feed frame. The feed is an accelerator on top of the
// polled channel: every event is also reachable through the next poll, so a
// dropped frame costs latency, never correctness.
type Event struct {
	Type         string               `json:"type"`
	Message      *entity.Message      `json:"message,omitempty"`
	Conversation *entity.Conversation `json:"conversation,omitempty"`
}
