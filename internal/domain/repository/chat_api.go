package repository

import (
	"context"

	"haulhub/internal/domain/entity"
)

// MessagePage is the authoritative read of one conversation's messages.
type MessagePage struct {
	OtherPartyName string           `json:"other_party_name"`
	Messages       []entity.Message `json:"messages"`
}

type SendMessageInput struct {
	ConversationID int64  `json:"conversation_id"`
	Body           string `json:"body"`
	ImageURL       string `json:"image_url,omitempty"`
	ClientKey      string `json:"client_key"`
}

// ChatAPI is the consumed remote surface for conversations. Implementations
// are external collaborators (the broker's HTTP API); the engine only
// assumes a polled request/response channel.
type ChatAPI interface {
	ListConversations(ctx context.Context, actor entity.Actor) ([]entity.Conversation, error)
	GetMessages(ctx context.Context, conversationID int64) (MessagePage, error)
	SendMessage(ctx context.Context, input SendMessageInput) (entity.Message, error)
	SetReadCursor(ctx context.Context, conversationID, lastReadID int64) error
}
