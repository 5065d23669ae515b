package handler

import (
	"strconv"

	"github.com/labstack/echo/v4"

	"haulhub/internal/adapter/repository"
	"haulhub/internal/domain/entity"
	domainrepo "haulhub/internal/domain/repository"
	"haulhub/internal/domain/service"
	"haulhub/internal/infrastructure/push"
	"haulhub/pkg/errors"
	"haulhub/pkg/response"
	"haulhub/pkg/utils"
)

type ChatHandler struct {
	chatRepo  *repository.MemoryChatRepository
	notifRepo *repository.MemoryNotificationRepository
	identity  service.Identity
	hub       *push.Hub
}

func NewChatHandler(chatRepo *repository.MemoryChatRepository, notifRepo *repository.MemoryNotificationRepository, hub *push.Hub) *ChatHandler {
	return &ChatHandler{
		chatRepo:  chatRepo,
		notifRepo: notifRepo,
		identity:  service.NewIdentity(),
		hub:       hub,
	}
}

type createConversationRequest struct {
	OtherRole string `json:"other_role" validate:"required,oneof=customer supplier admin driver"`
	OtherID   int64  `json:"other_id" validate:"required"`
	OtherName string `json:"other_name" validate:"required"`
}

type sendMessageRequest struct {
	Body      string `json:"body" validate:"required,max=4000"`
	ImageURL  string `json:"image_url,omitempty" validate:"omitempty,url"`
	ClientKey string `json:"client_key,omitempty"`
}

type markReadRequest struct {
	LastReadID int64 `json:"last_read_id" validate:"required"`
}

// CreateConversation opens a thread between the caller and another party.
func (h *ChatHandler) CreateConversation(c echo.Context) error {
	var req createConversationRequest
	if err := c.Bind(&req); err != nil {
		return response.Error(c, err)
	}
	if err := c.Validate(&req); err != nil {
		return response.Error(c, err)
	}

	actor, _ := actorFrom(c)
	other := entity.Actor{Role: entity.Role(req.OtherRole), ID: req.OtherID, Name: req.OtherName}

	conv, err := h.chatRepo.CreateConversation(actor, other, 0)
	if err != nil {
		return response.Error(c, err)
	}
	return response.Created(c, conv)
}

// ListConversations returns the caller's conversations, most recent first,
// with unread counts computed for the caller.
func (h *ChatHandler) ListConversations(c echo.Context) error {
	actor, _ := actorFrom(c)
	params := utils.GetPaginationParams(c)

	list := h.chatRepo.ListByActor(actor.Ref())
	for i := range list {
		list[i].UnreadCount = h.chatRepo.UnreadCountFor(list[i].ID, actor.Ref())
	}

	if params.Offset < len(list) {
		list = list[params.Offset:]
	} else {
		list = nil
	}
	if len(list) > params.Limit {
		list = list[:params.Limit]
	}
	return response.Success(c, list)
}

// GetMessages returns the full message page of one conversation. Participants
// see the facing party's name; an admin observing a dispute thread sees both.
func (h *ChatHandler) GetMessages(c echo.Context) error {
	conversationID, err := pathID(c)
	if err != nil {
		return response.Error(c, err)
	}
	actor, _ := actorFrom(c)

	conv, err := h.chatRepo.GetByID(conversationID)
	if err != nil {
		return response.Error(c, err)
	}
	if err := h.authorize(actor, &conv); err != nil {
		return response.Error(c, err)
	}

	messages, err := h.chatRepo.Messages(conversationID)
	if err != nil {
		return response.Error(c, err)
	}

	page := domainrepo.MessagePage{Messages: messages}
	if other, ok := h.identity.OtherParty(actor, &conv); ok {
		page.OtherPartyName = other.Name
	} else {
		page.OtherPartyName = conv.Participants[0].Name + " / " + conv.Participants[1].Name
	}
	return response.Success(c, page)
}

// SendMessage appends a message, notifies the facing party, and pushes the
// confirmed message over the live feed.
func (h *ChatHandler) SendMessage(c echo.Context) error {
	conversationID, err := pathID(c)
	if err != nil {
		return response.Error(c, err)
	}

	var req sendMessageRequest
	if err := c.Bind(&req); err != nil {
		return response.Error(c, err)
	}
	if err := c.Validate(&req); err != nil {
		return response.Error(c, err)
	}

	actor, _ := actorFrom(c)
	msg, err := h.chatRepo.AppendMessage(conversationID, actor, req.Body, req.ImageURL, req.ClientKey)
	if err != nil {
		return response.Error(c, err)
	}

	if conv, err := h.chatRepo.GetByID(conversationID); err == nil {
		if other, ok := h.identity.OtherParty(actor, &conv); ok {
			h.notifRepo.Push(other.Ref(), entity.NotificationMessage,
				"New message from "+actor.Name, req.Body, conversationID)
			h.hub.SendToActor(other.Ref(), push.Event{Type: push.EventNewMessage, Message: &msg})
		}
	}
	return response.Created(c, msg)
}

// MarkRead advances the caller's read cursor. Re-sent or older cursors are
// accepted and ignored.
func (h *ChatHandler) MarkRead(c echo.Context) error {
	conversationID, err := pathID(c)
	if err != nil {
		return response.Error(c, err)
	}

	var req markReadRequest
	if err := c.Bind(&req); err != nil {
		return response.Error(c, err)
	}
	if err := c.Validate(&req); err != nil {
		return response.Error(c, err)
	}

	actor, _ := actorFrom(c)
	if err := h.chatRepo.SetReadCursor(conversationID, actor.Ref(), req.LastReadID); err != nil {
		return response.Error(c, err)
	}
	return response.Success(c, map[string]interface{}{
		"conversation_id": conversationID,
		"last_read_id":    req.LastReadID,
	})
}

// CloseConversation transitions the thread to closed. Admin only.
func (h *ChatHandler) CloseConversation(c echo.Context) error {
	conversationID, err := pathID(c)
	if err != nil {
		return response.Error(c, err)
	}
	if err := h.chatRepo.Close(conversationID); err != nil {
		return response.Error(c, err)
	}
	conv, err := h.chatRepo.GetByID(conversationID)
	if err != nil {
		return response.Error(c, err)
	}
	return response.Success(c, conv)
}

func (h *ChatHandler) authorize(actor entity.Actor, conv *entity.Conversation) error {
	if h.identity.IsParticipant(actor, conv) {
		return nil
	}
	if actor.Role == entity.RoleAdmin && conv.DisputeID != 0 {
		return nil
	}
	return errors.Forbidden("not a party to this conversation", nil)
}

func pathID(c echo.Context) (int64, error) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, errors.Validation("invalid id")
	}
	return id, nil
}
