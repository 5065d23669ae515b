package handler

import (
	"github.com/labstack/echo/v4"

	"haulhub/internal/adapter/repository"
	domainrepo "haulhub/internal/domain/repository"
	"haulhub/pkg/response"
	"haulhub/pkg/utils"
)

type NotificationHandler struct {
	notifRepo *repository.MemoryNotificationRepository
}

func NewNotificationHandler(notifRepo *repository.MemoryNotificationRepository) *NotificationHandler {
	return &NotificationHandler{notifRepo: notifRepo}
}

type markReadBatchRequest struct {
	IDs []int64 `json:"ids" validate:"required,min=1"`
}

// ListNotifications returns the caller's feed, newest first, with the
// feed-wide unread count.
func (h *NotificationHandler) ListNotifications(c echo.Context) error {
	actor, _ := actorFrom(c)
	params := utils.GetPaginationParams(c)

	unread, list := h.notifRepo.ListByActor(actor.Ref(), params.Limit)
	return response.Success(c, domainrepo.NotificationFeed{
		UnreadCount:   unread,
		Notifications: list,
	})
}

// MarkAllRead flags a batch of the caller's notifications read.
func (h *NotificationHandler) MarkAllRead(c echo.Context) error {
	var req markReadBatchRequest
	if err := c.Bind(&req); err != nil {
		return response.Error(c, err)
	}
	if err := c.Validate(&req); err != nil {
		return response.Error(c, err)
	}

	actor, _ := actorFrom(c)
	h.notifRepo.MarkRead(actor.Ref(), req.IDs)
	return response.Success(c, map[string]interface{}{"marked": len(req.IDs)})
}

// MarkOneRead flags a single notification read.
func (h *NotificationHandler) MarkOneRead(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return response.Error(c, err)
	}

	actor, _ := actorFrom(c)
	h.notifRepo.MarkRead(actor.Ref(), []int64{id})
	return response.Success(c, map[string]interface{}{"marked": 1})
}
