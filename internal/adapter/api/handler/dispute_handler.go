package handler

import (
	"github.com/labstack/echo/v4"

	"haulhub/internal/adapter/repository"
	"haulhub/internal/domain/entity"
	"haulhub/pkg/response"
)

type DisputeHandler struct {
	disputeRepo *repository.MemoryDisputeRepository
	chatRepo    *repository.MemoryChatRepository
	notifRepo   *repository.MemoryNotificationRepository
}

func NewDisputeHandler(disputeRepo *repository.MemoryDisputeRepository, chatRepo *repository.MemoryChatRepository, notifRepo *repository.MemoryNotificationRepository) *DisputeHandler {
	return &DisputeHandler{
		disputeRepo: disputeRepo,
		chatRepo:    chatRepo,
		notifRepo:   notifRepo,
	}
}

type createDisputeRequest struct {
	OrderID        int64  `json:"order_id" validate:"required"`
	RespondentRole string `json:"respondent_role" validate:"required,oneof=customer supplier driver"`
	RespondentID   int64  `json:"respondent_id" validate:"required"`
	RespondentName string `json:"respondent_name" validate:"required"`
	Subject        string `json:"subject" validate:"required,max=200"`
}

// CreateDispute files a dispute against another party and opens the thread
// the parties argue in. Admin observes that thread without joining it.
func (h *DisputeHandler) CreateDispute(c echo.Context) error {
	var req createDisputeRequest
	if err := c.Bind(&req); err != nil {
		return response.Error(c, err)
	}
	if err := c.Validate(&req); err != nil {
		return response.Error(c, err)
	}

	reporter, _ := actorFrom(c)
	respondent := entity.Actor{
		Role: entity.Role(req.RespondentRole),
		ID:   req.RespondentID,
		Name: req.RespondentName,
	}

	dispute := h.disputeRepo.Create(req.OrderID, reporter, respondent, req.Subject, 0)
	conv, err := h.chatRepo.CreateConversation(reporter, respondent, dispute.ID)
	if err != nil {
		return response.Error(c, err)
	}
	dispute, err = h.disputeRepo.AttachConversation(dispute.ID, conv.ID)
	if err != nil {
		return response.Error(c, err)
	}

	h.notifRepo.Push(respondent.Ref(), entity.NotificationDispute,
		"Dispute opened: "+req.Subject, reporter.Name+" opened a dispute on order", req.OrderID)

	return response.Created(c, dispute)
}

// ListDisputes returns every dispute, newest first. Admin only.
func (h *DisputeHandler) ListDisputes(c echo.Context) error {
	return response.Success(c, h.disputeRepo.List())
}

// ResolveDispute marks the dispute resolved and closes its thread. Admin only.
func (h *DisputeHandler) ResolveDispute(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return response.Error(c, err)
	}

	admin, _ := actorFrom(c)
	dispute, err := h.disputeRepo.Resolve(id, admin.ID)
	if err != nil {
		return response.Error(c, err)
	}
	if dispute.ConversationID != 0 {
		if err := h.chatRepo.Close(dispute.ConversationID); err != nil {
			return response.Error(c, err)
		}
	}

	for _, party := range []entity.Actor{dispute.Reporter, dispute.Respondent} {
		h.notifRepo.Push(party.Ref(), entity.NotificationDispute,
			"Dispute resolved: "+dispute.Subject, "An admin resolved the dispute", dispute.OrderID)
	}
	return response.Success(c, dispute)
}
