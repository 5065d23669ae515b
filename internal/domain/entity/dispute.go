package entity

import "time"

type DisputeStatus string

const (
	DisputePending       DisputeStatus = "pending"
	DisputeInvestigating DisputeStatus = "investigating"
	DisputeResolved      DisputeStatus = "resolved"
)

// Dispute is an order disagreement between a customer and a supplier. Each
// dispute owns a conversation between the two transacting parties; admin
// observes that conversation without being a stored participant.
type Dispute struct {
	ID         int64         `json:"id"`
	OrderID    int64         `json:"order_id"`
	Reporter   Actor         `json:"reporter"`
	Respondent Actor         `json:"respondent"`
	Subject    string        `json:"subject"`
	Status     DisputeStatus `json:"status"`

	ConversationID int64 `json:"conversation_id"`

	AssignedAdminID int64      `json:"assigned_admin_id,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
	ResolvedAt      *time.Time `json:"resolved_at,omitempty"`
}
