package entity

import "time"

type NotificationType string

const (
	NotificationProfile NotificationType = "profile"
	NotificationBid     NotificationType = "bid"
	NotificationPayment NotificationType = "payment"
	NotificationReview  NotificationType = "review"
	NotificationMessage NotificationType = "message"
	NotificationDispute NotificationType = "dispute"
)

func (t NotificationType) Valid() bool {
	switch t {
	case NotificationProfile, NotificationBid, NotificationPayment,
		NotificationReview, NotificationMessage, NotificationDispute:
		return true
	}
	return false
}

// Notification is created server-side and only ever mutated to read by an
// explicit mark call; the client never infers read state.
type Notification struct {
	ID        int64            `json:"id"`
	Type      NotificationType `json:"type"`
	Title     string           `json:"title"`
	Body      string           `json:"body"`
	Read      bool             `json:"read"`
	RefID     int64            `json:"ref_id,omitempty"`
	CreatedAt time.Time        `json:"created_at"`
}
