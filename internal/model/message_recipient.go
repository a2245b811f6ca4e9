package model

import "time"

// Recipient kinds.
const (
	RecipientTypeSchoolAdmin   = "school_admin"
	RecipientTypeInternalAdmin = "internal_admin"
	RecipientTypeExternal      = "external"
)

// Per-recipient delivery statuses, mirroring the provider lifecycle.
const (
	DeliveryStatusPending   = "pending"
	DeliveryStatusSent      = "sent"
	DeliveryStatusDelivered = "delivered"
	DeliveryStatusOpened    = "opened"
	DeliveryStatusClicked   = "clicked"
	DeliveryStatusFailed    = "failed"
	DeliveryStatusBounced   = "bounced"
)

type MessageRecipient struct {
	ID             int        `db:"id" json:"id"`
	MessageID      int        `db:"message_id" json:"message_id"`
	SchoolID       *int       `db:"school_id" json:"school_id,omitempty"`
	Email          string     `db:"email" json:"email,omitempty"`
	Name           string     `db:"name" json:"name,omitempty"`
	RecipientType  string     `db:"recipient_type" json:"recipient_type"`
	DeliveryStatus string     `db:"delivery_status" json:"delivery_status"`
	SentAt         *time.Time `db:"sent_at" json:"sent_at,omitempty"`
	DeliveredAt    *time.Time `db:"delivered_at" json:"delivered_at,omitempty"`
	OpenedAt       *time.Time `db:"opened_at" json:"opened_at,omitempty"`
	ClickedAt      *time.Time `db:"clicked_at" json:"clicked_at,omitempty"`
	ErrorMessage   string     `db:"error_message" json:"error_message,omitempty"`
	RetryCount     int        `db:"retry_count" json:"retry_count"`
	CreatedAt      time.Time  `db:"created_at" json:"created_at"`
}

// statusRank orders the delivery lifecycle so transitions never regress.
var statusRank = map[string]int{
	DeliveryStatusPending:   0,
	DeliveryStatusSent:      1,
	DeliveryStatusDelivered: 2,
	DeliveryStatusOpened:    3,
	DeliveryStatusClicked:   4,
	DeliveryStatusFailed:    2,
	DeliveryStatusBounced:   2,
}

// CanTransitionTo reports whether moving the recipient to status would keep
// the lifecycle monotonic.
func (r *MessageRecipient) CanTransitionTo(status string) bool {
	from, ok := statusRank[r.DeliveryStatus]
	if !ok {
		return false
	}
	to, ok := statusRank[status]
	if !ok {
		return false
	}
	return to >= from
}
