package model

import "time"

// Message statuses.
const (
	MessageStatusPending   = "pending"
	MessageStatusSent      = "sent"
	MessageStatusDelivered = "delivered"
	MessageStatusFailed    = "failed"
	MessageStatusBounced   = "bounced"
)

// Message kinds.
const (
	MessageTypeEmail = "email"
	MessageTypeInApp = "in_app"
	MessageTypeSMS   = "sms"
)

type Message struct {
	ID                   int        `db:"id" json:"id"`
	SenderUserID         int        `db:"sender_user_id" json:"sender_user_id"`
	Subject              string     `db:"subject" json:"subject"`
	Body                 string     `db:"body" json:"body"`
	MessageType          string     `db:"message_type" json:"message_type"`
	TemplateID           *int       `db:"template_id" json:"template_id,omitempty"`
	Status               string     `db:"status" json:"status"`
	ScheduledAt          *time.Time `db:"scheduled_at" json:"scheduled_at,omitempty"`
	SentAt               *time.Time `db:"sent_at" json:"sent_at,omitempty"`
	Provider             string     `db:"provider" json:"provider"`
	ProviderMessageID    string     `db:"provider_message_id" json:"provider_message_id,omitempty"`
	ProviderResponse     string     `db:"provider_response" json:"provider_response,omitempty"`
	ErrorMessage         string     `db:"error_message" json:"error_message,omitempty"`
	TotalRecipients      int        `db:"total_recipients" json:"total_recipients"`
	SuccessfulDeliveries int        `db:"successful_deliveries" json:"successful_deliveries"`
	FailedDeliveries     int        `db:"failed_deliveries" json:"failed_deliveries"`
	CreatedAt            time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt            *time.Time `db:"updated_at" json:"updated_at,omitempty"`
}
