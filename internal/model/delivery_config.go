package model

import "time"

// Provider names selectable in a DeliveryConfig.
const (
	ProviderSendGrid = "sendgrid"
	ProviderSMTP     = "smtp"
)

// DeliveryConfig holds the active provider credentials and sender identity.
// Exactly one row is active at a time; activating a new one deactivates the rest.
type DeliveryConfig struct {
	ID        int        `db:"id" json:"id"`
	Provider  string     `db:"provider" json:"provider"`
	APIKey    string     `db:"api_key" json:"api_key,omitempty"`
	FromEmail string     `db:"from_email" json:"from_email"`
	FromName  string     `db:"from_name" json:"from_name"`
	ReplyTo   string     `db:"reply_to" json:"reply_to,omitempty"`
	IsActive  bool       `db:"is_active" json:"is_active"`
	CreatedAt time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt *time.Time `db:"updated_at" json:"updated_at,omitempty"`
}
