package model

import "time"

// Template kinds.
const (
	TemplateTypeWelcome        = "welcome"
	TemplateTypeExpiryWarning  = "expiry_warning"
	TemplateTypeExpired        = "expired"
	TemplateTypeRenewalSuccess = "renewal_success"
	TemplateTypePaymentOverdue = "payment_overdue"
	TemplateTypeUpdateAlert    = "update_alert"
	TemplateTypeCustom         = "custom"
)

type MessageTemplate struct {
	ID           int        `db:"id" json:"id"`
	Name         string     `db:"name" json:"name"`
	Subject      string     `db:"subject" json:"subject"`
	Body         string     `db:"body" json:"body"`
	TemplateType string     `db:"template_type" json:"template_type"`
	Variables    []string   `db:"variables" json:"variables"`
	IsActive     bool       `db:"is_active" json:"is_active"`
	CreatedAt    time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt    *time.Time `db:"updated_at" json:"updated_at,omitempty"`
}
