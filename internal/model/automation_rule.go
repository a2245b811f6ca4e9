package model

import "time"

// Trigger kinds.
const (
	TriggerSubscriptionExpiry = "subscription_expiry"
	TriggerPaymentOverdue     = "payment_overdue"
	TriggerWelcome            = "welcome"
	TriggerRenewalSuccess     = "renewal_success"
)

type AutomationRule struct {
	ID                int        `db:"id" json:"id"`
	Name              string     `db:"name" json:"name"`
	TriggerType       string     `db:"trigger_type" json:"trigger_type"`
	TemplateID        int        `db:"template_id" json:"template_id"`
	TriggerDaysBefore *int       `db:"trigger_days_before" json:"trigger_days_before,omitempty"`
	IsActive          bool       `db:"is_active" json:"is_active"`
	LastRunAt         *time.Time `db:"last_run_at" json:"last_run_at,omitempty"`
	NextRunAt         *time.Time `db:"next_run_at" json:"next_run_at,omitempty"`
	CreatedAt         time.Time  `db:"created_at" json:"created_at"`
}
