package model

import "time"

// Subscription statuses used by the automation engine.
const (
	SubscriptionStatusActive  = "active"
	SubscriptionStatusExpired = "expired"
)

// School is the read-only view of the school directory consumed by the
// recipient resolver and the automation engine.
type School struct {
	ID                 int        `db:"id" json:"id"`
	Name               string     `db:"name" json:"name"`
	ContactEmail       string     `db:"contact_email" json:"contact_email"`
	AdminUserID        int        `db:"admin_user_id" json:"admin_user_id"`
	PackageType        string     `db:"package_type" json:"package_type"`
	SubscriptionStatus string     `db:"subscription_status" json:"subscription_status"`
	SubscriptionEnd    *time.Time `db:"subscription_end" json:"subscription_end,omitempty"`
}
