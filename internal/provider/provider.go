package provider

import (
	"context"

	"github.com/dsvi/school-portal-backend/internal/model"
)

// Email is the rendered payload handed to a transport. Recipients may carry
// only a school reference; the gateway resolves those to admin addresses.
type Email struct {
	Subject    string
	Body       string
	Recipients []model.MessageRecipient
}

// Outcome is the terminal result of one batch delivery call.
type Outcome struct {
	Provider   string `json:"provider"`
	DeliveryID string `json:"delivery_id"`
	Response   string `json:"response,omitempty"`
	Simulated  bool   `json:"simulated"`
}

type ConnectionResult struct {
	Provider string `json:"provider"`
	OK       bool   `json:"ok"`
	Detail   string `json:"detail,omitempty"`
}

// Transport is the uniform send/test contract implemented per delivery
// mechanism (managed gateway, transactional API, SMTP relay, simulated).
type Transport interface {
	Name() string
	Send(ctx context.Context, email *Email, cfg *model.DeliveryConfig) (*Outcome, error)
	TestConnection(ctx context.Context, cfg *model.DeliveryConfig) (*ConnectionResult, error)
}

// Sender is the chain-level contract the orchestrator depends on.
type Sender interface {
	Send(ctx context.Context, email *Email, cfg *model.DeliveryConfig) (*Outcome, error)
	TestConnection(ctx context.Context, cfg *model.DeliveryConfig) (*ConnectionResult, error)
}
