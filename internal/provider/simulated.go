package provider

import (
	"context"
	"log"

	"github.com/google/uuid"

	"github.com/dsvi/school-portal-backend/internal/model"
)

// SimulatedTransport always succeeds and tags the outcome so callers and
// tests can tell it apart from a real delivery. It is only wired into the
// chain outside production.
type SimulatedTransport struct{}

func NewSimulatedTransport() *SimulatedTransport { return &SimulatedTransport{} }

func (t *SimulatedTransport) Name() string { return "simulated" }

func (t *SimulatedTransport) Send(ctx context.Context, email *Email, cfg *model.DeliveryConfig) (*Outcome, error) {
	log.Printf("📭 simulated send: %d recipient(s), subject %q\n", len(email.Recipients), email.Subject)
	return &Outcome{
		Provider:   t.Name(),
		DeliveryID: "sim-" + uuid.NewString(),
		Simulated:  true,
	}, nil
}

func (t *SimulatedTransport) TestConnection(ctx context.Context, cfg *model.DeliveryConfig) (*ConnectionResult, error) {
	return &ConnectionResult{Provider: t.Name(), OK: true, Detail: "simulated"}, nil
}
