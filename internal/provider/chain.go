package provider

import (
	"context"
	"errors"
	"log"

	"github.com/dsvi/school-portal-backend/internal/config"
	appErrors "github.com/dsvi/school-portal-backend/internal/errors"
	"github.com/dsvi/school-portal-backend/internal/model"
)

// Chain walks the layered fallback sequence for one send attempt:
// gateway → direct provider (non-production only) → simulated (non-production
// only). The strategy is fixed at construction from the Environment value;
// the simulated step is never built in production.
type Chain struct {
	env       config.Environment
	gateway   Transport
	direct    map[string]Transport
	simulated Transport
}

func NewChain(env config.Environment, gateway Transport, direct ...Transport) *Chain {
	m := make(map[string]Transport, len(direct))
	for _, t := range direct {
		m[t.Name()] = t
	}
	c := &Chain{env: env, gateway: gateway, direct: m}
	if env != config.EnvProduction {
		c.simulated = NewSimulatedTransport()
	}
	return c
}

func (c *Chain) Send(ctx context.Context, email *Email, cfg *model.DeliveryConfig) (*Outcome, error) {
	if err := ValidateConfig(cfg); err != nil {
		return nil, err
	}

	out, err := c.gateway.Send(ctx, email, cfg)
	if err == nil {
		return out, nil
	}
	if c.env == config.EnvProduction || !retriable(err) {
		return nil, err
	}

	direct, ok := c.direct[cfg.Provider]
	if !ok {
		return nil, err
	}
	log.Println("⚠️ gateway unreachable, falling back to direct provider call:", err)

	out, directErr := direct.Send(ctx, email, cfg)
	if directErr == nil {
		return out, nil
	}
	if c.simulated != nil && retriable(directErr) {
		log.Println("⚠️ direct provider unreachable, simulating delivery:", directErr)
		return c.simulated.Send(ctx, email, cfg)
	}
	return nil, directErr
}

// TestConnection probes the chain the same way Send walks it. In development
// an unreachable chain degrades to structural validation of the config
// instead of a network probe.
func (c *Chain) TestConnection(ctx context.Context, cfg *model.DeliveryConfig) (*ConnectionResult, error) {
	if err := ValidateConfig(cfg); err != nil {
		return nil, err
	}

	res, err := c.gateway.TestConnection(ctx, cfg)
	if err == nil {
		return res, nil
	}
	if c.env == config.EnvProduction || !retriable(err) {
		return nil, err
	}

	if direct, ok := c.direct[cfg.Provider]; ok {
		res, directErr := direct.TestConnection(ctx, cfg)
		if directErr == nil {
			return res, nil
		}
		if !retriable(directErr) {
			return nil, directErr
		}
	}

	return &ConnectionResult{
		Provider: cfg.Provider,
		OK:       true,
		Detail:   "providers unreachable, configuration validated locally only",
	}, nil
}

// ValidateConfig checks the structural requirements of a delivery config.
func ValidateConfig(cfg *model.DeliveryConfig) error {
	if cfg == nil {
		return appErrors.NewConfiguration("delivery_config")
	}
	if cfg.Provider == "" {
		return appErrors.NewConfiguration("provider")
	}
	if cfg.FromEmail == "" {
		return appErrors.NewConfiguration("from_email")
	}
	if cfg.Provider != model.ProviderSMTP && cfg.APIKey == "" {
		return appErrors.NewConfiguration("api_key")
	}
	return nil
}

func retriable(err error) bool {
	var te *appErrors.ErrProviderTransport
	return errors.As(err, &te) && te.Retriable
}
