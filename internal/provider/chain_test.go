package provider_test

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/dsvi/school-portal-backend/internal/config"
	appErrors "github.com/dsvi/school-portal-backend/internal/errors"
	"github.com/dsvi/school-portal-backend/internal/model"
	"github.com/dsvi/school-portal-backend/internal/provider"
)

// fakeTransport scripts the outcome of one chain step and records calls.
type fakeTransport struct {
	name    string
	err     error
	calls   int
	outcome *provider.Outcome
}

func (f *fakeTransport) Name() string { return f.name }

func (f *fakeTransport) Send(ctx context.Context, email *provider.Email, cfg *model.DeliveryConfig) (*provider.Outcome, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	if f.outcome != nil {
		return f.outcome, nil
	}
	return &provider.Outcome{Provider: f.name, DeliveryID: "id-" + f.name}, nil
}

func (f *fakeTransport) TestConnection(ctx context.Context, cfg *model.DeliveryConfig) (*provider.ConnectionResult, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return &provider.ConnectionResult{Provider: f.name, OK: true}, nil
}

func validConfig() *model.DeliveryConfig {
	return &model.DeliveryConfig{
		Provider:  model.ProviderSendGrid,
		APIKey:    "key",
		FromEmail: "noreply@portal.example",
	}
}

func testEmail() *provider.Email {
	return &provider.Email{
		Subject:    "subject",
		Body:       "body",
		Recipients: []model.MessageRecipient{{Email: "a@x.com"}},
	}
}

func gatewayRouteAbsent() error {
	return appErrors.NewProviderTransport("gateway", 404, true, fmt.Errorf("messaging route not found"))
}

func networkUnreachable(name string) error {
	return appErrors.NewProviderTransport(name, 0, true, fmt.Errorf("connection refused"))
}

func TestChainGatewaySuccessStopsThere(t *testing.T) {
	gateway := &fakeTransport{name: "gateway"}
	direct := &fakeTransport{name: model.ProviderSendGrid}
	chain := provider.NewChain(config.EnvDevelopment, gateway, direct)

	out, err := chain.Send(context.Background(), testEmail(), validConfig())
	if err != nil {
		t.Fatal(err)
	}
	if out.Provider != "gateway" {
		t.Errorf("expected gateway outcome, got %s", out.Provider)
	}
	if direct.calls != 0 {
		t.Errorf("direct transport must not be called after gateway success")
	}
}

func TestChainFallsBackToSimulatedInDevelopment(t *testing.T) {
	gateway := &fakeTransport{name: "gateway", err: gatewayRouteAbsent()}
	direct := &fakeTransport{name: model.ProviderSendGrid, err: networkUnreachable(model.ProviderSendGrid)}
	chain := provider.NewChain(config.EnvDevelopment, gateway, direct)

	out, err := chain.Send(context.Background(), testEmail(), validConfig())
	if err != nil {
		t.Fatal(err)
	}
	if !out.Simulated {
		t.Errorf("expected simulated outcome, got %+v", out)
	}
	if out.Provider != "simulated" {
		t.Errorf("expected simulated provider, got %s", out.Provider)
	}
	if gateway.calls != 1 || direct.calls != 1 {
		t.Errorf("expected one gateway and one direct attempt, got %d and %d", gateway.calls, direct.calls)
	}
}

func TestChainNeverSimulatesInProduction(t *testing.T) {
	gateway := &fakeTransport{name: "gateway", err: gatewayRouteAbsent()}
	direct := &fakeTransport{name: model.ProviderSendGrid, err: networkUnreachable(model.ProviderSendGrid)}
	chain := provider.NewChain(config.EnvProduction, gateway, direct)

	_, err := chain.Send(context.Background(), testEmail(), validConfig())
	if err == nil {
		t.Fatal("expected failure in production when gateway is down")
	}
	if direct.calls != 0 {
		t.Errorf("production must not fall back to the direct transport")
	}

	var te *appErrors.ErrProviderTransport
	if !errors.As(err, &te) || te.Provider != "gateway" {
		t.Errorf("expected gateway transport error, got %v", err)
	}
}

func TestChainTerminalDirectErrorDoesNotSimulate(t *testing.T) {
	gateway := &fakeTransport{name: "gateway", err: networkUnreachable("gateway")}
	direct := &fakeTransport{
		name: model.ProviderSendGrid,
		err:  appErrors.NewProviderTransport(model.ProviderSendGrid, 401, false, fmt.Errorf("bad credentials")),
	}
	chain := provider.NewChain(config.EnvDevelopment, gateway, direct)

	_, err := chain.Send(context.Background(), testEmail(), validConfig())
	if err == nil {
		t.Fatal("expected terminal provider error to surface")
	}

	var te *appErrors.ErrProviderTransport
	if !errors.As(err, &te) || te.StatusCode != 401 {
		t.Errorf("expected 401 provider error, got %v", err)
	}
}

func TestChainRejectsInvalidConfigBeforeAnyCall(t *testing.T) {
	gateway := &fakeTransport{name: "gateway"}
	chain := provider.NewChain(config.EnvDevelopment, gateway)

	_, err := chain.Send(context.Background(), testEmail(), &model.DeliveryConfig{Provider: model.ProviderSendGrid})

	var ce *appErrors.ErrConfiguration
	if !errors.As(err, &ce) {
		t.Fatalf("expected configuration error, got %v", err)
	}
	if gateway.calls != 0 {
		t.Errorf("invalid config must fail before any network call")
	}
}

func TestTestConnectionFallsBackToLocalValidationInDevelopment(t *testing.T) {
	gateway := &fakeTransport{name: "gateway", err: networkUnreachable("gateway")}
	direct := &fakeTransport{name: model.ProviderSendGrid, err: networkUnreachable(model.ProviderSendGrid)}
	chain := provider.NewChain(config.EnvDevelopment, gateway, direct)

	res, err := chain.TestConnection(context.Background(), validConfig())
	if err != nil {
		t.Fatal(err)
	}
	if !res.OK {
		t.Errorf("expected local validation to pass, got %+v", res)
	}
}

func TestTestConnectionFailsInProductionWhenUnreachable(t *testing.T) {
	gateway := &fakeTransport{name: "gateway", err: networkUnreachable("gateway")}
	chain := provider.NewChain(config.EnvProduction, gateway)

	_, err := chain.TestConnection(context.Background(), validConfig())
	if err == nil {
		t.Fatal("expected connection test failure in production")
	}
}
