package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	appErrors "github.com/dsvi/school-portal-backend/internal/errors"
	"github.com/dsvi/school-portal-backend/internal/model"
)

// GatewayTransport talks to the managed messaging gateway. The gateway side
// owns school-id → admin-email resolution, so recipients without an address
// are forwarded as-is.
type GatewayTransport struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

func NewGatewayTransport(baseURL, apiKey string) *GatewayTransport {
	return &GatewayTransport{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		client:  &http.Client{Timeout: 15 * time.Second},
	}
}

func (t *GatewayTransport) Name() string { return "gateway" }

type gwRecipient struct {
	Email    string `json:"email,omitempty"`
	Name     string `json:"name,omitempty"`
	SchoolID *int   `json:"school_id,omitempty"`
	Type     string `json:"type"`
}

type gwSendPayload struct {
	Subject    string        `json:"subject"`
	Body       string        `json:"body"`
	FromEmail  string        `json:"from_email"`
	FromName   string        `json:"from_name,omitempty"`
	ReplyTo    string        `json:"reply_to,omitempty"`
	Provider   string        `json:"provider"`
	Recipients []gwRecipient `json:"recipients"`
}

type gwSendResponse struct {
	DeliveryID string `json:"delivery_id"`
}

func (t *GatewayTransport) Send(ctx context.Context, email *Email, cfg *model.DeliveryConfig) (*Outcome, error) {
	payload := gwSendPayload{
		Subject:   email.Subject,
		Body:      email.Body,
		FromEmail: cfg.FromEmail,
		FromName:  cfg.FromName,
		ReplyTo:   cfg.ReplyTo,
		Provider:  cfg.Provider,
	}
	for _, r := range email.Recipients {
		payload.Recipients = append(payload.Recipients, gwRecipient{
			Email:    r.Email,
			Name:     r.Name,
			SchoolID: r.SchoolID,
			Type:     r.RecipientType,
		})
	}

	respBody, status, err := t.post(ctx, "/messaging/send", payload)
	if err != nil {
		// Network failure: the gateway may simply be unreachable in this
		// deployment, let the chain fall through.
		return nil, appErrors.NewProviderTransport(t.Name(), 0, true, err)
	}
	if status == http.StatusNotFound {
		// Route absent on this gateway build, same treatment as unreachable.
		return nil, appErrors.NewProviderTransport(t.Name(), status, true,
			fmt.Errorf("messaging route not found: %s", strings.TrimSpace(string(respBody))))
	}
	if status >= 300 {
		return nil, appErrors.NewProviderTransport(t.Name(), status, false,
			fmt.Errorf("gateway rejected send: %s", strings.TrimSpace(string(respBody))))
	}

	var parsed gwSendResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil || parsed.DeliveryID == "" {
		// Older gateways return an empty body on success.
		parsed.DeliveryID = uuid.NewString()
	}

	return &Outcome{
		Provider:   t.Name(),
		DeliveryID: parsed.DeliveryID,
		Response:   string(respBody),
	}, nil
}

func (t *GatewayTransport) TestConnection(ctx context.Context, cfg *model.DeliveryConfig) (*ConnectionResult, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, t.baseURL+"/messaging/account", nil)
	if err != nil {
		return nil, appErrors.NewProviderTransport(t.Name(), 0, false, err)
	}
	req.Header.Set("Authorization", "Bearer "+t.apiKey)

	resp, err := t.client.Do(req)
	if err != nil {
		return nil, appErrors.NewProviderTransport(t.Name(), 0, true, err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)

	if resp.StatusCode == http.StatusNotFound {
		return nil, appErrors.NewProviderTransport(t.Name(), resp.StatusCode, true,
			fmt.Errorf("account route not found"))
	}
	if resp.StatusCode >= 300 {
		return nil, appErrors.NewProviderTransport(t.Name(), resp.StatusCode, false,
			fmt.Errorf("gateway account check failed: %s", strings.TrimSpace(string(body))))
	}

	return &ConnectionResult{Provider: t.Name(), OK: true, Detail: strings.TrimSpace(string(body))}, nil
}

func (t *GatewayTransport) post(ctx context.Context, path string, payload any) ([]byte, int, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to marshal gateway payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return nil, 0, err
	}
	req.Header.Set("Authorization", "Bearer "+t.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := t.client.Do(req)
	if err != nil {
		return nil, 0, err
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(resp.Body)
	return respBody, resp.StatusCode, nil
}
