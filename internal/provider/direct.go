package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"

	appErrors "github.com/dsvi/school-portal-backend/internal/errors"
	"github.com/dsvi/school-portal-backend/internal/model"
)

const (
	sendgridMailEndpoint    = "https://api.sendgrid.com/v3/mail/send"
	sendgridAccountEndpoint = "https://api.sendgrid.com/v3/user/account"
)

// DirectTransport calls the transactional email API directly, bypassing the
// managed gateway. Only recipients that already carry an address can be
// delivered on this path.
type DirectTransport struct {
	mailEndpoint    string
	accountEndpoint string
	client          *http.Client
}

func NewDirectTransport() *DirectTransport {
	return &DirectTransport{
		mailEndpoint:    sendgridMailEndpoint,
		accountEndpoint: sendgridAccountEndpoint,
		client:          &http.Client{Timeout: 15 * time.Second},
	}
}

func (t *DirectTransport) Name() string { return model.ProviderSendGrid }

// SendGrid v3 Mail Send API payload types.
type sgMailPayload struct {
	Personalizations []sgPersonalization `json:"personalizations"`
	From             sgAddress           `json:"from"`
	ReplyTo          *sgAddress          `json:"reply_to,omitempty"`
	Subject          string              `json:"subject"`
	Content          []sgContent         `json:"content"`
}

type sgPersonalization struct {
	To []sgAddress `json:"to"`
}

type sgAddress struct {
	Email string `json:"email"`
	Name  string `json:"name,omitempty"`
}

type sgContent struct {
	Type  string `json:"type"`
	Value string `json:"value"`
}

func (t *DirectTransport) Send(ctx context.Context, email *Email, cfg *model.DeliveryConfig) (*Outcome, error) {
	if cfg.APIKey == "" {
		return nil, appErrors.NewConfiguration("api_key")
	}

	var to []sgAddress
	for _, r := range email.Recipients {
		if r.Email == "" {
			continue
		}
		to = append(to, sgAddress{Email: r.Email, Name: r.Name})
	}
	if len(to) == 0 {
		return nil, appErrors.NewProviderTransport(t.Name(), 0, false,
			fmt.Errorf("no addressable recipients for direct delivery"))
	}

	payload := sgMailPayload{
		Personalizations: []sgPersonalization{{To: to}},
		From:             sgAddress{Email: cfg.FromEmail, Name: cfg.FromName},
		Subject:          email.Subject,
		Content:          []sgContent{{Type: "text/html", Value: email.Body}},
	}
	if cfg.ReplyTo != "" {
		payload.ReplyTo = &sgAddress{Email: cfg.ReplyTo}
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, appErrors.NewProviderTransport(t.Name(), 0, false,
			fmt.Errorf("failed to marshal provider payload: %w", err))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.mailEndpoint, bytes.NewReader(body))
	if err != nil {
		return nil, appErrors.NewProviderTransport(t.Name(), 0, false, err)
	}
	req.Header.Set("Authorization", "Bearer "+cfg.APIKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := t.client.Do(req)
	if err != nil {
		// Unreachable provider network, the dev chain may still simulate.
		return nil, appErrors.NewProviderTransport(t.Name(), 0, true, err)
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(resp.Body)
	if resp.StatusCode >= 300 {
		return nil, appErrors.NewProviderTransport(t.Name(), resp.StatusCode, false,
			fmt.Errorf("provider returned status %d: %s", resp.StatusCode, string(respBody)))
	}

	deliveryID := resp.Header.Get("X-Message-Id")
	if deliveryID == "" {
		deliveryID = uuid.NewString()
	}

	return &Outcome{
		Provider:   t.Name(),
		DeliveryID: deliveryID,
		Response:   string(respBody),
	}, nil
}

func (t *DirectTransport) TestConnection(ctx context.Context, cfg *model.DeliveryConfig) (*ConnectionResult, error) {
	if cfg.APIKey == "" {
		return nil, appErrors.NewConfiguration("api_key")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, t.accountEndpoint, nil)
	if err != nil {
		return nil, appErrors.NewProviderTransport(t.Name(), 0, false, err)
	}
	req.Header.Set("Authorization", "Bearer "+cfg.APIKey)

	resp, err := t.client.Do(req)
	if err != nil {
		return nil, appErrors.NewProviderTransport(t.Name(), 0, true, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(resp.Body)
		return nil, appErrors.NewProviderTransport(t.Name(), resp.StatusCode, false,
			fmt.Errorf("account check failed: %s", string(body)))
	}

	return &ConnectionResult{Provider: t.Name(), OK: true}, nil
}
