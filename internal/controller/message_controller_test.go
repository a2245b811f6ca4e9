package controller_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/dsvi/school-portal-backend/internal/controller"
	"github.com/dsvi/school-portal-backend/internal/model"
	"github.com/dsvi/school-portal-backend/internal/provider"
	"github.com/dsvi/school-portal-backend/internal/recipient"
	"github.com/dsvi/school-portal-backend/internal/service"
)

// --- Mocks ---

type MockMessageRepo struct {
	messages   []*model.Message
	recipients []model.MessageRecipient
}

func (m *MockMessageRepo) CreateWithRecipients(msg *model.Message, recipients []model.MessageRecipient) error {
	msg.ID = 1
	m.messages = append(m.messages, msg)
	m.recipients = append(m.recipients, recipients...)
	return nil
}

func (m *MockMessageRepo) GetByID(id int) (*model.Message, error) { return nil, nil }

func (m *MockMessageRepo) ListMessages(offset, limit int, status, messageType string) ([]*model.Message, int, error) {
	return m.messages, len(m.messages), nil
}

func (m *MockMessageRepo) ListRecipients(messageID int) ([]model.MessageRecipient, error) {
	return m.recipients, nil
}

func (m *MockMessageRepo) UpdateRecipientStatus(recipientID int, status, errorMessage string) error {
	return nil
}

type MockTemplateRepo struct{}

func (m *MockTemplateRepo) Create(t *model.MessageTemplate) error { return nil }
func (m *MockTemplateRepo) Update(t *model.MessageTemplate) error { return nil }
func (m *MockTemplateRepo) Delete(id int) error                   { return nil }
func (m *MockTemplateRepo) GetByID(id int) (*model.MessageTemplate, error) {
	return &model.MessageTemplate{ID: id}, nil
}
func (m *MockTemplateRepo) ListTemplates(activeOnly bool) ([]*model.MessageTemplate, error) {
	return []*model.MessageTemplate{}, nil
}

type MockConfigRepo struct{}

func (m *MockConfigRepo) ActiveConfig() (*model.DeliveryConfig, error) {
	return &model.DeliveryConfig{Provider: model.ProviderSendGrid, APIKey: "key", FromEmail: "noreply@portal.example"}, nil
}
func (m *MockConfigRepo) Update(cfg *model.DeliveryConfig) error { return nil }

type MockSender struct{}

func (m *MockSender) Send(ctx context.Context, email *provider.Email, cfg *model.DeliveryConfig) (*provider.Outcome, error) {
	return &provider.Outcome{Provider: "gateway", DeliveryID: "d-1"}, nil
}

func (m *MockSender) TestConnection(ctx context.Context, cfg *model.DeliveryConfig) (*provider.ConnectionResult, error) {
	return &provider.ConnectionResult{Provider: "gateway", OK: true}, nil
}

type MockSchoolDirectory struct{}

func (m *MockSchoolDirectory) ListAccessibleSchools(caller recipient.CallerContext) ([]model.School, error) {
	return nil, nil
}

func newController() (*controller.MessageController, *MockMessageRepo) {
	repo := &MockMessageRepo{}
	svc := &service.MessageService{
		MessageRepo:  repo,
		TemplateRepo: &MockTemplateRepo{},
		ConfigRepo:   &MockConfigRepo{},
		Resolver:     &recipient.Resolver{Schools: &MockSchoolDirectory{}},
		Chain:        &MockSender{},
	}
	return &controller.MessageController{
		MessageService: svc,
		ConfigRepo:     &MockConfigRepo{},
	}, repo
}

// --- Tests ---

func TestSendMessageHandler(t *testing.T) {
	c, repo := newController()

	payload := map[string]interface{}{
		"subject": "Hi {{school_name}}",
		"body":    "Expires {{expiry_date}}",
		"recipients": map[string]interface{}{
			"external_emails": []map[string]string{{"email": "a@x.com"}},
		},
		"variables": map[string]string{
			"school_name": "Lincoln",
			"expiry_date": "2025-01-01",
		},
	}
	body, _ := json.Marshal(payload)

	req := httptest.NewRequest(http.MethodPost, "/messages/send", bytes.NewReader(body))
	req.Header.Set("X-User-ID", "1")
	req.Header.Set("X-User-Role", recipient.RoleDSVIAdmin)
	rec := httptest.NewRecorder()

	c.SendMessage(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var result service.SendResult
	if err := json.Unmarshal(rec.Body.Bytes(), &result); err != nil {
		t.Fatal(err)
	}
	if result.Status != service.SendStatusSuccess {
		t.Errorf("expected success, got %s", result.Status)
	}
	if result.TotalRecipients != 1 {
		t.Errorf("expected 1 recipient, got %d", result.TotalRecipients)
	}

	if len(repo.messages) != 1 {
		t.Fatalf("expected 1 persisted message, got %d", len(repo.messages))
	}
	if repo.messages[0].Subject != "Hi Lincoln" {
		t.Errorf("expected rendered subject persisted, got %q", repo.messages[0].Subject)
	}
}

func TestSendMessageHandlerNoRecipients(t *testing.T) {
	c, repo := newController()

	body, _ := json.Marshal(map[string]interface{}{"subject": "s", "body": "b"})
	req := httptest.NewRequest(http.MethodPost, "/messages/send", bytes.NewReader(body))
	rec := httptest.NewRecorder()

	c.SendMessage(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	if len(repo.messages) != 0 {
		t.Errorf("no message may be persisted for a rejected request")
	}
}

func TestSendMessageHandlerInvalidBody(t *testing.T) {
	c, _ := newController()

	req := httptest.NewRequest(http.MethodPost, "/messages/send", bytes.NewReader([]byte("{not json")))
	rec := httptest.NewRecorder()

	c.SendMessage(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}
