package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strconv"
	"strings"
	"time"

	appErrors "github.com/dsvi/school-portal-backend/internal/errors"
	"github.com/dsvi/school-portal-backend/internal/model"
	"github.com/dsvi/school-portal-backend/internal/provider"
	"github.com/dsvi/school-portal-backend/internal/queue"
	"github.com/dsvi/school-portal-backend/internal/recipient"
	"github.com/dsvi/school-portal-backend/internal/render"
	"github.com/dsvi/school-portal-backend/internal/repository"
)

// SendRequest is one outbound message composition.
type SendRequest struct {
	Subject     string            `json:"subject"`
	Body        string            `json:"body"`
	MessageType string            `json:"message_type"`
	TemplateID  *int              `json:"template_id,omitempty"`
	Recipients  recipient.Spec    `json:"recipients"`
	Variables   map[string]string `json:"variables,omitempty"`
	ScheduledAt *time.Time        `json:"scheduled_at,omitempty"`
}

// Send statuses reported to the caller.
const (
	SendStatusSuccess   = "success"
	SendStatusScheduled = "scheduled"
	SendStatusFailed    = "failed"
)

type SendResult struct {
	MessageID       int      `json:"message_id,omitempty"`
	TotalRecipients int      `json:"total_recipients"`
	Status          string   `json:"status"`
	Provider        string   `json:"provider,omitempty"`
	DeliveryID      string   `json:"delivery_id,omitempty"`
	Simulated       bool     `json:"simulated,omitempty"`
	Errors          []string `json:"errors,omitempty"`
	Warning         string   `json:"warning,omitempty"`
}

// QueuedSend is the payload carried by the scheduled-sends queue.
type QueuedSend struct {
	Request SendRequest             `json:"request"`
	Caller  recipient.CallerContext `json:"caller"`
}

type MessageService struct {
	MessageRepo  repository.MessageRepositoryInterface
	TemplateRepo repository.TemplateRepositoryInterface
	ConfigRepo   repository.ConfigRepositoryInterface
	Resolver     *recipient.Resolver
	Chain        provider.Sender
	Queue        queue.Queue
}

// SendMessage runs the full pipeline: resolve → render → deliver → persist.
// Precondition failures (no recipients, unknown template, bad config) return
// an error and leave no side effects. A delivery failure is reported inside
// the SendResult with status failed; no Message row is written for it.
func (s *MessageService) SendMessage(ctx context.Context, req SendRequest, caller recipient.CallerContext) (*SendResult, error) {
	recipients, err := s.Resolver.Resolve(req.Recipients, caller)
	if err != nil {
		return nil, err
	}

	subjectPattern, bodyPattern, err := s.resolvePatterns(req)
	if err != nil {
		return nil, err
	}

	vars := mergeVariables(req.Variables)
	subject := render.Render(subjectPattern, vars)
	body := render.Render(bodyPattern, vars)

	if req.ScheduledAt != nil && req.ScheduledAt.After(time.Now()) {
		return s.enqueue(req, caller, len(recipients))
	}

	cfg, err := s.ConfigRepo.ActiveConfig()
	if err != nil {
		return nil, err
	}

	outcome, err := s.Chain.Send(ctx, &provider.Email{
		Subject:    subject,
		Body:       body,
		Recipients: recipients,
	}, cfg)
	if err != nil {
		return &SendResult{
			TotalRecipients: len(recipients),
			Status:          SendStatusFailed,
			Errors:          []string{err.Error()},
		}, nil
	}

	result := &SendResult{
		TotalRecipients: len(recipients),
		Status:          SendStatusSuccess,
		Provider:        outcome.Provider,
		DeliveryID:      outcome.DeliveryID,
		Simulated:       outcome.Simulated,
	}

	// The outcome is already dispatched; persistence must complete even if
	// the caller's context was cancelled mid-send.
	messageID, err := s.persistOutcome(req, caller, subject, body, recipients, outcome)
	if err != nil {
		log.Println("⚠️ message dispatched but not recorded:", err)
		result.Warning = appErrors.NewPersistence("message insert", err).Error()
	} else {
		result.MessageID = messageID
	}

	return result, nil
}

func (s *MessageService) resolvePatterns(req SendRequest) (subject, body string, err error) {
	subject, body = req.Subject, req.Body
	if req.TemplateID == nil {
		return subject, body, nil
	}

	tmpl, err := s.TemplateRepo.GetByID(*req.TemplateID)
	if err != nil {
		return "", "", err
	}
	if subject == "" {
		subject = tmpl.Subject
	}
	if body == "" {
		body = tmpl.Body
	}
	return subject, body, nil
}

func (s *MessageService) enqueue(req SendRequest, caller recipient.CallerContext, total int) (*SendResult, error) {
	payload, err := json.Marshal(QueuedSend{Request: req, Caller: caller})
	if err != nil {
		return nil, err
	}
	if err := s.Queue.Publish(queue.TopicScheduledSends, payload); err != nil {
		return nil, err
	}
	return &SendResult{TotalRecipients: total, Status: SendStatusScheduled}, nil
}

// DispatchQueued executes a queued scheduled send. Jobs that are not yet due
// are held and republished at their scheduled time. Used by the in-memory
// subscriber and the RabbitMQ worker.
func (s *MessageService) DispatchQueued(payload []byte) error {
	var job QueuedSend
	if err := json.Unmarshal(payload, &job); err != nil {
		log.Println("⚠️ invalid scheduled send payload:", err)
		return nil // malformed jobs are dropped, not retried
	}

	if at := job.Request.ScheduledAt; at != nil {
		if delay := time.Until(*at); delay > 0 {
			time.AfterFunc(delay, func() {
				if err := s.Queue.Publish(queue.TopicScheduledSends, payload); err != nil {
					log.Println("⚠️ failed to requeue scheduled send:", err)
				}
			})
			return nil
		}
	}

	result, err := s.SendMessage(context.Background(), job.Request, job.Caller)
	if err != nil {
		var noRecipients *appErrors.ErrNoRecipients
		var templateNotFound *appErrors.ErrTemplateNotFound
		if errors.As(err, &noRecipients) || errors.As(err, &templateNotFound) {
			// Retrying cannot fix these; drop the job.
			log.Println("⚠️ dropping queued send that can never succeed:", err)
			return nil
		}
		return err
	}
	if result.Status == SendStatusFailed {
		return fmt.Errorf("scheduled send failed: %s", strings.Join(result.Errors, "; "))
	}
	return nil
}

func (s *MessageService) persistOutcome(req SendRequest, caller recipient.CallerContext, subject, body string, recipients []model.MessageRecipient, outcome *provider.Outcome) (int, error) {
	now := time.Now()
	messageType := req.MessageType
	if messageType == "" {
		messageType = model.MessageTypeEmail
	}

	msg := &model.Message{
		SenderUserID:         caller.UserID,
		Subject:              subject,
		Body:                 body,
		MessageType:          messageType,
		TemplateID:           req.TemplateID,
		Status:               model.MessageStatusSent,
		ScheduledAt:          req.ScheduledAt,
		SentAt:               &now,
		Provider:             outcome.Provider,
		ProviderMessageID:    outcome.DeliveryID,
		ProviderResponse:     outcome.Response,
		TotalRecipients:      len(recipients),
		SuccessfulDeliveries: len(recipients),
		FailedDeliveries:     0,
	}

	for i := range recipients {
		recipients[i].DeliveryStatus = model.DeliveryStatusSent
		recipients[i].SentAt = &now
	}

	if err := s.MessageRepo.CreateWithRecipients(msg, recipients); err != nil {
		return 0, err
	}
	return msg.ID, nil
}

// mergeVariables overlays caller-supplied variables on the system defaults.
func mergeVariables(vars map[string]string) map[string]string {
	now := time.Now()
	merged := map[string]string{
		"current_date": now.Format("2006-01-02"),
		"current_year": strconv.Itoa(now.Year()),
	}
	for k, v := range vars {
		merged[k] = v
	}
	return merged
}

// ====================== Template CRUD ======================

func (s *MessageService) CreateTemplate(t *model.MessageTemplate) error {
	if err := validateTemplateVariables(t); err != nil {
		return err
	}
	return s.TemplateRepo.Create(t)
}

func (s *MessageService) UpdateTemplate(t *model.MessageTemplate) error {
	if err := validateTemplateVariables(t); err != nil {
		return err
	}
	return s.TemplateRepo.Update(t)
}

func (s *MessageService) DeleteTemplate(id int) error {
	return s.TemplateRepo.Delete(id)
}

func (s *MessageService) GetTemplate(id int) (*model.MessageTemplate, error) {
	return s.TemplateRepo.GetByID(id)
}

func (s *MessageService) ListTemplates(activeOnly bool) ([]*model.MessageTemplate, error) {
	return s.TemplateRepo.ListTemplates(activeOnly)
}

// validateTemplateVariables cross-checks the placeholders used in subject and
// body against the declared variable list at save time.
func validateTemplateVariables(t *model.MessageTemplate) error {
	declared := make(map[string]bool, len(t.Variables))
	for _, v := range t.Variables {
		declared[v] = true
	}

	for _, name := range render.Placeholders(t.Subject) {
		if !declared[name] {
			return fmt.Errorf("subject placeholder {{%s}} is not declared in template variables", name)
		}
	}
	for _, name := range render.Placeholders(t.Body) {
		if !declared[name] {
			return fmt.Errorf("body placeholder {{%s}} is not declared in template variables", name)
		}
	}
	return nil
}

// ====================== History reads ======================

func (s *MessageService) GetMessages(page, pageSize int, status, messageType string) ([]*model.Message, map[string]int, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 20
	}
	if pageSize > 100 {
		pageSize = 100
	}
	offset := (page - 1) * pageSize

	messages, total, err := s.MessageRepo.ListMessages(offset, pageSize, status, messageType)
	if err != nil {
		return nil, nil, err
	}

	totalPages := (total + pageSize - 1) / pageSize
	pagination := map[string]int{
		"page":        page,
		"page_size":   pageSize,
		"total_count": total,
		"total_pages": totalPages,
	}
	return messages, pagination, nil
}

func (s *MessageService) GetMessage(id int) (*model.Message, error) {
	return s.MessageRepo.GetByID(id)
}

func (s *MessageService) GetMessageRecipients(messageID int) ([]model.MessageRecipient, error) {
	return s.MessageRepo.ListRecipients(messageID)
}

// UpdateRecipientStatus applies a delivery callback to one recipient. The
// lifecycle is monotonic: a recipient never moves back to an earlier status.
func (s *MessageService) UpdateRecipientStatus(messageID, recipientID int, status, errorMessage string) error {
	recipients, err := s.MessageRepo.ListRecipients(messageID)
	if err != nil {
		return err
	}
	for i := range recipients {
		rec := &recipients[i]
		if rec.ID != recipientID {
			continue
		}
		if !rec.CanTransitionTo(status) {
			return appErrors.NewInvalidStatusTransition(rec.DeliveryStatus, status)
		}
		return s.MessageRepo.UpdateRecipientStatus(recipientID, status, errorMessage)
	}
	return appErrors.NewRecipientNotFound(recipientID)
}

// ====================== Delivery configuration ======================

func (s *MessageService) UpdateDeliveryConfig(cfg *model.DeliveryConfig) error {
	if err := provider.ValidateConfig(cfg); err != nil {
		return err
	}
	return s.ConfigRepo.Update(cfg)
}

func (s *MessageService) TestConnection(ctx context.Context) (*provider.ConnectionResult, error) {
	cfg, err := s.ConfigRepo.ActiveConfig()
	if err != nil {
		return nil, err
	}
	return s.Chain.TestConnection(ctx, cfg)
}
