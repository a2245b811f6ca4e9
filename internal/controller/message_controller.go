package controller

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	appErrors "github.com/dsvi/school-portal-backend/internal/errors"
	"github.com/dsvi/school-portal-backend/internal/model"
	"github.com/dsvi/school-portal-backend/internal/recipient"
	"github.com/dsvi/school-portal-backend/internal/repository"
	"github.com/dsvi/school-portal-backend/internal/service"
)

type MessageController struct {
	MessageService    *service.MessageService
	AutomationService *service.AutomationService
	RuleRepo          repository.AutomationRuleRepositoryInterface
	ConfigRepo        repository.ConfigRepositoryInterface
}

// callerFromRequest reads the identity-service headers set by the API
// gateway. Authentication itself is outside this subsystem.
func callerFromRequest(r *http.Request) recipient.CallerContext {
	caller := recipient.CallerContext{
		Role: r.Header.Get("X-User-Role"),
	}
	if id, err := strconv.Atoi(r.Header.Get("X-User-ID")); err == nil {
		caller.UserID = id
	}
	if raw := r.Header.Get("X-School-IDs"); raw != "" {
		for _, part := range strings.Split(raw, ",") {
			if id, err := strconv.Atoi(strings.TrimSpace(part)); err == nil {
				caller.AssignedSchoolIDs = append(caller.AssignedSchoolIDs, id)
			}
		}
	}
	return caller
}

func (c *MessageController) SendMessage(w http.ResponseWriter, r *http.Request) {
	var req service.SendRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}

	result, err := c.MessageService.SendMessage(r.Context(), req, callerFromRequest(r))
	if err != nil {
		writeSendError(w, err)
		return
	}

	status := http.StatusOK
	if result.Status == service.SendStatusFailed {
		status = http.StatusBadGateway
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(result)
}

func writeSendError(w http.ResponseWriter, err error) {
	var noRecipients *appErrors.ErrNoRecipients
	var templateNotFound *appErrors.ErrTemplateNotFound
	var configuration *appErrors.ErrConfiguration

	switch {
	case errors.As(err, &noRecipients):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.As(err, &templateNotFound):
		http.Error(w, err.Error(), http.StatusNotFound)
	case errors.As(err, &configuration):
		http.Error(w, err.Error(), http.StatusBadRequest)
	default:
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

// ListMessages returns a paginated history view.
func (c *MessageController) ListMessages(w http.ResponseWriter, r *http.Request) {
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	pageSize, _ := strconv.Atoi(r.URL.Query().Get("page_size"))
	status := r.URL.Query().Get("status")
	messageType := r.URL.Query().Get("message_type")

	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 20
	}

	messages, pagination, err := c.MessageService.GetMessages(page, pageSize, status, messageType)
	if err != nil {
		http.Error(w, "failed to fetch messages: "+err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"data":       messages,
		"pagination": pagination,
	})
}

func (c *MessageController) GetMessage(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "invalid message id", http.StatusBadRequest)
		return
	}

	msg, err := c.MessageService.GetMessage(id)
	if err != nil {
		http.Error(w, "failed to fetch message: "+err.Error(), http.StatusInternalServerError)
		return
	}
	if msg == nil {
		http.Error(w, "message not found", http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(msg)
}

// UpdateRecipientStatus is the delivery callback endpoint: providers and the
// gateway report per-recipient lifecycle progress here.
func (c *MessageController) UpdateRecipientStatus(w http.ResponseWriter, r *http.Request) {
	messageID, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "invalid message id", http.StatusBadRequest)
		return
	}
	recipientID, err := strconv.Atoi(chi.URLParam(r, "recipientID"))
	if err != nil {
		http.Error(w, "invalid recipient id", http.StatusBadRequest)
		return
	}

	var body struct {
		DeliveryStatus string `json:"delivery_status"`
		ErrorMessage   string `json:"error_message,omitempty"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}

	if err := c.MessageService.UpdateRecipientStatus(messageID, recipientID, body.DeliveryStatus, body.ErrorMessage); err != nil {
		var invalid *appErrors.ErrInvalidStatusTransition
		var notFound *appErrors.ErrRecipientNotFound
		switch {
		case errors.As(err, &invalid):
			http.Error(w, err.Error(), http.StatusConflict)
		case errors.As(err, &notFound):
			http.Error(w, err.Error(), http.StatusNotFound)
		default:
			http.Error(w, err.Error(), http.StatusInternalServerError)
		}
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (c *MessageController) ListMessageRecipients(w http.ResponseWriter, r *http.Request) {
	idStr := chi.URLParam(r, "id")
	id, err := strconv.Atoi(idStr)
	if err != nil {
		http.Error(w, "invalid message id", http.StatusBadRequest)
		return
	}

	recipients, err := c.MessageService.GetMessageRecipients(id)
	if err != nil {
		http.Error(w, "failed to fetch recipients: "+err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{"data": recipients})
}

// ====================== Templates ======================

func (c *MessageController) CreateTemplate(w http.ResponseWriter, r *http.Request) {
	var t model.MessageTemplate
	if err := json.NewDecoder(r.Body).Decode(&t); err != nil {
		http.Error(w, "invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}

	if err := c.MessageService.CreateTemplate(&t); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(t)
}

func (c *MessageController) UpdateTemplate(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "invalid template id", http.StatusBadRequest)
		return
	}

	var t model.MessageTemplate
	if err := json.NewDecoder(r.Body).Decode(&t); err != nil {
		http.Error(w, "invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}
	t.ID = id

	if err := c.MessageService.UpdateTemplate(&t); err != nil {
		var notFound *appErrors.ErrTemplateNotFound
		if errors.As(err, &notFound) {
			http.Error(w, err.Error(), http.StatusNotFound)
			return
		}
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(t)
}

func (c *MessageController) DeleteTemplate(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "invalid template id", http.StatusBadRequest)
		return
	}

	if err := c.MessageService.DeleteTemplate(id); err != nil {
		var notFound *appErrors.ErrTemplateNotFound
		if errors.As(err, &notFound) {
			http.Error(w, err.Error(), http.StatusNotFound)
			return
		}
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (c *MessageController) GetTemplate(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "invalid template id", http.StatusBadRequest)
		return
	}

	t, err := c.MessageService.GetTemplate(id)
	if err != nil {
		var notFound *appErrors.ErrTemplateNotFound
		if errors.As(err, &notFound) {
			http.Error(w, err.Error(), http.StatusNotFound)
			return
		}
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(t)
}

func (c *MessageController) ListTemplates(w http.ResponseWriter, r *http.Request) {
	activeOnly := r.URL.Query().Get("active") == "true"

	templates, err := c.MessageService.ListTemplates(activeOnly)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{"data": templates})
}

// ====================== Automation ======================

func (c *MessageController) ListAutomationRules(w http.ResponseWriter, r *http.Request) {
	rules, err := c.RuleRepo.ListAll()
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{"data": rules})
}

func (c *MessageController) CreateAutomationRule(w http.ResponseWriter, r *http.Request) {
	var rule model.AutomationRule
	if err := json.NewDecoder(r.Body).Decode(&rule); err != nil {
		http.Error(w, "invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}

	if err := c.RuleRepo.Create(&rule); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(rule)
}

// RunAutomation triggers one evaluation pass. Called by a scheduler/cron
// entry point.
func (c *MessageController) RunAutomation(w http.ResponseWriter, r *http.Request) {
	processed, err := c.AutomationService.ProcessAutomatedMessages(r.Context())
	if err != nil {
		http.Error(w, "automation pass failed: "+err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{"processed": processed})
}

// ====================== Delivery configuration ======================

func (c *MessageController) GetDeliveryConfig(w http.ResponseWriter, r *http.Request) {
	cfg, err := c.ConfigRepo.ActiveConfig()
	if err != nil {
		var configuration *appErrors.ErrConfiguration
		if errors.As(err, &configuration) {
			http.Error(w, err.Error(), http.StatusNotFound)
			return
		}
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	// Never expose the stored credential.
	cfg.APIKey = ""

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(cfg)
}

func (c *MessageController) UpdateDeliveryConfig(w http.ResponseWriter, r *http.Request) {
	var cfg model.DeliveryConfig
	if err := json.NewDecoder(r.Body).Decode(&cfg); err != nil {
		http.Error(w, "invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}

	if err := c.MessageService.UpdateDeliveryConfig(&cfg); err != nil {
		var configuration *appErrors.ErrConfiguration
		if errors.As(err, &configuration) {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	cfg.APIKey = ""
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(cfg)
}

func (c *MessageController) TestConnection(w http.ResponseWriter, r *http.Request) {
	result, err := c.MessageService.TestConnection(r.Context())
	if err != nil {
		var configuration *appErrors.ErrConfiguration
		if errors.As(err, &configuration) {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		http.Error(w, err.Error(), http.StatusBadGateway)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(result)
}
