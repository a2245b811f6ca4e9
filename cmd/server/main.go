// cmd/server/main.go
package main

import (
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/dsvi/school-portal-backend/internal/config"
	"github.com/dsvi/school-portal-backend/internal/controller"
	"github.com/dsvi/school-portal-backend/internal/db"
	"github.com/dsvi/school-portal-backend/internal/provider"
	"github.com/dsvi/school-portal-backend/internal/queue"
	"github.com/dsvi/school-portal-backend/internal/recipient"
	"github.com/dsvi/school-portal-backend/internal/repository"
	"github.com/dsvi/school-portal-backend/internal/service"
)

func main() {
	cfg := config.Load()

	// Init DB
	db.Init()

	messageRepo := &repository.MessageRepository{DB: db.DB}
	templateRepo := &repository.TemplateRepository{DB: db.DB}
	ruleRepo := &repository.AutomationRuleRepository{DB: db.DB}
	configRepo := &repository.ConfigRepository{DB: db.DB}
	schoolRepo := &repository.SchoolRepository{DB: db.DB}

	// Delivery transports, chain fixed by environment
	gateway := provider.NewGatewayTransport(cfg.GatewayURL, cfg.GatewayAPIKey)
	direct := provider.NewDirectTransport()

	var smtpServers config.SMTPServerList
	if cfg.SMTPConfigFile != "" {
		if err := smtpServers.ReadFromFile(cfg.SMTPConfigFile); err != nil {
			log.Println("⚠️ SMTP relay config not loaded:", err)
		}
	}
	smtp := provider.NewSMTPTransport(smtpServers)

	chain := provider.NewChain(cfg.Environment, gateway, direct, smtp)

	// Scheduled sends go to RabbitMQ when a broker is configured, otherwise
	// to the in-process queue.
	var q queue.Queue
	if cfg.AMQPURL != "" {
		rq, err := queue.NewRabbitQueue(cfg.AMQPURL)
		if err != nil {
			log.Fatal("failed to connect to RabbitMQ:", err)
		}
		defer rq.Close()
		q = rq
	} else {
		q = queue.NewInMemoryQueue()
	}

	messageService := &service.MessageService{
		MessageRepo:  messageRepo,
		TemplateRepo: templateRepo,
		ConfigRepo:   configRepo,
		Resolver:     &recipient.Resolver{Schools: schoolRepo},
		Chain:        chain,
		Queue:        q,
	}

	// Local queue needs an in-process consumer; the broker path is consumed
	// by the worker binary.
	if cfg.AMQPURL == "" {
		if err := q.Subscribe(queue.TopicScheduledSends, messageService.DispatchQueued); err != nil {
			log.Println("⚠️ failed to start scheduled-sends subscriber:", err)
		}
	}

	automationService := &service.AutomationService{
		RuleRepo:   ruleRepo,
		SchoolRepo: schoolRepo,
		Messages:   messageService,
	}

	messageController := &controller.MessageController{
		MessageService:    messageService,
		AutomationService: automationService,
		RuleRepo:          ruleRepo,
		ConfigRepo:        configRepo,
	}

	r := chi.NewRouter()

	// Messaging routes
	r.Post("/messages/send", messageController.SendMessage)
	r.Get("/messages", messageController.ListMessages)
	r.Get("/messages/{id}", messageController.GetMessage)
	r.Get("/messages/{id}/recipients", messageController.ListMessageRecipients)
	r.Patch("/messages/{id}/recipients/{recipientID}", messageController.UpdateRecipientStatus)

	// Template routes
	r.Post("/templates", messageController.CreateTemplate)
	r.Get("/templates", messageController.ListTemplates)
	r.Get("/templates/{id}", messageController.GetTemplate)
	r.Put("/templates/{id}", messageController.UpdateTemplate)
	r.Delete("/templates/{id}", messageController.DeleteTemplate)

	// Automation routes
	r.Get("/automation/rules", messageController.ListAutomationRules)
	r.Post("/automation/rules", messageController.CreateAutomationRule)
	r.Post("/automation/run", messageController.RunAutomation)

	// Delivery configuration routes
	r.Get("/delivery-config", messageController.GetDeliveryConfig)
	r.Put("/delivery-config", messageController.UpdateDeliveryConfig)
	r.Post("/delivery-config/test", messageController.TestConnection)

	log.Println("🚀 Server running on :" + cfg.Port)
	log.Fatal(http.ListenAndServe(":"+cfg.Port, r))
}
