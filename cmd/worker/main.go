package main

import (
	"log"

	"github.com/dsvi/school-portal-backend/internal/config"
	"github.com/dsvi/school-portal-backend/internal/db"
	"github.com/dsvi/school-portal-backend/internal/provider"
	"github.com/dsvi/school-portal-backend/internal/queue"
	"github.com/dsvi/school-portal-backend/internal/recipient"
	"github.com/dsvi/school-portal-backend/internal/repository"
	"github.com/dsvi/school-portal-backend/internal/service"
)

// The worker consumes scheduled-send jobs published by the server and runs
// them through the same orchestrator pipeline.
func main() {
	cfg := config.Load()
	if cfg.AMQPURL == "" {
		log.Fatal("AMQP_URL must be set for the worker")
	}

	db.Init()

	messageRepo := &repository.MessageRepository{DB: db.DB}
	templateRepo := &repository.TemplateRepository{DB: db.DB}
	configRepo := &repository.ConfigRepository{DB: db.DB}
	schoolRepo := &repository.SchoolRepository{DB: db.DB}

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

	rq, err := queue.NewRabbitQueue(cfg.AMQPURL)
	if err != nil {
		log.Fatal("failed to connect to RabbitMQ:", err)
	}
	defer rq.Close()

	messageService := &service.MessageService{
		MessageRepo:  messageRepo,
		TemplateRepo: templateRepo,
		ConfigRepo:   configRepo,
		Resolver:     &recipient.Resolver{Schools: schoolRepo},
		Chain:        chain,
		Queue:        rq,
	}

	if err := rq.Subscribe(queue.TopicScheduledSends, messageService.DispatchQueued); err != nil {
		log.Fatal("failed to register consumer:", err)
	}

	log.Println("Worker running, waiting for messages...")
	forever := make(chan bool)
	<-forever
}
