package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"coachgest-backend/internal/config"
	"coachgest-backend/internal/logger"
	"coachgest-backend/internal/notifier"
	"coachgest-backend/pkg/mailer"
	"coachgest-backend/pkg/messagequeue"
)

func main() {
	if os.Getenv("GIN_MODE") != "release" {
		if err := godotenv.Load(); err != nil {
			log.Println("Warning: Error loading .env file:", err)
		}
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Error loading configuration: %v", err)
	}
	appLogger, err := logger.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		log.Fatalf("Error initializing logger: %v", err)
	}
	defer func() { _ = appLogger.Sync() }()

	if cfg.RabbitMQURL == "" {
		appLogger.Fatal("RABBITMQ_URL is required by the notifier")
	}

	smtpMailer, err := mailer.New(mailer.Config{
		Host:     cfg.SMTPHost,
		Port:     cfg.SMTPPort,
		Username: cfg.SMTPUsername,
		Password: cfg.SMTPPassword,
		From:     cfg.MailFrom,
	})
	if err != nil {
		appLogger.Fatal("Error configuring mailer", zap.Error(err))
	}

	consumer, err := messagequeue.NewRabbitMQConsumer(messagequeue.RabbitMQConfig{
		URL:      cfg.RabbitMQURL,
		Exchange: cfg.EventsExchange,
	}, cfg.NotifierQueue, notifier.RoutingKeys, appLogger)
	if err != nil {
		appLogger.Fatal("Error connecting to RabbitMQ", zap.Error(err))
	}
	defer func() { _ = consumer.Close() }()

	n := notifier.New(smtpMailer, cfg.ClientOrigin(), appLogger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	appLogger.Info("Notifier started",
		zap.String("exchange", cfg.EventsExchange),
		zap.String("queue", cfg.NotifierQueue),
	)
	if err := consumer.Consume(ctx, n.Handle); err != nil {
		appLogger.Error("Consumer stopped", zap.Error(err))
	}
	appLogger.Info("Notifier exiting")
}
