package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"dropwatch/internal/app/notifier"
	"dropwatch/internal/config"
	kafka_handler "dropwatch/internal/handler/kafka"
	kafka_infra "dropwatch/internal/infrastructure/kafka"
	"dropwatch/internal/logger"
	"dropwatch/internal/notification"
	"dropwatch/internal/storage"
	"dropwatch/internal/webhook"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading configuration: %v\n", err)
		os.Exit(1)
	}

	appLogger, err := logger.New(cfg.LogLevel, string(config.ServiceNotifier))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create zap logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = appLogger.Sync() }()

	if err := cfg.Validate(config.ServiceNotifier); err != nil {
		appLogger.Fatal("Invalid configuration", zap.Error(err))
	}
	gender, err := notification.ParseGender(cfg.Notification.SizeGender)
	if err != nil {
		appLogger.Fatal("Invalid configuration", zap.Error(err))
	}
	appLogger.Info("Notifier Service starting...")

	ctxMain, cancelMain := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancelMain()

	webhookRepository, closeStore, err := storage.OpenWebhookRepository(ctxMain, cfg, appLogger.With(zap.String("component", "WebhookStore")))
	if err != nil {
		appLogger.Fatal("Failed to open webhook registry", zap.Error(err))
	}
	defer func() {
		if err := closeStore(); err != nil {
			appLogger.Error("Error closing webhook registry", zap.Error(err))
		}
	}()

	kafkaBrokers := cfg.GetKafkaBrokers()
	if cfg.Kafka.EnsureTopics {
		ctx, cancel := context.WithTimeout(ctxMain, 10*time.Second)
		err = kafka_infra.EnsureTopics(ctx, kafkaBrokers, []string{cfg.Kafka.AdmittedItemsTopic}, appLogger)
		cancel()
		if err != nil {
			appLogger.Fatal("Failed to ensure Kafka topics", zap.Error(err))
		}
	}

	formatter := notification.NewFormatter(notification.Options{
		URLBase:       cfg.Notification.URLBase,
		DefaultColor:  int(cfg.Notification.DefaultColor),
		DefaultTitle:  cfg.Notification.DefaultTitle,
		DefaultImage:  cfg.Notification.DefaultImage,
		SizeSeparator: cfg.Notification.SizeSeparator,
		SizeGender:    gender,
		FooterPrefix:  cfg.Notification.Footer,
		Store:         notification.StoreNike,
	}, notification.NewHTTPProber(cfg.Delivery.ProbeTimeout))

	notifierService := notifier.NewNotifierService(
		webhookRepository,
		formatter,
		webhook.NewSender(cfg.Delivery.WebhookTimeout),
		cfg.Delivery.Concurrency,
		cfg.Delivery.WebhookTimeout,
		appLogger.With(zap.String("component", "NotifierService")),
	)

	admittedItemsConsumer := kafka_infra.NewConsumer(kafka_infra.ConsumerConfig{
		Brokers:        kafkaBrokers,
		Topic:          cfg.Kafka.AdmittedItemsTopic,
		GroupID:        cfg.ConsumerGroup(config.ServiceNotifier),
		HandlerTimeout: cfg.HandlerTimeout,
		RetryBackoff:   cfg.Kafka.RetryBackoff,
		MaxBackoff:     cfg.Kafka.MaxRetryBackoff,
	}, appLogger.With(zap.String("component", "AdmittedItemsConsumer")))

	handler := kafka_handler.ItemNotificationMessageHandler(
		notifierService,
		appLogger.With(zap.String("component", "ItemNotificationHandler")),
	)

	done := make(chan struct{})
	go func() {
		defer close(done)
		appLogger.Info("Starting Admitted Items Kafka Consumer...")
		if err := admittedItemsConsumer.Consume(ctxMain, handler); err != nil {
			appLogger.Error("Admitted Items Kafka Consumer failed", zap.Error(err))
		}
		appLogger.Info("Admitted Items Kafka Consumer stopped.")
	}()

	<-ctxMain.Done()
	appLogger.Info("Shutting down application...")

	select {
	case <-done:
	case <-time.After(cfg.HandlerTimeout + 5*time.Second):
		appLogger.Warn("Admitted Items Kafka Consumer did not stop in time.")
	}
	if err := admittedItemsConsumer.Close(); err != nil {
		appLogger.Error("Error closing Admitted Items Kafka Consumer", zap.Error(err))
	}
	appLogger.Info("Application gracefully shut down.")
}
