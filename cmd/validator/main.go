package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"dropwatch/internal/app/validator"
	"dropwatch/internal/config"
	kafka_handler "dropwatch/internal/handler/kafka"
	kafka_infra "dropwatch/internal/infrastructure/kafka"
	"dropwatch/internal/logger"
	"dropwatch/internal/storage"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading configuration: %v\n", err)
		os.Exit(1)
	}

	appLogger, err := logger.New(cfg.LogLevel, string(config.ServiceValidator))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create zap logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = appLogger.Sync() }()

	if err := cfg.Validate(config.ServiceValidator); err != nil {
		appLogger.Fatal("Invalid configuration", zap.Error(err))
	}
	appLogger.Info("Validator Service starting...", zap.String("store", cfg.StoreType))

	ctxMain, cancelMain := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancelMain()

	dedupRepository, closeStore, err := storage.OpenDedupRepository(ctxMain, cfg, appLogger.With(zap.String("component", "DedupStore")))
	if err != nil {
		appLogger.Fatal("Failed to open dedup store", zap.Error(err))
	}
	defer func() {
		if err := closeStore(); err != nil {
			appLogger.Error("Error closing dedup store", zap.Error(err))
		} else {
			appLogger.Info("Dedup store closed.")
		}
	}()

	kafkaBrokers := cfg.GetKafkaBrokers()
	if cfg.Kafka.EnsureTopics {
		ctx, cancel := context.WithTimeout(ctxMain, 10*time.Second)
		err = kafka_infra.EnsureTopics(ctx, kafkaBrokers, []string{cfg.Kafka.RawItemsTopic, cfg.Kafka.AdmittedItemsTopic}, appLogger)
		cancel()
		if err != nil {
			appLogger.Fatal("Failed to ensure Kafka topics", zap.Error(err))
		}
	}

	kafkaProducer := kafka_infra.NewProducer(kafkaBrokers, appLogger.With(zap.String("component", "KafkaProducer")))
	defer func() {
		if err := kafkaProducer.Close(); err != nil {
			appLogger.Error("Error closing Kafka producer", zap.Error(err))
		} else {
			appLogger.Info("Kafka producer closed.")
		}
	}()

	validatorService := validator.NewValidatorService(
		dedupRepository,
		kafkaProducer,
		cfg.Kafka.AdmittedItemsTopic,
		appLogger.With(zap.String("component", "ValidatorService")),
	)

	rawItemsConsumer := kafka_infra.NewConsumer(kafka_infra.ConsumerConfig{
		Brokers:        kafkaBrokers,
		Topic:          cfg.Kafka.RawItemsTopic,
		GroupID:        cfg.ConsumerGroup(config.ServiceValidator),
		HandlerTimeout: cfg.HandlerTimeout,
		RetryBackoff:   cfg.Kafka.RetryBackoff,
		MaxBackoff:     cfg.Kafka.MaxRetryBackoff,
	}, appLogger.With(zap.String("component", "RawItemsConsumer")))

	handler := kafka_handler.ItemValidationMessageHandler(
		validatorService,
		appLogger.With(zap.String("component", "ItemValidationHandler")),
	)

	done := make(chan struct{})
	go func() {
		defer close(done)
		appLogger.Info("Starting Raw Items Kafka Consumer...")
		if err := rawItemsConsumer.Consume(ctxMain, handler); err != nil {
			appLogger.Error("Raw Items Kafka Consumer failed", zap.Error(err))
		}
		appLogger.Info("Raw Items Kafka Consumer stopped.")
	}()

	<-ctxMain.Done()
	appLogger.Info("Shutting down application...")

	select {
	case <-done:
	case <-time.After(cfg.HandlerTimeout + 5*time.Second):
		appLogger.Warn("Raw Items Kafka Consumer did not stop in time.")
	}
	if err := rawItemsConsumer.Close(); err != nil {
		appLogger.Error("Error closing Raw Items Kafka Consumer", zap.Error(err))
	}
	appLogger.Info("Application gracefully shut down.")
}
