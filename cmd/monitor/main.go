package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"dropwatch/internal/app/monitor"
	"dropwatch/internal/config"
	kafka_infra "dropwatch/internal/infrastructure/kafka"
	"dropwatch/internal/logger"
	"dropwatch/internal/source"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading configuration: %v\n", err)
		os.Exit(1)
	}

	appLogger, err := logger.New(cfg.LogLevel, string(config.ServiceMonitor))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create zap logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = appLogger.Sync() }()

	if err := cfg.Validate(config.ServiceMonitor); err != nil {
		appLogger.Fatal("Invalid configuration", zap.Error(err))
	}
	appLogger.Info("Monitor Service starting...")

	kafkaBrokers := cfg.GetKafkaBrokers()
	if cfg.Kafka.EnsureTopics {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		err = kafka_infra.EnsureTopics(ctx, kafkaBrokers, []string{cfg.Kafka.RawItemsTopic}, appLogger)
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

	monitorService := monitor.NewService(
		source.NewClient(cfg.Source.URL, cfg.Source.Timeout),
		kafkaProducer,
		cfg.Kafka.RawItemsTopic,
		cfg.Source.PollInterval,
		appLogger.With(zap.String("component", "CatalogMonitor")),
	)

	ctxMain, cancelMain := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancelMain()

	done := make(chan struct{})
	go func() {
		defer close(done)
		monitorService.Start(ctxMain)
	}()

	<-ctxMain.Done()
	appLogger.Info("Shutting down application...")

	select {
	case <-done:
	case <-time.After(15 * time.Second):
		appLogger.Warn("Catalog monitor did not stop within 15 seconds.")
	}
	appLogger.Info("Application gracefully shut down.")
}
