package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"dropwatch/internal/app/registry"
	"dropwatch/internal/config"
	webhooks_http "dropwatch/internal/handler/http/webhooks"
	"dropwatch/internal/logger"
	"dropwatch/internal/storage"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading configuration: %v\n", err)
		os.Exit(1)
	}

	appLogger, err := logger.New(cfg.LogLevel, string(config.ServiceRegistry))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create zap logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = appLogger.Sync() }()

	if err := cfg.Validate(config.ServiceRegistry); err != nil {
		appLogger.Fatal("Invalid configuration", zap.Error(err))
	}
	appLogger.Info("Registry Service starting...")

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

	registryService := registry.NewRegistryService(
		webhookRepository,
		appLogger.With(zap.String("component", "RegistryService")),
	)

	router := webhooks_http.NewRouter(registryService, cfg.HTTP.AllowedOrigins, appLogger.With(zap.String("component", "HTTPHandler")))
	httpServer := &http.Server{
		Addr:    cfg.HTTPAddress(),
		Handler: router,
	}

	serverErr := make(chan error, 1)
	go func() {
		appLogger.Info("Starting HTTP server", zap.String("address", httpServer.Addr))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	select {
	case <-ctxMain.Done():
	case err := <-serverErr:
		appLogger.Error("HTTP server failed", zap.Error(err))
	}
	appLogger.Info("Shutting down application...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
	defer shutdownCancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		appLogger.Error("HTTP server graceful shutdown failed", zap.Error(err))
	} else {
		appLogger.Info("HTTP server gracefully shut down.")
	}
	appLogger.Info("Application gracefully shut down.")
}
