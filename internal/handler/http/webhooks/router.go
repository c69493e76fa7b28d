package webhooks_http

import (
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"dropwatch/internal/app/registry"
)

func NewRouter(s registry.RegistryService, allowedOrigins []string, l *zap.Logger) chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger(l.With(zap.String("component", "HTTPAccessLog"))))
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))
	if len(allowedOrigins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: allowedOrigins,
			AllowedMethods: []string{"GET", "POST", "DELETE", "OPTIONS"},
			AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-ID"},
			MaxAge:         300,
		}))
	}

	RegisterRoutes(r, s, l)
	return r
}

func RegisterRoutes(r chi.Router, s registry.RegistryService, l *zap.Logger) {
	handler := NewWebhookHandler(s, l.With(zap.String("component", "WebhookHTTPHandler")))

	r.Get("/ping", handler.PingHandler)
	r.Get("/help", handler.HelpHandler)

	r.Route("/webhooks", func(r chi.Router) {
		r.Get("/", handler.ListWebhooksHandler)
		r.Post("/", handler.AddWebhooksHandler)
		r.Delete("/", handler.RemoveWebhooksHandler)
	})
}
