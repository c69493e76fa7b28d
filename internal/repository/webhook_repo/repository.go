package webhook_repo

import (
	"context"

	"dropwatch/internal/domain"
)

// WebhookRepository is the durable set of notification destinations.
type WebhookRepository interface {
	List(ctx context.Context) ([]domain.Webhook, error)
	Add(ctx context.Context, url string) (bool, error)
	Remove(ctx context.Context, url string) (bool, error)
	Ping(ctx context.Context) error
}
