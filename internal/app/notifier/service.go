package notifier

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"dropwatch/internal/domain"
	"dropwatch/internal/notification"
	"dropwatch/internal/repository/webhook_repo"
	"dropwatch/internal/webhook"
)

type Formatter interface {
	Format(ctx context.Context, item domain.Item) notification.Payload
}

type Sender interface {
	Send(ctx context.Context, url string, body []byte) error
}

// DeliveryReport summarizes one fan-out.
type DeliveryReport struct {
	Endpoints   int
	Delivered   int
	RateLimited int
	Failed      int
}

type NotifierService interface {
	Deliver(ctx context.Context, item domain.Item) (DeliveryReport, error)
}

type notifierService struct {
	registry    webhook_repo.WebhookRepository
	formatter   Formatter
	sender      Sender
	concurrency int
	sendTimeout time.Duration
	logger      *zap.Logger
}

func NewNotifierService(
	registry webhook_repo.WebhookRepository,
	formatter Formatter,
	sender Sender,
	concurrency int,
	sendTimeout time.Duration,
	logger *zap.Logger,
) NotifierService {
	if concurrency <= 0 {
		concurrency = 8
	}
	if sendTimeout <= 0 {
		sendTimeout = 10 * time.Second
	}
	return &notifierService{
		registry:    registry,
		formatter:   formatter,
		sender:      sender,
		concurrency: concurrency,
		sendTimeout: sendTimeout,
		logger:      logger,
	}
}

// Deliver posts item to every registered webhook once. Endpoint failures are
// logged and counted; only a registry failure is returned, since then no
// delivery was attempted. Each post runs under its own sendTimeout, detached
// from ctx's deadline, so every endpoint in the snapshot gets its attempt.
func (s *notifierService) Deliver(ctx context.Context, item domain.Item) (DeliveryReport, error) {
	hooks, err := s.registry.List(ctx)
	if err != nil {
		return DeliveryReport{}, fmt.Errorf("failed to load webhook registry for item %s: %w", item.ID, err)
	}

	report := DeliveryReport{Endpoints: len(hooks)}
	if len(hooks) == 0 {
		s.logger.Warn("No webhooks registered, nothing to deliver", zap.String("item_id", item.ID.String()))
		return report, nil
	}

	body, err := json.Marshal(s.formatter.Format(ctx, item))
	if err != nil {
		return report, fmt.Errorf("failed to marshal notification for item %s: %w", item.ID, err)
	}

	results := make([]error, len(hooks))
	sem := make(chan struct{}, min(s.concurrency, len(hooks)))
	var wg sync.WaitGroup
	for i, hook := range hooks {
		wg.Add(1)
		sem <- struct{}{}
		go func(i int, url string) {
			defer wg.Done()
			defer func() { <-sem }()
			sendCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.sendTimeout)
			defer cancel()
			results[i] = s.sender.Send(sendCtx, url, body)
		}(i, hook.URL)
	}
	wg.Wait()

	for i, hook := range hooks {
		err := results[i]
		switch {
		case err == nil:
			report.Delivered++
			s.logger.Info("Posted notification to webhook",
				zap.String("item_id", item.ID.String()),
				zap.String("webhook", hook.URL),
			)
		case errors.Is(err, webhook.ErrRateLimited):
			report.RateLimited++
			s.logger.Warn("Sent too many requests to webhook",
				zap.String("item_id", item.ID.String()),
				zap.String("webhook", hook.URL),
				zap.Error(err),
			)
		default:
			report.Failed++
			s.logger.Warn("Failed to post to webhook",
				zap.String("item_id", item.ID.String()),
				zap.String("webhook", hook.URL),
				zap.Error(err),
			)
		}
	}
	return report, nil
}
