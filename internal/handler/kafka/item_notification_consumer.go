package kafka

import (
	"context"
	"fmt"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"dropwatch/internal/app/notifier"
	"dropwatch/internal/domain"
	kafka_infra "dropwatch/internal/infrastructure/kafka"
)

// ItemNotificationMessageHandler fans an admitted item out to all webhooks.
// It acknowledges once delivery was attempted, whatever the per-endpoint
// results were.
func ItemNotificationMessageHandler(notifierService notifier.NotifierService, logger *zap.Logger) kafka_infra.MessageHandler {
	return func(ctx context.Context, msg kafka.Message) error {
		item, err := domain.DecodeItem(msg.Value)
		if err != nil {
			logger.Error("Dropping undecodable admitted item",
				zap.Error(err),
				zap.ByteString("value", msg.Value),
				zap.String("topic", msg.Topic),
				zap.Int("partition", msg.Partition),
				zap.Int64("offset", msg.Offset),
			)
			return nil
		}

		report, err := notifierService.Deliver(ctx, item)
		if err != nil {
			return fmt.Errorf("failed to deliver item %s: %w", item.ID, err)
		}

		logger.Info("Delivered notification",
			zap.String("item_id", item.ID.String()),
			zap.Int("endpoints", report.Endpoints),
			zap.Int("delivered", report.Delivered),
			zap.Int("rate_limited", report.RateLimited),
			zap.Int("failed", report.Failed),
		)
		return nil
	}
}
