package kafka

import (
	"context"
	"errors"
	"fmt"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"dropwatch/internal/app/validator"
	"dropwatch/internal/domain"
	kafka_infra "dropwatch/internal/infrastructure/kafka"
)

// ItemValidationMessageHandler runs the dedup check for raw items. Payloads
// that can never be processed are logged and acknowledged; everything else
// that fails is left for redelivery.
func ItemValidationMessageHandler(validatorService validator.ValidatorService, logger *zap.Logger) kafka_infra.MessageHandler {
	return func(ctx context.Context, msg kafka.Message) error {
		logger.Debug("Read product from pipeline",
			zap.String("topic", msg.Topic),
			zap.Int("partition", msg.Partition),
			zap.Int64("offset", msg.Offset),
			zap.String("key", string(msg.Key)),
		)

		item, err := domain.DecodeItem(msg.Value)
		if err != nil {
			logger.Error("Dropping undecodable raw item",
				zap.Error(err),
				zap.ByteString("value", msg.Value),
				zap.String("topic", msg.Topic),
				zap.Int("partition", msg.Partition),
				zap.Int64("offset", msg.Offset),
			)
			return nil
		}

		outcome, err := validatorService.Process(ctx, item)
		if err != nil {
			if errors.Is(err, domain.ErrMalformedRecord) {
				logger.Error("Dropping malformed raw item", zap.String("item_id", item.ID.String()), zap.Error(err))
				return nil
			}
			return fmt.Errorf("failed to validate item %s: %w", item.ID, err)
		}

		logger.Info("Processed raw item",
			zap.String("item_id", item.ID.String()),
			zap.Stringer("outcome", outcome),
		)
		return nil
	}
}
