package monitor

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"

	"dropwatch/internal/domain"
	kafka_infra "dropwatch/internal/infrastructure/kafka"
	"dropwatch/internal/source"
	"dropwatch/internal/util"
)

type Fetcher interface {
	Fetch(ctx context.Context) (*source.Snapshot, error)
}

type Service struct {
	fetcher  Fetcher
	producer kafka_infra.Producer
	topic    string
	interval time.Duration
	logger   *zap.Logger
}

func NewService(fetcher Fetcher, producer kafka_infra.Producer, topic string, interval time.Duration, logger *zap.Logger) *Service {
	if interval <= 0 {
		interval = 5 * time.Second
	}
	return &Service{
		fetcher:  fetcher,
		producer: producer,
		topic:    topic,
		interval: interval,
		logger:   logger,
	}
}

// Start polls immediately and then every interval until ctx is done. A
// failed cycle is logged and retried on the next tick.
func (s *Service) Start(ctx context.Context) {
	s.logger.Info("Starting catalog monitor", zap.Duration("interval", s.interval), zap.String("topic", s.topic))
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		if _, err := s.RunCycle(ctx); err != nil && ctx.Err() == nil {
			s.logger.Warn("Monitoring cycle failed", zap.Error(err))
		}
		select {
		case <-ctx.Done():
			s.logger.Info("Catalog monitor stopped.")
			return
		case <-ticker.C:
		}
	}
}

// RunCycle fetches one snapshot and publishes every normalized item. It
// returns the number of items published.
func (s *Service) RunCycle(ctx context.Context) (int, error) {
	logger := s.logger.With(zap.String("cycle_id", util.GenerateUUID()))
	logger.Debug("Started monitoring...")

	snapshot, err := s.fetcher.Fetch(ctx)
	if err != nil {
		return 0, err
	}

	batch := source.Normalize(snapshot)
	for _, rejected := range batch.Rejected {
		logger.Warn("Dropping malformed catalog record", zap.Error(rejected))
	}
	for _, warning := range batch.Warnings {
		logger.Warn("Ignoring catalog field", zap.Error(warning))
	}
	if len(batch.Items) == 0 {
		logger.Info("No products found")
		return 0, nil
	}

	published := 0
	for _, item := range batch.Items {
		if err := s.publish(ctx, item); err != nil {
			return published, err
		}
		published++
	}
	logger.Info("Added products to message queue", zap.Int("count", published), zap.String("topic", s.topic))
	return published, nil
}

func (s *Service) publish(ctx context.Context, item domain.Item) error {
	payload, err := json.Marshal(item)
	if err != nil {
		return fmt.Errorf("failed to marshal item %s: %w", item.ID, err)
	}
	if err := s.producer.Produce(ctx, item.ID.String(), s.topic, payload); err != nil {
		return fmt.Errorf("failed to publish item %s: %w", item.ID, err)
	}
	return nil
}
