package validator

import (
	"context"
	"encoding/json"
	"fmt"

	"go.uber.org/zap"

	"dropwatch/internal/domain"
	kafka_infra "dropwatch/internal/infrastructure/kafka"
	"dropwatch/internal/repository/dedup_repo"
)

// Outcome is the terminal state of one dedup check.
type Outcome int

const (
	OutcomeSuppressed Outcome = iota
	OutcomeAdmitted
)

func (o Outcome) String() string {
	if o == OutcomeAdmitted {
		return "admitted"
	}
	return "suppressed"
}

type ValidatorService interface {
	// Process admits item if its id was never seen and forwards it to the
	// admitted-items topic. An error means nothing was decided and the
	// source message must not be acknowledged.
	Process(ctx context.Context, item domain.Item) (Outcome, error)
}

type validatorService struct {
	store    dedup_repo.DedupRepository
	producer kafka_infra.Producer
	topic    string
	logger   *zap.Logger
}

func NewValidatorService(store dedup_repo.DedupRepository, producer kafka_infra.Producer, topic string, logger *zap.Logger) ValidatorService {
	return &validatorService{
		store:    store,
		producer: producer,
		topic:    topic,
		logger:   logger,
	}
}

func (s *validatorService) Process(ctx context.Context, item domain.Item) (Outcome, error) {
	if err := item.Validate(); err != nil {
		return OutcomeSuppressed, err
	}

	exists, err := s.store.Exists(ctx, item.ID)
	if err != nil {
		return OutcomeSuppressed, fmt.Errorf("failed to check item %s: %w", item.ID, err)
	}
	if exists {
		s.logger.Debug("Item already announced, suppressing", zap.String("item_id", item.ID.String()))
		return OutcomeSuppressed, nil
	}

	payload, err := json.Marshal(item)
	if err != nil {
		return OutcomeSuppressed, fmt.Errorf("failed to marshal item %s: %w", item.ID, err)
	}

	admitted, err := s.store.Admit(ctx, item.ID, func(ctx context.Context) error {
		return s.producer.Produce(ctx, item.ID.String(), s.topic, payload)
	})
	if err != nil {
		return OutcomeSuppressed, fmt.Errorf("failed to admit item %s: %w", item.ID, err)
	}
	if !admitted {
		s.logger.Info("Item admitted concurrently by another consumer, suppressing", zap.String("item_id", item.ID.String()))
		return OutcomeSuppressed, nil
	}

	s.logger.Info("Item admitted and forwarded",
		zap.String("item_id", item.ID.String()),
		zap.String("style_code", item.StyleCode),
		zap.String("topic", s.topic),
	)
	return OutcomeAdmitted, nil
}
