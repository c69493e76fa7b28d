package kafka_infra

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// MessageHandler processes one message. A nil error acknowledges the message;
// a non-nil error leaves it uncommitted and it is redelivered.
type MessageHandler func(ctx context.Context, msg kafka.Message) error

// MessageReader is the subset of *kafka.Reader the consumer needs.
type MessageReader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

type ConsumerConfig struct {
	Brokers        []string
	Topic          string
	GroupID        string
	HandlerTimeout time.Duration
	RetryBackoff   time.Duration
	MaxBackoff     time.Duration
}

// Consumer reads a topic one message at a time and commits each offset only
// after its handler succeeded.
type Consumer struct {
	reader         MessageReader
	topic          string
	groupID        string
	handlerTimeout time.Duration
	retryBackoff   time.Duration
	maxBackoff     time.Duration
	logger         *zap.Logger
}

func NewConsumer(cfg ConsumerConfig, logger *zap.Logger) *Consumer {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:           cfg.Brokers,
		GroupID:           cfg.GroupID,
		Topic:             cfg.Topic,
		MinBytes:          1,
		MaxBytes:          10e6,
		MaxWait:           time.Second,
		StartOffset:       kafka.FirstOffset,
		HeartbeatInterval: 3 * time.Second,
		CommitInterval:    0,
		Logger:            kafka.LoggerFunc(func(msg string, args ...interface{}) { logger.Debug(fmt.Sprintf(msg, args...)) }),
		ErrorLogger:       kafka.LoggerFunc(func(msg string, args ...interface{}) { logger.Error(fmt.Sprintf(msg, args...)) }),
	})
	return NewConsumerWithReader(reader, cfg, logger)
}

func NewConsumerWithReader(reader MessageReader, cfg ConsumerConfig, logger *zap.Logger) *Consumer {
	handlerTimeout := cfg.HandlerTimeout
	if handlerTimeout <= 0 {
		handlerTimeout = 30 * time.Second
	}
	retryBackoff := cfg.RetryBackoff
	if retryBackoff <= 0 {
		retryBackoff = time.Second
	}
	maxBackoff := cfg.MaxBackoff
	if maxBackoff < retryBackoff {
		maxBackoff = 30 * retryBackoff
	}
	return &Consumer{
		reader:         reader,
		topic:          cfg.Topic,
		groupID:        cfg.GroupID,
		handlerTimeout: handlerTimeout,
		retryBackoff:   retryBackoff,
		maxBackoff:     maxBackoff,
		logger:         logger,
	}
}

// Consume blocks until ctx is cancelled or the reader is closed.
func (c *Consumer) Consume(ctx context.Context, handler MessageHandler) error {
	c.logger.Info("Kafka consumer starting", zap.String("topic", c.topic), zap.String("group_id", c.groupID))

	for {
		msg, err := c.reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, io.EOF) || errors.Is(err, kafka.ErrGroupClosed) {
				c.logger.Info("Kafka consumer stopping", zap.String("topic", c.topic), zap.Error(err))
				return nil
			}
			c.logger.Error("Failed to fetch message from Kafka", zap.String("topic", c.topic), zap.Error(err))
			if !sleepCtx(ctx, c.retryBackoff) {
				return nil
			}
			continue
		}

		if !c.handleUntilDone(ctx, handler, msg) {
			c.logger.Info("Kafka consumer stopping with message left uncommitted",
				zap.String("topic", msg.Topic),
				zap.Int("partition", msg.Partition),
				zap.Int64("offset", msg.Offset),
			)
			return nil
		}

		c.commit(ctx, msg)
	}
}

// handleUntilDone redelivers msg to handler until it succeeds. It returns
// false if ctx ended first; the message is then left uncommitted so the
// group hands it out again after a restart or rebalance.
func (c *Consumer) handleUntilDone(ctx context.Context, handler MessageHandler, msg kafka.Message) bool {
	backoff := c.retryBackoff
	for attempt := 1; ; attempt++ {
		// In-flight work is not cut short by shutdown, only by its own timeout.
		handleCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.handlerTimeout)
		err := handler(handleCtx, msg)
		cancel()
		if err == nil {
			return true
		}

		c.logger.Error("Error handling Kafka message, will not commit offset",
			zap.String("topic", msg.Topic),
			zap.Int("partition", msg.Partition),
			zap.Int64("offset", msg.Offset),
			zap.Int("attempt", attempt),
			zap.Duration("redeliver_in", backoff),
			zap.Error(err),
		)
		if !sleepCtx(ctx, backoff) {
			return false
		}
		backoff *= 2
		if backoff > c.maxBackoff {
			backoff = c.maxBackoff
		}
	}
}

func (c *Consumer) commit(ctx context.Context, msg kafka.Message) {
	commitCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()

	if err := c.reader.CommitMessages(commitCtx, msg); err != nil {
		c.logger.Error("Failed to commit offset for Kafka message",
			zap.String("topic", msg.Topic),
			zap.Int("partition", msg.Partition),
			zap.Int64("offset", msg.Offset),
			zap.Error(err),
		)
		return
	}
	c.logger.Debug("Kafka message offset committed",
		zap.String("topic", msg.Topic),
		zap.Int("partition", msg.Partition),
		zap.Int64("offset", msg.Offset),
	)
}

func (c *Consumer) Close() error {
	if err := c.reader.Close(); err != nil {
		c.logger.Error("Failed to close Kafka consumer reader", zap.Error(err), zap.String("topic", c.topic))
		return fmt.Errorf("failed to close Kafka consumer reader: %w", err)
	}
	c.logger.Info("Kafka consumer reader closed.", zap.String("topic", c.topic))
	return nil
}

func sleepCtx(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
