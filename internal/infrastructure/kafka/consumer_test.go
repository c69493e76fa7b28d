package kafka_infra

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap/zaptest"

	"dropwatch/internal/testsupport"
)

const testTopic = "raw-items"

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for %s", what)
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func newTestConsumer(t *testing.T, broker *testsupport.Broker) *Consumer {
	return NewConsumerWithReader(broker.Reader(testTopic), ConsumerConfig{
		Topic:          testTopic,
		GroupID:        "test",
		HandlerTimeout: time.Second,
		RetryBackoff:   time.Millisecond,
		MaxBackoff:     4 * time.Millisecond,
	}, zaptest.NewLogger(t))
}

func TestConsumeRetriesUntilHandlerSucceeds(t *testing.T) {
	broker := testsupport.NewBroker()
	if err := broker.Produce(context.Background(), "42", testTopic, []byte(`{"id":"42"}`)); err != nil {
		t.Fatalf("Produce: %v", err)
	}

	var calls atomic.Int32
	handler := func(ctx context.Context, msg kafka.Message) error {
		if calls.Add(1) < 3 {
			return errors.New("store unavailable")
		}
		return nil
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- newTestConsumer(t, broker).Consume(ctx, handler) }()

	waitFor(t, "commit", func() bool { return broker.Committed(testTopic) == 1 })
	cancel()
	if err := <-done; err != nil {
		t.Fatalf("Consume: %v", err)
	}
	if calls.Load() != 3 {
		t.Fatalf("handler calls = %d, want 3", calls.Load())
	}
}

func TestConsumeLeavesMessageUncommittedOnShutdown(t *testing.T) {
	broker := testsupport.NewBroker()
	if err := broker.Produce(context.Background(), "42", testTopic, []byte(`{"id":"42"}`)); err != nil {
		t.Fatalf("Produce: %v", err)
	}

	var calls atomic.Int32
	failing := func(ctx context.Context, msg kafka.Message) error {
		calls.Add(1)
		return errors.New("queue unavailable")
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- newTestConsumer(t, broker).Consume(ctx, failing) }()

	waitFor(t, "first attempt", func() bool { return calls.Load() > 0 })
	cancel()
	if err := <-done; err != nil {
		t.Fatalf("Consume: %v", err)
	}
	if got := broker.Committed(testTopic); got != 0 {
		t.Fatalf("committed offset = %d, want 0", got)
	}

	// A restarted consumer gets the same message again.
	var redelivered atomic.Value
	ctx2, cancel2 := context.WithCancel(context.Background())
	done2 := make(chan error, 1)
	go func() {
		done2 <- newTestConsumer(t, broker).Consume(ctx2, func(ctx context.Context, msg kafka.Message) error {
			redelivered.Store(string(msg.Key))
			return nil
		})
	}()
	waitFor(t, "redelivery", func() bool { return broker.Committed(testTopic) == 1 })
	cancel2()
	<-done2
	if redelivered.Load() != "42" {
		t.Fatalf("redelivered key = %v, want 42", redelivered.Load())
	}
}

func TestHandlerContextSurvivesShutdown(t *testing.T) {
	broker := testsupport.NewBroker()
	if err := broker.Produce(context.Background(), "42", testTopic, nil); err != nil {
		t.Fatalf("Produce: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	started := make(chan struct{})
	var handlerErr atomic.Value
	handler := func(hctx context.Context, msg kafka.Message) error {
		close(started)
		time.Sleep(20 * time.Millisecond)
		if hctx.Err() != nil {
			handlerErr.Store(hctx.Err())
		}
		return nil
	}

	done := make(chan error, 1)
	go func() { done <- newTestConsumer(t, broker).Consume(ctx, handler) }()

	<-started
	cancel()
	if err := <-done; err != nil {
		t.Fatalf("Consume: %v", err)
	}
	if v := handlerErr.Load(); v != nil {
		t.Fatalf("handler context was cancelled: %v", v)
	}
	if got := broker.Committed(testTopic); got != 1 {
		t.Fatalf("committed offset = %d, want 1", got)
	}
}
