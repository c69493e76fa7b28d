package testsupport

import (
	"context"
	"io"
	"sync"

	"github.com/segmentio/kafka-go"
)

// Broker is an in-memory stand-in for the Kafka cluster. It implements
// kafka_infra.Producer and hands out readers that satisfy
// kafka_infra.MessageReader.
type Broker struct {
	mu         sync.Mutex
	topics     map[string][]kafka.Message
	committed  map[string]int64
	produceErr error
	signal     chan struct{}
}

func NewBroker() *Broker {
	return &Broker{
		topics:    make(map[string][]kafka.Message),
		committed: make(map[string]int64),
		signal:    make(chan struct{}),
	}
}

func (b *Broker) Produce(ctx context.Context, key, topic string, value []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if b.produceErr != nil {
		return b.produceErr
	}
	b.topics[topic] = append(b.topics[topic], kafka.Message{
		Topic:  topic,
		Key:    []byte(key),
		Value:  append([]byte(nil), value...),
		Offset: int64(len(b.topics[topic])),
	})
	close(b.signal)
	b.signal = make(chan struct{})
	return nil
}

func (b *Broker) Close() error { return nil }

// FailProduce makes every following Produce return err. Pass nil to heal.
func (b *Broker) FailProduce(err error) {
	b.mu.Lock()
	b.produceErr = err
	b.mu.Unlock()
}

// Messages returns a copy of everything produced to topic.
func (b *Broker) Messages(topic string) []kafka.Message {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]kafka.Message(nil), b.topics[topic]...)
}

// Committed returns the next offset to be consumed on topic, or 0.
func (b *Broker) Committed(topic string) int64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.committed[topic]
}

// Reader starts reading topic from its committed offset.
func (b *Broker) Reader(topic string) *Reader {
	b.mu.Lock()
	defer b.mu.Unlock()
	return &Reader{
		broker: b,
		topic:  topic,
		next:   b.committed[topic],
		done:   make(chan struct{}),
	}
}

type Reader struct {
	broker    *Broker
	topic     string
	next      int64
	closeOnce sync.Once
	done      chan struct{}
}

func (r *Reader) FetchMessage(ctx context.Context) (kafka.Message, error) {
	for {
		select {
		case <-r.done:
			return kafka.Message{}, io.EOF
		default:
		}

		r.broker.mu.Lock()
		msgs := r.broker.topics[r.topic]
		if r.next < int64(len(msgs)) {
			msg := msgs[r.next]
			r.next++
			r.broker.mu.Unlock()
			return msg, nil
		}
		wait := r.broker.signal
		r.broker.mu.Unlock()

		select {
		case <-ctx.Done():
			return kafka.Message{}, ctx.Err()
		case <-r.done:
			return kafka.Message{}, io.EOF
		case <-wait:
		}
	}
}

func (r *Reader) CommitMessages(_ context.Context, msgs ...kafka.Message) error {
	r.broker.mu.Lock()
	defer r.broker.mu.Unlock()
	for _, msg := range msgs {
		if msg.Offset+1 > r.broker.committed[msg.Topic] {
			r.broker.committed[msg.Topic] = msg.Offset + 1
		}
	}
	return nil
}

func (r *Reader) Close() error {
	r.closeOnce.Do(func() { close(r.done) })
	return nil
}
