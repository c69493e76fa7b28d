package kafka

import (
	"context"
	"errors"
	"testing"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap/zaptest"

	"dropwatch/internal/app/notifier"
	"dropwatch/internal/app/validator"
	"dropwatch/internal/domain"
)

type stubValidator struct {
	outcome validator.Outcome
	err     error
	seen    []domain.ItemID
}

func (s *stubValidator) Process(_ context.Context, item domain.Item) (validator.Outcome, error) {
	s.seen = append(s.seen, item.ID)
	return s.outcome, s.err
}

type stubNotifier struct {
	err  error
	seen []domain.ItemID
}

func (s *stubNotifier) Deliver(_ context.Context, item domain.Item) (notifier.DeliveryReport, error) {
	s.seen = append(s.seen, item.ID)
	return notifier.DeliveryReport{Endpoints: 1, Delivered: 1}, s.err
}

func TestItemValidationMessageHandler(t *testing.T) {
	tests := []struct {
		name      string
		value     string
		err       error
		wantErr   bool
		wantCalls int
	}{
		{name: "admitted", value: `{"id":"42"}`, wantCalls: 1},
		{name: "undecodable is acknowledged", value: `{"id":`, wantCalls: 0},
		{name: "missing id is acknowledged", value: `{"title":"x"}`, wantCalls: 0},
		{name: "store error is redelivered", value: `{"id":"42"}`, err: domain.ErrStoreUnavailable, wantErr: true, wantCalls: 1},
		{name: "queue error is redelivered", value: `{"id":"42"}`, err: domain.ErrQueueUnavailable, wantErr: true, wantCalls: 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &stubValidator{outcome: validator.OutcomeAdmitted, err: tt.err}
			handler := ItemValidationMessageHandler(svc, zaptest.NewLogger(t))

			err := handler(context.Background(), kafka.Message{Value: []byte(tt.value)})
			if (err != nil) != tt.wantErr {
				t.Fatalf("error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.err != nil && !errors.Is(err, tt.err) {
				t.Fatalf("error = %v, want wrapping %v", err, tt.err)
			}
			if len(svc.seen) != tt.wantCalls {
				t.Fatalf("Process calls = %d, want %d", len(svc.seen), tt.wantCalls)
			}
		})
	}
}

func TestItemNotificationMessageHandler(t *testing.T) {
	svc := &stubNotifier{}
	handler := ItemNotificationMessageHandler(svc, zaptest.NewLogger(t))

	if err := handler(context.Background(), kafka.Message{Value: []byte(`{"id":42}`)}); err != nil {
		t.Fatalf("handler: %v", err)
	}
	if err := handler(context.Background(), kafka.Message{Value: []byte(`garbage`)}); err != nil {
		t.Fatalf("undecodable message should be acknowledged: %v", err)
	}
	if len(svc.seen) != 1 || svc.seen[0] != "42" {
		t.Fatalf("delivered = %v", svc.seen)
	}

	svc.err = domain.ErrStoreUnavailable
	if err := handler(context.Background(), kafka.Message{Value: []byte(`{"id":"43"}`)}); !errors.Is(err, domain.ErrStoreUnavailable) {
		t.Fatalf("registry failure should be redelivered, got %v", err)
	}
}
