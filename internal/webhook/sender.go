package webhook

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"dropwatch/internal/domain"
)

var (
	ErrRateLimited    = fmt.Errorf("%w: rate limited", domain.ErrEndpointDelivery)
	ErrDeliveryFailed = fmt.Errorf("%w: request failed", domain.ErrEndpointDelivery)
)

// Sender makes one POST attempt per call. It never retries.
type Sender struct {
	client *http.Client
}

func NewSender(timeout time.Duration) *Sender {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Sender{client: &http.Client{Timeout: timeout}}
}

func (s *Sender) Send(ctx context.Context, url string, body []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("%w: failed to build request for %s: %v", ErrDeliveryFailed, url, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrDeliveryFailed, err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		return nil
	case resp.StatusCode == http.StatusTooManyRequests:
		return fmt.Errorf("%w: status %d, retry-after %q", ErrRateLimited, resp.StatusCode, resp.Header.Get("Retry-After"))
	default:
		return fmt.Errorf("%w: status %d", ErrDeliveryFailed, resp.StatusCode)
	}
}
