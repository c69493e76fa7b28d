package notification

import (
	"context"
	"io"
	"mime"
	"net/http"
	"time"
)

var ImageContentTypes = []string{"image/jpg", "image/jpeg", "image/png"}

// Prober decides whether a URL resolves. When contentTypes is non-empty the
// response content type must be one of them.
type Prober interface {
	Reachable(ctx context.Context, url string, contentTypes ...string) bool
}

type HTTPProber struct {
	client *http.Client
}

func NewHTTPProber(timeout time.Duration) *HTTPProber {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &HTTPProber{client: &http.Client{Timeout: timeout}}
}

func (p *HTTPProber) Reachable(ctx context.Context, url string, contentTypes ...string) bool {
	if url == "" {
		return false
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, url, nil)
	if err != nil {
		return false
	}
	resp, err := p.client.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, io.LimitReader(resp.Body, 4<<10))

	if resp.StatusCode >= http.StatusBadRequest {
		return false
	}
	if len(contentTypes) == 0 {
		return true
	}
	mediaType, _, err := mime.ParseMediaType(resp.Header.Get("Content-Type"))
	if err != nil {
		return false
	}
	for _, ct := range contentTypes {
		if mediaType == ct {
			return true
		}
	}
	return false
}
