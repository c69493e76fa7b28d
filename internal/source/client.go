package source

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"dropwatch/internal/domain"
)

const userAgent = "SNKRS/3.14.1 (iPhone; iOS 13.1.2; Scale/3.00)"

// Snapshot is one catalog response. Threads are kept raw so one bad record
// cannot fail the whole batch.
type Snapshot struct {
	Threads []json.RawMessage `json:"threads"`
}

type Client struct {
	url        string
	httpClient *http.Client
	now        func() time.Time
}

func NewClient(sourceURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		url:        sourceURL,
		httpClient: &http.Client{Timeout: timeout},
		now:        time.Now,
	}
}

// Fetch downloads the current catalog snapshot. Any failure is reported as
// domain.ErrSourceUnavailable.
func (c *Client) Fetch(ctx context.Context) (*Snapshot, error) {
	target, err := c.requestURL()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrSourceUnavailable, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to build request: %w", domain.ErrSourceUnavailable, err)
	}
	req.Header.Set("Accept", "*/*")
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept-Language", "en-US;q=1, en-US;q=0.9")
	req.Header.Set("Cache-Control", "no-cache")
	req.Header.Set("Pragma", "no-cache")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: request failed: %w", domain.ErrSourceUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))
		return nil, fmt.Errorf("%w: unexpected status %d", domain.ErrSourceUnavailable, resp.StatusCode)
	}

	var snapshot Snapshot
	if err := json.NewDecoder(resp.Body).Decode(&snapshot); err != nil {
		return nil, fmt.Errorf("%w: failed to decode response: %w", domain.ErrSourceUnavailable, err)
	}
	if snapshot.Threads == nil {
		return nil, fmt.Errorf("%w: response has no threads list", domain.ErrSourceUnavailable)
	}
	return &snapshot, nil
}

// requestURL appends the freshness-busting "i" parameter.
func (c *Client) requestURL() (string, error) {
	u, err := url.Parse(c.url)
	if err != nil {
		return "", fmt.Errorf("invalid source url %q: %w", c.url, err)
	}
	q := u.Query()
	q.Set("i", strconv.FormatInt(c.now().Unix(), 10))
	u.RawQuery = q.Encode()
	return u.String(), nil
}
