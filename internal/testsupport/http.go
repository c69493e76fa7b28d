package testsupport

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
)

// StaticProber reports every URL as reachable or not.
type StaticProber bool

func (p StaticProber) Reachable(context.Context, string, ...string) bool { return bool(p) }

// WebhookRecorder is an httptest endpoint that stores every POST body.
type WebhookRecorder struct {
	URL string

	mu     sync.Mutex
	status int
	bodies [][]byte
}

func NewWebhookRecorder(t testing.TB, status int) *WebhookRecorder {
	t.Helper()

	rec := &WebhookRecorder{status: status}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		rec.mu.Lock()
		rec.bodies = append(rec.bodies, body)
		status := rec.status
		rec.mu.Unlock()
		w.WriteHeader(status)
	}))
	t.Cleanup(srv.Close)
	rec.URL = srv.URL
	return rec
}

func (r *WebhookRecorder) Bodies() [][]byte {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([][]byte(nil), r.bodies...)
}

func (r *WebhookRecorder) Count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.bodies)
}
