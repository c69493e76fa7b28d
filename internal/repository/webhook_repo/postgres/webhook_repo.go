package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"dropwatch/internal/domain"
	"dropwatch/internal/repository/webhook_repo"
)

type WebhookRepository struct {
	db      *sql.DB
	timeout time.Duration
	now     func() time.Time
}

func NewWebhookRepository(db *sql.DB, timeout time.Duration) *WebhookRepository {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &WebhookRepository{
		db:      db,
		timeout: timeout,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

var _ webhook_repo.WebhookRepository = (*WebhookRepository)(nil)

func (r *WebhookRepository) List(ctx context.Context) ([]domain.Webhook, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	rows, err := r.db.QueryContext(ctx, `SELECT url, created_at FROM webhooks ORDER BY created_at, url`)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to list webhooks: %w", domain.ErrStoreUnavailable, err)
	}
	defer rows.Close()

	var hooks []domain.Webhook
	for rows.Next() {
		var hook domain.Webhook
		if err := rows.Scan(&hook.URL, &hook.CreatedAt); err != nil {
			return nil, fmt.Errorf("%w: failed to scan webhook row: %w", domain.ErrStoreUnavailable, err)
		}
		hooks = append(hooks, hook)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: rows error while listing webhooks: %w", domain.ErrStoreUnavailable, err)
	}
	return hooks, nil
}

func (r *WebhookRepository) Add(ctx context.Context, url string) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	res, err := r.db.ExecContext(ctx,
		`INSERT INTO webhooks (url, created_at) VALUES ($1, $2) ON CONFLICT (url) DO NOTHING`,
		url, r.now(),
	)
	if err != nil {
		return false, fmt.Errorf("%w: failed to insert webhook %s: %w", domain.ErrStoreUnavailable, url, err)
	}
	return affectedOne(res, url)
}

func (r *WebhookRepository) Remove(ctx context.Context, url string) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	res, err := r.db.ExecContext(ctx, `DELETE FROM webhooks WHERE url = $1`, url)
	if err != nil {
		return false, fmt.Errorf("%w: failed to remove webhook %s: %w", domain.ErrStoreUnavailable, url, err)
	}
	return affectedOne(res, url)
}

func (r *WebhookRepository) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()
	if err := r.db.PingContext(ctx); err != nil {
		return fmt.Errorf("%w: %w", domain.ErrStoreUnavailable, err)
	}
	return nil
}

func affectedOne(res sql.Result, url string) (bool, error) {
	rows, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("%w: failed to get rows affected for webhook %s: %w", domain.ErrStoreUnavailable, url, err)
	}
	return rows == 1, nil
}
