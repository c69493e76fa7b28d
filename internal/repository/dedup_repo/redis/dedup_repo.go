package redis

import (
	"context"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"dropwatch/internal/domain"
	"dropwatch/internal/repository/dedup_repo"
)

const defaultKeyPrefix = "dropwatch:seen"

type DedupRepository struct {
	client    goredis.Cmdable
	keyPrefix string
	timeout   time.Duration
	now       func() time.Time
}

func NewDedupRepository(client goredis.Cmdable, keyPrefix string, timeout time.Duration) *DedupRepository {
	if keyPrefix == "" {
		keyPrefix = defaultKeyPrefix
	}
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &DedupRepository{
		client:    client,
		keyPrefix: keyPrefix,
		timeout:   timeout,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

var _ dedup_repo.DedupRepository = (*DedupRepository)(nil)

func (r *DedupRepository) key(id domain.ItemID) string {
	return r.keyPrefix + ":" + id.String()
}

func (r *DedupRepository) Exists(ctx context.Context, id domain.ItemID) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	n, err := r.client.Exists(ctx, r.key(id)).Result()
	if err != nil {
		return false, fmt.Errorf("%w: failed to check seen item %s: %w", domain.ErrStoreUnavailable, id, err)
	}
	return n > 0, nil
}

func (r *DedupRepository) Insert(ctx context.Context, id domain.ItemID) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	ok, err := r.client.SetNX(ctx, r.key(id), r.now().Format(time.RFC3339Nano), 0).Result()
	if err != nil {
		return false, fmt.Errorf("%w: failed to insert seen item %s: %w", domain.ErrStoreUnavailable, id, err)
	}
	return ok, nil
}

// Admit claims id with SET NX and releases the claim when forward fails.
func (r *DedupRepository) Admit(ctx context.Context, id domain.ItemID, forward dedup_repo.ForwardFunc) (bool, error) {
	inserted, err := r.Insert(ctx, id)
	if err != nil || !inserted {
		return false, err
	}

	if err := forward(ctx); err != nil {
		releaseCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), r.timeout)
		defer cancel()
		if delErr := r.client.Del(releaseCtx, r.key(id)).Err(); delErr != nil {
			return false, fmt.Errorf("%w: failed to release claim on item %s after forward error (%v): %w",
				domain.ErrStoreUnavailable, id, err, delErr)
		}
		return false, fmt.Errorf("admission of item %s rolled back: %w", id, err)
	}
	return true, nil
}

func (r *DedupRepository) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()
	if err := r.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("%w: %w", domain.ErrStoreUnavailable, err)
	}
	return nil
}
