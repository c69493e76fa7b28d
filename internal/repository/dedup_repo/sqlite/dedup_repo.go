package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"dropwatch/internal/domain"
	"dropwatch/internal/repository/dedup_repo"
)

type DedupRepository struct {
	db      *sql.DB
	timeout time.Duration
	now     func() time.Time
}

func NewDedupRepository(db *sql.DB, timeout time.Duration) *DedupRepository {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &DedupRepository{
		db:      db,
		timeout: timeout,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

var _ dedup_repo.DedupRepository = (*DedupRepository)(nil)

func (r *DedupRepository) Exists(ctx context.Context, id domain.ItemID) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	var exists int
	err := r.db.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM seen_items WHERE id = ?)`, id.String()).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("%w: failed to check seen item %s: %w", domain.ErrStoreUnavailable, id, err)
	}
	return exists == 1, nil
}

func (r *DedupRepository) Insert(ctx context.Context, id domain.ItemID) (bool, error) {
	return r.insert(ctx, r.db, id)
}

func (r *DedupRepository) Admit(ctx context.Context, id domain.ItemID, forward dedup_repo.ForwardFunc) (bool, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("%w: failed to begin admission transaction for %s: %w", domain.ErrStoreUnavailable, id, err)
	}
	defer tx.Rollback()

	inserted, err := r.insert(ctx, tx, id)
	if err != nil {
		return false, err
	}
	if !inserted {
		return false, nil
	}

	if err := forward(ctx); err != nil {
		return false, fmt.Errorf("admission of item %s rolled back: %w", id, err)
	}

	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("%w: failed to commit admission of item %s: %w", domain.ErrStoreUnavailable, id, err)
	}
	return true, nil
}

func (r *DedupRepository) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()
	if err := r.db.PingContext(ctx); err != nil {
		return fmt.Errorf("%w: %w", domain.ErrStoreUnavailable, err)
	}
	return nil
}

func (r *DedupRepository) insert(ctx context.Context, q domain.Querier, id domain.ItemID) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	res, err := q.ExecContext(ctx,
		`INSERT INTO seen_items (id, admitted_at) VALUES (?, ?) ON CONFLICT (id) DO NOTHING`,
		id.String(), r.now(),
	)
	if err != nil {
		return false, fmt.Errorf("%w: failed to insert seen item %s: %w", domain.ErrStoreUnavailable, id, err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("%w: failed to get rows affected for seen item %s: %w", domain.ErrStoreUnavailable, id, err)
	}
	return rows == 1, nil
}
