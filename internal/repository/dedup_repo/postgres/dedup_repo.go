package postgres

import (
	"context"
	"database/sql"
	"errors"
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

	var exists bool
	err := r.db.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM seen_items WHERE id = $1)`, id.String()).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("%w: failed to check seen item %s: %w", domain.ErrStoreUnavailable, id, err)
	}
	return exists, nil
}

func (r *DedupRepository) Insert(ctx context.Context, id domain.ItemID) (bool, error) {
	return r.insert(ctx, r.db, id)
}

// Admit inserts id and runs forward in the same transaction. Concurrent
// admissions of the same id block on the uncommitted row, so the loser sees
// the conflict only after the winner committed or rolled back.
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

	query := `
		INSERT INTO seen_items (id, admitted_at)
		VALUES ($1, $2)
		ON CONFLICT (id) DO NOTHING
		RETURNING id
	`
	var insertedID string
	err := q.QueryRowContext(ctx, query, id.String(), r.now()).Scan(&insertedID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		return false, fmt.Errorf("%w: failed to insert seen item %s: %w", domain.ErrStoreUnavailable, id, err)
	}
	return true, nil
}
