package dedup_repo

import (
	"context"

	"dropwatch/internal/domain"
)

// ForwardFunc publishes an admitted item downstream. It runs inside the
// admission: when it fails, the admission is undone.
type ForwardFunc func(ctx context.Context) error

// DedupRepository is the durable set of admitted item ids. Insert and Admit
// must be atomic against concurrent callers using the same id: exactly one
// of them observes inserted == true.
type DedupRepository interface {
	Exists(ctx context.Context, id domain.ItemID) (bool, error)
	Insert(ctx context.Context, id domain.ItemID) (bool, error)
	Admit(ctx context.Context, id domain.ItemID, forward ForwardFunc) (bool, error)
	Ping(ctx context.Context) error
}
