package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"go.uber.org/zap"
)

// ConnectWithRetry calls connect until it succeeds, attempts run out or ctx
// is done.
func ConnectWithRetry(ctx context.Context, attempts int, delay time.Duration, logger *zap.Logger, connect func() (*sql.DB, error)) (*sql.DB, error) {
	if attempts <= 0 {
		attempts = 1
	}

	var lastErr error
	for i := 0; i < attempts; i++ {
		db, err := connect()
		if err == nil {
			return db, nil
		}
		lastErr = err
		logger.Warn("Failed to connect to database, retrying",
			zap.Int("attempt", i+1),
			zap.Int("max_attempts", attempts),
			zap.Duration("retry_in", delay),
			zap.Error(err),
		)
		if i == attempts-1 {
			break
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(delay):
		}
	}
	return nil, fmt.Errorf("could not connect to database after %d attempts: %w", attempts, lastErr)
}
