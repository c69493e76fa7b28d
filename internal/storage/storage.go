package storage

import (
	"context"
	"database/sql"
	"fmt"

	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"dropwatch/internal/config"
	"dropwatch/internal/infrastructure/database"
	"dropwatch/internal/repository/dedup_repo"
	dedup_postgres "dropwatch/internal/repository/dedup_repo/postgres"
	dedup_redis "dropwatch/internal/repository/dedup_repo/redis"
	dedup_sqlite "dropwatch/internal/repository/dedup_repo/sqlite"
	"dropwatch/internal/repository/webhook_repo"
	webhook_postgres "dropwatch/internal/repository/webhook_repo/postgres"
	webhook_sqlite "dropwatch/internal/repository/webhook_repo/sqlite"
)

// CloseFunc releases the connections behind a repository.
type CloseFunc func() error

func OpenDedupRepository(ctx context.Context, cfg *config.Config, logger *zap.Logger) (dedup_repo.DedupRepository, CloseFunc, error) {
	switch cfg.StoreType {
	case config.StoreTypePostgres:
		db, err := openPostgres(ctx, cfg, logger)
		if err != nil {
			return nil, nil, err
		}
		return dedup_postgres.NewDedupRepository(db, cfg.StoreTimeout), db.Close, nil
	case config.StoreTypeSQLite:
		db, err := openSQLite(cfg, logger)
		if err != nil {
			return nil, nil, err
		}
		return dedup_sqlite.NewDedupRepository(db, cfg.StoreTimeout), db.Close, nil
	case config.StoreTypeRedis:
		client := goredis.NewClient(&goredis.Options{
			Addr:     cfg.RedisAddress(),
			Password: cfg.RedisConfig.Password,
			DB:       cfg.RedisConfig.DB,
		})
		repo := dedup_redis.NewDedupRepository(client, cfg.RedisConfig.KeyPrefix, cfg.StoreTimeout)
		if err := repo.Ping(ctx); err != nil {
			_ = client.Close()
			return nil, nil, fmt.Errorf("failed to connect to redis at %s: %w", cfg.RedisAddress(), err)
		}
		logger.Info("Connected to redis", zap.String("addr", cfg.RedisAddress()))
		return repo, client.Close, nil
	default:
		return nil, nil, fmt.Errorf("unsupported store type %q", cfg.StoreType)
	}
}

func OpenWebhookRepository(ctx context.Context, cfg *config.Config, logger *zap.Logger) (webhook_repo.WebhookRepository, CloseFunc, error) {
	switch cfg.RegistryStore() {
	case config.StoreTypePostgres:
		db, err := openPostgres(ctx, cfg, logger)
		if err != nil {
			return nil, nil, err
		}
		return webhook_postgres.NewWebhookRepository(db, cfg.StoreTimeout), db.Close, nil
	case config.StoreTypeSQLite:
		db, err := openSQLite(cfg, logger)
		if err != nil {
			return nil, nil, err
		}
		return webhook_sqlite.NewWebhookRepository(db, cfg.StoreTimeout), db.Close, nil
	default:
		return nil, nil, fmt.Errorf("unsupported store type %q for the webhook registry", cfg.RegistryStore())
	}
}

func openPostgres(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*sql.DB, error) {
	dbCfg := database.DBConfig{
		DSN:             cfg.GetDBConnectionString(),
		MaxOpenConns:    cfg.DBConfig.MaxOpenConns,
		MaxIdleConns:    cfg.DBConfig.MaxIdleConns,
		ConnMaxLifetime: cfg.DBConfig.ConnMaxLifetime,
	}

	db, err := database.ConnectWithRetry(ctx, cfg.DBConfig.ConnectRetries, cfg.DBConfig.ConnectDelay, logger, func() (*sql.DB, error) {
		return database.NewPostgresDB(dbCfg)
	})
	if err != nil {
		return nil, err
	}
	logger.Info("Connected to postgres", zap.String("host", cfg.DBConfig.DBHost), zap.String("db", cfg.DBConfig.DBName))

	if cfg.MigrationsEnabled {
		if err := database.RunPostgresMigrations(cfg.GetDBMigrationConnectionString()); err != nil {
			_ = db.Close()
			return nil, err
		}
		logger.Info("Database migrations applied")
	}
	return db, nil
}

func openSQLite(cfg *config.Config, logger *zap.Logger) (*sql.DB, error) {
	db, err := database.NewSQLiteDB(cfg.SQLiteConfig.Path)
	if err != nil {
		return nil, err
	}
	logger.Info("Opened sqlite database", zap.String("path", cfg.SQLiteConfig.Path))

	if cfg.MigrationsEnabled {
		if err := database.RunSQLiteMigrations(db); err != nil {
			_ = db.Close()
			return nil, err
		}
		logger.Info("Database migrations applied")
	}
	return db, nil
}
