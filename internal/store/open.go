package store

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/selimozcann/LinkSentry/internal/config"
)

// Open builds the store cfg selects, wrapped in Degrading. A backend that
// cannot be opened is logged and the returned store starts degraded, so
// startup never fails on storage. The returned func releases resources.
func Open(ctx context.Context, cfg config.StorageConfig, logger *zap.Logger) (*Degrading, func()) {
	log := logger.Named("store")
	noop := func() {}

	switch cfg.Backend {
	case config.BackendMemory:
		return NewDegrading(NewMemory(), logger), noop

	case config.BackendFile:
		f, err := NewFile(cfg.Dir)
		if err != nil {
			log.Warn("file store unavailable; using memory for this session", zap.Error(err))
			return NewDegrading(nil, logger), noop
		}
		log.Debug("file store opened", zap.String("dir", cfg.Dir))
		return NewDegrading(f, logger), noop

	case config.BackendPostgres:
		pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
		if err != nil {
			log.Warn("postgres store unavailable; using memory for this session",
				zap.Error(unavailable("connect", "", fmt.Errorf("failed to create database connection pool: %w", err))))
			return NewDegrading(nil, logger), noop
		}
		pg, err := NewPostgres(ctx, pool, logger)
		if err != nil {
			pool.Close()
			log.Warn("postgres store unavailable; using memory for this session", zap.Error(err))
			return NewDegrading(nil, logger), noop
		}
		return NewDegrading(pg, logger), pool.Close

	default:
		log.Warn("unknown storage backend; using memory for this session", zap.String("backend", cfg.Backend))
		return NewDegrading(nil, logger), noop
	}
}
