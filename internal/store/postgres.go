package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"go.uber.org/zap"
)

// DBPool abstracts pgxpool.Pool so tests can substitute pgxmock.
type DBPool interface {
	Ping(ctx context.Context) error
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

const (
	sqlCreateTable = `
        CREATE TABLE IF NOT EXISTS kv_store (
            key        TEXT PRIMARY KEY,
            value      JSONB NOT NULL,
            updated_at TIMESTAMPTZ NOT NULL
        );
    `
	sqlSelectValue = `SELECT value FROM kv_store WHERE key = $1`
	sqlUpsertValue = `
        INSERT INTO kv_store (key, value, updated_at)
        VALUES ($1, $2, $3)
        ON CONFLICT (key) DO UPDATE SET
            value = EXCLUDED.value,
            updated_at = EXCLUDED.updated_at;
    `
)

// Postgres keeps values in a single kv_store table.
type Postgres struct {
	pool DBPool
	log  *zap.Logger
	now  func() time.Time
}

// NewPostgres verifies the connection and creates the table if missing.
func NewPostgres(ctx context.Context, pool DBPool, logger *zap.Logger) (*Postgres, error) {
	if err := pool.Ping(ctx); err != nil {
		return nil, unavailable("ping", "", fmt.Errorf("failed to ping database: %w", err))
	}
	if _, err := pool.Exec(ctx, sqlCreateTable); err != nil {
		return nil, unavailable("migrate", "kv_store", err)
	}
	return &Postgres{pool: pool, log: logger.Named("store"), now: time.Now}, nil
}

func (p *Postgres) Get(ctx context.Context, key string, dst any) (bool, error) {
	var raw []byte
	err := p.pool.QueryRow(ctx, sqlSelectValue, key).Scan(&raw)
	if errors.Is(err, pgx.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, unavailable("get", key, err)
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return false, fmt.Errorf("decode %q: %w", key, err)
	}
	return true, nil
}

func (p *Postgres) Set(ctx context.Context, key string, value any) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encode %q: %w", key, err)
	}
	if _, err := p.pool.Exec(ctx, sqlUpsertValue, key, raw, p.now().UTC()); err != nil {
		return unavailable("set", key, err)
	}
	p.log.Debug("value persisted", zap.String("key", key), zap.Int("bytes", len(raw)))
	return nil
}
