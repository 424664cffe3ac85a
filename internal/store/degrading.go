package store

import (
	"context"
	"sync/atomic"

	"go.uber.org/zap"
)

// Degrading wraps a primary store. Every write is mirrored in memory; after
// the primary's first failure all traffic is served from memory for the rest
// of the session and no error reaches the caller.
type Degrading struct {
	primary  Store
	mem      *Memory
	degraded atomic.Bool
	log      *zap.Logger
}

// NewDegrading wraps primary. A nil primary starts degraded.
func NewDegrading(primary Store, logger *zap.Logger) *Degrading {
	d := &Degrading{primary: primary, mem: NewMemory(), log: logger.Named("store")}
	if primary == nil {
		d.degraded.Store(true)
	}
	return d
}

// Degraded reports whether the primary has been abandoned.
func (d *Degrading) Degraded() bool { return d.degraded.Load() }

func (d *Degrading) Get(ctx context.Context, key string, dst any) (bool, error) {
	if !d.degraded.Load() {
		found, err := d.primary.Get(ctx, key, dst)
		if err == nil {
			return found, nil
		}
		d.degrade("get", key, err)
	}
	found, err := d.mem.Get(ctx, key, dst)
	if err != nil {
		d.log.Warn("in-memory value unreadable", zap.String("key", key), zap.Error(err))
		return false, nil
	}
	return found, nil
}

func (d *Degrading) Set(ctx context.Context, key string, value any) error {
	if err := d.mem.Set(ctx, key, value); err != nil {
		return err
	}
	if d.degraded.Load() {
		return nil
	}
	if err := d.primary.Set(ctx, key, value); err != nil {
		d.degrade("set", key, err)
	}
	return nil
}

func (d *Degrading) degrade(op, key string, err error) {
	if d.degraded.CompareAndSwap(false, true) {
		d.log.Warn("persistence failed; continuing in memory for this session",
			zap.String("op", op), zap.String("key", key), zap.Error(err))
	}
}
