package history

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/selimozcann/LinkSentry/internal/model"
	"github.com/selimozcann/LinkSentry/internal/store"
)

// Ledger is the unbounded, append-only record of every verdict. Entries are
// never expired or deduplicated.
type Ledger struct {
	mu       sync.RWMutex
	entries  []model.Verdict
	kv       store.Store
	autoSave bool
	dirty    bool
	log      *zap.Logger
}

// New loads any persisted history from kv. A storage failure is logged and
// the ledger starts empty.
func New(ctx context.Context, kv store.Store, logger *zap.Logger) *Ledger {
	l := &Ledger{kv: kv, autoSave: true, log: logger.Named("history")}
	if kv == nil {
		return l
	}
	var entries []model.Verdict
	found, err := kv.Get(ctx, store.KeyHistory, &entries)
	switch {
	case err != nil:
		l.log.Warn("could not load history; starting empty", zap.Error(err))
	case found:
		l.entries = entries
		l.log.Debug("history loaded", zap.Int("entries", len(entries)))
	}
	return l
}

// SetAutoSave controls whether every change is persisted immediately.
// Turning it back on flushes pending changes.
func (l *Ledger) SetAutoSave(on bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.autoSave = on
	if on && l.dirty {
		l.persistLocked()
	}
}

// Record appends v.
func (l *Ledger) Record(v model.Verdict) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = append(l.entries, v)
	l.changedLocked()
}

// Clear removes every entry.
func (l *Ledger) Clear() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = nil
	l.changedLocked()
}

// All returns every entry, oldest first.
func (l *Ledger) All() []model.Verdict {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return append([]model.Verdict(nil), l.entries...)
}

// Flush persists pending changes regardless of the autosave setting.
func (l *Ledger) Flush() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.persistLocked()
}

func (l *Ledger) changedLocked() {
	l.dirty = true
	if l.autoSave {
		l.persistLocked()
	}
}

func (l *Ledger) persistLocked() {
	if l.kv == nil {
		return
	}
	entries := l.entries
	if entries == nil {
		entries = []model.Verdict{}
	}
	if err := l.kv.Set(context.Background(), store.KeyHistory, entries); err != nil {
		l.log.Warn("could not persist history; keeping it in memory", zap.Error(err))
		return
	}
	l.dirty = false
}
