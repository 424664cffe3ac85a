package history

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/selimozcann/LinkSentry/internal/model"
	"github.com/selimozcann/LinkSentry/internal/store"
)

type broken struct{}

func (broken) Get(context.Context, string, any) (bool, error) {
	return false, &store.StorageUnavailableError{Op: "get", Key: store.KeyHistory, Err: errors.New("offline")}
}

func (broken) Set(context.Context, string, any) error {
	return &store.StorageUnavailableError{Op: "set", Key: store.KeyHistory, Err: errors.New("offline")}
}

func verdict(id, url string) model.Verdict {
	return model.Verdict{ID: id, URL: url, Safe: true, Timestamp: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)}
}

func persisted(t *testing.T, kv store.Store) []model.Verdict {
	t.Helper()
	var got []model.Verdict
	_, err := kv.Get(context.Background(), store.KeyHistory, &got)
	require.NoError(t, err)
	return got
}

func TestLedgerOrder(t *testing.T) {
	l := New(context.Background(), nil, zap.NewNop())
	l.Record(verdict("1", "https://a.example"))
	l.Record(verdict("2", "https://b.example"))
	l.Record(verdict("3", "https://a.example"))

	all := l.All()
	require.Len(t, all, 3)
	assert.Equal(t, "1", all[0].ID)
	assert.Equal(t, "3", all[2].ID)

	all[0].ID = "changed"
	assert.Equal(t, "1", l.All()[0].ID)
}

func TestLedgerPersistsAndReloads(t *testing.T) {
	ctx := context.Background()
	kv := store.NewMemory()

	l := New(ctx, kv, zap.NewNop())
	l.Record(verdict("1", "https://a.example"))
	l.Record(verdict("2", "https://b.example"))
	assert.Len(t, persisted(t, kv), 2)

	reloaded := New(ctx, kv, zap.NewNop())
	assert.Equal(t, l.All(), reloaded.All())

	reloaded.Clear()
	assert.Empty(t, reloaded.All())
	assert.Empty(t, persisted(t, kv))
}

func TestLedgerAutoSave(t *testing.T) {
	ctx := context.Background()
	kv := store.NewMemory()
	l := New(ctx, kv, zap.NewNop())

	l.SetAutoSave(false)
	l.Record(verdict("1", "https://a.example"))
	found, err := kv.Get(ctx, store.KeyHistory, &[]model.Verdict{})
	require.NoError(t, err)
	assert.False(t, found)

	l.Flush()
	assert.Len(t, persisted(t, kv), 1)

	l.Record(verdict("2", "https://b.example"))
	assert.Len(t, persisted(t, kv), 1)

	l.SetAutoSave(true)
	assert.Len(t, persisted(t, kv), 2)
}

func TestLedgerStorageFailure(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	l := New(context.Background(), broken{}, zap.New(core))

	assert.Empty(t, l.All())
	l.Record(verdict("1", "https://a.example"))
	assert.Len(t, l.All(), 1)

	assert.Equal(t, 1, logs.FilterMessage("could not load history; starting empty").Len())
	assert.Equal(t, 1, logs.FilterMessage("could not persist history; keeping it in memory").Len())
}
