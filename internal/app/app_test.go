package app

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/selimozcann/LinkSentry/internal/config"
	"github.com/selimozcann/LinkSentry/internal/detect"
	"github.com/selimozcann/LinkSentry/internal/model"
	"github.com/selimozcann/LinkSentry/internal/notify"
	"github.com/selimozcann/LinkSentry/internal/runner"
	"github.com/selimozcann/LinkSentry/internal/store"
)

type delivered struct {
	msg  string
	kind notify.Kind
}

type recorder struct {
	mu  sync.Mutex
	got []delivered
}

func (r *recorder) Notify(msg string, kind notify.Kind) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.got = append(r.got, delivered{msg, kind})
	return nil
}

func (r *recorder) all() []delivered {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]delivered(nil), r.got...)
}

func testConfig() *config.Config {
	cfg := config.NewDefaultConfig()
	cfg.Storage.Backend = config.BackendMemory
	return cfg
}

func newApp(t *testing.T, kv store.Store) (*App, *recorder) {
	t.Helper()
	rec := &recorder{}
	a, err := New(context.Background(), Options{
		Config:     testConfig(),
		Store:      kv,
		Notifier:   rec,
		Registerer: prometheus.NewRegistry(),
		Logger:     zap.NewNop(),
		RunnerOptions: []runner.Option{
			runner.WithClock(func() time.Time { return time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC) }),
		},
	})
	require.NoError(t, err)
	return a, rec
}

func TestNew_RequiresConfig(t *testing.T) {
	_, err := New(context.Background(), Options{})
	assert.Error(t, err)
}

func TestSubmit_Notifications(t *testing.T) {
	a, rec := newApp(t, store.NewMemory())

	v, ok := a.Submit("https://example.com/")
	require.True(t, ok)
	assert.True(t, v.Safe)
	assert.Zero(t, v.RiskScore)

	v, ok = a.Submit("http://192.168.1.1/login-secure-verify")
	require.True(t, ok)
	assert.False(t, v.Safe)
	assert.GreaterOrEqual(t, v.RiskScore, 35)

	v, ok = a.Submit("http://exa mple.com")
	require.True(t, ok)
	assert.True(t, v.IsError())

	assert.Equal(t, []delivered{
		{MsgSafe, notify.KindSuccess},
		{MsgThreat, notify.KindWarning},
		{MsgFailed, notify.KindError},
	}, rec.all())
}

func TestSubmit_BlankIsNoop(t *testing.T) {
	a, rec := newApp(t, store.NewMemory())

	_, ok := a.Submit("   ")
	assert.False(t, ok)
	assert.Empty(t, a.Window())
	assert.Empty(t, a.HistoryAll())
	assert.Zero(t, a.AnalyticsSnapshot().TotalScans)
	assert.Empty(t, rec.all())
}

func TestSubmitBatch_Summary(t *testing.T) {
	a, rec := newApp(t, store.NewMemory())

	out := a.SubmitBatch([]string{"https://example.com", "http://10.0.0.1/login/verify", ""})
	require.Len(t, out, 3)
	assert.True(t, out[0].Safe)
	assert.False(t, out[1].Safe)
	assert.True(t, out[2].IsError())

	got := rec.all()
	require.Len(t, got, 1)
	assert.Equal(t, notify.KindInfo, got[0].kind)
	assert.Equal(t, "Batch complete: 3 URLs analyzed, 1 safe, 1 threats, 1 failed", got[0].msg)

	snap := a.AnalyticsSnapshot()
	assert.Equal(t, model.Snapshot{TotalScans: 3, SafeURLs: 1, ThreatsDetected: 1, Errors: 1, Accuracy: 33}, snap)

	assert.Empty(t, a.SubmitBatch(nil))
	assert.Len(t, rec.all(), 1)
}

func TestWindowAndHistoryAreIndependent(t *testing.T) {
	a, _ := newApp(t, store.NewMemory())
	for i := 0; i < 12; i++ {
		a.Submit("https://example.com/")
	}
	assert.Len(t, a.Window(), 10)
	assert.Len(t, a.HistoryAll(), 12)

	a.HistoryClear()
	assert.Empty(t, a.HistoryAll())
	assert.Len(t, a.Window(), 10)
	assert.Equal(t, 12, a.AnalyticsSnapshot().TotalScans)
}

func TestSetSettings(t *testing.T) {
	ctx := context.Background()
	kv := store.NewMemory()
	a, rec := newApp(t, kv)
	assert.Equal(t, model.DefaultSettings(), a.GetSettings())
	assert.Contains(t, a.Rules(), detect.RulePhishingKeywords)

	s := model.Settings{AutoSave: true, Notifications: false, Theme: model.ThemeMono, ScanDepth: model.ScanQuick}
	require.NoError(t, a.SetSettings(ctx, s))
	assert.Equal(t, s, a.GetSettings())
	assert.Equal(t, []string{detect.RuleNonHTTPS, detect.RuleIPLiteral, detect.RuleDenylist}, a.Rules())

	v, ok := a.Submit("https://example.com/login/verify/account")
	require.True(t, ok)
	assert.Empty(t, v.Flags, "quick scans never run keyword heuristics")
	assert.Empty(t, rec.all(), "notifications are off")

	var stored model.Settings
	found, err := kv.Get(ctx, store.KeySettings, &stored)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, s, stored)

	// A fresh app over the same store picks the settings back up.
	b, _ := newApp(t, kv)
	assert.Equal(t, s, b.GetSettings())
	assert.Len(t, b.HistoryAll(), 1)
}

func TestSetSettings_Invalid(t *testing.T) {
	a, _ := newApp(t, store.NewMemory())
	err := a.SetSettings(context.Background(), model.Settings{Theme: "neon", ScanDepth: model.ScanDeep})
	require.Error(t, err)
	assert.Equal(t, model.DefaultSettings(), a.GetSettings())
}

func TestAutoSaveOff_DefersPersistence(t *testing.T) {
	ctx := context.Background()
	kv := store.NewMemory()
	a, _ := newApp(t, kv)

	s := model.DefaultSettings()
	s.AutoSave = false
	require.NoError(t, a.SetSettings(ctx, s))
	a.Submit("https://example.com/")

	var hist []model.Verdict
	found, err := kv.Get(ctx, store.KeyHistory, &hist)
	require.NoError(t, err)
	assert.False(t, found)

	a.Flush()
	found, err = kv.Get(ctx, store.KeyHistory, &hist)
	require.NoError(t, err)
	require.True(t, found)
	assert.Len(t, hist, 1)

	var snap model.Snapshot
	found, err = kv.Get(ctx, store.KeyAnalytics, &snap)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, 1, snap.TotalScans)
}

func TestNew_IgnoresInvalidStoredSettings(t *testing.T) {
	kv := store.NewMemory()
	require.NoError(t, kv.Set(context.Background(), store.KeySettings, model.Settings{Theme: "neon", ScanDepth: "max"}))
	a, _ := newApp(t, kv)
	assert.Equal(t, model.DefaultSettings(), a.GetSettings())
}
