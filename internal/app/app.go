// Package app wires the analyzer, runner, ledger, aggregator, store and
// notifier into the operations the CLI and HTTP API expose.
package app

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/selimozcann/LinkSentry/internal/analytics"
	"github.com/selimozcann/LinkSentry/internal/analyzer"
	"github.com/selimozcann/LinkSentry/internal/config"
	"github.com/selimozcann/LinkSentry/internal/detect"
	"github.com/selimozcann/LinkSentry/internal/history"
	"github.com/selimozcann/LinkSentry/internal/latency"
	"github.com/selimozcann/LinkSentry/internal/model"
	"github.com/selimozcann/LinkSentry/internal/notify"
	"github.com/selimozcann/LinkSentry/internal/plugin"
	"github.com/selimozcann/LinkSentry/internal/runner"
	"github.com/selimozcann/LinkSentry/internal/store"
)

// Notification texts.
const (
	MsgSafe   = "Safe URL detected"
	MsgThreat = "Potential threat detected"
	MsgFailed = "Failed to analyze URL"
)

// Options configures New. Only Config is required.
type Options struct {
	Config     *config.Config
	Store      store.Store
	Notifier   notify.Notifier
	Registerer prometheus.Registerer
	Logger     *zap.Logger
	// RunnerOptions are appended after the app's own runner options.
	RunnerOptions []runner.Option
}

// App is the caller-facing surface of LinkSentry.
type App struct {
	cfg    *config.Config
	kv     store.Store
	lists  detect.Lists
	limits plugin.Limits
	runner *runner.Runner
	ledger *history.Ledger
	agg    *analytics.Aggregator
	gate   *notify.Gate
	log    *zap.Logger

	mu       sync.RWMutex
	settings model.Settings
	rules    []string
}

// New loads persisted settings, history and analytics and builds the scan
// pipeline for the persisted scan depth.
func New(ctx context.Context, opts Options) (*App, error) {
	if opts.Config == nil {
		return nil, errors.New("app: config is required")
	}
	cfg := opts.Config
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	kv := opts.Store
	if kv == nil {
		kv = store.NewMemory()
	}

	lists, err := detect.LoadLists(cfg.Analyzer.RulesFile)
	if err != nil {
		return nil, fmt.Errorf("load detection lists: %w", err)
	}

	a := &App{
		cfg:   cfg,
		kv:    kv,
		lists: lists,
		limits: plugin.Limits{
			MaxSubdomainDepth: cfg.Analyzer.MaxSubdomainDepth,
			MaxURLLength:      cfg.Analyzer.MaxURLLength,
		},
		log: logger.Named("app"),
	}
	a.settings = a.loadSettings(ctx)

	a.ledger = history.New(ctx, kv, logger)
	a.ledger.SetAutoSave(a.settings.AutoSave)
	a.agg, err = analytics.New(ctx, kv, logger, opts.Registerer)
	if err != nil {
		return nil, fmt.Errorf("register analytics metrics: %w", err)
	}
	a.agg.SetAutoSave(a.settings.AutoSave)

	policy := latency.None()
	if cfg.Scan.SimulateLatency {
		policy = latency.Fixed(cfg.Scan.Latency)
	}
	ropts := append([]runner.Option{runner.WithLogger(logger)}, opts.RunnerOptions...)
	a.runner = runner.New(
		runner.Config{WindowSize: cfg.Scan.WindowSize, Latency: policy},
		a.buildAnalyzer(a.settings.ScanDepth),
		a.ledger, a.agg, ropts...,
	)
	a.gate = notify.NewGate(opts.Notifier, a.settings.Notifications)
	return a, nil
}

func (a *App) loadSettings(ctx context.Context) model.Settings {
	s := model.DefaultSettings()
	var stored model.Settings
	found, err := a.kv.Get(ctx, store.KeySettings, &stored)
	switch {
	case err != nil:
		a.log.Warn("could not load settings; using defaults", zap.Error(err))
	case !found:
	case stored.Validate() != nil:
		a.log.Warn("ignoring invalid stored settings", zap.Error(stored.Validate()))
	default:
		s = stored
	}
	return s
}

// buildAnalyzer returns an analyzer running the rules depth selects,
// narrowed by analyzer.rules when that is set.
func (a *App) buildAnalyzer(depth model.ScanDepth) *analyzer.Analyzer {
	rules := plugin.ForDepth(plugin.Builtin(a.lists, a.limits), depth)
	rules, unknown := plugin.LoadWithWarnings(rules, a.cfg.Analyzer.Rules)
	for _, n := range unknown {
		a.log.Warn("rule not available at this scan depth", zap.String("rule", n), zap.String("depth", string(depth)))
	}
	an := analyzer.New(analyzer.Config{
		DefaultScheme: a.cfg.Analyzer.DefaultScheme,
		SafeThreshold: a.cfg.Analyzer.SafeThreshold,
	}, rules)
	a.rules = an.Rules()
	a.log.Debug("analyzer built", zap.String("depth", string(depth)), zap.Strings("rules", a.rules))
	return an
}

// Submit scans one URL. Blank input returns ok=false and changes nothing.
func (a *App) Submit(raw string) (model.Verdict, bool) {
	v, ok := a.runner.Submit(raw)
	if !ok {
		return v, false
	}
	switch {
	case v.IsError():
		a.notify(MsgFailed, notify.KindError)
	case v.Safe:
		a.notify(MsgSafe, notify.KindSuccess)
	default:
		a.notify(MsgThreat, notify.KindWarning)
	}
	return v, true
}

// SubmitBatch scans every URL in order and returns one verdict per input.
func (a *App) SubmitBatch(urls []string) []model.Verdict {
	out := a.runner.SubmitBatch(urls)
	if len(out) == 0 {
		return out
	}
	var safe, threats, failed int
	for _, v := range out {
		switch {
		case v.IsError():
			failed++
		case v.Safe:
			safe++
		default:
			threats++
		}
	}
	a.notify(fmt.Sprintf("Batch complete: %d URLs analyzed, %d safe, %d threats, %d failed",
		len(out), safe, threats, failed), notify.KindInfo)
	return out
}

// Window returns the recent verdicts, newest first.
func (a *App) Window() []model.Verdict { return a.runner.Window() }

// HistoryAll returns every recorded verdict, oldest first.
func (a *App) HistoryAll() []model.Verdict { return a.ledger.All() }

// HistoryClear empties the ledger. Analytics and the window are untouched.
func (a *App) HistoryClear() { a.ledger.Clear() }

// AnalyticsSnapshot returns the running counters.
func (a *App) AnalyticsSnapshot() model.Snapshot { return a.agg.Snapshot() }

// GetSettings returns the active settings.
func (a *App) GetSettings() model.Settings {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.settings
}

// Rules returns the rule names the current analyzer runs.
func (a *App) Rules() []string {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return append([]string(nil), a.rules...)
}

// SetSettings validates and applies s, then persists it. Persistence
// failures are logged; the new settings stay in effect for the session.
func (a *App) SetSettings(ctx context.Context, s model.Settings) error {
	if err := s.Validate(); err != nil {
		return fmt.Errorf("invalid settings: %w", err)
	}

	a.mu.Lock()
	prev := a.settings
	a.settings = s
	if s.ScanDepth != prev.ScanDepth {
		a.runner.SetAnalyzer(a.buildAnalyzer(s.ScanDepth))
	}
	a.mu.Unlock()

	a.ledger.SetAutoSave(s.AutoSave)
	a.agg.SetAutoSave(s.AutoSave)
	a.gate.SetGranted(s.Notifications)

	if err := a.kv.Set(ctx, store.KeySettings, s); err != nil {
		a.log.Warn("could not persist settings", zap.Error(err))
	}
	return nil
}

// Flush persists history and analytics regardless of autosave.
func (a *App) Flush() {
	a.ledger.Flush()
	a.agg.Flush()
}

func (a *App) notify(msg string, kind notify.Kind) {
	err := a.gate.Notify(msg, kind)
	if err != nil && !errors.Is(err, notify.ErrNotificationDenied) {
		a.log.Debug("notification not delivered", zap.Error(err))
	}
}
