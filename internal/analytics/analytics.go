package analytics

import (
	"context"
	"errors"
	"math"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/selimozcann/LinkSentry/internal/model"
	"github.com/selimozcann/LinkSentry/internal/store"
)

// Aggregator keeps running counters over every verdict. Counters only ever
// move by one per update; they are never recomputed from the ledger.
type Aggregator struct {
	mu       sync.RWMutex
	snap     model.Snapshot
	kv       store.Store
	autoSave bool
	dirty    bool
	log      *zap.Logger
	gauges   *gauges
}

type gauges struct {
	total    prometheus.Gauge
	safe     prometheus.Gauge
	threats  prometheus.Gauge
	errors   prometheus.Gauge
	accuracy prometheus.Gauge
}

// New loads persisted counters from kv and registers gauges with reg. Either
// may be nil.
func New(ctx context.Context, kv store.Store, logger *zap.Logger, reg prometheus.Registerer) (*Aggregator, error) {
	a := &Aggregator{kv: kv, autoSave: true, log: logger.Named("analytics")}
	if kv != nil {
		var snap model.Snapshot
		found, err := kv.Get(ctx, store.KeyAnalytics, &snap)
		switch {
		case err != nil:
			a.log.Warn("could not load analytics; starting from zero", zap.Error(err))
		case found:
			a.snap = snap
		}
	}
	if reg != nil {
		g, err := registerGauges(reg)
		if err != nil {
			return nil, err
		}
		a.gauges = g
		a.exportLocked()
	}
	return a, nil
}

func registerGauges(reg prometheus.Registerer) (*gauges, error) {
	mk := func(name, help string) (prometheus.Gauge, error) {
		g := prometheus.NewGauge(prometheus.GaugeOpts{Namespace: "linksentry", Name: name, Help: help})
		if err := reg.Register(g); err != nil {
			var are prometheus.AlreadyRegisteredError
			if errors.As(err, &are) {
				if existing, ok := are.ExistingCollector.(prometheus.Gauge); ok {
					return existing, nil
				}
			}
			return nil, err
		}
		return g, nil
	}
	var (
		g   gauges
		err error
	)
	if g.total, err = mk("scans_total", "Verdicts issued, error-tagged included."); err != nil {
		return nil, err
	}
	if g.safe, err = mk("safe_urls", "Verdicts judged safe."); err != nil {
		return nil, err
	}
	if g.threats, err = mk("threats_detected", "Verdicts judged unsafe."); err != nil {
		return nil, err
	}
	if g.errors, err = mk("scan_errors", "Inputs that could not be analyzed."); err != nil {
		return nil, err
	}
	if g.accuracy, err = mk("accuracy_percent", "Share of verdicts judged safe, rounded percent."); err != nil {
		return nil, err
	}
	return &g, nil
}

// SetAutoSave controls whether every update is persisted immediately.
// Turning it back on flushes pending changes.
func (a *Aggregator) SetAutoSave(on bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.autoSave = on
	if on && a.dirty {
		a.persistLocked()
	}
}

// Update folds one verdict into the counters. Error-tagged verdicts count
// toward the total and the error bucket only.
func (a *Aggregator) Update(v model.Verdict) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.snap.TotalScans++
	switch {
	case v.IsError():
		a.snap.Errors++
	case v.Safe:
		a.snap.SafeURLs++
	default:
		a.snap.ThreatsDetected++
	}
	a.snap.Accuracy = Accuracy(a.snap.SafeURLs, a.snap.TotalScans)
	a.changedLocked()
}

// Reset zeroes every counter.
func (a *Aggregator) Reset() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.snap = model.Snapshot{}
	a.changedLocked()
}

// Snapshot returns the current counters.
func (a *Aggregator) Snapshot() model.Snapshot {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.snap
}

// Flush persists pending changes regardless of the autosave setting.
func (a *Aggregator) Flush() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.persistLocked()
}

// Accuracy is round(100*safe/total), or 0 when total is 0.
func Accuracy(safe, total int) int {
	if total == 0 {
		return 0
	}
	return int(math.Round(100 * float64(safe) / float64(total)))
}

func (a *Aggregator) changedLocked() {
	a.exportLocked()
	a.dirty = true
	if a.autoSave {
		a.persistLocked()
	}
}

func (a *Aggregator) exportLocked() {
	if a.gauges == nil {
		return
	}
	a.gauges.total.Set(float64(a.snap.TotalScans))
	a.gauges.safe.Set(float64(a.snap.SafeURLs))
	a.gauges.threats.Set(float64(a.snap.ThreatsDetected))
	a.gauges.errors.Set(float64(a.snap.Errors))
	a.gauges.accuracy.Set(float64(a.snap.Accuracy))
}

func (a *Aggregator) persistLocked() {
	if a.kv == nil {
		return
	}
	if err := a.kv.Set(context.Background(), store.KeyAnalytics, a.snap); err != nil {
		a.log.Warn("could not persist analytics; keeping them in memory", zap.Error(err))
		return
	}
	a.dirty = false
}
