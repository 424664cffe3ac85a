package runner

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/selimozcann/LinkSentry/internal/analyzer"
	"github.com/selimozcann/LinkSentry/internal/latency"
	"github.com/selimozcann/LinkSentry/internal/model"
)

// DefaultWindowSize is the number of recent verdicts kept for display. It is
// also the largest window a Runner accepts.
const DefaultWindowSize = 10

// Analyzer produces a verdict for one URL.
type Analyzer interface {
	Analyze(raw string) (model.Verdict, error)
}

// Recorder receives every verdict the runner produces.
type Recorder interface {
	Record(v model.Verdict)
}

// Updater receives every verdict the runner produces.
type Updater interface {
	Update(v model.Verdict)
}

// Config holds settings for the runner.
type Config struct {
	WindowSize int
	Latency    latency.Policy
}

// Option customizes a Runner.
type Option func(*Runner)

// WithClock overrides the source of verdict timestamps.
func WithClock(now func() time.Time) Option { return func(r *Runner) { r.now = now } }

// WithIDs overrides the verdict ID generator.
func WithIDs(next func() string) Option { return func(r *Runner) { r.newID = next } }

// WithSleeper overrides how latency waits are served.
func WithSleeper(s latency.Sleeper) Option { return func(r *Runner) { r.sleep = s } }

// WithLogger attaches a logger.
func WithLogger(l *zap.Logger) Option { return func(r *Runner) { r.log = l.Named("runner") } }

// Runner drives single and batch scans through the analyzer, stamps the
// results, keeps the rolling window and fans every result out to the ledger
// and the aggregator. All state changes happen under one mutex.
type Runner struct {
	cfg      Config
	mu       sync.Mutex
	analyzer Analyzer
	ledger   Recorder
	agg      Updater
	window   []model.Verdict

	now   func() time.Time
	newID func() string
	sleep latency.Sleeper
	log   *zap.Logger
}

// New creates a new Runner.
func New(cfg Config, an Analyzer, ledger Recorder, agg Updater, opts ...Option) *Runner {
	if cfg.WindowSize <= 0 || cfg.WindowSize > DefaultWindowSize {
		cfg.WindowSize = DefaultWindowSize
	}
	if cfg.Latency == nil {
		cfg.Latency = latency.None()
	}
	r := &Runner{
		cfg:      cfg,
		analyzer: an,
		ledger:   ledger,
		agg:      agg,
		now:      time.Now,
		newID:    uuid.NewString,
		log:      zap.NewNop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// SetAnalyzer swaps the analyzer used by subsequent scans.
func (r *Runner) SetAnalyzer(an Analyzer) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.analyzer = an
}

// Submit scans one URL. Blank input is ignored: nothing is analyzed or
// recorded and ok is false. A URL the analyzer rejects yields an
// error-tagged verdict rather than an error.
func (r *Runner) Submit(raw string) (v model.Verdict, ok bool) {
	if strings.TrimSpace(raw) == "" {
		return model.Verdict{}, false
	}
	latency.Wait(r.cfg.Latency, r.sleep)

	r.mu.Lock()
	defer r.mu.Unlock()
	v = r.scan(raw)
	r.pushLocked([]model.Verdict{v})
	r.fanOutLocked(v)
	return v, true
}

// SubmitBatch scans urls one at a time in input order and returns exactly
// one verdict per input. Failures, blank entries included, become
// error-tagged verdicts and never stop the batch.
func (r *Runner) SubmitBatch(urls []string) []model.Verdict {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]model.Verdict, 0, len(urls))
	for _, raw := range urls {
		out = append(out, r.scan(raw))
	}
	r.pushLocked(out)
	for _, v := range out {
		r.fanOutLocked(v)
	}
	r.log.Debug("batch complete", zap.Int("count", len(out)))
	return out
}

// Window returns the most recent verdicts, newest first.
func (r *Runner) Window() []model.Verdict {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]model.Verdict(nil), r.window...)
}

func (r *Runner) scan(raw string) (v model.Verdict) {
	defer func() {
		if p := recover(); p != nil {
			r.log.Error("analyzer panicked", zap.String("url", raw), zap.Any("panic", p))
			v = r.failed(raw, fmt.Errorf("panic: %v", p))
		}
	}()

	if strings.TrimSpace(raw) == "" {
		return r.failed(raw, &analyzer.MalformedURLError{Input: raw, Reason: "empty input"})
	}
	res, err := r.analyzer.Analyze(raw)
	if err != nil {
		return r.failed(raw, err)
	}
	res.ID = r.newID()
	res.Timestamp = r.now().UTC()
	return res
}

func (r *Runner) failed(raw string, err error) model.Verdict {
	level := r.log.Warn
	if errors.Is(err, analyzer.ErrMalformedURL) {
		level = r.log.Debug
	}
	level("scan failed", zap.String("url", raw), zap.Error(err))
	return model.Verdict{
		ID:        r.newID(),
		URL:       strings.TrimSpace(raw),
		Timestamp: r.now().UTC(),
		Error:     model.ErrorText,
	}
}

// pushLocked prepends batch, in order, to the window and truncates it.
func (r *Runner) pushLocked(batch []model.Verdict) {
	next := make([]model.Verdict, 0, len(batch)+len(r.window))
	next = append(next, batch...)
	next = append(next, r.window...)
	if len(next) > r.cfg.WindowSize {
		next = next[:r.cfg.WindowSize]
	}
	r.window = next
}

func (r *Runner) fanOutLocked(v model.Verdict) {
	if r.ledger != nil {
		r.ledger.Record(v)
	}
	if r.agg != nil {
		r.agg.Update(v)
	}
}
