// Package api exposes the scan operations as a JSON HTTP API.
package api

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	jsoniter "github.com/json-iterator/go"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/selimozcann/LinkSentry/internal/model"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Service is the set of operations the API serves.
type Service interface {
	Submit(raw string) (model.Verdict, bool)
	SubmitBatch(urls []string) []model.Verdict
	Window() []model.Verdict
	HistoryAll() []model.Verdict
	HistoryClear()
	AnalyticsSnapshot() model.Snapshot
	GetSettings() model.Settings
	SetSettings(ctx context.Context, s model.Settings) error
	Rules() []string
}

// Config controls the listener and request limits.
type Config struct {
	Addr string
	// RateLimit is requests per second across all clients. Zero disables
	// limiting.
	RateLimit       float64
	Burst           int
	MaxBatch        int
	ShutdownTimeout time.Duration
}

// Server serves Service over HTTP.
type Server struct {
	cfg      Config
	svc      Service
	gatherer prometheus.Gatherer
	limiter  *rate.Limiter
	log      *zap.Logger
}

// New creates a Server. gatherer backs /metrics and may be nil.
func New(cfg Config, svc Service, gatherer prometheus.Gatherer, logger *zap.Logger) *Server {
	if cfg.MaxBatch <= 0 {
		cfg.MaxBatch = 500
	}
	if cfg.ShutdownTimeout <= 0 {
		cfg.ShutdownTimeout = 10 * time.Second
	}
	limit := rate.Inf
	if cfg.RateLimit > 0 {
		limit = rate.Limit(cfg.RateLimit)
	}
	burst := cfg.Burst
	if burst <= 0 {
		burst = 1
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Server{
		cfg:      cfg,
		svc:      svc,
		gatherer: gatherer,
		limiter:  rate.NewLimiter(limit, burst),
		log:      logger.Named("api"),
	}
}

// Handler returns the routed handler with middleware applied.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/health", s.handleHealth)
	mux.HandleFunc("POST /api/scan", s.handleScan)
	mux.HandleFunc("POST /api/batch", s.handleBatch)
	mux.HandleFunc("GET /api/results", s.handleResults)
	mux.HandleFunc("GET /api/history", s.handleHistory)
	mux.HandleFunc("DELETE /api/history", s.handleClearHistory)
	mux.HandleFunc("GET /api/analytics", s.handleAnalytics)
	mux.HandleFunc("GET /api/settings", s.handleGetSettings)
	mux.HandleFunc("PUT /api/settings", s.handlePutSettings)
	if s.gatherer != nil {
		mux.Handle("GET /metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))
	}
	return s.recoverer(s.logRequests(s.rateLimit(mux)))
}

// Run listens on the configured address and serves until ctx is done.
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.cfg.Addr)
	if err != nil {
		return fmt.Errorf("binding to %s: %w", s.cfg.Addr, err)
	}
	return s.Serve(ctx, ln)
}

// Serve serves on ln until ctx is done, then shuts down gracefully.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		s.log.Info("listening", zap.String("addr", ln.Addr().String()))
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server shutdown: %w", err)
		}
		s.log.Info("server stopped")
		return nil
	})
	return g.Wait()
}

type scanRequest struct {
	URL string `json:"url"`
}

type batchRequest struct {
	URLs []string `json:"urls"`
}

type batchResponse struct {
	Results []model.Verdict `json:"results"`
}

type settingsResponse struct {
	Settings model.Settings `json:"settings"`
	Rules    []string       `json:"rules"`
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleScan(w http.ResponseWriter, r *http.Request) {
	var req scanRequest
	if !decode(w, r, &req) {
		return
	}
	v, ok := s.svc.Submit(req.URL)
	if !ok {
		writeError(w, http.StatusBadRequest, "url is required")
		return
	}
	writeJSON(w, http.StatusOK, v)
}

func (s *Server) handleBatch(w http.ResponseWriter, r *http.Request) {
	var req batchRequest
	if !decode(w, r, &req) {
		return
	}
	if len(req.URLs) == 0 {
		writeError(w, http.StatusBadRequest, "urls is required")
		return
	}
	if len(req.URLs) > s.cfg.MaxBatch {
		writeError(w, http.StatusRequestEntityTooLarge, fmt.Sprintf("at most %d urls per batch", s.cfg.MaxBatch))
		return
	}
	writeJSON(w, http.StatusOK, batchResponse{Results: s.svc.SubmitBatch(req.URLs)})
}

func (s *Server) handleResults(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, nonNil(s.svc.Window()))
}

func (s *Server) handleHistory(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, nonNil(s.svc.HistoryAll()))
}

func (s *Server) handleClearHistory(w http.ResponseWriter, _ *http.Request) {
	s.svc.HistoryClear()
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleAnalytics(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.svc.AnalyticsSnapshot())
}

func (s *Server) handleGetSettings(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, settingsResponse{Settings: s.svc.GetSettings(), Rules: s.svc.Rules()})
}

func (s *Server) handlePutSettings(w http.ResponseWriter, r *http.Request) {
	next := s.svc.GetSettings()
	if !decode(w, r, &next) {
		return
	}
	if err := s.svc.SetSettings(r.Context(), next); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, settingsResponse{Settings: s.svc.GetSettings(), Rules: s.svc.Rules()})
}

func nonNil(vs []model.Verdict) []model.Verdict {
	if vs == nil {
		return []model.Verdict{}
	}
	return vs
}

const maxBodyBytes = 4 << 20

func decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body: "+err.Error())
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
