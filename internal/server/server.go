// Package server exposes the generation pipeline over HTTP, together with
// health, stats and Prometheus endpoints.
package server

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/wayfarer-app/wayfarer/internal/errors"
	"github.com/wayfarer-app/wayfarer/internal/generate"
	"github.com/wayfarer-app/wayfarer/internal/metrics"
	"github.com/wayfarer-app/wayfarer/internal/ratelimit"
	"github.com/wayfarer-app/wayfarer/internal/stats"
)

const maxBodyBytes = 64 << 10

// Server routes HTTP requests to a Pipeline.
type Server struct {
	pipeline *generate.Pipeline
	limiter  ratelimit.Limiter
	gatherer prometheus.Gatherer
	metrics  *metrics.Metrics
	stats    *stats.Collector
	log      *zap.Logger

	recipes map[string]handlerFunc
}

type handlerFunc func(ctx context.Context, body []byte) (any, error)

// Config holds the optional collaborators of a Server.
type Config struct {
	Limiter  ratelimit.Limiter   // nil disables rate limiting
	Gatherer prometheus.Gatherer // nil hides /metrics
	Metrics  *metrics.Metrics
	Stats    *stats.Collector
	Log      *zap.Logger
}

// New creates a server for p.
func New(p *generate.Pipeline, cfg Config) *Server {
	log := cfg.Log
	if log == nil {
		log = zap.NewNop()
	}
	s := &Server{
		pipeline: p,
		limiter:  cfg.Limiter,
		gatherer: cfg.Gatherer,
		metrics:  cfg.Metrics,
		stats:    cfg.Stats,
		log:      log.With(zap.String("component", "server")),
	}
	s.recipes = map[string]handlerFunc{
		"itinerary":       decodeInto(p.Itinerary),
		"packing_list":    decodeInto(p.PackingList),
		"journal_entry":   decodeInto(p.JournalEntry),
		"trip_summary":    decodeInto(p.TripSummary),
		"briefing":        s.briefing,
		"structured_note": s.note,
	}
	return s
}

// Handler returns the HTTP routes.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /stats", s.handleStats)
	mux.HandleFunc("POST /v1/generate/{recipe}", s.handleGenerate)
	mux.HandleFunc("POST /v1/session/reset", s.handleReset)
	if s.gatherer != nil {
		mux.Handle("GET /metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))
	}
	return mux
}

// ListenAndServe serves until ctx is done, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Info("listening", zap.String("addr", addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	s.pipeline.Wait()
	return nil
}

// ============================================================
// Handlers
// ============================================================

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	state := s.pipeline.CheckAvailability(r.Context())
	code := http.StatusOK
	if !state.Available {
		code = http.StatusServiceUnavailable
	}
	writeJSON(w, code, map[string]any{
		"status":    state.String(),
		"available": state.Available,
		"busy":      s.pipeline.IsBusy(),
		"time":      time.Now().Format(time.RFC3339),
	})
}

func (s *Server) handleStats(w http.ResponseWriter, _ *http.Request) {
	if s.stats == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "stats disabled"})
		return
	}
	writeJSON(w, http.StatusOK, s.stats.Collect())
}

func (s *Server) handleGenerate(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("recipe")
	h, ok := s.recipes[name]
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "unknown recipe " + strconv.Quote(name)})
		return
	}

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		s.writeError(w, errors.Validation("request body too large"))
		return
	}

	out, err := ratelimit.Guard(r.Context(), s.limiter, func(ctx context.Context) (any, error) {
		return h(ctx, body)
	})
	if err != nil {
		if errors.IsKind(err, errors.KindRateLimited) && s.metrics != nil {
			s.metrics.RateLimited.Inc()
		}
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleReset(w http.ResponseWriter, _ *http.Request) {
	if err := s.pipeline.ResetSession(); err != nil {
		s.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) briefing(ctx context.Context, body []byte) (any, error) {
	var req struct {
		Destination string `json:"destination"`
	}
	if err := decode(body, &req); err != nil {
		return nil, err
	}
	return s.pipeline.Briefing(ctx, req.Destination)
}

func (s *Server) note(ctx context.Context, body []byte) (any, error) {
	var req struct {
		Text string `json:"text"`
	}
	if err := decode(body, &req); err != nil {
		return nil, err
	}
	return s.pipeline.StructureNote(ctx, req.Text)
}

// decodeInto adapts a pipeline method taking a JSON-shaped parameter.
func decodeInto[P, R any](fn func(context.Context, P) (*R, error)) handlerFunc {
	return func(ctx context.Context, body []byte) (any, error) {
		var params P
		if err := decode(body, &params); err != nil {
			return nil, err
		}
		return fn(ctx, params)
	}
}

func decode(body []byte, v any) error {
	if err := json.Unmarshal(body, v); err != nil {
		return &errors.Error{Kind: errors.KindOutputValidationFailed, Detail: "malformed request", Inner: err}
	}
	return nil
}

// ============================================================
// Responses
// ============================================================

type errorResponse struct {
	Code  string            `json:"code"`
	Error errors.UserFacing `json:"error"`
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	e := errors.Classify(err)
	if e.Kind == errors.KindRateLimited && e.RetryAfter > 0 {
		w.Header().Set("Retry-After", strconv.Itoa(int(math.Ceil(e.RetryAfter.Seconds()))))
	}
	status := StatusFor(e.Kind)
	if status >= http.StatusInternalServerError {
		s.log.Warn("request failed", zap.Error(err))
	}
	writeJSON(w, status, errorResponse{
		Code:  e.Kind.String(),
		Error: s.pipeline.PresentError(err),
	})
}

// StatusFor maps an error kind to an HTTP status.
func StatusFor(k errors.Kind) int {
	switch k {
	case errors.KindAlreadyGenerating:
		return http.StatusConflict
	case errors.KindRateLimited:
		return http.StatusTooManyRequests
	case errors.KindOutputValidationFailed, errors.KindContextTooLarge,
		errors.KindUnsupportedLanguage, errors.KindContentPolicyViolation:
		return http.StatusUnprocessableEntity
	case errors.KindResourceUnavailable, errors.KindSessionNotReady:
		return http.StatusServiceUnavailable
	case errors.KindTimeout:
		return http.StatusGatewayTimeout
	case errors.KindCancelled:
		return 499
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
