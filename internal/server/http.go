// Package server exposes the query API over HTTP/JSON, plus the liveness
// and readiness probes.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/zenopie/animal-swap/internal/observability"
	"github.com/zenopie/animal-swap/internal/pool"
	"github.com/zenopie/animal-swap/internal/query"
)

// HTTPServer serves the read-only query endpoints.
type HTTPServer struct {
	svc     *query.Service
	health  *observability.HealthChecker
	metrics *observability.Metrics
	log     zerolog.Logger
	srv     *http.Server
}

func NewHTTPServer(addr string, svc *query.Service, health *observability.HealthChecker, metrics *observability.Metrics, log zerolog.Logger) *HTTPServer {
	s := &HTTPServer{
		svc:     svc,
		health:  health,
		metrics: metrics,
		log:     log,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/v1/pool", s.handlePool)
	mux.HandleFunc("/v1/deposits/", s.handleDeposit)
	mux.HandleFunc("/v1/swap/simulate", s.handleSimulate)
	mux.HandleFunc("/healthz", health.LivenessHandler)
	mux.HandleFunc("/readyz", health.ReadinessHandler)

	s.srv = &http.Server{
		Addr:         addr,
		Handler:      mux,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
	}
	return s
}

// ListenAndServe blocks until the server stops.
func (s *HTTPServer) ListenAndServe() error {
	return s.srv.ListenAndServe()
}

// Shutdown drains in-flight requests.
func (s *HTTPServer) Shutdown(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}

func (s *HTTPServer) handlePool(w http.ResponseWriter, r *http.Request) {
	const endpoint = "pool"
	start := time.Now()

	resp, err := s.svc.PoolState(r.Context())
	if err != nil {
		s.writeError(w, endpoint, err)
		return
	}
	s.writeJSON(w, endpoint, start, resp)
}

func (s *HTTPServer) handleDeposit(w http.ResponseWriter, r *http.Request) {
	const endpoint = "deposit"
	start := time.Now()

	addr := strings.TrimPrefix(r.URL.Path, "/v1/deposits/")
	if addr == "" || strings.Contains(addr, "/") {
		s.metrics.QueryErrors.WithLabelValues(endpoint, "400").Inc()
		http.Error(w, "missing address", http.StatusBadRequest)
		return
	}

	resp, err := s.svc.UnclaimedDeposit(r.Context(), addr)
	if err != nil {
		s.writeError(w, endpoint, err)
		return
	}
	s.writeJSON(w, endpoint, start, resp)
}

func (s *HTTPServer) handleSimulate(w http.ResponseWriter, r *http.Request) {
	const endpoint = "simulate"
	start := time.Now()

	q := r.URL.Query()
	resp, err := s.svc.SimulateSwap(r.Context(), q.Get("input"), q.Get("amount"))
	if err != nil {
		s.writeError(w, endpoint, err)
		return
	}
	s.writeJSON(w, endpoint, start, resp)
}

func (s *HTTPServer) writeJSON(w http.ResponseWriter, endpoint string, start time.Time, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.log.Warn().Err(err).Str("endpoint", endpoint).Msg("encode response")
	}
	s.metrics.QueryRequests.WithLabelValues(endpoint, "200").Inc()
	s.metrics.QueryDuration.WithLabelValues(endpoint).Observe(time.Since(start).Seconds())
}

func (s *HTTPServer) writeError(w http.ResponseWriter, endpoint string, err error) {
	code := http.StatusBadRequest
	switch {
	case errors.Is(err, pool.ErrStorageCorrupt):
		code = http.StatusServiceUnavailable
	case errors.Is(err, pool.ErrInsufficientLiquidity):
		code = http.StatusConflict
	}

	s.metrics.QueryRequests.WithLabelValues(endpoint, strconv.Itoa(code)).Inc()
	s.metrics.QueryErrors.WithLabelValues(endpoint, strconv.Itoa(code)).Inc()
	s.log.Debug().Err(err).Str("endpoint", endpoint).Msg("query failed")

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]string{"error": err.Error()})
}
