package observability

import (
	"encoding/json"
	"net/http"
	"sync/atomic"
	"time"
)

// HealthChecker manages liveness and readiness state.
type HealthChecker struct {
	ready     atomic.Bool
	startTime time.Time
}

// NewHealthChecker creates a new health checker.
func NewHealthChecker() *HealthChecker {
	return &HealthChecker{
		startTime: time.Now(),
	}
}

// SetReady marks the service as ready to accept traffic.
func (h *HealthChecker) SetReady(ready bool) {
	h.ready.Store(ready)
}

// IsReady returns whether the service is ready.
func (h *HealthChecker) IsReady() bool {
	return h.ready.Load()
}

// LivenessHandler returns HTTP 200 if the process is alive.
func (h *HealthChecker) LivenessHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"status": "alive",
		"uptime": time.Since(h.startTime).String(),
	})
}

// ReadinessHandler returns HTTP 200 once the database and NATS are connected
// and migrations have run, 503 before that.
func (h *HealthChecker) ReadinessHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if h.ready.Load() {
		w.WriteHeader(http.StatusOK)
		json.NewEncoder(w).Encode(map[string]interface{}{
			"status": "ready",
		})
	} else {
		w.WriteHeader(http.StatusServiceUnavailable)
		json.NewEncoder(w).Encode(map[string]interface{}{
			"status": "not_ready",
		})
	}
}
