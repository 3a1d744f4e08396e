// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"net/http"
	"strings"

	"github.com/okian/stagerank/pkg/metrics"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// HealthHandler handles health check and metrics requests.
type HealthHandler struct {
	metrics http.Handler
}

// NewHealthHandler creates a new health handler.
func NewHealthHandler() *HealthHandler {
	return &HealthHandler{
		metrics: promhttp.HandlerFor(metrics.GetRegistry(), promhttp.HandlerOpts{}),
	}
}

// HandleHealth handles GET /healthz requests.
// If the Accept header contains "application/openmetrics-text" or "text/plain"
// it returns Prometheus metrics. Otherwise it returns a JSON status.
func (h *HealthHandler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	accept := r.Header.Get("Accept")
	if strings.Contains(accept, "application/openmetrics-text") || strings.Contains(accept, "text/plain") {
		h.metrics.ServeHTTP(w, r)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// HandleMetrics handles GET /metrics requests.
func (h *HealthHandler) HandleMetrics(w http.ResponseWriter, r *http.Request) {
	h.metrics.ServeHTTP(w, r)
}
