package handler

import (
	"fmt"
	"net/http"

	"github.com/oraculo/oraculo/internal/metrics"
)

// MetricsHandler exposes in-memory metrics.
type MetricsHandler struct {
	snapshotter metrics.Snapshotter
}

// NewMetricsHandler creates a new MetricsHandler.
func NewMetricsHandler(snapshotter metrics.Snapshotter) *MetricsHandler {
	return &MetricsHandler{snapshotter: snapshotter}
}

// Metrics returns metrics in Prometheus exposition format.
func (h *MetricsHandler) Metrics(w http.ResponseWriter, r *http.Request) {
	if h.snapshotter == nil {
		w.WriteHeader(http.StatusServiceUnavailable)
		return
	}

	snap := h.snapshotter.Snapshot()

	w.Header().Set("Content-Type", "text/plain; version=0.0.4")

	writeMetric(w, "oraculo_submissions_total{status=\"accepted\"} %d\n", snap.SubmissionsAccepted)
	writeMetric(w, "oraculo_submissions_rejected_total{field=\"tokens\"} %d\n", snap.SubmissionsRejectedTokens)
	writeMetric(w, "oraculo_submissions_rejected_total{field=\"prompt\"} %d\n", snap.SubmissionsRejectedPrompt)

	writeMetric(w, "oraculo_tokens_spent_total %d\n", snap.TokensSpentTotal)

	writeMetric(w, "oraculo_provider_faults_total %d\n", snap.ProviderFaults)
	writeMetric(w, "oraculo_provider_duration_seconds_count %d\n", snap.ProviderDurationCount)
	writeMetric(w, "oraculo_provider_duration_seconds_sum %.6f\n", float64(snap.ProviderDurationTotalNs)/1e9)
}

func writeMetric(w http.ResponseWriter, format string, args ...any) {
	_, _ = fmt.Fprintf(w, format, args...)
}
