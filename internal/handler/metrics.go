package handler

import (
	"fmt"
	"net/http"

	"github.com/lumident/lumident/internal/metrics"
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

	writeMetric(w, "lumident_otp_requested_total{status=\"issued\"} %d\n", snap.OTPIssued)
	writeMetric(w, "lumident_otp_requested_total{status=\"rejected\"} %d\n", snap.OTPRejected)
	writeMetric(w, "lumident_otp_verified_total{status=\"success\"} %d\n", snap.OTPVerifySuccess)
	writeMetric(w, "lumident_otp_verified_total{status=\"failed\"} %d\n", snap.OTPVerifyFailed)

	writeMetric(w, "lumident_payment_events_total{status=\"applied\"} %d\n", snap.PaymentApplied)
	writeMetric(w, "lumident_payment_events_total{status=\"ignored\"} %d\n", snap.PaymentIgnored)
	writeMetric(w, "lumident_payment_events_total{status=\"rejected\"} %d\n", snap.PaymentRejected)
	writeMetric(w, "lumident_reconcile_duration_seconds_count %d\n", snap.ReconcileDurationCount)
	writeMetric(w, "lumident_reconcile_duration_seconds_sum %.6f\n", float64(snap.ReconcileDurationTotalNs)/1e9)

	writeMetric(w, "lumident_licenses_expired_total %d\n", snap.LicensesExpired)
}

func writeMetric(w http.ResponseWriter, format string, args ...any) {
	_, _ = fmt.Fprintf(w, format, args...)
}
