// Package metrics provides lightweight hooks for instrumentation.
package metrics

import "time"

// Recorder captures metric events for the engine.
// Implementations can expose these to Prometheus, StatsD, etc.
type Recorder interface {
	// OTP authentication metrics
	IncOTPRequested(status string) // status: "issued", "rejected"
	IncOTPVerified(status string)  // status: "success", "failed"

	// Payment reconciliation metrics
	IncPaymentEvent(status string) // status: "applied", "ignored", "rejected"
	ObserveReconcileDuration(duration time.Duration)

	// Sweep metrics
	AddLicensesExpired(count int64)
}

// Snapshotter exposes a snapshot of current metrics.
type Snapshotter interface {
	Snapshot() Snapshot
}
