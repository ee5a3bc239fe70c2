package metrics

import "time"

// NoopRecorder implements Recorder with no-op methods.
type NoopRecorder struct{}

// NewNoop returns a Recorder that discards all metrics.
func NewNoop() Recorder {
	return &NoopRecorder{}
}

// IncOTPRequested is a no-op.
func (n *NoopRecorder) IncOTPRequested(status string) {}

// IncOTPVerified is a no-op.
func (n *NoopRecorder) IncOTPVerified(status string) {}

// IncPaymentEvent is a no-op.
func (n *NoopRecorder) IncPaymentEvent(status string) {}

// ObserveReconcileDuration is a no-op.
func (n *NoopRecorder) ObserveReconcileDuration(duration time.Duration) {}

// AddLicensesExpired is a no-op.
func (n *NoopRecorder) AddLicensesExpired(count int64) {}
