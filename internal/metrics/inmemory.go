package metrics

import (
	"sync/atomic"
	"time"
)

// Snapshot captures current in-memory counters.
type Snapshot struct {
	OTPIssued                uint64
	OTPRejected              uint64
	OTPVerifySuccess         uint64
	OTPVerifyFailed          uint64
	PaymentApplied           uint64
	PaymentIgnored           uint64
	PaymentRejected          uint64
	ReconcileDurationCount   uint64
	ReconcileDurationTotalNs int64
	LicensesExpired          uint64
}

// InMemoryRecorder stores metrics in memory.
type InMemoryRecorder struct {
	otpIssued                uint64
	otpRejected              uint64
	otpVerifySuccess         uint64
	otpVerifyFailed          uint64
	paymentApplied           uint64
	paymentIgnored           uint64
	paymentRejected          uint64
	reconcileDurationCount   uint64
	reconcileDurationTotalNs int64
	licensesExpired          uint64
}

// NewInMemory returns a Recorder that stores counters in memory.
func NewInMemory() *InMemoryRecorder {
	return &InMemoryRecorder{}
}

// Snapshot returns a copy of the counters.
func (m *InMemoryRecorder) Snapshot() Snapshot {
	return Snapshot{
		OTPIssued:                atomic.LoadUint64(&m.otpIssued),
		OTPRejected:              atomic.LoadUint64(&m.otpRejected),
		OTPVerifySuccess:         atomic.LoadUint64(&m.otpVerifySuccess),
		OTPVerifyFailed:          atomic.LoadUint64(&m.otpVerifyFailed),
		PaymentApplied:           atomic.LoadUint64(&m.paymentApplied),
		PaymentIgnored:           atomic.LoadUint64(&m.paymentIgnored),
		PaymentRejected:          atomic.LoadUint64(&m.paymentRejected),
		ReconcileDurationCount:   atomic.LoadUint64(&m.reconcileDurationCount),
		ReconcileDurationTotalNs: atomic.LoadInt64(&m.reconcileDurationTotalNs),
		LicensesExpired:          atomic.LoadUint64(&m.licensesExpired),
	}
}

// IncOTPRequested increments the OTP request counter for the status.
func (m *InMemoryRecorder) IncOTPRequested(status string) {
	if status == "issued" {
		atomic.AddUint64(&m.otpIssued, 1)
	} else {
		atomic.AddUint64(&m.otpRejected, 1)
	}
}

// IncOTPVerified increments the OTP verify counter for the status.
func (m *InMemoryRecorder) IncOTPVerified(status string) {
	if status == "success" {
		atomic.AddUint64(&m.otpVerifySuccess, 1)
	} else {
		atomic.AddUint64(&m.otpVerifyFailed, 1)
	}
}

// IncPaymentEvent increments the payment event counter for the status.
func (m *InMemoryRecorder) IncPaymentEvent(status string) {
	switch status {
	case "applied":
		atomic.AddUint64(&m.paymentApplied, 1)
	case "ignored":
		atomic.AddUint64(&m.paymentIgnored, 1)
	default:
		atomic.AddUint64(&m.paymentRejected, 1)
	}
}

// ObserveReconcileDuration records reconciliation duration.
func (m *InMemoryRecorder) ObserveReconcileDuration(duration time.Duration) {
	atomic.AddUint64(&m.reconcileDurationCount, 1)
	atomic.AddInt64(&m.reconcileDurationTotalNs, duration.Nanoseconds())
}

// AddLicensesExpired adds to the expired license counter.
func (m *InMemoryRecorder) AddLicensesExpired(count int64) {
	if count > 0 {
		atomic.AddUint64(&m.licensesExpired, uint64(count))
	}
}
