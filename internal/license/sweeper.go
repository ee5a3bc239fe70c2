package license

import (
	"context"
	"log/slog"
	"time"

	"github.com/lumident/lumident/internal/metrics"
)

// ExpiryStore is the slice of the repository the sweeper needs.
type ExpiryStore interface {
	ExpireOverdueLicenses(ctx context.Context, now time.Time) (int64, error)
}

// Sweeper transitions overdue active licenses to expired.
// Status is the only field it writes; expiry dates are kept for audit.
// Safe to run concurrently with itself and with payment reconciliation:
// a record that turns active with a future expiry mid-sweep is not matched.
type Sweeper struct {
	store   ExpiryStore
	logger  *slog.Logger
	metrics metrics.Recorder
	now     func() time.Time
}

// NewSweeper creates a Sweeper.
func NewSweeper(store ExpiryStore, logger *slog.Logger, recorder metrics.Recorder) *Sweeper {
	if recorder == nil {
		recorder = metrics.NewNoop()
	}
	return &Sweeper{
		store:   store,
		logger:  logger.With("component", "sweeper"),
		metrics: recorder,
		now:     time.Now,
	}
}

// Run executes one sweep and returns the number of transitioned records.
func (s *Sweeper) Run(ctx context.Context) (int64, error) {
	now := s.now()

	count, err := s.store.ExpireOverdueLicenses(ctx, now)
	if err != nil {
		s.logger.Error("sweep failed", "error", err)
		return 0, err
	}

	s.metrics.AddLicensesExpired(count)
	if count > 0 {
		s.logger.Info("expired overdue licenses", "count", count)
	}
	return count, nil
}
