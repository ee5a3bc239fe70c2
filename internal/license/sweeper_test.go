package license

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/lumident/lumident/internal/metrics"
)

type fakeExpiryStore struct {
	count int64
	err   error
	calls int
	last  time.Time
}

func (f *fakeExpiryStore) ExpireOverdueLicenses(ctx context.Context, now time.Time) (int64, error) {
	f.calls++
	f.last = now
	return f.count, f.err
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestSweeper_Run(t *testing.T) {
	store := &fakeExpiryStore{count: 3}
	rec := metrics.NewInMemory()
	s := NewSweeper(store, discardLogger(), rec)

	fixed := time.Date(2026, 3, 10, 3, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return fixed }

	count, err := s.Run(context.Background())
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if count != 3 {
		t.Errorf("count = %d, want 3", count)
	}
	if store.calls != 1 {
		t.Errorf("store calls = %d, want 1", store.calls)
	}
	if !store.last.Equal(fixed) {
		t.Errorf("store now = %v, want %v", store.last, fixed)
	}
	if got := rec.Snapshot().LicensesExpired; got != 3 {
		t.Errorf("metrics expired = %d, want 3", got)
	}
}

func TestSweeper_RunError(t *testing.T) {
	store := &fakeExpiryStore{err: errors.New("db down")}
	s := NewSweeper(store, discardLogger(), nil)

	if _, err := s.Run(context.Background()); err == nil {
		t.Fatal("expected error from failing store")
	}
}
