package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/lumident/lumident/internal/model"
	"github.com/lumident/lumident/internal/testutil"
)

func newTestRepository(t *testing.T, ctx context.Context) *Repository {
	t.Helper()

	dbURL := testutil.RequireEnv(t, "DATABASE_URL")
	repo, err := New(ctx, dbURL)
	if err != nil {
		t.Fatalf("create repository: %v", err)
	}
	t.Cleanup(repo.Close)

	unlock, err := testutil.AcquireDBLock(ctx, repo.Pool())
	if err != nil {
		t.Fatalf("acquire db lock: %v", err)
	}
	t.Cleanup(func() {
		_ = unlock()
	})

	if err := testutil.ResetAllSchemas(ctx, repo.Pool()); err != nil {
		t.Fatalf("reset schema: %v", err)
	}

	return repo
}

func TestRepository_EnsureEntitlement(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepository(t, ctx)

	now := time.Now().UTC().Truncate(time.Millisecond)
	userID := testutil.UniqueID("user")

	e, err := repo.EnsureEntitlement(ctx, userID, now)
	if err != nil {
		t.Fatalf("ensure entitlement: %v", err)
	}
	if e.LicenseStatus != model.LicenseTrial {
		t.Errorf("status = %s, want trial", e.LicenseStatus)
	}
	if e.TrialStart == nil || !e.TrialStart.Equal(now) {
		t.Errorf("trial_start = %v, want %v", e.TrialStart, now)
	}

	// Provisioning again later must not move the trial clock.
	later := now.Add(48 * time.Hour)
	e2, err := repo.EnsureEntitlement(ctx, userID, later)
	if err != nil {
		t.Fatalf("ensure entitlement again: %v", err)
	}
	if !e2.TrialStart.Equal(now) {
		t.Errorf("trial_start moved to %v after re-provisioning", e2.TrialStart)
	}
}

func TestRepository_ExtendEntitlement_FromAbsent(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepository(t, ctx)

	now := time.Now().UTC().Truncate(time.Millisecond)
	userID := testutil.UniqueID("user")

	expiry, err := repo.ExtendEntitlement(ctx, userID, model.PlanMonthly.Duration(), now)
	if err != nil {
		t.Fatalf("extend entitlement: %v", err)
	}
	if want := now.Add(30 * 24 * time.Hour); !expiry.Equal(want) {
		t.Errorf("expiry = %v, want %v", expiry, want)
	}

	e, err := repo.GetEntitlement(ctx, userID)
	if err != nil {
		t.Fatalf("get entitlement: %v", err)
	}
	if e.LicenseStatus != model.LicenseActive {
		t.Errorf("status = %s, want active", e.LicenseStatus)
	}
	if e.TrialStart != nil {
		t.Errorf("payment-created record must not start a trial, got %v", e.TrialStart)
	}
}

func TestRepository_ExtendEntitlement_StacksForward(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepository(t, ctx)

	now := time.Now().UTC().Truncate(time.Millisecond)
	userID := testutil.UniqueID("user")

	// Two monthly extensions at the same instant stack to 60 days.
	if _, err := repo.ExtendEntitlement(ctx, userID, model.PlanMonthly.Duration(), now); err != nil {
		t.Fatalf("first extension: %v", err)
	}
	expiry, err := repo.ExtendEntitlement(ctx, userID, model.PlanMonthly.Duration(), now)
	if err != nil {
		t.Fatalf("second extension: %v", err)
	}
	if want := now.Add(60 * 24 * time.Hour); !expiry.Equal(want) {
		t.Errorf("stacked expiry = %v, want %v", expiry, want)
	}
}

func TestRepository_ExtendEntitlement_ConcurrentFirstPayment(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepository(t, ctx)

	now := time.Now().UTC().Truncate(time.Millisecond)
	userID := testutil.UniqueID("user")

	// Two webhook deliveries for a user that has never been provisioned
	// race on creating the row. Both must succeed and stack.
	errs := make(chan error, 2)
	for i := 0; i < 2; i++ {
		go func() {
			_, err := repo.ExtendEntitlement(ctx, userID, model.PlanMonthly.Duration(), now)
			errs <- err
		}()
	}
	for i := 0; i < 2; i++ {
		if err := <-errs; err != nil {
			t.Fatalf("concurrent extension: %v", err)
		}
	}

	e, err := repo.GetEntitlement(ctx, userID)
	if err != nil {
		t.Fatalf("get entitlement: %v", err)
	}
	if want := now.Add(60 * 24 * time.Hour); e.ExpiryDate == nil || !e.ExpiryDate.Equal(want) {
		t.Errorf("expiry = %v, want %v", e.ExpiryDate, want)
	}
	if e.LicenseStatus != model.LicenseActive {
		t.Errorf("status = %s, want active", e.LicenseStatus)
	}
	if e.TrialStart != nil {
		t.Errorf("payment-created record must not start a trial, got %v", e.TrialStart)
	}
}

func TestRepository_ExtendEntitlement_LapsedBaseIsNow(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepository(t, ctx)

	past := time.Now().UTC().Add(-90 * 24 * time.Hour).Truncate(time.Millisecond)
	userID := testutil.UniqueID("user")

	// Expired long ago; a new payment extends from now, not from the old expiry.
	if _, err := repo.ExtendEntitlement(ctx, userID, model.PlanMonthly.Duration(), past); err != nil {
		t.Fatalf("seed expired entitlement: %v", err)
	}

	now := time.Now().UTC().Truncate(time.Millisecond)
	expiry, err := repo.ExtendEntitlement(ctx, userID, model.PlanMonthly.Duration(), now)
	if err != nil {
		t.Fatalf("extend lapsed entitlement: %v", err)
	}
	if want := now.Add(30 * 24 * time.Hour); !expiry.Equal(want) {
		t.Errorf("expiry = %v, want %v", expiry, want)
	}
}

func TestRepository_TouchAttestation(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepository(t, ctx)

	now := time.Now().UTC().Truncate(time.Millisecond)
	userID := testutil.UniqueID("user")

	if err := repo.TouchAttestation(ctx, userID, now); !errors.Is(err, ErrEntitlementNotFound) {
		t.Fatalf("expected ErrEntitlementNotFound for missing record, got %v", err)
	}

	if _, err := repo.EnsureEntitlement(ctx, userID, now); err != nil {
		t.Fatalf("ensure entitlement: %v", err)
	}
	if err := repo.TouchAttestation(ctx, userID, now); err != nil {
		t.Fatalf("touch attestation: %v", err)
	}

	e, err := repo.GetEntitlement(ctx, userID)
	if err != nil {
		t.Fatalf("get entitlement: %v", err)
	}
	if e.LastAttestationAt == nil || !e.LastAttestationAt.Equal(now) {
		t.Errorf("last_attestation_at = %v, want %v", e.LastAttestationAt, now)
	}
}

func TestRepository_ExpireOverdueLicenses(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepository(t, ctx)

	now := time.Now().UTC().Truncate(time.Millisecond)

	// Overdue active record.
	overdue := testutil.UniqueID("overdue")
	if _, err := repo.ExtendEntitlement(ctx, overdue, model.PlanMonthly.Duration(), now.Add(-60*24*time.Hour)); err != nil {
		t.Fatalf("seed overdue: %v", err)
	}

	// Active record with future expiry.
	current := testutil.UniqueID("current")
	if _, err := repo.ExtendEntitlement(ctx, current, model.PlanMonthly.Duration(), now); err != nil {
		t.Fatalf("seed current: %v", err)
	}

	// Trial record, never touched by the sweeper.
	trial := testutil.UniqueID("trial")
	if _, err := repo.EnsureEntitlement(ctx, trial, now.Add(-30*24*time.Hour)); err != nil {
		t.Fatalf("seed trial: %v", err)
	}

	count, err := repo.ExpireOverdueLicenses(ctx, now)
	if err != nil {
		t.Fatalf("expire overdue: %v", err)
	}
	if count != 1 {
		t.Errorf("expired count = %d, want 1", count)
	}

	assertStatus := func(userID string, want model.LicenseStatus) {
		t.Helper()
		e, err := repo.GetEntitlement(ctx, userID)
		if err != nil {
			t.Fatalf("get %s: %v", userID, err)
		}
		if e.LicenseStatus != want {
			t.Errorf("%s status = %s, want %s", userID, e.LicenseStatus, want)
		}
	}

	assertStatus(overdue, model.LicenseExpired)
	assertStatus(current, model.LicenseActive)
	assertStatus(trial, model.LicenseTrial)

	// Expiry date is preserved for audit after the sweep.
	e, err := repo.GetEntitlement(ctx, overdue)
	if err != nil {
		t.Fatalf("get overdue: %v", err)
	}
	if e.ExpiryDate == nil {
		t.Error("sweeper must not clear expiry_date")
	}

	// Second sweep finds nothing.
	count, err = repo.ExpireOverdueLicenses(ctx, now)
	if err != nil {
		t.Fatalf("second sweep: %v", err)
	}
	if count != 0 {
		t.Errorf("second sweep count = %d, want 0", count)
	}
}
