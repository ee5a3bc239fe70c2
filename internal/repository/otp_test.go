package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/lumident/lumident/internal/model"
	"github.com/lumident/lumident/internal/testutil"
)

func TestRepository_PutAndGetOTPChallenge(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepository(t, ctx)

	now := time.Now().UTC().Truncate(time.Millisecond)
	userID := testutil.UniqueID("user")

	if _, err := repo.GetOTPChallenge(ctx, userID); !errors.Is(err, ErrChallengeNotFound) {
		t.Fatalf("expected ErrChallengeNotFound, got %v", err)
	}

	c := testutil.NewTestChallenge(t, userID, now)
	if err := repo.PutOTPChallenge(ctx, c); err != nil {
		t.Fatalf("put challenge: %v", err)
	}

	got, err := repo.GetOTPChallenge(ctx, userID)
	if err != nil {
		t.Fatalf("get challenge: %v", err)
	}
	if got.CodeHash != c.CodeHash {
		t.Errorf("code_hash = %q, want %q", got.CodeHash, c.CodeHash)
	}
	if got.Attempts != 0 {
		t.Errorf("attempts = %d, want 0", got.Attempts)
	}
}

func TestRepository_PutOTPChallenge_OverwritesSlot(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepository(t, ctx)

	now := time.Now().UTC().Truncate(time.Millisecond)
	userID := testutil.UniqueID("user")

	first := testutil.NewTestChallenge(t, userID, now)
	first.Attempts = 3
	if err := repo.PutOTPChallenge(ctx, first); err != nil {
		t.Fatalf("put first challenge: %v", err)
	}

	// Resend: new code, attempts reset, old code gone.
	second := testutil.NewTestChallenge(t, userID, now.Add(time.Minute))
	if err := repo.PutOTPChallenge(ctx, second); err != nil {
		t.Fatalf("put second challenge: %v", err)
	}

	got, err := repo.GetOTPChallenge(ctx, userID)
	if err != nil {
		t.Fatalf("get challenge: %v", err)
	}
	if got.CodeHash != second.CodeHash {
		t.Errorf("code_hash = %q, want overwritten value %q", got.CodeHash, second.CodeHash)
	}
	if got.Attempts != 0 {
		t.Errorf("attempts = %d, want reset to 0", got.Attempts)
	}
}

func TestRepository_ClaimOTPAttempt(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepository(t, ctx)

	now := time.Now().UTC().Truncate(time.Millisecond)
	userID := testutil.UniqueID("user")

	if _, err := repo.ClaimOTPAttempt(ctx, userID, now); !errors.Is(err, ErrChallengeNotFound) {
		t.Fatalf("expected ErrChallengeNotFound, got %v", err)
	}

	c := testutil.NewTestChallenge(t, userID, now)
	if err := repo.PutOTPChallenge(ctx, c); err != nil {
		t.Fatalf("put challenge: %v", err)
	}

	// Every claim consumes one attempt, including the one that will succeed.
	for i := 1; i <= model.OTPMaxAttempts; i++ {
		claimed, err := repo.ClaimOTPAttempt(ctx, userID, now)
		if err != nil {
			t.Fatalf("claim %d: %v", i, err)
		}
		if claimed.Attempts != i {
			t.Errorf("claim %d: attempts = %d, want %d", i, claimed.Attempts, i)
		}
	}

	// Cap reached: further claims are rejected regardless of expiry.
	if _, err := repo.ClaimOTPAttempt(ctx, userID, now); !errors.Is(err, ErrTooManyAttempts) {
		t.Fatalf("expected ErrTooManyAttempts, got %v", err)
	}
}

func TestRepository_ClaimOTPAttempt_Expired(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepository(t, ctx)

	now := time.Now().UTC().Truncate(time.Millisecond)
	userID := testutil.UniqueID("user")

	c := testutil.NewTestChallenge(t, userID, now)
	if err := repo.PutOTPChallenge(ctx, c); err != nil {
		t.Fatalf("put challenge: %v", err)
	}

	after := c.ExpiresAt.Add(time.Second)
	if _, err := repo.ClaimOTPAttempt(ctx, userID, after); !errors.Is(err, ErrChallengeExpired) {
		t.Fatalf("expected ErrChallengeExpired, got %v", err)
	}

	// The record stays in place and no attempt was consumed.
	got, err := repo.GetOTPChallenge(ctx, userID)
	if err != nil {
		t.Fatalf("get challenge after expiry: %v", err)
	}
	if got.Attempts != 0 {
		t.Errorf("attempts = %d, want 0 (expiry must not consume)", got.Attempts)
	}
}

func TestRepository_DeleteOTPChallenge(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepository(t, ctx)

	now := time.Now().UTC().Truncate(time.Millisecond)
	userID := testutil.UniqueID("user")

	c := testutil.NewTestChallenge(t, userID, now)
	if err := repo.PutOTPChallenge(ctx, c); err != nil {
		t.Fatalf("put challenge: %v", err)
	}

	if err := repo.DeleteOTPChallenge(ctx, userID); err != nil {
		t.Fatalf("delete challenge: %v", err)
	}
	if _, err := repo.GetOTPChallenge(ctx, userID); !errors.Is(err, ErrChallengeNotFound) {
		t.Fatalf("expected ErrChallengeNotFound after delete, got %v", err)
	}

	// Deleting an absent challenge is a no-op.
	if err := repo.DeleteOTPChallenge(ctx, userID); err != nil {
		t.Fatalf("delete absent challenge: %v", err)
	}
}
