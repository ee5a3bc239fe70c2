package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/lumident/lumident/internal/model"
)

// Common errors for OTP challenge operations.
var (
	ErrChallengeNotFound = errors.New("otp challenge not found")
	ErrChallengeExpired  = errors.New("otp challenge expired")
	ErrTooManyAttempts   = errors.New("otp attempts exhausted")
)

// GetOTPChallenge retrieves the pending challenge for a user.
func (r *Repository) GetOTPChallenge(ctx context.Context, userID string) (*model.OTPChallenge, error) {
	query := `
		SELECT user_id, code_hash, expires_at, attempts, next_allowed_at, created_at
		FROM otp_challenges
		WHERE user_id = $1
	`

	var c model.OTPChallenge
	err := r.pool.QueryRow(ctx, query, userID).Scan(
		&c.UserID,
		&c.CodeHash,
		&c.ExpiresAt,
		&c.Attempts,
		&c.NextAllowedAt,
		&c.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrChallengeNotFound
		}
		return nil, fmt.Errorf("failed to get otp challenge: %w", err)
	}

	return &c, nil
}

// PutOTPChallenge stores a fresh challenge, overwriting any prior one.
// Each user has a single challenge slot; a resend invalidates the old code.
func (r *Repository) PutOTPChallenge(ctx context.Context, c *model.OTPChallenge) error {
	query := `
		INSERT INTO otp_challenges (user_id, code_hash, expires_at, attempts, next_allowed_at, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (user_id) DO UPDATE SET
			code_hash = EXCLUDED.code_hash,
			expires_at = EXCLUDED.expires_at,
			attempts = EXCLUDED.attempts,
			next_allowed_at = EXCLUDED.next_allowed_at,
			created_at = EXCLUDED.created_at
	`

	_, err := r.pool.Exec(ctx, query,
		c.UserID,
		c.CodeHash,
		c.ExpiresAt,
		c.Attempts,
		c.NextAllowedAt,
		c.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to store otp challenge: %w", err)
	}

	return nil
}

// ClaimOTPAttempt consumes one verification attempt against the user's
// pending challenge and returns the challenge as stored, with the attempt
// already counted. The row lock serializes concurrent verify calls: two
// callers cannot both be admitted off the same attempt count.
//
// Expired challenges are reported without consuming an attempt and are left
// in place; exhausted challenges are rejected without further increments.
func (r *Repository) ClaimOTPAttempt(ctx context.Context, userID string, now time.Time) (*model.OTPChallenge, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	var c model.OTPChallenge
	err = tx.QueryRow(ctx, `
		SELECT user_id, code_hash, expires_at, attempts, next_allowed_at, created_at
		FROM otp_challenges
		WHERE user_id = $1
		FOR UPDATE
	`, userID).Scan(
		&c.UserID,
		&c.CodeHash,
		&c.ExpiresAt,
		&c.Attempts,
		&c.NextAllowedAt,
		&c.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrChallengeNotFound
		}
		return nil, fmt.Errorf("failed to lock otp challenge: %w", err)
	}

	if c.Expired(now) {
		return nil, ErrChallengeExpired
	}
	if c.Exhausted() {
		return nil, ErrTooManyAttempts
	}

	c.Attempts++
	if _, err := tx.Exec(ctx,
		`UPDATE otp_challenges SET attempts = $2 WHERE user_id = $1`,
		userID, c.Attempts,
	); err != nil {
		return nil, fmt.Errorf("failed to count otp attempt: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit otp attempt: %w", err)
	}

	return &c, nil
}

// DeleteOTPChallenge removes the user's challenge after a successful verify.
func (r *Repository) DeleteOTPChallenge(ctx context.Context, userID string) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM otp_challenges WHERE user_id = $1`, userID)
	if err != nil {
		return fmt.Errorf("failed to delete otp challenge: %w", err)
	}
	return nil
}
