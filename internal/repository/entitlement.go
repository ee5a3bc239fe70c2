package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/lumident/lumident/internal/model"
)

// Common errors for entitlement repository operations.
var (
	ErrEntitlementNotFound = errors.New("entitlement not found")
)

const entitlementColumns = `
	user_id, trial_start, license_status, expiry_date, last_attestation_at, created_at, updated_at
`

func scanEntitlement(row pgx.Row) (*model.Entitlement, error) {
	var e model.Entitlement
	err := row.Scan(
		&e.UserID,
		&e.TrialStart,
		&e.LicenseStatus,
		&e.ExpiryDate,
		&e.LastAttestationAt,
		&e.CreatedAt,
		&e.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrEntitlementNotFound
		}
		return nil, fmt.Errorf("failed to scan entitlement: %w", err)
	}
	return &e, nil
}

// GetEntitlement retrieves the entitlement record for a user.
func (r *Repository) GetEntitlement(ctx context.Context, userID string) (*model.Entitlement, error) {
	query := `SELECT ` + entitlementColumns + ` FROM entitlements WHERE user_id = $1`
	return scanEntitlement(r.pool.QueryRow(ctx, query, userID))
}

// EnsureEntitlement provisions the entitlement record for a user if it does
// not exist yet, starting the trial clock at now. An existing record is left
// untouched: trial_start is set exactly once and never moves.
func (r *Repository) EnsureEntitlement(ctx context.Context, userID string, now time.Time) (*model.Entitlement, error) {
	query := `
		INSERT INTO entitlements (user_id, trial_start, license_status, created_at, updated_at)
		VALUES ($1, $2, $3, $2, $2)
		ON CONFLICT (user_id) DO NOTHING
	`

	if _, err := r.pool.Exec(ctx, query, userID, now, model.LicenseTrial); err != nil {
		return nil, fmt.Errorf("failed to provision entitlement: %w", err)
	}

	return r.GetEntitlement(ctx, userID)
}

// ExtendEntitlement adds the purchased duration to a user's entitlement
// inside a single transaction. The extension stacks forward from whichever is
// later - now or the currently paid-through date - so late or overlapping
// payments never shrink entitlement and never double-credit a future window.
// The row lock serializes concurrent webhook deliveries for the same user.
func (r *Repository) ExtendEntitlement(ctx context.Context, userID string, extension time.Duration, now time.Time) (time.Time, error) {
	var newExpiry time.Time

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	var currentExpiry *time.Time
	err = tx.QueryRow(ctx,
		`SELECT expiry_date FROM entitlements WHERE user_id = $1 FOR UPDATE`,
		userID,
	).Scan(&currentExpiry)

	if errors.Is(err, pgx.ErrNoRows) {
		// The payment may arrive before the user was ever provisioned.
		// Seed the record without a trial_start (a payment never starts
		// a trial implicitly) and re-take the row lock, so two first
		// payments racing on a fresh user both land on the update path
		// instead of colliding on plain inserts.
		_, err = tx.Exec(ctx, `
			INSERT INTO entitlements (user_id, license_status, created_at, updated_at)
			VALUES ($1, $2, $3, $3)
			ON CONFLICT (user_id) DO NOTHING
		`, userID, model.LicenseActive, now)
		if err != nil {
			return time.Time{}, fmt.Errorf("failed to insert entitlement: %w", err)
		}
		err = tx.QueryRow(ctx,
			`SELECT expiry_date FROM entitlements WHERE user_id = $1 FOR UPDATE`,
			userID,
		).Scan(&currentExpiry)
	}
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to lock entitlement: %w", err)
	}

	base := now
	if currentExpiry != nil && currentExpiry.After(now) {
		base = *currentExpiry
	}
	newExpiry = base.Add(extension)
	_, err = tx.Exec(ctx, `
		UPDATE entitlements
		SET license_status = $2, expiry_date = $3, updated_at = $4
		WHERE user_id = $1
	`, userID, model.LicenseActive, newExpiry, now)
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to extend entitlement: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return time.Time{}, fmt.Errorf("failed to commit extension: %w", err)
	}

	return newExpiry, nil
}

// TouchAttestation records a passed device-attestation check.
func (r *Repository) TouchAttestation(ctx context.Context, userID string, now time.Time) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE entitlements
		SET last_attestation_at = $2, updated_at = $2
		WHERE user_id = $1
	`, userID, now)
	if err != nil {
		return fmt.Errorf("failed to record attestation: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrEntitlementNotFound
	}
	return nil
}

// ExpireOverdueLicenses transitions all active entitlements whose paid
// period has ended to expired. The expiry date is left untouched for audit.
// Predicate and write happen in one statement, so a record that turns active
// with a future expiry mid-sweep is simply not matched.
func (r *Repository) ExpireOverdueLicenses(ctx context.Context, now time.Time) (int64, error) {
	tag, err := r.pool.Exec(ctx, `
		UPDATE entitlements
		SET license_status = $1, updated_at = $2
		WHERE license_status = $3 AND expiry_date < $2
	`, model.LicenseExpired, now, model.LicenseActive)
	if err != nil {
		return 0, fmt.Errorf("failed to expire licenses: %w", err)
	}
	return tag.RowsAffected(), nil
}
