// Package testutil provides helpers for integration tests.
package testutil

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/lumident/lumident/internal/model"
)

// RequireEnv returns an environment variable or skips the test if missing.
func RequireEnv(t testing.TB, key string) string {
	t.Helper()
	value := os.Getenv(key)
	if value == "" {
		t.Skipf("%s not set", key)
	}
	return value
}

const advisoryLockID int64 = 771204

// AcquireDBLock grabs a global advisory lock to serialize DB tests.
func AcquireDBLock(ctx context.Context, pool *pgxpool.Pool) (func() error, error) {
	conn, err := pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire connection: %w", err)
	}

	if _, err := conn.Exec(ctx, "SELECT pg_advisory_lock($1)", advisoryLockID); err != nil {
		conn.Release()
		return nil, fmt.Errorf("acquire advisory lock: %w", err)
	}

	unlock := func() error {
		defer conn.Release()
		if _, err := conn.Exec(ctx, "SELECT pg_advisory_unlock($1)", advisoryLockID); err != nil {
			return fmt.Errorf("release advisory lock: %w", err)
		}
		return nil
	}

	return unlock, nil
}

// applyMigration drops and recreates a schema slice from its migration pair.
func applyMigration(ctx context.Context, pool *pgxpool.Pool, name string) error {
	root, err := ProjectRoot()
	if err != nil {
		return err
	}

	downPath := filepath.Join(root, "migrations", name+".down.sql")
	upPath := filepath.Join(root, "migrations", name+".up.sql")

	downSQL, err := os.ReadFile(downPath)
	if err != nil {
		return fmt.Errorf("read down migration: %w", err)
	}
	if _, err := pool.Exec(ctx, string(downSQL)); err != nil {
		return fmt.Errorf("apply down migration: %w", err)
	}

	upSQL, err := os.ReadFile(upPath)
	if err != nil {
		return fmt.Errorf("read up migration: %w", err)
	}
	if _, err := pool.Exec(ctx, string(upSQL)); err != nil {
		return fmt.Errorf("apply up migration: %w", err)
	}

	return nil
}

// ResetUsersSchema drops and recreates the users schema for tests.
func ResetUsersSchema(ctx context.Context, pool *pgxpool.Pool) error {
	return applyMigration(ctx, pool, "000001_users")
}

// ResetEntitlementsSchema drops and recreates the entitlements schema for tests.
func ResetEntitlementsSchema(ctx context.Context, pool *pgxpool.Pool) error {
	return applyMigration(ctx, pool, "000002_entitlements")
}

// ResetOTPSchema drops and recreates the otp_challenges schema for tests.
func ResetOTPSchema(ctx context.Context, pool *pgxpool.Pool) error {
	return applyMigration(ctx, pool, "000003_otp_challenges")
}

// ResetAllSchemas recreates every table the engine owns, in dependency order.
func ResetAllSchemas(ctx context.Context, pool *pgxpool.Pool) error {
	if err := ResetOTPSchema(ctx, pool); err != nil {
		return err
	}
	if err := ResetEntitlementsSchema(ctx, pool); err != nil {
		return err
	}
	return ResetUsersSchema(ctx, pool)
}

// FlushRedis clears the current Redis database.
func FlushRedis(ctx context.Context, client *redis.Client) error {
	return client.FlushDB(ctx).Err()
}

// ProjectRoot returns the project root directory.
func ProjectRoot() (string, error) {
	_, filename, _, ok := runtime.Caller(0)
	if !ok {
		return "", fmt.Errorf("failed to resolve testutil path")
	}
	root := filepath.Clean(filepath.Join(filepath.Dir(filename), "..", ".."))
	return root, nil
}

// ============================================================================
// Test Data Factories
// ============================================================================

// NewTestUser creates a test user with a unique email.
func NewTestUser(t testing.TB) *model.User {
	t.Helper()
	now := time.Now().UTC()
	return &model.User{
		ID:        fmt.Sprintf("user-%d", now.UnixNano()),
		Email:     fmt.Sprintf("user-%d@example.com", now.UnixNano()),
		CreatedAt: now,
	}
}

// NewTestChallenge creates a fresh OTP challenge for the given user.
func NewTestChallenge(t testing.TB, userID string, now time.Time) *model.OTPChallenge {
	t.Helper()
	return &model.OTPChallenge{
		UserID:        userID,
		CodeHash:      fmt.Sprintf("hash-%d", now.UnixNano()),
		ExpiresAt:     now.Add(model.OTPTTL),
		Attempts:      0,
		NextAllowedAt: now.Add(model.OTPResendCooldown),
		CreatedAt:     now,
	}
}

// UniqueID generates a unique ID for tests.
func UniqueID(prefix string) string {
	return fmt.Sprintf("%s-%d", prefix, time.Now().UnixNano())
}
