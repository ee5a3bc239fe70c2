package model

import "time"

// OTP policy constants.
const (
	// OTPTTL is the validity window of an issued code.
	OTPTTL = 10 * time.Minute
	// OTPResendCooldown is the minimum gap between code requests.
	OTPResendCooldown = 30 * time.Second
	// OTPMaxAttempts is the hard cap on verification attempts per challenge,
	// including the attempt that succeeds.
	OTPMaxAttempts = 5
)

// OTPChallenge is the single pending one-time code for a user.
// A new request overwrites the prior challenge; successful verification
// deletes it.
type OTPChallenge struct {
	UserID        string    `json:"user_id"`
	CodeHash      string    `json:"-"`
	ExpiresAt     time.Time `json:"expires_at"`
	Attempts      int       `json:"attempts"`
	NextAllowedAt time.Time `json:"next_allowed_at"`
	CreatedAt     time.Time `json:"created_at"`
}

// Expired reports whether the challenge's validity window has passed.
func (c *OTPChallenge) Expired(now time.Time) bool {
	return now.After(c.ExpiresAt)
}

// Exhausted reports whether the attempt cap has been reached.
func (c *OTPChallenge) Exhausted() bool {
	return c.Attempts >= OTPMaxAttempts
}
