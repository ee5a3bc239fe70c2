// Package model defines domain entities for the application.
package model

import "time"

// LicenseStatus represents the authoritative license state of a user.
type LicenseStatus string

const (
	LicenseTrial   LicenseStatus = "trial"
	LicenseActive  LicenseStatus = "active"
	LicenseExpired LicenseStatus = "expired"
)

// IsValid checks if the license status is a known value.
func (s LicenseStatus) IsValid() bool {
	return s == LicenseTrial || s == LicenseActive || s == LicenseExpired
}

// Entitlement holds the per-user trial/subscription record.
// TrialStart is set once at provisioning and never mutated afterward.
// ExpiryDate only ever moves forward; the sweeper changes status only.
type Entitlement struct {
	UserID            string        `json:"user_id"`
	TrialStart        *time.Time    `json:"trial_start,omitempty"`
	LicenseStatus     LicenseStatus `json:"license_status"`
	ExpiryDate        *time.Time    `json:"expiry_date,omitempty"`
	LastAttestationAt *time.Time    `json:"last_attestation_at,omitempty"`
	CreatedAt         time.Time     `json:"created_at"`
	UpdatedAt         time.Time     `json:"updated_at"`
}
