// Package license contains the access evaluation rules and the expiry sweep.
package license

import (
	"time"

	"github.com/lumident/lumident/internal/model"
)

// Evaluation windows.
const (
	// TrialWindow is how long the free trial lasts from trial_start.
	TrialWindow = 3 * 24 * time.Hour
	// AttestationWindow is how recent a passed device check must be to
	// count as recent. Recency is reported, not enforced, here.
	AttestationWindow = 7 * 24 * time.Hour
)

// Decision is the result of evaluating an entitlement at a point in time.
type Decision struct {
	Allowed           bool                `json:"allowed"`
	LicenseStatus     model.LicenseStatus `json:"licenseStatus"`
	TrialValid        bool                `json:"trialValid"`
	Active            bool                `json:"active"`
	AttestationRecent bool                `json:"attestationRecent"`
}

// Evaluate computes the access decision for an already-loaded entitlement.
// Pure function of the record and the clock; no I/O.
func Evaluate(e *model.Entitlement, now time.Time) Decision {
	d := Decision{LicenseStatus: e.LicenseStatus}

	if e.TrialStart != nil {
		d.TrialValid = now.Sub(*e.TrialStart) <= TrialWindow
	}

	if e.LicenseStatus == model.LicenseActive && e.ExpiryDate != nil {
		d.Active = e.ExpiryDate.After(now)
	}

	if e.LastAttestationAt != nil {
		d.AttestationRecent = now.Sub(*e.LastAttestationAt) <= AttestationWindow
	}

	d.Allowed = d.Active || d.TrialValid
	return d
}
