// Package middleware provides HTTP middleware for the Lumident API.
package middleware

import (
	"errors"
	"regexp"
)

// Validation limits.
const (
	// MaxEmailLength is the maximum accepted email address length.
	MaxEmailLength = 254

	// OTPCodeLength is the exact length of a one-time code.
	OTPCodeLength = 6

	// MaxIntegrityTokenLength bounds the opaque attestation token.
	MaxIntegrityTokenLength = 16 * 1024
)

// Validation errors.
var (
	ErrEmailTooLong         = errors.New("email exceeds maximum length")
	ErrCodeInvalid          = errors.New("code must be six digits")
	ErrIntegrityTokenTooBig = errors.New("integrity token exceeds maximum length")
)

// otpCodePattern matches a six-digit one-time code.
var otpCodePattern = regexp.MustCompile(`^[0-9]{6}$`)

// ValidateEmailLength bounds the address before it reaches parsing.
func ValidateEmailLength(email string) error {
	if len(email) > MaxEmailLength {
		return ErrEmailTooLong
	}
	return nil
}

// ValidateOTPCode checks the submitted code shape. Content checks
// happen against the stored hash, never here.
func ValidateOTPCode(code string) error {
	if !otpCodePattern.MatchString(code) {
		return ErrCodeInvalid
	}
	return nil
}

// ValidateIntegrityToken bounds the attestation token size.
func ValidateIntegrityToken(token string) error {
	if len(token) > MaxIntegrityTokenLength {
		return ErrIntegrityTokenTooBig
	}
	return nil
}
