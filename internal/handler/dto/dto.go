// Package dto provides Data Transfer Objects for API requests and responses.
package dto

import "time"

// RequestCodeRequest represents the body for requesting a one-time code.
type RequestCodeRequest struct {
	Email string `json:"email"`
}

// RequestCodeResponse acknowledges an issued code.
type RequestCodeResponse struct {
	Sent bool `json:"sent"`
}

// VerifyCodeRequest represents the body for verifying a one-time code.
type VerifyCodeRequest struct {
	Email string `json:"email"`
	Code  string `json:"code"`
}

// SessionResponse carries the session token issued after verification.
type SessionResponse struct {
	Token  string `json:"token"`
	UserID string `json:"user_id"`
	Email  string `json:"email"`
}

// CreateOrderRequest represents the body for creating a payment order.
type CreateOrderRequest struct {
	Plan string `json:"plan"`
}

// OrderResponse represents a created payment order.
type OrderResponse struct {
	OrderID  string `json:"order_id"`
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
	Receipt  string `json:"receipt"`
	Plan     string `json:"plan"`
}

// AttestRequest represents the body for device attestation.
type AttestRequest struct {
	IntegrityToken string `json:"integrity_token"`
}

// WebhookAck acknowledges a processed webhook delivery.
type WebhookAck struct {
	OK bool `json:"ok"`
}

// SweepResponse reports the outcome of an expiry sweep.
type SweepResponse struct {
	Expired int64     `json:"expired"`
	RanAt   time.Time `json:"ran_at"`
}

// ErrorResponse represents an API error.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}
