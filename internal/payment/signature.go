// Package payment contains webhook reconciliation and the gateway client.
package payment

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
)

// Sign computes the HMAC-SHA256 signature of a webhook body.
// The MAC is computed over the raw bytes as delivered, never over a
// re-serialized form.
func Sign(secret string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

// VerifySignature checks a supplied signature against the raw body.
// Comparison is constant-time.
func VerifySignature(secret, signature string, body []byte) bool {
	expected := Sign(secret, body)
	return hmac.Equal([]byte(expected), []byte(signature))
}
