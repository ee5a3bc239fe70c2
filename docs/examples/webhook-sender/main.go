// Lumident Webhook Sender Example
//
// Simulates a Razorpay payment webhook against a locally running Lumident
// server. Useful for exercising the reconciliation path without a real
// gateway account.
//
// Usage:
//   export WEBHOOK_SECRET="your_webhook_secret"
//   go run main.go -user user123 -plan yearly
//
// The target server must share the same WEBHOOK_SECRET.

package main

import (
	"bytes"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"time"
)

func main() {
	var (
		target = flag.String("target", "http://localhost:8080/webhooks/payment", "Webhook endpoint URL")
		user   = flag.String("user", "user123", "User ID to credit")
		plan   = flag.String("plan", "monthly", "Plan name (monthly, halfyear, yearly)")
		event  = flag.String("event", "payment.captured", "Event type to send")
	)
	flag.Parse()

	secret := os.Getenv("WEBHOOK_SECRET")
	if secret == "" {
		log.Fatal("WEBHOOK_SECRET environment variable is required")
	}

	body, err := buildPayload(*event, *user, *plan)
	if err != nil {
		log.Fatalf("build payload: %v", err)
	}

	req, err := http.NewRequest(http.MethodPost, *target, bytes.NewReader(body))
	if err != nil {
		log.Fatalf("build request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Razorpay-Signature", sign(secret, body))

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		log.Fatalf("send webhook: %v", err)
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(resp.Body)
	log.Printf("→ %s %s", *event, *target)
	log.Printf("← %d %s", resp.StatusCode, string(respBody))
}

// buildPayload assembles a minimal Razorpay event envelope. The receipt
// carries the user reference the same way the order-creation flow writes it.
func buildPayload(event, userID, plan string) ([]byte, error) {
	receipt := fmt.Sprintf("%s-%d", userID, time.Now().UnixMilli())

	payload := map[string]any{
		"event": event,
		"payload": map[string]any{
			"payment": map[string]any{
				"entity": map[string]any{
					"id":      fmt.Sprintf("pay_%d", time.Now().Unix()),
					"receipt": receipt,
					"notes": map[string]any{
						"plan": plan,
					},
				},
			},
			"order": map[string]any{
				"entity": map[string]any{
					"id":      fmt.Sprintf("order_%d", time.Now().Unix()),
					"receipt": receipt,
					"notes": map[string]any{
						"plan": plan,
					},
				},
			},
		},
	}

	return json.Marshal(payload)
}

// sign computes the hex HMAC-SHA256 over the raw body, matching what the
// gateway sends in X-Razorpay-Signature.
func sign(secret string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}
