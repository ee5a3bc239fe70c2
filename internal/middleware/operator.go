package middleware

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/lumident/lumident/internal/auth"
)

const (
	// minVerifyDuration is the minimum time to spend on operator key
	// verification to prevent timing attacks.
	minVerifyDuration = 200 * time.Millisecond
)

// OperatorConfig holds configuration for the operator key middleware.
type OperatorConfig struct {
	Logger *slog.Logger
	// KeyHash is the Argon2id hash of the operator key. Empty disables
	// the guarded routes entirely.
	KeyHash string
}

// OperatorKey returns a middleware guarding internal endpoints with a
// pre-shared operator key carried in the X-Operator-Key header.
func OperatorKey(cfg OperatorConfig) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			startTime := time.Now()

			// Ensure consistent timing regardless of outcome
			defer func() {
				elapsed := time.Since(startTime)
				if elapsed < minVerifyDuration {
					time.Sleep(minVerifyDuration - elapsed)
				}
			}()

			if cfg.KeyHash == "" {
				cfg.Logger.Warn("operator endpoint disabled",
					slog.String("endpoint", r.Method+" "+r.URL.Path),
					slog.String("request_id", GetRequestID(r.Context())),
				)
				http.NotFound(w, r)
				return
			}

			key := r.Header.Get("X-Operator-Key")
			if !auth.ValidateKeyFormat(key) {
				cfg.Logger.Warn("operator auth failed",
					slog.String("reason", "invalid_format"),
					slog.String("ip", r.RemoteAddr),
					slog.String("endpoint", r.Method+" "+r.URL.Path),
					slog.String("request_id", GetRequestID(r.Context())),
				)
				writeAuthError(w)
				return
			}

			match, err := auth.VerifyKey(key, cfg.KeyHash)
			if err != nil || !match {
				cfg.Logger.Warn("operator auth failed",
					slog.String("reason", "invalid_key"),
					slog.String("ip", r.RemoteAddr),
					slog.String("endpoint", r.Method+" "+r.URL.Path),
					slog.String("request_id", GetRequestID(r.Context())),
				)
				writeAuthError(w)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
