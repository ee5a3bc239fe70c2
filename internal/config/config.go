// Package config provides application configuration management.
// Configuration is loaded from environment variables following 12-factor principles.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v10"
)

// Config holds all application configuration.
// All fields are populated from environment variables.
type Config struct {
	// Application settings
	AppEnv  string `env:"APP_ENV" envDefault:"development"`
	AppPort int    `env:"APP_PORT" envDefault:"8080"`

	// Database (PostgreSQL)
	DatabaseURL string `env:"DATABASE_URL,required"`

	// Cache (Redis)
	RedisURL string `env:"REDIS_URL,required"`

	// Logging
	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat string `env:"LOG_FORMAT" envDefault:"json"`

	// Server timeouts
	ReadTimeout     time.Duration `env:"READ_TIMEOUT" envDefault:"5s"`
	WriteTimeout    time.Duration `env:"WRITE_TIMEOUT" envDefault:"10s"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"30s"`

	// Payment gateway
	PaymentBaseURL   string `env:"PAYMENT_BASE_URL" envDefault:"https://api.razorpay.com"`
	PaymentKeyID     string `env:"PAYMENT_KEY_ID,required"`
	PaymentKeySecret string `env:"PAYMENT_KEY_SECRET,required"`
	// Shared secret for inbound payment webhook signatures
	WebhookSecret string `env:"WEBHOOK_SECRET,required"`

	// OTP authentication
	// Server-side pepper mixed into code hashes; never stored alongside them
	OTPSecret string `env:"OTP_SECRET,required"`
	// Sender address used for sign-in code emails
	EmailFrom string `env:"EMAIL_FROM" envDefault:"no-reply@lumident.app"`
	// Provider keys; a provider without a key is skipped
	ResendAPIKey   string `env:"RESEND_API_KEY" envDefault:""`
	SendGridAPIKey string `env:"SENDGRID_API_KEY" envDefault:""`
	// Timeout budget for a single provider attempt
	EmailTimeout time.Duration `env:"EMAIL_TIMEOUT" envDefault:"10s"`

	// Session tokens
	SessionSecret string        `env:"SESSION_SECRET,required"`
	SessionTTL    time.Duration `env:"SESSION_TTL" envDefault:"24h"`

	// Device attestation
	AttestBaseURL     string `env:"ATTEST_BASE_URL" envDefault:"https://playintegrity.googleapis.com"`
	AttestPackageName string `env:"ATTEST_PACKAGE_NAME" envDefault:""`
	AttestAccessToken string `env:"ATTEST_ACCESS_TOKEN" envDefault:""`
	// Timeout for attestation API calls
	AttestTimeout time.Duration `env:"ATTEST_TIMEOUT" envDefault:"10s"`

	// License expiry sweep
	SweepEnabled bool   `env:"SWEEP_ENABLED" envDefault:"true"`
	SweepSpec    string `env:"SWEEP_SPEC" envDefault:"@daily"`
	// Argon2id hash guarding POST /internal/sweep; empty disables the route
	AdminKeyHash string `env:"ADMIN_KEY_HASH" envDefault:""`

	// Rate limiting for unauthenticated OTP endpoints (per IP)
	RateLimitOTPEnabled bool `env:"RATE_LIMIT_OTP_ENABLED" envDefault:"true"`
	RateLimitOTPRPS     int  `env:"RATE_LIMIT_OTP_RPS" envDefault:"1"`
	RateLimitOTPBurst   int  `env:"RATE_LIMIT_OTP_BURST" envDefault:"5"`

	// CORS configuration
	// Comma-separated list of allowed origins (e.g., "https://example.com,https://app.example.com")
	CORSAllowedOrigins string `env:"CORS_ALLOWED_ORIGINS" envDefault:""`

	// Request body size limit in bytes (default 1MB)
	MaxRequestBodySize int64 `env:"MAX_REQUEST_BODY_SIZE" envDefault:"1048576"`
}

// IsDevelopment returns true if running in development mode.
func (c *Config) IsDevelopment() bool {
	return c.AppEnv == "development"
}

// IsProduction returns true if running in production mode.
func (c *Config) IsProduction() bool {
	return c.AppEnv == "production"
}

// GetCORSAllowedOrigins parses the comma-separated origins string into a slice.
func (c *Config) GetCORSAllowedOrigins() []string {
	if c.CORSAllowedOrigins == "" {
		return nil
	}

	origins := strings.Split(c.CORSAllowedOrigins, ",")
	result := make([]string, 0, len(origins))

	for _, origin := range origins {
		trimmed := strings.TrimSpace(origin)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}

	return result
}

// Load parses environment variables and returns a Config.
// Returns an error if required variables are missing.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return cfg, nil
}
