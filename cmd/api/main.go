// Package main is the entrypoint for the Lumident API server.
package main

import (
	"context"
	"log/slog"
	"net/url"
	"os"
	"regexp"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/robfig/cron/v3"

	"github.com/lumident/lumident/internal/attest"
	"github.com/lumident/lumident/internal/cache"
	"github.com/lumident/lumident/internal/config"
	"github.com/lumident/lumident/internal/email"
	"github.com/lumident/lumident/internal/handler"
	"github.com/lumident/lumident/internal/identity"
	"github.com/lumident/lumident/internal/license"
	"github.com/lumident/lumident/internal/metrics"
	"github.com/lumident/lumident/internal/middleware"
	"github.com/lumident/lumident/internal/otp"
	"github.com/lumident/lumident/internal/payment"
	"github.com/lumident/lumident/internal/repository"
	"github.com/lumident/lumident/internal/server"
)

func main() {
	// Initialize context
	ctx := context.Background()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	// Initialize logger
	logger := initLogger(cfg)

	// Initialize database
	repo, err := repository.New(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Error(
			"failed to connect to database",
			slog.String("error", sanitizeError(err, cfg.DatabaseURL)),
			slog.String("database_url", redactURL(cfg.DatabaseURL)),
		)
		os.Exit(1)
	}
	defer repo.Close()
	logger.Info("connected to database")

	// Initialize cache
	cacheClient, err := cache.New(ctx, cfg.RedisURL)
	if err != nil {
		logger.Error(
			"failed to connect to Redis",
			slog.String("error", sanitizeError(err, cfg.RedisURL)),
			slog.String("redis_url", redactURL(cfg.RedisURL)),
		)
		os.Exit(1)
	}
	defer cacheClient.Close()
	logger.Info("connected to Redis")

	// Initialize services
	recorder := metrics.NewInMemory()
	identityService := identity.New(repo, cfg.SessionSecret, cfg.SessionTTL, logger)
	sender := buildEmailSender(cfg, logger)
	otpService := otp.New(repo, identityService, sender, cfg.OTPSecret, cfg.EmailTimeout, logger, recorder)
	reconciler := payment.NewReconciler(repo, cfg.WebhookSecret, logger, recorder)
	orderClient := payment.NewClient(cfg.PaymentBaseURL, cfg.PaymentKeyID, cfg.PaymentKeySecret)
	verifier := attest.NewVerifier(cfg.AttestBaseURL, cfg.AttestPackageName, cfg.AttestAccessToken, cfg.AttestTimeout)
	sweeper := license.NewSweeper(repo, logger, recorder)

	// Initialize handlers
	h := handler.New()
	healthHandler := handler.NewHealthHandler(repo, cacheClient)
	otpHandler := handler.NewOTPHandler(otpService, logger)
	accessHandler := handler.NewAccessHandler(repo, logger)
	orderHandler := handler.NewOrderHandler(orderClient, logger)
	attestHandler := handler.NewAttestHandler(verifier, repo, logger)
	webhookHandler := handler.NewWebhookHandler(reconciler, logger)
	sweepHandler := handler.NewSweepHandler(sweeper, logger)
	metricsHandler := handler.NewMetricsHandler(recorder)

	// Setup router
	r := setupRouter(routerDeps{
		base:     h,
		health:   healthHandler,
		otp:      otpHandler,
		access:   accessHandler,
		order:    orderHandler,
		attest:   attestHandler,
		webhook:  webhookHandler,
		sweep:    sweepHandler,
		metrics:  metricsHandler,
		verifier: identityService,
		cache:    cacheClient,
		cfg:      cfg,
		logger:   logger,
	})
	// Create and run server
	srv := server.New(
		r,
		cfg.AppPort,
		cfg.ReadTimeout,
		cfg.WriteTimeout,
		cfg.ShutdownTimeout,
		logger,
	)

	// Scheduled license expiry sweep
	if cfg.SweepEnabled {
		scheduler := cron.New()
		_, err := scheduler.AddFunc(cfg.SweepSpec, func() {
			sweepCtx, cancel := context.WithTimeout(context.Background(), time.Minute)
			defer cancel()

			expired, err := sweeper.Run(sweepCtx)
			if err != nil {
				logger.Error("scheduled sweep failed", "error", err)
				return
			}
			logger.Info("scheduled sweep completed", "expired", expired)
		})
		if err != nil {
			logger.Error("invalid sweep schedule",
				slog.String("spec", cfg.SweepSpec),
				slog.String("error", err.Error()),
			)
			os.Exit(1)
		}
		scheduler.Start()
		srv.OnShutdown("sweep scheduler", func(ctx context.Context) error {
			select {
			case <-scheduler.Stop().Done():
				return nil
			case <-ctx.Done():
				return ctx.Err()
			}
		})
		logger.Info("sweep scheduled", "spec", cfg.SweepSpec)
	}

	logger.Info("starting server",
		"port", cfg.AppPort,
		"env", cfg.AppEnv,
	)

	if err := srv.Run(); err != nil {
		logger.Error("server error", "error", err)
		os.Exit(1)
	}
}

// buildEmailSender assembles the provider chain for sign-in code delivery.
// Providers without a configured key are skipped; the log sender is always
// last so a code request never fails outright on delivery.
func buildEmailSender(cfg *config.Config, logger *slog.Logger) email.Sender {
	var senders []email.Sender

	if cfg.ResendAPIKey != "" {
		senders = append(senders, email.NewResendSender(cfg.ResendAPIKey, cfg.EmailFrom, cfg.EmailTimeout))
	}
	if cfg.SendGridAPIKey != "" {
		senders = append(senders, email.NewSendGridSender(cfg.SendGridAPIKey, cfg.EmailFrom))
	}
	senders = append(senders, email.NewLogSender(logger))

	return email.NewFanout(logger, senders...)
}

// initLogger initializes the slog logger based on configuration.
func initLogger(cfg *config.Config) *slog.Logger {
	var h slog.Handler

	level := parseLogLevel(cfg.LogLevel)

	opts := &slog.HandlerOptions{
		Level: level,
	}

	if cfg.LogFormat == "json" {
		h = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		h = slog.NewTextHandler(os.Stdout, opts)
	}

	logger := slog.New(h)
	slog.SetDefault(logger)

	return logger
}

// parseLogLevel converts string log level to slog.Level.
func parseLogLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

type routerDeps struct {
	base     *handler.Handler
	health   *handler.HealthHandler
	otp      *handler.OTPHandler
	access   *handler.AccessHandler
	order    *handler.OrderHandler
	attest   *handler.AttestHandler
	webhook  *handler.WebhookHandler
	sweep    *handler.SweepHandler
	metrics  *handler.MetricsHandler
	verifier middleware.SessionVerifier
	cache    *cache.Cache
	cfg      *config.Config
	logger   *slog.Logger
}

// setupRouter configures the chi router with all routes and middleware.
func setupRouter(deps routerDeps) *chi.Mux {
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger(deps.logger))
	r.Use(middleware.Recoverer(deps.logger))
	r.Use(middleware.Security(middleware.SecurityConfig{
		IsDevelopment:      deps.cfg.IsDevelopment(),
		MaxRequestBodySize: deps.cfg.MaxRequestBodySize,
	}))
	r.Use(middleware.MaxBodySize(deps.cfg.MaxRequestBodySize))

	if origins := deps.cfg.GetCORSAllowedOrigins(); len(origins) > 0 {
		corsCfg := middleware.DefaultCORSConfig()
		corsCfg.AllowedOrigins = origins
		r.Use(middleware.CORS(corsCfg))
	}

	// Health endpoints (no auth required)
	r.Get("/healthz", deps.health.Healthz)
	r.Get("/readyz", deps.health.Readyz)

	// Root info endpoint
	r.Get("/", deps.base.Hello)

	// Metrics endpoint
	r.Get("/metrics", deps.metrics.Metrics)

	// Session middleware configuration
	sessionCfg := middleware.SessionConfig{
		Logger:   deps.logger,
		Verifier: deps.verifier,
	}

	// Rate limit middleware configuration
	rateLimitCfg := middleware.RateLimitConfig{
		Logger:     deps.logger,
		Cache:      deps.cache,
		OTPEnabled: deps.cfg.RateLimitOTPEnabled,
		OTPRPS:     deps.cfg.RateLimitOTPRPS,
		OTPBurst:   deps.cfg.RateLimitOTPBurst,
	}

	// API v1 routes
	r.Route("/api/v1", func(r chi.Router) {
		// Sign-in code flow (unauthenticated; request is rate limited per IP)
		r.Route("/auth/otp", func(r chi.Router) {
			r.With(middleware.RateLimitOTP(rateLimitCfg)).Post("/request", deps.otp.Request)
			r.Post("/verify", deps.otp.Verify)
		})

		// Session-protected routes
		r.Group(func(r chi.Router) {
			r.Use(middleware.Session(sessionCfg))

			r.Get("/access", deps.access.Check)
			r.Post("/orders", deps.order.Create)
			r.Post("/attestation", deps.attest.Verify)
		})
	})

	// Payment gateway webhook (authenticated by signature, not session)
	r.Post("/webhooks/payment", deps.webhook.Receive)

	// Operator endpoints
	r.Route("/internal", func(r chi.Router) {
		r.Use(middleware.OperatorKey(middleware.OperatorConfig{
			Logger:  deps.logger,
			KeyHash: deps.cfg.AdminKeyHash,
		}))
		r.Post("/sweep", deps.sweep.Trigger)
	})

	// 404 and 405 handlers
	r.NotFound(deps.base.NotFound)
	r.MethodNotAllowed(deps.base.MethodNotAllowed)

	return r
}

var passwordPattern = regexp.MustCompile(`(?i)password=[^\s]+`)

func redactURL(raw string) string {
	if raw == "" {
		return ""
	}

	parsed, err := url.Parse(raw)
	if err != nil {
		return "[redacted]"
	}

	if parsed.User != nil {
		username := parsed.User.Username()
		if username == "" {
			parsed.User = url.User("redacted")
		} else {
			parsed.User = url.User(username)
		}
	}

	return parsed.String()
}

func sanitizeError(err error, secrets ...string) string {
	if err == nil {
		return ""
	}

	msg := err.Error()
	for _, secret := range secrets {
		if secret == "" {
			continue
		}
		redacted := redactURL(secret)
		if redacted == "" {
			redacted = "[redacted]"
		}
		msg = strings.ReplaceAll(msg, secret, redacted)
	}

	return passwordPattern.ReplaceAllString(msg, "password=redacted")
}
