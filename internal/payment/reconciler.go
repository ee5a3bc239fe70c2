package payment

import (
	"context"
	"log/slog"
	"time"

	"github.com/lumident/lumident/internal/apperr"
	"github.com/lumident/lumident/internal/metrics"
	"github.com/lumident/lumident/internal/model"
)

// EntitlementExtender is the slice of the repository the reconciler needs.
type EntitlementExtender interface {
	ExtendEntitlement(ctx context.Context, userID string, extension time.Duration, now time.Time) (time.Time, error)
}

// Outcome describes what a webhook event did.
type Outcome struct {
	Applied   bool
	UserID    string
	Plan      model.Plan
	NewExpiry time.Time
}

// Reconciler converts authenticated gateway events into entitlement
// extensions. Extension always stacks forward from max(now, currentExpiry),
// so duplicate delivery can never lose or corrupt entitlement; the atomic
// transaction in the store serializes concurrent deliveries per user.
type Reconciler struct {
	store   EntitlementExtender
	secret  string
	logger  *slog.Logger
	metrics metrics.Recorder
}

// NewReconciler creates a Reconciler with the shared webhook secret.
func NewReconciler(store EntitlementExtender, secret string, logger *slog.Logger, recorder metrics.Recorder) *Reconciler {
	if recorder == nil {
		recorder = metrics.NewNoop()
	}
	return &Reconciler{
		store:   store,
		secret:  secret,
		logger:  logger.With("component", "reconciler"),
		metrics: recorder,
	}
}

// HandleEvent authenticates and applies one webhook delivery.
//
// Signature and reference failures are terminal: the gateway must not
// retry them. Storage failures are retryable; the stacking extension
// makes redelivery safe.
func (r *Reconciler) HandleEvent(ctx context.Context, rawBody []byte, signature string, now time.Time) (Outcome, error) {
	start := time.Now()
	defer func() {
		r.metrics.ObserveReconcileDuration(time.Since(start))
	}()

	if !VerifySignature(r.secret, signature, rawBody) {
		r.metrics.IncPaymentEvent("rejected")
		return Outcome{}, apperr.New(apperr.PermissionDenied, "invalid webhook signature")
	}

	ev, err := ParseEvent(rawBody)
	if err != nil {
		r.metrics.IncPaymentEvent("rejected")
		return Outcome{}, apperr.Wrap(apperr.InvalidArgument, "malformed event body", err)
	}

	if !ev.Actionable() {
		r.metrics.IncPaymentEvent("ignored")
		r.logger.Debug("ignoring event", "event", ev.Event)
		return Outcome{}, nil
	}

	userID := ev.UserID()
	if userID == "" {
		r.metrics.IncPaymentEvent("rejected")
		return Outcome{}, apperr.New(apperr.InvalidArgument, "user reference missing from receipt")
	}

	plan := ev.Plan()
	newExpiry, err := r.store.ExtendEntitlement(ctx, userID, plan.Duration(), now)
	if err != nil {
		r.metrics.IncPaymentEvent("rejected")
		return Outcome{}, apperr.Wrap(apperr.Internal, "failed to extend entitlement", err)
	}

	r.metrics.IncPaymentEvent("applied")
	r.logger.Info("entitlement extended",
		"user_id", userID,
		"event", ev.Event,
		"plan", string(plan),
		"new_expiry", newExpiry,
	)

	return Outcome{
		Applied:   true,
		UserID:    userID,
		Plan:      plan,
		NewExpiry: newExpiry,
	}, nil
}
