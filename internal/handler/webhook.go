package handler

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/lumident/lumident/internal/apperr"
	"github.com/lumident/lumident/internal/handler/dto"
	"github.com/lumident/lumident/internal/payment"
)

// maxWebhookBody bounds inbound webhook payloads.
const maxWebhookBody = 1 << 20 // 1MB

// signatureHeader carries the gateway's HMAC over the raw body.
const signatureHeader = "X-Razorpay-Signature"

// EventReconciler applies authenticated gateway events.
type EventReconciler interface {
	HandleEvent(ctx context.Context, rawBody []byte, signature string, now time.Time) (payment.Outcome, error)
}

// WebhookHandler receives payment gateway webhook deliveries.
type WebhookHandler struct {
	reconciler EventReconciler
	logger     *slog.Logger
}

// NewWebhookHandler creates a new webhook handler.
func NewWebhookHandler(reconciler EventReconciler, logger *slog.Logger) *WebhookHandler {
	return &WebhookHandler{
		reconciler: reconciler,
		logger:     logger.With("handler", "webhook"),
	}
}

// Receive handles POST /webhooks/payment
//
// Status codes steer gateway retry behavior: 401 and 400 are terminal,
// 500 asks for redelivery. Events the reconciler ignores are
// acknowledged with 200 so the gateway does not retry them.
func (h *WebhookHandler) Receive(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxWebhookBody))
	if err != nil {
		writeError(w, h.logger, apperr.New(apperr.InvalidArgument, "failed to read body"))
		return
	}

	signature := r.Header.Get(signatureHeader)
	_, err = h.reconciler.HandleEvent(r.Context(), body, signature, time.Now())
	if err != nil {
		// Signature failures answer 401, not the usual 403, so the
		// gateway treats the delivery as a credential problem.
		if apperr.Is(err, apperr.PermissionDenied) {
			writeJSON(w, http.StatusUnauthorized, dto.ErrorResponse{
				Error: "invalid webhook signature",
				Code:  string(apperr.Unauthenticated),
			})
			return
		}
		writeError(w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.WebhookAck{OK: true})
}
