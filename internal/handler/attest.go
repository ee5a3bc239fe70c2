package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/lumident/lumident/internal/apperr"
	"github.com/lumident/lumident/internal/attest"
	"github.com/lumident/lumident/internal/auth"
	"github.com/lumident/lumident/internal/handler/dto"
	"github.com/lumident/lumident/internal/middleware"
)

// IntegrityVerifier decodes and judges device integrity tokens.
type IntegrityVerifier interface {
	Verify(ctx context.Context, token string) (*attest.Result, error)
}

// AttestationRecorder persists the attestation timestamp.
type AttestationRecorder interface {
	TouchAttestation(ctx context.Context, userID string, now time.Time) error
}

// AttestHandler verifies device integrity for the session user.
type AttestHandler struct {
	verifier IntegrityVerifier
	store    AttestationRecorder
	logger   *slog.Logger
}

// NewAttestHandler creates a new attestation handler.
func NewAttestHandler(verifier IntegrityVerifier, store AttestationRecorder, logger *slog.Logger) *AttestHandler {
	return &AttestHandler{
		verifier: verifier,
		store:    store,
		logger:   logger.With("handler", "attest"),
	}
}

// Verify handles POST /api/v1/attestation
//
// The timestamp is recorded only on a passing verdict. Attestation is
// advisory; it never gates entitlement access on its own.
func (h *AttestHandler) Verify(w http.ResponseWriter, r *http.Request) {
	authCtx := auth.AuthFromContext(r.Context())
	if authCtx == nil {
		writeError(w, h.logger, apperr.New(apperr.Unauthenticated, "session required"))
		return
	}

	var req dto.AttestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, h.logger, apperr.New(apperr.InvalidArgument, "invalid request body"))
		return
	}
	if err := middleware.ValidateIntegrityToken(req.IntegrityToken); err != nil {
		writeError(w, h.logger, apperr.New(apperr.InvalidArgument, err.Error()))
		return
	}

	result, err := h.verifier.Verify(r.Context(), req.IntegrityToken)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	if err := h.store.TouchAttestation(r.Context(), authCtx.UserID, time.Now()); err != nil {
		writeError(w, h.logger, apperr.Wrap(apperr.Internal, "failed to record attestation", err))
		return
	}

	h.logger.Info("attestation passed", "user_id", authCtx.UserID)
	writeJSON(w, http.StatusOK, result)
}
