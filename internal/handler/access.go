package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/lumident/lumident/internal/apperr"
	"github.com/lumident/lumident/internal/auth"
	"github.com/lumident/lumident/internal/license"
	"github.com/lumident/lumident/internal/model"
)

// EntitlementStore is the slice of the repository the access handler needs.
type EntitlementStore interface {
	EnsureEntitlement(ctx context.Context, userID string, now time.Time) (*model.Entitlement, error)
}

// AccessHandler evaluates license access for the session user.
type AccessHandler struct {
	store  EntitlementStore
	logger *slog.Logger
}

// NewAccessHandler creates a new access handler.
func NewAccessHandler(store EntitlementStore, logger *slog.Logger) *AccessHandler {
	return &AccessHandler{
		store:  store,
		logger: logger.With("handler", "access"),
	}
}

// Check handles GET /api/v1/access
//
// The decision is computed fresh on every call; nothing is cached so a
// webhook-driven extension is visible immediately.
func (h *AccessHandler) Check(w http.ResponseWriter, r *http.Request) {
	authCtx := auth.AuthFromContext(r.Context())
	if authCtx == nil {
		writeError(w, h.logger, apperr.New(apperr.Unauthenticated, "session required"))
		return
	}

	// A session user with no record yet gets one, starting the trial.
	ent, err := h.store.EnsureEntitlement(r.Context(), authCtx.UserID, time.Now())
	if err != nil {
		writeError(w, h.logger, apperr.Wrap(apperr.Internal, "failed to load entitlement", err))
		return
	}

	decision := license.Evaluate(ent, time.Now())
	writeJSON(w, http.StatusOK, decision)
}
