package handler

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/lumident/lumident/internal/apperr"
	"github.com/lumident/lumident/internal/handler/dto"
	"github.com/lumident/lumident/internal/license"
)

// SweepHandler triggers an expiry sweep on demand.
type SweepHandler struct {
	sweeper *license.Sweeper
	logger  *slog.Logger
}

// NewSweepHandler creates a new sweep handler.
func NewSweepHandler(sweeper *license.Sweeper, logger *slog.Logger) *SweepHandler {
	return &SweepHandler{
		sweeper: sweeper,
		logger:  logger.With("handler", "sweep"),
	}
}

// Trigger handles POST /internal/sweep
//
// The scheduled sweep covers normal operation; this endpoint exists for
// operators to force a pass after incident recovery.
func (h *SweepHandler) Trigger(w http.ResponseWriter, r *http.Request) {
	count, err := h.sweeper.Run(r.Context())
	if err != nil {
		writeError(w, h.logger, apperr.Wrap(apperr.Internal, "sweep failed", err))
		return
	}

	writeJSON(w, http.StatusOK, dto.SweepResponse{
		Expired: count,
		RanAt:   time.Now().UTC(),
	})
}
