package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/lumident/lumident/internal/apperr"
	"github.com/lumident/lumident/internal/handler/dto"
	"github.com/lumident/lumident/internal/middleware"
	"github.com/lumident/lumident/internal/otp"
)

// OTPHandler handles one-time-code authentication endpoints.
type OTPHandler struct {
	svc    *otp.Service
	logger *slog.Logger
}

// NewOTPHandler creates a new OTP handler.
func NewOTPHandler(svc *otp.Service, logger *slog.Logger) *OTPHandler {
	return &OTPHandler{
		svc:    svc,
		logger: logger.With("handler", "otp"),
	}
}

// Request handles POST /api/v1/auth/otp/request
func (h *OTPHandler) Request(w http.ResponseWriter, r *http.Request) {
	var req dto.RequestCodeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, h.logger, apperr.New(apperr.InvalidArgument, "invalid request body"))
		return
	}
	if err := middleware.ValidateEmailLength(req.Email); err != nil {
		writeError(w, h.logger, apperr.New(apperr.InvalidArgument, err.Error()))
		return
	}

	if err := h.svc.RequestCode(r.Context(), req.Email, time.Now()); err != nil {
		writeError(w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.RequestCodeResponse{Sent: true})
}

// Verify handles POST /api/v1/auth/otp/verify
func (h *OTPHandler) Verify(w http.ResponseWriter, r *http.Request) {
	var req dto.VerifyCodeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, h.logger, apperr.New(apperr.InvalidArgument, "invalid request body"))
		return
	}
	if err := middleware.ValidateEmailLength(req.Email); err != nil {
		writeError(w, h.logger, apperr.New(apperr.InvalidArgument, err.Error()))
		return
	}
	if err := middleware.ValidateOTPCode(req.Code); err != nil {
		writeError(w, h.logger, apperr.New(apperr.InvalidArgument, err.Error()))
		return
	}

	res, err := h.svc.VerifyCode(r.Context(), req.Email, req.Code, time.Now())
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.SessionResponse{
		Token:  res.Token,
		UserID: res.User.ID,
		Email:  res.User.Email,
	})
}
