package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/lumident/lumident/internal/apperr"
	"github.com/lumident/lumident/internal/auth"
	"github.com/lumident/lumident/internal/handler/dto"
	"github.com/lumident/lumident/internal/model"
	"github.com/lumident/lumident/internal/payment"
)

// OrderCreator creates gateway orders.
type OrderCreator interface {
	CreateOrder(ctx context.Context, userID string, plan model.Plan, now time.Time) (*payment.Order, error)
}

// OrderHandler creates payment orders for the session user.
type OrderHandler struct {
	client OrderCreator
	logger *slog.Logger
}

// NewOrderHandler creates a new order handler.
func NewOrderHandler(client OrderCreator, logger *slog.Logger) *OrderHandler {
	return &OrderHandler{
		client: client,
		logger: logger.With("handler", "order"),
	}
}

// Create handles POST /api/v1/orders
func (h *OrderHandler) Create(w http.ResponseWriter, r *http.Request) {
	authCtx := auth.AuthFromContext(r.Context())
	if authCtx == nil {
		writeError(w, h.logger, apperr.New(apperr.Unauthenticated, "session required"))
		return
	}

	var req dto.CreateOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, h.logger, apperr.New(apperr.InvalidArgument, "invalid request body"))
		return
	}

	plan := model.Plan(req.Plan)
	if !plan.IsValid() {
		writeError(w, h.logger, apperr.New(apperr.InvalidArgument, "unknown plan"))
		return
	}

	order, err := h.client.CreateOrder(r.Context(), authCtx.UserID, plan, time.Now())
	if err != nil {
		writeError(w, h.logger, apperr.Wrap(apperr.Internal, "failed to create order", err))
		return
	}

	h.logger.Info("order created",
		"user_id", authCtx.UserID,
		"order_id", order.ID,
		"plan", string(plan),
	)

	writeJSON(w, http.StatusCreated, dto.OrderResponse{
		OrderID:  order.ID,
		Amount:   order.Amount,
		Currency: order.Currency,
		Receipt:  order.Receipt,
		Plan:     string(plan),
	})
}
