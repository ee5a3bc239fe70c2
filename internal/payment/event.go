package payment

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/lumident/lumident/internal/model"
)

// Event kinds the reconciler acts on. Everything else is acknowledged
// and ignored; gateways must not be made to retry events we do not handle.
const (
	EventPaymentCaptured = "payment.captured"
	EventOrderPaid       = "order.paid"
)

// entity is the payment/order body carried inside a gateway event.
type entity struct {
	Receipt string            `json:"receipt"`
	Notes   map[string]string `json:"notes"`
}

type entityWrapper struct {
	Entity entity `json:"entity"`
}

// Event is an inbound payment-gateway webhook event.
type Event struct {
	Event   string `json:"event"`
	Payload struct {
		Payment *entityWrapper `json:"payment"`
		Order   *entityWrapper `json:"order"`
	} `json:"payload"`
}

// ParseEvent decodes a raw webhook body.
func ParseEvent(body []byte) (*Event, error) {
	var ev Event
	if err := json.Unmarshal(body, &ev); err != nil {
		return nil, fmt.Errorf("failed to decode event: %w", err)
	}
	return &ev, nil
}

// Actionable reports whether this event kind extends entitlements.
func (e *Event) Actionable() bool {
	return e.Event == EventPaymentCaptured || e.Event == EventOrderPaid
}

// entity returns whichever entity the event carries, payment first.
func (e *Event) entity() *entity {
	if e.Payload.Payment != nil {
		return &e.Payload.Payment.Entity
	}
	if e.Payload.Order != nil {
		return &e.Payload.Order.Entity
	}
	return nil
}

// Plan resolves the purchased plan from the event notes.
// Absent or unrecognized tags default to monthly.
func (e *Event) Plan() model.Plan {
	ent := e.entity()
	if ent == nil {
		return model.PlanMonthly
	}
	plan := model.Plan(ent.Notes["plan"])
	if !plan.IsValid() {
		return model.PlanMonthly
	}
	return plan
}

// UserID extracts the paying user from the order receipt, formatted as
// "{userId}-{orderCreationEpochMs}". Returns empty when no receipt or no
// user prefix is present.
func (e *Event) UserID() string {
	ent := e.entity()
	if ent == nil || ent.Receipt == "" {
		return ""
	}
	uid, _, _ := strings.Cut(ent.Receipt, "-")
	return uid
}
