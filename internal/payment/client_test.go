package payment

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/lumident/lumident/internal/model"
)

func TestClient_CreateOrder(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	wantReceipt := "u1-" + "1748779200000"

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/orders" {
			t.Errorf("path = %s, want /v1/orders", r.URL.Path)
		}
		user, _, ok := r.BasicAuth()
		if !ok || user != "key_id" {
			t.Errorf("basic auth user = %q", user)
		}

		var req createOrderRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		if req.Amount != model.PlanYearly.Amount()*100 {
			t.Errorf("amount = %d, want %d subunits", req.Amount, model.PlanYearly.Amount()*100)
		}
		if req.Currency != "INR" {
			t.Errorf("currency = %q", req.Currency)
		}
		if req.Receipt != wantReceipt {
			t.Errorf("receipt = %q, want %q", req.Receipt, wantReceipt)
		}
		if req.Notes["plan"] != "yearly" {
			t.Errorf("notes.plan = %q", req.Notes["plan"])
		}

		w.WriteHeader(http.StatusOK)
		json.NewEncoder(w).Encode(Order{
			ID:       "order_test123",
			Amount:   req.Amount,
			Currency: req.Currency,
			Receipt:  req.Receipt,
		})
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "key_id", "key_secret")
	order, err := c.CreateOrder(context.Background(), "u1", model.PlanYearly, now)
	if err != nil {
		t.Fatalf("CreateOrder: %v", err)
	}
	if order.ID != "order_test123" {
		t.Errorf("order ID = %q", order.ID)
	}
	if order.Receipt != wantReceipt {
		t.Errorf("order receipt = %q, want %q", order.Receipt, wantReceipt)
	}
}

func TestClient_CreateOrder_Rejected(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":{"description":"Authentication failed"}}`, http.StatusUnauthorized)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "key_id", "bad_secret")
	_, err := c.CreateOrder(context.Background(), "u1", model.PlanMonthly, time.Now())
	if !errors.Is(err, ErrOrderRejected) {
		t.Fatalf("err = %v, want ErrOrderRejected", err)
	}
}
