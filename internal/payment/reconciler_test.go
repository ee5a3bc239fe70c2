package payment

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/lumident/lumident/internal/apperr"
	"github.com/lumident/lumident/internal/metrics"
	"github.com/lumident/lumident/internal/model"
)

type fakeExtender struct {
	calls  int
	userID string
	ext    time.Duration
	expiry time.Time
	err    error
}

func (f *fakeExtender) ExtendEntitlement(_ context.Context, userID string, extension time.Duration, now time.Time) (time.Time, error) {
	f.calls++
	f.userID = userID
	f.ext = extension
	if f.err != nil {
		return time.Time{}, f.err
	}
	f.expiry = now.Add(extension)
	return f.expiry, nil
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

const testWebhookSecret = "whsec_test"

func signedBody(t *testing.T, body string) ([]byte, string) {
	t.Helper()
	raw := []byte(body)
	return raw, Sign(testWebhookSecret, raw)
}

func TestReconciler_HandleEvent_Applied(t *testing.T) {
	store := &fakeExtender{}
	rec := NewReconciler(store, testWebhookSecret, discardLogger(), metrics.NewNoop())
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	raw, sig := signedBody(t, `{"event":"payment.captured","payload":{"payment":{"entity":{"receipt":"u1-1736600000000","notes":{"plan":"yearly"}}}}}`)

	out, err := rec.HandleEvent(context.Background(), raw, sig, now)
	if err != nil {
		t.Fatalf("HandleEvent: %v", err)
	}
	if !out.Applied {
		t.Fatal("expected Applied outcome")
	}
	if out.UserID != "u1" {
		t.Errorf("UserID = %q, want u1", out.UserID)
	}
	if out.Plan != model.PlanYearly {
		t.Errorf("Plan = %q, want yearly", out.Plan)
	}
	if store.calls != 1 {
		t.Fatalf("store calls = %d, want 1", store.calls)
	}
	if store.ext != model.PlanYearly.Duration() {
		t.Errorf("extension = %v, want %v", store.ext, model.PlanYearly.Duration())
	}
	if !out.NewExpiry.Equal(store.expiry) {
		t.Errorf("NewExpiry = %v, want %v", out.NewExpiry, store.expiry)
	}
}

func TestReconciler_HandleEvent_BadSignatureNeverMutates(t *testing.T) {
	store := &fakeExtender{}
	rec := NewReconciler(store, testWebhookSecret, discardLogger(), nil)
	raw := []byte(`{"event":"payment.captured","payload":{"payment":{"entity":{"receipt":"u1-1"}}}}`)

	tests := []struct {
		name string
		sig  string
	}{
		{name: "empty signature", sig: ""},
		{name: "garbage signature", sig: "deadbeef"},
		{name: "signed with wrong secret", sig: Sign("other_secret", raw)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := rec.HandleEvent(context.Background(), raw, tt.sig, time.Now())
			if apperr.KindOf(err) != apperr.PermissionDenied {
				t.Fatalf("kind = %v, want PermissionDenied", apperr.KindOf(err))
			}
			if store.calls != 0 {
				t.Fatalf("store touched %d times on bad signature", store.calls)
			}
		})
	}
}

func TestReconciler_HandleEvent_IgnoredEvents(t *testing.T) {
	store := &fakeExtender{}
	recorder := metrics.NewInMemory()
	rec := NewReconciler(store, testWebhookSecret, discardLogger(), recorder)

	for _, event := range []string{"payment.failed", "refund.created", "subscription.activated"} {
		raw, sig := signedBody(t, `{"event":"`+event+`","payload":{}}`)
		out, err := rec.HandleEvent(context.Background(), raw, sig, time.Now())
		if err != nil {
			t.Fatalf("event %q: unexpected error %v", event, err)
		}
		if out.Applied {
			t.Errorf("event %q: outcome should not be Applied", event)
		}
	}
	if store.calls != 0 {
		t.Fatalf("store touched %d times by ignored events", store.calls)
	}
	if got := recorder.Snapshot().PaymentIgnored; got != 3 {
		t.Errorf("ignored count = %d, want 3", got)
	}
}

func TestReconciler_HandleEvent_MalformedBody(t *testing.T) {
	store := &fakeExtender{}
	rec := NewReconciler(store, testWebhookSecret, discardLogger(), nil)
	raw, sig := signedBody(t, `{this is not json`)

	_, err := rec.HandleEvent(context.Background(), raw, sig, time.Now())
	if apperr.KindOf(err) != apperr.InvalidArgument {
		t.Fatalf("kind = %v, want InvalidArgument", apperr.KindOf(err))
	}
	if store.calls != 0 {
		t.Fatal("store should not be touched for malformed body")
	}
}

func TestReconciler_HandleEvent_MissingUserReference(t *testing.T) {
	store := &fakeExtender{}
	rec := NewReconciler(store, testWebhookSecret, discardLogger(), nil)
	raw, sig := signedBody(t, `{"event":"order.paid","payload":{"order":{"entity":{"receipt":""}}}}`)

	_, err := rec.HandleEvent(context.Background(), raw, sig, time.Now())
	if apperr.KindOf(err) != apperr.InvalidArgument {
		t.Fatalf("kind = %v, want InvalidArgument", apperr.KindOf(err))
	}
	if store.calls != 0 {
		t.Fatal("store should not be touched without a user reference")
	}
}

func TestReconciler_HandleEvent_PlanDefaultsToMonthly(t *testing.T) {
	store := &fakeExtender{}
	rec := NewReconciler(store, testWebhookSecret, discardLogger(), nil)
	raw, sig := signedBody(t, `{"event":"order.paid","payload":{"order":{"entity":{"receipt":"u9-1","notes":{"plan":"lifetime"}}}}}`)

	out, err := rec.HandleEvent(context.Background(), raw, sig, time.Now())
	if err != nil {
		t.Fatalf("HandleEvent: %v", err)
	}
	if out.Plan != model.PlanMonthly {
		t.Errorf("Plan = %q, want monthly fallback", out.Plan)
	}
	if store.ext != model.PlanMonthly.Duration() {
		t.Errorf("extension = %v, want %v", store.ext, model.PlanMonthly.Duration())
	}
}

func TestReconciler_HandleEvent_StorageFailure(t *testing.T) {
	store := &fakeExtender{err: errors.New("connection reset")}
	rec := NewReconciler(store, testWebhookSecret, discardLogger(), nil)
	raw, sig := signedBody(t, `{"event":"payment.captured","payload":{"payment":{"entity":{"receipt":"u1-1"}}}}`)

	_, err := rec.HandleEvent(context.Background(), raw, sig, time.Now())
	if apperr.KindOf(err) != apperr.Internal {
		t.Fatalf("kind = %v, want Internal", apperr.KindOf(err))
	}
}
