package model

import (
	"testing"
	"time"
)

func TestPlan_Months(t *testing.T) {
	tests := []struct {
		name string
		plan Plan
		want int
	}{
		{name: "monthly", plan: PlanMonthly, want: 1},
		{name: "halfyear", plan: PlanHalfYear, want: 6},
		{name: "yearly", plan: PlanYearly, want: 12},
		{name: "unknown defaults to monthly", plan: Plan("weekly"), want: 1},
		{name: "empty defaults to monthly", plan: Plan(""), want: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.plan.Months(); got != tt.want {
				t.Errorf("Months() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestPlan_Duration(t *testing.T) {
	if got := PlanYearly.Duration(); got != 360*24*time.Hour {
		t.Errorf("yearly duration = %v, want 360 days", got)
	}
	if got := PlanMonthly.Duration(); got != 30*24*time.Hour {
		t.Errorf("monthly duration = %v, want 30 days", got)
	}
}

func TestPlan_IsValid(t *testing.T) {
	for _, p := range []Plan{PlanMonthly, PlanHalfYear, PlanYearly} {
		if !p.IsValid() {
			t.Errorf("expected %q to be valid", p)
		}
	}
	if Plan("weekly").IsValid() {
		t.Error("expected unknown plan to be invalid")
	}
}

func TestOTPChallenge_Expired(t *testing.T) {
	now := time.Now()
	c := &OTPChallenge{ExpiresAt: now.Add(OTPTTL)}

	if c.Expired(now) {
		t.Error("fresh challenge should not be expired")
	}
	if c.Expired(c.ExpiresAt) {
		t.Error("challenge at exact expiry should not be expired")
	}
	if !c.Expired(c.ExpiresAt.Add(time.Millisecond)) {
		t.Error("challenge past expiry should be expired")
	}
}

func TestOTPChallenge_Exhausted(t *testing.T) {
	c := &OTPChallenge{Attempts: OTPMaxAttempts - 1}
	if c.Exhausted() {
		t.Error("challenge below cap should not be exhausted")
	}
	c.Attempts = OTPMaxAttempts
	if !c.Exhausted() {
		t.Error("challenge at cap should be exhausted")
	}
}
