package model

import "time"

// Plan identifies a purchasable subscription period.
type Plan string

const (
	PlanMonthly  Plan = "monthly"
	PlanHalfYear Plan = "halfyear"
	PlanYearly   Plan = "yearly"
)

// PlanUnit is the fixed month length used for entitlement arithmetic.
// Months are a flat 30 days, not calendar-aware; paid-period length is
// predictable and extension math stays monotonic.
const PlanUnit = 30 * 24 * time.Hour

// planMonths maps plans to the number of 30-day units they purchase.
var planMonths = map[Plan]int{
	PlanMonthly:  1,
	PlanHalfYear: 6,
	PlanYearly:   12,
}

// planAmounts maps plans to their price in INR.
var planAmounts = map[Plan]int64{
	PlanMonthly:  1499,
	PlanHalfYear: 6900,
	PlanYearly:   12000,
}

// IsValid checks if the plan is a known value.
func (p Plan) IsValid() bool {
	_, ok := planMonths[p]
	return ok
}

// Months returns the number of 30-day units the plan purchases.
// Unknown plans resolve to the monthly default.
func (p Plan) Months() int {
	if m, ok := planMonths[p]; ok {
		return m
	}
	return planMonths[PlanMonthly]
}

// Duration returns the entitlement extension the plan grants.
func (p Plan) Duration() time.Duration {
	return time.Duration(p.Months()) * PlanUnit
}

// Amount returns the plan price in INR, or 0 for unknown plans.
func (p Plan) Amount() int64 {
	return planAmounts[p]
}
