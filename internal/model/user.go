// Package model defines domain entities for the application.
package model

import "time"

// Plan represents a subscription tier.
type Plan string

const (
	PlanFree    Plan = "free"
	PlanPro     Plan = "pro"
	PlanPremium Plan = "premium"
)

// IsValid checks if the plan is a known tier.
func (p Plan) IsValid() bool {
	return p == PlanFree || p == PlanPro || p == PlanPremium
}

// IsPaid returns true for tiers that get the pro daily limit.
// Premium is a legacy tier treated as pro everywhere.
func (p Plan) IsPaid() bool {
	return p == PlanPro || p == PlanPremium
}

// User is the per-user quota record gating dossier generation.
// UsageCount is meaningful only relative to LastUsageDate: a count
// observed on any other date is stale and logically zero.
type User struct {
	ID               string    `json:"id"`
	Email            string    `json:"email"`
	Plan             Plan      `json:"plan"`
	UsageCount       int       `json:"usage_count"`
	LastUsageDate    string    `json:"last_usage_date"` // YYYY-MM-DD, UTC
	Credits          int       `json:"credits"`
	StripeCustomerID string    `json:"-"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// UsageOn returns the usage count as of the given date, treating a
// stale LastUsageDate as an implicit reset to zero.
func (u *User) UsageOn(date string) int {
	if u.LastUsageDate != date {
		return 0
	}
	return u.UsageCount
}
