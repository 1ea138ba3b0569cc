package dto

import (
	"time"

	"github.com/leadpilot/leadpilot/internal/model"
)

// MeResponse represents the caller's account and quota standing.
type MeResponse struct {
	ID        string    `json:"id"`
	Email     string    `json:"email,omitempty"`
	Plan      string    `json:"plan"`
	Credits   int       `json:"credits"`
	Usage     UsageInfo `json:"usage"`
	CreatedAt time.Time `json:"created_at"`
}

// ToMeResponse builds the account response.
func ToMeResponse(user *model.User, used, limit, remaining int) MeResponse {
	return MeResponse{
		ID:      user.ID,
		Email:   user.Email,
		Plan:    string(user.Plan),
		Credits: user.Credits,
		Usage: UsageInfo{
			Used:      used,
			Limit:     limit,
			Remaining: remaining,
		},
		CreatedAt: user.CreatedAt,
	}
}

// CheckoutResponse carries the hosted checkout or portal URL.
type CheckoutResponse struct {
	URL string `json:"url"`
}

// GrantCreditsRequest is the admin request to add credits to a user.
type GrantCreditsRequest struct {
	UserID  string `json:"user_id"`
	Credits int    `json:"credits"`
}

// SetPlanRequest is the admin request to change a user's plan.
type SetPlanRequest struct {
	UserID string `json:"user_id"`
	Plan   string `json:"plan"`
}
