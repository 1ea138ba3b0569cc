package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/leadpilot/leadpilot/internal/handler/dto"
	"github.com/leadpilot/leadpilot/internal/model"
	"github.com/leadpilot/leadpilot/internal/repository"
)

// AdminUserStore defines the account operations admins can perform.
type AdminUserStore interface {
	GetUser(ctx context.Context, id string) (*model.User, error)
	GrantCredits(ctx context.Context, id string, delta int) error
	SetPlan(ctx context.Context, id string, plan model.Plan) error
}

// AdminHandler provides operator-only endpoints for support and debugging.
type AdminHandler struct {
	users  AdminUserStore
	logger *slog.Logger
}

// NewAdminHandler creates a new AdminHandler.
func NewAdminHandler(users AdminUserStore, logger *slog.Logger) *AdminHandler {
	return &AdminHandler{users: users, logger: logger}
}

// AdminUserResponse represents a user in admin context with extended info.
type AdminUserResponse struct {
	ID            string `json:"id"`
	Email         string `json:"email"`
	Plan          string `json:"plan"`
	UsageCount    int    `json:"usage_count"`
	LastUsageDate string `json:"last_usage_date"`
	Credits       int    `json:"credits"`
	StripeID      string `json:"stripe_customer_id,omitempty"`
}

// GetUser handles GET /admin/users/{id}.
func (h *AdminHandler) GetUser(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "MISSING_ID", "User ID is required")
		return
	}

	user, err := h.users.GetUser(r.Context(), id)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			writeError(w, http.StatusNotFound, "USER_NOT_FOUND", "User not found")
			return
		}
		h.logger.Error("admin user lookup failed", "user_id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "An internal error occurred")
		return
	}

	writeJSON(w, http.StatusOK, AdminUserResponse{
		ID:            user.ID,
		Email:         user.Email,
		Plan:          string(user.Plan),
		UsageCount:    user.UsageCount,
		LastUsageDate: user.LastUsageDate,
		Credits:       user.Credits,
		StripeID:      user.StripeCustomerID,
	})
}

// GrantCredits handles POST /admin/credits.
func (h *AdminHandler) GrantCredits(w http.ResponseWriter, r *http.Request) {
	var req dto.GrantCreditsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_JSON", "Invalid request body")
		return
	}
	if req.UserID == "" {
		writeError(w, http.StatusBadRequest, "MISSING_ID", "user_id is required")
		return
	}
	if req.Credits <= 0 {
		writeError(w, http.StatusBadRequest, "INVALID_CREDITS", "credits must be positive")
		return
	}

	if err := h.users.GrantCredits(r.Context(), req.UserID, req.Credits); err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			writeError(w, http.StatusNotFound, "USER_NOT_FOUND", "User not found")
			return
		}
		h.logger.Error("grant credits failed", "user_id", req.UserID, "error", err)
		writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "An internal error occurred")
		return
	}

	h.logger.Info("credits granted", "user_id", req.UserID, "credits", req.Credits)
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// SetPlan handles POST /admin/plan.
func (h *AdminHandler) SetPlan(w http.ResponseWriter, r *http.Request) {
	var req dto.SetPlanRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_JSON", "Invalid request body")
		return
	}
	if req.UserID == "" {
		writeError(w, http.StatusBadRequest, "MISSING_ID", "user_id is required")
		return
	}

	plan := model.Plan(req.Plan)
	if !plan.IsValid() {
		writeError(w, http.StatusBadRequest, "INVALID_PLAN", "Unknown plan")
		return
	}

	if err := h.users.SetPlan(r.Context(), req.UserID, plan); err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			writeError(w, http.StatusNotFound, "USER_NOT_FOUND", "User not found")
			return
		}
		h.logger.Error("set plan failed", "user_id", req.UserID, "error", err)
		writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "An internal error occurred")
		return
	}

	h.logger.Info("plan changed by admin", "user_id", req.UserID, "plan", req.Plan)
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
