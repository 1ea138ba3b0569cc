package handler

import (
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/leadpilot/leadpilot/internal/auth"
	"github.com/leadpilot/leadpilot/internal/billing"
	"github.com/leadpilot/leadpilot/internal/handler/dto"
)

// Stripe signs at most 64KB of payload; anything larger is not ours.
const maxWebhookBodyBytes = int64(65536)

// BillingHandler handles checkout and Stripe webhook endpoints.
type BillingHandler struct {
	svc    *billing.Service
	logger *slog.Logger
}

// NewBillingHandler creates a new BillingHandler.
func NewBillingHandler(svc *billing.Service, logger *slog.Logger) *BillingHandler {
	return &BillingHandler{svc: svc, logger: logger}
}

// Checkout handles POST /api/v1/billing/checkout.
func (h *BillingHandler) Checkout(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserIDFromContext(r.Context())

	url, err := h.svc.CheckoutURL(r.Context(), userID)
	if err != nil {
		if errors.Is(err, billing.ErrNotConfigured) {
			writeError(w, http.StatusServiceUnavailable, "BILLING_DISABLED", "Billing is not configured")
			return
		}
		h.logger.Error("checkout session failed", "user_id", userID, "error", err)
		writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to create checkout session")
		return
	}

	writeJSON(w, http.StatusOK, dto.CheckoutResponse{URL: url})
}

// Portal handles POST /api/v1/billing/portal.
func (h *BillingHandler) Portal(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserIDFromContext(r.Context())

	url, err := h.svc.PortalURL(r.Context(), userID)
	if err != nil {
		switch {
		case errors.Is(err, billing.ErrNotConfigured):
			writeError(w, http.StatusServiceUnavailable, "BILLING_DISABLED", "Billing is not configured")
		case errors.Is(err, billing.ErrNoCustomer):
			writeError(w, http.StatusBadRequest, "NO_SUBSCRIPTION", "No billing profile for this account")
		default:
			h.logger.Error("portal session failed", "user_id", userID, "error", err)
			writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to create portal session")
		}
		return
	}

	writeJSON(w, http.StatusOK, dto.CheckoutResponse{URL: url})
}

// Webhook handles POST /webhooks/stripe. Plan changes happen here and
// only here, off signature-verified events.
func (h *BillingHandler) Webhook(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxWebhookBodyBytes))
	if err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_PAYLOAD", "Could not read payload")
		return
	}

	if err := h.svc.HandleEvent(r.Context(), body, r.Header.Get("Stripe-Signature")); err != nil {
		if errors.Is(err, billing.ErrInvalidPayload) {
			h.logger.Warn("stripe webhook rejected", "error", err)
			writeError(w, http.StatusBadRequest, "INVALID_PAYLOAD", "Signature verification failed")
			return
		}
		// Processing failed on our side; 500 makes Stripe redeliver.
		h.logger.Error("stripe webhook processing failed", "error", err)
		writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to process event")
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
