package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/leadpilot/leadpilot/internal/auth"
	"github.com/leadpilot/leadpilot/internal/dossier"
	"github.com/leadpilot/leadpilot/internal/handler/dto"
	"github.com/leadpilot/leadpilot/internal/quota"
)

// DossierHandler handles dossier generation requests.
type DossierHandler struct {
	svc    *dossier.Service
	logger *slog.Logger
}

// NewDossierHandler creates a new DossierHandler.
func NewDossierHandler(svc *dossier.Service, logger *slog.Logger) *DossierHandler {
	return &DossierHandler{svc: svc, logger: logger}
}

// Generate handles POST /api/v1/dossiers.
func (h *DossierHandler) Generate(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserIDFromContext(r.Context())

	var req dto.GenerateDossierRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_JSON", "Invalid request body")
		return
	}

	result, err := h.svc.Generate(r.Context(), userID, req.Name, req.Company, req.Role)
	if err != nil {
		h.handleGenerateError(w, err)
		return
	}

	h.logger.Info("dossier_generated",
		"user_id", userID,
		"cached", result.Cached,
		"used", result.Used,
		"limit", result.Limit,
	)

	writeJSON(w, http.StatusOK, dto.DossierResponse{
		Dossier: result.Dossier,
		Cached:  result.Cached,
		Usage: dto.UsageInfo{
			Used:      result.Used,
			Limit:     result.Limit,
			Remaining: max(result.Limit-result.Used, 0),
		},
	})
}

// Usage handles GET /api/v1/dossiers/usage.
func (h *DossierHandler) Usage(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserIDFromContext(r.Context())

	decision, err := h.svc.Usage(r.Context(), userID)
	if err != nil {
		h.logger.Error("usage lookup failed", "user_id", userID, "error", err)
		writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "An internal error occurred")
		return
	}

	writeJSON(w, http.StatusOK, dto.UsageInfo{
		Used:      decision.Used,
		Limit:     decision.Limit,
		Remaining: decision.Remaining,
	})
}

func (h *DossierHandler) handleGenerateError(w http.ResponseWriter, err error) {
	var qe *quota.QuotaExceededError
	switch {
	case errors.As(err, &qe):
		writeJSON(w, http.StatusTooManyRequests, dto.ErrorResponse{
			Error:   qe.Error(),
			Code:    "QUOTA_EXCEEDED",
			Upgrade: qe.Upgradable,
		})
	case errors.Is(err, dossier.ErrInvalidProspect):
		writeError(w, http.StatusBadRequest, "INVALID_PROSPECT", err.Error())
	case errors.Is(err, dossier.ErrBadProviderOutput):
		writeError(w, http.StatusBadGateway, "PROVIDER_ERROR", "The AI provider returned an unusable response. Please retry.")
	default:
		h.logger.Error("internal_error", "error", err)
		writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "An internal error occurred")
	}
}
