package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/leadpilot/leadpilot/internal/auth"
	"github.com/leadpilot/leadpilot/internal/handler/dto"
	"github.com/leadpilot/leadpilot/internal/service"
)

// LeadHandler handles HTTP requests for lead pipeline operations.
type LeadHandler struct {
	svc    *service.LeadService
	logger *slog.Logger
}

// NewLeadHandler creates a new LeadHandler.
func NewLeadHandler(svc *service.LeadService, logger *slog.Logger) *LeadHandler {
	return &LeadHandler{
		svc:    svc,
		logger: logger,
	}
}

// Create handles POST /api/v1/leads.
func (h *LeadHandler) Create(w http.ResponseWriter, r *http.Request) {
	ownerID := auth.UserIDFromContext(r.Context())

	var req dto.CreateLeadRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_JSON", "Invalid request body")
		return
	}

	lead, err := h.svc.CreateLead(r.Context(), ownerID, service.CreateLeadInput{
		Name:    req.Name,
		Company: req.Company,
		Role:    req.Role,
		Value:   req.Value,
		Stage:   req.Stage,
		Dossier: req.Dossier,
	})
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	h.logger.Info("lead_created",
		"lead_id", lead.ID,
		"owner_id", ownerID,
		"stage", string(lead.Stage),
	)

	writeJSON(w, http.StatusCreated, dto.ToLeadResponse(lead))
}

// Get handles GET /api/v1/leads/{id}.
func (h *LeadHandler) Get(w http.ResponseWriter, r *http.Request) {
	ownerID := auth.UserIDFromContext(r.Context())

	id := chi.URLParam(r, "id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "MISSING_ID", "Lead ID is required")
		return
	}

	lead, err := h.svc.GetLead(r.Context(), ownerID, id)
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.ToLeadResponse(lead))
}

// List handles GET /api/v1/leads.
func (h *LeadHandler) List(w http.ResponseWriter, r *http.Request) {
	ownerID := auth.UserIDFromContext(r.Context())
	query := r.URL.Query()

	limit := 20
	if l := query.Get("limit"); l != "" {
		if parsed, err := strconv.Atoi(l); err == nil && parsed > 0 && parsed <= 100 {
			limit = parsed
		}
	}

	result, err := h.svc.ListLeads(r.Context(), service.ListLeadsInput{
		OwnerID: ownerID,
		Stage:   query.Get("stage"),
		Cursor:  query.Get("cursor"),
		Limit:   limit,
	})
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.ToLeadListResponse(result.Leads, result.NextCursor, result.HasMore))
}

// Update handles PATCH /api/v1/leads/{id}.
func (h *LeadHandler) Update(w http.ResponseWriter, r *http.Request) {
	ownerID := auth.UserIDFromContext(r.Context())

	id := chi.URLParam(r, "id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "MISSING_ID", "Lead ID is required")
		return
	}

	var req dto.UpdateLeadRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_JSON", "Invalid request body")
		return
	}

	lead, err := h.svc.UpdateLead(r.Context(), ownerID, id, service.UpdateLeadInput{
		Name:    req.Name,
		Company: req.Company,
		Role:    req.Role,
		Value:   req.Value,
		Dossier: req.Dossier,
	})
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	h.logger.Info("lead_updated", "lead_id", id, "owner_id", ownerID)

	writeJSON(w, http.StatusOK, dto.ToLeadResponse(lead))
}

// MoveStage handles PATCH /api/v1/leads/{id}/stage.
func (h *LeadHandler) MoveStage(w http.ResponseWriter, r *http.Request) {
	ownerID := auth.UserIDFromContext(r.Context())

	id := chi.URLParam(r, "id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "MISSING_ID", "Lead ID is required")
		return
	}

	var req dto.MoveStageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_JSON", "Invalid request body")
		return
	}

	lead, err := h.svc.MoveStage(r.Context(), ownerID, id, req.Stage)
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	h.logger.Info("lead_stage_moved",
		"lead_id", id,
		"owner_id", ownerID,
		"stage", string(lead.Stage),
	)

	writeJSON(w, http.StatusOK, dto.ToLeadResponse(lead))
}

// Delete handles DELETE /api/v1/leads/{id}.
func (h *LeadHandler) Delete(w http.ResponseWriter, r *http.Request) {
	ownerID := auth.UserIDFromContext(r.Context())

	id := chi.URLParam(r, "id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "MISSING_ID", "Lead ID is required")
		return
	}

	if err := h.svc.DeleteLead(r.Context(), ownerID, id); err != nil {
		h.handleServiceError(w, err)
		return
	}

	h.logger.Info("lead_deleted", "lead_id", id, "owner_id", ownerID)

	w.WriteHeader(http.StatusNoContent)
}

// Pipeline handles GET /api/v1/pipeline.
func (h *LeadHandler) Pipeline(w http.ResponseWriter, r *http.Request) {
	ownerID := auth.UserIDFromContext(r.Context())

	groups, err := h.svc.Pipeline(r.Context(), ownerID)
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	columns := make([]dto.StageColumn, 0, len(groups))
	for _, g := range groups {
		leads := make([]dto.LeadResponse, 0, len(g.Leads))
		for _, lead := range g.Leads {
			leads = append(leads, dto.ToLeadResponse(lead))
		}
		columns = append(columns, dto.StageColumn{
			Stage: string(g.Stage),
			Leads: leads,
		})
	}

	writeJSON(w, http.StatusOK, dto.PipelineResponse{Stages: columns})
}

// handleServiceError maps service errors to HTTP responses.
func (h *LeadHandler) handleServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, service.ErrLeadNotFound):
		writeError(w, http.StatusNotFound, "LEAD_NOT_FOUND", "Lead not found")
	case errors.Is(err, service.ErrInvalidName):
		writeError(w, http.StatusBadRequest, "INVALID_NAME", "Lead name is required")
	case errors.Is(err, service.ErrInvalidStage):
		writeError(w, http.StatusBadRequest, "INVALID_STAGE", "Unknown pipeline stage")
	case errors.Is(err, service.ErrInvalidCursor):
		writeError(w, http.StatusBadRequest, "INVALID_CURSOR", "Invalid pagination cursor")
	case errors.Is(err, service.ErrFieldTooLong):
		writeError(w, http.StatusBadRequest, "FIELD_TOO_LONG", "Field exceeds maximum length")
	case errors.Is(err, service.ErrNegativeValue):
		writeError(w, http.StatusBadRequest, "NEGATIVE_VALUE", "Deal value cannot be negative")
	default:
		h.logger.Error("internal_error", "error", err)
		writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "An internal error occurred")
	}
}
