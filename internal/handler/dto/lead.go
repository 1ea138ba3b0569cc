package dto

import (
	"time"

	"github.com/leadpilot/leadpilot/internal/model"
)

// CreateLeadRequest represents the request body for creating a lead.
type CreateLeadRequest struct {
	Name    string         `json:"name"`
	Company string         `json:"company,omitempty"`
	Role    string         `json:"role,omitempty"`
	Value   float64        `json:"value,omitempty"`
	Stage   string         `json:"stage,omitempty"`
	Dossier *model.Dossier `json:"dossier,omitempty"`
}

// UpdateLeadRequest represents the request body for updating a lead.
type UpdateLeadRequest struct {
	Name    *string        `json:"name,omitempty"`
	Company *string        `json:"company,omitempty"`
	Role    *string        `json:"role,omitempty"`
	Value   *float64       `json:"value,omitempty"`
	Dossier *model.Dossier `json:"dossier,omitempty"`
}

// MoveStageRequest represents the request body for moving a lead's stage.
type MoveStageRequest struct {
	Stage string `json:"stage"`
}

// LeadResponse represents a lead in API responses.
type LeadResponse struct {
	ID        string         `json:"id"`
	Name      string         `json:"name"`
	Company   string         `json:"company,omitempty"`
	Role      string         `json:"role,omitempty"`
	Value     float64        `json:"value"`
	Stage     string         `json:"stage"`
	Dossier   *model.Dossier `json:"dossier,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
}

// LeadListResponse represents a paginated list of leads.
type LeadListResponse struct {
	Data       []LeadResponse `json:"data"`
	Pagination *Pagination    `json:"pagination"`
}

// StageColumn is one kanban column in the pipeline response.
type StageColumn struct {
	Stage string         `json:"stage"`
	Leads []LeadResponse `json:"leads"`
}

// PipelineResponse represents the full board grouped by stage.
type PipelineResponse struct {
	Stages []StageColumn `json:"stages"`
}

// ToLeadResponse converts a model lead to its API representation.
func ToLeadResponse(lead *model.Lead) LeadResponse {
	return LeadResponse{
		ID:        lead.ID,
		Name:      lead.Name,
		Company:   lead.Company,
		Role:      lead.Role,
		Value:     lead.Value,
		Stage:     string(lead.Stage),
		Dossier:   lead.Dossier,
		CreatedAt: lead.CreatedAt,
		UpdatedAt: lead.UpdatedAt,
	}
}

// ToLeadListResponse converts leads plus pagination info.
func ToLeadListResponse(leads []*model.Lead, nextCursor string, hasMore bool) LeadListResponse {
	data := make([]LeadResponse, 0, len(leads))
	for _, lead := range leads {
		data = append(data, ToLeadResponse(lead))
	}
	return LeadListResponse{
		Data: data,
		Pagination: &Pagination{
			NextCursor: nextCursor,
			HasMore:    hasMore,
		},
	}
}
