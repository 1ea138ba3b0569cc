package dto

import "github.com/leadpilot/leadpilot/internal/model"

// GenerateDossierRequest represents the request body for generating a dossier.
type GenerateDossierRequest struct {
	Name    string `json:"name"`
	Company string `json:"company"`
	Role    string `json:"role"`
}

// DossierResponse represents a generated dossier plus quota standing.
type DossierResponse struct {
	Dossier *model.Dossier `json:"dossier"`
	Cached  bool           `json:"cached"`
	Usage   UsageInfo      `json:"usage"`
}

// UsageInfo reports today's quota standing.
type UsageInfo struct {
	Used      int `json:"used"`
	Limit     int `json:"limit"`
	Remaining int `json:"remaining"`
}
