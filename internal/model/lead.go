package model

import "time"

// Stage represents a lead's position in the sales pipeline.
type Stage string

const (
	StageNew          Stage = "new"
	StageContacted    Stage = "contacted"
	StageQualified    Stage = "qualified"
	StageProposalSent Stage = "proposal_sent"
	StageClosedWon    Stage = "closed_won"
	StageClosedLost   Stage = "closed_lost"
)

// Stages is the fixed pipeline progression in board order.
// The kanban view is a partition of the lead set by stage.
var Stages = []Stage{
	StageNew,
	StageContacted,
	StageQualified,
	StageProposalSent,
	StageClosedWon,
	StageClosedLost,
}

// IsValid checks if the stage is a member of the fixed enum.
func (s Stage) IsValid() bool {
	for _, stage := range Stages {
		if s == stage {
			return true
		}
	}
	return false
}

// DefaultStage is the stage assigned when a record omits one.
const DefaultStage = StageNew

// Dossier is the AI-generated output bundle for one prospect.
type Dossier struct {
	Personality string   `json:"personality"`
	PainPoints  []string `json:"painPoints"`
	IceBreakers []string `json:"iceBreakers"`
	EmailDraft  string   `json:"emailDraft"`
}

// Lead represents a saved prospect in a user's pipeline.
type Lead struct {
	ID        string    `json:"id"`
	OwnerID   string    `json:"owner_id"`
	Name      string    `json:"name"`
	Company   string    `json:"company"`
	Role      string    `json:"role"`
	Value     float64   `json:"value"`
	Stage     Stage     `json:"stage"`
	Dossier   *Dossier  `json:"dossier,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Normalize applies safe defaults for absent fields: a missing stage
// becomes the first pipeline stage and a negative value becomes zero.
func (l *Lead) Normalize() {
	if l.Stage == "" {
		l.Stage = DefaultStage
	}
	if l.Value < 0 {
		l.Value = 0
	}
}
