// Package service provides business logic for the application.
package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/leadpilot/leadpilot/internal/metrics"
	"github.com/leadpilot/leadpilot/internal/model"
	"github.com/leadpilot/leadpilot/internal/notify"
	"github.com/leadpilot/leadpilot/internal/repository"
)

// Service errors.
var (
	ErrLeadNotFound  = errors.New("lead not found")
	ErrInvalidName   = errors.New("lead name is required")
	ErrInvalidStage  = errors.New("invalid pipeline stage")
	ErrInvalidCursor = errors.New("invalid pagination cursor")
	ErrFieldTooLong  = errors.New("field exceeds maximum length")
	ErrNegativeValue = errors.New("deal value cannot be negative")
)

const (
	maxLeadFieldLength = 200
	defaultPageSize    = 20
	maxPageSize        = 100
	pipelineMaxLeads   = 1000
)

// LeadService handles lead pipeline business logic.
type LeadService struct {
	repo     *repository.Repository
	metrics  metrics.Recorder
	notifier *notify.Notifier
}

// NewLeadService creates a new LeadService.
func NewLeadService(repo *repository.Repository, recorder metrics.Recorder, notifier *notify.Notifier) *LeadService {
	if recorder == nil {
		recorder = metrics.NewNoop()
	}
	return &LeadService{
		repo:     repo,
		metrics:  recorder,
		notifier: notifier,
	}
}

// CreateLeadInput defines input for creating a lead.
type CreateLeadInput struct {
	Name    string
	Company string
	Role    string
	Value   float64
	Stage   string
	Dossier *model.Dossier
}

// CreateLead creates a new lead in the caller's pipeline.
func (s *LeadService) CreateLead(ctx context.Context, ownerID string, input CreateLeadInput) (*model.Lead, error) {
	input.Name = strings.TrimSpace(input.Name)
	input.Company = strings.TrimSpace(input.Company)
	input.Role = strings.TrimSpace(input.Role)

	if input.Name == "" {
		return nil, ErrInvalidName
	}
	if err := validateFieldLengths(input.Name, input.Company, input.Role); err != nil {
		return nil, err
	}
	if input.Value < 0 {
		return nil, ErrNegativeValue
	}

	// Missing stage defaults to the start of the pipeline.
	stage := model.DefaultStage
	if input.Stage != "" {
		stage = model.Stage(input.Stage)
		if !stage.IsValid() {
			return nil, ErrInvalidStage
		}
	}

	now := time.Now().UTC()
	lead := &model.Lead{
		ID:        ulid.Make().String(),
		OwnerID:   ownerID,
		Name:      input.Name,
		Company:   input.Company,
		Role:      input.Role,
		Value:     input.Value,
		Stage:     stage,
		Dossier:   input.Dossier,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.repo.CreateLead(ctx, lead); err != nil {
		return nil, fmt.Errorf("failed to create lead: %w", err)
	}

	s.metrics.IncLeadCreated()
	s.notifier.Dispatch(notify.LeadEvent{
		Type:    notify.EventLeadCreated,
		LeadID:  lead.ID,
		OwnerID: ownerID,
		Stage:   string(lead.Stage),
	})

	return lead, nil
}

// GetLead retrieves a lead owned by the caller.
func (s *LeadService) GetLead(ctx context.Context, ownerID, id string) (*model.Lead, error) {
	lead, err := s.repo.GetLead(ctx, ownerID, id)
	if err != nil {
		if errors.Is(err, repository.ErrLeadNotFound) {
			return nil, ErrLeadNotFound
		}
		return nil, err
	}
	return lead, nil
}

// ListLeadsInput defines input for listing leads.
type ListLeadsInput struct {
	OwnerID string
	Stage   string
	Cursor  string
	Limit   int
}

// ListLeadsOutput defines output for listing leads.
type ListLeadsOutput struct {
	Leads      []*model.Lead
	NextCursor string
	HasMore    bool
}

// ListLeads retrieves a paginated list of the caller's leads.
func (s *LeadService) ListLeads(ctx context.Context, input ListLeadsInput) (*ListLeadsOutput, error) {
	if input.Limit <= 0 || input.Limit > maxPageSize {
		input.Limit = defaultPageSize
	}

	filter := repository.LeadFilter{OwnerID: input.OwnerID}
	if input.Stage != "" {
		stage := model.Stage(input.Stage)
		if !stage.IsValid() {
			return nil, ErrInvalidStage
		}
		filter.Stage = stage
	}

	leads, nextCursor, err := s.repo.ListLeads(ctx, filter, input.Cursor, input.Limit)
	if err != nil {
		if errors.Is(err, repository.ErrInvalidCursor) {
			return nil, ErrInvalidCursor
		}
		return nil, err
	}

	return &ListLeadsOutput{
		Leads:      leads,
		NextCursor: nextCursor,
		HasMore:    nextCursor != "",
	}, nil
}

// UpdateLeadInput defines input for updating a lead. Nil pointers leave
// the corresponding field unchanged.
type UpdateLeadInput struct {
	Name    *string
	Company *string
	Role    *string
	Value   *float64
	Dossier *model.Dossier
}

// UpdateLead updates a lead's mutable fields.
func (s *LeadService) UpdateLead(ctx context.Context, ownerID, id string, input UpdateLeadInput) (*model.Lead, error) {
	lead, err := s.repo.GetLead(ctx, ownerID, id)
	if err != nil {
		if errors.Is(err, repository.ErrLeadNotFound) {
			return nil, ErrLeadNotFound
		}
		return nil, err
	}

	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		if name == "" {
			return nil, ErrInvalidName
		}
		lead.Name = name
	}
	if input.Company != nil {
		lead.Company = strings.TrimSpace(*input.Company)
	}
	if input.Role != nil {
		lead.Role = strings.TrimSpace(*input.Role)
	}
	if err := validateFieldLengths(lead.Name, lead.Company, lead.Role); err != nil {
		return nil, err
	}
	if input.Value != nil {
		if *input.Value < 0 {
			return nil, ErrNegativeValue
		}
		lead.Value = *input.Value
	}
	if input.Dossier != nil {
		lead.Dossier = input.Dossier
	}

	lead.UpdatedAt = time.Now().UTC()

	if err := s.repo.UpdateLead(ctx, lead); err != nil {
		if errors.Is(err, repository.ErrLeadNotFound) {
			return nil, ErrLeadNotFound
		}
		return nil, fmt.Errorf("failed to update lead: %w", err)
	}

	s.metrics.IncLeadUpdated()
	return lead, nil
}

// MoveStage moves a lead to a new pipeline stage. Writes are
// last-write-wins to match the drag-and-drop client.
func (s *LeadService) MoveStage(ctx context.Context, ownerID, id, stage string) (*model.Lead, error) {
	target := model.Stage(stage)
	if !target.IsValid() {
		return nil, ErrInvalidStage
	}

	lead, err := s.repo.GetLead(ctx, ownerID, id)
	if err != nil {
		if errors.Is(err, repository.ErrLeadNotFound) {
			return nil, ErrLeadNotFound
		}
		return nil, err
	}
	prev := lead.Stage

	if err := s.repo.UpdateLeadStage(ctx, ownerID, id, target); err != nil {
		if errors.Is(err, repository.ErrLeadNotFound) {
			return nil, ErrLeadNotFound
		}
		return nil, fmt.Errorf("failed to move lead: %w", err)
	}

	lead.Stage = target
	lead.UpdatedAt = time.Now().UTC()

	if prev != target {
		s.metrics.IncStageMoved()
		s.notifier.Dispatch(notify.LeadEvent{
			Type:      notify.EventLeadStageMoved,
			LeadID:    id,
			OwnerID:   ownerID,
			Stage:     string(target),
			PrevStage: string(prev),
		})
	}

	return lead, nil
}

// DeleteLead removes a lead from the caller's pipeline.
func (s *LeadService) DeleteLead(ctx context.Context, ownerID, id string) error {
	if err := s.repo.DeleteLead(ctx, ownerID, id); err != nil {
		if errors.Is(err, repository.ErrLeadNotFound) {
			return ErrLeadNotFound
		}
		return err
	}

	s.metrics.IncLeadDeleted()
	s.notifier.Dispatch(notify.LeadEvent{
		Type:    notify.EventLeadDeleted,
		LeadID:  id,
		OwnerID: ownerID,
	})
	return nil
}

// StageGroup is one kanban column: a stage and its leads.
type StageGroup struct {
	Stage model.Stage
	Leads []*model.Lead
}

// Pipeline returns the caller's leads grouped by stage in pipeline
// order. Every stage appears, empty columns included, so the client can
// render the full board without knowing the stage list.
func (s *LeadService) Pipeline(ctx context.Context, ownerID string) ([]StageGroup, error) {
	leads, err := s.repo.ListLeadsByOwner(ctx, ownerID, pipelineMaxLeads)
	if err != nil {
		return nil, err
	}
	return GroupByStage(leads), nil
}

// GroupByStage buckets leads into pipeline-ordered stage groups.
func GroupByStage(leads []*model.Lead) []StageGroup {
	byStage := make(map[model.Stage][]*model.Lead, len(model.Stages))
	for _, lead := range leads {
		byStage[lead.Stage] = append(byStage[lead.Stage], lead)
	}

	groups := make([]StageGroup, 0, len(model.Stages))
	for _, stage := range model.Stages {
		leadsInStage := byStage[stage]
		if leadsInStage == nil {
			leadsInStage = []*model.Lead{}
		}
		groups = append(groups, StageGroup{Stage: stage, Leads: leadsInStage})
	}
	return groups
}

func validateFieldLengths(fields ...string) error {
	for _, f := range fields {
		if len(f) > maxLeadFieldLength {
			return ErrFieldTooLong
		}
	}
	return nil
}
