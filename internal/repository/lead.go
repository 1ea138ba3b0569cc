package repository

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/lib/pq"

	"github.com/leadpilot/leadpilot/internal/model"
)

// Common errors for lead repository operations.
var (
	ErrLeadNotFound  = errors.New("lead not found")
	ErrInvalidCursor = errors.New("invalid pagination cursor")
)

// LeadFilter defines filters for listing leads.
type LeadFilter struct {
	OwnerID string
	Stage   model.Stage
}

// PaginationCursor represents decoded cursor for pagination.
type PaginationCursor struct {
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"created_at"`
}

// CreateLead inserts a new lead into the database.
func (r *Repository) CreateLead(ctx context.Context, lead *model.Lead) error {
	query := `
		INSERT INTO leads (id, owner_id, name, company, role, value, stage,
		                   personality, pain_points, ice_breakers, email_draft,
		                   created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`

	var personality, emailDraft string
	var painPoints, iceBreakers []string
	if lead.Dossier != nil {
		personality = lead.Dossier.Personality
		painPoints = lead.Dossier.PainPoints
		iceBreakers = lead.Dossier.IceBreakers
		emailDraft = lead.Dossier.EmailDraft
	}

	_, err := r.pool.Exec(ctx, query,
		lead.ID,
		lead.OwnerID,
		lead.Name,
		lead.Company,
		lead.Role,
		lead.Value,
		lead.Stage,
		personality,
		pq.Array(painPoints),
		pq.Array(iceBreakers),
		emailDraft,
		lead.CreatedAt,
		lead.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create lead: %w", err)
	}

	return nil
}

// GetLead retrieves a lead by ID, scoped to its owner.
func (r *Repository) GetLead(ctx context.Context, ownerID, id string) (*model.Lead, error) {
	query := leadSelectColumns + `
		FROM leads
		WHERE id = $1 AND owner_id = $2
	`

	lead, err := scanLead(r.pool.QueryRow(ctx, query, id, ownerID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrLeadNotFound
		}
		return nil, fmt.Errorf("failed to get lead: %w", err)
	}

	return lead, nil
}

// ListLeads retrieves a cursor-paginated list of leads for an owner,
// optionally filtered to one stage.
func (r *Repository) ListLeads(ctx context.Context, filter LeadFilter, cursor string, limit int) ([]*model.Lead, string, error) {
	var cursorData *PaginationCursor
	if cursor != "" {
		var err error
		cursorData, err = decodeCursor(cursor)
		if err != nil {
			return nil, "", ErrInvalidCursor
		}
	}

	query := leadSelectColumns + `
		FROM leads
		WHERE owner_id = $1
	`
	args := []any{filter.OwnerID}
	argIndex := 2

	if filter.Stage != "" {
		query += fmt.Sprintf(" AND stage = $%d", argIndex)
		args = append(args, filter.Stage)
		argIndex++
	}

	if cursorData != nil {
		query += fmt.Sprintf(" AND (created_at, id) < ($%d, $%d)", argIndex, argIndex+1)
		args = append(args, cursorData.CreatedAt, cursorData.ID)
		argIndex += 2
	}

	query += fmt.Sprintf(" ORDER BY created_at DESC, id DESC LIMIT $%d", argIndex)
	args = append(args, limit+1) // Fetch one extra to determine hasMore

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, "", fmt.Errorf("failed to list leads: %w", err)
	}
	defer rows.Close()

	var leads []*model.Lead
	for rows.Next() {
		lead, err := scanLead(rows)
		if err != nil {
			return nil, "", fmt.Errorf("failed to scan lead: %w", err)
		}
		leads = append(leads, lead)
	}

	if err := rows.Err(); err != nil {
		return nil, "", fmt.Errorf("error iterating leads: %w", err)
	}

	var nextCursor string
	if len(leads) > limit {
		leads = leads[:limit] // Remove extra row
		lastLead := leads[len(leads)-1]
		nextCursor = encodeCursor(&PaginationCursor{
			ID:        lastLead.ID,
			CreatedAt: lastLead.CreatedAt,
		})
	}

	return leads, nextCursor, nil
}

// ListLeadsByOwner retrieves every lead for an owner in creation order.
// Used by the pipeline view, which partitions the full set by stage.
func (r *Repository) ListLeadsByOwner(ctx context.Context, ownerID string, limit int) ([]*model.Lead, error) {
	query := leadSelectColumns + `
		FROM leads
		WHERE owner_id = $1
		ORDER BY created_at DESC, id DESC
		LIMIT $2
	`

	rows, err := r.pool.Query(ctx, query, ownerID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list leads by owner: %w", err)
	}
	defer rows.Close()

	var leads []*model.Lead
	for rows.Next() {
		lead, err := scanLead(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan lead: %w", err)
		}
		leads = append(leads, lead)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating leads: %w", err)
	}

	return leads, nil
}

// UpdateLead updates a lead's mutable fields, scoped to its owner.
func (r *Repository) UpdateLead(ctx context.Context, lead *model.Lead) error {
	query := `
		UPDATE leads
		SET name = $3, company = $4, role = $5, value = $6, stage = $7,
		    personality = $8, pain_points = $9, ice_breakers = $10, email_draft = $11,
		    updated_at = NOW()
		WHERE id = $1 AND owner_id = $2
	`

	var personality, emailDraft string
	var painPoints, iceBreakers []string
	if lead.Dossier != nil {
		personality = lead.Dossier.Personality
		painPoints = lead.Dossier.PainPoints
		iceBreakers = lead.Dossier.IceBreakers
		emailDraft = lead.Dossier.EmailDraft
	}

	result, err := r.pool.Exec(ctx, query,
		lead.ID,
		lead.OwnerID,
		lead.Name,
		lead.Company,
		lead.Role,
		lead.Value,
		lead.Stage,
		personality,
		pq.Array(painPoints),
		pq.Array(iceBreakers),
		emailDraft,
	)
	if err != nil {
		return fmt.Errorf("failed to update lead: %w", err)
	}

	if result.RowsAffected() == 0 {
		return ErrLeadNotFound
	}

	return nil
}

// UpdateLeadStage moves a lead to a new pipeline stage.
// Last-write-wins: no version check, matching the optimistic client.
func (r *Repository) UpdateLeadStage(ctx context.Context, ownerID, id string, stage model.Stage) error {
	query := `
		UPDATE leads
		SET stage = $3, updated_at = NOW()
		WHERE id = $1 AND owner_id = $2
	`

	result, err := r.pool.Exec(ctx, query, id, ownerID, stage)
	if err != nil {
		return fmt.Errorf("failed to update lead stage: %w", err)
	}

	if result.RowsAffected() == 0 {
		return ErrLeadNotFound
	}

	return nil
}

// DeleteLead removes a lead (explicit user action only).
func (r *Repository) DeleteLead(ctx context.Context, ownerID, id string) error {
	query := `DELETE FROM leads WHERE id = $1 AND owner_id = $2`

	result, err := r.pool.Exec(ctx, query, id, ownerID)
	if err != nil {
		return fmt.Errorf("failed to delete lead: %w", err)
	}

	if result.RowsAffected() == 0 {
		return ErrLeadNotFound
	}

	return nil
}

const leadSelectColumns = `
	SELECT id, owner_id, name, COALESCE(company, ''), COALESCE(role, ''),
	       COALESCE(value, 0), COALESCE(NULLIF(stage, ''), 'new'),
	       COALESCE(personality, ''), pain_points, ice_breakers, COALESCE(email_draft, ''),
	       created_at, updated_at`

// scanLead scans a single row into a Lead model.
// Dossier columns fold back into the bundle; an entirely empty bundle
// scans as a nil Dossier.
func scanLead(row pgx.Row) (*model.Lead, error) {
	var lead model.Lead
	var personality, emailDraft string
	var painPoints, iceBreakers []string

	err := row.Scan(
		&lead.ID,
		&lead.OwnerID,
		&lead.Name,
		&lead.Company,
		&lead.Role,
		&lead.Value,
		&lead.Stage,
		&personality,
		pq.Array(&painPoints),
		pq.Array(&iceBreakers),
		&emailDraft,
		&lead.CreatedAt,
		&lead.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if personality != "" || emailDraft != "" || len(painPoints) > 0 || len(iceBreakers) > 0 {
		lead.Dossier = &model.Dossier{
			Personality: personality,
			PainPoints:  painPoints,
			IceBreakers: iceBreakers,
			EmailDraft:  emailDraft,
		}
	}

	lead.Normalize()

	return &lead, nil
}

// encodeCursor encodes pagination cursor to base64.
func encodeCursor(cursor *PaginationCursor) string {
	data, _ := json.Marshal(cursor)
	return base64.URLEncoding.EncodeToString(data)
}

// decodeCursor decodes base64 pagination cursor.
func decodeCursor(s string) (*PaginationCursor, error) {
	data, err := base64.URLEncoding.DecodeString(s)
	if err != nil {
		return nil, err
	}

	var cursor PaginationCursor
	if err := json.Unmarshal(data, &cursor); err != nil {
		return nil, err
	}

	return &cursor, nil
}
