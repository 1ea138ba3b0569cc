package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/leadpilot/leadpilot/internal/model"
)

// Common errors for user repository operations.
var (
	ErrUserNotFound = errors.New("user not found")
)

// EnsureUser creates a quota record for the identity if one does not exist.
// Called lazily on first authenticated request; a concurrent insert loses
// silently via ON CONFLICT DO NOTHING.
func (r *Repository) EnsureUser(ctx context.Context, id, email string) error {
	query := `
		INSERT INTO users (id, email, plan, usage_count, last_usage_date, credits, created_at, updated_at)
		VALUES ($1, $2, $3, 0, '', 0, NOW(), NOW())
		ON CONFLICT (id) DO NOTHING
	`

	_, err := r.pool.Exec(ctx, query, id, email, model.PlanFree)
	if err != nil {
		return fmt.Errorf("failed to ensure user: %w", err)
	}

	return nil
}

// GetUser retrieves a quota record by user ID.
func (r *Repository) GetUser(ctx context.Context, id string) (*model.User, error) {
	query := `
		SELECT id, email, plan, usage_count, last_usage_date, credits,
		       COALESCE(stripe_customer_id, ''), created_at, updated_at
		FROM users
		WHERE id = $1
	`

	user, err := scanUser(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	return user, nil
}

// GetUserByStripeCustomerID retrieves a quota record by Stripe customer ID.
func (r *Repository) GetUserByStripeCustomerID(ctx context.Context, customerID string) (*model.User, error) {
	query := `
		SELECT id, email, plan, usage_count, last_usage_date, credits,
		       COALESCE(stripe_customer_id, ''), created_at, updated_at
		FROM users
		WHERE stripe_customer_id = $1
	`

	user, err := scanUser(r.pool.QueryRow(ctx, query, customerID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user by stripe customer: %w", err)
	}

	return user, nil
}

// ResetDailyUsage zeroes the usage counter for a new calendar day.
// The WHERE guard makes concurrent resets idempotent: only the first
// writer for a given day changes the row.
func (r *Repository) ResetDailyUsage(ctx context.Context, id, today string) error {
	query := `
		UPDATE users
		SET usage_count = 0, last_usage_date = $2, updated_at = NOW()
		WHERE id = $1 AND last_usage_date <> $2
	`

	_, err := r.pool.Exec(ctx, query, id, today)
	if err != nil {
		return fmt.Errorf("failed to reset daily usage: %w", err)
	}

	return nil
}

// IncrementUsage adds one generation to the user's daily counter.
// This is a single-statement atomic add, never a read-modify-write,
// so concurrent requests cannot lose updates.
func (r *Repository) IncrementUsage(ctx context.Context, id string) error {
	query := `
		UPDATE users
		SET usage_count = usage_count + 1, updated_at = NOW()
		WHERE id = $1
	`

	result, err := r.pool.Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to increment usage: %w", err)
	}

	if result.RowsAffected() == 0 {
		return ErrUserNotFound
	}

	return nil
}

// GrantCredits adds delta to a user's credit balance (admin action).
func (r *Repository) GrantCredits(ctx context.Context, id string, delta int) error {
	query := `
		UPDATE users
		SET credits = credits + $2, updated_at = NOW()
		WHERE id = $1
	`

	result, err := r.pool.Exec(ctx, query, id, delta)
	if err != nil {
		return fmt.Errorf("failed to grant credits: %w", err)
	}

	if result.RowsAffected() == 0 {
		return ErrUserNotFound
	}

	return nil
}

// SetPlan changes a user's subscription tier.
func (r *Repository) SetPlan(ctx context.Context, id string, plan model.Plan) error {
	query := `
		UPDATE users
		SET plan = $2, updated_at = NOW()
		WHERE id = $1
	`

	result, err := r.pool.Exec(ctx, query, id, plan)
	if err != nil {
		return fmt.Errorf("failed to set plan: %w", err)
	}

	if result.RowsAffected() == 0 {
		return ErrUserNotFound
	}

	return nil
}

// SetStripeCustomerID stores the Stripe customer ID on the quota record.
func (r *Repository) SetStripeCustomerID(ctx context.Context, id, customerID string) error {
	query := `
		UPDATE users
		SET stripe_customer_id = $2, updated_at = NOW()
		WHERE id = $1
	`

	result, err := r.pool.Exec(ctx, query, id, customerID)
	if err != nil {
		return fmt.Errorf("failed to set stripe customer id: %w", err)
	}

	if result.RowsAffected() == 0 {
		return ErrUserNotFound
	}

	return nil
}

// UpgradeToPro sets plan=pro and seeds bonus credits for the customer.
// Idempotent: the plan guard means webhook redelivery grants the bonus
// at most once.
func (r *Repository) UpgradeToPro(ctx context.Context, customerID string, bonusCredits int) error {
	query := `
		UPDATE users
		SET plan = $2, credits = credits + $3, updated_at = NOW()
		WHERE stripe_customer_id = $1 AND plan <> $2
	`

	_, err := r.pool.Exec(ctx, query, customerID, model.PlanPro, bonusCredits)
	if err != nil {
		return fmt.Errorf("failed to upgrade user: %w", err)
	}

	return nil
}

// DowngradeToFree reverts the customer to the free tier.
func (r *Repository) DowngradeToFree(ctx context.Context, customerID string) error {
	query := `
		UPDATE users
		SET plan = $2, updated_at = NOW()
		WHERE stripe_customer_id = $1
	`

	_, err := r.pool.Exec(ctx, query, customerID, model.PlanFree)
	if err != nil {
		return fmt.Errorf("failed to downgrade user: %w", err)
	}

	return nil
}

// DeleteUser removes a quota record (explicit admin action only).
func (r *Repository) DeleteUser(ctx context.Context, id string) error {
	query := `DELETE FROM users WHERE id = $1`

	result, err := r.pool.Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}

	if result.RowsAffected() == 0 {
		return ErrUserNotFound
	}

	return nil
}

// scanUser scans a single row into a User model.
func scanUser(row pgx.Row) (*model.User, error) {
	var user model.User
	err := row.Scan(
		&user.ID,
		&user.Email,
		&user.Plan,
		&user.UsageCount,
		&user.LastUsageDate,
		&user.Credits,
		&user.StripeCustomerID,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	return &user, err
}
