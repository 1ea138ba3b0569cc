// Package testutil provides helpers for integration tests: environment
// gating, schema resets from the migration files, and test data factories.
package testutil

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/oklog/ulid/v2"
	"github.com/redis/go-redis/v9"

	"github.com/leadpilot/leadpilot/internal/model"
)

// RequireEnv returns an environment variable or skips the test if missing.
func RequireEnv(t testing.TB, key string) string {
	t.Helper()
	value := os.Getenv(key)
	if value == "" {
		t.Skipf("%s not set", key)
	}
	return value
}

const advisoryLockID int64 = 550550

// AcquireDBLock grabs a global advisory lock to serialize DB tests.
func AcquireDBLock(ctx context.Context, pool *pgxpool.Pool) (func() error, error) {
	conn, err := pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire connection: %w", err)
	}

	if _, err := conn.Exec(ctx, "SELECT pg_advisory_lock($1)", advisoryLockID); err != nil {
		conn.Release()
		return nil, fmt.Errorf("acquire advisory lock: %w", err)
	}

	unlock := func() error {
		defer conn.Release()
		if _, err := conn.Exec(ctx, "SELECT pg_advisory_unlock($1)", advisoryLockID); err != nil {
			return fmt.Errorf("release advisory lock: %w", err)
		}
		return nil
	}

	return unlock, nil
}

// ResetUsersSchema drops and recreates the users schema for tests.
func ResetUsersSchema(ctx context.Context, pool *pgxpool.Pool) error {
	return resetSchema(ctx, pool, "000001_users")
}

// ResetLeadsSchema drops and recreates the leads schema for tests.
func ResetLeadsSchema(ctx context.Context, pool *pgxpool.Pool) error {
	return resetSchema(ctx, pool, "000002_leads")
}

func resetSchema(ctx context.Context, pool *pgxpool.Pool, name string) error {
	root, err := ProjectRoot()
	if err != nil {
		return err
	}

	downPath := filepath.Join(root, "migrations", name+".down.sql")
	upPath := filepath.Join(root, "migrations", name+".up.sql")

	downSQL, err := os.ReadFile(downPath)
	if err != nil {
		return fmt.Errorf("read down migration: %w", err)
	}
	if _, err := pool.Exec(ctx, string(downSQL)); err != nil {
		return fmt.Errorf("apply down migration: %w", err)
	}

	upSQL, err := os.ReadFile(upPath)
	if err != nil {
		return fmt.Errorf("read up migration: %w", err)
	}
	if _, err := pool.Exec(ctx, string(upSQL)); err != nil {
		return fmt.Errorf("apply up migration: %w", err)
	}

	return nil
}

// FlushRedis clears the current Redis database.
func FlushRedis(ctx context.Context, client *redis.Client) error {
	return client.FlushDB(ctx).Err()
}

// ProjectRoot returns the project root directory.
func ProjectRoot() (string, error) {
	_, filename, _, ok := runtime.Caller(0)
	if !ok {
		return "", fmt.Errorf("failed to resolve testutil path")
	}
	root := filepath.Clean(filepath.Join(filepath.Dir(filename), "..", ".."))
	return root, nil
}

// ============================================================================
// Test Data Factories
// ============================================================================

// NewTestUser creates a free-tier quota record with sensible defaults.
func NewTestUser(t testing.TB, id string) *model.User {
	t.Helper()
	now := time.Now().UTC()
	return &model.User{
		ID:        id,
		Email:     id + "@example.com",
		Plan:      model.PlanFree,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// NewTestLead creates a test lead with sensible defaults.
func NewTestLead(t testing.TB, ownerID string) *model.Lead {
	t.Helper()
	now := time.Now().UTC()
	return &model.Lead{
		ID:        ulid.Make().String(),
		OwnerID:   ownerID,
		Name:      "Jordan Blake",
		Company:   "Acme Corp",
		Role:      "VP of Engineering",
		Value:     5000,
		Stage:     model.StageNew,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// NewTestLeadWithDossier creates a test lead carrying a generated bundle.
func NewTestLeadWithDossier(t testing.TB, ownerID string) *model.Lead {
	t.Helper()
	lead := NewTestLead(t, ownerID)
	lead.Dossier = &model.Dossier{
		Personality: "Analytical, direct, values data over small talk.",
		PainPoints:  []string{"scaling the platform team", "flaky deploy pipeline"},
		IceBreakers: []string{"Saw your talk on incident reviews."},
		EmailDraft:  "Hi Jordan, noticed Acme is hiring platform engineers...",
	}
	return lead
}
