package cache

import (
	"context"
	"time"
)

const (
	// provisionedKeyPrefix marks identities whose quota record is known to exist.
	provisionedKeyPrefix = "user:provisioned:"
	// provisionedTTL bounds how long the marker suppresses the lazy upsert.
	provisionedTTL = 12 * time.Hour
)

// IsUserProvisioned reports whether the lazy quota-record upsert has
// already run recently for this identity. Errors are treated as "not
// provisioned" so the upsert (itself idempotent) simply runs again.
func (c *Cache) IsUserProvisioned(ctx context.Context, userID string) bool {
	exists, err := c.client.Exists(ctx, provisionedKeyPrefix+userID).Result()
	if err != nil {
		return false
	}
	return exists > 0
}

// MarkUserProvisioned records that the quota record exists for this identity.
func (c *Cache) MarkUserProvisioned(ctx context.Context, userID string) error {
	return c.client.SetEx(ctx, provisionedKeyPrefix+userID, "1", provisionedTTL).Err()
}
