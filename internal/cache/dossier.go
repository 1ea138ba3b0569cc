package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/leadpilot/leadpilot/internal/model"
)

const (
	// dossierKeyPrefix is the Redis key prefix for cached dossiers.
	dossierKeyPrefix = "dossier:"

	// DefaultDossierTTL bounds how long a generated dossier is reused
	// for an identical prospect triple.
	DefaultDossierTTL = 24 * time.Hour
)

// ProspectFingerprint derives a stable cache key from the prospect triple.
// Inputs are case-folded and trimmed so trivial retypes hit the cache.
func ProspectFingerprint(name, company, role string) string {
	canonical := strings.ToLower(strings.TrimSpace(name)) + "|" +
		strings.ToLower(strings.TrimSpace(company)) + "|" +
		strings.ToLower(strings.TrimSpace(role))
	hash := sha256.Sum256([]byte(canonical))
	return hex.EncodeToString(hash[:16])
}

// GetDossier retrieves a cached dossier by prospect fingerprint.
// Returns ErrCacheMiss if not found.
func (c *Cache) GetDossier(ctx context.Context, fingerprint string) (*model.Dossier, error) {
	key := dossierKeyPrefix + fingerprint

	data, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrCacheMiss
		}
		return nil, fmt.Errorf("failed to get cached dossier: %w", err)
	}

	var dossier model.Dossier
	if err := json.Unmarshal(data, &dossier); err != nil {
		// Corrupted cache entry - treat as miss
		return nil, ErrCacheMiss
	}

	return &dossier, nil
}

// SetDossier caches a generated dossier under the prospect fingerprint.
func (c *Cache) SetDossier(ctx context.Context, fingerprint string, dossier *model.Dossier) error {
	key := dossierKeyPrefix + fingerprint

	data, err := json.Marshal(dossier)
	if err != nil {
		return fmt.Errorf("marshal dossier: %w", err)
	}

	if err := c.client.Set(ctx, key, data, DefaultDossierTTL).Err(); err != nil {
		return fmt.Errorf("failed to cache dossier: %w", err)
	}

	return nil
}

// DeleteDossier evicts a cached dossier.
func (c *Cache) DeleteDossier(ctx context.Context, fingerprint string) error {
	key := dossierKeyPrefix + fingerprint
	return c.client.Del(ctx, key).Err()
}
