package dossier

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/leadpilot/leadpilot/internal/cache"
	"github.com/leadpilot/leadpilot/internal/metrics"
	"github.com/leadpilot/leadpilot/internal/model"
	"github.com/leadpilot/leadpilot/internal/quota"
)

// ErrInvalidProspect indicates missing or oversized prospect fields.
var ErrInvalidProspect = errors.New("invalid prospect")

const maxFieldLength = 200

// Cache is the dossier cache surface the service needs.
type Cache interface {
	GetDossier(ctx context.Context, fingerprint string) (*model.Dossier, error)
	SetDossier(ctx context.Context, fingerprint string, d *model.Dossier) error
}

// Gate admits and charges generation requests against the daily quota.
type Gate interface {
	Check(ctx context.Context, userID string) (*quota.Decision, error)
	Commit(ctx context.Context, userID string) error
	Usage(ctx context.Context, userID string) (*quota.Decision, error)
}

// Result is the outcome of a generation request.
type Result struct {
	Dossier *model.Dossier
	Cached  bool
	// Used and Limit reflect the counter after the request was charged,
	// derived from the admission snapshot plus this request's charge.
	// Concurrent requests may make the figure momentarily stale; the
	// database counter is authoritative and the usage endpoint re-reads it.
	Used  int
	Limit int
}

// Service orchestrates quota checks, caching, and provider calls.
type Service struct {
	gate      Gate
	cache     Cache
	generator Generator
	metrics   metrics.Recorder
	logger    *slog.Logger
}

// NewService creates the dossier service.
func NewService(gate Gate, c Cache, g Generator, rec metrics.Recorder, logger *slog.Logger) *Service {
	return &Service{
		gate:      gate,
		cache:     c,
		generator: g,
		metrics:   rec,
		logger:    logger,
	}
}

// Generate produces a dossier for the prospect, charging one unit of
// daily quota. The quota is only committed after the dossier is in hand,
// so provider failures never consume quota. Cached results still charge,
// since the user received the product.
func (s *Service) Generate(ctx context.Context, userID, name, company, role string) (*Result, error) {
	name = strings.TrimSpace(name)
	company = strings.TrimSpace(company)
	role = strings.TrimSpace(role)
	if err := validateProspect(name, company, role); err != nil {
		return nil, err
	}

	decision, err := s.gate.Check(ctx, userID)
	if err != nil {
		var qe *quota.QuotaExceededError
		if errors.As(err, &qe) {
			s.metrics.IncQuotaRejected(string(qe.Plan))
		}
		return nil, err
	}

	fingerprint := cache.ProspectFingerprint(name, company, role)

	if cached, err := s.cache.GetDossier(ctx, fingerprint); err == nil {
		s.metrics.IncDossierCacheHit()
		if err := s.gate.Commit(ctx, userID); err != nil {
			return nil, err
		}
		return &Result{
			Dossier: cached,
			Cached:  true,
			Used:    decision.Used + 1,
			Limit:   decision.Limit,
		}, nil
	} else if !errors.Is(err, cache.ErrCacheMiss) {
		s.logger.Warn("dossier cache read failed", "error", err)
	}
	s.metrics.IncDossierCacheMiss()

	start := time.Now()
	raw, err := s.generator.Generate(ctx, BuildPrompt(name, company, role))
	if err != nil {
		s.metrics.IncProviderError()
		return nil, fmt.Errorf("generate dossier: %w", err)
	}

	dossier, err := ParseResponse(raw)
	if err != nil {
		s.metrics.IncProviderError()
		s.logger.Warn("provider returned unparseable output", "length", len(raw))
		return nil, err
	}
	s.metrics.ObserveGenerationDuration(time.Since(start))

	if err := s.cache.SetDossier(ctx, fingerprint, dossier); err != nil {
		// Cache writes are best effort.
		s.logger.Warn("dossier cache write failed", "error", err)
	}

	// The dossier exists and was delivered, so charge for it. If the
	// increment itself fails the whole request fails; the user keeps an
	// uncharged dossier rather than us inventing usage.
	if err := s.gate.Commit(ctx, userID); err != nil {
		return nil, err
	}
	s.metrics.IncDossierGenerated()

	return &Result{
		Dossier: dossier,
		Used:    decision.Used + 1,
		Limit:   decision.Limit,
	}, nil
}

// Usage reports the caller's current quota standing.
func (s *Service) Usage(ctx context.Context, userID string) (*quota.Decision, error) {
	return s.gate.Usage(ctx, userID)
}

func validateProspect(name, company, role string) error {
	if name == "" || company == "" || role == "" {
		return fmt.Errorf("%w: name, company and role are required", ErrInvalidProspect)
	}
	for _, field := range []string{name, company, role} {
		if len(field) > maxFieldLength {
			return fmt.Errorf("%w: fields must be at most %d characters", ErrInvalidProspect, maxFieldLength)
		}
	}
	return nil
}
