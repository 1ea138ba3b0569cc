// Package quota implements the daily usage gate that meters dossier
// generation against per-plan limits.
package quota

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/leadpilot/leadpilot/internal/model"
)

// ErrQuotaExceeded is the sentinel matched by errors.Is for quota rejections.
var ErrQuotaExceeded = errors.New("daily quota exceeded")

// dayFormat is the canonical day key. Day boundaries are UTC midnight so
// every instance agrees on when a new day starts.
const dayFormat = "2006-01-02"

// Store is the persistence surface the gate needs.
type Store interface {
	GetUser(ctx context.Context, id string) (*model.User, error)
	ResetDailyUsage(ctx context.Context, id, today string) error
	IncrementUsage(ctx context.Context, id string) error
}

// Limits holds the per-plan daily generation limits.
type Limits struct {
	Free int
	Pro  int
}

// DefaultLimits are the production plan limits.
var DefaultLimits = Limits{Free: 3, Pro: 100}

// ForPlan returns the daily limit for a plan. Paid plans share the pro limit.
func (l Limits) ForPlan(plan model.Plan) int {
	if plan.IsPaid() {
		return l.Pro
	}
	return l.Free
}

// QuotaExceededError carries the plan context of a rejection so handlers
// can render tier-specific messaging.
type QuotaExceededError struct {
	Plan       model.Plan
	Limit      int
	Upgradable bool
}

func (e *QuotaExceededError) Error() string {
	if e.Upgradable {
		return fmt.Sprintf("daily limit of %d dossiers reached, upgrade to Pro for %d per day", e.Limit, DefaultLimits.Pro)
	}
	return fmt.Sprintf("daily limit of %d dossiers reached, quota resets at midnight UTC", e.Limit)
}

// Is lets errors.Is(err, ErrQuotaExceeded) match.
func (e *QuotaExceededError) Is(target error) bool {
	return target == ErrQuotaExceeded
}

// Decision summarizes a user's standing against their daily quota.
type Decision struct {
	User      *model.User
	Limit     int
	Used      int
	Remaining int
	Exceeded  bool
}

// Gate checks and records daily usage. Admission and charging are split:
// Check has no side effects beyond the lazy daily rollover, and Commit is
// only called after the metered work succeeds.
type Gate struct {
	store  Store
	limits Limits
	now    func() time.Time
}

// New creates a quota gate with the given limits.
func New(store Store, limits Limits) *Gate {
	return &Gate{store: store, limits: limits, now: time.Now}
}

// WithClock overrides the gate's clock. Intended for tests.
func (g *Gate) WithClock(now func() time.Time) *Gate {
	g.now = now
	return g
}

// Today returns the current UTC day key.
func (g *Gate) Today() string {
	return g.now().UTC().Format(dayFormat)
}

// Usage loads the user's current standing, applying the daily rollover
// if the stored day is stale. The rollover is persisted so concurrent
// readers converge on the same counter.
func (g *Gate) Usage(ctx context.Context, userID string) (*Decision, error) {
	user, err := g.store.GetUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	today := g.Today()
	if user.LastUsageDate != today {
		if err := g.store.ResetDailyUsage(ctx, userID, today); err != nil {
			return nil, fmt.Errorf("reset daily usage: %w", err)
		}
		user.UsageCount = 0
		user.LastUsageDate = today
	}

	limit := g.limits.ForPlan(user.Plan)
	remaining := limit - user.UsageCount
	if remaining < 0 {
		remaining = 0
	}

	return &Decision{
		User:      user,
		Limit:     limit,
		Used:      user.UsageCount,
		Remaining: remaining,
		Exceeded:  user.UsageCount >= limit,
	}, nil
}

// Check admits or rejects a generation request. A rejection returns a
// *QuotaExceededError and leaves no trace beyond the daily rollover.
func (g *Gate) Check(ctx context.Context, userID string) (*Decision, error) {
	decision, err := g.Usage(ctx, userID)
	if err != nil {
		return nil, err
	}
	if decision.Exceeded {
		return decision, &QuotaExceededError{
			Plan:       decision.User.Plan,
			Limit:      decision.Limit,
			Upgradable: !decision.User.Plan.IsPaid(),
		}
	}
	return decision, nil
}

// Commit charges one generation against the user's daily counter. It is
// a single atomic increment so N concurrent successful generations add
// exactly N.
func (g *Gate) Commit(ctx context.Context, userID string) error {
	if err := g.store.IncrementUsage(ctx, userID); err != nil {
		return fmt.Errorf("increment usage: %w", err)
	}
	return nil
}
