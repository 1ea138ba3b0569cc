package quota

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/leadpilot/leadpilot/internal/model"
)

// fakeStore is an in-memory Store for gate tests.
type fakeStore struct {
	users      map[string]*model.User
	getErr     error
	resetErr   error
	incErr     error
	resetCalls int
	incCalls   int
}

func newFakeStore() *fakeStore {
	return &fakeStore{users: make(map[string]*model.User)}
}

func (s *fakeStore) GetUser(_ context.Context, id string) (*model.User, error) {
	if s.getErr != nil {
		return nil, s.getErr
	}
	u, ok := s.users[id]
	if !ok {
		return nil, errors.New("user not found")
	}
	copied := *u
	return &copied, nil
}

func (s *fakeStore) ResetDailyUsage(_ context.Context, id, today string) error {
	s.resetCalls++
	if s.resetErr != nil {
		return s.resetErr
	}
	if u, ok := s.users[id]; ok && u.LastUsageDate != today {
		u.UsageCount = 0
		u.LastUsageDate = today
	}
	return nil
}

func (s *fakeStore) IncrementUsage(_ context.Context, id string) error {
	s.incCalls++
	if s.incErr != nil {
		return s.incErr
	}
	u, ok := s.users[id]
	if !ok {
		return errors.New("user not found")
	}
	u.UsageCount++
	return nil
}

func fixedClock(day string) func() time.Time {
	t, err := time.Parse("2006-01-02", day)
	if err != nil {
		panic(err)
	}
	return func() time.Time { return t.Add(10 * time.Hour) }
}

func newTestGate(store *fakeStore, day string) *Gate {
	return New(store, DefaultLimits).WithClock(fixedClock(day))
}

func TestGateCheckAdmitsUnderLimit(t *testing.T) {
	store := newFakeStore()
	store.users["u1"] = &model.User{ID: "u1", Plan: model.PlanFree, UsageCount: 2, LastUsageDate: "2024-01-01"}

	gate := newTestGate(store, "2024-01-01")

	decision, err := gate.Check(context.Background(), "u1")
	if err != nil {
		t.Fatalf("Check: %v", err)
	}
	if decision.Exceeded {
		t.Error("expected admission under limit")
	}
	if decision.Remaining != 1 {
		t.Errorf("expected remaining 1, got %d", decision.Remaining)
	}
}

func TestGateFreeLimitIsThree(t *testing.T) {
	store := newFakeStore()
	store.users["u1"] = &model.User{ID: "u1", Plan: model.PlanFree, UsageCount: 0, LastUsageDate: "2024-01-01"}

	gate := newTestGate(store, "2024-01-01")
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if _, err := gate.Check(ctx, "u1"); err != nil {
			t.Fatalf("check %d: %v", i+1, err)
		}
		if err := gate.Commit(ctx, "u1"); err != nil {
			t.Fatalf("commit %d: %v", i+1, err)
		}
	}

	_, err := gate.Check(ctx, "u1")
	if !errors.Is(err, ErrQuotaExceeded) {
		t.Fatalf("expected quota exceeded on 4th request, got %v", err)
	}

	var qe *QuotaExceededError
	if !errors.As(err, &qe) {
		t.Fatal("expected *QuotaExceededError")
	}
	if !qe.Upgradable {
		t.Error("free tier rejection should be upgradable")
	}
	if qe.Limit != 3 {
		t.Errorf("expected limit 3, got %d", qe.Limit)
	}
}

func TestGateProLimitIsHundred(t *testing.T) {
	store := newFakeStore()
	store.users["u1"] = &model.User{ID: "u1", Plan: model.PlanPro, UsageCount: 99, LastUsageDate: "2024-01-01"}

	gate := newTestGate(store, "2024-01-01")
	ctx := context.Background()

	if _, err := gate.Check(ctx, "u1"); err != nil {
		t.Fatalf("request 100 should be admitted: %v", err)
	}
	if err := gate.Commit(ctx, "u1"); err != nil {
		t.Fatalf("commit: %v", err)
	}

	_, err := gate.Check(ctx, "u1")
	if !errors.Is(err, ErrQuotaExceeded) {
		t.Fatalf("expected quota exceeded on request 101, got %v", err)
	}

	var qe *QuotaExceededError
	if !errors.As(err, &qe) {
		t.Fatal("expected *QuotaExceededError")
	}
	if qe.Upgradable {
		t.Error("pro tier rejection should not be upgradable")
	}
}

func TestGatePremiumUsesProLimit(t *testing.T) {
	store := newFakeStore()
	store.users["u1"] = &model.User{ID: "u1", Plan: model.PlanPremium, UsageCount: 50, LastUsageDate: "2024-01-01"}

	gate := newTestGate(store, "2024-01-01")

	decision, err := gate.Check(context.Background(), "u1")
	if err != nil {
		t.Fatalf("Check: %v", err)
	}
	if decision.Limit != 100 {
		t.Errorf("expected premium limit 100, got %d", decision.Limit)
	}
}

func TestGateDailyRollover(t *testing.T) {
	store := newFakeStore()
	store.users["u1"] = &model.User{ID: "u1", Plan: model.PlanFree, UsageCount: 3, LastUsageDate: "2024-01-01"}

	ctx := context.Background()

	// Exhausted on day one.
	gate := newTestGate(store, "2024-01-01")
	if _, err := gate.Check(ctx, "u1"); !errors.Is(err, ErrQuotaExceeded) {
		t.Fatalf("expected exceeded on 2024-01-01, got %v", err)
	}

	// Fresh counter the next day.
	gate = newTestGate(store, "2024-01-02")
	decision, err := gate.Check(ctx, "u1")
	if err != nil {
		t.Fatalf("expected admission on 2024-01-02: %v", err)
	}
	if decision.Used != 0 {
		t.Errorf("expected usage reset to 0, got %d", decision.Used)
	}
	if err := gate.Commit(ctx, "u1"); err != nil {
		t.Fatalf("commit: %v", err)
	}
	if got := store.users["u1"].UsageCount; got != 1 {
		t.Errorf("expected usage 1 after rollover and one commit, got %d", got)
	}
	if got := store.users["u1"].LastUsageDate; got != "2024-01-02" {
		t.Errorf("expected last usage date 2024-01-02, got %q", got)
	}
}

func TestGateRolloverDoesNotResetSameDay(t *testing.T) {
	store := newFakeStore()
	store.users["u1"] = &model.User{ID: "u1", Plan: model.PlanFree, UsageCount: 2, LastUsageDate: "2024-01-01"}

	gate := newTestGate(store, "2024-01-01")

	if _, err := gate.Usage(context.Background(), "u1"); err != nil {
		t.Fatalf("Usage: %v", err)
	}
	if store.resetCalls != 0 {
		t.Errorf("expected no reset when date is current, got %d calls", store.resetCalls)
	}
}

func TestGateRejectionHasNoSideEffects(t *testing.T) {
	store := newFakeStore()
	store.users["u1"] = &model.User{ID: "u1", Plan: model.PlanFree, UsageCount: 3, LastUsageDate: "2024-01-01"}

	gate := newTestGate(store, "2024-01-01")

	if _, err := gate.Check(context.Background(), "u1"); !errors.Is(err, ErrQuotaExceeded) {
		t.Fatalf("expected quota exceeded, got %v", err)
	}
	if store.incCalls != 0 {
		t.Errorf("rejection must not increment usage, got %d increments", store.incCalls)
	}
	if got := store.users["u1"].UsageCount; got != 3 {
		t.Errorf("usage count changed on rejection: %d", got)
	}
}

func TestGateCommitSurfacesStoreError(t *testing.T) {
	store := newFakeStore()
	store.users["u1"] = &model.User{ID: "u1", Plan: model.PlanFree, LastUsageDate: "2024-01-01"}
	store.incErr = errors.New("connection reset")

	gate := newTestGate(store, "2024-01-01")

	err := gate.Commit(context.Background(), "u1")
	if err == nil {
		t.Fatal("expected commit error")
	}
	if errors.Is(err, ErrQuotaExceeded) {
		t.Error("store failures must not read as quota rejections")
	}
}

func TestGateUsageSurfacesResetError(t *testing.T) {
	store := newFakeStore()
	store.users["u1"] = &model.User{ID: "u1", Plan: model.PlanFree, UsageCount: 3, LastUsageDate: "2024-01-01"}
	store.resetErr = errors.New("db down")

	gate := newTestGate(store, "2024-01-02")

	if _, err := gate.Usage(context.Background(), "u1"); err == nil {
		t.Fatal("expected error when rollover fails")
	}
}

func TestQuotaExceededErrorMessages(t *testing.T) {
	free := &QuotaExceededError{Plan: model.PlanFree, Limit: 3, Upgradable: true}
	if got := free.Error(); got != "daily limit of 3 dossiers reached, upgrade to Pro for 100 per day" {
		t.Errorf("unexpected free message: %q", got)
	}

	pro := &QuotaExceededError{Plan: model.PlanPro, Limit: 100, Upgradable: false}
	if got := pro.Error(); got != "daily limit of 100 dossiers reached, quota resets at midnight UTC" {
		t.Errorf("unexpected pro message: %q", got)
	}
}

func TestGateToday(t *testing.T) {
	gate := New(newFakeStore(), DefaultLimits).WithClock(func() time.Time {
		return time.Date(2024, 6, 15, 23, 59, 0, 0, time.FixedZone("UTC+5", 5*3600))
	})
	// 23:59 UTC+5 is 18:59 UTC on the same day.
	if got := gate.Today(); got != "2024-06-15" {
		t.Errorf("expected 2024-06-15, got %q", got)
	}

	gate = gate.WithClock(func() time.Time {
		return time.Date(2024, 6, 15, 2, 0, 0, 0, time.FixedZone("UTC+5", 5*3600))
	})
	// 02:00 UTC+5 is 21:00 UTC the previous day.
	if got := gate.Today(); got != "2024-06-14" {
		t.Errorf("expected 2024-06-14, got %q", got)
	}
}

// lockedStore serializes every mutation, mirroring the single-statement
// atomic SQL increment the real store uses.
type lockedStore struct {
	mu   sync.Mutex
	user model.User
}

func (s *lockedStore) GetUser(_ context.Context, _ string) (*model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	copied := s.user
	return &copied, nil
}

func (s *lockedStore) ResetDailyUsage(_ context.Context, _, today string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.user.LastUsageDate != today {
		s.user.UsageCount = 0
		s.user.LastUsageDate = today
	}
	return nil
}

func (s *lockedStore) IncrementUsage(_ context.Context, _ string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.user.UsageCount++
	return nil
}

func TestGateCommitConcurrentIncrements(t *testing.T) {
	store := &lockedStore{
		user: model.User{ID: "u1", Plan: model.PlanPro, LastUsageDate: "2024-01-01"},
	}
	gate := New(store, DefaultLimits).WithClock(fixedClock("2024-01-01"))

	const workers = 50

	var wg sync.WaitGroup
	errs := make(chan error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs <- gate.Commit(context.Background(), "u1")
		}()
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		if err != nil {
			t.Fatalf("Commit failed: %v", err)
		}
	}

	u, _ := store.GetUser(context.Background(), "u1")
	if u.UsageCount != workers {
		t.Errorf("expected %d increments, got %d", workers, u.UsageCount)
	}
}
