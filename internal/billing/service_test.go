package billing

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stripe/stripe-go/v79/webhook"

	"github.com/leadpilot/leadpilot/internal/model"
)

type fakeStore struct {
	users      map[string]*model.User
	upgraded   []string
	downgraded []string
	bonus      int
	customerID string
}

func newFakeStore() *fakeStore {
	return &fakeStore{users: make(map[string]*model.User)}
}

func (s *fakeStore) GetUser(_ context.Context, id string) (*model.User, error) {
	u, ok := s.users[id]
	if !ok {
		return nil, errors.New("user not found")
	}
	return u, nil
}

func (s *fakeStore) SetStripeCustomerID(_ context.Context, id, customerID string) error {
	s.customerID = customerID
	return nil
}

func (s *fakeStore) UpgradeToPro(_ context.Context, customerID string, bonusCredits int) error {
	s.upgraded = append(s.upgraded, customerID)
	s.bonus = bonusCredits
	return nil
}

func (s *fakeStore) DowngradeToFree(_ context.Context, customerID string) error {
	s.downgraded = append(s.downgraded, customerID)
	return nil
}

const testWebhookSecret = "whsec_test_secret"

func testService(store *fakeStore) *Service {
	return New(store, Config{
		SecretKey:      "sk_test_123",
		WebhookSecret:  testWebhookSecret,
		PriceIDPro:     "price_123",
		FrontendURL:    "https://app.example.com/",
		UpgradeCredits: 50,
	}, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

// signPayload builds a valid Stripe-Signature header for a payload.
func signPayload(payload []byte) string {
	now := time.Now()
	sig := webhook.ComputeSignature(now, payload, testWebhookSecret)
	return fmt.Sprintf("t=%d,v1=%s", now.Unix(), hex.EncodeToString(sig))
}

func TestHandleEventRejectsBadSignature(t *testing.T) {
	svc := testService(newFakeStore())
	payload := []byte(`{"type":"checkout.session.completed"}`)

	err := svc.HandleEvent(context.Background(), payload, "t=1,v1=deadbeef")
	if !errors.Is(err, ErrInvalidPayload) {
		t.Fatalf("expected ErrInvalidPayload, got %v", err)
	}
}

func TestHandleEventCheckoutCompleted(t *testing.T) {
	store := newFakeStore()
	svc := testService(store)

	payload := []byte(`{
		"id": "evt_1",
		"type": "checkout.session.completed",
		"data": {"object": {"id": "cs_1", "customer": {"id": "cus_123"}}}
	}`)

	if err := svc.HandleEvent(context.Background(), payload, signPayload(payload)); err != nil {
		t.Fatalf("HandleEvent: %v", err)
	}
	if len(store.upgraded) != 1 || store.upgraded[0] != "cus_123" {
		t.Errorf("expected upgrade for cus_123, got %v", store.upgraded)
	}
	if store.bonus != 50 {
		t.Errorf("expected 50 bonus credits, got %d", store.bonus)
	}
}

func TestHandleEventSubscriptionDeleted(t *testing.T) {
	store := newFakeStore()
	svc := testService(store)

	payload := []byte(`{
		"id": "evt_2",
		"type": "customer.subscription.deleted",
		"data": {"object": {"id": "sub_1", "customer": {"id": "cus_456"}}}
	}`)

	if err := svc.HandleEvent(context.Background(), payload, signPayload(payload)); err != nil {
		t.Fatalf("HandleEvent: %v", err)
	}
	if len(store.downgraded) != 1 || store.downgraded[0] != "cus_456" {
		t.Errorf("expected downgrade for cus_456, got %v", store.downgraded)
	}
	if len(store.upgraded) != 0 {
		t.Error("downgrade event must not upgrade anyone")
	}
}

func TestHandleEventMissingCustomer(t *testing.T) {
	store := newFakeStore()
	svc := testService(store)

	payload := []byte(`{
		"id": "evt_3",
		"type": "checkout.session.completed",
		"data": {"object": {"id": "cs_2"}}
	}`)

	err := svc.HandleEvent(context.Background(), payload, signPayload(payload))
	if !errors.Is(err, ErrInvalidPayload) {
		t.Fatalf("expected ErrInvalidPayload, got %v", err)
	}
	if len(store.upgraded) != 0 {
		t.Error("malformed event must not change plans")
	}
}

func TestHandleEventIgnoresUnknownTypes(t *testing.T) {
	store := newFakeStore()
	svc := testService(store)

	payload := []byte(`{
		"id": "evt_4",
		"type": "invoice.paid",
		"data": {"object": {"id": "in_1"}}
	}`)

	if err := svc.HandleEvent(context.Background(), payload, signPayload(payload)); err != nil {
		t.Fatalf("unknown events should be acknowledged: %v", err)
	}
	if len(store.upgraded) != 0 || len(store.downgraded) != 0 {
		t.Error("unknown events must not change plans")
	}
}

func TestEnabled(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	if svc := New(newFakeStore(), Config{}, logger); svc.Enabled() {
		t.Error("empty config should not be enabled")
	}
	if svc := testService(newFakeStore()); !svc.Enabled() {
		t.Error("full config should be enabled")
	}
}

func TestCheckoutURLRequiresConfig(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	svc := New(newFakeStore(), Config{}, logger)

	if _, err := svc.CheckoutURL(context.Background(), "u1"); !errors.Is(err, ErrNotConfigured) {
		t.Fatalf("expected ErrNotConfigured, got %v", err)
	}
}

func TestPortalURLRequiresCustomer(t *testing.T) {
	store := newFakeStore()
	store.users["u1"] = &model.User{ID: "u1", Plan: model.PlanPro}
	svc := testService(store)

	if _, err := svc.PortalURL(context.Background(), "u1"); !errors.Is(err, ErrNoCustomer) {
		t.Fatalf("expected ErrNoCustomer, got %v", err)
	}
}
