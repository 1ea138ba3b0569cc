// Package billing integrates Stripe Checkout subscriptions with user plans.
package billing

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/stripe/stripe-go/v79"
	portal "github.com/stripe/stripe-go/v79/billingportal/session"
	"github.com/stripe/stripe-go/v79/checkout/session"
	"github.com/stripe/stripe-go/v79/customer"
	"github.com/stripe/stripe-go/v79/webhook"

	"github.com/leadpilot/leadpilot/internal/model"
)

var (
	// ErrNotConfigured is returned when Stripe keys are missing.
	ErrNotConfigured = errors.New("billing not configured")
	// ErrInvalidPayload is returned for webhook events that fail
	// signature verification or decoding.
	ErrInvalidPayload = errors.New("invalid webhook payload")
	// ErrNoCustomer is returned when a user has no Stripe customer yet.
	ErrNoCustomer = errors.New("no stripe customer for user")
)

// Store is the persistence surface billing needs.
type Store interface {
	GetUser(ctx context.Context, id string) (*model.User, error)
	SetStripeCustomerID(ctx context.Context, id, customerID string) error
	UpgradeToPro(ctx context.Context, customerID string, bonusCredits int) error
	DowngradeToFree(ctx context.Context, customerID string) error
}

// Config holds the Stripe wiring for the service.
type Config struct {
	SecretKey      string
	WebhookSecret  string
	PriceIDPro     string
	FrontendURL    string
	UpgradeCredits int
}

// Service creates checkout sessions and applies verified webhook events.
// Plan changes only ever happen here, off signed Stripe events, never
// off a success redirect the browser could fake.
type Service struct {
	store  Store
	cfg    Config
	logger *slog.Logger
}

// New creates the billing service and sets the global Stripe key.
func New(store Store, cfg Config, logger *slog.Logger) *Service {
	stripe.Key = cfg.SecretKey
	return &Service{store: store, cfg: cfg, logger: logger}
}

// Enabled reports whether Stripe is fully configured.
func (s *Service) Enabled() bool {
	return s.cfg.SecretKey != "" && s.cfg.WebhookSecret != "" && s.cfg.PriceIDPro != ""
}

// ensureCustomer finds or creates the Stripe customer for a user and
// stores the mapping.
func (s *Service) ensureCustomer(ctx context.Context, userID string) (string, error) {
	user, err := s.store.GetUser(ctx, userID)
	if err != nil {
		return "", err
	}
	if user.StripeCustomerID != "" {
		return user.StripeCustomerID, nil
	}

	params := &stripe.CustomerParams{
		Email: stripe.String(user.Email),
		Metadata: map[string]string{
			"user_id": userID,
		},
	}
	cust, err := customer.New(params)
	if err != nil {
		return "", fmt.Errorf("create stripe customer: %w", err)
	}

	if err := s.store.SetStripeCustomerID(ctx, userID, cust.ID); err != nil {
		return "", err
	}
	return cust.ID, nil
}

// CheckoutURL starts a subscription checkout for the user and returns
// the hosted payment page URL.
func (s *Service) CheckoutURL(ctx context.Context, userID string) (string, error) {
	if !s.Enabled() {
		return "", ErrNotConfigured
	}

	customerID, err := s.ensureCustomer(ctx, userID)
	if err != nil {
		return "", err
	}

	frontend := strings.TrimRight(s.cfg.FrontendURL, "/")
	params := &stripe.CheckoutSessionParams{
		Mode:     stripe.String(string(stripe.CheckoutSessionModeSubscription)),
		Customer: stripe.String(customerID),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				Price:    stripe.String(s.cfg.PriceIDPro),
				Quantity: stripe.Int64(1),
			},
		},
		SuccessURL: stripe.String(frontend + "/billing/success"),
		CancelURL:  stripe.String(frontend + "/billing/cancel"),
	}

	sess, err := session.New(params)
	if err != nil {
		return "", fmt.Errorf("create checkout session: %w", err)
	}
	return sess.URL, nil
}

// PortalURL creates a Stripe customer portal session so subscribers can
// manage or cancel their subscription.
func (s *Service) PortalURL(ctx context.Context, userID string) (string, error) {
	if !s.Enabled() {
		return "", ErrNotConfigured
	}

	user, err := s.store.GetUser(ctx, userID)
	if err != nil {
		return "", err
	}
	if user.StripeCustomerID == "" {
		return "", ErrNoCustomer
	}

	frontend := strings.TrimRight(s.cfg.FrontendURL, "/")
	params := &stripe.BillingPortalSessionParams{
		Customer:  stripe.String(user.StripeCustomerID),
		ReturnURL: stripe.String(frontend + "/settings/billing"),
	}

	sess, err := portal.New(params)
	if err != nil {
		return "", fmt.Errorf("create portal session: %w", err)
	}
	return sess.URL, nil
}

// HandleEvent verifies a webhook payload and applies any plan change.
// Unhandled event types are acknowledged and ignored.
func (s *Service) HandleEvent(ctx context.Context, payload []byte, sigHeader string) error {
	event, err := webhook.ConstructEventWithOptions(
		payload,
		sigHeader,
		s.cfg.WebhookSecret,
		webhook.ConstructEventOptions{
			IgnoreAPIVersionMismatch: true,
		},
	)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidPayload, err)
	}

	switch event.Type {
	case "checkout.session.completed":
		var sess stripe.CheckoutSession
		if err := json.Unmarshal(event.Data.Raw, &sess); err != nil {
			return fmt.Errorf("%w: decode session: %v", ErrInvalidPayload, err)
		}
		customerID := customerIDOf(sess.Customer)
		if customerID == "" {
			return fmt.Errorf("%w: session missing customer id", ErrInvalidPayload)
		}
		if err := s.store.UpgradeToPro(ctx, customerID, s.cfg.UpgradeCredits); err != nil {
			return fmt.Errorf("apply upgrade: %w", err)
		}
		s.logger.Info("plan upgraded via checkout", "stripe_customer", customerID)

	case "customer.subscription.deleted":
		var sub stripe.Subscription
		if err := json.Unmarshal(event.Data.Raw, &sub); err != nil {
			return fmt.Errorf("%w: decode subscription: %v", ErrInvalidPayload, err)
		}
		customerID := customerIDOf(sub.Customer)
		if customerID == "" {
			return fmt.Errorf("%w: subscription missing customer id", ErrInvalidPayload)
		}
		if err := s.store.DowngradeToFree(ctx, customerID); err != nil {
			return fmt.Errorf("apply downgrade: %w", err)
		}
		s.logger.Info("plan downgraded via subscription cancel", "stripe_customer", customerID)

	default:
		s.logger.Debug("ignoring stripe event", "type", event.Type)
	}

	return nil
}

func customerIDOf(c *stripe.Customer) string {
	if c == nil {
		return ""
	}
	return c.ID
}
