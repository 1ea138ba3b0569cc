// Package config provides application configuration management.
// Configuration is loaded from environment variables following 12-factor principles.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v10"
	_ "github.com/joho/godotenv/autoload"
)

// Config holds all application configuration.
// All fields are populated from environment variables.
type Config struct {
	// Application settings
	AppEnv  string `env:"APP_ENV" envDefault:"development"`
	AppPort int    `env:"APP_PORT" envDefault:"8080"`

	// Database (PostgreSQL)
	DatabaseURL string `env:"DATABASE_URL,required"`

	// Cache (Redis)
	RedisURL string `env:"REDIS_URL,required"`

	// Identity provider (any JWKS-publishing issuer, e.g. Clerk)
	AuthIssuer   string `env:"AUTH_ISSUER,required"`
	AuthAudience string `env:"AUTH_AUDIENCE,required"`
	AuthJWKSURL  string `env:"AUTH_JWKS_URL" envDefault:""`

	// Generative-text provider (Gemini)
	GeminiAPIKey string `env:"GEMINI_API_KEY,required"`
	GeminiModel  string `env:"GEMINI_MODEL" envDefault:"gemini-2.0-flash"`

	// Daily generation quotas per plan
	FreeDailyLimit int `env:"FREE_DAILY_LIMIT" envDefault:"3"`
	ProDailyLimit  int `env:"PRO_DAILY_LIMIT" envDefault:"100"`

	// Stripe billing
	StripeSecretKey     string `env:"STRIPE_SECRET_KEY" envDefault:""`
	StripeWebhookSecret string `env:"STRIPE_WEBHOOK_SECRET" envDefault:""`
	StripePriceIDPro    string `env:"STRIPE_PRICE_ID_PRO" envDefault:""`
	FrontendURL         string `env:"FRONTEND_URL" envDefault:"http://localhost:3000"`
	UpgradeBonusCredits int    `env:"UPGRADE_BONUS_CREDITS" envDefault:"50"`

	// Admin surface (Argon2id PHC hash of the operator key)
	AdminKeyHash string `env:"ADMIN_KEY_HASH" envDefault:""`

	// Outbound lead-event webhook (optional)
	NotifyWebhookURL    string `env:"NOTIFY_WEBHOOK_URL" envDefault:""`
	NotifyWebhookSecret string `env:"NOTIFY_WEBHOOK_SECRET" envDefault:""`

	// Logging
	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat string `env:"LOG_FORMAT" envDefault:"json"`

	// Server timeouts. WriteTimeout must accommodate a full generation call.
	ReadTimeout     time.Duration `env:"READ_TIMEOUT" envDefault:"5s"`
	WriteTimeout    time.Duration `env:"WRITE_TIMEOUT" envDefault:"60s"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"30s"`

	// Per-user API rate limiting
	RateLimitEnabled bool `env:"RATE_LIMIT_ENABLED" envDefault:"true"`
	RateLimitPerMin  int  `env:"RATE_LIMIT_PER_MIN" envDefault:"60"`
	RateLimitBurst   int  `env:"RATE_LIMIT_BURST" envDefault:"10"`

	// CORS configuration
	// Comma-separated list of allowed origins (e.g., "https://app.leadpilot.io")
	CORSAllowedOrigins string `env:"CORS_ALLOWED_ORIGINS" envDefault:""`

	// Request body size limit in bytes (default 1MB)
	MaxRequestBodySize int64 `env:"MAX_REQUEST_BODY_SIZE" envDefault:"1048576"`
}

// IsDevelopment returns true if running in development mode.
func (c *Config) IsDevelopment() bool {
	return c.AppEnv == "development"
}

// IsProduction returns true if running in production mode.
func (c *Config) IsProduction() bool {
	return c.AppEnv == "production"
}

// BillingEnabled reports whether Stripe is fully configured.
func (c *Config) BillingEnabled() bool {
	return c.StripeSecretKey != "" && c.StripeWebhookSecret != "" && c.StripePriceIDPro != ""
}

// NotifyEnabled reports whether the outbound lead-event webhook is configured.
func (c *Config) NotifyEnabled() bool {
	return c.NotifyWebhookURL != "" && c.NotifyWebhookSecret != ""
}

// GetCORSAllowedOrigins parses the comma-separated origins string into a slice.
func (c *Config) GetCORSAllowedOrigins() []string {
	if c.CORSAllowedOrigins == "" {
		return nil
	}

	origins := strings.Split(c.CORSAllowedOrigins, ",")
	result := make([]string, 0, len(origins))

	for _, origin := range origins {
		trimmed := strings.TrimSpace(origin)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}

	return result
}

// Load parses environment variables and returns a Config.
// Returns an error if required variables are missing.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return cfg, nil
}
