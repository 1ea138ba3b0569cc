// Package main is the entrypoint for the LeadPilot API server.
package main

import (
	"context"
	"log/slog"
	"net/url"
	"os"
	"regexp"
	"strings"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/leadpilot/leadpilot/internal/auth"
	"github.com/leadpilot/leadpilot/internal/billing"
	"github.com/leadpilot/leadpilot/internal/cache"
	"github.com/leadpilot/leadpilot/internal/config"
	"github.com/leadpilot/leadpilot/internal/dossier"
	"github.com/leadpilot/leadpilot/internal/handler"
	"github.com/leadpilot/leadpilot/internal/metrics"
	"github.com/leadpilot/leadpilot/internal/middleware"
	"github.com/leadpilot/leadpilot/internal/notify"
	"github.com/leadpilot/leadpilot/internal/quota"
	"github.com/leadpilot/leadpilot/internal/repository"
	"github.com/leadpilot/leadpilot/internal/server"
	"github.com/leadpilot/leadpilot/internal/service"
)

func main() {
	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := initLogger(cfg)

	repo, err := repository.New(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Error(
			"failed to connect to database",
			slog.String("error", sanitizeError(err, cfg.DatabaseURL)),
			slog.String("database_url", redactURL(cfg.DatabaseURL)),
		)
		os.Exit(1)
	}
	logger.Info("connected to database")

	cacheClient, err := cache.New(ctx, cfg.RedisURL)
	if err != nil {
		logger.Error(
			"failed to connect to Redis",
			slog.String("error", sanitizeError(err, cfg.RedisURL)),
			slog.String("redis_url", redactURL(cfg.RedisURL)),
		)
		os.Exit(1)
	}
	logger.Info("connected to Redis")

	verifier, err := auth.NewVerifier(cfg.AuthIssuer, cfg.AuthAudience, cfg.AuthJWKSURL)
	if err != nil {
		logger.Error("failed to initialize token verifier", "error", err)
		os.Exit(1)
	}
	logger.Info("token verifier ready", "issuer", cfg.AuthIssuer)

	generator, err := dossier.NewGeminiGenerator(ctx, cfg.GeminiAPIKey, cfg.GeminiModel)
	if err != nil {
		logger.Error("failed to initialize generation provider", "error", err)
		os.Exit(1)
	}

	// Wiring
	metricsRecorder := metrics.NewInMemory()
	gate := quota.New(repo, quota.Limits{Free: cfg.FreeDailyLimit, Pro: cfg.ProDailyLimit})
	notifier := notify.New(cfg.NotifyWebhookURL, cfg.NotifyWebhookSecret, logger)

	dossierService := dossier.NewService(gate, cacheClient, generator, metricsRecorder, logger)
	leadService := service.NewLeadService(repo, metricsRecorder, notifier)
	userService := service.NewUserService(repo, gate)
	billingService := billing.New(repo, billing.Config{
		SecretKey:      cfg.StripeSecretKey,
		WebhookSecret:  cfg.StripeWebhookSecret,
		PriceIDPro:     cfg.StripePriceIDPro,
		FrontendURL:    cfg.FrontendURL,
		UpgradeCredits: cfg.UpgradeBonusCredits,
	}, logger)

	// Handlers
	healthHandler := handler.NewHealthHandler(repo, cacheClient)
	dossierHandler := handler.NewDossierHandler(dossierService, logger)
	leadHandler := handler.NewLeadHandler(leadService, logger)
	userHandler := handler.NewUserHandler(userService, logger)
	billingHandler := handler.NewBillingHandler(billingService, logger)
	adminHandler := handler.NewAdminHandler(repo, logger)

	r := setupRouter(routerDeps{
		health:   healthHandler,
		dossiers: dossierHandler,
		leads:    leadHandler,
		users:    userHandler,
		billing:  billingHandler,
		admin:    adminHandler,
		verifier: verifier,
		repo:     repo,
		cache:    cacheClient,
		cfg:      cfg,
		logger:   logger,
	})

	srv := server.New(
		r,
		cfg.AppPort,
		cfg.ReadTimeout,
		cfg.WriteTimeout,
		cfg.ShutdownTimeout,
		logger,
	)

	srv.OnShutdown("redis", func(ctx context.Context) error {
		return cacheClient.Close()
	})
	srv.OnShutdown("postgres", func(ctx context.Context) error {
		repo.Close()
		return nil
	})

	logger.Info("starting server",
		"port", cfg.AppPort,
		"env", cfg.AppEnv,
		"billing_enabled", cfg.BillingEnabled(),
		"notify_enabled", cfg.NotifyEnabled(),
	)

	if err := srv.Run(); err != nil {
		logger.Error("server error", "error", err)
		os.Exit(1)
	}
}

// initLogger initializes the slog logger based on configuration.
func initLogger(cfg *config.Config) *slog.Logger {
	var h slog.Handler

	opts := &slog.HandlerOptions{
		Level: parseLogLevel(cfg.LogLevel),
	}

	if cfg.LogFormat == "json" {
		h = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		h = slog.NewTextHandler(os.Stdout, opts)
	}

	logger := slog.New(h)
	slog.SetDefault(logger)

	return logger
}

// parseLogLevel converts string log level to slog.Level.
func parseLogLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

type routerDeps struct {
	health   *handler.HealthHandler
	dossiers *handler.DossierHandler
	leads    *handler.LeadHandler
	users    *handler.UserHandler
	billing  *handler.BillingHandler
	admin    *handler.AdminHandler
	verifier *auth.Verifier
	repo     *repository.Repository
	cache    *cache.Cache
	cfg      *config.Config
	logger   *slog.Logger
}

// setupRouter configures the chi router with all routes and middleware.
func setupRouter(deps routerDeps) *chi.Mux {
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger(deps.logger))
	r.Use(middleware.Recoverer(deps.logger))
	r.Use(middleware.Security(middleware.SecurityConfig{
		IsDevelopment:      deps.cfg.IsDevelopment(),
		MaxRequestBodySize: deps.cfg.MaxRequestBodySize,
	}))
	r.Use(middleware.MaxBodySize(deps.cfg.MaxRequestBodySize))

	corsCfg := middleware.DefaultCORSConfig()
	corsCfg.AllowedOrigins = deps.cfg.GetCORSAllowedOrigins()
	r.Use(middleware.CORS(corsCfg))

	// Health endpoints (no auth required)
	r.Get("/healthz", deps.health.Healthz)
	r.Get("/readyz", deps.health.Readyz)

	// Root info endpoint
	r.Get("/", handler.Hello)

	// Static legal pages
	r.Get("/legal/privacy", handler.LegalPage("privacy"))
	r.Get("/legal/terms", handler.LegalPage("terms"))
	r.Get("/legal/refunds", handler.LegalPage("refunds"))

	authCfg := middleware.AuthConfig{
		Logger:      deps.logger,
		Verifier:    deps.verifier,
		Provisioner: deps.repo,
		Marker:      deps.cache,
	}

	rateLimitCfg := middleware.RateLimitConfig{
		Logger:             deps.logger,
		Cache:              deps.cache,
		UserEnabled:        deps.cfg.RateLimitEnabled,
		UserRequestsPerMin: deps.cfg.RateLimitPerMin,
		UserBurst:          deps.cfg.RateLimitBurst,
		IPEnabled:          deps.cfg.RateLimitEnabled,
		IPRPS:              5,
		IPBurst:            10,
	}

	// API v1 routes (require authentication)
	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Auth(authCfg))
		r.Use(middleware.RateLimitUser(rateLimitCfg))

		r.Get("/me", deps.users.Me)

		r.Post("/dossiers", deps.dossiers.Generate)
		r.Get("/dossiers/usage", deps.dossiers.Usage)

		r.Route("/leads", func(r chi.Router) {
			r.Get("/", deps.leads.List)
			r.Post("/", deps.leads.Create)
			r.Get("/{id}", deps.leads.Get)
			r.Patch("/{id}", deps.leads.Update)
			r.Patch("/{id}/stage", deps.leads.MoveStage)
			r.Delete("/{id}", deps.leads.Delete)
		})

		r.Get("/pipeline", deps.leads.Pipeline)

		r.Post("/billing/checkout", deps.billing.Checkout)
		r.Post("/billing/portal", deps.billing.Portal)
	})

	// Stripe webhook: no bearer auth, verified by signature instead.
	r.With(middleware.RateLimitIP(rateLimitCfg)).Post("/webhooks/stripe", deps.billing.Webhook)

	// Operator endpoints behind the admin key
	r.Route("/admin", func(r chi.Router) {
		r.Use(middleware.Admin(deps.cfg.AdminKeyHash, deps.logger))

		r.Get("/users/{id}", deps.admin.GetUser)
		r.Post("/credits", deps.admin.GrantCredits)
		r.Post("/plan", deps.admin.SetPlan)
	})

	// 404 and 405 handlers
	r.NotFound(handler.NotFound)
	r.MethodNotAllowed(handler.MethodNotAllowed)

	return r
}

var passwordPattern = regexp.MustCompile(`(?i)password=[^\s]+`)

func redactURL(raw string) string {
	if raw == "" {
		return ""
	}

	parsed, err := url.Parse(raw)
	if err != nil {
		return "[redacted]"
	}

	if parsed.User != nil {
		username := parsed.User.Username()
		if username == "" {
			parsed.User = url.User("redacted")
		} else {
			parsed.User = url.User(username)
		}
	}

	return parsed.String()
}

func sanitizeError(err error, secrets ...string) string {
	if err == nil {
		return ""
	}

	msg := err.Error()
	for _, secret := range secrets {
		if secret == "" {
			continue
		}
		redacted := redactURL(secret)
		if redacted == "" {
			redacted = "[redacted]"
		}
		msg = strings.ReplaceAll(msg, secret, redacted)
	}

	return passwordPattern.ReplaceAllString(msg, "password=redacted")
}
