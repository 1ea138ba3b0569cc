package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/leadpilot/leadpilot/internal/auth"
)

// TokenVerifier validates a bearer token and returns the caller identity.
type TokenVerifier interface {
	Verify(tokenString string) (*auth.Identity, error)
}

// UserProvisioner lazily creates the local user record for a verified
// identity. The record is the source of truth for plan and usage; the
// identity provider only knows who the caller is.
type UserProvisioner interface {
	EnsureUser(ctx context.Context, id, email string) error
}

// ProvisionMarker suppresses repeated provisioning work per user.
type ProvisionMarker interface {
	IsUserProvisioned(ctx context.Context, userID string) bool
	MarkUserProvisioned(ctx context.Context, userID string) error
}

// AuthConfig holds configuration for the auth middleware.
type AuthConfig struct {
	Logger      *slog.Logger
	Verifier    TokenVerifier
	Provisioner UserProvisioner
	Marker      ProvisionMarker
}

// Auth returns a middleware that authenticates requests with a bearer
// JWT. On first sight of a subject it provisions the local user record,
// then injects the identity into the request context.
func Auth(cfg AuthConfig) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := extractBearerToken(r)
			if token == "" {
				cfg.Logger.Warn("authentication failed",
					slog.String("reason", "missing_token"),
					slog.String("ip", r.RemoteAddr),
					slog.String("endpoint", r.Method+" "+r.URL.Path),
					slog.String("request_id", GetRequestID(r.Context())),
				)
				writeAuthError(w)
				return
			}

			identity, err := cfg.Verifier.Verify(token)
			if err != nil {
				cfg.Logger.Warn("authentication failed",
					slog.String("reason", "invalid_token"),
					slog.String("ip", r.RemoteAddr),
					slog.String("endpoint", r.Method+" "+r.URL.Path),
					slog.String("request_id", GetRequestID(r.Context())),
				)
				writeAuthError(w)
				return
			}

			if err := provisionUser(r.Context(), cfg, identity); err != nil {
				cfg.Logger.Error("user provisioning failed",
					slog.String("user_id", identity.UserID),
					slog.String("error", err.Error()),
					slog.String("request_id", GetRequestID(r.Context())),
				)
				writeAuthError(w)
				return
			}

			ctx := auth.ContextWithIdentity(r.Context(), identity)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// provisionUser upserts the user record on first sight. A marker keeps
// the upsert off the hot path once the record is known to exist.
func provisionUser(ctx context.Context, cfg AuthConfig, identity *auth.Identity) error {
	if cfg.Marker != nil && cfg.Marker.IsUserProvisioned(ctx, identity.UserID) {
		return nil
	}

	if err := cfg.Provisioner.EnsureUser(ctx, identity.UserID, identity.Email); err != nil {
		return err
	}

	if cfg.Marker != nil {
		// Marker failures only cost an extra upsert next request.
		_ = cfg.Marker.MarkUserProvisioned(ctx, identity.UserID)
	}
	return nil
}

// extractBearerToken extracts the JWT from the Authorization header.
func extractBearerToken(r *http.Request) string {
	authHeader := r.Header.Get("Authorization")
	if strings.HasPrefix(authHeader, "Bearer ") {
		return strings.TrimPrefix(authHeader, "Bearer ")
	}
	return ""
}

// writeAuthError writes a 401 Unauthorized response.
// Uses the same message for all auth failures to prevent enumeration.
func writeAuthError(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_, _ = w.Write([]byte(`{"error":"Invalid or missing credentials","code":"UNAUTHORIZED"}`))
}
