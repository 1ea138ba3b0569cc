package middleware

import (
	"log/slog"
	"net/http"

	"github.com/leadpilot/leadpilot/internal/auth"
)

// AdminKeyHeader carries the operator key for admin endpoints.
const AdminKeyHeader = "X-Admin-Key"

// Admin returns a middleware that gates operator endpoints behind a
// pre-shared key. Only the argon2 hash of the key is configured; the
// plaintext never touches the server config.
func Admin(keyHash string, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if keyHash == "" {
				// No admin key configured means no admin surface.
				writeAdminError(w)
				return
			}

			key := r.Header.Get(AdminKeyHeader)
			if key == "" {
				logger.Warn("admin auth failed",
					slog.String("reason", "missing_key"),
					slog.String("ip", r.RemoteAddr),
					slog.String("request_id", GetRequestID(r.Context())),
				)
				writeAdminError(w)
				return
			}

			match, err := auth.VerifyAdminKey(key, keyHash)
			if err != nil || !match {
				logger.Warn("admin auth failed",
					slog.String("reason", "invalid_key"),
					slog.String("ip", r.RemoteAddr),
					slog.String("request_id", GetRequestID(r.Context())),
				)
				writeAdminError(w)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func writeAdminError(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_, _ = w.Write([]byte(`{"error":"Invalid or missing admin key","code":"UNAUTHORIZED"}`))
}
