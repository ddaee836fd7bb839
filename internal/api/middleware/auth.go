// Package middleware provides HTTP middleware for the reports API.
package middleware

import (
	"context"
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/Rishi-Sarmah/hrms-protocole/internal/api/response"
)

type contextKey string

// UserIDContextKey is the context key holding the authenticated caller's user ID.
const UserIDContextKey contextKey = "user_id"

// Auth validates the static API key from the Authorization header and binds
// the caller identity from X-User-ID into the request context. Every session
// read and retrieval downstream is scoped to that identity.
func Auth(apiKey string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				response.RespondUnauthorized(w, "Missing Authorization header")
				return
			}

			// Expected format: "Bearer <api-key>"
			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
				response.RespondUnauthorized(w, "Invalid Authorization header format. Expected: Bearer <api-key>")
				return
			}

			if subtle.ConstantTimeCompare([]byte(parts[1]), []byte(apiKey)) != 1 {
				response.RespondUnauthorized(w, "Invalid API key")
				return
			}

			userID := strings.TrimSpace(r.Header.Get("X-User-ID"))
			if userID == "" {
				response.RespondUnauthorized(w, "Missing X-User-ID header")
				return
			}

			ctx := context.WithValue(r.Context(), UserIDContextKey, userID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// UserID returns the authenticated user ID from the request context, or ""
// when the request did not pass through Auth.
func UserID(ctx context.Context) string {
	id, _ := ctx.Value(UserIDContextKey).(string)

	return id
}
