package middleware

import (
	"context"
	"net/http"

	"github.com/staffphoto/service/internal/response"
)

// SessionCookieName is the cookie carrying the admin session token.
const SessionCookieName = "auth_token"

// contextKey is an unexported type for context keys in this package.
type contextKey string

// AdminKey is the context key for the authenticated admin's username.
const AdminKey contextKey = "admin"

// TokenVerifier validates a session token and returns its subject.
type TokenVerifier interface {
	Verify(token string) (string, error)
}

// RequireSession returns middleware that requires a valid session cookie and
// injects the admin username into the request context.
func RequireSession(v TokenVerifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			cookie, err := r.Cookie(SessionCookieName)
			if err != nil || cookie.Value == "" {
				response.Unauthorized(w, "unauthorized")
				return
			}

			admin, err := v.Verify(cookie.Value)
			if err != nil {
				response.Unauthorized(w, "invalid or expired session")
				return
			}

			ctx := context.WithValue(r.Context(), AdminKey, admin)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// AdminFromContext returns the authenticated admin username, if any.
func AdminFromContext(ctx context.Context) (string, bool) {
	admin, ok := ctx.Value(AdminKey).(string)
	return admin, ok && admin != ""
}
