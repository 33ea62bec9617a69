package auth

import (
	"context"
	"net/http"
	"strings"

	"staff-api/internal/observability"
	"staff-api/internal/response"
)

type Authenticator interface {
	Authenticate(ctx context.Context, token string) (Admin, error)
}

// Middleware rejects requests without a valid bearer token and stores the
// resolved admin in the request context.
func Middleware(authenticator Authenticator, logger *observability.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := strings.TrimSpace(r.Header.Get("Authorization"))
			if header == "" {
				response.Error(w, logger, ErrMissingToken)
				return
			}

			parts := strings.SplitN(header, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
				response.Error(w, logger, ErrInvalidToken)
				return
			}

			admin, err := authenticator.Authenticate(r.Context(), parts[1])
			if err != nil {
				response.Error(w, logger, err)
				return
			}

			next.ServeHTTP(w, r.WithContext(WithAdmin(r.Context(), admin)))
		})
	}
}

// RequireRole admits only the listed roles; it must run after Middleware.
func RequireRole(logger *observability.Logger, roles ...Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			admin, ok := AdminFromContext(r.Context())
			if !ok {
				response.Error(w, logger, ErrMissingToken)
				return
			}
			for _, role := range roles {
				if admin.Role == role {
					next.ServeHTTP(w, r)
					return
				}
			}
			response.Fail(w, http.StatusForbidden, "insufficient role")
		})
	}
}
