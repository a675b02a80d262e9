package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/mojoplatform/mojoauth/internal/handlers/render"
	"github.com/mojoplatform/mojoauth/internal/handlers/userctx"
	"github.com/mojoplatform/mojoauth/internal/models"
)

type authService interface {
	// Resolve bearer token to the user it belongs to
	ResolveActor(ctx context.Context, tokenString string) (models.User, error)
}

// AuthMiddleware extracts the bearer token, resolves it to a user and
// puts both into the request context. Any resolution failure is a plain
// 401: the reason (expired, revoked, malformed) is not surfaced
func AuthMiddleware(as authService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := extractBearer(r.Header.Get("Authorization"))
			if token == "" {
				render.ServiceError(w, "Unauthorized", http.StatusUnauthorized)
				return
			}

			user, err := as.ResolveActor(r.Context(), token)
			if err != nil {
				render.ServiceError(w, "Unauthorized", http.StatusUnauthorized)
				return
			}

			ctx := userctx.New(r.Context(), user, token)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireRole rejects requests whose authenticated user is below the
// minimum role. Must be mounted after AuthMiddleware
func RequireRole(min models.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, ok := userctx.FromContext(r.Context())
			if !ok {
				render.ServiceError(w, "Unauthorized", http.StatusUnauthorized)
				return
			}

			if !user.Role.AtLeast(min) {
				render.ServiceError(w, "Forbidden", http.StatusForbidden)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func extractBearer(header string) string {
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}
