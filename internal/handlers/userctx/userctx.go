package userctx

import (
	"context"

	"github.com/mojoplatform/mojoauth/internal/models"
)

type ctxKey string

const (
	userKey  ctxKey = "user"
	tokenKey ctxKey = "token"
)

// Create a new context with the authenticated user and the raw token
// that proved its identity. The token is kept so handlers can revoke
// exactly the credential that was presented
func New(ctx context.Context, u models.User, token string) context.Context {
	ctx = context.WithValue(ctx, userKey, u)
	return context.WithValue(ctx, tokenKey, token)
}

// Extract the user from the context
func FromContext(ctx context.Context) (models.User, bool) {
	u, ok := ctx.Value(userKey).(models.User)
	return u, ok
}

// Extract the raw bearer token from the context
func TokenFromContext(ctx context.Context) (string, bool) {
	t, ok := ctx.Value(tokenKey).(string)
	return t, ok
}
