package handlers

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	"github.com/mojoplatform/mojoauth/internal/handlers/middleware"
	"github.com/mojoplatform/mojoauth/internal/handlers/render"
	"github.com/mojoplatform/mojoauth/internal/logger"
	"github.com/mojoplatform/mojoauth/internal/models"
	"github.com/mojoplatform/mojoauth/internal/service/auth"
)

// chain applies middlewares in the given order: m1(m2(...(h)))
func chain(h http.Handler, mds ...func(next http.Handler) http.Handler) http.Handler {
	for i := len(mds) - 1; i >= 0; i-- {
		h = mds[i](h)
	}
	return h
}

func NewRouter(
	authService authService,
	userService userService,
	logger logger.Logger,
) http.Handler {
	authMiddleware := middleware.AuthMiddleware(authService)
	adminOnly := middleware.RequireRole(models.RoleAdmin)

	withAuth := func(h http.Handler) http.Handler {
		return authMiddleware(h)
	}
	withAdmin := func(h http.Handler) http.Handler {
		return authMiddleware(adminOnly(h))
	}

	apiauth := http.NewServeMux()

	apiauth.Handle("POST /login", handleLogin(authService, logger))
	apiauth.Handle("POST /verify-code", handleVerifyCode(authService, logger))
	apiauth.Handle("POST /refresh", handleTokenRefresh(authService, logger))
	apiauth.Handle("POST /change-password", withAuth(handleChangePassword(authService, logger)))
	apiauth.Handle("GET /me", withAuth(handleUserMe(userService, logger)))
	apiauth.Handle("PUT /me", withAuth(handleUpdateMyProfile(userService, logger)))

	apiusers := http.NewServeMux()

	apiusers.Handle("POST /", withAuth(handleCreateUser(userService, logger)))
	apiusers.Handle("GET /", withAdmin(handleListUsers(userService, logger)))
	apiusers.Handle("DELETE /{id}", withAdmin(handleDeactivateUser(userService, logger)))
	apiusers.Handle("PUT /{id}/profile", withAuth(handleUpdateUserProfile(userService, logger)))

	root := http.NewServeMux()
	root.Handle("/api/auth/", http.StripPrefix("/api/auth", apiauth))
	root.Handle("/api/users/", http.StripPrefix("/api/users", apiusers))
	root.Handle("GET /health", handleHealth())

	handler := chain(root,
		middleware.LoggerMiddleware(logger),
	)

	return handler
}

func handleHealth() http.Handler {
	type response struct {
		Status string `json:"status"`
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		render.JSON(w, response{Status: "ok"})
	})
}

type authService interface {
	// Check credentials and return either tokens or a pending
	// verification step.
	// Has to return apperrors.ErrInvalidCredentials on any credential
	// failure, without distinguishing the cause
	Login(ctx context.Context, email string, password string) (auth.LoginResult, error)

	// Consume the emailed code and return tokens
	// Has to return apperrors.ErrCodeInvalidOrExpired on any mismatch
	CompleteVerification(ctx context.Context, email string, code string) (models.TokenPair, error)

	// Issue a new access token for a valid refresh token
	Refresh(ctx context.Context, refreshString string) (models.IssuedToken, error)

	// Resolve a bearer token string to its user
	ResolveActor(ctx context.Context, tokenString string) (models.User, error)

	// Change the user password and revoke the presenting token
	ChangePassword(ctx context.Context, user models.User, tokenString string, oldPassword, newPassword, confirm string) error
}

type userService interface {
	// Create user with the given role on behalf of actor
	// Has to return apperrors.ErrPermissionDenied if actor can't assign role
	CreateUser(ctx context.Context, actor models.User, email string, password string, role models.Role) (models.User, error)

	GetProfile(ctx context.Context, userID uuid.UUID) (models.Profile, error)

	// Replace the profile of userID on behalf of actor.
	// Self-edits are always allowed, editing someone else requires the
	// right to assign the target's role
	UpdateProfile(ctx context.Context, actor models.User, userID uuid.UUID, changes models.Profile) (models.Profile, error)

	ListUsers(ctx context.Context, actor models.User) ([]models.User, error)
	DeactivateUser(ctx context.Context, actor models.User, userID uuid.UUID) error
}
