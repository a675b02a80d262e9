package handlers

import (
	"errors"
	"net/http"

	"github.com/mojoplatform/mojoauth/internal/apperrors"
	"github.com/mojoplatform/mojoauth/internal/handlers/render"
	"github.com/mojoplatform/mojoauth/internal/handlers/userctx"
	"github.com/mojoplatform/mojoauth/internal/logger"
)

const tokenTypeBearer = "Bearer"

type tokenPairResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
}

func handleLogin(auth authService, l logger.Logger) http.Handler {
	type request struct {
		Email    string `json:"email" validate:"required,email"`
		Password string `json:"password" validate:"required"`
	}
	type pendingResponse struct {
		Pending bool   `json:"pending"`
		Email   string `json:"email"`
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		data, err := render.BindAndValidate[request](w, r)
		if err != nil {
			return
		}

		result, err := auth.Login(r.Context(), data.Email, data.Password)
		if err != nil {
			switch {
			case errors.Is(err, apperrors.ErrInvalidCredentials):
				render.ServiceError(w, "Invalid credentials", http.StatusUnauthorized)
			default:
				l.Error("login failed", "error", err.Error())
				render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
			}
			return
		}

		if result.Pending {
			render.JSON(w, pendingResponse{Pending: true, Email: result.Email})
			return
		}

		render.JSON(w, tokenPairResponse{
			AccessToken:  result.Pair.Access.Value,
			RefreshToken: result.Pair.Refresh.Value,
			TokenType:    tokenTypeBearer,
		})
	})
}

func handleVerifyCode(auth authService, l logger.Logger) http.Handler {
	type request struct {
		Email string `json:"email" validate:"required,email"`
		Code  string `json:"code" validate:"required,len=6,numeric"`
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		data, err := render.BindAndValidate[request](w, r)
		if err != nil {
			return
		}

		pair, err := auth.CompleteVerification(r.Context(), data.Email, data.Code)
		if err != nil {
			switch {
			case errors.Is(err, apperrors.ErrCodeInvalidOrExpired):
				render.ServiceError(w, "Verification code is invalid or expired", http.StatusBadRequest)
			default:
				l.Error("code verification failed", "error", err.Error())
				render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
			}
			return
		}

		render.JSON(w, tokenPairResponse{
			AccessToken:  pair.Access.Value,
			RefreshToken: pair.Refresh.Value,
			TokenType:    tokenTypeBearer,
		})
	})
}

func handleTokenRefresh(auth authService, l logger.Logger) http.Handler {
	type request struct {
		RefreshToken string `json:"refresh_token" validate:"required"`
	}
	type response struct {
		AccessToken string `json:"access_token"`
		TokenType   string `json:"token_type"`
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		data, err := render.BindAndValidate[request](w, r)
		if err != nil {
			return
		}

		access, err := auth.Refresh(r.Context(), data.RefreshToken)
		if err != nil {
			switch {
			case errors.Is(err, apperrors.ErrTokenExpired),
				errors.Is(err, apperrors.ErrTokenMalformed),
				errors.Is(err, apperrors.ErrTokenRevoked),
				errors.Is(err, apperrors.ErrTokenWrongKind),
				errors.Is(err, apperrors.ErrUserNotFound),
				errors.Is(err, apperrors.ErrUserInactive):
				render.ServiceError(w, "Invalid refresh token", http.StatusUnauthorized)
			default:
				l.Error("token refresh failed", "error", err.Error())
				render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
			}
			return
		}

		render.JSON(w, response{AccessToken: access.Value, TokenType: tokenTypeBearer})
	})
}

func handleChangePassword(auth authService, l logger.Logger) http.Handler {
	type request struct {
		OldPassword     string `json:"old_password" validate:"required"`
		NewPassword     string `json:"new_password" validate:"required,min=8"`
		ConfirmPassword string `json:"confirm_password" validate:"required"`
	}
	type response struct {
		Message string `json:"message"`
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, _ := userctx.FromContext(r.Context())
		token, _ := userctx.TokenFromContext(r.Context())

		data, err := render.BindAndValidate[request](w, r)
		if err != nil {
			return
		}

		err = auth.ChangePassword(r.Context(), user, token, data.OldPassword, data.NewPassword, data.ConfirmPassword)
		if err != nil {
			switch {
			case errors.Is(err, apperrors.ErrPasswordMismatch):
				render.ServiceError(w, "Password confirmation mismatch", http.StatusBadRequest)
			case errors.Is(err, apperrors.ErrInvalidCredentials):
				render.ServiceError(w, "Invalid credentials", http.StatusBadRequest)
			default:
				l.Error("password change failed", "error", err.Error())
				render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
			}
			return
		}

		render.JSON(w, response{Message: "Password changed successfully"})
	})
}

func handleUserMe(users userService, l logger.Logger) http.Handler {
	type response struct {
		ID        string `json:"id"`
		Email     string `json:"email"`
		Role      string `json:"role"`
		Active    bool   `json:"active"`
		FirstName string `json:"first_name"`
		LastName  string `json:"last_name"`
		Phone     string `json:"phone"`
		Address   string `json:"address"`
		City      string `json:"city"`
		State     string `json:"state"`
		ZipCode   string `json:"zip_code"`
		Country   string `json:"country"`
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, _ := userctx.FromContext(r.Context())

		profile, err := users.GetProfile(r.Context(), user.ID)
		if err != nil {
			switch {
			case errors.Is(err, apperrors.ErrUserNotFound):
				render.ServiceError(w, "Profile not found", http.StatusNotFound)
			default:
				l.Error("profile fetch failed", "error", err.Error())
				render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
			}
			return
		}

		render.JSON(w, response{
			ID:        user.ID.String(),
			Email:     user.Email,
			Role:      user.Role.String(),
			Active:    user.Active,
			FirstName: profile.FirstName,
			LastName:  profile.LastName,
			Phone:     profile.Phone,
			Address:   profile.Address,
			City:      profile.City,
			State:     profile.State,
			ZipCode:   profile.ZipCode,
			Country:   profile.Country,
		})
	})
}
