package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/mojoplatform/mojoauth/internal/apperrors"
	"github.com/mojoplatform/mojoauth/internal/handlers/render"
	"github.com/mojoplatform/mojoauth/internal/handlers/userctx"
	"github.com/mojoplatform/mojoauth/internal/logger"
	"github.com/mojoplatform/mojoauth/internal/models"
)

type userResponse struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Role      string    `json:"role"`
	Active    bool      `json:"active"`
	CreatedAt time.Time `json:"created_at"`
}

func toUserResponse(u models.User) userResponse {
	return userResponse{
		ID:        u.ID.String(),
		Email:     u.Email,
		Role:      u.Role.String(),
		Active:    u.Active,
		CreatedAt: u.CreatedAt,
	}
}

type profileRequest struct {
	FirstName string `json:"first_name" validate:"max=100"`
	LastName  string `json:"last_name" validate:"max=100"`
	Phone     string `json:"phone" validate:"max=32"`
	Address   string `json:"address" validate:"max=255"`
	City      string `json:"city" validate:"max=100"`
	State     string `json:"state" validate:"max=100"`
	ZipCode   string `json:"zip_code" validate:"max=20"`
	Country   string `json:"country" validate:"max=100"`
}

type profileResponse struct {
	UserID    string    `json:"user_id"`
	FirstName string    `json:"first_name"`
	LastName  string    `json:"last_name"`
	Phone     string    `json:"phone"`
	Address   string    `json:"address"`
	City      string    `json:"city"`
	State     string    `json:"state"`
	ZipCode   string    `json:"zip_code"`
	Country   string    `json:"country"`
	UpdatedAt time.Time `json:"updated_at"`
}

func toProfileResponse(p models.Profile) profileResponse {
	return profileResponse{
		UserID:    p.UserID.String(),
		FirstName: p.FirstName,
		LastName:  p.LastName,
		Phone:     p.Phone,
		Address:   p.Address,
		City:      p.City,
		State:     p.State,
		ZipCode:   p.ZipCode,
		Country:   p.Country,
		UpdatedAt: p.UpdatedAt,
	}
}

// Every field is replaced on update: the request body is the whole profile
func updateProfile(w http.ResponseWriter, r *http.Request, users userService, l logger.Logger, actor models.User, userID uuid.UUID) {
	data, err := render.BindAndValidate[profileRequest](w, r)
	if err != nil {
		return
	}

	profile, err := users.UpdateProfile(r.Context(), actor, userID, models.Profile{
		FirstName: data.FirstName,
		LastName:  data.LastName,
		Phone:     data.Phone,
		Address:   data.Address,
		City:      data.City,
		State:     data.State,
		ZipCode:   data.ZipCode,
		Country:   data.Country,
	})
	if err != nil {
		switch {
		case errors.Is(err, apperrors.ErrPermissionDenied):
			render.ServiceError(w, "Forbidden", http.StatusForbidden)
		case errors.Is(err, apperrors.ErrUserNotFound):
			render.ServiceError(w, "User not found", http.StatusNotFound)
		default:
			l.Error("profile update failed", "error", err.Error())
			render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
		}
		return
	}

	render.JSON(w, toProfileResponse(profile))
}

func handleUpdateMyProfile(users userService, l logger.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		actor, _ := userctx.FromContext(r.Context())

		updateProfile(w, r, users, l, actor, actor.ID)
	})
}

func handleUpdateUserProfile(users userService, l logger.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		actor, _ := userctx.FromContext(r.Context())

		userID, err := uuid.Parse(r.PathValue("id"))
		if err != nil {
			render.ServiceError(w, "Invalid user id", http.StatusBadRequest)
			return
		}

		updateProfile(w, r, users, l, actor, userID)
	})
}

func handleCreateUser(users userService, l logger.Logger) http.Handler {
	type request struct {
		Email    string `json:"email" validate:"required,email"`
		Password string `json:"password" validate:"required,min=8"`
		Role     string `json:"role" validate:"required,oneof=user admin super_admin"`
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		actor, _ := userctx.FromContext(r.Context())

		data, err := render.BindAndValidate[request](w, r)
		if err != nil {
			return
		}

		// Role string is checked by the validator already
		role, err := models.ParseRole(data.Role)
		if err != nil {
			render.ServiceError(w, "Unknown role", http.StatusBadRequest)
			return
		}

		user, err := users.CreateUser(r.Context(), actor, data.Email, data.Password, role)
		if err != nil {
			switch {
			case errors.Is(err, apperrors.ErrPermissionDenied):
				render.ServiceError(w, "Insufficient privileges to assign this role", http.StatusForbidden)
			case errors.Is(err, apperrors.ErrUserAlreadyExists):
				render.ServiceError(w, "User already exists", http.StatusConflict)
			default:
				l.Error("user creation failed", "error", err.Error())
				render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
			}
			return
		}

		render.JSONWithStatus(w, toUserResponse(user), http.StatusCreated)
	})
}

func handleListUsers(users userService, l logger.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		actor, _ := userctx.FromContext(r.Context())

		list, err := users.ListUsers(r.Context(), actor)
		if err != nil {
			switch {
			case errors.Is(err, apperrors.ErrPermissionDenied):
				render.ServiceError(w, "Forbidden", http.StatusForbidden)
			default:
				l.Error("user listing failed", "error", err.Error())
				render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
			}
			return
		}

		response := make([]userResponse, 0, len(list))
		for _, u := range list {
			response = append(response, toUserResponse(u))
		}

		render.JSON(w, response)
	})
}

func handleDeactivateUser(users userService, l logger.Logger) http.Handler {
	type response struct {
		Message string `json:"message"`
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		actor, _ := userctx.FromContext(r.Context())

		userID, err := uuid.Parse(r.PathValue("id"))
		if err != nil {
			render.ServiceError(w, "Invalid user id", http.StatusBadRequest)
			return
		}

		err = users.DeactivateUser(r.Context(), actor, userID)
		if err != nil {
			switch {
			case errors.Is(err, apperrors.ErrPermissionDenied):
				render.ServiceError(w, "Forbidden", http.StatusForbidden)
			case errors.Is(err, apperrors.ErrUserNotFound):
				render.ServiceError(w, "User not found", http.StatusNotFound)
			default:
				l.Error("user deactivation failed", "error", err.Error())
				render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
			}
			return
		}

		render.JSON(w, response{Message: "User deactivated successfully"})
	})
}
