package user

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/mojoplatform/mojoauth/internal/apperrors"
	"github.com/mojoplatform/mojoauth/internal/models"
	"github.com/mojoplatform/mojoauth/internal/repository"
	"github.com/mojoplatform/mojoauth/internal/service/auth"
)

type UserService struct {
	hasher  auth.PasswordHasher
	storage repository.Storage
}

func NewService(hasher auth.PasswordHasher, storage repository.Storage) *UserService {
	if hasher == nil {
		hasher = auth.DefaultHasher
	}

	return &UserService{
		hasher:  hasher,
		storage: storage,
	}
}

// CreateUser registers a new account with the requested role on behalf of
// the actor. The role rule is checked before anything is written: the
// actor may only mint roles its own role can assign
func (s *UserService) CreateUser(ctx context.Context, actor models.User, email string, password string, role models.Role) (models.User, error) {
	var user models.User

	if !actor.Role.CanAssign(role) {
		return user, fmt.Errorf("%w: role %s can't assign role %s", apperrors.ErrPermissionDenied, actor.Role, role)
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		return user, fmt.Errorf("can't use this as password, Err: %w", err)
	}

	// User and its profile row are created atomically
	err = s.storage.InTx(ctx, func(st repository.Storage) error {
		user, err = st.User().CreateUser(ctx, repository.CreateUserParams{
			Email:          email,
			HashedPassword: hash,
			Role:           role,
		})
		if err != nil {
			return err
		}

		_, err = st.Profile().CreateProfile(ctx, models.Profile{UserID: user.ID})
		return err
	})
	if err != nil {
		return user, err
	}

	return user, nil
}

func (s *UserService) GetUser(ctx context.Context, userID uuid.UUID) (models.User, error) {
	return s.storage.User().GetUserByID(ctx, userID)
}

func (s *UserService) GetProfile(ctx context.Context, userID uuid.UUID) (models.Profile, error) {
	return s.storage.Profile().GetProfile(ctx, userID)
}

// UpdateProfile replaces the profile of userID with the given fields.
// Users edit their own profile freely; editing someone else requires the
// right to assign the target's role, same as deactivation
func (s *UserService) UpdateProfile(ctx context.Context, actor models.User, userID uuid.UUID, changes models.Profile) (models.Profile, error) {
	if actor.ID != userID {
		target, err := s.storage.User().GetUserByID(ctx, userID)
		if err != nil {
			return models.Profile{}, err
		}

		if !actor.Role.CanAssign(target.Role) {
			return models.Profile{}, fmt.Errorf("%w: role %s can't manage role %s", apperrors.ErrPermissionDenied, actor.Role, target.Role)
		}
	}

	changes.UserID = userID
	return s.storage.Profile().UpdateProfile(ctx, changes)
}

func (s *UserService) ListUsers(ctx context.Context, actor models.User) ([]models.User, error) {
	if !actor.Role.AtLeast(models.RoleAdmin) {
		return nil, fmt.Errorf("%w: admin role required", apperrors.ErrPermissionDenied)
	}

	return s.storage.User().ListUsers(ctx)
}

// DeactivateUser flips the account inactive. Deactivating an elevated
// account requires the right to assign its role in the first place
func (s *UserService) DeactivateUser(ctx context.Context, actor models.User, userID uuid.UUID) error {
	target, err := s.storage.User().GetUserByID(ctx, userID)
	if err != nil {
		return err
	}

	if !actor.Role.CanAssign(target.Role) {
		return fmt.Errorf("%w: role %s can't manage role %s", apperrors.ErrPermissionDenied, actor.Role, target.Role)
	}

	return s.storage.User().SetActive(ctx, userID, false)
}
