package repository

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/mojoplatform/mojoauth/internal/models"
)

// User repository interface
type UserRepo interface {
	// Create user
	// If user with the same email exists must return apperrors.ErrUserAlreadyExists
	CreateUser(ctx context.Context, params CreateUserParams) (models.User, error)

	// Get user by id or email
	// If user not found must return apperrors.ErrUserNotFound
	GetUserByID(ctx context.Context, userID uuid.UUID) (models.User, error)
	GetUserByEmail(ctx context.Context, email string) (models.User, error)

	ListUsers(ctx context.Context) ([]models.User, error)

	// Replace the stored password hash
	UpdatePassword(ctx context.Context, userID uuid.UUID, hashedPassword string) error

	// Flip the active flag; deactivation also stamps deleted_at
	SetActive(ctx context.Context, userID uuid.UUID, active bool) error
}

type CreateUserParams struct {
	Email          string
	HashedPassword string
	Role           models.Role
}

type ProfileRepo interface {
	// Create empty profile row for the user
	CreateProfile(ctx context.Context, profile models.Profile) (models.Profile, error)

	// If profile not found must return apperrors.ErrUserNotFound
	GetProfile(ctx context.Context, userID uuid.UUID) (models.Profile, error)

	// Replace the profile fields and stamp updated_at
	// If profile not found must return apperrors.ErrUserNotFound
	UpdateProfile(ctx context.Context, profile models.Profile) (models.Profile, error)
}

// Verification code repository interface
type VerificationCodeRepo interface {
	// Save new code for the user
	CreateCode(ctx context.Context, code models.VerificationCode) (models.VerificationCode, error)

	// Get the single unused code for the user, locked for update inside a tx.
	// If no unused code exists must return apperrors.ErrCodeInvalidOrExpired
	GetUnusedCode(ctx context.Context, userID uuid.UUID) (models.VerificationCode, error)

	// Mark the code used. Must not flip codes that are used already
	MarkCodeUsed(ctx context.Context, codeID uuid.UUID) error

	// Drop all unused codes for the user, returns number of deleted rows
	DeleteUnusedCodes(ctx context.Context, userID uuid.UUID) (int64, error)

	// Drop codes that are used or expired at the given moment
	DeleteDeadCodes(ctx context.Context, now time.Time) (int64, error)
}

// Revoked token ledger.
// Keyed by the raw token string: no opaque token id is minted anywhere
type BlacklistRepo interface {
	// Idempotent: revoking a revoked token is a no-op
	Revoke(ctx context.Context, token string, now time.Time) error

	IsRevoked(ctx context.Context, token string) (bool, error)

	// Drop entries revoked before the given moment.
	// Safe once every token signed before it has expired anyway
	DeleteRevokedBefore(ctx context.Context, before time.Time) (int64, error)
}

// Storage aggregates all repositories over a single connection or transaction
type Storage interface {
	User() UserRepo
	Profile() ProfileRepo
	VerificationCode() VerificationCodeRepo
	Blacklist() BlacklistRepo

	// Run fn inside a database transaction.
	// The storage passed to fn operates on the transaction connection
	InTx(ctx context.Context, fn func(s Storage) error) error
}
