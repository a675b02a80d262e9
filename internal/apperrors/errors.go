package apperrors

import (
	"errors"
)

var (
	ErrUserAlreadyExists = errors.New("user already exists")
	ErrUserNotFound      = errors.New("user not found")
	ErrUserInactive      = errors.New("user is inactive")

	// Login failures are always surfaced as ErrInvalidCredentials,
	// never as ErrUserNotFound, so callers can't probe which emails exist
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrPasswordMismatch   = errors.New("password confirmation mismatch")

	ErrTokenMalformed = errors.New("token is malformed")
	ErrTokenExpired   = errors.New("token is expired")
	ErrTokenRevoked   = errors.New("token is revoked")
	ErrTokenWrongKind = errors.New("token of wrong kind")

	ErrCodeInvalidOrExpired = errors.New("verification code is invalid or expired")

	ErrPermissionDenied = errors.New("permission denied")
	ErrRoleUnknown      = errors.New("unknown role")
)
