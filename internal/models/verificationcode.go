package models

import (
	"time"

	"github.com/google/uuid"
)

// VerificationCode is a short-lived email confirmation code.
// At most one unused unexpired code may exist per user: issuing a new one
// removes the previous unused codes.
type VerificationCode struct {
	ID        uuid.UUID
	UserID    uuid.UUID
	Code      string
	CreatedAt time.Time
	ExpiresAt time.Time
	IsUsed    bool
}
