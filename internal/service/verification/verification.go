package verification

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"fmt"
	"math/big"
	"time"

	"github.com/google/uuid"

	"github.com/mojoplatform/mojoauth/internal/apperrors"
	"github.com/mojoplatform/mojoauth/internal/models"
	"github.com/mojoplatform/mojoauth/internal/repository"
)

const (
	codeLength = 6
	defaultTTL = 10 * time.Minute
)

type Config struct {
	// Code lifetime. If not set then default 10 minutes is used
	TTL time.Duration
}

// Manager issues and consumes short-lived email verification codes.
// Invariant: at most one unused unexpired code exists per user, both issue
// and consume run inside a storage transaction to hold it under concurrent
// login attempts for the same account
type Manager struct {
	ttl     time.Duration
	storage repository.Storage
}

func New(cfg Config, storage repository.Storage) (*Manager, error) {
	if storage == nil {
		return nil, fmt.Errorf("storage must not be nil")
	}

	if cfg.TTL == 0 {
		cfg.TTL = defaultTTL
	}

	return &Manager{
		ttl:     cfg.TTL,
		storage: storage,
	}, nil
}

// Issue new code for the user and invalidate all previous unused ones
func (m *Manager) Issue(ctx context.Context, userID uuid.UUID) (models.VerificationCode, error) {
	value, err := generateCode()
	if err != nil {
		return models.VerificationCode{}, fmt.Errorf("error while generating code. Err: %w", err)
	}

	now := time.Now().Truncate(time.Second)
	code := models.VerificationCode{
		ID:        uuid.New(),
		UserID:    userID,
		Code:      value,
		CreatedAt: now,
		ExpiresAt: now.Add(m.ttl),
		IsUsed:    false,
	}

	err = m.storage.InTx(ctx, func(s repository.Storage) error {
		if _, err := s.VerificationCode().DeleteUnusedCodes(ctx, userID); err != nil {
			return err
		}

		saved, err := s.VerificationCode().CreateCode(ctx, code)
		if err != nil {
			return err
		}

		code = saved
		return nil
	})
	if err != nil {
		return models.VerificationCode{}, fmt.Errorf("error while saving verification code. Err: %w", err)
	}

	return code, nil
}

// Consume the code: single use, expired or mismatched codes fail with
// apperrors.ErrCodeInvalidOrExpired
func (m *Manager) Consume(ctx context.Context, userID uuid.UUID, code string) error {
	return m.storage.InTx(ctx, func(s repository.Storage) error {
		stored, err := s.VerificationCode().GetUnusedCode(ctx, userID)
		if err != nil {
			return err
		}

		if subtle.ConstantTimeCompare([]byte(stored.Code), []byte(code)) != 1 {
			return apperrors.ErrCodeInvalidOrExpired
		}

		if time.Now().After(stored.ExpiresAt) {
			return apperrors.ErrCodeInvalidOrExpired
		}

		return s.VerificationCode().MarkCodeUsed(ctx, stored.ID)
	})
}

// Generate uniformly random 6 digit code from crypto rand
func generateCode() (string, error) {
	max := big.NewInt(1)
	for range codeLength {
		max.Mul(max, big.NewInt(10))
	}

	n, err := rand.Int(rand.Reader, max)
	if err != nil {
		return "", err
	}

	return fmt.Sprintf("%06d", n), nil
}
