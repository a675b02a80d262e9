package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/mojoplatform/mojoauth/internal/apperrors"
	"github.com/mojoplatform/mojoauth/internal/models"
)

type VerificationCodeRepo struct {
	DB DBTX
}

const createCode = `-- name: CreateCode
INSERT INTO verification_codes (id, user_id, code, created_at, expires_at, is_used)
VALUES ($1, $2, $3, $4, $5, $6)
RETURNING id, user_id, code, created_at, expires_at, is_used
`

func (r *VerificationCodeRepo) CreateCode(ctx context.Context, code models.VerificationCode) (models.VerificationCode, error) {
	rows, _ := r.DB.Query(ctx, createCode,
		code.ID, code.UserID, code.Code, code.CreatedAt, code.ExpiresAt, code.IsUsed,
	)
	saved, err := pgx.CollectOneRow(rows, rowToCode)
	if err != nil {
		return saved, fmt.Errorf("db error: %w", err)
	}
	return saved, nil
}

const getUnusedCode = `-- name: getUnusedCode
SELECT id, user_id, code, created_at, expires_at, is_used
FROM verification_codes
WHERE user_id = $1 AND is_used = false
ORDER BY created_at DESC
LIMIT 1
FOR UPDATE
`

// Lock the row so concurrent consume attempts for the same user serialize
func (r *VerificationCodeRepo) GetUnusedCode(ctx context.Context, userID uuid.UUID) (models.VerificationCode, error) {
	rows, _ := r.DB.Query(ctx, getUnusedCode, userID)
	code, err := pgx.CollectOneRow(rows, rowToCode)

	switch {
	case err == nil:
		return code, nil
	case errors.Is(err, pgx.ErrNoRows):
		return code, apperrors.ErrCodeInvalidOrExpired
	default:
		return code, fmt.Errorf("db error: %w", err)
	}
}

const markCodeUsed = `-- name: markCodeUsed
UPDATE verification_codes
SET is_used = true
WHERE id = $1 AND is_used = false
`

func (r *VerificationCodeRepo) MarkCodeUsed(ctx context.Context, codeID uuid.UUID) error {
	tag, err := r.DB.Exec(ctx, markCodeUsed, codeID)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrCodeInvalidOrExpired
	}
	return nil
}

const deleteUnusedCodes = `-- name: deleteUnusedCodes
DELETE FROM verification_codes
WHERE user_id = $1 AND is_used = false
`

func (r *VerificationCodeRepo) DeleteUnusedCodes(ctx context.Context, userID uuid.UUID) (int64, error) {
	tag, err := r.DB.Exec(ctx, deleteUnusedCodes, userID)
	if err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	return tag.RowsAffected(), nil
}

const deleteDeadCodes = `-- name: deleteDeadCodes
DELETE FROM verification_codes
WHERE is_used = true OR expires_at < $1
`

func (r *VerificationCodeRepo) DeleteDeadCodes(ctx context.Context, now time.Time) (int64, error) {
	tag, err := r.DB.Exec(ctx, deleteDeadCodes, now)
	if err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	return tag.RowsAffected(), nil
}

func rowToCode(row pgx.CollectableRow) (models.VerificationCode, error) {
	var c models.VerificationCode
	err := row.Scan(&c.ID, &c.UserID, &c.Code, &c.CreatedAt, &c.ExpiresAt, &c.IsUsed)
	return c, err
}
