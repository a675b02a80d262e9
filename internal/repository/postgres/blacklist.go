package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
)

type BlacklistRepo struct {
	DB DBTX
}

const revokeToken = `-- name: RevokeToken
INSERT INTO token_blacklist (token, created_at)
VALUES ($1, $2)
ON CONFLICT (token) DO NOTHING
`

// Revoke token by its raw string. Idempotent
func (r *BlacklistRepo) Revoke(ctx context.Context, token string, now time.Time) error {
	_, err := r.DB.Exec(ctx, revokeToken, token, now)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

const isRevoked = `-- name: IsRevoked
SELECT EXISTS (SELECT 1 FROM token_blacklist WHERE token = $1)
`

func (r *BlacklistRepo) IsRevoked(ctx context.Context, token string) (bool, error) {
	rows, _ := r.DB.Query(ctx, isRevoked, token)
	revoked, err := pgx.CollectOneRow(rows, pgx.RowTo[bool])
	if err != nil {
		return false, fmt.Errorf("db error: %w", err)
	}
	return revoked, nil
}

const deleteRevokedBefore = `-- name: deleteRevokedBefore
DELETE FROM token_blacklist
WHERE created_at < $1
`

func (r *BlacklistRepo) DeleteRevokedBefore(ctx context.Context, before time.Time) (int64, error) {
	tag, err := r.DB.Exec(ctx, deleteRevokedBefore, before)
	if err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	return tag.RowsAffected(), nil
}
