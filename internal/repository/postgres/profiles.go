package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/mojoplatform/mojoauth/internal/apperrors"
	"github.com/mojoplatform/mojoauth/internal/models"
)

type ProfileRepo struct {
	DB DBTX
}

const createProfile = `-- name: CreateProfile
INSERT INTO profiles (user_id, first_name, last_name, phone, address, city, state, zip_code, country)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
RETURNING user_id, first_name, last_name, phone, address, city, state, zip_code, country, created_at, updated_at
`

func (r *ProfileRepo) CreateProfile(ctx context.Context, p models.Profile) (models.Profile, error) {
	rows, _ := r.DB.Query(ctx, createProfile,
		p.UserID, p.FirstName, p.LastName, p.Phone, p.Address, p.City, p.State, p.ZipCode, p.Country,
	)
	profile, err := pgx.CollectOneRow(rows, rowToProfile)
	if err != nil {
		return profile, fmt.Errorf("db error: %w", err)
	}
	return profile, nil
}

const getProfile = `-- name: getProfile
SELECT user_id, first_name, last_name, phone, address, city, state, zip_code, country, created_at, updated_at
FROM profiles
WHERE user_id = $1
`

func (r *ProfileRepo) GetProfile(ctx context.Context, userID uuid.UUID) (models.Profile, error) {
	rows, _ := r.DB.Query(ctx, getProfile, userID)
	profile, err := pgx.CollectOneRow(rows, rowToProfile)

	switch {
	case err == nil:
		return profile, nil
	case errors.Is(err, pgx.ErrNoRows):
		return profile, apperrors.ErrUserNotFound
	default:
		return profile, fmt.Errorf("db error: %w", err)
	}
}

const updateProfile = `-- name: UpdateProfile
UPDATE profiles
SET first_name = $2,
    last_name = $3,
    phone = $4,
    address = $5,
    city = $6,
    state = $7,
    zip_code = $8,
    country = $9,
    updated_at = now()
WHERE user_id = $1
RETURNING user_id, first_name, last_name, phone, address, city, state, zip_code, country, created_at, updated_at
`

func (r *ProfileRepo) UpdateProfile(ctx context.Context, p models.Profile) (models.Profile, error) {
	rows, _ := r.DB.Query(ctx, updateProfile,
		p.UserID, p.FirstName, p.LastName, p.Phone, p.Address, p.City, p.State, p.ZipCode, p.Country,
	)
	profile, err := pgx.CollectOneRow(rows, rowToProfile)

	switch {
	case err == nil:
		return profile, nil
	case errors.Is(err, pgx.ErrNoRows):
		return profile, apperrors.ErrUserNotFound
	default:
		return profile, fmt.Errorf("db error: %w", err)
	}
}

func rowToProfile(row pgx.CollectableRow) (models.Profile, error) {
	var p models.Profile
	err := row.Scan(
		&p.UserID, &p.FirstName, &p.LastName, &p.Phone, &p.Address,
		&p.City, &p.State, &p.ZipCode, &p.Country, &p.CreatedAt, &p.UpdatedAt,
	)
	return p, err
}
