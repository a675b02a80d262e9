package verification

import (
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mojoplatform/mojoauth/internal/apperrors"
	"github.com/mojoplatform/mojoauth/internal/models"
	"github.com/mojoplatform/mojoauth/internal/repository"
	"github.com/mojoplatform/mojoauth/internal/repository/postgres"
	"github.com/mojoplatform/mojoauth/internal/testutil"
)

func Test_Manager(t *testing.T) {
	t.Parallel()

	pg := testutil.StartPostgresContainer(t)
	t.Cleanup(pg.Terminate)

	createUser := func(t *testing.T, storage repository.Storage) models.User {
		t.Helper()
		user, err := storage.User().CreateUser(t.Context(), repository.CreateUserParams{
			Email:          "nk@example.com",
			HashedPassword: "hash",
			Role:           models.RoleUser,
		})
		require.NoError(t, err)
		return user
	}

	t.Run("issue generates six digit code", func(t *testing.T) {
		testutil.WithTx(pg.Pool, t, func(tx pgx.Tx) {
			storage := postgres.NewStorage(tx)
			m, err := New(Config{}, storage)
			require.NoError(t, err)
			user := createUser(t, storage)

			code, err := m.Issue(t.Context(), user.ID)

			require.NoError(t, err)
			assert.Len(t, code.Code, 6)
			assert.Regexp(t, `^\d{6}$`, code.Code)
			assert.WithinDuration(t, time.Now().Add(10*time.Minute), code.ExpiresAt, time.Second, "default ttl should be 10 minutes")
		})
	})

	t.Run("issue invalidates previous code", func(t *testing.T) {
		testutil.WithTx(pg.Pool, t, func(tx pgx.Tx) {
			storage := postgres.NewStorage(tx)
			m, err := New(Config{}, storage)
			require.NoError(t, err)
			user := createUser(t, storage)

			first, err := m.Issue(t.Context(), user.ID)
			require.NoError(t, err)
			second, err := m.Issue(t.Context(), user.ID)
			require.NoError(t, err)

			err = m.Consume(t.Context(), user.ID, first.Code)
			if first.Code != second.Code {
				assert.ErrorIs(t, err, apperrors.ErrCodeInvalidOrExpired, "first code should be dead after reissue")
			}

			err = m.Consume(t.Context(), user.ID, second.Code)
			assert.NoError(t, err, "latest code should be consumable")
		})
	})

	t.Run("consume is single use", func(t *testing.T) {
		testutil.WithTx(pg.Pool, t, func(tx pgx.Tx) {
			storage := postgres.NewStorage(tx)
			m, err := New(Config{}, storage)
			require.NoError(t, err)
			user := createUser(t, storage)

			code, err := m.Issue(t.Context(), user.ID)
			require.NoError(t, err)

			require.NoError(t, m.Consume(t.Context(), user.ID, code.Code))

			err = m.Consume(t.Context(), user.ID, code.Code)
			assert.ErrorIs(t, err, apperrors.ErrCodeInvalidOrExpired, "code should not be consumable twice")
		})
	})

	t.Run("consume wrong code fails", func(t *testing.T) {
		testutil.WithTx(pg.Pool, t, func(tx pgx.Tx) {
			storage := postgres.NewStorage(tx)
			m, err := New(Config{}, storage)
			require.NoError(t, err)
			user := createUser(t, storage)

			code, err := m.Issue(t.Context(), user.ID)
			require.NoError(t, err)

			wrong := "000000"
			if code.Code == wrong {
				wrong = "000001"
			}

			err = m.Consume(t.Context(), user.ID, wrong)
			assert.ErrorIs(t, err, apperrors.ErrCodeInvalidOrExpired)

			err = m.Consume(t.Context(), user.ID, code.Code)
			assert.NoError(t, err, "failed attempt should not burn the code")
		})
	})

	t.Run("consume expired code fails", func(t *testing.T) {
		testutil.WithTx(pg.Pool, t, func(tx pgx.Tx) {
			storage := postgres.NewStorage(tx)
			m, err := New(Config{TTL: -time.Minute}, storage)
			require.NoError(t, err)
			user := createUser(t, storage)

			code, err := m.Issue(t.Context(), user.ID)
			require.NoError(t, err)

			err = m.Consume(t.Context(), user.ID, code.Code)
			assert.ErrorIs(t, err, apperrors.ErrCodeInvalidOrExpired, "expired code should be rejected")
		})
	})
}
