package postgres

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mojoplatform/mojoauth/internal/apperrors"
	"github.com/mojoplatform/mojoauth/internal/models"
	"github.com/mojoplatform/mojoauth/internal/repository"
	"github.com/mojoplatform/mojoauth/internal/testutil"
)

func Test_VerificationCodeRepo(t *testing.T) {
	t.Parallel()

	pg := testutil.StartPostgresContainer(t)
	t.Cleanup(pg.Terminate)

	// Codes reference users, so every subtest needs one
	createUser := func(t *testing.T, tx pgx.Tx) models.User {
		t.Helper()
		r := UserRepo{DB: tx}
		user, err := r.CreateUser(t.Context(), repository.CreateUserParams{
			Email:          "nk@example.com",
			HashedPassword: "hash",
			Role:           models.RoleUser,
		})
		require.NoError(t, err)
		return user
	}

	newCode := func(userID uuid.UUID, code string) models.VerificationCode {
		now := time.Now().Truncate(time.Microsecond)
		return models.VerificationCode{
			ID:        uuid.New(),
			UserID:    userID,
			Code:      code,
			CreatedAt: now,
			ExpiresAt: now.Add(10 * time.Minute),
		}
	}

	t.Run("create code ok", func(t *testing.T) {
		testutil.WithTx(pg.Pool, t, func(tx pgx.Tx) {
			user := createUser(t, tx)
			r := VerificationCodeRepo{DB: tx}

			saved, err := r.CreateCode(t.Context(), newCode(user.ID, "123456"))

			require.NoError(t, err)
			assert.Equal(t, user.ID, saved.UserID)
			assert.Equal(t, "123456", saved.Code)
			assert.False(t, saved.IsUsed)
		})
	})

	t.Run("get unused code ok", func(t *testing.T) {
		testutil.WithTx(pg.Pool, t, func(tx pgx.Tx) {
			user := createUser(t, tx)
			r := VerificationCodeRepo{DB: tx}

			saved, err := r.CreateCode(t.Context(), newCode(user.ID, "123456"))
			require.NoError(t, err)

			got, err := r.GetUnusedCode(t.Context(), user.ID)

			require.NoError(t, err)
			assert.Equal(t, saved.ID, got.ID)
			assert.Equal(t, "123456", got.Code)
		})
	})

	t.Run("get unused code when none exists fails", func(t *testing.T) {
		testutil.WithTx(pg.Pool, t, func(tx pgx.Tx) {
			user := createUser(t, tx)
			r := VerificationCodeRepo{DB: tx}

			_, err := r.GetUnusedCode(t.Context(), user.ID)

			assert.ErrorIs(t, err, apperrors.ErrCodeInvalidOrExpired, "should return well known error")
		})
	})

	t.Run("mark code used hides it", func(t *testing.T) {
		testutil.WithTx(pg.Pool, t, func(tx pgx.Tx) {
			user := createUser(t, tx)
			r := VerificationCodeRepo{DB: tx}

			saved, err := r.CreateCode(t.Context(), newCode(user.ID, "123456"))
			require.NoError(t, err)

			err = r.MarkCodeUsed(t.Context(), saved.ID)
			require.NoError(t, err)

			_, err = r.GetUnusedCode(t.Context(), user.ID)
			assert.ErrorIs(t, err, apperrors.ErrCodeInvalidOrExpired, "used code should not be returned")
		})
	})

	t.Run("mark used code twice fails", func(t *testing.T) {
		testutil.WithTx(pg.Pool, t, func(tx pgx.Tx) {
			user := createUser(t, tx)
			r := VerificationCodeRepo{DB: tx}

			saved, err := r.CreateCode(t.Context(), newCode(user.ID, "123456"))
			require.NoError(t, err)
			require.NoError(t, r.MarkCodeUsed(t.Context(), saved.ID))

			err = r.MarkCodeUsed(t.Context(), saved.ID)

			assert.ErrorIs(t, err, apperrors.ErrCodeInvalidOrExpired, "should return well known error")
		})
	})

	t.Run("delete dead codes drops used and expired", func(t *testing.T) {
		testutil.WithTx(pg.Pool, t, func(tx pgx.Tx) {
			user := createUser(t, tx)
			r := VerificationCodeRepo{DB: tx}

			expired := newCode(user.ID, "111111")
			expired.ExpiresAt = expired.CreatedAt.Add(-time.Minute)
			_, err := r.CreateCode(t.Context(), expired)
			require.NoError(t, err)

			used, err := r.CreateCode(t.Context(), newCode(user.ID, "222222"))
			require.NoError(t, err)
			require.NoError(t, r.MarkCodeUsed(t.Context(), used.ID))

			_, err = r.CreateCode(t.Context(), newCode(user.ID, "333333"))
			require.NoError(t, err)

			deleted, err := r.DeleteDeadCodes(t.Context(), time.Now())

			require.NoError(t, err)
			assert.Equal(t, int64(2), deleted)

			got, err := r.GetUnusedCode(t.Context(), user.ID)
			require.NoError(t, err)
			assert.Equal(t, "333333", got.Code, "live code should survive")
		})
	})

	t.Run("delete unused codes keeps used ones", func(t *testing.T) {
		testutil.WithTx(pg.Pool, t, func(tx pgx.Tx) {
			user := createUser(t, tx)
			r := VerificationCodeRepo{DB: tx}

			used, err := r.CreateCode(t.Context(), newCode(user.ID, "111111"))
			require.NoError(t, err)
			require.NoError(t, r.MarkCodeUsed(t.Context(), used.ID))

			_, err = r.CreateCode(t.Context(), newCode(user.ID, "222222"))
			require.NoError(t, err)

			deleted, err := r.DeleteUnusedCodes(t.Context(), user.ID)

			require.NoError(t, err)
			assert.Equal(t, int64(1), deleted, "only the unused code should be deleted")
		})
	})
}
