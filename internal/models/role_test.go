package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mojoplatform/mojoauth/internal/apperrors"
)

func Test_ParseRole(t *testing.T) {
	t.Parallel()

	t.Run("known roles", func(t *testing.T) {
		for _, s := range []string{"user", "admin", "super_admin"} {
			role, err := ParseRole(s)
			require.NoError(t, err)
			assert.Equal(t, s, role.String())
		}
	})

	t.Run("unknown role", func(t *testing.T) {
		_, err := ParseRole("moderator")
		require.Error(t, err)
		require.ErrorIs(t, err, apperrors.ErrRoleUnknown)
	})
}

func Test_Role_AtLeast(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		role     Role
		min      Role
		expected bool
	}{
		{"user satisfies user", RoleUser, RoleUser, true},
		{"user does not satisfy admin", RoleUser, RoleAdmin, false},
		{"admin satisfies user", RoleAdmin, RoleUser, true},
		{"admin satisfies admin", RoleAdmin, RoleAdmin, true},
		{"admin does not satisfy super admin", RoleAdmin, RoleSuperAdmin, false},
		{"super admin satisfies everything", RoleSuperAdmin, RoleSuperAdmin, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.role.AtLeast(tt.min))
		})
	}
}

func Test_Role_CanAssign(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		actor    Role
		target   Role
		expected bool
	}{
		{"user can not create users", RoleUser, RoleUser, false},
		{"admin can create plain users", RoleAdmin, RoleUser, true},
		{"admin can not create admins", RoleAdmin, RoleAdmin, false},
		{"admin can not create super admins", RoleAdmin, RoleSuperAdmin, false},
		{"super admin can create users", RoleSuperAdmin, RoleUser, true},
		{"super admin can create admins", RoleSuperAdmin, RoleAdmin, true},
		{"super admin can create super admins", RoleSuperAdmin, RoleSuperAdmin, true},
		{"unknown target is never assignable", RoleSuperAdmin, Role("owner"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.actor.CanAssign(tt.target))
		})
	}
}
