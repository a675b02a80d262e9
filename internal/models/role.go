package models

import (
	"fmt"

	"github.com/mojoplatform/mojoauth/internal/apperrors"
)

// Role is an ordered privilege level.
// The order matters: every privilege check is a comparison on this scale,
// there must be no string comparisons against role names anywhere else.
type Role string

const (
	RoleUser       Role = "user"
	RoleAdmin      Role = "admin"
	RoleSuperAdmin Role = "super_admin"
)

var roleRank = map[Role]int{
	RoleUser:       1,
	RoleAdmin:      2,
	RoleSuperAdmin: 3,
}

// Parse role from its string representation
func ParseRole(s string) (Role, error) {
	r := Role(s)
	if _, ok := roleRank[r]; !ok {
		return "", fmt.Errorf("%w: %q", apperrors.ErrRoleUnknown, s)
	}
	return r, nil
}

func (r Role) String() string {
	return string(r)
}

// AtLeast reports whether the role satisfies the required minimum level
func (r Role) AtLeast(min Role) bool {
	return roleRank[r] >= roleRank[min]
}

// CanAssign reports whether an actor with this role may create or grant
// the target role. Only super admins may mint elevated accounts, admins
// may create plain users, users may create nobody.
func (r Role) CanAssign(target Role) bool {
	if _, ok := roleRank[target]; !ok {
		return false
	}
	if r == RoleSuperAdmin {
		return true
	}
	return target == RoleUser && r.AtLeast(RoleAdmin)
}
