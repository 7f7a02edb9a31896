package authz

import (
	"errors"
	"fmt"
)

// ErrUnknownRole indicates a role token outside the closed set. Callers must
// treat it as a deny, never as a new role.
var ErrUnknownRole = errors.New("authz: unknown role")

// Role is a privilege tier. The set is closed and totally ordered from least
// to most privileged: viewer < editor < admin < super_admin.
type Role string

const (
	RoleViewer     Role = "viewer"
	RoleEditor     Role = "editor"
	RoleAdmin      Role = "admin"
	RoleSuperAdmin Role = "super_admin"
)

var roleRanks = map[Role]int{
	RoleViewer:     0,
	RoleEditor:     1,
	RoleAdmin:      2,
	RoleSuperAdmin: 3,
}

// ParseRole validates a role token coming from the user store. The users
// table stores roles as plain text, so every read passes through here before
// the value is trusted.
func ParseRole(raw string) (Role, error) {
	role := Role(raw)
	if _, ok := roleRanks[role]; !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownRole, raw)
	}
	return role, nil
}

// Valid reports whether the role belongs to the closed set.
func (r Role) Valid() bool {
	_, ok := roleRanks[r]
	return ok
}

// Rank returns the role's position in the privilege order, viewer lowest.
// Unknown roles rank below every valid role.
func (r Role) Rank() int {
	rank, ok := roleRanks[r]
	if !ok {
		return -1
	}
	return rank
}

// AtLeast reports whether r is ranked at or above minimum. An unknown role on
// either side is never sufficient.
func (r Role) AtLeast(minimum Role) bool {
	if !r.Valid() || !minimum.Valid() {
		return false
	}
	return roleRanks[r] >= roleRanks[minimum]
}

// Roles returns every role ordered from least to most privileged.
func Roles() []Role {
	return []Role{RoleViewer, RoleEditor, RoleAdmin, RoleSuperAdmin}
}

// AssignableBy returns the roles strictly below the given role. A caller may
// only hand out roles weaker than its own.
func AssignableBy(r Role) []Role {
	rank := r.Rank()
	if rank <= 0 {
		return nil
	}
	assignable := make([]Role, 0, rank)
	for _, candidate := range Roles() {
		if candidate.Rank() < rank {
			assignable = append(assignable, candidate)
		}
	}
	return assignable
}
