package users

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/affinet/affinet/internal/platform/httpx"
)

var (
	ErrNotFound            = fmt.Errorf("user: %w", httpx.ErrNotFound)
	ErrDuplicateEmail      = fmt.Errorf("email already in use: %w", httpx.ErrDuplicate)
	ErrRoleNotAssignable   = fmt.Errorf("role not assignable: %w", httpx.ErrForbidden)
	ErrSelfDeactivation    = fmt.Errorf("cannot deactivate own account: %w", httpx.ErrValidation)
	ErrTenantRequired      = fmt.Errorf("tenant id required: %w", httpx.ErrValidation)
	ErrInvitationNotFound  = fmt.Errorf("invitation: %w", httpx.ErrNotFound)
	ErrInvitationExpired   = fmt.Errorf("invitation expired: %w", httpx.ErrValidation)
	ErrInvitationAccepted  = fmt.Errorf("invitation already accepted: %w", httpx.ErrValidation)
	ErrDuplicateInvitation = fmt.Errorf("invitation already pending for email: %w", httpx.ErrDuplicate)
)

// User is an account row as exposed to the administration API. The password
// hash never leaves the persistence layer.
type User struct {
	ID        uuid.UUID  `json:"id"`
	AuthID    uuid.UUID  `json:"auth_id"`
	TenantID  *uuid.UUID `json:"tenant_id,omitempty"`
	Email     string     `json:"email"`
	FirstName *string    `json:"first_name,omitempty"`
	LastName  *string    `json:"last_name,omitempty"`
	Role      string     `json:"role"`
	IsActive  bool       `json:"is_active"`
	LastLogin *time.Time `json:"last_login,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// Invitation is a pending offer to join a tenant under a given role.
type Invitation struct {
	ID         uuid.UUID  `json:"id"`
	TenantID   uuid.UUID  `json:"tenant_id"`
	Email      string     `json:"email"`
	Role       string     `json:"role"`
	InvitedBy  uuid.UUID  `json:"invited_by"`
	Token      string     `json:"-"`
	ExpiresAt  time.Time  `json:"expires_at"`
	AcceptedAt *time.Time `json:"accepted_at,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
}

// Pending reports whether the invitation can still be accepted at the given
// time.
func (i Invitation) Pending(now time.Time) bool {
	return i.AcceptedAt == nil && now.Before(i.ExpiresAt)
}
