package auth

import (
	"time"

	"github.com/google/uuid"
)

// User is the persisted account row behind a principal. AuthID is the
// identity the session carries; the row itself is reloaded on every request.
type User struct {
	ID           uuid.UUID
	AuthID       uuid.UUID
	TenantID     *uuid.UUID
	Email        string
	FirstName    *string
	LastName     *string
	Role         string
	PasswordHash string
	IsActive     bool
	LastLogin    *time.Time
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
