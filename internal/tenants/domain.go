package tenants

import (
	"time"

	"github.com/google/uuid"
)

// SubscriptionStatus is the lifecycle state of a tenant's subscription.
type SubscriptionStatus string

const (
	StatusTrial     SubscriptionStatus = "trial"
	StatusActive    SubscriptionStatus = "active"
	StatusSuspended SubscriptionStatus = "suspended"
	StatusCancelled SubscriptionStatus = "cancelled"
)

// Valid reports whether the status belongs to the closed set.
func (s SubscriptionStatus) Valid() bool {
	switch s {
	case StatusTrial, StatusActive, StatusSuspended, StatusCancelled:
		return true
	}
	return false
}

// Writable reports whether the tenant may still accept writes. Cancelled is
// terminal: rows stay readable but every mutation is refused.
func (s SubscriptionStatus) Writable() bool {
	return s.Valid() && s != StatusCancelled
}

// CanTransitionTo validates a status change. Cancelled has no way out.
func (s SubscriptionStatus) CanTransitionTo(next SubscriptionStatus) bool {
	if !s.Valid() || !next.Valid() || s == next {
		return false
	}
	if s == StatusCancelled {
		return false
	}
	return true
}

// Tenant is a customer organization owning a partition of networks, sites
// and users.
type Tenant struct {
	ID                 uuid.UUID          `json:"id"`
	Name               string             `json:"name"`
	SubscriptionStatus SubscriptionStatus `json:"subscription_status"`
	SubscriptionTierID *uuid.UUID         `json:"subscription_tier_id,omitempty"`
	TrialEndsAt        *time.Time         `json:"trial_ends_at,omitempty"`
	CreatedAt          time.Time          `json:"created_at"`
	UpdatedAt          time.Time          `json:"updated_at"`
}

// NewTrialTenant builds a tenant in its initial trial state.
func NewTrialTenant(name string, tierID *uuid.UUID, trialPeriod time.Duration) *Tenant {
	ends := time.Now().UTC().Add(trialPeriod)
	return &Tenant{
		ID:                 uuid.New(),
		Name:               name,
		SubscriptionStatus: StatusTrial,
		SubscriptionTierID: tierID,
		TrialEndsAt:        &ends,
	}
}

// SubscriptionTier is read-only reference data describing a plan.
type SubscriptionTier struct {
	ID           uuid.UUID `json:"id"`
	Name         string    `json:"name"`
	Description  *string   `json:"description,omitempty"`
	MaxSites     int       `json:"max_sites"`
	MaxUsers     int       `json:"max_users"`
	PriceMonthly *float64  `json:"price_monthly,omitempty"`
	PriceYearly  *float64  `json:"price_yearly,omitempty"`
	IsActive     bool      `json:"is_active"`
}
