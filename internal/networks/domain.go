package networks

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/affinet/affinet/internal/platform/httpx"
)

var (
	ErrNotFound       = fmt.Errorf("network: %w", httpx.ErrNotFound)
	ErrDuplicateName  = fmt.Errorf("network name already in use: %w", httpx.ErrDuplicate)
	ErrTenantRequired = fmt.Errorf("tenant id required: %w", httpx.ErrValidation)
)

// Network is an affiliate network owned by a tenant. It is the anchor of the
// ownership chain: sites hang off networks, not off tenants.
type Network struct {
	ID           uuid.UUID `json:"id"`
	TenantID     uuid.UUID `json:"tenant_id"`
	Name         string    `json:"name"`
	Description  *string   `json:"description,omitempty"`
	LogoURL      *string   `json:"logo_url,omitempty"`
	PrimaryColor *string   `json:"primary_color,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// CreateNetworkRequest creates a network. Tenant id is honored only for
// globally scoped callers; scoped callers create inside their own tenant.
type CreateNetworkRequest struct {
	Name         string  `json:"name" validate:"required,min=2,max=120"`
	Description  *string `json:"description,omitempty" validate:"omitempty,max=500"`
	LogoURL      *string `json:"logo_url,omitempty" validate:"omitempty,url"`
	PrimaryColor *string `json:"primary_color,omitempty" validate:"omitempty,hexcolor"`
	TenantID     *string `json:"tenant_id,omitempty" validate:"omitempty,uuid"`
}

// UpdateNetworkRequest carries a partial update; nil fields keep their value.
type UpdateNetworkRequest struct {
	Name         *string `json:"name,omitempty" validate:"omitempty,min=2,max=120"`
	Description  *string `json:"description,omitempty" validate:"omitempty,max=500"`
	LogoURL      *string `json:"logo_url,omitempty" validate:"omitempty,url"`
	PrimaryColor *string `json:"primary_color,omitempty" validate:"omitempty,hexcolor"`
}
