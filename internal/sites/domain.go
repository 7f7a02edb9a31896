package sites

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/affinet/affinet/internal/platform/httpx"
)

var (
	ErrNotFound        = fmt.Errorf("site: %w", httpx.ErrNotFound)
	ErrDuplicateDomain = fmt.Errorf("domain already in use: %w", httpx.ErrDuplicate)
)

// Status is the publishing state of a site.
type Status string

const (
	StatusDraft    Status = "draft"
	StatusActive   Status = "active"
	StatusArchived Status = "archived"
)

// Site is an affiliate site. It carries no tenant column on purpose:
// ownership resolves through its network, so reparenting a site to another
// network moves it with no data rewrite.
type Site struct {
	ID         uuid.UUID  `json:"id"`
	NetworkID  uuid.UUID  `json:"network_id"`
	Name       string     `json:"name"`
	Domain     string     `json:"domain"`
	TemplateID *uuid.UUID `json:"template_id,omitempty"`
	Status     Status     `json:"status"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
}

// CreateSiteRequest creates a site under a network the caller owns.
type CreateSiteRequest struct {
	NetworkID  string  `json:"network_id" validate:"required,uuid"`
	Name       string  `json:"name" validate:"required,min=2,max=120"`
	Domain     string  `json:"domain" validate:"required,fqdn"`
	TemplateID *string `json:"template_id,omitempty" validate:"omitempty,uuid"`
}

// UpdateSiteRequest carries a partial update; nil fields keep their value.
type UpdateSiteRequest struct {
	Name   *string `json:"name,omitempty" validate:"omitempty,min=2,max=120"`
	Domain *string `json:"domain,omitempty" validate:"omitempty,fqdn"`
	Status *string `json:"status,omitempty" validate:"omitempty,oneof=draft active archived"`
}
