package tenants

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/affinet/affinet/internal/authz"
	"github.com/affinet/affinet/internal/shared"
)

const trialPeriod = 14 * 24 * time.Hour

// Service wraps tenant business rules.
type Service struct {
	repo   Repository
	usage  *shared.UsageLogger
	logger *slog.Logger
}

// NewService constructs a new Service.
func NewService(repo Repository, usage *shared.UsageLogger, logger *slog.Logger) *Service {
	return &Service{repo: repo, usage: usage, logger: logger}
}

// List returns the tenants visible under the given scope. Global scope sees
// every tenant; single-tenant scope sees exactly its own row.
func (s *Service) List(ctx context.Context, scope authz.Scope) ([]Tenant, error) {
	switch scope.Kind {
	case authz.ScopeGlobal:
		return s.repo.List(ctx)
	case authz.ScopeTenant:
		t, err := s.repo.Get(ctx, scope.TenantID)
		if err != nil {
			return nil, err
		}
		return []Tenant{*t}, nil
	default:
		return nil, ErrTenantMismatch
	}
}

// Get fetches a tenant if the scope covers it.
func (s *Service) Get(ctx context.Context, scope authz.Scope, id uuid.UUID) (*Tenant, error) {
	if scope.Kind == authz.ScopeTenant && scope.TenantID != id {
		// Same response as a missing row: existence must not leak across
		// tenant boundaries.
		return nil, ErrNotFound
	}
	return s.repo.Get(ctx, id)
}

// Create provisions a tenant in trial status.
func (s *Service) Create(ctx context.Context, actor authz.Principal, name string, tierID *uuid.UUID) (*Tenant, error) {
	t := NewTrialTenant(name, tierID, trialPeriod)
	if err := s.repo.Create(ctx, t); err != nil {
		return nil, err
	}
	s.recordUsage(ctx, actor, "tenant.create", t.ID)
	return t, nil
}

// Rename updates the tenant's display name.
func (s *Service) Rename(ctx context.Context, actor authz.Principal, scope authz.Scope, id uuid.UUID, name string) (*Tenant, error) {
	if scope.Kind == authz.ScopeTenant && scope.TenantID != id {
		return nil, ErrNotFound
	}
	if err := s.repo.Rename(ctx, id, name); err != nil {
		return nil, err
	}
	s.recordUsage(ctx, actor, "tenant.rename", id)
	return s.repo.Get(ctx, id)
}

// ChangeStatus moves a tenant through the subscription lifecycle. Cancelled
// is terminal and every transition is checked against the current state.
func (s *Service) ChangeStatus(ctx context.Context, actor authz.Principal, id uuid.UUID, next SubscriptionStatus) (*Tenant, error) {
	current, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !current.SubscriptionStatus.CanTransitionTo(next) {
		return nil, ErrInvalidTransition
	}
	if err := s.repo.UpdateStatus(ctx, id, next); err != nil {
		return nil, err
	}
	s.recordUsage(ctx, actor, "tenant.status."+string(next), id)
	return s.repo.Get(ctx, id)
}

// ChangeTier switches the tenant's subscription plan. Scoped callers can only
// manage billing for their own tenant.
func (s *Service) ChangeTier(ctx context.Context, actor authz.Principal, scope authz.Scope, id uuid.UUID, tierID uuid.UUID) (*Tenant, error) {
	if scope.Kind == authz.ScopeTenant && scope.TenantID != id {
		return nil, ErrNotFound
	}
	if err := s.repo.UpdateTier(ctx, id, tierID); err != nil {
		return nil, err
	}
	s.recordUsage(ctx, actor, "tenant.tier_change", id)
	return s.repo.Get(ctx, id)
}

// ListTiers returns the active plans.
func (s *Service) ListTiers(ctx context.Context) ([]SubscriptionTier, error) {
	return s.repo.ListTiers(ctx)
}

// TenantExists implements the directory lookup used during scope resolution.
func (s *Service) TenantExists(ctx context.Context, id uuid.UUID) (bool, error) {
	return s.repo.TenantExists(ctx, id)
}

// TenantWritable implements the write gate consulted before mutations.
func (s *Service) TenantWritable(ctx context.Context, id uuid.UUID) (bool, error) {
	return s.repo.TenantWritable(ctx, id)
}

func (s *Service) recordUsage(ctx context.Context, actor authz.Principal, action string, tenantID uuid.UUID) {
	if s.usage == nil {
		return
	}
	entry := shared.UsageLog{
		TenantID:     &tenantID,
		UserID:       &actor.ID,
		Action:       action,
		ResourceType: "tenant",
		ResourceID:   tenantID.String(),
	}
	if err := s.usage.Record(ctx, entry); err != nil && s.logger != nil {
		s.logger.Warn("usage log write failed", slog.String("action", action), slog.Any("error", err))
	}
}

var (
	_ authz.TenantDirectory = (*Service)(nil)
	_ authz.TenantGate      = (*Service)(nil)
)
