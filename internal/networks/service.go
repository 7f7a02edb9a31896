package networks

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	"github.com/affinet/affinet/internal/authz"
	"github.com/affinet/affinet/internal/shared"
)

// Service wraps network business rules.
type Service struct {
	repo   Repository
	usage  *shared.UsageLogger
	logger *slog.Logger
}

// NewService constructs a new Service.
func NewService(repo Repository, usage *shared.UsageLogger, logger *slog.Logger) *Service {
	return &Service{repo: repo, usage: usage, logger: logger}
}

// List returns the networks visible through the caller's row filter.
func (s *Service) List(ctx context.Context, filter authz.Predicate) ([]Network, error) {
	return s.repo.List(ctx, filter)
}

// Get fetches a single visible network.
func (s *Service) Get(ctx context.Context, filter authz.Predicate, id uuid.UUID) (*Network, error) {
	return s.repo.Get(ctx, filter, id)
}

// Create provisions a network. Scoped callers create inside their own tenant
// regardless of what the request claims; global callers must name one.
func (s *Service) Create(ctx context.Context, actor authz.Principal, scope authz.Scope, req CreateNetworkRequest) (*Network, error) {
	var tenantID uuid.UUID
	switch scope.Kind {
	case authz.ScopeTenant:
		tenantID = scope.TenantID
	case authz.ScopeGlobal:
		if req.TenantID == nil {
			return nil, ErrTenantRequired
		}
		parsed, err := uuid.Parse(*req.TenantID)
		if err != nil {
			return nil, ErrTenantRequired
		}
		tenantID = parsed
	default:
		return nil, ErrNotFound
	}

	n := &Network{
		ID:           uuid.New(),
		TenantID:     tenantID,
		Name:         req.Name,
		Description:  req.Description,
		LogoURL:      req.LogoURL,
		PrimaryColor: req.PrimaryColor,
	}
	if err := s.repo.Create(ctx, n); err != nil {
		return nil, err
	}
	s.recordUsage(ctx, actor, "network.create", n.TenantID, n.ID)
	return n, nil
}

// Update applies a partial update to a visible network.
func (s *Service) Update(ctx context.Context, actor authz.Principal, filter authz.Predicate, id uuid.UUID, req UpdateNetworkRequest) (*Network, error) {
	n, err := s.repo.Update(ctx, filter, id, req)
	if err != nil {
		return nil, err
	}
	s.recordUsage(ctx, actor, "network.update", n.TenantID, n.ID)
	return n, nil
}

// Delete removes a visible network and, through the schema, its sites.
func (s *Service) Delete(ctx context.Context, actor authz.Principal, filter authz.Predicate, id uuid.UUID) error {
	n, err := s.repo.Get(ctx, filter, id)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, filter, id); err != nil {
		return err
	}
	s.recordUsage(ctx, actor, "network.delete", n.TenantID, n.ID)
	return nil
}

func (s *Service) recordUsage(ctx context.Context, actor authz.Principal, action string, tenantID, networkID uuid.UUID) {
	if s.usage == nil {
		return
	}
	entry := shared.UsageLog{
		TenantID:     &tenantID,
		UserID:       &actor.ID,
		Action:       action,
		ResourceType: "network",
		ResourceID:   networkID.String(),
	}
	if err := s.usage.Record(ctx, entry); err != nil && s.logger != nil {
		s.logger.Warn("usage log write failed", slog.String("action", action), slog.Any("error", err))
	}
}
