package sites

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	"github.com/affinet/affinet/internal/authz"
	"github.com/affinet/affinet/internal/shared"
)

// Service wraps site business rules.
type Service struct {
	repo   Repository
	usage  *shared.UsageLogger
	logger *slog.Logger
}

// NewService constructs a new Service.
func NewService(repo Repository, usage *shared.UsageLogger, logger *slog.Logger) *Service {
	return &Service{repo: repo, usage: usage, logger: logger}
}

// List returns the sites visible through the caller's row filter.
func (s *Service) List(ctx context.Context, filter authz.Predicate) ([]Site, error) {
	return s.repo.List(ctx, filter)
}

// Get fetches a single visible site.
func (s *Service) Get(ctx context.Context, filter authz.Predicate, id uuid.UUID) (*Site, error) {
	return s.repo.Get(ctx, filter, id)
}

// Create provisions a site in draft status. The parent network must sit
// inside the caller's partition; a network outside it reads as missing.
func (s *Service) Create(ctx context.Context, actor authz.Principal, scope authz.Scope, req CreateSiteRequest) (*Site, error) {
	networkID, err := uuid.Parse(req.NetworkID)
	if err != nil {
		return nil, ErrNotFound
	}
	networkFilter, err := authz.BuildFilter(scope, authz.KindNetwork)
	if err != nil {
		return nil, err
	}

	site := &Site{
		ID:        uuid.New(),
		NetworkID: networkID,
		Name:      req.Name,
		Domain:    req.Domain,
		Status:    StatusDraft,
	}
	if req.TemplateID != nil {
		parsed, err := uuid.Parse(*req.TemplateID)
		if err != nil {
			return nil, ErrNotFound
		}
		site.TemplateID = &parsed
	}
	if err := s.repo.Create(ctx, networkFilter, site); err != nil {
		return nil, err
	}
	s.recordUsage(ctx, actor, "site.create", site.ID)
	return site, nil
}

// Update applies a partial update to a visible site.
func (s *Service) Update(ctx context.Context, actor authz.Principal, filter authz.Predicate, id uuid.UUID, req UpdateSiteRequest) (*Site, error) {
	site, err := s.repo.Update(ctx, filter, id, req)
	if err != nil {
		return nil, err
	}
	s.recordUsage(ctx, actor, "site.update", site.ID)
	return site, nil
}

// Delete removes a visible site.
func (s *Service) Delete(ctx context.Context, actor authz.Principal, filter authz.Predicate, id uuid.UUID) error {
	if err := s.repo.Delete(ctx, filter, id); err != nil {
		return err
	}
	s.recordUsage(ctx, actor, "site.delete", id)
	return nil
}

func (s *Service) recordUsage(ctx context.Context, actor authz.Principal, action string, siteID uuid.UUID) {
	if s.usage == nil {
		return
	}
	entry := shared.UsageLog{
		TenantID:     actor.TenantID,
		UserID:       &actor.ID,
		Action:       action,
		ResourceType: "site",
		ResourceID:   siteID.String(),
	}
	if err := s.usage.Record(ctx, entry); err != nil && s.logger != nil {
		s.logger.Warn("usage log write failed", slog.String("action", action), slog.Any("error", err))
	}
}
