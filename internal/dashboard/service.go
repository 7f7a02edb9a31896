package dashboard

import (
	"context"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/sync/errgroup"

	"github.com/affinet/affinet/internal/authz"
)

// Summary is the aggregated view over everything the caller may see. Counts
// for resource kinds the caller cannot view are nil rather than zero, so the
// response distinguishes "none" from "not yours to ask".
type Summary struct {
	Networks    *int64 `json:"networks,omitempty"`
	Sites       *int64 `json:"sites,omitempty"`
	ActiveUsers *int64 `json:"active_users,omitempty"`
}

// Service aggregates per-kind counts for the dashboard.
type Service struct {
	pool       *pgxpool.Pool
	authorizer *authz.Authorizer
	logger     *slog.Logger
}

// NewService constructs a new Service.
func NewService(pool *pgxpool.Pool, authorizer *authz.Authorizer, logger *slog.Logger) *Service {
	return &Service{pool: pool, authorizer: authorizer, logger: logger}
}

// Summarize runs the per-kind counts concurrently, each under its own row
// filter. A kind the principal cannot view is left out instead of failing
// the whole summary.
func (s *Service) Summarize(ctx context.Context, principal authz.Principal) (*Summary, error) {
	type target struct {
		kind  authz.ResourceKind
		query string
		dest  **int64
	}

	var summary Summary
	targets := []target{
		{authz.KindNetwork, `SELECT COUNT(*) FROM affiliate_networks`, &summary.Networks},
		{authz.KindSite, `SELECT COUNT(*) FROM affiliate_sites`, &summary.Sites},
		{authz.KindUser, `SELECT COUNT(*) FROM users WHERE is_active`, &summary.ActiveUsers},
	}

	g, gctx := errgroup.WithContext(ctx)
	for _, tgt := range targets {
		decision, err := s.authorizer.Authorize(ctx, principal, authz.ActionView, tgt.kind)
		if err != nil {
			return nil, err
		}
		if !decision.Allowed {
			continue
		}
		g.Go(func() error {
			count, err := s.count(gctx, tgt.query, tgt.kind, decision.ScopeFilter)
			if err != nil {
				return err
			}
			*tgt.dest = &count
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return &summary, nil
}

func (s *Service) count(ctx context.Context, base string, kind authz.ResourceKind, filter authz.Predicate) (int64, error) {
	query := base
	connector := ` WHERE `
	if kind == authz.KindUser {
		connector = ` AND `
	}
	clause, args := filter.Clause(1)
	if clause != "" {
		query += connector + clause
	}
	var count int64
	if err := s.pool.QueryRow(ctx, query, args...).Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}
