package authz

import (
	"context"
	"log/slog"
)

// Authorizer is the single entry point surrounding collaborators call before
// touching tenant-partitioned data. It composes scope resolution, the policy
// table, and the row filter builder; denials short-circuit before any data
// access.
type Authorizer struct {
	resolver *Resolver
	logger   *slog.Logger
}

// NewAuthorizer constructs an Authorizer backed by the tenant directory.
func NewAuthorizer(tenants TenantDirectory, logger *slog.Logger) *Authorizer {
	return &Authorizer{resolver: NewResolver(tenants, logger), logger: logger}
}

// Authorize decides whether principal may perform action on kind. For the
// collection kinds (user, network, site) the decision carries the row filter
// the repository must apply; for the tenant kind the caller is responsible
// for confirming the targeted row matches the decision's scope.
//
// A non-nil error means the filter builder had no rule for the resolved
// scope, which is a programmer error: the request must fail with an internal
// error rather than run an unrestricted query.
func (a *Authorizer) Authorize(ctx context.Context, p Principal, action Action, kind ResourceKind) (Decision, error) {
	scope := a.resolver.ResolveScope(ctx, p)
	if scope.Kind == ScopeNone {
		return Decision{Reason: ReasonUnauthenticated}, nil
	}
	if !Evaluate(p.Role, action, kind) {
		return Decision{Reason: ReasonForbidden, Scope: scope}, nil
	}
	decision := Decision{Allowed: true, Scope: scope}
	if kind != KindTenant {
		filter, err := BuildFilter(scope, kind)
		if err != nil {
			if a.logger != nil {
				a.logger.Error("row filter construction failed",
					slog.String("kind", string(kind)),
					slog.Any("error", err))
			}
			return Decision{Reason: ReasonForbidden, Scope: scope}, err
		}
		decision.ScopeFilter = filter
	}
	return decision, nil
}

// ResolveScope exposes raw scope resolution for callers that need the
// partition without a full decision, such as the dashboard fan-out.
func (a *Authorizer) ResolveScope(ctx context.Context, p Principal) Scope {
	return a.resolver.ResolveScope(ctx, p)
}
