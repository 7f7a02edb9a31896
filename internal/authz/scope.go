package authz

import (
	"context"
	"log/slog"

	"github.com/google/uuid"
)

// ScopeKind discriminates the scope variants.
type ScopeKind int

const (
	// ScopeNone means every subsequent check denies.
	ScopeNone ScopeKind = iota
	// ScopeGlobal is unrestricted access, reachable only for super admins.
	ScopeGlobal
	// ScopeTenant binds access to a single tenant partition.
	ScopeTenant
)

// Scope is the set of rows a principal may operate within.
type Scope struct {
	Kind     ScopeKind
	TenantID uuid.UUID // set only when Kind is ScopeTenant
}

// TenantDirectory re-validates that a claimed tenant still exists. The
// session layer is trusted for role and tenant id, but a stale claim pointing
// at a deleted tenant must fail closed rather than open.
type TenantDirectory interface {
	TenantExists(ctx context.Context, id uuid.UUID) (bool, error)
}

// Resolver derives the tenant partition for a principal.
type Resolver struct {
	tenants TenantDirectory
	logger  *slog.Logger
}

// NewResolver constructs a Resolver backed by the given directory.
func NewResolver(tenants TenantDirectory, logger *slog.Logger) *Resolver {
	return &Resolver{tenants: tenants, logger: logger}
}

// ResolveScope maps a principal to its row partition. Inactive principals
// resolve to ScopeNone regardless of role. A tenant-bound principal whose
// tenant is missing also resolves to ScopeNone. A failed directory lookup is
// a terminal deny for this call; retry policy belongs to the caller.
func (r *Resolver) ResolveScope(ctx context.Context, p Principal) Scope {
	if !p.IsActive {
		return Scope{Kind: ScopeNone}
	}
	if p.Role == RoleSuperAdmin {
		return Scope{Kind: ScopeGlobal}
	}
	if p.TenantID == nil {
		return Scope{Kind: ScopeNone}
	}
	exists, err := r.tenants.TenantExists(ctx, *p.TenantID)
	if err != nil {
		if r.logger != nil {
			r.logger.Error("tenant existence lookup failed",
				slog.String("tenant_id", p.TenantID.String()),
				slog.Any("error", err))
		}
		return Scope{Kind: ScopeNone}
	}
	if !exists {
		return Scope{Kind: ScopeNone}
	}
	return Scope{Kind: ScopeTenant, TenantID: *p.TenantID}
}
