package authz

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"github.com/affinet/affinet/internal/observability"
	"github.com/affinet/affinet/internal/platform/httpx"
)

// TenantGate reports whether a tenant can still accept writes. Cancelled
// tenants keep read access but every mutation is refused.
type TenantGate interface {
	TenantWritable(ctx context.Context, id uuid.UUID) (bool, error)
}

// Middleware wires authorization guards for HTTP handlers. Handlers behind a
// guard read the Decision from the request context and hand its ScopeFilter
// to their repository.
type Middleware struct {
	Authorizer *Authorizer
	Tenants    TenantGate
	Metrics    *observability.Metrics
	Logger     *slog.Logger
}

// Require authorizes action on kind before the wrapped handler runs. Denial
// responses carry a generic message on purpose: they must not reveal whether
// a resource exists outside the caller's tenant.
func (m Middleware) Require(action Action, kind ResourceKind) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			principal, ok := PrincipalFromContext(r.Context())
			if !ok {
				m.record(ReasonUnauthenticated)
				m.deny(w, Decision{Reason: ReasonUnauthenticated})
				return
			}
			decision, err := m.Authorizer.Authorize(r.Context(), principal, action, kind)
			if err != nil {
				if m.Logger != nil {
					m.Logger.Error("authorization aborted",
						slog.String("action", string(action)),
						slog.String("kind", string(kind)),
						slog.Any("error", err))
				}
				httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
				return
			}
			if !decision.Allowed {
				m.record(decision.Reason)
				m.deny(w, decision)
				return
			}
			if action.Mutating() && decision.Scope.Kind == ScopeTenant && m.Tenants != nil {
				writable, err := m.Tenants.TenantWritable(r.Context(), decision.Scope.TenantID)
				if err != nil {
					if m.Logger != nil {
						m.Logger.Error("tenant writability lookup failed", slog.Any("error", err))
					}
					httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
					return
				}
				if !writable {
					m.record(ReasonForbidden)
					m.deny(w, Decision{Reason: ReasonForbidden})
					return
				}
			}
			m.record("")
			ctx := ContextWithDecision(r.Context(), decision)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func (m Middleware) deny(w http.ResponseWriter, d Decision) {
	if d.Reason == ReasonUnauthenticated {
		httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", "not permitted")
		return
	}
	httpx.Problem(w, http.StatusForbidden, "Forbidden", "not permitted")
}

func (m Middleware) record(reason Reason) {
	if m.Metrics == nil {
		return
	}
	outcome := "allow"
	if reason != "" {
		outcome = string(reason)
	}
	m.Metrics.RecordDecision(outcome)
}
