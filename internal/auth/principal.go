package auth

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"github.com/affinet/affinet/internal/authz"
	"github.com/affinet/affinet/internal/shared"
)

// Middleware attaches the request principal derived from the session.
type Middleware struct {
	Service *Service
	Logger  *slog.Logger
}

// WithPrincipal loads the users row behind the session's auth identity and
// installs it as the request principal. Requests without a resolvable
// principal continue unauthenticated; the authorization guards deny them.
func (m Middleware) WithPrincipal(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sess := shared.SessionFromContext(r.Context())
		if sess == nil || sess.AuthID() == "" {
			next.ServeHTTP(w, r)
			return
		}
		authID, err := uuid.Parse(sess.AuthID())
		if err != nil {
			if m.Logger != nil {
				m.Logger.Warn("malformed auth id in session", slog.String("session", sess.ID))
			}
			next.ServeHTTP(w, r)
			return
		}
		principal, err := m.Service.PrincipalForAuthID(r.Context(), authID)
		if err != nil {
			if !errors.Is(err, shared.ErrNotFound) && m.Logger != nil {
				m.Logger.Error("principal lookup failed", slog.Any("error", err))
			}
			next.ServeHTTP(w, r)
			return
		}
		ctx := authz.ContextWithPrincipal(r.Context(), principal)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
