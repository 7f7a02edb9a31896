package app

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/affinet/affinet/internal/auth"
	"github.com/affinet/affinet/internal/dashboard"
	"github.com/affinet/affinet/internal/networks"
	"github.com/affinet/affinet/internal/observability"
	"github.com/affinet/affinet/internal/shared"
	"github.com/affinet/affinet/internal/sites"
	"github.com/affinet/affinet/internal/tenants"
	"github.com/affinet/affinet/internal/users"
	"github.com/affinet/affinet/jobs"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger         *slog.Logger
	Config         *Config
	SessionManager *shared.SessionManager
	CSRFManager    *shared.CSRFManager

	AuthMiddleware auth.Middleware

	AuthHandler      *auth.Handler
	TenantsHandler   *tenants.Handler
	UsersHandler     *users.Handler
	NetworksHandler  *networks.Handler
	SitesHandler     *sites.Handler
	DashboardHandler *dashboard.Handler
	JobHandler       *jobs.Handler

	Metrics *observability.Metrics
}

// NewRouter constructs the chi.Router with Affinet defaults.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger:         params.Logger,
		Config:         params.Config,
		SessionManager: params.SessionManager,
		CSRFManager:    params.CSRFManager,
		Metrics:        params.Metrics,
	}) {
		r.Use(mw)
	}
	r.Use(params.AuthMiddleware.WithPrincipal)

	r.Use(chimw.Logger)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	r.Route("/auth", params.AuthHandler.MountRoutes)
	if params.UsersHandler != nil {
		r.Route("/invitations", params.UsersHandler.MountPublicRoutes)
		r.Route("/users", params.UsersHandler.MountRoutes)
	}
	if params.TenantsHandler != nil {
		r.Route("/tenants", params.TenantsHandler.MountRoutes)
	}
	if params.NetworksHandler != nil {
		r.Route("/networks", params.NetworksHandler.MountRoutes)
	}
	if params.SitesHandler != nil {
		r.Route("/sites", params.SitesHandler.MountRoutes)
	}
	if params.DashboardHandler != nil {
		r.Route("/dashboard", params.DashboardHandler.MountRoutes)
	}
	if params.JobHandler != nil {
		r.Route("/jobs", params.JobHandler.MountRoutes)
	}
	if params.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", params.Metrics.Handler())
	}

	return r
}
