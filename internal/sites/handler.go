package sites

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/affinet/affinet/internal/authz"
	"github.com/affinet/affinet/internal/platform/httpx"
)

// Handler exposes affiliate site endpoints.
type Handler struct {
	logger   *slog.Logger
	service  *Service
	guard    authz.Middleware
	validate *validator.Validate
}

// NewHandler builds a Handler instance.
func NewHandler(logger *slog.Logger, service *Service, guard authz.Middleware) *Handler {
	return &Handler{
		logger:   logger,
		service:  service,
		guard:    guard,
		validate: validator.New(),
	}
}

// MountRoutes registers site routes with their authorization guards.
func (h *Handler) MountRoutes(r chi.Router) {
	r.With(h.guard.Require(authz.ActionView, authz.KindSite)).Get("/", h.list)
	r.With(h.guard.Require(authz.ActionCreate, authz.KindSite)).Post("/", h.create)
	r.With(h.guard.Require(authz.ActionView, authz.KindSite)).Get("/{id}", h.get)
	r.With(h.guard.Require(authz.ActionUpdate, authz.KindSite)).Patch("/{id}", h.update)
	r.With(h.guard.Require(authz.ActionDelete, authz.KindSite)).Delete("/{id}", h.delete)
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	decision, _ := authz.DecisionFromContext(r.Context())
	items, err := h.service.List(r.Context(), decision.ScopeFilter)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"sites": items})
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid site id")
		return
	}
	decision, _ := authz.DecisionFromContext(r.Context())
	site, err := h.service.Get(r.Context(), decision.ScopeFilter, id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, site)
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	var req CreateSiteRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	principal, _ := authz.PrincipalFromContext(r.Context())
	decision, _ := authz.DecisionFromContext(r.Context())
	site, err := h.service.Create(r.Context(), principal, decision.Scope, req)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, site)
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid site id")
		return
	}
	var req UpdateSiteRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	principal, _ := authz.PrincipalFromContext(r.Context())
	decision, _ := authz.DecisionFromContext(r.Context())
	site, err := h.service.Update(r.Context(), principal, decision.ScopeFilter, id, req)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, site)
}

func (h *Handler) delete(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid site id")
		return
	}
	principal, _ := authz.PrincipalFromContext(r.Context())
	decision, _ := authz.DecisionFromContext(r.Context())
	if err := h.service.Delete(r.Context(), principal, decision.ScopeFilter, id); err != nil {
		httpx.RespondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
