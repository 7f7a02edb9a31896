package tenants

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/affinet/affinet/internal/authz"
	"github.com/affinet/affinet/internal/platform/httpx"
)

// Handler exposes tenant administration endpoints.
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

// MountRoutes registers tenant routes with their authorization guards.
func (h *Handler) MountRoutes(r chi.Router) {
	r.With(h.guard.Require(authz.ActionView, authz.KindTenant)).Get("/", h.list)
	r.With(h.guard.Require(authz.ActionView, authz.KindTenant)).Get("/tiers", h.listTiers)
	r.With(h.guard.Require(authz.ActionCreate, authz.KindTenant)).Post("/", h.create)
	r.With(h.guard.Require(authz.ActionView, authz.KindTenant)).Get("/{id}", h.get)
	r.With(h.guard.Require(authz.ActionUpdate, authz.KindTenant)).Patch("/{id}", h.rename)
	r.With(h.guard.Require(authz.ActionUpdate, authz.KindTenant)).Put("/{id}/status", h.changeStatus)
	r.With(h.guard.Require(authz.ActionManageBilling, authz.KindTenant)).Put("/{id}/billing", h.changeTier)
}

type createTenantRequest struct {
	Name               string  `json:"name" validate:"required,min=2,max=120"`
	SubscriptionTierID *string `json:"subscription_tier_id,omitempty" validate:"omitempty,uuid"`
}

type renameTenantRequest struct {
	Name string `json:"name" validate:"required,min=2,max=120"`
}

type changeStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=trial active suspended cancelled"`
}

type changeTierRequest struct {
	SubscriptionTierID string `json:"subscription_tier_id" validate:"required,uuid"`
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	decision, _ := authz.DecisionFromContext(r.Context())
	items, err := h.service.List(r.Context(), decision.Scope)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"tenants": items})
}

func (h *Handler) listTiers(w http.ResponseWriter, r *http.Request) {
	tiers, err := h.service.ListTiers(r.Context())
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"tiers": tiers})
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid tenant id")
		return
	}
	decision, _ := authz.DecisionFromContext(r.Context())
	t, err := h.service.Get(r.Context(), decision.Scope, id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, t)
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	var req createTenantRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	var tierID *uuid.UUID
	if req.SubscriptionTierID != nil {
		parsed, err := uuid.Parse(*req.SubscriptionTierID)
		if err != nil {
			httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid subscription tier id")
			return
		}
		tierID = &parsed
	}
	principal, _ := authz.PrincipalFromContext(r.Context())
	t, err := h.service.Create(r.Context(), principal, req.Name, tierID)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, t)
}

func (h *Handler) rename(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid tenant id")
		return
	}
	var req renameTenantRequest
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
	t, err := h.service.Rename(r.Context(), principal, decision.Scope, id, req.Name)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, t)
}

func (h *Handler) changeStatus(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid tenant id")
		return
	}
	var req changeStatusRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	principal, _ := authz.PrincipalFromContext(r.Context())
	t, err := h.service.ChangeStatus(r.Context(), principal, id, SubscriptionStatus(req.Status))
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, t)
}

func (h *Handler) changeTier(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid tenant id")
		return
	}
	var req changeTierRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	tierID, err := uuid.Parse(req.SubscriptionTierID)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid subscription tier id")
		return
	}
	principal, _ := authz.PrincipalFromContext(r.Context())
	decision, _ := authz.DecisionFromContext(r.Context())
	t, err := h.service.ChangeTier(r.Context(), principal, decision.Scope, id, tierID)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, t)
}
