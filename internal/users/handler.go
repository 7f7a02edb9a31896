package users

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/affinet/affinet/internal/authz"
	"github.com/affinet/affinet/internal/platform/httpx"
)

// Handler exposes user administration endpoints.
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

// MountRoutes registers user routes with their authorization guards.
func (h *Handler) MountRoutes(r chi.Router) {
	r.With(h.guard.Require(authz.ActionView, authz.KindUser)).Get("/", h.list)
	r.With(h.guard.Require(authz.ActionCreate, authz.KindUser)).Post("/", h.create)
	r.With(h.guard.Require(authz.ActionManageUsers, authz.KindUser)).Get("/invitations", h.listInvitations)
	r.With(h.guard.Require(authz.ActionManageUsers, authz.KindUser)).Post("/invitations", h.invite)
	r.With(h.guard.Require(authz.ActionManageUsers, authz.KindUser)).Delete("/invitations/{id}", h.revokeInvitation)
	r.With(h.guard.Require(authz.ActionView, authz.KindUser)).Get("/{id}", h.get)
	r.With(h.guard.Require(authz.ActionUpdate, authz.KindUser)).Patch("/{id}", h.update)
	r.With(h.guard.Require(authz.ActionDelete, authz.KindUser)).Delete("/{id}", h.deactivate)
	r.With(h.guard.Require(authz.ActionUpdate, authz.KindUser)).Post("/{id}/reactivate", h.reactivate)
}

// MountPublicRoutes registers the unauthenticated invitation redemption
// endpoint. The token in the body is the credential.
func (h *Handler) MountPublicRoutes(r chi.Router) {
	r.Post("/accept", h.acceptInvitation)
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	decision, _ := authz.DecisionFromContext(r.Context())
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	perPage, _ := strconv.Atoi(r.URL.Query().Get("per_page"))
	items, meta, err := h.service.List(r.Context(), decision.ScopeFilter, page, perPage)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"users": items, "pagination": meta})
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid user id")
		return
	}
	decision, _ := authz.DecisionFromContext(r.Context())
	u, err := h.service.Get(r.Context(), decision.ScopeFilter, id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, u)
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	var req CreateUserRequest
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
	u, err := h.service.Create(r.Context(), principal, decision.Scope, req)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, u)
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid user id")
		return
	}
	var req UpdateUserRequest
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
	u, err := h.service.Update(r.Context(), principal, decision.ScopeFilter, id, req)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, u)
}

func (h *Handler) deactivate(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid user id")
		return
	}
	principal, _ := authz.PrincipalFromContext(r.Context())
	decision, _ := authz.DecisionFromContext(r.Context())
	if err := h.service.Deactivate(r.Context(), principal, decision.ScopeFilter, id); err != nil {
		httpx.RespondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) reactivate(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid user id")
		return
	}
	principal, _ := authz.PrincipalFromContext(r.Context())
	decision, _ := authz.DecisionFromContext(r.Context())
	if err := h.service.Reactivate(r.Context(), principal, decision.ScopeFilter, id); err != nil {
		httpx.RespondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) invite(w http.ResponseWriter, r *http.Request) {
	var req InviteRequest
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
	inv, err := h.service.Invite(r.Context(), principal, decision.Scope, req)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	// The token is returned once, on creation; listings never include it.
	httpx.JSON(w, http.StatusCreated, map[string]any{
		"invitation": inv,
		"token":      inv.Token,
	})
}

func (h *Handler) listInvitations(w http.ResponseWriter, r *http.Request) {
	decision, _ := authz.DecisionFromContext(r.Context())
	items, err := h.service.ListInvitations(r.Context(), decision.ScopeFilter)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"invitations": items})
}

func (h *Handler) revokeInvitation(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid invitation id")
		return
	}
	principal, _ := authz.PrincipalFromContext(r.Context())
	decision, _ := authz.DecisionFromContext(r.Context())
	if err := h.service.RevokeInvitation(r.Context(), principal, decision.ScopeFilter, id); err != nil {
		httpx.RespondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) acceptInvitation(w http.ResponseWriter, r *http.Request) {
	var req AcceptInvitationRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	u, err := h.service.AcceptInvitation(r.Context(), req)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, u)
}
