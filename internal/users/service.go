package users

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/affinet/affinet/internal/authz"
	"github.com/affinet/affinet/internal/shared"
)

// Service wraps user administration rules. Role strings from requests are
// parsed at this boundary; everything below works with validated roles.
type Service struct {
	repo          Repository
	usage         *shared.UsageLogger
	logger        *slog.Logger
	invitationTTL time.Duration
}

// NewService constructs a new Service.
func NewService(repo Repository, usage *shared.UsageLogger, logger *slog.Logger, invitationTTL time.Duration) *Service {
	return &Service{repo: repo, usage: usage, logger: logger, invitationTTL: invitationTTL}
}

// List returns a page of the users visible through the caller's row filter.
func (s *Service) List(ctx context.Context, filter authz.Predicate, page, perPage int) ([]User, shared.Pagination, error) {
	total, err := s.repo.Count(ctx, filter)
	if err != nil {
		return nil, shared.Pagination{}, err
	}
	meta := shared.NewPagination(page, perPage, total)
	items, err := s.repo.List(ctx, filter, meta.PerPage, (meta.Page-1)*meta.PerPage)
	if err != nil {
		return nil, shared.Pagination{}, err
	}
	return items, meta, nil
}

// Get fetches a single visible user.
func (s *Service) Get(ctx context.Context, filter authz.Predicate, id uuid.UUID) (*User, error) {
	return s.repo.Get(ctx, filter, id)
}

// Create provisions an account. The actor may only hand out roles strictly
// below its own, and scoped actors always create inside their own tenant no
// matter what the request claims.
func (s *Service) Create(ctx context.Context, actor authz.Principal, scope authz.Scope, req CreateUserRequest) (*User, error) {
	role, err := authz.ParseRole(req.Role)
	if err != nil {
		return nil, ErrRoleNotAssignable
	}
	if !assignable(actor.Role, role) {
		return nil, ErrRoleNotAssignable
	}

	tenantID, err := resolveTargetTenant(scope, req.TenantID)
	if err != nil {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	u := &User{
		ID:        uuid.New(),
		AuthID:    uuid.New(),
		TenantID:  tenantID,
		Email:     req.Email,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Role:      string(role),
	}
	if err := s.repo.Create(ctx, u, string(hash)); err != nil {
		return nil, err
	}
	s.recordUsage(ctx, actor, "user.create", u.TenantID, u.ID.String())
	return u, nil
}

// Update applies a partial update. A role change goes through the same
// assignability check as creation.
func (s *Service) Update(ctx context.Context, actor authz.Principal, filter authz.Predicate, id uuid.UUID, req UpdateUserRequest) (*User, error) {
	var role *string
	if req.Role != nil {
		parsed, err := authz.ParseRole(*req.Role)
		if err != nil {
			return nil, ErrRoleNotAssignable
		}
		if !assignable(actor.Role, parsed) {
			return nil, ErrRoleNotAssignable
		}
		str := string(parsed)
		role = &str
	}
	u, err := s.repo.Update(ctx, filter, id, req.FirstName, req.LastName, role)
	if err != nil {
		return nil, err
	}
	s.recordUsage(ctx, actor, "user.update", u.TenantID, u.ID.String())
	return u, nil
}

// Deactivate disables an account. Accounts are never deleted; the row keeps
// its audit trail and the login path rejects inactive users.
func (s *Service) Deactivate(ctx context.Context, actor authz.Principal, filter authz.Predicate, id uuid.UUID) error {
	if actor.ID == id {
		return ErrSelfDeactivation
	}
	if err := s.repo.SetActive(ctx, filter, id, false); err != nil {
		return err
	}
	s.recordUsage(ctx, actor, "user.deactivate", actor.TenantID, id.String())
	return nil
}

// Reactivate re-enables a previously deactivated account.
func (s *Service) Reactivate(ctx context.Context, actor authz.Principal, filter authz.Predicate, id uuid.UUID) error {
	if err := s.repo.SetActive(ctx, filter, id, true); err != nil {
		return err
	}
	s.recordUsage(ctx, actor, "user.reactivate", actor.TenantID, id.String())
	return nil
}

// Invite opens an invitation for an email address under the same role rules
// as direct creation.
func (s *Service) Invite(ctx context.Context, actor authz.Principal, scope authz.Scope, req InviteRequest) (*Invitation, error) {
	role, err := authz.ParseRole(req.Role)
	if err != nil {
		return nil, ErrRoleNotAssignable
	}
	if !assignable(actor.Role, role) {
		return nil, ErrRoleNotAssignable
	}

	tenantID, err := resolveTargetTenant(scope, req.TenantID)
	if err != nil {
		return nil, err
	}
	if tenantID == nil {
		// Invitations join a tenant; a tenant-less account has no row to
		// attach the offer to.
		return nil, ErrRoleNotAssignable
	}

	token, err := generateInvitationToken()
	if err != nil {
		return nil, err
	}
	inv := &Invitation{
		ID:        uuid.New(),
		TenantID:  *tenantID,
		Email:     req.Email,
		Role:      string(role),
		InvitedBy: actor.ID,
		Token:     token,
		ExpiresAt: time.Now().UTC().Add(s.invitationTTL),
	}
	if err := s.repo.CreateInvitation(ctx, inv); err != nil {
		return nil, err
	}
	s.recordUsage(ctx, actor, "user.invite", tenantID, inv.ID.String())
	return inv, nil
}

// ListInvitations returns pending invitations visible through the filter.
func (s *Service) ListInvitations(ctx context.Context, filter authz.Predicate) ([]Invitation, error) {
	return s.repo.ListInvitations(ctx, filter)
}

// RevokeInvitation withdraws a pending invitation.
func (s *Service) RevokeInvitation(ctx context.Context, actor authz.Principal, filter authz.Predicate, id uuid.UUID) error {
	if err := s.repo.RevokeInvitation(ctx, filter, id); err != nil {
		return err
	}
	s.recordUsage(ctx, actor, "user.invitation_revoke", actor.TenantID, id.String())
	return nil
}

// AcceptInvitation redeems a token into a live account carrying the role and
// tenant the invitation was issued for.
func (s *Service) AcceptInvitation(ctx context.Context, req AcceptInvitationRequest) (*User, error) {
	inv, err := s.repo.FindInvitationByToken(ctx, req.Token)
	if err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	if inv.AcceptedAt != nil {
		return nil, ErrInvitationAccepted
	}
	if !now.Before(inv.ExpiresAt) {
		return nil, ErrInvitationExpired
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	u := &User{
		ID:        uuid.New(),
		AuthID:    uuid.New(),
		TenantID:  &inv.TenantID,
		Email:     inv.Email,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Role:      inv.Role,
	}
	if err := s.repo.RedeemInvitation(ctx, u, string(hash), inv.ID, now); err != nil {
		return nil, err
	}
	return u, nil
}

func assignable(actor authz.Role, target authz.Role) bool {
	for _, r := range authz.AssignableBy(actor) {
		if r == target {
			return true
		}
	}
	return false
}

// resolveTargetTenant decides which tenant a new account lands in. Scoped
// callers are pinned to their own partition no matter what the request
// claims; global callers must name one.
func resolveTargetTenant(scope authz.Scope, requested *string) (*uuid.UUID, error) {
	switch scope.Kind {
	case authz.ScopeTenant:
		id := scope.TenantID
		return &id, nil
	case authz.ScopeGlobal:
		if requested == nil {
			return nil, ErrTenantRequired
		}
		id, err := uuid.Parse(*requested)
		if err != nil {
			return nil, ErrTenantRequired
		}
		return &id, nil
	default:
		return nil, ErrNotFound
	}
}

func generateInvitationToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

func (s *Service) recordUsage(ctx context.Context, actor authz.Principal, action string, tenantID *uuid.UUID, resourceID string) {
	if s.usage == nil {
		return
	}
	entry := shared.UsageLog{
		TenantID:     tenantID,
		UserID:       &actor.ID,
		Action:       action,
		ResourceType: "user",
		ResourceID:   resourceID,
	}
	if err := s.usage.Record(ctx, entry); err != nil && s.logger != nil {
		s.logger.Warn("usage log write failed", slog.String("action", action), slog.Any("error", err))
	}
}
