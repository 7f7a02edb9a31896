package users

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/affinet/affinet/internal/authz"
)

type stubRepo struct {
	users       map[uuid.UUID]*User
	invitations map[uuid.UUID]*Invitation
	hashes      map[uuid.UUID]string
}

func newStubRepo() *stubRepo {
	return &stubRepo{
		users:       map[uuid.UUID]*User{},
		invitations: map[uuid.UUID]*Invitation{},
		hashes:      map[uuid.UUID]string{},
	}
}

func (r *stubRepo) List(ctx context.Context, filter authz.Predicate, limit, offset int) ([]User, error) {
	out := make([]User, 0, len(r.users))
	for _, u := range r.users {
		out = append(out, *u)
	}
	return out, nil
}

func (r *stubRepo) Count(ctx context.Context, filter authz.Predicate) (int, error) {
	return len(r.users), nil
}

func (r *stubRepo) Get(ctx context.Context, filter authz.Predicate, id uuid.UUID) (*User, error) {
	u, ok := r.users[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (r *stubRepo) Create(ctx context.Context, u *User, passwordHash string) error {
	for _, existing := range r.users {
		if existing.Email == u.Email {
			return ErrDuplicateEmail
		}
	}
	now := time.Now().UTC()
	u.IsActive = true
	u.CreatedAt, u.UpdatedAt = now, now
	r.users[u.ID] = u
	r.hashes[u.ID] = passwordHash
	return nil
}

func (r *stubRepo) Update(ctx context.Context, filter authz.Predicate, id uuid.UUID, firstName, lastName, role *string) (*User, error) {
	u, ok := r.users[id]
	if !ok {
		return nil, ErrNotFound
	}
	if firstName != nil {
		u.FirstName = firstName
	}
	if lastName != nil {
		u.LastName = lastName
	}
	if role != nil {
		u.Role = *role
	}
	cp := *u
	return &cp, nil
}

func (r *stubRepo) SetActive(ctx context.Context, filter authz.Predicate, id uuid.UUID, active bool) error {
	u, ok := r.users[id]
	if !ok {
		return ErrNotFound
	}
	u.IsActive = active
	return nil
}

func (r *stubRepo) CreateInvitation(ctx context.Context, inv *Invitation) error {
	for _, existing := range r.invitations {
		if existing.Email == inv.Email && existing.AcceptedAt == nil {
			return ErrDuplicateInvitation
		}
	}
	inv.CreatedAt = time.Now().UTC()
	r.invitations[inv.ID] = inv
	return nil
}

func (r *stubRepo) ListInvitations(ctx context.Context, filter authz.Predicate) ([]Invitation, error) {
	out := make([]Invitation, 0, len(r.invitations))
	for _, inv := range r.invitations {
		if inv.AcceptedAt == nil {
			out = append(out, *inv)
		}
	}
	return out, nil
}

func (r *stubRepo) RevokeInvitation(ctx context.Context, filter authz.Predicate, id uuid.UUID) error {
	if _, ok := r.invitations[id]; !ok {
		return ErrInvitationNotFound
	}
	delete(r.invitations, id)
	return nil
}

func (r *stubRepo) FindInvitationByToken(ctx context.Context, token string) (*Invitation, error) {
	for _, inv := range r.invitations {
		if inv.Token == token {
			cp := *inv
			return &cp, nil
		}
	}
	return nil, ErrInvitationNotFound
}

func (r *stubRepo) RedeemInvitation(ctx context.Context, u *User, passwordHash string, invitationID uuid.UUID, at time.Time) error {
	inv, ok := r.invitations[invitationID]
	if !ok {
		return ErrInvitationNotFound
	}
	if inv.AcceptedAt != nil {
		return ErrInvitationAccepted
	}
	if err := r.Create(context.Background(), u, passwordHash); err != nil {
		return err
	}
	inv.AcceptedAt = &at
	return nil
}

func adminPrincipal(tenantID uuid.UUID) authz.Principal {
	return authz.Principal{ID: uuid.New(), Role: authz.RoleAdmin, TenantID: &tenantID, IsActive: true}
}

func superAdminPrincipal() authz.Principal {
	return authz.Principal{ID: uuid.New(), Role: authz.RoleSuperAdmin, IsActive: true}
}

func tenantScope(id uuid.UUID) authz.Scope {
	return authz.Scope{Kind: authz.ScopeTenant, TenantID: id}
}

func newTestService(repo Repository) *Service {
	return NewService(repo, nil, nil, 7*24*time.Hour)
}

func TestCreateAssignsOnlyLowerRoles(t *testing.T) {
	tenantID := uuid.New()
	actor := adminPrincipal(tenantID)
	svc := newTestService(newStubRepo())

	for _, role := range []string{"viewer", "editor"} {
		u, err := svc.Create(context.Background(), actor, tenantScope(tenantID), CreateUserRequest{
			Email:    role + "@acme.test",
			Password: "a long enough password",
			Role:     role,
		})
		require.NoError(t, err, role)
		assert.Equal(t, role, u.Role)
	}

	for _, role := range []string{"admin", "super_admin", "tenant_admin", "owner"} {
		_, err := svc.Create(context.Background(), actor, tenantScope(tenantID), CreateUserRequest{
			Email:    role + "@acme.test",
			Password: "a long enough password",
			Role:     role,
		})
		assert.ErrorIs(t, err, ErrRoleNotAssignable, role)
	}
}

func TestScopedCreatePinsTenant(t *testing.T) {
	tenantID := uuid.New()
	foreign := uuid.New().String()
	actor := adminPrincipal(tenantID)
	svc := newTestService(newStubRepo())

	u, err := svc.Create(context.Background(), actor, tenantScope(tenantID), CreateUserRequest{
		Email:    "editor@acme.test",
		Password: "a long enough password",
		Role:     "editor",
		TenantID: &foreign,
	})
	require.NoError(t, err)
	require.NotNil(t, u.TenantID)
	assert.Equal(t, tenantID, *u.TenantID)
}

func TestGlobalCreateRequiresTenant(t *testing.T) {
	svc := newTestService(newStubRepo())

	_, err := svc.Create(context.Background(), superAdminPrincipal(), authz.Scope{Kind: authz.ScopeGlobal}, CreateUserRequest{
		Email:    "editor@acme.test",
		Password: "a long enough password",
		Role:     "editor",
	})
	assert.ErrorIs(t, err, ErrTenantRequired)
}

func TestCreateStoresHashedPassword(t *testing.T) {
	tenantID := uuid.New()
	repo := newStubRepo()
	svc := newTestService(repo)

	u, err := svc.Create(context.Background(), adminPrincipal(tenantID), tenantScope(tenantID), CreateUserRequest{
		Email:    "editor@acme.test",
		Password: "a long enough password",
		Role:     "editor",
	})
	require.NoError(t, err)

	hash := repo.hashes[u.ID]
	require.NotEmpty(t, hash)
	assert.NotEqual(t, "a long enough password", hash)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(hash), []byte("a long enough password")))
}

func TestDeactivateSelfRejected(t *testing.T) {
	tenantID := uuid.New()
	actor := adminPrincipal(tenantID)
	repo := newStubRepo()
	repo.users[actor.ID] = &User{ID: actor.ID, Email: "admin@acme.test", Role: "admin", IsActive: true}
	svc := newTestService(repo)

	err := svc.Deactivate(context.Background(), actor, authz.Predicate{}, actor.ID)
	assert.ErrorIs(t, err, ErrSelfDeactivation)
	assert.True(t, repo.users[actor.ID].IsActive)
}

func TestRoleChangeChecksAssignability(t *testing.T) {
	tenantID := uuid.New()
	actor := adminPrincipal(tenantID)
	repo := newStubRepo()
	target := &User{ID: uuid.New(), Email: "editor@acme.test", Role: "editor", IsActive: true}
	repo.users[target.ID] = target
	svc := newTestService(repo)

	admin := "admin"
	_, err := svc.Update(context.Background(), actor, authz.Predicate{}, target.ID, UpdateUserRequest{Role: &admin})
	assert.ErrorIs(t, err, ErrRoleNotAssignable)

	viewer := "viewer"
	updated, err := svc.Update(context.Background(), actor, authz.Predicate{}, target.ID, UpdateUserRequest{Role: &viewer})
	require.NoError(t, err)
	assert.Equal(t, "viewer", updated.Role)
}

func TestInviteAndAccept(t *testing.T) {
	tenantID := uuid.New()
	actor := adminPrincipal(tenantID)
	repo := newStubRepo()
	svc := newTestService(repo)

	inv, err := svc.Invite(context.Background(), actor, tenantScope(tenantID), InviteRequest{
		Email: "new@acme.test",
		Role:  "editor",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, inv.Token)
	assert.Equal(t, tenantID, inv.TenantID)
	assert.True(t, inv.ExpiresAt.After(time.Now()))

	u, err := svc.AcceptInvitation(context.Background(), AcceptInvitationRequest{
		Token:    inv.Token,
		Password: "a long enough password",
	})
	require.NoError(t, err)
	assert.Equal(t, "new@acme.test", u.Email)
	assert.Equal(t, "editor", u.Role)
	require.NotNil(t, u.TenantID)
	assert.Equal(t, tenantID, *u.TenantID)

	_, err = svc.AcceptInvitation(context.Background(), AcceptInvitationRequest{
		Token:    inv.Token,
		Password: "a long enough password",
	})
	assert.ErrorIs(t, err, ErrInvitationAccepted)
}

func TestAcceptExpiredInvitation(t *testing.T) {
	tenantID := uuid.New()
	repo := newStubRepo()
	inv := &Invitation{
		ID:        uuid.New(),
		TenantID:  tenantID,
		Email:     "late@acme.test",
		Role:      "viewer",
		InvitedBy: uuid.New(),
		Token:     "expired-token",
		ExpiresAt: time.Now().UTC().Add(-time.Hour),
	}
	repo.invitations[inv.ID] = inv
	svc := newTestService(repo)

	_, err := svc.AcceptInvitation(context.Background(), AcceptInvitationRequest{
		Token:    "expired-token",
		Password: "a long enough password",
	})
	assert.ErrorIs(t, err, ErrInvitationExpired)
}
