package tenants

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/affinet/affinet/internal/authz"
)

type stubRepo struct {
	tenants map[uuid.UUID]*Tenant
	tiers   []SubscriptionTier
}

func newStubRepo(tenants ...*Tenant) *stubRepo {
	r := &stubRepo{tenants: map[uuid.UUID]*Tenant{}}
	for _, t := range tenants {
		r.tenants[t.ID] = t
	}
	return r
}

func (r *stubRepo) List(ctx context.Context) ([]Tenant, error) {
	out := make([]Tenant, 0, len(r.tenants))
	for _, t := range r.tenants {
		out = append(out, *t)
	}
	return out, nil
}

func (r *stubRepo) Get(ctx context.Context, id uuid.UUID) (*Tenant, error) {
	t, ok := r.tenants[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *t
	return &cp, nil
}

func (r *stubRepo) Create(ctx context.Context, t *Tenant) error {
	now := time.Now().UTC()
	t.CreatedAt, t.UpdatedAt = now, now
	r.tenants[t.ID] = t
	return nil
}

func (r *stubRepo) Rename(ctx context.Context, id uuid.UUID, name string) error {
	t, ok := r.tenants[id]
	if !ok {
		return ErrNotFound
	}
	t.Name = name
	return nil
}

func (r *stubRepo) UpdateStatus(ctx context.Context, id uuid.UUID, status SubscriptionStatus) error {
	t, ok := r.tenants[id]
	if !ok {
		return ErrNotFound
	}
	t.SubscriptionStatus = status
	return nil
}

func (r *stubRepo) UpdateTier(ctx context.Context, id uuid.UUID, tierID uuid.UUID) error {
	t, ok := r.tenants[id]
	if !ok {
		return ErrNotFound
	}
	t.SubscriptionTierID = &tierID
	return nil
}

func (r *stubRepo) ListTiers(ctx context.Context) ([]SubscriptionTier, error) {
	return r.tiers, nil
}

func (r *stubRepo) TenantExists(ctx context.Context, id uuid.UUID) (bool, error) {
	_, ok := r.tenants[id]
	return ok, nil
}

func (r *stubRepo) TenantWritable(ctx context.Context, id uuid.UUID) (bool, error) {
	t, ok := r.tenants[id]
	if !ok {
		return false, nil
	}
	return t.SubscriptionStatus.Writable(), nil
}

func activeTenant(name string) *Tenant {
	return &Tenant{ID: uuid.New(), Name: name, SubscriptionStatus: StatusActive}
}

func globalScope() authz.Scope {
	return authz.Scope{Kind: authz.ScopeGlobal}
}

func tenantScope(id uuid.UUID) authz.Scope {
	return authz.Scope{Kind: authz.ScopeTenant, TenantID: id}
}

func superAdmin() authz.Principal {
	return authz.Principal{ID: uuid.New(), Role: authz.RoleSuperAdmin, IsActive: true}
}

func TestListScopedToOwnTenant(t *testing.T) {
	mine := activeTenant("acme")
	other := activeTenant("globex")
	svc := NewService(newStubRepo(mine, other), nil, nil)

	got, err := svc.List(context.Background(), tenantScope(mine.ID))
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, mine.ID, got[0].ID)

	all, err := svc.List(context.Background(), globalScope())
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestGetOutsideScopeLooksMissing(t *testing.T) {
	mine := activeTenant("acme")
	other := activeTenant("globex")
	svc := NewService(newStubRepo(mine, other), nil, nil)

	_, err := svc.Get(context.Background(), tenantScope(mine.ID), other.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCreateStartsInTrial(t *testing.T) {
	svc := NewService(newStubRepo(), nil, nil)

	created, err := svc.Create(context.Background(), superAdmin(), "acme", nil)
	require.NoError(t, err)
	assert.Equal(t, StatusTrial, created.SubscriptionStatus)
	require.NotNil(t, created.TrialEndsAt)
	assert.True(t, created.TrialEndsAt.After(time.Now()))
}

func TestStatusTransitions(t *testing.T) {
	tests := []struct {
		name    string
		from    SubscriptionStatus
		to      SubscriptionStatus
		allowed bool
	}{
		{"trial to active", StatusTrial, StatusActive, true},
		{"active to suspended", StatusActive, StatusSuspended, true},
		{"suspended to active", StatusSuspended, StatusActive, true},
		{"active to cancelled", StatusActive, StatusCancelled, true},
		{"cancelled is terminal", StatusCancelled, StatusActive, false},
		{"no self transition", StatusActive, StatusActive, false},
		{"unknown target", StatusActive, SubscriptionStatus("paused"), false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			tenant := activeTenant("acme")
			tenant.SubscriptionStatus = tc.from
			svc := NewService(newStubRepo(tenant), nil, nil)

			got, err := svc.ChangeStatus(context.Background(), superAdmin(), tenant.ID, tc.to)
			if tc.allowed {
				require.NoError(t, err)
				assert.Equal(t, tc.to, got.SubscriptionStatus)
			} else {
				assert.ErrorIs(t, err, ErrInvalidTransition)
			}
		})
	}
}

func TestCancelledTenantNotWritable(t *testing.T) {
	tenant := activeTenant("acme")
	tenant.SubscriptionStatus = StatusCancelled
	svc := NewService(newStubRepo(tenant), nil, nil)

	writable, err := svc.TenantWritable(context.Background(), tenant.ID)
	require.NoError(t, err)
	assert.False(t, writable)

	// The row still exists, so scope resolution keeps working for reads.
	exists, err := svc.TenantExists(context.Background(), tenant.ID)
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestChangeTierScopedToOwnTenant(t *testing.T) {
	mine := activeTenant("acme")
	other := activeTenant("globex")
	svc := NewService(newStubRepo(mine, other), nil, nil)
	tier := uuid.New()

	_, err := svc.ChangeTier(context.Background(), superAdmin(), tenantScope(mine.ID), other.ID, tier)
	assert.ErrorIs(t, err, ErrNotFound)

	got, err := svc.ChangeTier(context.Background(), superAdmin(), tenantScope(mine.ID), mine.ID, tier)
	require.NoError(t, err)
	require.NotNil(t, got.SubscriptionTierID)
	assert.Equal(t, tier, *got.SubscriptionTierID)
}
