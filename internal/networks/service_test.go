package networks

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
	networks map[uuid.UUID]*Network
}

func newStubRepo() *stubRepo {
	return &stubRepo{networks: map[uuid.UUID]*Network{}}
}

func (r *stubRepo) List(ctx context.Context, filter authz.Predicate) ([]Network, error) {
	out := make([]Network, 0, len(r.networks))
	for _, n := range r.networks {
		out = append(out, *n)
	}
	return out, nil
}

func (r *stubRepo) Get(ctx context.Context, filter authz.Predicate, id uuid.UUID) (*Network, error) {
	n, ok := r.networks[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *n
	return &cp, nil
}

func (r *stubRepo) Create(ctx context.Context, n *Network) error {
	now := time.Now().UTC()
	n.CreatedAt, n.UpdatedAt = now, now
	r.networks[n.ID] = n
	return nil
}

func (r *stubRepo) Update(ctx context.Context, filter authz.Predicate, id uuid.UUID, req UpdateNetworkRequest) (*Network, error) {
	n, ok := r.networks[id]
	if !ok {
		return nil, ErrNotFound
	}
	if req.Name != nil {
		n.Name = *req.Name
	}
	cp := *n
	return &cp, nil
}

func (r *stubRepo) Delete(ctx context.Context, filter authz.Predicate, id uuid.UUID) error {
	if _, ok := r.networks[id]; !ok {
		return ErrNotFound
	}
	delete(r.networks, id)
	return nil
}

func editorPrincipal(tenantID uuid.UUID) authz.Principal {
	return authz.Principal{ID: uuid.New(), Role: authz.RoleEditor, TenantID: &tenantID, IsActive: true}
}

func TestScopedCreatePinsTenant(t *testing.T) {
	tenantID := uuid.New()
	foreign := uuid.New().String()
	svc := NewService(newStubRepo(), nil, nil)

	n, err := svc.Create(context.Background(), editorPrincipal(tenantID),
		authz.Scope{Kind: authz.ScopeTenant, TenantID: tenantID},
		CreateNetworkRequest{Name: "shopnet", TenantID: &foreign})
	require.NoError(t, err)
	assert.Equal(t, tenantID, n.TenantID)
}

func TestGlobalCreateRequiresTenant(t *testing.T) {
	svc := NewService(newStubRepo(), nil, nil)

	_, err := svc.Create(context.Background(),
		authz.Principal{ID: uuid.New(), Role: authz.RoleSuperAdmin, IsActive: true},
		authz.Scope{Kind: authz.ScopeGlobal},
		CreateNetworkRequest{Name: "shopnet"})
	assert.ErrorIs(t, err, ErrTenantRequired)

	id := uuid.New().String()
	n, err := svc.Create(context.Background(),
		authz.Principal{ID: uuid.New(), Role: authz.RoleSuperAdmin, IsActive: true},
		authz.Scope{Kind: authz.ScopeGlobal},
		CreateNetworkRequest{Name: "shopnet", TenantID: &id})
	require.NoError(t, err)
	assert.Equal(t, id, n.TenantID.String())
}

func TestDeleteMissingNetwork(t *testing.T) {
	tenantID := uuid.New()
	svc := NewService(newStubRepo(), nil, nil)

	err := svc.Delete(context.Background(), editorPrincipal(tenantID), authz.Predicate{}, uuid.New())
	assert.ErrorIs(t, err, ErrNotFound)
}
