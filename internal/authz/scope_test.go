package authz

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

type stubDirectory struct {
	existing map[uuid.UUID]bool
	err      error
}

func (d *stubDirectory) TenantExists(ctx context.Context, id uuid.UUID) (bool, error) {
	if d.err != nil {
		return false, d.err
	}
	return d.existing[id], nil
}

func ptr(id uuid.UUID) *uuid.UUID { return &id }

func TestResolveScopeInactivePrincipal(t *testing.T) {
	resolver := NewResolver(&stubDirectory{}, nil)

	// Even a super admin loses everything once deactivated.
	scope := resolver.ResolveScope(context.Background(), Principal{Role: RoleSuperAdmin, IsActive: false})
	assert.Equal(t, ScopeNone, scope.Kind)
}

func TestResolveScopeSuperAdminIsGlobal(t *testing.T) {
	resolver := NewResolver(&stubDirectory{}, nil)
	scope := resolver.ResolveScope(context.Background(), Principal{Role: RoleSuperAdmin, IsActive: true})
	assert.Equal(t, ScopeGlobal, scope.Kind)
}

func TestResolveScopeMissingTenantID(t *testing.T) {
	resolver := NewResolver(&stubDirectory{}, nil)
	scope := resolver.ResolveScope(context.Background(), Principal{Role: RoleAdmin, IsActive: true})
	assert.Equal(t, ScopeNone, scope.Kind)
}

func TestResolveScopeOrphanedTenantFailsClosed(t *testing.T) {
	resolver := NewResolver(&stubDirectory{existing: map[uuid.UUID]bool{}}, nil)
	scope := resolver.ResolveScope(context.Background(), Principal{
		Role:     RoleAdmin,
		TenantID: ptr(uuid.New()),
		IsActive: true,
	})
	assert.Equal(t, ScopeNone, scope.Kind)
}

func TestResolveScopeDirectoryErrorFailsClosed(t *testing.T) {
	resolver := NewResolver(&stubDirectory{err: errors.New("connection refused")}, nil)
	scope := resolver.ResolveScope(context.Background(), Principal{
		Role:     RoleViewer,
		TenantID: ptr(uuid.New()),
		IsActive: true,
	})
	assert.Equal(t, ScopeNone, scope.Kind)
}

func TestResolveScopeExistingTenant(t *testing.T) {
	tenantID := uuid.New()
	resolver := NewResolver(&stubDirectory{existing: map[uuid.UUID]bool{tenantID: true}}, nil)
	scope := resolver.ResolveScope(context.Background(), Principal{
		Role:     RoleEditor,
		TenantID: ptr(tenantID),
		IsActive: true,
	})
	assert.Equal(t, ScopeTenant, scope.Kind)
	assert.Equal(t, tenantID, scope.TenantID)
}
