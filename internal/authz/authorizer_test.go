package authz

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestAuthorizer(existing ...uuid.UUID) *Authorizer {
	known := make(map[uuid.UUID]bool, len(existing))
	for _, id := range existing {
		known[id] = true
	}
	return NewAuthorizer(&stubDirectory{existing: known}, nil)
}

func TestAuthorizeViewerCannotDeleteSites(t *testing.T) {
	tenantID := uuid.New()
	authorizer := newTestAuthorizer(tenantID)

	decision, err := authorizer.Authorize(context.Background(), Principal{
		Role:     RoleViewer,
		TenantID: ptr(tenantID),
		IsActive: true,
	}, ActionDelete, KindSite)
	require.NoError(t, err)
	assert.False(t, decision.Allowed)
	assert.Equal(t, ReasonForbidden, decision.Reason)
}

func TestAuthorizeAdminViewsSitesThroughNetworkEdge(t *testing.T) {
	tenantID := uuid.New()
	authorizer := newTestAuthorizer(tenantID)

	decision, err := authorizer.Authorize(context.Background(), Principal{
		Role:     RoleAdmin,
		TenantID: ptr(tenantID),
		IsActive: true,
	}, ActionView, KindSite)
	require.NoError(t, err)
	require.True(t, decision.Allowed)

	clause, args := decision.ScopeFilter.Clause(1)
	assert.Equal(t, "network_id IN (SELECT id FROM affiliate_networks WHERE tenant_id = $1)", clause)
	assert.Equal(t, []any{tenantID}, args)
}

func TestAuthorizeSuperAdminViewsUsersUnrestricted(t *testing.T) {
	authorizer := newTestAuthorizer()

	decision, err := authorizer.Authorize(context.Background(), Principal{
		Role:     RoleSuperAdmin,
		IsActive: true,
	}, ActionView, KindUser)
	require.NoError(t, err)
	require.True(t, decision.Allowed)
	assert.Equal(t, ScopeGlobal, decision.Scope.Kind)
	assert.True(t, decision.ScopeFilter.IsEmpty())
}

func TestAuthorizeEditorCannotManageUsers(t *testing.T) {
	tenantID := uuid.New()
	authorizer := newTestAuthorizer(tenantID)
	principal := Principal{Role: RoleEditor, TenantID: ptr(tenantID), IsActive: true}

	for _, kind := range allKinds() {
		decision, err := authorizer.Authorize(context.Background(), principal, ActionManageUsers, kind)
		require.NoError(t, err)
		assert.False(t, decision.Allowed, "manage_users on %s", kind)
		assert.Equal(t, ReasonForbidden, decision.Reason)
	}
}

func TestAuthorizeInactivePrincipalIsUnauthenticated(t *testing.T) {
	tenantID := uuid.New()
	authorizer := newTestAuthorizer(tenantID)

	decision, err := authorizer.Authorize(context.Background(), Principal{
		Role:     RoleAdmin,
		TenantID: ptr(tenantID),
		IsActive: false,
	}, ActionView, KindNetwork)
	require.NoError(t, err)
	assert.False(t, decision.Allowed)
	assert.Equal(t, ReasonUnauthenticated, decision.Reason)
}

func TestAuthorizeOrphanedPrincipalIsUnauthenticated(t *testing.T) {
	authorizer := newTestAuthorizer() // no tenants exist

	decision, err := authorizer.Authorize(context.Background(), Principal{
		Role:     RoleAdmin,
		TenantID: ptr(uuid.New()),
		IsActive: true,
	}, ActionView, KindNetwork)
	require.NoError(t, err)
	assert.False(t, decision.Allowed)
	assert.Equal(t, ReasonUnauthenticated, decision.Reason)
}

func TestAuthorizeUnknownRoleIsForbidden(t *testing.T) {
	tenantID := uuid.New()
	authorizer := newTestAuthorizer(tenantID)

	decision, err := authorizer.Authorize(context.Background(), Principal{
		Role:     Role("tenant_admin"),
		TenantID: ptr(tenantID),
		IsActive: true,
	}, ActionView, KindNetwork)
	require.NoError(t, err)
	assert.False(t, decision.Allowed)
	assert.Equal(t, ReasonForbidden, decision.Reason)
}

func TestAuthorizeTenantKindCarriesNoFilter(t *testing.T) {
	tenantID := uuid.New()
	authorizer := newTestAuthorizer(tenantID)

	decision, err := authorizer.Authorize(context.Background(), Principal{
		Role:     RoleAdmin,
		TenantID: ptr(tenantID),
		IsActive: true,
	}, ActionManageBilling, KindTenant)
	require.NoError(t, err)
	require.True(t, decision.Allowed)

	// The caller confirms the targeted tenant row against the scope instead.
	assert.True(t, decision.ScopeFilter.IsEmpty())
	assert.Equal(t, ScopeTenant, decision.Scope.Kind)
	assert.Equal(t, tenantID, decision.Scope.TenantID)
}
