package authz

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func allActions() []Action {
	return []Action{ActionView, ActionCreate, ActionUpdate, ActionDelete, ActionManageUsers, ActionManageBilling}
}

func allKinds() []ResourceKind {
	return []ResourceKind{KindUser, KindNetwork, KindSite, KindTenant}
}

func TestEvaluateSuperAdminAllowsEverything(t *testing.T) {
	for _, action := range allActions() {
		for _, kind := range allKinds() {
			assert.True(t, Evaluate(RoleSuperAdmin, action, kind), "%s on %s", action, kind)
		}
	}
}

func TestEvaluateAdmin(t *testing.T) {
	for _, kind := range []ResourceKind{KindUser, KindNetwork, KindSite} {
		for _, action := range []Action{ActionView, ActionCreate, ActionUpdate, ActionDelete} {
			assert.True(t, Evaluate(RoleAdmin, action, kind), "%s on %s", action, kind)
		}
	}
	assert.True(t, Evaluate(RoleAdmin, ActionManageUsers, KindUser))
	assert.True(t, Evaluate(RoleAdmin, ActionManageBilling, KindTenant))

	// Admins cannot act on the tenant row itself: no self-upgrade.
	assert.False(t, Evaluate(RoleAdmin, ActionCreate, KindTenant))
	assert.False(t, Evaluate(RoleAdmin, ActionUpdate, KindTenant))
	assert.False(t, Evaluate(RoleAdmin, ActionDelete, KindTenant))
}

func TestEvaluateEditor(t *testing.T) {
	for _, kind := range []ResourceKind{KindNetwork, KindSite} {
		assert.True(t, Evaluate(RoleEditor, ActionView, kind))
		assert.True(t, Evaluate(RoleEditor, ActionCreate, kind))
		assert.True(t, Evaluate(RoleEditor, ActionUpdate, kind))
		assert.False(t, Evaluate(RoleEditor, ActionDelete, kind))
	}
	assert.True(t, Evaluate(RoleEditor, ActionView, KindUser))
	assert.False(t, Evaluate(RoleEditor, ActionCreate, KindUser))

	// No user management or billing for editors, on any kind.
	for _, kind := range allKinds() {
		assert.False(t, Evaluate(RoleEditor, ActionManageUsers, kind))
		assert.False(t, Evaluate(RoleEditor, ActionManageBilling, kind))
	}
}

func TestEvaluateViewerIsReadOnly(t *testing.T) {
	for _, kind := range allKinds() {
		assert.True(t, Evaluate(RoleViewer, ActionView, kind))
		for _, action := range allActions() {
			if action == ActionView {
				continue
			}
			assert.False(t, Evaluate(RoleViewer, action, kind), "%s on %s", action, kind)
		}
	}
}

// Any grant for a role must also hold for every higher-ranked role. The one
// deliberate exception is the tenant kind, where admin sits below super_admin
// for mutating actions by design.
func TestPolicyMonotonicity(t *testing.T) {
	roles := Roles()
	for i := 0; i < len(roles)-1; i++ {
		lower, higher := roles[i], roles[i+1]
		for _, action := range allActions() {
			for _, kind := range allKinds() {
				if !Evaluate(lower, action, kind) {
					continue
				}
				if kind == KindTenant && action != ActionView {
					continue
				}
				assert.True(t, Evaluate(higher, action, kind),
					"%s allows %s on %s but %s does not", lower, action, kind, higher)
			}
		}
	}
}

func TestEvaluateDefaultDeny(t *testing.T) {
	assert.False(t, Evaluate(Role("tenant_admin"), ActionView, KindUser))
	assert.False(t, Evaluate(RoleAdmin, Action("export"), KindUser))
	assert.False(t, Evaluate(RoleAdmin, ActionView, ResourceKind("invoice")))
	assert.False(t, Evaluate(RoleSuperAdmin, Action("export"), KindUser))
	assert.False(t, Evaluate(Role(""), Action(""), ResourceKind("")))
}
