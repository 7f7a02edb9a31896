package authz

type actionSet map[Action]struct{}

func actions(list ...Action) actionSet {
	set := make(actionSet, len(list))
	for _, a := range list {
		set[a] = struct{}{}
	}
	return set
}

// grants is the explicit policy table. Absence of an entry is a deny; super
// admins bypass the table entirely. Every role can view its own tenant row so
// the privilege order stays monotonic, but mutating the tenant itself is
// reserved for super admins: an admin must not be able to lift its own
// subscription status.
var grants = map[Role]map[ResourceKind]actionSet{
	RoleViewer: {
		KindUser:    actions(ActionView),
		KindNetwork: actions(ActionView),
		KindSite:    actions(ActionView),
		KindTenant:  actions(ActionView),
	},
	RoleEditor: {
		KindUser:    actions(ActionView),
		KindNetwork: actions(ActionView, ActionCreate, ActionUpdate),
		KindSite:    actions(ActionView, ActionCreate, ActionUpdate),
		KindTenant:  actions(ActionView),
	},
	RoleAdmin: {
		KindUser:    actions(ActionView, ActionCreate, ActionUpdate, ActionDelete, ActionManageUsers),
		KindNetwork: actions(ActionView, ActionCreate, ActionUpdate, ActionDelete),
		KindSite:    actions(ActionView, ActionCreate, ActionUpdate, ActionDelete),
		KindTenant:  actions(ActionView, ActionManageBilling),
	},
}

// Evaluate decides whether role may perform action on kind, independent of
// any specific row. Unlisted combinations evaluate to false, never panic; an
// unknown role token denies everything.
func Evaluate(role Role, action Action, kind ResourceKind) bool {
	if !action.known() || !kind.known() {
		return false
	}
	if role == RoleSuperAdmin {
		return true
	}
	kinds, ok := grants[role]
	if !ok {
		return false
	}
	set, ok := kinds[kind]
	if !ok {
		return false
	}
	_, ok = set[action]
	return ok
}
