// Package authz decides which rows of the shared tenant-partitioned tables a
// caller may see or modify. It is stateless and safe for concurrent use; the
// only persistence touch is the tenant existence check during scope
// resolution.
package authz

import "github.com/google/uuid"

// Principal is the authenticated caller. It is rebuilt from the users row on
// every request and never cached across requests, so role changes take effect
// on the next request.
type Principal struct {
	ID       uuid.UUID
	Role     Role
	TenantID *uuid.UUID // nil only for super admins
	IsActive bool
}

// Action is an operation a principal may attempt.
type Action string

const (
	ActionView          Action = "view"
	ActionCreate        Action = "create"
	ActionUpdate        Action = "update"
	ActionDelete        Action = "delete"
	ActionManageUsers   Action = "manage_users"
	ActionManageBilling Action = "manage_billing"
)

func (a Action) known() bool {
	switch a {
	case ActionView, ActionCreate, ActionUpdate, ActionDelete, ActionManageUsers, ActionManageBilling:
		return true
	}
	return false
}

// Mutating reports whether the action writes rows. Writes into a cancelled
// tenant are rejected at the guard layer.
func (a Action) Mutating() bool {
	return a != ActionView && a.known()
}

// ResourceKind identifies a tenant-partitioned collection. Tenants own
// networks and users directly; networks own sites.
type ResourceKind string

const (
	KindUser    ResourceKind = "user"
	KindNetwork ResourceKind = "network"
	KindSite    ResourceKind = "site"
	KindTenant  ResourceKind = "tenant"
)

func (k ResourceKind) known() bool {
	switch k {
	case KindUser, KindNetwork, KindSite, KindTenant:
		return true
	}
	return false
}

// Reason classifies a denial.
type Reason string

const (
	// ReasonUnauthenticated covers missing, inactive, and orphaned principals.
	ReasonUnauthenticated Reason = "unauthenticated"
	// ReasonForbidden covers valid principals whose role lacks the action.
	ReasonForbidden Reason = "forbidden"
)

// Decision is the outcome of a single authorization call. It is constructed
// fresh per call and never mutated afterwards.
type Decision struct {
	Allowed     bool
	Reason      Reason
	Scope       Scope
	ScopeFilter Predicate
}
