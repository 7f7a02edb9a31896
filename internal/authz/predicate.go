package authz

import (
	"errors"
	"fmt"
)

// ErrUnsupportedScope marks a scope/kind pairing the builder has no filter
// rule for. It signals a caller bug, not a security decision: the request
// must abort instead of falling back to an unrestricted query.
var ErrUnsupportedScope = errors.New("authz: unsupported scope for resource kind")

// Predicate is a row filter the persistence layer must AND into its WHERE
// clause before returning or mutating rows. The zero value is the empty
// predicate (no restriction), reachable only through the global scope.
type Predicate struct {
	template string
	args     []any
}

// IsEmpty reports whether the predicate restricts nothing.
func (p Predicate) IsEmpty() bool {
	return p.template == ""
}

// Clause renders the SQL fragment with positional placeholders starting at
// start, so repositories can splice it after their own parameters. An empty
// predicate renders to an empty clause with no arguments.
func (p Predicate) Clause(start int) (string, []any) {
	if p.template == "" {
		return "", nil
	}
	positions := make([]any, len(p.args))
	for i := range p.args {
		positions[i] = start + i
	}
	return fmt.Sprintf(p.template, positions...), p.args
}

// BuildFilter produces the filter for rows of kind under scope.
//
// Sites carry no tenant column: ownership resolves through the network edge,
// so the site filter is a two-hop subquery. Filtering sites on a direct
// tenant_id would reference a column that does not exist and, worse, would
// drift if a site is ever reparented to another network.
func BuildFilter(scope Scope, kind ResourceKind) (Predicate, error) {
	switch scope.Kind {
	case ScopeGlobal:
		return Predicate{}, nil
	case ScopeTenant:
		switch kind {
		case KindUser, KindNetwork:
			return Predicate{template: "tenant_id = $%d", args: []any{scope.TenantID}}, nil
		case KindSite:
			return Predicate{
				template: "network_id IN (SELECT id FROM affiliate_networks WHERE tenant_id = $%d)",
				args:     []any{scope.TenantID},
			}, nil
		}
	}
	return Predicate{}, fmt.Errorf("%w: scope=%d kind=%s", ErrUnsupportedScope, scope.Kind, kind)
}
