// Package adapter binds business entity types to the approval chain
// engine. Each adapter owns its entity's table: it supplies
// notification context on demand and flips the entity's business
// status when a chain completes. The engine never learns entity
// schemas.
package adapter

import (
	"context"

	"opsledger.io/opsledger/internal/approval"
	"opsledger.io/opsledger/internal/repository"
)

// Registry holds one adapter per entity type.
type Registry struct {
	adapters map[approval.EntityType]approval.Adapter
}

// NewRegistry creates a registry with all four stock adapters bound to
// the entity repository and member directory.
func NewRegistry(entities *repository.EntityRepository, directory approval.Directory) *Registry {
	r := &Registry{adapters: make(map[approval.EntityType]approval.Adapter)}
	r.Register(NewLeaveAdapter(entities, directory))
	r.Register(NewPurchaseAdapter(entities, directory))
	r.Register(NewAssetAdapter(entities, directory))
	r.Register(NewPayrollAdapter(entities, directory))
	return r
}

// Register adds an adapter, replacing any existing binding for its
// type.
func (r *Registry) Register(a approval.Adapter) {
	r.adapters[a.EntityType()] = a
}

// Lookup returns the adapter for the entity type, or nil. Satisfies
// approval.AdapterLookup.
func (r *Registry) Lookup(entityType approval.EntityType) approval.Adapter {
	return r.adapters[entityType]
}

// entityStatus maps a chain outcome onto the shared business status
// values.
func entityStatus(outcome approval.Outcome) string {
	if outcome == approval.OutcomeRejected {
		return repository.EntityStatusRejected
	}
	return repository.EntityStatusApproved
}

// memberName resolves a display name, falling back to the raw ID when
// the directory is absent or the member unknown.
func memberName(ctx context.Context, directory approval.Directory, tenantID, memberID string) string {
	if directory == nil {
		return memberID
	}
	m, err := directory.Member(ctx, tenantID, memberID)
	if err != nil || m == nil {
		return memberID
	}
	return m.Name
}
