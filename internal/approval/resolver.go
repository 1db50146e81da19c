package approval

import (
	"context"
	"fmt"
)

// PolicyContext carries the request attributes a policy is resolved
// against.
type PolicyContext struct {
	TenantID string
	// Amount gates threshold levels (e.g. purchase total). Nil for
	// entity types without a monetary dimension.
	Amount *float64
}

// Resolver finds the single applicable approval policy for an entity
// type within a tenant. Read-only; no side effects.
type Resolver struct {
	policies PolicyStore
}

// NewResolver creates a policy resolver.
func NewResolver(policies PolicyStore) *Resolver {
	return &Resolver{policies: policies}
}

// FindApplicablePolicy returns the tenant's enabled policy for the
// entity type with its levels filtered to those whose threshold
// condition is satisfied by pctx.Amount. Returns nil when no policy is
// configured, or when threshold filtering leaves zero levels — both
// mean the caller must use the flat all-admins fallback.
func (r *Resolver) FindApplicablePolicy(ctx context.Context, entityType EntityType, pctx PolicyContext) (*Policy, error) {
	if pctx.TenantID == "" {
		return nil, nil
	}

	policy, err := r.policies.FindActivePolicy(ctx, pctx.TenantID, entityType)
	if err != nil {
		return nil, fmt.Errorf("find active policy for %s/%s: %w", pctx.TenantID, entityType, err)
	}
	if policy == nil || !policy.Enabled {
		return nil, nil
	}

	applicable := policy.ApplicableLevels(pctx.Amount)
	if len(applicable) == 0 {
		return nil, nil
	}

	filtered := *policy
	filtered.Levels = applicable
	return &filtered, nil
}
