package approval

import (
	"context"
	"testing"
)

func amt(v float64) *float64 { return &v }

func purchasePolicy(enabled bool) *Policy {
	return &Policy{
		ID:         "pl-pr",
		TenantID:   testTenant,
		EntityType: EntityPurchaseRequest,
		Name:       "Purchase approvals",
		Enabled:    enabled,
		Levels: []Level{
			{Order: 1, RequiredRole: RoleManager},
			{Order: 2, RequiredRole: "FINANCE_ADMIN", MinAmount: amt(5000)},
			{Order: 3, RequiredRole: "CEO", MinAmount: amt(20000)},
		},
	}
}

func TestResolverFiltersThresholdLevels(t *testing.T) {
	resolver := NewResolver(newMemPolicies(purchasePolicy(true)))
	ctx := context.Background()

	cases := []struct {
		name      string
		amount    *float64
		wantRoles []string
	}{
		{"small amount keeps manager only", amt(1200), []string{RoleManager}},
		{"mid amount adds finance", amt(10000), []string{RoleManager, "FINANCE_ADMIN"}},
		{"large amount keeps full chain", amt(25000), []string{RoleManager, "FINANCE_ADMIN", "CEO"}},
		{"threshold is exclusive", amt(5000), []string{RoleManager}},
		{"no amount drops thresholded levels", nil, []string{RoleManager}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			policy, err := resolver.FindApplicablePolicy(ctx, EntityPurchaseRequest, PolicyContext{TenantID: testTenant, Amount: tc.amount})
			if err != nil {
				t.Fatalf("resolve: %v", err)
			}
			if policy == nil {
				t.Fatalf("expected a policy, got nil")
			}
			if len(policy.Levels) != len(tc.wantRoles) {
				t.Fatalf("got %d levels, want %d: %+v", len(policy.Levels), len(tc.wantRoles), policy.Levels)
			}
			for i, role := range tc.wantRoles {
				if policy.Levels[i].RequiredRole != role {
					t.Fatalf("level %d: got role %s, want %s", i+1, policy.Levels[i].RequiredRole, role)
				}
			}
		})
	}
}

func TestResolverLeavesStoredPolicyUntouched(t *testing.T) {
	stored := purchasePolicy(true)
	resolver := NewResolver(newMemPolicies(stored))

	if _, err := resolver.FindApplicablePolicy(context.Background(), EntityPurchaseRequest, PolicyContext{TenantID: testTenant, Amount: amt(100)}); err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if len(stored.Levels) != 3 {
		t.Fatalf("threshold filtering mutated the stored policy: %+v", stored.Levels)
	}
}

func TestResolverReturnsNilWithoutApplicablePolicy(t *testing.T) {
	ctx := context.Background()

	cases := []struct {
		name     string
		resolver *Resolver
		pctx     PolicyContext
	}{
		{"no policy configured", NewResolver(newMemPolicies()), PolicyContext{TenantID: testTenant}},
		{"policy disabled", NewResolver(newMemPolicies(purchasePolicy(false))), PolicyContext{TenantID: testTenant, Amount: amt(10000)}},
		{"empty tenant", NewResolver(newMemPolicies(purchasePolicy(true))), PolicyContext{Amount: amt(10000)}},
		{
			"all levels gated out",
			NewResolver(newMemPolicies(&Policy{
				ID: "pl-gated", TenantID: testTenant, EntityType: EntityPurchaseRequest, Enabled: true,
				Levels: []Level{{Order: 1, RequiredRole: "CEO", MinAmount: amt(50000)}},
			})),
			PolicyContext{TenantID: testTenant, Amount: amt(100)},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			policy, err := tc.resolver.FindApplicablePolicy(ctx, EntityPurchaseRequest, tc.pctx)
			if err != nil {
				t.Fatalf("resolve: %v", err)
			}
			if policy != nil {
				t.Fatalf("expected nil policy, got %+v", policy)
			}
		})
	}
}
