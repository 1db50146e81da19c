package repository_test

import (
	"context"
	"testing"

	"opsledger.io/opsledger/internal/approval"
	"opsledger.io/opsledger/internal/repository"
	"opsledger.io/opsledger/internal/testutil"
)

func float(v float64) *float64 { return &v }

func TestPolicyRepositoryRoundTrip(t *testing.T) {
	pool := testutil.OpenPGXPool(t, "policy_roundtrip")
	policies := repository.NewPolicyRepository(pool)
	ctx := context.Background()

	in := &approval.Policy{
		ID:         "pl-1",
		TenantID:   testTenant,
		EntityType: approval.EntityPurchaseRequest,
		Name:       "Purchase approvals",
		Enabled:    true,
		Levels: []approval.Level{
			{Order: 1, RequiredRole: approval.RoleManager},
			{Order: 2, RequiredRole: "FINANCE_ADMIN", MinAmount: float(5000)},
			{Order: 3, RequiredRole: "CEO", MinAmount: float(20000)},
		},
	}
	if err := policies.CreatePolicy(ctx, in, "mb-admin"); err != nil {
		t.Fatalf("create policy: %v", err)
	}

	out, err := policies.FindActivePolicy(ctx, testTenant, approval.EntityPurchaseRequest)
	if err != nil {
		t.Fatalf("find policy: %v", err)
	}
	if out == nil {
		t.Fatal("expected the stored policy")
	}
	if out.ID != in.ID || out.Name != in.Name || !out.Enabled {
		t.Fatalf("policy header mismatch: %+v", out)
	}
	if len(out.Levels) != 3 {
		t.Fatalf("got %d levels, want 3", len(out.Levels))
	}
	if out.Levels[1].MinAmount == nil || *out.Levels[1].MinAmount != 5000 {
		t.Fatalf("level 2 threshold lost: %+v", out.Levels[1])
	}
	if out.Levels[0].MinAmount != nil {
		t.Fatalf("level 1 should have no threshold: %+v", out.Levels[0])
	}
}

func TestPolicyRepositoryMissingPolicyIsNil(t *testing.T) {
	pool := testutil.OpenPGXPool(t, "policy_missing")
	policies := repository.NewPolicyRepository(pool)

	out, err := policies.FindActivePolicy(context.Background(), testTenant, approval.EntityLeaveRequest)
	if err != nil {
		t.Fatalf("find policy: %v", err)
	}
	if out != nil {
		t.Fatalf("expected nil for an unconfigured entity type, got %+v", out)
	}
}

func TestPolicyRepositoryRejectsNonContiguousLevels(t *testing.T) {
	pool := testutil.OpenPGXPool(t, "policy_gaps")
	policies := repository.NewPolicyRepository(pool)

	err := policies.CreatePolicy(context.Background(), &approval.Policy{
		ID: "pl-gap", TenantID: testTenant, EntityType: approval.EntityLeaveRequest,
		Name: "Gapped", Enabled: true,
		Levels: []approval.Level{
			{Order: 1, RequiredRole: approval.RoleManager},
			{Order: 3, RequiredRole: "HR_ADMIN"},
		},
	}, "mb-admin")
	if err == nil {
		t.Fatal("level orders with gaps should be rejected")
	}
}

func TestPolicyRepositoryEnforcesOneEnabledPerType(t *testing.T) {
	pool := testutil.OpenPGXPool(t, "policy_unique")
	policies := repository.NewPolicyRepository(pool)
	ctx := context.Background()

	mk := func(id string) *approval.Policy {
		return &approval.Policy{
			ID: id, TenantID: testTenant, EntityType: approval.EntityAssetRequest,
			Name: "Assets " + id, Enabled: true,
			Levels: []approval.Level{{Order: 1, RequiredRole: approval.RoleManager}},
		}
	}

	if err := policies.CreatePolicy(ctx, mk("pl-a"), "mb-admin"); err != nil {
		t.Fatalf("create first policy: %v", err)
	}
	if err := policies.CreatePolicy(ctx, mk("pl-b"), "mb-admin"); err == nil {
		t.Fatal("second enabled policy for the same entity type should conflict")
	}
}
