package repository_test

import (
	"context"
	"testing"

	"opsledger.io/opsledger/internal/approval"
	"opsledger.io/opsledger/internal/repository"
	"opsledger.io/opsledger/internal/testutil"
)

func TestAuditRepositoryAppendAndList(t *testing.T) {
	pool := testutil.OpenPGXPool(t, "audit_trail")
	audit := repository.NewAuditRepository(pool)
	ctx := context.Background()

	entries := []approval.AuditEntry{
		{TenantID: testTenant, EntityType: approval.EntityPurchaseRequest, EntityID: "pr-1", LevelOrder: 1, Action: "APPROVE", ActorID: "mb-mgr"},
		{TenantID: testTenant, EntityType: approval.EntityPurchaseRequest, EntityID: "pr-1", LevelOrder: 2, Action: "REJECT", ActorID: "mb-fin", Notes: "budget exceeded"},
		{TenantID: testTenant, EntityType: approval.EntityLeaveRequest, EntityID: "lv-1", LevelOrder: 1, Action: "APPROVE", ActorID: "mb-mgr"},
	}
	for _, e := range entries {
		if err := audit.Append(ctx, e); err != nil {
			t.Fatalf("append: %v", err)
		}
	}

	trail, err := audit.ListByEntity(ctx, testTenant, approval.EntityPurchaseRequest, "pr-1")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(trail) != 2 {
		t.Fatalf("got %d records, want 2", len(trail))
	}
	if trail[0].Action != "APPROVE" || trail[1].Action != "REJECT" {
		t.Fatalf("trail out of order: %+v", trail)
	}
	if trail[1].Notes != "budget exceeded" {
		t.Fatalf("notes lost: %+v", trail[1])
	}
	if trail[0].ID >= trail[1].ID {
		t.Fatal("append-only ids should be increasing")
	}
	if trail[0].CreatedAt.IsZero() {
		t.Fatal("created_at not set")
	}
}
