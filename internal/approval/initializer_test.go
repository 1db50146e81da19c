package approval

import (
	"context"
	"testing"
)

func TestInitializeChainCreatesPendingStepsInOrder(t *testing.T) {
	store := newMemStore()
	init := NewInitializer(store)

	policy := purchasePolicy(true)
	chain, created, err := init.InitializeChain(context.Background(), EntityPurchaseRequest, "pr-init", policy, testTenant, "mb-dev")
	if err != nil {
		t.Fatalf("initialize: %v", err)
	}
	if !created {
		t.Fatalf("expected a fresh chain")
	}
	if len(chain) != len(policy.Levels) {
		t.Fatalf("got %d steps, want %d", len(chain), len(policy.Levels))
	}
	for i, st := range chain {
		level := policy.Levels[i]
		if st.LevelOrder != level.Order || st.RequiredRole != level.RequiredRole {
			t.Fatalf("step %d: got (%d, %s), want (%d, %s)", i, st.LevelOrder, st.RequiredRole, level.Order, level.RequiredRole)
		}
		if st.Status != StatusPending {
			t.Fatalf("step %d: got status %s, want PENDING", i, st.Status)
		}
		if st.ID == "" {
			t.Fatalf("step %d: missing id", i)
		}
		if st.ApproverID != nil || st.ActionAt != nil {
			t.Fatalf("step %d: approver fields set before any action", i)
		}
	}
}

func TestInitializeChainIsIdempotent(t *testing.T) {
	store := newMemStore()
	init := NewInitializer(store)
	policy := purchasePolicy(true)
	ctx := context.Background()

	first, _, err := init.InitializeChain(ctx, EntityPurchaseRequest, "pr-retry", policy, testTenant, "mb-dev")
	if err != nil {
		t.Fatalf("first initialize: %v", err)
	}

	second, created, err := init.InitializeChain(ctx, EntityPurchaseRequest, "pr-retry", policy, testTenant, "mb-dev")
	if err != nil {
		t.Fatalf("retried initialize: %v", err)
	}
	if created {
		t.Fatalf("retried submission must not create a second chain")
	}
	if len(second) != len(first) {
		t.Fatalf("retried submission changed the chain: %d vs %d steps", len(second), len(first))
	}
	for i := range first {
		if second[i].ID != first[i].ID {
			t.Fatalf("step %d: retried submission returned different step id", i)
		}
	}
}

func TestInitializeChainRejectsInvalidInput(t *testing.T) {
	init := NewInitializer(newMemStore())
	ctx := context.Background()
	policy := purchasePolicy(true)

	if _, _, err := init.InitializeChain(ctx, EntityPurchaseRequest, "pr-x", nil, testTenant, "mb-dev"); err == nil {
		t.Fatalf("nil policy should fail")
	}
	if _, _, err := init.InitializeChain(ctx, EntityPurchaseRequest, "pr-x", &Policy{}, testTenant, "mb-dev"); err == nil {
		t.Fatalf("policy without levels should fail")
	}
	if _, _, err := init.InitializeChain(ctx, EntityPurchaseRequest, "pr-x", policy, "", "mb-dev"); err == nil {
		t.Fatalf("missing tenant should fail")
	}
	if _, _, err := init.InitializeChain(ctx, EntityPurchaseRequest, "", policy, testTenant, "mb-dev"); err == nil {
		t.Fatalf("missing entity id should fail")
	}
}
