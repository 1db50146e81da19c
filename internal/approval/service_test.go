package approval

import (
	"context"
	"testing"
)

func newTestService(policies *memPolicies) (*Service, *memStore, *recordDispatcher) {
	store := newMemStore()
	svc := NewService(
		NewResolver(policies),
		NewInitializer(store),
		NewProcessor(store, testDirectory()),
		store,
	)
	dispatcher := &recordDispatcher{}
	svc.SetDispatcher(dispatcher)
	return svc, store, dispatcher
}

func TestSubmitCreatesChainAndNotifiesFirstLevel(t *testing.T) {
	svc, _, dispatcher := newTestService(newMemPolicies(purchasePolicy(true)))

	res, err := svc.Submit(context.Background(), SubmitParams{
		TenantID: testTenant, EntityType: EntityPurchaseRequest, EntityID: "pr-sub",
		RequesterID: "mb-dev", Amount: amt(10000),
	})
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if !res.ChainCreated || res.Fallback != "" {
		t.Fatalf("expected a created chain, got %+v", res)
	}
	if len(res.Chain) != 2 {
		t.Fatalf("amount 10000 should produce 2 levels, got %d", len(res.Chain))
	}

	submitted := dispatcher.byKind("submitted")
	if len(submitted) != 1 {
		t.Fatalf("expected one submission event, got %d", len(submitted))
	}
	if submitted[0].Step.LevelOrder != 1 || submitted[0].RequesterID != "mb-dev" {
		t.Fatalf("submission event should target the first step, got %+v", submitted[0])
	}
}

func TestSubmitWithoutPolicyFallsBackToAdmins(t *testing.T) {
	svc, store, dispatcher := newTestService(newMemPolicies())
	ctx := context.Background()

	res, err := svc.Submit(ctx, SubmitParams{
		TenantID: testTenant, EntityType: EntityLeaveRequest, EntityID: "lv-nopol",
		RequesterID: "mb-dev",
	})
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if res.ChainCreated || len(res.Chain) != 0 {
		t.Fatalf("no-policy submission must not create steps, got %+v", res)
	}
	if res.Fallback != FallbackAllAdmins {
		t.Fatalf("got fallback %q, want %q", res.Fallback, FallbackAllAdmins)
	}

	if n, _ := store.CountSteps(ctx, testTenant, EntityLeaveRequest, "lv-nopol"); n != 0 {
		t.Fatalf("steps persisted for a fallback submission: %d", n)
	}
	fallback := dispatcher.byKind("fallback")
	if len(fallback) != 1 || fallback[0].EntityID != "lv-nopol" {
		t.Fatalf("expected one fallback event, got %+v", fallback)
	}
	if len(dispatcher.byKind("submitted")) != 0 {
		t.Fatalf("fallback submission must not emit a chain-submitted event")
	}
}

func TestSubmitRetryDoesNotRenotify(t *testing.T) {
	svc, _, dispatcher := newTestService(newMemPolicies(purchasePolicy(true)))
	ctx := context.Background()

	params := SubmitParams{
		TenantID: testTenant, EntityType: EntityPurchaseRequest, EntityID: "pr-twice",
		RequesterID: "mb-dev", Amount: amt(10000),
	}
	if _, err := svc.Submit(ctx, params); err != nil {
		t.Fatalf("first submit: %v", err)
	}

	res, err := svc.Submit(ctx, params)
	if err != nil {
		t.Fatalf("retried submit: %v", err)
	}
	if res.ChainCreated {
		t.Fatalf("retried submit must find the existing chain")
	}
	if len(res.Chain) != 2 {
		t.Fatalf("retried submit should return the existing chain, got %d steps", len(res.Chain))
	}
	if n := len(dispatcher.byKind("submitted")); n != 1 {
		t.Fatalf("retried submit must not re-notify approvers, got %d events", n)
	}
}

func TestSubmitRequiresTenant(t *testing.T) {
	svc, _, _ := newTestService(newMemPolicies(purchasePolicy(true)))
	if _, err := svc.Submit(context.Background(), SubmitParams{EntityType: EntityPurchaseRequest, EntityID: "pr-x", RequesterID: "mb-dev"}); err == nil {
		t.Fatalf("tenantless submit should fail")
	}
}

func TestServiceEndToEndPurchaseFlow(t *testing.T) {
	svc, store, dispatcher := newTestService(newMemPolicies(purchasePolicy(true)))
	ctx := context.Background()

	if _, err := svc.Submit(ctx, SubmitParams{
		TenantID: testTenant, EntityType: EntityPurchaseRequest, EntityID: "pr-flow",
		RequesterID: "mb-dev", Amount: amt(10000),
	}); err != nil {
		t.Fatalf("submit: %v", err)
	}

	res, err := svc.Process(ctx, ProcessParams{
		TenantID: testTenant, EntityType: EntityPurchaseRequest, EntityID: "pr-flow",
		ApproverID: "mb-mgr", RequesterID: "mb-dev", Action: ActionApprove,
	})
	if err != nil || !res.StepProcessed || res.ChainComplete {
		t.Fatalf("manager approval: res=%+v err=%v", res, err)
	}

	res, err = svc.Process(ctx, ProcessParams{
		TenantID: testTenant, EntityType: EntityPurchaseRequest, EntityID: "pr-flow",
		ApproverID: "mb-fin", RequesterID: "mb-dev", Action: ActionReject,
		Notes: "budget exceeded",
	})
	if err != nil || res.Outcome != OutcomeRejected {
		t.Fatalf("finance rejection: res=%+v err=%v", res, err)
	}

	chain, err := svc.Chain(ctx, testTenant, EntityPurchaseRequest, "pr-flow")
	if err != nil {
		t.Fatalf("chain: %v", err)
	}
	if len(chain) != 2 || chain[0].Status != StatusApproved || chain[1].Status != StatusRejected {
		t.Fatalf("unexpected final chain %+v", chain)
	}

	if n, _ := store.CountPending(ctx, testTenant, EntityPurchaseRequest, "pr-flow"); n != 0 {
		t.Fatalf("chain should have no pending steps, got %d", n)
	}
	if len(dispatcher.byKind("completed")) != 1 {
		t.Fatalf("expected one completion event")
	}
}
