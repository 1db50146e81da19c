package repository_test

import (
	"context"
	"testing"
	"time"

	"opsledger.io/opsledger/internal/approval"
	"opsledger.io/opsledger/internal/repository"
	"opsledger.io/opsledger/internal/testutil"
)

func TestEntityRepositoryPurchaseLifecycle(t *testing.T) {
	pool := testutil.OpenPGXPool(t, "entity_purchase")
	entities := repository.NewEntityRepository(pool)
	ctx := context.Background()

	err := entities.CreatePurchaseRequest(ctx, &repository.PurchaseRequest{
		ID: "pr-1", TenantID: testTenant, RequesterID: "mb-dev",
		ReferenceNo: "PR-0001", Title: "Laptop refresh", Amount: 10000, Currency: "USD",
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	pr, err := entities.PurchaseRequestByID(ctx, testTenant, "pr-1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if pr == nil || pr.Status != repository.EntityStatusPendingApproval {
		t.Fatalf("fresh request should be pending approval: %+v", pr)
	}
	if pr.Amount != 10000 || pr.Currency != "USD" {
		t.Fatalf("fields lost: %+v", pr)
	}

	if err := entities.SetPurchaseRequestStatus(ctx, testTenant, "pr-1", repository.EntityStatusRejected); err != nil {
		t.Fatalf("set status: %v", err)
	}
	pr, err = entities.PurchaseRequestByID(ctx, testTenant, "pr-1")
	if err != nil {
		t.Fatalf("get after status: %v", err)
	}
	if pr.Status != repository.EntityStatusRejected {
		t.Fatalf("status = %s, want REJECTED", pr.Status)
	}

	if err := entities.SetPurchaseRequestStatus(ctx, testTenant, "pr-missing", repository.EntityStatusApproved); err == nil {
		t.Fatal("status update on a missing row should fail")
	}
}

func TestEntityRepositoryMissingRowsAreNil(t *testing.T) {
	pool := testutil.OpenPGXPool(t, "entity_missing")
	entities := repository.NewEntityRepository(pool)
	ctx := context.Background()

	if lr, err := entities.LeaveRequestByID(ctx, testTenant, "lv-none"); err != nil || lr != nil {
		t.Fatalf("leave: got (%+v, %v), want (nil, nil)", lr, err)
	}
	if ar, err := entities.AssetRequestByID(ctx, testTenant, "as-none"); err != nil || ar != nil {
		t.Fatalf("asset: got (%+v, %v), want (nil, nil)", ar, err)
	}
	if run, err := entities.PayrollRunByID(ctx, testTenant, "prl-none"); err != nil || run != nil {
		t.Fatalf("payroll: got (%+v, %v), want (nil, nil)", run, err)
	}
}

func TestEntityRepositoryRequesterID(t *testing.T) {
	pool := testutil.OpenPGXPool(t, "entity_requester")
	entities := repository.NewEntityRepository(pool)
	ctx := context.Background()

	if err := entities.CreateLeaveRequest(ctx, &repository.LeaveRequest{
		ID: "lv-1", TenantID: testTenant, RequesterID: "mb-dev", ReferenceNo: "LV-0001",
		LeaveType: "ANNUAL", StartDate: time.Now(), EndDate: time.Now().AddDate(0, 0, 3), Days: 4,
	}); err != nil {
		t.Fatalf("create leave: %v", err)
	}
	if err := entities.CreatePayrollRun(ctx, &repository.PayrollRun{
		ID: "prl-1", TenantID: testTenant, InitiatedBy: "mb-fin", ReferenceNo: "PRL-0001",
		Period: "2026-08", TotalAmount: 125000,
	}); err != nil {
		t.Fatalf("create payroll: %v", err)
	}

	got, err := entities.RequesterID(ctx, testTenant, approval.EntityLeaveRequest, "lv-1")
	if err != nil {
		t.Fatalf("requester: %v", err)
	}
	if got != "mb-dev" {
		t.Fatalf("leave requester = %s, want mb-dev", got)
	}

	// Payroll runs resolve their initiator.
	got, err = entities.RequesterID(ctx, testTenant, approval.EntityPayrollRun, "prl-1")
	if err != nil {
		t.Fatalf("initiator: %v", err)
	}
	if got != "mb-fin" {
		t.Fatalf("payroll initiator = %s, want mb-fin", got)
	}

	if _, err := entities.RequesterID(ctx, testTenant, approval.EntityLeaveRequest, "lv-none"); err == nil {
		t.Fatal("missing entity should error")
	}
	if _, err := entities.RequesterID(ctx, testTenant, approval.EntityType("INVOICE"), "x"); err == nil {
		t.Fatal("unknown entity type should error")
	}
}
