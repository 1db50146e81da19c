package adapter

import (
	"context"
	"testing"

	"opsledger.io/opsledger/internal/approval"
	"opsledger.io/opsledger/internal/repository"
)

type staticDirectory struct {
	members map[string]*approval.MemberInfo
}

func (d *staticDirectory) Member(_ context.Context, _ string, memberID string) (*approval.MemberInfo, error) {
	return d.members[memberID], nil
}

func (d *staticDirectory) MembersWithRole(context.Context, string, string) ([]approval.MemberInfo, error) {
	return nil, nil
}

func (d *staticDirectory) Admins(context.Context, string) ([]approval.MemberInfo, error) {
	return nil, nil
}

func TestRegistryBindsAllEntityTypes(t *testing.T) {
	reg := NewRegistry(nil, nil)
	for _, et := range approval.KnownEntityTypes {
		a := reg.Lookup(et)
		if a == nil {
			t.Fatalf("no adapter for %s", et)
		}
		if a.EntityType() != et {
			t.Fatalf("adapter for %s reports %s", et, a.EntityType())
		}
	}
	if reg.Lookup(approval.EntityType("INVOICE")) != nil {
		t.Fatal("unknown entity type should have no adapter")
	}
}

func TestRegistryRegisterReplaces(t *testing.T) {
	reg := NewRegistry(nil, nil)
	replacement := NewPurchaseAdapter(nil, nil)
	reg.Register(replacement)
	if got := reg.Lookup(approval.EntityPurchaseRequest); got != approval.Adapter(replacement) {
		t.Fatal("register should replace the existing binding")
	}
}

func TestEntityStatus(t *testing.T) {
	if got := entityStatus(approval.OutcomeApproved); got != repository.EntityStatusApproved {
		t.Fatalf("approved outcome = %s", got)
	}
	if got := entityStatus(approval.OutcomeRejected); got != repository.EntityStatusRejected {
		t.Fatalf("rejected outcome = %s", got)
	}
}

func TestMemberNameFallsBackToID(t *testing.T) {
	ctx := context.Background()
	dir := &staticDirectory{members: map[string]*approval.MemberInfo{
		"mb-mgr": {ID: "mb-mgr", Name: "Morgan Lee"},
	}}

	if got := memberName(ctx, dir, "tn-test", "mb-mgr"); got != "Morgan Lee" {
		t.Fatalf("known member = %s", got)
	}
	if got := memberName(ctx, dir, "tn-test", "mb-ghost"); got != "mb-ghost" {
		t.Fatalf("unknown member should fall back to the id, got %s", got)
	}
	if got := memberName(ctx, nil, "tn-test", "mb-mgr"); got != "mb-mgr" {
		t.Fatalf("nil directory should fall back to the id, got %s", got)
	}
}
