package repository_test

import (
	"context"
	"testing"

	"golang.org/x/crypto/bcrypt"

	"opsledger.io/opsledger/internal/approval"
	"opsledger.io/opsledger/internal/repository"
	"opsledger.io/opsledger/internal/testutil"
)

func seedMembers(t *testing.T, members *repository.MemberRepository) {
	t.Helper()
	ctx := context.Background()

	hash, err := bcrypt.GenerateFromPassword([]byte("hunter2-hunter2"), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}

	for _, m := range []approval.MemberInfo{
		{ID: "mb-dev", Name: "Dana Dev", Email: "dana@example.com", Roles: []string{"ENGINEERING"}, ReportingManagerID: "mb-mgr"},
		{ID: "mb-mgr", Name: "Morgan Manager", Email: "morgan@example.com", Roles: []string{"ENGINEERING"}, CanApprove: true},
		{ID: "mb-fin", Name: "Farid Finance", Email: "farid@example.com", Roles: []string{"FINANCE_ADMIN", "ENGINEERING"}, CanApprove: true},
		{ID: "mb-admin", Name: "Avery Admin", Email: "avery@example.com", IsAdmin: true},
	} {
		if err := members.CreateMember(ctx, testTenant, m, string(hash)); err != nil {
			t.Fatalf("create member %s: %v", m.ID, err)
		}
	}
}

func TestMemberRepositoryMember(t *testing.T) {
	pool := testutil.OpenPGXPool(t, "members_get")
	members := repository.NewMemberRepository(pool)
	seedMembers(t, members)
	ctx := context.Background()

	m, err := members.Member(ctx, testTenant, "mb-dev")
	if err != nil {
		t.Fatalf("member: %v", err)
	}
	if m == nil || m.Name != "Dana Dev" || m.ReportingManagerID != "mb-mgr" {
		t.Fatalf("unexpected member %+v", m)
	}

	missing, err := members.Member(ctx, testTenant, "mb-ghost")
	if err != nil {
		t.Fatalf("member: %v", err)
	}
	if missing != nil {
		t.Fatalf("unknown member should be nil, got %+v", missing)
	}

	wrongTenant, err := members.Member(ctx, "tn-other", "mb-dev")
	if err != nil {
		t.Fatalf("member: %v", err)
	}
	if wrongTenant != nil {
		t.Fatal("members must not leak across tenants")
	}
}

func TestMemberRepositoryMembersWithRole(t *testing.T) {
	pool := testutil.OpenPGXPool(t, "members_role")
	members := repository.NewMemberRepository(pool)
	seedMembers(t, members)

	holders, err := members.MembersWithRole(context.Background(), testTenant, "FINANCE_ADMIN")
	if err != nil {
		t.Fatalf("members with role: %v", err)
	}
	if len(holders) != 1 || holders[0].ID != "mb-fin" {
		t.Fatalf("got %+v, want only mb-fin", holders)
	}

	engineers, err := members.MembersWithRole(context.Background(), testTenant, "ENGINEERING")
	if err != nil {
		t.Fatalf("members with role: %v", err)
	}
	if len(engineers) != 3 {
		t.Fatalf("got %d engineers, want 3", len(engineers))
	}
}

func TestMemberRepositoryAdmins(t *testing.T) {
	pool := testutil.OpenPGXPool(t, "members_admins")
	members := repository.NewMemberRepository(pool)
	seedMembers(t, members)

	admins, err := members.Admins(context.Background(), testTenant)
	if err != nil {
		t.Fatalf("admins: %v", err)
	}
	if len(admins) != 1 || admins[0].ID != "mb-admin" {
		t.Fatalf("got %+v, want only mb-admin", admins)
	}
}

func TestMemberRepositoryMemberByEmail(t *testing.T) {
	pool := testutil.OpenPGXPool(t, "members_email")
	members := repository.NewMemberRepository(pool)
	seedMembers(t, members)
	ctx := context.Background()

	m, hash, err := members.MemberByEmail(ctx, testTenant, "morgan@example.com")
	if err != nil {
		t.Fatalf("member by email: %v", err)
	}
	if m == nil || m.ID != "mb-mgr" {
		t.Fatalf("unexpected member %+v", m)
	}
	if bcrypt.CompareHashAndPassword([]byte(hash), []byte("hunter2-hunter2")) != nil {
		t.Fatal("stored hash does not verify the seeded password")
	}

	missing, _, err := members.MemberByEmail(ctx, testTenant, "nobody@example.com")
	if err != nil {
		t.Fatalf("member by email: %v", err)
	}
	if missing != nil {
		t.Fatal("unknown email should be nil")
	}
}
