package notification

import (
	"context"
	"testing"

	"opsledger.io/opsledger/internal/repository"
)

type memInbox struct {
	rows []repository.Notification
}

func (m *memInbox) InsertMany(_ context.Context, rows []repository.Notification) error {
	m.rows = append(m.rows, rows...)
	return nil
}

func TestInboxSenderWritesOneRowPerRecipient(t *testing.T) {
	store := &memInbox{}
	sender := NewInboxSender(store)

	err := sender.SendToMany(context.Background(), []string{"mb-a", "mb-b"}, Params{
		TenantID:   testTenant,
		Type:       TypeApprovalPending,
		Title:      "Approval needed",
		Message:    "purchase request PR-1 awaits your approval",
		Link:       "/approvals/purchase_request/pr-1",
		EntityType: "PURCHASE_REQUEST",
		EntityID:   "pr-1",
	})
	if err != nil {
		t.Fatalf("send: %v", err)
	}
	if len(store.rows) != 2 {
		t.Fatalf("got %d rows, want 2", len(store.rows))
	}
	seen := map[string]bool{}
	for _, row := range store.rows {
		seen[row.RecipientID] = true
		if row.ID == "" {
			t.Fatalf("row missing generated id: %+v", row)
		}
		if row.TenantID != testTenant || row.Type != TypeApprovalPending {
			t.Fatalf("row fields not carried over: %+v", row)
		}
	}
	if !seen["mb-a"] || !seen["mb-b"] {
		t.Fatalf("recipients missing: %+v", seen)
	}
}

func TestInboxSenderNoRecipientsIsNoop(t *testing.T) {
	store := &memInbox{}
	sender := NewInboxSender(store)

	err := sender.SendToMany(context.Background(), nil, Params{
		TenantID: testTenant, Type: TypeApprovalPending, Title: "Approval needed",
	})
	if err != nil {
		t.Fatalf("send: %v", err)
	}
	if len(store.rows) != 0 {
		t.Fatalf("no recipients should write no rows, got %d", len(store.rows))
	}
}

func TestInboxSenderValidatesParams(t *testing.T) {
	sender := NewInboxSender(&memInbox{})
	ctx := context.Background()

	cases := []struct {
		name   string
		params Params
	}{
		{"missing tenant", Params{Type: TypeApprovalPending, Title: "t"}},
		{"missing type", Params{TenantID: testTenant, Title: "t"}},
		{"missing title", Params{TenantID: testTenant, Type: TypeApprovalPending}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if err := sender.SendToMany(ctx, []string{"mb-a"}, tc.params); err == nil {
				t.Fatalf("expected validation error")
			}
		})
	}
}
