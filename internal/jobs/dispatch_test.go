package jobs

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/riverqueue/river"
)

func TestDispatchArgsKinds(t *testing.T) {
	t.Parallel()

	if got := (EmailDispatchArgs{}).Kind(); got != "email_dispatch" {
		t.Fatalf("Kind() = %q, want %q", got, "email_dispatch")
	}
	if got := (WhatsAppDispatchArgs{}).Kind(); got != "whatsapp_dispatch" {
		t.Fatalf("Kind() = %q, want %q", got, "whatsapp_dispatch")
	}
	if got := (ApprovalReminderArgs{}).Kind(); got != "approval_reminder" {
		t.Fatalf("Kind() = %q, want %q", got, "approval_reminder")
	}
}

func TestDispatchArgsInsertOpts(t *testing.T) {
	t.Parallel()

	for name, opts := range map[string]river.InsertOpts{
		"email":    (EmailDispatchArgs{}).InsertOpts(),
		"whatsapp": (WhatsAppDispatchArgs{}).InsertOpts(),
	} {
		if opts.Queue != QueueNotify {
			t.Fatalf("%s Queue = %q, want %q", name, opts.Queue, QueueNotify)
		}
		if opts.MaxAttempts != 5 {
			t.Fatalf("%s MaxAttempts = %d, want 5", name, opts.MaxAttempts)
		}
	}
}

func TestApprovalReminderArgsInsertOpts(t *testing.T) {
	t.Parallel()

	opts := (ApprovalReminderArgs{}).InsertOpts()
	if opts.Queue != river.QueueDefault {
		t.Fatalf("Queue = %q, want %q", opts.Queue, river.QueueDefault)
	}
	if opts.MaxAttempts != 1 {
		t.Fatalf("MaxAttempts = %d, want 1", opts.MaxAttempts)
	}
	if opts.UniqueOpts.ByPeriod != 24*time.Hour {
		t.Fatalf("UniqueOpts.ByPeriod = %s, want %s", opts.UniqueOpts.ByPeriod, 24*time.Hour)
	}
}

func TestNewApprovalReminderWorkerAge(t *testing.T) {
	t.Parallel()

	if w := NewApprovalReminderWorker(nil, nil, nil, 0); w.age != DefaultReminderAge {
		t.Fatalf("age = %s, want %s", w.age, DefaultReminderAge)
	}
	if w := NewApprovalReminderWorker(nil, nil, nil, 48*time.Hour); w.age != 48*time.Hour {
		t.Fatalf("age = %s, want %s", w.age, 48*time.Hour)
	}
}

func TestDispatchWorkersUninitialized(t *testing.T) {
	t.Parallel()

	t.Run("email", func(t *testing.T) {
		var w *EmailDispatchWorker
		if err := w.Work(context.Background(), nil); err == nil || !strings.Contains(err.Error(), "not initialized") {
			t.Fatalf("Work() error = %v, want contains %q", err, "not initialized")
		}
		if err := (&EmailDispatchWorker{}).Work(context.Background(), &river.Job[EmailDispatchArgs]{}); err == nil {
			t.Fatal("Work() with nil sender should fail")
		}
	})

	t.Run("whatsapp", func(t *testing.T) {
		var w *WhatsAppDispatchWorker
		if err := w.Work(context.Background(), nil); err == nil || !strings.Contains(err.Error(), "not initialized") {
			t.Fatalf("Work() error = %v, want contains %q", err, "not initialized")
		}
	})

	t.Run("reminder", func(t *testing.T) {
		var w *ApprovalReminderWorker
		if err := w.Work(context.Background(), nil); err == nil || !strings.Contains(err.Error(), "not initialized") {
			t.Fatalf("Work() error = %v, want contains %q", err, "not initialized")
		}
	})
}
