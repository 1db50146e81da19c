package jobs

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/riverqueue/river"

	"opsledger.io/opsledger/internal/notification"
)

// RiverEnqueuer hands external notification deliveries to River. It
// implements notification.Enqueuer, which keeps the notification
// package ignorant of the queue implementation. Channels that are
// disabled in configuration are skipped here so no job ever lands on a
// queue with no registered worker for it.
type RiverEnqueuer struct {
	client          *river.Client[pgx.Tx]
	emailEnabled    bool
	whatsappEnabled bool
}

// NewRiverEnqueuer creates a queue-backed enqueuer.
func NewRiverEnqueuer(client *river.Client[pgx.Tx], emailEnabled, whatsappEnabled bool) *RiverEnqueuer {
	return &RiverEnqueuer{
		client:          client,
		emailEnabled:    emailEnabled,
		whatsappEnabled: whatsappEnabled,
	}
}

// EnqueueEmail inserts one email dispatch job.
func (e *RiverEnqueuer) EnqueueEmail(ctx context.Context, msg notification.EmailMessage) error {
	if !e.emailEnabled {
		return nil
	}
	if _, err := e.client.Insert(ctx, EmailDispatchArgs{EmailMessage: msg}, nil); err != nil {
		return fmt.Errorf("enqueue email dispatch: %w", err)
	}
	return nil
}

// EnqueueWhatsApp inserts one WhatsApp dispatch job.
func (e *RiverEnqueuer) EnqueueWhatsApp(ctx context.Context, msg notification.WhatsAppMessage) error {
	if !e.whatsappEnabled {
		return nil
	}
	if _, err := e.client.Insert(ctx, WhatsAppDispatchArgs{WhatsAppMessage: msg}, nil); err != nil {
		return fmt.Errorf("enqueue whatsapp dispatch: %w", err)
	}
	return nil
}

var _ notification.Enqueuer = (*RiverEnqueuer)(nil)
