package jobs

import (
	"context"
	"fmt"

	"github.com/riverqueue/river"
	"go.uber.org/zap"

	"opsledger.io/opsledger/internal/notification"
	"opsledger.io/opsledger/internal/pkg/logger"
)

// WhatsAppDispatchArgs carries one messaging automation trigger.
type WhatsAppDispatchArgs struct {
	notification.WhatsAppMessage
}

// Kind returns the job kind identifier for WhatsApp dispatch.
func (WhatsAppDispatchArgs) Kind() string { return "whatsapp_dispatch" }

// InsertOpts routes WhatsApp dispatch to the notify queue with bounded
// retries.
func (WhatsAppDispatchArgs) InsertOpts() river.InsertOpts {
	return river.InsertOpts{
		Queue:       QueueNotify,
		MaxAttempts: 5,
	}
}

// WhatsAppDispatchWorker posts queued triggers to the external
// messaging automation.
type WhatsAppDispatchWorker struct {
	river.WorkerDefaults[WhatsAppDispatchArgs]
	sender *notification.WhatsAppSender
}

// NewWhatsAppDispatchWorker creates a WhatsApp dispatch worker.
func NewWhatsAppDispatchWorker(sender *notification.WhatsAppSender) *WhatsAppDispatchWorker {
	return &WhatsAppDispatchWorker{sender: sender}
}

// Work posts the trigger. Errors surface to River for retry with
// backoff.
func (w *WhatsAppDispatchWorker) Work(ctx context.Context, job *river.Job[WhatsAppDispatchArgs]) error {
	if w == nil || w.sender == nil {
		return fmt.Errorf("whatsapp dispatch worker is not initialized")
	}

	if err := w.sender.Trigger(ctx, job.Args.RecipientIDs, job.Args.Title, job.Args.Message); err != nil {
		return err
	}

	logger.Debug("whatsapp trigger delivered",
		zap.Int("recipients", len(job.Args.RecipientIDs)),
	)
	return nil
}
