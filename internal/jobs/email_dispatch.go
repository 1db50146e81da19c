package jobs

import (
	"context"
	"fmt"

	"github.com/riverqueue/river"
	"go.uber.org/zap"

	"opsledger.io/opsledger/internal/notification"
	"opsledger.io/opsledger/internal/pkg/logger"
)

// EmailDispatchArgs carries one outbound notification email.
type EmailDispatchArgs struct {
	notification.EmailMessage
}

// Kind returns the job kind identifier for email dispatch.
func (EmailDispatchArgs) Kind() string { return "email_dispatch" }

// InsertOpts routes email dispatch to the notify queue with bounded
// retries.
func (EmailDispatchArgs) InsertOpts() river.InsertOpts {
	return river.InsertOpts{
		Queue:       QueueNotify,
		MaxAttempts: 5,
	}
}

// EmailDispatchWorker delivers queued notification emails over SMTP.
type EmailDispatchWorker struct {
	river.WorkerDefaults[EmailDispatchArgs]
	sender *notification.EmailSender
}

// NewEmailDispatchWorker creates an email dispatch worker.
func NewEmailDispatchWorker(sender *notification.EmailSender) *EmailDispatchWorker {
	return &EmailDispatchWorker{sender: sender}
}

// Work sends the email. Errors surface to River for retry with
// backoff.
func (w *EmailDispatchWorker) Work(ctx context.Context, job *river.Job[EmailDispatchArgs]) error {
	if w == nil || w.sender == nil {
		return fmt.Errorf("email dispatch worker is not initialized")
	}

	if err := w.sender.SendMail(job.Args.To, job.Args.Subject, job.Args.Body); err != nil {
		return err
	}

	logger.Debug("notification email delivered",
		zap.Int("recipients", len(job.Args.To)),
		zap.String("subject", job.Args.Subject),
	)
	return nil
}
