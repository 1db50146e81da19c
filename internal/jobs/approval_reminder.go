package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/riverqueue/river"
	"go.uber.org/zap"

	"opsledger.io/opsledger/internal/notification"
	"opsledger.io/opsledger/internal/pkg/logger"
	"opsledger.io/opsledger/internal/repository"
)

// DefaultReminderAge is how long a step may sit pending before the
// reminder job re-notifies its approvers.
const DefaultReminderAge = 96 * time.Hour

// ApprovalReminderArgs is a periodic job that re-notifies approvers of
// stale pending steps.
type ApprovalReminderArgs struct{}

// Kind returns the job kind identifier for the approval reminder.
func (ApprovalReminderArgs) Kind() string { return "approval_reminder" }

// InsertOpts ensures at most one reminder sweep per day.
func (ApprovalReminderArgs) InsertOpts() river.InsertOpts {
	return river.InsertOpts{
		Queue:       river.QueueDefault,
		MaxAttempts: 1,
		UniqueOpts: river.UniqueOpts{
			ByPeriod: 24 * time.Hour,
			ByQueue:  true,
			ByArgs:   true,
		},
	}
}

// ApprovalReminderWorker sweeps current pending steps older than the
// reminder age and re-notifies their approver audiences. Only the
// chain's current step is ever reminded; later steps aren't actionable
// yet.
type ApprovalReminderWorker struct {
	river.WorkerDefaults[ApprovalReminderArgs]
	steps      *repository.StepRepository
	entities   *repository.EntityRepository
	dispatcher *notification.Dispatcher
	age        time.Duration
}

// NewApprovalReminderWorker creates a reminder worker. Non-positive age
// falls back to the 4-day default.
func NewApprovalReminderWorker(steps *repository.StepRepository, entities *repository.EntityRepository, dispatcher *notification.Dispatcher, age time.Duration) *ApprovalReminderWorker {
	if age <= 0 {
		age = DefaultReminderAge
	}
	return &ApprovalReminderWorker{
		steps:      steps,
		entities:   entities,
		dispatcher: dispatcher,
		age:        age,
	}
}

// Work re-notifies approvers of every stale current step. Resolution
// failures for individual steps are logged and skipped so one orphaned
// chain never starves the rest of the sweep.
func (w *ApprovalReminderWorker) Work(ctx context.Context, _ *river.Job[ApprovalReminderArgs]) error {
	if w == nil || w.steps == nil || w.dispatcher == nil {
		return fmt.Errorf("approval reminder worker is not initialized")
	}

	cutoffHours := int(w.age.Hours())
	stale, err := w.steps.ListStalePending(ctx, cutoffHours)
	if err != nil {
		return fmt.Errorf("list stale pending steps: %w", err)
	}

	var reminded int
	for _, step := range stale {
		requesterID, err := w.entities.RequesterID(ctx, step.TenantID, step.EntityType, step.EntityID)
		if err != nil {
			logger.Warn("reminder skipped: requester unresolved",
				zap.String("tenant_id", step.TenantID),
				zap.String("entity_type", string(step.EntityType)),
				zap.String("entity_id", step.EntityID),
				zap.Error(err),
			)
			continue
		}
		w.dispatcher.RemindPending(ctx, step, requesterID)
		reminded++
	}

	logger.Info("approval reminder sweep completed",
		zap.Int("stale_steps", len(stale)),
		zap.Int("reminded", reminded),
		zap.Int("cutoff_hours", cutoffHours),
	)
	return nil
}
