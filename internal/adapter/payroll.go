package adapter

import (
	"context"
	"fmt"

	"opsledger.io/opsledger/internal/approval"
	"opsledger.io/opsledger/internal/pkg/errors"
	"opsledger.io/opsledger/internal/repository"
)

// PayrollAdapter binds payroll runs to the chain engine. Payroll is the
// highest-stakes entity type: a run disburses money on approval, so its
// status flip is the gate the rest of the payroll pipeline waits on.
type PayrollAdapter struct {
	entities  *repository.EntityRepository
	directory approval.Directory
}

// NewPayrollAdapter creates a payroll run adapter.
func NewPayrollAdapter(entities *repository.EntityRepository, directory approval.Directory) *PayrollAdapter {
	return &PayrollAdapter{entities: entities, directory: directory}
}

// EntityType identifies the adapter's entity type.
func (a *PayrollAdapter) EntityType() approval.EntityType {
	return approval.EntityPayrollRun
}

// NotificationContext loads initiator name, reference and period for
// rendering notification text.
func (a *PayrollAdapter) NotificationContext(ctx context.Context, tenantID, entityID string) (approval.NotificationContext, error) {
	run, err := a.entities.PayrollRunByID(ctx, tenantID, entityID)
	if err != nil {
		return approval.NotificationContext{}, err
	}
	if run == nil {
		return approval.NotificationContext{}, errors.NotFound(errors.CodeEntityNotFound, "payroll run", entityID)
	}

	return approval.NotificationContext{
		RequesterName:     memberName(ctx, a.directory, tenantID, run.InitiatedBy),
		ReferenceNumber:   run.ReferenceNo,
		EntityDescription: fmt.Sprintf("payroll run for %s totaling %.2f", run.Period, run.TotalAmount),
	}, nil
}

// OnChainComplete flips the payroll run's business status.
func (a *PayrollAdapter) OnChainComplete(ctx context.Context, tenantID, entityID string, outcome approval.Outcome, _, _ string) error {
	return a.entities.SetPayrollRunStatus(ctx, tenantID, entityID, entityStatus(outcome))
}
