package adapter

import (
	"context"
	"fmt"

	"opsledger.io/opsledger/internal/approval"
	"opsledger.io/opsledger/internal/pkg/errors"
	"opsledger.io/opsledger/internal/repository"
)

// LeaveAdapter binds leave requests to the chain engine.
type LeaveAdapter struct {
	entities *repository.EntityRepository
	// directory resolves requester names for notification context; may
	// be nil, in which case the requester ID is used.
	directory approval.Directory
}

// NewLeaveAdapter creates a leave request adapter.
func NewLeaveAdapter(entities *repository.EntityRepository, directory approval.Directory) *LeaveAdapter {
	return &LeaveAdapter{entities: entities, directory: directory}
}

// EntityType identifies the adapter's entity type.
func (a *LeaveAdapter) EntityType() approval.EntityType {
	return approval.EntityLeaveRequest
}

// NotificationContext loads requester name and reference for rendering
// notification text.
func (a *LeaveAdapter) NotificationContext(ctx context.Context, tenantID, entityID string) (approval.NotificationContext, error) {
	lr, err := a.entities.LeaveRequestByID(ctx, tenantID, entityID)
	if err != nil {
		return approval.NotificationContext{}, err
	}
	if lr == nil {
		return approval.NotificationContext{}, errors.NotFound(errors.CodeEntityNotFound, "leave request", entityID)
	}

	return approval.NotificationContext{
		RequesterName:     memberName(ctx, a.directory, tenantID, lr.RequesterID),
		ReferenceNumber:   lr.ReferenceNo,
		EntityDescription: fmt.Sprintf("%s leave request for %.1f day(s)", lr.LeaveType, lr.Days),
	}, nil
}

// OnChainComplete flips the leave request's business status.
func (a *LeaveAdapter) OnChainComplete(ctx context.Context, tenantID, entityID string, outcome approval.Outcome, _, _ string) error {
	return a.entities.SetLeaveRequestStatus(ctx, tenantID, entityID, entityStatus(outcome))
}
