package adapter

import (
	"context"
	"fmt"

	"opsledger.io/opsledger/internal/approval"
	"opsledger.io/opsledger/internal/pkg/errors"
	"opsledger.io/opsledger/internal/repository"
)

// PurchaseAdapter binds purchase requests to the chain engine.
type PurchaseAdapter struct {
	entities  *repository.EntityRepository
	directory approval.Directory
}

// NewPurchaseAdapter creates a purchase request adapter.
func NewPurchaseAdapter(entities *repository.EntityRepository, directory approval.Directory) *PurchaseAdapter {
	return &PurchaseAdapter{entities: entities, directory: directory}
}

// EntityType identifies the adapter's entity type.
func (a *PurchaseAdapter) EntityType() approval.EntityType {
	return approval.EntityPurchaseRequest
}

// NotificationContext loads requester name, reference and amount for
// rendering notification text.
func (a *PurchaseAdapter) NotificationContext(ctx context.Context, tenantID, entityID string) (approval.NotificationContext, error) {
	pr, err := a.entities.PurchaseRequestByID(ctx, tenantID, entityID)
	if err != nil {
		return approval.NotificationContext{}, err
	}
	if pr == nil {
		return approval.NotificationContext{}, errors.NotFound(errors.CodeEntityNotFound, "purchase request", entityID)
	}

	return approval.NotificationContext{
		RequesterName:     memberName(ctx, a.directory, tenantID, pr.RequesterID),
		ReferenceNumber:   pr.ReferenceNo,
		EntityDescription: fmt.Sprintf("purchase request %q for %.2f %s", pr.Title, pr.Amount, pr.Currency),
	}, nil
}

// OnChainComplete flips the purchase request's business status.
func (a *PurchaseAdapter) OnChainComplete(ctx context.Context, tenantID, entityID string, outcome approval.Outcome, _, _ string) error {
	return a.entities.SetPurchaseRequestStatus(ctx, tenantID, entityID, entityStatus(outcome))
}
