package adapter

import (
	"context"
	"fmt"

	"opsledger.io/opsledger/internal/approval"
	"opsledger.io/opsledger/internal/pkg/errors"
	"opsledger.io/opsledger/internal/repository"
)

// AssetAdapter binds asset requests to the chain engine.
type AssetAdapter struct {
	entities  *repository.EntityRepository
	directory approval.Directory
}

// NewAssetAdapter creates an asset request adapter.
func NewAssetAdapter(entities *repository.EntityRepository, directory approval.Directory) *AssetAdapter {
	return &AssetAdapter{entities: entities, directory: directory}
}

// EntityType identifies the adapter's entity type.
func (a *AssetAdapter) EntityType() approval.EntityType {
	return approval.EntityAssetRequest
}

// NotificationContext loads requester name and asset details for
// rendering notification text.
func (a *AssetAdapter) NotificationContext(ctx context.Context, tenantID, entityID string) (approval.NotificationContext, error) {
	ar, err := a.entities.AssetRequestByID(ctx, tenantID, entityID)
	if err != nil {
		return approval.NotificationContext{}, err
	}
	if ar == nil {
		return approval.NotificationContext{}, errors.NotFound(errors.CodeEntityNotFound, "asset request", entityID)
	}

	return approval.NotificationContext{
		RequesterName:     memberName(ctx, a.directory, tenantID, ar.RequesterID),
		ReferenceNumber:   ar.ReferenceNo,
		EntityDescription: fmt.Sprintf("asset request for %q", ar.AssetName),
	}, nil
}

// OnChainComplete flips the asset request's business status.
func (a *AssetAdapter) OnChainComplete(ctx context.Context, tenantID, entityID string, outcome approval.Outcome, _, _ string) error {
	return a.entities.SetAssetRequestStatus(ctx, tenantID, entityID, entityStatus(outcome))
}
