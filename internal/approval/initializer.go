package approval

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"opsledger.io/opsledger/internal/pkg/logger"
)

// Initializer materializes policy levels into persisted approval steps
// for one entity instance.
type Initializer struct {
	steps StepStore
}

// NewInitializer creates a chain initializer.
func NewInitializer(steps StepStore) *Initializer {
	return &Initializer{steps: steps}
}

// InitializeChain creates one PENDING step per policy level, in level
// order, and returns the chain. The step stores the level's required
// role, never a resolved person. Idempotent: when the entity already
// has a chain (retried submission) the existing steps are returned
// unchanged and created is false.
func (i *Initializer) InitializeChain(
	ctx context.Context,
	entityType EntityType,
	entityID string,
	policy *Policy,
	tenantID, requesterID string,
) (chain []Step, created bool, err error) {
	if policy == nil || len(policy.Levels) == 0 {
		return nil, false, fmt.Errorf("initialize chain for %s/%s: policy has no applicable levels", entityType, entityID)
	}
	if tenantID == "" || entityID == "" {
		return nil, false, fmt.Errorf("initialize chain: tenant and entity ids are required")
	}

	steps := make([]Step, 0, len(policy.Levels))
	for _, level := range policy.Levels {
		id, idErr := uuid.NewV7()
		if idErr != nil {
			return nil, false, fmt.Errorf("generate step id: %w", idErr)
		}
		steps = append(steps, Step{
			ID:           id.String(),
			TenantID:     tenantID,
			EntityType:   entityType,
			EntityID:     entityID,
			LevelOrder:   level.Order,
			RequiredRole: level.RequiredRole,
			Status:       StatusPending,
		})
	}

	chain, created, err = i.steps.CreateSteps(ctx, steps)
	if err != nil {
		return nil, false, fmt.Errorf("create approval steps for %s/%s: %w", entityType, entityID, err)
	}

	if created {
		logger.Info("approval chain initialized",
			zap.String("tenant_id", tenantID),
			zap.String("entity_type", string(entityType)),
			zap.String("entity_id", entityID),
			zap.String("requester_id", requesterID),
			zap.Int("levels", len(chain)),
		)
	} else {
		logger.Debug("approval chain already exists, returning existing steps",
			zap.String("entity_type", string(entityType)),
			zap.String("entity_id", entityID),
		)
	}

	return chain, created, nil
}
