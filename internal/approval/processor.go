package approval

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"opsledger.io/opsledger/internal/pkg/logger"
)

// Soft-failure reasons surfaced in Result.Error. The UI distinguishes
// "you are not allowed" from "someone else got there first", so the
// strings are part of the contract.
const (
	ReasonStepAlreadyProcessed = "Step already processed"
	ReasonNotAuthorized        = "Not authorized to act on the current approval step"
	ReasonUnknownAction        = "Unknown approval action"
)

// ProcessParams identifies one approval action against an entity's
// chain.
type ProcessParams struct {
	TenantID    string
	EntityType  EntityType
	EntityID    string
	ApproverID  string
	RequesterID string
	Action      Action
	Notes       string
}

// AdapterLookup resolves the entity adapter for a type, or nil.
type AdapterLookup func(EntityType) Adapter

// Processor is the chain state machine: it locates the current pending
// step, authorizes the actor, performs the atomic claim-and-act
// transition, cascades skips on rejection and detects completion.
type Processor struct {
	steps     StepStore
	directory Directory

	// Optional collaborators; all nil-safe.
	dispatcher Dispatcher
	adapters   AdapterLookup
	audit      AuditSink
}

// NewProcessor creates a step processor.
func NewProcessor(steps StepStore, directory Directory) *Processor {
	return &Processor{steps: steps, directory: directory}
}

// SetDispatcher configures the notification dispatcher.
func (p *Processor) SetDispatcher(d Dispatcher) { p.dispatcher = d }

// SetAdapterLookup configures entity adapter resolution.
func (p *Processor) SetAdapterLookup(lookup AdapterLookup) { p.adapters = lookup }

// SetAuditSink configures the audit trail sink.
func (p *Processor) SetAuditSink(a AuditSink) { p.audit = a }

// ProcessEntityApproval performs one approval action. Domain-expected
// outcomes (no chain, unauthorized, race lost, already complete) are
// soft results; only infrastructure failures return a non-nil error.
func (p *Processor) ProcessEntityApproval(ctx context.Context, params ProcessParams) (Result, error) {
	if params.Action != ActionApprove && params.Action != ActionReject {
		return Result{ChainExists: true, Error: ReasonUnknownAction}, nil
	}
	// An entity without a tenant cannot have a chain; treat as the
	// no-chain fallback rather than failing.
	if params.TenantID == "" {
		return Result{ChainExists: false, ChainComplete: true}, nil
	}

	count, err := p.steps.CountSteps(ctx, params.TenantID, params.EntityType, params.EntityID)
	if err != nil {
		return Result{}, fmt.Errorf("count approval steps for %s/%s: %w", params.EntityType, params.EntityID, err)
	}
	if count == 0 {
		return Result{ChainExists: false, ChainComplete: true}, nil
	}

	current, err := p.steps.CurrentPending(ctx, params.TenantID, params.EntityType, params.EntityID)
	if err != nil {
		return Result{}, fmt.Errorf("locate current pending step for %s/%s: %w", params.EntityType, params.EntityID, err)
	}
	if current == nil {
		// Chain already finished by an earlier call or a concurrent
		// actor; idempotent no-op.
		return Result{ChainExists: true, ChainComplete: true}, nil
	}

	authorized, err := p.authorize(ctx, current, params.ApproverID, params.RequesterID)
	if err != nil {
		return Result{}, err
	}
	if !authorized {
		return Result{ChainExists: true, Error: ReasonNotAuthorized}, nil
	}

	target := StatusApproved
	if params.Action == ActionReject {
		target = StatusRejected
	}

	claim, err := p.steps.Claim(ctx, ClaimParams{
		TenantID:   params.TenantID,
		EntityType: params.EntityType,
		EntityID:   params.EntityID,
		LevelOrder: current.LevelOrder,
		Target:     target,
		ApproverID: params.ApproverID,
		Notes:      params.Notes,
		Cascade:    params.Action == ActionReject,
	})
	if err != nil {
		return Result{}, fmt.Errorf("claim step %d for %s/%s: %w", current.LevelOrder, params.EntityType, params.EntityID, err)
	}
	if !claim.Claimed {
		// Another actor won the conditional update. Not an error:
		// callers treat this as "already handled".
		return Result{
			ChainExists:   true,
			ChainComplete: claim.PendingRemaining == 0,
			Error:         ReasonStepAlreadyProcessed,
		}, nil
	}

	res := Result{
		ChainExists:   true,
		ChainComplete: claim.PendingRemaining == 0,
		StepProcessed: true,
		Step:          claim.Step,
	}

	p.appendAudit(ctx, params, current.LevelOrder)

	if res.ChainComplete {
		res.Outcome = OutcomeApproved
		if params.Action == ActionReject {
			res.Outcome = OutcomeRejected
		}
		p.completeChain(ctx, params, res.Outcome)
		return res, nil
	}

	// Chain advanced: notify the new current step's approvers.
	if p.dispatcher != nil {
		next, nextErr := p.steps.CurrentPending(ctx, params.TenantID, params.EntityType, params.EntityID)
		if nextErr != nil {
			logger.Error("failed to load next pending step for notification",
				zap.String("entity_type", string(params.EntityType)),
				zap.String("entity_id", params.EntityID),
				zap.Error(nextErr),
			)
		} else if next != nil {
			p.dispatcher.ChainAdvanced(ctx, *next, params.RequesterID)
		}
	}

	return res, nil
}

// authorize checks that the actor may process the current step: admin
// override, or the step's role predicate evaluated against a fresh
// directory lookup. The MANAGER role matches only the requester's
// current reporting manager.
func (p *Processor) authorize(ctx context.Context, step *Step, approverID, requesterID string) (bool, error) {
	member, err := p.directory.Member(ctx, step.TenantID, approverID)
	if err != nil {
		return false, fmt.Errorf("resolve approver %s: %w", approverID, err)
	}
	if member == nil {
		return false, nil
	}
	if member.IsAdmin {
		return true, nil
	}
	if !member.CanApprove {
		return false, nil
	}

	if step.RequiredRole == RoleManager {
		requester, err := p.directory.Member(ctx, step.TenantID, requesterID)
		if err != nil {
			return false, fmt.Errorf("resolve requester %s: %w", requesterID, err)
		}
		return requester != nil && requester.ReportingManagerID == approverID, nil
	}

	return member.HasRole(step.RequiredRole), nil
}

// completeChain runs the completion side effects: entity status
// callback and requester notification. Both are best-effort — the step
// transition is already committed and must not be reverted.
func (p *Processor) completeChain(ctx context.Context, params ProcessParams, outcome Outcome) {
	if p.adapters != nil {
		if a := p.adapters(params.EntityType); a != nil {
			if err := a.OnChainComplete(ctx, params.TenantID, params.EntityID, outcome, params.ApproverID, params.Notes); err != nil {
				logger.Error("entity completion callback failed",
					zap.String("entity_type", string(params.EntityType)),
					zap.String("entity_id", params.EntityID),
					zap.String("outcome", string(outcome)),
					zap.Error(err),
				)
			}
		}
	}

	if p.dispatcher != nil {
		p.dispatcher.ChainCompleted(ctx, params.TenantID, params.EntityType, params.EntityID, outcome, params.ApproverID, params.RequesterID, params.Notes)
	}
}

func (p *Processor) appendAudit(ctx context.Context, params ProcessParams, levelOrder int) {
	if p.audit == nil {
		return
	}
	if err := p.audit.Append(ctx, AuditEntry{
		TenantID:   params.TenantID,
		EntityType: params.EntityType,
		EntityID:   params.EntityID,
		LevelOrder: levelOrder,
		Action:     string(params.Action),
		ActorID:    params.ApproverID,
		Notes:      params.Notes,
	}); err != nil {
		logger.Warn("failed to append approval audit entry",
			zap.String("entity_type", string(params.EntityType)),
			zap.String("entity_id", params.EntityID),
			zap.Error(err),
		)
	}
}
