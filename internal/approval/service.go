package approval

import (
	"context"
	"fmt"
)

// FallbackAllAdmins names the documented simplification used when no
// policy (or no applicable level) exists for a submission: there is no
// chain, and every tenant admin is notified instead of a routed
// approver set. Callers seeing SubmitResult.Fallback == FallbackAllAdmins
// must route the entity through their flat approval path.
const FallbackAllAdmins = "ALL_ADMINS"

// SubmitParams describes a new entity entering approval.
type SubmitParams struct {
	TenantID    string
	EntityType  EntityType
	EntityID    string
	RequesterID string
	// Amount feeds threshold-gated policy levels. Nil when the entity
	// has no monetary dimension.
	Amount *float64
}

// SubmitResult reports what submission produced.
type SubmitResult struct {
	// ChainCreated is true when a new chain was materialized by this
	// call. False with a non-empty Chain means a retried submission
	// found the existing chain.
	ChainCreated bool

	// Chain is the entity's ordered steps. Empty when no policy
	// applied.
	Chain []Step

	// Fallback is FallbackAllAdmins when no policy applied and the
	// flat notification path was used.
	Fallback string
}

// Service ties resolver, initializer and processor into the engine's
// function-call boundary. Transport layers call this; the engine has no
// wire protocol of its own.
type Service struct {
	resolver    *Resolver
	initializer *Initializer
	processor   *Processor
	steps       StepStore
	dispatcher  Dispatcher
}

// NewService assembles the engine facade.
func NewService(resolver *Resolver, initializer *Initializer, processor *Processor, steps StepStore) *Service {
	return &Service{
		resolver:    resolver,
		initializer: initializer,
		processor:   processor,
		steps:       steps,
	}
}

// SetDispatcher configures notification fan-out for submissions and
// transitions.
func (s *Service) SetDispatcher(d Dispatcher) {
	s.dispatcher = d
	s.processor.SetDispatcher(d)
}

// Submit resolves the applicable policy and initializes the entity's
// approval chain, notifying first-level approvers. With no applicable
// policy the entity gets no chain and tenant admins are notified (the
// FallbackAllAdmins path).
func (s *Service) Submit(ctx context.Context, params SubmitParams) (SubmitResult, error) {
	if params.TenantID == "" {
		return SubmitResult{}, fmt.Errorf("submit %s/%s: tenant id is required", params.EntityType, params.EntityID)
	}

	policy, err := s.resolver.FindApplicablePolicy(ctx, params.EntityType, PolicyContext{
		TenantID: params.TenantID,
		Amount:   params.Amount,
	})
	if err != nil {
		return SubmitResult{}, err
	}

	if policy == nil {
		if s.dispatcher != nil {
			s.dispatcher.NoPolicyFallback(ctx, params.TenantID, params.EntityType, params.EntityID, params.RequesterID)
		}
		return SubmitResult{Fallback: FallbackAllAdmins}, nil
	}

	chain, created, err := s.initializer.InitializeChain(ctx, params.EntityType, params.EntityID, policy, params.TenantID, params.RequesterID)
	if err != nil {
		return SubmitResult{}, err
	}

	if created && s.dispatcher != nil && len(chain) > 0 {
		s.dispatcher.ChainSubmitted(ctx, chain[0], params.RequesterID)
	}

	return SubmitResult{ChainCreated: created, Chain: chain}, nil
}

// Process performs one approval action; see Processor.ProcessEntityApproval.
func (s *Service) Process(ctx context.Context, params ProcessParams) (Result, error) {
	return s.processor.ProcessEntityApproval(ctx, params)
}

// Chain returns the entity's steps in level order.
func (s *Service) Chain(ctx context.Context, tenantID string, entityType EntityType, entityID string) ([]Step, error) {
	return s.steps.ListSteps(ctx, tenantID, entityType, entityID)
}
