// Package approval implements the multi-level approval chain engine.
//
// A chain is the ordered set of approval steps for one business entity
// instance, materialized from a tenant's approval policy. Steps are
// processed strictly in level order; a conditional status write on the
// current pending step is the only synchronization primitive.
package approval

import (
	"time"
)

// EntityType identifies the kind of business entity a chain governs.
type EntityType string

// Entity types served by the engine. The engine itself never touches
// the owning entity's table; adapters do.
const (
	EntityLeaveRequest    EntityType = "LEAVE_REQUEST"
	EntityPurchaseRequest EntityType = "PURCHASE_REQUEST"
	EntityAssetRequest    EntityType = "ASSET_REQUEST"
	EntityPayrollRun      EntityType = "PAYROLL_RUN"
)

// KnownEntityTypes lists every entity type with a registered adapter slot.
var KnownEntityTypes = []EntityType{
	EntityLeaveRequest,
	EntityPurchaseRequest,
	EntityAssetRequest,
	EntityPayrollRun,
}

// ValidEntityType reports whether t is one of the supported entity types.
func ValidEntityType(t EntityType) bool {
	for _, known := range KnownEntityTypes {
		if t == known {
			return true
		}
	}
	return false
}

// StepStatus is the lifecycle state of one approval step.
type StepStatus string

// Step states. PENDING is the only non-terminal state; terminal states
// are immutable.
const (
	StatusPending  StepStatus = "PENDING"
	StatusApproved StepStatus = "APPROVED"
	StatusRejected StepStatus = "REJECTED"
	StatusSkipped  StepStatus = "SKIPPED"
)

// Action is an approver's decision on the current pending step.
type Action string

// Approver actions.
const (
	ActionApprove Action = "APPROVE"
	ActionReject  Action = "REJECT"
)

// Outcome is the terminal result of a completed chain.
type Outcome string

// Chain outcomes.
const (
	OutcomeApproved Outcome = "APPROVED"
	OutcomeRejected Outcome = "REJECTED"
)

// RoleManager is the abstract "direct manager" role. It is resolved to
// the requester's reporting manager at authorization and notification
// time, never at chain creation time, so org-chart changes between
// submission and approval don't invalidate pending steps.
const RoleManager = "MANAGER"

// Level is one rung of an approval policy: a required role plus an
// optional monetary threshold gating whether the level applies.
type Level struct {
	Order        int
	RequiredRole string
	// MinAmount gates the level: it applies only when the request
	// amount is strictly greater than this value. Nil means the level
	// always applies.
	MinAmount *float64
}

// Applies reports whether the level participates in a chain for the
// given request amount. Levels without a threshold always apply; a
// thresholded level never applies when no amount is supplied.
func (l Level) Applies(amount *float64) bool {
	if l.MinAmount == nil {
		return true
	}
	if amount == nil {
		return false
	}
	return *amount > *l.MinAmount
}

// Policy is a tenant's approval configuration for one entity type:
// an ordered list of levels, strictly ordered by Level.Order starting
// at 1, contiguous, no gaps.
type Policy struct {
	ID         string
	TenantID   string
	EntityType EntityType
	Name       string
	Enabled    bool
	Levels     []Level
}

// ApplicableLevels returns the levels whose threshold condition is
// satisfied by amount, preserving policy order. Original level orders
// are kept so steps stay traceable to their policy level.
func (p *Policy) ApplicableLevels(amount *float64) []Level {
	levels := make([]Level, 0, len(p.Levels))
	for _, l := range p.Levels {
		if l.Applies(amount) {
			levels = append(levels, l)
		}
	}
	return levels
}

// Step is the persisted instance of a policy level for one entity.
// The step stores the required role, not a specific person; the
// concrete approver set is resolved fresh on every authorization check
// and notification fan-out.
type Step struct {
	ID           string
	TenantID     string
	EntityType   EntityType
	EntityID     string
	LevelOrder   int
	RequiredRole string
	Status       StepStatus
	ApproverID   *string
	ActionAt     *time.Time
	Notes        *string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Terminal reports whether the step has reached an immutable state.
func (s *Step) Terminal() bool {
	return s.Status != StatusPending
}

// NotificationContext is what an entity adapter supplies for rendering
// human-facing notification text.
type NotificationContext struct {
	RequesterName     string
	ReferenceNumber   string
	EntityDescription string
}

// Result is the outcome of a ProcessEntityApproval call. Domain-expected
// failures (no chain, unauthorized, race lost) are carried here as soft
// results, never as Go errors.
type Result struct {
	// ChainExists is false when the entity has no approval steps at
	// all; the caller should use its flat fallback approval path.
	ChainExists bool

	// ChainComplete is true when no step remains PENDING.
	ChainComplete bool

	// StepProcessed is true when this call transitioned a step.
	StepProcessed bool

	// Outcome is set when the chain is complete: APPROVED when every
	// step was approved, REJECTED when the chain was terminated by a
	// rejection.
	Outcome Outcome

	// Step is the step transitioned by this call, when StepProcessed.
	Step *Step

	// Error carries the user-facing reason for a soft failure
	// (unauthorized, already processed). Empty on success.
	Error string
}
