package approval

import (
	"context"
)

// StepStore is the persistence collaborator for approval steps. The
// conditional write in Claim is the engine's only synchronization
// primitive: implementations must guarantee that for a given step at
// most one Claim call ever reports Claimed.
type StepStore interface {
	// CountSteps returns the number of steps for the entity. Zero
	// means no chain exists.
	CountSteps(ctx context.Context, tenantID string, entityType EntityType, entityID string) (int, error)

	// ListSteps returns all steps for the entity ordered by level.
	ListSteps(ctx context.Context, tenantID string, entityType EntityType, entityID string) ([]Step, error)

	// CurrentPending returns the step with the lowest level order still
	// PENDING, or nil when every step is terminal.
	CurrentPending(ctx context.Context, tenantID string, entityType EntityType, entityID string) (*Step, error)

	// CreateSteps inserts the given steps in one transaction. When the
	// entity already has steps (retried submission), nothing is
	// inserted and the existing chain is returned with created=false.
	CreateSteps(ctx context.Context, steps []Step) (chain []Step, created bool, err error)

	// Claim atomically transitions the identified step from PENDING to
	// the target terminal state, recording approver, action time and
	// notes. When cascading (rejection), all later PENDING steps of the
	// chain are transitioned to SKIPPED in the same transaction. The
	// returned outcome reports whether the claim won and how many
	// PENDING steps remain afterwards.
	Claim(ctx context.Context, claim ClaimParams) (ClaimOutcome, error)

	// CountPending returns the number of PENDING steps for the entity.
	CountPending(ctx context.Context, tenantID string, entityType EntityType, entityID string) (int, error)
}

// ClaimParams identifies the step to transition and the target state.
type ClaimParams struct {
	TenantID   string
	EntityType EntityType
	EntityID   string
	LevelOrder int
	Target     StepStatus // StatusApproved or StatusRejected
	ApproverID string
	Notes      string
	// Cascade skips all later PENDING steps in the same transaction.
	// Set for rejections.
	Cascade bool
}

// ClaimOutcome reports the result of a conditional claim.
type ClaimOutcome struct {
	// Claimed is true when the conditional update affected the row.
	// False means another actor already processed the step.
	Claimed bool

	// Skipped is the number of steps cascaded to SKIPPED.
	Skipped int

	// PendingRemaining is the number of PENDING steps left in the
	// chain after the claim, counted inside the same transaction.
	PendingRemaining int

	// Step is the claimed step as written, when Claimed.
	Step *Step
}

// PolicyStore looks up approval policy configuration. Read-only during
// processing.
type PolicyStore interface {
	// FindActivePolicy returns the enabled policy for the tenant and
	// entity type with its levels in order, or nil when none is
	// configured.
	FindActivePolicy(ctx context.Context, tenantID string, entityType EntityType) (*Policy, error)
}

// MemberInfo is the authorization collaborator's view of one team
// member.
type MemberInfo struct {
	ID                 string
	Name               string
	Email              string
	Roles              []string
	IsAdmin            bool
	CanApprove         bool
	ReportingManagerID string
}

// HasRole reports whether the member holds the given role.
func (m *MemberInfo) HasRole(role string) bool {
	for _, r := range m.Roles {
		if r == role {
			return true
		}
	}
	return false
}

// Directory is the authorization collaborator: it resolves members and
// role audiences fresh on every call, so role requirements stay
// predicates rather than stored user lists.
type Directory interface {
	// Member returns the member, or nil when unknown in the tenant.
	Member(ctx context.Context, tenantID, memberID string) (*MemberInfo, error)

	// MembersWithRole returns all tenant members holding the role.
	MembersWithRole(ctx context.Context, tenantID, role string) ([]MemberInfo, error)

	// Admins returns all tenant members with admin privilege.
	Admins(ctx context.Context, tenantID string) ([]MemberInfo, error)
}

// Adapter is the per-entity-type glue (ports and adapters boundary).
// The engine stays ignorant of entity schemas; each adapter supplies
// notification context on demand and flips its own entity's status on
// chain completion.
type Adapter interface {
	EntityType() EntityType

	// NotificationContext loads requester name, reference number and a
	// human description for the entity.
	NotificationContext(ctx context.Context, tenantID, entityID string) (NotificationContext, error)

	// OnChainComplete updates the owning entity's business status after
	// the chain reached a terminal outcome.
	OnChainComplete(ctx context.Context, tenantID, entityID string, outcome Outcome, actorID, notes string) error
}

// Dispatcher receives transition events and fans out notifications.
// Implementations are best-effort: they must never propagate failures
// back into the approval transition.
type Dispatcher interface {
	// ChainSubmitted fires after a chain was created; audience is the
	// first step's approvers.
	ChainSubmitted(ctx context.Context, first Step, requesterID string)

	// ChainAdvanced fires after an approval that left the chain
	// incomplete; audience is the new current step's approvers.
	ChainAdvanced(ctx context.Context, next Step, requesterID string)

	// ChainCompleted fires after the chain reached a terminal outcome;
	// audience is the requester.
	ChainCompleted(ctx context.Context, tenantID string, entityType EntityType, entityID string, outcome Outcome, actorID, requesterID, notes string)

	// NoPolicyFallback fires when submission found no applicable
	// policy; audience is every tenant admin (FallbackAllAdmins).
	NoPolicyFallback(ctx context.Context, tenantID string, entityType EntityType, entityID string, requesterID string)
}

// AuditSink records approval actions. Append failures are logged by
// callers and never propagated.
type AuditSink interface {
	Append(ctx context.Context, entry AuditEntry) error
}

// AuditEntry is one append-only audit record for a chain transition.
type AuditEntry struct {
	TenantID   string
	EntityType EntityType
	EntityID   string
	LevelOrder int
	Action     string
	ActorID    string
	Notes      string
}
