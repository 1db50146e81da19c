package notification

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"opsledger.io/opsledger/internal/approval"
	"opsledger.io/opsledger/internal/pkg/logger"
	"opsledger.io/opsledger/internal/pkg/worker"
)

// EmailMessage is one outbound email handed to the job queue.
type EmailMessage struct {
	To      []string `json:"to"`
	Subject string   `json:"subject"`
	Body    string   `json:"body"`
}

// WhatsAppMessage is one messaging automation trigger handed to the job
// queue.
type WhatsAppMessage struct {
	RecipientIDs []string `json:"recipient_ids"`
	Title        string   `json:"title"`
	Message      string   `json:"message"`
}

// Enqueuer hands external deliveries to the job queue. The queue gives
// them at-least-once semantics with retries; enqueue failures are still
// best-effort from the dispatcher's point of view.
type Enqueuer interface {
	EnqueueEmail(ctx context.Context, msg EmailMessage) error
	EnqueueWhatsApp(ctx context.Context, msg WhatsAppMessage) error
}

// Dispatcher fans chain transition events out to the in-app inbox and,
// when configured, to external channels via the job queue. All public
// methods return immediately: the work runs detached on the notify
// worker pool, so approval responses never wait on delivery channels.
type Dispatcher struct {
	directory approval.Directory
	inbox     Sender
	pools     *worker.Pools

	enqueuer Enqueuer               // nil disables external channels
	lookup   approval.AdapterLookup // nil disables entity context enrichment
}

// NewDispatcher creates a dispatcher. External channels and entity
// context lookup are wired afterwards to keep construction acyclic.
func NewDispatcher(directory approval.Directory, inbox Sender, pools *worker.Pools) *Dispatcher {
	return &Dispatcher{
		directory: directory,
		inbox:     inbox,
		pools:     pools,
	}
}

// SetEnqueuer wires the job queue for email and WhatsApp delivery.
func (d *Dispatcher) SetEnqueuer(enqueuer Enqueuer) {
	d.enqueuer = enqueuer
}

// SetAdapterLookup wires per-entity-type context loading.
func (d *Dispatcher) SetAdapterLookup(lookup approval.AdapterLookup) {
	d.lookup = lookup
}

// ChainSubmitted notifies the first step's approvers that a new chain
// awaits them.
func (d *Dispatcher) ChainSubmitted(_ context.Context, first approval.Step, requesterID string) {
	step := first
	d.detach("chain_submitted", func(ctx context.Context) {
		d.notifyStepApprovers(ctx, step, requesterID, "awaits your approval")
	})
}

// ChainAdvanced notifies the new current step's approvers after an
// approval left the chain incomplete.
func (d *Dispatcher) ChainAdvanced(_ context.Context, next approval.Step, requesterID string) {
	step := next
	d.detach("chain_advanced", func(ctx context.Context) {
		d.notifyStepApprovers(ctx, step, requesterID, "advanced to your approval")
	})
}

// RemindPending re-notifies a stale step's approvers. Called from the
// periodic reminder job, which already runs on a queue worker, so the
// fan-out is synchronous here.
func (d *Dispatcher) RemindPending(ctx context.Context, step approval.Step, requesterID string) {
	d.notifyStepApprovers(ctx, step, requesterID, "is still awaiting your approval")
}

// ChainCompleted notifies the requester of the terminal outcome.
func (d *Dispatcher) ChainCompleted(_ context.Context, tenantID string, entityType approval.EntityType, entityID string, outcome approval.Outcome, actorID, requesterID, notes string) {
	d.detach("chain_completed", func(ctx context.Context) {
		entCtx := d.entityContext(ctx, tenantID, entityType, entityID)
		actorName := d.memberName(ctx, tenantID, actorID)

		notifType := TypeApprovalCompleted
		verb := "approved"
		if outcome == approval.OutcomeRejected {
			notifType = TypeApprovalRejected
			verb = "rejected"
		}

		msg := fmt.Sprintf("Your %s was %s by %s", describeEntity(entityType, entCtx), verb, actorName)
		if notes != "" {
			msg += ": " + notes
		}

		requester, err := d.directory.Member(ctx, tenantID, requesterID)
		if err != nil || requester == nil {
			logger.Warn("completion notification requester unresolved",
				zap.String("tenant_id", tenantID),
				zap.String("requester_id", requesterID),
				zap.Error(err),
			)
			return
		}

		d.deliver(ctx, []approval.MemberInfo{*requester}, Params{
			TenantID:   tenantID,
			Type:       notifType,
			Title:      fmt.Sprintf("Request %s", strings.ToLower(verb)),
			Message:    msg,
			Link:       entityLink(entityType, entityID),
			EntityType: string(entityType),
			EntityID:   entityID,
		})
	})
}

// NoPolicyFallback notifies every tenant admin that a submission found
// no applicable policy and needs a direct decision.
func (d *Dispatcher) NoPolicyFallback(_ context.Context, tenantID string, entityType approval.EntityType, entityID string, requesterID string) {
	d.detach("no_policy_fallback", func(ctx context.Context) {
		admins, err := d.directory.Admins(ctx, tenantID)
		if err != nil {
			logger.Error("admin fallback audience lookup failed",
				zap.String("tenant_id", tenantID),
				zap.Error(err),
			)
			return
		}
		if len(admins) == 0 {
			logger.Warn("no admins for unrouted approval",
				zap.String("tenant_id", tenantID),
				zap.String("entity_id", entityID),
			)
			return
		}

		entCtx := d.entityContext(ctx, tenantID, entityType, entityID)
		requesterName := d.memberName(ctx, tenantID, requesterID)

		d.deliver(ctx, admins, Params{
			TenantID:   tenantID,
			Type:       TypeApprovalUnrouted,
			Title:      "Approval needed (no routing policy)",
			Message:    fmt.Sprintf("%s submitted a %s with no approval policy configured; an admin decision is required", requesterName, describeEntity(entityType, entCtx)),
			Link:       entityLink(entityType, entityID),
			EntityType: string(entityType),
			EntityID:   entityID,
		})
	})
}

// detach submits the event handler to the notify pool. Dropped events
// are logged; chain state is already committed, so losing a
// notification never loses an approval.
func (d *Dispatcher) detach(event string, task worker.Task) {
	if err := d.pools.SubmitDetached("notify", task); err != nil {
		logger.Error("notification event dropped",
			zap.String("event", event),
			zap.Error(err),
		)
	}
}

func (d *Dispatcher) notifyStepApprovers(ctx context.Context, step approval.Step, requesterID, phase string) {
	audience := d.stepAudience(ctx, step, requesterID)
	if len(audience) == 0 {
		logger.Warn("no audience for step notification",
			zap.String("tenant_id", step.TenantID),
			zap.String("entity_id", step.EntityID),
			zap.String("required_role", step.RequiredRole),
			zap.Int("level", step.LevelOrder),
		)
		return
	}

	entCtx := d.entityContext(ctx, step.TenantID, step.EntityType, step.EntityID)
	requesterName := d.memberName(ctx, step.TenantID, requesterID)

	d.deliver(ctx, audience, Params{
		TenantID:   step.TenantID,
		Type:       TypeApprovalPending,
		Title:      "Approval needed",
		Message:    fmt.Sprintf("%s from %s %s (approval step %d)", describeEntity(step.EntityType, entCtx), requesterName, phase, step.LevelOrder),
		Link:       entityLink(step.EntityType, step.EntityID),
		EntityType: string(step.EntityType),
		EntityID:   step.EntityID,
	})
}

// stepAudience resolves the concrete approvers for a step fresh from
// the directory. MANAGER resolves to the requester's current reporting
// manager; other roles resolve to every holder. An unresolvable
// audience falls back to all tenant admins so no chain stalls silently.
func (d *Dispatcher) stepAudience(ctx context.Context, step approval.Step, requesterID string) []approval.MemberInfo {
	if step.RequiredRole == approval.RoleManager {
		requester, err := d.directory.Member(ctx, step.TenantID, requesterID)
		if err == nil && requester != nil && requester.ReportingManagerID != "" {
			manager, merr := d.directory.Member(ctx, step.TenantID, requester.ReportingManagerID)
			if merr == nil && manager != nil {
				return []approval.MemberInfo{*manager}
			}
		}
		return d.adminFallback(ctx, step.TenantID)
	}

	holders, err := d.directory.MembersWithRole(ctx, step.TenantID, step.RequiredRole)
	if err != nil {
		logger.Error("role audience lookup failed",
			zap.String("tenant_id", step.TenantID),
			zap.String("role", step.RequiredRole),
			zap.Error(err),
		)
		return nil
	}
	if len(holders) == 0 {
		return d.adminFallback(ctx, step.TenantID)
	}
	return holders
}

func (d *Dispatcher) adminFallback(ctx context.Context, tenantID string) []approval.MemberInfo {
	admins, err := d.directory.Admins(ctx, tenantID)
	if err != nil {
		logger.Error("admin fallback audience lookup failed",
			zap.String("tenant_id", tenantID),
			zap.Error(err),
		)
		return nil
	}
	return admins
}

// deliver writes the inbox rows and, when a queue is wired, enqueues
// email and WhatsApp deliveries. Channels fail independently.
func (d *Dispatcher) deliver(ctx context.Context, recipients []approval.MemberInfo, params Params) {
	ids := make([]string, 0, len(recipients))
	emails := make([]string, 0, len(recipients))
	for _, m := range recipients {
		ids = append(ids, m.ID)
		if m.Email != "" {
			emails = append(emails, m.Email)
		}
	}

	if err := d.inbox.SendToMany(ctx, ids, params); err != nil {
		logger.Error("inbox delivery failed",
			zap.String("type", params.Type),
			zap.Int("recipients", len(ids)),
			zap.Error(err),
		)
	}

	if d.enqueuer == nil {
		return
	}

	if len(emails) > 0 {
		err := d.enqueuer.EnqueueEmail(ctx, EmailMessage{
			To:      emails,
			Subject: params.Title,
			Body:    params.Message,
		})
		if err != nil {
			logger.Error("email enqueue failed",
				zap.String("type", params.Type),
				zap.Error(err),
			)
		}
	}

	err := d.enqueuer.EnqueueWhatsApp(ctx, WhatsAppMessage{
		RecipientIDs: ids,
		Title:        params.Title,
		Message:      params.Message,
	})
	if err != nil {
		logger.Error("whatsapp enqueue failed",
			zap.String("type", params.Type),
			zap.Error(err),
		)
	}
}

func (d *Dispatcher) entityContext(ctx context.Context, tenantID string, entityType approval.EntityType, entityID string) approval.NotificationContext {
	if d.lookup == nil {
		return approval.NotificationContext{}
	}
	adapter := d.lookup(entityType)
	if adapter == nil {
		return approval.NotificationContext{}
	}
	entCtx, err := adapter.NotificationContext(ctx, tenantID, entityID)
	if err != nil {
		logger.Warn("entity notification context unavailable",
			zap.String("entity_type", string(entityType)),
			zap.String("entity_id", entityID),
			zap.Error(err),
		)
		return approval.NotificationContext{}
	}
	return entCtx
}

func (d *Dispatcher) memberName(ctx context.Context, tenantID, memberID string) string {
	if memberID == "" {
		return "the system"
	}
	m, err := d.directory.Member(ctx, tenantID, memberID)
	if err != nil || m == nil {
		return memberID
	}
	return m.Name
}

// describeEntity renders a human label, preferring adapter-supplied
// context over the raw entity type.
func describeEntity(entityType approval.EntityType, entCtx approval.NotificationContext) string {
	label := strings.ToLower(strings.ReplaceAll(string(entityType), "_", " "))
	if entCtx.EntityDescription != "" {
		label = entCtx.EntityDescription
	}
	if entCtx.ReferenceNumber != "" {
		return fmt.Sprintf("%s (%s)", label, entCtx.ReferenceNumber)
	}
	return label
}

func entityLink(entityType approval.EntityType, entityID string) string {
	return fmt.Sprintf("/approvals/%s/%s", strings.ToLower(string(entityType)), entityID)
}

var _ approval.Dispatcher = (*Dispatcher)(nil)
